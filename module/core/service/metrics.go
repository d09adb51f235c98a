package service

import "github.com/pidulll/capstone/module/core/domain"

// Metrics counts evaluation and alert delivery outcomes.
type Metrics interface {
	IncCycles()
	IncTransition(kind domain.GeofenceEventType)
	IncFetchFailure(source string)
	IncInvalidZone()
	IncAlertPublished()
	IncAlertFailed()
	IncAlertDropped()
}

type nopMetrics struct{}

func (nopMetrics) IncCycles()                             {}
func (nopMetrics) IncTransition(domain.GeofenceEventType) {}
func (nopMetrics) IncFetchFailure(string)                 {}
func (nopMetrics) IncInvalidZone()                        {}
func (nopMetrics) IncAlertPublished()                     {}
func (nopMetrics) IncAlertFailed()                        {}
func (nopMetrics) IncAlertDropped()                       {}
