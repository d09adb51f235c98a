package publisher

import (
	"context"

	"github.com/pidulll/capstone/module/core/domain"
)

type AlertPublisher interface {
	PublishAlert(ctx context.Context, event *domain.TransitionEvent) error
}
