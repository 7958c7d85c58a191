package inbox

import (
	"context"
	"time"
)

const DefaultPollInterval = 30 * time.Second

// UnreadPoller refreshes an unread count on a fixed cadence for as long as its owner is
// alive. The owner tears it down by cancelling the context passed to Run.
type UnreadPoller struct {
	Interval time.Duration
	Fetch    func(ctx context.Context) (int, error)
	OnCount  func(count int)
	OnError  func(err error)
}

// Run polls once immediately and then on every tick. A failed poll is reported and the
// next tick proceeds normally. Run returns ctx.Err() after cancellation.
func (p *UnreadPoller) Run(ctx context.Context) error {
	if p.Fetch == nil {
		return ErrGatewayMissing
	}
	p.poll(ctx)

	ticker := time.NewTicker(p.interval())
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.poll(ctx)
		}
	}
}

func (p *UnreadPoller) poll(ctx context.Context) {
	count, err := p.Fetch(ctx)
	if ctx.Err() != nil {
		return
	}
	if err != nil {
		if p.OnError != nil {
			p.OnError(err)
		}
		return
	}
	if p.OnCount != nil {
		p.OnCount(count)
	}
}

func (p *UnreadPoller) interval() time.Duration {
	if p.Interval <= 0 {
		return DefaultPollInterval
	}
	return p.Interval
}

// NewUnreadPoller binds a poller to the service's unread count for one credential.
func (s *Service) NewUnreadPoller(credential string, interval time.Duration) *UnreadPoller {
	return &UnreadPoller{
		Interval: interval,
		Fetch: func(ctx context.Context) (int, error) {
			return s.UnreadCount(ctx, credential)
		},
	}
}
