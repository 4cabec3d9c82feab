package downloader

import (
	"context"

	apperrors "github.com/orgball2608/insta-downloader-api/pkg/errors"
)

// Factory builds a ready-to-use Service for the pool.
type Factory func() (*Service, error)

// Pool hands out Service instances to request handlers, creating them lazily
// up to a fixed size. Released services are reused so the upstream session
// is shared across requests instead of re-authenticating per call. Every
// freshly constructed service logs in before it is handed out; a failed
// login leaves it anonymous.
type Pool struct {
	factory Factory
	idle    chan *Service
	slots   chan struct{}
}

// NewPool sizes the pool without constructing any service yet.
func NewPool(size int, factory Factory) *Pool {
	if size < 1 {
		size = 1
	}
	slots := make(chan struct{}, size)
	for i := 0; i < size; i++ {
		slots <- struct{}{}
	}
	return &Pool{
		factory: factory,
		idle:    make(chan *Service, size),
		slots:   slots,
	}
}

// Acquire returns an idle service or builds a new one while capacity remains,
// blocking when every slot is in use until one is released or ctx expires.
func (p *Pool) Acquire(ctx context.Context) (*Service, error) {
	select {
	case svc := <-p.idle:
		return svc, nil
	default:
	}

	select {
	case svc := <-p.idle:
		return svc, nil
	case <-p.slots:
		svc, err := p.factory()
		if err != nil {
			p.slots <- struct{}{}
			return nil, apperrors.Download("Unable to initialize downloader: " + err.Error())
		}
		// Session-gated operations report LoginRequired later when this
		// fails; the service still serves public content.
		if err := svc.Login(ctx); err != nil {
			svc.logger.Warn("Session login failed, service continues anonymously", "error", err)
		}
		return svc, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Release returns a service for reuse.
func (p *Pool) Release(svc *Service) {
	if svc == nil {
		return
	}
	p.idle <- svc
}

// Warm eagerly constructs and parks one service so the first request does
// not pay the session-bootstrap cost.
func (p *Pool) Warm(ctx context.Context) error {
	svc, err := p.Acquire(ctx)
	if err != nil {
		return err
	}
	p.Release(svc)
	return nil
}
