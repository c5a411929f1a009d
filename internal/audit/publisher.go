package audit

import (
	"context"
	"fmt"
	"sync"

	"github.com/sirupsen/logrus"
	"github.com/wso2/psd2-consent-management/internal/metrics"
	"github.com/wso2/psd2-consent-management/internal/models"
)

// Store persists consent action records
type Store interface {
	Create(ctx context.Context, action *models.ConsentAction) error
}

// Forwarder delivers consent action records to an external system
type Forwarder interface {
	PublishConsentAction(ctx context.Context, action *models.ConsentAction) error
}

// Publisher records consent actions. The store write is synchronous; the
// optional forwarder runs on a background worker when a buffer is configured.
type Publisher struct {
	store     Store
	forwarder Forwarder
	metrics   *metrics.Metrics
	logger    *logrus.Logger

	events chan models.ConsentAction
	wg     sync.WaitGroup
	async  bool
}

// PublisherOption configures the Publisher.
type PublisherOption func(*Publisher)

// WithForwarder sends every stored record to f as well
func WithForwarder(f Forwarder) PublisherOption {
	return func(p *Publisher) {
		p.forwarder = f
	}
}

// WithAsyncBuffer forwards records from a background goroutine with the given queue size.
func WithAsyncBuffer(size int) PublisherOption {
	return func(p *Publisher) {
		if size > 0 {
			p.events = make(chan models.ConsentAction, size)
			p.async = true
		}
	}
}

// WithMetrics counts delivery failures
func WithMetrics(m *metrics.Metrics) PublisherOption {
	return func(p *Publisher) {
		p.metrics = m
	}
}

func NewPublisher(store Store, logger *logrus.Logger, opts ...PublisherOption) *Publisher {
	p := &Publisher{store: store, logger: logger}
	for _, opt := range opts {
		opt(p)
	}
	if p.async && p.forwarder != nil {
		p.wg.Add(1)
		go p.processEvents()
	}
	return p
}

func (p *Publisher) processEvents() {
	defer p.wg.Done()
	for action := range p.events {
		p.forward(context.Background(), &action)
	}
}

// Close drains pending forwards and stops the worker
func (p *Publisher) Close() {
	if p.async && p.forwarder != nil && p.events != nil {
		close(p.events)
		p.wg.Wait()
	}
}

// Append stores the record and hands it to the forwarder. Only a store
// failure is returned; forwarding problems are logged.
func (p *Publisher) Append(ctx context.Context, action *models.ConsentAction) error {
	if err := p.store.Create(ctx, action); err != nil {
		p.metrics.IncrementAuditFailure("database")
		return fmt.Errorf("failed to append consent action: %w", err)
	}

	if p.forwarder == nil {
		return nil
	}

	if !p.async {
		p.forward(ctx, action)
		return nil
	}

	// Non-blocking send; drop the forward if the queue is full
	select {
	case p.events <- *action:
	default:
		p.metrics.IncrementAuditFailure("webhook")
		p.logger.WithFields(logrus.Fields{
			"actionId":  action.ActionID,
			"consentId": action.RequestedConsentID,
		}).Warn("Consent action queue full, webhook delivery dropped")
	}
	return nil
}

func (p *Publisher) forward(ctx context.Context, action *models.ConsentAction) {
	if err := p.forwarder.PublishConsentAction(ctx, action); err != nil {
		p.metrics.IncrementAuditFailure("webhook")
		p.logger.WithError(err).WithFields(logrus.Fields{
			"actionId":  action.ActionID,
			"consentId": action.RequestedConsentID,
		}).Warn("Failed to forward consent action")
	}
}
