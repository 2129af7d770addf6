package travelpay

import (
	"context"
	"time"

	"go.uber.org/zap"
)

const (
	defaultPollInterval = 30 * time.Second

	// Pending payments younger than this are left alone so the poller does
	// not race a checkout still in the customer's browser.
	pollGracePeriod = 2 * time.Minute

	pollBatchSize = 50
)

// Poller is the safety net behind redirects and webhooks: it periodically
// reconciles stale pending payments against the gateway and expires overdue
// quotes. A payment whose return redirect and notification were both lost
// still settles within one poll interval.
type Poller struct {
	tp       *travelPayments
	interval time.Duration
	stop     chan struct{}
	done     chan struct{}
}

func NewPoller(tp *travelPayments, interval time.Duration) *Poller {
	return &Poller{
		tp:       tp,
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

func (p *Poller) Start() {
	go p.run()
}

func (p *Poller) Stop() {
	close(p.stop)
	<-p.done
}

func (p *Poller) run() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			ctx, cancel := context.WithTimeout(context.Background(), p.interval)
			p.tick(ctx)
			cancel()
		case <-p.stop:
			return
		}
	}
}

func (p *Poller) tick(ctx context.Context) {
	p.reconcilePending(ctx)

	if expired, err := p.tp.quotes.ExpireOverdue(ctx, time.Now()); err != nil {
		p.tp.logger.Error("Failed to expire overdue quotes", zap.Error(err))
	} else if expired > 0 {
		p.tp.logger.Info("Expired overdue quotes", zap.Int64("count", expired))
	}
}

func (p *Poller) reconcilePending(ctx context.Context) {
	pending, err := p.tp.payments.ListPending(ctx, pollBatchSize)
	if err != nil {
		p.tp.logger.Error("Failed to list pending payments", zap.Error(err))
		return
	}

	cutoff := time.Now().Add(-pollGracePeriod)
	for _, payment := range pending {
		if payment.CreatedAt.After(cutoff) {
			continue
		}

		status, err := p.tp.gateway.RetrieveOrderStatus(ctx, payment.GatewayOrderID)
		if err != nil {
			p.tp.logger.Warn("Failed to retrieve order status for pending payment",
				zap.Error(err),
				zap.String("payment_id", payment.ID),
				zap.String("gateway_order_id", payment.GatewayOrderID))
			continue
		}

		if err = p.tp.applyOrderStatus(ctx, payment, status); err != nil {
			p.tp.logger.Error("Failed to reconcile pending payment",
				zap.Error(err),
				zap.String("payment_id", payment.ID))
		}
	}
}
