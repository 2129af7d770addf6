package travelpay

import (
	"context"

	"go.uber.org/zap"
)

type Worker struct {
	ID             int
	WorkerPool     chan chan WorkRequest
	JobChannel     chan WorkRequest
	quit           chan bool
	travelPayments *travelPayments
}

type WorkRequest struct {
	Event *GatewayEvent
	Ctx   context.Context
}

func NewWorker(id int, workerPool chan chan WorkRequest, tp *travelPayments) Worker {
	return Worker{
		ID:             id,
		WorkerPool:     workerPool,
		JobChannel:     make(chan WorkRequest),
		quit:           make(chan bool),
		travelPayments: tp,
	}
}

func (w Worker) Start() {
	go func() {
		for {
			w.WorkerPool <- w.JobChannel

			select {
			case job := <-w.JobChannel:
				w.travelPayments.logger.Info("Processing gateway event",
					zap.String("event_type", job.Event.Type),
					zap.String("event_id", job.Event.ID))

				err := w.travelPayments.ProcessEvent(job.Ctx, job.Event)

				if err != nil {
					w.travelPayments.logger.Error("Failed to process gateway event",
						zap.Error(err),
						zap.String("event_type", job.Event.Type),
						zap.String("event_id", job.Event.ID))
				} else {
					w.travelPayments.logger.Info("Gateway event processed",
						zap.String("event_type", job.Event.Type),
						zap.String("event_id", job.Event.ID))
				}

			case <-w.quit:
				return
			}
		}
	}()
}

func (w Worker) Stop() {
	close(w.quit)
}
