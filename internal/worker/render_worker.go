package worker

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/groupcollage/api/internal/logging"
	"github.com/groupcollage/api/internal/model"
)

// Driver runs a claimed render job to completion.
type Driver interface {
	Drive(ctx context.Context, orderID string) error
}

// RenderWorker processes render tasks from the asynq queue
type RenderWorker struct {
	driver Driver
	logger *zap.Logger
}

// NewRenderWorker creates a new render worker
func NewRenderWorker(driver Driver, logger *zap.Logger) *RenderWorker {
	return &RenderWorker{
		driver: driver,
		logger: logging.OrNop(logger),
	}
}

// ProcessTask handles render task processing
func (w *RenderWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload model.RenderTaskPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w: %w", err, asynq.SkipRetry)
	}
	if payload.OrderID == "" {
		return fmt.Errorf("task payload has no order id: %w", asynq.SkipRetry)
	}

	w.logger.Info("starting render job", zap.String("orderId", payload.OrderID))

	// The job state already records the failure; retrying is left to a new
	// enqueue.
	if err := w.driver.Drive(ctx, payload.OrderID); err != nil {
		return fmt.Errorf("render job %s: %w: %w", payload.OrderID, err, asynq.SkipRetry)
	}
	return nil
}

// Register mounts the worker's handlers on mux.
func (w *RenderWorker) Register(mux *asynq.ServeMux) {
	mux.HandleFunc(model.TaskTypeRenderVariants, w.ProcessTask)
}
