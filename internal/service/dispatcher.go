package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/hibiken/asynq"
	"go.uber.org/zap"

	"github.com/groupcollage/api/internal/logging"
	"github.com/groupcollage/api/internal/model"
)

// QueueRender is the asynq queue render tasks are enqueued on.
const QueueRender = "render"

// Dispatcher starts the background run for a claimed order without blocking
// the caller.
type Dispatcher interface {
	Dispatch(ctx context.Context, orderID string) error
}

// AsynqDispatcher hands render runs to the asynq worker server.
type AsynqDispatcher struct {
	client *asynq.Client
}

func NewAsynqDispatcher(client *asynq.Client) *AsynqDispatcher {
	return &AsynqDispatcher{client: client}
}

func (d *AsynqDispatcher) Dispatch(ctx context.Context, orderID string) error {
	task, err := NewRenderTask(orderID)
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	// A failed run is recorded on the job and retried only by a new enqueue.
	_, err = d.client.EnqueueContext(ctx, task,
		asynq.Queue(QueueRender),
		asynq.MaxRetry(0),
		asynq.Retention(24*time.Hour),
	)
	if err != nil {
		return fmt.Errorf("failed to enqueue task: %w", err)
	}
	return nil
}

// NewRenderTask builds the asynq task for one order.
func NewRenderTask(orderID string) (*asynq.Task, error) {
	data, err := json.Marshal(model.RenderTaskPayload{OrderID: orderID})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(model.TaskTypeRenderVariants, data), nil
}

// InlineDispatcher runs drive in a detached goroutine. Used when no asynq
// worker server is deployed.
type InlineDispatcher struct {
	drive  func(ctx context.Context, orderID string) error
	logger *zap.Logger
}

func NewInlineDispatcher(drive func(ctx context.Context, orderID string) error, logger *zap.Logger) *InlineDispatcher {
	return &InlineDispatcher{drive: drive, logger: logging.OrNop(logger)}
}

func (d *InlineDispatcher) Dispatch(_ context.Context, orderID string) error {
	go func() {
		// the request context ends with the HTTP call
		if err := d.drive(context.Background(), orderID); err != nil {
			d.logger.Error("render run failed", zap.String("orderId", orderID), zap.Error(err))
		}
	}()
	return nil
}
