// Package store persists orders, render jobs and variant outputs.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/groupcollage/api/internal/model"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = errors.New("not found")

// OrderStore reads order rosters and patches their cached outputs.
type OrderStore interface {
	GetOrder(ctx context.Context, orderID string) (*model.Order, error)
	SaveOrder(ctx context.Context, order *model.Order) error
	// PatchOrderCachedOutputs replaces the order's variant id -> image URL map.
	PatchOrderCachedOutputs(ctx context.Context, orderID string, outputs map[string]string) error
}

// RenderStatusStore holds one RenderJob per order.
type RenderStatusStore interface {
	GetRenderStatus(ctx context.Context, orderID string) (*model.RenderJob, error)
	UpsertRenderStatus(ctx context.Context, job *model.RenderJob) error
	DeleteRenderStatus(ctx context.Context, orderID string) error
	// ClaimRender atomically fetches or creates the job and decides whether a
	// new run starts. See Claim for the rules.
	ClaimRender(ctx context.Context, orderID string, force bool, now time.Time) (*ClaimResult, error)
}

// VariantOutputStore holds VariantOutputs, unique per (order, variant).
type VariantOutputStore interface {
	UpsertVariantOutput(ctx context.Context, out *model.VariantOutput) error
	ListVariantOutputs(ctx context.Context, orderID string) ([]model.VariantOutput, error)
	DeleteVariantOutputs(ctx context.Context, orderID string) error
}

// Store is the full persistence surface used by the render pipeline.
type Store interface {
	OrderStore
	RenderStatusStore
	VariantOutputStore
}

// ClaimResult reports the outcome of ClaimRender.
type ClaimResult struct {
	Job *model.RenderJob
	// Claimed is true when the caller must dispatch a new run.
	Claimed bool
	// Removed lists the variant outputs discarded by a reset.
	Removed []model.VariantOutput
}

// Claim applies the enqueue rules to the existing job:
//   - no job: create a queued job
//   - force: reset to a fresh queued job regardless of state, discarding outputs
//   - failed: reset to a fresh queued job, discarding outputs
//   - queued, processing or completed: no-op
//
// It returns the job to persist and whether a reset happened.
func Claim(existing *model.RenderJob, orderID string, force bool, now time.Time) (*model.RenderJob, bool) {
	if existing == nil || force || existing.Status == model.JobStatusFailed {
		return model.NewRenderJob(orderID, now), true
	}
	return existing, false
}
