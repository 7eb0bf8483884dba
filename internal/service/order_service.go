package service

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"

	"go.uber.org/zap"

	"github.com/groupcollage/api/internal/model"
	"github.com/groupcollage/api/internal/store"
)

// ImportOrder creates or replaces an order roster. When the roster changes,
// the previous render job and its outputs are discarded so the next enqueue
// renders the new roster.
func (s *RenderService) ImportOrder(ctx context.Context, orderID string, req *model.OrderUpsertRequest) (*model.Order, error) {
	now := s.now()
	order := &model.Order{
		ID:        orderID,
		GridKind:  req.GridKind,
		Members:   make([]model.Member, len(req.Members)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	seen := make(map[string]bool, len(req.Members))
	for i, m := range req.Members {
		id := strings.TrimSpace(m.ID)
		if seen[id] {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateMember, id)
		}
		seen[id] = true
		order.Members[i] = model.Member{
			ID:         id,
			Name:       strings.TrimSpace(m.Name),
			RollNumber: strings.TrimSpace(m.RollNumber),
			PhotoRef:   strings.TrimSpace(m.PhotoRef),
			Size:       m.Size,
			Votes:      m.Votes,
		}
	}

	existing, err := s.store.GetOrder(ctx, orderID)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return nil, fmt.Errorf("failed to load order: %w", err)
	default:
		order.CreatedAt = existing.CreatedAt
		if reflect.DeepEqual(existing.Members, order.Members) {
			order.RenderedOutputs = existing.RenderedOutputs
		} else if err := s.resetRender(ctx, existing); err != nil {
			return nil, err
		}
	}

	if err := s.store.SaveOrder(ctx, order); err != nil {
		return nil, fmt.Errorf("failed to save order: %w", err)
	}

	s.logger.Info("order imported",
		zap.String("orderId", orderID),
		zap.Int("members", len(order.Members)))
	return order, nil
}

func (s *RenderService) resetRender(ctx context.Context, order *model.Order) error {
	outputs, err := s.store.ListVariantOutputs(ctx, order.ID)
	if err != nil {
		return fmt.Errorf("failed to list variant outputs: %w", err)
	}
	if err := s.store.DeleteVariantOutputs(ctx, order.ID); err != nil {
		return fmt.Errorf("failed to delete variant outputs: %w", err)
	}
	if err := s.store.DeleteRenderStatus(ctx, order.ID); err != nil {
		return fmt.Errorf("failed to delete render job: %w", err)
	}
	order.RenderedOutputs = nil
	s.discardOutputs(ctx, order, outputs)
	return nil
}
