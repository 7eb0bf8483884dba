package service

import (
	"context"
	"errors"
	"fmt"
	"image"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/groupcollage/api/internal/client"
	"github.com/groupcollage/api/internal/compositor"
	"github.com/groupcollage/api/internal/hexgrid"
	"github.com/groupcollage/api/internal/layout"
	"github.com/groupcollage/api/internal/logging"
	"github.com/groupcollage/api/internal/model"
	"github.com/groupcollage/api/internal/store"
	"github.com/groupcollage/api/internal/variant"
)

// PhotoFetcher resolves member photos into decoded images keyed by member id.
// Members whose photo cannot be acquired are absent from the result.
type PhotoFetcher interface {
	FetchAll(ctx context.Context, members []model.Member, size image.Point) map[string]image.Image
}

// Notifier pushes job progress to subscribers.
type Notifier interface {
	BroadcastProgress(job *model.RenderJob, v model.VariantStatus)
	BroadcastComplete(status *model.RenderStatusResponse)
	BroadcastError(orderID, code, message string)
}

// RenderService drives the render job state machine for orders.
type RenderService struct {
	store      store.Store
	content    client.ContentStore
	fetcher    PhotoFetcher
	enumerator *variant.Enumerator
	opts       compositor.Options
	dispatcher Dispatcher
	notifier   Notifier
	logger     *zap.Logger
	now        func() time.Time
}

func NewRenderService(st store.Store, content client.ContentStore, fetcher PhotoFetcher, opts compositor.Options, logger *zap.Logger) *RenderService {
	return &RenderService{
		store:      st,
		content:    content,
		fetcher:    fetcher,
		enumerator: variant.New(),
		opts:       opts,
		logger:     logging.OrNop(logger),
		now:        time.Now,
	}
}

// SetDispatcher sets how claimed runs are started. It must be called before
// EnqueueRender.
func (s *RenderService) SetDispatcher(d Dispatcher) {
	s.dispatcher = d
}

// SetNotifier sets the progress sink. A nil notifier disables push updates.
func (s *RenderService) SetNotifier(n Notifier) {
	s.notifier = n
}

// EnqueueRender claims the order's render job and dispatches a background run.
// A queued, processing or completed job is left untouched unless force is set.
// A failed job is retried from scratch.
func (s *RenderService) EnqueueRender(ctx context.Context, orderID string, force bool) (*model.RenderEnqueueResponse, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order.GridKind == "" {
		return nil, ErrNoGridKind
	}

	claim, err := s.store.ClaimRender(ctx, orderID, force, s.now())
	if err != nil {
		return nil, fmt.Errorf("failed to claim render job: %w", err)
	}
	if !claim.Claimed {
		return &model.RenderEnqueueResponse{
			OrderID:  orderID,
			Status:   claim.Job.Status,
			Enqueued: false,
		}, nil
	}

	s.discardOutputs(ctx, order, claim.Removed)

	if err := s.dispatcher.Dispatch(ctx, orderID); err != nil {
		s.fail(ctx, claim.Job, err)
		return nil, err
	}

	s.logger.Info("render enqueued",
		zap.String("orderId", orderID),
		zap.Bool("force", force))

	return &model.RenderEnqueueResponse{
		OrderID:  orderID,
		Status:   model.JobStatusQueued,
		Enqueued: true,
	}, nil
}

// discardOutputs removes stored objects and the order cache left by a
// previous run. Failures are logged; the records are already gone.
func (s *RenderService) discardOutputs(ctx context.Context, order *model.Order, removed []model.VariantOutput) {
	for _, out := range removed {
		if out.ObjectKey == "" {
			continue
		}
		if err := s.content.Delete(ctx, out.ObjectKey); err != nil {
			s.logger.Warn("failed to delete rendered object",
				zap.String("orderId", order.ID),
				zap.String("key", out.ObjectKey),
				zap.Error(err))
		}
	}
	if len(order.RenderedOutputs) > 0 {
		if err := s.store.PatchOrderCachedOutputs(ctx, order.ID, nil); err != nil {
			s.logger.Warn("failed to clear cached outputs", zap.String("orderId", order.ID), zap.Error(err))
		}
	}
}

// plannedVariant pairs a variant with the renderer for its grid kind.
type plannedVariant struct {
	variant  model.Variant
	renderer compositor.Renderer
}

// plan enumerates every variant of both grid kinds and returns the photo size
// to request. Hexagonal variants are skipped when no template fits the roster.
func (s *RenderService) plan(order *model.Order) ([]plannedVariant, image.Point, error) {
	photographed := variant.Photographed(order.Members)
	if len(photographed) < 2 {
		return nil, image.Point{}, nil
	}

	sq := layout.ForCount(len(photographed))
	square := compositor.NewSquare(sq, s.opts)
	squareVariants, err := s.enumerator.Enumerate(order.Members, sq.CenterIndex(), model.GridKindSquare)
	if err != nil {
		return nil, image.Point{}, err
	}

	planned := make([]plannedVariant, 0, 2*len(squareVariants))
	for _, v := range squareVariants {
		planned = append(planned, plannedVariant{variant: v, renderer: square})
	}
	size := square.CellSize()

	hl, err := hexgrid.Resolve(len(photographed))
	switch {
	case errors.Is(err, hexgrid.ErrNoTemplate):
		s.logger.Debug("hexagonal rendering unavailable for roster size",
			zap.String("orderId", order.ID),
			zap.Int("members", len(photographed)))
	case err != nil:
		return nil, image.Point{}, err
	default:
		hex := compositor.NewHex(hl, s.opts)
		hexVariants, err := s.enumerator.Enumerate(order.Members, hl.CenterIndex(), model.GridKindHexagonal)
		if err != nil {
			return nil, image.Point{}, err
		}
		for _, v := range hexVariants {
			planned = append(planned, plannedVariant{variant: v, renderer: hex})
		}
		if hs := hex.CellSize(); hs.X*hs.Y > size.X*size.Y {
			size = hs
		}
	}

	return planned, size, nil
}

// Drive runs a claimed job to a terminal state. Variants are rendered one at a
// time; a variant failure is recorded and the run continues.
func (s *RenderService) Drive(ctx context.Context, orderID string) (err error) {
	job, err := s.store.GetRenderStatus(ctx, orderID)
	if err != nil {
		return fmt.Errorf("failed to load render job: %w", err)
	}
	if job.Status != model.JobStatusQueued {
		s.logger.Info("render job not queued, skipping",
			zap.String("orderId", orderID),
			zap.String("status", string(job.Status)))
		return nil
	}

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("render run panicked: %v", r)
			s.fail(ctx, job, err)
		}
	}()

	started := s.now()
	job.Status = model.JobStatusProcessing
	job.StartedAt = &started
	if err := s.store.UpsertRenderStatus(ctx, job); err != nil {
		return fmt.Errorf("failed to save render job: %w", err)
	}

	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		s.fail(ctx, job, err)
		return err
	}

	planned, size, err := s.plan(order)
	if err != nil {
		err = fmt.Errorf("failed to plan variants: %w", err)
		s.fail(ctx, job, err)
		return err
	}

	job.TotalVariants = len(planned)
	job.Variants = make([]model.VariantStatus, len(planned))
	for i, p := range planned {
		job.Variants[i] = model.VariantStatus{
			VariantID:      p.variant.ID,
			CenterMemberID: p.variant.CenterMember.ID,
			GridKind:       p.variant.GridKind,
			Status:         model.VariantStatePending,
		}
	}
	if err := s.store.UpsertRenderStatus(ctx, job); err != nil {
		err = fmt.Errorf("failed to save render job: %w", err)
		s.fail(ctx, job, err)
		return err
	}

	s.logger.Info("render started",
		zap.String("orderId", orderID),
		zap.Int("variants", len(planned)))

	if len(planned) > 0 {
		images := s.fetcher.FetchAll(ctx, variant.Photographed(order.Members), size)

		for i, p := range planned {
			st := s.renderVariant(ctx, orderID, p, images)
			job.Variants[i] = st
			if st.Status == model.VariantStateCompleted {
				job.CompletedVariants++
			} else {
				job.FailedVariants++
			}

			if err := s.store.UpsertRenderStatus(ctx, job); err != nil {
				err = fmt.Errorf("failed to save render job: %w", err)
				s.fail(ctx, job, err)
				return err
			}
			if s.notifier != nil {
				s.notifier.BroadcastProgress(job, st)
			}
		}
	}

	return s.finish(ctx, order, job)
}

// renderVariant composites, uploads and records one variant. It never returns
// an error; failures are reported on the returned status.
func (s *RenderService) renderVariant(ctx context.Context, orderID string, p plannedVariant, images map[string]image.Image) model.VariantStatus {
	v := p.variant
	st := model.VariantStatus{
		VariantID:      v.ID,
		CenterMemberID: v.CenterMember.ID,
		GridKind:       v.GridKind,
		Status:         model.VariantStateFailed,
	}
	log := s.logger.With(zap.String("orderId", orderID), zap.String("variantId", v.ID))

	if images[v.CenterMember.ID] == nil {
		st.Error = fmt.Sprintf("photo unavailable for center member %s", v.CenterMember.ID)
		log.Warn("variant failed", zap.String("reason", st.Error))
		return st
	}

	out, err := p.renderer.Render(v, images)
	if err != nil {
		st.Error = fmt.Sprintf("render failed: %v", err)
		log.Warn("variant failed", zap.Error(err))
		return st
	}

	key := fmt.Sprintf("renders/%s/%s-%s.jpg", orderID, v.ID, uuid.NewString()[:8])
	url, err := s.content.Put(ctx, key, out.Data, out.ContentType)
	if err != nil {
		st.Error = fmt.Sprintf("upload failed: %v", err)
		log.Warn("variant failed", zap.Error(err))
		return st
	}

	record := &model.VariantOutput{
		OrderID:   orderID,
		VariantID: v.ID,
		GridKind:  v.GridKind,
		ImageURL:  url,
		Width:     out.Width,
		Height:    out.Height,
		Bytes:     len(out.Data),
		Format:    out.Format,
		Status:    model.VariantStateCompleted,
		ObjectKey: key,
		CreatedAt: s.now(),
	}
	if err := s.store.UpsertVariantOutput(ctx, record); err != nil {
		st.Error = fmt.Sprintf("failed to record output: %v", err)
		log.Warn("variant failed", zap.Error(err))
		return st
	}

	st.Status = model.VariantStateCompleted
	st.ImageURL = url
	return st
}

// finish settles the job: failed only when every variant failed, otherwise
// completed with a partial-failure summary.
func (s *RenderService) finish(ctx context.Context, order *model.Order, job *model.RenderJob) error {
	completed := s.now()
	job.CompletedAt = &completed
	job.Error = nil

	switch {
	case job.TotalVariants > 0 && job.CompletedVariants == 0:
		job.Status = model.JobStatusFailed
		msg := fmt.Sprintf("all %d variants failed", job.TotalVariants)
		job.Error = &msg
	case job.FailedVariants > 0:
		job.Status = model.JobStatusCompleted
		msg := fmt.Sprintf("%d of %d variants failed", job.FailedVariants, job.TotalVariants)
		job.Error = &msg
	default:
		job.Status = model.JobStatusCompleted
	}

	// outputs are cached before the job reads as completed
	if job.Status == model.JobStatusCompleted {
		outputs := make(map[string]string, job.CompletedVariants)
		for _, v := range job.Variants {
			if v.Status == model.VariantStateCompleted {
				outputs[v.VariantID] = v.ImageURL
			}
		}
		if err := s.store.PatchOrderCachedOutputs(ctx, order.ID, outputs); err != nil {
			s.logger.Warn("failed to cache rendered outputs", zap.String("orderId", order.ID), zap.Error(err))
		}
	}

	if err := s.store.UpsertRenderStatus(ctx, job); err != nil {
		return fmt.Errorf("failed to save render job: %w", err)
	}

	s.logger.Info("render finished",
		zap.String("orderId", order.ID),
		zap.String("status", string(job.Status)),
		zap.Int("completed", job.CompletedVariants),
		zap.Int("failed", job.FailedVariants))

	if s.notifier != nil {
		if job.Status == model.JobStatusFailed {
			s.notifier.BroadcastError(order.ID, "RENDER_FAILED", *job.Error)
		} else {
			s.notifier.BroadcastComplete(statusResponse(job))
		}
	}
	return nil
}

// fail marks the job failed with cause. The job becomes eligible for a full
// retry on the next enqueue.
func (s *RenderService) fail(ctx context.Context, job *model.RenderJob, cause error) {
	now := s.now()
	msg := cause.Error()
	job.Status = model.JobStatusFailed
	job.Error = &msg
	job.CompletedAt = &now

	if err := s.store.UpsertRenderStatus(ctx, job); err != nil {
		s.logger.Error("failed to mark render job failed",
			zap.String("orderId", job.OrderID),
			zap.Error(err))
	}
	s.logger.Error("render job failed", zap.String("orderId", job.OrderID), zap.Error(cause))

	if s.notifier != nil {
		s.notifier.BroadcastError(job.OrderID, "RENDER_FAILED", msg)
	}
}

// GetRenderStatus returns the polling snapshot of the order's job.
func (s *RenderService) GetRenderStatus(ctx context.Context, orderID string) (*model.RenderStatusResponse, error) {
	job, err := s.store.GetRenderStatus(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrJobNotFound
		}
		return nil, err
	}
	return statusResponse(job), nil
}

func statusResponse(job *model.RenderJob) *model.RenderStatusResponse {
	perVariant := job.Variants
	if perVariant == nil {
		perVariant = []model.VariantStatus{}
	}
	return &model.RenderStatusResponse{
		OrderID:        job.OrderID,
		Status:         job.Status,
		CompletedCount: job.CompletedVariants,
		FailedCount:    job.FailedVariants,
		TotalCount:     job.TotalVariants,
		PerVariant:     perVariant,
		Error:          job.Error,
		CreatedAt:      job.CreatedAt,
		StartedAt:      job.StartedAt,
		CompletedAt:    job.CompletedAt,
	}
}

// GetVariants projects the order's variants of both grid kinds, joined with
// the cached image URL of every successfully rendered variant.
func (s *RenderService) GetVariants(ctx context.Context, orderID string) (*model.VariantsResponse, error) {
	order, err := s.getOrder(ctx, orderID)
	if err != nil {
		return nil, err
	}

	resp := &model.VariantsResponse{
		OrderID:                      orderID,
		SquareVariants:               []model.VariantView{},
		HexVariants:                  []model.VariantView{},
		RenderedImageURLsByVariantID: map[string]string{},
	}

	planned, _, err := s.plan(order)
	if err != nil {
		return nil, err
	}
	for _, p := range planned {
		view := variantView(p.variant)
		if url, ok := order.RenderedOutputs[p.variant.ID]; ok && url != "" {
			view.ImageURL = url
			resp.RenderedImageURLsByVariantID[p.variant.ID] = url
		}
		if p.variant.GridKind == model.GridKindHexagonal {
			resp.HexVariants = append(resp.HexVariants, view)
		} else {
			resp.SquareVariants = append(resp.SquareVariants, view)
		}
	}
	return resp, nil
}

func variantView(v model.Variant) model.VariantView {
	members := make([]model.MemberView, len(v.Members))
	for i, m := range v.Members {
		members[i] = memberView(m)
	}
	return model.VariantView{
		VariantID:    v.ID,
		GridKind:     v.GridKind,
		CenterMember: memberView(v.CenterMember),
		Members:      members,
	}
}

func memberView(m model.Member) model.MemberView {
	return model.MemberView{ID: m.ID, Name: m.Name, RollNumber: m.RollNumber}
}

func (s *RenderService) getOrder(ctx context.Context, orderID string) (*model.Order, error) {
	order, err := s.store.GetOrder(ctx, orderID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, ErrOrderNotFound
		}
		return nil, fmt.Errorf("failed to load order: %w", err)
	}
	return order, nil
}
