package store

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/groupcollage/api/internal/model"
)

func newRedisStore(t *testing.T) *RedisStore {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb)
}

func forEachStore(t *testing.T, fn func(t *testing.T, s Store)) {
	t.Run("memory", func(t *testing.T) { fn(t, NewMemoryStore()) })
	t.Run("redis", func(t *testing.T) { fn(t, newRedisStore(t)) })
}

var now = time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)

func output(orderID, variantID string) *model.VariantOutput {
	return &model.VariantOutput{
		OrderID:   orderID,
		VariantID: variantID,
		GridKind:  model.GridKindSquare,
		ImageURL:  "https://cdn.example.com/" + variantID + ".jpg",
		Width:     100,
		Height:    120,
		Bytes:     2048,
		Format:    "jpeg",
		Status:    model.VariantStateCompleted,
		CreatedAt: now,
	}
}

func TestStore_OrderRoundTrip(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		_, err := s.GetOrder(ctx, "o1")
		assert.ErrorIs(t, err, ErrNotFound)

		order := &model.Order{
			ID:       "o1",
			GridKind: model.GridKindSquare,
			Members:  []model.Member{{ID: "a", Name: "Ada", PhotoRef: "x"}},
		}
		require.NoError(t, s.SaveOrder(ctx, order))

		require.NoError(t, s.PatchOrderCachedOutputs(ctx, "o1", map[string]string{"variant-a": "https://x/a.jpg"}))
		got, err := s.GetOrder(ctx, "o1")
		require.NoError(t, err)
		assert.Equal(t, "Ada", got.Members[0].Name)
		assert.Equal(t, map[string]string{"variant-a": "https://x/a.jpg"}, got.RenderedOutputs)

		assert.ErrorIs(t, s.PatchOrderCachedOutputs(ctx, "missing", nil), ErrNotFound)
	})
}

func TestStore_VariantOutputsUniquePerVariant(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		require.NoError(t, s.UpsertVariantOutput(ctx, output("o1", "variant-b")))
		require.NoError(t, s.UpsertVariantOutput(ctx, output("o1", "variant-a")))
		second := output("o1", "variant-a")
		second.Bytes = 4096
		require.NoError(t, s.UpsertVariantOutput(ctx, second))
		require.NoError(t, s.UpsertVariantOutput(ctx, output("o2", "variant-a")))

		outs, err := s.ListVariantOutputs(ctx, "o1")
		require.NoError(t, err)
		require.Len(t, outs, 2)
		assert.Equal(t, "variant-a", outs[0].VariantID)
		assert.Equal(t, 4096, outs[0].Bytes)

		require.NoError(t, s.DeleteVariantOutputs(ctx, "o1"))
		outs, err = s.ListVariantOutputs(ctx, "o1")
		require.NoError(t, err)
		assert.Empty(t, outs)

		outs, err = s.ListVariantOutputs(ctx, "o2")
		require.NoError(t, err)
		assert.Len(t, outs, 1)
	})
}

func TestStore_ClaimCreatesQueuedJob(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		res, err := s.ClaimRender(ctx, "o1", false, now)
		require.NoError(t, err)
		assert.True(t, res.Claimed)
		assert.Equal(t, model.JobStatusQueued, res.Job.Status)

		job, err := s.GetRenderStatus(ctx, "o1")
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusQueued, job.Status)
		assert.True(t, job.CreatedAt.Equal(now))

		// still queued: the pending run owns it
		res, err = s.ClaimRender(ctx, "o1", false, now.Add(time.Minute))
		require.NoError(t, err)
		assert.False(t, res.Claimed)
	})
}

func TestStore_ClaimIsNoopForActiveAndCompletedJobs(t *testing.T) {
	for _, status := range []model.JobStatus{model.JobStatusProcessing, model.JobStatusCompleted} {
		forEachStore(t, func(t *testing.T, s Store) {
			ctx := context.Background()

			job := model.NewRenderJob("o1", now)
			job.Status = status
			job.TotalVariants = 1
			job.CompletedVariants = 1
			job.Variants = []model.VariantStatus{{VariantID: "variant-a", Status: model.VariantStateCompleted, ImageURL: "u"}}
			require.NoError(t, s.UpsertRenderStatus(ctx, job))
			require.NoError(t, s.UpsertVariantOutput(ctx, output("o1", "variant-a")))

			beforeJob, err := s.GetRenderStatus(ctx, "o1")
			require.NoError(t, err)
			beforeOuts, err := s.ListVariantOutputs(ctx, "o1")
			require.NoError(t, err)

			res, err := s.ClaimRender(ctx, "o1", false, now.Add(time.Hour))
			require.NoError(t, err)
			assert.False(t, res.Claimed)
			assert.Equal(t, status, res.Job.Status)

			afterJob, err := s.GetRenderStatus(ctx, "o1")
			require.NoError(t, err)
			afterOuts, err := s.ListVariantOutputs(ctx, "o1")
			require.NoError(t, err)

			assert.Equal(t, mustJSON(t, beforeJob), mustJSON(t, afterJob))
			assert.Equal(t, mustJSON(t, beforeOuts), mustJSON(t, afterOuts))
		})
	}
}

func TestStore_ClaimResetsFailedAndForced(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()

		job := model.NewRenderJob("o1", now)
		job.Status = model.JobStatusFailed
		msg := "boom"
		job.Error = &msg
		require.NoError(t, s.UpsertRenderStatus(ctx, job))

		res, err := s.ClaimRender(ctx, "o1", false, now.Add(time.Minute))
		require.NoError(t, err)
		assert.True(t, res.Claimed)
		assert.Equal(t, model.JobStatusQueued, res.Job.Status)
		assert.Nil(t, res.Job.Error)

		res.Job.Status = model.JobStatusCompleted
		require.NoError(t, s.UpsertRenderStatus(ctx, res.Job))
		require.NoError(t, s.UpsertVariantOutput(ctx, output("o1", "variant-a")))
		require.NoError(t, s.UpsertVariantOutput(ctx, output("o1", "hex-variant-a")))

		res, err = s.ClaimRender(ctx, "o1", true, now.Add(2*time.Minute))
		require.NoError(t, err)
		assert.True(t, res.Claimed)
		assert.Len(t, res.Removed, 2)

		outs, err := s.ListVariantOutputs(ctx, "o1")
		require.NoError(t, err)
		assert.Empty(t, outs)

		got, err := s.GetRenderStatus(ctx, "o1")
		require.NoError(t, err)
		assert.Equal(t, model.JobStatusQueued, got.Status)
		assert.Empty(t, got.Variants)
	})
}

func TestStore_DeleteRenderStatus(t *testing.T) {
	forEachStore(t, func(t *testing.T, s Store) {
		ctx := context.Background()
		require.NoError(t, s.UpsertRenderStatus(ctx, model.NewRenderJob("o1", now)))
		require.NoError(t, s.DeleteRenderStatus(ctx, "o1"))
		_, err := s.GetRenderStatus(ctx, "o1")
		assert.ErrorIs(t, err, ErrNotFound)
	})
}

func TestRedisStore_ConcurrentClaimsClaimOnce(t *testing.T) {
	s := newRedisStore(t)
	ctx := context.Background()

	const n = 8
	results := make(chan bool, n)
	for i := 0; i < n; i++ {
		go func() {
			res, err := s.ClaimRender(ctx, "o1", false, now)
			if err != nil {
				results <- false
				return
			}
			results <- res.Claimed
		}()
	}

	claimed := 0
	for i := 0; i < n; i++ {
		if <-results {
			claimed++
		}
	}
	assert.Equal(t, 1, claimed)
}

func TestClaim(t *testing.T) {
	fresh, claimed := Claim(nil, "o1", false, now)
	assert.True(t, claimed)
	assert.Equal(t, model.JobStatusQueued, fresh.Status)

	running := model.NewRenderJob("o1", now)
	running.Status = model.JobStatusProcessing
	got, claimed := Claim(running, "o1", false, now)
	assert.False(t, claimed)
	assert.Same(t, running, got)

	got, claimed = Claim(running, "o1", true, now)
	assert.True(t, claimed)
	assert.Equal(t, model.JobStatusQueued, got.Status)
}

func mustJSON(t *testing.T, v any) string {
	t.Helper()
	data, err := json.Marshal(v)
	require.NoError(t, err)
	return string(data)
}
