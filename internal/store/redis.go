package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/groupcollage/api/internal/model"
)

// claimRetries bounds optimistic-lock retries in ClaimRender.
const claimRetries = 5

// RedisStore persists records as JSON documents in Redis:
//
//	order:<orderId>            order document
//	render:<orderId>           render job
//	render:<orderId>:variants  hash of variantId -> VariantOutput
type RedisStore struct {
	redis *redis.Client
}

func NewRedisStore(redisClient *redis.Client) *RedisStore {
	return &RedisStore{redis: redisClient}
}

func orderKey(orderID string) string   { return fmt.Sprintf("order:%s", orderID) }
func jobKey(orderID string) string     { return fmt.Sprintf("render:%s", orderID) }
func outputsKey(orderID string) string { return fmt.Sprintf("render:%s:variants", orderID) }

func (s *RedisStore) GetOrder(ctx context.Context, orderID string) (*model.Order, error) {
	data, err := s.redis.Get(ctx, orderKey(orderID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}

	var order model.Order
	if err := json.Unmarshal(data, &order); err != nil {
		return nil, fmt.Errorf("failed to unmarshal order: %w", err)
	}
	return &order, nil
}

func (s *RedisStore) SaveOrder(ctx context.Context, order *model.Order) error {
	data, err := json.Marshal(order)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, orderKey(order.ID), data, 0).Err()
}

func (s *RedisStore) PatchOrderCachedOutputs(ctx context.Context, orderID string, outputs map[string]string) error {
	key := orderKey(orderID)
	return s.retry(ctx, func() error {
		return s.redis.Watch(ctx, func(tx *redis.Tx) error {
			data, err := tx.Get(ctx, key).Bytes()
			if err != nil {
				if err == redis.Nil {
					return ErrNotFound
				}
				return err
			}
			var order model.Order
			if err := json.Unmarshal(data, &order); err != nil {
				return fmt.Errorf("failed to unmarshal order: %w", err)
			}
			order.RenderedOutputs = outputs
			patched, err := json.Marshal(&order)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, patched, 0)
				return nil
			})
			return err
		}, key)
	})
}

func (s *RedisStore) GetRenderStatus(ctx context.Context, orderID string) (*model.RenderJob, error) {
	data, err := s.redis.Get(ctx, jobKey(orderID)).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return decodeJob(data)
}

func (s *RedisStore) UpsertRenderStatus(ctx context.Context, job *model.RenderJob) error {
	data, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.redis.Set(ctx, jobKey(job.OrderID), data, 0).Err()
}

func (s *RedisStore) DeleteRenderStatus(ctx context.Context, orderID string) error {
	return s.redis.Del(ctx, jobKey(orderID)).Err()
}

// ClaimRender runs the fetch, check and reset in a WATCH/MULTI transaction so
// two concurrent enqueues cannot both claim the same order.
func (s *RedisStore) ClaimRender(ctx context.Context, orderID string, force bool, now time.Time) (*ClaimResult, error) {
	jk, ok := jobKey(orderID), outputsKey(orderID)
	var result *ClaimResult

	err := s.retry(ctx, func() error {
		return s.redis.Watch(ctx, func(tx *redis.Tx) error {
			var existing *model.RenderJob
			data, err := tx.Get(ctx, jk).Bytes()
			switch {
			case err == redis.Nil:
			case err != nil:
				return err
			default:
				if existing, err = decodeJob(data); err != nil {
					return err
				}
			}

			job, claimed := Claim(existing, orderID, force, now)
			if !claimed {
				result = &ClaimResult{Job: job}
				return nil
			}

			removed, err := listOutputs(ctx, tx, ok)
			if err != nil {
				return err
			}
			payload, err := json.Marshal(job)
			if err != nil {
				return err
			}
			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, jk, payload, 0)
				pipe.Del(ctx, ok)
				return nil
			})
			if err != nil {
				return err
			}
			result = &ClaimResult{Job: job, Claimed: true, Removed: removed}
			return nil
		}, jk, ok)
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (s *RedisStore) UpsertVariantOutput(ctx context.Context, out *model.VariantOutput) error {
	data, err := json.Marshal(out)
	if err != nil {
		return err
	}
	return s.redis.HSet(ctx, outputsKey(out.OrderID), out.VariantID, data).Err()
}

func (s *RedisStore) ListVariantOutputs(ctx context.Context, orderID string) ([]model.VariantOutput, error) {
	return listOutputs(ctx, s.redis, outputsKey(orderID))
}

func (s *RedisStore) DeleteVariantOutputs(ctx context.Context, orderID string) error {
	return s.redis.Del(ctx, outputsKey(orderID)).Err()
}

// retry re-runs fn while the optimistic lock is lost.
func (s *RedisStore) retry(ctx context.Context, fn func() error) error {
	for i := 0; i < claimRetries; i++ {
		err := fn()
		if !errors.Is(err, redis.TxFailedErr) {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
	return fmt.Errorf("transaction contention: %w", redis.TxFailedErr)
}

type hashReader interface {
	HGetAll(ctx context.Context, key string) *redis.MapStringStringCmd
}

func listOutputs(ctx context.Context, c hashReader, key string) ([]model.VariantOutput, error) {
	fields, err := c.HGetAll(ctx, key).Result()
	if err != nil {
		return nil, err
	}
	outs := make([]model.VariantOutput, 0, len(fields))
	for _, raw := range fields {
		var out model.VariantOutput
		if err := json.Unmarshal([]byte(raw), &out); err != nil {
			return nil, fmt.Errorf("failed to unmarshal variant output: %w", err)
		}
		outs = append(outs, out)
	}
	sort.Slice(outs, func(i, j int) bool { return outs[i].VariantID < outs[j].VariantID })
	return outs, nil
}

func decodeJob(data []byte) (*model.RenderJob, error) {
	var job model.RenderJob
	if err := json.Unmarshal(data, &job); err != nil {
		return nil, fmt.Errorf("failed to unmarshal render job: %w", err)
	}
	return &job, nil
}
