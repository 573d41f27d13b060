package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/voyagen/vidstate/internal/avs"
)

// Queue keys shared with the engine bridge.
const (
	EventQueue   = "vidstate:queue:events"
	CommandQueue = "vidstate:queue:commands"
)

// EnqueueEvent pushes a raw engine callback onto the event queue.
func EnqueueEvent(ctx context.Context, r *Redis, ev avs.Event) error {
	return push(ctx, r, EventQueue, ev)
}

// RequeueEvent puts ev back at the consuming end of the event queue so it is
// the next one dequeued.
func RequeueEvent(ctx context.Context, r *Redis, ev avs.Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("queue marshal: %w", err)
	}
	if err := r.client.RPush(ctx, EventQueue, data).Err(); err != nil {
		return fmt.Errorf("queue requeue %s: %w", EventQueue, err)
	}
	return nil
}

// DequeueEvent blocks until an engine callback is available or timeout
// expires. On timeout or shutdown it returns (nil, nil) so the caller can
// loop and check ctx.
func DequeueEvent(ctx context.Context, r *Redis, timeout time.Duration) (*avs.Event, error) {
	return pop[avs.Event](ctx, r, EventQueue, timeout)
}

// DequeueCommand is the engine bridge side of RedisCommander.
func DequeueCommand(ctx context.Context, r *Redis, timeout time.Duration) (*avs.Command, error) {
	return pop[avs.Command](ctx, r, CommandQueue, timeout)
}

func push(ctx context.Context, r *Redis, queue string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("queue marshal: %w", err)
	}
	if err := r.client.LPush(ctx, queue, data).Err(); err != nil {
		return fmt.Errorf("queue push %s: %w", queue, err)
	}
	return nil
}

func pop[T any](ctx context.Context, r *Redis, queue string, timeout time.Duration) (*T, error) {
	result, err := r.client.BRPop(ctx, timeout, queue).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) || ctx.Err() != nil {
			return nil, nil
		}
		return nil, fmt.Errorf("queue pop %s: %w", queue, err)
	}
	// BRPop returns [key, value].
	if len(result) < 2 {
		return nil, nil
	}
	var v T
	if err := json.Unmarshal([]byte(result[1]), &v); err != nil {
		return nil, fmt.Errorf("queue unmarshal: %w", err)
	}
	return &v, nil
}

// RedisCommander hands engine commands to the bridge through CommandQueue.
type RedisCommander struct {
	r *Redis
}

// NewCommander returns a RedisCommander backed by r.
func NewCommander(r *Redis) *RedisCommander {
	return &RedisCommander{r: r}
}

// Send enqueues cmd for the engine bridge.
func (c *RedisCommander) Send(ctx context.Context, cmd avs.Command) error {
	return push(ctx, c.r, CommandQueue, cmd)
}
