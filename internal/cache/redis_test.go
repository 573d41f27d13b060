package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/voyagen/vidstate/internal/avs"
)

// setupMiniRedis creates a test Redis server using miniredis.
func setupMiniRedis(t *testing.T) (*miniredis.Miniredis, *Redis) {
	t.Helper()
	mr := miniredis.RunT(t)
	r := NewFromClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}))
	t.Cleanup(func() { _ = r.Close() })
	return mr, r
}

type payload struct {
	Name  string `json:"name"`
	Count int    `json:"count"`
}

func TestRedis_SetGet(t *testing.T) {
	mr, r := setupMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, r.Ping(ctx))
	require.NoError(t, Set(ctx, r, "k", payload{Name: "a", Count: 2}, time.Minute))

	got, err := Get[payload](ctx, r, "k")
	require.NoError(t, err)
	assert.Equal(t, payload{Name: "a", Count: 2}, got)

	mr.FastForward(2 * time.Minute)
	_, err = Get[payload](ctx, r, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedis_GetMissing(t *testing.T) {
	_, r := setupMiniRedis(t)
	_, err := Get[payload](context.Background(), r, "nope")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestRedis_GetCorrupt(t *testing.T) {
	mr, r := setupMiniRedis(t)
	require.NoError(t, mr.Set("k", "{not json"))

	_, err := Get[payload](context.Background(), r, "k")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrMiss)
}

func TestRedis_DelAndDelPattern(t *testing.T) {
	mr, r := setupMiniRedis(t)
	ctx := context.Background()

	for _, k := range []string{"video:latest:a", "video:latest:b", "other"} {
		require.NoError(t, Set(ctx, r, k, 1, time.Minute))
	}
	require.NoError(t, Del(ctx, r))
	require.NoError(t, DelPattern(ctx, r, "video:latest:*"))
	assert.False(t, mr.Exists("video:latest:a"))
	assert.False(t, mr.Exists("video:latest:b"))
	assert.True(t, mr.Exists("other"))

	require.NoError(t, Del(ctx, r, "other"))
	assert.False(t, mr.Exists("other"))
}

func TestQueue_EventsFIFO(t *testing.T) {
	_, r := setupMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, EnqueueEvent(ctx, r, avs.Event{ConvID: "c1", UserID: "u1", State: avs.Code(avs.VideoStateStarted)}))
	require.NoError(t, EnqueueEvent(ctx, r, avs.Event{ConvID: "c1", UserID: "u1", State: avs.Code(avs.VideoStateStopped)}))

	first, err := DequeueEvent(ctx, r, time.Second)
	require.NoError(t, err)
	require.NotNil(t, first)
	require.NotNil(t, first.State)
	assert.Equal(t, avs.VideoStateStarted, *first.State)

	second, err := DequeueEvent(ctx, r, time.Second)
	require.NoError(t, err)
	require.NotNil(t, second)
	require.NotNil(t, second.State)
	assert.Equal(t, avs.VideoStateStopped, *second.State)
}

func TestQueue_RequeueIsNext(t *testing.T) {
	_, r := setupMiniRedis(t)
	ctx := context.Background()

	require.NoError(t, EnqueueEvent(ctx, r, avs.Event{ConvID: "c1", UserID: "u1", State: avs.Code(avs.VideoStateStopped)}))
	require.NoError(t, RequeueEvent(ctx, r, avs.Event{ConvID: "c1", UserID: "u2", State: avs.Code(avs.VideoStateStarted)}))

	first, err := DequeueEvent(ctx, r, time.Second)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, "u2", first.UserID)

	second, err := DequeueEvent(ctx, r, time.Second)
	require.NoError(t, err)
	require.NotNil(t, second)
	assert.Equal(t, "u1", second.UserID)
}

func TestQueue_DequeueTimeout(t *testing.T) {
	_, r := setupMiniRedis(t)

	ev, err := DequeueEvent(context.Background(), r, time.Second)
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestQueue_DequeueCancelled(t *testing.T) {
	_, r := setupMiniRedis(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	ev, err := DequeueEvent(ctx, r, time.Second)
	require.NoError(t, err)
	assert.Nil(t, ev)
}

func TestRedisCommander_Send(t *testing.T) {
	mr, r := setupMiniRedis(t)
	ctx := context.Background()

	c := NewCommander(r)
	require.NoError(t, c.Send(ctx, avs.Command{ConvID: "c1", State: avs.VideoStateStarted}))

	items, err := mr.List(CommandQueue)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.JSONEq(t, `{"conv_id":"c1","state":1}`, items[0])

	cmd, err := DequeueCommand(ctx, r, time.Second)
	require.NoError(t, err)
	require.NotNil(t, cmd)
	assert.Equal(t, avs.Command{ConvID: "c1", State: avs.VideoStateStarted}, *cmd)
}
