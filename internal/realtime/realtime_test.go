package realtime

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ajharbinger/dealscope/internal/logger"
)

func newRedisHub(t *testing.T) *RedisHub {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { client.Close() })
	return NewRedisHub(client, logger.NewNop())
}

func hubs(t *testing.T) map[string]interface {
	Publisher
	Subscriber
} {
	return map[string]interface {
		Publisher
		Subscriber
	}{
		"redis":  newRedisHub(t),
		"memory": NewMemoryHub(),
	}
}

func TestChannel(t *testing.T) {
	assert.Equal(t, "changes:competitors:a1", Channel(TopicCompetitors, "a1"))
}

func TestHub_SubscribeReceivesScopedSignals(t *testing.T) {
	for name, hub := range hubs(t) {
		t.Run(name, func(t *testing.T) {
			ctx := context.Background()
			var hits atomic.Int32

			cancel, err := hub.Subscribe(ctx, TopicCompetitors, "a1", func() { hits.Add(1) })
			require.NoError(t, err)

			require.NoError(t, hub.Notify(ctx, TopicCompetitors, "a2"))
			require.NoError(t, hub.Notify(ctx, TopicMoatSnapshots, "a1"))
			require.NoError(t, hub.Notify(ctx, TopicCompetitors, "a1"))

			assert.Eventually(t, func() bool { return hits.Load() >= 1 }, time.Second, 10*time.Millisecond)

			cancel()
			cancel()
			before := hits.Load()
			require.NoError(t, hub.Notify(ctx, TopicCompetitors, "a1"))
			time.Sleep(50 * time.Millisecond)
			assert.Equal(t, before, hits.Load())
		})
	}
}

func TestWatch_RefetchesAndReplaces(t *testing.T) {
	for name, hub := range hubs(t) {
		t.Run(name, func(t *testing.T) {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			var mu sync.Mutex
			rows := []string{"alpha"}
			var delivered [][]string

			fetch := func(context.Context) ([]string, error) {
				mu.Lock()
				defer mu.Unlock()
				return append([]string(nil), rows...), nil
			}
			deliver := func(items []string) {
				mu.Lock()
				defer mu.Unlock()
				delivered = append(delivered, items)
			}
			deliveries := func() int {
				mu.Lock()
				defer mu.Unlock()
				return len(delivered)
			}

			errCh := make(chan error, 1)
			go func() { errCh <- Watch(ctx, hub, TopicCompetitors, "a1", fetch, deliver, nil) }()

			require.Eventually(t, func() bool { return deliveries() == 1 }, time.Second, 10*time.Millisecond)

			mu.Lock()
			rows = []string{"alpha", "beta"}
			mu.Unlock()
			require.NoError(t, hub.Notify(ctx, TopicCompetitors, "a1"))

			require.Eventually(t, func() bool { return deliveries() >= 2 }, time.Second, 10*time.Millisecond)

			mu.Lock()
			last := delivered[len(delivered)-1]
			mu.Unlock()
			assert.Equal(t, []string{"alpha", "beta"}, last)

			cancel()
			select {
			case err := <-errCh:
				assert.NoError(t, err)
			case <-time.After(time.Second):
				t.Fatal("watch did not stop")
			}
		})
	}
}

func TestWatch_FetchErrorKeepsPreviousList(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewMemoryHub()

	var calls atomic.Int32
	var deliveredCount atomic.Int32
	fetch := func(context.Context) ([]int, error) {
		if calls.Add(1) == 2 {
			return nil, errors.New("db unavailable")
		}
		return []int{1}, nil
	}

	go Watch(ctx, hub, TopicStreamItems, "s1", fetch, func([]int) { deliveredCount.Add(1) }, nil)

	require.Eventually(t, func() bool { return deliveredCount.Load() == 1 }, time.Second, 10*time.Millisecond)
	require.NoError(t, hub.Notify(ctx, TopicStreamItems, "s1"))
	require.Eventually(t, func() bool { return calls.Load() == 2 }, time.Second, 10*time.Millisecond)
	assert.Equal(t, int32(1), deliveredCount.Load())
}

func TestWatch_SingleRecord(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	hub := NewMemoryHub()

	type job struct{ Done int }
	var done atomic.Int32
	fetch := func(context.Context) (*job, error) { return &job{Done: int(done.Load())}, nil }

	var last atomic.Int32
	last.Store(-1)
	go Watch(ctx, hub, TopicEnrichment, "j1", fetch, func(j *job) { last.Store(int32(j.Done)) }, nil)

	require.Eventually(t, func() bool { return last.Load() == 0 }, time.Second, 10*time.Millisecond)
	done.Store(3)
	require.NoError(t, hub.Notify(ctx, TopicEnrichment, "j1"))
	require.Eventually(t, func() bool { return last.Load() == 3 }, time.Second, 10*time.Millisecond)
}
