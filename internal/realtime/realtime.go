// Package realtime carries "something changed" signals for child records of a
// parent: competitors and moat snapshots of an analysis, items of a stream,
// results of an enrichment job.
// Signals carry no payload: consumers refetch the whole child list and
// replace their copy.
package realtime

import (
	"context"
	"fmt"
	"sync"

	"github.com/redis/go-redis/v9"

	"github.com/ajharbinger/dealscope/internal/logger"
)

// Topic names a child table watched for changes
type Topic string

const (
	TopicCompetitors   Topic = "competitors"
	TopicMoatSnapshots Topic = "moat_snapshots"
	TopicStreamItems   Topic = "stream_items"
	TopicEnrichment    Topic = "enrichment_jobs"
)

// Channel is the pub/sub channel for a topic and parent id
func Channel(topic Topic, parentID string) string {
	return fmt.Sprintf("changes:%s:%s", topic, parentID)
}

// Publisher emits change signals after writes
type Publisher interface {
	Notify(ctx context.Context, topic Topic, parentID string) error
}

// Subscriber delivers change signals to onChange until cancel is called or
// ctx ends. onChange runs on a single goroutine per subscription.
type Subscriber interface {
	Subscribe(ctx context.Context, topic Topic, parentID string, onChange func()) (cancel func(), err error)
}

// RedisHub implements Publisher and Subscriber over Redis pub/sub
type RedisHub struct {
	client *redis.Client
	log    logger.Logger
}

// NewRedisHub wraps a connected client
func NewRedisHub(client *redis.Client, log logger.Logger) *RedisHub {
	return &RedisHub{client: client, log: log}
}

func (h *RedisHub) Notify(ctx context.Context, topic Topic, parentID string) error {
	if err := h.client.Publish(ctx, Channel(topic, parentID), "changed").Err(); err != nil {
		return fmt.Errorf("failed to publish change for %s/%s: %w", topic, parentID, err)
	}
	return nil
}

func (h *RedisHub) Subscribe(ctx context.Context, topic Topic, parentID string, onChange func()) (func(), error) {
	channel := Channel(topic, parentID)
	pubsub := h.client.Subscribe(ctx, channel)

	// wait for the subscription confirmation so no signal published after
	// Subscribe returns is missed
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	subCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	msgs := pubsub.Channel()

	go func() {
		defer close(done)
		for {
			select {
			case <-subCtx.Done():
				return
			case _, ok := <-msgs:
				if !ok {
					return
				}
				onChange()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			if err := pubsub.Close(); err != nil {
				h.log.Debug("pubsub close", "channel", channel, "error", err.Error())
			}
			<-done
		})
	}, nil
}

// MemoryHub is an in-process hub used when Redis is not configured
type MemoryHub struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan struct{}
}

// NewMemoryHub creates an empty hub
func NewMemoryHub() *MemoryHub {
	return &MemoryHub{subs: make(map[string]map[int]chan struct{})}
}

func (m *MemoryHub) Notify(_ context.Context, topic Topic, parentID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ch := range m.subs[Channel(topic, parentID)] {
		// coalesce: a pending signal already means "refetch"
		select {
		case ch <- struct{}{}:
		default:
		}
	}
	return nil
}

func (m *MemoryHub) Subscribe(ctx context.Context, topic Topic, parentID string, onChange func()) (func(), error) {
	channel := Channel(topic, parentID)
	ch := make(chan struct{}, 1)

	m.mu.Lock()
	id := m.nextID
	m.nextID++
	if m.subs[channel] == nil {
		m.subs[channel] = make(map[int]chan struct{})
	}
	m.subs[channel][id] = ch
	m.mu.Unlock()

	subCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			select {
			case <-subCtx.Done():
				return
			case <-ch:
				onChange()
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			cancel()
			m.mu.Lock()
			delete(m.subs[channel], id)
			if len(m.subs[channel]) == 0 {
				delete(m.subs, channel)
			}
			m.mu.Unlock()
			<-done
		})
	}, nil
}

// Watch fetches the current state once, then refetches on every change
// signal and hands each full result to deliver. It blocks until ctx ends.
// Refetch failures are logged and the previous result stays in place.
func Watch[T any](ctx context.Context, sub Subscriber, topic Topic, parentID string, fetch func(context.Context) (T, error), deliver func(T), log logger.Logger) error {
	if log == nil {
		log = logger.NewNop()
	}

	signals := make(chan struct{}, 1)
	cancel, err := sub.Subscribe(ctx, topic, parentID, func() {
		select {
		case signals <- struct{}{}:
		default:
		}
	})
	if err != nil {
		return err
	}
	defer cancel()

	refetch := func() {
		items, err := fetch(ctx)
		if err != nil {
			if ctx.Err() == nil {
				log.Warn("refetch after change failed", "topic", string(topic), "parent_id", parentID, "error", err.Error())
			}
			return
		}
		deliver(items)
	}

	refetch()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-signals:
			refetch()
		}
	}
}
