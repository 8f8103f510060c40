package services

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/ajharbinger/dealscope/internal/logger"
)

func TestCreateDependents_CountsAndBound(t *testing.T) {
	var inFlight, peak int32

	created, failed := createDependents(context.Background(), 12, func(ctx context.Context, i int) error {
		n := atomic.AddInt32(&inFlight, 1)
		for {
			p := atomic.LoadInt32(&peak)
			if n <= p || atomic.CompareAndSwapInt32(&peak, p, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		atomic.AddInt32(&inFlight, -1)
		if i%3 == 0 {
			return errInsertFailed
		}
		return nil
	}, logger.NewNop(), "test")

	assert.Equal(t, 8, created)
	assert.Equal(t, 4, failed)
	assert.LessOrEqual(t, int(atomic.LoadInt32(&peak)), maxDependentWorkers)
}

func TestCreateDependents_None(t *testing.T) {
	created, failed := createDependents(context.Background(), 0, func(ctx context.Context, i int) error {
		t.Fatal("create should not be called")
		return nil
	}, logger.NewNop(), "test")

	assert.Zero(t, created)
	assert.Zero(t, failed)
}
