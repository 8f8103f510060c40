package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	apperrors "github.com/ajharbinger/dealscope/internal/errors"
	"github.com/ajharbinger/dealscope/internal/logger"
	"github.com/ajharbinger/dealscope/internal/metrics"
	"github.com/ajharbinger/dealscope/internal/models"
)

// maxDependentWorkers bounds concurrent child inserts for one submission
const maxDependentWorkers = 4

// createDependents runs create for every index concurrently once the parent
// exists. Failures are logged and counted, never returned: the submission has
// already succeeded.
func createDependents(ctx context.Context, n int, create func(ctx context.Context, i int) error, log logger.Logger, what string) (created, failed int) {
	if n == 0 {
		return 0, 0
	}

	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		sem = make(chan struct{}, maxDependentWorkers)
	)

	for i := 0; i < n; i++ {
		wg.Add(1)
		sem <- struct{}{}
		go func(i int) {
			defer wg.Done()
			defer func() { <-sem }()

			err := create(ctx, i)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				failed++
				metrics.DependentsFailed.WithLabelValues(what).Inc()
				log.Warn("dependent record not created", "kind", what, "index", i, "error", err.Error())
				return
			}
			created++
			metrics.DependentsCreated.WithLabelValues(what).Inc()
		}(i)
	}

	wg.Wait()
	return created, failed
}

func requireUser(user *models.User) error {
	if user == nil {
		return apperrors.Unauthenticated("authentication required", nil)
	}
	return nil
}

// authorize checks that user may act on a record owned by ownerID
func authorize(user *models.User, ownerID uuid.UUID) error {
	if err := requireUser(user); err != nil {
		return err
	}
	if !user.CanAccess(ownerID) {
		return apperrors.Forbidden("you do not have access to this resource", nil)
	}
	return nil
}
