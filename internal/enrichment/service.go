package enrichment

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/ajharbinger/dealscope/internal/errors"
	"github.com/ajharbinger/dealscope/internal/logger"
	"github.com/ajharbinger/dealscope/internal/metrics"
	"github.com/ajharbinger/dealscope/internal/models"
	"github.com/ajharbinger/dealscope/internal/realtime"
	"github.com/ajharbinger/dealscope/internal/repository"
)

// MaxDomainsPerJob caps one enrichment request
const MaxDomainsPerJob = 100

// Config contains configuration for the worker pool
type Config struct {
	Concurrency int
	Timeout     time.Duration
	Scheme      string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Concurrency: 4,
		Timeout:     15 * time.Second,
		Scheme:      "https",
	}
}

// Service runs enrichment jobs in the background. Each job fetches every
// domain's homepage through a bounded worker pool and records progress on the
// job row as it goes.
type Service struct {
	repo      repository.EnrichmentRepository
	fetcher   Fetcher
	monitor   *HealthMonitor
	publisher realtime.Publisher
	logger    logger.Logger
	cfg       Config
	now       func() time.Time

	mu      sync.Mutex
	running map[uuid.UUID]context.CancelFunc
	wg      sync.WaitGroup
	baseCtx context.Context
	stop    context.CancelFunc
}

// NewService creates a new enrichment service
func NewService(repo repository.EnrichmentRepository, fetcher Fetcher, publisher realtime.Publisher, log logger.Logger, cfg Config) *Service {
	defaults := DefaultConfig()
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = defaults.Concurrency
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = defaults.Timeout
	}
	if cfg.Scheme == "" {
		cfg.Scheme = defaults.Scheme
	}
	if log == nil {
		log = logger.NewNop()
	}

	baseCtx, stop := context.WithCancel(context.Background())
	return &Service{
		repo:      repo,
		fetcher:   fetcher,
		monitor:   NewHealthMonitor(),
		publisher: publisher,
		logger:    log,
		cfg:       cfg,
		now:       time.Now,
		running:   make(map[uuid.UUID]context.CancelFunc),
		baseCtx:   baseCtx,
		stop:      stop,
	}
}

// Start validates the domains, records a pending job and launches it. The
// returned job is the pending snapshot; progress is read back with Get.
func (s *Service) Start(ctx context.Context, user *models.User, rawDomains []string) (*models.EnrichmentJob, error) {
	if user == nil {
		return nil, apperrors.Unauthenticated("authentication required", nil)
	}

	domains, err := normalizeAll(rawDomains)
	if err != nil {
		return nil, err
	}

	job := &models.EnrichmentJob{OwnerID: user.ID, Domains: domains}
	if err := s.repo.Create(ctx, job); err != nil {
		s.logger.Error("Failed to create enrichment job", err, "owner_id", user.ID.String())
		return nil, err
	}
	snapshot := *job

	jobCtx, cancel := context.WithCancel(s.baseCtx)
	s.mu.Lock()
	s.running[job.ID] = cancel
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(jobCtx, job)

	s.logger.Info("Started enrichment job", "job_id", job.ID.String(), "domains", len(domains))
	return &snapshot, nil
}

// normalizeAll cleans and de-duplicates domains, keeping input order
func normalizeAll(raw []string) ([]string, error) {
	if len(raw) == 0 {
		return nil, apperrors.ValidationError("at least one domain is required", nil)
	}
	if len(raw) > MaxDomainsPerJob {
		return nil, apperrors.ValidationError(fmt.Sprintf("at most %d domains per job", MaxDomainsPerJob), nil)
	}

	var fields []apperrors.FieldError
	seen := make(map[string]bool, len(raw))
	domains := make([]string, 0, len(raw))
	for i, r := range raw {
		d, err := NormalizeDomain(r)
		if err != nil {
			fields = append(fields, apperrors.FieldError{Field: fmt.Sprintf("domains[%d]", i), Message: err.Error()})
			continue
		}
		if seen[d] {
			continue
		}
		seen[d] = true
		domains = append(domains, d)
	}
	if len(fields) > 0 {
		return nil, apperrors.ValidationError("invalid domains", nil).WithFields(fields)
	}
	return domains, nil
}

// Get returns a job if the user may see it
func (s *Service) Get(ctx context.Context, user *models.User, id uuid.UUID) (*models.EnrichmentJob, error) {
	if user == nil {
		return nil, apperrors.Unauthenticated("authentication required", nil)
	}
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !user.CanAccess(job.OwnerID) {
		return nil, apperrors.Forbidden("you do not have access to this resource", nil)
	}
	return job, nil
}

// Cancel stops a running job. Domains already fetched keep their results.
// A job left behind by a previous process is marked cancelled directly.
func (s *Service) Cancel(ctx context.Context, user *models.User, id uuid.UUID) error {
	job, err := s.Get(ctx, user, id)
	if err != nil {
		return err
	}
	if job.IsTerminal() {
		return apperrors.Conflict("enrichment job has already finished", nil).
			WithDetails("status is " + job.Status)
	}

	s.mu.Lock()
	cancel, ok := s.running[id]
	s.mu.Unlock()
	if ok {
		cancel()
		s.logger.Info("Cancelling enrichment job", "job_id", id.String())
		return nil
	}

	finished := s.now().UTC()
	job.Status = string(models.EnrichmentCancelled)
	job.FinishedAt = &finished
	return s.repo.UpdateProgress(ctx, job)
}

// Health returns fetch statistics across all jobs
func (s *Service) Health() HealthStatus {
	return s.monitor.Status()
}

// Running is the number of jobs in flight in this process
func (s *Service) Running() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.running)
}

// Shutdown cancels every running job and waits for them to record their
// final state, or for ctx to expire.
func (s *Service) Shutdown(ctx context.Context) error {
	s.stop()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.logger.Info("Enrichment workers stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// run is the job loop. Progress writes use a context detached from
// cancellation so a cancelled job still records where it stopped.
func (s *Service) run(ctx context.Context, job *models.EnrichmentJob) {
	defer s.wg.Done()
	defer s.forget(job.ID)

	metrics.EnrichmentJobsActive.Inc()
	defer metrics.EnrichmentJobsActive.Dec()

	log := s.logger.With("job_id", job.ID.String())
	storeCtx := context.WithoutCancel(ctx)

	var mu sync.Mutex
	job.Status = string(models.EnrichmentRunning)
	s.save(storeCtx, job, log)

	results := make([]models.CompanyMetadata, len(job.Domains))
	work := make(chan int)

	workers := s.cfg.Concurrency
	if workers > len(job.Domains) {
		workers = len(job.Domains)
	}

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range work {
				meta, ok := s.enrich(ctx, job.Domains[i])

				mu.Lock()
				results[i] = meta
				if ok {
					job.Completed++
				} else {
					job.Failed++
				}
				job.Results = collect(results)
				s.save(storeCtx, job, log)
				mu.Unlock()
			}
		}()
	}

feed:
	for i := range job.Domains {
		select {
		case work <- i:
		case <-ctx.Done():
			break feed
		}
	}
	close(work)
	wg.Wait()

	finished := s.now().UTC()
	job.FinishedAt = &finished
	job.Results = collect(results)
	switch {
	case ctx.Err() != nil:
		job.Status = string(models.EnrichmentCancelled)
	case job.Total > 0 && job.Failed == job.Total:
		job.Status = string(models.EnrichmentFailed)
	default:
		job.Status = string(models.EnrichmentCompleted)
	}
	s.save(storeCtx, job, log)

	log.Info("Enrichment job finished", "status", job.Status, "completed", job.Completed, "failed", job.Failed)
}

// enrich fetches one homepage. The bool is false when the fetch failed.
func (s *Service) enrich(ctx context.Context, domain string) (models.CompanyMetadata, bool) {
	url := s.cfg.Scheme + "://" + domain
	meta := models.CompanyMetadata{Domain: domain, URL: url}

	fetchCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	started := time.Now()
	doc, status, err := s.fetcher.Fetch(fetchCtx, url)
	outcome := FetchOutcome{Domain: domain, URL: url, Status: status, Err: err, Latency: time.Since(started)}
	meta.StatusCode = status
	meta.FetchedAt = s.now().UTC()
	if err != nil {
		meta.Error = err.Error()
		// a cancelled job says nothing about the site
		if ctx.Err() == nil {
			s.monitor.Record(outcome)
			metrics.EnrichmentFetches.WithLabelValues(string(Classify(status, err))).Inc()
		}
		return meta, false
	}

	ParseHomepage(doc, &meta)
	s.monitor.Record(outcome)
	metrics.EnrichmentFetches.WithLabelValues("ok").Inc()
	return meta, true
}

// collect keeps the finished entries in input order
func collect(results []models.CompanyMetadata) models.EnrichmentResults {
	out := make(models.EnrichmentResults, 0, len(results))
	for _, r := range results {
		if r.Domain != "" {
			out = append(out, r)
		}
	}
	return out
}

func (s *Service) save(ctx context.Context, job *models.EnrichmentJob, log logger.Logger) {
	if err := s.repo.UpdateProgress(ctx, job); err != nil {
		log.Error("Failed to update enrichment job", err, "status", job.Status)
		return
	}
	if s.publisher != nil {
		if err := s.publisher.Notify(ctx, realtime.TopicEnrichment, job.ID.String()); err != nil {
			log.Warn("change notification not published", "error", err.Error())
		}
	}
}

func (s *Service) forget(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cancel, ok := s.running[id]; ok {
		cancel()
		delete(s.running, id)
	}
}
