// Package syncer reconciles fetched job collections for display: a
// primary fetch, best-effort per-item enrichment, and the local
// grouping/filtering both client roles share.
package syncer

import (
	"context"
	"log/slog"
	"sort"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/fieldsync/fieldsync/internal/jobs"
	"github.com/fieldsync/fieldsync/internal/token"
)

// defaultConcurrency bounds the enrichment fan-out per collection.
const defaultConcurrency = 4

// Enriched is a job plus whichever profile lookup succeeded. Absent
// enrichment never blocks the base job from rendering.
type Enriched struct {
	jobs.Job
	Technician *jobs.Technician
	Customer   *jobs.Customer
}

// Config holds synchronizer construction parameters.
type Config struct {
	Jobs        *jobs.Service
	Logger      *slog.Logger
	Concurrency int
}

// Service is the fetch-filter-sort pipeline over the job API.
type Service struct {
	jobs        *jobs.Service
	logger      *slog.Logger
	concurrency int
}

// New creates a synchronizer.
func New(cfg Config) *Service {
	concurrency := cfg.Concurrency
	if concurrency <= 0 {
		concurrency = defaultConcurrency
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{jobs: cfg.Jobs, logger: logger, concurrency: concurrency}
}

// FetchJobs performs the single primary round trip. The filter is
// forwarded verbatim; failures surface to the caller with a retry
// affordance upstream.
func (s *Service) FetchJobs(ctx context.Context, filter jobs.Filter) ([]jobs.Job, error) {
	return s.jobs.List(ctx, filter)
}

// Enrich attaches the related technician or customer profile for the
// viewer role. Lookup failures are logged and swallowed; the base job
// always comes back intact.
func (s *Service) Enrich(ctx context.Context, job jobs.Job, viewerRole string) Enriched {
	enriched := Enriched{Job: job}

	switch viewerRole {
	case token.RoleCustomer:
		if job.TechnicianID == "" {
			return enriched
		}
		tech, err := s.jobs.Technician(ctx, job.TechnicianID)
		if err != nil {
			s.logger.Warn("Technician enrichment failed",
				slog.String("job_id", job.ID),
				slog.String("technician_id", job.TechnicianID),
				slog.String("error", err.Error()),
			)
			return enriched
		}
		enriched.Technician = tech

	case token.RoleTechnician:
		if job.CustomerID == "" {
			return enriched
		}
		customer, err := s.jobs.Customer(ctx, job.CustomerID)
		if err != nil {
			s.logger.Warn("Customer enrichment failed",
				slog.String("job_id", job.ID),
				slog.String("customer_id", job.CustomerID),
				slog.String("error", err.Error()),
			)
			return enriched
		}
		enriched.Customer = customer
	}

	return enriched
}

// EnrichAll enriches a collection concurrently. Each item's failure is
// isolated to that item; the result always has one entry per input job
// in input order.
func (s *Service) EnrichAll(ctx context.Context, list []jobs.Job, viewerRole string) []Enriched {
	enriched := make([]Enriched, len(list))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)

	for i, job := range list {
		i, job := i, job
		g.Go(func() error {
			enriched[i] = s.Enrich(gctx, job, viewerRole)
			return nil
		})
	}

	// Workers never return errors; enrichment failure is not collection
	// failure.
	_ = g.Wait()
	return enriched
}

// Wrap lifts plain jobs into Enriched values without any lookups, for
// callers that only need FilterAndSort.
func Wrap(list []jobs.Job) []Enriched {
	enriched := make([]Enriched, len(list))
	for i, job := range list {
		enriched[i] = Enriched{Job: job}
	}
	return enriched
}

// GroupByDate buckets jobs into one bucket per calendar day over the
// inclusive [start, end] range. Empty buckets are retained; jobs whose
// scheduled date falls outside the range are dropped.
func GroupByDate(list []jobs.Job, start, end time.Time) map[string][]jobs.Job {
	grouped := make(map[string][]jobs.Job)
	for _, day := range DateRange(start, end) {
		grouped[day] = []jobs.Job{}
	}

	for _, job := range list {
		if bucket, ok := grouped[job.ScheduledDate]; ok {
			grouped[job.ScheduledDate] = append(bucket, job)
		}
	}
	return grouped
}

// DateRange lists the calendar days from start through end inclusive,
// in YYYY-MM-DD form. Empty when end precedes start.
func DateRange(start, end time.Time) []string {
	start = truncateDay(start)
	end = truncateDay(end)

	var days []string
	for day := start; !day.After(end); day = day.AddDate(0, 0, 1) {
		days = append(days, day.Format("2006-01-02"))
	}
	return days
}

// WeekAround is the 7-day range centered on the given day, the window
// the schedule view uses.
func WeekAround(center time.Time) (start, end time.Time) {
	center = truncateDay(center)
	return center.AddDate(0, 0, -3), center.AddDate(0, 0, 3)
}

func truncateDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// Query is the local display filter applied after a fetch.
type Query struct {
	// StatusGroup narrows to one display bucket; empty means all.
	StatusGroup jobs.Bucket
	// SearchText is matched case-insensitively as a substring of the
	// service type, the id, the address and the enriched names.
	SearchText string
}

// FilterAndSort applies the display filter and orders by scheduled
// date descending. The sort is stable, so equal dates keep their
// fetch order and repeated application yields the same sequence.
func FilterAndSort(list []Enriched, q Query) []Enriched {
	filtered := make([]Enriched, 0, len(list))
	needle := strings.ToLower(q.SearchText)

	for _, item := range list {
		if q.StatusGroup != "" && jobs.Classify(item.Job) != q.StatusGroup {
			continue
		}
		if needle != "" && !matches(item, needle) {
			continue
		}
		filtered = append(filtered, item)
	}

	sort.SliceStable(filtered, func(i, j int) bool {
		return filtered[i].ScheduledDate > filtered[j].ScheduledDate
	})
	return filtered
}

func matches(item Enriched, needle string) bool {
	if strings.Contains(strings.ToLower(item.ServiceType), needle) ||
		strings.Contains(strings.ToLower(item.ID), needle) ||
		strings.Contains(strings.ToLower(item.Location.Address), needle) {
		return true
	}
	if item.Technician != nil && strings.Contains(strings.ToLower(item.Technician.Name), needle) {
		return true
	}
	if item.Customer != nil && strings.Contains(strings.ToLower(item.Customer.Name), needle) {
		return true
	}
	return false
}
