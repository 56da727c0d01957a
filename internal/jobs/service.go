package jobs

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/fieldsync/fieldsync/internal/gateway"
	"github.com/fieldsync/fieldsync/internal/session"
	"github.com/fieldsync/fieldsync/internal/token"
)

// Sender dispatches API requests. Satisfied by *gateway.Gateway.
type Sender interface {
	Send(ctx context.Context, req gateway.Request) (*gateway.Response, error)
}

// ServiceConfig holds constructor parameters for Service.
type ServiceConfig struct {
	Sender Sender
	Logger *slog.Logger
	// Clock supplies actual start/end timestamps. Defaults to time.Now.
	Clock func() time.Time
}

// Service is the job API surface plus the client-side lifecycle gate.
// Status never mutates optimistically: the local copy is only replaced
// by the confirmed server response.
type Service struct {
	sender Sender
	logger *slog.Logger
	clock  func() time.Time
}

// NewService creates a job Service.
func NewService(cfg ServiceConfig) *Service {
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Service{sender: cfg.Sender, logger: logger, clock: clock}
}

// List fetches jobs matching the filter in a single round trip.
func (s *Service) List(ctx context.Context, filter Filter) ([]Job, error) {
	resp, err := s.sender.Send(ctx, gateway.Request{
		Method: http.MethodGet,
		Path:   "/jobs",
		Query:  filter.Query(),
	})
	if err != nil {
		return nil, err
	}

	var list []Job
	if err := resp.Decode(&list); err != nil {
		return nil, err
	}
	return list, nil
}

// Get fetches a single job by id.
func (s *Service) Get(ctx context.Context, id string) (*Job, error) {
	resp, err := s.sender.Send(ctx, gateway.Request{
		Method: http.MethodGet,
		Path:   "/jobs/" + id,
	})
	if err != nil {
		return nil, err
	}

	var job Job
	if err := resp.Decode(&job); err != nil {
		return nil, err
	}
	return &job, nil
}

// Start moves an assigned job into progress. The precondition and the
// role/ownership gate are checked locally first, so an invalid call
// costs no round trip; the backend check remains authoritative.
func (s *Service) Start(ctx context.Context, sess session.Snapshot, job Job) (*Job, error) {
	if err := s.gate(sess, job, ActionStart); err != nil {
		return nil, err
	}

	return s.update(ctx, job.ID, map[string]any{
		"status":            StatusInProgress,
		"actual_start_time": s.clock().UTC().Format(time.RFC3339Nano),
	})
}

// Complete finishes an in-progress job, optionally attaching notes.
func (s *Service) Complete(ctx context.Context, sess session.Snapshot, job Job, notes string) (*Job, error) {
	if err := s.gate(sess, job, ActionComplete); err != nil {
		return nil, err
	}

	payload := map[string]any{
		"status":          StatusCompleted,
		"actual_end_time": s.clock().UTC().Format(time.RFC3339Nano),
	}
	if notes != "" {
		payload["notes"] = notes
	}

	return s.update(ctx, job.ID, payload)
}

// gate applies the central transition table plus the ownership rule: a
// technician may only act on jobs assigned to them.
func (s *Service) gate(sess session.Snapshot, job Job, action Action) error {
	if _, err := Transition(job.Status, action, sess.Role); err != nil {
		return err
	}
	if sess.TechnicianID == "" || job.TechnicianID != sess.TechnicianID {
		return fmt.Errorf("%w: job %s is not assigned to this technician", ErrForbidden, job.ID)
	}
	return nil
}

func (s *Service) update(ctx context.Context, id string, body map[string]any) (*Job, error) {
	resp, err := s.sender.Send(ctx, gateway.Request{
		Method: http.MethodPut,
		Path:   "/jobs/" + id,
		Body:   body,
	})
	if err != nil {
		return nil, err
	}

	var job Job
	if err := resp.Decode(&job); err != nil {
		return nil, err
	}

	s.logger.Info("Job updated",
		slog.String("job_id", job.ID),
		slog.String("status", string(job.Status)),
	)
	return &job, nil
}

// Technician fetches the enrichment record for an assigned technician.
func (s *Service) Technician(ctx context.Context, id string) (*Technician, error) {
	resp, err := s.sender.Send(ctx, gateway.Request{
		Method: http.MethodGet,
		Path:   "/technicians/" + id,
	})
	if err != nil {
		return nil, err
	}

	var tech Technician
	if err := resp.Decode(&tech); err != nil {
		return nil, err
	}
	return &tech, nil
}

// UpdateTechnicianLocation reports the technician's current position.
// Technician-only; checked locally before the round trip.
func (s *Service) UpdateTechnicianLocation(ctx context.Context, sess session.Snapshot, lat, lng float64) error {
	if sess.Role != token.RoleTechnician {
		return fmt.Errorf("%w: only technicians report location", ErrForbidden)
	}

	_, err := s.sender.Send(ctx, gateway.Request{
		Method: http.MethodPut,
		Path:   "/technicians/location",
		Body: map[string]any{
			"location": map[string]float64{"lat": lat, "lng": lng},
		},
	})
	return err
}

// UpdateTechnicianStatus sets the technician's availability status.
func (s *Service) UpdateTechnicianStatus(ctx context.Context, sess session.Snapshot, status string) error {
	if sess.Role != token.RoleTechnician {
		return fmt.Errorf("%w: only technicians update availability", ErrForbidden)
	}

	_, err := s.sender.Send(ctx, gateway.Request{
		Method: http.MethodPut,
		Path:   "/technicians/status",
		Body:   map[string]string{"status": status},
	})
	return err
}

// CustomerProfile fetches the signed-in customer's own profile.
func (s *Service) CustomerProfile(ctx context.Context) (*Customer, error) {
	resp, err := s.sender.Send(ctx, gateway.Request{
		Method: http.MethodGet,
		Path:   "/customers/profile",
	})
	if err != nil {
		return nil, err
	}

	var customer Customer
	if err := resp.Decode(&customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

// UpdateCustomerProfile updates the signed-in customer's own profile.
func (s *Service) UpdateCustomerProfile(ctx context.Context, sess session.Snapshot, customer Customer) (*Customer, error) {
	if sess.Role != token.RoleCustomer {
		return nil, fmt.Errorf("%w: only customers update their profile", ErrForbidden)
	}

	resp, err := s.sender.Send(ctx, gateway.Request{
		Method: http.MethodPut,
		Path:   "/customers/profile",
		Body:   customer,
	})
	if err != nil {
		return nil, err
	}

	var updated Customer
	if err := resp.Decode(&updated); err != nil {
		return nil, err
	}
	return &updated, nil
}

// Customer fetches a customer enrichment record by id (technician view).
func (s *Service) Customer(ctx context.Context, id string) (*Customer, error) {
	resp, err := s.sender.Send(ctx, gateway.Request{
		Method: http.MethodGet,
		Path:   "/customers/" + id,
	})
	if err != nil {
		return nil, err
	}

	var customer Customer
	if err := resp.Decode(&customer); err != nil {
		return nil, err
	}
	return &customer, nil
}
