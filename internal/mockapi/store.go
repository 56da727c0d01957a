package mockapi

import (
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/fieldsync/fieldsync/internal/jobs"
	"github.com/fieldsync/fieldsync/internal/token"
)

// User is a login fixture. Passwords are plaintext on purpose, this
// server only ever backs local development and tests.
type User struct {
	ID           string
	Name         string
	Email        string
	Password     string
	Role         string
	TechnicianID string
	CustomerID   string
}

// Store holds the in-memory fixture data behind the mock API.
type Store struct {
	mu          sync.RWMutex
	users       map[string]User // keyed by email
	jobs        map[string]jobs.Job
	technicians map[string]jobs.Technician
	customers   map[string]jobs.Customer
}

// NewStore creates an empty fixture store.
func NewStore() *Store {
	return &Store{
		users:       make(map[string]User),
		jobs:        make(map[string]jobs.Job),
		technicians: make(map[string]jobs.Technician),
		customers:   make(map[string]jobs.Customer),
	}
}

// AddUser registers a login fixture.
func (s *Store) AddUser(u User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[u.Email] = u
}

// UserByEmail looks up a login fixture.
func (s *Store) UserByEmail(email string) (User, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[email]
	return u, ok
}

// AddJob inserts or replaces a job fixture.
func (s *Store) AddJob(j jobs.Job) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.jobs[j.ID] = j
}

// Job returns a job by id.
func (s *Store) Job(id string) (jobs.Job, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	j, ok := s.jobs[id]
	return j, ok
}

// ReplaceJob swaps in an updated job, returning false if it vanished.
func (s *Store) ReplaceJob(j jobs.Job) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.jobs[j.ID]; !ok {
		return false
	}
	s.jobs[j.ID] = j
	return true
}

// Jobs returns all jobs matching the predicate, ordered by scheduled
// date then id so list responses are deterministic.
func (s *Store) Jobs(match func(jobs.Job) bool) []jobs.Job {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var list []jobs.Job
	for _, j := range s.jobs {
		if match == nil || match(j) {
			list = append(list, j)
		}
	}
	sort.Slice(list, func(i, k int) bool {
		if list[i].ScheduledDate != list[k].ScheduledDate {
			return list[i].ScheduledDate < list[k].ScheduledDate
		}
		return list[i].ID < list[k].ID
	})
	return list
}

// AddTechnician inserts a technician fixture.
func (s *Store) AddTechnician(t jobs.Technician) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.technicians[t.ID] = t
}

// Technician returns a technician by id.
func (s *Store) Technician(id string) (jobs.Technician, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.technicians[id]
	return t, ok
}

// UpdateTechnician applies fn to the technician record if it exists.
func (s *Store) UpdateTechnician(id string, fn func(*jobs.Technician)) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.technicians[id]
	if !ok {
		return false
	}
	fn(&t)
	s.technicians[id] = t
	return true
}

// AddCustomer inserts a customer fixture.
func (s *Store) AddCustomer(c jobs.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customers[c.ID] = c
}

// Customer returns a customer by id.
func (s *Store) Customer(id string) (jobs.Customer, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	c, ok := s.customers[id]
	return c, ok
}

// ReplaceCustomer swaps in an updated customer record.
func (s *Store) ReplaceCustomer(c jobs.Customer) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.customers[c.ID]; !ok {
		return false
	}
	s.customers[c.ID] = c
	return true
}

// SeedDemo loads the sample dataset: one technician, one customer, and
// a spread of jobs across statuses and the current week.
func (s *Store) SeedDemo(now time.Time) {
	tech := jobs.Technician{
		ID:     "tech-001",
		Name:   "Mike Rodriguez",
		Phone:  "555-0134",
		Status: "available",
		Skills: []string{"fiber_installation", "router_setup", "troubleshooting"},
	}
	customer := jobs.Customer{
		ID:          "cust-001",
		Name:        "Sarah Johnson",
		Email:       "sarah@example.com",
		Phone:       "555-0192",
		Address:     "742 Evergreen Terrace",
		ServiceTier: "premium",
	}

	s.AddTechnician(tech)
	s.AddCustomer(customer)

	s.AddUser(User{
		ID:           "user-tech-001",
		Name:         tech.Name,
		Email:        "tech@fieldsync.dev",
		Password:     "password123",
		Role:         token.RoleTechnician,
		TechnicianID: tech.ID,
	})
	s.AddUser(User{
		ID:         "user-cust-001",
		Name:       customer.Name,
		Email:      "customer@fieldsync.dev",
		Password:   "password123",
		Role:       token.RoleCustomer,
		CustomerID: customer.ID,
	})

	day := func(offset int) string {
		return now.AddDate(0, 0, offset).Format("2006-01-02")
	}
	lat := func(v float64) *float64 { return &v }

	seeds := []jobs.Job{
		{
			Status:          jobs.StatusAssigned,
			ServiceType:     "fiber_installation",
			ScheduledDate:   day(0),
			ScheduledWindow: &jobs.TimeWindow{Start: "09:00", End: "11:00"},
			Location: jobs.Location{
				Address: "742 Evergreen Terrace",
				Lat:     lat(37.7749), Lng: lat(-122.4194),
			},
			EstimatedArrivalTime:     "09:30",
			EstimatedDurationMinutes: 90,
		},
		{
			Status:          jobs.StatusAssigned,
			ServiceType:     "router_setup",
			ScheduledDate:   day(0),
			ScheduledWindow: &jobs.TimeWindow{Start: "13:00", End: "15:00"},
			Location: jobs.Location{
				Address: "1021 Sunset Blvd",
				Lat:     lat(37.7793), Lng: lat(-122.4192),
			},
			EstimatedDurationMinutes: 60,
		},
		{
			Status:          jobs.StatusPending,
			ServiceType:     "troubleshooting",
			ScheduledDate:   day(1),
			ScheduledWindow: &jobs.TimeWindow{Start: "10:00", End: "12:00"},
			Location:        jobs.Location{Address: "88 Harbor Way"},
		},
		{
			Status:        jobs.StatusCompleted,
			ServiceType:   "fiber_installation",
			ScheduledDate: day(-2),
			Location:      jobs.Location{Address: "742 Evergreen Terrace"},
		},
		{
			Status:        jobs.StatusCancelled,
			ServiceType:   "router_setup",
			ScheduledDate: day(-1),
			Location:      jobs.Location{Address: "742 Evergreen Terrace"},
		},
	}

	for _, j := range seeds {
		j.ID = uuid.New().String()
		j.CustomerID = customer.ID
		if j.Status != jobs.StatusPending {
			j.TechnicianID = tech.ID
		}
		s.AddJob(j)
	}
}
