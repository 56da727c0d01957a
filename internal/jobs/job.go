package jobs

import (
	"fmt"
	"net/url"
	"strconv"
	"time"
)

// Status is a job's lifecycle state. The backend owns transitions; the
// client holds an immutable-per-fetch copy.
type Status string

const (
	StatusPending    Status = "pending"
	StatusAssigned   Status = "assigned"
	StatusInProgress Status = "in_progress"
	StatusCompleted  Status = "completed"
	StatusCancelled  Status = "cancelled"
)

// Valid reports whether s is one of the five known states.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

// Terminal reports whether no further transition can leave s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// TimeWindow is a scheduled arrival window, e.g. "09:00" to "11:00".
type TimeWindow struct {
	Start string `json:"start"`
	End   string `json:"end"`
}

// Label renders the window for display.
func (w TimeWindow) Label() string {
	if w.Start == "" && w.End == "" {
		return "No time specified"
	}
	return fmt.Sprintf("%s - %s", w.Start, w.End)
}

// Location is a service address with optional coordinates.
type Location struct {
	Address string   `json:"address"`
	Lat     *float64 `json:"lat,omitempty"`
	Lng     *float64 `json:"lng,omitempty"`
}

// HasCoordinates reports whether the location can be placed on a map.
func (l Location) HasCoordinates() bool {
	return l.Lat != nil && l.Lng != nil
}

// Job is one unit of field-service work. ScheduledDate is a calendar
// day in YYYY-MM-DD form, matching the wire format.
type Job struct {
	ID                       string     `json:"id"`
	CustomerID               string     `json:"customer_id"`
	Status                   Status     `json:"status"`
	ServiceType              string     `json:"service_type"`
	Priority                 string     `json:"priority,omitempty"`
	ScheduledDate            string     `json:"scheduled_date"`
	ScheduledWindow          *TimeWindow `json:"scheduled_time_window,omitempty"`
	Location                 Location   `json:"location"`
	TechnicianID             string     `json:"technician_id,omitempty"`
	EstimatedArrivalTime     string     `json:"estimated_arrival_time,omitempty"`
	EstimatedDurationMinutes int        `json:"estimated_duration,omitempty"`
	ActualStartTime          *time.Time `json:"actual_start_time,omitempty"`
	ActualEndTime            *time.Time `json:"actual_end_time,omitempty"`
	Notes                    string     `json:"notes,omitempty"`
}

// Elapsed is the time spent on a job that is currently in progress.
// Zero for any other status or when no start time was recorded.
func (j Job) Elapsed(now time.Time) time.Duration {
	if j.Status != StatusInProgress || j.ActualStartTime == nil {
		return 0
	}
	if elapsed := now.Sub(*j.ActualStartTime); elapsed > 0 {
		return elapsed
	}
	return 0
}

// WindowLabel renders the scheduled window, tolerating its absence.
func (j Job) WindowLabel() string {
	if j.ScheduledWindow == nil {
		return "No time specified"
	}
	return j.ScheduledWindow.Label()
}

// EstimatedDuration returns the estimate, defaulting to one hour the
// way the detail screens do.
func (j Job) EstimatedDuration() time.Duration {
	if j.EstimatedDurationMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(j.EstimatedDurationMinutes) * time.Minute
}

// Technician is a read-mostly enrichment record for an assigned job.
type Technician struct {
	ID       string    `json:"id"`
	Name     string    `json:"name"`
	Phone    string    `json:"phone,omitempty"`
	Status   string    `json:"status,omitempty"`
	Skills   []string  `json:"skills,omitempty"`
	Location *Location `json:"location,omitempty"`
}

// Customer is the profile record behind a job's customer_id.
type Customer struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Email       string `json:"email,omitempty"`
	Phone       string `json:"phone,omitempty"`
	Address     string `json:"address,omitempty"`
	ServiceTier string `json:"service_tier,omitempty"`
}

// Filter selects jobs on the server side. Zero-valued fields are
// omitted from the query; nothing is defaulted at this layer.
type Filter struct {
	CustomerID   string
	TechnicianID string
	Status       Status
	Date         string
	StartDate    string
	EndDate      string
	Limit        int
}

// Query renders the filter as URL parameters, forwarded verbatim.
func (f Filter) Query() url.Values {
	q := url.Values{}
	if f.CustomerID != "" {
		q.Set("customer_id", f.CustomerID)
	}
	if f.TechnicianID != "" {
		q.Set("technician_id", f.TechnicianID)
	}
	if f.Status != "" {
		q.Set("status", string(f.Status))
	}
	if f.Date != "" {
		q.Set("date", f.Date)
	}
	if f.StartDate != "" {
		q.Set("start_date", f.StartDate)
	}
	if f.EndDate != "" {
		q.Set("end_date", f.EndDate)
	}
	if f.Limit > 0 {
		q.Set("limit", strconv.Itoa(f.Limit))
	}
	return q
}
