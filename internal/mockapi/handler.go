package mockapi

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/fieldsync/fieldsync/internal/jobs"
	"github.com/fieldsync/fieldsync/internal/token"
)

// Dependencies holds everything the handlers need.
type Dependencies struct {
	Logger *slog.Logger
	Store  *Store
	Issuer *Issuer
}

// Handler serves the mock dispatch API.
type Handler struct {
	logger *slog.Logger
	store  *Store
	issuer *Issuer
}

// NewHandler creates a Handler instance.
func NewHandler(deps *Dependencies) *Handler {
	return &Handler{
		logger: deps.Logger,
		store:  deps.Store,
		issuer: deps.Issuer,
	}
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required field: email or password"})
		return
	}

	user, ok := h.store.UserByEmail(req.Email)
	if !ok || user.Password != req.Password {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Invalid credentials"})
		return
	}

	access, err := h.issuer.Issue(user)
	if err != nil {
		h.logger.Error("Failed to issue token", slog.String("error", err.Error()))
		c.JSON(http.StatusInternalServerError, gin.H{"message": "Failed to issue token"})
		return
	}

	h.logger.Info("Login succeeded",
		slog.String("user_id", user.ID),
		slog.String("role", user.Role),
	)

	c.JSON(http.StatusOK, gin.H{
		"access_token": access,
		"user": gin.H{
			"id":            user.ID,
			"name":          user.Name,
			"email":         user.Email,
			"role":          user.Role,
			"technician_id": user.TechnicianID,
			"customer_id":   user.CustomerID,
		},
	})
}

// ListJobs handles GET /api/v1/jobs. Customers only ever see their own
// jobs; technicians default to their own assignments.
func (h *Handler) ListJobs(c *gin.Context) {
	role := c.GetString(ctxRole)

	customerID := c.Query("customer_id")
	technicianID := c.Query("technician_id")
	switch role {
	case token.RoleCustomer:
		customerID = c.GetString(ctxCustomerID)
	case token.RoleTechnician:
		if technicianID == "" {
			technicianID = c.GetString(ctxTechnicianID)
		}
	}

	status := c.Query("status")
	date := c.Query("date")
	startDate := c.Query("start_date")
	endDate := c.Query("end_date")

	list := h.store.Jobs(func(j jobs.Job) bool {
		if customerID != "" && j.CustomerID != customerID {
			return false
		}
		if technicianID != "" && j.TechnicianID != technicianID {
			return false
		}
		if status != "" && string(j.Status) != status {
			return false
		}
		if date != "" && j.ScheduledDate != date {
			return false
		}
		// ISO dates compare lexically.
		if startDate != "" && j.ScheduledDate < startDate {
			return false
		}
		if endDate != "" && j.ScheduledDate > endDate {
			return false
		}
		return true
	})

	if raw := c.Query("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"message": "limit must be a non-negative integer"})
			return
		}
		if limit < len(list) {
			list = list[:limit]
		}
	}

	if list == nil {
		list = []jobs.Job{}
	}
	c.JSON(http.StatusOK, list)
}

// GetJob handles GET /api/v1/jobs/:job_id.
func (h *Handler) GetJob(c *gin.Context) {
	job, ok := h.store.Job(c.Param("job_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Job not found"})
		return
	}

	if c.GetString(ctxRole) == token.RoleCustomer && job.CustomerID != c.GetString(ctxCustomerID) {
		c.JSON(http.StatusForbidden, gin.H{"message": "Unauthorized to access this job"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// UpdateJob handles PUT /api/v1/jobs/:job_id. Fields are allow-listed
// per role, and a status change must pass the lifecycle table.
func (h *Handler) UpdateJob(c *gin.Context) {
	job, ok := h.store.Job(c.Param("job_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Job not found"})
		return
	}

	role := c.GetString(ctxRole)
	switch role {
	case token.RoleCustomer:
		if job.CustomerID != c.GetString(ctxCustomerID) {
			c.JSON(http.StatusForbidden, gin.H{"message": "Unauthorized to update this job"})
			return
		}
	case token.RoleTechnician:
		if job.TechnicianID != c.GetString(ctxTechnicianID) {
			c.JSON(http.StatusForbidden, gin.H{"message": "Unauthorized to update this job"})
			return
		}
	default:
		c.JSON(http.StatusForbidden, gin.H{"message": "Unauthorized to update this job"})
		return
	}

	var req struct {
		Status          jobs.Status `json:"status"`
		Notes           *string     `json:"notes"`
		ActualStartTime *time.Time  `json:"actual_start_time"`
		ActualEndTime   *time.Time  `json:"actual_end_time"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	// Customers may only touch notes.
	if role == token.RoleCustomer {
		req.Status = ""
		req.ActualStartTime = nil
		req.ActualEndTime = nil
	}

	// Any status in the payload is a transition request, including a
	// repeat of the current status: a second "start" against an already
	// in-progress job must fail, not silently succeed.
	if req.Status != "" {
		action, ok := actionFor(job.Status, req.Status)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"message": "Unsupported status change"})
			return
		}
		if _, err := jobs.Transition(job.Status, action, role); err != nil {
			status := http.StatusBadRequest
			if errors.Is(err, jobs.ErrForbidden) {
				status = http.StatusForbidden
			}
			c.JSON(status, gin.H{"message": err.Error()})
			return
		}
		job.Status = req.Status
	}

	if req.Notes != nil {
		job.Notes = *req.Notes
	}
	if req.ActualStartTime != nil {
		job.ActualStartTime = req.ActualStartTime
	}
	if req.ActualEndTime != nil {
		job.ActualEndTime = req.ActualEndTime
	}

	if !h.store.ReplaceJob(job) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Job not found"})
		return
	}

	h.logger.Info("Job updated",
		slog.String("job_id", job.ID),
		slog.String("status", string(job.Status)),
		slog.String("role", role),
	)
	c.JSON(http.StatusOK, job)
}

// actionFor maps a requested status edge onto a lifecycle action.
func actionFor(from, to jobs.Status) (jobs.Action, bool) {
	switch {
	case from == jobs.StatusAssigned && to == jobs.StatusInProgress:
		return jobs.ActionStart, true
	case from == jobs.StatusInProgress && to == jobs.StatusCompleted:
		return jobs.ActionComplete, true
	case from == jobs.StatusPending && to == jobs.StatusAssigned:
		return jobs.ActionAssign, true
	case to == jobs.StatusCancelled:
		return jobs.ActionCancel, true
	default:
		// Reuse the start/complete rules so the lifecycle table produces
		// the error message for illegal edges such as completed->in_progress.
		if to == jobs.StatusInProgress {
			return jobs.ActionStart, true
		}
		if to == jobs.StatusCompleted {
			return jobs.ActionComplete, true
		}
		return "", false
	}
}

// GetTechnician handles GET /api/v1/technicians/:technician_id.
func (h *Handler) GetTechnician(c *gin.Context) {
	tech, ok := h.store.Technician(c.Param("technician_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Technician not found"})
		return
	}
	c.JSON(http.StatusOK, tech)
}

// UpdateTechnicianLocation handles PUT /api/v1/technicians/location.
func (h *Handler) UpdateTechnicianLocation(c *gin.Context) {
	techID, ok := h.requireTechnician(c)
	if !ok {
		return
	}

	var req struct {
		Location struct {
			Lat float64 `json:"lat"`
			Lng float64 `json:"lng"`
		} `json:"location" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required field: location"})
		return
	}

	updated := h.store.UpdateTechnician(techID, func(t *jobs.Technician) {
		lat, lng := req.Location.Lat, req.Location.Lng
		t.Location = &jobs.Location{Lat: &lat, Lng: &lng}
	})
	if !updated {
		c.JSON(http.StatusNotFound, gin.H{"message": "Technician not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Location updated successfully"})
}

// UpdateTechnicianStatus handles PUT /api/v1/technicians/status.
func (h *Handler) UpdateTechnicianStatus(c *gin.Context) {
	techID, ok := h.requireTechnician(c)
	if !ok {
		return
	}

	var req struct {
		Status string `json:"status" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required field: status"})
		return
	}

	if !h.store.UpdateTechnician(techID, func(t *jobs.Technician) { t.Status = req.Status }) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Technician not found"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"message": "Status updated successfully"})
}

func (h *Handler) requireTechnician(c *gin.Context) (string, bool) {
	if c.GetString(ctxRole) != token.RoleTechnician {
		c.JSON(http.StatusForbidden, gin.H{"message": "Technician role required"})
		return "", false
	}
	techID := c.GetString(ctxTechnicianID)
	if techID == "" {
		c.JSON(http.StatusForbidden, gin.H{"message": "Technician role required"})
		return "", false
	}
	return techID, true
}

// GetCustomer handles GET /api/v1/customers/:customer_id.
func (h *Handler) GetCustomer(c *gin.Context) {
	customer, ok := h.store.Customer(c.Param("customer_id"))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Customer not found"})
		return
	}
	c.JSON(http.StatusOK, customer)
}

// GetCustomerProfile handles GET /api/v1/customers/profile.
func (h *Handler) GetCustomerProfile(c *gin.Context) {
	customer, ok := h.store.Customer(c.GetString(ctxCustomerID))
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"message": "Customer profile not found"})
		return
	}
	c.JSON(http.StatusOK, customer)
}

// UpdateCustomerProfile handles PUT /api/v1/customers/profile.
func (h *Handler) UpdateCustomerProfile(c *gin.Context) {
	customerID := c.GetString(ctxCustomerID)
	if c.GetString(ctxRole) != token.RoleCustomer || customerID == "" {
		c.JSON(http.StatusForbidden, gin.H{"message": "Customer role required"})
		return
	}

	var req jobs.Customer
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request body"})
		return
	}

	req.ID = customerID
	if !h.store.ReplaceCustomer(req) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Customer profile not found"})
		return
	}

	c.JSON(http.StatusOK, req)
}
