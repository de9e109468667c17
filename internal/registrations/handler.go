package registrations

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spiritrise/yogacamp/internal/models"
	"github.com/spiritrise/yogacamp/pkg/response"
)

// CheckRequest is the body for POST /api/check-registration.
type CheckRequest struct {
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Handler handles registration HTTP endpoints.
type Handler struct {
	svc    *Service
	policy Policy
	logger *zap.Logger
}

// NewHandler creates a registrations handler.
func NewHandler(svc *Service, policy Policy, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{svc: svc, policy: policy, logger: logger}
}

// Register handles POST /api/register. 201 for a new registration, 200 with
// already_registered for a known contact key.
func (h *Handler) Register(c *gin.Context) {
	var in models.Input
	if err := c.ShouldBindJSON(&in); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	h.RegisterInput(c, in)
}

// RegisterInput validates and records an already-decoded submission. Shared with the OTP flow.
func (h *Handler) RegisterInput(c *gin.Context, in models.Input) {
	reg, ferrs := Validate(in, h.policy)
	if len(ferrs) > 0 {
		response.Invalid(c, firstMessage(ferrs), ferrs)
		return
	}

	out, err := h.svc.Register(c.Request.Context(), reg)
	if err != nil {
		h.logger.Error("register failed", zap.Error(err), zap.String("contact", MaskContact(reg.ContactKey)))
		response.Internal(c, "Failed to register")
		return
	}
	c.JSON(statusFor(out), ResultFor(out))
}

// Check handles POST /api/check-registration. Read-only lookup by the deployment's contact field.
func (h *Handler) Check(c *gin.Context) {
	var req CheckRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	key := strings.TrimSpace(req.Phone)
	missing := "Phone number is required"
	if h.policy.ContactField == models.ContactEmail {
		key = strings.ToLower(strings.TrimSpace(req.Email))
		missing = "Email is required"
	}
	if key == "" {
		response.BadRequest(c, missing)
		return
	}

	reg, err := h.svc.Lookup(c.Request.Context(), key)
	if err != nil {
		h.logger.Error("check registration failed", zap.Error(err))
		response.Internal(c, "Database error")
		return
	}
	if reg == nil {
		c.JSON(http.StatusOK, gin.H{"registered": false})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"registered":    true,
		"name":          reg.Name,
		"registered_at": reg.CreatedAt.Format(time.RFC3339),
	})
}

// Stats handles GET /api/stats.
func (h *Handler) Stats(c *gin.Context) {
	n, err := h.svc.Count(c.Request.Context())
	if err != nil {
		h.logger.Error("count registrations failed", zap.Error(err))
		response.Internal(c, "Failed to load stats")
		return
	}
	response.OK(c, gin.H{"registrations": n})
}

// ResultFor builds the user-facing payload for a registration outcome.
func ResultFor(out Outcome) models.Result {
	if out.AlreadyRegistered {
		return models.Result{
			Success:           true,
			Message:           out.Registration.Name + " is already registered for yoga camp",
			AlreadyRegistered: true,
			Name:              out.Registration.Name,
		}
	}
	return models.Result{
		Success: true,
		Message: out.Registration.Name + " successfully registered for yoga camp!",
	}
}

func statusFor(out Outcome) int {
	if out.AlreadyRegistered {
		return http.StatusOK
	}
	return http.StatusCreated
}

// IsStorageError reports whether err came from the store.
func IsStorageError(err error) bool {
	var se *StorageError
	return errors.As(err, &se)
}

func firstMessage(fe FieldErrors) string {
	for _, field := range []string{"name", "email", "phone"} {
		if msg, ok := fe[field]; ok {
			return msg
		}
	}
	return "invalid registration"
}
