// Package otp serves a simulated one-time-passcode flow in front of registration.
// No code is ever sent and any well-formed code is accepted, so it provides no
// proof that the caller owns the phone number. It is off unless ENABLE_OTP_STUB is set.
package otp

import (
	"net/http"
	"regexp"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/spiritrise/yogacamp/internal/models"
	"github.com/spiritrise/yogacamp/internal/registrations"
	"github.com/spiritrise/yogacamp/pkg/response"
)

var codePattern = regexp.MustCompile(`^\d{6}$`)

// SendRequest is the body for POST /api/send-otp.
type SendRequest struct {
	Phone string `json:"phone"`
}

// VerifyRequest is the body for POST /api/verify-and-register.
type VerifyRequest struct {
	Phone string `json:"phone"`
	OTP   string `json:"otp"`
	Name  string `json:"name"`
	Email string `json:"email"`
}

// Handler wraps the registration handler with the simulated OTP steps.
type Handler struct {
	reg    *registrations.Handler
	logger *zap.Logger
}

func NewHandler(reg *registrations.Handler, logger *zap.Logger) *Handler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Handler{reg: reg, logger: logger}
}

// Register mounts the OTP routes on r.
func (h *Handler) Register(r gin.IRoutes) {
	r.POST("/api/send-otp", h.Send)
	r.POST("/api/verify-and-register", h.VerifyAndRegister)
}

// Send handles POST /api/send-otp. Nothing is delivered.
func (h *Handler) Send(c *gin.Context) {
	var req SendRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	phone := strings.TrimSpace(req.Phone)
	if phone == "" {
		response.BadRequest(c, "Phone number is required")
		return
	}
	h.logger.Info("simulated otp send, no message delivered",
		zap.String("phone", registrations.MaskContact(phone)))
	c.JSON(http.StatusOK, gin.H{"success": true, "message": "OTP sent successfully"})
}

// VerifyAndRegister handles POST /api/verify-and-register. Any six-digit code passes,
// then the submission goes through the normal registration path.
func (h *Handler) VerifyAndRegister(c *gin.Context) {
	var req VerifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, "invalid request body")
		return
	}
	phone, code, name := strings.TrimSpace(req.Phone), strings.TrimSpace(req.OTP), strings.TrimSpace(req.Name)
	if phone == "" || code == "" || name == "" {
		response.BadRequest(c, "Phone, OTP, and name are required")
		return
	}
	if !codePattern.MatchString(code) {
		response.BadRequest(c, "Invalid OTP format")
		return
	}
	h.logger.Warn("simulated otp accepted without verification",
		zap.String("phone", registrations.MaskContact(phone)))

	h.reg.RegisterInput(c, models.Input{Name: name, Email: req.Email, Phone: phone})
}
