package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog"

	"github.com/onefourfourk/community-api/internal/metrics"
	"github.com/onefourfourk/community-api/internal/registration"
)

type RegistrationHandler struct {
	service *registration.Service
	metrics *metrics.Metrics
	logger  zerolog.Logger
}

func NewRegistrationHandler(service *registration.Service, m *metrics.Metrics, logger zerolog.Logger) *RegistrationHandler {
	return &RegistrationHandler{
		service: service,
		metrics: m,
		logger:  logger.With().Str("handler", "registration").Logger(),
	}
}

type registerResponse struct {
	Success bool           `json:"success"`
	Member  memberResponse `json:"member"`
	Message string         `json:"message"`
}

type memberResponse struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Email       string    `json:"email"`
	JoinedAt    time.Time `json:"joined_at"`
	InviteCodes []string  `json:"invite_codes"`
}

// Register handles POST /api/register.
func (h *RegistrationHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registration.Request
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	result, err := h.service.Register(r.Context(), req)
	if err != nil {
		h.failRegistration(w, err)
		return
	}

	h.metrics.MembersRegistered.Inc()

	writeJSON(w, http.StatusOK, registerResponse{
		Success: true,
		Member: memberResponse{
			ID:          result.Member.ID,
			Name:        result.Member.Name,
			Email:       result.Member.Email,
			JoinedAt:    result.Member.JoinedAt,
			InviteCodes: result.InviteCodes,
		},
		Message: "Welcome to the 144K community! You have been given 2 invite codes to share.",
	})
}

// failRegistration maps service errors to HTTP responses. Client errors
// travel verbatim; internal details (keyspace exhaustion, storage faults)
// are logged but never leaked.
func (h *RegistrationHandler) failRegistration(w http.ResponseWriter, err error) {
	h.metrics.RegistrationFailures.WithLabelValues(failureReason(err)).Inc()

	if registration.IsClientError(err) {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	h.logger.Error().Err(err).Msg("registration failed")
	writeError(w, http.StatusInternalServerError, "internal server error")
}

func failureReason(err error) string {
	switch {
	case errors.Is(err, registration.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, registration.ErrDuplicateMember):
		return "duplicate_member"
	case errors.Is(err, registration.ErrInvalidInviteCode):
		return "invalid_code"
	case errors.Is(err, registration.ErrInviteAlreadyUsed):
		return "code_used"
	case errors.Is(err, registration.ErrCommunityFull):
		return "community_full"
	default:
		return "internal"
	}
}

// ValidateInvite handles POST /api/validate-invite. The HTTP status is
// always 200 for well-formed requests; validity lives in the payload.
func (h *RegistrationHandler) ValidateInvite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		InviteCode string `json:"invite_code"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	validation, err := h.service.ValidateCode(r.Context(), req.InviteCode)
	if err != nil {
		if registration.IsClientError(err) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error().Err(err).Msg("invite validation failed")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	if !validation.Valid {
		writeJSON(w, http.StatusOK, map[string]interface{}{
			"valid": false,
			"error": validation.Message,
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"valid":   true,
		"message": validation.Message,
	})
}

// Stats handles GET /api/stats.
func (h *RegistrationHandler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.Stats(r.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("failed to compute stats")
		writeError(w, http.StatusInternalServerError, "internal server error")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}
