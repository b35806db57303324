package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/onefourfourk/community-api/internal/capacity"
	"github.com/onefourfourk/community-api/internal/events"
	"github.com/onefourfourk/community-api/internal/invitecode"
	"github.com/onefourfourk/community-api/internal/metrics"
	"github.com/onefourfourk/community-api/internal/models"
	"github.com/onefourfourk/community-api/internal/registration"
	"github.com/onefourfourk/community-api/internal/repository"
)

func newTestHandler(t *testing.T, maxMembers int) (*RegistrationHandler, *repository.MemoryInviteRepository, *metrics.Metrics) {
	t.Helper()

	members := repository.NewMemoryMemberRepository()
	invites := repository.NewMemoryInviteRepository()
	gate := capacity.NewMemoryGate(maxMembers, members)
	announcer := events.NewAnnouncer(zerolog.Nop())
	generator := invitecode.NewGenerator(invites)
	service := registration.NewService(members, invites, gate, generator, announcer, maxMembers, zerolog.Nop())

	m := metrics.NewWith(prometheus.NewRegistry())
	return NewRegistrationHandler(service, m, zerolog.Nop()), invites, m
}

func seedCode(t *testing.T, invites *repository.MemoryInviteRepository, code string) {
	t.Helper()
	_, err := invites.Mint(context.Background(), models.Invite{Code: code, GeneratedBy: "founder"})
	require.NoError(t, err)
}

func postJSON(handlerFunc http.HandlerFunc, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	handlerFunc(rec, req)
	return rec
}

func TestRegisterEndpointSuccess(t *testing.T) {
	handler, invites, m := newTestHandler(t, 100)
	seedCode(t, invites, "CODE-ALPHA-01")

	rec := postJSON(handler.Register, `{"name":"Ada","email":"ada@example.com","invite_code":"CODE-ALPHA-01"}`)

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var resp struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Member  struct {
			ID          string   `json:"id"`
			Name        string   `json:"name"`
			Email       string   `json:"email"`
			InviteCodes []string `json:"invite_codes"`
		} `json:"member"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Contains(t, resp.Message, "2 invite codes")
	assert.NotEmpty(t, resp.Member.ID)
	assert.Equal(t, "ada@example.com", resp.Member.Email)
	assert.Len(t, resp.Member.InviteCodes, 2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.MembersRegistered))
}

func TestRegisterEndpointFailureMapping(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		wantStatus int
		wantError  string
		wantReason string
	}{
		{
			name:       "malformed json",
			body:       `{"name":`,
			wantStatus: http.StatusBadRequest,
			wantError:  "invalid request payload",
		},
		{
			name:       "missing fields",
			body:       `{"name":"Ada"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  registration.ErrInvalidInput.Error(),
			wantReason: "invalid_input",
		},
		{
			name:       "unknown code",
			body:       `{"name":"Ada","email":"ada@example.com","invite_code":"CODE-NOPE-99"}`,
			wantStatus: http.StatusBadRequest,
			wantError:  registration.ErrInvalidInviteCode.Error(),
			wantReason: "invalid_code",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler, _, m := newTestHandler(t, 100)

			rec := postJSON(handler.Register, tt.body)
			require.Equal(t, tt.wantStatus, rec.Code)

			var resp map[string]string
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantError, resp["error"])

			if tt.wantReason != "" {
				count := testutil.ToFloat64(m.RegistrationFailures.WithLabelValues(tt.wantReason))
				assert.Equal(t, 1.0, count)
			}
		})
	}
}

func TestRegisterEndpointCommunityFull(t *testing.T) {
	handler, invites, m := newTestHandler(t, 1)
	seedCode(t, invites, "CODE-ALPHA-01")
	seedCode(t, invites, "CODE-ALPHA-02")

	rec := postJSON(handler.Register, `{"name":"A","email":"a@example.com","invite_code":"CODE-ALPHA-01"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = postJSON(handler.Register, `{"name":"B","email":"b@example.com","invite_code":"CODE-ALPHA-02"}`)
	require.Equal(t, http.StatusBadRequest, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, registration.ErrCommunityFull.Error(), resp["error"])
	assert.Equal(t, 1.0, testutil.ToFloat64(m.RegistrationFailures.WithLabelValues("community_full")))
}

func TestValidateInviteEndpoint(t *testing.T) {
	handler, invites, _ := newTestHandler(t, 100)
	seedCode(t, invites, "CODE-ALPHA-01")

	// Validity always travels in the payload with a 200 status.
	rec := postJSON(handler.ValidateInvite, `{"invite_code":"CODE-ALPHA-01"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var valid struct {
		Valid   bool   `json:"valid"`
		Message string `json:"message"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &valid))
	assert.True(t, valid.Valid)
	assert.Equal(t, "Invite code is valid", valid.Message)

	rec = postJSON(handler.ValidateInvite, `{"invite_code":"CODE-NOPE-99"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	var invalid struct {
		Valid bool   `json:"valid"`
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &invalid))
	assert.False(t, invalid.Valid)
	assert.Equal(t, registration.ErrInvalidInviteCode.Error(), invalid.Error)

	// A blank code is a malformed request, not an invalid invite.
	rec = postJSON(handler.ValidateInvite, `{"invite_code":"  "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestStatsEndpoint(t *testing.T) {
	handler, invites, _ := newTestHandler(t, 144000)
	seedCode(t, invites, "CODE-ALPHA-01")

	rec := postJSON(handler.Register, `{"name":"Ada","email":"ada@example.com","invite_code":"CODE-ALPHA-01"}`)
	require.Equal(t, http.StatusOK, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/stats", nil)
	statsRec := httptest.NewRecorder()
	handler.Stats(statsRec, req)
	require.Equal(t, http.StatusOK, statsRec.Code)

	var stats models.CommunityStats
	require.NoError(t, json.Unmarshal(statsRec.Body.Bytes(), &stats))
	assert.Equal(t, 1, stats.TotalMembers)
	assert.Equal(t, 2, stats.AvailableInvites)
	assert.Equal(t, 144000, stats.MaxMembers)
	assert.Equal(t, 143999, stats.RemainingSlots)
}

func TestHealthCheckEndpoint(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	rec := httptest.NewRecorder()
	HealthCheck(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, "ok", resp["status"])
}
