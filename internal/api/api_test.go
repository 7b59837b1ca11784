package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reserba/internal/config"
	"reserba/internal/database"
	"reserba/internal/events"
	"reserba/internal/models"
	"reserba/internal/repository"
	"reserba/internal/service"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEnv struct {
	server   *Server
	db       *database.DB
	users    *service.UserService
	sessions *repository.MemorySessionStore
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger := zerolog.Nop()

	db, err := database.NewDB(":memory:", &logger)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })

	facility := &models.Facility{
		Name:            "Covered Court",
		HourlyRate:      300,
		DownpaymentRate: 0.5,
		Capacity:        200,
		IsActive:        true,
	}
	slots := []models.TimeSlot{
		{StartTime: "6:00 AM", EndTime: "8:00 AM", DurationMinutes: 120},
		{StartTime: "8:00 AM", EndTime: "12:00 PM", DurationMinutes: 240},
	}
	require.NoError(t, db.SeedFacility(context.Background(), facility, slots))

	sessions := repository.NewMemorySessionStore()
	bus := events.NewEventBus()

	users := service.NewUserService(db, sessions, &logger)
	violations := service.NewViolationService(db, sessions, bus, &logger)
	bookings := service.NewBookingService(db, bus, violations, 90, time.UTC, &logger)
	verifications := service.NewVerificationService(db, bus, &logger)

	cfg := &config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.TokenTTLHours = 1
	cfg.Booking.RateLimitRPS = 10000
	cfg.Booking.RateLimitBurst = 10000
	cfg.Server.Port = 0

	server := New(cfg, users, bookings, verifications, db, nil, &logger)
	return &testEnv{server: server, db: db, users: users, sessions: sessions}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	recorder := httptest.NewRecorder()
	e.server.Router().ServeHTTP(recorder, req)
	return recorder
}

func (e *testEnv) registerResident(t *testing.T, email string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":     email,
		"password":  "secret-password",
		"full_name": "Juan Dela Cruz",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var payload struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	require.NotEmpty(t, payload.Token)
	return payload.Token
}

func (e *testEnv) registerOfficial(t *testing.T, email string) string {
	t.Helper()
	// Officials are provisioned out of band, not via the public register route.
	_, err := e.users.Register(context.Background(), email, "secret-password", "Barangay Captain", models.RoleOfficial)
	require.NoError(t, err)
	return e.login(t, email)
}

func (e *testEnv) login(t *testing.T, email string) string {
	t.Helper()
	resp := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    email,
		"password": "secret-password",
	})
	require.Equal(t, http.StatusOK, resp.Code, resp.Body.String())

	var payload struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	return payload.Token
}

func futureDate(days int) string {
	return time.Now().AddDate(0, 0, days).Format("2006-01-02")
}

func TestHealthz(t *testing.T) {
	env := setupTestEnv(t)
	resp := env.do(t, http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, resp.Code)
}

func TestRegisterAndMe(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerResident(t, "juan@example.com")

	resp := env.do(t, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &user))
	assert.Equal(t, "juan@example.com", user.Email)
	assert.Equal(t, models.RoleResident, user.Role)
}

func TestRegister_DuplicateEmail(t *testing.T) {
	env := setupTestEnv(t)
	env.registerResident(t, "juan@example.com")

	resp := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":     "juan@example.com",
		"password":  "another-password",
		"full_name": "Impostor",
	})
	assert.Equal(t, http.StatusConflict, resp.Code)
}

func TestMe_RequiresToken(t *testing.T) {
	env := setupTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, resp.Code)
}

func TestListFacilitiesPublic(t *testing.T) {
	env := setupTestEnv(t)
	resp := env.do(t, http.MethodGet, "/api/facilities", "", nil)
	require.Equal(t, http.StatusOK, resp.Code)

	var facilities []models.Facility
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &facilities))
	require.Len(t, facilities, 1)

	slotsResp := env.do(t, http.MethodGet, fmt.Sprintf("/api/facilities/%d/time-slots", facilities[0].ID), "", nil)
	require.Equal(t, http.StatusOK, slotsResp.Code)

	var slots []models.TimeSlot
	require.NoError(t, json.Unmarshal(slotsResp.Body.Bytes(), &slots))
	assert.Len(t, slots, 2)
}

func TestCreateBooking_Resident(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerResident(t, "juan@example.com")

	resp := env.do(t, http.MethodPost, "/api/bookings", token, map[string]any{
		"facility_id": 1,
		"date":        futureDate(7),
		"timeslot":    "6:00 AM - 8:00 AM",
		"purpose":     "birthday party",
	})
	require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

	var payload struct {
		Booking models.Booking `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &payload))
	assert.Equal(t, models.StatusPending, payload.Booking.Status)
	assert.InDelta(t, 600.0, payload.Booking.TotalAmount, 0.001)
	assert.InDelta(t, 300.0, payload.Booking.DownpaymentAmount, 0.001)
}

func TestCreateBooking_PastDate(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerResident(t, "juan@example.com")

	resp := env.do(t, http.MethodPost, "/api/bookings", token, map[string]any{
		"facility_id": 1,
		"date":        futureDate(-1),
		"timeslot":    "6:00 AM - 8:00 AM",
	})
	assert.Equal(t, http.StatusBadRequest, resp.Code)
}

func TestOfficialBookingDisplacesResident(t *testing.T) {
	env := setupTestEnv(t)
	residentToken := env.registerResident(t, "juan@example.com")
	officialToken := env.registerOfficial(t, "captain@barangay.gov.ph")
	date := futureDate(7)

	resp := env.do(t, http.MethodPost, "/api/bookings", residentToken, map[string]any{
		"facility_id": 1,
		"date":        date,
		"timeslot":    "6:00 AM - 8:00 AM",
	})
	require.Equal(t, http.StatusCreated, resp.Code)

	var created struct {
		Booking models.Booking `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

	// Approve the resident booking first; approved bookings are displaced too.
	approveResp := env.do(t, http.MethodPut, fmt.Sprintf("/api/bookings/%d/status", created.Booking.ID),
		officialToken, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, approveResp.Code, approveResp.Body.String())

	officialResp := env.do(t, http.MethodPost, "/api/bookings", officialToken, map[string]any{
		"facility_id": 1,
		"date":        date,
		"timeslot":    models.AllDaySlot,
		"purpose":     "barangay fiesta",
	})
	require.Equal(t, http.StatusCreated, officialResp.Code, officialResp.Body.String())

	var official struct {
		Booking  models.Booking                  `json:"booking"`
		Rejected []models.RejectedBookingSummary `json:"rejected_resident_bookings"`
	}
	require.NoError(t, json.Unmarshal(officialResp.Body.Bytes(), &official))
	assert.Equal(t, models.StatusApproved, official.Booking.Status)
	require.Len(t, official.Rejected, 1)
	assert.Equal(t, created.Booking.ID, official.Rejected[0].BookingID)
	assert.Equal(t, "6:00 AM - 8:00 AM", official.Rejected[0].Timeslot)

	stored := env.do(t, http.MethodGet, fmt.Sprintf("/api/bookings/%d", created.Booking.ID), residentToken, nil)
	require.Equal(t, http.StatusOK, stored.Code)
	var rejected models.Booking
	require.NoError(t, json.Unmarshal(stored.Body.Bytes(), &rejected))
	assert.Equal(t, models.StatusRejected, rejected.Status)
	assert.Contains(t, rejected.RejectionReason, "apologize")
}

func TestResidentCannotUpdateStatus(t *testing.T) {
	env := setupTestEnv(t)
	token := env.registerResident(t, "juan@example.com")

	resp := env.do(t, http.MethodPut, "/api/bookings/1/status", token, map[string]string{"status": "approved"})
	assert.Equal(t, http.StatusForbidden, resp.Code)
}

func TestThreeFakeReceiptsBanAndRevoke(t *testing.T) {
	env := setupTestEnv(t)
	residentToken := env.registerResident(t, "juan@example.com")
	officialToken := env.registerOfficial(t, "captain@barangay.gov.ph")

	for i := 0; i < 3; i++ {
		resp := env.do(t, http.MethodPost, "/api/bookings", residentToken, map[string]any{
			"facility_id": 1,
			"date":        futureDate(7 + i),
			"timeslot":    "6:00 AM - 8:00 AM",
		})
		require.Equal(t, http.StatusCreated, resp.Code, resp.Body.String())

		var created struct {
			Booking models.Booking `json:"booking"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

		reject := env.do(t, http.MethodPut, fmt.Sprintf("/api/bookings/%d/status", created.Booking.ID),
			officialToken, map[string]string{
				"status":           "rejected",
				"rejection_reason": "receipt does not match any payment",
				"rejection_type":   models.RejectionFakeReceipt,
			})
		require.Equal(t, http.StatusOK, reject.Code, reject.Body.String())
	}

	// The third strike bans and revokes the live session.
	meResp := env.do(t, http.MethodGet, "/api/users/me", residentToken, nil)
	assert.Equal(t, http.StatusUnauthorized, meResp.Code)

	loginResp := env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email":    "juan@example.com",
		"password": "secret-password",
	})
	require.Equal(t, http.StatusForbidden, loginResp.Code)
	assert.Contains(t, loginResp.Body.String(), "banned permanently")

	registerResp := env.do(t, http.MethodPost, "/api/auth/register", "", map[string]string{
		"email":     "juan@example.com",
		"password":  "new-password",
		"full_name": "Juan Again",
	})
	assert.Equal(t, http.StatusForbidden, registerResp.Code)
}

func TestOtherRejectionTypesDoNotBan(t *testing.T) {
	env := setupTestEnv(t)
	residentToken := env.registerResident(t, "juan@example.com")
	officialToken := env.registerOfficial(t, "captain@barangay.gov.ph")

	for i := 0; i < 3; i++ {
		resp := env.do(t, http.MethodPost, "/api/bookings", residentToken, map[string]any{
			"facility_id": 1,
			"date":        futureDate(7 + i),
			"timeslot":    "6:00 AM - 8:00 AM",
		})
		require.Equal(t, http.StatusCreated, resp.Code)

		var created struct {
			Booking models.Booking `json:"booking"`
		}
		require.NoError(t, json.Unmarshal(resp.Body.Bytes(), &created))

		reject := env.do(t, http.MethodPut, fmt.Sprintf("/api/bookings/%d/status", created.Booking.ID),
			officialToken, map[string]string{
				"status":           "rejected",
				"rejection_reason": "downpayment short by 100 pesos",
				"rejection_type":   models.RejectionIncorrectDownpayment,
			})
		require.Equal(t, http.StatusOK, reject.Code)
	}

	meResp := env.do(t, http.MethodGet, "/api/users/me", residentToken, nil)
	require.Equal(t, http.StatusOK, meResp.Code)

	var user models.User
	require.NoError(t, json.Unmarshal(meResp.Body.Bytes(), &user))
	assert.Zero(t, user.FakeBookingViolations)
	assert.False(t, user.IsBanned)
}

func TestVerificationFlow(t *testing.T) {
	env := setupTestEnv(t)
	residentToken := env.registerResident(t, "juan@example.com")
	officialToken := env.registerOfficial(t, "captain@barangay.gov.ph")

	meResp := env.do(t, http.MethodGet, "/api/users/me", residentToken, nil)
	var user models.User
	require.NoError(t, json.Unmarshal(meResp.Body.Bytes(), &user))

	statusPath := fmt.Sprintf("/api/verification-requests/status/%d", user.ID)
	statusResp := env.do(t, http.MethodGet, statusPath, residentToken, nil)
	require.Equal(t, http.StatusOK, statusResp.Code)
	var status models.VerificationStatus
	require.NoError(t, json.Unmarshal(statusResp.Body.Bytes(), &status))
	assert.True(t, status.CanSubmit)
	assert.Equal(t, models.LockStatusUnverified, status.CurrentStatus)

	submitResp := env.do(t, http.MethodPost, "/api/verification-requests", residentToken, map[string]string{
		"requested_type": "resident",
		"notes":          "barangay ID attached",
	})
	require.Equal(t, http.StatusCreated, submitResp.Code, submitResp.Body.String())
	var request models.VerificationRequest
	require.NoError(t, json.Unmarshal(submitResp.Body.Bytes(), &request))

	// A second submission while the first is pending gets the typed 409.
	dupResp := env.do(t, http.MethodPost, "/api/verification-requests", residentToken, map[string]string{
		"requested_type": "resident",
	})
	require.Equal(t, http.StatusConflict, dupResp.Code)
	var dup ErrorResponse
	require.NoError(t, json.Unmarshal(dupResp.Body.Bytes(), &dup))
	assert.Equal(t, "duplicate_request", dup.ErrorType)

	approveResp := env.do(t, http.MethodPut, fmt.Sprintf("/api/verification-requests/%d/status", request.ID),
		officialToken, map[string]string{"status": "approved"})
	require.Equal(t, http.StatusOK, approveResp.Code, approveResp.Body.String())

	lockedResp := env.do(t, http.MethodGet, statusPath, residentToken, nil)
	require.Equal(t, http.StatusOK, lockedResp.Code)
	require.NoError(t, json.Unmarshal(lockedResp.Body.Bytes(), &status))
	assert.False(t, status.CanSubmit)
	assert.Equal(t, models.LockStatusVerifiedResident, status.CurrentStatus)

	// Bookings now carry the resident discount.
	bookResp := env.do(t, http.MethodPost, "/api/bookings", residentToken, map[string]any{
		"facility_id": 1,
		"date":        futureDate(7),
		"timeslot":    "6:00 AM - 8:00 AM",
	})
	require.Equal(t, http.StatusCreated, bookResp.Code)
	var created struct {
		Booking models.Booking `json:"booking"`
	}
	require.NoError(t, json.Unmarshal(bookResp.Body.Bytes(), &created))
	assert.InDelta(t, 540.0, created.Booking.TotalAmount, 0.001)
}

func TestVerificationStatus_OtherUserForbidden(t *testing.T) {
	env := setupTestEnv(t)
	env.registerResident(t, "juan@example.com")
	otherToken := env.registerResident(t, "maria@example.com")

	resp := env.do(t, http.MethodGet, "/api/verification-requests/status/1", otherToken, nil)
	assert.Equal(t, http.StatusForbidden, resp.Code)
}
