package routes

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/blob"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/dto"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/handlers"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/policy"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/realtime"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/store"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/workflow"
)

type server struct {
	app   *fiber.App
	auth  *services.AuthService
	store *store.MemoryStore
}

func newServer(t *testing.T) *server {
	t.Helper()
	cfg := &config.Config{
		JWTSecret:        "routes-secret",
		JWTAccessExpiry:  time.Minute,
		JWTRefreshExpiry: time.Hour,
		TrackRateLimit:   100,
		AppName:          "SafeVoice",
	}
	st := store.NewMemoryStore()
	blobs, err := blob.NewDiskStore(t.TempDir(), "", 1<<20)
	require.NoError(t, err)
	bus := realtime.NewLocalBus()
	t.Cleanup(func() { _ = bus.Close() })
	wf := workflow.New(workflow.Permissive)

	authService := services.NewAuthService(st, cfg)
	caseService := services.NewCaseService(st, st, blobs, bus, wf, services.NewExportService())

	app := fiber.New()
	Setup(app, cfg, st,
		handlers.NewAuthHandler(authService),
		handlers.NewHealthHandler(st, string(wf.Mode())),
		handlers.NewLegalHandler(cfg.AppName),
		handlers.NewComplaintHandler(services.NewComplaintService(st, blobs, bus)),
		handlers.NewTrackingHandler(services.NewTrackingService(st, bus)),
		handlers.NewStaffHandler(caseService),
	)
	return &server{app: app, auth: authService, store: st}
}

func (s *server) do(t *testing.T, req *http.Request) (*http.Response, []byte) {
	t.Helper()
	resp, err := s.app.Test(req, 5000)
	require.NoError(t, err)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, body
}

func (s *server) json(t *testing.T, method, path, token string, payload interface{}) (*http.Response, []byte) {
	t.Helper()
	var body io.Reader
	if payload != nil {
		raw, err := json.Marshal(payload)
		require.NoError(t, err)
		body = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, body)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(t, req)
}

func complaintForm(t *testing.T, fields map[string]string, file string) *http.Request {
	t.Helper()
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	for k, v := range fields {
		require.NoError(t, w.WriteField(k, v))
	}
	if file != "" {
		part, err := w.CreateFormFile("attachment", file)
		require.NoError(t, err)
		_, err = part.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0})
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())

	req := httptest.NewRequest("POST", "/api/complaints", &buf)
	req.Header.Set("Content-Type", w.FormDataContentType())
	return req
}

func validFields() map[string]string {
	return map[string]string{
		"category":      models.CategoryHarassment,
		"severity":      models.SeverityMedium,
		"incident_date": "2026-09-30T14:15",
		"location":      "Cafeteria",
		"perpetrator":   "A senior student",
		"witnesses":     "Two friends",
		"description":   "Repeated unwanted comments during lunch breaks.",
	}
}

func (s *server) submit(t *testing.T, passcode string) string {
	t.Helper()
	fields := validFields()
	if passcode != "" {
		fields["passcode"] = passcode
	}
	resp, body := s.do(t, complaintForm(t, fields, ""))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))
	var out dto.SubmitResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out.ComplaintID
}

func (s *server) login(t *testing.T, email string, role models.Role) (string, string) {
	t.Helper()
	u, err := s.auth.CreateStaff(context.Background(), email, strings.Split(email, "@")[0], "correct-horse", role, "")
	require.NoError(t, err)
	resp, body := s.json(t, "POST", "/api/auth/login", "", dto.LoginRequest{Email: email, Password: "correct-horse"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	var out dto.AuthResponse
	require.NoError(t, json.Unmarshal(body, &out))
	return out.AccessToken, u.UID
}

func TestSubmitAndTrack(t *testing.T) {
	s := newServer(t)

	resp, body := s.do(t, complaintForm(t, validFields(), "evidence.jpeg"))
	require.Equal(t, fiber.StatusCreated, resp.StatusCode, string(body))
	var submitted dto.SubmitResponse
	require.NoError(t, json.Unmarshal(body, &submitted))
	assert.False(t, submitted.PasscodeProtected)

	resp, body = s.json(t, "POST", "/api/track", "", dto.TrackRequest{ComplaintID: submitted.ComplaintID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	var view dto.TrackingView
	require.NoError(t, json.Unmarshal(body, &view))
	assert.Equal(t, submitted.ComplaintID, view.ComplaintID)
	assert.True(t, view.HasAttachment)
	assert.NotContains(t, string(body), "storage_path")
	assert.NotContains(t, string(body), "assigned_to")
}

func TestSubmitValidation(t *testing.T) {
	s := newServer(t)

	fields := validFields()
	fields["description"] = "short"
	resp, body := s.do(t, complaintForm(t, fields, ""))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "at least 20 characters")

	resp, body = s.do(t, complaintForm(t, validFields(), "evidence.gif"))
	assert.Equal(t, fiber.StatusBadRequest, resp.StatusCode)
	assert.Contains(t, string(body), "Only .jpg images")

	_, total, err := s.store.ListComplaints(context.Background(), allVisible(), store.ListQuery{})
	require.NoError(t, err)
	assert.Zero(t, total)
}

func TestTrackingDenialIsUniform(t *testing.T) {
	s := newServer(t)
	id := s.submit(t, "open-sesame")

	wrong, wrongBody := s.json(t, "POST", "/api/track", "", dto.TrackRequest{ComplaintID: id, Passcode: "nope"})
	missing, missingBody := s.json(t, "POST", "/api/track", "", dto.TrackRequest{ComplaintID: "CMP-ZZZZZZZZ"})
	assert.Equal(t, fiber.StatusNotFound, wrong.StatusCode)
	assert.Equal(t, fiber.StatusNotFound, missing.StatusCode)
	assert.Equal(t, wrongBody, missingBody)
	assert.Contains(t, string(wrongBody), handlers.AccessDeniedMessage)

	req := httptest.NewRequest("GET", "/api/track/"+id, nil)
	req.Header.Set("X-Complaint-Passcode", "open-sesame")
	resp, _ := s.do(t, req)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)

	resp, body := s.json(t, "POST", "/api/track/receipt", "", dto.TrackRequest{ComplaintID: id, Passcode: "open-sesame"})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/pdf", resp.Header.Get("Content-Type"))
	assert.True(t, bytes.HasPrefix(body, []byte("%PDF")))
}

func TestStaffWorkflow(t *testing.T) {
	s := newServer(t)
	id := s.submit(t, "")
	hidden := s.submit(t, "")
	adminToken, _ := s.login(t, "admin@school.test", models.RoleAdmin)
	takerToken, takerUID := s.login(t, "taker@school.test", models.RoleActionTaker)

	resp, _ := s.json(t, "GET", "/api/staff/complaints", "", nil)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)

	resp, body := s.json(t, "PUT", "/api/staff/complaints/"+id+"/assignment", adminToken, dto.AssignRequest{AssignedTo: takerUID})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))

	resp, body = s.json(t, "GET", "/api/staff/complaints", takerToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var list struct {
		Complaints []models.Complaint `json:"complaints"`
		Total      int64              `json:"total"`
	}
	require.NoError(t, json.Unmarshal(body, &list))
	assert.EqualValues(t, 1, list.Total)
	assert.NotContains(t, string(body), "passcode")

	resp, _ = s.json(t, "GET", "/api/staff/complaints/"+hidden, takerToken, nil)
	assert.Equal(t, fiber.StatusNotFound, resp.StatusCode)

	v := 2
	resp, body = s.json(t, "PUT", "/api/staff/complaints/"+id+"/status", takerToken, dto.StatusRequest{Status: "Working", ExpectedVersion: &v})
	require.Equal(t, fiber.StatusOK, resp.StatusCode, string(body))
	resp, _ = s.json(t, "PUT", "/api/staff/complaints/"+id+"/status", adminToken, dto.StatusRequest{Status: "Resolved", ExpectedVersion: &v})
	assert.Equal(t, fiber.StatusConflict, resp.StatusCode)

	resp, _ = s.json(t, "POST", "/api/staff/complaints/"+id+"/updates", takerToken, dto.PublicUpdateRequest{Message: "We are looking into it."})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)
	resp, _ = s.json(t, "POST", "/api/staff/complaints/"+id+"/notes", takerToken, dto.NoteRequest{Note: "internal only"})
	assert.Equal(t, fiber.StatusCreated, resp.StatusCode)

	resp, body = s.json(t, "POST", "/api/track", "", dto.TrackRequest{ComplaintID: id})
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "We are looking into it.")
	assert.NotContains(t, string(body), "internal only")

	resp, _ = s.json(t, "GET", "/api/staff/export?format=csv", takerToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
	resp, _ = s.json(t, "GET", "/api/staff/complaints/"+id+"/audit", takerToken, nil)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)

	resp, body = s.json(t, "GET", "/api/staff/export?format=csv", adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Disposition"), ".csv")
	assert.Contains(t, string(body), id)

	resp, body = s.json(t, "GET", "/api/staff/users", adminToken, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "taker@school.test")
	assert.NotContains(t, string(body), "password")
}

func TestAuthMe(t *testing.T) {
	s := newServer(t)
	token, uid := s.login(t, "committee@school.test", models.RoleCommittee)

	resp, body := s.json(t, "GET", "/api/auth/me", token, nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var me dto.StaffResponse
	require.NoError(t, json.Unmarshal(body, &me))
	assert.Equal(t, uid, me.UID)

	resp, _ = s.json(t, "POST", "/api/auth/login", "", dto.LoginRequest{Email: "committee@school.test", Password: "bad"})
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestPublicPages(t *testing.T) {
	s := newServer(t)

	resp, body := s.json(t, "GET", "/api/health", "", nil)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var health dto.HealthResponse
	require.NoError(t, json.Unmarshal(body, &health))
	assert.Equal(t, "ok", health.Status)
	assert.Equal(t, "permissive", health.WorkflowMode)

	resp, body = s.do(t, httptest.NewRequest("GET", "/api/legal/privacy", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "SafeVoice")
}

func allVisible() policy.Visibility {
	return policy.Visibility{All: true}
}
