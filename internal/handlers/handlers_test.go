package handlers

import (
	"audit-service/internal/models"
	"audit-service/internal/repository"
	"audit-service/internal/services"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testEnv struct {
	router *gin.Engine
	jwt    *services.JWTService
}

var testStaff = []models.RegisterRequest{
	{Username: "pere", Password: "dir99", Role: models.RoleAdmin, State: models.RegionHQ},
	{Username: "Dike", Password: "imo2026", Role: models.RoleOfficer, State: "IMO STATE"},
	{Username: "Favour", Password: "abia2026", Role: models.RoleOfficer, State: "ABIA"},
}

func newTestEnv(t *testing.T, limiter *RateLimiter) *testEnv {
	t.Helper()
	return newTestEnvBehind(t, limiter, nil)
}

// newTestEnvBehind builds the router trusting the given reverse proxies.
func newTestEnvBehind(t *testing.T, limiter *RateLimiter, proxies []string) *testEnv {
	t.Helper()
	validator := services.NewValidator()
	jwtSvc := services.NewJWTService("handler-test-secret", 24*time.Hour)
	accountSvc := services.NewAccountService(repository.NewMemoryAccountRepository(), nil, jwtSvc, validator, nil)
	auditSvc := services.NewAuditService(repository.NewMemoryAuditRecordRepository(), nil, validator, nil)

	_, err := services.SeedAccounts(context.Background(), accountSvc, testStaff, nil)
	require.NoError(t, err)

	router := NewRouter(RouterDeps{
		AccountService: accountSvc,
		AuditService:   auditSvc,
		JWTService:     jwtSvc,
		Validator:      validator,
		LoginLimiter:   limiter,
		AllowedOrigins: []string{"*"},
		TrustedProxies: proxies,
		ExposeDetails:  true,
	})
	return &testEnv{router: router, jwt: jwtSvc}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()
	return e.doWithHeaders(t, method, path, token, body, nil)
}

func (e *testEnv) doWithHeaders(t *testing.T, method, path, token string, body any, headers map[string]string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) login(t *testing.T, username, password string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/login", "", models.LoginRequest{Username: username, Password: password})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.Token
}

func submission(state string, level int) models.SubmitRecordRequest {
	return models.SubmitRecordRequest{
		State:           state,
		BuildingZone:    "Block A",
		ReportDate:      "2026-03-14",
		ReportTime:      "10:30",
		InspectorName:   "Dike",
		UtilityName:     "Generator 1",
		ConditionKey:    level,
		ActionRequired:  "Service the alternator",
		FaultDetails:    "Voltage drops under load",
		UtilityCategory: "Electrical",
	}
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestLogin_Outcomes(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodPost, "/api/auth/login", "", models.LoginRequest{Username: "Favour", Password: "abia2026"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp models.LoginResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.True(t, resp.Success)
	assert.Equal(t, models.SessionUser{Username: "Favour", Role: models.RoleOfficer, State: "ABIA"}, resp.User)
	claims, err := env.jwt.VerifyToken(resp.Token)
	require.NoError(t, err)
	assert.Equal(t, "ABIA", claims.State)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", models.LoginRequest{Username: "Favour", Password: "nope"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "Invalid credentials", decodeError(t, rec)["message"])

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", models.LoginRequest{Username: "Nobody", Password: "x"})
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "User not found", decodeError(t, rec)["message"])

	rec = env.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{"username": "Favour"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_RateLimited(t *testing.T) {
	env := newTestEnv(t, NewRateLimiter(0.001, 2))
	body := models.LoginRequest{Username: "Nobody", Password: "x"}

	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/auth/login", "", body).Code)
	assert.Equal(t, http.StatusNotFound, env.do(t, http.MethodPost, "/api/auth/login", "", body).Code)
	assert.Equal(t, http.StatusTooManyRequests, env.do(t, http.MethodPost, "/api/auth/login", "", body).Code)
}

func TestLogin_RateLimitIgnoresSpoofedForwardedFor(t *testing.T) {
	env := newTestEnv(t, NewRateLimiter(0.001, 2))
	body := models.LoginRequest{Username: "Favour", Password: "wrong"}

	codes := make([]int, 0, 6)
	for i := 1; i <= 6; i++ {
		rec := env.doWithHeaders(t, http.MethodPost, "/api/auth/login", "", body,
			map[string]string{"X-Forwarded-For": fmt.Sprintf("10.0.0.%d", i)})
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{
		http.StatusUnauthorized, http.StatusUnauthorized,
		http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusTooManyRequests, http.StatusTooManyRequests,
	}, codes)
}

func TestLogin_RateLimitHonoursTrustedProxy(t *testing.T) {
	// httptest requests arrive from 192.0.2.1.
	env := newTestEnvBehind(t, NewRateLimiter(0.001, 1), []string{"192.0.2.1"})
	body := models.LoginRequest{Username: "Favour", Password: "wrong"}
	from := func(ip string) int {
		return env.doWithHeaders(t, http.MethodPost, "/api/auth/login", "", body,
			map[string]string{"X-Forwarded-For": ip}).Code
	}

	assert.Equal(t, http.StatusUnauthorized, from("203.0.113.7"))
	assert.Equal(t, http.StatusUnauthorized, from("203.0.113.8"))
	assert.Equal(t, http.StatusTooManyRequests, from("203.0.113.7"))
}

func TestRegister_RequiresAdmin(t *testing.T) {
	env := newTestEnv(t, nil)
	newAccount := models.RegisterRequest{Username: "Tender", Password: "cross2026", State: "CROSS RIVERS"}

	assert.Equal(t, http.StatusUnauthorized, env.do(t, http.MethodPost, "/api/auth/register", "", newAccount).Code)

	officer := env.login(t, "Dike", "imo2026")
	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodPost, "/api/auth/register", officer, newAccount).Code)

	admin := env.login(t, "pere", "dir99")
	rec := env.do(t, http.MethodPost, "/api/auth/register", admin, newAccount)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "User created successfully", decodeError(t, rec)["message"])

	rec = env.do(t, http.MethodPost, "/api/auth/register", admin, newAccount)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "Username already taken", decodeError(t, rec)["message"])

	env.login(t, "Tender", "cross2026")
}

func TestAccessGate_UniformRejection(t *testing.T) {
	env := newTestEnv(t, nil)
	expired := services.NewJWTService("handler-test-secret", time.Nanosecond)
	stale, _, err := expired.GenerateNewToken(&models.Account{ID: "x", Role: models.RoleAdmin, State: models.RegionHQ})
	require.NoError(t, err)
	time.Sleep(2 * time.Millisecond)

	headers := map[string]string{
		"missing":      "",
		"wrong scheme": "Basic abc",
		"garbage":      "Bearer not-a-token",
		"expired":      "Bearer " + stale,
	}
	for name, header := range headers {
		t.Run(name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/utilities/all", nil)
			if header != "" {
				req.Header.Set("Authorization", header)
			}
			rec := httptest.NewRecorder()
			env.router.ServeHTTP(rec, req)

			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.Equal(t, msgUnauthorized, decodeError(t, rec)["message"])
		})
	}
}

func TestSupervisorScenario(t *testing.T) {
	env := newTestEnv(t, nil)
	officer := env.login(t, "Dike", "imo2026")
	admin := env.login(t, "pere", "dir99")

	rec := env.do(t, http.MethodPost, "/api/utilities/submit", officer, submission("IMO STATE", 1))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var created struct {
		Success bool               `json:"success"`
		Message string             `json:"message"`
		Data    models.AuditRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &created))
	assert.Equal(t, "Infrastructure audit logged successfully", created.Message)
	id := created.Data.ID.Hex()

	var list []models.AuditRecord
	rec = env.do(t, http.MethodGet, "/api/utilities/all", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, 1, list[0].ConditionKey)

	rec = env.do(t, http.MethodGet, "/api/utilities/filter?state=IMO%20STATE", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = env.do(t, http.MethodGet, "/api/utilities/critical", admin, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Len(t, list, 1)

	rec = env.do(t, http.MethodPatch, "/api/utilities/"+id, officer, map[string]any{"conditionKey": 3})
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/utilities/"+id+"/resolve", admin, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var resolved struct {
		Data models.AuditRecord `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resolved))
	assert.Equal(t, 3, resolved.Data.ConditionKey)
	assert.Equal(t, models.ResolvedActionText, resolved.Data.ActionRequired)
	assert.Equal(t, "IMO STATE", resolved.Data.State)

	rec = env.do(t, http.MethodGet, "/api/utilities/critical", admin, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	assert.Empty(t, list)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodDelete, "/api/utilities/"+id, admin, nil).Code)
	rec = env.do(t, http.MethodDelete, "/api/utilities/"+id, admin, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, msgReportNotFound, decodeError(t, rec)["message"])
}

func TestSubmit_ValidationFailure(t *testing.T) {
	env := newTestEnv(t, nil)
	officer := env.login(t, "Dike", "imo2026")

	req := submission("IMO STATE", 2)
	req.UtilityName = ""
	rec := env.do(t, http.MethodPost, "/api/utilities/submit", officer, req)
	require.Equal(t, http.StatusBadRequest, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, false, body["success"])
	assert.Equal(t, "Failed to log audit report", body["message"])
	assert.Contains(t, body["error"], "utilityName")

	rec = env.do(t, http.MethodPost, "/api/utilities/submit", officer, submission("ABIA", 2))
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestOfficerReadsAreScoped(t *testing.T) {
	env := newTestEnv(t, nil)
	dike := env.login(t, "Dike", "imo2026")
	favour := env.login(t, "Favour", "abia2026")

	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/utilities/submit", dike, submission("IMO STATE", 2)).Code)
	require.Equal(t, http.StatusCreated, env.do(t, http.MethodPost, "/api/utilities/submit", favour, submission("ABIA", 4)).Code)

	var list []models.AuditRecord
	rec := env.do(t, http.MethodGet, "/api/utilities/all", favour, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "ABIA", list[0].State)

	rec = env.do(t, http.MethodGet, "/api/utilities/mine", dike, nil)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &list))
	require.Len(t, list, 1)
	assert.Equal(t, "IMO STATE", list[0].State)

	assert.Equal(t, http.StatusForbidden, env.do(t, http.MethodGet, "/api/utilities/filter?state=IMO%20STATE", favour, nil).Code)
}

func TestHealthEndpoints(t *testing.T) {
	env := newTestEnv(t, nil)

	rec := env.do(t, http.MethodGet, "/ping", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "pong", rec.Body.String())

	rec = env.do(t, http.MethodGet, "/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Online", body["status"])
	assert.Len(t, body["monitored_states"], 4)

	rec = env.do(t, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "audit_http_requests_total")
}

func TestRecovery_HidesDetailsInProduction(t *testing.T) {
	router := gin.New()
	router.Use(RecoveryHandler(nil, false))
	router.GET("/boom", func(c *gin.Context) { panic("secret detail") })

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/boom", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeError(t, rec)
	assert.Equal(t, "Internal Server Error", body["message"])
	assert.Equal(t, "Contact Admin", body["error"])
}

func TestExtractBearerToken(t *testing.T) {
	token, ok := extractBearerToken("Bearer abc.def")
	assert.True(t, ok)
	assert.Equal(t, "abc.def", token)

	_, ok = extractBearerToken("abc.def")
	assert.False(t, ok)
	_, ok = extractBearerToken("Bearer ")
	assert.False(t, ok)
}

func TestRateLimiter_EvictsIdleBuckets(t *testing.T) {
	rl := NewRateLimiter(1, 1)
	now := time.Now()
	rl.now = func() time.Time { return now }

	assert.True(t, rl.Allow("1.1.1.1"))
	assert.False(t, rl.Allow("1.1.1.1"))

	now = now.Add(10 * time.Minute)
	assert.True(t, rl.Allow("2.2.2.2"))
	_, kept := rl.buckets["1.1.1.1"]
	assert.False(t, kept)
}
