package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"
	"time"

	"invest_tracker/internal/audit"
	"invest_tracker/internal/ledger"
	"invest_tracker/internal/notify"
	"invest_tracker/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type outbox struct {
	mu   sync.Mutex
	msgs []notify.Message
}

func (o *outbox) Notify(_ context.Context, msg notify.Message) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.msgs = append(o.msgs, msg)
}

type testServer struct {
	t      *testing.T
	router *gin.Engine
	store  *store.MemoryStore
	svc    *ledger.Service
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	st := store.NewMemoryStore()
	svc := ledger.NewService(st, nil, &outbox{}, audit.NewLogRecorder(50), ledger.Options{
		JWTSecret:      "test-secret",
		JWTTTL:         time.Hour,
		BaseURL:        "http://localhost:3000",
		AdminRegSecret: "let-me-in",
	})
	r, err := NewRouter(svc, RouterOptions{JWTSecret: "test-secret", CORSOrigins: []string{"http://localhost:3000"}})
	require.NoError(t, err)
	return &testServer{t: t, router: r, store: st, svc: svc}
}

func (s *testServer) do(method, path, token string, body any) (*httptest.ResponseRecorder, map[string]any) {
	s.t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(s.t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	out := map[string]any{}
	_ = json.Unmarshal(w.Body.Bytes(), &out)
	return w, out
}

func (s *testServer) login(email, password string) string {
	s.t.Helper()
	w, body := s.do(http.MethodPost, "/auth/login", "", gin.H{"email": email, "password": password})
	require.Equal(s.t, http.StatusOK, w.Code, w.Body.String())
	return body["token"].(string)
}

func (s *testServer) register(email string) string {
	s.t.Helper()
	w, _ := s.do(http.MethodPost, "/auth/register", "", gin.H{
		"name": "Ada", "email": email, "password": "secret1", "walletAddress": "0x1234567890",
	})
	require.Equal(s.t, http.StatusCreated, w.Code, w.Body.String())
	return s.login(email, "secret1")
}

func (s *testServer) admin() string {
	s.t.Helper()
	_, err := s.svc.SeedAdmin(context.Background(), "Root", "admin@example.com", "secret1", "")
	require.NoError(s.t, err)
	return s.login("admin@example.com", "secret1")
}

func (s *testServer) balance(email string) string {
	s.t.Helper()
	u, err := s.store.GetUserByEmail(context.Background(), email)
	require.NoError(s.t, err)
	return u.Balance.String()
}

func id(v any) uint {
	return uint(v.(float64))
}

func TestDepositApprovalOverHTTP(t *testing.T) {
	s := newTestServer(t)
	admin := s.admin()
	investor := s.register("ada@example.com")

	w, body := s.do(http.MethodPost, "/admin/packages", admin, gin.H{
		"name": "Starter", "minAmount": 100, "maxAmount": 999, "roiPercentage": 12, "durationDays": 30,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	pkgID := id(body["package"].(map[string]any)["id"])

	w, body = s.do(http.MethodPost, "/deposits", investor, gin.H{"packageId": pkgID, "amount": 500, "transactionHash": "0xabc"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	depositID := id(body["deposit"].(map[string]any)["id"])
	assert.Equal(t, "0", s.balance("ada@example.com"))

	w, _ = s.do(http.MethodPatch, "/admin/deposits", admin, gin.H{"depositId": depositID, "status": "approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "500", s.balance("ada@example.com"))

	w, body = s.do(http.MethodPatch, "/admin/deposits", admin, gin.H{"depositId": depositID, "status": "approved"})
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "Request has already been processed", body["error"])
	assert.Equal(t, "500", s.balance("ada@example.com"))

	w, body = s.do(http.MethodGet, "/dashboard/stats", investor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "500", body["totalDeposits"])
	assert.Equal(t, "500", body["balance"])

	w, _ = s.do(http.MethodPatch, "/admin/deposits", admin, gin.H{"depositId": 999, "status": "approved"})
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(http.MethodPatch, "/admin/deposits", admin, gin.H{"depositId": depositID, "status": "maybe"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	s := newTestServer(t)
	s.register("ada@example.com")
	w, body := s.do(http.MethodPost, "/auth/register", "", gin.H{
		"name": "Ada", "email": "ada@example.com", "password": "secret1", "walletAddress": "0x1234567890",
	})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "User already exists", body["error"])

	w, _ = s.do(http.MethodPost, "/auth/register", "", gin.H{"email": "bob@example.com"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBlockedLoginOverHTTP(t *testing.T) {
	s := newTestServer(t)
	admin := s.admin()
	investor := s.register("ada@example.com")
	u, err := s.store.GetUserByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)

	w, _ := s.do(http.MethodPatch, "/admin/users", admin, gin.H{"userId": u.ID, "block": true})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	// Tokens issued before the block stop working too
	for _, path := range []string{"/profile", "/dashboard/stats"} {
		w, body := s.do(http.MethodGet, path, investor, nil)
		assert.Equal(t, http.StatusForbidden, w.Code, path)
		assert.Equal(t, "Account is blocked", body["error"], path)
	}
	w, _ = s.do(http.MethodPut, "/profile", investor, gin.H{"name": "Ada L."})
	assert.Equal(t, http.StatusForbidden, w.Code)

	w, body := s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ada@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Account is blocked", body["error"])

	w, body = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ada@example.com", "password": "nope"})
	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Equal(t, "Account is blocked", body["error"])

	w, _ = s.do(http.MethodPost, "/auth/login", "", gin.H{"email": "ghost@example.com", "password": "secret1"})
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestAdminRoutesRequireStoredAdminRole(t *testing.T) {
	s := newTestServer(t)
	investor := s.register("ada@example.com")

	w, _ := s.do(http.MethodGet, "/admin/users", investor, nil)
	assert.Equal(t, http.StatusForbidden, w.Code)
	w, _ = s.do(http.MethodGet, "/admin/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	admin := s.admin()
	w, body := s.do(http.MethodGet, "/admin/users?page=1&page_size=1", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(2), body["total"])
	assert.Equal(t, float64(2), body["total_pages"])
}

func TestWithdrawalOverHTTP(t *testing.T) {
	s := newTestServer(t)
	admin := s.admin()
	investor := s.register("ada@example.com")

	w, body := s.do(http.MethodPost, "/admin/packages", admin, gin.H{
		"name": "Starter", "minAmount": "100", "maxAmount": "999", "roiPercentage": "12", "durationDays": 30,
	})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	pkgID := id(body["package"].(map[string]any)["id"])

	w, _ = s.do(http.MethodPost, "/admin/deposits/manual", admin, gin.H{"email": "ada@example.com", "packageId": pkgID, "amount": 300})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, body = s.do(http.MethodPost, "/withdrawals", investor, gin.H{"amount": 400})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Insufficient balance", body["error"])

	w, body = s.do(http.MethodPost, "/withdrawals", investor, gin.H{"amount": 120})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	wid := id(body["withdrawal"].(map[string]any)["id"])

	w, _ = s.do(http.MethodPatch, "/admin/withdrawals", admin, gin.H{"withdrawalId": wid, "status": "approved"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "180", s.balance("ada@example.com"))

	w, body = s.do(http.MethodGet, "/withdrawals", investor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["withdrawals"], 1)
}

func TestProfitAndReconcileOverHTTP(t *testing.T) {
	s := newTestServer(t)
	admin := s.admin()
	investor := s.register("ada@example.com")
	u, err := s.store.GetUserByEmail(context.Background(), "ada@example.com")
	require.NoError(t, err)

	w, _ := s.do(http.MethodPost, "/admin/profits", admin, gin.H{"userId": u.ID, "amount": "25.5", "description": "Week 1"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "25.5", s.balance("ada@example.com"))

	w, body := s.do(http.MethodGet, "/profits", investor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["total"])

	w, body = s.do(http.MethodGet, "/admin/users/"+strconv.Itoa(int(u.ID))+"/reconcile", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, true, body["matches"])

	w, body = s.do(http.MethodGet, "/admin/reports", admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, float64(1), body["roiPayouts"])

	w, body = s.do(http.MethodGet, "/admin/audit?user_id="+strconv.Itoa(int(u.ID)), admin, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["events"], 1)

	w, _ = s.do(http.MethodPost, "/admin/profits", admin, gin.H{"userId": 9999, "amount": 1})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestPackageDeleteInUse(t *testing.T) {
	s := newTestServer(t)
	admin := s.admin()
	s.register("ada@example.com")

	w, body := s.do(http.MethodPost, "/admin/packages", admin, gin.H{
		"name": "Starter", "minAmount": 100, "maxAmount": 999, "roiPercentage": 12, "durationDays": 30,
	})
	require.Equal(t, http.StatusCreated, w.Code)
	pkgNum := id(body["package"].(map[string]any)["id"])
	pkgID := strconv.Itoa(int(pkgNum))

	w, body = s.do(http.MethodGet, "/packages", "", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, body["packages"], 1)

	w, _ = s.do(http.MethodPost, "/admin/deposits/manual", admin, gin.H{"email": "ada@example.com", "packageId": pkgNum, "amount": 150})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w, _ = s.do(http.MethodDelete, "/admin/packages/"+pkgID, admin, nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	w, _ = s.do(http.MethodDelete, "/admin/packages/9999", admin, nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	w, _ = s.do(http.MethodDelete, "/admin/packages/abc", admin, nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestProfileOverHTTP(t *testing.T) {
	s := newTestServer(t)
	investor := s.register("ada@example.com")

	w, body := s.do(http.MethodGet, "/profile", investor, nil)
	require.Equal(t, http.StatusOK, w.Code)
	user := body["user"].(map[string]any)
	assert.Equal(t, "ada@example.com", user["email"])
	assert.NotContains(t, user, "password")

	w, _ = s.do(http.MethodPut, "/profile", investor, gin.H{"name": "Ada Lovelace"})
	assert.Equal(t, http.StatusOK, w.Code)

	w, body = s.do(http.MethodPatch, "/profile/password", investor, gin.H{"oldPassword": "nope", "newPassword": "another1"})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "Incorrect old password", body["error"])
}

func TestRegisterAdminSecret(t *testing.T) {
	s := newTestServer(t)
	form := gin.H{"name": "Root", "email": "root@example.com", "password": "secret1", "walletAddress": "0xadmin00001", "secret": "guess"}
	w, _ := s.do(http.MethodPost, "/auth/register-admin", "", form)
	assert.Equal(t, http.StatusUnauthorized, w.Code)

	form["secret"] = "let-me-in"
	w, _ = s.do(http.MethodPost, "/auth/register-admin", "", form)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	token := s.login("root@example.com", "secret1")
	w, _ = s.do(http.MethodGet, "/admin/dashboard", token, nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	w, body := s.do(http.MethodGet, "/healthz", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "ok", body["status"])

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "invest_tracker_http_requests_total")
}
