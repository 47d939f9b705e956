package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/dmitrijs2005/gophactivate/internal/common"
	"github.com/dmitrijs2005/gophactivate/internal/logging"
	"github.com/dmitrijs2005/gophactivate/internal/server/auth"
	"github.com/dmitrijs2005/gophactivate/internal/server/codes"
	"github.com/dmitrijs2005/gophactivate/internal/server/dispatcher"
	"github.com/dmitrijs2005/gophactivate/internal/server/models"
	"github.com/dmitrijs2005/gophactivate/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/gophactivate/internal/server/services"
	"github.com/dmitrijs2005/gophactivate/internal/timex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type nopDispatcher struct{ err error }

func (d nopDispatcher) Enqueue(context.Context, dispatcher.Notice) error { return d.err }

type pinger struct{ err error }

func (p pinger) Ping(context.Context) error { return p.err }

type stubActivator struct {
	err error
}

func (s stubActivator) Register(context.Context, string, string) (*services.RegistrationResult, error) {
	return nil, s.err
}

func (s stubActivator) Activate(context.Context, string, string, string) (*models.Account, error) {
	return nil, s.err
}

func (s stubActivator) ResendActivation(context.Context, string, string) (*services.ResendResult, error) {
	return nil, s.err
}

type apiFixture struct {
	srv   *httptest.Server
	mem   *repomanager.MemoryRepositoryManager
	clock *timex.ManualClock
}

func newAPIFixture(t *testing.T, d dispatcher.Dispatcher) *apiFixture {
	t.Helper()
	clock := timex.NewManualClock(time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC))
	mem := repomanager.NewMemoryRepositoryManager(clock)
	hasher, err := auth.NewBcryptHasher(bcrypt.MinCost)
	require.NoError(t, err)

	svc := services.NewActivationService(mem, hasher, codes.NewGenerator(clock, time.Minute), d, logging.NewNopLogger())
	h := NewHandler(svc, mem, logging.NewNopLogger())
	srv := httptest.NewServer(NewRouter(h, RouterOptions{AllowedOrigins: []string{"*"}}, logging.NewNopLogger()))
	t.Cleanup(srv.Close)

	return &apiFixture{srv: srv, mem: mem, clock: clock}
}

type response struct {
	Status string         `json:"status"`
	Data   map[string]any `json:"data"`
}

func post(t *testing.T, url string, body any) (int, response) {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	resp, err := http.Post(url, "application/json", &buf)
	require.NoError(t, err)
	defer resp.Body.Close()

	var out response
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp.StatusCode, out
}

func (f *apiFixture) url(path string) string {
	return f.srv.URL + "/api/v1/users" + path
}

func (f *apiFixture) currentCode(t *testing.T, email string) string {
	t.Helper()
	acc, err := f.mem.AccountStore().FindByEmail(context.Background(), email)
	require.NoError(t, err)
	all := f.mem.CodeStore().All(acc.ID)
	require.NotEmpty(t, all)
	return all[len(all)-1].Code
}

func TestRegisterActivateRoundTrip(t *testing.T) {
	f := newAPIFixture(t, nopDispatcher{})

	status, body := post(t, f.url("/register"), map[string]string{"email": "Ann@Example.com", "password": "secret123"})
	require.Equal(t, http.StatusCreated, status)
	assert.Equal(t, "success", body.Status)
	assert.Equal(t, "ann@example.com", body.Data["email"])
	assert.Equal(t, "PENDING", body.Data["status"])
	assert.NotEmpty(t, body.Data["user_id"])
	assert.NotContains(t, body.Data, "warning")

	code := f.currentCode(t, "ann@example.com")

	status, body = post(t, f.url("/activate"), map[string]string{"email": "ann@example.com", "password": "secret123", "code": code})
	require.Equal(t, http.StatusOK, status)
	assert.Equal(t, "ACTIVE", body.Data["status"])
	assert.NotNil(t, body.Data["activated_at"])

	status, body = post(t, f.url("/activate"), map[string]string{"email": "ann@example.com", "password": "secret123", "code": code})
	require.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "error", body.Status)
	assert.Equal(t, "DM_REG_0007", body.Data["err_code"])
}

func TestRegister_Duplicate(t *testing.T) {
	f := newAPIFixture(t, nopDispatcher{})

	status, _ := post(t, f.url("/register"), map[string]string{"email": "bob@example.com", "password": "secret123"})
	require.Equal(t, http.StatusCreated, status)

	status, body := post(t, f.url("/register"), map[string]string{"email": "BOB@example.com", "password": "other1234"})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, "DM_REG_0003", body.Data["err_code"])
}

func TestRegister_Validation(t *testing.T) {
	f := newAPIFixture(t, nopDispatcher{})

	tests := []struct {
		name   string
		body   any
		status int
		code   string
	}{
		{"bad email", map[string]string{"email": "nope", "password": "secret123"}, 422, "DM_REG_0001"},
		{"missing email", map[string]string{"password": "secret123"}, 422, "DM_REG_0001"},
		{"short password", map[string]string{"email": "a@b.co", "password": "abc1"}, 422, "DM_REG_0002"},
		{"letters only", map[string]string{"email": "a@b.co", "password": "abcdefghij"}, 422, "DM_REG_0002"},
		{"digits only", map[string]string{"email": "a@b.co", "password": "1234567890"}, 422, "DM_REG_0002"},
		{"malformed json", `{"email":`, 400, "DM_REG_0004"},
		{"unknown field", map[string]string{"email": "a@b.co", "password": "secret123", "role": "admin"}, 400, "DM_REG_0004"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := post(t, f.url("/register"), tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Data["err_code"])
			assert.EqualValues(t, tt.status, body.Data["err_status_code"])
		})
	}
}

func TestRegister_DispatchWarning(t *testing.T) {
	f := newAPIFixture(t, nopDispatcher{err: errors.New("broker down")})

	status, body := post(t, f.url("/register"), map[string]string{"email": "cy@example.com", "password": "secret123"})
	require.Equal(t, http.StatusCreated, status)

	warning, ok := body.Data["warning"].(map[string]any)
	require.True(t, ok, "warning expected in %v", body.Data)
	assert.Equal(t, "DM_REG_0009", warning["err_code"])
}

func TestActivate_Errors(t *testing.T) {
	f := newAPIFixture(t, nopDispatcher{})
	status, _ := post(t, f.url("/register"), map[string]string{"email": "dee@example.com", "password": "secret123"})
	require.Equal(t, http.StatusCreated, status)
	code := f.currentCode(t, "dee@example.com")
	wrong := fmt.Sprintf("%04d", (atoi(code)+1)%10000)

	tests := []struct {
		name   string
		body   map[string]string
		status int
		code   string
	}{
		{"malformed code", map[string]string{"email": "dee@example.com", "password": "secret123", "code": "12a4"}, 422, "DM_REG_0005"},
		{"short code", map[string]string{"email": "dee@example.com", "password": "secret123", "code": "123"}, 422, "DM_REG_0005"},
		{"wrong code", map[string]string{"email": "dee@example.com", "password": "secret123", "code": wrong}, 400, "DM_REG_0005"},
		{"wrong password", map[string]string{"email": "dee@example.com", "password": "secret999", "code": code}, 401, "DM_REG_0010"},
		{"unknown account", map[string]string{"email": "ghost@example.com", "password": "secret123", "code": code}, 401, "DM_REG_0010"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, body := post(t, f.url("/activate"), tt.body)
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Data["err_code"])
		})
	}

	t.Run("expired code", func(t *testing.T) {
		f.clock.Advance(time.Minute)
		status, body := post(t, f.url("/activate"), map[string]string{"email": "dee@example.com", "password": "secret123", "code": code})
		assert.Equal(t, http.StatusBadRequest, status)
		assert.Equal(t, "DM_REG_0005", body.Data["err_code"])
	})
}

func atoi(s string) int {
	n := 0
	for _, r := range s {
		n = n*10 + int(r-'0')
	}
	return n
}

func TestResendActivation(t *testing.T) {
	f := newAPIFixture(t, nopDispatcher{})
	status, _ := post(t, f.url("/register"), map[string]string{"email": "eve@example.com", "password": "secret123"})
	require.Equal(t, http.StatusCreated, status)

	status, body := post(t, f.url("/resend-activation"), map[string]string{"email": "eve@example.com", "password": "secret123"})
	require.Equal(t, http.StatusOK, status)
	assert.NotEmpty(t, body.Data["message"])
	assert.NotEmpty(t, body.Data["code_expires_at"])

	acc, err := f.mem.AccountStore().FindByEmail(context.Background(), "eve@example.com")
	require.NoError(t, err)
	valid := 0
	for _, c := range f.mem.CodeStore().All(acc.ID) {
		if c.IsValidAt(f.clock.Now()) {
			valid++
		}
	}
	assert.Equal(t, 1, valid)

	status, body = post(t, f.url("/resend-activation"), map[string]string{"email": "eve@example.com", "password": "nope12345"})
	assert.Equal(t, http.StatusUnauthorized, status)
	assert.Equal(t, "DM_REG_0010", body.Data["err_code"])
}

func TestErrorMapping(t *testing.T) {
	tests := []struct {
		err    error
		status int
		code   string
	}{
		{fmt.Errorf("%w: %w", common.ErrStorageUnavailable, errors.New("conn refused")), 503, "DM_REG_0008"},
		{common.ErrAlreadyConsumed, 400, "DM_REG_0005"},
		{common.ErrInvalidStateTransition, 400, "DM_REG_0007"},
		{common.ErrAccountNotFound, 401, "DM_REG_0010"},
		{errors.New("boom"), 500, "DM_REG_0050"},
	}

	for _, tt := range tests {
		t.Run(tt.code, func(t *testing.T) {
			h := NewHandler(stubActivator{err: tt.err}, pinger{}, logging.NewNopLogger())
			srv := httptest.NewServer(NewRouter(h, RouterOptions{}, logging.NewNopLogger()))
			defer srv.Close()

			status, body := post(t, srv.URL+"/api/v1/users/resend-activation", map[string]string{"email": "a@b.co", "password": "secret123"})
			assert.Equal(t, tt.status, status)
			assert.Equal(t, tt.code, body.Data["err_code"])
		})
	}
}

func TestHealth(t *testing.T) {
	for name, tc := range map[string]struct {
		err    error
		status int
	}{
		"up":   {nil, http.StatusOK},
		"down": {errors.New("db gone"), http.StatusServiceUnavailable},
	} {
		t.Run(name, func(t *testing.T) {
			h := NewHandler(stubActivator{}, pinger{err: tc.err}, logging.NewNopLogger())
			rec := httptest.NewRecorder()
			NewRouter(h, RouterOptions{}, logging.NewNopLogger()).
				ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/users/health", nil))
			assert.Equal(t, tc.status, rec.Code)
		})
	}
}

func TestNotFound(t *testing.T) {
	h := NewHandler(stubActivator{}, pinger{}, logging.NewNopLogger())
	rec := httptest.NewRecorder()
	NewRouter(h, RouterOptions{}, logging.NewNopLogger()).
		ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/nowhere", nil))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCORSPreflight(t *testing.T) {
	h := NewHandler(stubActivator{}, pinger{}, logging.NewNopLogger())
	router := NewRouter(h, RouterOptions{AllowedOrigins: []string{"https://app.example"}}, logging.NewNopLogger())

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/users/register", nil)
	req.Header.Set("Origin", "https://app.example")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, "https://app.example", rec.Header().Get("Access-Control-Allow-Origin"))
}
