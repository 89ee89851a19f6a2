package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"campusmart/internal/config"
	"campusmart/internal/domain"
	"campusmart/internal/http/handlers"
	"campusmart/internal/invoice"
	applog "campusmart/internal/log"
	"campusmart/internal/metrics"
	"campusmart/internal/repos"
)

type testApp struct {
	app  *fiber.App
	deps *handlers.Deps
	db   *sqlx.DB
}

func testConfig(t *testing.T) config.Config {
	return config.Config{
		DBDSN:           ":memory:",
		TemplatesDir:    "../../web/templates",
		InvoiceDir:      t.TempDir(),
		NotifyTimeout:   time.Second,
		RateLimitMax:    1000,
		RateLimitWindow: time.Minute,
	}
}

func newTestApp(t *testing.T, cfg config.Config) *testApp {
	t.Helper()
	db, err := repos.OpenDB(cfg.DBDSN)
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, repos.EnsureAdmin(context.Background(), db, "warden", "s3cret-pass"))

	m := metrics.New(prometheus.NewRegistry())
	deps := handlers.NewDeps(db, cfg, nil, invoice.NewGenerator(cfg.InvoiceDir), m)
	// registered after db.Close, so it runs first
	t.Cleanup(deps.Orders.Wait)
	return &testApp{app: handlers.NewApp(deps), deps: deps, db: db}
}

func (ta *testApp) seedProduct(t *testing.T, id, price string, approved bool) {
	t.Helper()
	p := domain.Product{
		ID: id, Name: "Chemistry Lab Coat", Price: price, Class: 9, Section: "B",
		SellerName: "Meera", SellerPhone: "9000000002", SellerEmail: "meera@school.edu",
		IsActive: true, ApprovalStatus: domain.ApprovalPending, CreatedAt: domain.FormatTime(time.Now()),
	}
	if approved {
		p.ApprovalStatus = domain.ApprovalApproved
	}
	require.NoError(t, repos.NewProductRepo(ta.db).CreateProduct(context.Background(), &p))
}

func (ta *testApp) do(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := ta.app.Test(req, -1)
	require.NoError(t, err)
	return resp
}

func jsonReq(method, path string, body any) *http.Request {
	var r io.Reader
	if body != nil {
		b, _ := json.Marshal(body)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	return req
}

func decode(t *testing.T, resp *http.Response, into any) {
	t.Helper()
	defer resp.Body.Close()
	require.NoError(t, json.NewDecoder(resp.Body).Decode(into))
}

func cookie(resp *http.Response, name string) string {
	for _, c := range resp.Cookies() {
		if c.Name == name {
			return c.Value
		}
	}
	return ""
}

// adminSession carries what an unsafe /admin request needs.
type adminSession struct {
	csrf string
	sid  string
}

func (s adminSession) sign(req *http.Request) *http.Request {
	if s.csrf != "" {
		req.Header.Set("X-Csrf-Token", s.csrf)
		req.AddCookie(&http.Cookie{Name: "csrf_", Value: s.csrf})
	}
	if s.sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: s.sid})
	}
	return req
}

func (ta *testApp) csrfToken(t *testing.T) string {
	t.Helper()
	resp := ta.do(t, httptest.NewRequest("GET", "/admin/session", nil))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	var body struct {
		CSRFToken string `json:"csrfToken"`
	}
	decode(t, resp, &body)
	require.NotEmpty(t, body.CSRFToken)
	require.Equal(t, body.CSRFToken, cookie(resp, "csrf_"))
	return body.CSRFToken
}

func (ta *testApp) login(t *testing.T) adminSession {
	t.Helper()
	s := adminSession{csrf: ta.csrfToken(t)}
	resp := ta.do(t, s.sign(jsonReq("POST", "/admin/login", map[string]string{"username": "warden", "password": "s3cret-pass"})))
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	s.sid = cookie(resp, "sid")
	require.NotEmpty(t, s.sid)
	return s
}

type logEntry struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	ReqID  string         `json:"req_id"`
	Admin  string         `json:"admin_id"`
	Err    string         `json:"err"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	mu sync.Mutex
	b  bytes.Buffer
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

// captureLogs redirects the app log for the duration of fn and parses every JSON line.
func captureLogs(t *testing.T, fn func()) []logEntry {
	t.Helper()
	buf := &lockedBuf{}
	applog.SetOutput(buf)
	defer applog.SetOutput(io.Discard)

	fn()

	buf.mu.Lock()
	defer buf.mu.Unlock()
	var out []logEntry
	for _, line := range strings.Split(strings.TrimSpace(buf.b.String()), "\n") {
		var e logEntry
		if json.Unmarshal([]byte(line), &e) == nil {
			out = append(out, e)
		}
	}
	return out
}

func findAction(entries []logEntry, action string) (logEntry, bool) {
	for _, e := range entries {
		if e.Action == action {
			return e, true
		}
	}
	return logEntry{}, false
}
