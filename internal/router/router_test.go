package router

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"strings"
	"testing"
	"time"

	"github.com/GandharvMahajan/AutoExamChecker/internal/cache"
	"github.com/GandharvMahajan/AutoExamChecker/internal/config"
	"github.com/GandharvMahajan/AutoExamChecker/internal/handler"
	"github.com/GandharvMahajan/AutoExamChecker/internal/notify"
	"github.com/GandharvMahajan/AutoExamChecker/internal/payment"
	"github.com/GandharvMahajan/AutoExamChecker/internal/repository/memstore"
	"github.com/GandharvMahajan/AutoExamChecker/internal/service"
	"github.com/GandharvMahajan/AutoExamChecker/internal/validator"
	ws "github.com/GandharvMahajan/AutoExamChecker/internal/websocket"
	"github.com/GandharvMahajan/AutoExamChecker/internal/worker"
	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/stripe/stripe-go/v82/webhook"
	"golang.org/x/crypto/bcrypt"
)

const (
	testAdminKey      = "setup-key"
	testWebhookSecret = "whsec_router_test"
)

func init() {
	validator.Setup()
}

// envelope mirrors response.Response with a raw data payload.
type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code string `json:"code"`
	} `json:"error"`
}

type testServer struct {
	t      *testing.T
	engine *gin.Engine
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	log := zerolog.Nop()

	cfg := &config.Config{
		GinMode:             gin.TestMode,
		JWTSecret:           "router-secret",
		JWTExpiry:           time.Hour,
		BcryptCost:          bcrypt.MinCost,
		UploadDir:           t.TempDir(),
		MaxUploadBytes:      1 << 20,
		AdminSetupKey:       testAdminKey,
		AuthRateLimit:       1000,
		FrontendURL:         "http://localhost:3000",
		StripeWebhookSecret: testWebhookSecret,
	}

	store, err := memstore.Open(log)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })

	mailer, err := notify.NewSESMailer(testContext(t), "", "", "", cfg.FrontendURL, log)
	if err != nil {
		t.Fatalf("mailer: %v", err)
	}
	gateway := payment.NewStripeGateway("", cfg.StripeWebhookSecret)
	janitor := worker.NewFileJanitor(nil, cfg.UploadDir, log)

	authService := service.NewAuthService(cfg)
	accountService := service.NewAccountService(store, authService, cfg, log)
	ledgerService := service.NewLedgerService(store, log)
	mediaService := service.NewMediaService(cfg, janitor)
	catalogService := service.NewCatalogService(store, mediaService, cache.Nop{}, log)
	sessionService := service.NewSessionService(store, mediaService, log)
	dashboardService := service.NewDashboardService(store)
	paymentService := service.NewPaymentService(store, gateway, mailer, cfg, log)

	handlers := &Handlers{
		Auth:      handler.NewAuthHandler(accountService),
		Test:      handler.NewTestHandler(catalogService, sessionService),
		Timer:     handler.NewTimerHandler(sessionService, log, nil),
		AdminTest: handler.NewAdminTestHandler(catalogService),
		AdminUser: handler.NewAdminUserHandler(accountService, ledgerService),
		Dashboard: handler.NewDashboardHandler(dashboardService),
		Payment:   handler.NewPaymentHandler(paymentService, ledgerService),
		System:    handler.NewSystemHandler(store, nil),
	}

	return &testServer{
		t:      t,
		engine: SetupRouter(testContext(t), authService, store, handlers, cfg, log),
	}
}

func (s *testServer) do(req *http.Request) (int, envelope) {
	s.t.Helper()
	w := httptest.NewRecorder()
	s.engine.ServeHTTP(w, req)

	var env envelope
	if err := json.Unmarshal(w.Body.Bytes(), &env); err != nil {
		s.t.Fatalf("%s %s: decode %q: %v", req.Method, req.URL.Path, w.Body.String(), err)
	}
	return w.Code, env
}

func (s *testServer) request(method, path, token string, body any) (int, envelope) {
	s.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			s.t.Fatalf("marshal: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return s.do(req)
}

func (s *testServer) register(name, email string) (string, int) {
	s.t.Helper()
	code, env := s.request(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": name, "email": email, "password": "secret123",
	})
	if code != http.StatusCreated {
		s.t.Fatalf("register %s: status %d", email, code)
	}
	var data struct {
		Token string `json:"token"`
		User  struct {
			ID int `json:"id"`
		} `json:"user"`
	}
	decode(s.t, env.Data, &data)
	return data.Token, data.User.ID
}

// adminToken registers the first admin through the setup endpoint.
func (s *testServer) adminToken() string {
	s.t.Helper()
	token, _ := s.register("Admin", "admin@example.com")
	code, _ := s.request(http.MethodPost, "/api/v1/auth/setup-first-admin", "", gin.H{
		"email": "admin@example.com", "adminKey": testAdminKey,
	})
	if code != http.StatusOK {
		s.t.Fatalf("setup-first-admin: status %d", code)
	}
	return token
}

func (s *testServer) createExam(adminToken string) int {
	s.t.Helper()
	code, env := s.request(http.MethodPost, "/api/v1/admin/tests", adminToken, gin.H{
		"title": "Algebra", "subject": "Mathematics", "classLevel": 10,
		"totalMarks": 100, "passingMarks": 40, "duration": 60,
	})
	if code != http.StatusCreated {
		s.t.Fatalf("create exam: status %d", code)
	}
	var data struct {
		Test struct {
			ID int `json:"id"`
		} `json:"test"`
	}
	decode(s.t, env.Data, &data)
	return data.Test.ID
}

// creditViaWebhook delivers a signed checkout.session.completed event.
func (s *testServer) creditViaWebhook(accountID int, plan, checkoutID string) int {
	s.t.Helper()
	payload := fmt.Sprintf(`{
		"id": "evt_%s",
		"object": "event",
		"type": "checkout.session.completed",
		"data": {"object": {
			"id": %q,
			"object": "checkout.session",
			"payment_status": "paid",
			"amount_total": 82900,
			"currency": "inr",
			"metadata": {"userId": "%d", "plan": %q}
		}}
	}`, checkoutID, checkoutID, accountID, plan)

	signed := webhook.GenerateTestSignedPayload(&webhook.UnsignedPayload{
		Payload: []byte(payload),
		Secret:  testWebhookSecret,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/webhook", bytes.NewReader(signed.Payload))
	req.Header.Set("Stripe-Signature", signed.Header)
	code, _ := s.do(req)
	return code
}

func decode(t *testing.T, raw json.RawMessage, v any) {
	t.Helper()
	if err := json.Unmarshal(raw, v); err != nil {
		t.Fatalf("decode %s: %v", raw, err)
	}
}

func errCode(env envelope) string {
	if env.Error == nil {
		return ""
	}
	return env.Error.Code
}

func TestHealth(t *testing.T) {
	s := newTestServer(t)

	code, env := s.request(http.MethodGet, "/health", "", nil)
	if code != http.StatusOK {
		t.Fatalf("status = %d", code)
	}
	var data struct {
		Status string `json:"status"`
		Store  string `json:"store"`
	}
	decode(t, env.Data, &data)
	if data.Status != "ok" || data.Store != "memory" {
		t.Errorf("health = %+v", data)
	}
}

func TestAuthFlow(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register("Asha", "Asha@Example.com")

	code, env := s.request(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": "Other", "email": "asha@example.com", "password": "secret123",
	})
	if code != http.StatusBadRequest || errCode(env) != "EMAIL_TAKEN" {
		t.Errorf("duplicate register = %d %s", code, errCode(env))
	}

	code, env = s.request(http.MethodPost, "/api/v1/auth/register", "", gin.H{
		"name": "  ", "email": "not-an-email", "password": "123",
	})
	if code != http.StatusBadRequest || errCode(env) != "VALIDATION_ERROR" {
		t.Errorf("invalid register = %d %s", code, errCode(env))
	}

	code, env = s.request(http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "asha@example.com", "password": "wrong-password",
	})
	if code != http.StatusUnauthorized || errCode(env) != "INVALID_CREDENTIALS" {
		t.Errorf("bad login = %d %s", code, errCode(env))
	}

	code, _ = s.request(http.MethodPost, "/api/v1/auth/login", "", gin.H{
		"email": "ASHA@example.com", "password": "secret123",
	})
	if code != http.StatusOK {
		t.Errorf("login status = %d", code)
	}

	code, env = s.request(http.MethodGet, "/api/v1/auth/me", token, nil)
	if code != http.StatusOK {
		t.Fatalf("me status = %d", code)
	}
	var me struct {
		User struct {
			Email string `json:"email"`
		} `json:"user"`
		Credits struct {
			Available int `json:"availableTests"`
		} `json:"credits"`
	}
	decode(t, env.Data, &me)
	if me.User.Email != "asha@example.com" || me.Credits.Available != 0 {
		t.Errorf("me = %+v", me)
	}

	code, env = s.request(http.MethodGet, "/api/v1/auth/me", "", nil)
	if code != http.StatusUnauthorized || errCode(env) != "TOKEN_REQUIRED" {
		t.Errorf("anonymous me = %d %s", code, errCode(env))
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()
	student, _ := s.register("Student", "student@example.com")

	code, env := s.request(http.MethodGet, "/api/v1/admin/stats", student, nil)
	if code != http.StatusForbidden || errCode(env) != "ADMIN_ACCESS_ONLY" {
		t.Errorf("student stats = %d %s", code, errCode(env))
	}

	code, _ = s.request(http.MethodGet, "/api/v1/admin/stats", admin, nil)
	if code != http.StatusOK {
		t.Errorf("admin stats = %d", code)
	}

	code, env = s.request(http.MethodPost, "/api/v1/auth/setup-first-admin", "", gin.H{
		"email": "student@example.com", "adminKey": testAdminKey,
	})
	if code != http.StatusBadRequest || errCode(env) != "ACTION_FORBIDDEN" {
		t.Errorf("second setup = %d %s", code, errCode(env))
	}

	code, env = s.request(http.MethodGet, "/api/v1/admin/tests/abc", admin, nil)
	if code != http.StatusBadRequest || errCode(env) != "INVALID_ID" {
		t.Errorf("bad id = %d %s", code, errCode(env))
	}
}

func TestExamSessionFlow(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()
	examID := s.createExam(admin)
	student, studentID := s.register("Student", "student@example.com")
	base := fmt.Sprintf("/api/v1/tests/%d", examID)

	code, env := s.request(http.MethodGet, "/api/v1/tests/available", student, nil)
	if code != http.StatusOK {
		t.Fatalf("available = %d", code)
	}
	if strings.Contains(string(env.Data), "passingMarks") {
		t.Errorf("public catalog leaks passing marks: %s", env.Data)
	}

	code, env = s.request(http.MethodPost, base+"/start", student, nil)
	if code != http.StatusBadRequest || errCode(env) != "INSUFFICIENT_CREDIT" {
		t.Fatalf("start without credit = %d %s", code, errCode(env))
	}

	if code := s.creditViaWebhook(studentID, "1", "cs_router_1"); code != http.StatusOK {
		t.Fatalf("webhook = %d", code)
	}
	// Redelivery must not credit twice.
	if code := s.creditViaWebhook(studentID, "1", "cs_router_1"); code != http.StatusOK {
		t.Fatalf("webhook redelivery = %d", code)
	}

	code, env = s.request(http.MethodGet, "/api/v1/payment/user/credits", student, nil)
	if code != http.StatusOK {
		t.Fatalf("credits = %d", code)
	}
	var ledger struct {
		Purchased int `json:"testsPurchased"`
		Available int `json:"availableTests"`
	}
	decode(t, env.Data, &ledger)
	if ledger.Purchased != 1 || ledger.Available != 1 {
		t.Fatalf("ledger after webhook = %+v", ledger)
	}

	code, _ = s.request(http.MethodPost, base+"/start", student, nil)
	if code != http.StatusOK {
		t.Fatalf("start = %d", code)
	}
	// Restarting an open attempt is free.
	code, _ = s.request(http.MethodPost, base+"/start", student, nil)
	if code != http.StatusOK {
		t.Fatalf("restart = %d", code)
	}

	code, env = s.uploadAnswer(student, base+"/upload-answer", "application/pdf", []byte("%PDF-1.4\nanswer"))
	if code != http.StatusOK {
		t.Fatalf("upload = %d %s", code, errCode(env))
	}
	code, env = s.uploadAnswer(student, base+"/upload-answer", "image/png", []byte("\x89PNG"))
	if code != http.StatusBadRequest || errCode(env) != "UNSUPPORTED_FILE_TYPE" {
		t.Errorf("png upload = %d %s", code, errCode(env))
	}

	code, env = s.request(http.MethodPost, base+"/submit", student, nil)
	if code != http.StatusOK {
		t.Fatalf("submit = %d", code)
	}
	var submitted struct {
		UserTest struct {
			Status string   `json:"status"`
			Score  *float64 `json:"score"`
		} `json:"userTest"`
	}
	decode(t, env.Data, &submitted)
	if submitted.UserTest.Status != "Completed" || submitted.UserTest.Score != nil {
		t.Errorf("submitted = %+v", submitted.UserTest)
	}

	code, env = s.request(http.MethodPost, base+"/start", student, nil)
	if code != http.StatusBadRequest || errCode(env) != "TEST_ALREADY_COMPLETED" {
		t.Errorf("start after submit = %d %s", code, errCode(env))
	}

	code, env = s.request(http.MethodGet, "/api/v1/tests/userTests", student, nil)
	if code != http.StatusOK {
		t.Fatalf("userTests = %d", code)
	}
	var mine struct {
		Used      int `json:"testsUsed"`
		Available int `json:"availableTests"`
	}
	decode(t, env.Data, &mine)
	if mine.Used != 1 || mine.Available != 0 {
		t.Errorf("userTests ledger = %+v", mine)
	}

	code, env = s.request(http.MethodDelete, fmt.Sprintf("/api/v1/admin/tests/%d", examID), admin, nil)
	if code != http.StatusConflict || errCode(env) != "DEPENDENCY_EXISTS" {
		t.Errorf("delete referenced exam = %d %s", code, errCode(env))
	}

	code, env = s.request(http.MethodGet, "/api/v1/admin/stats", admin, nil)
	if code != http.StatusOK {
		t.Fatalf("stats = %d", code)
	}
	var stats struct {
		Stats struct {
			TestsStarted   int `json:"testsStarted"`
			TestsCompleted int `json:"testsCompleted"`
		} `json:"stats"`
	}
	decode(t, env.Data, &stats)
	if stats.Stats.TestsStarted != 1 || stats.Stats.TestsCompleted != 1 {
		t.Errorf("stats = %s", env.Data)
	}
}

func (s *testServer) uploadAnswer(token, path, contentType string, content []byte) (int, envelope) {
	s.t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", `form-data; name="answerPdf"; filename="answer.pdf"`)
	h.Set("Content-Type", contentType)
	part, err := mw.CreatePart(h)
	if err != nil {
		s.t.Fatalf("create part: %v", err)
	}
	_, _ = part.Write(content)
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, path, &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)
	return s.do(req)
}

func TestPaymentRoutes(t *testing.T) {
	s := newTestServer(t)
	token, _ := s.register("Buyer", "buyer@example.com")

	code, env := s.request(http.MethodGet, "/api/v1/payment/plans", "", nil)
	if code != http.StatusOK {
		t.Fatalf("plans = %d", code)
	}
	var plans struct {
		Plans []struct {
			ID    string `json:"id"`
			Price string `json:"price"`
		} `json:"plans"`
	}
	decode(t, env.Data, &plans)
	if len(plans.Plans) != 3 || plans.Plans[0].ID != "1" {
		t.Errorf("plans = %s", env.Data)
	}

	code, env = s.request(http.MethodPost, "/api/v1/payment/create-checkout-session", token, gin.H{"plan": "9"})
	if code != http.StatusBadRequest || errCode(env) != "VALIDATION_ERROR" {
		t.Errorf("bad plan = %d %s", code, errCode(env))
	}

	// No secret key is configured, so the provider call fails.
	code, env = s.request(http.MethodPost, "/api/v1/payment/create-checkout-session", token, gin.H{"plan": "3"})
	if code != http.StatusBadGateway || errCode(env) != "PAYMENT_FAILED" {
		t.Errorf("unconfigured checkout = %d %s", code, errCode(env))
	}

	code, env = s.request(http.MethodGet, "/api/v1/payment/payment-success", token, nil)
	if code != http.StatusBadRequest || errCode(env) != "VALIDATION_ERROR" {
		t.Errorf("missing session_id = %d %s", code, errCode(env))
	}

	req := httptest.NewRequest(http.MethodPost, "/api/v1/payment/webhook", strings.NewReader(`{"id":"evt_x"}`))
	req.Header.Set("Stripe-Signature", "t=1,v1=deadbeef")
	code, env = s.do(req)
	if code != http.StatusBadRequest || errCode(env) != "WEBHOOK_INVALID" {
		t.Errorf("unsigned webhook = %d %s", code, errCode(env))
	}
}

func TestTimerStream(t *testing.T) {
	s := newTestServer(t)
	admin := s.adminToken()
	examID := s.createExam(admin)
	student, studentID := s.register("Student", "student@example.com")
	if code := s.creditViaWebhook(studentID, "1", "cs_timer_1"); code != http.StatusOK {
		t.Fatalf("webhook = %d", code)
	}

	srv := httptest.NewServer(s.engine)
	defer srv.Close()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + fmt.Sprintf("/ws/tests/%d/timer?token=%s", examID, student)

	// Nothing to time before the attempt exists.
	_, resp, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err == nil {
		t.Fatal("dial succeeded without a session")
	}
	if resp == nil || resp.StatusCode != http.StatusNotFound {
		t.Fatalf("dial without session: resp = %v", resp)
	}

	code, _ := s.request(http.MethodPost, fmt.Sprintf("/api/v1/tests/%d/start", examID), student, nil)
	if code != http.StatusOK {
		t.Fatalf("start = %d", code)
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	defer conn.Close()
	_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))

	var first ws.StateResponse
	if err := conn.ReadJSON(&first); err != nil {
		t.Fatalf("read state: %v", err)
	}
	if first.Event != ws.EventState || first.State == nil || first.State.RemainingSeconds <= 0 {
		t.Fatalf("first message = %+v", first)
	}

	if err := conn.WriteJSON(map[string]string{"action": "ping"}); err != nil {
		t.Fatalf("write ping: %v", err)
	}
	for {
		var msg struct {
			Event ws.Event `json:"event"`
		}
		if err := conn.ReadJSON(&msg); err != nil {
			t.Fatalf("read: %v", err)
		}
		if msg.Event == ws.EventPong {
			break
		}
		if msg.Event != ws.EventTick {
			t.Fatalf("unexpected event %q", msg.Event)
		}
	}
}

// testContext stands in for t.Context (Go 1.24+): a context cancelled when the test finishes.
func testContext(t *testing.T) context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return ctx
}
