package http

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"lifeboard/internal/amqp"
	"lifeboard/internal/auth"
	"lifeboard/internal/core"
	"lifeboard/internal/log"
	"lifeboard/internal/services"
	"lifeboard/internal/sheets"
	"lifeboard/internal/sheets/memory"
	"lifeboard/internal/storage"
	"lifeboard/internal/store/filestore"
)

const testSecret = "test-secret"

type testEnv struct {
	srv    *Server
	svc    *services.Service
	other  *services.Service
	sheets *memory.Store
	token  string
}

// newTestServer wires a server over a temp file store and SQLite database.
// other shares both stores but reports no changes to srv, like a second
// instance would.
func newTestServer(t *testing.T, configure func(*Options)) *testEnv {
	t.Helper()
	dir := t.TempDir()
	fs, err := filestore.Open(filepath.Join(dir, "db.json"))
	if err != nil {
		t.Fatalf("open file store: %v", err)
	}
	db, err := storage.Open(context.Background(), storage.SQLite, filepath.Join(dir, "lifeboard.db"))
	if err != nil {
		t.Fatalf("open sql store: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	env := &testEnv{sheets: memory.New()}
	env.svc = services.New(fs.Finance(), db.Personal(), services.Options{
		Logger:   log.Discard(),
		OnChange: func(ev amqp.ChangeEvent) { env.srv.HandleChange(ev) },
	})
	env.other = services.New(fs.Finance(), db.Personal(), services.Options{Logger: log.Discard()})

	verifier := auth.NewVerifier(testSecret)
	opts := Options{
		Addr:               ":0",
		Service:            env.svc,
		Verifier:           verifier,
		CacheTTL:           time.Minute,
		CacheSize:          32,
		RateLimitPerMinute: 1000,
		Exporter:           sheets.NewExporter(env.sheets, "", log.Discard()),
		Ready:              db.Ping,
		Logger:             log.Discard(),
	}
	if configure != nil {
		configure(&opts)
	}
	env.srv = NewServer(opts)
	t.Cleanup(func() { env.srv.Shutdown(context.Background()) })

	env.token, err = verifier.Issue("user-1", time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return env
}

func (e *testEnv) do(t *testing.T, method, path, body, token string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rr, req)
	return rr
}

func decode[T any](t *testing.T, rr *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(rr.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", rr.Body.String(), err)
	}
	return v
}

func errorOf(t *testing.T, rr *httptest.ResponseRecorder) string {
	t.Helper()
	return decode[map[string]string](t, rr)["error"]
}

func TestHealthReadyAndMetrics(t *testing.T) {
	env := newTestServer(t, nil)

	for _, path := range []string{"/healthz", "/readyz", "/metrics"} {
		rr := env.do(t, http.MethodGet, path, "", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("%s status=%d body=%s", path, rr.Code, rr.Body.String())
		}
	}

	rr := env.do(t, http.MethodGet, "/metrics", "", "")
	m := decode[map[string]json.RawMessage](t, rr)
	for _, k := range []string{"http", "rateLimit", "security", "cache"} {
		if _, ok := m[k]; !ok {
			t.Errorf("metrics missing %q: %s", k, rr.Body.String())
		}
	}
}

func TestReadyReportsBackendFailure(t *testing.T) {
	env := newTestServer(t, func(o *Options) {
		o.Ready = func(context.Context) error { return errors.New("database unreachable") }
	})

	rr := env.do(t, http.MethodGet, "/readyz", "", "")
	if rr.Code != http.StatusServiceUnavailable {
		t.Fatalf("status=%d", rr.Code)
	}
	if got := errorOf(t, rr); got != "not ready" {
		t.Errorf("error = %q", got)
	}
}

func TestTransactionsLifecycle(t *testing.T) {
	env := newTestServer(t, nil)

	rr := env.do(t, http.MethodPost, "/api/transactions",
		`{"name":"Groceries","category":"Food","date":"2024-03-02","amount":-42.5,"type":"expense","icon":"cart"}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	created := decode[core.Transaction](t, rr)
	if created.ID == 0 || created.Amount != 42.5 {
		t.Fatalf("created = %+v", created)
	}

	rr = env.do(t, http.MethodGet, "/api/transactions", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("list status=%d", rr.Code)
	}
	if txs := decode[[]core.Transaction](t, rr); len(txs) != 1 || txs[0].Name != "Groceries" {
		t.Fatalf("list = %+v", txs)
	}

	path := "/api/transactions/" + jsonNumber(created.ID)
	for i := 0; i < 2; i++ {
		rr = env.do(t, http.MethodDelete, path, "", "")
		if rr.Code != http.StatusOK {
			t.Fatalf("delete #%d status=%d", i+1, rr.Code)
		}
		if got := decode[map[string]bool](t, rr); !got["success"] {
			t.Fatalf("delete #%d body=%s", i+1, rr.Body.String())
		}
	}

	rr = env.do(t, http.MethodGet, "/api/transactions", "", "")
	if txs := decode[[]core.Transaction](t, rr); len(txs) != 0 {
		t.Fatalf("after delete = %+v", txs)
	}
}

func TestMalformedBodiesAreRejected(t *testing.T) {
	env := newTestServer(t, nil)

	tests := []struct {
		name    string
		path    string
		body    string
		wantErr string
	}{
		{"malformed json", "/api/transactions", `{"name":`, "invalid JSON body"},
		{"missing field", "/api/transactions", `{"category":"Food","date":"2024-03-02","type":"expense"}`, "name is required"},
		{"bad type", "/api/cards", `{"bankName":"B","holder":"H","type":"gold","number":"1234"}`, "type must be debit or credit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := env.do(t, http.MethodPost, tt.path, tt.body, "")
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("status=%d body=%s", rr.Code, rr.Body.String())
			}
			if got := errorOf(t, rr); got != tt.wantErr {
				t.Errorf("error = %q, want %q", got, tt.wantErr)
			}
		})
	}

	rr := env.do(t, http.MethodDelete, "/api/cards/abc", "", "")
	if rr.Code != http.StatusBadRequest {
		t.Errorf("bad id status=%d", rr.Code)
	}
}

func TestReadCacheServesAndInvalidatesOnLocalChange(t *testing.T) {
	env := newTestServer(t, nil)

	rr := env.do(t, http.MethodGet, "/api/tasks", "", "")
	if rr.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("first read X-Cache=%q", rr.Header().Get("X-Cache"))
	}
	rr = env.do(t, http.MethodGet, "/api/tasks", "", "")
	if rr.Header().Get("X-Cache") != "HIT" {
		t.Fatalf("second read X-Cache=%q", rr.Header().Get("X-Cache"))
	}

	rr = env.do(t, http.MethodPost, "/api/tasks", `{"title":"Pay rent"}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/api/tasks", "", "")
	if rr.Header().Get("X-Cache") != "MISS" {
		t.Fatalf("read after write X-Cache=%q", rr.Header().Get("X-Cache"))
	}
	tasks := decode[[]core.Task](t, rr)
	if len(tasks) != 1 || tasks[0].Status != core.StatusTodo || tasks[0].Priority != core.PriorityMedium {
		t.Fatalf("tasks = %+v", tasks)
	}
}

func TestReadCacheInvalidatesOnRemoteChange(t *testing.T) {
	env := newTestServer(t, nil)
	ctx := context.Background()

	rr := env.do(t, http.MethodGet, "/api/budgets", "", "")
	if got := decode[[]core.Budget](t, rr); len(got) != 0 {
		t.Fatalf("budgets = %+v", got)
	}

	if _, err := env.other.CreateBudget(ctx, core.Budget{Category: "Food", Limit: 300}); err != nil {
		t.Fatalf("create budget elsewhere: %v", err)
	}

	rr = env.do(t, http.MethodGet, "/api/budgets", "", "")
	if got := decode[[]core.Budget](t, rr); len(got) != 0 {
		t.Fatalf("expected cached empty list before the event, got %+v", got)
	}

	env.srv.HandleChange(*amqp.NewChangeEvent(services.ResourceBudgets, amqp.OpCreate, "Food", ""))

	rr = env.do(t, http.MethodGet, "/api/budgets", "", "")
	if got := decode[[]core.Budget](t, rr); len(got) != 1 || got[0].Category != "Food" {
		t.Fatalf("budgets after event = %+v", got)
	}
}

func TestBudgetsDuplicateAndDelete(t *testing.T) {
	env := newTestServer(t, nil)

	body := `{"category":"Eating Out","limit":150}`
	if rr := env.do(t, http.MethodPost, "/api/budgets", body, ""); rr.Code != http.StatusOK {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	rr := env.do(t, http.MethodPost, "/api/budgets", body, "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("duplicate status=%d", rr.Code)
	}

	rr = env.do(t, http.MethodPut, "/api/budgets", `{"category":"Eating Out","limit":200}`, "")
	if got := decode[core.Budget](t, rr); got.Limit != 200 {
		t.Fatalf("upsert = %+v", got)
	}

	rr = env.do(t, http.MethodDelete, "/api/budgets/Eating%20Out", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("delete status=%d", rr.Code)
	}
	rr = env.do(t, http.MethodGet, "/api/budgets", "", "")
	if got := decode[[]core.Budget](t, rr); len(got) != 0 {
		t.Fatalf("budgets = %+v", got)
	}
}

func TestBudgetPutWithoutColorKeepsColor(t *testing.T) {
	env := newTestServer(t, nil)

	rr := env.do(t, http.MethodPost, "/api/budgets", `{"category":"Food","limit":100,"color":"#ff0000"}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	rr = env.do(t, http.MethodPut, "/api/budgets", `{"category":"Food","limit":250}`, "")
	if got := decode[core.Budget](t, rr); got.Limit != 250 || got.Color != "#ff0000" {
		t.Fatalf("upsert = %+v", got)
	}
	rr = env.do(t, http.MethodGet, "/api/budgets", "", "")
	got := decode[[]core.Budget](t, rr)
	if len(got) != 1 || got[0].Color != "#ff0000" || got[0].Limit != 250 {
		t.Fatalf("budgets = %+v", got)
	}

	if rr := env.do(t, http.MethodPut, "/api/budgets", `[1,2]`, ""); rr.Code != http.StatusBadRequest {
		t.Fatalf("array body status=%d", rr.Code)
	}
}

func TestCardUpdatesDisabledByDefault(t *testing.T) {
	env := newTestServer(t, nil)

	rr := env.do(t, http.MethodPost, "/api/cards",
		`{"bankName":"Bank","holder":"Ada","type":"debit","number":"4111 1111 1111 1234","limit":500}`, "")
	if rr.Code != http.StatusOK {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	card := decode[core.Card](t, rr)
	if card.Number != "1234" || card.Limit != nil {
		t.Fatalf("card = %+v", card)
	}

	rr = env.do(t, http.MethodPut, "/api/cards/"+jsonNumber(card.ID), `{"isFrozen":true}`, "")
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("update status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func TestUserScopedRoutesRequireSession(t *testing.T) {
	env := newTestServer(t, nil)

	for _, path := range []string{"/api/categories", "/api/task-categories", "/api/habits"} {
		rr := env.do(t, http.MethodGet, path, "", "")
		if rr.Code != http.StatusUnauthorized {
			t.Fatalf("%s status=%d", path, rr.Code)
		}
		if got := errorOf(t, rr); got != "Unauthorized" {
			t.Errorf("%s error = %q", path, got)
		}
	}

	rr := env.do(t, http.MethodGet, "/api/categories", "", "not-a-jwt")
	if rr.Code != http.StatusUnauthorized {
		t.Fatalf("bad token status=%d", rr.Code)
	}
}

func TestRequireAuthAllCoversSharedRoutes(t *testing.T) {
	env := newTestServer(t, func(o *Options) { o.RequireAuthAll = true })

	if rr := env.do(t, http.MethodGet, "/api/transactions", "", ""); rr.Code != http.StatusUnauthorized {
		t.Fatalf("anonymous status=%d", rr.Code)
	}
	if rr := env.do(t, http.MethodGet, "/api/transactions", "", env.token); rr.Code != http.StatusOK {
		t.Fatalf("authenticated status=%d", rr.Code)
	}
}

func TestTaskCategoriesConflict(t *testing.T) {
	env := newTestServer(t, nil)

	body := `{"name":"Errands","color":"#ff0000"}`
	rr := env.do(t, http.MethodPost, "/api/task-categories", body, env.token)
	if rr.Code != http.StatusOK {
		t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
	}
	rr = env.do(t, http.MethodPost, "/api/task-categories", body, env.token)
	if rr.Code != http.StatusConflict {
		t.Fatalf("duplicate status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/api/task-categories", "", env.token)
	if got := decode[[]core.TaskCategory](t, rr); len(got) != 1 {
		t.Fatalf("list = %+v", got)
	}
}

func TestHabitLogAndStats(t *testing.T) {
	env := newTestServer(t, nil)

	rr := env.do(t, http.MethodPost, "/api/habits",
		`{"title":"Read","startDate":"2024-01-01","frequency":"daily","goalTarget":1}`, env.token)
	if rr.Code != http.StatusOK {
		t.Fatalf("create habit status=%d body=%s", rr.Code, rr.Body.String())
	}
	habit := decode[core.Habit](t, rr)

	logBody := `{"habitId":` + jsonNumber(habit.ID) + `,"date":"2024-01-02","completedValue":1}`
	if rr := env.do(t, http.MethodPost, "/api/habits/log", logBody, env.token); rr.Code != http.StatusOK {
		t.Fatalf("log status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/api/habits/stats?startDate=2024-01-01&endDate=2024-01-03", "", env.token)
	if rr.Code != http.StatusOK {
		t.Fatalf("stats status=%d body=%s", rr.Code, rr.Body.String())
	}
	stats := decode[services.HabitStats](t, rr)
	if len(stats.DailyStats) != 3 || len(stats.Logs) != 1 || len(stats.Habits) != 1 {
		t.Fatalf("stats = %+v", stats)
	}

	rr = env.do(t, http.MethodGet, "/api/habits/stats?startDate=2024-01-01", "", env.token)
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("missing endDate status=%d", rr.Code)
	}

	rr = env.do(t, http.MethodDelete, "/api/habits/"+jsonNumber(habit.ID), "", env.token)
	if rr.Code != http.StatusOK {
		t.Fatalf("archive status=%d", rr.Code)
	}
	rr = env.do(t, http.MethodGet, "/api/habits", "", env.token)
	habits := decode[[]core.Habit](t, rr)
	if len(habits) != 1 || !habits[0].Archived() {
		t.Fatalf("habits after archive = %+v", habits)
	}
}

func TestSetupAndViews(t *testing.T) {
	env := newTestServer(t, nil)

	rr := env.do(t, http.MethodGet, "/api/setup", "", "")
	if status := decode[services.SetupStatus](t, rr); status.Initialized || len(status.Missing) != len(core.DefaultBudgets) {
		t.Fatalf("status before init = %+v", status)
	}

	rr = env.do(t, http.MethodPost, "/api/setup", "", "")
	if status := decode[services.SetupStatus](t, rr); !status.Initialized {
		t.Fatalf("status after init = %+v", status)
	}

	rr = env.do(t, http.MethodGet, "/api/setup", "", "")
	if status := decode[services.SetupStatus](t, rr); !status.Initialized {
		t.Fatalf("setup served stale after init: %+v", status)
	}

	rr = env.do(t, http.MethodGet, "/api/views/budgets", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("budget view status=%d body=%s", rr.Code, rr.Body.String())
	}

	rr = env.do(t, http.MethodGet, "/api/views/expenses?range=week&date=2024-03-06", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("expense view status=%d body=%s", rr.Code, rr.Body.String())
	}
	if buckets := decode[[]map[string]any](t, rr); len(buckets) != 7 {
		t.Fatalf("week buckets = %d", len(buckets))
	}

	rr = env.do(t, http.MethodGet, "/api/views/expenses?range=decade", "", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("bad range status=%d", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/api/views/tasks?show=completed", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("task view status=%d", rr.Code)
	}
}

func TestExportSheets(t *testing.T) {
	env := newTestServer(t, nil)

	for _, body := range []string{
		`{"name":"Salary","category":"Work","date":"2023-12-28","amount":2000,"type":"income"}`,
		`{"name":"Rent","category":"Bills","date":"2024-01-01","amount":800,"type":"expense"}`,
	} {
		if rr := env.do(t, http.MethodPost, "/api/transactions", body, ""); rr.Code != http.StatusOK {
			t.Fatalf("create status=%d body=%s", rr.Code, rr.Body.String())
		}
	}

	rr := env.do(t, http.MethodPost, "/api/export/sheets", "", "")
	if rr.Code != http.StatusOK {
		t.Fatalf("export status=%d body=%s", rr.Code, rr.Body.String())
	}
	res := decode[sheets.Result](t, rr)
	if res.Rows != 2 {
		t.Fatalf("result = %+v", res)
	}
	if _, ok := env.sheets.Rows(sheets.YearPrefixedName("Transactions", 2024)); !ok {
		t.Fatalf("missing 2024 sheet, have %v", env.sheets.Sheets())
	}
}

func TestExportRouteAbsentWithoutExporter(t *testing.T) {
	env := newTestServer(t, func(o *Options) { o.Exporter = nil })

	rr := env.do(t, http.MethodPost, "/api/export/sheets", "", "")
	if rr.Code != http.StatusNotFound {
		t.Fatalf("status=%d", rr.Code)
	}
}

func TestMutationsAreRateLimited(t *testing.T) {
	env := newTestServer(t, func(o *Options) { o.RateLimitPerMinute = 2 })

	body := `{"title":"t"}`
	for i := 0; i < 2; i++ {
		if rr := env.do(t, http.MethodPost, "/api/tasks", body, ""); rr.Code != http.StatusOK {
			t.Fatalf("request %d status=%d", i+1, rr.Code)
		}
	}
	rr := env.do(t, http.MethodPost, "/api/tasks", body, "")
	if rr.Code != http.StatusTooManyRequests {
		t.Fatalf("third request status=%d", rr.Code)
	}
	if rr.Header().Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}

	if rr := env.do(t, http.MethodGet, "/api/tasks", "", ""); rr.Code != http.StatusOK {
		t.Fatalf("reads are not limited, status=%d", rr.Code)
	}
}

func TestSecurityHeadersAndProbeBlocking(t *testing.T) {
	env := newTestServer(t, nil)

	rr := env.do(t, http.MethodGet, "/api/tasks", "", "")
	if rr.Header().Get("X-Content-Type-Options") != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", rr.Header().Get("X-Content-Type-Options"))
	}
	if rr.Header().Get("Cache-Control") != "no-store" {
		t.Errorf("Cache-Control = %q", rr.Header().Get("Cache-Control"))
	}
	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("missing X-Request-ID")
	}

	rr = env.do(t, http.MethodGet, "/wp-admin/setup.php", "", "")
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("probe status=%d", rr.Code)
	}

	rr = env.do(t, http.MethodGet, "/api/unknown", "", "")
	if rr.Code != http.StatusNotFound || errorOf(t, rr) != "Not found" {
		t.Fatalf("unknown route status=%d body=%s", rr.Code, rr.Body.String())
	}
}

func jsonNumber(id int64) string {
	data, _ := json.Marshal(id)
	return string(data)
}
