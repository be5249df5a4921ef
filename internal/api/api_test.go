package api

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/starford/chronogrid/internal/gallery"
	"github.com/starford/chronogrid/internal/storage"
	"github.com/starford/chronogrid/internal/testutil"
)

// Catalogued source pane, two columns, newest first:
//
//	0 sep 2023-02 | 1 c
//	2 sep 2023-01 | 3 b
//	4 a           | 5 pad
//	6 sep 2022-12 | 7 e
var (
	scenarioIDs   = []string{"a", "b", "c", "d", "e"}
	scenarioDates = []string{"2023-01-05", "2023-01-20", "2023-02-01", "", "2022-12-15"}
)

// testEnv sets up a catalog, gallery service, libraries, and router for testing.
// An empty authToken means disabled mode.
func testEnv(t *testing.T, authToken string) (*gallery.Service, http.Handler, string) {
	t.Helper()
	return testEnvWithSSE(t, authToken, nil)
}

func testEnvWithSSE(t *testing.T, authToken string, sseHandler http.Handler) (*gallery.Service, http.Handler, string) {
	t.Helper()
	return seededEnv(t, authToken, sseHandler, scenarioIDs, scenarioDates)
}

func seededEnv(t *testing.T, authToken string, sseHandler http.Handler, ids, dates []string) (*gallery.Service, http.Handler, string) {
	t.Helper()
	db := testutil.TestDB(t)
	testutil.Seed(t, db, gallery.PaneSource, ids, dates)

	svc := gallery.NewService(db,
		gallery.WithClock(clockwork.NewFakeClock()),
		gallery.WithLogger(testutil.Logger()),
		gallery.WithLayout(2, 100),
	)
	t.Cleanup(svc.Close)
	if err := svc.ReloadAll(context.Background()); err != nil {
		t.Fatal(err)
	}

	srcDir, src := testutil.TestLibrary(t)
	_, dst := testutil.TestLibrary(t)
	libraries := map[string]storage.Provider{gallery.PaneSource: src, gallery.PaneDestination: dst}

	router := NewRouter(svc, libraries, authToken != "", authToken, sseHandler)
	return svc, router, srcDir
}

func do(t *testing.T, router http.Handler, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if s, ok := body.(string); ok {
			buf.WriteString(s)
		} else if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatal(err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func jumpTo(year, month int) JumpRequest {
	return JumpRequest{Year: &year, Month: month}
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.Unmarshal(w.Body.Bytes(), &v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
	return v
}

func TestCalendar(t *testing.T) {
	_, router, _ := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/panes/source/calendar", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	cal := decode[Calendar](t, w)
	if len(cal.Years) != 2 || cal.Years[0].Year != 2023 || cal.Current != "2023-01" {
		t.Errorf("calendar = %+v", cal)
	}
}

func TestUnknownPane(t *testing.T) {
	_, router, _ := testEnv(t, "")
	w := do(t, router, http.MethodGet, "/panes/trash/position", nil)
	if w.Code != http.StatusNotFound {
		t.Errorf("unknown pane = %d, want 404", w.Code)
	}
}

func TestItems(t *testing.T) {
	_, router, _ := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/panes/source/items?offset=2&limit=3", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	page := decode[Page](t, w)
	if page.Total != 8 || page.Columns != 2 || len(page.Items) != 3 {
		t.Fatalf("page = %+v", page)
	}
	if !page.Items[0].IsSeparator() || page.Items[0].Label != "January 2023" || page.Items[1].ID != "b" {
		t.Errorf("items = %+v", page.Items)
	}

	for _, q := range []string{"limit=5000", "offset=-1", "limit=abc"} {
		if w := do(t, router, http.MethodGet, "/panes/source/items?"+q, nil); w.Code != http.StatusBadRequest {
			t.Errorf("%s = %d, want 400", q, w.Code)
		}
	}
}

func TestJump(t *testing.T) {
	_, router, _ := testEnv(t, "")

	w := do(t, router, http.MethodPost, "/panes/source/jump", jumpTo(2022, 12))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	mv := decode[Move](t, w)
	if mv.Command.Row != 3 || mv.Command.Align != "start" || mv.Position.Label != "December 2022" {
		t.Errorf("move = %+v", mv)
	}

	if w := do(t, router, http.MethodPost, "/panes/source/jump", jumpTo(2021, 5)); w.Code != http.StatusNotFound {
		t.Errorf("missing month = %d, want 404", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/panes/source/jump", jumpTo(2023, 13)); w.Code != http.StatusBadRequest {
		t.Errorf("month 13 = %d, want 400", w.Code)
	}
	if w := do(t, router, http.MethodPost, "/panes/source/jump", "{not json"); w.Code != http.StatusBadRequest {
		t.Errorf("bad json = %d, want 400", w.Code)
	}
}

func TestJump_YearZero(t *testing.T) {
	_, router, _ := seededEnv(t, "", nil, []string{"old", "new"}, []string{"0000-03-01", "2001-07-04"})

	w := do(t, router, http.MethodPost, "/panes/source/jump", jumpTo(0, 3))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if mv := decode[Move](t, w); mv.Position.YearMonth != "0000-03" {
		t.Errorf("move = %+v", mv)
	}

	for name, body := range map[string]string{
		"missing year": `{"month": 3}`,
		"null year":    `{"year": null, "month": 3}`,
		"negative":     `{"year": -1, "month": 3}`,
		"five digits":  `{"year": 10000, "month": 3}`,
	} {
		if w := do(t, router, http.MethodPost, "/panes/source/jump", body); w.Code != http.StatusBadRequest {
			t.Errorf("%s = %d, want 400", name, w.Code)
		}
	}
}

func TestPreviousNext(t *testing.T) {
	_, router, _ := testEnv(t, "")
	do(t, router, http.MethodPost, "/panes/source/jump", jumpTo(2022, 12))

	if w := do(t, router, http.MethodPost, "/panes/source/previous", nil); w.Code != http.StatusConflict {
		t.Errorf("previous at start = %d, want 409", w.Code)
	}
	w := do(t, router, http.MethodPost, "/panes/source/next", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("next = %d", w.Code)
	}
	if mv := decode[Move](t, w); mv.Position.YearMonth != "2023-01" || mv.Command.Row != 1 {
		t.Errorf("move = %+v", mv)
	}
}

func TestSetColumns(t *testing.T) {
	_, router, _ := testEnv(t, "")

	if w := do(t, router, http.MethodPut, "/panes/source/columns", ColumnsRequest{Columns: 0}); w.Code != http.StatusBadRequest {
		t.Errorf("zero columns = %d, want 400", w.Code)
	}
	w := do(t, router, http.MethodPut, "/panes/source/columns", ColumnsRequest{Columns: 3, RowHeight: 120})
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, body = %s", w.Code, w.Body.String())
	}
	if pos := decode[Position](t, w); pos.Columns != 3 || pos.RowHeight != 120 {
		t.Errorf("position = %+v", pos)
	}
}

func TestScroll(t *testing.T) {
	_, router, _ := testEnv(t, "")

	if w := do(t, router, http.MethodPost, "/panes/source/scroll", map[string]any{}); w.Code != http.StatusBadRequest {
		t.Errorf("missing offset = %d, want 400", w.Code)
	}
	w := do(t, router, http.MethodPost, "/panes/source/scroll", map[string]float64{"offset": 650})
	if w.Code != http.StatusAccepted {
		t.Fatalf("status = %d", w.Code)
	}
	// The throttle window is still open on the fake clock.
	if pos := decode[Position](t, w); pos.YearMonth != "2023-01" {
		t.Errorf("position = %+v", pos)
	}
}

func TestDateFor(t *testing.T) {
	_, router, _ := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/panes/source/media/a", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	if d := decode[DateResponse](t, w); d.Date != "2023-01-05" {
		t.Errorf("date = %+v", d)
	}
	if w := do(t, router, http.MethodGet, "/panes/source/media/d", nil); w.Code != http.StatusNotFound {
		t.Errorf("undated = %d, want 404", w.Code)
	}
}

func TestSearchEndpoint(t *testing.T) {
	_, router, _ := testEnv(t, "")

	if w := do(t, router, http.MethodGet, "/panes/source/search", nil); w.Code != http.StatusBadRequest {
		t.Errorf("search no query = %d, want 400", w.Code)
	}
	w := do(t, router, http.MethodGet, "/panes/source/search?q=c&limit=5", nil)
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	res := decode[SearchResponse](t, w)
	if len(res.Results) != 1 || res.Results[0].ID != "c" || res.Results[0].YearMonth != "2023-02" {
		t.Errorf("results = %+v", res.Results)
	}
}

func TestReloadAndSummaries(t *testing.T) {
	_, router, _ := testEnv(t, "")

	if w := do(t, router, http.MethodPost, "/panes/destination/reload", nil); w.Code != http.StatusOK {
		t.Errorf("reload = %d", w.Code)
	}
	w := do(t, router, http.MethodGet, "/panes", nil)
	sums := decode[[]gallery.Summary](t, w)
	if len(sums) != 2 || sums[0].Dated != 4 || sums[1].Media != 0 {
		t.Errorf("summaries = %+v", sums)
	}
}

func TestServeFile(t *testing.T) {
	_, router, dir := testEnv(t, "")
	_ = os.MkdirAll(filepath.Join(dir, "2023"), 0o755)
	_ = os.WriteFile(filepath.Join(dir, "2023", "beach.jpg"), []byte("fake-jpeg"), 0o644)
	_ = os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("x"), 0o644)

	w := do(t, router, http.MethodGet, "/panes/source/files/2023/beach.jpg", nil)
	if w.Code != http.StatusOK || w.Body.String() != "fake-jpeg" {
		t.Errorf("serve = %d %q", w.Code, w.Body.String())
	}
	if w := do(t, router, http.MethodGet, "/panes/source/files/notes.txt", nil); w.Code != http.StatusNotFound {
		t.Errorf("non-media = %d, want 404", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/panes/source/files/..%2F..%2Fetc%2Fpasswd.jpg", nil); w.Code != http.StatusNotFound {
		t.Errorf("traversal = %d, want 404", w.Code)
	}
	if w := do(t, router, http.MethodGet, "/panes/trash/files/a.jpg", nil); w.Code != http.StatusNotFound {
		t.Errorf("unknown pane = %d, want 404", w.Code)
	}
}

func TestAuthMiddleware_ValidToken(t *testing.T) {
	_, router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/panes/source/position", nil)
	req.Header.Set("Authorization", "Bearer secret123")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Errorf("authed = %d, want 200", w.Code)
	}
}

func TestAuthMiddleware_MissingToken(t *testing.T) {
	_, router, _ := testEnv(t, "secret123")

	w := do(t, router, http.MethodGet, "/panes/source/position", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("unauthed = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_WrongToken(t *testing.T) {
	_, router, _ := testEnv(t, "secret123")

	req := httptest.NewRequest(http.MethodGet, "/panes/source/position", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("wrong token = %d, want 401", w.Code)
	}
}

func TestAuthMiddleware_Disabled(t *testing.T) {
	_, router, _ := testEnv(t, "")

	w := do(t, router, http.MethodGet, "/panes/source/position", nil)
	if w.Code != http.StatusOK {
		t.Errorf("no auth = %d, want 200", w.Code)
	}
}

// SSE endpoint auth tests.

// blockingSSE writes headers and blocks until the request context is done.
var blockingSSE = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/event-stream")
	w.WriteHeader(http.StatusOK)
	if f, ok := w.(http.Flusher); ok {
		f.Flush()
	}
	<-r.Context().Done()
})

func TestSSEEvents_AuthProtected(t *testing.T) {
	_, router, _ := testEnvWithSSE(t, "secret", blockingSSE)

	w := do(t, router, http.MethodGet, "/events", nil)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("SSE no auth = %d, want 401", w.Code)
	}
}

func TestSSEEvents_AuthDisabled(t *testing.T) {
	_, router, _ := testEnvWithSSE(t, "", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE should not require auth when disabled")
	}
}

func TestSSEEvents_ValidToken(t *testing.T) {
	_, router, _ := testEnvWithSSE(t, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events", nil).WithContext(ctx)
	req.Header.Set("Authorization", "Bearer tok")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("SSE with valid token should not 401")
	}
}

func TestAuthMiddleware_QueryToken(t *testing.T) {
	_, router, _ := testEnvWithSSE(t, "tok", blockingSSE)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/events?access_token=tok", nil).WithContext(ctx)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code == http.StatusUnauthorized {
		t.Error("EventSource query token should be accepted")
	}

	req = httptest.NewRequest(http.MethodPost, "/panes/source/next?access_token=tok", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("query token on POST = %d, want 401", w.Code)
	}

	req = httptest.NewRequest(http.MethodGet, "/panes/source/position?access_token=tok", nil)
	req.Header.Set("Authorization", "Bearer wrong")
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("header must win over query = %d, want 401", w.Code)
	}
}
