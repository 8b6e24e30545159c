package dashboard

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/zulandar/switchyard/internal/db"
	"github.com/zulandar/switchyard/internal/models"
	"github.com/zulandar/switchyard/internal/notify"
	"github.com/zulandar/switchyard/internal/project"
	"github.com/zulandar/switchyard/internal/task"
	"github.com/zulandar/switchyard/internal/workflow"
	"gorm.io/gorm"
)

type recorder struct{ got []notify.Message }

func (r *recorder) Notify(_ context.Context, msg notify.Message) error {
	r.got = append(r.got, msg)
	return nil
}

func testDB(t *testing.T) *gorm.DB {
	t.Helper()
	gdb, err := db.OpenSQLite(filepath.Join(t.TempDir(), "sy.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := db.AutoMigrate(gdb); err != nil {
		t.Fatalf("migrate: %v", err)
	}
	t.Cleanup(func() { db.Close(gdb) })
	return gdb
}

func setupTestRouter(t *testing.T) (*gin.Engine, *gorm.DB, *models.Project, *recorder) {
	t.Helper()
	gdb := testDB(t)
	p, err := project.Create(context.Background(), gdb, project.CreateOpts{Name: "Alpha"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	rec := &recorder{}
	return newRouter(gdb, rec), gdb, p, rec
}

func do(router *gin.Engine, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestStart_NilDB(t *testing.T) {
	err := Start(context.Background(), StartOpts{DB: nil})
	if err == nil {
		t.Fatal("expected error for nil db")
	}
	if !strings.Contains(err.Error(), "db is required") {
		t.Errorf("error = %q, want to contain %q", err.Error(), "db is required")
	}
}

func TestStart_ShutsDownOnCancel(t *testing.T) {
	gdb := testDB(t)
	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	var out strings.Builder
	go func() { errCh <- Start(ctx, StartOpts{DB: gdb, Port: 18000 + int(time.Now().UnixNano()%1000), Out: &out}) }()

	time.Sleep(100 * time.Millisecond)
	cancel()
	select {
	case err := <-errCh:
		if err != nil {
			t.Errorf("Start returned %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}

func TestHealthz(t *testing.T) {
	router, _, _, _ := setupTestRouter(t)
	w := do(router, http.MethodGet, "/healthz", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("GET /healthz = %d %s", w.Code, w.Body.String())
	}
}

func TestProjectListAndDetail(t *testing.T) {
	router, _, p, _ := setupTestRouter(t)

	w := do(router, http.MethodGet, "/api/projects", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	var list []projectView
	decode(t, w, &list)
	if len(list) != 1 || list[0].ID != p.ID || list[0].CustomColumns {
		t.Errorf("list = %+v", list)
	}
	if list[0].Columns != nil {
		t.Error("list view should not embed columns")
	}

	w = do(router, http.MethodGet, "/api/projects/"+p.ID, "")
	var detail projectView
	decode(t, w, &detail)
	if len(detail.Columns) != 7 {
		t.Errorf("detail columns = %d, want 7 defaults", len(detail.Columns))
	}

	w = do(router, http.MethodGet, "/api/projects/missing", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("missing project status = %d, want 404", w.Code)
	}
}

func TestColumnsAndStatusOptions(t *testing.T) {
	router, _, p, _ := setupTestRouter(t)

	w := do(router, http.MethodGet, "/api/projects/"+p.ID+"/columns", "")
	var cols []workflow.Column
	decode(t, w, &cols)
	if len(cols) != 7 || cols[0].ID != "inbox" {
		t.Errorf("columns = %+v", cols)
	}

	w = do(router, http.MethodGet, "/api/projects/"+p.ID+"/status-options", "")
	var opts []workflow.StatusOption
	decode(t, w, &opts)
	if len(opts) != 7 || opts[5].Value != "done" || opts[5].Label != "Done" {
		t.Errorf("options = %+v", opts)
	}
	if !strings.Contains(w.Body.String(), `"value":"inbox"`) {
		t.Errorf("body = %s, want value/label keys", w.Body.String())
	}
}

func TestSetColumns_RemapsAndNotifies(t *testing.T) {
	router, gdb, p, rec := setupTestRouter(t)
	tk, err := task.Create(gdb, task.CreateOpts{ProjectID: p.ID, Title: "T"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := task.Move(gdb, tk.ID, "review"); err != nil {
		t.Fatal(err)
	}

	body := `[{"id":"ship","label":"Ship","color":"green","position":1,"category":"completed"},
	          {"id":"next","label":"Next","color":"blue","position":0,"category":"unstarted"}]`
	w := do(router, http.MethodPut, "/api/projects/"+p.ID+"/columns", body)
	if w.Code != http.StatusOK {
		t.Fatalf("PUT = %d %s", w.Code, w.Body.String())
	}
	var resp updateView
	decode(t, w, &resp)
	if len(resp.Columns) != 2 || resp.Columns[0].ID != "next" {
		t.Errorf("columns = %+v", resp.Columns)
	}
	if len(resp.Remapped) != 1 || resp.Remapped[0].From != "review" || resp.Remapped[0].To != "next" {
		t.Errorf("remapped = %+v", resp.Remapped)
	}
	if len(rec.got) != 1 || rec.got[0].Title != "Board changed: Alpha" {
		t.Errorf("notifications = %+v", rec.got)
	}

	got, _ := task.Get(gdb, tk.ID)
	if got.Status != "next" {
		t.Errorf("task status = %q, want next", got.Status)
	}
}

func TestSetColumns_NullResets(t *testing.T) {
	router, gdb, p, _ := setupTestRouter(t)
	if _, _, err := project.Update(context.Background(), gdb, p.ID, project.UpdateOpts{Columns: project.SetColumns([]workflow.Column{
		{ID: "a", Label: "A", Color: "blue", Category: workflow.CategoryStarted},
		{ID: "b", Label: "B", Color: "green", Category: workflow.CategoryCompleted},
	})}); err != nil {
		t.Fatal(err)
	}

	w := do(router, http.MethodPut, "/api/projects/"+p.ID+"/columns", "null")
	if w.Code != http.StatusOK {
		t.Fatalf("PUT null = %d %s", w.Code, w.Body.String())
	}
	var resp updateView
	decode(t, w, &resp)
	if len(resp.Columns) != 7 {
		t.Errorf("columns after reset = %d, want 7", len(resp.Columns))
	}
}

func TestSetColumns_ValidationError(t *testing.T) {
	router, _, p, rec := setupTestRouter(t)

	tests := []struct {
		name     string
		body     string
		wantKind string
		wantMsg  string
	}{
		{"no completed", `[{"id":"a","label":"A","color":"blue","position":0,"category":"started"}]`, "NoCompletedColumn", "must have at least one completed column"},
		{"empty", `[]`, "EmptyColumnSet", "must have at least one column"},
		{"duplicate", `[{"id":"a","label":"A","color":"b","category":"started"},{"id":"a","label":"B","color":"g","category":"completed"}]`, "DuplicateId", "used more than once"},
		{"bad category", `[{"id":"a","label":"A","color":"b","category":"doing"},{"id":"z","label":"Z","color":"g","category":"completed"}]`, "InvalidCategory", "invalid category"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(router, http.MethodPut, "/api/projects/"+p.ID+"/columns", tt.body)
			if w.Code != http.StatusUnprocessableEntity {
				t.Fatalf("status = %d %s, want 422", w.Code, w.Body.String())
			}
			var resp map[string]string
			decode(t, w, &resp)
			if resp["kind"] != tt.wantKind {
				t.Errorf("kind = %q, want %q", resp["kind"], tt.wantKind)
			}
			if !strings.Contains(resp["error"], tt.wantMsg) {
				t.Errorf("error = %q, want to contain %q", resp["error"], tt.wantMsg)
			}
		})
	}
	if len(rec.got) != 0 {
		t.Errorf("notifications = %d, want 0", len(rec.got))
	}
}

func TestSetColumns_BadBodyAndMissingProject(t *testing.T) {
	router, _, p, _ := setupTestRouter(t)

	if w := do(router, http.MethodPut, "/api/projects/"+p.ID+"/columns", `{"id":"x"}`); w.Code != http.StatusBadRequest {
		t.Errorf("object body status = %d, want 400", w.Code)
	}
	if w := do(router, http.MethodPut, "/api/projects/"+p.ID+"/columns", ""); w.Code != http.StatusBadRequest {
		t.Errorf("empty body status = %d, want 400", w.Code)
	}
	if w := do(router, http.MethodPut, "/api/projects/missing/columns", "null"); w.Code != http.StatusNotFound {
		t.Errorf("missing project status = %d, want 404", w.Code)
	}
}

func TestTasksAndCompletedToday(t *testing.T) {
	router, gdb, p, _ := setupTestRouter(t)
	a, _ := task.Create(gdb, task.CreateOpts{ProjectID: p.ID, Title: "a", Priority: 1})
	b, _ := task.Create(gdb, task.CreateOpts{ProjectID: p.ID, Title: "b", Priority: 2})
	task.Move(gdb, b.ID, "done")

	w := do(router, http.MethodGet, "/api/projects/"+p.ID+"/tasks", "")
	var all []taskView
	decode(t, w, &all)
	if len(all) != 2 {
		t.Errorf("tasks = %d, want 2", len(all))
	}

	w = do(router, http.MethodGet, "/api/projects/"+p.ID+"/tasks?active=1", "")
	var active []taskView
	decode(t, w, &active)
	if len(active) != 1 || active[0].ID != a.ID || active[0].Terminal {
		t.Errorf("active = %+v", active)
	}

	w = do(router, http.MethodGet, "/api/stats/completed-today", "")
	var stats struct {
		Count int64 `json:"count"`
	}
	decode(t, w, &stats)
	if stats.Count != 1 {
		t.Errorf("completed today = %d, want 1", stats.Count)
	}

	if w := do(router, http.MethodGet, "/api/projects/missing/tasks", ""); w.Code != http.StatusNotFound {
		t.Errorf("missing project tasks status = %d, want 404", w.Code)
	}
}

func TestSSE_StreamsStatusChanges(t *testing.T) {
	router, gdb, p, _ := setupTestRouter(t)
	tk, _ := task.Create(gdb, task.CreateOpts{ProjectID: p.ID, Title: "T"})

	old := pollInterval
	pollInterval = 20 * time.Millisecond
	defer func() { pollInterval = old }()

	ctx, cancel := context.WithTimeout(context.Background(), 400*time.Millisecond)
	defer cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/events?project="+p.ID, nil).WithContext(ctx)
	w := httptest.NewRecorder()

	go func() {
		time.Sleep(50 * time.Millisecond)
		task.Move(gdb, tk.ID, "todo")
	}()
	router.ServeHTTP(w, req)

	body := w.Body.String()
	if !strings.Contains(body, "event: connected") {
		t.Errorf("body missing connected event: %q", body)
	}
	if !strings.Contains(body, "event: status") || !strings.Contains(body, `"to":"todo"`) {
		t.Errorf("body missing status event: %q", body)
	}
	if ct := w.Header().Get("Content-Type"); ct != "text/event-stream" {
		t.Errorf("Content-Type = %q", ct)
	}
}

func TestUnknownRoute_Returns404(t *testing.T) {
	router, _, _, _ := setupTestRouter(t)
	if w := do(router, http.MethodGet, "/nope", ""); w.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", w.Code)
	}
}

func TestStartOfDay(t *testing.T) {
	at := time.Date(2026, 3, 4, 15, 30, 0, 0, time.UTC)
	if got := startOfDay(at); !got.Equal(time.Date(2026, 3, 4, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("startOfDay = %v", got)
	}
}
