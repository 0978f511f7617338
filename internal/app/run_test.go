package app

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestRun_WithInvalidEnv_ReturnsError(t *testing.T) {
	t.Setenv("LOVENDAR_API_ENV", "staging")

	var buf bytes.Buffer
	if err := Run(&buf, []string{"sync"}); err == nil {
		t.Fatal("expected error for invalid LOVENDAR_API_ENV")
	}
}

func TestRun_SyncCommand_WithoutSession(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")

	var buf bytes.Buffer
	if err := Run(&buf, []string{"sync"}); err != nil {
		t.Fatalf("Run(sync) error = %v", err)
	}
	if !strings.Contains(buf.String(), "同期サイクルが完了しました") {
		t.Errorf("同期完了のログがない: %s", buf.String())
	}
}

func TestRun_MigrateCommand_SkipsNonSQLBackend(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")

	var buf bytes.Buffer
	if err := Run(&buf, []string{"migrate"}); err != nil {
		t.Fatalf("Run(migrate) error = %v", err)
	}
	if !strings.Contains(buf.String(), "マイグレーションをスキップしました") {
		t.Errorf("スキップのログがない: %s", buf.String())
	}
}

func TestRun_MigrateCommand_SQLite(t *testing.T) {
	t.Setenv("STORE_BACKEND", "sql")
	t.Setenv("DATABASE_URL", "sqlite://"+filepath.Join(t.TempDir(), "lovendar.db"))

	var buf bytes.Buffer
	if err := Run(&buf, []string{"migrate"}); err != nil {
		t.Fatalf("Run(migrate) error = %v", err)
	}
}

func TestRun_ExportCommand_WritesCalendar(t *testing.T) {
	t.Setenv("STORE_BACKEND", "memory")
	path := filepath.Join(t.TempDir(), "out.ics")

	var buf bytes.Buffer
	if err := Run(&buf, []string{"export", path}); err != nil {
		t.Fatalf("Run(export) error = %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("出力ファイルを読めない: %v", err)
	}
	if !strings.Contains(string(data), "BEGIN:VCALENDAR") {
		t.Errorf("出力 = %s", data)
	}
}

func TestRunHealthcheck(t *testing.T) {
	status := http.StatusOK
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/health" {
			t.Errorf("path = %s, want /health", r.URL.Path)
		}
		w.WriteHeader(status)
	}))
	defer srv.Close()

	u, err := url.Parse(srv.URL)
	if err != nil {
		t.Fatal(err)
	}

	if err := runHealthcheck(u.Port()); err != nil {
		t.Errorf("runHealthcheck error = %v", err)
	}

	status = http.StatusServiceUnavailable
	if err := runHealthcheck(u.Port()); err == nil {
		t.Error("503でエラーにならない")
	}
}
