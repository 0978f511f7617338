package cleanup

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

// mockPurger は同期履歴リポジトリのモック。
type mockPurger struct {
	calls   atomic.Int32
	before  time.Time
	deleted int64
	err     error
}

func (m *mockPurger) DeleteFinishedBefore(ctx context.Context, before time.Time) (int64, error) {
	m.calls.Add(1)
	m.before = before
	return m.deleted, m.err
}

func newTestLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))
}

// findLogField はJSONログの各行からkeyを探して値を返す。
func findLogField(t *testing.T, buf *bytes.Buffer, key string) (any, bool) {
	t.Helper()
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		var entry map[string]any
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			continue
		}
		if v, ok := entry[key]; ok {
			return v, true
		}
	}
	return nil, false
}

func TestNewCleanupJob_RetentionDays(t *testing.T) {
	tests := []struct {
		in   int
		want int
	}{
		{30, 30},
		{0, 14},
		{-1, 14},
	}
	for _, tt := range tests {
		var buf bytes.Buffer
		job := NewCleanupJob(&mockPurger{}, tt.in, newTestLogger(&buf))
		if job.RetentionDays != tt.want {
			t.Errorf("NewCleanupJob(%d).RetentionDays = %d, want %d", tt.in, job.RetentionDays, tt.want)
		}
	}
}

func TestCleanupJob_Run_UsesRetentionCutoff(t *testing.T) {
	var buf bytes.Buffer
	purger := &mockPurger{}
	job := NewCleanupJob(purger, 14, newTestLogger(&buf))
	now := time.Date(2025, 3, 15, 12, 0, 0, 0, time.UTC)
	job.now = func() time.Time { return now }

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run() がエラーを返した: %v", err)
	}

	want := time.Date(2025, 3, 1, 12, 0, 0, 0, time.UTC)
	if !purger.before.Equal(want) {
		t.Errorf("cutoff = %v, want %v", purger.before, want)
	}
}

func TestCleanupJob_Run_LogsDeletedCount(t *testing.T) {
	var buf bytes.Buffer
	job := NewCleanupJob(&mockPurger{deleted: 42}, 14, newTestLogger(&buf))

	_ = job.Run(context.Background())

	if v, ok := findLogField(t, &buf, "deleted_count"); !ok || v != float64(42) {
		t.Errorf("ログに deleted_count=42 が記録されていない。ログ出力: %s", buf.String())
	}
	if v, ok := findLogField(t, &buf, "retention_days"); !ok || v != float64(14) {
		t.Errorf("ログに retention_days=14 が記録されていない。ログ出力: %s", buf.String())
	}
	if _, ok := findLogField(t, &buf, "duration_ms"); !ok {
		t.Errorf("ログに duration_ms が記録されていない。ログ出力: %s", buf.String())
	}
}

func TestCleanupJob_Run_Idempotent_ZeroRows(t *testing.T) {
	var buf bytes.Buffer
	job := NewCleanupJob(&mockPurger{}, 14, newTestLogger(&buf))

	for i := 0; i < 2; i++ {
		if err := job.Run(context.Background()); err != nil {
			t.Fatalf("%d回目の Run() がエラーを返した: %v", i+1, err)
		}
	}
	if v, ok := findLogField(t, &buf, "deleted_count"); !ok || v != float64(0) {
		t.Errorf("0件削除時にもログに deleted_count=0 が記録されるべき。ログ出力: %s", buf.String())
	}
}

func TestCleanupJob_Run_ReturnsErrorOnFailure(t *testing.T) {
	var buf bytes.Buffer
	storeErr := errors.New("store is closed")
	job := NewCleanupJob(&mockPurger{err: storeErr}, 14, newTestLogger(&buf))

	err := job.Run(context.Background())
	if !errors.Is(err, storeErr) {
		t.Fatalf("err = %v, want %v", err, storeErr)
	}
	if !strings.Contains(buf.String(), "ERROR") {
		t.Errorf("エラー時にERRORレベルのログが記録されていない。ログ出力: %s", buf.String())
	}
}

func TestCleanupJob_Start_RunsImmediatelyAndStops(t *testing.T) {
	var buf bytes.Buffer
	purger := &mockPurger{}
	job := NewCleanupJob(purger, 14, newTestLogger(&buf))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		job.Start(ctx, time.Hour)
		close(done)
	}()

	deadline := time.After(2 * time.Second)
	for purger.calls.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("起動直後のクリーンアップが実行されなかった")
		case <-time.After(10 * time.Millisecond):
		}
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("キャンセル後にStartが戻らなかった")
	}
}
