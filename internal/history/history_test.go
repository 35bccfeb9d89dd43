package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/tkjaer/epinger/internal/shared"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "history.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func testRun(id string, started time.Time) *shared.RunResult {
	ok := shared.Summarize("ok-host", []shared.AttemptOutcome{
		shared.Success(10*time.Millisecond, "192.0.2.1"),
		shared.Success(20*time.Millisecond, "192.0.2.1"),
	})
	dead := shared.Summarize("dead-host", []shared.AttemptOutcome{
		shared.Timeout("192.0.2.2"),
		shared.Timeout("192.0.2.2"),
	})
	return &shared.RunResult{
		ID:      id,
		Started: started,
		Config:  shared.RunConfig{NumRequests: 2, RequestTimeout: 2, MaxThreads: 50},
		Hosts:   []shared.HostResult{ok, dead},
		Elapsed: 1234 * time.Millisecond,
	}
}

func TestOpen_CreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "history.db")
	db, err := Open(path)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(path); err != nil {
		t.Errorf("database file not created: %v", err)
	}

	// Reopening an existing database keeps the schema
	db, err = Open(path)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	db.Close()
}

func TestCompleteRun_StoresHosts(t *testing.T) {
	db := openTestDB(t)
	started := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	run := testRun("run-1", started)

	db.CompleteHost(0, run.Hosts[0])
	if err := db.CompleteRun(run); err != nil {
		t.Fatalf("CompleteRun() error = %v", err)
	}

	runs, err := db.Runs(10)
	if err != nil {
		t.Fatalf("Runs() error = %v", err)
	}
	if len(runs) != 1 {
		t.Fatalf("got %d runs, want 1", len(runs))
	}
	if runs[0].ID != "run-1" || !runs[0].Started.Equal(started) || runs[0].Hosts != 2 {
		t.Errorf("run = %+v", runs[0])
	}
	if runs[0].ElapsedMs != 1234 {
		t.Errorf("ElapsedMs = %v, want 1234", runs[0].ElapsedMs)
	}

	hosts, err := db.Hosts("run-1")
	if err != nil {
		t.Fatalf("Hosts() error = %v", err)
	}
	if len(hosts) != 2 {
		t.Fatalf("got %d hosts, want 2", len(hosts))
	}

	tests := []struct {
		row      HostRow
		host     string
		received int
		loss     float64
		avgValid bool
		avg      float64
	}{
		{hosts[0], "ok-host", 2, 0, true, 15},
		{hosts[1], "dead-host", 0, 100, false, 0},
	}
	for i, tt := range tests {
		if tt.row.Index != i || tt.row.Host != tt.host {
			t.Errorf("host %d = %s at index %d, want %s", i, tt.row.Host, tt.row.Index, tt.host)
		}
		if tt.row.Received != tt.received || tt.row.LossPct != tt.loss {
			t.Errorf("%s received/loss = %d/%v, want %d/%v", tt.host, tt.row.Received, tt.row.LossPct, tt.received, tt.loss)
		}
		if tt.row.AvgMs.Valid != tt.avgValid || tt.row.AvgMs.Float64 != tt.avg {
			t.Errorf("%s avg = %+v, want valid=%v %v", tt.host, tt.row.AvgMs, tt.avgValid, tt.avg)
		}
	}
}

func TestRuns_NewestFirst(t *testing.T) {
	db := openTestDB(t)
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	for i, id := range []string{"a", "b", "c"} {
		if err := db.SaveRun(testRun(id, base.Add(time.Duration(i)*time.Minute))); err != nil {
			t.Fatalf("SaveRun(%s) error = %v", id, err)
		}
	}

	runs, err := db.Runs(2)
	if err != nil {
		t.Fatalf("Runs() error = %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "c" || runs[1].ID != "b" {
		t.Errorf("Runs(2) = %+v, want c then b", runs)
	}
}

func TestSaveRun_DuplicateIDRollsBack(t *testing.T) {
	db := openTestDB(t)
	run := testRun("dup", time.Now())
	if err := db.SaveRun(run); err != nil {
		t.Fatalf("SaveRun() error = %v", err)
	}
	if err := db.SaveRun(run); err == nil {
		t.Fatal("SaveRun() expected error for duplicate run id")
	}

	hosts, err := db.Hosts("dup")
	if err != nil {
		t.Fatalf("Hosts() error = %v", err)
	}
	if len(hosts) != 2 {
		t.Errorf("got %d hosts after failed insert, want 2", len(hosts))
	}
}

func TestOpen_BadPath(t *testing.T) {
	path := filepath.Join(t.TempDir(), "missing", "history.db")
	if _, err := Open(path); err == nil {
		t.Error("Open() expected error for missing directory")
	}
}
