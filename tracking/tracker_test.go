package tracking

import (
	"path/filepath"
	"testing"
)

func TestSQLiteRunLifecycle(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracking.db")
	recorder, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer recorder.Close()

	runID, err := recorder.StartRun(map[string]string{"ml stage": "create model"})
	if err != nil {
		t.Fatalf("start run failed: %v", err)
	}
	if runID == 0 {
		t.Fatal("expected non-zero run id")
	}

	if err := recorder.LogMetric(runID, "mean_squared_error", 0.1234); err != nil {
		t.Fatalf("log metric failed: %v", err)
	}
	if err := recorder.EndRun(runID, "finished"); err != nil {
		t.Fatalf("end run failed: %v", err)
	}

	var status string
	if err := recorder.db.QueryRow(`SELECT status FROM runs WHERE id = ?`, runID).Scan(&status); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if status != "finished" {
		t.Fatalf("got status %q want finished", status)
	}

	var value float64
	if err := recorder.db.QueryRow(`SELECT value FROM run_metrics WHERE run_id = ?`, runID).Scan(&value); err != nil {
		t.Fatalf("query failed: %v", err)
	}
	if value != 0.1234 {
		t.Fatalf("got metric %v want 0.1234", value)
	}
}

func TestSecondRunGetsNewID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tracking.db")
	recorder, err := OpenSQLite(path)
	if err != nil {
		t.Fatalf("open failed: %v", err)
	}
	defer recorder.Close()

	first, _ := recorder.StartRun(nil)
	second, _ := recorder.StartRun(nil)
	if second <= first {
		t.Fatalf("expected increasing run ids, got %d then %d", first, second)
	}
}
