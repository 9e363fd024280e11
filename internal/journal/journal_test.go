package journal

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/funvibe/hintguard/internal/diagnostics"
)

func TestJournal(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "journal.db")

	j, err := Open(ctx, path)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	firstRun := j.RunID()

	v := &diagnostics.Violation{
		CallSite: "value",
		Hint:     "[]int",
		PithRepr: `[]interface {}{1, "x"}`,
		Path:     "[1]",
		Cause:    `string "x" not instance of int`,
		Seed:     1 << 63,
	}
	if err := j.Record(ctx, "ports", "a.yaml", 2, v, false); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := j.Record(ctx, "names", "b.yaml", 0, v, true); err != nil {
		t.Fatalf("Record: %v", err)
	}
	if err := j.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	j, err = Open(ctx, path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer j.Close()
	if j.RunID() == firstRun {
		t.Errorf("reopened journal reused run ID %s", firstRun)
	}

	all, err := j.Entries(ctx, "")
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(all) != 2 {
		t.Fatalf("got %d entries, want 2", len(all))
	}

	ports, err := j.Entries(ctx, "ports")
	if err != nil {
		t.Fatalf("Entries: %v", err)
	}
	if len(ports) != 1 {
		t.Fatalf("got %d ports entries, want 1", len(ports))
	}
	e := ports[0]
	if e.RunID != firstRun || e.File != "a.yaml" || e.Document != 2 || e.Warning {
		t.Errorf("entry = %+v", e)
	}
	if e.Path != "[1]" || e.Cause != v.Cause || e.Seed != v.Seed {
		t.Errorf("violation = %+v; want %+v", e.Violation, v)
	}
	if got, want := e.Message(), v.Message(); got != want {
		t.Errorf("Message() = %q; want %q", got, want)
	}
	if !all[1].Warning {
		t.Errorf("second entry should be a warning")
	}
}
