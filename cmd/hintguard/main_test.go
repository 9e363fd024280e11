package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/funvibe/hintguard/internal/journal"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunHint(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", "a: [1, 2]\n---\nb: []\n")
	bad := writeFile(t, dir, "bad.json", `{"a": ["x"]}`)

	tests := []struct {
		name     string
		args     []string
		code     int
		contains []string
	}{
		{
			name:     "all documents pass",
			args:     []string{"-hint", "map[string][]int", good},
			code:     exitOK,
			contains: []string{"checked 2 documents: 0 violations"},
		},
		{
			name: "violation",
			args: []string{"-hint", "map[string][]int", "-j", "1", good, bad},
			code: exitViolation,
			contains: []string{
				"FAIL hint " + bad + "#0: value ",
				`as element ["a"][0] string "x" not instance of int`,
				"checked 3 documents: 1 violations",
			},
		},
		{
			name:     "bad hint",
			args:     []string{"-hint", "map[string", good},
			code:     exitSetup,
			contains: []string{"parse hint"},
		},
		{
			name:     "bad site",
			args:     []string{"-hint", "int", "-site", "door", good},
			code:     exitSetup,
			contains: []string{"unknown call site"},
		},
		{
			name:     "missing file",
			args:     []string{"-hint", "int", filepath.Join(dir, "nope.yaml")},
			code:     exitViolation,
			contains: []string{"ERROR hint", "0 violations, 0 warnings, 1 errors"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var stdout, stderr bytes.Buffer
			code := run(context.Background(), tt.args, &stdout, &stderr)
			if code != tt.code {
				t.Fatalf("exit code = %d; want %d\nstdout:\n%s\nstderr:\n%s", code, tt.code, stdout.String(), stderr.String())
			}
			out := stdout.String() + stderr.String()
			for _, want := range tt.contains {
				if !strings.Contains(out, want) {
					t.Errorf("output does not contain %q:\n%s", want, out)
				}
			}
		})
	}
}

func TestRunConfig(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "ports.yaml", "- 80\n- 443\n---\n- 80\n- http\n")
	writeFile(t, dir, "names.yaml", "name: 42\n")
	cfg := writeFile(t, dir, "hintguard.yaml", `
strategy: On
violation:
  param: warn
checks:
  - name: ports
    hint: "[]int"
    files: [ports.yaml]
  - name: names
    hint: "map[string]string"
    files: [names.yaml]
    call_site: param
`)
	db := filepath.Join(dir, "journal.db")

	var stdout, stderr bytes.Buffer
	code := run(context.Background(), []string{"-config", cfg, "-journal", db}, &stdout, &stderr)
	if code != exitViolation {
		t.Fatalf("exit code = %d; want %d\n%s%s", code, exitViolation, stdout.String(), stderr.String())
	}
	out := stdout.String()
	for _, want := range []string{
		"FAIL ports " + filepath.Join(dir, "ports.yaml") + "#1: ",
		"WARN names " + filepath.Join(dir, "names.yaml") + "#0: parameter ",
		"checked 3 documents: 1 violations, 1 warnings, 0 errors",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output does not contain %q:\n%s", want, out)
		}
	}

	j, err := journal.Open(context.Background(), db)
	if err != nil {
		t.Fatal(err)
	}
	defer j.Close()
	entries, err := j.Entries(context.Background(), "")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 2 {
		t.Fatalf("journal has %d entries; want 2", len(entries))
	}
	if entries[0].Check != "names" || !entries[0].Warning {
		t.Errorf("first entry = %+v", entries[0])
	}
	if entries[1].Check != "ports" || entries[1].Path != "[1]" {
		t.Errorf("second entry = %+v", entries[1])
	}
}

func TestRunNothingToCheck(t *testing.T) {
	dir := t.TempDir()
	cfg := writeFile(t, dir, "hintguard.yaml", "strategy: O1\n")
	var stdout, stderr bytes.Buffer
	if code := run(context.Background(), []string{"-config", cfg}, &stdout, &stderr); code != exitSetup {
		t.Fatalf("exit code = %d; want %d", code, exitSetup)
	}
	if !strings.Contains(stderr.String(), "nothing to check") {
		t.Errorf("stderr = %q", stderr.String())
	}
}
