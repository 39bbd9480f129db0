package main

import (
	"bytes"
	"context"
	"encoding/json"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/rusenback/hostmon/internal/model"
	"github.com/rusenback/hostmon/internal/storage"
)

func seedStore(t *testing.T, dir string, samples ...model.Sample) {
	t.Helper()

	store, err := storage.Open(filepath.Join(dir, dbFileName), zap.NewNop())
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	defer store.Close()

	for _, s := range samples {
		if _, err := store.Insert(context.Background(), s); err != nil {
			t.Fatalf("insert: %v", err)
		}
	}
}

func runCLI(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestHistoryCommand(t *testing.T) {
	dir := t.TempDir()
	base := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	seedStore(t, dir,
		model.Sample{Timestamp: base, CPUPercent: 10, MemPercent: 20, NetSent: 1000, NetRecv: 2000, Processes: 100},
		model.Sample{Timestamp: base.Add(5 * time.Second), CPUPercent: 15, MemPercent: 25, NetSent: 3072, NetRecv: 4096, Processes: 101},
	)

	t.Run("json", func(t *testing.T) {
		out, err := runCLI(t, "--data-dir", dir, "--log-level", "error", "history", "-n", "1", "-o", "json")
		if err != nil {
			t.Fatalf("history: %v", err)
		}

		var records []model.Record
		if err := json.Unmarshal([]byte(out), &records); err != nil {
			t.Fatalf("decode %q: %v", out, err)
		}
		if len(records) != 1 {
			t.Fatalf("got %d records, want 1", len(records))
		}
		if records[0].CPUPercent != 15 || records[0].Processes != 101 {
			t.Errorf("got %+v, want the newest sample", records[0])
		}
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := runCLI(t, "--data-dir", dir, "--log-level", "error", "history", "-o", "yaml")
		if err != nil {
			t.Fatalf("history: %v", err)
		}

		var records []map[string]any
		if err := yaml.Unmarshal([]byte(out), &records); err != nil {
			t.Fatalf("decode %q: %v", out, err)
		}
		if len(records) != 2 {
			t.Fatalf("got %d records, want 2", len(records))
		}
		if got := records[1]["cpu_percent"]; got != 10.0 && got != 10 {
			t.Errorf("oldest cpu_percent = %v, want 10", got)
		}
	})

	t.Run("table", func(t *testing.T) {
		out, err := runCLI(t, "--data-dir", dir, "--log-level", "error", "history")
		if err != nil {
			t.Fatalf("history: %v", err)
		}

		lines := strings.Split(strings.TrimSpace(out), "\n")
		if len(lines) != 3 {
			t.Fatalf("got %d lines, want header and 2 rows:\n%s", len(lines), out)
		}
		if !strings.HasPrefix(lines[0], "ID") {
			t.Errorf("header = %q", lines[0])
		}
		if !strings.Contains(lines[1], "3.0 KiB") {
			t.Errorf("newest row = %q, want humanized sent bytes", lines[1])
		}
	})
}

func TestUnknownOutputFormat(t *testing.T) {
	_, err := runCLI(t, "--data-dir", t.TempDir(), "history", "-o", "xml")
	if err == nil || !strings.Contains(err.Error(), "unknown output format") {
		t.Fatalf("err = %v, want unknown output format", err)
	}
}

func TestParsePID(t *testing.T) {
	tests := []struct {
		in      string
		want    int32
		wantErr bool
	}{
		{in: "1", want: 1},
		{in: "4242", want: 4242},
		{in: "0", wantErr: true},
		{in: "-5", wantErr: true},
		{in: "abc", wantErr: true},
		{in: "99999999999", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parsePID(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parsePID(%q) err = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("parsePID(%q) = %d, want %d", tt.in, got, tt.want)
			}
		})
	}
}

func TestKillRejectsMissingProcess(t *testing.T) {
	_, err := runCLI(t, "--data-dir", t.TempDir(), "--log-level", "error", "kill", "2147483000", "--timeout", "100ms")
	if err == nil {
		t.Fatal("expected an error for a pid that does not exist")
	}
}

func TestPsLimitFallsBackToConfig(t *testing.T) {
	cmd := newPsCmd(&rootOptions{})
	f := cmd.Flags().Lookup("limit")
	if f == nil {
		t.Fatal("ps has no --limit flag")
	}
	if f.DefValue != "0" {
		t.Errorf("--limit default = %q, want 0", f.DefValue)
	}
	if !strings.Contains(f.Usage, "process_limit") {
		t.Errorf("--limit usage %q does not mention the config fallback", f.Usage)
	}
}
