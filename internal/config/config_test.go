package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/afero"
)

const testPath = "/data/config.json"

func TestLoad(t *testing.T) {
	def := Default()

	tests := []struct {
		name    string
		content string // empty means no file
		want    Config
	}{
		{
			name: "missing file",
			want: def,
		},
		{
			name:    "malformed json",
			content: `{"interval_seconds": 10,`,
			want:    def,
		},
		{
			name:    "not an object",
			content: `[1, 2, 3]`,
			want:    def,
		},
		{
			name:    "full file",
			content: `{"interval_seconds": 30, "tray": false, "process_refresh_seconds": 2, "history_points": 500, "process_limit": 50}`,
			want:    Config{IntervalSeconds: 30, Tray: false, ProcessRefreshSeconds: 2, HistoryPoints: 500, ProcessLimit: 50},
		},
		{
			name:    "missing keys",
			content: `{"tray": false}`,
			want:    Config{IntervalSeconds: 5, Tray: false, ProcessRefreshSeconds: 5, HistoryPoints: 120, ProcessLimit: 200},
		},
		{
			name:    "out of range",
			content: `{"interval_seconds": 0, "tray": false, "history_points": 5}`,
			want:    Config{IntervalSeconds: 5, Tray: false, ProcessRefreshSeconds: 5, HistoryPoints: 120, ProcessLimit: 200},
		},
		{
			name:    "above maximum",
			content: `{"interval_seconds": 3601, "process_limit": 20000}`,
			want:    def,
		},
		{
			name:    "wrong type",
			content: `{"interval_seconds": "ten", "tray": "yes", "process_limit": 10}`,
			want:    Config{IntervalSeconds: 5, Tray: true, ProcessRefreshSeconds: 5, HistoryPoints: 120, ProcessLimit: 10},
		},
		{
			name:    "unknown keys ignored",
			content: `{"interval_seconds": 60, "theme": "dark"}`,
			want:    def.WithInterval(60),
		},
		{
			name:    "boundaries",
			content: `{"interval_seconds": 3600, "process_refresh_seconds": 1, "history_points": 10, "process_limit": 10000}`,
			want:    Config{IntervalSeconds: 3600, Tray: true, ProcessRefreshSeconds: 1, HistoryPoints: 10, ProcessLimit: 10000},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			if tt.content != "" {
				if err := afero.WriteFile(fs, testPath, []byte(tt.content), 0o644); err != nil {
					t.Fatal(err)
				}
			}

			got := Load(fs, testPath, nil)
			if got != tt.want {
				t.Errorf("Load = %+v, want %+v", got, tt.want)
			}
		})
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	fs := afero.NewMemMapFs()
	want := Config{IntervalSeconds: 17, Tray: false, ProcessRefreshSeconds: 9, HistoryPoints: 300, ProcessLimit: 25}

	if err := Save(fs, testPath, want); err != nil {
		t.Fatalf("Save: %v", err)
	}

	if got := Load(fs, testPath, nil); got != want {
		t.Errorf("Load = %+v, want %+v", got, want)
	}
	if ok, _ := afero.Exists(fs, testPath+".tmp"); ok {
		t.Error("temporary file left behind")
	}
}

func TestSaveRejectsInvalid(t *testing.T) {
	fs := afero.NewMemMapFs()
	cfg := Default()
	cfg.IntervalSeconds = 0

	if err := Save(fs, testPath, cfg); err == nil {
		t.Fatal("Save accepted interval 0")
	}
	if ok, _ := afero.Exists(fs, testPath); ok {
		t.Error("invalid config was written")
	}
}

func TestWithInterval(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{0, 1},
		{-5, 1},
		{10, 10},
		{9999, 3600},
	}
	for _, tt := range tests {
		if got := Default().WithInterval(tt.in).IntervalSeconds; got != tt.want {
			t.Errorf("WithInterval(%d) = %d, want %d", tt.in, got, tt.want)
		}
	}
}

func TestWatcherReloads(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	fs := afero.NewOsFs()

	if err := Save(fs, path, Default()); err != nil {
		t.Fatalf("Save: %v", err)
	}

	w, err := NewWatcher(fs, path, nil)
	if err != nil {
		t.Skipf("fsnotify unavailable: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	got := make(chan Config, 4)
	go w.Run(ctx, func(c Config) { got <- c })

	if err := os.WriteFile(path, []byte(`{"interval_seconds": 42}`), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case c := <-got:
		if c.IntervalSeconds != 42 {
			t.Errorf("reloaded interval = %d, want 42", c.IntervalSeconds)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no reload after write")
	}
}
