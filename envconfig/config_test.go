// config_test.go - Tests fuer die Environment-Konfiguration
package envconfig

import (
	"log/slog"
	"path/filepath"
	"testing"
)

func TestHome(t *testing.T) {
	t.Setenv("BERT_HOME", "/tmp/bert-test")
	if got := Home(); got != "/tmp/bert-test" {
		t.Errorf("Home() = %q, erwartet /tmp/bert-test", got)
	}

	t.Setenv("BERT_HOME", "\"/tmp/quoted\"")
	if got := Home(); got != "/tmp/quoted" {
		t.Errorf("Home() = %q, erwartet /tmp/quoted", got)
	}
}

func TestCacheDir(t *testing.T) {
	t.Setenv("BERT_HOME", "/tmp/bert-test")
	t.Setenv("BERT_CACHE", "")
	if got, want := CacheDir(), filepath.Join("/tmp/bert-test", "cache"); got != want {
		t.Errorf("CacheDir() = %q, erwartet %q", got, want)
	}

	t.Setenv("BERT_CACHE", "/var/cache/bert")
	if got := CacheDir(); got != "/var/cache/bert" {
		t.Errorf("CacheDir() = %q, erwartet /var/cache/bert", got)
	}
}

func TestOffline(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"", false},
		{"0", false},
		{"false", false},
		{"1", true},
		{"true", true},
		{"unsinn", true},
	}

	for _, tt := range tests {
		t.Setenv("BERT_OFFLINE", tt.value)
		if got := Offline(); got != tt.want {
			t.Errorf("Offline() mit %q = %v, erwartet %v", tt.value, got, tt.want)
		}
	}
}

func TestLogLevel(t *testing.T) {
	tests := []struct {
		value string
		want  slog.Level
	}{
		{"", slog.LevelInfo},
		{"0", slog.LevelInfo},
		{"1", slog.LevelDebug},
		{"true", slog.LevelDebug},
		{"2", slog.Level(-8)},
	}

	for _, tt := range tests {
		t.Setenv("BERT_DEBUG", tt.value)
		if got := LogLevel(); got != tt.want {
			t.Errorf("LogLevel() mit %q = %v, erwartet %v", tt.value, got, tt.want)
		}
	}
}
