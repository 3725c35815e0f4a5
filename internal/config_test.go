package internal

import (
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfig_Valid(t *testing.T) {
	cfg := NewDefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config should validate: %v", err)
	}
	if !cfg.IsWriter() {
		t.Error("default role should be writer")
	}
	if got := cfg.Lock.StaleAfter(); got != 10*time.Minute {
		t.Errorf("stale after = %v, want 10m", got)
	}
	if got := cfg.Watch.Debounce(); got != 2*time.Second {
		t.Errorf("debounce = %v, want 2s", got)
	}
}

func TestConfig_EmptyRoleDefaultsWriter(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Role = ""
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty role should default to writer: %v", err)
	}
	if cfg.Role != RoleWriter {
		t.Errorf("role = %q, want %q", cfg.Role, RoleWriter)
	}
}

func TestConfig_InvalidRole(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Role = "spectator"
	if err := cfg.Validate(); err == nil {
		t.Fatal("invalid role should fail validation")
	}
}

func TestConfig_ReaderRole(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Role = RoleReader
	if err := cfg.Validate(); err != nil {
		t.Fatalf("reader role should validate: %v", err)
	}
	if cfg.IsWriter() {
		t.Error("reader role should not be writer")
	}
}

func TestConfig_JournalPathRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Journal.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing journal path should fail validation")
	}
}

func TestConfig_ArchivePathRequired(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Archive.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing archive path should fail validation")
	}
}

func TestConfig_LockPathDefaultsInsideArchive(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Archive.Path = "/data/archive"
	want := filepath.Join("/data/archive", ".dagaz.lock")
	if got := cfg.LockPath(); got != want {
		t.Errorf("lock path = %q, want %q", got, want)
	}

	cfg.Lock.Path = "/tmp/custom.lock"
	if got := cfg.LockPath(); got != "/tmp/custom.lock" {
		t.Errorf("explicit lock path not honoured: %q", got)
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{Mode: "", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_TokenModeEmptyToken(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: ""}
	err := cfg.Validate()
	if err == nil {
		t.Fatal("token mode with empty token should fail")
	}
	if !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestAuthConfig_TokenModeValid(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}
}

func TestConfig_InvalidStaleThreshold(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Lock.StaleAfterMinutes = 0
	if err := cfg.Validate(); err == nil {
		t.Fatal("zero stale threshold should fail validation")
	}
}
