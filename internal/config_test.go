package internal

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	pkgconfig "github.com/starford/chronogrid/pkg/config"
)

func TestAuthConfig_DisabledMode(t *testing.T) {
	cfg := AuthConfig{Mode: "disabled", Token: ""}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("disabled mode should pass: %v", err)
	}
	if cfg.AuthEnabled() {
		t.Error("disabled mode should not be enabled")
	}
}

func TestAuthConfig_EmptyModeDefaultsDisabled(t *testing.T) {
	cfg := AuthConfig{}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("empty mode should default to disabled: %v", err)
	}
	if cfg.Mode != AuthModeDisabled {
		t.Errorf("mode = %q, want %q", cfg.Mode, AuthModeDisabled)
	}
}

func TestAuthConfig_TokenMode(t *testing.T) {
	cfg := AuthConfig{Mode: "token", Token: "mysecret"}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("token mode with token should pass: %v", err)
	}
	if !cfg.AuthEnabled() {
		t.Error("token mode should be enabled")
	}

	cfg.Token = ""
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "token is empty") {
		t.Errorf("empty token error = %v", err)
	}

	if err := (&AuthConfig{Mode: "magic", Token: "x"}).Validate(); err == nil {
		t.Error("invalid mode should fail validation")
	}
}

func TestDefaultConfigIsValid(t *testing.T) {
	if err := NewDefaultConfig().Validate(); err != nil {
		t.Fatalf("default config: %v", err)
	}
}

func TestGalleryConfig_Validate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*GalleryConfig)
	}{
		{"zero columns", func(c *GalleryConfig) { c.Columns = 0 }},
		{"zero row height", func(c *GalleryConfig) { c.RowHeight = 0 }},
		{"negative threshold", func(c *GalleryConfig) { c.ScrollThreshold = -1 }},
		{"zero throttle", func(c *GalleryConfig) { c.Throttle = 0 }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := NewDefaultConfig()
			tt.mutate(&cfg.Gallery)
			if err := cfg.Validate(); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestLibraryConfig_RequiresBothPanes(t *testing.T) {
	cfg := NewDefaultConfig()
	cfg.Library.Destination.Path = ""
	if err := cfg.Validate(); err == nil {
		t.Fatal("missing destination path should fail")
	}
	paths := NewDefaultConfig().Library.Paths()
	if len(paths) != 2 || paths["source"] == "" || paths["destination"] == "" {
		t.Errorf("paths = %v", paths)
	}
}

func TestLoadYAMLWithEnv(t *testing.T) {
	t.Setenv("CHRONOGRID_TEST_TOKEN", "s3cret")
	file := filepath.Join(t.TempDir(), "config.yaml")
	data := `
app:
  log_level: debug
  http:
    port: 9090
library:
  source:
    path: /media/in
  destination:
    path: /media/out
  extensions: [jpg, raw]
sqlite:
  path: /tmp/c.db
auth:
  mode: token
  token: ${CHRONOGRID_TEST_TOKEN}
gallery:
  columns: 4
  row_height: 180
  scroll_threshold: 25
  throttle: 150ms
`
	if err := os.WriteFile(file, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg := NewDefaultConfig()
	if err := pkgconfig.Load(file, cfg); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Auth.Token != "s3cret" || cfg.App.HTTP.Port != 9090 {
		t.Errorf("config = %+v", cfg)
	}
	if cfg.Gallery.Throttle != 150*time.Millisecond || cfg.Gallery.Columns != 4 {
		t.Errorf("gallery = %+v", cfg.Gallery)
	}
	if len(cfg.Library.Extensions) != 2 || cfg.Library.Source.Path != "/media/in" {
		t.Errorf("library = %+v", cfg.Library)
	}
}
