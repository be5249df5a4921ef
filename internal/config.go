package internal

import (
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"

	"github.com/starford/chronogrid/internal/gallery"
	"github.com/starford/chronogrid/internal/navigation"
)

// Auth modes.
const (
	AuthModeDisabled = "disabled"
	AuthModeToken    = "token"
)

// Config represents the application configuration.
type Config struct {
	App     ApplicationConfig `yaml:"app"`
	Library LibraryConfig     `yaml:"library"`
	SQLite  SQLiteConfig      `yaml:"sqlite"`
	Auth    AuthConfig        `yaml:"auth"`
	Gallery GalleryConfig     `yaml:"gallery"`
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if err := c.App.Validate(); err != nil {
		return err
	}
	if err := c.Library.Validate(); err != nil {
		return err
	}
	if err := c.SQLite.Validate(); err != nil {
		return err
	}
	if err := c.Gallery.Validate(); err != nil {
		return err
	}
	return c.Auth.Validate()
}

// ApplicationConfig holds application-level configuration.
type ApplicationConfig struct {
	LogLevel slog.Level `yaml:"log_level"`
	HTTP     HTTPConfig `yaml:"http"`
}

// Validate validates the application configuration.
func (c *ApplicationConfig) Validate() error {
	return c.HTTP.Validate()
}

// HTTPConfig holds HTTP server configuration.
type HTTPConfig struct {
	Port int `yaml:"port"`
}

// Address returns HTTP server address.
func (c *HTTPConfig) Address() string {
	return fmt.Sprintf(":%d", c.Port)
}

// Validate validates the HTTP configuration.
func (c *HTTPConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Port, validation.Required, validation.Min(1), validation.Max(65535)),
	)
}

// LibraryConfig holds the media roots of both panes.
type LibraryConfig struct {
	Source      PathConfig `yaml:"source"`
	Destination PathConfig `yaml:"destination"`
	// Extensions overrides the media file types; empty keeps the defaults.
	Extensions []string `yaml:"extensions"`
}

// PathConfig holds a single directory path.
type PathConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the library configuration.
func (c *LibraryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Source),
		validation.Field(&c.Destination),
	)
}

// Validate validates the path configuration.
func (c PathConfig) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Path, validation.Required),
	)
}

// Paths returns the library root of every pane.
func (c *LibraryConfig) Paths() map[string]string {
	return map[string]string{
		gallery.PaneSource:      c.Source.Path,
		gallery.PaneDestination: c.Destination.Path,
	}
}

// SQLiteConfig holds SQLite database configuration.
type SQLiteConfig struct {
	Path string `yaml:"path"`
}

// Validate validates the SQLite configuration.
func (c *SQLiteConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Path, validation.Required),
	)
}

// GalleryConfig holds the grid layout and scroll handling defaults.
type GalleryConfig struct {
	Columns         int           `yaml:"columns"`
	RowHeight       float64       `yaml:"row_height"`
	ScrollThreshold float64       `yaml:"scroll_threshold"`
	Throttle        time.Duration `yaml:"throttle"`
}

// Validate validates the gallery configuration.
func (c *GalleryConfig) Validate() error {
	return validation.ValidateStruct(c,
		validation.Field(&c.Columns, validation.Required, validation.Min(1)),
		validation.Field(&c.RowHeight, validation.Required, validation.Min(0.0).Exclusive()),
		validation.Field(&c.ScrollThreshold, validation.Min(0.0)),
		validation.Field(&c.Throttle, validation.Required, validation.Min(time.Duration(1))),
	)
}

// AuthConfig holds authentication configuration.
//
// Mode controls how authentication is enforced:
//   - "disabled" (default): no authentication required, suitable for local use.
//   - "token": Bearer token authentication; Token must be non-empty.
type AuthConfig struct {
	Mode  string `yaml:"mode"`
	Token string `yaml:"token"`
}

// Validate validates the auth configuration.
func (c *AuthConfig) Validate() error {
	if c.Mode == "" {
		c.Mode = AuthModeDisabled
	}
	if err := validation.ValidateStruct(c,
		validation.Field(&c.Mode, validation.Required, validation.In(AuthModeDisabled, AuthModeToken)),
	); err != nil {
		return err
	}
	if c.Mode == AuthModeToken && c.Token == "" {
		return fmt.Errorf("auth: mode is %q but token is empty", AuthModeToken)
	}
	return nil
}

// AuthEnabled returns true when authentication is active.
func (c *AuthConfig) AuthEnabled() bool {
	return c.Mode == AuthModeToken
}

// NewDefaultConfig returns a new Config with sensible default values.
func NewDefaultConfig() *Config {
	return &Config{
		App: ApplicationConfig{
			LogLevel: slog.LevelInfo,
			HTTP: HTTPConfig{
				Port: 8080,
			},
		},
		Library: LibraryConfig{
			Source:      PathConfig{Path: "./library/source"},
			Destination: PathConfig{Path: "./library/destination"},
		},
		SQLite: SQLiteConfig{
			Path: "./chronogrid.db",
		},
		Auth: AuthConfig{
			Mode: AuthModeDisabled,
		},
		Gallery: GalleryConfig{
			Columns:         navigation.DefaultColumns,
			RowHeight:       gallery.DefaultRowHeight,
			ScrollThreshold: navigation.DefaultScrollThreshold,
			Throttle:        navigation.DefaultThrottle,
		},
	}
}
