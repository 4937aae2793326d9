package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"gopkg.in/yaml.v3"

	"datepick/internal/calendar"
	"datepick/internal/ics"
	"datepick/internal/picker"
)

// ICSConfig describes one annotation feed.
type ICSConfig struct {
	// ID is an internal identifier used in logs.
	ID string `yaml:"id" json:"id"`
	// Name is a human-friendly label.
	Name string `yaml:"name" json:"name"`
	// URL of the feed. Mutually exclusive with Path.
	URL string `yaml:"url,omitempty" json:"url,omitempty"`
	// Path of a local .ics file.
	Path string `yaml:"path,omitempty" json:"path,omitempty"`
	// Blackout makes the feed's days unselectable.
	Blackout bool `yaml:"blackout" json:"blackout"`
}

// BasicAuthConfig holds HTTP Basic Auth credentials for the API.
type BasicAuthConfig struct {
	Username string `yaml:"username" json:"username"`
	Password string `yaml:"password" json:"password"`
}

// Config is the top-level application configuration.
type Config struct {
	// Listen is the HTTP listen address for `serve`.
	Listen string `yaml:"listen" json:"listen"`

	// Timezone is the IANA zone all picker arithmetic runs in. Empty
	// means the host's local zone.
	Timezone string `yaml:"timezone" json:"timezone"`

	// WeekStart is the weekday name sheets start on. Defaults to sunday.
	WeekStart string `yaml:"week_start" json:"week_start"`

	MilitaryTime bool `yaml:"military_time" json:"military_time"`
	Deselectable bool `yaml:"deselectable" json:"deselectable"`

	// Min / Max bound selection inclusively. Accepted forms are
	// "2006-01-02", "2006-01-02 15:04" and RFC 3339.
	Min string `yaml:"min,omitempty" json:"min,omitempty"`
	Max string `yaml:"max,omitempty" json:"max,omitempty"`

	// Current / Selected seed the picker state in the same formats.
	Current  string `yaml:"current,omitempty" json:"current,omitempty"`
	Selected string `yaml:"selected,omitempty" json:"selected,omitempty"`

	Labels calendar.Labels `yaml:"labels" json:"labels"`

	// ICS lists annotation feeds.
	ICS []ICSConfig `yaml:"ics" json:"ics"`

	// RefreshCron is the cron schedule for reloading annotation feeds.
	RefreshCron string `yaml:"refresh" json:"refresh"`

	// HorizonMonths is how many months around today feeds are expanded.
	HorizonMonths int `yaml:"horizon_months" json:"horizon_months"`

	// BasicAuth, if set, protects every endpoint except /health.
	BasicAuth *BasicAuthConfig `yaml:"basic_auth,omitempty" json:"basic_auth,omitempty"`

	LogLevel string `yaml:"log_level" json:"log_level"`
}

const (
	defaultListen      = "127.0.0.1:8080"
	defaultWeekStart   = "sunday"
	defaultRefreshCron = "0 * * * *"
	defaultHorizon     = 12
	defaultLogLevel    = "info"
)

// DefaultConfig returns an in-memory default configuration.
func DefaultConfig() *Config {
	return &Config{
		Listen:        defaultListen,
		WeekStart:     defaultWeekStart,
		Labels:        calendar.DefaultLabels(),
		ICS:           []ICSConfig{},
		RefreshCron:   defaultRefreshCron,
		HorizonMonths: defaultHorizon,
		LogLevel:      defaultLogLevel,
	}
}

// Normalize fills in missing values so partially written files behave like
// the defaults.
func (c *Config) Normalize() {
	if c.Listen == "" {
		c.Listen = defaultListen
	}
	c.WeekStart = strings.ToLower(strings.TrimSpace(c.WeekStart))
	if c.WeekStart == "" {
		c.WeekStart = defaultWeekStart
	}
	if c.RefreshCron == "" {
		c.RefreshCron = defaultRefreshCron
	}
	if c.HorizonMonths <= 0 {
		c.HorizonMonths = defaultHorizon
	}
	if c.LogLevel == "" {
		c.LogLevel = defaultLogLevel
	}
	if c.ICS == nil {
		c.ICS = []ICSConfig{}
	}
	for i := range c.ICS {
		if c.ICS[i].ID == "" {
			c.ICS[i].ID = firstNonEmpty(c.ICS[i].Name, c.ICS[i].Path, c.ICS[i].URL)
		}
	}
	c.Labels = c.Labels.Normalize()
}

// Validate reports settings that cannot be turned into a picker.
func (c *Config) Validate() error {
	if _, err := c.Location(); err != nil {
		return err
	}
	if _, err := calendar.ParseWeekday(c.WeekStart); err != nil {
		return fmt.Errorf("config: week_start: %w", err)
	}
	if _, err := cron.ParseStandard(c.RefreshCron); err != nil {
		return fmt.Errorf("config: refresh %q: %w", c.RefreshCron, err)
	}
	for _, src := range c.ICS {
		if (src.URL == "") == (src.Path == "") {
			return fmt.Errorf("config: ics source %q needs exactly one of url or path", src.ID)
		}
	}
	_, err := c.PickerConfig()
	return err
}

// Location resolves Timezone, defaulting to time.Local.
func (c *Config) Location() (*time.Location, error) {
	if c.Timezone == "" {
		return time.Local, nil
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("config: timezone %q: %w", c.Timezone, err)
	}
	return loc, nil
}

// WeekStartDay parses WeekStart, falling back to Sunday.
func (c *Config) WeekStartDay() time.Weekday {
	wd, err := calendar.ParseWeekday(c.WeekStart)
	if err != nil {
		return time.Sunday
	}
	return wd
}

// Horizon converts HorizonMonths to a duration for feed expansion.
func (c *Config) Horizon() time.Duration {
	return time.Duration(c.HorizonMonths) * 31 * 24 * time.Hour
}

// Sources converts the ICS entries into loader sources.
func (c *Config) Sources() []ics.Source {
	out := make([]ics.Source, 0, len(c.ICS))
	for _, s := range c.ICS {
		loc := s.Path
		if loc == "" {
			loc = s.URL
		}
		if loc == "" {
			continue
		}
		out = append(out, ics.Source{ID: s.ID, Location: loc, Blackout: s.Blackout})
	}
	return out
}

// PickerConfig converts the file settings into a picker.Config. Clock,
// observers and annotator are left for the caller.
func (c *Config) PickerConfig() (picker.Config, error) {
	loc, err := c.Location()
	if err != nil {
		return picker.Config{}, err
	}

	pc := picker.Config{
		Deselectable: c.Deselectable,
		MilitaryTime: c.MilitaryTime,
		WeekStart:    c.WeekStartDay(),
		Location:     loc,
		Labels:       c.Labels,
	}

	fields := []struct {
		name string
		raw  string
		dst  **time.Time
	}{
		{"min", c.Min, &pc.Min},
		{"max", c.Max, &pc.Max},
		{"current", c.Current, &pc.Current},
		{"selected", c.Selected, &pc.Selected},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.raw) == "" {
			continue
		}
		t, err := ParseInstant(f.raw, loc)
		if err != nil {
			return picker.Config{}, fmt.Errorf("config: %s: %w", f.name, err)
		}
		*f.dst = &t
	}

	if pc.Min != nil && pc.Max != nil && pc.Min.After(*pc.Max) {
		return picker.Config{}, fmt.Errorf("config: %w", picker.ErrInvalidRange)
	}
	return pc, nil
}

var instantLayouts = []string{
	"2006-01-02",
	"2006-01-02 15:04",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
}

// ParseInstant accepts a date, a date with wall-clock time (both read in
// loc) or an RFC 3339 timestamp.
func ParseInstant(s string, loc *time.Location) (time.Time, error) {
	s = strings.TrimSpace(s)
	if t, err := time.Parse(time.RFC3339, s); err == nil {
		return t.In(loc), nil
	}
	for _, layout := range instantLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date/time %q", s)
}

// Load loads configuration from the given YAML path. A missing file is
// created with the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		return nil, errors.New("config path is empty")
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			cfg := DefaultConfig()
			if err := Save(path, cfg); err != nil {
				// Caller decides whether an unwritable path is fatal.
				return cfg, err
			}
			return cfg, nil
		}
		return nil, err
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	cfg.Normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Save writes cfg to path atomically (temp file + rename) with 0600 perms.
func Save(path string, cfg *Config) error {
	if path == "" {
		return errors.New("config path is empty")
	}
	if cfg == nil {
		return errors.New("config is nil")
	}

	cfg.Normalize()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(dir, ".datepick-config-*.tmp")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	if err := os.Chmod(tmpName, 0o600); err != nil {
		return err
	}
	return os.Rename(tmpName, path)
}

func (c *Config) Save(path string) error {
	return Save(path, c)
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if v != "" {
			return v
		}
	}
	return ""
}
