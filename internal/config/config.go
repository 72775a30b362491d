package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/gyeh/clinicbill/internal/model"

	"gopkg.in/yaml.v3"
)

// Config holds all runtime configuration for a clinicbill run.
type Config struct {
	BaseURL      string
	Token        string
	DoctorID     string
	ProfilePath  string
	PatientsFile string // offline source; when set BaseURL is not used for fetching
	DSN          string // optional; enables the Postgres settlement lock
	LogFormat    string // "text" or "json"
	LogLevel     string
	MaxRetries   int
	RetryDelay   time.Duration
	Timeout      time.Duration

	Profile *Profile
}

// User is the signed-in operator the profile belongs to.
type User struct {
	Name      string `yaml:"name"`
	Role      string `yaml:"role"`
	UserID    string `yaml:"user_id"`
	CreatedBy string `yaml:"created_by"`
}

// Retry overrides the fetch retry policy. Nil fields keep the flag values.
type Retry struct {
	MaxRetries *int           `yaml:"max_retries"`
	Delay      *time.Duration `yaml:"delay"`
}

// Profile is the on-disk YAML structure describing the session: who is
// printing, which doctor's patients to load and the doctor's address book.
type Profile struct {
	BaseURL   string          `yaml:"base_url"`
	Token     string          `yaml:"token"`
	DoctorID  string          `yaml:"doctor_id"`
	User      User            `yaml:"user"`
	Retry     Retry           `yaml:"retry"`
	Addresses []model.Address `yaml:"addresses"`
}

// LoadProfile reads a YAML profile file.
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read profile: %w", err)
	}
	var p Profile
	if err := yaml.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("parse profile: %w", err)
	}
	if p.Retry.MaxRetries != nil && *p.Retry.MaxRetries < 0 {
		return nil, errors.New("profile retry.max_retries must not be negative")
	}
	if p.Retry.Delay != nil && *p.Retry.Delay < 0 {
		return nil, errors.New("profile retry.delay must not be negative")
	}
	return &p, nil
}

// ResolveDoctorID returns the id of the doctor whose patients the user
// works on: their own id for doctors, their creator's id otherwise. An
// explicit doctor_id wins.
func (p *Profile) ResolveDoctorID() string {
	if id := strings.TrimSpace(p.DoctorID); id != "" {
		return id
	}
	if strings.EqualFold(strings.TrimSpace(p.User.Role), "doctor") {
		return strings.TrimSpace(p.User.UserID)
	}
	return strings.TrimSpace(p.User.CreatedBy)
}

// LoadFromFile reads the profile at ProfilePath and merges it into Config.
// explicit reports whether a flag was set on the command line; explicit
// flags are never overridden.
func (c *Config) LoadFromFile(explicit func(flag string) bool) error {
	if c.ProfilePath == "" {
		return nil
	}
	p, err := LoadProfile(c.ProfilePath)
	if err != nil {
		return err
	}
	c.ApplyProfile(p, explicit)
	return nil
}

// ApplyProfile fills unset connection fields from the profile and applies
// its retry overrides to flags that were not given explicitly.
func (c *Config) ApplyProfile(p *Profile, explicit func(flag string) bool) {
	if explicit == nil {
		explicit = func(string) bool { return false }
	}
	c.Profile = p
	if c.BaseURL == "" {
		c.BaseURL = p.BaseURL
	}
	if c.Token == "" {
		c.Token = p.Token
	}
	if c.DoctorID == "" {
		c.DoctorID = p.ResolveDoctorID()
	}
	if p.Retry.MaxRetries != nil && !explicit("max-retries") {
		c.MaxRetries = *p.Retry.MaxRetries
	}
	if p.Retry.Delay != nil && !explicit("retry-delay") {
		c.RetryDelay = *p.Retry.Delay
	}
}

// Addresses returns the profile's address book, or nil without a profile.
func (c *Config) Addresses() []model.Address {
	if c.Profile == nil {
		return nil
	}
	return c.Profile.Addresses
}

// UserName is the display name printed on invoices.
func (c *Config) UserName() string {
	if c.Profile == nil {
		return ""
	}
	return c.Profile.User.Name
}

// Validate checks required fields and returns an error if the config is invalid.
func (c *Config) Validate() error {
	if c.DoctorID == "" {
		return errors.New("--doctor-id or a profile with a resolvable doctor is required")
	}
	if c.MaxRetries < 0 {
		return errors.New("--max-retries must not be negative")
	}
	if c.RetryDelay < 0 {
		return errors.New("--retry-delay must not be negative")
	}
	if c.PatientsFile != "" {
		if _, err := os.Stat(c.PatientsFile); err != nil {
			return fmt.Errorf("patients file not accessible: %w", err)
		}
		return nil
	}
	if c.BaseURL == "" {
		return errors.New("--api-url or CLINICBILL_API_URL is required")
	}
	u, err := url.Parse(c.BaseURL)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("invalid api url %q", c.BaseURL)
	}
	return nil
}
