package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sampleProfile = `
base_url: https://api.example.test
token: secret
user:
  name: Front Desk
  role: receptionist
  user_id: "12"
  created_by: "42"
retry:
  max_retries: 5
  delay: 500ms
addresses:
  - address_id: A1
    clinic_name: Sunrise Clinic
    city: Bengaluru
    pincode: 560001
`

func writeProfile(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "profile.yaml")
	if err := os.WriteFile(path, []byte(body), 0644); err != nil {
		t.Fatalf("write profile: %v", err)
	}
	return path
}

func TestLoadProfile_Valid(t *testing.T) {
	p, err := LoadProfile(writeProfile(t, sampleProfile))
	if err != nil {
		t.Fatalf("LoadProfile: %v", err)
	}
	if p.User.Name != "Front Desk" {
		t.Errorf("user name = %q", p.User.Name)
	}
	if len(p.Addresses) != 1 {
		t.Fatalf("expected 1 address, got %d", len(p.Addresses))
	}
	if got := p.Addresses[0].Pincode.String(); got != "560001" {
		t.Errorf("pincode = %q, want 560001", got)
	}
	if p.Retry.Delay == nil || *p.Retry.Delay != 500*time.Millisecond {
		t.Errorf("retry delay = %v", p.Retry.Delay)
	}
}

func TestLoadProfile_NegativeRetries(t *testing.T) {
	_, err := LoadProfile(writeProfile(t, "retry:\n  max_retries: -1\n"))
	if err == nil {
		t.Fatal("expected error for negative max_retries")
	}
}

func TestLoadProfile_MissingFile(t *testing.T) {
	_, err := LoadProfile("/nonexistent/profile.yaml")
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestResolveDoctorID(t *testing.T) {
	tests := []struct {
		name string
		p    Profile
		want string
	}{
		{"doctor uses own id", Profile{User: User{Role: "doctor", UserID: "7", CreatedBy: "1"}}, "7"},
		{"role is case insensitive", Profile{User: User{Role: "Doctor", UserID: "7"}}, "7"},
		{"receptionist uses creator", Profile{User: User{Role: "receptionist", UserID: "12", CreatedBy: "42"}}, "42"},
		{"explicit id wins", Profile{DoctorID: "99", User: User{Role: "doctor", UserID: "7"}}, "99"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.p.ResolveDoctorID(); got != tt.want {
				t.Errorf("ResolveDoctorID() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestLoadFromFile_Merge(t *testing.T) {
	c := Config{
		ProfilePath: writeProfile(t, sampleProfile),
		Token:       "from-flag",
		MaxRetries:  3,
		RetryDelay:  2 * time.Second,
	}
	explicit := func(flag string) bool { return flag == "retry-delay" }

	if err := c.LoadFromFile(explicit); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.BaseURL != "https://api.example.test" {
		t.Errorf("BaseURL = %q", c.BaseURL)
	}
	if c.Token != "from-flag" {
		t.Errorf("Token = %q, flag value should win", c.Token)
	}
	if c.DoctorID != "42" {
		t.Errorf("DoctorID = %q, want 42", c.DoctorID)
	}
	if c.MaxRetries != 5 {
		t.Errorf("MaxRetries = %d, want profile value 5", c.MaxRetries)
	}
	if c.RetryDelay != 2*time.Second {
		t.Errorf("RetryDelay = %v, explicit flag should win", c.RetryDelay)
	}
	if c.UserName() != "Front Desk" || len(c.Addresses()) != 1 {
		t.Errorf("profile not attached: %q %d", c.UserName(), len(c.Addresses()))
	}
}

func TestLoadFromFile_NoProfile(t *testing.T) {
	var c Config
	if err := c.LoadFromFile(nil); err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if c.Addresses() != nil || c.UserName() != "" {
		t.Error("expected empty profile accessors")
	}
}

func TestValidate(t *testing.T) {
	patients := filepath.Join(t.TempDir(), "patients.json")
	if err := os.WriteFile(patients, []byte(`{"status":"success","data":[]}`), 0644); err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"api ok", Config{DoctorID: "42", BaseURL: "https://api.example.test"}, false},
		{"file ok", Config{DoctorID: "42", PatientsFile: patients}, false},
		{"missing doctor", Config{BaseURL: "https://api.example.test"}, true},
		{"missing url", Config{DoctorID: "42"}, true},
		{"bad url", Config{DoctorID: "42", BaseURL: "not a url"}, true},
		{"missing file", Config{DoctorID: "42", PatientsFile: "/nonexistent.json"}, true},
		{"negative retries", Config{DoctorID: "42", BaseURL: "https://api.example.test", MaxRetries: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
