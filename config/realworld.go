package config

import (
	"errors"
	"strings"
)

// RealWorldConfig contains connection settings for the RealWorld terminal
// application. All fields use the RW_ prefix.
type RealWorldConfig struct {
	Host string `env:"HOST"`
	Port int    `env:"PORT" envDefault:"23"`

	// Username and Password are the system login pair.
	Username string `env:"USERNAME"`
	Password string `env:"PASSWORD"`

	// EmployeeNumber and EmployeePassword authenticate inside the order
	// entry application after the system login.
	EmployeeNumber   string `env:"EMPLOYEE_NUMBER"`
	EmployeePassword string `env:"EMPLOYEE_PASSWORD"`
}

// Sanitize trims whitespace from credential fields.
func (r *RealWorldConfig) Sanitize() {
	r.Host = strings.TrimSpace(r.Host)
	r.Username = strings.TrimSpace(r.Username)
	r.EmployeeNumber = strings.TrimSpace(r.EmployeeNumber)
}

// Validate fails fast when any credential required to drive a terminal
// session is missing. Called only by service modes that open sessions, so an
// HTTP-only deployment can run without terminal credentials.
func (r *RealWorldConfig) Validate() error {
	var missing []string
	if r.Host == "" {
		missing = append(missing, "RW_HOST")
	}
	if r.Username == "" {
		missing = append(missing, "RW_USERNAME")
	}
	if r.Password == "" {
		missing = append(missing, "RW_PASSWORD")
	}
	if r.EmployeeNumber == "" {
		missing = append(missing, "RW_EMPLOYEE_NUMBER")
	}
	if r.EmployeePassword == "" {
		missing = append(missing, "RW_EMPLOYEE_PASSWORD")
	}
	if len(missing) > 0 {
		return errors.New("missing required environment variables: " + strings.Join(missing, ", "))
	}
	return nil
}

// TranscriptConfig controls where session transcripts are written.
type TranscriptConfig struct {
	// Dir is the root directory for day-partitioned transcript files.
	Dir string `env:"PROCESS_LOG_DIR" envDefault:"logs"`
}

// Sanitize normalises the transcript directory.
func (t *TranscriptConfig) Sanitize() {
	t.Dir = strings.TrimSpace(t.Dir)
	if t.Dir == "" {
		t.Dir = "logs"
	}
}
