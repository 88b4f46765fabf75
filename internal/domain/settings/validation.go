package settings

import (
	"fmt"
	"net/url"
	"time"
	_ "time/tzdata" // timezone validation must not depend on the host zoneinfo

	"github.com/erp/console/internal/domain/shared"
)

// ErrInvalidValue is returned when a settings value fails validation
var ErrInvalidValue = shared.NewDomainError("INVALID_SETTING_VALUE", "Invalid settings value")

// Validation messages, reported in this order
const (
	MsgBackendURLMissing = "Backend URL is not configured"
	MsgPublicKeyMissing  = "Backend public key is not configured"
	MsgAIKeyMissing      = "AI API key is not configured; AI features will be unavailable"
)

// ValidationResult is the outcome of Validate
type ValidationResult struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate lists missing configuration. The AI key message is advisory and
// does not by itself make the result invalid.
func Validate(s Settings) ValidationResult {
	res := ValidationResult{Valid: true, Errors: []string{}}
	if s.Backend.URL == "" {
		res.Valid = false
		res.Errors = append(res.Errors, MsgBackendURLMissing)
	}
	if s.Backend.PublicKey == "" {
		res.Valid = false
		res.Errors = append(res.Errors, MsgPublicKeyMissing)
	}
	if s.AI.APIKey == "" {
		res.Errors = append(res.Errors, MsgAIKeyMissing)
	}
	return res
}

// SectionStatus is the configured badge of one section
type SectionStatus struct {
	Section    Section `json:"section"`
	Configured bool    `json:"configured"`
}

// Status reports, per section, whether its required fields are present
func Status(s Settings) []SectionStatus {
	return []SectionStatus{
		{SectionBackend, s.Backend.URL != "" && s.Backend.PublicKey != ""},
		{SectionAI, s.AI.APIKey != ""},
		{SectionSystem, s.System.CompanyName != ""},
		{SectionSecurity, s.Security.SessionTimeout > 0 && s.Security.MaxLoginAttempts > 0},
	}
}

func validateField(f Field, v any) error {
	switch f.Key {
	case "backend_url", "system_logo_url":
		raw := v.(string)
		if raw == "" {
			return nil
		}
		u, err := url.Parse(raw)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return invalidValue(f, "must be an http(s) URL")
		}
	case "ai_max_tokens":
		if n := v.(int); n <= 0 || n > 128000 {
			return invalidValue(f, "must be between 1 and 128000")
		}
	case "system_timezone":
		if _, err := time.LoadLocation(v.(string)); err != nil {
			return invalidValue(f, "must be an IANA timezone name")
		}
	case "security_session_timeout":
		if n := v.(int); n <= 0 || n > 24*60 {
			return invalidValue(f, "must be between 1 and 1440 minutes")
		}
	case "security_max_login_attempts":
		if n := v.(int); n <= 0 || n > 100 {
			return invalidValue(f, "must be between 1 and 100")
		}
	}
	return nil
}

func invalidValue(f Field, reason string) error {
	return shared.NewDomainError(ErrInvalidValue.Code,
		fmt.Sprintf("%s.%s %s", f.Section, f.Name, reason))
}
