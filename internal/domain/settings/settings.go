package settings

import (
	"github.com/erp/console/internal/domain/shared"
)

// Section identifies one of the four settings groups
type Section string

const (
	SectionBackend  Section = "backend"
	SectionAI       Section = "ai"
	SectionSystem   Section = "system"
	SectionSecurity Section = "security"
)

// Sections lists every section in display order
var Sections = []Section{SectionBackend, SectionAI, SectionSystem, SectionSecurity}

// ParseSection validates a section name
func ParseSection(s string) (Section, error) {
	for _, sec := range Sections {
		if string(sec) == s {
			return sec, nil
		}
	}
	return "", ErrUnknownSection
}

// Backend holds the backend-as-a-service connection
type Backend struct {
	URL        string `json:"url"`
	PublicKey  string `json:"public_key"`
	ServiceKey string `json:"service_key"` // privileged, optional
}

// AI holds the AI provider configuration
type AI struct {
	APIKey    string `json:"api_key"`
	Model     string `json:"model"`
	MaxTokens int    `json:"max_tokens"`
}

// System holds branding and locale settings
type System struct {
	CompanyName string `json:"company_name"`
	LogoURL     string `json:"logo_url"`
	Timezone    string `json:"timezone"`
	Locale      string `json:"locale"`
}

// Security holds session and audit policy
type Security struct {
	SessionTimeout   int  `json:"session_timeout"` // minutes
	MaxLoginAttempts int  `json:"max_login_attempts"`
	AuditLogging     bool `json:"audit_logging"`
}

// Settings is the typed settings record
type Settings struct {
	Backend  Backend  `json:"backend"`
	AI       AI       `json:"ai"`
	System   System   `json:"system"`
	Security Security `json:"security"`
}

// Defaults returns the settings used when nothing is stored
func Defaults() Settings {
	var s Settings
	for _, f := range Fields {
		// defaults in the table are always of the field's kind
		_ = f.assign(&s, f.Default)
	}
	return s
}

// Values returns every field of s keyed by storage key
func (s Settings) Values() map[string]any {
	out := make(map[string]any, len(Fields))
	for _, f := range Fields {
		out[f.Key] = f.value(s)
	}
	return out
}

// Section-level errors
var (
	ErrUnknownSection = shared.NewDomainError("UNKNOWN_SETTINGS_SECTION", "Unknown settings section")
	ErrUnknownField   = shared.NewDomainError("UNKNOWN_SETTINGS_FIELD", "Unknown settings field")
)
