package settings

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/erp/console/internal/domain/shared"
)

// Kind is the scalar type of a settings field
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindBool
)

// Field maps one logical settings field to its storage key
type Field struct {
	Section Section
	Name    string
	Key     string
	Kind    Kind
	Default any
}

// Fields is the single table from logical field to storage key
var Fields = []Field{
	{SectionBackend, "url", "backend_url", KindString, ""},
	{SectionBackend, "public_key", "backend_public_key", KindString, ""},
	{SectionBackend, "service_key", "backend_service_key", KindString, ""},

	{SectionAI, "api_key", "ai_api_key", KindString, ""},
	{SectionAI, "model", "ai_model", KindString, "gpt-4o-mini"},
	{SectionAI, "max_tokens", "ai_max_tokens", KindInt, 1000},

	{SectionSystem, "company_name", "system_company_name", KindString, "ERP Console"},
	{SectionSystem, "logo_url", "system_logo_url", KindString, ""},
	{SectionSystem, "timezone", "system_timezone", KindString, "America/Sao_Paulo"},
	{SectionSystem, "locale", "system_locale", KindString, "pt-BR"},

	{SectionSecurity, "session_timeout", "security_session_timeout", KindInt, 30},
	{SectionSecurity, "max_login_attempts", "security_max_login_attempts", KindInt, 5},
	{SectionSecurity, "audit_logging", "security_audit_logging", KindBool, true},
}

// LookupField returns the field named name within section
func LookupField(section Section, name string) (Field, error) {
	for _, f := range Fields {
		if f.Section == section && f.Name == name {
			return f, nil
		}
	}
	return Field{}, shared.NewDomainError(ErrUnknownField.Code,
		fmt.Sprintf("Unknown field %q in section %q", name, section))
}

// FieldsOf returns the fields of section in table order
func FieldsOf(section Section) []Field {
	out := make([]Field, 0, 4)
	for _, f := range Fields {
		if f.Section == section {
			out = append(out, f)
		}
	}
	return out
}

// Coerce converts a decoded value (string, float64, bool, json.Number) to
// the field's kind. Numeric strings and "true"/"false" are accepted.
func (f Field) Coerce(v any) (any, error) {
	switch f.Kind {
	case KindString:
		switch x := v.(type) {
		case string:
			return x, nil
		case nil:
			return "", nil
		case float64, int, bool, json.Number:
			return fmt.Sprint(x), nil
		}
	case KindInt:
		switch x := v.(type) {
		case int:
			return x, nil
		case int64:
			return int(x), nil
		case float64:
			if x == math.Trunc(x) && math.Abs(x) < math.MaxInt32 {
				return int(x), nil
			}
		case json.Number:
			if n, err := x.Int64(); err == nil {
				return int(n), nil
			}
		case string:
			if n, err := strconv.Atoi(strings.TrimSpace(x)); err == nil {
				return n, nil
			}
		}
	case KindBool:
		switch x := v.(type) {
		case bool:
			return x, nil
		case string:
			if b, err := strconv.ParseBool(strings.TrimSpace(x)); err == nil {
				return b, nil
			}
		}
	}
	return nil, invalidValue(f, "has the wrong type")
}

func (f Field) assign(s *Settings, v any) error {
	c, err := f.Coerce(v)
	if err != nil {
		return err
	}
	switch f.Key {
	case "backend_url":
		s.Backend.URL = c.(string)
	case "backend_public_key":
		s.Backend.PublicKey = c.(string)
	case "backend_service_key":
		s.Backend.ServiceKey = c.(string)
	case "ai_api_key":
		s.AI.APIKey = c.(string)
	case "ai_model":
		s.AI.Model = c.(string)
	case "ai_max_tokens":
		s.AI.MaxTokens = c.(int)
	case "system_company_name":
		s.System.CompanyName = c.(string)
	case "system_logo_url":
		s.System.LogoURL = c.(string)
	case "system_timezone":
		s.System.Timezone = c.(string)
	case "system_locale":
		s.System.Locale = c.(string)
	case "security_session_timeout":
		s.Security.SessionTimeout = c.(int)
	case "security_max_login_attempts":
		s.Security.MaxLoginAttempts = c.(int)
	case "security_audit_logging":
		s.Security.AuditLogging = c.(bool)
	}
	return nil
}

func (f Field) value(s Settings) any {
	switch f.Key {
	case "backend_url":
		return s.Backend.URL
	case "backend_public_key":
		return s.Backend.PublicKey
	case "backend_service_key":
		return s.Backend.ServiceKey
	case "ai_api_key":
		return s.AI.APIKey
	case "ai_model":
		return s.AI.Model
	case "ai_max_tokens":
		return s.AI.MaxTokens
	case "system_company_name":
		return s.System.CompanyName
	case "system_logo_url":
		return s.System.LogoURL
	case "system_timezone":
		return s.System.Timezone
	case "system_locale":
		return s.System.Locale
	case "security_session_timeout":
		return s.Security.SessionTimeout
	case "security_max_login_attempts":
		return s.Security.MaxLoginAttempts
	case "security_audit_logging":
		return s.Security.AuditLogging
	}
	return nil
}

// Set assigns a raw value to the field after coercion and validation
func (s *Settings) Set(f Field, v any) error {
	c, err := f.Coerce(v)
	if err != nil {
		return err
	}
	if err := validateField(f, c); err != nil {
		return err
	}
	return f.assign(s, c)
}

// Get returns the current value of field f
func (s Settings) Get(f Field) any {
	return f.value(s)
}

// FromValues builds settings from stored values keyed by storage key.
// Missing keys or values of the wrong type fall back to the field default.
func FromValues(values map[string]any) Settings {
	s := Defaults()
	for _, f := range Fields {
		v, ok := values[f.Key]
		if !ok {
			continue
		}
		if err := f.assign(&s, v); err != nil {
			_ = f.assign(&s, f.Default)
		}
	}
	return s
}
