package settings

import (
	"strings"
)

// maskPrefix starts every masked secret. The last four characters of a
// long secret stay visible so operators can tell keys apart.
const maskPrefix = "********"

// secretKeys are the credential fields shown masked unless revealed
var secretKeys = map[string]bool{
	"backend_public_key":  true,
	"backend_service_key": true,
	"ai_api_key":          true,
}

// Secret reports whether the field holds a credential
func (f Field) Secret() bool {
	return secretKeys[f.Key]
}

// Path returns the "section.name" form used by reveal lists
func (f Field) Path() string {
	return string(f.Section) + "." + f.Name
}

// MaskSecret hides all but the last four characters of v. Secrets of
// eight characters or fewer are hidden entirely.
func MaskSecret(v string) string {
	if v == "" {
		return ""
	}
	if len(v) <= 8 {
		return maskPrefix
	}
	return maskPrefix + v[len(v)-4:]
}

// IsMasked reports whether v is the output of MaskSecret
func IsMasked(v string) bool {
	return strings.HasPrefix(v, maskPrefix)
}

// Reveal selects the secret fields returned in clear text
type Reveal struct {
	all  bool
	keys map[string]bool
}

// RevealAll shows every secret
func RevealAll() Reveal {
	return Reveal{all: true}
}

// ParseReveal reads reveal entries of the form "section.name", each entry
// possibly a comma separated list. "all" reveals every secret.
func ParseReveal(entries []string) (Reveal, error) {
	r := Reveal{keys: make(map[string]bool)}
	for _, entry := range entries {
		for _, path := range strings.Split(entry, ",") {
			path = strings.TrimSpace(path)
			if path == "" {
				continue
			}
			if path == "all" {
				r.all = true
				continue
			}
			section, name, ok := strings.Cut(path, ".")
			if !ok {
				return Reveal{}, ErrUnknownField
			}
			f, err := LookupField(Section(section), name)
			if err != nil {
				return Reveal{}, err
			}
			r.keys[f.Key] = true
		}
	}
	return r, nil
}

// Shows reports whether f is returned in clear text
func (r Reveal) Shows(f Field) bool {
	return !f.Secret() || r.all || r.keys[f.Key]
}

// Masked returns a copy of s with every secret not selected by r masked
func (s Settings) Masked(r Reveal) Settings {
	out := s
	for _, f := range Fields {
		if r.Shows(f) {
			continue
		}
		if v, ok := f.value(s).(string); ok {
			_ = f.assign(&out, MaskSecret(v))
		}
	}
	return out
}

// KeepMaskedSecrets replaces masked secrets in next with the values in
// current, so a form sent back with masked keys leaves them unchanged
func KeepMaskedSecrets(next, current Settings) Settings {
	out := next
	for _, f := range Fields {
		if !f.Secret() {
			continue
		}
		if v, ok := f.value(next).(string); ok && IsMasked(v) {
			_ = f.assign(&out, f.value(current))
		}
	}
	return out
}
