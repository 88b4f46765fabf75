package settings

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMaskSecret(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"pk", "********"},
		{"12345678", "********"},
		{"sk-live-0123456789", "********6789"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := MaskSecret(tt.in)
			assert.Equal(t, tt.want, got)
			if tt.in != "" {
				assert.True(t, IsMasked(got))
			}
		})
	}
	assert.False(t, IsMasked("sk-live-0123456789"))
}

func TestField_Secret(t *testing.T) {
	var secrets []string
	for _, f := range Fields {
		if f.Secret() {
			secrets = append(secrets, f.Path())
		}
	}
	assert.ElementsMatch(t, []string{"backend.public_key", "backend.service_key", "ai.api_key"}, secrets)
}

func TestParseReveal(t *testing.T) {
	apiKey, err := LookupField(SectionAI, "api_key")
	require.NoError(t, err)
	serviceKey, err := LookupField(SectionBackend, "service_key")
	require.NoError(t, err)

	t.Run("none", func(t *testing.T) {
		r, err := ParseReveal(nil)
		require.NoError(t, err)
		assert.False(t, r.Shows(apiKey))
	})

	t.Run("single field", func(t *testing.T) {
		r, err := ParseReveal([]string{"ai.api_key"})
		require.NoError(t, err)
		assert.True(t, r.Shows(apiKey))
		assert.False(t, r.Shows(serviceKey))
	})

	t.Run("comma list and repeats", func(t *testing.T) {
		r, err := ParseReveal([]string{"ai.api_key, backend.service_key", ""})
		require.NoError(t, err)
		assert.True(t, r.Shows(apiKey))
		assert.True(t, r.Shows(serviceKey))
	})

	t.Run("all", func(t *testing.T) {
		r, err := ParseReveal([]string{"all"})
		require.NoError(t, err)
		assert.True(t, r.Shows(serviceKey))
	})

	t.Run("unknown paths", func(t *testing.T) {
		for _, path := range []string{"api_key", "ai.colour", "billing.key"} {
			_, err := ParseReveal([]string{path})
			assert.Error(t, err, path)
		}
	})
}

func TestSettings_Masked(t *testing.T) {
	s := Defaults()
	s.Backend.URL = "https://api.example.com"
	s.Backend.PublicKey = "pk"
	s.Backend.ServiceKey = "svc-abcdefgh1234"
	s.AI.APIKey = "sk-live-0123456789"

	r, err := ParseReveal([]string{"backend.public_key"})
	require.NoError(t, err)
	m := s.Masked(r)

	assert.Equal(t, "pk", m.Backend.PublicKey)
	assert.Equal(t, "********1234", m.Backend.ServiceKey)
	assert.Equal(t, "********6789", m.AI.APIKey)
	assert.Equal(t, s.Backend.URL, m.Backend.URL)
	assert.Equal(t, "sk-live-0123456789", s.AI.APIKey, "original untouched")

	assert.Equal(t, s, s.Masked(RevealAll()))
}

func TestKeepMaskedSecrets(t *testing.T) {
	current := Defaults()
	current.AI.APIKey = "sk-live-0123456789"
	current.Backend.ServiceKey = "svc-abcdefgh1234"

	next := current.Masked(Reveal{})
	next.AI.Model = "gpt-4o"
	next.Backend.ServiceKey = "svc-new"

	got := KeepMaskedSecrets(next, current)
	assert.Equal(t, "sk-live-0123456789", got.AI.APIKey)
	assert.Equal(t, "svc-new", got.Backend.ServiceKey)
	assert.Equal(t, "gpt-4o", got.AI.Model)
}
