package valueobject

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAddress(t *testing.T) {
	tests := []struct {
		name        string
		street      string
		city        string
		state       string
		opts        []AddressOption
		wantErr     bool
		errContains string
	}{
		{
			name:   "valid address with required fields",
			street: "Avenida Paulista",
			city:   "São Paulo",
			state:  "SP",
		},
		{
			name:   "lowercase state is normalized",
			street: "Rua da Assembleia",
			city:   "Rio de Janeiro",
			state:  "rj",
		},
		{
			name:   "valid address with all options",
			street: "Rua XV de Novembro",
			city:   "Curitiba",
			state:  "PR",
			opts: []AddressOption{
				WithNumber("1000"),
				WithComplement("Sala 12"),
				WithNeighborhood("Centro"),
				WithZipCode("80020-310"),
			},
		},
		{
			name:        "empty street",
			city:        "Recife",
			state:       "PE",
			wantErr:     true,
			errContains: "street cannot be empty",
		},
		{
			name:        "empty city",
			street:      "Rua Aurora",
			state:       "PE",
			wantErr:     true,
			errContains: "city cannot be empty",
		},
		{
			name:        "unknown state",
			street:      "Rua Aurora",
			city:        "Recife",
			state:       "XX",
			wantErr:     true,
			errContains: "invalid state code",
		},
		{
			name:        "short zip code",
			street:      "Rua Aurora",
			city:        "Recife",
			state:       "PE",
			opts:        []AddressOption{WithZipCode("5005")},
			wantErr:     true,
			errContains: "zip code must have 8 digits",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			addr, err := NewAddress(tt.street, tt.city, tt.state, tt.opts...)
			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errContains)
				return
			}
			require.NoError(t, err)
			assert.False(t, addr.IsEmpty())
			assert.Equal(t, DefaultCountry, addr.Country())
			assert.Len(t, addr.State(), 2)
		})
	}
}

func TestAddress_FullAddress(t *testing.T) {
	addr, err := NewAddress("Rua XV de Novembro", "Curitiba", "PR",
		WithNumber("1000"),
		WithNeighborhood("Centro"),
		WithZipCode("80020310"),
	)
	require.NoError(t, err)

	assert.Equal(t, "80020-310", addr.FormattedZipCode())
	assert.Equal(t, "Rua XV de Novembro, 1000 - Centro, Curitiba/PR, 80020-310", addr.FullAddress())
	assert.Equal(t, "", EmptyAddress().FullAddress())
}

func TestAddress_JSON(t *testing.T) {
	addr, err := NewAddress("Avenida Paulista", "São Paulo", "SP", WithNumber("1578"))
	require.NoError(t, err)

	data, err := json.Marshal(addr)
	require.NoError(t, err)

	var decoded Address
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.True(t, addr.Equals(decoded))

	t.Run("empty object decodes to empty address", func(t *testing.T) {
		var empty Address
		require.NoError(t, json.Unmarshal([]byte(`{}`), &empty))
		assert.True(t, empty.IsEmpty())
	})

	t.Run("invalid state is rejected", func(t *testing.T) {
		var bad Address
		err := json.Unmarshal([]byte(`{"street":"Rua A","city":"B","state":"ZZ"}`), &bad)
		assert.Error(t, err)
	})
}

func TestAddress_ValueScan(t *testing.T) {
	addr, err := NewAddress("Rua Aurora", "Recife", "PE", WithZipCode("50050-000"))
	require.NoError(t, err)

	v, err := addr.Value()
	require.NoError(t, err)

	var scanned Address
	require.NoError(t, scanned.Scan(v))
	assert.True(t, addr.Equals(scanned))

	t.Run("nil scans to empty", func(t *testing.T) {
		var a Address
		require.NoError(t, a.Scan(nil))
		assert.True(t, a.IsEmpty())
	})

	t.Run("empty address stores NULL", func(t *testing.T) {
		v, err := EmptyAddress().Value()
		require.NoError(t, err)
		assert.Nil(t, v)
	})

	t.Run("unsupported type", func(t *testing.T) {
		var a Address
		assert.Error(t, a.Scan(42))
	})
}

func TestAddress_SameCity(t *testing.T) {
	a := mustAddress(t, "Rua A", "Campinas", "SP")
	b := mustAddress(t, "Rua B", "campinas", "SP")
	c := mustAddress(t, "Rua C", "Campinas", "MG")

	assert.True(t, a.SameCity(b))
	assert.False(t, a.SameCity(c))
}

func mustAddress(t *testing.T, street, city, state string) Address {
	t.Helper()
	addr, err := NewAddress(street, city, state)
	require.NoError(t, err)
	return addr
}
