package organization

import (
	"testing"

	"github.com/erp/console/internal/domain/shared/valueobject"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const validCNPJ = "11.222.333/0001-81"

func TestNewCompany(t *testing.T) {
	t.Run("creates company successfully", func(t *testing.T) {
		c, err := NewCompany("Acme Comércio Ltda", "Acme", validCNPJ)

		require.NoError(t, err)
		assert.Equal(t, "Acme Comércio Ltda", c.LegalName)
		assert.Equal(t, "11222333000181", c.TaxID)
		assert.True(t, c.Active)
		assert.Equal(t, valueobject.BRL, c.Config.Currency)
		assert.Equal(t, "America/Sao_Paulo", c.Config.Timezone)
		assert.Equal(t, "Acme", c.DisplayName())
		require.Len(t, c.GetDomainEvents(), 1)
		assert.Equal(t, EventTypeCompanyCreated, c.GetDomainEvents()[0].EventType())
	})

	t.Run("display name falls back to legal name", func(t *testing.T) {
		c, err := NewCompany("Acme Comércio Ltda", "", validCNPJ)
		require.NoError(t, err)
		assert.Equal(t, "Acme Comércio Ltda", c.DisplayName())
	})

	t.Run("fails with empty legal name", func(t *testing.T) {
		_, err := NewCompany("  ", "Acme", validCNPJ)
		assert.ErrorContains(t, err, "Legal name cannot be empty")
	})

	t.Run("fails with invalid CNPJ", func(t *testing.T) {
		_, err := NewCompany("Acme", "", "11.222.333/0001-82")
		assert.ErrorIs(t, err, ErrInvalidTaxID)
	})
}

func TestNormalizeCNPJ(t *testing.T) {
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"11.222.333/0001-81", "11222333000181", false},
		{"11222333000181", "11222333000181", false},
		{"11111111111111", "", true},
		{"1122233300018", "", true},
		{"11.222.333/0001-8A", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := NormalizeCNPJ(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, "11.222.333/0001-81", FormatCNPJ(got))
		})
	}
}

func TestCompany_Update(t *testing.T) {
	c, err := NewCompany("Acme", "", validCNPJ)
	require.NoError(t, err)
	c.ClearDomainEvents()

	require.NoError(t, c.Update("Acme S.A.", "Acme", validCNPJ))
	assert.Equal(t, "Acme S.A.", c.LegalName)
	assert.Equal(t, 2, c.GetVersion())
	require.Len(t, c.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeCompanyUpdated, c.GetDomainEvents()[0].EventType())

	assert.Error(t, c.Update("", "", validCNPJ))
	assert.Equal(t, "Acme S.A.", c.LegalName, "failed update leaves state unchanged")
}

func TestCompany_SetContact(t *testing.T) {
	c, _ := NewCompany("Acme", "", validCNPJ)

	require.NoError(t, c.SetContact(Contact{Email: "contato@acme.com.br", Phone: "+55 (11) 3333-4444"}))
	assert.Equal(t, "contato@acme.com.br", c.Contact.Email)

	assert.ErrorContains(t, c.SetContact(Contact{Email: "not-an-email"}), "email")
	assert.ErrorContains(t, c.SetContact(Contact{Phone: "abc"}), "phone")
}

func TestCompany_SetConfig(t *testing.T) {
	c, _ := NewCompany("Acme", "", validCNPJ)

	require.NoError(t, c.SetConfig(CompanyConfig{Currency: "usd", Timezone: "America/Manaus", DateFormat: "YYYY-MM-DD"}))
	assert.Equal(t, valueobject.USD, c.Config.Currency)

	assert.Error(t, c.SetConfig(CompanyConfig{Currency: "BRL", Timezone: "Nowhere/City", DateFormat: "DD/MM/YYYY"}))
	assert.Error(t, c.SetConfig(CompanyConfig{Currency: "BRL", Timezone: "UTC", DateFormat: "YY"}))
	assert.Error(t, c.SetConfig(CompanyConfig{Currency: "REAL", Timezone: "UTC", DateFormat: "DD/MM/YYYY"}))
}

func TestCompany_Banking(t *testing.T) {
	c, _ := NewCompany("Acme", "", validCNPJ)

	c.SetBanking(&BankDetails{Bank: "341", Agency: "0001", Account: "12345-6", PixKey: "pix@acme.com.br"})
	require.NotNil(t, c.Banking)
	assert.Equal(t, "341", c.Banking.Bank)

	c.SetBanking(&BankDetails{})
	assert.Nil(t, c.Banking)
}

func TestCompany_ActivateDeactivate(t *testing.T) {
	c, _ := NewCompany("Acme", "", validCNPJ)
	c.ClearDomainEvents()

	c.Activate()
	assert.Empty(t, c.GetDomainEvents(), "already active is a no-op")

	c.Deactivate()
	assert.False(t, c.Active)
	require.Len(t, c.GetDomainEvents(), 1)
	assert.Equal(t, EventTypeCompanyStatusChanged, c.GetDomainEvents()[0].EventType())
}
