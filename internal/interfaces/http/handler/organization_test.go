package handler

import (
	"net/http"
	"testing"

	"github.com/erp/console/internal/application/organization"
	"github.com/erp/console/internal/infrastructure/config"
	"github.com/erp/console/internal/infrastructure/persistence"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func setupOrganizationRouter(t *testing.T) *gin.Engine {
	t.Helper()
	db, err := persistence.NewDatabase(&config.DatabaseConfig{Driver: "sqlite", Path: ":memory:"})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate())
	t.Cleanup(func() { _ = db.Close() })

	svc := organization.NewService(
		persistence.NewGormCompanyRepository(db.DB),
		persistence.NewGormBranchRepository(db.DB),
		persistence.NewGormMembershipRepository(db.DB),
		persistence.NewGormLedgerReader(db.DB),
		nil,
		zaptest.NewLogger(t),
	)
	h := NewOrganizationHandler(svc)

	r := gin.New()
	org := r.Group("/organization")
	org.GET("/companies", h.ListCompanies)
	org.POST("/companies", h.CreateCompany)
	org.GET("/companies/:id", h.GetCompany)
	org.PUT("/companies/:id", h.UpdateCompany)
	org.GET("/companies/:id/branches", h.ListBranches)
	org.POST("/companies/:id/branches", h.CreateBranch)
	org.GET("/companies/:id/branches/next-code", h.NextBranchCode)
	org.GET("/companies/:id/memberships", h.ListMemberships)
	org.POST("/companies/:id/memberships", h.CreateMembership)
	org.GET("/branches/:id", h.GetBranch)
	org.PUT("/branches/:id", h.UpdateBranch)
	return r
}

func createCompany(t *testing.T, r *gin.Engine, body string) string {
	t.Helper()
	w := doJSON(r, http.MethodPost, "/organization/companies", body)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	return dataMap(t, w)["id"].(string)
}

func TestOrganizationHandler_Companies(t *testing.T) {
	r := setupOrganizationRouter(t)

	acmeID := createCompany(t, r, `{"legal_name":"Acme Comércio Ltda","trade_name":"Acme","tax_id":"11.222.333/0001-81"}`)
	createCompany(t, r, `{"legal_name":"Globex Serviços S.A.","tax_id":"11444777000161"}`)

	t.Run("list with search and pagination meta", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/organization/companies?search=acme&page=1&page_size=10", "")
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		resp := decodeResponse(t, w)
		require.NotNil(t, resp.Meta)
		assert.EqualValues(t, 1, resp.Meta.Total)
		list := resp.Data.([]any)
		require.Len(t, list, 1)
		assert.Equal(t, "Acme Comércio Ltda", list[0].(map[string]any)["legal_name"])
	})

	t.Run("get returns aggregates", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/organization/companies/"+acmeID, "")
		require.Equal(t, http.StatusOK, w.Code)
		data := dataMap(t, w)
		assert.Equal(t, "11222333000181", data["tax_id"])
		assert.NotNil(t, data["aggregates"])
	})

	t.Run("update", func(t *testing.T) {
		w := doJSON(r, http.MethodPut, "/organization/companies/"+acmeID,
			`{"legal_name":"Acme Comércio e Serviços Ltda","tax_id":"11222333000181","active":false}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())
		data := dataMap(t, w)
		assert.Equal(t, "Acme Comércio e Serviços Ltda", data["legal_name"])
		assert.Equal(t, false, data["active"])
	})

	t.Run("duplicate tax id conflicts", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/organization/companies", `{"legal_name":"Copy","tax_id":"11222333000181"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "TAX_ID_EXISTS", errorCode(t, w))
	})

	t.Run("invalid tax id", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/organization/companies", `{"legal_name":"Bad","tax_id":"11222333000100"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "INVALID_TAX_ID", errorCode(t, w))
	})

	t.Run("missing legal name", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, "/organization/companies", `{"tax_id":"12345678000195"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ERR_VALIDATION", errorCode(t, w))
	})

	t.Run("unknown company", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/organization/companies/"+uuid.NewString(), "")
		assert.Equal(t, http.StatusNotFound, w.Code)
	})

	t.Run("malformed id", func(t *testing.T) {
		w := doJSON(r, http.MethodGet, "/organization/companies/not-a-uuid", "")
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestOrganizationHandler_Branches(t *testing.T) {
	r := setupOrganizationRouter(t)
	companyID := createCompany(t, r, `{"legal_name":"Acme Comércio Ltda","tax_id":"11222333000181"}`)
	base := "/organization/companies/" + companyID + "/branches"

	w := doJSON(r, http.MethodGet, base+"/next-code", "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "001", dataMap(t, w)["code"])

	w = doJSON(r, http.MethodPost, base, `{"name":"Matriz","is_headquarters":true}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	hq := dataMap(t, w)
	assert.Equal(t, "001", hq["code"])

	t.Run("second headquarters is rejected", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, base, `{"name":"Outra Matriz","is_headquarters":true}`)
		assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
		assert.Equal(t, "HEADQUARTERS_EXISTS", errorCode(t, w))
	})

	t.Run("generated codes continue the sequence", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, base, `{"name":"Filial Campinas"}`)
		require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
		assert.Equal(t, "002", dataMap(t, w)["code"])

		w = doJSON(r, http.MethodGet, base, "")
		require.Equal(t, http.StatusOK, w.Code)
		assert.Len(t, decodeResponse(t, w).Data.([]any), 2)
	})

	t.Run("get and update a branch", func(t *testing.T) {
		id := hq["id"].(string)
		w := doJSON(r, http.MethodPut, "/organization/branches/"+id, `{"name":"Matriz SP","is_headquarters":true,"cost_center":"CC-01"}`)
		require.Equal(t, http.StatusOK, w.Code, w.Body.String())

		w = doJSON(r, http.MethodGet, "/organization/branches/"+id, "")
		require.Equal(t, http.StatusOK, w.Code)
		data := dataMap(t, w)
		assert.Equal(t, "Matriz SP", data["name"])
		assert.Equal(t, "001", data["code"])
		assert.Equal(t, "CC-01", data["cost_center"])
	})
}

func TestOrganizationHandler_Memberships(t *testing.T) {
	r := setupOrganizationRouter(t)
	companyID := createCompany(t, r, `{"legal_name":"Acme Comércio Ltda","tax_id":"11222333000181"}`)
	base := "/organization/companies/" + companyID + "/memberships"
	userID := uuid.NewString()

	w := doJSON(r, http.MethodPost, base, `{"user_id":"`+userID+`","role":"operator"}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "operator", dataMap(t, w)["role"])

	t.Run("same user twice conflicts", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, base, `{"user_id":"`+userID+`","role":"viewer"}`)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Equal(t, "MEMBERSHIP_EXISTS", errorCode(t, w))
	})

	t.Run("unknown role fails validation", func(t *testing.T) {
		w := doJSON(r, http.MethodPost, base, `{"user_id":"`+uuid.NewString()+`","role":"owner"}`)
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Equal(t, "ERR_VALIDATION", errorCode(t, w))
	})

	w = doJSON(r, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeResponse(t, w).Data.([]any), 1)
}
