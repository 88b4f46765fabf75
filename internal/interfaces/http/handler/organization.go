package handler

import (
	"github.com/erp/console/internal/application/organization"
	domain "github.com/erp/console/internal/domain/organization"
	"github.com/erp/console/internal/domain/shared/valueobject"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// OrganizationHandler serves companies, branches and memberships
type OrganizationHandler struct {
	BaseHandler
	service *organization.Service
}

// NewOrganizationHandler creates a new OrganizationHandler
func NewOrganizationHandler(service *organization.Service) *OrganizationHandler {
	return &OrganizationHandler{service: service}
}

// CompanyRequest is the company form
type CompanyRequest struct {
	LegalName string                 `json:"legal_name" binding:"required,max=200"`
	TradeName string                 `json:"trade_name" binding:"max=200"`
	TaxID     string                 `json:"tax_id" binding:"required"`
	Contact   domain.Contact         `json:"contact"`
	Address   valueobject.AddressDTO `json:"address"`
	Banking   *domain.BankDetails    `json:"banking"`
	Config    *domain.CompanyConfig  `json:"config"`
	Active    *bool                  `json:"active"`
}

func (r CompanyRequest) toInput() organization.CompanyInput {
	return organization.CompanyInput{
		LegalName: r.LegalName,
		TradeName: r.TradeName,
		TaxID:     r.TaxID,
		Contact:   r.Contact,
		Address:   r.Address,
		Banking:   r.Banking,
		Config:    r.Config,
		Active:    r.Active,
	}
}

// CompanyListQuery holds the company list parameters
type CompanyListQuery struct {
	Page     int    `form:"page" binding:"omitempty,min=1"`
	PageSize int    `form:"page_size" binding:"omitempty,min=1,max=100"`
	Search   string `form:"search"`
	SortBy   string `form:"sort_by" binding:"omitempty,oneof=legal_name trade_name created_at"`
	SortDir  string `form:"sort_dir" binding:"omitempty,oneof=asc desc"`
	Active   *bool  `form:"active"`
}

// BranchRequest is the branch form. An empty code is generated on create
// and kept on update.
type BranchRequest struct {
	Code           string                 `json:"code" binding:"max=20"`
	Name           string                 `json:"name" binding:"required,max=200"`
	IsHeadquarters bool                   `json:"is_headquarters"`
	Tax            domain.TaxOverrides    `json:"tax"`
	Address        valueobject.AddressDTO `json:"address"`
	Responsible    domain.Responsible     `json:"responsible"`
	Operations     *domain.Operations     `json:"operations"`
	CostCenter     string                 `json:"cost_center" binding:"max=50"`
	Active         *bool                  `json:"active"`
}

func (r BranchRequest) toInput() organization.BranchInput {
	return organization.BranchInput{
		Code:           r.Code,
		Name:           r.Name,
		IsHeadquarters: r.IsHeadquarters,
		Tax:            r.Tax,
		Address:        r.Address,
		Responsible:    r.Responsible,
		Operations:     r.Operations,
		CostCenter:     r.CostCenter,
		Active:         r.Active,
	}
}

// MembershipRequest links a user to a company
type MembershipRequest struct {
	UserID      string             `json:"user_id" binding:"required,uuid"`
	BranchID    string             `json:"branch_id" binding:"omitempty,uuid"`
	Role        string             `json:"role" binding:"required,oneof=admin manager operator viewer"`
	Permissions domain.Permissions `json:"permissions"`
}

// NextCodeResponse carries a suggested branch code
type NextCodeResponse struct {
	Code string `json:"code"`
}

// ListCompanies returns a page of companies with their aggregates
func (h *OrganizationHandler) ListCompanies(c *gin.Context) {
	var q CompanyListQuery
	if err := c.ShouldBindQuery(&q); err != nil {
		h.BindError(c, err)
		return
	}
	res, err := h.service.ListCompanies(c.Request.Context(), organization.CompanyFilter{
		Page:     q.Page,
		PageSize: q.PageSize,
		SortBy:   q.SortBy,
		SortDir:  q.SortDir,
		Keyword:  q.Search,
		Active:   q.Active,
	})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, res.Companies, res.Total, res.Page, res.PageSize)
}

// GetCompany returns one company with branches and aggregates
func (h *OrganizationHandler) GetCompany(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	res, err := h.service.GetCompany(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// CreateCompany adds a company
func (h *OrganizationHandler) CreateCompany(c *gin.Context) {
	var req CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	res, err := h.service.AddCompany(c.Request.Context(), req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, res)
}

// UpdateCompany replaces a company's form fields
func (h *OrganizationHandler) UpdateCompany(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req CompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	res, err := h.service.UpdateCompany(c.Request.Context(), id, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// ListBranches returns the branches of a company
func (h *OrganizationHandler) ListBranches(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	res, err := h.service.ListBranches(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// NextBranchCode suggests the code of the company's next branch
func (h *OrganizationHandler) NextBranchCode(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	code, err := h.service.NextBranchCode(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, NextCodeResponse{Code: code})
}

// CreateBranch adds a branch to a company
func (h *OrganizationHandler) CreateBranch(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req BranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	res, err := h.service.AddBranch(c.Request.Context(), id, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, res)
}

// GetBranch returns one branch
func (h *OrganizationHandler) GetBranch(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	res, err := h.service.GetBranch(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// UpdateBranch replaces a branch's form fields
func (h *OrganizationHandler) UpdateBranch(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req BranchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}
	res, err := h.service.UpdateBranch(c.Request.Context(), id, req.toInput())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// ListMemberships returns the memberships of a company
func (h *OrganizationHandler) ListMemberships(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	res, err := h.service.ListMemberships(c.Request.Context(), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, res)
}

// CreateMembership links a user to a company
func (h *OrganizationHandler) CreateMembership(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req MembershipRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.BindError(c, err)
		return
	}

	input := organization.MembershipInput{
		UserID:      uuid.MustParse(req.UserID),
		Role:        req.Role,
		Permissions: req.Permissions,
	}
	if req.BranchID != "" {
		branchID := uuid.MustParse(req.BranchID)
		input.BranchID = &branchID
	}

	res, err := h.service.AddMembership(c.Request.Context(), id, input)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, res)
}
