// Package organization is the explicit application state for companies,
// branches and memberships: read accessors plus mutation commands.
package organization

import (
	"context"
	"errors"
	"fmt"

	"github.com/erp/console/internal/domain/organization"
	"github.com/erp/console/internal/domain/shared"
	"github.com/erp/console/internal/infrastructure/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// ErrInvalidAddress wraps address validation failures
var ErrInvalidAddress = shared.NewDomainError("INVALID_ADDRESS", "Invalid address")

// ErrBranchNotInCompany is returned when a membership names a branch of another company
var ErrBranchNotInCompany = shared.NewDomainError("BRANCH_NOT_IN_COMPANY", "Branch does not belong to this company")

// Service handles organization operations
type Service struct {
	companies   organization.CompanyRepository
	branches    organization.BranchRepository
	memberships organization.MembershipRepository
	ledger      organization.LedgerReader
	audit       *logger.Audit
	logger      *zap.Logger
}

// NewService creates a new organization service. A nil ledger reports zero
// customers, contracts and paid invoices.
func NewService(
	companies organization.CompanyRepository,
	branches organization.BranchRepository,
	memberships organization.MembershipRepository,
	ledger organization.LedgerReader,
	audit *logger.Audit,
	log *zap.Logger,
) *Service {
	if log == nil {
		log = zap.NewNop()
	}
	if audit == nil {
		audit = logger.NewAudit(log)
	}
	return &Service{
		companies:   companies,
		branches:    branches,
		memberships: memberships,
		ledger:      ledger,
		audit:       audit,
		logger:      log.Named("organization"),
	}
}

// ListCompanies returns a page of companies with their aggregates
func (s *Service) ListCompanies(ctx context.Context, filter CompanyFilter) (*CompanyListResult, error) {
	sf := filter.ToSharedFilter()

	companies, err := s.companies.FindAll(ctx, sf)
	if err != nil {
		return nil, err
	}
	total, err := s.companies.Count(ctx, sf)
	if err != nil {
		return nil, err
	}

	ids := make([]uuid.UUID, len(companies))
	for i := range companies {
		ids[i] = companies[i].ID
	}
	aggregates, err := s.aggregates(ctx, ids)
	if err != nil {
		return nil, err
	}

	items := make([]CompanySummaryDTO, len(companies))
	for i := range companies {
		items[i] = CompanySummaryDTO{
			CompanyDTO: ToCompanyDTO(&companies[i]),
			Aggregates: aggregates[companies[i].ID],
		}
	}

	page := shared.NewPaginated(items, total, sf.Page, sf.PageSize)
	return &CompanyListResult{
		Companies:  page.Items,
		Total:      page.Total,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalPages: page.TotalPages,
	}, nil
}

// GetCompany returns a company with its branches and aggregates
func (s *Service) GetCompany(ctx context.Context, id uuid.UUID) (*CompanyDetailDTO, error) {
	company, err := s.companies.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	branches, err := s.branches.FindByCompany(ctx, id)
	if err != nil {
		return nil, err
	}
	aggregates, err := s.aggregates(ctx, []uuid.UUID{id})
	if err != nil {
		return nil, err
	}
	return &CompanyDetailDTO{
		CompanyDTO: ToCompanyDTO(company),
		Aggregates: aggregates[id],
		Branches:   ToBranchDTOs(branches),
	}, nil
}

func (s *Service) aggregates(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]CompanyAggregates, error) {
	out := make(map[uuid.UUID]CompanyAggregates, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	branchCounts, err := s.branches.CountByCompany(ctx, ids)
	if err != nil {
		return nil, err
	}
	var summaries map[uuid.UUID]organization.LedgerSummary
	if s.ledger != nil {
		summaries, err = s.ledger.Summaries(ctx, ids)
		if err != nil {
			return nil, fmt.Errorf("read ledger: %w", err)
		}
	}

	for _, id := range ids {
		sum := summaries[id]
		out[id] = CompanyAggregates{
			BranchCount:      branchCounts[id],
			CustomerCount:    sum.CustomerCount,
			ContractCount:    sum.ContractCount,
			PaidInvoiceTotal: sum.PaidInvoiceTotal,
		}
	}
	return out, nil
}

// AddCompany creates a company
func (s *Service) AddCompany(ctx context.Context, input CompanyInput) (*CompanyDTO, error) {
	company, err := organization.NewCompany(input.LegalName, input.TradeName, input.TaxID)
	if err != nil {
		return nil, err
	}
	if err := applyCompanyInput(company, input); err != nil {
		return nil, err
	}
	if err := s.ensureTaxIDFree(ctx, company); err != nil {
		return nil, err
	}
	if err := s.companies.Save(ctx, company); err != nil {
		return nil, err
	}
	s.publish(ctx, &company.BaseAggregateRoot)

	s.logger.Info("Company created",
		zap.String("company_id", company.ID.String()),
		zap.String("tax_id", company.TaxID))
	dto := ToCompanyDTO(company)
	return &dto, nil
}

// UpdateCompany replaces the company's fields with input
func (s *Service) UpdateCompany(ctx context.Context, id uuid.UUID, input CompanyInput) (*CompanyDTO, error) {
	company, err := s.companies.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := company.Update(input.LegalName, input.TradeName, input.TaxID); err != nil {
		return nil, err
	}
	if err := applyCompanyInput(company, input); err != nil {
		return nil, err
	}
	if err := s.ensureTaxIDFree(ctx, company); err != nil {
		return nil, err
	}
	if err := s.companies.Save(ctx, company); err != nil {
		return nil, err
	}
	s.publish(ctx, &company.BaseAggregateRoot)

	dto := ToCompanyDTO(company)
	return &dto, nil
}

func (s *Service) ensureTaxIDFree(ctx context.Context, company *organization.Company) error {
	exists, err := s.companies.ExistsByTaxID(ctx, company.TaxID, company.ID)
	if err != nil {
		return err
	}
	if exists {
		return organization.ErrTaxIDExists
	}
	return nil
}

func applyCompanyInput(company *organization.Company, input CompanyInput) error {
	if err := company.SetContact(input.Contact); err != nil {
		return err
	}
	addr, err := input.Address.ToAddress()
	if err != nil {
		return shared.NewDomainError(ErrInvalidAddress.Code, err.Error())
	}
	company.SetAddress(addr)
	company.SetBanking(input.Banking)
	if input.Config != nil {
		if err := company.SetConfig(*input.Config); err != nil {
			return err
		}
	}
	if input.Active != nil {
		if *input.Active {
			company.Activate()
		} else {
			company.Deactivate()
		}
	}
	return nil
}

// ListBranches returns the branches of a company ordered by code
func (s *Service) ListBranches(ctx context.Context, companyID uuid.UUID) ([]BranchDTO, error) {
	if _, err := s.companies.FindByID(ctx, companyID); err != nil {
		return nil, err
	}
	branches, err := s.branches.FindByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	return ToBranchDTOs(branches), nil
}

// GetBranch returns one branch
func (s *Service) GetBranch(ctx context.Context, id uuid.UUID) (*BranchDTO, error) {
	branch, err := s.branches.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := ToBranchDTO(branch)
	return &dto, nil
}

// NextBranchCode suggests the next numeric code for a company. It is a
// best-effort sequence: concurrent callers can get the same code.
func (s *Service) NextBranchCode(ctx context.Context, companyID uuid.UUID) (string, error) {
	if _, err := s.companies.FindByID(ctx, companyID); err != nil {
		return "", err
	}
	branches, err := s.branches.FindByCompany(ctx, companyID)
	if err != nil {
		return "", err
	}
	return organization.NextBranchCode(branchCodes(branches)), nil
}

// AddBranch creates a branch. The headquarters and code rules are checked
// against the company's current branches; on violation nothing is stored.
func (s *Service) AddBranch(ctx context.Context, companyID uuid.UUID, input BranchInput) (*BranchDTO, error) {
	if _, err := s.companies.FindByID(ctx, companyID); err != nil {
		return nil, err
	}
	siblings, err := s.branches.FindByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}

	code := input.Code
	if code == "" {
		code = organization.NextBranchCode(branchCodes(siblings))
	}
	branch, err := organization.NewBranch(companyID, code, input.Name)
	if err != nil {
		return nil, err
	}
	if err := applyBranchInput(branch, input); err != nil {
		return nil, err
	}
	if err := checkBranchRules(siblings, branch); err != nil {
		return nil, err
	}
	if err := s.branches.Save(ctx, branch); err != nil {
		return nil, err
	}
	s.publish(ctx, &branch.BaseAggregateRoot)

	s.logger.Info("Branch created",
		zap.String("company_id", companyID.String()),
		zap.String("branch_id", branch.ID.String()),
		zap.String("code", branch.Code))
	dto := ToBranchDTO(branch)
	return &dto, nil
}

// UpdateBranch replaces the branch's fields with input
func (s *Service) UpdateBranch(ctx context.Context, id uuid.UUID, input BranchInput) (*BranchDTO, error) {
	branch, err := s.branches.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	siblings, err := s.branches.FindByCompany(ctx, branch.CompanyID)
	if err != nil {
		return nil, err
	}

	code := input.Code
	if code == "" {
		code = branch.Code
	}
	if err := branch.Update(code, input.Name); err != nil {
		return nil, err
	}
	if err := applyBranchInput(branch, input); err != nil {
		return nil, err
	}
	if err := checkBranchRules(siblings, branch); err != nil {
		return nil, err
	}
	if err := s.branches.Save(ctx, branch); err != nil {
		return nil, err
	}
	s.publish(ctx, &branch.BaseAggregateRoot)

	dto := ToBranchDTO(branch)
	return &dto, nil
}

func checkBranchRules(siblings []organization.Branch, branch *organization.Branch) error {
	if err := organization.EnsureSingleHeadquarters(siblings, branch); err != nil {
		return err
	}
	return organization.EnsureUniqueCode(siblings, branch)
}

func applyBranchInput(branch *organization.Branch, input BranchInput) error {
	branch.SetHeadquarters(input.IsHeadquarters)
	branch.SetTax(input.Tax)
	addr, err := input.Address.ToAddress()
	if err != nil {
		return shared.NewDomainError(ErrInvalidAddress.Code, err.Error())
	}
	branch.SetAddress(addr)
	if err := branch.SetResponsible(input.Responsible); err != nil {
		return err
	}
	if input.Operations != nil {
		branch.SetOperations(*input.Operations)
	}
	if err := branch.SetCostCenter(input.CostCenter); err != nil {
		return err
	}
	if input.Active != nil {
		branch.SetActive(*input.Active)
	}
	return nil
}

func branchCodes(branches []organization.Branch) []string {
	codes := make([]string, len(branches))
	for i := range branches {
		codes[i] = branches[i].Code
	}
	return codes
}

// AddMembership links a user to a company and optionally one of its branches
func (s *Service) AddMembership(ctx context.Context, companyID uuid.UUID, input MembershipInput) (*MembershipDTO, error) {
	if _, err := s.companies.FindByID(ctx, companyID); err != nil {
		return nil, err
	}
	if input.BranchID != nil {
		branch, err := s.branches.FindByID(ctx, *input.BranchID)
		if errors.Is(err, shared.ErrNotFound) {
			return nil, ErrBranchNotInCompany
		}
		if err != nil {
			return nil, err
		}
		if branch.CompanyID != companyID {
			return nil, ErrBranchNotInCompany
		}
	}

	exists, err := s.memberships.ExistsForUser(ctx, companyID, input.UserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, organization.ErrMembershipExists
	}

	membership, err := organization.NewMembership(companyID, input.UserID, input.BranchID,
		organization.Role(input.Role), input.Permissions)
	if err != nil {
		return nil, err
	}
	if err := s.memberships.Save(ctx, membership); err != nil {
		return nil, err
	}
	s.publish(ctx, &membership.BaseAggregateRoot)

	dto := ToMembershipDTO(membership)
	return &dto, nil
}

// ListMemberships returns the memberships of a company
func (s *Service) ListMemberships(ctx context.Context, companyID uuid.UUID) ([]MembershipDTO, error) {
	if _, err := s.companies.FindByID(ctx, companyID); err != nil {
		return nil, err
	}
	memberships, err := s.memberships.FindByCompany(ctx, companyID)
	if err != nil {
		return nil, err
	}
	out := make([]MembershipDTO, len(memberships))
	for i := range memberships {
		out[i] = ToMembershipDTO(&memberships[i])
	}
	return out, nil
}

// publish writes the aggregate's pending events to the audit trail
func (s *Service) publish(ctx context.Context, agg *shared.BaseAggregateRoot) {
	for _, e := range agg.GetDomainEvents() {
		s.audit.Record(ctx, "organization."+e.EventType(),
			zap.String("aggregate_type", e.AggregateType()),
			zap.String("aggregate_id", e.AggregateID().String()),
			zap.String("company_id", e.CompanyID().String()))
	}
	agg.ClearDomainEvents()
}
