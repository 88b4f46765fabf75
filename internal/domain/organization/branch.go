package organization

import (
	"regexp"
	"strings"

	"github.com/erp/console/internal/domain/shared"
	"github.com/erp/console/internal/domain/shared/valueobject"
	"github.com/google/uuid"
)

// ErrHeadquartersExists is returned when a company would get a second headquarters
var ErrHeadquartersExists = shared.NewDomainError("HEADQUARTERS_EXISTS", "Company already has a headquarters branch")

// ErrBranchCodeExists is returned when a branch code is already used within the company
var ErrBranchCodeExists = shared.NewDomainError("BRANCH_CODE_EXISTS", "Branch code already exists for this company")

// TaxOverrides holds branch-specific registrations
type TaxOverrides struct {
	StateRegistration     string `json:"state_registration"`
	MunicipalRegistration string `json:"municipal_registration"`
}

// Responsible is the person in charge of a branch
type Responsible struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

// Operations flags which business operations a branch runs
type Operations struct {
	Sales      bool `json:"sales"`
	Purchasing bool `json:"purchasing"`
	Inventory  bool `json:"inventory"`
}

// Branch is a branch office belonging to exactly one company
type Branch struct {
	shared.CompanyAggregateRoot
	Code           string
	Name           string
	IsHeadquarters bool
	Tax            TaxOverrides
	Address        valueobject.Address
	Responsible    Responsible
	Operations     Operations
	CostCenter     string
	Active         bool
}

// NewBranch creates an active branch with all operations enabled
func NewBranch(companyID uuid.UUID, code, name string) (*Branch, error) {
	if companyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_COMPANY", "Company ID cannot be empty")
	}
	b := &Branch{
		CompanyAggregateRoot: shared.NewCompanyAggregateRoot(companyID),
		Operations:           Operations{Sales: true, Purchasing: true, Inventory: true},
		Active:               true,
	}
	if err := b.setIdentity(code, name); err != nil {
		return nil, err
	}

	b.AddDomainEvent(NewBranchCreatedEvent(b))
	return b, nil
}

// Update changes the branch code and name
func (b *Branch) Update(code, name string) error {
	if err := b.setIdentity(code, name); err != nil {
		return err
	}
	b.touch()
	b.AddDomainEvent(NewBranchUpdatedEvent(b))
	return nil
}

var branchCodeRegex = regexp.MustCompile(`^[a-zA-Z0-9][a-zA-Z0-9_-]*$`)

func (b *Branch) setIdentity(code, name string) error {
	code = strings.TrimSpace(code)
	name = strings.TrimSpace(name)
	if code == "" {
		return shared.NewDomainError("INVALID_CODE", "Branch code cannot be empty")
	}
	if len(code) > 20 {
		return shared.NewDomainError("INVALID_CODE", "Branch code cannot exceed 20 characters")
	}
	if !branchCodeRegex.MatchString(code) {
		return shared.NewDomainError("INVALID_CODE", "Branch code can only contain letters, digits, hyphens and underscores")
	}
	if name == "" {
		return shared.NewDomainError("INVALID_NAME", "Branch name cannot be empty")
	}
	if len(name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Branch name cannot exceed 200 characters")
	}
	b.Code = code
	b.Name = name
	return nil
}

// SetHeadquarters flags or unflags the branch as headquarters.
// Uniqueness across the company is checked by EnsureSingleHeadquarters.
func (b *Branch) SetHeadquarters(hq bool) {
	if b.IsHeadquarters == hq {
		return
	}
	b.IsHeadquarters = hq
	b.touch()
}

// SetTax replaces the tax overrides
func (b *Branch) SetTax(tax TaxOverrides) {
	b.Tax = TaxOverrides{
		StateRegistration:     strings.TrimSpace(tax.StateRegistration),
		MunicipalRegistration: strings.TrimSpace(tax.MunicipalRegistration),
	}
	b.touch()
}

// SetAddress replaces the postal address
func (b *Branch) SetAddress(addr valueobject.Address) {
	b.Address = addr
	b.touch()
}

// SetResponsible replaces the responsible person
func (b *Branch) SetResponsible(r Responsible) error {
	r.Name = strings.TrimSpace(r.Name)
	r.Email = strings.TrimSpace(r.Email)
	r.Phone = strings.TrimSpace(r.Phone)
	if err := validateContact(Contact{Email: r.Email, Phone: r.Phone}); err != nil {
		return err
	}
	if len(r.Name) > 200 {
		return shared.NewDomainError("INVALID_NAME", "Responsible name cannot exceed 200 characters")
	}
	b.Responsible = r
	b.touch()
	return nil
}

// SetOperations replaces the operational flags
func (b *Branch) SetOperations(ops Operations) {
	b.Operations = ops
	b.touch()
}

// SetCostCenter sets the cost-center tag
func (b *Branch) SetCostCenter(cc string) error {
	cc = strings.TrimSpace(cc)
	if len(cc) > 50 {
		return shared.NewDomainError("INVALID_COST_CENTER", "Cost center cannot exceed 50 characters")
	}
	b.CostCenter = cc
	b.touch()
	return nil
}

// SetActive activates or deactivates the branch
func (b *Branch) SetActive(active bool) {
	if b.Active == active {
		return
	}
	b.Active = active
	b.touch()
}

func (b *Branch) touch() {
	b.Touch()
	b.IncrementVersion()
}

// EnsureSingleHeadquarters checks that candidate does not become a second
// headquarters among siblings. The candidate itself may appear in siblings.
func EnsureSingleHeadquarters(siblings []Branch, candidate *Branch) error {
	if !candidate.IsHeadquarters {
		return nil
	}
	for i := range siblings {
		s := &siblings[i]
		if s.ID == candidate.ID || s.CompanyID != candidate.CompanyID {
			continue
		}
		if s.IsHeadquarters {
			return ErrHeadquartersExists
		}
	}
	return nil
}

// EnsureUniqueCode checks that candidate's code is not taken by a sibling
func EnsureUniqueCode(siblings []Branch, candidate *Branch) error {
	for i := range siblings {
		s := &siblings[i]
		if s.ID == candidate.ID || s.CompanyID != candidate.CompanyID {
			continue
		}
		if strings.EqualFold(s.Code, candidate.Code) {
			return ErrBranchCodeExists
		}
	}
	return nil
}
