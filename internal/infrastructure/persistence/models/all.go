package models

// All returns every model managed by the console, in dependency order.
// Used by AutoMigrate for sqlite deployments and tests.
func All() []any {
	return []any{
		&KVEntryModel{},
		&CompanyModel{},
		&BranchModel{},
		&MembershipModel{},
		&CustomerModel{},
		&ContractModel{},
		&InvoiceModel{},
	}
}
