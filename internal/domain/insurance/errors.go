package insurance

import "errors"

var (
	ErrCompanyNotFound    = errors.New("insurance company not found")
	ErrClaimNotFound      = errors.New("insurance claim not found")
	ErrCoverageOutOfRange = errors.New("coverage percentage must be between 0 and 100")
	ErrNoInsuranceCompany = errors.New("patient has no insurance company assigned")
	ErrDiscountApplied    = errors.New("insurance discount has already been applied to this invoice")
	ErrCompanyNameTaken   = errors.New("insurance company with this name already exists")
)
