package patient

import "errors"

var (
	ErrPatientNotFound    = errors.New("patient not found")
	ErrEmailTaken         = errors.New("your email already exists")
	ErrInvalidEmail       = errors.New("invalid email format")
	ErrInvalidCondition   = errors.New("invalid patient condition")
	ErrInvalidBloodType   = errors.New("invalid blood type")
	ErrBirthDateInFuture  = errors.New("birth date cannot be in the future")
	ErrPatientHasRecords  = errors.New("patient has linked billing records and cannot be deleted")
	ErrDepartmentNotFound = errors.New("department not found")
)
