package admission

import "errors"

var (
	ErrAdmissionNotFound    = errors.New("admission not found")
	ErrInvalidStayDuration  = errors.New("discharge date must be after admission date")
	ErrRoomTypeMismatch     = errors.New("room type does not match the requested admission type")
	ErrRoomNotBookable      = errors.New("room is not available for booking")
	ErrPatientAlreadyStayed = errors.New("patient already has an active admission")
	ErrOptionalServiceType  = errors.New("only optional services can be added to an admission")
)
