package room

import "errors"

var (
	ErrRoomNotFound     = errors.New("room not found")
	ErrServiceNotFound  = errors.New("room service not found")
	ErrCapacityExceeded = errors.New("room occupancy would violate the bed count")
	ErrInvalidBedCount  = errors.New("bed count must be at least 1")
	ErrNegativePrice    = errors.New("price cannot be negative")
	ErrInvalidRoomType  = errors.New("invalid room type")
	ErrInvalidService   = errors.New("invalid service type")
)
