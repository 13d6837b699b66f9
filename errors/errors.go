package errors

import "fmt"

var (
	ErrUnauthorized     = fmt.Errorf("no credential presented")
	ErrInvalidToken     = fmt.Errorf("invalid or expired token")
	ErrIdentityNotFound = fmt.Errorf("identity not found")
	ErrDeliveryFailure  = fmt.Errorf("event delivery failed")
	ErrConnectionClosed = fmt.Errorf("connection closed")
	ErrIdentityExists   = fmt.Errorf("identity already exists")
	ErrInvalidState     = fmt.Errorf("illegal connection state transition")
	ErrWorkerPanic      = fmt.Errorf("worker panic")
)
