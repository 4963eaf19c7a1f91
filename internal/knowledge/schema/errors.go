package schema

import (
	"errors"
	"fmt"
)

// ErrThrottled is returned when a tenant exceeds its fixed-window rate
// limit. It is recoverable by the caller once the window elapses and is
// never retried internally.
var ErrThrottled = errors.New("rate limit exceeded")

// SecurityViolationError reports a fragment whose stored tenant id does not
// match the requesting tenant. Its presence means the underlying index has a
// cross-tenant leak, so it must never be downgraded to an ordinary error or
// silently filtered out of results.
type SecurityViolationError struct {
	RequestingTenant string
	ObservedTenant   string
	FragmentID       string
}

func (e *SecurityViolationError) Error() string {
	return fmt.Sprintf("tenant isolation violation: fragment %s belongs to tenant %s, requested by tenant %s",
		e.FragmentID, e.ObservedTenant, e.RequestingTenant)
}

// IsSecurityViolation reports whether err wraps a SecurityViolationError.
func IsSecurityViolation(err error) bool {
	var sv *SecurityViolationError
	return errors.As(err, &sv)
}
