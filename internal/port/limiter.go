package port

import "github.com/civicyouth/portal/internal/domain"

// LoginLimiter decides whether a login attempt for an identifier may proceed.
type LoginLimiter interface {
	Check(identifier string) domain.LimitDecision
	Reset(identifier string)
}
