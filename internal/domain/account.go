package domain

import "strings"

// AccountStatus represents the lifecycle state of a seller or merchant
// account in the directory.
type AccountStatus string

const (
	AccountStatusActive    AccountStatus = "active"
	AccountStatusInactive  AccountStatus = "inactive"
	AccountStatusSuspended AccountStatus = "suspended"
	AccountStatusPending   AccountStatus = "pending"
)

// ParseAccountStatus normalises a directory status value. Known statuses are
// matched case-insensitively; unknown values are kept verbatim so they can
// still be displayed.
func ParseAccountStatus(s string) AccountStatus {
	switch v := AccountStatus(strings.ToLower(strings.TrimSpace(s))); v {
	case AccountStatusActive, AccountStatusInactive, AccountStatusSuspended, AccountStatusPending:
		return v
	}
	return AccountStatus(s)
}

// IsActive reports whether the account is in the active state.
func (s AccountStatus) IsActive() bool {
	return s == AccountStatusActive
}
