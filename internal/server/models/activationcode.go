package models

import "time"

// ActivationCode is a short-lived, single-use numeric code tied to one
// account. (AccountID, Code) identifies it logically; ID only exists
// because a re-issued code may repeat a burned value.
type ActivationCode struct {
	ID        int64
	AccountID string
	Code      string
	ExpiresAt time.Time
	CreatedAt time.Time
	// Consumed is set both by a successful activation and by burning.
	Consumed bool
	// ConsumedAt is set only by a successful activation.
	ConsumedAt *time.Time
	// InvalidatedAt is set only when the code was burned by a reissue.
	InvalidatedAt *time.Time
}

// IsValidAt reports whether the code can still be used at now. Expiry is
// strict: a code is dead at exactly ExpiresAt.
func (c *ActivationCode) IsValidAt(now time.Time) bool {
	return !c.Consumed && c.ExpiresAt.After(now)
}
