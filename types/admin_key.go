package types

import "time"

// KeyKind selects the TTL policy and text format of an admin key.
// Both kinds share the same document shape and lifecycle.
type KeyKind int

const (
	// KeyKindRequest is the short-lived self-service key (~24h), delivered only
	// to the trusted mailbox
	KeyKindRequest KeyKind = iota

	// KeyKindAdmin is the long-lived key (~90 days) mailed to the admin it
	// belongs to after registration
	KeyKindAdmin
)

// AdminKey is a single-use, time-boxed secret bound to an email identity.
// The document id is the key itself, which gives a unique index for free.
type AdminKey struct {
	BaseDocument
	Key       string `json:"key"`
	Email     string `json:"email"`
	Name      string `json:"name,omitempty"`
	Created   int64  `json:"created"`   // unix millis
	ExpiresAt int64  `json:"expiresAt"` // unix millis
	IsUsed    bool   `json:"isUsed"`
	UsedAt    int64  `json:"usedAt,omitempty"`
}

// IsExpired reports whether the key expired at the given time
func (k *AdminKey) IsExpired(now time.Time) bool {
	return now.UTC().UnixMilli() >= k.ExpiresAt
}

// IsLive reports whether the key is still redeemable: unconsumed and unexpired
func (k *AdminKey) IsLive(now time.Time) bool {
	return !k.IsUsed && !k.IsExpired(now)
}
