package types

type OutputKeyRequest struct {
	Status    string `json:"status"`
	Delivered bool   `json:"delivered"`
}

// OutputKeyStatus never carries the key value itself
type OutputKeyStatus struct {
	Email        string `json:"email"`
	HasActiveKey bool   `json:"hasActiveKey"`
	KeyExpiresAt int64  `json:"keyExpiresAt,omitempty"`
}

type OutputIdentityAssertion struct {
	Capability string `json:"capability"`
	Email      string `json:"email"`
	ExpiresAt  int64  `json:"expiresAt"`
}

// OutputAdminCreated echoes the freshly issued long-lived key exactly once,
// mirroring the copy mailed to the new admin
type OutputAdminCreated struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	AdminKey  string `json:"adminKey"`
	EmailSent bool   `json:"emailSent"`
}
