package types

// for the self-service key request flow
type InputRequestKey struct {
	Email string `json:"email" validate:"required,email"`
}

// for re-issuing a long-lived key to an existing admin
type InputResendKey struct {
	Email string `json:"email" validate:"required,email"`
}

// Google ID token presented to establish the identity assertion
type InputVerifyIdentity struct {
	IDToken string `json:"googleIdToken" validate:"required"`
}

// admin registration, gated by a live request key
type InputRegisterAdmin struct {
	Key         string `json:"key" validate:"required"`
	Email       string `json:"email" validate:"required,email"`
	Password    string `json:"password" validate:"required,min=8"`
	Name        string `json:"name" validate:"required"`
	PhoneNumber string `json:"phoneNumber,omitempty"`
}

type InputContact struct {
	Name    string `json:"name" validate:"required"`
	Email   string `json:"email" validate:"required,email"`
	Phone   string `json:"phone,omitempty"`
	Subject string `json:"subject" validate:"required"`
	Message string `json:"message" validate:"required"`
}
