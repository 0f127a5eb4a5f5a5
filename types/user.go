package types

const (
	RoleAdmin  = "admin"
	RoleSeller = "vendeur"
	RoleBuyer  = "acheteur"
)

type User struct {
	BaseDocument
	Email        string `json:"email" validate:"required,email"`
	Name         string `json:"name" validate:"required"`
	PasswordHash string `json:"passwordHash"`
	Role         string `json:"role"`
	PhoneNumber  string `json:"phoneNumber,omitempty"`
	Created      int64  `json:"created"`
	Modified     int64  `json:"modified,omitempty"`
}
