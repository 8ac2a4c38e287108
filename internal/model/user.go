package model

type UserRole string

const (
	RoleCustomer UserRole = "customer"
	RoleChef     UserRole = "chef"
	RoleAdmin    UserRole = "admin"
)

// User is the marketplace account as the notification pipeline sees it:
// a recipient with contact details. Account management lives elsewhere.
type User struct {
	Base
	Email         string   `json:"email" db:"email"`
	Name          string   `json:"name" db:"name"`
	Phone         string   `json:"phone,omitempty" db:"phone"`
	PhoneVerified bool     `json:"phone_verified" db:"phone_verified"`
	Role          UserRole `json:"role" db:"role"`
	Status        string   `json:"status" db:"status"`
}

// TokenClaims is the identity carried by an access token.
type TokenClaims struct {
	UserID string   `json:"user_id"`
	Email  string   `json:"email"`
	Role   UserRole `json:"role"`
}
