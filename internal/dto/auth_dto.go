package dto

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// AuthResponse carries the signed token plus the authenticated account.
// Account is the role-specific record (admin/parent/observer/principal)
// with the password hash already blanked.
type AuthResponse struct {
	AccessToken string      `json:"access_token"`
	TokenType   string      `json:"token_type"`
	ExpiresIn   int64       `json:"expires_in"`
	Role        string      `json:"role"`
	Account     interface{} `json:"account"`
}

type CreateAccountRequest struct {
	Email    string  `json:"email" binding:"required,email"`
	FullName string  `json:"full_name" binding:"required,min=2,max=100"`
	Password string  `json:"password" binding:"required,min=8"`
	Phone    *string `json:"phone,omitempty"`
	// Observer-only fields
	School   string `json:"school,omitempty"`
	Capacity int    `json:"capacity,omitempty"`
}

type SetActiveRequest struct {
	Active *bool `json:"active" binding:"required"`
}
