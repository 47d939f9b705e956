package proto

import "time"

type RegisterRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterResponse struct {
	UserID        string    `json:"user_id"`
	Email         string    `json:"email"`
	Status        string    `json:"status"`
	CodeExpiresAt time.Time `json:"code_expires_at"`
	// Warning is set when the activation email could not be queued.
	Warning string `json:"warning,omitempty"`
}

type ActivateRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	Code     string `json:"code"`
}

type ActivateResponse struct {
	UserID      string     `json:"user_id"`
	Email       string     `json:"email"`
	Status      string     `json:"status"`
	ActivatedAt *time.Time `json:"activated_at,omitempty"`
}

type ResendActivationRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type ResendActivationResponse struct {
	CodeExpiresAt time.Time `json:"code_expires_at"`
	Warning       string    `json:"warning,omitempty"`
}
