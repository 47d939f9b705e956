package httpapi

import "time"

type registerRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,password"`
}

type activateRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
	Code     string `json:"code" validate:"required,len=4,number"`
}

type resendRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=72"`
}

type envelope struct {
	Status string `json:"status"`
	Data   any    `json:"data"`
}

type registerResponse struct {
	UserID    string    `json:"user_id"`
	Email     string    `json:"email"`
	Status    string    `json:"status"`
	ExpiresAt time.Time `json:"code_expires_at"`
	Message   string    `json:"message"`
	Warning   *apiError `json:"warning,omitempty"`
}

type activateResponse struct {
	UserID      string     `json:"user_id"`
	Email       string     `json:"email"`
	Status      string     `json:"status"`
	ActivatedAt *time.Time `json:"activated_at"`
	Message     string     `json:"message"`
}

type resendResponse struct {
	ExpiresAt time.Time `json:"code_expires_at"`
	Message   string    `json:"message"`
	Warning   *apiError `json:"warning,omitempty"`
}

type healthResponse struct {
	Service string `json:"service"`
	Storage string `json:"storage"`
}
