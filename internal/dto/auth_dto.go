package dto

// ─── Request DTOs ────────────────────────────────────────────────────────────

type LoginRequest struct {
	EmployeeID string `json:"employee_id" validate:"required,min=1"`
	PIN        string `json:"pin"         validate:"required,min=4"`
}

type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" validate:"required"`
}

type CreateEmployeeRequest struct {
	ID          string `json:"id"           validate:"required,min=1,max=40"`
	FirstName   string `json:"first_name"   validate:"omitempty,max=60"`
	LastName    string `json:"last_name"    validate:"omitempty,max=60"`
	Name        string `json:"name"         validate:"required,min=2,max=120"`
	Cargo       string `json:"cargo"        validate:"required,oneof=cajero bartender puerta seguridad admin"`
	PIN         string `json:"pin"          validate:"required,min=4,max=12"`
	IsCashier   bool   `json:"is_cashier"`
	IsBartender bool   `json:"is_bartender"`
}

type UpdateEmployeeRequest struct {
	Name        string `json:"name"  validate:"omitempty,min=2,max=120"`
	Cargo       string `json:"cargo" validate:"omitempty,oneof=cajero bartender puerta seguridad admin"`
	PIN         string `json:"pin"   validate:"omitempty,min=4,max=12"`
	IsCashier   *bool  `json:"is_cashier"`
	IsBartender *bool  `json:"is_bartender"`
}

// ─── Response DTOs ───────────────────────────────────────────────────────────

type EmployeeResponse struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Cargo       string `json:"cargo"`
	IsCashier   bool   `json:"is_cashier"`
	IsBartender bool   `json:"is_bartender"`
	IsActive    bool   `json:"is_active"`
}

type LoginResponse struct {
	AccessToken  string           `json:"access_token"`
	RefreshToken string           `json:"refresh_token"`
	TokenType    string           `json:"token_type"`
	ExpiresIn    int              `json:"expires_in"` // seconds
	Employee     EmployeeResponse `json:"employee"`
}
