// Package auth define los DTOs del flujo de login/TOTP.
package auth

// LoginRequest es el body de POST /users/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	TOTPCode string `json:"totp_code,omitempty"`
}

// LoginResponse es la respuesta de login exitoso.
type LoginResponse struct {
	AccessToken        string `json:"access_token"`
	TokenType          string `json:"token_type"`
	Role               string `json:"role"`
	MustChangePassword bool   `json:"must_change_password,omitempty"`
}

// NeedTOTPResponse se devuelve con 201 cuando la cuenta tiene que
// terminar de configurar TOTP: el cliente muestra el QR del URI.
type NeedTOTPResponse struct {
	NeedTOTP bool   `json:"need_totp"`
	TOTPURI  string `json:"totp_uri"`
}

// ConfirmTOTPRequest es el body de POST /users/confirm-totp.
type ConfirmTOTPRequest struct {
	Email    string `json:"email"`
	TOTPCode string `json:"totp_code"`
}

// SetupTOTPRequest es el body de POST /users/setup-totp.
type SetupTOTPRequest struct {
	Email string `json:"email"`
}

// SetupTOTPResponse devuelve el URI de provisioning regenerado.
type SetupTOTPResponse struct {
	Message string `json:"message"`
	TOTPURI string `json:"totp_uri"`
}

// ChangePasswordRequest es el body de POST /users/change-password.
// Con reset_totp se regenera el secret TOTP junto con el password.
type ChangePasswordRequest struct {
	Email       string `json:"email"`
	OldPassword string `json:"old_password"`
	NewPassword string `json:"new_password"`
	ResetTOTP   bool   `json:"reset_totp,omitempty"`
}

// ChangePasswordResponse confirma el cambio. TOTPURI viene solo cuando
// se pidió reset_totp: el cliente tiene que volver a escanear el QR.
type ChangePasswordResponse struct {
	Detail  string `json:"detail"`
	TOTPURI string `json:"totp_uri,omitempty"`
}
