// Package auth contiene el controller del flujo de login/TOTP.
package auth

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	dto "github.com/dropDatabas3/vetclinic/internal/http/dto/auth"
	httperrors "github.com/dropDatabas3/vetclinic/internal/http/errors"
	"github.com/dropDatabas3/vetclinic/internal/http/helpers"
	svc "github.com/dropDatabas3/vetclinic/internal/http/services/auth"
	"github.com/dropDatabas3/vetclinic/internal/observability/logger"
	qrcode "github.com/skip2/go-qrcode"
)

// Controller maneja los endpoints de autenticación.
type Controller struct {
	service *svc.Service
}

func NewController(s *svc.Service) *Controller {
	return &Controller{service: s}
}

// Login maneja POST /users/login?force_provision=bool.
//
// Wire format: 200 con access_token en éxito; 201 con need_totp/totp_uri
// cuando falta configurar TOTP; 400 para credenciales o código malos;
// 423 con los minutos restantes cuando la cuenta está bloqueada.
func (c *Controller) Login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	log := logger.From(ctx).With(logger.Layer("controller"), logger.Op("users.login"))

	var in dto.LoginRequest
	if !helpers.ReadJSON(w, r, &in) {
		return
	}
	if in.Email == "" || in.Password == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields)
		return
	}
	forceProvision, _ := strconv.ParseBool(r.URL.Query().Get("force_provision"))

	res, err := c.service.Login(ctx, in, forceProvision)
	if err != nil {
		log.Error("login failed", logger.Err(err))
		httperrors.WriteError(w, err)
		return
	}

	switch res.Status {
	case svc.StatusLocked:
		// Minutos restantes redondeados hacia arriba.
		remaining := int(res.LockedFor.Seconds())/60 + 1
		httperrors.WriteError(w, httperrors.ErrAccountLocked.WithDetail(
			fmt.Sprintf("Intentá de nuevo en %d min.", remaining)))
	case svc.StatusBadCredentials:
		httperrors.WriteError(w, httperrors.ErrBadCredentials)
	case svc.StatusTOTPSetup:
		helpers.WriteJSON(w, http.StatusCreated, dto.NeedTOTPResponse{
			NeedTOTP: true,
			TOTPURI:  res.TOTPURI,
		})
	case svc.StatusTOTPRequired:
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("Código TOTP requerido."))
	case svc.StatusBadTOTP:
		httperrors.WriteError(w, httperrors.ErrInvalidTOTP)
	case svc.StatusOK:
		helpers.WriteJSON(w, http.StatusOK, dto.LoginResponse{
			AccessToken:        res.AccessToken,
			TokenType:          "bearer",
			Role:               res.Role,
			MustChangePassword: res.MustChangePassword,
		})
	default:
		httperrors.WriteError(w, httperrors.ErrInternalServerError)
	}
}

// ConfirmTOTP maneja POST /users/confirm-totp.
func (c *Controller) ConfirmTOTP(w http.ResponseWriter, r *http.Request) {
	var in dto.ConfirmTOTPRequest
	if !helpers.ReadJSON(w, r, &in) {
		return
	}
	if in.Email == "" || in.TOTPCode == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields)
		return
	}

	err := c.service.ConfirmTOTP(r.Context(), in.Email, in.TOTPCode)
	switch {
	case err == nil:
		helpers.WriteJSON(w, http.StatusOK, map[string]string{"detail": "TOTP confirmado."})
	case errors.Is(err, svc.ErrNotFound):
		httperrors.WriteError(w, httperrors.ErrNotFound)
	case errors.Is(err, svc.ErrTOTPNotConfigured):
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("TOTP no configurado para esta cuenta."))
	case errors.Is(err, svc.ErrBadTOTP):
		httperrors.WriteError(w, httperrors.ErrInvalidTOTP)
	default:
		httperrors.WriteError(w, err)
	}
}

// SetupTOTP maneja POST /users/setup-totp: regenera el secret y devuelve
// el URI nuevo.
func (c *Controller) SetupTOTP(w http.ResponseWriter, r *http.Request) {
	var in dto.SetupTOTPRequest
	if !helpers.ReadJSON(w, r, &in) {
		return
	}
	if in.Email == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields)
		return
	}

	uri, err := c.service.SetupTOTP(r.Context(), in.Email)
	switch {
	case err == nil:
		helpers.WriteJSON(w, http.StatusOK, dto.SetupTOTPResponse{
			Message: "TOTP configurado.",
			TOTPURI: uri,
		})
	case errors.Is(err, svc.ErrNotFound):
		httperrors.WriteError(w, httperrors.ErrNotFound)
	default:
		httperrors.WriteError(w, err)
	}
}

// TOTPQR maneja GET /users/totp-qr?email=...: renderiza el QR del URI de
// provisioning actual como PNG, sin regenerar el secret.
func (c *Controller) TOTPQR(w http.ResponseWriter, r *http.Request) {
	email := r.URL.Query().Get("email")
	if email == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields.WithDetail("email requerido"))
		return
	}

	uri, err := c.service.ProvisioningURI(r.Context(), email)
	switch {
	case err == nil:
	case errors.Is(err, svc.ErrNotFound):
		httperrors.WriteError(w, httperrors.ErrNotFound)
		return
	case errors.Is(err, svc.ErrTOTPNotConfigured):
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("TOTP no configurado para esta cuenta."))
		return
	default:
		httperrors.WriteError(w, err)
		return
	}

	png, err := qrcode.Encode(uri, qrcode.Medium, 256)
	if err != nil {
		httperrors.WriteError(w, httperrors.ErrInternalServerError.WithCause(err))
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(png)
}

// ChangePassword maneja POST /users/change-password.
func (c *Controller) ChangePassword(w http.ResponseWriter, r *http.Request) {
	var in dto.ChangePasswordRequest
	if !helpers.ReadJSON(w, r, &in) {
		return
	}
	if in.Email == "" || in.OldPassword == "" || in.NewPassword == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields)
		return
	}

	uri, err := c.service.ChangePassword(r.Context(), in.Email, in.OldPassword, in.NewPassword, in.ResetTOTP)
	switch {
	case err == nil:
		helpers.WriteJSON(w, http.StatusOK, dto.ChangePasswordResponse{
			Detail:  "Password actualizado.",
			TOTPURI: uri,
		})
	case errors.Is(err, svc.ErrNotFound), errors.Is(err, svc.ErrBadPassword):
		// Mismo mensaje para cuenta inexistente y password viejo incorrecto.
		httperrors.WriteError(w, httperrors.ErrBadCredentials)
	default:
		httperrors.WriteError(w, err)
	}
}
