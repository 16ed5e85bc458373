// Package auth implementa la máquina de estados de login: lockout por
// intentos fallidos, provisioning y verificación TOTP, y emisión del
// bearer token.
package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/dropDatabas3/vetclinic/internal/domain/repository"
	dto "github.com/dropDatabas3/vetclinic/internal/http/dto/auth"
	jwtx "github.com/dropDatabas3/vetclinic/internal/jwt"
	"github.com/dropDatabas3/vetclinic/internal/metrics"
	"github.com/dropDatabas3/vetclinic/internal/observability/logger"
	"github.com/dropDatabas3/vetclinic/internal/security/password"
	"github.com/dropDatabas3/vetclinic/internal/security/totp"
)

// Status es el resultado del intento de login.
type Status int

const (
	// StatusLocked: la cuenta está bloqueada; LockedFor dice cuánto falta.
	StatusLocked Status = iota
	// StatusBadCredentials: email inexistente o password incorrecto.
	StatusBadCredentials
	// StatusTOTPSetup: la cuenta tiene que escanear el URI y confirmar.
	StatusTOTPSetup
	// StatusTOTPRequired: TOTP confirmado pero no vino código.
	StatusTOTPRequired
	// StatusBadTOTP: el código no verificó.
	StatusBadTOTP
	// StatusOK: login completo, token emitido.
	StatusOK
)

// LoginResult es el resultado de Login. Los campos relevantes dependen
// del Status.
type LoginResult struct {
	Status             Status
	LockedFor          time.Duration // StatusLocked
	TOTPURI            string        // StatusTOTPSetup
	AccessToken        string        // StatusOK
	Role               string        // StatusOK
	MustChangePassword bool          // StatusOK
}

// Deps contiene las dependencias del servicio.
type Deps struct {
	Accounts repository.AccountRepository
	Issuer   *jwtx.Issuer

	MaxFailedLogins int           // default 5
	LockoutPeriod   time.Duration // default 15m
	TOTPIssuer      string        // default VetClinic
	TOTPWindow      int           // pasos de 30s a cada lado, default 1
	AccessTTL       time.Duration // default 1h
}

// Service es el servicio de autenticación.
type Service struct {
	deps Deps
}

func NewService(deps Deps) *Service {
	if deps.MaxFailedLogins <= 0 {
		deps.MaxFailedLogins = 5
	}
	if deps.LockoutPeriod <= 0 {
		deps.LockoutPeriod = 15 * time.Minute
	}
	if deps.TOTPIssuer == "" {
		deps.TOTPIssuer = "VetClinic"
	}
	if deps.TOTPWindow <= 0 {
		deps.TOTPWindow = 1
	}
	if deps.AccessTTL <= 0 {
		deps.AccessTTL = time.Hour
	}
	return &Service{deps: deps}
}

var (
	ErrNotFound          = errors.New("auth: account not found")
	ErrTOTPNotConfigured = errors.New("auth: totp not configured")
	ErrBadTOTP           = errors.New("auth: invalid totp code")
	ErrBadPassword       = errors.New("auth: invalid password")
)

// Login ejecuta la máquina de estados completa. forceProvision fuerza
// regenerar el secret TOTP aunque ya exista.
//
// Orden estricto: lockout → password → provisioning → código → verify →
// token. El chequeo de lockout va ANTES que el de password: una cuenta
// bloqueada no revela si el password era correcto.
func (s *Service) Login(ctx context.Context, in dto.LoginRequest, forceProvision bool) (*LoginResult, error) {
	log := logger.From(ctx).With(
		logger.Layer("service"),
		logger.Component("auth.login"),
	)

	now := time.Now().UTC()
	in.Email = strings.TrimSpace(strings.ToLower(in.Email))

	acct, err := s.deps.Accounts.FindByEmail(ctx, in.Email)
	if err != nil && !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}

	// 1) ¿Cuenta bloqueada?
	if acct != nil {
		if lu := acct.Creds().LockedUntil; lu != nil && lu.After(now) {
			log.Info("login rejected: account locked", logger.Email(in.Email))
			metrics.LoginAttempts.WithLabelValues("locked").Inc()
			return &LoginResult{Status: StatusLocked, LockedFor: lu.Sub(now)}, nil
		}
	}

	// 2) Verificación email/password. El mismo resultado para email
	// inexistente y password incorrecto.
	if acct == nil || !password.Verify(in.Password, acct.Creds().PasswordHash) {
		if acct != nil {
			creds := acct.Creds()
			creds.FailedLoginAttempts++
			if creds.FailedLoginAttempts >= s.deps.MaxFailedLogins {
				lockedUntil := now.Add(s.deps.LockoutPeriod)
				creds.LockedUntil = &lockedUntil
				creds.FailedLoginAttempts = 0
				metrics.AccountLockouts.Inc()
				log.Warn("account locked after failed attempts",
					logger.Email(in.Email), logger.AccountID(acct.AccountID()))
			}
			if err := s.deps.Accounts.UpdateCredentials(ctx, acct); err != nil {
				return nil, err
			}
		}
		metrics.LoginAttempts.WithLabelValues("bad_credentials").Inc()
		return &LoginResult{Status: StatusBadCredentials}, nil
	}

	// 3) Login correcto: reset de contador y desbloqueo.
	creds := acct.Creds()
	creds.FailedLoginAttempts = 0
	creds.LockedUntil = nil

	// 4) Provisioning TOTP si hace falta.
	if forceProvision || creds.TOTPSecret == nil || *creds.TOTPSecret == "" {
		secret, err := totp.GenerateSecret()
		if err != nil {
			return nil, err
		}
		creds.TOTPSecret = &secret
		creds.TOTPConfirmed = false
	}
	if err := s.deps.Accounts.UpdateCredentials(ctx, acct); err != nil {
		return nil, err
	}

	// Secret sin confirmar: devolvemos el URI para que escanee el QR.
	if !creds.TOTPConfirmed {
		uri := totp.OTPAuthURL(s.deps.TOTPIssuer, acct.AccountEmail(), *creds.TOTPSecret)
		metrics.LoginAttempts.WithLabelValues("totp_setup").Inc()
		return &LoginResult{Status: StatusTOTPSetup, TOTPURI: uri}, nil
	}
	if in.TOTPCode == "" {
		metrics.LoginAttempts.WithLabelValues("totp_required").Inc()
		return &LoginResult{Status: StatusTOTPRequired}, nil
	}

	// 5) Verificación del código.
	if !totp.Verify(*creds.TOTPSecret, in.TOTPCode, now, s.deps.TOTPWindow) {
		metrics.LoginAttempts.WithLabelValues("bad_totp").Inc()
		return &LoginResult{Status: StatusBadTOTP}, nil
	}

	// 6) Token.
	token, _, err := s.deps.Issuer.IssueAccess(acct.AccountID(), acct.AccountEmail(), string(acct.Role()), s.deps.AccessTTL)
	if err != nil {
		return nil, err
	}
	log.Info("login ok", logger.AccountID(acct.AccountID()), logger.Role(string(acct.Role())))
	metrics.LoginAttempts.WithLabelValues("ok").Inc()
	return &LoginResult{
		Status:             StatusOK,
		AccessToken:        token,
		Role:               string(acct.Role()),
		MustChangePassword: creds.MustChangePassword,
	}, nil
}

// ConfirmTOTP verifica el primer código tras el provisioning y marca el
// secret como confirmado.
func (s *Service) ConfirmTOTP(ctx context.Context, email, code string) error {
	email = strings.TrimSpace(strings.ToLower(email))
	acct, err := s.deps.Accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	creds := acct.Creds()
	if creds.TOTPSecret == nil || *creds.TOTPSecret == "" {
		return ErrTOTPNotConfigured
	}
	if !totp.Verify(*creds.TOTPSecret, code, time.Now().UTC(), s.deps.TOTPWindow) {
		return ErrBadTOTP
	}
	creds.TOTPConfirmed = true
	if err := s.deps.Accounts.UpdateCredentials(ctx, acct); err != nil {
		return err
	}
	logger.From(ctx).Info("totp confirmed", logger.AccountID(acct.AccountID()))
	return nil
}

// SetupTOTP regenera el secret de una cuenta y devuelve el URI nuevo.
// El secret anterior queda invalidado y la confirmación se resetea.
func (s *Service) SetupTOTP(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	acct, err := s.deps.Accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	secret, err := totp.GenerateSecret()
	if err != nil {
		return "", err
	}
	creds := acct.Creds()
	creds.TOTPSecret = &secret
	creds.TOTPConfirmed = false
	if err := s.deps.Accounts.UpdateCredentials(ctx, acct); err != nil {
		return "", err
	}
	return totp.OTPAuthURL(s.deps.TOTPIssuer, acct.AccountEmail(), secret), nil
}

// ProvisioningURI devuelve el URI actual de una cuenta sin regenerar el
// secret (para re-renderizar el QR durante el setup).
func (s *Service) ProvisioningURI(ctx context.Context, email string) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	acct, err := s.deps.Accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	creds := acct.Creds()
	if creds.TOTPSecret == nil || *creds.TOTPSecret == "" {
		return "", ErrTOTPNotConfigured
	}
	return totp.OTPAuthURL(s.deps.TOTPIssuer, acct.AccountEmail(), *creds.TOTPSecret), nil
}

// ChangePassword verifica el password actual y setea el nuevo. Limpia
// MustChangePassword (el flujo de cuentas creadas por administración).
// Con resetTOTP regenera además el secret TOTP en el mismo paso y
// devuelve el URI de provisioning nuevo; la confirmación vuelve a false
// hasta el próximo ConfirmTOTP.
func (s *Service) ChangePassword(ctx context.Context, email, oldPassword, newPassword string, resetTOTP bool) (string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	acct, err := s.deps.Accounts.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", err
	}
	creds := acct.Creds()
	if !password.Verify(oldPassword, creds.PasswordHash) {
		return "", ErrBadPassword
	}
	hash, err := password.Hash(password.Default, newPassword)
	if err != nil {
		return "", err
	}
	creds.PasswordHash = hash
	creds.MustChangePassword = false

	uri := ""
	if resetTOTP {
		secret, err := totp.GenerateSecret()
		if err != nil {
			return "", err
		}
		creds.TOTPSecret = &secret
		creds.TOTPConfirmed = false
		uri = totp.OTPAuthURL(s.deps.TOTPIssuer, acct.AccountEmail(), secret)
	}
	if err := s.deps.Accounts.UpdateCredentials(ctx, acct); err != nil {
		return "", err
	}
	logger.From(ctx).Info("password changed", logger.AccountID(acct.AccountID()))
	return uri, nil
}
