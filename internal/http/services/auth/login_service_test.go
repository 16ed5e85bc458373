package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/vetclinic/internal/domain/repository"
	dto "github.com/dropDatabas3/vetclinic/internal/http/dto/auth"
	"github.com/dropDatabas3/vetclinic/internal/http/services/auth"
	jwtx "github.com/dropDatabas3/vetclinic/internal/jwt"
	"github.com/dropDatabas3/vetclinic/internal/security/password"
	"github.com/dropDatabas3/vetclinic/internal/security/totp"
	memstore "github.com/dropDatabas3/vetclinic/internal/store/memory"
)

const testPassword = "correct-horse-7"

func newFixture(t *testing.T) (*auth.Service, *memstore.Memory) {
	t.Helper()
	m := memstore.New()

	phc, err := password.Hash(password.Default, testPassword)
	require.NoError(t, err)
	require.NoError(t, m.CreateClient(context.Background(), &repository.Client{
		FirstName:   "Sofía",
		LastName:    "Gutiérrez",
		Email:       "cliente@vetclinic.test",
		Credentials: repository.Credentials{PasswordHash: phc},
	}))

	issuer, err := jwtx.NewIssuer("vetclinic", "")
	require.NoError(t, err)

	return auth.NewService(auth.Deps{Accounts: m, Issuer: issuer}), m
}

func login(t *testing.T, s *auth.Service, email, pw, code string) *auth.LoginResult {
	t.Helper()
	res, err := s.Login(context.Background(), dto.LoginRequest{Email: email, Password: pw, TOTPCode: code}, false)
	require.NoError(t, err)
	return res
}

func creds(t *testing.T, m *memstore.Memory, email string) *repository.Credentials {
	t.Helper()
	acct, err := m.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	return acct.Creds()
}

func TestLogin_UnknownEmail(t *testing.T) {
	s, _ := newFixture(t)
	res := login(t, s, "nadie@vetclinic.test", "x", "")
	require.Equal(t, auth.StatusBadCredentials, res.Status)
}

func TestLogin_LockoutAfterFiveFailures(t *testing.T) {
	s, m := newFixture(t)
	email := "cliente@vetclinic.test"

	for i := 1; i <= 4; i++ {
		res := login(t, s, email, "mal", "")
		require.Equal(t, auth.StatusBadCredentials, res.Status)
		require.Equal(t, i, creds(t, m, email).FailedLoginAttempts)
	}

	// El quinto fallo bloquea, pero la respuesta de ESE intento sigue
	// siendo credenciales inválidas. El contador se consume en el bloqueo.
	res := login(t, s, email, "mal", "")
	require.Equal(t, auth.StatusBadCredentials, res.Status)
	c := creds(t, m, email)
	require.Equal(t, 0, c.FailedLoginAttempts)
	require.NotNil(t, c.LockedUntil)
	require.WithinDuration(t, time.Now().Add(15*time.Minute), *c.LockedUntil, time.Minute)

	// Mientras dura el bloqueo, ni el password correcto entra.
	res = login(t, s, email, testPassword, "")
	require.Equal(t, auth.StatusLocked, res.Status)
	require.Greater(t, res.LockedFor, time.Duration(0))
	require.LessOrEqual(t, res.LockedFor, 15*time.Minute)
}

func TestLogin_ExpiredLockIsIgnored(t *testing.T) {
	s, m := newFixture(t)
	email := "cliente@vetclinic.test"

	acct, err := m.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	past := time.Now().UTC().Add(-time.Minute)
	acct.Creds().LockedUntil = &past
	acct.Creds().FailedLoginAttempts = 3
	require.NoError(t, m.UpdateCredentials(context.Background(), acct))

	// Bloqueo vencido: el login correcto pasa y resetea contador y lock.
	res := login(t, s, email, testPassword, "")
	require.Equal(t, auth.StatusTOTPSetup, res.Status)
	c := creds(t, m, email)
	require.Equal(t, 0, c.FailedLoginAttempts)
	require.Nil(t, c.LockedUntil)
}

func TestLogin_TOTPFlow(t *testing.T) {
	s, m := newFixture(t)
	email := "cliente@vetclinic.test"
	ctx := context.Background()

	// 1) Sin secret: provisioning, el login devuelve la URI.
	res := login(t, s, email, testPassword, "")
	require.Equal(t, auth.StatusTOTPSetup, res.Status)
	require.Contains(t, res.TOTPURI, "otpauth://totp/")

	c := creds(t, m, email)
	require.NotNil(t, c.TOTPSecret)
	require.False(t, c.TOTPConfirmed)
	secret := *c.TOTPSecret
	require.Contains(t, res.TOTPURI, secret)

	// Mientras no confirme, cada login repite el setup (sin regenerar).
	res = login(t, s, email, testPassword, "")
	require.Equal(t, auth.StatusTOTPSetup, res.Status)
	require.Equal(t, secret, *creds(t, m, email).TOTPSecret)

	// 2) Confirmación con el primer código.
	require.ErrorIs(t, s.ConfirmTOTP(ctx, email, "000000"), auth.ErrBadTOTP)
	code, err := totp.Code(secret, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.ConfirmTOTP(ctx, email, code))
	require.True(t, creds(t, m, email).TOTPConfirmed)

	// 3) Confirmado: el código es obligatorio y tiene que verificar.
	res = login(t, s, email, testPassword, "")
	require.Equal(t, auth.StatusTOTPRequired, res.Status)
	res = login(t, s, email, testPassword, "000000")
	require.Equal(t, auth.StatusBadTOTP, res.Status)

	code, err = totp.Code(secret, time.Now())
	require.NoError(t, err)
	res = login(t, s, email, testPassword, code)
	require.Equal(t, auth.StatusOK, res.Status)
	require.Equal(t, string(repository.KindClient), res.Role)
	require.NotEmpty(t, res.AccessToken)
}

func TestLogin_ForceProvisionRotatesSecret(t *testing.T) {
	s, m := newFixture(t)
	email := "cliente@vetclinic.test"

	login(t, s, email, testPassword, "")
	old := *creds(t, m, email).TOTPSecret

	res, err := s.Login(context.Background(), dto.LoginRequest{Email: email, Password: testPassword}, true)
	require.NoError(t, err)
	require.Equal(t, auth.StatusTOTPSetup, res.Status)
	require.NotEqual(t, old, *creds(t, m, email).TOTPSecret)
}

func TestSetupTOTP_RegeneratesAndResetsConfirmation(t *testing.T) {
	s, m := newFixture(t)
	email := "cliente@vetclinic.test"
	ctx := context.Background()

	login(t, s, email, testPassword, "")
	secret := *creds(t, m, email).TOTPSecret
	code, _ := totp.Code(secret, time.Now())
	require.NoError(t, s.ConfirmTOTP(ctx, email, code))

	uri, err := s.SetupTOTP(ctx, email)
	require.NoError(t, err)
	require.Contains(t, uri, "otpauth://totp/")
	c := creds(t, m, email)
	require.NotEqual(t, secret, *c.TOTPSecret)
	require.False(t, c.TOTPConfirmed)

	_, err = s.SetupTOTP(ctx, "nadie@vetclinic.test")
	require.ErrorIs(t, err, auth.ErrNotFound)
}

func TestChangePassword(t *testing.T) {
	s, m := newFixture(t)
	email := "cliente@vetclinic.test"
	ctx := context.Background()

	// Simular cuenta provisionada por administración.
	acct, err := m.FindByEmail(ctx, email)
	require.NoError(t, err)
	acct.Creds().MustChangePassword = true
	require.NoError(t, m.UpdateCredentials(ctx, acct))

	_, err = s.ChangePassword(ctx, email, "mal", "nueva-123", false)
	require.ErrorIs(t, err, auth.ErrBadPassword)
	_, err = s.ChangePassword(ctx, "nadie@x.y", testPassword, "nueva-123", false)
	require.ErrorIs(t, err, auth.ErrNotFound)

	uri, err := s.ChangePassword(ctx, email, testPassword, "nueva-123", false)
	require.NoError(t, err)
	require.Empty(t, uri)
	c := creds(t, m, email)
	require.False(t, c.MustChangePassword)
	require.True(t, password.Verify("nueva-123", c.PasswordHash))
	require.False(t, password.Verify(testPassword, c.PasswordHash))
}

func TestChangePassword_ResetTOTP(t *testing.T) {
	s, m := newFixture(t)
	email := "cliente@vetclinic.test"
	ctx := context.Background()

	// Cuenta con TOTP ya confirmado.
	login(t, s, email, testPassword, "")
	old := *creds(t, m, email).TOTPSecret
	code, err := totp.Code(old, time.Now())
	require.NoError(t, err)
	require.NoError(t, s.ConfirmTOTP(ctx, email, code))

	uri, err := s.ChangePassword(ctx, email, testPassword, "nueva-123", true)
	require.NoError(t, err)
	require.Contains(t, uri, "otpauth://totp/")

	// Secret rotado, confirmación reseteada, password nuevo vigente.
	c := creds(t, m, email)
	require.NotEqual(t, old, *c.TOTPSecret)
	require.Contains(t, uri, *c.TOTPSecret)
	require.False(t, c.TOTPConfirmed)
	require.True(t, password.Verify("nueva-123", c.PasswordHash))

	// El password malo no rota el secret.
	_, err = s.ChangePassword(ctx, email, "mal", "otra-456", true)
	require.ErrorIs(t, err, auth.ErrBadPassword)
	require.Equal(t, *c.TOTPSecret, *creds(t, m, email).TOTPSecret)
}
