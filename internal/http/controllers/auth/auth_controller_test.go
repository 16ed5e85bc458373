package auth_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/vetclinic/internal/domain/repository"
	accountsctrl "github.com/dropDatabas3/vetclinic/internal/http/controllers/accounts"
	authctrl "github.com/dropDatabas3/vetclinic/internal/http/controllers/auth"
	clinicctrl "github.com/dropDatabas3/vetclinic/internal/http/controllers/clinic"
	recordsctrl "github.com/dropDatabas3/vetclinic/internal/http/controllers/records"
	"github.com/dropDatabas3/vetclinic/internal/http/router"
	accountssvc "github.com/dropDatabas3/vetclinic/internal/http/services/accounts"
	authsvc "github.com/dropDatabas3/vetclinic/internal/http/services/auth"
	clinicsvc "github.com/dropDatabas3/vetclinic/internal/http/services/clinic"
	recordssvc "github.com/dropDatabas3/vetclinic/internal/http/services/records"
	jwtx "github.com/dropDatabas3/vetclinic/internal/jwt"
	"github.com/dropDatabas3/vetclinic/internal/ledger"
	"github.com/dropDatabas3/vetclinic/internal/security/password"
	"github.com/dropDatabas3/vetclinic/internal/security/totp"
	memstore "github.com/dropDatabas3/vetclinic/internal/store/memory"
)

const testPassword = "correct-horse-7"

func newServer(t *testing.T) (*httptest.Server, *memstore.Memory) {
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

	authService := authsvc.NewService(authsvc.Deps{Accounts: m, Issuer: issuer})
	accountsService := accountssvc.NewService(accountssvc.Deps{Accounts: m})
	recordsService := recordssvc.NewService(recordssvc.Deps{
		Records:      m.Records(),
		Appointments: m.Appointments(),
		Animals:      m.Animals(),
		Ledger:       ledger.NewMemory("svc"),
	})
	clinicService := clinicsvc.NewService(clinicsvc.Deps{
		Animals:      m.Animals(),
		Appointments: m.Appointments(),
		WeightLogs:   m.WeightLogs(),
		Accounts:     m,
	})

	h := router.New(router.Deps{
		Auth:     authctrl.NewController(authService),
		Accounts: accountsctrl.NewController(accountsService),
		Records:  recordsctrl.NewController(recordsService),
		Clinic:   clinicctrl.NewController(clinicService),
		Issuer:   issuer,
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return srv, m
}

func postLogin(t *testing.T, srv *httptest.Server, body map[string]any) (*http.Response, map[string]any) {
	t.Helper()
	raw, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := http.Post(srv.URL+"/users/login", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer resp.Body.Close()

	var decoded map[string]any
	_ = json.NewDecoder(resp.Body).Decode(&decoded)
	return resp, decoded
}

func TestLoginEndpoint_BadCredentials(t *testing.T) {
	srv, _ := newServer(t)
	resp, body := postLogin(t, srv, map[string]any{"email": "cliente@vetclinic.test", "password": "mal"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "BAD_CREDENTIALS", body["code"])
}

func TestLoginEndpoint_LockedReportsMinutes(t *testing.T) {
	srv, m := newServer(t)
	email := "cliente@vetclinic.test"

	acct, err := m.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	until := time.Now().UTC().Add(14*time.Minute + 30*time.Second)
	acct.Creds().LockedUntil = &until
	require.NoError(t, m.UpdateCredentials(context.Background(), acct))

	resp, body := postLogin(t, srv, map[string]any{"email": email, "password": testPassword})
	require.Equal(t, http.StatusLocked, resp.StatusCode)
	// 14m30s restantes -> "15 min." (redondeo hacia arriba)
	require.Equal(t, "Intentá de nuevo en 15 min.", body["detail"])
}

func TestLoginEndpoint_TOTPSetupFlow(t *testing.T) {
	srv, m := newServer(t)
	email := "cliente@vetclinic.test"

	// Sin secret: 201 con la URI de provisioning.
	resp, body := postLogin(t, srv, map[string]any{"email": email, "password": testPassword})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	require.Equal(t, true, body["need_totp"])
	require.Contains(t, body["totp_uri"], "otpauth://totp/")

	secret := *credsOf(t, m, email).TOTPSecret

	// El QR del mismo URI se sirve como PNG.
	qr, err := http.Get(fmt.Sprintf("%s/users/totp-qr?email=%s", srv.URL, email))
	require.NoError(t, err)
	defer qr.Body.Close()
	require.Equal(t, http.StatusOK, qr.StatusCode)
	require.Equal(t, "image/png", qr.Header.Get("Content-Type"))

	// Confirmación con el código vigente.
	code, err := totp.Code(secret, time.Now())
	require.NoError(t, err)
	raw, _ := json.Marshal(map[string]string{"email": email, "totp_code": code})
	confirm, err := http.Post(srv.URL+"/users/confirm-totp", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	defer confirm.Body.Close()
	require.Equal(t, http.StatusOK, confirm.StatusCode)

	// Confirmado y sin código: 400 con el detalle esperado.
	resp, body = postLogin(t, srv, map[string]any{"email": email, "password": testPassword})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Equal(t, "Código TOTP requerido.", body["detail"])

	// Login completo.
	code, err = totp.Code(secret, time.Now())
	require.NoError(t, err)
	resp, body = postLogin(t, srv, map[string]any{"email": email, "password": testPassword, "totp_code": code})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Equal(t, "bearer", body["token_type"])
	require.Equal(t, "klient", body["role"])
	require.NotEmpty(t, body["access_token"])
}

func TestLoginEndpoint_MissingFields(t *testing.T) {
	srv, _ := newServer(t)
	resp, _ := postLogin(t, srv, map[string]any{"email": "cliente@vetclinic.test"})
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func credsOf(t *testing.T, m *memstore.Memory, email string) *repository.Credentials {
	t.Helper()
	acct, err := m.FindByEmail(context.Background(), email)
	require.NoError(t, err)
	return acct.Creds()
}
