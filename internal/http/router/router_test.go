package router_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
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
	memstore "github.com/dropDatabas3/vetclinic/internal/store/memory"
)

type fixture struct {
	srv    *httptest.Server
	store  *memstore.Memory
	issuer *jwtx.Issuer
}

func newFixture(t *testing.T, ready func(context.Context) error) *fixture {
	t.Helper()
	m := memstore.New()

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
		Facilities:   m.Facilities(),
		Accounts:     m,
	})

	h := router.New(router.Deps{
		Auth:     authctrl.NewController(authService),
		Accounts: accountsctrl.NewController(accountsService),
		Records:  recordsctrl.NewController(recordsService),
		Clinic:   clinicctrl.NewController(clinicService),
		Issuer:   issuer,
		Ready:    ready,
	})
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return &fixture{srv: srv, store: m, issuer: issuer}
}

func (f *fixture) token(t *testing.T, role repository.Kind) string {
	t.Helper()
	token, _, err := f.issuer.IssueAccess(1, "cuenta@vetclinic.test", string(role), time.Hour)
	require.NoError(t, err)
	return token
}

func (f *fixture) do(t *testing.T, method, path, bearer string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, f.srv.URL+path, &buf)
	require.NoError(t, err)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestReadyz(t *testing.T) {
	f := newFixture(t, nil)
	resp := f.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	boom := errors.New("sin conexión al ledger")
	f = newFixture(t, func(ctx context.Context) error { return boom })
	resp = f.do(t, http.MethodGet, "/readyz", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	require.Equal(t, "unavailable", body["status"])
	require.Contains(t, body["reason"], "ledger")
}

func TestCreateDoctorRoute(t *testing.T) {
	f := newFixture(t, nil)
	body := map[string]string{
		"first_name": "Marta",
		"last_name":  "Pérez",
		"email":      "mperez@vetclinic.test",
	}

	// Sin token y con role insuficiente: la ruta está protegida.
	resp := f.do(t, http.MethodPost, "/users/create-doctor", "", body)
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
	resp = f.do(t, http.MethodPost, "/users/create-doctor", f.token(t, repository.KindClient), body)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/users/create-doctor", f.token(t, repository.KindConsultant), body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.do(t, http.MethodPost, "/users/create-consultant", f.token(t, repository.KindConsultant), map[string]string{
		"first_name": "Laura",
		"last_name":  "Gómez",
		"email":      "lgomez@vetclinic.test",
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestMedicalRecordLedgerRoute(t *testing.T) {
	f := newFixture(t, nil)
	ctx := context.Background()

	animal := &repository.Animal{OwnerID: 1, Name: "Bigotes", Species: "gato"}
	require.NoError(t, f.store.Animals().Create(ctx, animal))
	appt := &repository.Appointment{ClientID: 1, DoctorID: 1, AnimalID: animal.ID, ScheduledAt: time.Now()}
	require.NoError(t, f.store.Appointments().Create(ctx, appt))

	doctor := f.token(t, repository.KindDoctor)
	resp := f.do(t, http.MethodPost, "/medical_records", doctor, map[string]any{
		"appointment_id": appt.ID,
		"animal_id":      animal.ID,
		"description":    "control anual",
		"visit_date":     time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC),
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	var created struct {
		ID int64 `json:"id"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))

	resp = f.do(t, http.MethodGet, fmt.Sprintf("/medical_records/%d/ledger", created.ID), doctor, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var entry struct {
		Digest string `json:"digest"`
	}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&entry))
	require.NotEmpty(t, entry.Digest)
}

func TestFacilitiesRoutes(t *testing.T) {
	f := newFixture(t, nil)
	admin := f.token(t, repository.KindConsultant)
	client := f.token(t, repository.KindClient)

	body := map[string]string{"name": "Sede Centro", "address": "Av. Rivadavia 1234"}

	// Escribe administración; el resto solo lee.
	resp := f.do(t, http.MethodPost, "/facilities", client, body)
	require.Equal(t, http.StatusForbidden, resp.StatusCode)
	resp = f.do(t, http.MethodPost, "/facilities", admin, body)
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	resp = f.do(t, http.MethodGet, "/facilities", client, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var list []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&list))
	require.Len(t, list, 1)
}
