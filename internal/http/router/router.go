// Package router arma el árbol de rutas del backend.
package router

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/dropDatabas3/vetclinic/internal/domain/repository"
	accountsctrl "github.com/dropDatabas3/vetclinic/internal/http/controllers/accounts"
	authctrl "github.com/dropDatabas3/vetclinic/internal/http/controllers/auth"
	clinicctrl "github.com/dropDatabas3/vetclinic/internal/http/controllers/clinic"
	recordsctrl "github.com/dropDatabas3/vetclinic/internal/http/controllers/records"
	"github.com/dropDatabas3/vetclinic/internal/http/helpers"
	mw "github.com/dropDatabas3/vetclinic/internal/http/middlewares"
	"github.com/dropDatabas3/vetclinic/internal/jwt"
	"github.com/dropDatabas3/vetclinic/internal/rate"
)

// Deps contiene todo lo que el router necesita.
type Deps struct {
	Auth     *authctrl.Controller
	Accounts *accountsctrl.Controller
	Records  *recordsctrl.Controller
	Clinic   *clinicctrl.Controller

	Issuer      *jwt.Issuer
	RateLimiter rate.Limiter // nil = sin rate limiting

	// Ready prueba las dependencias (store, ledger) para /readyz.
	// nil = siempre listo.
	Ready func(ctx context.Context) error

	CORSAllowedOrigins []string
}

// New construye el router completo.
func New(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(
		mw.WithRequestContext(),
		mw.WithRecover(),
		mw.WithSecurityHeaders(),
		mw.WithCORS(deps.CORSAllowedOrigins),
	)

	auth := mw.WithAuth(deps.Issuer)
	staffOnly := mw.RequireRole(string(repository.KindDoctor), string(repository.KindConsultant))
	adminOnly := mw.RequireRole(string(repository.KindConsultant))

	r.Get("/healthz", func(w http.ResponseWriter, req *http.Request) {
		helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Get("/readyz", func(w http.ResponseWriter, req *http.Request) {
		if deps.Ready != nil {
			if err := deps.Ready(req.Context()); err != nil {
				helpers.WriteJSON(w, http.StatusServiceUnavailable,
					map[string]string{"status": "unavailable", "reason": err.Error()})
				return
			}
		}
		helpers.WriteJSON(w, http.StatusOK, map[string]string{"status": "ready"})
	})

	// Cuentas y login (público). Login con rate limit por IP y no-store.
	r.Route("/users", func(r chi.Router) {
		r.Post("/register", deps.Accounts.Register)
		r.With(asChi(mw.WithRateLimit(deps.RateLimiter)), asChi(mw.WithNoStore())).
			Post("/login", deps.Auth.Login)
		r.With(asChi(mw.WithNoStore())).Post("/confirm-totp", deps.Auth.ConfirmTOTP)
		r.With(asChi(mw.WithNoStore())).Post("/setup-totp", deps.Auth.SetupTOTP)
		r.With(asChi(mw.WithNoStore())).Get("/totp-qr", deps.Auth.TOTPQR)
		r.Post("/change-password", deps.Auth.ChangePassword)

		r.With(asChi(auth), asChi(staffOnly)).Get("/", deps.Accounts.List)

		// Altas administrativas.
		r.With(asChi(auth), asChi(adminOnly)).Post("/create-doctor", deps.Accounts.CreateDoctor)
		r.With(asChi(auth), asChi(adminOnly)).Post("/create-consultant", deps.Accounts.CreateConsultant)
	})

	// Registros médicos: escriben doctores; consultores solo leen.
	r.Route("/medical_records", func(r chi.Router) {
		r.Use(asChi(auth), asChi(staffOnly))
		r.Get("/", deps.Records.List)
		r.Get("/{id}", deps.Records.Get)
		r.Get("/by_appointment/{id}", deps.Records.ListByAppointment)
		r.Get("/{id}/ledger", deps.Records.LedgerEntry)

		r.Group(func(r chi.Router) {
			r.Use(asChi(mw.RequireRole(string(repository.KindDoctor))))
			r.Post("/", deps.Records.Create)
			r.Put("/{id}", deps.Records.Update)
			r.Delete("/{id}", deps.Records.Delete)
		})
	})

	r.With(asChi(auth), asChi(staffOnly)).Get("/ledger/owner/{owner}", deps.Records.LedgerByOwner)

	// Clínica: cualquier cuenta autenticada.
	r.Group(func(r chi.Router) {
		r.Use(asChi(auth))

		r.Route("/animals", func(r chi.Router) {
			r.Post("/", deps.Clinic.CreateAnimal)
			r.Get("/{id}", deps.Clinic.GetAnimal)
			r.Get("/by_owner/{id}", deps.Clinic.ListAnimalsByOwner)
			r.Put("/{id}", deps.Clinic.UpdateAnimal)
			r.Delete("/{id}", deps.Clinic.DeleteAnimal)
		})

		r.Route("/appointments", func(r chi.Router) {
			r.Post("/", deps.Clinic.CreateAppointment)
			r.Get("/{id}", deps.Clinic.GetAppointment)
			r.Get("/by_client/{id}", deps.Clinic.ListAppointmentsByClient)
			r.Get("/by_doctor/{id}", deps.Clinic.ListAppointmentsByDoctor)
			r.Put("/{id}", deps.Clinic.UpdateAppointment)
			r.Delete("/{id}", deps.Clinic.DeleteAppointment)
		})

		r.Route("/weights", func(r chi.Router) {
			r.Post("/", deps.Clinic.AddWeight)
			r.Get("/by_animal/{id}", deps.Clinic.ListWeights)
			r.Delete("/{id}", deps.Clinic.DeleteWeight)
		})

		// Sedes: lee cualquier cuenta; escribe administración.
		r.Route("/facilities", func(r chi.Router) {
			r.Get("/", deps.Clinic.ListFacilities)
			r.Get("/{id}", deps.Clinic.GetFacility)

			r.Group(func(r chi.Router) {
				r.Use(asChi(adminOnly))
				r.Post("/", deps.Clinic.CreateFacility)
				r.Put("/{id}", deps.Clinic.UpdateFacility)
				r.Delete("/{id}", deps.Clinic.DeleteFacility)
			})
		})
	})

	return r
}

// asChi adapta nuestro tipo Middleware al que espera chi.
func asChi(m mw.Middleware) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler { return m(next) }
}
