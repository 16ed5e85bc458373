// Package accounts define los DTOs de cuentas.
package accounts

import (
	"time"

	"github.com/dropDatabas3/vetclinic/internal/domain/repository"
)

// RegisterClientRequest es el body de POST /users/register.
type RegisterClientRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	PhoneNumber string `json:"phone_number"`
	Address     string `json:"address"`
	PostalCode  string `json:"postal_code"`
	Role        string `json:"role"` // debe ser "klient"
}

// CreateDoctorRequest es el body de POST /admin/doctors.
type CreateDoctorRequest struct {
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Email          string `json:"email"`
	Specialization string `json:"specialization"`
	PermitNumber   string `json:"permit_number"`
}

// CreateConsultantRequest es el body de POST /admin/consultants.
type CreateConsultantRequest struct {
	FirstName   string `json:"first_name"`
	LastName    string `json:"last_name"`
	Email       string `json:"email"`
	BackupEmail string `json:"backup_email"`
}

// Response es la vista pública de una cuenta. Nunca expone hash,
// secret TOTP ni contadores.
type Response struct {
	ID                 int64     `json:"id"`
	Role               string    `json:"role"`
	FirstName          string    `json:"first_name"`
	LastName           string    `json:"last_name"`
	Email              string    `json:"email"`
	MustChangePassword bool      `json:"must_change_password"`
	TOTPConfirmed      bool      `json:"totp_confirmed"`
	CreatedAt          time.Time `json:"created_at"`
}

// FromAccount arma la Response desde cualquiera de las tres variantes.
func FromAccount(acct repository.Account) Response {
	resp := Response{
		ID:                 acct.AccountID(),
		Role:               string(acct.Role()),
		Email:              acct.AccountEmail(),
		MustChangePassword: acct.Creds().MustChangePassword,
		TOTPConfirmed:      acct.Creds().TOTPConfirmed,
	}
	switch a := acct.(type) {
	case *repository.Client:
		resp.FirstName, resp.LastName, resp.CreatedAt = a.FirstName, a.LastName, a.CreatedAt
	case *repository.Doctor:
		resp.FirstName, resp.LastName, resp.CreatedAt = a.FirstName, a.LastName, a.CreatedAt
	case *repository.Consultant:
		resp.FirstName, resp.LastName, resp.CreatedAt = a.FirstName, a.LastName, a.CreatedAt
	}
	return resp
}
