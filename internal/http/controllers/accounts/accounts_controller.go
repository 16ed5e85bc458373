// Package accounts contiene el controller de cuentas.
package accounts

import (
	"errors"
	"net/http"

	"github.com/dropDatabas3/vetclinic/internal/domain/repository"
	dto "github.com/dropDatabas3/vetclinic/internal/http/dto/accounts"
	httperrors "github.com/dropDatabas3/vetclinic/internal/http/errors"
	"github.com/dropDatabas3/vetclinic/internal/http/helpers"
	svc "github.com/dropDatabas3/vetclinic/internal/http/services/accounts"
)

// Controller maneja los endpoints de cuentas.
type Controller struct {
	service *svc.Service
}

func NewController(s *svc.Service) *Controller {
	return &Controller{service: s}
}

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrEmailTaken):
		httperrors.WriteError(w, httperrors.ErrConflict.WithDetail("ya existe una cuenta con ese email"))
	case errors.Is(err, svc.ErrInvalidInput):
		httperrors.WriteError(w, httperrors.ErrMissingFields)
	default:
		httperrors.WriteError(w, err)
	}
}

// Register maneja POST /users/register. Solo clientes: el resto de los
// roles los crea administración.
func (c *Controller) Register(w http.ResponseWriter, r *http.Request) {
	var in dto.RegisterClientRequest
	if !helpers.ReadJSON(w, r, &in) {
		return
	}
	if in.Role != "" && in.Role != string(repository.KindClient) {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail(
			"el auto-registro es solo para clientes"))
		return
	}
	if in.Email == "" || in.Password == "" || in.FirstName == "" || in.LastName == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields)
		return
	}

	client := repository.Client{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		PhoneNumber: in.PhoneNumber,
		Address:     in.Address,
		PostalCode:  in.PostalCode,
	}
	if err := c.service.RegisterClient(r.Context(), &client, in.Password); err != nil {
		writeServiceError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, dto.FromAccount(&client))
}

// List maneja GET /users: todas las cuentas, las tres tablas unidas.
func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	accts, err := c.service.List(r.Context())
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	out := make([]dto.Response, 0, len(accts))
	for _, a := range accts {
		out = append(out, dto.FromAccount(a))
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

// CreateDoctor maneja POST /users/create-doctor: alta con password
// temporal enviado por email y must_change_password activo.
func (c *Controller) CreateDoctor(w http.ResponseWriter, r *http.Request) {
	var in dto.CreateDoctorRequest
	if !helpers.ReadJSON(w, r, &in) {
		return
	}
	if in.Email == "" || in.FirstName == "" || in.LastName == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields)
		return
	}

	doctor := repository.Doctor{
		FirstName:      in.FirstName,
		LastName:       in.LastName,
		Email:          in.Email,
		Specialization: in.Specialization,
		PermitNumber:   in.PermitNumber,
	}
	if err := c.service.CreateDoctor(r.Context(), &doctor); err != nil {
		writeServiceError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, dto.FromAccount(&doctor))
}

// CreateConsultant maneja POST /users/create-consultant.
func (c *Controller) CreateConsultant(w http.ResponseWriter, r *http.Request) {
	var in dto.CreateConsultantRequest
	if !helpers.ReadJSON(w, r, &in) {
		return
	}
	if in.Email == "" || in.FirstName == "" || in.LastName == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields)
		return
	}

	consultant := repository.Consultant{
		FirstName:   in.FirstName,
		LastName:    in.LastName,
		Email:       in.Email,
		BackupEmail: in.BackupEmail,
	}
	if err := c.service.CreateConsultant(r.Context(), &consultant); err != nil {
		writeServiceError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, dto.FromAccount(&consultant))
}
