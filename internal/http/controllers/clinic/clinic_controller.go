// Package clinic contiene el controller de animales, citas, pesos y sedes.
package clinic

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dropDatabas3/vetclinic/internal/domain/repository"
	dto "github.com/dropDatabas3/vetclinic/internal/http/dto/clinic"
	httperrors "github.com/dropDatabas3/vetclinic/internal/http/errors"
	"github.com/dropDatabas3/vetclinic/internal/http/helpers"
	svc "github.com/dropDatabas3/vetclinic/internal/http/services/clinic"
	"github.com/go-chi/chi/v5"
)

// Controller maneja los endpoints de clínica.
type Controller struct {
	service *svc.Service
}

func NewController(s *svc.Service) *Controller {
	return &Controller{service: s}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		httperrors.WriteError(w, httperrors.ErrBadRequest.WithDetail("id inválido"))
		return 0, false
	}
	return id, true
}

func writeErr(w http.ResponseWriter, err error) {
	if errors.Is(err, svc.ErrNotFound) {
		httperrors.WriteError(w, httperrors.ErrNotFound)
		return
	}
	httperrors.WriteError(w, err)
}

// ─── Animales ───

// CreateAnimal maneja POST /animals.
func (c *Controller) CreateAnimal(w http.ResponseWriter, r *http.Request) {
	var in dto.AnimalRequest
	if !helpers.ReadJSON(w, r, &in) {
		return
	}
	if in.OwnerID <= 0 || in.Name == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields)
		return
	}
	a := repository.Animal{
		OwnerID:    in.OwnerID,
		Name:       in.Name,
		Species:    in.Species,
		Breed:      in.Breed,
		Age:        in.Age,
		ChipNumber: in.ChipNumber,
	}
	if err := c.service.CreateAnimal(r.Context(), &a); err != nil {
		writeErr(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, a)
}

// GetAnimal maneja GET /animals/{id}.
func (c *Controller) GetAnimal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	a, err := c.service.GetAnimal(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, a)
}

// ListAnimalsByOwner maneja GET /animals/by_owner/{id}.
func (c *Controller) ListAnimalsByOwner(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	animals, err := c.service.ListAnimalsByOwner(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, animals)
}

// UpdateAnimal maneja PUT /animals/{id}.
func (c *Controller) UpdateAnimal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in dto.AnimalRequest
	if !helpers.ReadJSON(w, r, &in) {
		return
	}
	a := repository.Animal{
		ID:         id,
		OwnerID:    in.OwnerID,
		Name:       in.Name,
		Species:    in.Species,
		Breed:      in.Breed,
		Age:        in.Age,
		ChipNumber: in.ChipNumber,
	}
	if err := c.service.UpdateAnimal(r.Context(), &a); err != nil {
		writeErr(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, a)
}

// DeleteAnimal maneja DELETE /animals/{id}.
func (c *Controller) DeleteAnimal(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := c.service.DeleteAnimal(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Citas ───

// CreateAppointment maneja POST /appointments.
func (c *Controller) CreateAppointment(w http.ResponseWriter, r *http.Request) {
	var in dto.AppointmentRequest
	if !helpers.ReadJSON(w, r, &in) {
		return
	}
	if in.ClientID <= 0 || in.DoctorID <= 0 || in.AnimalID <= 0 || in.ScheduledAt.IsZero() {
		httperrors.WriteError(w, httperrors.ErrMissingFields)
		return
	}
	ap := repository.Appointment{
		ClientID:    in.ClientID,
		DoctorID:    in.DoctorID,
		AnimalID:    in.AnimalID,
		ScheduledAt: in.ScheduledAt,
		Reason:      in.Reason,
		Status:      in.Status,
	}
	if err := c.service.CreateAppointment(r.Context(), &ap); err != nil {
		writeErr(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, ap)
}

// GetAppointment maneja GET /appointments/{id}.
func (c *Controller) GetAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ap, err := c.service.GetAppointment(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, ap)
}

// ListAppointmentsByClient maneja GET /appointments/by_client/{id}.
func (c *Controller) ListAppointmentsByClient(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	aps, err := c.service.ListAppointmentsByClient(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, aps)
}

// ListAppointmentsByDoctor maneja GET /appointments/by_doctor/{id}.
func (c *Controller) ListAppointmentsByDoctor(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	aps, err := c.service.ListAppointmentsByDoctor(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, aps)
}

// UpdateAppointment maneja PUT /appointments/{id}.
func (c *Controller) UpdateAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in dto.AppointmentRequest
	if !helpers.ReadJSON(w, r, &in) {
		return
	}
	ap := repository.Appointment{
		ID:          id,
		ScheduledAt: in.ScheduledAt,
		Reason:      in.Reason,
		Status:      in.Status,
	}
	if err := c.service.UpdateAppointment(r.Context(), &ap); err != nil {
		writeErr(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, ap)
}

// DeleteAppointment maneja DELETE /appointments/{id}.
func (c *Controller) DeleteAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := c.service.DeleteAppointment(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Pesos ───

// AddWeight maneja POST /weights.
func (c *Controller) AddWeight(w http.ResponseWriter, r *http.Request) {
	var in dto.WeightRequest
	if !helpers.ReadJSON(w, r, &in) {
		return
	}
	if in.AnimalID <= 0 || in.WeightKg <= 0 {
		httperrors.WriteError(w, httperrors.ErrMissingFields)
		return
	}
	wl := repository.WeightLog{
		AnimalID:   in.AnimalID,
		WeightKg:   in.WeightKg,
		MeasuredAt: in.MeasuredAt,
	}
	if err := c.service.AddWeight(r.Context(), &wl); err != nil {
		writeErr(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, wl)
}

// ListWeights maneja GET /weights/by_animal/{id}.
func (c *Controller) ListWeights(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	wls, err := c.service.ListWeights(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, wls)
}

// DeleteWeight maneja DELETE /weights/{id}.
func (c *Controller) DeleteWeight(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := c.service.DeleteWeight(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ─── Sedes ───

// CreateFacility maneja POST /facilities.
func (c *Controller) CreateFacility(w http.ResponseWriter, r *http.Request) {
	var in dto.FacilityRequest
	if !helpers.ReadJSON(w, r, &in) {
		return
	}
	if in.Name == "" || in.Address == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields)
		return
	}
	f := repository.Facility{
		Name:    in.Name,
		Address: in.Address,
		Phone:   in.Phone,
	}
	if err := c.service.CreateFacility(r.Context(), &f); err != nil {
		writeErr(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, f)
}

// GetFacility maneja GET /facilities/{id}.
func (c *Controller) GetFacility(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	f, err := c.service.GetFacility(r.Context(), id)
	if err != nil {
		writeErr(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, f)
}

// ListFacilities maneja GET /facilities?skip=&limit=.
func (c *Controller) ListFacilities(w http.ResponseWriter, r *http.Request) {
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	fs, err := c.service.ListFacilities(r.Context(), skip, limit)
	if err != nil {
		writeErr(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, fs)
}

// UpdateFacility maneja PUT /facilities/{id}.
func (c *Controller) UpdateFacility(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in dto.FacilityRequest
	if !helpers.ReadJSON(w, r, &in) {
		return
	}
	if in.Name == "" || in.Address == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields)
		return
	}
	f := repository.Facility{
		ID:      id,
		Name:    in.Name,
		Address: in.Address,
		Phone:   in.Phone,
	}
	if err := c.service.UpdateFacility(r.Context(), &f); err != nil {
		writeErr(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, f)
}

// DeleteFacility maneja DELETE /facilities/{id}.
func (c *Controller) DeleteFacility(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := c.service.DeleteFacility(r.Context(), id); err != nil {
		writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
