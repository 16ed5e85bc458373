// Package records contiene el controller de registros médicos.
package records

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/dropDatabas3/vetclinic/internal/domain/repository"
	dto "github.com/dropDatabas3/vetclinic/internal/http/dto/records"
	httperrors "github.com/dropDatabas3/vetclinic/internal/http/errors"
	"github.com/dropDatabas3/vetclinic/internal/http/helpers"
	svc "github.com/dropDatabas3/vetclinic/internal/http/services/records"
	"github.com/dropDatabas3/vetclinic/internal/ledger"
	"github.com/go-chi/chi/v5"
)

// Controller maneja los endpoints de registros médicos.
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

func writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, svc.ErrNotFound):
		httperrors.WriteError(w, httperrors.ErrNotFound)
	case errors.Is(err, svc.ErrAppointmentNotFound):
		httperrors.WriteError(w, httperrors.ErrNotFound.WithDetail("la cita no existe"))
	case errors.Is(err, svc.ErrAnimalNotFound):
		httperrors.WriteError(w, httperrors.ErrNotFound.WithDetail("el animal no existe"))
	default:
		httperrors.WriteError(w, err)
	}
}

// resultResponse arma la Response de un write con su estado de espejo.
func resultResponse(res *svc.Result) dto.Response {
	out := dto.FromModel(&res.Record)
	out.Mirrored = res.Mirrored
	if res.TxRef != "" {
		out.LedgerTx = res.TxRef
	}
	return out
}

// Create maneja POST /medical_records.
func (c *Controller) Create(w http.ResponseWriter, r *http.Request) {
	var in dto.CreateRequest
	if !helpers.ReadJSON(w, r, &in) {
		return
	}
	if in.AppointmentID <= 0 || in.AnimalID <= 0 || in.VisitDate.IsZero() {
		httperrors.WriteError(w, httperrors.ErrMissingFields)
		return
	}

	rec := repository.MedicalRecord{
		AppointmentID: in.AppointmentID,
		AnimalID:      in.AnimalID,
		Description:   in.Description,
		Diagnosis:     in.Diagnosis,
		Treatment:     in.Treatment,
		Notes:         in.Notes,
		VisitDate:     in.VisitDate,
	}
	res, err := c.service.Create(r.Context(), &rec)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusCreated, resultResponse(res))
}

// Get maneja GET /medical_records/{id}.
func (c *Controller) Get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rec, err := c.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, dto.FromModel(rec))
}

// List maneja GET /medical_records?skip=&limit=.
func (c *Controller) List(w http.ResponseWriter, r *http.Request) {
	skip, _ := strconv.Atoi(r.URL.Query().Get("skip"))
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	recs, err := c.service.List(r.Context(), repository.ListRecordsFilter{Limit: limit, Offset: skip})
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]dto.Response, 0, len(recs))
	for i := range recs {
		out = append(out, dto.FromModel(&recs[i]))
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

// ListByAppointment maneja GET /medical_records/by_appointment/{id}.
func (c *Controller) ListByAppointment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	recs, err := c.service.ListByAppointment(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	out := make([]dto.Response, 0, len(recs))
	for i := range recs {
		out = append(out, dto.FromModel(&recs[i]))
	}
	helpers.WriteJSON(w, http.StatusOK, out)
}

// Update maneja PUT /medical_records/{id}.
func (c *Controller) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var in dto.UpdateRequest
	if !helpers.ReadJSON(w, r, &in) {
		return
	}

	cur, err := c.service.Get(r.Context(), id)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	if in.Description != nil {
		cur.Description = *in.Description
	}
	if in.Diagnosis != nil {
		cur.Diagnosis = *in.Diagnosis
	}
	if in.Treatment != nil {
		cur.Treatment = *in.Treatment
	}
	if in.Notes != nil {
		cur.Notes = *in.Notes
	}
	if in.VisitDate != nil {
		cur.VisitDate = *in.VisitDate
	}

	res, err := c.service.Update(r.Context(), cur)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, resultResponse(res))
}

// Delete maneja DELETE /medical_records/{id}.
func (c *Controller) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	if err := c.service.Delete(r.Context(), id); err != nil {
		writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// LedgerEntry maneja GET /medical_records/{id}/ledger: la entrada actual
// del ledger (sobrevive a la baja de la fila relacional).
func (c *Controller) LedgerEntry(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	e, err := c.service.History(r.Context(), id)
	switch {
	case err == nil:
		helpers.WriteJSON(w, http.StatusOK, e)
	case errors.Is(err, ledger.ErrNotFound):
		httperrors.WriteError(w, httperrors.ErrNotFound)
	default:
		httperrors.WriteError(w, err)
	}
}

// LedgerByOwner maneja GET /ledger/owner/{owner}: los record ids
// registrados por una cuenta de servicio.
func (c *Controller) LedgerByOwner(w http.ResponseWriter, r *http.Request) {
	owner := chi.URLParam(r, "owner")
	if owner == "" {
		httperrors.WriteError(w, httperrors.ErrMissingFields)
		return
	}
	ids, err := c.service.LedgerIDs(r.Context(), owner)
	if err != nil {
		httperrors.WriteError(w, err)
		return
	}
	helpers.WriteJSON(w, http.StatusOK, map[string]any{"owner": owner, "record_ids": ids})
}
