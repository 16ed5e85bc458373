// Package records define los DTOs de registros médicos.
package records

import (
	"time"

	"github.com/dropDatabas3/vetclinic/internal/domain/repository"
)

// CreateRequest es el body de POST /medical_records.
type CreateRequest struct {
	AppointmentID int64     `json:"appointment_id"`
	AnimalID      int64     `json:"animal_id"`
	Description   string    `json:"description"`
	Diagnosis     string    `json:"diagnosis"`
	Treatment     string    `json:"treatment"`
	Notes         string    `json:"notes"`
	VisitDate     time.Time `json:"visit_date"`
}

// UpdateRequest es el body de PUT /medical_records/{id}. Los campos nil
// no se tocan.
type UpdateRequest struct {
	Description *string    `json:"description"`
	Diagnosis   *string    `json:"diagnosis"`
	Treatment   *string    `json:"treatment"`
	Notes       *string    `json:"notes"`
	VisitDate   *time.Time `json:"visit_date"`
}

// Response es la vista pública de un registro. Mirrored indica si el
// espejo al ledger se concretó en esta operación (o, en lecturas, si la
// fila tiene referencia de transacción).
type Response struct {
	ID            int64     `json:"id"`
	AppointmentID int64     `json:"appointment_id"`
	AnimalID      int64     `json:"animal_id"`
	Description   string    `json:"description"`
	Diagnosis     string    `json:"diagnosis"`
	Treatment     string    `json:"treatment"`
	Notes         string    `json:"notes"`
	VisitDate     time.Time `json:"visit_date"`
	CreatedAt     time.Time `json:"created_at"`
	DataHash      string    `json:"data_hash,omitempty"`
	LedgerTx      string    `json:"blockchain_tx,omitempty"`
	Mirrored      bool      `json:"mirrored"`
}

// FromModel arma la Response de un registro leído.
func FromModel(rec *repository.MedicalRecord) Response {
	return Response{
		ID:            rec.ID,
		AppointmentID: rec.AppointmentID,
		AnimalID:      rec.AnimalID,
		Description:   rec.Description,
		Diagnosis:     rec.Diagnosis,
		Treatment:     rec.Treatment,
		Notes:         rec.Notes,
		VisitDate:     rec.VisitDate,
		CreatedAt:     rec.CreatedAt,
		DataHash:      rec.DataHash,
		LedgerTx:      rec.LedgerTx,
		Mirrored:      rec.LedgerTx != "",
	}
}
