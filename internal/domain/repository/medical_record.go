package repository

import (
	"context"
	"time"
)

// MedicalRecord es la fila relacional de un registro médico.
// La fila es la fuente de verdad para lecturas; DataHash y LedgerTx
// son el espejo del ledger (pueden quedar vacíos si el mirror falló).
type MedicalRecord struct {
	ID            int64
	AppointmentID int64
	AnimalID      int64
	Description   string
	Diagnosis     string
	Treatment     string
	Notes         string
	VisitDate     time.Time
	CreatedAt     time.Time
	DataHash      string
	LedgerTx      string
}

// ListRecordsFilter opciones para listar registros médicos.
type ListRecordsFilter struct {
	Limit  int // Default 100
	Offset int
}

// MedicalRecordRepository define operaciones sobre registros médicos.
type MedicalRecordRepository interface {
	// Create inserta el registro y asigna ID y CreatedAt (server-side).
	Create(ctx context.Context, rec *MedicalRecord) error

	// GetByID retorna ErrNotFound si no existe.
	GetByID(ctx context.Context, id int64) (*MedicalRecord, error)

	// List lista registros con paginación.
	List(ctx context.Context, filter ListRecordsFilter) ([]MedicalRecord, error)

	// ListByAppointment lista los registros de una cita.
	ListByAppointment(ctx context.Context, appointmentID int64) ([]MedicalRecord, error)

	// Update persiste los campos de contenido del registro.
	Update(ctx context.Context, rec *MedicalRecord) error

	// SetMirror guarda el digest y la referencia de transacción del ledger.
	// Se llama después del write relacional, cuando el mirror tuvo éxito.
	SetMirror(ctx context.Context, id int64, dataHash, ledgerTx string) error

	// Delete elimina la fila. Retorna ErrNotFound si no existe.
	Delete(ctx context.Context, id int64) error
}
