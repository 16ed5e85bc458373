// Package records implementa los registros médicos con espejo al ledger:
// el write relacional manda, y cada alta/edición/baja registra el digest
// del contenido en el ledger como prueba histórica.
package records

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"time"

	"github.com/dropDatabas3/vetclinic/internal/domain/repository"
	"github.com/dropDatabas3/vetclinic/internal/ledger"
	"github.com/dropDatabas3/vetclinic/internal/metrics"
	"github.com/dropDatabas3/vetclinic/internal/observability/logger"
)

var (
	ErrNotFound            = errors.New("records: not found")
	ErrAppointmentNotFound = errors.New("records: appointment not found")
	ErrAnimalNotFound      = errors.New("records: animal not found")
)

// Deps contiene las dependencias del servicio.
type Deps struct {
	Records      repository.MedicalRecordRepository
	Appointments repository.AppointmentRepository
	Animals      repository.AnimalRepository
	// Ledger se inyecta construido; nil deshabilita el espejo (todas las
	// operaciones quedan Mirrored=false).
	Ledger ledger.Client
}

// Result es un registro más el estado de su espejo. Mirrored=false con
// el registro igualmente persistido es éxito degradado: el dato está,
// la prueba histórica no.
type Result struct {
	Record   repository.MedicalRecord
	Mirrored bool
	TxRef    string
}

// Service es el servicio de registros médicos.
type Service struct {
	deps Deps
}

func NewService(deps Deps) *Service {
	return &Service{deps: deps}
}

// Digest calcula el hash canónico del contenido de un registro:
// SHA-256 del JSON compacto con claves ordenadas. Las fechas van en
// RFC 3339 para que el mismo contenido produzca siempre el mismo hash.
func Digest(rec *repository.MedicalRecord) string {
	payload := map[string]any{
		"id":             rec.ID,
		"appointment_id": rec.AppointmentID,
		"animal_id":      rec.AnimalID,
		"description":    rec.Description,
		"diagnosis":      rec.Diagnosis,
		"treatment":      rec.Treatment,
		"notes":          rec.Notes,
		"visit_date":     rec.VisitDate.UTC().Format(time.RFC3339),
		"created_at":     rec.CreatedAt.UTC().Format(time.RFC3339),
	}
	raw, _ := json.Marshal(payload) // map: claves ordenadas, sin espacios
	sum := sha256.Sum256(raw)
	return hex.EncodeToString(sum[:])
}

// validateRefs verifica que la cita y el animal existan.
func (s *Service) validateRefs(ctx context.Context, appointmentID, animalID int64) error {
	if _, err := s.deps.Appointments.GetByID(ctx, appointmentID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAppointmentNotFound
		}
		return err
	}
	if _, err := s.deps.Animals.GetByID(ctx, animalID); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrAnimalNotFound
		}
		return err
	}
	return nil
}

// mirror registra la operación en el ledger y persiste la referencia.
// Cualquier fallo del ledger degrada: se loguea, se cuenta y se sigue.
// El write relacional ya está commiteado cuando se llega acá.
func (s *Service) mirror(ctx context.Context, op ledger.Op, rec *repository.MedicalRecord) (bool, string) {
	if s.deps.Ledger == nil {
		return false, ""
	}
	log := logger.From(ctx).With(
		logger.Component("records.mirror"),
		logger.RecordID(rec.ID),
	)

	digest := ""
	if op != ledger.OpDelete {
		digest = Digest(rec)
	}

	var tx string
	var err error
	switch op {
	case ledger.OpAdd:
		tx, err = s.deps.Ledger.Add(ctx, rec.ID, digest)
	case ledger.OpUpdate:
		tx, err = s.deps.Ledger.Update(ctx, rec.ID, digest)
		// Registro anterior al ledger (o espejo de alta perdido): el
		// update pasa a ser la primera entrada.
		if errors.Is(err, ledger.ErrNotFound) {
			tx, err = s.deps.Ledger.Add(ctx, rec.ID, digest)
		}
	case ledger.OpDelete:
		tx, err = s.deps.Ledger.Delete(ctx, rec.ID)
		if errors.Is(err, ledger.ErrNotFound) || errors.Is(err, ledger.ErrDeleted) {
			// Nada que tombstonear; no es un fallo del espejo.
			metrics.LedgerSubmissions.WithLabelValues(string(op), "skipped").Inc()
			return false, ""
		}
	}
	if err != nil {
		log.Warn("ledger mirror failed", logger.Op(string(op)), logger.Err(err))
		metrics.LedgerSubmissions.WithLabelValues(string(op), "error").Inc()
		return false, ""
	}

	metrics.LedgerSubmissions.WithLabelValues(string(op), "ok").Inc()
	if op != ledger.OpDelete {
		if err := s.deps.Records.SetMirror(ctx, rec.ID, digest, tx); err != nil {
			log.Warn("persist mirror ref failed", logger.Err(err))
		} else {
			rec.DataHash = digest
			rec.LedgerTx = tx
		}
	}
	log.Debug("ledger mirror ok", logger.TxRef(tx), logger.Digest(digest))
	return true, tx
}

// Create inserta el registro y espeja el alta.
func (s *Service) Create(ctx context.Context, rec *repository.MedicalRecord) (*Result, error) {
	if err := s.validateRefs(ctx, rec.AppointmentID, rec.AnimalID); err != nil {
		return nil, err
	}
	if err := s.deps.Records.Create(ctx, rec); err != nil {
		return nil, err
	}
	mirrored, tx := s.mirror(ctx, ledger.OpAdd, rec)
	return &Result{Record: *rec, Mirrored: mirrored, TxRef: tx}, nil
}

// Get retorna un registro por id.
func (s *Service) Get(ctx context.Context, id int64) (*repository.MedicalRecord, error) {
	rec, err := s.deps.Records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return rec, nil
}

// List lista registros con paginación.
func (s *Service) List(ctx context.Context, filter repository.ListRecordsFilter) ([]repository.MedicalRecord, error) {
	return s.deps.Records.List(ctx, filter)
}

// ListByAppointment lista los registros de una cita.
func (s *Service) ListByAppointment(ctx context.Context, appointmentID int64) ([]repository.MedicalRecord, error) {
	return s.deps.Records.ListByAppointment(ctx, appointmentID)
}

// Update aplica los cambios de contenido y espeja el digest nuevo.
func (s *Service) Update(ctx context.Context, rec *repository.MedicalRecord) (*Result, error) {
	cur, err := s.deps.Records.GetByID(ctx, rec.ID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	rec.AppointmentID = cur.AppointmentID
	rec.AnimalID = cur.AnimalID
	rec.CreatedAt = cur.CreatedAt

	if err := s.deps.Records.Update(ctx, rec); err != nil {
		return nil, err
	}
	mirrored, tx := s.mirror(ctx, ledger.OpUpdate, rec)
	return &Result{Record: *rec, Mirrored: mirrored, TxRef: tx}, nil
}

// Delete borra la fila y tombstonea la entrada del ledger. La historia
// previa del registro queda en la cadena.
func (s *Service) Delete(ctx context.Context, id int64) error {
	rec, err := s.deps.Records.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return ErrNotFound
		}
		return err
	}
	if err := s.deps.Records.Delete(ctx, id); err != nil {
		return err
	}
	s.mirror(ctx, ledger.OpDelete, rec)
	return nil
}

// History devuelve la entrada actual del ledger para un registro (puede
// existir aunque la fila relacional ya no).
func (s *Service) History(ctx context.Context, id int64) (*ledger.Entry, error) {
	if s.deps.Ledger == nil {
		return nil, ledger.ErrUnavailable
	}
	return s.deps.Ledger.Get(ctx, id)
}

// LedgerIDs lista los record ids registrados por una cuenta de servicio.
func (s *Service) LedgerIDs(ctx context.Context, owner string) ([]int64, error) {
	if s.deps.Ledger == nil {
		return nil, ledger.ErrUnavailable
	}
	return s.deps.Ledger.ListByOwner(ctx, owner)
}
