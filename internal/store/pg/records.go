package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/vetclinic/internal/domain/repository"
)

type recordsRepo struct {
	pool *pgxpool.Pool
}

func (r *recordsRepo) Create(ctx context.Context, rec *repository.MedicalRecord) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO medical_records (appointment_id, animal_id, description, diagnosis, treatment, notes, visit_date)
		VALUES ($1,$2,$3,$4,$5,$6,$7)
		RETURNING id, created_at`,
		rec.AppointmentID, rec.AnimalID, rec.Description, rec.Diagnosis, rec.Treatment, rec.Notes, rec.VisitDate).
		Scan(&rec.ID, &rec.CreatedAt)
	return mapErr(err)
}

func (r *recordsRepo) GetByID(ctx context.Context, id int64) (*repository.MedicalRecord, error) {
	var rec repository.MedicalRecord
	err := r.pool.QueryRow(ctx, `
		SELECT id, appointment_id, animal_id, description, diagnosis, treatment, notes, visit_date, created_at,
		       COALESCE(data_hash, ''), COALESCE(ledger_tx, '')
		FROM medical_records WHERE id = $1`, id).
		Scan(&rec.ID, &rec.AppointmentID, &rec.AnimalID, &rec.Description, &rec.Diagnosis, &rec.Treatment,
			&rec.Notes, &rec.VisitDate, &rec.CreatedAt, &rec.DataHash, &rec.LedgerTx)
	if err != nil {
		return nil, mapErr(err)
	}
	return &rec, nil
}

func (r *recordsRepo) List(ctx context.Context, filter repository.ListRecordsFilter) ([]repository.MedicalRecord, error) {
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, appointment_id, animal_id, description, diagnosis, treatment, notes, visit_date, created_at,
		       COALESCE(data_hash, ''), COALESCE(ledger_tx, '')
		FROM medical_records ORDER BY id LIMIT $1 OFFSET $2`, limit, filter.Offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []repository.MedicalRecord{}
	for rows.Next() {
		var rec repository.MedicalRecord
		if err := rows.Scan(&rec.ID, &rec.AppointmentID, &rec.AnimalID, &rec.Description, &rec.Diagnosis,
			&rec.Treatment, &rec.Notes, &rec.VisitDate, &rec.CreatedAt, &rec.DataHash, &rec.LedgerTx); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *recordsRepo) ListByAppointment(ctx context.Context, appointmentID int64) ([]repository.MedicalRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, appointment_id, animal_id, description, diagnosis, treatment, notes, visit_date, created_at,
		       COALESCE(data_hash, ''), COALESCE(ledger_tx, '')
		FROM medical_records WHERE appointment_id = $1 ORDER BY id`, appointmentID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []repository.MedicalRecord{}
	for rows.Next() {
		var rec repository.MedicalRecord
		if err := rows.Scan(&rec.ID, &rec.AppointmentID, &rec.AnimalID, &rec.Description, &rec.Diagnosis,
			&rec.Treatment, &rec.Notes, &rec.VisitDate, &rec.CreatedAt, &rec.DataHash, &rec.LedgerTx); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (r *recordsRepo) Update(ctx context.Context, rec *repository.MedicalRecord) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE medical_records
		SET description = $1, diagnosis = $2, treatment = $3, notes = $4, visit_date = $5
		WHERE id = $6`,
		rec.Description, rec.Diagnosis, rec.Treatment, rec.Notes, rec.VisitDate, rec.ID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *recordsRepo) SetMirror(ctx context.Context, id int64, dataHash, ledgerTx string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE medical_records SET data_hash = $1, ledger_tx = $2 WHERE id = $3`,
		dataHash, ledgerTx, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *recordsRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM medical_records WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
