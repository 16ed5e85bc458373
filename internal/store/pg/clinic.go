package pg

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/vetclinic/internal/domain/repository"
)

type animalsRepo struct {
	pool *pgxpool.Pool
}

func (r *animalsRepo) Create(ctx context.Context, a *repository.Animal) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO animals (owner_id, name, species, breed, age, chip_number)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at`,
		a.OwnerID, a.Name, a.Species, a.Breed, a.Age, a.ChipNumber).
		Scan(&a.ID, &a.CreatedAt)
	return mapErr(err)
}

func (r *animalsRepo) GetByID(ctx context.Context, id int64) (*repository.Animal, error) {
	var a repository.Animal
	err := r.pool.QueryRow(ctx, `
		SELECT id, owner_id, name, species, breed, age, COALESCE(chip_number, ''), created_at
		FROM animals WHERE id = $1`, id).
		Scan(&a.ID, &a.OwnerID, &a.Name, &a.Species, &a.Breed, &a.Age, &a.ChipNumber, &a.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &a, nil
}

func (r *animalsRepo) ListByOwner(ctx context.Context, ownerID int64) ([]repository.Animal, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, owner_id, name, species, breed, age, COALESCE(chip_number, ''), created_at
		FROM animals WHERE owner_id = $1 ORDER BY id`, ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []repository.Animal{}
	for rows.Next() {
		var a repository.Animal
		if err := rows.Scan(&a.ID, &a.OwnerID, &a.Name, &a.Species, &a.Breed, &a.Age, &a.ChipNumber, &a.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

func (r *animalsRepo) Update(ctx context.Context, a *repository.Animal) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE animals SET name = $1, species = $2, breed = $3, age = $4, chip_number = $5
		WHERE id = $6`,
		a.Name, a.Species, a.Breed, a.Age, a.ChipNumber, a.ID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *animalsRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM animals WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type appointmentsRepo struct {
	pool *pgxpool.Pool
}

func (r *appointmentsRepo) Create(ctx context.Context, ap *repository.Appointment) error {
	if ap.Status == "" {
		ap.Status = "scheduled"
	}
	err := r.pool.QueryRow(ctx, `
		INSERT INTO appointments (client_id, doctor_id, animal_id, scheduled_at, reason, status)
		VALUES ($1,$2,$3,$4,$5,$6)
		RETURNING id, created_at`,
		ap.ClientID, ap.DoctorID, ap.AnimalID, ap.ScheduledAt, ap.Reason, ap.Status).
		Scan(&ap.ID, &ap.CreatedAt)
	return mapErr(err)
}

func (r *appointmentsRepo) GetByID(ctx context.Context, id int64) (*repository.Appointment, error) {
	var ap repository.Appointment
	err := r.pool.QueryRow(ctx, `
		SELECT id, client_id, doctor_id, animal_id, scheduled_at, reason, status, created_at
		FROM appointments WHERE id = $1`, id).
		Scan(&ap.ID, &ap.ClientID, &ap.DoctorID, &ap.AnimalID, &ap.ScheduledAt, &ap.Reason, &ap.Status, &ap.CreatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &ap, nil
}

func (r *appointmentsRepo) listBy(ctx context.Context, col string, id int64) ([]repository.Appointment, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, client_id, doctor_id, animal_id, scheduled_at, reason, status, created_at
		FROM appointments WHERE `+col+` = $1 ORDER BY scheduled_at`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []repository.Appointment{}
	for rows.Next() {
		var ap repository.Appointment
		if err := rows.Scan(&ap.ID, &ap.ClientID, &ap.DoctorID, &ap.AnimalID, &ap.ScheduledAt, &ap.Reason, &ap.Status, &ap.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, ap)
	}
	return out, rows.Err()
}

func (r *appointmentsRepo) ListByClient(ctx context.Context, clientID int64) ([]repository.Appointment, error) {
	return r.listBy(ctx, "client_id", clientID)
}

func (r *appointmentsRepo) ListByDoctor(ctx context.Context, doctorID int64) ([]repository.Appointment, error) {
	return r.listBy(ctx, "doctor_id", doctorID)
}

func (r *appointmentsRepo) Update(ctx context.Context, ap *repository.Appointment) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE appointments SET scheduled_at = $1, reason = $2, status = $3 WHERE id = $4`,
		ap.ScheduledAt, ap.Reason, ap.Status, ap.ID)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

func (r *appointmentsRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type weightLogsRepo struct {
	pool *pgxpool.Pool
}

func (r *weightLogsRepo) Create(ctx context.Context, wl *repository.WeightLog) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO weight_logs (animal_id, weight_kg, measured_at)
		VALUES ($1, $2, COALESCE($3, now()))
		RETURNING id, measured_at`,
		wl.AnimalID, wl.WeightKg, nullTime(wl.MeasuredAt)).
		Scan(&wl.ID, &wl.MeasuredAt)
	return mapErr(err)
}

func (r *weightLogsRepo) ListByAnimal(ctx context.Context, animalID int64) ([]repository.WeightLog, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT id, animal_id, weight_kg, measured_at
		FROM weight_logs WHERE animal_id = $1 ORDER BY measured_at`, animalID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []repository.WeightLog{}
	for rows.Next() {
		var wl repository.WeightLog
		if err := rows.Scan(&wl.ID, &wl.AnimalID, &wl.WeightKg, &wl.MeasuredAt); err != nil {
			return nil, err
		}
		out = append(out, wl)
	}
	return out, rows.Err()
}

func (r *weightLogsRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM weight_logs WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}

type facilitiesRepo struct {
	pool *pgxpool.Pool
}

func (r *facilitiesRepo) Create(ctx context.Context, f *repository.Facility) error {
	err := r.pool.QueryRow(ctx, `
		INSERT INTO facilities (name, address, phone)
		VALUES ($1, $2, $3)
		RETURNING id, created_at, updated_at`,
		f.Name, f.Address, f.Phone).
		Scan(&f.ID, &f.CreatedAt, &f.UpdatedAt)
	return mapErr(err)
}

func (r *facilitiesRepo) GetByID(ctx context.Context, id int64) (*repository.Facility, error) {
	var f repository.Facility
	err := r.pool.QueryRow(ctx, `
		SELECT id, name, address, COALESCE(phone, ''), created_at, updated_at
		FROM facilities WHERE id = $1`, id).
		Scan(&f.ID, &f.Name, &f.Address, &f.Phone, &f.CreatedAt, &f.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	return &f, nil
}

func (r *facilitiesRepo) List(ctx context.Context, offset, limit int) ([]repository.Facility, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := r.pool.Query(ctx, `
		SELECT id, name, address, COALESCE(phone, ''), created_at, updated_at
		FROM facilities ORDER BY id OFFSET $1 LIMIT $2`, offset, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []repository.Facility{}
	for rows.Next() {
		var f repository.Facility
		if err := rows.Scan(&f.ID, &f.Name, &f.Address, &f.Phone, &f.CreatedAt, &f.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, f)
	}
	return out, rows.Err()
}

func (r *facilitiesRepo) Update(ctx context.Context, f *repository.Facility) error {
	err := r.pool.QueryRow(ctx, `
		UPDATE facilities SET name = $1, address = $2, phone = $3, updated_at = now()
		WHERE id = $4
		RETURNING created_at, updated_at`,
		f.Name, f.Address, f.Phone, f.ID).
		Scan(&f.CreatedAt, &f.UpdatedAt)
	return mapErr(err)
}

func (r *facilitiesRepo) Delete(ctx context.Context, id int64) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM facilities WHERE id = $1`, id)
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
