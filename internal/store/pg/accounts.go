package pg

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/vetclinic/internal/domain/repository"
)

// accountsRepo implementa AccountRepository sobre las tres tablas de
// cuentas. El email es único a través de las tres; FindByEmail las
// prueba en orden fijo.
type accountsRepo struct {
	pool *pgxpool.Pool
}

const credCols = `password_hash, must_change_password, totp_secret, totp_confirmed, failed_login_attempts, locked_until`

func (r *accountsRepo) FindByEmail(ctx context.Context, email string) (repository.Account, error) {
	if c, err := r.findClient(ctx, email); err == nil {
		return c, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if d, err := r.findDoctor(ctx, email); err == nil {
		return d, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	if c, err := r.findConsultant(ctx, email); err == nil {
		return c, nil
	} else if !errors.Is(err, repository.ErrNotFound) {
		return nil, err
	}
	return nil, repository.ErrNotFound
}

func (r *accountsRepo) findClient(ctx context.Context, email string) (*repository.Client, error) {
	var c repository.Client
	err := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, phone_number, address, postal_code, created_at,
		       `+credCols+`
		FROM clients WHERE lower(email) = lower($1)`, email).
		Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.PhoneNumber, &c.Address, &c.PostalCode, &c.CreatedAt,
			&c.PasswordHash, &c.MustChangePassword, &c.TOTPSecret, &c.TOTPConfirmed, &c.FailedLoginAttempts, &c.LockedUntil)
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

func (r *accountsRepo) findDoctor(ctx context.Context, email string) (*repository.Doctor, error) {
	var d repository.Doctor
	err := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, specialization, permit_number, created_at,
		       `+credCols+`
		FROM doctors WHERE lower(email) = lower($1)`, email).
		Scan(&d.ID, &d.FirstName, &d.LastName, &d.Email, &d.Specialization, &d.PermitNumber, &d.CreatedAt,
			&d.PasswordHash, &d.MustChangePassword, &d.TOTPSecret, &d.TOTPConfirmed, &d.FailedLoginAttempts, &d.LockedUntil)
	if err != nil {
		return nil, mapErr(err)
	}
	return &d, nil
}

func (r *accountsRepo) findConsultant(ctx context.Context, email string) (*repository.Consultant, error) {
	var c repository.Consultant
	err := r.pool.QueryRow(ctx, `
		SELECT id, first_name, last_name, email, backup_email, created_at,
		       `+credCols+`
		FROM consultants WHERE lower(email) = lower($1)`, email).
		Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.BackupEmail, &c.CreatedAt,
			&c.PasswordHash, &c.MustChangePassword, &c.TOTPSecret, &c.TOTPConfirmed, &c.FailedLoginAttempts, &c.LockedUntil)
	if err != nil {
		return nil, mapErr(err)
	}
	return &c, nil
}

// emailTaken verifica las tres tablas antes de un insert. La constraint
// UNIQUE por tabla no cubre cruces entre tablas.
func (r *accountsRepo) emailTaken(ctx context.Context, email string) (bool, error) {
	var taken bool
	err := r.pool.QueryRow(ctx, `
		SELECT EXISTS(SELECT 1 FROM clients WHERE lower(email) = lower($1))
		    OR EXISTS(SELECT 1 FROM doctors WHERE lower(email) = lower($1))
		    OR EXISTS(SELECT 1 FROM consultants WHERE lower(email) = lower($1))`, email).
		Scan(&taken)
	return taken, err
}

func (r *accountsRepo) CreateClient(ctx context.Context, c *repository.Client) error {
	taken, err := r.emailTaken(ctx, c.Email)
	if err != nil {
		return err
	}
	if taken {
		return repository.ErrConflict
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO clients (first_name, last_name, email, phone_number, address, postal_code,
		                     password_hash, must_change_password, totp_secret, totp_confirmed,
		                     failed_login_attempts, locked_until)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
		RETURNING id, created_at`,
		c.FirstName, c.LastName, c.Email, c.PhoneNumber, c.Address, c.PostalCode,
		c.PasswordHash, c.MustChangePassword, c.TOTPSecret, c.TOTPConfirmed,
		c.FailedLoginAttempts, c.LockedUntil).
		Scan(&c.ID, &c.CreatedAt)
	return mapErr(err)
}

func (r *accountsRepo) CreateDoctor(ctx context.Context, d *repository.Doctor) error {
	taken, err := r.emailTaken(ctx, d.Email)
	if err != nil {
		return err
	}
	if taken {
		return repository.ErrConflict
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO doctors (first_name, last_name, email, specialization, permit_number,
		                     password_hash, must_change_password, totp_secret, totp_confirmed,
		                     failed_login_attempts, locked_until)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
		RETURNING id, created_at`,
		d.FirstName, d.LastName, d.Email, d.Specialization, d.PermitNumber,
		d.PasswordHash, d.MustChangePassword, d.TOTPSecret, d.TOTPConfirmed,
		d.FailedLoginAttempts, d.LockedUntil).
		Scan(&d.ID, &d.CreatedAt)
	return mapErr(err)
}

func (r *accountsRepo) CreateConsultant(ctx context.Context, c *repository.Consultant) error {
	taken, err := r.emailTaken(ctx, c.Email)
	if err != nil {
		return err
	}
	if taken {
		return repository.ErrConflict
	}
	err = r.pool.QueryRow(ctx, `
		INSERT INTO consultants (first_name, last_name, email, backup_email,
		                         password_hash, must_change_password, totp_secret, totp_confirmed,
		                         failed_login_attempts, locked_until)
		VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		RETURNING id, created_at`,
		c.FirstName, c.LastName, c.Email, c.BackupEmail,
		c.PasswordHash, c.MustChangePassword, c.TOTPSecret, c.TOTPConfirmed,
		c.FailedLoginAttempts, c.LockedUntil).
		Scan(&c.ID, &c.CreatedAt)
	return mapErr(err)
}

func (r *accountsRepo) List(ctx context.Context) ([]repository.Account, error) {
	var out []repository.Account

	rows, err := r.pool.Query(ctx, `
		SELECT id, first_name, last_name, email, phone_number, address, postal_code, created_at, `+credCols+`
		FROM clients ORDER BY id`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var c repository.Client
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.PhoneNumber, &c.Address, &c.PostalCode, &c.CreatedAt,
			&c.PasswordHash, &c.MustChangePassword, &c.TOTPSecret, &c.TOTPConfirmed, &c.FailedLoginAttempts, &c.LockedUntil); err != nil {
			rows.Close()
			return nil, err
		}
		cc := c
		out = append(out, &cc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT id, first_name, last_name, email, specialization, permit_number, created_at, `+credCols+`
		FROM doctors ORDER BY id`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var d repository.Doctor
		if err := rows.Scan(&d.ID, &d.FirstName, &d.LastName, &d.Email, &d.Specialization, &d.PermitNumber, &d.CreatedAt,
			&d.PasswordHash, &d.MustChangePassword, &d.TOTPSecret, &d.TOTPConfirmed, &d.FailedLoginAttempts, &d.LockedUntil); err != nil {
			rows.Close()
			return nil, err
		}
		dd := d
		out = append(out, &dd)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	rows, err = r.pool.Query(ctx, `
		SELECT id, first_name, last_name, email, backup_email, created_at, `+credCols+`
		FROM consultants ORDER BY id`)
	if err != nil {
		return nil, err
	}
	for rows.Next() {
		var c repository.Consultant
		if err := rows.Scan(&c.ID, &c.FirstName, &c.LastName, &c.Email, &c.BackupEmail, &c.CreatedAt,
			&c.PasswordHash, &c.MustChangePassword, &c.TOTPSecret, &c.TOTPConfirmed, &c.FailedLoginAttempts, &c.LockedUntil); err != nil {
			rows.Close()
			return nil, err
		}
		cc := c
		out = append(out, &cc)
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return out, nil
}

func (r *accountsRepo) UpdateCredentials(ctx context.Context, acct repository.Account) error {
	var table string
	switch acct.Role() {
	case repository.KindClient:
		table = "clients"
	case repository.KindDoctor:
		table = "doctors"
	case repository.KindConsultant:
		table = "consultants"
	default:
		return repository.ErrInvalidInput
	}
	creds := acct.Creds()
	tag, err := r.pool.Exec(ctx, fmt.Sprintf(`
		UPDATE %s SET password_hash = $1, must_change_password = $2, totp_secret = $3,
		              totp_confirmed = $4, failed_login_attempts = $5, locked_until = $6
		WHERE id = $7`, table),
		creds.PasswordHash, creds.MustChangePassword, creds.TOTPSecret,
		creds.TOTPConfirmed, creds.FailedLoginAttempts, creds.LockedUntil, acct.AccountID())
	if err != nil {
		return mapErr(err)
	}
	if tag.RowsAffected() == 0 {
		return repository.ErrNotFound
	}
	return nil
}
