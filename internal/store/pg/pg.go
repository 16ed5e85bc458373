// Package pg implementa los repositorios sobre PostgreSQL usando pgxpool.
package pg

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/dropDatabas3/vetclinic/internal/domain/repository"
)

// Adapter envuelve el pool y expone los repositorios.
type Adapter struct {
	pool *pgxpool.Pool
}

// New conecta y verifica el pool.
func New(ctx context.Context, dsn string, maxConns int) (*Adapter, error) {
	poolCfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("pg: parse DSN: %w", err)
	}
	if maxConns > 0 {
		poolCfg.MaxConns = int32(maxConns)
	} else {
		poolCfg.MaxConns = 10
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("pg: connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("pg: ping: %w", err)
	}
	return &Adapter{pool: pool}, nil
}

func (a *Adapter) Close() { a.pool.Close() }

// Ping verifica la conexión del pool.
func (a *Adapter) Ping(ctx context.Context) error { return a.pool.Ping(ctx) }

func (a *Adapter) Accounts() repository.AccountRepository         { return &accountsRepo{a.pool} }
func (a *Adapter) Records() repository.MedicalRecordRepository    { return &recordsRepo{a.pool} }
func (a *Adapter) Animals() repository.AnimalRepository           { return &animalsRepo{a.pool} }
func (a *Adapter) Appointments() repository.AppointmentRepository { return &appointmentsRepo{a.pool} }
func (a *Adapter) WeightLogs() repository.WeightLogRepository     { return &weightLogsRepo{a.pool} }
func (a *Adapter) Facilities() repository.FacilityRepository      { return &facilitiesRepo{a.pool} }

// mapErr traduce errores de pgx a los sentinels de repository.
func mapErr(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, pgx.ErrNoRows) {
		return repository.ErrNotFound
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" {
		return repository.ErrConflict
	}
	return err
}

// nullTime retorna nil para el zero value, así el INSERT usa el default.
func nullTime(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}
