// Package store arma el bundle de repositorios según el driver
// configurado. Los handlers nunca conocen el driver; solo ven las
// interfaces de repository.
package store

import (
	"context"
	"fmt"

	"github.com/dropDatabas3/vetclinic/internal/config"
	"github.com/dropDatabas3/vetclinic/internal/domain/repository"
	"github.com/dropDatabas3/vetclinic/internal/store/memory"
	"github.com/dropDatabas3/vetclinic/internal/store/pg"
)

// Store agrupa los repositorios del backend.
type Store struct {
	Accounts     repository.AccountRepository
	Records      repository.MedicalRecordRepository
	Animals      repository.AnimalRepository
	Appointments repository.AppointmentRepository
	WeightLogs   repository.WeightLogRepository
	Facilities   repository.FacilityRepository

	closeFn func()
	pingFn  func(context.Context) error
}

// Close libera recursos del driver (pool de conexiones). Safe con nil.
func (s *Store) Close() {
	if s != nil && s.closeFn != nil {
		s.closeFn()
	}
}

// Ping verifica la conexión del driver. El driver de memoria siempre
// está listo.
func (s *Store) Ping(ctx context.Context) error {
	if s == nil || s.pingFn == nil {
		return nil
	}
	return s.pingFn(ctx)
}

// New construye el Store para el driver configurado.
func New(ctx context.Context, cfg *config.Config) (*Store, error) {
	switch cfg.Storage.Driver {
	case "memory":
		m := memory.New()
		return &Store{
			Accounts:     m,
			Records:      m.Records(),
			Animals:      m.Animals(),
			Appointments: m.Appointments(),
			WeightLogs:   m.WeightLogs(),
			Facilities:   m.Facilities(),
		}, nil
	case "postgres":
		if cfg.Storage.DSN == "" {
			return nil, fmt.Errorf("store: %w: empty DSN", repository.ErrNoDatabase)
		}
		adapter, err := pg.New(ctx, cfg.Storage.DSN, cfg.Storage.Postgres.MaxOpenConns)
		if err != nil {
			return nil, err
		}
		return &Store{
			Accounts:     adapter.Accounts(),
			Records:      adapter.Records(),
			Animals:      adapter.Animals(),
			Appointments: adapter.Appointments(),
			WeightLogs:   adapter.WeightLogs(),
			Facilities:   adapter.Facilities(),
			closeFn:      adapter.Close,
			pingFn:       adapter.Ping,
		}, nil
	default:
		return nil, fmt.Errorf("store: unknown driver %q", cfg.Storage.Driver)
	}
}
