// Package clinic agrupa las operaciones de animales, citas, pesos y
// sedes. Es una capa fina: validación de referencias cruzadas y
// delegación a los repositorios.
package clinic

import (
	"context"
	"errors"

	"github.com/dropDatabas3/vetclinic/internal/domain/repository"
)

var ErrNotFound = errors.New("clinic: not found")

// Deps contiene las dependencias del servicio.
type Deps struct {
	Animals      repository.AnimalRepository
	Appointments repository.AppointmentRepository
	WeightLogs   repository.WeightLogRepository
	Facilities   repository.FacilityRepository
	Accounts     repository.AccountRepository
}

// Service es el servicio de clínica.
type Service struct {
	deps Deps
}

func NewService(deps Deps) *Service {
	return &Service{deps: deps}
}

func mapNotFound(err error) error {
	if errors.Is(err, repository.ErrNotFound) {
		return ErrNotFound
	}
	return err
}

// ─── Animales ───

func (s *Service) CreateAnimal(ctx context.Context, a *repository.Animal) error {
	return s.deps.Animals.Create(ctx, a)
}

func (s *Service) GetAnimal(ctx context.Context, id int64) (*repository.Animal, error) {
	a, err := s.deps.Animals.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return a, nil
}

func (s *Service) ListAnimalsByOwner(ctx context.Context, ownerID int64) ([]repository.Animal, error) {
	return s.deps.Animals.ListByOwner(ctx, ownerID)
}

func (s *Service) UpdateAnimal(ctx context.Context, a *repository.Animal) error {
	return mapNotFound(s.deps.Animals.Update(ctx, a))
}

func (s *Service) DeleteAnimal(ctx context.Context, id int64) error {
	return mapNotFound(s.deps.Animals.Delete(ctx, id))
}

// ─── Citas ───

// CreateAppointment valida que el animal exista antes del alta.
func (s *Service) CreateAppointment(ctx context.Context, ap *repository.Appointment) error {
	if _, err := s.deps.Animals.GetByID(ctx, ap.AnimalID); err != nil {
		return mapNotFound(err)
	}
	return s.deps.Appointments.Create(ctx, ap)
}

func (s *Service) GetAppointment(ctx context.Context, id int64) (*repository.Appointment, error) {
	ap, err := s.deps.Appointments.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return ap, nil
}

func (s *Service) ListAppointmentsByClient(ctx context.Context, clientID int64) ([]repository.Appointment, error) {
	return s.deps.Appointments.ListByClient(ctx, clientID)
}

func (s *Service) ListAppointmentsByDoctor(ctx context.Context, doctorID int64) ([]repository.Appointment, error) {
	return s.deps.Appointments.ListByDoctor(ctx, doctorID)
}

func (s *Service) UpdateAppointment(ctx context.Context, ap *repository.Appointment) error {
	return mapNotFound(s.deps.Appointments.Update(ctx, ap))
}

func (s *Service) DeleteAppointment(ctx context.Context, id int64) error {
	return mapNotFound(s.deps.Appointments.Delete(ctx, id))
}

// ─── Pesos ───

func (s *Service) AddWeight(ctx context.Context, wl *repository.WeightLog) error {
	if _, err := s.deps.Animals.GetByID(ctx, wl.AnimalID); err != nil {
		return mapNotFound(err)
	}
	return s.deps.WeightLogs.Create(ctx, wl)
}

func (s *Service) ListWeights(ctx context.Context, animalID int64) ([]repository.WeightLog, error) {
	return s.deps.WeightLogs.ListByAnimal(ctx, animalID)
}

func (s *Service) DeleteWeight(ctx context.Context, id int64) error {
	return mapNotFound(s.deps.WeightLogs.Delete(ctx, id))
}

// ─── Sedes ───

func (s *Service) CreateFacility(ctx context.Context, f *repository.Facility) error {
	return s.deps.Facilities.Create(ctx, f)
}

func (s *Service) GetFacility(ctx context.Context, id int64) (*repository.Facility, error) {
	f, err := s.deps.Facilities.GetByID(ctx, id)
	if err != nil {
		return nil, mapNotFound(err)
	}
	return f, nil
}

func (s *Service) ListFacilities(ctx context.Context, offset, limit int) ([]repository.Facility, error) {
	return s.deps.Facilities.List(ctx, offset, limit)
}

func (s *Service) UpdateFacility(ctx context.Context, f *repository.Facility) error {
	return mapNotFound(s.deps.Facilities.Update(ctx, f))
}

func (s *Service) DeleteFacility(ctx context.Context, id int64) error {
	return mapNotFound(s.deps.Facilities.Delete(ctx, id))
}
