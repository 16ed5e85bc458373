package repository

import (
	"context"
	"time"
)

// Animal pertenece a un cliente.
type Animal struct {
	ID         int64
	OwnerID    int64
	Name       string
	Species    string
	Breed      string
	Age        float64
	ChipNumber string
	CreatedAt  time.Time
}

// Appointment es una cita entre cliente, doctor y animal.
type Appointment struct {
	ID          int64
	ClientID    int64
	DoctorID    int64
	AnimalID    int64
	ScheduledAt time.Time
	Reason      string
	Status      string // "scheduled" | "done" | "cancelled"
	CreatedAt   time.Time
}

// WeightLog es una medición de peso de un animal.
type WeightLog struct {
	ID         int64
	AnimalID   int64
	WeightKg   float64
	MeasuredAt time.Time
}

// Facility es una sede de la clínica.
type Facility struct {
	ID        int64
	Name      string
	Address   string
	Phone     string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// AnimalRepository define operaciones sobre animales.
type AnimalRepository interface {
	Create(ctx context.Context, a *Animal) error
	GetByID(ctx context.Context, id int64) (*Animal, error)
	ListByOwner(ctx context.Context, ownerID int64) ([]Animal, error)
	Update(ctx context.Context, a *Animal) error
	Delete(ctx context.Context, id int64) error
}

// AppointmentRepository define operaciones sobre citas.
type AppointmentRepository interface {
	Create(ctx context.Context, ap *Appointment) error
	GetByID(ctx context.Context, id int64) (*Appointment, error)
	ListByClient(ctx context.Context, clientID int64) ([]Appointment, error)
	ListByDoctor(ctx context.Context, doctorID int64) ([]Appointment, error)
	Update(ctx context.Context, ap *Appointment) error
	Delete(ctx context.Context, id int64) error
}

// WeightLogRepository define operaciones sobre mediciones de peso.
type WeightLogRepository interface {
	Create(ctx context.Context, wl *WeightLog) error
	ListByAnimal(ctx context.Context, animalID int64) ([]WeightLog, error)
	Delete(ctx context.Context, id int64) error
}

// FacilityRepository define operaciones sobre sedes.
type FacilityRepository interface {
	Create(ctx context.Context, f *Facility) error
	GetByID(ctx context.Context, id int64) (*Facility, error)
	// List pagina por offset/limit; limit <= 0 usa el default del driver.
	List(ctx context.Context, offset, limit int) ([]Facility, error)
	Update(ctx context.Context, f *Facility) error
	Delete(ctx context.Context, id int64) error
}
