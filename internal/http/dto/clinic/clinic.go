// Package clinic define los DTOs de animales, citas, pesos y sedes.
package clinic

import "time"

// AnimalRequest es el body de alta/edición de animal.
type AnimalRequest struct {
	OwnerID    int64   `json:"owner_id"`
	Name       string  `json:"name"`
	Species    string  `json:"species"`
	Breed      string  `json:"breed"`
	Age        float64 `json:"age"`
	ChipNumber string  `json:"chip_number"`
}

// AppointmentRequest es el body de alta/edición de cita.
type AppointmentRequest struct {
	ClientID    int64     `json:"client_id"`
	DoctorID    int64     `json:"doctor_id"`
	AnimalID    int64     `json:"animal_id"`
	ScheduledAt time.Time `json:"scheduled_at"`
	Reason      string    `json:"reason"`
	Status      string    `json:"status"`
}

// WeightRequest es el body de alta de medición de peso.
type WeightRequest struct {
	AnimalID   int64     `json:"animal_id"`
	WeightKg   float64   `json:"weight_kg"`
	MeasuredAt time.Time `json:"measured_at"`
}

// FacilityRequest es el body de alta/edición de sede.
type FacilityRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}
