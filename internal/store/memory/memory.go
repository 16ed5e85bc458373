// Package memory implementa los repositorios sobre maps en memoria.
// Es el driver de dev y tests; el estado muere con el proceso.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/dropDatabas3/vetclinic/internal/domain/repository"
)

// Memory es el adapter completo. Implementa AccountRepository directamente
// y expone los demás repositorios como vistas que comparten el mismo lock.
type Memory struct {
	mu sync.RWMutex

	clients     map[int64]*repository.Client
	doctors     map[int64]*repository.Doctor
	consultants map[int64]*repository.Consultant

	records      map[int64]*repository.MedicalRecord
	animals      map[int64]*repository.Animal
	appointments map[int64]*repository.Appointment
	weightLogs   map[int64]*repository.WeightLog
	facilities   map[int64]*repository.Facility

	seq map[string]int64
}

func New() *Memory {
	return &Memory{
		clients:      make(map[int64]*repository.Client),
		doctors:      make(map[int64]*repository.Doctor),
		consultants:  make(map[int64]*repository.Consultant),
		records:      make(map[int64]*repository.MedicalRecord),
		animals:      make(map[int64]*repository.Animal),
		appointments: make(map[int64]*repository.Appointment),
		weightLogs:   make(map[int64]*repository.WeightLog),
		facilities:   make(map[int64]*repository.Facility),
		seq:          make(map[string]int64),
	}
}

func (m *Memory) nextID(table string) int64 {
	m.seq[table]++
	return m.seq[table]
}

// emailTaken asume m.mu tomado.
func (m *Memory) emailTaken(email string) bool {
	email = strings.ToLower(email)
	for _, c := range m.clients {
		if strings.ToLower(c.Email) == email {
			return true
		}
	}
	for _, d := range m.doctors {
		if strings.ToLower(d.Email) == email {
			return true
		}
	}
	for _, c := range m.consultants {
		if strings.ToLower(c.Email) == email {
			return true
		}
	}
	return false
}

// ─── AccountRepository ───

// FindByEmail prueba las tres tablas en orden fijo.
func (m *Memory) FindByEmail(ctx context.Context, email string) (repository.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	email = strings.ToLower(email)
	for _, c := range m.clients {
		if strings.ToLower(c.Email) == email {
			cp := *c
			return &cp, nil
		}
	}
	for _, d := range m.doctors {
		if strings.ToLower(d.Email) == email {
			cp := *d
			return &cp, nil
		}
	}
	for _, c := range m.consultants {
		if strings.ToLower(c.Email) == email {
			cp := *c
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *Memory) CreateClient(ctx context.Context, c *repository.Client) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.emailTaken(c.Email) {
		return repository.ErrConflict
	}
	c.ID = m.nextID("clients")
	c.CreatedAt = time.Now().UTC()
	cp := *c
	m.clients[c.ID] = &cp
	return nil
}

func (m *Memory) CreateDoctor(ctx context.Context, d *repository.Doctor) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.emailTaken(d.Email) {
		return repository.ErrConflict
	}
	d.ID = m.nextID("doctors")
	d.CreatedAt = time.Now().UTC()
	cp := *d
	m.doctors[d.ID] = &cp
	return nil
}

func (m *Memory) CreateConsultant(ctx context.Context, c *repository.Consultant) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.emailTaken(c.Email) {
		return repository.ErrConflict
	}
	c.ID = m.nextID("consultants")
	c.CreatedAt = time.Now().UTC()
	cp := *c
	m.consultants[c.ID] = &cp
	return nil
}

func (m *Memory) List(ctx context.Context) ([]repository.Account, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make([]repository.Account, 0, len(m.clients)+len(m.doctors)+len(m.consultants))
	for _, c := range m.clients {
		cp := *c
		out = append(out, &cp)
	}
	for _, d := range m.doctors {
		cp := *d
		out = append(out, &cp)
	}
	for _, c := range m.consultants {
		cp := *c
		out = append(out, &cp)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Role() != out[j].Role() {
			return out[i].Role() < out[j].Role()
		}
		return out[i].AccountID() < out[j].AccountID()
	})
	return out, nil
}

func (m *Memory) UpdateCredentials(ctx context.Context, acct repository.Account) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	creds := *acct.Creds()
	switch acct.Role() {
	case repository.KindClient:
		c, ok := m.clients[acct.AccountID()]
		if !ok {
			return repository.ErrNotFound
		}
		c.Credentials = creds
	case repository.KindDoctor:
		d, ok := m.doctors[acct.AccountID()]
		if !ok {
			return repository.ErrNotFound
		}
		d.Credentials = creds
	case repository.KindConsultant:
		c, ok := m.consultants[acct.AccountID()]
		if !ok {
			return repository.ErrNotFound
		}
		c.Credentials = creds
	default:
		return repository.ErrInvalidInput
	}
	return nil
}

// ─── vistas ───

func (m *Memory) Records() repository.MedicalRecordRepository { return &recordsRepo{m} }
func (m *Memory) Animals() repository.AnimalRepository        { return &animalsRepo{m} }
func (m *Memory) Appointments() repository.AppointmentRepository {
	return &appointmentsRepo{m}
}
func (m *Memory) WeightLogs() repository.WeightLogRepository { return &weightLogsRepo{m} }
func (m *Memory) Facilities() repository.FacilityRepository  { return &facilitiesRepo{m} }

type recordsRepo struct{ m *Memory }

func (r *recordsRepo) Create(ctx context.Context, rec *repository.MedicalRecord) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	rec.ID = r.m.nextID("medical_records")
	rec.CreatedAt = time.Now().UTC()
	cp := *rec
	r.m.records[rec.ID] = &cp
	return nil
}

func (r *recordsRepo) GetByID(ctx context.Context, id int64) (*repository.MedicalRecord, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	rec, ok := r.m.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *rec
	return &cp, nil
}

func (r *recordsRepo) List(ctx context.Context, filter repository.ListRecordsFilter) ([]repository.MedicalRecord, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	all := make([]repository.MedicalRecord, 0, len(r.m.records))
	for _, rec := range r.m.records {
		all = append(all, *rec)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	if filter.Offset >= len(all) {
		return []repository.MedicalRecord{}, nil
	}
	all = all[filter.Offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *recordsRepo) ListByAppointment(ctx context.Context, appointmentID int64) ([]repository.MedicalRecord, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	var out []repository.MedicalRecord
	for _, rec := range r.m.records {
		if rec.AppointmentID == appointmentID {
			out = append(out, *rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *recordsRepo) Update(ctx context.Context, rec *repository.MedicalRecord) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	cur, ok := r.m.records[rec.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Description = rec.Description
	cur.Diagnosis = rec.Diagnosis
	cur.Treatment = rec.Treatment
	cur.Notes = rec.Notes
	cur.VisitDate = rec.VisitDate
	rec.CreatedAt = cur.CreatedAt
	return nil
}

func (r *recordsRepo) SetMirror(ctx context.Context, id int64, dataHash, ledgerTx string) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	cur, ok := r.m.records[id]
	if !ok {
		return repository.ErrNotFound
	}
	cur.DataHash = dataHash
	cur.LedgerTx = ledgerTx
	return nil
}

func (r *recordsRepo) Delete(ctx context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.records[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.m.records, id)
	return nil
}

type animalsRepo struct{ m *Memory }

func (r *animalsRepo) Create(ctx context.Context, a *repository.Animal) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	a.ID = r.m.nextID("animals")
	a.CreatedAt = time.Now().UTC()
	cp := *a
	r.m.animals[a.ID] = &cp
	return nil
}

func (r *animalsRepo) GetByID(ctx context.Context, id int64) (*repository.Animal, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	a, ok := r.m.animals[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *a
	return &cp, nil
}

func (r *animalsRepo) ListByOwner(ctx context.Context, ownerID int64) ([]repository.Animal, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	var out []repository.Animal
	for _, a := range r.m.animals {
		if a.OwnerID == ownerID {
			out = append(out, *a)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *animalsRepo) Update(ctx context.Context, a *repository.Animal) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	cur, ok := r.m.animals[a.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Name = a.Name
	cur.Species = a.Species
	cur.Breed = a.Breed
	cur.Age = a.Age
	cur.ChipNumber = a.ChipNumber
	return nil
}

func (r *animalsRepo) Delete(ctx context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.animals[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.m.animals, id)
	return nil
}

type appointmentsRepo struct{ m *Memory }

func (r *appointmentsRepo) Create(ctx context.Context, ap *repository.Appointment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	ap.ID = r.m.nextID("appointments")
	ap.CreatedAt = time.Now().UTC()
	if ap.Status == "" {
		ap.Status = "scheduled"
	}
	cp := *ap
	r.m.appointments[ap.ID] = &cp
	return nil
}

func (r *appointmentsRepo) GetByID(ctx context.Context, id int64) (*repository.Appointment, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	ap, ok := r.m.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *ap
	return &cp, nil
}

func (r *appointmentsRepo) ListByClient(ctx context.Context, clientID int64) ([]repository.Appointment, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	var out []repository.Appointment
	for _, ap := range r.m.appointments {
		if ap.ClientID == clientID {
			out = append(out, *ap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *appointmentsRepo) ListByDoctor(ctx context.Context, doctorID int64) ([]repository.Appointment, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	var out []repository.Appointment
	for _, ap := range r.m.appointments {
		if ap.DoctorID == doctorID {
			out = append(out, *ap)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (r *appointmentsRepo) Update(ctx context.Context, ap *repository.Appointment) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	cur, ok := r.m.appointments[ap.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.ScheduledAt = ap.ScheduledAt
	cur.Reason = ap.Reason
	cur.Status = ap.Status
	return nil
}

func (r *appointmentsRepo) Delete(ctx context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.appointments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.m.appointments, id)
	return nil
}

type weightLogsRepo struct{ m *Memory }

func (r *weightLogsRepo) Create(ctx context.Context, wl *repository.WeightLog) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	wl.ID = r.m.nextID("weight_logs")
	if wl.MeasuredAt.IsZero() {
		wl.MeasuredAt = time.Now().UTC()
	}
	cp := *wl
	r.m.weightLogs[wl.ID] = &cp
	return nil
}

func (r *weightLogsRepo) ListByAnimal(ctx context.Context, animalID int64) ([]repository.WeightLog, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	var out []repository.WeightLog
	for _, wl := range r.m.weightLogs {
		if wl.AnimalID == animalID {
			out = append(out, *wl)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MeasuredAt.Before(out[j].MeasuredAt) })
	return out, nil
}

func (r *weightLogsRepo) Delete(ctx context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.weightLogs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.m.weightLogs, id)
	return nil
}

type facilitiesRepo struct{ m *Memory }

func (r *facilitiesRepo) Create(ctx context.Context, f *repository.Facility) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	f.ID = r.m.nextID("facilities")
	f.CreatedAt = time.Now().UTC()
	f.UpdatedAt = f.CreatedAt
	cp := *f
	r.m.facilities[f.ID] = &cp
	return nil
}

func (r *facilitiesRepo) GetByID(ctx context.Context, id int64) (*repository.Facility, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	f, ok := r.m.facilities[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *f
	return &cp, nil
}

func (r *facilitiesRepo) List(ctx context.Context, offset, limit int) ([]repository.Facility, error) {
	r.m.mu.RLock()
	defer r.m.mu.RUnlock()

	all := make([]repository.Facility, 0, len(r.m.facilities))
	for _, f := range r.m.facilities {
		all = append(all, *f)
	}
	sort.Slice(all, func(i, j int) bool { return all[i].ID < all[j].ID })

	if limit <= 0 {
		limit = 100
	}
	if offset >= len(all) {
		return []repository.Facility{}, nil
	}
	all = all[offset:]
	if len(all) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (r *facilitiesRepo) Update(ctx context.Context, f *repository.Facility) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	cur, ok := r.m.facilities[f.ID]
	if !ok {
		return repository.ErrNotFound
	}
	cur.Name = f.Name
	cur.Address = f.Address
	cur.Phone = f.Phone
	cur.UpdatedAt = time.Now().UTC()
	f.CreatedAt = cur.CreatedAt
	f.UpdatedAt = cur.UpdatedAt
	return nil
}

func (r *facilitiesRepo) Delete(ctx context.Context, id int64) error {
	r.m.mu.Lock()
	defer r.m.mu.Unlock()

	if _, ok := r.m.facilities[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.m.facilities, id)
	return nil
}
