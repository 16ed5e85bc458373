package records_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/vetclinic/internal/domain/repository"
	"github.com/dropDatabas3/vetclinic/internal/http/services/records"
	"github.com/dropDatabas3/vetclinic/internal/ledger"
	memstore "github.com/dropDatabas3/vetclinic/internal/store/memory"
)

// downLedger simula un nodo caído: toda operación falla por disponibilidad.
type downLedger struct{}

func (downLedger) Add(ctx context.Context, id int64, digest string) (string, error) {
	return "", ledger.ErrUnavailable
}
func (downLedger) Update(ctx context.Context, id int64, digest string) (string, error) {
	return "", ledger.ErrUnavailable
}
func (downLedger) Delete(ctx context.Context, id int64) (string, error) {
	return "", ledger.ErrUnavailable
}
func (downLedger) Get(ctx context.Context, id int64) (*ledger.Entry, error) {
	return nil, ledger.ErrUnavailable
}
func (downLedger) ListByOwner(ctx context.Context, owner string) ([]int64, error) {
	return nil, ledger.ErrUnavailable
}

func newFixture(t *testing.T, lc ledger.Client) (*records.Service, *memstore.Memory, *repository.Appointment) {
	t.Helper()
	ctx := context.Background()
	m := memstore.New()

	animal := &repository.Animal{OwnerID: 1, Name: "Bigotes", Species: "gato"}
	require.NoError(t, m.Animals().Create(ctx, animal))
	appt := &repository.Appointment{ClientID: 1, DoctorID: 1, AnimalID: animal.ID, ScheduledAt: time.Now()}
	require.NoError(t, m.Appointments().Create(ctx, appt))

	s := records.NewService(records.Deps{
		Records:      m.Records(),
		Appointments: m.Appointments(),
		Animals:      m.Animals(),
		Ledger:       lc,
	})
	return s, m, appt
}

func newRecord(appt *repository.Appointment) *repository.MedicalRecord {
	return &repository.MedicalRecord{
		AppointmentID: appt.ID,
		AnimalID:      appt.AnimalID,
		Description:   "control anual",
		Diagnosis:     "sano",
		Treatment:     "ninguno",
		VisitDate:     time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC),
	}
}

func TestCreate_MirrorsToLedger(t *testing.T) {
	lc := ledger.NewMemory("svc")
	s, m, appt := newFixture(t, lc)
	ctx := context.Background()

	res, err := s.Create(ctx, newRecord(appt))
	require.NoError(t, err)
	require.True(t, res.Mirrored)
	require.Regexp(t, "^0x[0-9a-f]+$", res.TxRef)
	require.Equal(t, records.Digest(&res.Record), res.Record.DataHash)

	// La referencia queda persistida en la fila.
	stored, err := m.Records().GetByID(ctx, res.Record.ID)
	require.NoError(t, err)
	require.Equal(t, res.TxRef, stored.LedgerTx)

	entry, err := lc.Get(ctx, res.Record.ID)
	require.NoError(t, err)
	require.Equal(t, res.Record.DataHash, entry.Digest)
}

func TestCreate_ValidatesRefs(t *testing.T) {
	s, _, appt := newFixture(t, ledger.NewMemory("svc"))
	ctx := context.Background()

	rec := newRecord(appt)
	rec.AppointmentID = 999
	_, err := s.Create(ctx, rec)
	require.ErrorIs(t, err, records.ErrAppointmentNotFound)

	rec = newRecord(appt)
	rec.AnimalID = 999
	_, err = s.Create(ctx, rec)
	require.ErrorIs(t, err, records.ErrAnimalNotFound)
}

func TestCreate_LedgerDownIsDegradedSuccess(t *testing.T) {
	s, m, appt := newFixture(t, downLedger{})
	ctx := context.Background()

	// El write relacional manda: el fallo del ledger no voltea la operación.
	res, err := s.Create(ctx, newRecord(appt))
	require.NoError(t, err)
	require.False(t, res.Mirrored)
	require.Empty(t, res.TxRef)

	stored, err := m.Records().GetByID(ctx, res.Record.ID)
	require.NoError(t, err)
	require.Empty(t, stored.LedgerTx)
}

func TestCreate_NilLedgerDisablesMirror(t *testing.T) {
	s, _, appt := newFixture(t, nil)
	res, err := s.Create(context.Background(), newRecord(appt))
	require.NoError(t, err)
	require.False(t, res.Mirrored)

	_, err = s.History(context.Background(), res.Record.ID)
	require.ErrorIs(t, err, ledger.ErrUnavailable)
}

func TestUpdate_MirrorsNewDigest(t *testing.T) {
	lc := ledger.NewMemory("svc")
	s, _, appt := newFixture(t, lc)
	ctx := context.Background()

	created, err := s.Create(ctx, newRecord(appt))
	require.NoError(t, err)
	oldDigest := created.Record.DataHash

	upd := created.Record
	upd.Diagnosis = "otitis"
	res, err := s.Update(ctx, &upd)
	require.NoError(t, err)
	require.True(t, res.Mirrored)
	require.NotEqual(t, oldDigest, res.Record.DataHash)

	entry, err := lc.Get(ctx, res.Record.ID)
	require.NoError(t, err)
	require.Equal(t, res.Record.DataHash, entry.Digest)
}

func TestUpdate_FallsBackToAddWhenLedgerNeverSawIt(t *testing.T) {
	ctx := context.Background()

	// Alta con el espejo deshabilitado: el ledger nunca vio el registro.
	sNoLedger, m, appt := newFixture(t, nil)
	created, err := sNoLedger.Create(ctx, newRecord(appt))
	require.NoError(t, err)

	lc := ledger.NewMemory("svc")
	s := records.NewService(records.Deps{
		Records:      m.Records(),
		Appointments: m.Appointments(),
		Animals:      m.Animals(),
		Ledger:       lc,
	})

	upd := created.Record
	upd.Notes = "primer espejo tardío"
	res, err := s.Update(ctx, &upd)
	require.NoError(t, err)
	require.True(t, res.Mirrored)

	entry, err := lc.Get(ctx, res.Record.ID)
	require.NoError(t, err)
	require.Equal(t, res.Record.DataHash, entry.Digest)
}

func TestDelete_TombstonesLedgerEntry(t *testing.T) {
	lc := ledger.NewMemory("svc")
	s, m, appt := newFixture(t, lc)
	ctx := context.Background()

	created, err := s.Create(ctx, newRecord(appt))
	require.NoError(t, err)
	id := created.Record.ID

	require.NoError(t, s.Delete(ctx, id))
	_, err = m.Records().GetByID(ctx, id)
	require.ErrorIs(t, err, repository.ErrNotFound)

	// La fila no está, pero la historia del ledger sí.
	entry, err := s.History(ctx, id)
	require.NoError(t, err)
	require.True(t, entry.Deleted)

	require.ErrorIs(t, s.Delete(ctx, id), records.ErrNotFound)
}

func TestUpdate_PreservesImmutableFields(t *testing.T) {
	s, _, appt := newFixture(t, ledger.NewMemory("svc"))
	ctx := context.Background()

	created, err := s.Create(ctx, newRecord(appt))
	require.NoError(t, err)

	upd := created.Record
	upd.AppointmentID = 999 // no debe pisar la referencia real
	upd.AnimalID = 999
	upd.Treatment = "antibiótico"
	res, err := s.Update(ctx, &upd)
	require.NoError(t, err)
	require.Equal(t, created.Record.AppointmentID, res.Record.AppointmentID)
	require.Equal(t, created.Record.AnimalID, res.Record.AnimalID)
	require.Equal(t, created.Record.CreatedAt, res.Record.CreatedAt)
}

func TestDigest_DeterministicAndSensitive(t *testing.T) {
	base := repository.MedicalRecord{
		ID:            7,
		AppointmentID: 1,
		AnimalID:      2,
		Description:   "control",
		Diagnosis:     "sano",
		VisitDate:     time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC),
		CreatedAt:     time.Date(2026, 4, 2, 10, 5, 0, 0, time.UTC),
	}
	other := base
	require.Equal(t, records.Digest(&base), records.Digest(&other))

	// Mismo instante en otra zona horaria: mismo digest.
	loc := time.FixedZone("ART", -3*60*60)
	other.VisitDate = base.VisitDate.In(loc)
	require.Equal(t, records.Digest(&base), records.Digest(&other))

	other = base
	other.Notes = "x"
	require.NotEqual(t, records.Digest(&base), records.Digest(&other))

	// Los campos de espejo no entran al digest.
	other = base
	other.DataHash = "algo"
	other.LedgerTx = "0xdead"
	require.Equal(t, records.Digest(&base), records.Digest(&other))
}
