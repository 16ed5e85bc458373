package clinic_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dropDatabas3/vetclinic/internal/domain/repository"
	"github.com/dropDatabas3/vetclinic/internal/http/services/clinic"
	memstore "github.com/dropDatabas3/vetclinic/internal/store/memory"
)

func newService(t *testing.T) (*clinic.Service, *memstore.Memory) {
	t.Helper()
	m := memstore.New()
	s := clinic.NewService(clinic.Deps{
		Animals:      m.Animals(),
		Appointments: m.Appointments(),
		WeightLogs:   m.WeightLogs(),
		Facilities:   m.Facilities(),
		Accounts:     m,
	})
	return s, m
}

func TestFacilityCRUD(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	f := repository.Facility{Name: "Sede Centro", Address: "Av. Rivadavia 1234", Phone: "+54 11 4000-0000"}
	require.NoError(t, s.CreateFacility(ctx, &f))
	require.NotZero(t, f.ID)
	require.False(t, f.CreatedAt.IsZero())
	require.Equal(t, f.CreatedAt, f.UpdatedAt)

	got, err := s.GetFacility(ctx, f.ID)
	require.NoError(t, err)
	require.Equal(t, "Sede Centro", got.Name)

	upd := repository.Facility{ID: f.ID, Name: "Sede Centro", Address: "Av. Rivadavia 1234", Phone: "+54 11 4000-0001"}
	require.NoError(t, s.UpdateFacility(ctx, &upd))
	require.Equal(t, f.CreatedAt, upd.CreatedAt)
	require.False(t, upd.UpdatedAt.Before(upd.CreatedAt))

	got, err = s.GetFacility(ctx, f.ID)
	require.NoError(t, err)
	require.Equal(t, "+54 11 4000-0001", got.Phone)

	require.NoError(t, s.DeleteFacility(ctx, f.ID))
	_, err = s.GetFacility(ctx, f.ID)
	require.ErrorIs(t, err, clinic.ErrNotFound)
}

func TestFacilityNotFound(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	_, err := s.GetFacility(ctx, 999)
	require.ErrorIs(t, err, clinic.ErrNotFound)
	require.ErrorIs(t, s.UpdateFacility(ctx, &repository.Facility{ID: 999, Name: "x", Address: "y"}), clinic.ErrNotFound)
	require.ErrorIs(t, s.DeleteFacility(ctx, 999), clinic.ErrNotFound)
}

func TestListFacilities_Pagination(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		f := repository.Facility{Name: "Sede", Address: "Calle Falsa 123"}
		require.NoError(t, s.CreateFacility(ctx, &f))
	}

	all, err := s.ListFacilities(ctx, 0, 0)
	require.NoError(t, err)
	require.Len(t, all, 5)

	page, err := s.ListFacilities(ctx, 3, 10)
	require.NoError(t, err)
	require.Len(t, page, 2)
	require.Equal(t, all[3].ID, page[0].ID)

	empty, err := s.ListFacilities(ctx, 10, 10)
	require.NoError(t, err)
	require.Empty(t, empty)
}

func TestCreateAppointment_UnknownAnimal(t *testing.T) {
	s, _ := newService(t)
	ctx := context.Background()

	ap := repository.Appointment{ClientID: 1, DoctorID: 1, AnimalID: 999, ScheduledAt: time.Now()}
	require.ErrorIs(t, s.CreateAppointment(ctx, &ap), clinic.ErrNotFound)
}
