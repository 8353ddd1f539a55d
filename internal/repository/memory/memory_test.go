package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-rbac/internal/model"
	"github.com/jwalitptl/clinic-rbac/internal/policy"
	"github.com/jwalitptl/clinic-rbac/internal/repository"
)

func mustUser(t *testing.T, store repository.Store, username string, role policy.Role) *model.User {
	t.Helper()
	u := &model.User{
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
		Role:         role,
		FullName:     "Full " + username,
	}
	require.NoError(t, store.Users.Create(context.Background(), u))
	return u
}

func TestUserCreateCopiesPhone(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	phone := "555-0101"
	u := &model.User{Username: "bob", Email: "bob@example.com", Role: policy.RolePatient, Phone: &phone}
	require.NoError(t, store.Users.Create(ctx, u))
	phone = "555-9999"

	got, err := store.Users.Get(ctx, u.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Phone)
	assert.Equal(t, "555-0101", *got.Phone)
}

func TestUserRoleChangeWithDependents(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	doc := mustUser(t, store, "doc", policy.RoleDoctor)
	pat := mustUser(t, store, "pat", policy.RolePatient)
	nurse := mustUser(t, store, "nurse", policy.RoleNurse)

	require.NoError(t, store.MedicalRecords.Create(ctx, &model.MedicalRecord{
		PatientID: pat.ID,
		DoctorID:  doc.ID,
		Diagnosis: "Flu",
		VisitDate: time.Now(),
	}))

	for _, id := range []int64{doc.ID, pat.ID} {
		role := policy.RoleNurse
		_, err := store.Users.Update(ctx, id, &model.UpdateUserRequest{Role: &role})
		assert.ErrorIs(t, err, repository.ErrReferenced)
	}

	role := policy.RoleDoctor
	updated, err := store.Users.Update(ctx, nurse.ID, &model.UpdateUserRequest{Role: &role})
	require.NoError(t, err)
	assert.Equal(t, policy.RoleDoctor, updated.Role)
}

func TestUserUniqueness(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	mustUser(t, store, "alice", policy.RolePatient)

	err := store.Users.Create(ctx, &model.User{Username: "alice", Email: "other@example.com", Role: policy.RolePatient})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	err = store.Users.Create(ctx, &model.User{Username: "alice2", Email: "alice@example.com", Role: policy.RolePatient})
	assert.ErrorIs(t, err, repository.ErrDuplicate)
}

func TestConcurrentDuplicateCreate(t *testing.T) {
	store := NewStore()
	ctx := context.Background()

	const n = 16
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = store.Users.Create(ctx, &model.User{
				Username: "same",
				Email:    fmt.Sprintf("same%d@example.com", i),
				Role:     policy.RolePatient,
			})
		}(i)
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
		} else {
			assert.ErrorIs(t, err, repository.ErrDuplicate)
		}
	}
	assert.Equal(t, 1, ok)
}

func TestUserUpdateEmailConflict(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	a := mustUser(t, store, "a", policy.RoleNurse)
	mustUser(t, store, "b", policy.RoleNurse)

	taken := "b@example.com"
	_, err := store.Users.Update(ctx, a.ID, &model.UpdateUserRequest{Email: &taken})
	assert.ErrorIs(t, err, repository.ErrDuplicate)

	name := "Alice Nurse"
	updated, err := store.Users.Update(ctx, a.ID, &model.UpdateUserRequest{FullName: &name})
	require.NoError(t, err)
	assert.Equal(t, "Alice Nurse", updated.FullName)
	assert.Equal(t, "a@example.com", updated.Email)

	_, err = store.Users.Update(ctx, 999, &model.UpdateUserRequest{FullName: &name})
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestListByRoleOrderedByName(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	mustUser(t, store, "zed", policy.RolePatient)
	mustUser(t, store, "amy", policy.RolePatient)
	mustUser(t, store, "doc", policy.RoleDoctor)

	patients, err := store.Users.ListByRole(ctx, policy.RolePatient)
	require.NoError(t, err)
	require.Len(t, patients, 2)
	assert.Equal(t, "amy", patients[0].Username)
	assert.Equal(t, "zed", patients[1].Username)
}

func TestAppointmentReferencesAndNames(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	p := mustUser(t, store, "pat", policy.RolePatient)
	d := mustUser(t, store, "doc", policy.RoleDoctor)

	err := store.Appointments.Create(ctx, &model.Appointment{PatientID: p.ID, DoctorID: 999, AppointmentDate: time.Now(), Reason: "x"})
	assert.ErrorIs(t, err, repository.ErrInvalidReference)

	appt := &model.Appointment{PatientID: p.ID, DoctorID: d.ID, AppointmentDate: time.Now(), Reason: "checkup"}
	require.NoError(t, store.Appointments.Create(ctx, appt))
	assert.Equal(t, model.AppointmentStatusScheduled, appt.Status)

	got, err := store.Appointments.Get(ctx, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, "Full pat", got.PatientName)
	assert.Equal(t, "Full doc", got.DoctorName)
}

func TestAppointmentListFilterAndOrder(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	p := mustUser(t, store, "pat", policy.RolePatient)
	p2 := mustUser(t, store, "pat2", policy.RolePatient)
	d := mustUser(t, store, "doc", policy.RoleDoctor)
	base := time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)

	for i, pid := range []int64{p.ID, p.ID, p2.ID} {
		require.NoError(t, store.Appointments.Create(ctx, &model.Appointment{
			PatientID: pid, DoctorID: d.ID, AppointmentDate: base.Add(time.Duration(i) * time.Hour), Reason: "r",
		}))
	}

	own, err := store.Appointments.List(ctx, model.AppointmentFilter{PatientID: p.ID})
	require.NoError(t, err)
	require.Len(t, own, 2)
	assert.True(t, own[0].AppointmentDate.After(own[1].AppointmentDate))

	cancelled := model.AppointmentStatusCancelled
	_, err = store.Appointments.Update(ctx, own[0].ID, &model.UpdateAppointmentRequest{Status: &cancelled})
	require.NoError(t, err)

	onlyCancelled, err := store.Appointments.List(ctx, model.AppointmentFilter{Status: cancelled})
	require.NoError(t, err)
	assert.Len(t, onlyCancelled, 1)
}

func TestDeleteUserCascades(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	p := mustUser(t, store, "pat", policy.RolePatient)
	other := mustUser(t, store, "other", policy.RolePatient)
	d := mustUser(t, store, "doc", policy.RoleDoctor)

	require.NoError(t, store.Appointments.Create(ctx, &model.Appointment{PatientID: p.ID, DoctorID: d.ID, AppointmentDate: time.Now(), Reason: "a"}))
	require.NoError(t, store.Appointments.Create(ctx, &model.Appointment{PatientID: other.ID, DoctorID: d.ID, AppointmentDate: time.Now(), Reason: "b"}))
	require.NoError(t, store.MedicalRecords.Create(ctx, &model.MedicalRecord{PatientID: p.ID, DoctorID: d.ID, Diagnosis: "Flu"}))

	require.NoError(t, store.Users.Delete(ctx, p.ID))

	appts, err := store.Appointments.List(ctx, model.AppointmentFilter{})
	require.NoError(t, err)
	require.Len(t, appts, 1)
	assert.Equal(t, other.ID, appts[0].PatientID)

	records, err := store.MedicalRecords.List(ctx, model.MedicalRecordFilter{})
	require.NoError(t, err)
	assert.Empty(t, records)

	assert.ErrorIs(t, store.Users.Delete(ctx, p.ID), repository.ErrNotFound)
}

func TestMedicalRecordDefaultsVisitDate(t *testing.T) {
	store := NewStore()
	ctx := context.Background()
	p := mustUser(t, store, "pat", policy.RolePatient)
	d := mustUser(t, store, "doc", policy.RoleDoctor)

	rec := &model.MedicalRecord{PatientID: p.ID, DoctorID: d.ID, Diagnosis: "Hypertension"}
	require.NoError(t, store.MedicalRecords.Create(ctx, rec))
	assert.False(t, rec.VisitDate.IsZero())

	rx := "Lisinopril"
	updated, err := store.MedicalRecords.Update(ctx, rec.ID, &model.UpdateMedicalRecordRequest{Prescription: &rx})
	require.NoError(t, err)
	assert.Equal(t, "Hypertension", updated.Diagnosis)
	require.NotNil(t, updated.Prescription)
	assert.Equal(t, "Lisinopril", *updated.Prescription)

	require.NoError(t, store.MedicalRecords.Delete(ctx, rec.ID))
	_, err = store.MedicalRecords.Get(ctx, rec.ID)
	assert.ErrorIs(t, err, repository.ErrNotFound)
}

func TestCancelledContext(t *testing.T) {
	store := NewStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := store.Users.List(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.ErrorIs(t, store.Health.Ping(ctx), context.Canceled)
}
