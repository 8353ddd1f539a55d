package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/jwalitptl/clinic-rbac/internal/model"
	"github.com/jwalitptl/clinic-rbac/internal/policy"
	"github.com/jwalitptl/clinic-rbac/internal/repository/memory"
	"github.com/jwalitptl/clinic-rbac/pkg/security"
)

func newSeeder(t *testing.T) *seeder {
	t.Helper()
	store := memory.NewStore()
	require.NoError(t, store.Users.Create(context.Background(), &model.User{
		Username:     "root",
		Email:        "root@example.com",
		PasswordHash: "x",
		Role:         policy.RoleAdministrator,
		FullName:     "Root",
	}))
	return &seeder{
		store:  store,
		hasher: security.NewBcryptHasher(bcrypt.MinCost),
		keep:   "root",
	}
}

func TestSeed(t *testing.T) {
	s := newSeeder(t)
	ctx := context.Background()

	counts, err := s.seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, seedCounts{users: 33, appointments: 20, records: 15}, counts)

	patients, err := s.store.Users.ListByRole(ctx, policy.RolePatient)
	require.NoError(t, err)
	assert.Len(t, patients, 15)

	doctor, err := s.store.Users.GetByUsername(ctx, "doctor1")
	require.NoError(t, err)
	assert.NoError(t, s.hasher.Compare(doctor.PasswordHash, demoPassword))

	scheduled, err := s.store.Appointments.List(ctx, model.AppointmentFilter{Status: model.AppointmentStatusScheduled})
	require.NoError(t, err)
	assert.Len(t, scheduled, 8)

	_, err = s.seed(ctx)
	assert.ErrorIs(t, err, errAlreadySeeded)
}

func TestReset(t *testing.T) {
	s := newSeeder(t)
	ctx := context.Background()

	_, err := s.seed(ctx)
	require.NoError(t, err)
	require.NoError(t, s.reset(ctx))

	users, err := s.store.Users.List(ctx)
	require.NoError(t, err)
	require.Len(t, users, 1)
	assert.Equal(t, "root", users[0].Username)

	appts, err := s.store.Appointments.List(ctx, model.AppointmentFilter{})
	require.NoError(t, err)
	assert.Empty(t, appts)
	records, err := s.store.MedicalRecords.List(ctx, model.MedicalRecordFilter{})
	require.NoError(t, err)
	assert.Empty(t, records)

	counts, err := s.seed(ctx)
	require.NoError(t, err)
	assert.Equal(t, 33, counts.users)
}

func TestDemoDataReferencesKnownUsers(t *testing.T) {
	roles := make(map[string]policy.Role, len(demoUsers))
	for _, u := range demoUsers {
		roles[u.username] = u.role
	}
	for _, a := range demoAppointments {
		assert.Equal(t, policy.RolePatient, roles[a.patient], a.patient)
		assert.Equal(t, policy.RoleDoctor, roles[a.doctor], a.doctor)
		assert.True(t, model.AppointmentStatus(a.status).Valid(), a.status)
	}
	for _, r := range demoRecords {
		assert.Equal(t, policy.RolePatient, roles[r.patient], r.patient)
		assert.Equal(t, policy.RoleDoctor, roles[r.doctor], r.doctor)
	}
}
