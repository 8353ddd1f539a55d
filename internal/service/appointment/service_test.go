package appointment

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jwalitptl/clinic-rbac/internal/model"
	"github.com/jwalitptl/clinic-rbac/internal/policy"
	"github.com/jwalitptl/clinic-rbac/internal/repository"
	"github.com/jwalitptl/clinic-rbac/internal/repository/memory"
	apperrors "github.com/jwalitptl/clinic-rbac/pkg/errors"
)

type people struct {
	admin, nurse, doctorY, doctorZ, patientX, patientW policy.Principal
}

func setup(t *testing.T) (*Service, repository.Store, people) {
	t.Helper()
	store := memory.NewStore()
	mk := func(username string, role policy.Role) policy.Principal {
		u := &model.User{
			Username:     username,
			Email:        username + "@example.com",
			PasswordHash: "x",
			Role:         role,
			FullName:     "Name " + username,
		}
		require.NoError(t, store.Users.Create(context.Background(), u))
		return u.Principal()
	}
	ppl := people{
		admin:    mk("admin", policy.RoleAdministrator),
		nurse:    mk("nurse", policy.RoleNurse),
		doctorY:  mk("doctor_y", policy.RoleDoctor),
		doctorZ:  mk("doctor_z", policy.RoleDoctor),
		patientX: mk("patient_x", policy.RolePatient),
		patientW: mk("patient_w", policy.RolePatient),
	}
	return NewService(store.Appointments, store.Users, policy.New(), nil), store, ppl
}

func book(patient, doctor policy.Principal) *model.CreateAppointmentRequest {
	return &model.CreateAppointmentRequest{
		PatientID:       patient.ID,
		DoctorID:        doctor.ID,
		AppointmentDate: time.Date(2026, 11, 3, 9, 30, 0, 0, time.UTC),
		Reason:          "annual checkup",
	}
}

func statusPtr(s model.AppointmentStatus) *model.AppointmentStatus { return &s }

func TestPatientBooksButCannotChangeStatus(t *testing.T) {
	svc, _, ppl := setup(t)
	ctx := context.Background()

	appt, err := svc.Create(ctx, ppl.patientX, book(ppl.patientX, ppl.doctorY))
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, appt.Status)
	assert.Equal(t, "Name patient_x", appt.PatientName)
	assert.Equal(t, "Name doctor_y", appt.DoctorName)

	_, err = svc.Update(ctx, ppl.patientX, appt.ID, &model.UpdateAppointmentRequest{Status: statusPtr(model.AppointmentStatusCancelled)})
	assert.ErrorIs(t, err, apperrors.KindForbidden)

	got, err := svc.Get(ctx, ppl.patientX, appt.ID)
	require.NoError(t, err)
	assert.Equal(t, model.AppointmentStatusScheduled, got.Status)
}

func TestCreateOwnership(t *testing.T) {
	svc, _, ppl := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, ppl.patientX, book(ppl.patientW, ppl.doctorY))
	assert.ErrorIs(t, err, apperrors.KindForbidden)

	_, err = svc.Create(ctx, ppl.doctorZ, book(ppl.patientX, ppl.doctorY))
	assert.ErrorIs(t, err, apperrors.KindForbidden)

	_, err = svc.Create(ctx, ppl.nurse, book(ppl.patientX, ppl.doctorY))
	assert.NoError(t, err)
}

func TestCreateValidatesParticipants(t *testing.T) {
	svc, _, ppl := setup(t)
	ctx := context.Background()

	// roles swapped
	_, err := svc.Create(ctx, ppl.admin, book(ppl.doctorY, ppl.patientX))
	require.ErrorIs(t, err, apperrors.KindValidation)
	details := apperrors.As(err).Details
	assert.Contains(t, details, "patient_id")
	assert.Contains(t, details, "doctor_id")

	_, err = svc.Create(ctx, ppl.admin, book(policy.Principal{ID: 999}, ppl.doctorY))
	require.ErrorIs(t, err, apperrors.KindValidation)
	assert.Equal(t, "does not reference an existing user", apperrors.As(err).Details["patient_id"])

	_, err = svc.Create(ctx, ppl.admin, &model.CreateAppointmentRequest{PatientID: ppl.patientX.ID})
	assert.ErrorIs(t, err, apperrors.KindValidation)
}

func TestListScopedByRole(t *testing.T) {
	svc, _, ppl := setup(t)
	ctx := context.Background()

	_, err := svc.Create(ctx, ppl.admin, book(ppl.patientX, ppl.doctorY))
	require.NoError(t, err)
	_, err = svc.Create(ctx, ppl.admin, book(ppl.patientW, ppl.doctorZ))
	require.NoError(t, err)
	third, err := svc.Create(ctx, ppl.admin, book(ppl.patientX, ppl.doctorZ))
	require.NoError(t, err)

	tests := []struct {
		name      string
		principal policy.Principal
		want      int
	}{
		{"administrator sees all", ppl.admin, 3},
		{"nurse sees all", ppl.nurse, 3},
		{"patient sees own", ppl.patientX, 2},
		{"doctor sees own", ppl.doctorY, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			appts, err := svc.List(ctx, tt.principal, "")
			require.NoError(t, err)
			assert.Len(t, appts, tt.want)
		})
	}

	_, err = svc.Update(ctx, ppl.doctorZ, third.ID, &model.UpdateAppointmentRequest{Status: statusPtr(model.AppointmentStatusCompleted)})
	require.NoError(t, err)

	completed, err := svc.List(ctx, ppl.admin, "Completed")
	require.NoError(t, err)
	require.Len(t, completed, 1)
	assert.Equal(t, third.ID, completed[0].ID)

	_, err = svc.List(ctx, ppl.admin, "postponed")
	assert.ErrorIs(t, err, apperrors.KindValidation)
}

func TestUpdate(t *testing.T) {
	svc, _, ppl := setup(t)
	ctx := context.Background()

	appt, err := svc.Create(ctx, ppl.admin, book(ppl.patientX, ppl.doctorY))
	require.NoError(t, err)

	_, err = svc.Update(ctx, ppl.doctorY, appt.ID, &model.UpdateAppointmentRequest{})
	require.ErrorIs(t, err, apperrors.KindValidation)
	assert.Equal(t, "no fields to update", apperrors.As(err).Message)

	_, err = svc.Update(ctx, ppl.doctorY, appt.ID, &model.UpdateAppointmentRequest{Status: statusPtr("postponed")})
	assert.ErrorIs(t, err, apperrors.KindValidation)

	_, err = svc.Update(ctx, ppl.doctorZ, appt.ID, &model.UpdateAppointmentRequest{Status: statusPtr(model.AppointmentStatusCompleted)})
	assert.ErrorIs(t, err, apperrors.KindForbidden)

	notes := "bring lab results"
	updated, err := svc.Update(ctx, ppl.nurse, appt.ID, &model.UpdateAppointmentRequest{Notes: &notes})
	require.NoError(t, err)
	require.NotNil(t, updated.Notes)
	assert.Equal(t, notes, *updated.Notes)
	assert.Equal(t, model.AppointmentStatusScheduled, updated.Status)

	// no transition rule: completed may go back to scheduled
	_, err = svc.Update(ctx, ppl.doctorY, appt.ID, &model.UpdateAppointmentRequest{Status: statusPtr(model.AppointmentStatusCompleted)})
	require.NoError(t, err)
	_, err = svc.Update(ctx, ppl.doctorY, appt.ID, &model.UpdateAppointmentRequest{Status: statusPtr(model.AppointmentStatusScheduled)})
	assert.NoError(t, err)
}

func TestDelete(t *testing.T) {
	svc, _, ppl := setup(t)
	ctx := context.Background()

	appt, err := svc.Create(ctx, ppl.admin, book(ppl.patientX, ppl.doctorY))
	require.NoError(t, err)

	assert.ErrorIs(t, svc.Delete(ctx, ppl.nurse, appt.ID), apperrors.KindForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, ppl.patientX, appt.ID), apperrors.KindForbidden)
	assert.ErrorIs(t, svc.Delete(ctx, ppl.doctorZ, appt.ID), apperrors.KindForbidden)
	require.NoError(t, svc.Delete(ctx, ppl.doctorY, appt.ID))

	assert.ErrorIs(t, svc.Delete(ctx, ppl.admin, appt.ID), apperrors.KindNotFound)
}

func TestMissingRowHiddenFromOwnScope(t *testing.T) {
	svc, _, ppl := setup(t)
	ctx := context.Background()

	_, err := svc.Get(ctx, ppl.admin, 4242)
	assert.ErrorIs(t, err, apperrors.KindNotFound)

	_, err = svc.Get(ctx, ppl.patientX, 4242)
	assert.ErrorIs(t, err, apperrors.KindForbidden)
}
