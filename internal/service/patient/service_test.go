package patient

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

func setup(t *testing.T) (*Service, people) {
	t.Helper()
	ctx := context.Background()
	store := memory.NewStore()
	mk := func(username string, role policy.Role) policy.Principal {
		u := &model.User{
			Username:     username,
			Email:        username + "@example.com",
			PasswordHash: "x",
			Role:         role,
			FullName:     "Name " + username,
		}
		require.NoError(t, store.Users.Create(ctx, u))
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

	seedAppointment(t, store, ppl.patientX, ppl.doctorY, model.AppointmentStatusScheduled)
	seedAppointment(t, store, ppl.patientX, ppl.doctorZ, model.AppointmentStatusCompleted)
	seedAppointment(t, store, ppl.patientX, ppl.doctorZ, model.AppointmentStatusCancelled)
	seedAppointment(t, store, ppl.patientW, ppl.doctorY, model.AppointmentStatusScheduled)

	for _, doctor := range []policy.Principal{ppl.doctorY, ppl.doctorZ} {
		require.NoError(t, store.MedicalRecords.Create(ctx, &model.MedicalRecord{
			PatientID: ppl.patientX.ID,
			DoctorID:  doctor.ID,
			Diagnosis: "Hypertension",
			VisitDate: time.Date(2026, 9, 1, 10, 0, 0, 0, time.UTC),
		}))
	}

	return NewService(store, policy.New(), nil), ppl
}

func seedAppointment(t *testing.T, store repository.Store, patient, doctor policy.Principal, status model.AppointmentStatus) {
	t.Helper()
	require.NoError(t, store.Appointments.Create(context.Background(), &model.Appointment{
		PatientID:       patient.ID,
		DoctorID:        doctor.ID,
		AppointmentDate: time.Date(2026, 11, 1, 9, 0, 0, 0, time.UTC),
		Status:          status,
		Reason:          "visit",
	}))
}

func TestList(t *testing.T) {
	svc, ppl := setup(t)
	ctx := context.Background()

	for _, p := range []policy.Principal{ppl.admin, ppl.nurse, ppl.doctorY} {
		patients, err := svc.List(ctx, p)
		require.NoError(t, err)
		assert.Len(t, patients, 2)
		for _, u := range patients {
			assert.Equal(t, policy.RolePatient, u.Role)
		}
	}

	_, err := svc.List(ctx, ppl.patientX)
	assert.ErrorIs(t, err, apperrors.KindForbidden)
}

func TestAggregateVisibility(t *testing.T) {
	svc, ppl := setup(t)
	ctx := context.Background()

	tests := []struct {
		name         string
		principal    policy.Principal
		appointments int
		records      int
	}{
		{"patient self", ppl.patientX, 3, 2},
		{"administrator", ppl.admin, 3, 2},
		{"nurse sees no records", ppl.nurse, 3, 0},
		{"doctor sees own rows", ppl.doctorY, 1, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			agg, err := svc.Aggregate(ctx, tt.principal, ppl.patientX.ID)
			require.NoError(t, err)
			assert.Equal(t, ppl.patientX.ID, agg.Patient.ID)
			assert.Len(t, agg.Appointments, tt.appointments)
			assert.Len(t, agg.MedicalRecords, tt.records)
			assert.Equal(t, tt.appointments, agg.Summary.TotalAppointments)
			assert.Equal(t, tt.records, agg.Summary.TotalMedicalRecords)
		})
	}
}

func TestAggregateSummary(t *testing.T) {
	svc, ppl := setup(t)

	agg, err := svc.Aggregate(context.Background(), ppl.admin, ppl.patientX.ID)
	require.NoError(t, err)
	assert.Equal(t, model.PatientSummary{
		TotalAppointments:   3,
		Scheduled:           1,
		Completed:           1,
		Cancelled:           1,
		TotalMedicalRecords: 2,
	}, agg.Summary)
}

func TestAggregateAccess(t *testing.T) {
	svc, ppl := setup(t)
	ctx := context.Background()

	_, err := svc.Aggregate(ctx, ppl.patientW, ppl.patientX.ID)
	assert.ErrorIs(t, err, apperrors.KindForbidden)

	_, err = svc.Aggregate(ctx, ppl.admin, 999)
	assert.ErrorIs(t, err, apperrors.KindNotFound)

	// a non-patient id is not a patient
	_, err = svc.Aggregate(ctx, ppl.nurse, ppl.doctorY.ID)
	assert.ErrorIs(t, err, apperrors.KindNotFound)
}
