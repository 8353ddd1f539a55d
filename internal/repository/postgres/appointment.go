package postgres

import (
	"context"

	"github.com/jwalitptl/clinic-rbac/internal/model"
	"github.com/jwalitptl/clinic-rbac/internal/repository"
)

// appointmentSelect projects appointments with the participant names joined in.
const appointmentSelect = `
	SELECT a.id, a.patient_id, a.doctor_id, a.appointment_date, a.status,
		   a.reason, a.notes, a.created_at, a.updated_at,
		   p.full_name AS patient_name, d.full_name AS doctor_name
	FROM appointments a
	JOIN users p ON p.id = a.patient_id
	JOIN users d ON d.id = a.doctor_id
`

type appointmentRepository struct {
	BaseRepository
}

func NewAppointmentRepository(base BaseRepository) repository.AppointmentRepository {
	return &appointmentRepository{base}
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	query := `
		INSERT INTO appointments (patient_id, doctor_id, appointment_date, status, reason, notes)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	if appointment.Status == "" {
		appointment.Status = model.AppointmentStatusScheduled
	}

	err := r.db.QueryRowxContext(ctx, query,
		appointment.PatientID,
		appointment.DoctorID,
		appointment.AppointmentDate,
		appointment.Status,
		appointment.Reason,
		appointment.Notes,
	).Scan(&appointment.ID, &appointment.CreatedAt, &appointment.UpdatedAt)
	return mapError("create appointment", err)
}

func (r *appointmentRepository) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	query := appointmentSelect + ` WHERE a.id = $1`

	var appointment model.Appointment
	if err := r.db.GetContext(ctx, &appointment, query, id); err != nil {
		return nil, mapError("get appointment", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) List(ctx context.Context, filter model.AppointmentFilter) ([]model.Appointment, error) {
	query := appointmentSelect + `
		WHERE ($1::BIGINT = 0 OR a.patient_id = $1)
		  AND ($2::BIGINT = 0 OR a.doctor_id = $2)
		  AND ($3::TEXT = '' OR a.status = $3)
		ORDER BY a.appointment_date DESC, a.id DESC
	`

	appointments := []model.Appointment{}
	err := r.db.SelectContext(ctx, &appointments, query,
		filter.PatientID,
		filter.DoctorID,
		string(filter.Status),
	)
	if err != nil {
		return nil, mapError("list appointments", err)
	}
	return appointments, nil
}

func (r *appointmentRepository) Update(ctx context.Context, id int64, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	query := `
		WITH a AS (
			UPDATE appointments SET
				appointment_date = COALESCE($2, appointment_date),
				status = COALESCE($3, status),
				notes = COALESCE($4, notes),
				updated_at = NOW()
			WHERE id = $1
			RETURNING *
		)
		SELECT a.id, a.patient_id, a.doctor_id, a.appointment_date, a.status,
			   a.reason, a.notes, a.created_at, a.updated_at,
			   p.full_name AS patient_name, d.full_name AS doctor_name
		FROM a
		JOIN users p ON p.id = a.patient_id
		JOIN users d ON d.id = a.doctor_id
	`

	var appointment model.Appointment
	err := r.db.GetContext(ctx, &appointment, query,
		id,
		req.AppointmentDate,
		req.Status,
		req.Notes,
	)
	if err != nil {
		return nil, mapError("update appointment", err)
	}
	return &appointment, nil
}

func (r *appointmentRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM appointments WHERE id = $1`, id)
	if err != nil {
		return mapError("delete appointment", err)
	}
	return expectAffected("delete appointment", res)
}
