package postgres

import (
	"context"

	"github.com/jwalitptl/clinic-rbac/internal/model"
	"github.com/jwalitptl/clinic-rbac/internal/repository"
)

const medicalRecordSelect = `
	SELECT m.id, m.patient_id, m.doctor_id, m.diagnosis, m.prescription, m.notes,
		   m.visit_date, m.created_at, m.updated_at,
		   p.full_name AS patient_name, d.full_name AS doctor_name
	FROM medical_records m
	JOIN users p ON p.id = m.patient_id
	JOIN users d ON d.id = m.doctor_id
`

type medicalRecordRepository struct {
	BaseRepository
}

func NewMedicalRecordRepository(base BaseRepository) repository.MedicalRecordRepository {
	return &medicalRecordRepository{base}
}

func (r *medicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	query := `
		INSERT INTO medical_records (patient_id, doctor_id, diagnosis, prescription, notes, visit_date)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		record.PatientID,
		record.DoctorID,
		record.Diagnosis,
		record.Prescription,
		record.Notes,
		record.VisitDate,
	).Scan(&record.ID, &record.CreatedAt, &record.UpdatedAt)
	return mapError("create medical record", err)
}

func (r *medicalRecordRepository) Get(ctx context.Context, id int64) (*model.MedicalRecord, error) {
	query := medicalRecordSelect + ` WHERE m.id = $1`

	var record model.MedicalRecord
	if err := r.db.GetContext(ctx, &record, query, id); err != nil {
		return nil, mapError("get medical record", err)
	}
	return &record, nil
}

func (r *medicalRecordRepository) List(ctx context.Context, filter model.MedicalRecordFilter) ([]model.MedicalRecord, error) {
	query := medicalRecordSelect + `
		WHERE ($1::BIGINT = 0 OR m.patient_id = $1)
		  AND ($2::BIGINT = 0 OR m.doctor_id = $2)
		ORDER BY m.visit_date DESC, m.id DESC
	`

	records := []model.MedicalRecord{}
	if err := r.db.SelectContext(ctx, &records, query, filter.PatientID, filter.DoctorID); err != nil {
		return nil, mapError("list medical records", err)
	}
	return records, nil
}

func (r *medicalRecordRepository) Update(ctx context.Context, id int64, req *model.UpdateMedicalRecordRequest) (*model.MedicalRecord, error) {
	query := `
		WITH m AS (
			UPDATE medical_records SET
				diagnosis = COALESCE($2, diagnosis),
				prescription = COALESCE($3, prescription),
				notes = COALESCE($4, notes),
				updated_at = NOW()
			WHERE id = $1
			RETURNING *
		)
		SELECT m.id, m.patient_id, m.doctor_id, m.diagnosis, m.prescription, m.notes,
			   m.visit_date, m.created_at, m.updated_at,
			   p.full_name AS patient_name, d.full_name AS doctor_name
		FROM m
		JOIN users p ON p.id = m.patient_id
		JOIN users d ON d.id = m.doctor_id
	`

	var record model.MedicalRecord
	err := r.db.GetContext(ctx, &record, query,
		id,
		req.Diagnosis,
		req.Prescription,
		req.Notes,
	)
	if err != nil {
		return nil, mapError("update medical record", err)
	}
	return &record, nil
}

func (r *medicalRecordRepository) Delete(ctx context.Context, id int64) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM medical_records WHERE id = $1`, id)
	if err != nil {
		return mapError("delete medical record", err)
	}
	return expectAffected("delete medical record", res)
}
