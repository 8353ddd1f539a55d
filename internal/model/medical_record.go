package model

import (
	"time"
)

// MedicalRecord is a clinical note authored by a doctor about a patient.
type MedicalRecord struct {
	ID           int64     `json:"id" db:"id"`
	PatientID    int64     `json:"patient_id" db:"patient_id"`
	DoctorID     int64     `json:"doctor_id" db:"doctor_id"`
	Diagnosis    string    `json:"diagnosis" db:"diagnosis"`
	Prescription *string   `json:"prescription,omitempty" db:"prescription"`
	Notes        *string   `json:"notes,omitempty" db:"notes"`
	VisitDate    time.Time `json:"visit_date" db:"visit_date"`
	PatientName  string    `json:"patient_name,omitempty" db:"patient_name"`
	DoctorName   string    `json:"doctor_name,omitempty" db:"doctor_name"`
	CreatedAt    time.Time `json:"created_at" db:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" db:"updated_at"`
}

// CreateMedicalRecordRequest carries no doctor reference: the author is always the caller.
type CreateMedicalRecordRequest struct {
	PatientID    int64      `json:"patient_id" validate:"required,gt=0"`
	Diagnosis    string     `json:"diagnosis" validate:"required,max=1000"`
	Prescription *string    `json:"prescription" validate:"omitempty,max=2000"`
	Notes        *string    `json:"notes" validate:"omitempty,max=4000"`
	VisitDate    *time.Time `json:"visit_date"`
}

type UpdateMedicalRecordRequest struct {
	Diagnosis    *string `json:"diagnosis" validate:"omitempty,min=1,max=1000"`
	Prescription *string `json:"prescription" validate:"omitempty,max=2000"`
	Notes        *string `json:"notes" validate:"omitempty,max=4000"`
}

func (r *UpdateMedicalRecordRequest) Empty() bool {
	return r.Diagnosis == nil && r.Prescription == nil && r.Notes == nil
}

// MedicalRecordFilter narrows a listing. Zero fields do not filter.
type MedicalRecordFilter struct {
	PatientID int64
	DoctorID  int64
}
