package model

import (
	"time"
)

// AppointmentStatus is the closed set of appointment states.
type AppointmentStatus string

const (
	AppointmentStatusScheduled AppointmentStatus = "scheduled"
	AppointmentStatusCompleted AppointmentStatus = "completed"
	AppointmentStatusCancelled AppointmentStatus = "cancelled"
)

func (s AppointmentStatus) Valid() bool {
	switch s {
	case AppointmentStatusScheduled, AppointmentStatusCompleted, AppointmentStatusCancelled:
		return true
	}
	return false
}

// Appointment is a scheduled visit between a patient and a doctor.
// PatientName and DoctorName are filled on reads only.
type Appointment struct {
	ID              int64             `json:"id" db:"id"`
	PatientID       int64             `json:"patient_id" db:"patient_id"`
	DoctorID        int64             `json:"doctor_id" db:"doctor_id"`
	AppointmentDate time.Time         `json:"appointment_date" db:"appointment_date"`
	Status          AppointmentStatus `json:"status" db:"status"`
	Reason          string            `json:"reason" db:"reason"`
	Notes           *string           `json:"notes,omitempty" db:"notes"`
	PatientName     string            `json:"patient_name,omitempty" db:"patient_name"`
	DoctorName      string            `json:"doctor_name,omitempty" db:"doctor_name"`
	CreatedAt       time.Time         `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time         `json:"updated_at" db:"updated_at"`
}

type CreateAppointmentRequest struct {
	PatientID       int64     `json:"patient_id" validate:"required,gt=0"`
	DoctorID        int64     `json:"doctor_id" validate:"required,gt=0"`
	AppointmentDate time.Time `json:"appointment_date" validate:"required"`
	Reason          string    `json:"reason" validate:"required,max=500"`
	Notes           *string   `json:"notes" validate:"omitempty,max=2000"`
}

// UpdateAppointmentRequest enumerates every field an appointment update may touch.
type UpdateAppointmentRequest struct {
	AppointmentDate *time.Time         `json:"appointment_date"`
	Status          *AppointmentStatus `json:"status" validate:"omitempty,oneof=scheduled completed cancelled"`
	Notes           *string            `json:"notes" validate:"omitempty,max=2000"`
}

func (r *UpdateAppointmentRequest) Empty() bool {
	return r.AppointmentDate == nil && r.Status == nil && r.Notes == nil
}

// AppointmentFilter narrows a listing. Zero fields do not filter.
type AppointmentFilter struct {
	PatientID int64
	DoctorID  int64
	Status    AppointmentStatus
}
