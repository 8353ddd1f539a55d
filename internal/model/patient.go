package model

// PatientSummary counts what the caller was allowed to see.
type PatientSummary struct {
	TotalAppointments   int `json:"total_appointments"`
	Scheduled           int `json:"scheduled"`
	Completed           int `json:"completed"`
	Cancelled           int `json:"cancelled"`
	TotalMedicalRecords int `json:"total_medical_records"`
}

// PatientAggregate is the combined view of one patient.
type PatientAggregate struct {
	Patient        PublicUser      `json:"patient"`
	Appointments   []Appointment   `json:"appointments"`
	MedicalRecords []MedicalRecord `json:"medical_records"`
	Summary        PatientSummary  `json:"summary"`
}

// Summarize recomputes the summary from the included items.
func (a *PatientAggregate) Summarize() {
	s := PatientSummary{
		TotalAppointments:   len(a.Appointments),
		TotalMedicalRecords: len(a.MedicalRecords),
	}
	for _, appt := range a.Appointments {
		switch appt.Status {
		case AppointmentStatusScheduled:
			s.Scheduled++
		case AppointmentStatusCompleted:
			s.Completed++
		case AppointmentStatusCancelled:
			s.Cancelled++
		}
	}
	a.Summary = s
}
