package memory

import (
	"context"
	"sort"

	"github.com/jwalitptl/clinic-rbac/internal/model"
	"github.com/jwalitptl/clinic-rbac/internal/repository"
)

type appointmentRepository struct {
	*db
}

func (r *appointmentRepository) Create(ctx context.Context, appointment *model.Appointment) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.referencesExist(appointment.PatientID, appointment.DoctorID) {
		return repository.ErrInvalidReference
	}
	if appointment.Status == "" {
		appointment.Status = model.AppointmentStatusScheduled
	}

	r.nextAppointmentID++
	now := r.now()
	appointment.ID = r.nextAppointmentID
	appointment.CreatedAt = now
	appointment.UpdatedAt = now

	stored := *appointment
	stored.PatientName, stored.DoctorName = "", ""
	r.appointments[stored.ID] = stored
	return nil
}

// withNames must be called with the read lock held.
func (r *appointmentRepository) withNames(a model.Appointment) model.Appointment {
	a.PatientName = r.fullName(a.PatientID)
	a.DoctorName = r.fullName(a.DoctorID)
	return a
}

func (r *appointmentRepository) Get(ctx context.Context, id int64) (*model.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	a = r.withNames(a)
	return &a, nil
}

func (r *appointmentRepository) List(ctx context.Context, filter model.AppointmentFilter) ([]model.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := []model.Appointment{}
	for _, a := range r.appointments {
		if filter.PatientID != 0 && a.PatientID != filter.PatientID {
			continue
		}
		if filter.DoctorID != 0 && a.DoctorID != filter.DoctorID {
			continue
		}
		if filter.Status != "" && a.Status != filter.Status {
			continue
		}
		out = append(out, r.withNames(a))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].AppointmentDate.Equal(out[j].AppointmentDate) {
			return out[i].AppointmentDate.After(out[j].AppointmentDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *appointmentRepository) Update(ctx context.Context, id int64, req *model.UpdateAppointmentRequest) (*model.Appointment, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	a, ok := r.appointments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if req.AppointmentDate != nil {
		a.AppointmentDate = *req.AppointmentDate
	}
	if req.Status != nil {
		a.Status = *req.Status
	}
	if req.Notes != nil {
		notes := *req.Notes
		a.Notes = &notes
	}
	a.UpdatedAt = r.now()
	r.appointments[id] = a

	a = r.withNames(a)
	return &a, nil
}

func (r *appointmentRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.appointments[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.appointments, id)
	return nil
}

type medicalRecordRepository struct {
	*db
}

func (r *medicalRecordRepository) Create(ctx context.Context, record *model.MedicalRecord) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.referencesExist(record.PatientID, record.DoctorID) {
		return repository.ErrInvalidReference
	}

	r.nextRecordID++
	now := r.now()
	record.ID = r.nextRecordID
	record.CreatedAt = now
	record.UpdatedAt = now
	if record.VisitDate.IsZero() {
		record.VisitDate = now
	}

	stored := *record
	stored.PatientName, stored.DoctorName = "", ""
	r.records[stored.ID] = stored
	return nil
}

func (r *medicalRecordRepository) withNames(m model.MedicalRecord) model.MedicalRecord {
	m.PatientName = r.fullName(m.PatientID)
	m.DoctorName = r.fullName(m.DoctorID)
	return m
}

func (r *medicalRecordRepository) Get(ctx context.Context, id int64) (*model.MedicalRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	m, ok := r.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	m = r.withNames(m)
	return &m, nil
}

func (r *medicalRecordRepository) List(ctx context.Context, filter model.MedicalRecordFilter) ([]model.MedicalRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	out := []model.MedicalRecord{}
	for _, m := range r.records {
		if filter.PatientID != 0 && m.PatientID != filter.PatientID {
			continue
		}
		if filter.DoctorID != 0 && m.DoctorID != filter.DoctorID {
			continue
		}
		out = append(out, r.withNames(m))
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].VisitDate.Equal(out[j].VisitDate) {
			return out[i].VisitDate.After(out[j].VisitDate)
		}
		return out[i].ID > out[j].ID
	})
	return out, nil
}

func (r *medicalRecordRepository) Update(ctx context.Context, id int64, req *model.UpdateMedicalRecordRequest) (*model.MedicalRecord, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	m, ok := r.records[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if req.Diagnosis != nil {
		m.Diagnosis = *req.Diagnosis
	}
	if req.Prescription != nil {
		p := *req.Prescription
		m.Prescription = &p
	}
	if req.Notes != nil {
		n := *req.Notes
		m.Notes = &n
	}
	m.UpdatedAt = r.now()
	r.records[id] = m

	m = r.withNames(m)
	return &m, nil
}

func (r *medicalRecordRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.records[id]; !ok {
		return repository.ErrNotFound
	}
	delete(r.records, id)
	return nil
}
