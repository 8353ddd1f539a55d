// Package memory is an in-process store with the same uniqueness, reference
// and cascade semantics as the postgres store. It backs demo runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/jwalitptl/clinic-rbac/internal/model"
	"github.com/jwalitptl/clinic-rbac/internal/policy"
	"github.com/jwalitptl/clinic-rbac/internal/repository"
)

type db struct {
	mu sync.RWMutex

	users        map[int64]model.User
	appointments map[int64]model.Appointment
	records      map[int64]model.MedicalRecord

	nextUserID        int64
	nextAppointmentID int64
	nextRecordID      int64

	now func() time.Time
}

// NewStore returns a fresh, empty store.
func NewStore() repository.Store {
	d := &db{
		users:        make(map[int64]model.User),
		appointments: make(map[int64]model.Appointment),
		records:      make(map[int64]model.MedicalRecord),
		now:          func() time.Time { return time.Now().UTC() },
	}
	return repository.Store{
		Users:          &userRepository{d},
		Appointments:   &appointmentRepository{d},
		MedicalRecords: &medicalRecordRepository{d},
		Health:         d,
	}
}

func (d *db) Ping(ctx context.Context) error {
	return ctx.Err()
}

type userRepository struct {
	*db
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, u := range r.users {
		if u.Username == user.Username || u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}

	r.nextUserID++
	now := r.now()
	user.ID = r.nextUserID
	user.CreatedAt = now
	user.UpdatedAt = now
	stored := *user
	if user.Phone != nil {
		phone := *user.Phone
		stored.Phone = &phone
	}
	r.users[user.ID] = stored
	return nil
}

func (r *userRepository) Get(ctx context.Context, id int64) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, u := range r.users {
		if u.Username == username {
			return &u, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	users := make([]model.User, 0, len(r.users))
	for _, u := range r.users {
		users = append(users, u)
	}
	r.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		if !users[i].CreatedAt.Equal(users[j].CreatedAt) {
			return users[i].CreatedAt.After(users[j].CreatedAt)
		}
		return users[i].ID > users[j].ID
	})
	return users, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role policy.Role) ([]model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	users := []model.User{}
	for _, u := range r.users {
		if u.Role == role {
			users = append(users, u)
		}
	}
	r.mu.RUnlock()

	sort.Slice(users, func(i, j int) bool {
		if users[i].FullName != users[j].FullName {
			return users[i].FullName < users[j].FullName
		}
		return users[i].ID < users[j].ID
	})
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, id int64, req *model.UpdateUserRequest) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	u, ok := r.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	if req.Email != nil {
		for otherID, other := range r.users {
			if otherID != id && other.Email == *req.Email {
				return nil, repository.ErrDuplicate
			}
		}
		u.Email = *req.Email
	}
	if req.FullName != nil {
		u.FullName = *req.FullName
	}
	if req.Phone != nil {
		phone := *req.Phone
		u.Phone = &phone
	}
	if req.Role != nil && *req.Role != u.Role {
		if r.referenced(id) {
			return nil, repository.ErrReferenced
		}
		u.Role = *req.Role
	}
	u.UpdatedAt = r.now()
	r.users[id] = u
	return &u, nil
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.users[id]; !ok {
		return repository.ErrNotFound
	}
	for apptID, a := range r.appointments {
		if a.PatientID == id || a.DoctorID == id {
			delete(r.appointments, apptID)
		}
	}
	for recID, m := range r.records {
		if m.PatientID == id || m.DoctorID == id {
			delete(r.records, recID)
		}
	}
	delete(r.users, id)
	return nil
}

// referenced reports whether any appointment or record points at id. The
// lock must be held.
func (d *db) referenced(id int64) bool {
	for _, a := range d.appointments {
		if a.PatientID == id || a.DoctorID == id {
			return true
		}
	}
	for _, m := range d.records {
		if m.PatientID == id || m.DoctorID == id {
			return true
		}
	}
	return false
}

// referencesExist must be called with the lock held.
func (d *db) referencesExist(patientID, doctorID int64) bool {
	_, p := d.users[patientID]
	_, doc := d.users[doctorID]
	return p && doc
}

// fullName must be called with the lock held.
func (d *db) fullName(id int64) string {
	return d.users[id].FullName
}
