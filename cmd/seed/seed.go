package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/jwalitptl/clinic-rbac/internal/app"
	"github.com/jwalitptl/clinic-rbac/internal/config"
	"github.com/jwalitptl/clinic-rbac/internal/model"
	"github.com/jwalitptl/clinic-rbac/internal/repository"
	"github.com/jwalitptl/clinic-rbac/pkg/logger"
	"github.com/jwalitptl/clinic-rbac/pkg/security"
)

// errAlreadySeeded means demo rows exist and --reset was not given.
var errAlreadySeeded = errors.New("demo data already present, rerun with --reset")

func run(ctx context.Context, configPath string, reset bool) error {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	logger.Setup(&logger.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	a, err := app.New(ctx, cfg, app.Options{})
	if err != nil {
		return err
	}
	defer a.Close()

	if err := a.EnsureAdmin(ctx); err != nil {
		return fmt.Errorf("failed to bootstrap administrator: %w", err)
	}

	s := &seeder{
		store:  a.Store,
		hasher: security.NewBcryptHasher(cfg.Password.BcryptCost),
		keep:   cfg.Bootstrap.AdminUsername,
	}
	if reset {
		if err := s.reset(ctx); err != nil {
			return err
		}
	}
	counts, err := s.seed(ctx)
	if errors.Is(err, errAlreadySeeded) {
		log.Warn().Msg(err.Error())
		return nil
	}
	if err != nil {
		return err
	}

	log.Info().
		Int("users", counts.users).
		Int("appointments", counts.appointments).
		Int("medical_records", counts.records).
		Str("password", demoPassword).
		Msg("demo data loaded")
	return nil
}

type seeder struct {
	store  repository.Store
	hasher security.PasswordHasher
	// keep is never removed by reset.
	keep string
}

type seedCounts struct {
	users, appointments, records int
}

// reset deletes every user except keep. Deleting a user cascades to its
// appointments and medical records.
func (s *seeder) reset(ctx context.Context) error {
	users, err := s.store.Users.List(ctx)
	if err != nil {
		return fmt.Errorf("failed to list users: %w", err)
	}
	deleted := 0
	for _, u := range users {
		if u.Username == s.keep {
			continue
		}
		if err := s.store.Users.Delete(ctx, u.ID); err != nil && !errors.Is(err, repository.ErrNotFound) {
			return fmt.Errorf("failed to delete user %s: %w", u.Username, err)
		}
		deleted++
	}
	log.Info().Int("users", deleted).Msg("existing data removed")
	return nil
}

func (s *seeder) seed(ctx context.Context) (seedCounts, error) {
	var counts seedCounts

	hash, err := s.hasher.Hash(demoPassword)
	if err != nil {
		return counts, err
	}

	ids := make(map[string]int64, len(demoUsers))
	for _, d := range demoUsers {
		phone := d.phone
		u := &model.User{
			Username:     d.username,
			Email:        d.email,
			PasswordHash: hash,
			Role:         d.role,
			FullName:     d.fullName,
			Phone:        &phone,
		}
		err := s.store.Users.Create(ctx, u)
		if errors.Is(err, repository.ErrDuplicate) {
			return counts, errAlreadySeeded
		}
		if err != nil {
			return counts, fmt.Errorf("failed to create user %s: %w", d.username, err)
		}
		ids[d.username] = u.ID
		counts.users++
	}

	for _, d := range demoAppointments {
		date, err := time.Parse(time.RFC3339, d.date)
		if err != nil {
			return counts, err
		}
		appt := &model.Appointment{
			PatientID:       ids[d.patient],
			DoctorID:        ids[d.doctor],
			AppointmentDate: date,
			Status:          model.AppointmentStatus(d.status),
			Reason:          d.reason,
		}
		if d.notes != "" {
			notes := d.notes
			appt.Notes = &notes
		}
		if err := s.store.Appointments.Create(ctx, appt); err != nil {
			return counts, fmt.Errorf("failed to create appointment for %s: %w", d.patient, err)
		}
		counts.appointments++
	}

	for _, d := range demoRecords {
		visit, err := time.Parse(time.DateOnly, d.visitDate)
		if err != nil {
			return counts, err
		}
		prescription, notes := d.prescription, d.notes
		rec := &model.MedicalRecord{
			PatientID:    ids[d.patient],
			DoctorID:     ids[d.doctor],
			Diagnosis:    d.diagnosis,
			Prescription: &prescription,
			Notes:        &notes,
			VisitDate:    visit,
		}
		if err := s.store.MedicalRecords.Create(ctx, rec); err != nil {
			return counts, fmt.Errorf("failed to create medical record for %s: %w", d.patient, err)
		}
		counts.records++
	}

	return counts, nil
}
