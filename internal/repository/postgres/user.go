package postgres

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/jwalitptl/clinic-rbac/internal/model"
	"github.com/jwalitptl/clinic-rbac/internal/policy"
	"github.com/jwalitptl/clinic-rbac/internal/repository"
)

const userColumns = `id, username, email, password_hash, role, full_name, phone, created_at, updated_at`

type userRepository struct {
	BaseRepository
}

func NewUserRepository(base BaseRepository) repository.UserRepository {
	return &userRepository{base}
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, role, full_name, phone)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id, created_at, updated_at
	`

	err := r.db.QueryRowxContext(ctx, query,
		user.Username,
		user.Email,
		user.PasswordHash,
		user.Role,
		user.FullName,
		user.Phone,
	).Scan(&user.ID, &user.CreatedAt, &user.UpdatedAt)
	return mapError("create user", err)
}

func (r *userRepository) Get(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, id); err != nil {
		return nil, mapError("get user", err)
	}
	return &user, nil
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	var user model.User
	if err := r.db.GetContext(ctx, &user, query, username); err != nil {
		return nil, mapError("get user by username", err)
	}
	return &user, nil
}

func (r *userRepository) List(ctx context.Context) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY created_at DESC, id DESC`

	users := []model.User{}
	if err := r.db.SelectContext(ctx, &users, query); err != nil {
		return nil, mapError("list users", err)
	}
	return users, nil
}

func (r *userRepository) ListByRole(ctx context.Context, role policy.Role) ([]model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE role = $1 ORDER BY full_name, id`

	users := []model.User{}
	if err := r.db.SelectContext(ctx, &users, query, role); err != nil {
		return nil, mapError("list users by role", err)
	}
	return users, nil
}

func (r *userRepository) Update(ctx context.Context, id int64, req *model.UpdateUserRequest) (*model.User, error) {
	query := `
		UPDATE users SET
			full_name = COALESCE($2, full_name),
			phone = COALESCE($3, phone),
			email = COALESCE($4, email),
			role = COALESCE($5, role),
			updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	var user model.User
	err := r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if req.Role != nil {
			if err := checkRoleChange(ctx, tx, id, *req.Role); err != nil {
				return err
			}
		}
		return tx.GetContext(ctx, &user, query,
			id,
			req.FullName,
			req.Phone,
			req.Email,
			req.Role,
		)
	})
	if err != nil {
		return nil, mapError("update user", err)
	}
	return &user, nil
}

// checkRoleChange locks the user row so no appointment or record can start
// referencing it, then refuses a new role while dependents exist.
func checkRoleChange(ctx context.Context, tx *sqlx.Tx, id int64, role policy.Role) error {
	var current policy.Role
	if err := tx.GetContext(ctx, &current, `SELECT role FROM users WHERE id = $1 FOR UPDATE`, id); err != nil {
		return err
	}
	if current == role {
		return nil
	}

	var referenced bool
	err := tx.GetContext(ctx, &referenced, `
		SELECT EXISTS (SELECT 1 FROM appointments WHERE patient_id = $1 OR doctor_id = $1)
			OR EXISTS (SELECT 1 FROM medical_records WHERE patient_id = $1 OR doctor_id = $1)`, id)
	if err != nil {
		return err
	}
	if referenced {
		return repository.ErrReferenced
	}
	return nil
}

func (r *userRepository) Delete(ctx context.Context, id int64) error {
	return r.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM appointments WHERE patient_id = $1 OR doctor_id = $1`, id); err != nil {
			return mapError("delete user appointments", err)
		}
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM medical_records WHERE patient_id = $1 OR doctor_id = $1`, id); err != nil {
			return mapError("delete user medical records", err)
		}

		res, err := tx.ExecContext(ctx, `DELETE FROM users WHERE id = $1`, id)
		if err != nil {
			return mapError("delete user", err)
		}
		return expectAffected("delete user", res)
	})
}
