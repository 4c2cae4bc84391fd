package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/sourav8908/FLEX-QC-APP/internal/model"
)

// UserRepo provides access to the users table. The user id is the
// primary key; the store itself does not police duplicates beyond the
// key constraint, callers are expected to reject them first.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

const userColumns = "user_id,password_hash,is_admin,is_active,assigned_stage,created_at,updated_at"

// Create inserts a new user. A duplicate id maps to ErrUserExists.
func (r *UserRepo) Create(ctx context.Context, u model.User) error {
	_, err := r.DB.ExecContext(ctx,
		"INSERT INTO users (user_id, password_hash, is_admin, is_active, assigned_stage) VALUES (?,?,?,?,?)",
		u.UserID, u.PasswordHash, u.IsAdmin, u.IsActive, string(u.AssignedStage))
	if err != nil {
		if strings.Contains(strings.ToLower(err.Error()), "1062") {
			return ErrUserExists
		}
		return err
	}
	return nil
}

// GetByID fetches a user by id. A missing user is (nil, nil). The
// lookup follows the column collation; callers that need strict
// case-sensitivity re-compare the returned id.
func (r *UserRepo) GetByID(ctx context.Context, userID string) (*model.User, error) {
	return r.getWhere(ctx, "user_id=?", userID)
}

// GetByIDFold fetches a user matching the id case-insensitively, as
// the admin search requires. A missing user is (nil, nil).
func (r *UserRepo) GetByIDFold(ctx context.Context, userID string) (*model.User, error) {
	return r.getWhere(ctx, "LOWER(user_id)=LOWER(?)", userID)
}

func (r *UserRepo) getWhere(ctx context.Context, where string, arg any) (*model.User, error) {
	var u model.User
	var stage string
	err := r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+where+" LIMIT 1", arg,
	).Scan(&u.UserID, &u.PasswordHash, &u.IsAdmin, &u.IsActive, &stage, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	u.AssignedStage = model.Stage(stage)
	return &u, nil
}

// List returns all users ordered by id.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	rows, err := r.DB.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY user_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		var u model.User
		var stage string
		if err := rows.Scan(&u.UserID, &u.PasswordHash, &u.IsAdmin, &u.IsActive, &stage, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, err
		}
		u.AssignedStage = model.Stage(stage)
		users = append(users, u)
	}
	return users, rows.Err()
}

// UpdatePassword replaces a user's password hash. The user id itself
// is immutable once created.
func (r *UserRepo) UpdatePassword(ctx context.Context, userID, passwordHash string) error {
	return r.execExisting(ctx, userID, "UPDATE users SET password_hash=? WHERE user_id=?", passwordHash, userID)
}

// UpdateStage reassigns a user's inspection stage.
func (r *UserRepo) UpdateStage(ctx context.Context, userID string, stage model.Stage) error {
	return r.execExisting(ctx, userID, "UPDATE users SET assigned_stage=? WHERE user_id=?", string(stage), userID)
}

// GuardMutable decides whether a looked-up account may be disabled or
// deleted: a missing account is ErrNotFound and admin accounts are
// exempt from both operations, mapping to ErrProtectedUser.
func GuardMutable(u *model.User) error {
	if u == nil {
		return ErrNotFound
	}
	if u.IsAdmin {
		return ErrProtectedUser
	}
	return nil
}

// SetActive toggles an account, subject to GuardMutable.
func (r *UserRepo) SetActive(ctx context.Context, userID string, active bool) error {
	u, err := r.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := GuardMutable(u); err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, "UPDATE users SET is_active=? WHERE user_id=?", active, userID)
	return err
}

// Delete removes a user, subject to GuardMutable.
func (r *UserRepo) Delete(ctx context.Context, userID string) error {
	u, err := r.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if err := GuardMutable(u); err != nil {
		return err
	}
	_, err = r.DB.ExecContext(ctx, "DELETE FROM users WHERE user_id=?", userID)
	return err
}

// execExisting runs an update after confirming the user exists, since
// MySQL reports zero affected rows for no-op value changes as well.
func (r *UserRepo) execExisting(ctx context.Context, userID, query string, args ...any) error {
	u, err := r.GetByID(ctx, userID)
	if err != nil {
		return err
	}
	if u == nil {
		return ErrNotFound
	}
	_, err = r.DB.ExecContext(ctx, query, args...)
	return err
}
