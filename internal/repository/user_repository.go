package repository

import (
	"context"
	"database/sql"
	"strings"

	"github.com/iliyamo/user-identity-service/internal/model"
	"github.com/iliyamo/user-identity-service/internal/utils"
)

// UserRepo is the store collaborator for identity records.  All identifier
// arguments are expected to already be in canonical 24-hex form; the
// repository never normalizes ids itself.
type UserRepo struct{ DB *sql.DB }

func NewUserRepo(db *sql.DB) *UserRepo { return &UserRepo{DB: db} }

// UserUpdate carries the optional fields of an update.  Nil pointers mean
// "leave unchanged".
type UserUpdate struct {
	Username     *string
	Email        *string
	PasswordHash *string
}

const userColumns = "id,username,email,password_hash,created_at,updated_at"

// Create mints a new canonical id, inserts the user and returns the stored
// record.  The password must already be hashed by the caller; plaintext
// never reaches this layer.
func (r *UserRepo) Create(ctx context.Context, username, email, passwordHash string) (model.User, error) {
	id, err := utils.NewUserID()
	if err != nil {
		return model.User{}, err
	}
	email = strings.ToLower(strings.TrimSpace(email))
	_, err = r.DB.ExecContext(ctx,
		"INSERT INTO users (id, username, email, password_hash) VALUES (?,?,?,?)",
		id, username, email, passwordHash)
	if err != nil {
		if isDuplicate(err) {
			return model.User{}, ErrEmailExists
		}
		return model.User{}, err
	}
	return r.FindByID(ctx, id)
}

// FindByEmail fetches a user by normalized email.
func (r *UserRepo) FindByEmail(ctx context.Context, email string) (model.User, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE email=? LIMIT 1", email))
}

// FindByID fetches a user by canonical id.
func (r *UserRepo) FindByID(ctx context.Context, id string) (model.User, error) {
	return r.scanOne(r.DB.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE id=? LIMIT 1", id))
}

// Update applies the provided subset of fields to the user and returns the
// refreshed record.  ErrUserNotFound is returned when no row matches the
// id.  An update that changes nothing still succeeds and returns the
// current record.
func (r *UserRepo) Update(ctx context.Context, id string, upd UserUpdate) (model.User, error) {
	sets := make([]string, 0, 3)
	args := make([]any, 0, 4)
	if upd.Username != nil {
		sets = append(sets, "username=?")
		args = append(args, *upd.Username)
	}
	if upd.Email != nil {
		sets = append(sets, "email=?")
		args = append(args, strings.ToLower(strings.TrimSpace(*upd.Email)))
	}
	if upd.PasswordHash != nil {
		sets = append(sets, "password_hash=?")
		args = append(args, *upd.PasswordHash)
	}
	if len(sets) > 0 {
		args = append(args, id)
		_, err := r.DB.ExecContext(ctx,
			"UPDATE users SET "+strings.Join(sets, ", ")+" WHERE id=?", args...)
		if err != nil {
			if isDuplicate(err) {
				return model.User{}, ErrEmailExists
			}
			return model.User{}, err
		}
	}
	return r.FindByID(ctx, id)
}

// Delete removes the user row.  ErrUserNotFound is returned when nothing
// was deleted.
func (r *UserRepo) Delete(ctx context.Context, id string) error {
	res, err := r.DB.ExecContext(ctx, "DELETE FROM users WHERE id=?", id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

func (r *UserRepo) scanOne(row *sql.Row) (model.User, error) {
	var u model.User
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt)
	if err == sql.ErrNoRows {
		return model.User{}, ErrUserNotFound
	}
	return u, err
}

// isDuplicate reports whether err is a MySQL duplicate-entry error (1062).
func isDuplicate(err error) bool {
	return err != nil && strings.Contains(strings.ToLower(err.Error()), "1062")
}
