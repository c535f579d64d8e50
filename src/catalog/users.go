package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"golang.org/x/crypto/bcrypt"
)

// AddUser creates a new user. The password is stored as a bcrypt hash.
func (s *Store) AddUser(
	ctx context.Context,
	username, password string,
	admin bool,
	email string,
) (User, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return User{}, fmt.Errorf("hashing password: %w", err)
	}

	user := User{
		Username: username,
		Password: string(hash),
		Admin:    admin,
		Email:    email,
	}

	work := func(db *sqlx.DB) error {
		res, err := db.ExecContext(ctx, `
			INSERT INTO users (username, password, admin, email)
			VALUES (@username, @password, @admin, @email)
		`,
			sql.Named("username", user.Username),
			sql.Named("password", user.Password),
			sql.Named("admin", user.Admin),
			sql.Named("email", user.Email),
		)
		if isUniqueViolation(err) {
			return ErrDuplicateUser
		} else if err != nil {
			return err
		}

		user.ID, err = res.LastInsertId()
		return err
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return User{}, fmt.Errorf("adding user %s: %w", username, err)
	}

	return user, nil
}

// UserByName returns the user with this username.
func (s *Store) UserByName(ctx context.Context, username string) (User, error) {
	var user User
	work := func(db *sqlx.DB) error {
		err := db.GetContext(ctx, &user, `
			SELECT id, username, password, admin, email
			FROM users
			WHERE username = @username
		`, sql.Named("username", username))
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		return err
	}

	if err := s.ExecuteDBJobAndWait(work); err != nil {
		return User{}, fmt.Errorf("user %s: %w", username, err)
	}

	return user, nil
}

// CheckPassword returns the user when `password` matches the stored hash.
// Unknown users and wrong passwords both return ErrWrongPassword.
func (s *Store) CheckPassword(ctx context.Context, username, password string) (User, error) {
	user, err := s.UserByName(ctx, username)
	if errors.Is(err, ErrNotFound) {
		return User{}, ErrWrongPassword
	} else if err != nil {
		return User{}, err
	}

	err = bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password))
	if err != nil {
		return User{}, ErrWrongPassword
	}

	return user, nil
}
