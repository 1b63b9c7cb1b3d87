package db

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// UserRepository handles user database operations.
type UserRepository struct {
	pool *pgxpool.Pool
}

// CandidateFilters narrows the candidate query. Nil fields are ignored;
// set fields are conjunctive exact matches.
type CandidateFilters struct {
	Course  *string
	Year    *int
	Faculty *string
}

const userColumns = `id, email, hashed_password, display_name, student_id, course, year,
	faculty, show_course, show_year, show_faculty, spotify_email, is_verified, created_at`

func scanUser(row pgx.Row) (*User, error) {
	var u User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.HashedPassword,
		&u.DisplayName,
		&u.StudentID,
		&u.Course,
		&u.Year,
		&u.Faculty,
		&u.ShowCourse,
		&u.ShowYear,
		&u.ShowFaculty,
		&u.SpotifyEmail,
		&u.Verified,
		&u.CreatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scanning user: %w", err)
	}
	return &u, nil
}

// Create inserts a new user. Returns ErrConflict if the email is taken.
func (r *UserRepository) Create(ctx context.Context, user *User) error {
	query := `
		INSERT INTO users (id, email, hashed_password, display_name, student_id, course,
			year, faculty, show_course, show_year, show_faculty, spotify_email, is_verified, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, NOW())
		RETURNING created_at
	`
	err := r.pool.QueryRow(ctx, query,
		user.ID,
		user.Email,
		user.HashedPassword,
		user.DisplayName,
		user.StudentID,
		user.Course,
		user.Year,
		user.Faculty,
		user.ShowCourse,
		user.ShowYear,
		user.ShowFaculty,
		user.SpotifyEmail,
		user.Verified,
	).Scan(&user.CreatedAt)
	if isUniqueViolation(err) {
		return ErrConflict
	}
	if err != nil {
		return fmt.Errorf("inserting user: %w", err)
	}
	return nil
}

// Get retrieves a user by ID.
func (r *UserRepository) Get(ctx context.Context, id uuid.UUID) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return scanUser(r.pool.QueryRow(ctx, query, id))
}

// GetByEmail retrieves a user by email.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = $1`
	return scanUser(r.pool.QueryRow(ctx, query, email))
}

// Update persists profile fields and visibility flags.
func (r *UserRepository) Update(ctx context.Context, user *User) error {
	query := `
		UPDATE users
		SET display_name = $2, course = $3, year = $4, faculty = $5,
			show_course = $6, show_year = $7, show_faculty = $8, spotify_email = $9
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		user.ID,
		user.DisplayName,
		user.Course,
		user.Year,
		user.Faculty,
		user.ShowCourse,
		user.ShowYear,
		user.ShowFaculty,
		user.SpotifyEmail,
	)
	if err != nil {
		return fmt.Errorf("updating user: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// ListCandidates returns users eligible for the swipe feed of userID:
// every other user with a music profile and no existing swipe from
// userID toward them, narrowed by the given filters.
func (r *UserRepository) ListCandidates(ctx context.Context, userID uuid.UUID, filters CandidateFilters) ([]User, error) {
	query := `
		SELECT ` + userColumns + `
		FROM users u
		JOIN music_profiles mp ON mp.user_id = u.id
		WHERE u.id <> $1
		  AND NOT EXISTS (
			SELECT 1 FROM swipes s
			WHERE s.user_id = $1 AND s.target_user_id = u.id
		  )
		  AND ($2::text IS NULL OR u.course = $2)
		  AND ($3::int IS NULL OR u.year = $3)
		  AND ($4::text IS NULL OR u.faculty = $4)
		ORDER BY u.id
	`
	rows, err := r.pool.Query(ctx, query, userID, filters.Course, filters.Year, filters.Faculty)
	if err != nil {
		return nil, fmt.Errorf("querying candidates: %w", err)
	}
	defer rows.Close()

	var users []User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
