// Package auth implements university SSO signup, password login, and
// JWT session tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"hash/fnv"
	"math/rand"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/musicmate-app/musicmate/internal/db"
)

// Common errors.
var (
	// ErrDomainNotAllowed is returned for emails outside the university
	// domains.
	ErrDomainNotAllowed = errors.New("only University of Manchester email addresses are allowed")
	// ErrEmailTaken is returned when signing up with a registered email.
	ErrEmailTaken = errors.New("an account with this email already exists")
	// ErrInvalidCredentials is returned for a failed login. It covers
	// both unknown email and wrong password.
	ErrInvalidCredentials = errors.New("invalid email or password")
	// ErrInvalidToken is returned for expired or malformed session
	// tokens.
	ErrInvalidToken = errors.New("invalid or expired token")
)

// allowedDomains are the university email domains accepted for signup.
var allowedDomains = map[string]bool{
	"manchester.ac.uk":         true,
	"student.manchester.ac.uk": true,
}

// DefaultTokenTTL is the session token lifetime.
const DefaultTokenTTL = 7 * 24 * time.Hour

// The simulated SAML attribute pools. A real IdP integration would
// replace SimulateSSO wholesale.
var (
	faculties = []string{
		"Science and Engineering",
		"Humanities",
		"Biology, Medicine and Health",
	}
	courses = []string{
		"Computer Science",
		"Mathematics",
		"Physics",
		"English Literature",
		"Psychology",
		"Medicine",
		"Law",
		"Economics",
		"Electrical Engineering",
		"Chemistry",
	}
)

// SSOData is the academic record returned by the identity provider.
type SSOData struct {
	Email     string `json:"email"`
	StudentID string `json:"student_id"`
	Course    string `json:"course"`
	Year      int    `json:"year"`
	Faculty   string `json:"faculty"`
}

// SignupRequest completes an SSO signup.
type SignupRequest struct {
	Email       string
	Password    string
	DisplayName string
	StudentID   string
	Course      string
	Year        int
	Faculty     string
	ShowCourse  bool
	ShowYear    bool
	ShowFaculty bool
}

// UserStore persists accounts. Create must reject a duplicate email
// with db.ErrConflict.
type UserStore interface {
	Create(ctx context.Context, u *db.User) error
	Get(ctx context.Context, id uuid.UUID) (*db.User, error)
	GetByEmail(ctx context.Context, email string) (*db.User, error)
}

// Service authenticates users.
type Service struct {
	users    UserStore
	secret   []byte
	tokenTTL time.Duration
	now      func() time.Time
}

// Option configures a Service.
type Option func(*Service)

// WithTokenTTL overrides the session token lifetime.
func WithTokenTTL(ttl time.Duration) Option {
	return func(s *Service) {
		s.tokenTTL = ttl
	}
}

// WithClock overrides the wall clock, for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// New creates an auth service signing tokens with secret.
func New(users UserStore, secret string, opts ...Option) *Service {
	s := &Service{
		users:    users,
		secret:   []byte(secret),
		tokenTTL: DefaultTokenTTL,
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ValidateDomain reports whether the email belongs to an allowed
// university domain.
func ValidateDomain(email string) bool {
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return false
	}
	return allowedDomains[strings.ToLower(email[at+1:])]
}

// InitiateSSO starts the signup flow: the email domain is checked, the
// account must not exist yet, and the identity provider's academic
// attributes are returned for the user to confirm.
func (s *Service) InitiateSSO(ctx context.Context, email string) (*SSOData, error) {
	if !ValidateDomain(email) {
		return nil, ErrDomainNotAllowed
	}
	if _, err := s.users.GetByEmail(ctx, email); err == nil {
		return nil, ErrEmailTaken
	} else if !errors.Is(err, db.ErrNotFound) {
		return nil, fmt.Errorf("checking email: %w", err)
	}
	data := SimulateSSO(email)
	return &data, nil
}

// SimulateSSO stands in for the university SAML IdP. Attributes are
// derived from the email so repeated calls for the same address agree.
func SimulateSSO(email string) SSOData {
	h := fnv.New64a()
	h.Write([]byte(strings.ToLower(email)))
	rng := rand.New(rand.NewSource(int64(h.Sum64())))

	studentID := make([]byte, 7)
	for i := range studentID {
		studentID[i] = byte('0' + rng.Intn(10))
	}

	return SSOData{
		Email:     email,
		StudentID: string(studentID),
		Course:    courses[rng.Intn(len(courses))],
		Year:      1 + rng.Intn(4),
		Faculty:   faculties[rng.Intn(len(faculties))],
	}
}

// CompleteSSO creates the account and returns it with a session token.
func (s *Service) CompleteSSO(ctx context.Context, req SignupRequest) (*db.User, string, error) {
	if !ValidateDomain(req.Email) {
		return nil, "", ErrDomainNotAllowed
	}

	hashed, err := HashPassword(req.Password)
	if err != nil {
		return nil, "", err
	}

	user := &db.User{
		ID:             uuid.New(),
		Email:          req.Email,
		HashedPassword: hashed,
		DisplayName:    req.DisplayName,
		ShowCourse:     req.ShowCourse,
		ShowYear:       req.ShowYear,
		ShowFaculty:    req.ShowFaculty,
		Verified:       true,
	}
	if req.StudentID != "" {
		user.StudentID = &req.StudentID
	}
	if req.Course != "" {
		user.Course = &req.Course
	}
	if req.Year != 0 {
		year := req.Year
		user.Year = &year
	}
	if req.Faculty != "" {
		user.Faculty = &req.Faculty
	}

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, db.ErrConflict) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("creating account: %w", err)
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Login authenticates a returning user by email and password.
func (s *Service) Login(ctx context.Context, email, password string) (*db.User, string, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if errors.Is(err, db.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("loading account: %w", err)
	}
	if !VerifyPassword(password, user.HashedPassword) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.IssueToken(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// UserFromToken resolves a session token to its account.
func (s *Service) UserFromToken(ctx context.Context, token string) (*db.User, error) {
	userID, err := s.ParseToken(token)
	if err != nil {
		return nil, err
	}
	user, err := s.users.Get(ctx, userID)
	if errors.Is(err, db.ErrNotFound) {
		return nil, ErrInvalidToken
	}
	if err != nil {
		return nil, fmt.Errorf("loading account: %w", err)
	}
	return user, nil
}

// IssueToken signs a session token for userID.
func (s *Service) IssueToken(userID uuid.UUID) (string, error) {
	now := s.now()
	claims := jwt.RegisteredClaims{
		Subject:   userID.String(),
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return token, nil
}

// ParseToken verifies a session token and returns its user ID.
func (s *Service) ParseToken(token string) (uuid.UUID, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", t.Method.Alg())
		}
		return s.secret, nil
	}, jwt.WithTimeFunc(func() time.Time { return s.now() }))
	if err != nil || !parsed.Valid {
		return uuid.Nil, ErrInvalidToken
	}

	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok {
		return uuid.Nil, ErrInvalidToken
	}
	userID, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, ErrInvalidToken
	}
	return userID, nil
}

// HashPassword hashes a password with bcrypt.
func HashPassword(password string) (string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("hashing password: %w", err)
	}
	return string(hashed), nil
}

// VerifyPassword reports whether password matches the bcrypt hash.
func VerifyPassword(password, hashed string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hashed), []byte(password)) == nil
}
