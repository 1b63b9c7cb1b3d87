package auth

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/musicmate-app/musicmate/internal/db"
)

type fakeUsers struct {
	users map[uuid.UUID]*db.User
}

func newFakeUsers() *fakeUsers {
	return &fakeUsers{users: make(map[uuid.UUID]*db.User)}
}

func (f *fakeUsers) Create(_ context.Context, u *db.User) error {
	for _, existing := range f.users {
		if existing.Email == u.Email {
			return db.ErrConflict
		}
	}
	clone := *u
	f.users[u.ID] = &clone
	return nil
}

func (f *fakeUsers) Get(_ context.Context, id uuid.UUID) (*db.User, error) {
	u, ok := f.users[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	return u, nil
}

func (f *fakeUsers) GetByEmail(_ context.Context, email string) (*db.User, error) {
	for _, u := range f.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, db.ErrNotFound
}

func TestValidateDomain(t *testing.T) {
	cases := []struct {
		email string
		want  bool
	}{
		{"alex@manchester.ac.uk", true},
		{"sam@student.manchester.ac.uk", true},
		{"alex@STUDENT.MANCHESTER.AC.UK", true},
		{"alex@gmail.com", false},
		{"alex@manchester.ac.uk.evil.com", false},
		{"no-at-sign", false},
	}
	for _, tc := range cases {
		if got := ValidateDomain(tc.email); got != tc.want {
			t.Errorf("ValidateDomain(%q) = %v, want %v", tc.email, got, tc.want)
		}
	}
}

func TestSimulateSSODeterministic(t *testing.T) {
	first := SimulateSSO("alex@manchester.ac.uk")
	second := SimulateSSO("alex@manchester.ac.uk")
	if first != second {
		t.Errorf("repeated SSO disagrees: %+v vs %+v", first, second)
	}

	if len(first.StudentID) != 7 {
		t.Errorf("student_id = %q, want 7 digits", first.StudentID)
	}
	if first.Year < 1 || first.Year > 4 {
		t.Errorf("year = %d, want 1..4", first.Year)
	}
	if first.Course == "" || first.Faculty == "" {
		t.Errorf("missing attributes: %+v", first)
	}
}

func TestInitiateSSO(t *testing.T) {
	users := newFakeUsers()
	svc := New(users, "secret")
	ctx := context.Background()

	data, err := svc.InitiateSSO(ctx, "alex@manchester.ac.uk")
	if err != nil {
		t.Fatalf("InitiateSSO: %v", err)
	}
	if data.Email != "alex@manchester.ac.uk" {
		t.Errorf("email = %q", data.Email)
	}

	if _, err := svc.InitiateSSO(ctx, "alex@gmail.com"); !errors.Is(err, ErrDomainNotAllowed) {
		t.Errorf("outside domain err = %v, want ErrDomainNotAllowed", err)
	}

	if _, _, err := svc.CompleteSSO(ctx, SignupRequest{
		Email: "alex@manchester.ac.uk", Password: "pw", DisplayName: "Alex",
	}); err != nil {
		t.Fatalf("CompleteSSO: %v", err)
	}
	if _, err := svc.InitiateSSO(ctx, "alex@manchester.ac.uk"); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("taken email err = %v, want ErrEmailTaken", err)
	}
}

func TestCompleteSSOAndLogin(t *testing.T) {
	users := newFakeUsers()
	svc := New(users, "secret")
	ctx := context.Background()

	req := SignupRequest{
		Email:       "sam@student.manchester.ac.uk",
		Password:    "hunter2hunter2",
		DisplayName: "Sam",
		StudentID:   "1234567",
		Course:      "Physics",
		Year:        2,
		Faculty:     "Science and Engineering",
		ShowCourse:  true,
	}
	user, token, err := svc.CompleteSSO(ctx, req)
	if err != nil {
		t.Fatalf("CompleteSSO: %v", err)
	}
	if token == "" {
		t.Error("no session token issued")
	}
	if user.HashedPassword == req.Password {
		t.Error("password stored in the clear")
	}
	if user.Course == nil || *user.Course != "Physics" {
		t.Errorf("course = %v", user.Course)
	}
	if !user.ShowCourse || user.ShowYear {
		t.Errorf("visibility flags = %v/%v", user.ShowCourse, user.ShowYear)
	}

	if _, _, err := svc.CompleteSSO(ctx, req); !errors.Is(err, ErrEmailTaken) {
		t.Errorf("duplicate signup err = %v, want ErrEmailTaken", err)
	}

	got, _, err := svc.Login(ctx, req.Email, req.Password)
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if got.ID != user.ID {
		t.Errorf("login returned user %s, want %s", got.ID, user.ID)
	}

	if _, _, err := svc.Login(ctx, req.Email, "wrong"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("wrong password err = %v, want ErrInvalidCredentials", err)
	}
	if _, _, err := svc.Login(ctx, "nobody@manchester.ac.uk", "pw"); !errors.Is(err, ErrInvalidCredentials) {
		t.Errorf("unknown email err = %v, want ErrInvalidCredentials", err)
	}
}

func TestTokenRoundTrip(t *testing.T) {
	users := newFakeUsers()
	svc := New(users, "secret")
	userID := uuid.New()
	users.users[userID] = &db.User{ID: userID, Email: "alex@manchester.ac.uk"}

	token, err := svc.IssueToken(userID)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	got, err := svc.ParseToken(token)
	if err != nil {
		t.Fatalf("ParseToken: %v", err)
	}
	if got != userID {
		t.Errorf("parsed user = %s, want %s", got, userID)
	}

	user, err := svc.UserFromToken(context.Background(), token)
	if err != nil {
		t.Fatalf("UserFromToken: %v", err)
	}
	if user.ID != userID {
		t.Errorf("resolved user = %s, want %s", user.ID, userID)
	}
}

func TestTokenRejections(t *testing.T) {
	users := newFakeUsers()
	svc := New(users, "secret")
	userID := uuid.New()

	token, err := svc.IssueToken(userID)
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}

	// Wrong signing secret.
	other := New(users, "different-secret")
	if _, err := other.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("wrong secret err = %v, want ErrInvalidToken", err)
	}

	// Garbage token.
	if _, err := svc.ParseToken("not.a.jwt"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("garbage err = %v, want ErrInvalidToken", err)
	}

	// Token whose account no longer exists.
	if _, err := svc.UserFromToken(context.Background(), token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("deleted account err = %v, want ErrInvalidToken", err)
	}
}

func TestTokenExpiry(t *testing.T) {
	users := newFakeUsers()
	now := time.Date(2025, 3, 12, 10, 0, 0, 0, time.UTC)
	svc := New(users, "secret",
		WithTokenTTL(time.Hour),
		WithClock(func() time.Time { return now }))

	token, err := svc.IssueToken(uuid.New())
	if err != nil {
		t.Fatalf("IssueToken: %v", err)
	}
	if _, err := svc.ParseToken(token); err != nil {
		t.Fatalf("fresh token rejected: %v", err)
	}

	now = now.Add(2 * time.Hour)
	if _, err := svc.ParseToken(token); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("expired token err = %v, want ErrInvalidToken", err)
	}
}
