package auth

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/angelmondragon/campground-backend/internal/users"
	pkgAuth "github.com/angelmondragon/campground-backend/pkg/auth"
	"github.com/angelmondragon/campground-backend/pkg/config"
	"github.com/angelmondragon/campground-backend/pkg/db/models"
	"github.com/angelmondragon/campground-backend/pkg/enums"
	pkgerrors "github.com/angelmondragon/campground-backend/pkg/errors"
	"github.com/angelmondragon/campground-backend/pkg/security"
)

var testJWT = config.JWTConfig{
	Secret:            "secret",
	Issuer:            "campground",
	ExpirationMinutes: 30,
}

func TestServiceLoginMintsTokenAndSession(t *testing.T) {
	password := "camper-secret"
	user := &models.User{
		ID:           uuid.New(),
		Name:         "Camper",
		Email:        "camper@example.com",
		Tel:          "0812345678",
		Role:         enums.UserRoleUser,
		PasswordHash: mustHashPassword(t, password),
	}
	repo := newStubUserRepo(user)
	sessions := &stubSessionManager{}
	svc := mustService(t, repo, sessions)

	resp, err := svc.Login(context.Background(), LoginRequest{Email: "Camper@Example.com ", Password: password})
	if err != nil {
		t.Fatalf("login: %v", err)
	}

	claims, err := pkgAuth.ParseAccessToken(testJWT, resp.Token)
	if err != nil {
		t.Fatalf("parse token: %v", err)
	}
	if claims.UserID != user.ID || claims.Role != enums.UserRoleUser {
		t.Fatalf("unexpected claims %+v", claims)
	}
	if sessions.started[claims.ID] != user.ID {
		t.Fatalf("expected session for jti %s", claims.ID)
	}
	if repo.lastLogin.IsZero() {
		t.Fatalf("expected last login to be recorded")
	}
	if resp.User == nil || resp.User.Email != user.Email {
		t.Fatalf("unexpected user payload %+v", resp.User)
	}
}

func TestServiceLoginRejectsBadCredentials(t *testing.T) {
	user := &models.User{
		ID:           uuid.New(),
		Email:        "camper@example.com",
		Role:         enums.UserRoleUser,
		PasswordHash: mustHashPassword(t, "right-password"),
	}
	svc := mustService(t, newStubUserRepo(user), &stubSessionManager{})

	cases := []LoginRequest{
		{Email: "camper@example.com", Password: "wrong-password"},
		{Email: "nobody@example.com", Password: "right-password"},
	}
	for _, req := range cases {
		_, err := svc.Login(context.Background(), req)
		if !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
			t.Fatalf("expected unauthorized for %s, got %v", req.Email, err)
		}
	}

	_, err := svc.Login(context.Background(), LoginRequest{Email: "", Password: "x"})
	if !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
		t.Fatalf("expected validation error for empty email, got %v", err)
	}
}

func TestServiceRegister(t *testing.T) {
	existing := &models.User{
		ID:    uuid.New(),
		Email: "taken@example.com",
		Tel:   "0899999999",
		Role:  enums.UserRoleUser,
	}

	tests := []struct {
		name string
		req  RegisterRequest
		code pkgerrors.Code
	}{
		{
			name: "bad tel",
			req:  RegisterRequest{Name: "A", Email: "a@example.com", Tel: "12345", Password: "secret1"},
			code: pkgerrors.CodeValidation,
		},
		{
			name: "short password",
			req:  RegisterRequest{Name: "A", Email: "a@example.com", Tel: "0812345678", Password: "123"},
			code: pkgerrors.CodeValidation,
		},
		{
			name: "bad role",
			req:  RegisterRequest{Name: "A", Email: "a@example.com", Tel: "0812345678", Password: "secret1", Role: "owner"},
			code: pkgerrors.CodeValidation,
		},
		{
			name: "duplicate email",
			req:  RegisterRequest{Name: "A", Email: "TAKEN@example.com", Tel: "0812345678", Password: "secret1"},
			code: pkgerrors.CodeConflict,
		},
		{
			name: "duplicate tel",
			req:  RegisterRequest{Name: "A", Email: "a@example.com", Tel: "0899999999", Password: "secret1"},
			code: pkgerrors.CodeConflict,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			svc := mustService(t, newStubUserRepo(existing), &stubSessionManager{})
			_, err := svc.Register(context.Background(), tc.req)
			if !pkgerrors.IsCode(err, tc.code) {
				t.Fatalf("expected %s, got %v", tc.code, err)
			}
		})
	}
}

func TestServiceRegisterCreatesUserWithDefaultRole(t *testing.T) {
	repo := newStubUserRepo()
	sessions := &stubSessionManager{}
	svc := mustService(t, repo, sessions)

	resp, err := svc.Register(context.Background(), RegisterRequest{
		Name:     "New Camper",
		Email:    "new@example.com",
		Tel:      "0612345678",
		Password: "secret1",
	})
	if err != nil {
		t.Fatalf("register: %v", err)
	}
	if resp.User.Role != enums.UserRoleUser {
		t.Fatalf("expected default role user, got %s", resp.User.Role)
	}
	if resp.Token == "" || len(sessions.started) != 1 {
		t.Fatalf("expected token and session to be issued")
	}
	stored := repo.byEmail["new@example.com"]
	if stored == nil {
		t.Fatalf("expected user persisted")
	}
	ok, err := security.VerifyPassword("secret1", stored.PasswordHash)
	if err != nil || !ok {
		t.Fatalf("expected stored hash to verify: ok=%v err=%v", ok, err)
	}
}

func TestServiceRegisterTelFormats(t *testing.T) {
	tests := []struct {
		tel  string
		want bool
	}{
		{"0812345678", true},
		{"08-123-4567", true},
		{"06-999-0000", true},
		{"081-234-5678", false},
		{"0712345678", false},
		{"08-1234-567", false},
	}
	for i, tt := range tests {
		svc := mustService(t, newStubUserRepo(), &stubSessionManager{})
		_, err := svc.Register(context.Background(), RegisterRequest{
			Name:     "Tel",
			Email:    fmt.Sprintf("tel%d@example.com", i),
			Tel:      tt.tel,
			Password: "secret1",
		})
		if tt.want && err != nil {
			t.Fatalf("tel %q: expected accepted, got %v", tt.tel, err)
		}
		if !tt.want && !pkgerrors.IsCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("tel %q: expected validation error, got %v", tt.tel, err)
		}
	}
}

func TestServiceMeAndLogout(t *testing.T) {
	user := &models.User{ID: uuid.New(), Email: "me@example.com", Role: enums.UserRoleAdmin}
	sessions := &stubSessionManager{}
	svc := mustService(t, newStubUserRepo(user), sessions)

	dto, err := svc.Me(context.Background(), pkgAuth.Principal{UserID: user.ID, Role: user.Role})
	if err != nil {
		t.Fatalf("me: %v", err)
	}
	if dto.ID != user.ID {
		t.Fatalf("expected user %s, got %s", user.ID, dto.ID)
	}

	if _, err := svc.Me(context.Background(), pkgAuth.Principal{}); !pkgerrors.IsCode(err, pkgerrors.CodeUnauthorized) {
		t.Fatalf("expected unauthorized for empty principal, got %v", err)
	}

	if err := svc.Logout(context.Background(), ""); err != nil {
		t.Fatalf("anonymous logout should succeed: %v", err)
	}
	if err := svc.Logout(context.Background(), "jti-1"); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if len(sessions.revoked) != 1 || sessions.revoked[0] != "jti-1" {
		t.Fatalf("expected jti-1 revoked, got %v", sessions.revoked)
	}

	sessions.revokeErr = errors.New("redis down")
	if err := svc.Logout(context.Background(), "jti-2"); !pkgerrors.IsCode(err, pkgerrors.CodeDependency) {
		t.Fatalf("expected dependency error, got %v", err)
	}
}

func TestNewServiceRequiresDependencies(t *testing.T) {
	if _, err := NewService(ServiceParams{SessionManager: &stubSessionManager{}}); err == nil {
		t.Fatalf("expected error without user repo")
	}
	if _, err := NewService(ServiceParams{UserRepo: newStubUserRepo()}); err == nil {
		t.Fatalf("expected error without session manager")
	}
}

func mustService(t *testing.T, repo userRepository, sessions sessionManager) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		UserRepo:       repo,
		SessionManager: sessions,
		JWTConfig:      testJWT,
	})
	if err != nil {
		t.Fatalf("build service: %v", err)
	}
	return svc
}

func mustHashPassword(t *testing.T, password string) string {
	t.Helper()
	hash, err := security.HashPassword(password, config.PasswordConfig{})
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	return hash
}

type stubUserRepo struct {
	byEmail   map[string]*models.User
	lastLogin time.Time
}

func newStubUserRepo(seed ...*models.User) *stubUserRepo {
	repo := &stubUserRepo{byEmail: map[string]*models.User{}}
	for _, u := range seed {
		repo.byEmail[u.Email] = u
	}
	return repo
}

func (s *stubUserRepo) Create(ctx context.Context, dto users.CreateUserDTO) (*models.User, error) {
	user := dto.ToModel()
	user.ID = uuid.New()
	s.byEmail[user.Email] = user
	return user, nil
}

func (s *stubUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if u, ok := s.byEmail[email]; ok {
		return u, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByTel(ctx context.Context, tel string) (*models.User, error) {
	for _, u := range s.byEmail {
		if u.Tel == tel {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	for _, u := range s.byEmail {
		if u.ID == id {
			return u, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubUserRepo) UpdateLastLogin(ctx context.Context, id uuid.UUID, at time.Time) error {
	s.lastLogin = at
	return nil
}

func (s *stubUserRepo) UpdatePasswordHash(ctx context.Context, id uuid.UUID, hash string) error {
	return nil
}

type stubSessionManager struct {
	started   map[string]uuid.UUID
	revoked   []string
	revokeErr error
}

func (s *stubSessionManager) Start(ctx context.Context, accessID string, userID uuid.UUID) error {
	if s.started == nil {
		s.started = map[string]uuid.UUID{}
	}
	s.started[accessID] = userID
	return nil
}

func (s *stubSessionManager) Revoke(ctx context.Context, accessID string) error {
	if s.revokeErr != nil {
		return s.revokeErr
	}
	s.revoked = append(s.revoked, accessID)
	return nil
}
