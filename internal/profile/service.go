package profile

import (
	"context"
	"errors"

	"studioslot/internal/auth"
)

var (
	ErrEmailTaken         = errors.New("email already registered")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrSelfDemotion       = errors.New("admins cannot change their own role")
)

type Service interface {
	Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResponse, error)
	Refresh(ctx context.Context, refreshToken string) (string, error)
	GetByID(ctx context.Context, id int) (*User, error)
	ListMembers(ctx context.Context) ([]User, error)
	CreateMember(ctx context.Context, req CreateMemberRequest) (*User, error)
	SetRole(ctx context.Context, callerID, userID int, role string) error
	Logout(ctx context.Context)
}

type service struct {
	repo          Repository
	gate          *auth.Gate
	accessSecret  string
	refreshSecret string
}

func NewService(repo Repository, gate *auth.Gate, accessSecret, refreshSecret string) Service {
	return &service{
		repo:          repo,
		gate:          gate,
		accessSecret:  accessSecret,
		refreshSecret: refreshSecret,
	}
}

func (s *service) Register(ctx context.Context, req RegisterRequest) (*LoginResponse, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	user, err := s.repo.Create(ctx, req.FullName, req.Email, passwordHash, auth.RoleMember, req.Phone)
	if err != nil {
		return nil, err
	}

	return s.issueTokens(ctx, user)
}

func (s *service) Login(ctx context.Context, req LoginRequest) (*LoginResponse, error) {
	user, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, ErrUserNotFound) {
			return nil, ErrInvalidCredentials
		}
		return nil, err
	}

	if !auth.CheckPassword(user.PasswordHash, req.Password) {
		return nil, ErrInvalidCredentials
	}

	return s.issueTokens(ctx, user)
}

// Refresh validates the refresh token and mints a new access token carrying
// the user's current role, re-resolved through the gate so a role change
// takes effect on the next token rather than persisting until expiry.
func (s *service) Refresh(ctx context.Context, refreshToken string) (string, error) {
	claims, err := auth.ValidateToken(refreshToken, s.refreshSecret)
	if err != nil {
		return "", err
	}

	state := s.gate.Refresh(ctx, claims.UserID)
	role := state.Role
	if state.Err != nil || role == "" {
		role = claims.Role
	}

	accessToken, _, err := auth.RefreshAccessToken(refreshToken, s.refreshSecret, s.accessSecret, role)
	if err != nil {
		return "", err
	}

	return accessToken, nil
}

func (s *service) GetByID(ctx context.Context, id int) (*User, error) {
	return s.repo.FindByID(ctx, id)
}

func (s *service) ListMembers(ctx context.Context) ([]User, error) {
	return s.repo.List(ctx)
}

func (s *service) CreateMember(ctx context.Context, req CreateMemberRequest) (*User, error) {
	exists, err := s.repo.EmailExists(ctx, req.Email)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrEmailTaken
	}

	passwordHash, err := auth.HashPassword(req.Password)
	if err != nil {
		return nil, err
	}

	return s.repo.Create(ctx, req.FullName, req.Email, passwordHash, auth.RoleMember, req.Phone)
}

func (s *service) SetRole(ctx context.Context, callerID, userID int, role string) error {
	if callerID == userID {
		return ErrSelfDemotion
	}

	return s.repo.SetRole(ctx, userID, role)
}

func (s *service) Logout(ctx context.Context) {
	s.gate.Logout()
}

func (s *service) issueTokens(ctx context.Context, user *User) (*LoginResponse, error) {
	// Auth-state transition: re-resolve the role instead of trusting
	// whatever was cached before this login.
	state := s.gate.Refresh(ctx, user.ID)
	role := state.Role
	if state.Err != nil || role == "" {
		role = user.Role
	}

	accessToken, refreshToken, err := auth.GenerateTokens(user.ID, user.Email, role, s.accessSecret, s.refreshSecret)
	if err != nil {
		return nil, err
	}

	return &LoginResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User:         *user,
	}, nil
}
