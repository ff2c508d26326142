package service

import (
	"context"
	"errors"
	"strings"

	"conduit/internal/auth"
	"conduit/internal/middleware"
	"conduit/internal/models"
	"conduit/internal/observability"
	"conduit/internal/repository"
	"conduit/internal/validation"
)

// TokenIssuer mints a session token from the current identity snapshot.
type TokenIssuer interface {
	Issue(user *models.User) (string, error)
}

// TokenRevoker invalidates a session before it expires.
type TokenRevoker interface {
	Revoke(ctx context.Context, claims *auth.Claims) error
}

type UserService struct {
	users     repository.UserRepository
	hasher    PasswordHasher
	issuer    TokenIssuer
	revoker   TokenRevoker
	presenter Presenter
}

// RegisterInput is a new account. A nil or empty password yields an account
// that cannot log in with a password.
type RegisterInput struct {
	Email    string  `json:"email" validate:"notblank,email,max=254"`
	Username string  `json:"username" validate:"notblank,max=150"`
	Password *string `json:"password" validate:"omitempty,max=72"`
}

type LoginInput struct {
	Email    string `json:"email" validate:"notblank"`
	Password string `json:"password" validate:"notblank"`
}

// UpdateUserInput is a partial update; Unset fields are not written.
type UpdateUserInput struct {
	Email    models.Patch[string] `json:"email"`
	Username models.Patch[string] `json:"username"`
	Password models.Patch[string] `json:"password"`
	Bio      models.Patch[string] `json:"bio"`
	Image    models.Patch[string] `json:"image"`
}

func NewUserService(
	users repository.UserRepository,
	hasher PasswordHasher,
	issuer TokenIssuer,
	revoker TokenRevoker,
	presenter Presenter,
) *UserService {
	return &UserService{
		users:     users,
		hasher:    hasher,
		issuer:    issuer,
		revoker:   revoker,
		presenter: presenter,
	}
}

func (s *UserService) Register(ctx context.Context, in RegisterInput) (*models.UserView, error) {
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	credential := UnusablePassword()
	if in.Password != nil && *in.Password != "" {
		hash, err := s.hasher.Hash(*in.Password)
		if err != nil {
			return nil, err
		}
		credential = hash
	}

	user := &models.User{
		Email:    normalizeEmail(in.Email),
		Username: strings.TrimSpace(in.Username),
		Password: credential,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, err
	}
	observability.RecordEvent("user.registered")
	return s.withToken(user)
}

// Login verifies credentials. Unknown email, wrong password and unusable
// credentials are indistinguishable to the caller.
func (s *UserService) Login(ctx context.Context, in LoginInput) (*models.UserView, error) {
	invalid := models.NewUnauthorizedError("email or password is invalid")
	if err := validation.Struct(in); err != nil {
		return nil, err
	}

	user, err := s.users.GetByEmail(ctx, normalizeEmail(in.Email))
	if err != nil {
		if models.HasCode(err, models.CodeNotFound) {
			return nil, invalid
		}
		return nil, err
	}
	if !user.HasUsablePassword() || !s.hasher.Verify(user.Password, in.Password) {
		return nil, invalid
	}
	return s.withToken(user)
}

// Current returns the caller's account, echoing the token they presented.
func (s *UserService) Current(ctx context.Context, userID uint, token string) (*models.UserView, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	view := s.presenter.User(user, token)
	return &view, nil
}

// Update applies a partial update and returns the account with a fresh token.
func (s *UserService) Update(ctx context.Context, userID uint, in UpdateUserInput) (*models.UserView, error) {
	updates := map[string]any{}

	if !in.Email.IsUnset() {
		email := strings.TrimSpace(in.Email.Value())
		if err := validation.Var("email", email, "notblank,email,max=254"); err != nil {
			return nil, err
		}
		updates["email"] = normalizeEmail(email)
	}
	if !in.Username.IsUnset() {
		username := strings.TrimSpace(in.Username.Value())
		if err := validation.Var("username", username, "notblank,max=150"); err != nil {
			return nil, err
		}
		updates["username"] = username
	}
	if !in.Bio.IsUnset() {
		updates["bio"] = in.Bio.Value()
	}
	if !in.Image.IsUnset() {
		if image := strings.TrimSpace(in.Image.Value()); image != "" {
			if err := validation.Var("image", image, "url,max=500"); err != nil {
				return nil, err
			}
			updates["image"] = image
		} else {
			updates["image"] = nil
		}
	}
	if !in.Password.IsUnset() {
		if in.Password.Value() == "" {
			return nil, models.NewValidationError("password", "can't be blank")
		}
		hash, err := s.hasher.Hash(in.Password.Value())
		if err != nil {
			return nil, err
		}
		updates["password"] = hash
	}

	user, err := s.users.Update(ctx, userID, updates)
	if err != nil {
		return nil, err
	}
	if len(updates) > 0 {
		observability.RecordEvent("user.updated")
	}
	return s.withToken(user)
}

// Logout revokes the presented token. Without a revocation store the token
// simply lives out its expiry.
func (s *UserService) Logout(ctx context.Context, claims *auth.Claims) error {
	if s.revoker == nil || claims == nil {
		return nil
	}
	err := s.revoker.Revoke(ctx, claims)
	if errors.Is(err, auth.ErrRevocationUnavailable) {
		middleware.Logger.WarnContext(ctx, "logout without revocation store", "jti", claims.ID)
		return nil
	}
	if err != nil {
		return models.NewInternalError(err)
	}
	return nil
}

func (s *UserService) withToken(user *models.User) (*models.UserView, error) {
	token, err := s.issuer.Issue(user)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	view := s.presenter.User(user, token)
	return &view, nil
}

// normalizeEmail trims and lowercases the domain part.
func normalizeEmail(email string) string {
	email = strings.TrimSpace(email)
	at := strings.LastIndex(email, "@")
	if at < 0 {
		return email
	}
	return email[:at] + strings.ToLower(email[at:])
}
