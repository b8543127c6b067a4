package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"google.golang.org/api/drive/v3"

	"github.com/agoraai/backend/internal/cache"
	"github.com/agoraai/backend/internal/models"
	"github.com/agoraai/backend/internal/repository"
)

var (
	// ErrInvalidState is returned when the OAuth state is unknown or reused
	ErrInvalidState = errors.New("invalid oauth state")
	// ErrEmailNotVerified is returned when Google reports an unverified email
	ErrEmailNotVerified = errors.New("email not verified")
)

const (
	oauthStatePrefix = "oauth:state:"
	oauthStateTTL    = 10 * time.Minute
)

// UserDirectory is the subset of the user repository the OAuth callback
// needs to map a Google identity onto an account.
type UserDirectory interface {
	GetByGoogleID(ctx context.Context, googleID string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	Create(ctx context.Context, user *models.User) error
	Update(ctx context.Context, user *models.User) error
}

// SubscriptionBootstrapper materializes the default free subscription for
// newly signed-in users.
type SubscriptionBootstrapper interface {
	EnsureDefault(ctx context.Context, userID string) error
}

// GoogleAuth implements the Google sign-in flow. The requested scopes
// include drive.file so exports can write to the user's Drive.
type GoogleAuth struct {
	oauth    *oauth2.Config
	verifier *oidc.IDTokenVerifier
	cache    *cache.Redis
	users    UserDirectory
	subs     SubscriptionBootstrapper
	jwt      *JWTService
}

// GoogleAuthConfig carries the OAuth client settings.
type GoogleAuthConfig struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

// NewGoogleAuth discovers the Google OIDC endpoints and builds the flow.
func NewGoogleAuth(ctx context.Context, cfg GoogleAuthConfig, redis *cache.Redis, users UserDirectory, subs SubscriptionBootstrapper, jwtService *JWTService) (*GoogleAuth, error) {
	provider, err := oidc.NewProvider(ctx, "https://accounts.google.com")
	if err != nil {
		return nil, fmt.Errorf("failed to discover google oidc provider: %w", err)
	}

	return &GoogleAuth{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     provider.Endpoint(),
			Scopes:       []string{oidc.ScopeOpenID, "email", "profile", drive.DriveFileScope},
		},
		verifier: provider.Verifier(&oidc.Config{ClientID: cfg.ClientID}),
		cache:    redis,
		users:    users,
		subs:     subs,
		jwt:      jwtService,
	}, nil
}

// LoginURL mints a one-shot state token and returns the Google consent URL.
func (g *GoogleAuth) LoginURL(ctx context.Context) (string, error) {
	state := uuid.New().String()
	if err := g.cache.Set(ctx, oauthStatePrefix+state, "1", oauthStateTTL); err != nil {
		return "", fmt.Errorf("failed to store oauth state: %w", err)
	}
	return g.oauth.AuthCodeURL(state), nil
}

// HandleCallback consumes the state, exchanges the authorization code,
// verifies the ID token and maps the Google identity onto a local account.
// It returns the account and a signed session token.
func (g *GoogleAuth) HandleCallback(ctx context.Context, state, code string) (*models.User, string, error) {
	if _, err := g.cache.GetDel(ctx, oauthStatePrefix+state); err != nil {
		return nil, "", ErrInvalidState
	}

	token, err := g.oauth.Exchange(ctx, code)
	if err != nil {
		return nil, "", fmt.Errorf("failed to exchange authorization code: %w", err)
	}

	rawIDToken, ok := token.Extra("id_token").(string)
	if !ok {
		return nil, "", errors.New("token response missing id_token")
	}

	idToken, err := g.verifier.Verify(ctx, rawIDToken)
	if err != nil {
		return nil, "", fmt.Errorf("failed to verify id token: %w", err)
	}

	var profile struct {
		Email         string `json:"email"`
		EmailVerified bool   `json:"email_verified"`
		Name          string `json:"name"`
		Picture       string `json:"picture"`
	}
	if err := idToken.Claims(&profile); err != nil {
		return nil, "", fmt.Errorf("failed to parse id token claims: %w", err)
	}
	if !profile.EmailVerified {
		return nil, "", ErrEmailNotVerified
	}

	user, err := g.findOrCreate(ctx, idToken.Subject, profile.Email, profile.Name, profile.Picture)
	if err != nil {
		return nil, "", err
	}

	if err := g.subs.EnsureDefault(ctx, user.ID); err != nil {
		return nil, "", fmt.Errorf("failed to bootstrap subscription: %w", err)
	}

	sessionToken, err := g.jwt.Generate(user, token.AccessToken)
	if err != nil {
		return nil, "", err
	}

	return user, sessionToken, nil
}

// findOrCreate looks the account up by Google ID first and falls back to
// email so an account created before Drive scopes, or whose Google subject
// changed, is linked rather than duplicated.
func (g *GoogleAuth) findOrCreate(ctx context.Context, googleID, email, name, picture string) (*models.User, error) {
	user, err := g.users.GetByGoogleID(ctx, googleID)
	if err == nil {
		if user.Name != name || user.Image != picture {
			user.Name = name
			user.Image = picture
			if err := g.users.Update(ctx, user); err != nil {
				return nil, err
			}
		}
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	user, err = g.users.GetByEmail(ctx, email)
	if err == nil {
		user.GoogleID = googleID
		user.Name = name
		user.Image = picture
		if err := g.users.Update(ctx, user); err != nil {
			return nil, err
		}
		return user, nil
	}
	if !errors.Is(err, repository.ErrUserNotFound) {
		return nil, err
	}

	user = &models.User{
		GoogleID: googleID,
		Email:    email,
		Name:     name,
		Image:    picture,
	}
	if err := g.users.Create(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}
