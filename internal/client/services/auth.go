// Package services contains application services for the CareLink client.
// This file defines the authentication service: login, registration, logout
// and the backend liveness probe.
package services

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strings"

	"github.com/dmitrijs2005/carelink/internal/client/models"
	"github.com/dmitrijs2005/carelink/internal/client/session"
)

// API is the request surface of *gateway.Gateway.
type API interface {
	Request(ctx context.Context, method, path string, body any) (json.RawMessage, error)
}

// Session is the part of *session.Manager the auth service drives.
type Session interface {
	Login(ctx context.Context, user *models.User, token string) error
	Logout(ctx context.Context) error
}

var ErrInvalidRegistration = errors.New("invalid registration")

// MinPasswordLength is the shortest password Register accepts.
const MinPasswordLength = 8

// AuthService defines authentication operations for the CLI.
//
// Contract:
//   - Login: authenticate against the backend and open the session.
//   - Register: create an account; when the backend answers with a token the
//     session is opened as well.
//   - Logout: close the session. Never calls the backend.
//   - Ping: check backend liveness.
type AuthService interface {
	Login(ctx context.Context, email, password string) (*models.User, error)
	Register(ctx context.Context, req RegisterRequest) (*models.User, error)
	Logout(ctx context.Context) error
	Ping(ctx context.Context) error
}

type RegisterRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Name     string      `json:"name"`
	Role     models.Role `json:"role"`
}

// Validate checks the request the way the sign-up form does.
func (r RegisterRequest) Validate() error {
	if _, err := mail.ParseAddress(r.Email); err != nil {
		return fmt.Errorf("%w: email: %v", ErrInvalidRegistration, err)
	}
	if len(r.Password) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", ErrInvalidRegistration, MinPasswordLength)
	}
	if len([]rune(strings.TrimSpace(r.Name))) < 2 {
		return fmt.Errorf("%w: name must be at least 2 characters", ErrInvalidRegistration)
	}
	switch r.Role {
	case models.RoleAdmin, models.RoleDoctor, models.RolePatient, models.RoleHomeCareProvider:
	default:
		return fmt.Errorf("%w: unknown role %q", ErrInvalidRegistration, r.Role)
	}
	return nil
}

// credentials is the backend's answer to login and register.
type credentials struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

type authService struct {
	api     API
	session Session
}

// NewAuthService constructs an AuthService bound to the given API and session.
func NewAuthService(api API, s Session) AuthService {
	return &authService{api: api, session: s}
}

// Login posts the credentials and opens the session with the returned
// token and user. A response missing either is rejected with
// session.ErrInvalidCredentialsPayload and leaves the session untouched.
func (a *authService) Login(ctx context.Context, email, password string) (*models.User, error) {
	raw, err := a.api.Request(ctx, http.MethodPost, "/auth/login", map[string]string{
		"email":    strings.TrimSpace(email),
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("login error: %w", err)
	}

	creds, err := decodeCredentials(raw)
	if err != nil {
		return nil, err
	}
	if creds.Token == "" || creds.User == nil {
		return nil, session.ErrInvalidCredentialsPayload
	}

	if err := a.session.Login(ctx, creds.User, creds.Token); err != nil {
		return nil, err
	}
	return creds.User, nil
}

func (a *authService) Register(ctx context.Context, req RegisterRequest) (*models.User, error) {
	req.Email = strings.TrimSpace(req.Email)
	if err := req.Validate(); err != nil {
		return nil, err
	}

	raw, err := a.api.Request(ctx, http.MethodPost, "/auth/register", req)
	if err != nil {
		return nil, fmt.Errorf("register error: %w", err)
	}

	creds, err := decodeCredentials(raw)
	if err != nil {
		return nil, err
	}
	if creds.Token != "" && creds.User != nil {
		if err := a.session.Login(ctx, creds.User, creds.Token); err != nil {
			return nil, err
		}
	}
	return creds.User, nil
}

func (a *authService) Logout(ctx context.Context) error {
	return a.session.Logout(ctx)
}

// Ping reports whether the backend answers; doctors is the cheapest public
// listing it has.
func (a *authService) Ping(ctx context.Context) error {
	_, err := a.api.Request(ctx, http.MethodGet, "/doctors", nil)
	return err
}

// decodeCredentials accepts {token, user} bare or inside a data envelope
// that the gateway already stripped.
func decodeCredentials(raw json.RawMessage) (credentials, error) {
	var c credentials
	if len(raw) == 0 {
		return c, session.ErrInvalidCredentialsPayload
	}
	if err := json.Unmarshal(raw, &c); err != nil {
		return c, fmt.Errorf("%w: %v", session.ErrInvalidCredentialsPayload, err)
	}
	return c, nil
}
