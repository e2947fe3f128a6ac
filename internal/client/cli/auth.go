package cli

import (
	"context"
	"strings"

	"github.com/dmitrijs2005/carelink/internal/client/models"
	"github.com/dmitrijs2005/carelink/internal/client/services"
)

// getSimpleText and getPassword are indirections used to facilitate testing.
// They point to interactive input helpers and can be swapped in tests.
var getSimpleText = GetSimpleText
var getPassword = GetPassword

// Register prompts for email, name, role and password and creates the
// account. If the backend answers with a token the user is logged in right
// away; otherwise they are asked to log in.
func (a *App) Register(ctx context.Context) error {
	email, err := getSimpleText(a.reader, a.T("auth.email", nil), a.out)
	if err != nil {
		return err
	}
	name, err := getSimpleText(a.reader, a.T("auth.name", nil), a.out)
	if err != nil {
		return err
	}
	role, err := getSimpleText(a.reader, a.T("auth.role", nil), a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	u, err := a.authService.Register(ctx, services.RegisterRequest{
		Email:    email,
		Password: string(password),
		Name:     name,
		Role:     models.Role(strings.ToLower(role)),
	})
	if err != nil {
		return err
	}

	if a.isLoggedIn() {
		a.welcome(u)
		return nil
	}
	printlnFn(a.T("auth.registered", nil))
	return nil
}

// Login prompts for credentials and opens the session.
func (a *App) Login(ctx context.Context) error {
	email, err := getSimpleText(a.reader, a.T("auth.email", nil), a.out)
	if err != nil {
		return err
	}

	password, err := getPassword(a.out)
	if err != nil {
		return err
	}
	defer clear(password)

	u, err := a.authService.Login(ctx, email, string(password))
	if err != nil {
		a.log.Warn(ctx, "login unsuccessful", "error", err)
		return err
	}

	a.log.Info(ctx, "login successful", "user_id", u.ID)
	a.welcome(u)
	return nil
}

func (a *App) Logout(ctx context.Context) error {
	if err := a.authService.Logout(ctx); err != nil {
		return err
	}
	printlnFn(a.T("auth.logged_out", nil))
	return nil
}

func (a *App) WhoAmI(ctx context.Context) error {
	s := a.session.Snapshot()
	if !s.IsAuthenticated() {
		printlnFn(a.T("auth.anonymous", nil))
		return nil
	}
	printlnFn(a.T("auth.whoami", whoamiParams(s.User)))
	return nil
}

func (a *App) welcome(u *models.User) {
	if u == nil {
		return
	}
	printlnFn(a.T("auth.welcome", map[string]string{
		"name":  u.Name,
		"route": models.HomeRoute(u.Role),
	}))
}

func whoamiParams(u *models.User) map[string]string {
	return map[string]string{
		"name":  u.Name,
		"email": u.Email,
		"role":  string(u.Role),
	}
}
