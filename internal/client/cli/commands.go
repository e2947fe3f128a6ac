package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"

	"github.com/dmitrijs2005/carelink/internal/client/locale"
	"github.com/dmitrijs2005/carelink/internal/client/models"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// Lang shows the active language, or switches to args[0].
func (a *App) Lang(ctx context.Context, args []string) error {
	if len(args) > 0 {
		if err := a.locale.ChangeLanguage(ctx, locale.Language(args[0])); err != nil {
			return err
		}
	}
	a.printLanguage()
	return nil
}

func (a *App) Toggle(ctx context.Context) error {
	if _, err := a.locale.ToggleLanguage(ctx); err != nil {
		return err
	}
	a.printLanguage()
	return nil
}

func (a *App) printLanguage() {
	p := a.locale.Snapshot()
	printlnFn(a.T("cli.language", map[string]string{
		"lang": string(p.Language),
		"dir":  string(p.Direction),
	}))
}

// List prints a backend collection; extra name=value args become filters.
func (a *App) List(ctx context.Context, args []string) error {
	if len(args) == 0 {
		printlnFn(a.T("cli.usage_list", nil))
		return nil
	}
	filters, err := ParseFilters(args[1:])
	if err != nil {
		return err
	}
	raw, err := a.resources.List(ctx, args[0], filters)
	if err != nil {
		return err
	}
	printJSON(raw)
	return nil
}

func (a *App) Get(ctx context.Context, args []string) error {
	if len(args) < 2 {
		printlnFn(a.T("cli.usage_get", nil))
		return nil
	}
	raw, err := a.resources.Get(ctx, args[0], args[1])
	if err != nil {
		return err
	}
	printJSON(raw)
	return nil
}

var errBadProfileField = errors.New("profile accepts name and avatar")

// Profile updates the current user's name or avatar on the backend and then
// in the session. Without args it shows the profile.
func (a *App) Profile(ctx context.Context, args []string) error {
	s := a.session.Snapshot()
	if !s.IsAuthenticated() {
		printlnFn(a.T("auth.anonymous", nil))
		return nil
	}
	if len(args) == 0 {
		printlnFn(a.T("cli.usage_profile", nil))
		printlnFn(a.T("auth.whoami", whoamiParams(s.User)))
		return nil
	}

	patch, err := parseProfile(args)
	if err != nil {
		return err
	}
	if _, err := a.resources.Update(ctx, "users", strconv.FormatInt(s.User.ID, 10), patch); err != nil {
		return err
	}
	updated, err := a.session.UpdateUser(ctx, patch)
	if err != nil {
		return err
	}

	printlnFn(a.T("auth.profile_updated", nil))
	printlnFn(a.T("auth.whoami", whoamiParams(updated.User)))
	return nil
}

func parseProfile(args []string) (models.UserPatch, error) {
	var patch models.UserPatch
	values, err := ParseFilters(args)
	if err != nil {
		return patch, err
	}
	for k := range values {
		v := values.Get(k)
		switch k {
		case "name":
			patch.Name = &v
		case "avatar":
			patch.AvatarURL = &v
		default:
			return models.UserPatch{}, fmt.Errorf("%w: %q", errBadProfileField, k)
		}
	}
	return patch, nil
}

// Status prints backend reachability and how many gateway requests
// succeeded or failed so far.
func (a *App) Status(ctx context.Context) error {
	printlnFn(a.T("cli.mode", map[string]string{"mode": string(a.Mode())}))

	if a.metrics == nil {
		return nil
	}
	ok, failed, err := requestCounts(a.metrics)
	if err != nil {
		return err
	}
	printlnFn(fmt.Sprintf("requests: %d ok, %d failed", ok, failed))
	return nil
}

const requestsMetric = "carelink_gateway_requests_total"

// requestCounts sums the gateway request counter by outcome.
func requestCounts(g prometheus.Gatherer) (ok, failed int, err error) {
	families, err := g.Gather()
	if err != nil {
		return 0, 0, err
	}
	for _, mf := range families {
		if mf.GetName() != requestsMetric {
			continue
		}
		for _, m := range mf.GetMetric() {
			n := int(m.GetCounter().GetValue())
			if outcomeOf(m) == "ok" {
				ok += n
			} else {
				failed += n
			}
		}
	}
	return ok, failed, nil
}

func outcomeOf(m *dto.Metric) string {
	for _, lp := range m.GetLabel() {
		if lp.GetName() == "outcome" {
			return lp.GetValue()
		}
	}
	return ""
}

func printJSON(raw json.RawMessage) {
	if raw == nil {
		return
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		printlnFn(string(raw))
		return
	}
	printlnFn(buf.String())
}
