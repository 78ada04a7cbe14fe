package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"subdel/internal/auth"
	"subdel/internal/model"
)

type stubProvisioner struct {
	err      error
	label    string
	password string
}

func (p *stubProvisioner) Provision(_ context.Context, label, password string) error {
	p.label, p.password = label, password
	return p.err
}

type stubDirectory struct {
	user      *model.User
	exists    bool
	existsErr error
	touched   []int64
}

func (d *stubDirectory) SubdomainExists(_ context.Context, subdomain string) (bool, error) {
	return d.exists, d.existsErr
}

func (d *stubDirectory) AuthenticateUser(_ context.Context, subdomain, password string) (*model.User, error) {
	if d.user != nil && d.user.Subdomain == subdomain && password == "correct horse" {
		return d.user, nil
	}
	return nil, nil
}

func (d *stubDirectory) TouchLastLogin(_ context.Context, userID int64) error {
	d.touched = append(d.touched, userID)
	return nil
}

type stubAuditor struct {
	entries []model.AuditEntry
}

func (a *stubAuditor) LogAudit(_ context.Context, entry model.AuditEntry) error {
	a.entries = append(a.entries, entry)
	return nil
}

func (a *stubAuditor) lastAction(t *testing.T) string {
	t.Helper()
	if len(a.entries) == 0 {
		t.Fatal("expected an audit entry")
	}
	return a.entries[len(a.entries)-1].Action
}

// asUser wraps h in the Basic-auth middleware with user as the only
// valid account; requests built by authedRequest pass it.
func asUser(user *model.User, h http.HandlerFunc) http.Handler {
	return auth.New(&stubDirectory{user: user}).Middleware(h)
}

func authedRequest(method, target string, body io.Reader, user *model.User) *http.Request {
	r := httptest.NewRequest(method, target, body)
	r.SetBasicAuth(user.Subdomain, "correct horse")
	return r
}

func jsonBody(t *testing.T, v any) io.Reader {
	t.Helper()
	raw, err := json.Marshal(v)
	if err != nil {
		t.Fatal(err)
	}
	return bytes.NewReader(raw)
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder, out any) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), out); err != nil {
		t.Fatalf("decoding response %q: %v", w.Body.String(), err)
	}
}
