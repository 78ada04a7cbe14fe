package handler

import (
	"context"
	"net/http"

	"subdel/internal/dnsname"
	"subdel/internal/model"
	"subdel/internal/util"
)

// Provisioner runs the signup saga.
type Provisioner interface {
	Provision(ctx context.Context, label, password string) error
}

// Directory is the read side of the user store the public endpoints
// need.
type Directory interface {
	SubdomainExists(ctx context.Context, subdomain string) (bool, error)
	AuthenticateUser(ctx context.Context, subdomain, password string) (*model.User, error)
	TouchLastLogin(ctx context.Context, userID int64) error
}

// Auditor records user-visible actions.
type Auditor interface {
	LogAudit(ctx context.Context, entry model.AuditEntry) error
}

type PublicHandler struct {
	provisioner Provisioner
	store       Directory
	audit       Auditor
}

func NewPublicHandler(provisioner Provisioner, store Directory, audit Auditor) *PublicHandler {
	return &PublicHandler{provisioner: provisioner, store: store, audit: audit}
}

type credentialsRequest struct {
	Subdomain string `json:"subdomain"`
	Password  string `json:"password"`
}

func (h *PublicHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}
	if len(req.Password) < 8 {
		writeBadRequest(w, "password must be at least 8 characters")
		return
	}

	if err := h.provisioner.Provision(r.Context(), req.Subdomain, req.Password); err != nil {
		writeServiceError(w, r, err)
		return
	}

	_ = h.audit.LogAudit(r.Context(), model.AuditEntry{
		Subdomain: req.Subdomain,
		Action:    "signup",
		IPAddress: util.ClientIP(r),
	})

	writeOK(w)
}

func (h *PublicHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req credentialsRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	user, err := h.store.AuthenticateUser(r.Context(), req.Subdomain, req.Password)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if user == nil {
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "invalid credentials"})
		return
	}

	_ = h.store.TouchLastLogin(r.Context(), user.ID)
	_ = h.audit.LogAudit(r.Context(), model.AuditEntry{
		Subdomain: user.Subdomain,
		Action:    "signin",
		IPAddress: util.ClientIP(r),
	})

	writeOK(w)
}

func (h *PublicHandler) CheckSubdomain(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if name == "" {
		writeBadRequest(w, "missing 'name' parameter")
		return
	}
	if err := dnsname.ValidateLabel(name); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	exists, err := h.store.SubdomainExists(r.Context(), name)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"available": !exists})
}
