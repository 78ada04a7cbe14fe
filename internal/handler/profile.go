package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"subdel/internal/auth"
	"subdel/internal/model"
	"subdel/internal/util"
)

// Switcher toggles a zone between operator and external nameservers.
type Switcher interface {
	SwitchToOperator(ctx context.Context, user *model.User) error
	SwitchToExternal(ctx context.Context, user *model.User, nameservers []string) error
}

type ProfileHandler struct {
	switcher Switcher
	audit    Auditor
}

func NewProfileHandler(switcher Switcher, audit Auditor) *ProfileHandler {
	return &ProfileHandler{switcher: switcher, audit: audit}
}

type profileResponse struct {
	Subdomain   string     `json:"subdomain"`
	ExternalNS  bool       `json:"external_ns"`
	Nameservers []string   `json:"nameservers"`
	CreatedAt   time.Time  `json:"created_at"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
}

func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	ns := user.ExternalNameservers()
	if ns == nil {
		ns = []string{}
	}

	writeJSON(w, http.StatusOK, profileResponse{
		Subdomain:   user.Subdomain,
		ExternalNS:  user.ExternalNS,
		Nameservers: ns,
		CreatedAt:   user.CreatedAt,
		LastLoginAt: user.LastLoginAt,
	})
}

func (h *ProfileHandler) SetNSInternal(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	if err := h.switcher.SwitchToOperator(r.Context(), user); err != nil {
		writeServiceError(w, r, err)
		return
	}

	_ = h.audit.LogAudit(r.Context(), model.AuditEntry{
		Subdomain: user.Subdomain,
		Action:    "ns_mode_internal",
		IPAddress: util.ClientIP(r),
	})

	writeOK(w)
}

type externalNSRequest struct {
	NS []string `json:"ns"`
}

func (h *ProfileHandler) SetNSExternal(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	var req externalNSRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	if err := h.switcher.SwitchToExternal(r.Context(), user, req.NS); err != nil {
		writeServiceError(w, r, err)
		return
	}

	_ = h.audit.LogAudit(r.Context(), model.AuditEntry{
		Subdomain: user.Subdomain,
		Action:    "ns_mode_external",
		Detail:    strings.Join(req.NS, " "),
		IPAddress: util.ClientIP(r),
	})

	writeOK(w)
}
