package handler

import (
	"context"
	"net/http"
	"strconv"
	"time"

	"subdel/internal/auth"
	"subdel/internal/model"
)

// AuditReader is the read side of the audit log.
type AuditReader interface {
	ListAuditLog(ctx context.Context, subdomain string, limit int) ([]model.AuditEntry, error)
}

type AuditHandler struct {
	reader AuditReader
}

func NewAuditHandler(reader AuditReader) *AuditHandler {
	return &AuditHandler{reader: reader}
}

const (
	defaultAuditLimit = 50
	maxAuditLimit     = 200
)

type auditEntryResponse struct {
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	IPAddress string    `json:"ip_address"`
	CreatedAt time.Time `json:"created_at"`
}

// List returns the caller's recent audit entries, newest first.
func (h *AuditHandler) List(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())

	limit := defaultAuditLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			writeBadRequest(w, "limit must be a positive integer")
			return
		}
		if n > maxAuditLimit {
			n = maxAuditLimit
		}
		limit = n
	}

	entries, err := h.reader.ListAuditLog(r.Context(), user.Subdomain, limit)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	out := make([]auditEntryResponse, 0, len(entries))
	for _, e := range entries {
		out = append(out, auditEntryResponse{
			Action:    e.Action,
			Detail:    e.Detail,
			IPAddress: e.IPAddress,
			CreatedAt: e.CreatedAt,
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{"entries": out})
}
