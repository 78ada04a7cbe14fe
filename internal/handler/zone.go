package handler

import (
	"fmt"
	"net/http"

	"subdel/internal/auth"
	"subdel/internal/model"
	"subdel/internal/service"
	"subdel/internal/util"
)

type ZoneHandler struct {
	sub        service.ZoneGateway
	settings   service.ZoneSettings
	reconciler service.Reconciler
	audit      Auditor
}

func NewZoneHandler(sub service.ZoneGateway, settings service.ZoneSettings, audit Auditor) *ZoneHandler {
	return &ZoneHandler{sub: sub, settings: settings, audit: audit}
}

// Get returns the user's zone as a flat record list. The apex NS set is
// omitted: it belongs to the delegation mode, not to record editing.
func (h *ZoneHandler) Get(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())
	zoneName := h.settings.UserZone(user.Subdomain)

	zone, err := h.sub.GetZone(r.Context(), zoneName)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	records := []model.RecordInput{}
	for _, set := range zone.RRsets {
		if set.Type == "NS" && set.Name == zoneName {
			continue
		}
		for _, rec := range set.Records {
			records = append(records, model.RecordInput{
				Name:    set.Name,
				Type:    set.Type,
				TTL:     set.TTL,
				Content: rec.Content,
			})
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{"records": records})
}

type zoneUpdateRequest struct {
	Records []model.RecordInput `json:"records"`
}

// Put replaces the user's editable records with the submitted set,
// reconciled into grouped RRset replaces.
func (h *ZoneHandler) Put(w http.ResponseWriter, r *http.Request) {
	user := auth.UserFrom(r.Context())
	zoneName := h.settings.UserZone(user.Subdomain)

	var req zoneUpdateRequest
	if err := decodeJSON(r.Body, &req); err != nil {
		writeBadRequest(w, err.Error())
		return
	}

	rrsets, err := h.reconciler.Reconcile(zoneName, req.Records)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	if err := h.sub.PatchRRsets(r.Context(), zoneName, rrsets); err != nil {
		writeServiceError(w, r, err)
		return
	}

	_ = h.audit.LogAudit(r.Context(), model.AuditEntry{
		Subdomain: user.Subdomain,
		Action:    "update_zone",
		Detail:    fmt.Sprintf("%d rrsets", len(rrsets)),
		IPAddress: util.ClientIP(r),
	})

	writeOK(w)
}
