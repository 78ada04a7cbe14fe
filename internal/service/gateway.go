package service

import (
	"context"
	"fmt"

	"subdel/internal/config"
	"subdel/internal/model"
	"subdel/internal/pdns"
)

// ZoneGateway is the contract both DNS backends satisfy: synchronous
// zone management calls with no caching and no built-in retries. A
// REPLACE patch with zero records is equivalent to DELETE for that
// owner/type pair; compensation relies on this.
type ZoneGateway interface {
	CreateZone(ctx context.Context, name string, nameservers []string) error
	GetZone(ctx context.Context, name string) (model.Zone, error)
	PatchRRsets(ctx context.Context, zone string, rrsets []model.RRset) error
	DeleteZone(ctx context.Context, name string) error
}

// NewZoneGateway builds the gateway for one backend according to its
// configured provider.
func NewZoneGateway(gc config.GatewayConfig) (ZoneGateway, error) {
	switch gc.Provider {
	case "powerdns":
		return pdns.NewClient(gc.URL, gc.APIKey, gc.ServerID), nil
	case "route53":
		return newRoute53Gateway(gc)
	default:
		return nil, fmt.Errorf("unknown DNS provider %q", gc.Provider)
	}
}

// ZoneSettings is the immutable zone-layout configuration threaded into
// the provisioner and delegation switcher.
type ZoneSettings struct {
	BaseDomain string   // without trailing dot
	InternalNS []string // fully qualified
	SOAMName   string
	SOARName   string
	Reserved   map[string]struct{} // lowercase labels
}

// ParentZone is the fully-qualified parent zone name.
func (s ZoneSettings) ParentZone() string {
	return s.BaseDomain + "."
}

// UserZone is the fully-qualified zone name for a subdomain label.
func (s ZoneSettings) UserZone(label string) string {
	return label + "." + s.BaseDomain + "."
}

func (s ZoneSettings) isReserved(label string) bool {
	_, ok := s.Reserved[label]
	return ok
}
