package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"subdel/internal/database"
	"subdel/internal/dnsname"
	"subdel/internal/model"
)

const (
	delegationTTL = 300
	apexTTL       = 3600
)

// UserStore is the slice of the relational store the saga and the
// delegation switcher depend on. Subdomain uniqueness is enforced by
// the store itself; CreateUser reports a lost race as
// database.ErrSubdomainTaken.
type UserStore interface {
	SubdomainExists(ctx context.Context, subdomain string) (bool, error)
	CreateUser(ctx context.Context, subdomain, password string) (int64, error)
	SetDelegation(ctx context.Context, userID int64, external bool, ns []string) error
}

// Provisioner runs the signup saga: ordered forward steps against the
// sub DNS server, the base DNS server and the user store, with
// best-effort reverse compensation when a later step fails. The store's
// unique constraint is the single arbiter of subdomain ownership; DNS
// writes before it are optimistic.
type Provisioner struct {
	settings ZoneSettings
	base     ZoneGateway
	sub      ZoneGateway
	store    UserStore
	now      func() time.Time
}

func NewProvisioner(settings ZoneSettings, base, sub ZoneGateway, store UserStore) *Provisioner {
	return &Provisioner{
		settings: settings,
		base:     base,
		sub:      sub,
		store:    store,
		now:      time.Now,
	}
}

// Provision claims label for a new user. No mutation happens before all
// pre-checks pass; afterwards the sub zone, the parent delegation and
// the user row are created in that order.
func (p *Provisioner) Provision(ctx context.Context, label, password string) error {
	if err := dnsname.ValidateLabel(label); err != nil {
		return &Error{Kind: KindValidation, Msg: err.Error()}
	}
	if p.settings.isReserved(label) {
		return validationf("subdomain %q is reserved", label)
	}

	exists, err := p.store.SubdomainExists(ctx, label)
	if err != nil {
		return upstream("checking subdomain ownership", err)
	}
	if exists {
		return conflictf("subdomain %q is already taken", label)
	}

	zone := p.settings.UserZone(label)

	// The store is the source of truth, but a leftover delegation from
	// an earlier half-failed signup means the label is not safely
	// claimable until an operator cleans it up.
	delegated, err := p.delegationExists(ctx, zone)
	if err != nil {
		return upstream("checking existing delegation", err)
	}
	if delegated {
		return conflictf("subdomain %q is already delegated", label)
	}

	if len(p.settings.InternalNS) == 0 {
		return upstream("provisioning", fmt.Errorf("no internal nameservers configured"))
	}

	if err := p.sub.CreateZone(ctx, zone, p.settings.InternalNS); err != nil {
		return upstream("creating user zone", err)
	}

	if err := p.sub.PatchRRsets(ctx, zone, p.apexRRsets(zone)); err != nil {
		p.compensate(ctx, zone)
		return upstream("writing user zone apex records", err)
	}

	delegation := nsReplace(zone, p.settings.InternalNS)
	if err := p.base.PatchRRsets(ctx, p.settings.ParentZone(), []model.RRset{delegation}); err != nil {
		p.compensate(ctx, zone)
		return upstream("writing parent delegation", err)
	}

	if _, err := p.store.CreateUser(ctx, label, password); err != nil {
		p.compensate(ctx, zone)
		if errors.Is(err, database.ErrSubdomainTaken) {
			return conflictf("subdomain %q is already taken", label)
		}
		return upstream("creating user", err)
	}

	return nil
}

func (p *Provisioner) delegationExists(ctx context.Context, zone string) (bool, error) {
	parent, err := p.base.GetZone(ctx, p.settings.ParentZone())
	if err != nil {
		return false, err
	}
	for _, set := range parent.RRsets {
		if set.Type == "NS" && dnsname.Normalize(set.Name) == zone {
			return true, nil
		}
	}
	return false, nil
}

// compensate reverses the optimistic DNS writes. Failures here are
// logged and swallowed: the caller reports the original error, and the
// pre-checks on a retried signup re-detect anything left behind.
func (p *Provisioner) compensate(ctx context.Context, zone string) {
	parent := p.settings.ParentZone()
	if err := p.base.PatchRRsets(ctx, parent, []model.RRset{nsDelete(zone)}); err != nil {
		log.Printf("compensation: failed to remove delegation for %s from %s: %v", zone, parent, err)
	}
	if err := p.sub.DeleteZone(ctx, zone); err != nil {
		log.Printf("compensation: failed to delete zone %s: %v", zone, err)
	}
}

func (p *Provisioner) apexRRsets(zone string) []model.RRset {
	soa := fmt.Sprintf("%s %s %d 10800 3600 604800 3600",
		p.settings.SOAMName, p.settings.SOARName, dateSerial(p.now()))

	return []model.RRset{
		{
			Name:       zone,
			Type:       "SOA",
			TTL:        apexTTL,
			ChangeType: "REPLACE",
			Records:    []model.Record{{Content: soa}},
		},
		nsReplace(zone, p.settings.InternalNS),
	}
}

// dateSerial mints a fresh YYYYMMDDnn zone serial.
func dateSerial(now time.Time) uint32 {
	d := now.UTC()
	return uint32(d.Year()*1000000 + int(d.Month())*10000 + d.Day()*100 + 1)
}

func nsReplace(owner string, nameservers []string) model.RRset {
	set := model.RRset{
		Name:       owner,
		Type:       "NS",
		TTL:        delegationTTL,
		ChangeType: "REPLACE",
	}
	for _, ns := range nameservers {
		set.Records = append(set.Records, model.Record{Content: ns})
	}
	return set
}

// nsDelete is the empty-record DELETE idiom used for compensation.
func nsDelete(owner string) model.RRset {
	return model.RRset{
		Name:       owner,
		Type:       "NS",
		ChangeType: "DELETE",
		Records:    []model.Record{},
	}
}
