package service

import (
	"context"

	"subdel/internal/dnsname"
	"subdel/internal/model"
)

// Switcher moves a user's zone between operator-managed and
// user-supplied nameservers. Both directions write DNS first and the
// store second: a delegation overwrite is idempotent, so a retry after
// a store failure converges without compensation.
type Switcher struct {
	settings ZoneSettings
	base     ZoneGateway
	store    UserStore
}

func NewSwitcher(settings ZoneSettings, base ZoneGateway, store UserStore) *Switcher {
	return &Switcher{settings: settings, base: base, store: store}
}

// SwitchToOperator points the parent delegation back at the internal
// nameservers and clears the user's external NS fields.
func (s *Switcher) SwitchToOperator(ctx context.Context, user *model.User) error {
	zone := s.settings.UserZone(user.Subdomain)

	delegation := nsReplace(zone, s.settings.InternalNS)
	if err := s.base.PatchRRsets(ctx, s.settings.ParentZone(), []model.RRset{delegation}); err != nil {
		return upstream("updating parent delegation", err)
	}

	if err := s.store.SetDelegation(ctx, user.ID, false, nil); err != nil {
		return upstream("clearing delegation mode", err)
	}
	return nil
}

// SwitchToExternal points the parent delegation at 1 to 6 user-supplied
// nameservers and persists them.
func (s *Switcher) SwitchToExternal(ctx context.Context, user *model.User, nameservers []string) error {
	if len(nameservers) == 0 {
		return validationf("at least one nameserver is required")
	}
	if len(nameservers) > model.MaxExternalNS {
		return validationf("at most %d nameservers are allowed", model.MaxExternalNS)
	}
	for _, ns := range nameservers {
		if err := dnsname.ValidateFQDN(ns); err != nil {
			return &Error{Kind: KindValidation, Msg: err.Error()}
		}
	}

	zone := s.settings.UserZone(user.Subdomain)

	delegation := nsReplace(zone, nameservers)
	if err := s.base.PatchRRsets(ctx, s.settings.ParentZone(), []model.RRset{delegation}); err != nil {
		return upstream("updating parent delegation", err)
	}

	if err := s.store.SetDelegation(ctx, user.ID, true, nameservers); err != nil {
		return upstream("persisting delegation mode", err)
	}
	return nil
}
