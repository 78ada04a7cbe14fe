package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"subdel/internal/database"
	"subdel/internal/model"
)

func testSettings() ZoneSettings {
	return ZoneSettings{
		BaseDomain: "example.com",
		InternalNS: []string{"ns1.example.net.", "ns2.example.net."},
		SOAMName:   "ns1.example.net.",
		SOARName:   "hostmaster.example.com.",
		Reserved:   map[string]struct{}{"www": {}, "mail": {}},
	}
}

// fakeGateway is an in-memory ZoneGateway with last-write-wins RRset
// semantics and per-operation error injection.
type fakeGateway struct {
	mu    sync.Mutex
	zones map[string]*model.Zone
	fail  map[string]error
	ops   []string
}

func newFakeGateway(zones ...string) *fakeGateway {
	g := &fakeGateway{
		zones: map[string]*model.Zone{},
		fail:  map[string]error{},
	}
	for _, name := range zones {
		g.zones[name] = &model.Zone{Name: name, Kind: "Native"}
	}
	return g
}

func (g *fakeGateway) failOn(op string, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.fail[op] = err
}

func (g *fakeGateway) record(op string) error {
	g.ops = append(g.ops, op)
	return g.fail[op]
}

func (g *fakeGateway) CreateZone(_ context.Context, name string, nameservers []string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("create"); err != nil {
		return err
	}
	g.zones[name] = &model.Zone{Name: name, Kind: "Native"}
	return nil
}

func (g *fakeGateway) GetZone(_ context.Context, name string) (model.Zone, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("get"); err != nil {
		return model.Zone{}, err
	}
	zone, ok := g.zones[name]
	if !ok {
		return model.Zone{}, fmt.Errorf("zone %s not found", name)
	}
	return *zone, nil
}

func (g *fakeGateway) PatchRRsets(_ context.Context, zoneName string, rrsets []model.RRset) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("patch"); err != nil {
		return err
	}
	zone, ok := g.zones[zoneName]
	if !ok {
		return fmt.Errorf("zone %s not found", zoneName)
	}
	for _, set := range rrsets {
		kept := zone.RRsets[:0]
		for _, existing := range zone.RRsets {
			if existing.Name != set.Name || existing.Type != set.Type {
				kept = append(kept, existing)
			}
		}
		zone.RRsets = kept
		if !strings.EqualFold(set.ChangeType, "DELETE") && len(set.Records) > 0 {
			set.ChangeType = ""
			zone.RRsets = append(zone.RRsets, set)
		}
	}
	return nil
}

func (g *fakeGateway) DeleteZone(_ context.Context, name string) error {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err := g.record("delete"); err != nil {
		return err
	}
	delete(g.zones, name)
	return nil
}

func (g *fakeGateway) rrset(t *testing.T, zoneName, owner, rrtype string) *model.RRset {
	t.Helper()
	g.mu.Lock()
	defer g.mu.Unlock()
	zone, ok := g.zones[zoneName]
	if !ok {
		return nil
	}
	for i := range zone.RRsets {
		if zone.RRsets[i].Name == owner && zone.RRsets[i].Type == rrtype {
			return &zone.RRsets[i]
		}
	}
	return nil
}

func (g *fakeGateway) hasZone(name string) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	_, ok := g.zones[name]
	return ok
}

// fakeStore enforces subdomain uniqueness under a mutex, standing in
// for the database's unique constraint.
type fakeStore struct {
	mu        sync.Mutex
	users     map[string]*model.User
	nextID    int64
	existsErr error
	createErr error
	setErr    error
}

func newFakeStore() *fakeStore {
	return &fakeStore{users: map[string]*model.User{}}
}

func (s *fakeStore) SubdomainExists(_ context.Context, subdomain string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.existsErr != nil {
		return false, s.existsErr
	}
	_, ok := s.users[subdomain]
	return ok, nil
}

func (s *fakeStore) CreateUser(_ context.Context, subdomain, password string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.createErr != nil {
		return 0, s.createErr
	}
	if _, ok := s.users[subdomain]; ok {
		return 0, database.ErrSubdomainTaken
	}
	s.nextID++
	s.users[subdomain] = &model.User{
		ID:        s.nextID,
		Subdomain: subdomain,
		CreatedAt: time.Now(),
	}
	return s.nextID, nil
}

func (s *fakeStore) SetDelegation(_ context.Context, userID int64, external bool, ns []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.setErr != nil {
		return s.setErr
	}
	for _, u := range s.users {
		if u.ID == userID {
			u.ExternalNS = external
			u.ExternalNSSlots = [model.MaxExternalNS]*string{}
			for i := range ns {
				v := ns[i]
				u.ExternalNSSlots[i] = &v
			}
			return nil
		}
	}
	return fmt.Errorf("user %d not found", userID)
}

func (s *fakeStore) user(subdomain string) *model.User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.users[subdomain]
}
