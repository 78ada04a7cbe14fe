package service

import (
	"strings"

	"subdel/internal/dnsname"
	"subdel/internal/model"
)

// Reconciler turns a client-submitted flat record list into a minimal,
// validated list of REPLACE RRsets for one zone. It is a pure
// transformation: the same input always yields the same output.
//
// The apex SOA is server-managed and the apex NS set is only changed
// through the delegation switch, so edits to either are rejected here.
type Reconciler struct{}

type rrKey struct {
	name   string
	rrtype string
}

// Reconcile validates and groups records relative to zoneApex (which
// must be fully qualified). Group order follows first appearance in the
// input, record order within a group follows input order.
func (Reconciler) Reconcile(zoneApex string, records []model.RecordInput) ([]model.RRset, error) {
	var order []rrKey
	groups := make(map[rrKey]*model.RRset)

	for _, rec := range records {
		if rec.TTL == 0 {
			return nil, validationf("record %q %s: ttl must be greater than zero", rec.Name, rec.Type)
		}

		owner, err := normalizeOwner(rec.Name, zoneApex)
		if err != nil {
			return nil, err
		}

		rrtype := strings.ToUpper(strings.TrimSpace(rec.Type))
		if rrtype == "SOA" {
			return nil, validationf("the SOA record is managed by the server and cannot be edited")
		}
		if rrtype == "NS" && owner == zoneApex {
			return nil, validationf("apex NS records are managed through the nameserver mode setting")
		}

		key := rrKey{name: owner, rrtype: rrtype}
		set, ok := groups[key]
		if !ok {
			set = &model.RRset{
				Name:       owner,
				Type:       rrtype,
				TTL:        rec.TTL,
				ChangeType: "REPLACE",
			}
			groups[key] = set
			order = append(order, key)
		} else if set.TTL != rec.TTL {
			return nil, validationf("conflicting TTLs for %s %s: all records of one name and type must share a TTL", owner, rrtype)
		}
		set.Records = append(set.Records, model.Record{Content: rec.Content})
	}

	out := make([]model.RRset, 0, len(order))
	for _, key := range order {
		out = append(out, *groups[key])
	}
	return out, nil
}

// normalizeOwner resolves a submitted record name against the zone
// apex. Empty or "@" selects the apex; an absolute name must stay
// inside the zone; a relative name is appended to the apex.
func normalizeOwner(name, zoneApex string) (string, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" || name == "@" {
		return zoneApex, nil
	}
	if strings.HasSuffix(name, ".") {
		if !dnsname.InZone(name, zoneApex) {
			return "", validationf("record name %q is outside zone %s", name, zoneApex)
		}
		return name, nil
	}
	return name + "." + zoneApex, nil
}
