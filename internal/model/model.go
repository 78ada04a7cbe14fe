package model

import "time"

// Zone is the authoritative view of a DNS zone as returned by a backend.
// Name is always fully qualified with a trailing dot.
type Zone struct {
	ID     string  `json:"id,omitempty"`
	Name   string  `json:"name"`
	Kind   string  `json:"kind,omitempty"`
	RRsets []RRset `json:"rrsets,omitempty"`
}

// RRset is the atomic unit of a zone write. Every record sharing
// (Name, Type) carries one TTL. ChangeType is only set on patches.
type RRset struct {
	Name       string   `json:"name"`
	Type       string   `json:"type"`
	TTL        uint32   `json:"ttl"`
	ChangeType string   `json:"changetype,omitempty"`
	Records    []Record `json:"records"`
}

// Record is a single value inside an RRset.
type Record struct {
	Content  string `json:"content"`
	Disabled bool   `json:"disabled"`
}

// RecordInput is one client-submitted record before reconciliation.
type RecordInput struct {
	Name    string `json:"name"`
	Type    string `json:"type"`
	TTL     uint32 `json:"ttl"`
	Content string `json:"content"`
}

// MaxExternalNS is the number of external nameserver slots per user row.
const MaxExternalNS = 6

type User struct {
	ID              int64
	Subdomain       string
	PassHash        string
	ExternalNS      bool
	ExternalNSSlots [MaxExternalNS]*string
	CreatedAt       time.Time
	UpdatedAt       time.Time
	LastLoginAt     *time.Time
}

// ExternalNameservers returns the populated NS slots in order.
func (u *User) ExternalNameservers() []string {
	var out []string
	for _, ns := range u.ExternalNSSlots {
		if ns != nil && *ns != "" {
			out = append(out, *ns)
		}
	}
	return out
}

type AuditEntry struct {
	ID         int64
	Subdomain  string
	Action     string
	RecordName string
	RecordType string
	Detail     string
	IPAddress  string
	CreatedAt  time.Time
}
