// Package dnsname validates and canonicalizes the names this service
// accepts: subdomain labels chosen at signup and fully-qualified
// nameserver targets. Canonical form always carries the trailing dot.
package dnsname

import (
	"fmt"
	"strings"

	"github.com/miekg/dns"
)

const maxLabelLen = 63

// ValidateLabel checks a user-chosen subdomain label: 1-63 chars,
// lowercase ASCII letters/digits/hyphen, no leading/trailing hyphen,
// no consecutive hyphens.
func ValidateLabel(label string) error {
	if label == "" {
		return fmt.Errorf("subdomain is empty")
	}
	if len(label) > maxLabelLen {
		return fmt.Errorf("subdomain too long (max %d characters)", maxLabelLen)
	}
	for _, c := range label {
		if !(c >= 'a' && c <= 'z' || c >= '0' && c <= '9' || c == '-') {
			return fmt.Errorf("subdomain contains invalid characters (only a-z, 0-9 and '-' allowed)")
		}
	}
	if strings.HasPrefix(label, "-") || strings.HasSuffix(label, "-") {
		return fmt.Errorf("subdomain must not start or end with '-'")
	}
	if strings.Contains(label, "--") {
		return fmt.Errorf("subdomain must not contain consecutive '--'")
	}
	return nil
}

// ValidateFQDN checks a dot-terminated fully-qualified domain name,
// e.g. an external nameserver target submitted by a user.
func ValidateFQDN(name string) error {
	if name == "" {
		return fmt.Errorf("domain name is empty")
	}
	if !strings.HasSuffix(name, ".") {
		return fmt.Errorf("domain name %q must end with a dot", name)
	}
	if _, ok := dns.IsDomainName(name); !ok {
		return fmt.Errorf("invalid domain name %q", name)
	}
	for _, label := range strings.Split(strings.TrimSuffix(name, "."), ".") {
		if err := ValidateLabel(strings.ToLower(label)); err != nil {
			return fmt.Errorf("invalid domain name %q: %w", name, err)
		}
	}
	return nil
}

// Normalize lowercases a name and appends the trailing dot.
func Normalize(name string) string {
	return dns.Fqdn(strings.ToLower(strings.TrimSpace(name)))
}

// InZone reports whether child equals zone or is a subdomain of it,
// comparing whole dot-delimited labels. Both must be canonical.
func InZone(child, zone string) bool {
	return dns.IsSubDomain(zone, child)
}
