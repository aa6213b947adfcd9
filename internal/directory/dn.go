package directory

import "strings"

// DistinguishedName is a parsed LDAP distinguished name. Organization
// units are stored outermost first, the reverse of their order in the DN
// text.
type DistinguishedName struct {
	DN                string
	CommonName        string
	OrganizationUnits []string
	DomainComponents  []string
}

// ParseDN parses a distinguished name into its CN, OU and DC components.
// Unknown or malformed segments are ignored.
func ParseDN(dn string) DistinguishedName {
	parsed := DistinguishedName{DN: dn}

	for _, seg := range strings.Split(dn, ",") {
		parts := strings.SplitN(strings.TrimSpace(seg), "=", 2)
		if len(parts) != 2 {
			continue
		}
		switch strings.ToLower(parts[0]) {
		case "cn":
			parsed.CommonName = parts[1]
		case "ou":
			parsed.OrganizationUnits = append([]string{parts[1]}, parsed.OrganizationUnits...)
		case "dc":
			parsed.DomainComponents = append(parsed.DomainComponents, parts[1])
		}
	}
	return parsed
}

// DomainName returns the domain components as a dot separated name
func (d DistinguishedName) DomainName() string {
	return strings.Join(d.DomainComponents, ".")
}

// OrganizationPath returns the organization units as a backslash
// separated path, outermost unit first.
func (d DistinguishedName) OrganizationPath() string {
	return strings.Join(d.OrganizationUnits, "\\")
}
