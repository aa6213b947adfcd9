package directory

import (
	"encoding/binary"
	"fmt"
	"strconv"
	"strings"

	ldap "github.com/go-ldap/ldap/v3"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/config"
)

// AttributeFilter transforms one attribute while a directory entry is
// read. Filters run as a chain: each receives the value produced by the
// previous one. The implicit "read" filter runs first for attributes
// included in the query.
type AttributeFilter interface {
	Execute(current Value, entry *ldap.Entry, job *config.JobConfig, attr config.AttributeConfig) (Value, error)
}

// NewAttributeFilter returns the attribute filter registered under the
// given name.
func NewAttributeFilter(name string) (AttributeFilter, error) {
	switch name {
	case "read":
		return readLdapFilter{}, nil
	case "groups":
		return groupsFilter{}, nil
	case "domain":
		return domainFilter{}, nil
	case "uac":
		return uacFilter{}, nil
	case "guid":
		return guidFilter{}, nil
	case "sid":
		return sidFilter{}, nil
	default:
		return nil, fmt.Errorf("unknown attribute filter [%s]", name)
	}
}

// FiltersFor builds the filter chain for one attribute: the read filter
// when the attribute is part of the query, then the configured filters in
// order.
func FiltersFor(attr config.AttributeConfig) ([]AttributeFilter, error) {
	var filters []AttributeFilter
	if attr.IncludeInQuery == nil || *attr.IncludeInQuery {
		filters = append(filters, readLdapFilter{})
	}
	for _, name := range strings.Split(attr.Filter, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		filter, err := NewAttributeFilter(name)
		if err != nil {
			return nil, err
		}
		filters = append(filters, filter)
	}
	return filters, nil
}

// readLdapFilter reads the attribute's first raw value from the entry
type readLdapFilter struct{}

func (readLdapFilter) Execute(current Value, entry *ldap.Entry, job *config.JobConfig, attr config.AttributeConfig) (Value, error) {
	values := entry.GetAttributeValues(attr.Name)
	if len(values) == 0 {
		return nil, nil
	}
	return Scalar(values[0]), nil
}

// groupsFilter turns the group membership DN list into a MultiValue of
// DN to group name. When the job carries an allowed-group list only
// matching groups survive; an empty list allows everything. A configured
// prefix is stripped from names before matching.
type groupsFilter struct{}

func (groupsFilter) Execute(current Value, entry *ldap.Entry, job *config.JobConfig, attr config.AttributeConfig) (Value, error) {
	allowed := make(map[string]struct{}, len(job.AllowedGroups))
	for _, name := range job.AllowedGroups {
		allowed[name] = struct{}{}
	}

	groups := MultiValue{}
	for _, dn := range entry.GetAttributeValues(attr.Name) {
		name := ParseDN(dn).CommonName
		if job.RemoveGroupPrefix != "" {
			name = strings.ReplaceAll(name, job.RemoveGroupPrefix, "")
		}
		if _, ok := allowed[name]; ok || len(allowed) == 0 {
			groups[dn] = name
		}
	}
	return groups, nil
}

// domainFilter extracts the first domain component of the entry's DN
type domainFilter struct{}

func (domainFilter) Execute(current Value, entry *ldap.Entry, job *config.JobConfig, attr config.AttributeConfig) (Value, error) {
	dn := entry.GetAttributeValue(AttributeDistinguishedName)
	if dn == "" {
		return nil, nil
	}
	components := ParseDN(dn).DomainComponents
	if len(components) == 0 {
		return nil, nil
	}
	return Scalar(components[0]), nil
}

// uacFilter maps the userAccountControl flags to an active marker. Bit
// 0x2 is ACCOUNTDISABLE; a missing value counts as active.
type uacFilter struct{}

func (uacFilter) Execute(current Value, entry *ldap.Entry, job *config.JobConfig, attr config.AttributeConfig) (Value, error) {
	scalar, ok := current.(Scalar)
	if !ok || scalar == "" {
		return Scalar("True"), nil
	}
	flags, err := strconv.Atoi(string(scalar))
	if err != nil {
		return Scalar("True"), nil
	}
	if flags&0x2 != 0 {
		return Scalar("False"), nil
	}
	return Scalar("True"), nil
}

// guidFilter renders a binary objectGUID as its canonical string form.
// The first three fields are stored little-endian on the wire.
type guidFilter struct{}

func (guidFilter) Execute(current Value, entry *ldap.Entry, job *config.JobConfig, attr config.AttributeConfig) (Value, error) {
	raw := entry.GetRawAttributeValue(attr.Name)
	if len(raw) != 16 {
		return Scalar(""), nil
	}
	return Scalar(fmt.Sprintf("%08x-%04x-%04x-%04x-%012x",
		binary.LittleEndian.Uint32(raw[0:4]),
		binary.LittleEndian.Uint16(raw[4:6]),
		binary.LittleEndian.Uint16(raw[6:8]),
		binary.BigEndian.Uint16(raw[8:10]),
		raw[10:16])), nil
}

// sidFilter renders a binary objectSid in the S-1-... form
type sidFilter struct{}

func (sidFilter) Execute(current Value, entry *ldap.Entry, job *config.JobConfig, attr config.AttributeConfig) (Value, error) {
	raw := entry.GetRawAttributeValue(attr.Name)
	if len(raw) < 8 {
		return Scalar(""), nil
	}
	revision := raw[0]
	subCount := int(raw[1])
	if len(raw) < 8+subCount*4 {
		return Scalar(""), nil
	}

	var authority uint64
	for i := 2; i < 8; i++ {
		authority = authority<<8 | uint64(raw[i])
	}

	var sid strings.Builder
	fmt.Fprintf(&sid, "S-%d-%d", revision, authority)
	for i := 0; i < subCount; i++ {
		fmt.Fprintf(&sid, "-%d", binary.LittleEndian.Uint32(raw[8+i*4:]))
	}
	return Scalar(sid.String()), nil
}
