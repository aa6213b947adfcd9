package directory

import (
	"context"
	"fmt"
	"strings"

	ldap "github.com/go-ldap/ldap/v3"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/cache"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/config"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
)

const (
	defaultLdapQuery = "(&(objectCategory=person)(objectClass=user))"
	pageSize         = 1000
)

// ldapConn is the subset of *ldap.Conn the connector uses
type ldapConn interface {
	Bind(username, password string) error
	SearchWithPaging(req *ldap.SearchRequest, pagingSize uint32) (*ldap.SearchResult, error)
	Close() error
}

// LDAPConnector reads users from an LDAP directory with paged searches,
// applying the configured attribute filters and the standard user filters
// (change detection, group membership).
type LDAPConnector struct {
	logger *logger.Logger
	caches *cache.Factory

	dial func(addr string) (ldapConn, error)
}

// NewLDAPConnector creates an LDAP connector
func NewLDAPConnector(log *logger.Logger, caches *cache.Factory) *LDAPConnector {
	return &LDAPConnector{
		logger: log,
		caches: caches,
		dial: func(addr string) (ldapConn, error) {
			return ldap.DialURL(addr)
		},
	}
}

// BaseDN builds the search base from a dotted domain and an optional OU
// segment.
func BaseDN(domain, ou string) string {
	var parts []string
	if ou != "" {
		parts = append(parts, ou)
	}
	for _, seg := range strings.Split(domain, ".") {
		parts = append(parts, "DC="+seg)
	}
	return strings.Join(parts, ",")
}

// Users starts a paged search for the job's users and streams records
// through the returned channel. Configuration problems surface before the
// directory is contacted.
func (c *LDAPConnector) Users(ctx context.Context, job *config.JobConfig) (<-chan UserResult, error) {
	if job.Domain == "" {
		return nil, &config.ConfigurationError{
			Message: fmt.Sprintf("job %s is missing the directory domain", job.Name),
		}
	}

	chains := make(map[string][]AttributeFilter, len(job.Attributes))
	for _, attr := range job.Attributes {
		chain, err := FiltersFor(attr)
		if err != nil {
			return nil, &config.ConfigurationError{
				Message: fmt.Sprintf("job %s attribute %s: %v", job.Name, attr.Name, err),
			}
		}
		chains[attr.Name] = chain
	}

	store, err := c.caches.Open(job.Name, false)
	if err != nil {
		return nil, err
	}

	userFilters := []UserFilter{
		NewChangeFilter(store),
		&GroupMembershipFilter{Attribute: membershipAttribute(job)},
	}

	results := make(chan UserResult)
	go func() {
		defer close(results)
		defer func() {
			if err := store.Flush(); err != nil {
				c.logger.WithJob(job.Name).Errorf("failed to flush user cache: %v", err)
			}
		}()

		addr := "ldap://" + job.Domain
		c.logger.WithJob(job.Name).Infof("connecting to %s", addr)

		conn, err := c.dial(addr)
		if err != nil {
			c.send(ctx, results, UserResult{Err: err})
			return
		}
		defer conn.Close()

		if job.Username != "" && job.Password != "" {
			if err := conn.Bind(job.Username, job.Password); err != nil {
				c.send(ctx, results, UserResult{Err: err})
				return
			}
		}

		query := job.LdapQuery
		if query == "" {
			query = defaultLdapQuery
		}
		c.logger.WithJob(job.Name).Debugf("beginning search for users: %s", query)

		req := ldap.NewSearchRequest(
			BaseDN(job.Domain, job.Ou),
			ldap.ScopeWholeSubtree, ldap.NeverDerefAliases, 0, 0, false,
			query, job.QueryAttributes(), nil,
		)

		res, err := conn.SearchWithPaging(req, pageSize)
		if err != nil {
			c.send(ctx, results, UserResult{Err: err})
			return
		}

		for _, entry := range res.Entries {
			record, err := c.buildRecord(entry, job, chains)
			if err != nil {
				if !c.send(ctx, results, UserResult{Err: err}) {
					return
				}
				continue
			}

			for _, filter := range userFilters {
				record, err = filter.Execute(record, job)
				if err != nil || record == nil {
					break
				}
			}
			if err != nil {
				if !c.send(ctx, results, UserResult{Err: err}) {
					return
				}
				continue
			}
			if record == nil {
				c.logger.WithJob(job.Name).Debugf("%s did not meet the filter criteria or has not changed", entry.DN)
				continue
			}

			if !c.send(ctx, results, UserResult{Record: record}) {
				return
			}
		}
	}()

	return results, nil
}

func (c *LDAPConnector) send(ctx context.Context, results chan<- UserResult, r UserResult) bool {
	select {
	case results <- r:
		return true
	case <-ctx.Done():
		return false
	}
}

// buildRecord runs every configured attribute through its filter chain
func (c *LDAPConnector) buildRecord(entry *ldap.Entry, job *config.JobConfig, chains map[string][]AttributeFilter) (*Record, error) {
	record := NewRecord()
	for _, attr := range job.Attributes {
		var current Value
		var err error
		for _, filter := range chains[attr.Name] {
			current, err = filter.Execute(current, entry, job, attr)
			if err != nil {
				return nil, fmt.Errorf("attribute %s: %w", attr.Name, err)
			}
		}

		name := attr.Name
		if attr.Alias != "" {
			name = attr.Alias
		}
		record.Set(name, current)
	}
	return record, nil
}

// membershipAttribute finds the record attribute that carries group
// membership, the one whose filter chain includes the groups filter.
func membershipAttribute(job *config.JobConfig) string {
	for _, attr := range job.Attributes {
		for _, f := range strings.Split(attr.Filter, ",") {
			if strings.TrimSpace(f) == "groups" {
				if attr.Alias != "" {
					return attr.Alias
				}
				return attr.Name
			}
		}
	}
	return "memberOf"
}
