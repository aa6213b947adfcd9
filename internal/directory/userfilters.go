package directory

import (
	"crypto/md5"
	"encoding/hex"
	"strings"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/cache"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/config"
)

// UserFilter decides whether a record continues through the pipeline. A
// nil record means the user is dropped for this run.
type UserFilter interface {
	Execute(record *Record, job *config.JobConfig) (*Record, error)
}

// GroupMembershipFilter drops users that ended up with no allowed groups.
// It only acts when the job restricts groups and the record carries a
// multi-valued membership attribute.
type GroupMembershipFilter struct {
	Attribute string
}

// Execute applies the membership check
func (f *GroupMembershipFilter) Execute(record *Record, job *config.JobConfig) (*Record, error) {
	if len(job.AllowedGroups) == 0 {
		return record, nil
	}
	groups := record.GetMulti(f.Attribute)
	if groups == nil {
		return record, nil
	}
	if len(groups) == 0 {
		return nil, nil
	}
	return record, nil
}

// ChangeFilter drops users whose attribute values have not changed since
// the previous run, using a cache of content hashes keyed by DN.
type ChangeFilter struct {
	store cache.Store
}

// NewChangeFilter creates a change filter over the given hash cache
func NewChangeFilter(store cache.Store) *ChangeFilter {
	return &ChangeFilter{store: store}
}

// Execute passes the record through when it is new or its content hash
// differs from the cached one, updating the cache either way.
func (f *ChangeFilter) Execute(record *Record, job *config.JobConfig) (*Record, error) {
	key := record.DN()
	hash := contentHash(record)

	cached, ok := f.store.Get(key)
	if !ok || cached != hash {
		f.store.Put(key, hash)
		return record, nil
	}
	return nil, nil
}

// contentHash hashes every attribute value in sorted attribute order, so
// any change to any configured attribute invalidates the cache entry.
func contentHash(record *Record) string {
	var content strings.Builder
	for _, name := range record.Names() {
		v, _ := record.Get(name)
		switch val := v.(type) {
		case Scalar:
			content.WriteString(string(val))
		case MultiValue:
			for _, item := range val.Values() {
				content.WriteString(item)
			}
		}
	}
	sum := md5.Sum([]byte(content.String()))
	return hex.EncodeToString(sum[:])
}
