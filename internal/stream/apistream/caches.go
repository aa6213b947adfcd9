package apistream

import (
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/cache"
)

// cacheSet bundles the lookup caches one stream instance works with.
// Caches are scoped to the job so two jobs pointed at different
// organizations never share resolved identifiers.
type cacheSet struct {
	Employee         cache.Store
	JobTitle         cache.Store
	Department       cache.Store
	Workflow         cache.Store
	EmployeeGroup    cache.Store
	EmployeeProfile  cache.Store
	Division         cache.Store
	GroupMembership  cache.Store
	RelationshipType cache.Store
	EmployeeDN       cache.Store
	Lookup           cache.Store
}

func openCaches(factory *cache.Factory, jobName string) (*cacheSet, error) {
	set := &cacheSet{}
	open := func(target *cache.Store, name string, isMap bool) error {
		store, err := factory.Open(jobName+"-"+name, isMap)
		if err != nil {
			return err
		}
		*target = store
		return nil
	}

	for _, c := range []struct {
		target *cache.Store
		name   string
		isMap  bool
	}{
		{&set.Employee, "Employee", false},
		{&set.JobTitle, "JobTitle", false},
		{&set.Department, "Department", false},
		{&set.Workflow, "Workflow", false},
		{&set.EmployeeGroup, "EmployeeGroup", true},
		{&set.EmployeeProfile, "EmployeeProfile", false},
		{&set.Division, "Division", false},
		{&set.GroupMembership, "GroupMembership", false},
		{&set.RelationshipType, "RelationshipType", false},
		{&set.EmployeeDN, "EmployeeDistinguishedName", true},
		{&set.Lookup, "Lookup", false},
	} {
		if err := open(c.target, c.name, c.isMap); err != nil {
			return nil, err
		}
	}
	return set, nil
}

func (c *cacheSet) all() []cache.Store {
	return []cache.Store{
		c.Employee, c.JobTitle, c.Department, c.Workflow, c.EmployeeGroup,
		c.EmployeeProfile, c.Division, c.GroupMembership, c.RelationshipType,
		c.EmployeeDN, c.Lookup,
	}
}

// ClearCaches deletes the persisted cache state for one job. The next
// run resolves everything from the remote system again.
func ClearCaches(factory *cache.Factory, jobName string) error {
	set, err := openCaches(factory, jobName)
	if err != nil {
		return err
	}
	var first error
	for _, store := range set.all() {
		if err := store.Clear(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// flush persists every cache. The first failure is reported but the
// remaining caches are still flushed.
func (c *cacheSet) flush() error {
	var first error
	for _, store := range c.all() {
		if err := store.Flush(); err != nil && first == nil {
			first = err
		}
	}
	return first
}
