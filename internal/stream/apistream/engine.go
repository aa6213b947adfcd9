package apistream

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/config"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/directory"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/metrics"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/remote"
)

const defaultWorkflowTemplateKey = "SystemDefault"

// engine reconciles mapped employees against the remote system: one
// record at a time, cache first, remote second, create as a last resort.
// Failures abort the current record only.
type engine struct {
	logger  *logger.Logger
	metrics *metrics.Metrics

	job       *config.JobConfig
	streamCfg *config.StreamConfig

	employees     EmployeeService
	divisions     DivisionService
	departments   DepartmentService
	groups        GroupService
	relationships RelationshipService
	lookups       LookupService
	companies     CompanyService

	token  *remote.TokenHolder
	caches *cacheSet

	// pending relationships per employee token, processed at the end of
	// the run. A later record for the same employee replaces the earlier
	// set.
	pending      map[string]map[string]string
	pendingOrder []string
}

func newEngine(log *logger.Logger, m *metrics.Metrics, job *config.JobConfig, streamCfg *config.StreamConfig,
	employees EmployeeService, divisions DivisionService, departments DepartmentService,
	groups GroupService, relationships RelationshipService, lookups LookupService,
	companies CompanyService, token *remote.TokenHolder, caches *cacheSet) *engine {
	return &engine{
		logger:        log,
		metrics:       m,
		job:           job,
		streamCfg:     streamCfg,
		employees:     employees,
		divisions:     divisions,
		departments:   departments,
		groups:        groups,
		relationships: relationships,
		lookups:       lookups,
		companies:     companies,
		token:         token,
		caches:        caches,
		pending:       make(map[string]map[string]string),
	}
}

// process maps one directory record and reconciles the result: validate,
// resolve identity, create or update, record the DN, converge groups and
// defer relationships.
func (e *engine) process(ctx context.Context, record *directory.Record) error {
	employee := remote.Employee{}

	var employeeNum string
	hasEmployeeNum := false
	var division *remote.EntityRef
	var desiredGroups directory.MultiValue
	hasGroups := false
	pending := make(map[string]string)

	for _, rule := range e.streamCfg.Mapping {
		switch eff := EvaluateRule(rule, record).(type) {
		case EmployeeNumEffect:
			employeeNum = eff.Value
			hasEmployeeNum = true
			employee[rule.To] = eff.Value

		case DivisionEffect:
			ref, err := e.resolveDivision(ctx, eff.Name)
			if err != nil {
				return err
			}
			division = ref
			if ref != nil {
				employee[rule.To] = ref
			}

		case DepartmentEffect:
			ref, err := e.resolveDepartment(ctx, eff.Name, division)
			if err != nil {
				return err
			}
			if ref != nil {
				employee[rule.To] = ref
			}

		case GroupsEffect:
			desiredGroups = eff.Groups
			hasGroups = true

		case RelationshipEffect:
			pending[eff.TypeName] = eff.TargetDN

		case LookupEffect:
			ref, err := e.resolveLookup(ctx, eff.Field, eff.Value)
			if err != nil {
				return err
			}
			if ref != nil {
				employee[eff.Field] = ref
			}

		case CompanyEffect:
			ref, err := e.resolveCompany(ctx, eff.Name)
			if err != nil {
				return err
			}
			if ref != nil {
				employee[eff.Field] = ref
			}

		case SetFieldEffect:
			employee[eff.Field] = eff.Value
		}
	}

	if !hasEmployeeNum || employeeNum == "" {
		e.logger.WithJob(e.job.Name).Errorf("cannot write employee, no EmployeeNum mapping value: %s", record.JSON())
		return nil
	}
	if division == nil {
		e.logger.WithJob(e.job.Name).Errorf("cannot write employee, no PrimaryDivision mapping value: %s", record.JSON())
		return nil
	}

	ref, err := e.resolveEmployee(ctx, employeeNum)
	if err != nil {
		return err
	}

	if ref == nil {
		ref, err = e.createEmployee(ctx, employee, employeeNum)
	} else {
		employee.SetID(ref.ID)
		err = e.employees.UpdateEmployee(ctx, employee, e.token.Get())
	}
	if err != nil {
		return err
	}
	employee.SetID(ref.ID)

	// The DN cache resolves relationship targets later in the run, and in
	// future runs.
	e.caches.EmployeeDN.Put(record.DN(), ref.ID)

	if hasGroups {
		if err := e.convergeGroups(ctx, *ref, desiredGroups); err != nil {
			return err
		}
	}

	if len(pending) > 0 {
		if _, seen := e.pending[ref.ID]; !seen {
			e.pendingOrder = append(e.pendingOrder, ref.ID)
		}
		e.pending[ref.ID] = pending
	}
	return nil
}

// resolveEmployee finds the employee ref for an employee number, cache
// first, then the remote system. nil means a new hire.
func (e *engine) resolveEmployee(ctx context.Context, employeeNum string) (*remote.EntityRef, error) {
	if id, ok := e.caches.Employee.Get(employeeNum); ok {
		return &remote.EntityRef{ID: id}, nil
	}
	ref, err := e.employees.GetEmployeeByEmployeeNum(ctx, employeeNum, e.token.Get())
	if err != nil {
		return nil, err
	}
	if ref == nil {
		return nil, nil
	}
	e.caches.Employee.Put(employeeNum, ref.ID)
	return ref, nil
}

// createEmployee provisions a new hire: default workflow template when
// one exists, login enabled with a throwaway password, then the create
// call.
func (e *engine) createEmployee(ctx context.Context, employee remote.Employee, employeeNum string) (*remote.EntityRef, error) {
	template, err := e.defaultWorkflowTemplate(ctx)
	if err != nil {
		return nil, err
	}
	if template != nil {
		employee["WorkflowTemplate"] = template
	}

	employee["CanLogin"] = true
	employee["Password"] = uuid.NewString()

	ref, err := e.employees.CreateEmployee(ctx, employee, e.token.Get())
	if err != nil {
		return nil, err
	}
	e.caches.Employee.Put(employeeNum, ref.ID)
	e.count("employee")
	return ref, nil
}

// defaultWorkflowTemplate resolves the system default employee workflow
// template. There is no create fallback: nil means new hires go in
// without one.
func (e *engine) defaultWorkflowTemplate(ctx context.Context) (*remote.EntityRef, error) {
	if id, ok := e.caches.Workflow.Get(defaultWorkflowTemplateKey); ok {
		return &remote.EntityRef{ID: id}, nil
	}
	template, err := e.employees.GetDefaultWorkflowTemplate(ctx, e.token.Get())
	if err != nil {
		return nil, err
	}
	if template != nil {
		e.caches.Workflow.Put(defaultWorkflowTemplateKey, template.ID)
	}
	return template, nil
}

// resolveDivision finds a division by name. Divisions are never created
// here; nil leaves the record invalid at validation time.
func (e *engine) resolveDivision(ctx context.Context, name string) (*remote.EntityRef, error) {
	if id, ok := e.caches.Division.Get(name); ok {
		return &remote.EntityRef{ID: id}, nil
	}
	ref, err := e.divisions.GetDivisionByName(ctx, name, e.token.Get())
	if err != nil || ref == nil {
		return nil, err
	}
	e.caches.Division.Put(name, ref.ID)
	return ref, nil
}

// resolveDepartment finds or creates a department under the current
// division.
func (e *engine) resolveDepartment(ctx context.Context, name string, division *remote.EntityRef) (*remote.EntityRef, error) {
	if name == "" {
		return nil, nil
	}
	if id, ok := e.caches.Department.Get(name); ok {
		return &remote.EntityRef{ID: id}, nil
	}

	ref, err := e.departments.GetDepartment(ctx, name, e.token.Get())
	if err != nil {
		return nil, err
	}
	if ref == nil {
		div := remote.EntityRef{}
		if division != nil {
			div = *division
		}
		ref, err = e.departments.CreateDepartment(ctx, name, div, e.token.Get())
		if err != nil {
			return nil, err
		}
		e.count("department")
	}
	e.caches.Department.Put(name, ref.ID)
	return ref, nil
}

// resolveLookup finds or creates a lookup value under the destination
// field's lookup list. An empty value produces nothing.
func (e *engine) resolveLookup(ctx context.Context, field, value string) (*remote.EntityRef, error) {
	if value == "" {
		return nil, nil
	}
	cacheKey := fmt.Sprintf("%s:%s", field, value)
	if id, ok := e.caches.Lookup.Get(cacheKey); ok {
		return &remote.EntityRef{ID: id}, nil
	}

	ref, err := e.lookups.GetLookupValue(ctx, field, value, e.token.Get())
	if err != nil {
		return nil, err
	}
	if ref == nil {
		ref, err = e.lookups.CreateLookupValue(ctx, field, value, e.token.Get())
		if err != nil {
			return nil, err
		}
		e.count("lookup")
	}
	e.caches.Lookup.Put(cacheKey, ref.ID)
	return ref, nil
}

// resolveCompany finds or creates a company entity by name
func (e *engine) resolveCompany(ctx context.Context, name string) (*remote.EntityRef, error) {
	if name == "" {
		return nil, nil
	}
	cacheKey := fmt.Sprintf("Company:%s", name)
	if id, ok := e.caches.Lookup.Get(cacheKey); ok {
		return &remote.EntityRef{ID: id}, nil
	}

	ref, err := e.companies.GetCompanyByName(ctx, name, e.token.Get())
	if err != nil {
		return nil, err
	}
	if ref == nil {
		ref, err = e.companies.CreateCompany(ctx, name, e.token.Get())
		if err != nil {
			return nil, err
		}
		e.count("company")
	}
	e.caches.Lookup.Put(cacheKey, ref.ID)
	return ref, nil
}

// convergeGroups drives the employee's remote group membership toward
// the desired set. Only groups this system added are ever removed, so
// manually assigned memberships survive. The profile update itself is a
// no-op when there is nothing to add.
func (e *engine) convergeGroups(ctx context.Context, employee remote.EntityRef, desired directory.MultiValue) error {
	profile, err := e.resolveProfile(ctx, employee)
	if err != nil {
		return err
	}

	tracked := make(map[string]bool)
	if joined, ok := e.caches.GroupMembership.Get(employee.ID); ok {
		for _, id := range strings.Split(joined, ",") {
			if id != "" {
				tracked[id] = true
			}
		}
	}

	online, err := e.groups.GetGroupMembership(ctx, *profile, e.token.Get())
	if err != nil {
		return err
	}
	onlineIDs := make(map[string]bool, len(online))
	for _, group := range online {
		onlineIDs[group.ID] = true
		// Resolving names keeps the bidirectional group cache warm for
		// the name lookups below.
		if _, err := e.resolveGroupName(ctx, group); err != nil {
			return err
		}
	}

	var groupsToAdd []remote.EntityRef
	adGroupIDs := make(map[string]bool, len(desired))
	for _, name := range desired.Values() {
		group, err := e.resolveGroup(ctx, name)
		if err != nil {
			return err
		}
		adGroupIDs[group.ID] = true

		if !onlineIDs[group.ID] {
			groupsToAdd = append(groupsToAdd, *group)
			tracked[group.ID] = true
		}
	}

	var groupsToRemove []remote.EntityRef
	for _, group := range online {
		if !adGroupIDs[group.ID] && tracked[group.ID] {
			groupsToRemove = append(groupsToRemove, group)
			delete(tracked, group.ID)
		}
	}

	if err := e.employees.UpdateEmployeeProfile(ctx, *profile, groupsToAdd, groupsToRemove, e.token.Get()); err != nil {
		return err
	}

	ids := make([]string, 0, len(tracked))
	for id := range tracked {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	e.caches.GroupMembership.Put(employee.ID, strings.Join(ids, ","))
	return nil
}

// resolveProfile finds the employee's profile ref, cache first
func (e *engine) resolveProfile(ctx context.Context, employee remote.EntityRef) (*remote.EntityRef, error) {
	if id, ok := e.caches.EmployeeProfile.Get(employee.ID); ok {
		return &remote.EntityRef{ID: id}, nil
	}
	profile, err := e.employees.GetEmployeeProfile(ctx, employee, e.token.Get())
	if err != nil {
		return nil, err
	}
	if profile == nil {
		return nil, fmt.Errorf("employee [%s] has no profile", employee.ID)
	}
	e.caches.EmployeeProfile.Put(employee.ID, profile.ID)
	return profile, nil
}

// resolveGroup finds a group by name, creating it when the remote system
// has never seen it.
func (e *engine) resolveGroup(ctx context.Context, name string) (*remote.EntityRef, error) {
	if id, ok := e.caches.EmployeeGroup.Get(name); ok {
		return &remote.EntityRef{ID: id}, nil
	}

	group, err := e.groups.GetGroupByName(ctx, name, e.token.Get())
	if err != nil {
		return nil, err
	}
	if group == nil {
		group, err = e.groups.CreateGroup(ctx, name, e.token.Get())
		if err != nil {
			return nil, err
		}
		e.count("group")
	}
	// the group cache is bidirectional, this covers name lookups too
	e.caches.EmployeeGroup.Put(group.ID, name)
	return group, nil
}

// resolveGroupName maps a group ref back to its display name
func (e *engine) resolveGroupName(ctx context.Context, group remote.EntityRef) (string, error) {
	if name, ok := e.caches.EmployeeGroup.Get(group.ID); ok {
		return name, nil
	}
	name, err := e.groups.GetGroupName(ctx, group, e.token.Get())
	if err != nil {
		return "", err
	}
	e.caches.EmployeeGroup.Put(group.ID, name)
	return name, nil
}

func (e *engine) count(kind string) {
	if e.metrics != nil {
		e.metrics.EntitiesCreated.WithLabelValues(kind).Inc()
	}
}
