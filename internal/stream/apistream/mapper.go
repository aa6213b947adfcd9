package apistream

import (
	"strings"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/config"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/directory"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/stream"
)

// FieldEffect is the outcome of one mapping rule against one record. The
// mapper only decides what should happen; the engine resolves entities
// and mutates state.
type FieldEffect interface {
	isEffect()
}

// SkipEffect produces nothing for this rule
type SkipEffect struct{}

// EmployeeNumEffect captures the employee's unique key
type EmployeeNumEffect struct {
	Value string
}

// DivisionEffect asks for the employee's primary division by name.
// Divisions are find-only; an unknown name leaves the employee invalid.
type DivisionEffect struct {
	Name string
}

// DepartmentEffect asks for a department by name, created under the
// current division when missing.
type DepartmentEffect struct {
	Name string
}

// GroupsEffect carries the desired group set straight from the directory
// attribute, DN to display name. Substitution is bypassed for groups.
type GroupsEffect struct {
	Groups directory.MultiValue
}

// RelationshipEffect adds one pending relationship for end-of-run
// convergence.
type RelationshipEffect struct {
	TypeName string
	TargetDN string
}

// LookupEffect assigns a lookup value resolved under the destination
// field's lookup list.
type LookupEffect struct {
	Field string
	Value string
}

// CompanyEffect assigns a company entity, created when the remote system
// has never seen the name.
type CompanyEffect struct {
	Field string
	Name  string
}

// SetFieldEffect assigns a plain substituted string to a field
type SetFieldEffect struct {
	Field string
	Value string
}

func (SkipEffect) isEffect()         {}
func (EmployeeNumEffect) isEffect()  {}
func (DivisionEffect) isEffect()     {}
func (DepartmentEffect) isEffect()   {}
func (GroupsEffect) isEffect()       {}
func (RelationshipEffect) isEffect() {}
func (LookupEffect) isEffect()       {}
func (CompanyEffect) isEffect()      {}
func (SetFieldEffect) isEffect()     {}

// EvaluateRule maps one rule against one record. Pure: no remote calls,
// no cache access, no mutation of the record.
func EvaluateRule(rule config.MappingRule, record *directory.Record) FieldEffect {
	switch rule.To {
	case "EmployeeNum":
		return EmployeeNumEffect{Value: stream.Substitute(rule.From, record)}

	case "PrimaryDivision":
		return DivisionEffect{Name: stream.Substitute(rule.From, record)}

	case "Department":
		return DepartmentEffect{Name: stream.Substitute(rule.From, record)}

	case "Groups":
		name := strings.Trim(rule.From, "{}")
		groups := record.GetMulti(name)
		if groups == nil {
			return SkipEffect{}
		}
		return GroupsEffect{Groups: groups}

	case "Relationships":
		target := stream.Substitute(rule.From, record)
		if target == "" {
			return SkipEffect{}
		}
		return RelationshipEffect{TypeName: rule.Type, TargetDN: target}

	case "WorkflowTemplate":
		// Resolved by the engine only when the employee is newly created.
		return SkipEffect{}

	default:
		value := stream.Substitute(rule.From, record)
		switch rule.Type {
		case "lookup":
			return LookupEffect{Field: rule.To, Value: value}
		case "company":
			return CompanyEffect{Field: rule.To, Name: value}
		}
		return SetFieldEffect{Field: rule.To, Value: value}
	}
}
