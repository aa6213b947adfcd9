package apistream

import (
	"context"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/remote"
)

// The engine talks to the remote system through these interfaces so the
// reconciliation logic can be tested against mocks. The concrete
// implementations live in internal/remote.

// AuthenticationService logs sessions in and out
type AuthenticationService interface {
	Login(ctx context.Context, baseAddress, organization, username, password string) (string, error)
	Logout(ctx context.Context, token string) error
}

// EmployeeService manages employee records, profiles and the workflow
// template
type EmployeeService interface {
	GetEmployeeByEmployeeNum(ctx context.Context, employeeNum, token string) (*remote.EntityRef, error)
	CreateEmployee(ctx context.Context, employee remote.Employee, token string) (*remote.EntityRef, error)
	UpdateEmployee(ctx context.Context, employee remote.Employee, token string) error
	GetEmployeeProfile(ctx context.Context, employee remote.EntityRef, token string) (*remote.EntityRef, error)
	GetDefaultWorkflowTemplate(ctx context.Context, token string) (*remote.EntityRef, error)
	UpdateEmployeeProfile(ctx context.Context, profile remote.EntityRef, groupsToAdd, groupsToRemove []remote.EntityRef, token string) error
}

// DivisionService finds divisions
type DivisionService interface {
	GetDivisionByName(ctx context.Context, divisionPath, token string) (*remote.EntityRef, error)
}

// DepartmentService finds and creates departments
type DepartmentService interface {
	GetDepartment(ctx context.Context, name, token string) (*remote.EntityRef, error)
	CreateDepartment(ctx context.Context, name string, division remote.EntityRef, token string) (*remote.EntityRef, error)
}

// GroupService manages groups and profile memberships
type GroupService interface {
	GetGroupByName(ctx context.Context, name, token string) (*remote.EntityRef, error)
	CreateGroup(ctx context.Context, name, token string) (*remote.EntityRef, error)
	GetGroupMembership(ctx context.Context, profile remote.EntityRef, token string) ([]remote.EntityRef, error)
	GetGroupName(ctx context.Context, group remote.EntityRef, token string) (string, error)
}

// RelationshipService manages typed employee relationships
type RelationshipService interface {
	GetEmployeeRelationships(ctx context.Context, employee remote.EntityRef, token string) ([]remote.EntityRef, error)
	GetRelationshipDetails(ctx context.Context, relationship remote.EntityRef, token string) (*remote.Relationship, error)
	GetRelationshipTypeByName(ctx context.Context, name, token string) (*remote.EntityRef, error)
	CreateRelationshipType(ctx context.Context, name, token string) (*remote.EntityRef, error)
	CreateRelationship(ctx context.Context, employee, relType, target remote.EntityRef, token string) (*remote.EntityRef, error)
	UpdateRelationship(ctx context.Context, relationship, target remote.EntityRef, token string) error
}

// CompanyService finds and creates company entities
type CompanyService interface {
	GetCompanyByName(ctx context.Context, name, token string) (*remote.EntityRef, error)
	CreateCompany(ctx context.Context, name, token string) (*remote.EntityRef, error)
}

// LookupService resolves and creates lookup values
type LookupService interface {
	GetLookupValue(ctx context.Context, fieldName, text, token string) (*remote.EntityRef, error)
	CreateLookupValue(ctx context.Context, fieldName, text, token string) (*remote.EntityRef, error)
}
