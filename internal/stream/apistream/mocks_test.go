package apistream

import (
	"context"
	"io"
	"testing"

	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/cache"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/config"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/remote"
)

func testLogger() *logger.Logger {
	log := logger.NewLogger(&config.Config{})
	log.SetOutput(io.Discard)
	return log
}

func testCaches(t *testing.T) *cacheSet {
	t.Helper()
	factory := cache.NewFactory(testLogger(), nil, &config.Config{
		Cache: config.CacheConfig{Dir: t.TempDir()},
	})
	caches, err := openCaches(factory, "test-job")
	require.NoError(t, err)
	return caches
}

func refResult(args mock.Arguments) (*remote.EntityRef, error) {
	ref, _ := args.Get(0).(*remote.EntityRef)
	return ref, args.Error(1)
}

type MockAuthenticationService struct {
	mock.Mock
}

func (m *MockAuthenticationService) Login(ctx context.Context, baseAddress, organization, username, password string) (string, error) {
	args := m.Called(ctx, baseAddress, organization, username, password)
	return args.String(0), args.Error(1)
}

func (m *MockAuthenticationService) Logout(ctx context.Context, token string) error {
	args := m.Called(ctx, token)
	return args.Error(0)
}

type MockEmployeeService struct {
	mock.Mock
}

func (m *MockEmployeeService) GetEmployeeByEmployeeNum(ctx context.Context, employeeNum, token string) (*remote.EntityRef, error) {
	return refResult(m.Called(ctx, employeeNum, token))
}

func (m *MockEmployeeService) CreateEmployee(ctx context.Context, employee remote.Employee, token string) (*remote.EntityRef, error) {
	return refResult(m.Called(ctx, employee, token))
}

func (m *MockEmployeeService) UpdateEmployee(ctx context.Context, employee remote.Employee, token string) error {
	args := m.Called(ctx, employee, token)
	return args.Error(0)
}

func (m *MockEmployeeService) GetEmployeeProfile(ctx context.Context, employee remote.EntityRef, token string) (*remote.EntityRef, error) {
	return refResult(m.Called(ctx, employee, token))
}

func (m *MockEmployeeService) GetDefaultWorkflowTemplate(ctx context.Context, token string) (*remote.EntityRef, error) {
	return refResult(m.Called(ctx, token))
}

func (m *MockEmployeeService) UpdateEmployeeProfile(ctx context.Context, profile remote.EntityRef, groupsToAdd, groupsToRemove []remote.EntityRef, token string) error {
	args := m.Called(ctx, profile, groupsToAdd, groupsToRemove, token)
	return args.Error(0)
}

type MockDivisionService struct {
	mock.Mock
}

func (m *MockDivisionService) GetDivisionByName(ctx context.Context, divisionPath, token string) (*remote.EntityRef, error) {
	return refResult(m.Called(ctx, divisionPath, token))
}

type MockDepartmentService struct {
	mock.Mock
}

func (m *MockDepartmentService) GetDepartment(ctx context.Context, name, token string) (*remote.EntityRef, error) {
	return refResult(m.Called(ctx, name, token))
}

func (m *MockDepartmentService) CreateDepartment(ctx context.Context, name string, division remote.EntityRef, token string) (*remote.EntityRef, error) {
	return refResult(m.Called(ctx, name, division, token))
}

type MockGroupService struct {
	mock.Mock
}

func (m *MockGroupService) GetGroupByName(ctx context.Context, name, token string) (*remote.EntityRef, error) {
	return refResult(m.Called(ctx, name, token))
}

func (m *MockGroupService) CreateGroup(ctx context.Context, name, token string) (*remote.EntityRef, error) {
	return refResult(m.Called(ctx, name, token))
}

func (m *MockGroupService) GetGroupMembership(ctx context.Context, profile remote.EntityRef, token string) ([]remote.EntityRef, error) {
	args := m.Called(ctx, profile, token)
	groups, _ := args.Get(0).([]remote.EntityRef)
	return groups, args.Error(1)
}

func (m *MockGroupService) GetGroupName(ctx context.Context, group remote.EntityRef, token string) (string, error) {
	args := m.Called(ctx, group, token)
	return args.String(0), args.Error(1)
}

type MockRelationshipService struct {
	mock.Mock
}

func (m *MockRelationshipService) GetEmployeeRelationships(ctx context.Context, employee remote.EntityRef, token string) ([]remote.EntityRef, error) {
	args := m.Called(ctx, employee, token)
	refs, _ := args.Get(0).([]remote.EntityRef)
	return refs, args.Error(1)
}

func (m *MockRelationshipService) GetRelationshipDetails(ctx context.Context, relationship remote.EntityRef, token string) (*remote.Relationship, error) {
	args := m.Called(ctx, relationship, token)
	rel, _ := args.Get(0).(*remote.Relationship)
	return rel, args.Error(1)
}

func (m *MockRelationshipService) GetRelationshipTypeByName(ctx context.Context, name, token string) (*remote.EntityRef, error) {
	return refResult(m.Called(ctx, name, token))
}

func (m *MockRelationshipService) CreateRelationshipType(ctx context.Context, name, token string) (*remote.EntityRef, error) {
	return refResult(m.Called(ctx, name, token))
}

func (m *MockRelationshipService) CreateRelationship(ctx context.Context, employee, relType, target remote.EntityRef, token string) (*remote.EntityRef, error) {
	return refResult(m.Called(ctx, employee, relType, target, token))
}

func (m *MockRelationshipService) UpdateRelationship(ctx context.Context, relationship, target remote.EntityRef, token string) error {
	args := m.Called(ctx, relationship, target, token)
	return args.Error(0)
}

type MockCompanyService struct {
	mock.Mock
}

func (m *MockCompanyService) GetCompanyByName(ctx context.Context, name, token string) (*remote.EntityRef, error) {
	return refResult(m.Called(ctx, name, token))
}

func (m *MockCompanyService) CreateCompany(ctx context.Context, name, token string) (*remote.EntityRef, error) {
	return refResult(m.Called(ctx, name, token))
}

type MockLookupService struct {
	mock.Mock
}

func (m *MockLookupService) GetLookupValue(ctx context.Context, fieldName, text, token string) (*remote.EntityRef, error) {
	return refResult(m.Called(ctx, fieldName, text, token))
}

func (m *MockLookupService) CreateLookupValue(ctx context.Context, fieldName, text, token string) (*remote.EntityRef, error) {
	return refResult(m.Called(ctx, fieldName, text, token))
}

// testEngine bundles an engine with its mocks so tests can set
// expectations and assert them in one place.
type testEngine struct {
	engine *engine
	caches *cacheSet

	employees     *MockEmployeeService
	divisions     *MockDivisionService
	departments   *MockDepartmentService
	groups        *MockGroupService
	relationships *MockRelationshipService
	lookups       *MockLookupService
	companies     *MockCompanyService
}

func newTestEngine(t *testing.T, streamCfg *config.StreamConfig) *testEngine {
	t.Helper()

	te := &testEngine{
		caches:        testCaches(t),
		employees:     &MockEmployeeService{},
		divisions:     &MockDivisionService{},
		departments:   &MockDepartmentService{},
		groups:        &MockGroupService{},
		relationships: &MockRelationshipService{},
		lookups:       &MockLookupService{},
		companies:     &MockCompanyService{},
	}

	token := remote.NewTokenHolder()
	token.Set("tok")

	job := &config.JobConfig{Name: "test-job", Domain: "corp.example.com"}
	te.engine = newEngine(testLogger(), nil, job, streamCfg,
		te.employees, te.divisions, te.departments, te.groups, te.relationships, te.lookups,
		te.companies, token, te.caches)
	return te
}

func (te *testEngine) assertExpectations(t *testing.T) {
	t.Helper()
	te.employees.AssertExpectations(t)
	te.divisions.AssertExpectations(t)
	te.departments.AssertExpectations(t)
	te.groups.AssertExpectations(t)
	te.relationships.AssertExpectations(t)
	te.lookups.AssertExpectations(t)
	te.companies.AssertExpectations(t)
}
