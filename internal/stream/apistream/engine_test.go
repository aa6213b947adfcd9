package apistream

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/config"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/directory"
	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/remote"
)

func basicMapping() *config.StreamConfig {
	return &config.StreamConfig{
		Name: "api",
		Mapping: []config.MappingRule{
			{From: "{employeeNumber}", To: "EmployeeNum"},
			{From: "{division}", To: "PrimaryDivision"},
			{From: "{givenName}", To: "FirstName"},
		},
	}
}

func userRecord(employeeNum string) *directory.Record {
	record := directory.NewRecord()
	record.Set(directory.AttributeDistinguishedName, directory.Scalar("CN=Jo,OU=Staff,DC=corp,DC=example,DC=com"))
	if employeeNum != "" {
		record.Set("employeeNumber", directory.Scalar(employeeNum))
	}
	record.Set("division", directory.Scalar("Main Division"))
	record.Set("givenName", directory.Scalar("Jo"))
	return record
}

func expectDivision(te *testEngine) {
	te.divisions.On("GetDivisionByName", mock.Anything, "Main Division", "tok").
		Return(&remote.EntityRef{ID: "Division/Default:10"}, nil).Once()
}

func TestEngineValidation(t *testing.T) {
	t.Run("record without employee number is abandoned before any employee call", func(t *testing.T) {
		te := newTestEngine(t, basicMapping())
		expectDivision(te)

		err := te.engine.process(context.Background(), userRecord(""))

		require.NoError(t, err)
		te.employees.AssertNotCalled(t, "GetEmployeeByEmployeeNum", mock.Anything, mock.Anything, mock.Anything)
		te.assertExpectations(t)
	})

	t.Run("record with unknown division is abandoned", func(t *testing.T) {
		te := newTestEngine(t, basicMapping())
		te.divisions.On("GetDivisionByName", mock.Anything, "Main Division", "tok").
			Return(nil, nil).Once()

		err := te.engine.process(context.Background(), userRecord("E100"))

		require.NoError(t, err)
		te.employees.AssertNotCalled(t, "GetEmployeeByEmployeeNum", mock.Anything, mock.Anything, mock.Anything)
		te.assertExpectations(t)
	})

	t.Run("division resolution failure fails the record", func(t *testing.T) {
		te := newTestEngine(t, basicMapping())
		te.divisions.On("GetDivisionByName", mock.Anything, "Main Division", "tok").
			Return(nil, errors.New("boom")).Once()

		err := te.engine.process(context.Background(), userRecord("E100"))

		require.Error(t, err)
		te.assertExpectations(t)
	})
}

func TestEngineNewHire(t *testing.T) {
	t.Run("unknown employee is created with login defaults and the workflow template", func(t *testing.T) {
		te := newTestEngine(t, basicMapping())
		expectDivision(te)
		te.employees.On("GetEmployeeByEmployeeNum", mock.Anything, "E100", "tok").
			Return(nil, nil).Once()
		te.employees.On("GetDefaultWorkflowTemplate", mock.Anything, "tok").
			Return(&remote.EntityRef{ID: "Workflow/Template:7"}, nil).Once()
		te.employees.On("CreateEmployee", mock.Anything, mock.MatchedBy(func(e remote.Employee) bool {
			template, ok := e["WorkflowTemplate"].(*remote.EntityRef)
			return e["EmployeeNum"] == "E100" &&
				e["CanLogin"] == true &&
				e["Password"] != "" &&
				ok && template.ID == "Workflow/Template:7"
		}), "tok").Return(&remote.EntityRef{ID: "Employee/Default:42"}, nil).Once()

		err := te.engine.process(context.Background(), userRecord("E100"))

		require.NoError(t, err)
		te.assertExpectations(t)

		id, ok := te.caches.Employee.Get("E100")
		assert.True(t, ok)
		assert.Equal(t, "Employee/Default:42", id)

		dnID, ok := te.caches.EmployeeDN.Get("CN=Jo,OU=Staff,DC=corp,DC=example,DC=com")
		assert.True(t, ok)
		assert.Equal(t, "Employee/Default:42", dnID)
	})

	t.Run("workflow template is omitted when the system has none", func(t *testing.T) {
		te := newTestEngine(t, basicMapping())
		expectDivision(te)
		te.employees.On("GetEmployeeByEmployeeNum", mock.Anything, "E100", "tok").
			Return(nil, nil).Once()
		te.employees.On("GetDefaultWorkflowTemplate", mock.Anything, "tok").
			Return(nil, nil).Once()
		te.employees.On("CreateEmployee", mock.Anything, mock.MatchedBy(func(e remote.Employee) bool {
			_, hasTemplate := e["WorkflowTemplate"]
			return !hasTemplate
		}), "tok").Return(&remote.EntityRef{ID: "Employee/Default:42"}, nil).Once()

		err := te.engine.process(context.Background(), userRecord("E100"))

		require.NoError(t, err)
		te.assertExpectations(t)
	})
}

func TestEngineExistingEmployee(t *testing.T) {
	t.Run("known employee is updated in place", func(t *testing.T) {
		te := newTestEngine(t, basicMapping())
		expectDivision(te)
		te.employees.On("GetEmployeeByEmployeeNum", mock.Anything, "E100", "tok").
			Return(&remote.EntityRef{ID: "Employee/Default:42"}, nil).Once()
		te.employees.On("UpdateEmployee", mock.Anything, mock.MatchedBy(func(e remote.Employee) bool {
			return e.ID() == "Employee/Default:42" && e["FirstName"] == "Jo"
		}), "tok").Return(nil).Once()

		err := te.engine.process(context.Background(), userRecord("E100"))

		require.NoError(t, err)
		te.employees.AssertNotCalled(t, "CreateEmployee", mock.Anything, mock.Anything, mock.Anything)
		te.assertExpectations(t)
	})

	t.Run("second record for the same employee number skips the remote lookup", func(t *testing.T) {
		te := newTestEngine(t, basicMapping())
		te.divisions.On("GetDivisionByName", mock.Anything, "Main Division", "tok").
			Return(&remote.EntityRef{ID: "Division/Default:10"}, nil).Once()
		te.employees.On("GetEmployeeByEmployeeNum", mock.Anything, "E100", "tok").
			Return(&remote.EntityRef{ID: "Employee/Default:42"}, nil).Once()
		te.employees.On("UpdateEmployee", mock.Anything, mock.Anything, "tok").
			Return(nil).Twice()

		require.NoError(t, te.engine.process(context.Background(), userRecord("E100")))
		require.NoError(t, te.engine.process(context.Background(), userRecord("E100")))

		te.assertExpectations(t)
	})
}

func groupMapping() *config.StreamConfig {
	cfg := basicMapping()
	cfg.Mapping = append(cfg.Mapping, config.MappingRule{From: "{memberOf}", To: "Groups"})
	return cfg
}

func groupRecord(groups directory.MultiValue) *directory.Record {
	record := userRecord("E100")
	record.Set("memberOf", groups)
	return record
}

func expectExistingEmployee(te *testEngine) {
	te.employees.On("GetEmployeeByEmployeeNum", mock.Anything, "E100", "tok").
		Return(&remote.EntityRef{ID: "Employee/Default:42"}, nil).Once()
	te.employees.On("UpdateEmployee", mock.Anything, mock.Anything, "tok").
		Return(nil).Once()
	te.employees.On("GetEmployeeProfile", mock.Anything, remote.EntityRef{ID: "Employee/Default:42"}, "tok").
		Return(&remote.EntityRef{ID: "EmployeeProfile/Default:420"}, nil).Once()
}

func TestEngineGroupConvergence(t *testing.T) {
	profile := remote.EntityRef{ID: "EmployeeProfile/Default:420"}
	sales := remote.EntityRef{ID: "Group/Default:1"}
	eng := remote.EntityRef{ID: "Group/Default:2"}
	legal := remote.EntityRef{ID: "Group/Default:3"}

	t.Run("missing desired groups are added, tracked stale groups removed", func(t *testing.T) {
		te := newTestEngine(t, groupMapping())
		expectDivision(te)
		expectExistingEmployee(te)

		// Legal was added by an earlier run
		te.caches.GroupMembership.Put("Employee/Default:42", legal.ID)

		te.groups.On("GetGroupMembership", mock.Anything, profile, "tok").
			Return([]remote.EntityRef{sales, legal}, nil).Once()
		te.groups.On("GetGroupName", mock.Anything, sales, "tok").Return("Sales", nil).Once()
		te.groups.On("GetGroupName", mock.Anything, legal, "tok").Return("Legal", nil).Once()
		te.groups.On("GetGroupByName", mock.Anything, "Engineering", "tok").Return(&eng, nil).Once()
		te.employees.On("UpdateEmployeeProfile", mock.Anything, profile,
			[]remote.EntityRef{eng}, []remote.EntityRef{legal}, "tok").Return(nil).Once()

		err := te.engine.process(context.Background(), groupRecord(directory.MultiValue{
			"CN=Sales,OU=Groups,DC=corp,DC=example,DC=com":       "Sales",
			"CN=Engineering,OU=Groups,DC=corp,DC=example,DC=com": "Engineering",
		}))

		require.NoError(t, err)
		te.assertExpectations(t)

		tracked, ok := te.caches.GroupMembership.Get("Employee/Default:42")
		require.True(t, ok)
		assert.Equal(t, eng.ID, tracked)
	})

	t.Run("groups this system never added are left alone", func(t *testing.T) {
		te := newTestEngine(t, groupMapping())
		expectDivision(te)
		expectExistingEmployee(te)

		te.groups.On("GetGroupMembership", mock.Anything, profile, "tok").
			Return([]remote.EntityRef{legal}, nil).Once()
		te.groups.On("GetGroupName", mock.Anything, legal, "tok").Return("Legal", nil).Once()
		te.groups.On("GetGroupByName", mock.Anything, "Sales", "tok").Return(&sales, nil).Once()
		te.employees.On("UpdateEmployeeProfile", mock.Anything, profile,
			[]remote.EntityRef{sales}, []remote.EntityRef(nil), "tok").Return(nil).Once()

		err := te.engine.process(context.Background(), groupRecord(directory.MultiValue{
			"CN=Sales,OU=Groups,DC=corp,DC=example,DC=com": "Sales",
		}))

		require.NoError(t, err)
		te.assertExpectations(t)
	})

	t.Run("unknown group is created before it is assigned", func(t *testing.T) {
		te := newTestEngine(t, groupMapping())
		expectDivision(te)
		expectExistingEmployee(te)

		te.groups.On("GetGroupMembership", mock.Anything, profile, "tok").
			Return([]remote.EntityRef(nil), nil).Once()
		te.groups.On("GetGroupByName", mock.Anything, "Sales", "tok").Return(nil, nil).Once()
		te.groups.On("CreateGroup", mock.Anything, "Sales", "tok").Return(&sales, nil).Once()
		te.employees.On("UpdateEmployeeProfile", mock.Anything, profile,
			[]remote.EntityRef{sales}, []remote.EntityRef(nil), "tok").Return(nil).Once()

		err := te.engine.process(context.Background(), groupRecord(directory.MultiValue{
			"CN=Sales,OU=Groups,DC=corp,DC=example,DC=com": "Sales",
		}))

		require.NoError(t, err)
		te.assertExpectations(t)

		id, ok := te.caches.EmployeeGroup.Get("Sales")
		require.True(t, ok)
		assert.Equal(t, sales.ID, id)
	})

	t.Run("converged membership still posts the profile update", func(t *testing.T) {
		te := newTestEngine(t, groupMapping())
		expectDivision(te)
		expectExistingEmployee(te)

		te.groups.On("GetGroupMembership", mock.Anything, profile, "tok").
			Return([]remote.EntityRef{sales}, nil).Once()
		te.groups.On("GetGroupName", mock.Anything, sales, "tok").Return("Sales", nil).Once()
		te.groups.On("GetGroupByName", mock.Anything, "Sales", "tok").Return(&sales, nil).Once()
		te.employees.On("UpdateEmployeeProfile", mock.Anything, profile,
			[]remote.EntityRef(nil), []remote.EntityRef(nil), "tok").Return(nil).Once()

		err := te.engine.process(context.Background(), groupRecord(directory.MultiValue{
			"CN=Sales,OU=Groups,DC=corp,DC=example,DC=com": "Sales",
		}))

		require.NoError(t, err)
		te.assertExpectations(t)
	})
}

func TestEngineDepartmentAndLookup(t *testing.T) {
	cfg := basicMapping()
	cfg.Mapping = append(cfg.Mapping,
		config.MappingRule{From: "{department}", To: "Department"},
		config.MappingRule{From: "{title}", To: "JobTitleId", Type: "lookup"},
	)

	record := userRecord("E100")
	record.Set("department", directory.Scalar("Research"))
	record.Set("title", directory.Scalar("Engineer"))

	t.Run("department is created under the primary division when missing", func(t *testing.T) {
		te := newTestEngine(t, cfg)
		expectDivision(te)
		te.departments.On("GetDepartment", mock.Anything, "Research", "tok").
			Return(nil, nil).Once()
		te.departments.On("CreateDepartment", mock.Anything, "Research",
			remote.EntityRef{ID: "Division/Default:10"}, "tok").
			Return(&remote.EntityRef{ID: "Department/Default:5"}, nil).Once()
		te.lookups.On("GetLookupValue", mock.Anything, "JobTitleId", "Engineer", "tok").
			Return(&remote.EntityRef{ID: "Lookup/Employee/JobTitleId:9"}, nil).Once()
		te.employees.On("GetEmployeeByEmployeeNum", mock.Anything, "E100", "tok").
			Return(&remote.EntityRef{ID: "Employee/Default:42"}, nil).Once()
		te.employees.On("UpdateEmployee", mock.Anything, mock.MatchedBy(func(e remote.Employee) bool {
			department, ok := e["Department"].(*remote.EntityRef)
			if !ok || department.ID != "Department/Default:5" {
				return false
			}
			title, ok := e["JobTitleId"].(*remote.EntityRef)
			return ok && title.ID == "Lookup/Employee/JobTitleId:9"
		}), "tok").Return(nil).Once()

		err := te.engine.process(context.Background(), record)

		require.NoError(t, err)
		te.assertExpectations(t)

		id, ok := te.caches.Department.Get("Research")
		require.True(t, ok)
		assert.Equal(t, "Department/Default:5", id)

		id, ok = te.caches.Lookup.Get("JobTitleId:Engineer")
		require.True(t, ok)
		assert.Equal(t, "Lookup/Employee/JobTitleId:9", id)
	})

	t.Run("missing company is created", func(t *testing.T) {
		companyCfg := basicMapping()
		companyCfg.Mapping = append(companyCfg.Mapping,
			config.MappingRule{From: "{company}", To: "Company", Type: "company"})
		companyRecord := userRecord("E100")
		companyRecord.Set("company", directory.Scalar("Acme Ltd"))

		te := newTestEngine(t, companyCfg)
		expectDivision(te)
		te.companies.On("GetCompanyByName", mock.Anything, "Acme Ltd", "tok").
			Return(nil, nil).Once()
		te.companies.On("CreateCompany", mock.Anything, "Acme Ltd", "tok").
			Return(&remote.EntityRef{ID: "EmployeeCompany/Default:3"}, nil).Once()
		te.employees.On("GetEmployeeByEmployeeNum", mock.Anything, "E100", "tok").
			Return(&remote.EntityRef{ID: "Employee/Default:42"}, nil).Once()
		te.employees.On("UpdateEmployee", mock.Anything, mock.MatchedBy(func(e remote.Employee) bool {
			company, ok := e["Company"].(*remote.EntityRef)
			return ok && company.ID == "EmployeeCompany/Default:3"
		}), "tok").Return(nil).Once()

		err := te.engine.process(context.Background(), companyRecord)

		require.NoError(t, err)
		te.assertExpectations(t)

		id, ok := te.caches.Lookup.Get("Company:Acme Ltd")
		require.True(t, ok)
		assert.Equal(t, "EmployeeCompany/Default:3", id)
	})

	t.Run("missing lookup value is created", func(t *testing.T) {
		te := newTestEngine(t, cfg)
		expectDivision(te)
		te.departments.On("GetDepartment", mock.Anything, "Research", "tok").
			Return(&remote.EntityRef{ID: "Department/Default:5"}, nil).Once()
		te.lookups.On("GetLookupValue", mock.Anything, "JobTitleId", "Engineer", "tok").
			Return(nil, nil).Once()
		te.lookups.On("CreateLookupValue", mock.Anything, "JobTitleId", "Engineer", "tok").
			Return(&remote.EntityRef{ID: "Lookup/Employee/JobTitleId:9"}, nil).Once()
		te.employees.On("GetEmployeeByEmployeeNum", mock.Anything, "E100", "tok").
			Return(&remote.EntityRef{ID: "Employee/Default:42"}, nil).Once()
		te.employees.On("UpdateEmployee", mock.Anything, mock.Anything, "tok").
			Return(nil).Once()

		err := te.engine.process(context.Background(), record)

		require.NoError(t, err)
		te.assertExpectations(t)
	})
}
