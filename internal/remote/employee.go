package remote

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
)

// EmployeeService creates and updates employee records and resolves the
// per-employee profile and workflow template dependencies.
type EmployeeService struct {
	logger *logger.Logger
	data   DataService
}

// NewEmployeeService creates an employee service
func NewEmployeeService(log *logger.Logger, data DataService) *EmployeeService {
	return &EmployeeService{logger: log, data: data}
}

type employeeProfileRow struct {
	Profile EntityRef `json:"Profile"`
}

type employeeProfileResponse struct {
	Status Status               `json:"status"`
	Data   []employeeProfileRow `json:"data"`
}

// GetEmployeeByEmployeeNum finds an employee by the unique employee
// number. Returns nil when no employee matches.
func (s *EmployeeService) GetEmployeeByEmployeeNum(ctx context.Context, employeeNum, token string) (*EntityRef, error) {
	s.logger.Debugf("getting id of employee using employee number [%s]", employeeNum)

	uri := fmt.Sprintf("/API/2.0/Data/EmployeeManagement/Employee/Default?take=1&where=%s&token=%s",
		whereEq("EmployeeNum", employeeNum), token)

	var resp entityListResponse
	if err := s.data.Get(ctx, uri, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	ref := resp.Data[0]
	return &ref, nil
}

// CreateEmployee creates a new employee record. FirstName and LastName
// default to a placeholder dash when blank; a missing EmployeeNum is a
// ValidationError raised before any remote call.
func (s *EmployeeService) CreateEmployee(ctx context.Context, employee Employee, token string) (*EntityRef, error) {
	s.logger.Debug("creating employee")

	if v, ok := employee["FirstName"].(string); !ok || v == "" {
		employee["FirstName"] = "-"
	}
	if v, ok := employee["LastName"].(string); !ok || v == "" {
		employee["LastName"] = "-"
	}
	if v, ok := employee["EmployeeNum"].(string); !ok || v == "" {
		detail, _ := json.Marshal(employee)
		return nil, &ValidationError{Field: "EmployeeNum", Detail: string(detail)}
	}

	uri := fmt.Sprintf("/API/2.0/Data/EmployeeManagement/Employee/Default?token=%s", token)

	var resp CreateResponse
	if err := s.data.Post(ctx, uri, withoutID(employee), &resp); err != nil {
		return nil, err
	}
	return &EntityRef{ID: resp.ID}, nil
}

// UpdateEmployee posts the full field document for an existing employee,
// addressed by the numeric instance id extracted from its token. Blank
// name fields are only defaulted when the field is present in the
// document.
func (s *EmployeeService) UpdateEmployee(ctx context.Context, employee Employee, token string) error {
	s.logger.Debugf("updating employee [%s]", employee.ID())

	if v, ok := employee["FirstName"].(string); ok && v == "" {
		employee["FirstName"] = "-"
	}
	if v, ok := employee["LastName"].(string); ok && v == "" {
		employee["LastName"] = "-"
	}
	if v, ok := employee["EmployeeNum"].(string); ok && v == "" {
		detail, _ := json.Marshal(employee)
		return &ValidationError{Field: "EmployeeNum", Detail: string(detail)}
	}

	uri := fmt.Sprintf("/API/2.0/Data/EmployeeManagement/Employee/Default/%d?token=%s",
		employee.Ref().InstanceID(), token)

	var resp CreateResponse
	return s.data.Post(ctx, uri, withoutID(employee), &resp)
}

// GetEmployeeProfile resolves the employee's profile record, which holds
// group memberships separately from the employee itself. Returns nil when
// the employee has no profile row.
func (s *EmployeeService) GetEmployeeProfile(ctx context.Context, employee EntityRef, token string) (*EntityRef, error) {
	s.logger.Debugf("getting profile for employee [%s]", employee.ID)

	uri := fmt.Sprintf("/API/2.0/Data/EmployeeManagement/Employee/Default?select=Profile&where=%s&token=%s",
		whereEq("InstanceId", employee.ID), token)

	var resp employeeProfileResponse
	if err := s.data.Get(ctx, uri, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	ref := resp.Data[0].Profile
	return &ref, nil
}

// GetDefaultWorkflowTemplate finds the default employee workflow
// template. There is no create fallback: nil means new hires are created
// without a template.
func (s *EmployeeService) GetDefaultWorkflowTemplate(ctx context.Context, token string) (*EntityRef, error) {
	s.logger.Debug("getting default workflow template")

	uri := fmt.Sprintf("/API/2.0/Data/Global/WorkflowTemplates/Employee?take=1&where=%s&token=%s",
		whereEq("IsDefault", "True"), token)

	var resp entityListResponse
	if err := s.data.Get(ctx, uri, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	ref := resp.Data[0]
	return &ref, nil
}

// UpdateEmployeeProfile applies group membership changes to a profile.
// When there are no groups to add the call succeeds immediately without
// touching the remote system, even if there are groups to remove; the
// remote API has always behaved this way and existing integrations depend
// on it.
func (s *EmployeeService) UpdateEmployeeProfile(ctx context.Context, profile EntityRef, groupsToAdd, groupsToRemove []EntityRef, token string) error {
	s.logger.Debugf("updating employee profile [%s]", profile.ID)

	if len(groupsToAdd) == 0 {
		return nil
	}

	uri := fmt.Sprintf("/API/2.0/Data/EmployeeManagement/EmployeeProfile/Default/%d?token=%s",
		profile.InstanceID(), token)

	groups := make([]entityReference, 0, len(groupsToAdd)+len(groupsToRemove))
	for _, g := range groupsToAdd {
		groups = append(groups, entityReference{ID: g.ID, Action: "Add"})
	}
	for _, g := range groupsToRemove {
		groups = append(groups, entityReference{ID: g.ID, Action: "Remove"})
	}

	body := map[string]interface{}{"Groups": groups}

	var resp CreateResponse
	return s.data.Post(ctx, uri, body, &resp)
}

// withoutID copies the employee document minus the id slot, which the
// remote API does not accept in request bodies.
func withoutID(employee Employee) map[string]interface{} {
	doc := make(map[string]interface{}, len(employee))
	for k, v := range employee {
		if k == "id" {
			continue
		}
		doc[k] = v
	}
	return doc
}
