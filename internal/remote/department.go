package remote

import (
	"context"
	"fmt"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
)

// DepartmentService finds and creates departments. Departments live under
// a division and match on either their number or their display name.
type DepartmentService struct {
	logger *logger.Logger
	data   DataService
}

// NewDepartmentService creates a department service
func NewDepartmentService(log *logger.Logger, data DataService) *DepartmentService {
	return &DepartmentService{logger: log, data: data}
}

// GetDepartment finds a department by name, matching the DeptNum or
// DeptName field. Returns nil when no department matches.
func (s *DepartmentService) GetDepartment(ctx context.Context, departmentName, token string) (*EntityRef, error) {
	s.logger.Debugf("getting department [%s]", departmentName)

	where := whereOr(whereEq("DeptNum", departmentName), whereEq("DeptName", departmentName))
	uri := fmt.Sprintf("/API/2.0/Data/EmployeeManagement/EmployeeDepartment/Default?take=1&where=%s&token=%s",
		where, token)

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

// CreateDepartment creates a department scoped to the given division,
// using the name for both the department number and display name.
func (s *DepartmentService) CreateDepartment(ctx context.Context, departmentName string, division EntityRef, token string) (*EntityRef, error) {
	s.logger.Debugf("creating department [%s]", departmentName)

	uri := fmt.Sprintf("/API/2.0/Data/EmployeeManagement/EmployeeDepartment/Default?token=%s", token)
	department := map[string]interface{}{
		"DeptNum":  departmentName,
		"DeptName": departmentName,
		"Division": division,
	}

	var resp CreateResponse
	if err := s.data.Post(ctx, uri, department, &resp); err != nil {
		return nil, err
	}
	return &EntityRef{ID: resp.ID}, nil
}
