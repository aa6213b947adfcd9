package remote

import (
	"context"
	"fmt"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
)

// CompanyService finds and creates company records referenced from
// employee documents.
type CompanyService struct {
	logger *logger.Logger
	data   DataService
}

// NewCompanyService creates a company service
func NewCompanyService(log *logger.Logger, data DataService) *CompanyService {
	return &CompanyService{logger: log, data: data}
}

// GetCompanyByName finds a company by name. Returns nil when no company
// matches.
func (s *CompanyService) GetCompanyByName(ctx context.Context, name, token string) (*EntityRef, error) {
	s.logger.Debugf("getting company [%s]", name)

	uri := fmt.Sprintf("/API/2.0/Data/EmployeeManagement/EmployeeCompany/Default?take=1&where=%s&token=%s",
		whereEq("CompName", name), token)

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

// CreateCompany creates a company record with the given name.
func (s *CompanyService) CreateCompany(ctx context.Context, name, token string) (*EntityRef, error) {
	s.logger.Debugf("creating company [%s]", name)

	uri := fmt.Sprintf("/API/2.0/Data/EmployeeManagement/EmployeeCompany/Default?token=%s", token)

	var resp CreateResponse
	if err := s.data.Post(ctx, uri, map[string]interface{}{"CompName": name}, &resp); err != nil {
		return nil, err
	}
	return &EntityRef{ID: resp.ID}, nil
}
