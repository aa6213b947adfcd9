package remote

import (
	"context"
	"fmt"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
)

// RelationshipService manages typed links between employee records, the
// "reports to" style associations. A relationship is its own entity; the
// owning employee additionally holds a reference list pointing at it.
type RelationshipService struct {
	logger *logger.Logger
	data   DataService
}

// NewRelationshipService creates a relationship service
func NewRelationshipService(log *logger.Logger, data DataService) *RelationshipService {
	return &RelationshipService{logger: log, data: data}
}

type relatedEmployeesRow struct {
	RelatedEmployees []EntityRef `json:"RelatedEmployees"`
}

type relatedEmployeesResponse struct {
	Status Status                `json:"status"`
	Data   []relatedEmployeesRow `json:"data"`
}

type relationshipListResponse struct {
	Status Status         `json:"status"`
	Data   []Relationship `json:"data"`
}

// GetEmployeeRelationships lists the relationship refs held by an
// employee record.
func (s *RelationshipService) GetEmployeeRelationships(ctx context.Context, employee EntityRef, token string) ([]EntityRef, error) {
	s.logger.Debugf("getting relationships for employee [%s]", employee.ID)

	uri := fmt.Sprintf("/API/2.0/Data/EmployeeManagement/Employee/Default?select=RelatedEmployees&where=%s&token=%s",
		whereEq("InstanceId", employee.ID), token)

	var resp relatedEmployeesResponse
	if err := s.data.Get(ctx, uri, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	return resp.Data[0].RelatedEmployees, nil
}

// GetRelationshipDetails loads the target employee and type of a single
// relationship. Returns nil when the relationship no longer exists.
func (s *RelationshipService) GetRelationshipDetails(ctx context.Context, relationship EntityRef, token string) (*Relationship, error) {
	s.logger.Debugf("getting details of relationship [%s]", relationship.ID)

	uri := fmt.Sprintf("/API/2.0/Data/EmployeeManagement/EmployeeRelationship/Default?select=Employee,Type&where=%s&token=%s",
		whereEq("InstanceId", relationship.ID), token)

	var resp relationshipListResponse
	if err := s.data.Get(ctx, uri, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	rel := resp.Data[0]
	rel.EntityRef = relationship
	return &rel, nil
}

// GetRelationshipTypeByName finds a relationship type by its display
// text. Returns nil when no type matches.
func (s *RelationshipService) GetRelationshipTypeByName(ctx context.Context, name, token string) (*EntityRef, error) {
	s.logger.Debugf("getting relationship type [%s]", name)

	uri := fmt.Sprintf("/API/2.0/Data/Lookup/EmployeeRelationship/Type?take=1&where=%s&token=%s",
		whereEq("Text", name), token)

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

// CreateRelationshipType creates a new relationship type lookup value.
func (s *RelationshipService) CreateRelationshipType(ctx context.Context, name, token string) (*EntityRef, error) {
	s.logger.Debugf("creating relationship type [%s]", name)

	uri := fmt.Sprintf("/API/2.0/Data/Lookup/EmployeeRelationship/Type?token=%s", token)

	var resp CreateResponse
	if err := s.data.Post(ctx, uri, map[string]interface{}{"Text": name}, &resp); err != nil {
		return nil, err
	}
	return &EntityRef{ID: resp.ID}, nil
}

// CreateRelationship creates a typed relationship from employee to
// target. Two writes are required: creating the relationship entity, then
// adding it to the owning employee's reference list.
func (s *RelationshipService) CreateRelationship(ctx context.Context, employee, relType, target EntityRef, token string) (*EntityRef, error) {
	s.logger.Debugf("creating [%s] relationship from [%s] to [%s]", relType.ID, employee.ID, target.ID)

	uri := fmt.Sprintf("/API/2.0/Data/EmployeeManagement/EmployeeRelationship/Default?token=%s", token)

	body := map[string]interface{}{
		"Employee": target,
		"Type":     relType,
	}

	var resp CreateResponse
	if err := s.data.Post(ctx, uri, body, &resp); err != nil {
		return nil, err
	}
	rel := EntityRef{ID: resp.ID}

	uri = fmt.Sprintf("/API/2.0/Data/EmployeeManagement/Employee/Default/%d?token=%s",
		employee.InstanceID(), token)

	link := map[string]interface{}{
		"RelatedEmployees": []entityReference{{ID: rel.ID, Action: "Add"}},
	}

	var linkResp CreateResponse
	if err := s.data.Post(ctx, uri, link, &linkResp); err != nil {
		return nil, err
	}
	return &rel, nil
}

// UpdateRelationship repoints an existing relationship at a new target
// employee.
func (s *RelationshipService) UpdateRelationship(ctx context.Context, relationship, target EntityRef, token string) error {
	s.logger.Debugf("updating relationship [%s] to target [%s]", relationship.ID, target.ID)

	uri := fmt.Sprintf("/API/2.0/Data/EmployeeManagement/EmployeeRelationship/Default/%d?token=%s",
		relationship.InstanceID(), token)

	body := map[string]interface{}{"Employee": target}

	var resp CreateResponse
	return s.data.Post(ctx, uri, body, &resp)
}
