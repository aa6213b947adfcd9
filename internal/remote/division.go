package remote

import (
	"context"
	"fmt"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
)

// DivisionService finds divisions in the remote system. Divisions are
// never created by the sync; a missing division is a data problem on the
// remote side.
type DivisionService struct {
	logger *logger.Logger
	data   DataService
}

// NewDivisionService creates a division service
func NewDivisionService(log *logger.Logger, data DataService) *DivisionService {
	return &DivisionService{logger: log, data: data}
}

// GetDivisionByName finds a division by its path. Returns nil when no
// division matches.
func (s *DivisionService) GetDivisionByName(ctx context.Context, divisionPath, token string) (*EntityRef, error) {
	s.logger.Debugf("getting division [%s]", divisionPath)

	uri := fmt.Sprintf("/API/2.0/Data/EmployeeManagement/EmployeeDivision/Default?take=1&where=%s&token=%s",
		whereEq("Path", divisionPath), token)

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
