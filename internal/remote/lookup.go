package remote

import (
	"context"
	"fmt"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
)

// LookupService resolves and creates lookup values for employee fields
// backed by lookup lists (job titles, departments configured as lookups,
// and so on).
type LookupService struct {
	logger *logger.Logger
	data   DataService
}

// NewLookupService creates a lookup service
func NewLookupService(log *logger.Logger, data DataService) *LookupService {
	return &LookupService{logger: log, data: data}
}

// GetLookupValue finds the lookup value with the given display text in
// the lookup list backing the named employee field. Returns nil when no
// value matches.
func (s *LookupService) GetLookupValue(ctx context.Context, fieldName, text, token string) (*EntityRef, error) {
	s.logger.Debugf("getting lookup value [%s] for field [%s]", text, fieldName)

	uri := fmt.Sprintf("/API/2.0/Data/Lookup/Employee/%s?take=1&where=%s&token=%s",
		fieldName, whereEq("Text", text), token)

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

// CreateLookupValue adds a new value to the lookup list backing the
// named employee field.
func (s *LookupService) CreateLookupValue(ctx context.Context, fieldName, text, token string) (*EntityRef, error) {
	s.logger.Debugf("creating lookup value [%s] for field [%s]", text, fieldName)

	uri := fmt.Sprintf("/API/2.0/Data/Lookup/Employee/%s?token=%s", fieldName, token)

	var resp CreateResponse
	if err := s.data.Post(ctx, uri, map[string]interface{}{"Text": text}, &resp); err != nil {
		return nil, err
	}
	return &EntityRef{ID: resp.ID}, nil
}
