package remote

import (
	"context"
	"fmt"

	"github.com/SAIGlobal/compliance360-activedirectory-sync/internal/logger"
)

// GroupService manages security groups and reads profile group
// memberships. New groups are filed under the root "Groups" folder, the
// one with neither a parent folder nor a division.
type GroupService struct {
	logger *logger.Logger
	data   DataService

	folder *EntityRef
}

// NewGroupService creates a group service
func NewGroupService(log *logger.Logger, data DataService) *GroupService {
	return &GroupService{logger: log, data: data}
}

type folderRow struct {
	EntityRef
	Name     string    `json:"Name"`
	Parent   EntityRef `json:"Parent"`
	Division EntityRef `json:"Division"`
}

type folderListResponse struct {
	Status Status      `json:"status"`
	Data   []folderRow `json:"data"`
}

type groupMembershipRow struct {
	Groups []EntityRef `json:"Groups"`
}

type groupMembershipResponse struct {
	Status Status               `json:"status"`
	Data   []groupMembershipRow `json:"data"`
}

type groupNameRow struct {
	GroupName string `json:"GroupName"`
}

type groupNameResponse struct {
	Status Status         `json:"status"`
	Data   []groupNameRow `json:"data"`
}

// groupsFolder resolves the root Groups folder, once. The remote system
// reports an absent parent or division as the literal token "NULL".
func (s *GroupService) groupsFolder(ctx context.Context, token string) (*EntityRef, error) {
	if s.folder != nil {
		return s.folder, nil
	}

	s.logger.Debug("resolving root groups folder")

	uri := fmt.Sprintf("/API/2.0/Data/Global/Folders/Default?select=Name,Parent,Division&where=%s&token=%s",
		whereEq("Name", "Groups"), token)

	var resp folderListResponse
	if err := s.data.Get(ctx, uri, &resp); err != nil {
		return nil, err
	}
	for _, row := range resp.Data {
		if row.Parent.ID == "NULL" && row.Division.ID == "NULL" {
			ref := row.EntityRef
			s.folder = &ref
			return s.folder, nil
		}
	}
	return nil, &OperationError{
		Endpoint: "/API/2.0/Data/Global/Folders/Default",
		Reason:   "no root Groups folder found",
	}
}

// GetGroupByName finds a group by name. Returns nil when no group
// matches.
func (s *GroupService) GetGroupByName(ctx context.Context, name, token string) (*EntityRef, error) {
	s.logger.Debugf("getting group [%s]", name)

	uri := fmt.Sprintf("/API/2.0/Data/EmployeeManagement/EmployeeGroup/Default?take=1&where=%s&token=%s",
		whereEq("GroupName", name), token)

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

// CreateGroup creates a static security group under the root Groups
// folder.
func (s *GroupService) CreateGroup(ctx context.Context, name, token string) (*EntityRef, error) {
	s.logger.Debugf("creating group [%s]", name)

	folder, err := s.groupsFolder(ctx, token)
	if err != nil {
		return nil, err
	}

	uri := fmt.Sprintf("/API/2.0/Data/EmployeeManagement/EmployeeGroup/Default?token=%s", token)

	body := map[string]interface{}{
		"GroupName":      name,
		"Dynamic":        false,
		"UseForSecurity": true,
		"UseForWorkflow": true,
		"Folder":         folder,
	}

	var resp CreateResponse
	if err := s.data.Post(ctx, uri, body, &resp); err != nil {
		return nil, err
	}
	return &EntityRef{ID: resp.ID}, nil
}

// GetGroupMembership returns the groups currently assigned to an
// employee profile.
func (s *GroupService) GetGroupMembership(ctx context.Context, profile EntityRef, token string) ([]EntityRef, error) {
	s.logger.Debugf("getting group membership for profile [%s]", profile.ID)

	uri := fmt.Sprintf("/API/2.0/Data/EmployeeManagement/EmployeeProfile/Default?select=Groups&where=%s&token=%s",
		whereEq("InstanceId", profile.ID), token)

	var resp groupMembershipResponse
	if err := s.data.Get(ctx, uri, &resp); err != nil {
		return nil, err
	}
	if len(resp.Data) == 0 {
		return nil, nil
	}
	return resp.Data[0].Groups, nil
}

// GetGroupName returns the display name of a group. Returns the empty
// string when the group no longer exists.
func (s *GroupService) GetGroupName(ctx context.Context, group EntityRef, token string) (string, error) {
	s.logger.Debugf("getting name of group [%s]", group.ID)

	uri := fmt.Sprintf("/API/2.0/Data/EmployeeManagement/EmployeeGroup/Default?select=GroupName&where=%s&token=%s",
		whereEq("InstanceId", group.ID), token)

	var resp groupNameResponse
	if err := s.data.Get(ctx, uri, &resp); err != nil {
		return "", err
	}
	if len(resp.Data) == 0 {
		return "", nil
	}
	return resp.Data[0].GroupName, nil
}
