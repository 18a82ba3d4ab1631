package reconcile

import (
	"context"
	"fmt"

	"github.com/larry-brewer/jsonauth/pkg/accounts"
)

// RoleMapper derives the local role tier and group membership from the
// assertion's admin flag. The two special groups are fixed: admins land
// in ADMINISTRATORS as founders, everyone else in REGISTERED as normal
// users.
type RoleMapper struct {
	groups accounts.GroupDirectory
}

// NewRoleMapper creates a role mapper over the given group directory.
func NewRoleMapper(groups accounts.GroupDirectory) *RoleMapper {
	return &RoleMapper{groups: groups}
}

// MapRole resolves the role tier and group ID for an assertion's admin
// flag. An unresolvable group is a configuration error and fails closed.
func (m *RoleMapper) MapRole(ctx context.Context, admin bool) (accounts.RoleTier, int64, error) {
	tier := accounts.RoleNormal
	groupName := accounts.GroupRegistered
	if admin {
		tier = accounts.RoleFounder
		groupName = accounts.GroupAdministrators
	}

	groupID, err := m.groups.ResolveSpecialGroup(ctx, groupName)
	if err != nil {
		return 0, 0, fmt.Errorf("%w: %s: %v", ErrGroupResolution, groupName, err)
	}

	return tier, groupID, nil
}
