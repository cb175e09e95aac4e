package policy

import (
	"reflect"
	"testing"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/types"
)

func TestAllowsIsExactSetMembership(t *testing.T) {
	tests := []struct {
		role string
		op   Operation
		want bool
	}{
		{types.RoleAdmin, TaskCreate, true},
		{types.RoleSuperAdmin, TaskCreate, true},
		{types.RoleMember, TaskCreate, false},
		// no hierarchy: SuperAdmin is not implicitly allowed everywhere an Admin is
		{types.RoleAdmin, UserToggleAccess, false},
		{types.RoleSuperAdmin, UserToggleAccess, true},
		{types.RoleMember, DashboardAdmin, false},
		{types.RoleAdmin, DashboardSystem, false},
		{"admin", TaskCreate, false},
		{"", TaskGet, false},
		{types.RoleSuperAdmin, Operation("does.not.exist"), false},
	}

	for _, tt := range tests {
		if got := Allows(tt.role, tt.op); got != tt.want {
			t.Errorf("Allows(%q, %s) = %v, want %v", tt.role, tt.op, got, tt.want)
		}
	}
}

func TestEveryOperationHasAnEntry(t *testing.T) {
	ops := []Operation{
		UserList, UserListAdmins, UserToggleAccess, UserDelete,
		TeamCreate, TeamList, TeamGet, TeamUpdate, TeamDelete,
		TeamAddMember, TeamRemoveMember, TeamTransferMember,
		TaskCreate, TaskGet, TaskFilter, TaskHistory, TaskListByTeam,
		TaskMarkInProgress, TaskRequestApproval, TaskApprove, TaskReject, TaskSupersede,
		TimeLogStart, TimeLogPause, TimeLogResume, TimeLogStop, TimeLogStatus, TimeLogTaskTotal,
		NotificationRead, DashboardMember, DashboardAdmin, DashboardSystem,
	}
	for _, op := range ops {
		if len(Roles(op)) == 0 {
			t.Errorf("operation %s has no allowed roles", op)
		}
	}
}

func TestRolesOrder(t *testing.T) {
	got := Roles(TaskApprove)
	want := []string{types.RoleAdmin, types.RoleSuperAdmin}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Roles(TaskApprove) = %v, want %v", got, want)
	}
}
