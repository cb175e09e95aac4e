// Package policy holds the allowed-role table for every protected operation.
package policy

import "github.com/Marga-Ghale/ora-taskflow-backend/internal/types"

type Operation string

const (
	UserList         Operation = "user.list"
	UserListAdmins   Operation = "user.listAdmins"
	UserToggleAccess Operation = "user.toggleAccess"
	UserDelete       Operation = "user.delete"

	TeamCreate         Operation = "team.create"
	TeamList           Operation = "team.list"
	TeamGet            Operation = "team.get"
	TeamUpdate         Operation = "team.update"
	TeamDelete         Operation = "team.delete"
	TeamAddMember      Operation = "team.addMember"
	TeamRemoveMember   Operation = "team.removeMember"
	TeamTransferMember Operation = "team.transferMember"

	TaskCreate          Operation = "task.create"
	TaskGet             Operation = "task.get"
	TaskFilter          Operation = "task.filter"
	TaskHistory         Operation = "task.history"
	TaskListByTeam      Operation = "task.listByTeam"
	TaskMarkInProgress  Operation = "task.markInProgress"
	TaskRequestApproval Operation = "task.requestApproval"
	TaskApprove         Operation = "task.approve"
	TaskReject          Operation = "task.reject"
	TaskSupersede       Operation = "task.supersede"

	TimeLogStart     Operation = "timelog.start"
	TimeLogPause     Operation = "timelog.pause"
	TimeLogResume    Operation = "timelog.resume"
	TimeLogStop      Operation = "timelog.stop"
	TimeLogStatus    Operation = "timelog.status"
	TimeLogTaskTotal Operation = "timelog.taskTotal"

	NotificationRead Operation = "notification.read"

	DashboardMember Operation = "dashboard.member"
	DashboardAdmin  Operation = "dashboard.admin"
	DashboardSystem Operation = "dashboard.system"
)

var (
	everyone = roles(types.RoleMember, types.RoleAdmin, types.RoleSuperAdmin)
	managers = roles(types.RoleAdmin, types.RoleSuperAdmin)
	super    = roles(types.RoleSuperAdmin)
)

var table = map[Operation]map[string]struct{}{
	UserList:         managers,
	UserListAdmins:   super,
	UserToggleAccess: super,
	UserDelete:       super,

	TeamCreate:         managers,
	TeamList:           everyone,
	TeamGet:            everyone,
	TeamUpdate:         managers,
	TeamDelete:         managers,
	TeamAddMember:      managers,
	TeamRemoveMember:   managers,
	TeamTransferMember: managers,

	TaskCreate:          managers,
	TaskGet:             everyone,
	TaskFilter:          everyone,
	TaskHistory:         everyone,
	TaskListByTeam:      managers,
	TaskMarkInProgress:  everyone,
	TaskRequestApproval: everyone,
	TaskApprove:         managers,
	TaskReject:          managers,
	TaskSupersede:       managers,

	TimeLogStart:     everyone,
	TimeLogPause:     everyone,
	TimeLogResume:    everyone,
	TimeLogStop:      everyone,
	TimeLogStatus:    everyone,
	TimeLogTaskTotal: everyone,

	NotificationRead: everyone,

	DashboardMember: everyone,
	DashboardAdmin:  managers,
	DashboardSystem: super,
}

// Allows reports whether role may perform op. Unknown operations are denied.
func Allows(role string, op Operation) bool {
	allowed, ok := table[op]
	if !ok {
		return false
	}
	_, ok = allowed[role]
	return ok
}

// Roles lists the roles allowed for op.
func Roles(op Operation) []string {
	out := make([]string, 0, len(table[op]))
	for _, r := range types.ValidRoles {
		if _, ok := table[op][r]; ok {
			out = append(out, r)
		}
	}
	return out
}

func roles(rs ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(rs))
	for _, r := range rs {
		m[r] = struct{}{}
	}
	return m
}
