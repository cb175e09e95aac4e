package types

// User roles. Roles are compared by exact value; there is no hierarchy.
const (
	RoleMember     = "Member"
	RoleAdmin      = "Admin"
	RoleSuperAdmin = "SuperAdmin"
)

// Task Status values
const (
	StatusTodo            = "Todo"
	StatusInProgress      = "In Progress"
	StatusPendingApproval = "Pending Approval"
	StatusCompleted       = "Completed"
	StatusRejected        = "Rejected"
)

// Task Priority values
const (
	PriorityLow    = "Low"
	PriorityMedium = "Medium"
	PriorityHigh   = "High"
)

// Notification types
const (
	NotificationInfo    = "info"
	NotificationSuccess = "success"
	NotificationWarning = "warning"
	NotificationError   = "error"
)

// Task event kinds
const (
	EventCreated    = "created"
	EventStarted    = "started"
	EventSubmitted  = "submitted"
	EventApproved   = "approved"
	EventRejected   = "rejected"
	EventSuperseded = "superseded"
)

// Task sort keys
const (
	SortByDueDate  = "dueDate"
	SortByPriority = "priority"
)

var ValidRoles = []string{RoleMember, RoleAdmin, RoleSuperAdmin}

// RegistrableRoles are the roles a user may pick for themselves at sign-up.
var RegistrableRoles = []string{RoleMember, RoleAdmin}

var ValidTaskStatuses = []string{
	StatusTodo, StatusInProgress, StatusPendingApproval,
	StatusCompleted, StatusRejected,
}

var ValidPriorities = []string{PriorityLow, PriorityMedium, PriorityHigh}

var ValidNotificationTypes = []string{
	NotificationInfo, NotificationSuccess, NotificationWarning, NotificationError,
}

var ValidSortKeys = []string{SortByDueDate, SortByPriority}

func IsValidRole(role string) bool {
	return contains(ValidRoles, role)
}

func IsRegistrableRole(role string) bool {
	return contains(RegistrableRoles, role)
}

func IsValidTaskStatus(status string) bool {
	return contains(ValidTaskStatuses, status)
}

func IsValidPriority(priority string) bool {
	return contains(ValidPriorities, priority)
}

func IsValidNotificationType(t string) bool {
	return contains(ValidNotificationTypes, t)
}

func IsValidSortKey(key string) bool {
	return contains(ValidSortKeys, key)
}

// PriorityRank orders priorities by severity, High first.
func PriorityRank(priority string) int {
	switch priority {
	case PriorityHigh:
		return 0
	case PriorityMedium:
		return 1
	case PriorityLow:
		return 2
	default:
		return 3
	}
}

// DefaultAdminAccess is the adminAccess flag a freshly registered user gets.
// Admin accounts wait for SuperAdmin approval.
func DefaultAdminAccess(role string) bool {
	return role != RoleAdmin
}

func contains(values []string, v string) bool {
	for _, s := range values {
		if s == v {
			return true
		}
	}
	return false
}
