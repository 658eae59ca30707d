package tasks

// RoleAction is the decision for one member during a role sync pass.
type RoleAction int

const (
	NoAction RoleAction = iota
	AddRole
	RemoveRole
)

func (a RoleAction) String() string {
	switch a {
	case AddRole:
		return "add"
	case RemoveRole:
		return "remove"
	default:
		return "none"
	}
}

// DetermineRoleAction reconciles one member's birthday-role state:
// role missing on their birthday gets added, role present on any other day
// gets removed, matching states are left alone.
func DetermineRoleAction(hasBirthdayToday, hasRole bool) RoleAction {
	switch {
	case hasBirthdayToday && !hasRole:
		return AddRole
	case !hasBirthdayToday && hasRole:
		return RemoveRole
	default:
		return NoAction
	}
}
