package service

// Activatable is the narrow view of a user the activation policy needs.
// Defined here so the entity package can depend on the policy without a cycle.
type Activatable interface {
	IsActive() bool
}

// CanActivate reports whether the user may transition to active.
// Business rule: only an inactive user can be activated.
func CanActivate(u Activatable) bool {
	return !u.IsActive()
}

// CanDeactivate reports whether the user may transition to inactive.
// Business rule: only an active user can be deactivated.
func CanDeactivate(u Activatable) bool {
	return u.IsActive()
}
