package domain

// IsTaskParticipant reports whether userID created t or is assigned to it.
func IsTaskParticipant(t *Task, userID int64) bool {
	return t.CreatorID == userID || t.IsAssignedTo(userID)
}

// CanAccessTask is the visibility and modification rule for tasks:
// administrators may access any task, everyone else only tasks they take part in.
func CanAccessTask(t *Task, u *User) bool {
	if t == nil || u == nil {
		return false
	}
	return u.IsAdmin() || IsTaskParticipant(t, u.ID)
}

// CanReassignTask reports whether u may set t's assignee to newAssignee
// (nil clears it). Keeping the current assignee is always allowed.
// Administrators and the creator may pick anyone; others only themselves.
func CanReassignTask(t *Task, u *User, newAssignee *int64) bool {
	if !CanAccessTask(t, u) {
		return false
	}
	if sameAssignee(t.AssigneeID, newAssignee) {
		return true
	}
	if u.IsAdmin() || t.CreatorID == u.ID {
		return true
	}
	return newAssignee != nil && *newAssignee == u.ID
}

// CanDeleteTaskChild reports whether u may delete a comment or attachment of t
// that was authored by ownerID.
func CanDeleteTaskChild(t *Task, ownerID int64, u *User) bool {
	if t == nil || u == nil {
		return false
	}
	return u.IsAdmin() || ownerID == u.ID || IsTaskParticipant(t, u.ID)
}

func sameAssignee(a, b *int64) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}
