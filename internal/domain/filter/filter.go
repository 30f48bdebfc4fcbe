// Package filter composes task list filters as an ordered list of independent
// predicates combined with AND. Every predicate evaluates against an in-memory
// task and renders the equivalent SQL condition over the tasks table aliased "t",
// so stores and fakes apply exactly the same rules.
package filter

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/phrazzld/takeatask-api/internal/domain"
)

// Scope is the client-selected visibility window over task listings.
type Scope string

// Scope tokens.
const (
	ScopeMine Scope = "mine"
	ScopeTeam Scope = "team"
	ScopeAll  Scope = "all"
)

var (
	// ErrForeignAssignee is returned when a standard user filters by someone
	// else's assignments.
	ErrForeignAssignee = errors.New("not allowed to list tasks assigned to another user")

	// ErrInvalidScope is returned for an unknown scope token.
	ErrInvalidScope = errors.New("invalid scope")
)

// ParseScope converts s to a Scope. An empty string means ScopeAll.
func ParseScope(s string) (Scope, error) {
	switch sc := Scope(strings.ToLower(strings.TrimSpace(s))); sc {
	case "":
		return ScopeAll, nil
	case ScopeMine, ScopeTeam, ScopeAll:
		return sc, nil
	}
	return "", fmt.Errorf("%w: %q", ErrInvalidScope, s)
}

// Criteria holds the optional user-supplied filters of a task listing.
// Nil or empty fields do not filter.
type Criteria struct {
	Status       *domain.TaskStatus
	Priority     *domain.TaskPriority
	AssigneeID   *int64
	DeadlineFrom *time.Time
	DeadlineTo   *time.Time
	TagIDs       []int64
	Keyword      string
	Scope        Scope
}

// Args collects positional SQL arguments.
type Args struct {
	values []any
}

// Add appends v and returns its placeholder.
func (a *Args) Add(v any) string {
	a.values = append(a.values, v)
	return "$" + strconv.Itoa(len(a.values))
}

// Values returns the collected arguments in placeholder order.
func (a *Args) Values() []any {
	return a.values
}

// Predicate is one pure condition over a task.
type Predicate interface {
	// Matches evaluates the condition against t.
	Matches(t *domain.Task) bool
	// SQL renders the condition, registering its arguments in args.
	SQL(args *Args) string
}

// Build turns c into predicates for caller: user-supplied filters first, then
// the scope predicates.
func Build(c Criteria, caller *domain.User) ([]Predicate, error) {
	var preds []Predicate
	if kw := strings.TrimSpace(c.Keyword); kw != "" {
		preds = append(preds, Keyword(kw))
	}
	if c.Status != nil {
		preds = append(preds, StatusIs(*c.Status))
	}
	if c.Priority != nil {
		preds = append(preds, PriorityIs(*c.Priority))
	}
	if c.DeadlineFrom != nil {
		preds = append(preds, DeadlineFrom(*c.DeadlineFrom))
	}
	if c.DeadlineTo != nil {
		preds = append(preds, DeadlineTo(*c.DeadlineTo))
	}
	if len(c.TagIDs) > 0 {
		preds = append(preds, HasAnyTag(c.TagIDs))
	}

	scoped, err := ScopePredicates(caller, c.Scope, c.AssigneeID)
	if err != nil {
		return nil, err
	}
	return append(preds, scoped...), nil
}

// ScopePredicates resolves the scope token and the assignee filter into the
// caller-identity restrictions.
//
// Administrators: mine restricts to tasks they created or are assigned to,
// anything else is unrestricted; the assignee filter is ignored under mine.
// Standard users: team restricts to tasks assigned to them, mine and all to
// tasks they created or are assigned to.
// A standard user may only name themselves as assignee.
func ScopePredicates(caller *domain.User, scope Scope, assigneeID *int64) ([]Predicate, error) {
	if caller == nil {
		return nil, domain.ErrUnauthorized
	}
	if scope == "" {
		scope = ScopeAll
	}

	var preds []Predicate
	if caller.IsAdmin() {
		if scope == ScopeMine {
			preds = append(preds, ParticipantOf(caller.ID))
		} else if assigneeID != nil {
			preds = append(preds, AssigneeIs(*assigneeID))
		}
		return preds, nil
	}

	if assigneeID != nil && *assigneeID != caller.ID {
		return nil, ErrForeignAssignee
	}
	switch scope {
	case ScopeTeam:
		preds = append(preds, AssigneeIs(caller.ID))
	default:
		preds = append(preds, ParticipantOf(caller.ID))
		if assigneeID != nil {
			preds = append(preds, AssigneeIs(caller.ID))
		}
	}
	return preds, nil
}

// MatchAll reports whether t satisfies every predicate.
func MatchAll(preds []Predicate, t *domain.Task) bool {
	for _, p := range preds {
		if !p.Matches(t) {
			return false
		}
	}
	return true
}

// Where renders the predicates joined by AND, or "" when there are none.
func Where(preds []Predicate, args *Args) string {
	if len(preds) == 0 {
		return ""
	}
	parts := make([]string, len(preds))
	for i, p := range preds {
		parts[i] = p.SQL(args)
	}
	return strings.Join(parts, " AND ")
}
