package filter

import (
	"strings"
	"time"

	"golang.org/x/text/cases"

	"github.com/phrazzld/takeatask-api/internal/domain"
)

type keywordPredicate struct {
	keyword string
}

// Keyword matches tasks whose name or description contains kw, ignoring case.
func Keyword(kw string) Predicate {
	return keywordPredicate{keyword: kw}
}

func (p keywordPredicate) Matches(t *domain.Task) bool {
	fold := cases.Fold()
	needle := fold.String(p.keyword)
	return strings.Contains(fold.String(t.Name), needle) ||
		strings.Contains(fold.String(t.Description), needle)
}

func (p keywordPredicate) SQL(args *Args) string {
	ph := args.Add("%" + escapeLike(p.keyword) + "%")
	return "(t.name ILIKE " + ph + " OR t.description ILIKE " + ph + ")"
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

func escapeLike(s string) string {
	return likeEscaper.Replace(s)
}

type statusPredicate struct {
	status domain.TaskStatus
}

// StatusIs matches tasks in the given status.
func StatusIs(s domain.TaskStatus) Predicate {
	return statusPredicate{status: s}
}

func (p statusPredicate) Matches(t *domain.Task) bool {
	return t.Status == p.status
}

func (p statusPredicate) SQL(args *Args) string {
	return "t.status = " + args.Add(string(p.status))
}

type priorityPredicate struct {
	priority domain.TaskPriority
}

// PriorityIs matches tasks with the given priority.
func PriorityIs(pr domain.TaskPriority) Predicate {
	return priorityPredicate{priority: pr}
}

func (p priorityPredicate) Matches(t *domain.Task) bool {
	return t.Priority == p.priority
}

func (p priorityPredicate) SQL(args *Args) string {
	return "t.priority = " + args.Add(string(p.priority))
}

type deadlineFromPredicate struct {
	from time.Time
}

// DeadlineFrom matches tasks whose deadline is at or after from.
func DeadlineFrom(from time.Time) Predicate {
	return deadlineFromPredicate{from: from}
}

func (p deadlineFromPredicate) Matches(t *domain.Task) bool {
	return t.Deadline != nil && !t.Deadline.Before(p.from)
}

func (p deadlineFromPredicate) SQL(args *Args) string {
	return "t.deadline >= " + args.Add(p.from)
}

type deadlineToPredicate struct {
	to time.Time
}

// DeadlineTo matches tasks whose deadline is at or before to.
func DeadlineTo(to time.Time) Predicate {
	return deadlineToPredicate{to: to}
}

func (p deadlineToPredicate) Matches(t *domain.Task) bool {
	return t.Deadline != nil && !t.Deadline.After(p.to)
}

func (p deadlineToPredicate) SQL(args *Args) string {
	return "t.deadline <= " + args.Add(p.to)
}

type anyTagPredicate struct {
	ids []int64
}

// HasAnyTag matches tasks carrying at least one of ids.
func HasAnyTag(ids []int64) Predicate {
	cp := make([]int64, len(ids))
	copy(cp, ids)
	return anyTagPredicate{ids: cp}
}

func (p anyTagPredicate) Matches(t *domain.Task) bool {
	for _, tag := range t.Tags {
		for _, id := range p.ids {
			if tag.ID == id {
				return true
			}
		}
	}
	return false
}

// EXISTS keeps one row per task however many tags match.
func (p anyTagPredicate) SQL(args *Args) string {
	return "EXISTS (SELECT 1 FROM task_tags tt WHERE tt.task_id = t.id AND tt.tag_id = ANY(" +
		args.Add(p.ids) + "))"
}

type assigneePredicate struct {
	userID int64
}

// AssigneeIs matches tasks assigned to userID.
func AssigneeIs(userID int64) Predicate {
	return assigneePredicate{userID: userID}
}

func (p assigneePredicate) Matches(t *domain.Task) bool {
	return t.IsAssignedTo(p.userID)
}

func (p assigneePredicate) SQL(args *Args) string {
	return "t.assignee_id = " + args.Add(p.userID)
}

type participantPredicate struct {
	userID int64
}

// ParticipantOf matches tasks created by or assigned to userID.
func ParticipantOf(userID int64) Predicate {
	return participantPredicate{userID: userID}
}

func (p participantPredicate) Matches(t *domain.Task) bool {
	return domain.IsTaskParticipant(t, p.userID)
}

func (p participantPredicate) SQL(args *Args) string {
	ph := args.Add(p.userID)
	return "(t.creator_id = " + ph + " OR t.assignee_id = " + ph + ")"
}
