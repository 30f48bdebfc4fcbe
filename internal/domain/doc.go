// Package domain holds the task board entities (users, tags, tasks and their
// subtasks, comments and attachments), their validation rules and the
// access predicates every service applies.
package domain
