package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/phrazzld/takeatask-api/internal/api/shared"
	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/domain/filter"
	"github.com/phrazzld/takeatask-api/internal/redact"
	"github.com/phrazzld/takeatask-api/internal/service"
)

const dateOnly = "2006-01-02"

// requireCaller returns the authenticated user placed in the context by the
// auth middleware, writing a 401 when there is none.
func requireCaller(w http.ResponseWriter, r *http.Request, log *slog.Logger) (*domain.User, bool) {
	caller, ok := shared.CallerFromContext(r.Context())
	if !ok {
		log.Warn("caller not found in request context")
		HandleAPIError(w, r, service.ErrUnauthenticated, "")
		return nil, false
	}
	return caller, true
}

// parseID parses a positive int64 identifier named name.
func parseID(name, raw string) (int64, error) {
	if raw == "" {
		return 0, domain.NewValidationError(name, "is required", domain.ErrInvalidID)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.NewValidationError(name, "must be a positive integer", domain.ErrInvalidID)
	}
	return id, nil
}

// pathIDs parses the named chi URL parameters as int64 identifiers, writing
// a 400 on the first invalid one.
func pathIDs(w http.ResponseWriter, r *http.Request, log *slog.Logger, names ...string) ([]int64, bool) {
	ids := make([]int64, len(names))
	for i, name := range names {
		raw := chi.URLParam(r, name)
		id, err := parseID(name, raw)
		if err != nil {
			log.Warn("invalid path parameter",
				slog.String("param_name", name),
				slog.String("value", raw))
			HandleAPIError(w, r, err, "")
			return nil, false
		}
		ids[i] = id
	}
	return ids, true
}

// decodeAndValidate decodes the JSON body into dst and validates its struct
// tags, writing a 400 on failure.
func decodeAndValidate(w http.ResponseWriter, r *http.Request, log *slog.Logger, dst any) bool {
	if err := shared.DecodeJSON(r, dst); err != nil {
		log.Warn("invalid request format", redact.Attr(err))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return false
	}
	if err := shared.ValidateRequest(dst); err != nil {
		log.Warn("validation error", redact.Attr(err))
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, SanitizeValidationError(err), err)
		return false
	}
	return true
}

// decodeJSON decodes the body without tag validation, for partial updates.
func decodeJSON(w http.ResponseWriter, r *http.Request, log *slog.Logger, dst any) bool {
	if err := shared.DecodeJSON(r, dst); err != nil {
		log.Warn("invalid request format", redact.Attr(err))
		shared.RespondWithError(w, r, http.StatusBadRequest, "Invalid request format")
		return false
	}
	return true
}

// parseDeadline accepts RFC 3339 timestamps and YYYY-MM-DD dates. A date is
// midnight UTC, or the last instant of that day when endOfDay is set.
func parseDeadline(raw string, endOfDay bool) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t.UTC(), nil
	}
	d, err := time.Parse(dateOnly, raw)
	if err != nil {
		return time.Time{}, domain.NewValidationError("deadline",
			"must be an RFC 3339 timestamp or a YYYY-MM-DD date", nil)
	}
	if endOfDay {
		d = d.Add(24*time.Hour - time.Nanosecond)
	}
	return d, nil
}

// parseTaskCriteria reads the task list query parameters.
func parseTaskCriteria(q url.Values) (filter.Criteria, error) {
	var c filter.Criteria

	if raw := q.Get("status"); raw != "" {
		st, err := domain.ParseTaskStatus(raw)
		if err != nil {
			return c, err
		}
		c.Status = &st
	}
	if raw := q.Get("priority"); raw != "" {
		pr, err := domain.ParseTaskPriority(raw)
		if err != nil {
			return c, err
		}
		c.Priority = &pr
	}
	if raw := q.Get("assignee_id"); raw != "" {
		id, err := parseID("assignee_id", raw)
		if err != nil {
			return c, err
		}
		c.AssigneeID = &id
	}
	if raw := q.Get("deadline_from"); raw != "" {
		from, err := parseDeadline(raw, false)
		if err != nil {
			return c, domain.NewValidationError("deadline_from", "must be an RFC 3339 timestamp or a YYYY-MM-DD date", nil)
		}
		c.DeadlineFrom = &from
	}
	if raw := q.Get("deadline_to"); raw != "" {
		to, err := parseDeadline(raw, true)
		if err != nil {
			return c, domain.NewValidationError("deadline_to", "must be an RFC 3339 timestamp or a YYYY-MM-DD date", nil)
		}
		c.DeadlineTo = &to
	}
	for _, raw := range q["tag_ids"] {
		for _, part := range strings.Split(raw, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			id, err := parseID("tag_ids", part)
			if err != nil {
				return c, err
			}
			c.TagIDs = append(c.TagIDs, id)
		}
	}
	c.Keyword = strings.TrimSpace(q.Get("keyword"))

	scope, err := filter.ParseScope(q.Get("scope"))
	if err != nil {
		return c, err
	}
	c.Scope = scope
	return c, nil
}
