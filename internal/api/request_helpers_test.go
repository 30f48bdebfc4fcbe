package api

import (
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/domain/filter"
)

func TestParseDeadline(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		raw      string
		endOfDay bool
		want     time.Time
		wantErr  bool
	}{
		{
			name: "rfc3339 normalized to utc",
			raw:  "2025-03-01T10:00:00+02:00",
			want: time.Date(2025, 3, 1, 8, 0, 0, 0, time.UTC),
		},
		{
			name: "date is midnight",
			raw:  "2025-03-01",
			want: time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC),
		},
		{
			name:     "date at end of day",
			raw:      " 2025-03-01 ",
			endOfDay: true,
			want:     time.Date(2025, 3, 1, 23, 59, 59, 999999999, time.UTC),
		},
		{name: "garbage", raw: "next tuesday", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := parseDeadline(tt.raw, tt.endOfDay)
			if tt.wantErr {
				assert.ErrorIs(t, err, domain.ErrValidation)
				return
			}
			require.NoError(t, err)
			assert.True(t, tt.want.Equal(got), "got %s", got)
		})
	}
}

func TestParseTaskCriteria(t *testing.T) {
	t.Parallel()

	t.Run("empty query", func(t *testing.T) {
		t.Parallel()
		c, err := parseTaskCriteria(url.Values{})
		require.NoError(t, err)
		assert.Nil(t, c.Status)
		assert.Nil(t, c.Priority)
		assert.Nil(t, c.AssigneeID)
		assert.Empty(t, c.TagIDs)
		assert.Equal(t, filter.ScopeAll, c.Scope)
	})

	t.Run("every parameter", func(t *testing.T) {
		t.Parallel()
		q := url.Values{
			"status":        {"in_progress"},
			"priority":      {"HIGH"},
			"assignee_id":   {"7"},
			"deadline_from": {"2025-01-01"},
			"deadline_to":   {"2025-01-31"},
			"tag_ids":       {"1,2", "3"},
			"keyword":       {"  report "},
			"scope":         {"TEAM"},
		}
		c, err := parseTaskCriteria(q)
		require.NoError(t, err)

		require.NotNil(t, c.Status)
		assert.Equal(t, domain.StatusInProgress, *c.Status)
		require.NotNil(t, c.Priority)
		assert.Equal(t, domain.PriorityHigh, *c.Priority)
		require.NotNil(t, c.AssigneeID)
		assert.Equal(t, int64(7), *c.AssigneeID)
		require.NotNil(t, c.DeadlineFrom)
		assert.True(t, c.DeadlineFrom.Equal(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)))
		require.NotNil(t, c.DeadlineTo)
		assert.True(t, c.DeadlineTo.Equal(time.Date(2025, 1, 31, 23, 59, 59, 999999999, time.UTC)))
		assert.Equal(t, []int64{1, 2, 3}, c.TagIDs)
		assert.Equal(t, "report", c.Keyword)
		assert.Equal(t, filter.ScopeTeam, c.Scope)
	})

	errTests := []struct {
		name string
		q    url.Values
		want error
	}{
		{"bad status", url.Values{"status": {"LATER"}}, domain.ErrInvalidStatus},
		{"bad priority", url.Values{"priority": {"CRITICAL"}}, domain.ErrInvalidPriority},
		{"bad assignee", url.Values{"assignee_id": {"-1"}}, domain.ErrInvalidID},
		{"bad tag id", url.Values{"tag_ids": {"1,x"}}, domain.ErrInvalidID},
		{"bad deadline", url.Values{"deadline_to": {"soon"}}, domain.ErrValidation},
		{"bad scope", url.Values{"scope": {"everything"}}, filter.ErrInvalidScope},
	}
	for _, tt := range errTests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := parseTaskCriteria(tt.q)
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.want), "got %v", err)
		})
	}
}
