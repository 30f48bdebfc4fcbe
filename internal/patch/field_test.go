package patch

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type subtaskPatch struct {
	Description Field[string] `json:"description"`
	AssigneeID  Field[int64]  `json:"assignee_id"`
	Completed   Field[bool]   `json:"completed"`
}

func TestFieldUnmarshalTriState(t *testing.T) {
	tests := []struct {
		name        string
		body        string
		wantPresent bool
		wantNull    bool
		wantValue   int64
	}{
		{name: "absent", body: `{}`},
		{name: "explicit null", body: `{"assignee_id": null}`, wantPresent: true, wantNull: true},
		{name: "value", body: `{"assignee_id": 42}`, wantPresent: true, wantValue: 42},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var p subtaskPatch
			require.NoError(t, json.Unmarshal([]byte(tc.body), &p))

			assert.Equal(t, tc.wantPresent, p.AssigneeID.Present())
			assert.Equal(t, tc.wantNull, p.AssigneeID.IsNull())
			v, ok := p.AssigneeID.Value()
			assert.Equal(t, tc.wantPresent && !tc.wantNull, ok)
			assert.Equal(t, tc.wantValue, v)
			assert.False(t, p.Description.Present())
		})
	}
}

func TestFieldUnmarshalTypeMismatch(t *testing.T) {
	var p subtaskPatch
	err := json.Unmarshal([]byte(`{"completed": "yes"}`), &p)
	assert.Error(t, err)
}

func TestFieldApply(t *testing.T) {
	current := int64(7)

	var absent Field[int64]
	assert.False(t, absent.Apply(&current))
	assert.Equal(t, int64(7), current)

	assert.True(t, Set[int64](9).Apply(&current))
	assert.Equal(t, int64(9), current)

	assert.True(t, Null[int64]().Apply(&current))
	assert.Equal(t, int64(0), current)
}

func TestFieldPtr(t *testing.T) {
	assert.Nil(t, Null[int64]().Ptr())
	p := Set[int64](3).Ptr()
	require.NotNil(t, p)
	assert.Equal(t, int64(3), *p)
}

func TestFieldMarshal(t *testing.T) {
	out, err := json.Marshal(subtaskPatch{
		Description: Set("write docs"),
		AssigneeID:  Null[int64](),
	})
	require.NoError(t, err)
	assert.JSONEq(t, `{"description":"write docs","assignee_id":null,"completed":null}`, string(out))
}
