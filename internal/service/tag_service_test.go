package service_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/phrazzld/takeatask-api/internal/domain"
	"github.com/phrazzld/takeatask-api/internal/patch"
	"github.com/phrazzld/takeatask-api/internal/service"
	"github.com/phrazzld/takeatask-api/internal/store"
)

func TestTagService_DuplicateName(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.tags.CreateTag(ctx, "Urgente", "#EF4444", "")
	require.NoError(t, err)

	_, err = f.tags.CreateTag(ctx, "Urgente", "", "again")
	assert.ErrorIs(t, err, store.ErrTagNameExists)
	assert.True(t, store.IsDuplicateError(err))
}

func TestTagService_FindOrCreate(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	first, err := f.tags.FindOrCreate(ctx, []string{" Backend", "Urgente", "Backend", "   "})
	require.NoError(t, err)
	require.Len(t, first, 2)
	assert.Equal(t, "Backend", first[0].Name)
	assert.Equal(t, "Urgente", first[1].Name)

	second, err := f.tags.FindOrCreate(ctx, []string{"Urgente", "Backend"})
	require.NoError(t, err)
	require.Len(t, second, 2)
	assert.Equal(t, first[1].ID, second[0].ID)
	assert.Equal(t, first[0].ID, second[1].ID)

	all, err := f.tags.ListTags(ctx, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	t.Run("empty input", func(t *testing.T) {
		tags, err := f.tags.FindOrCreate(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, tags)
	})

	t.Run("name too short", func(t *testing.T) {
		_, err := f.tags.FindOrCreate(ctx, []string{"x"})
		assert.ErrorIs(t, err, domain.ErrValidation)
	})
}

func TestTagService_Delete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	used, err := f.tags.CreateTag(ctx, "Used", "", "")
	require.NoError(t, err)
	unused, err := f.tags.CreateTag(ctx, "Unused", "", "")
	require.NoError(t, err)
	f.createTask(t, f.alice, service.TaskInput{Name: "Carries a tag", TagIDs: []int64{used.ID}})

	tests := []struct {
		name    string
		id      int64
		wantErr error
	}{
		{"referenced tag", used.ID, service.ErrTagInUse},
		{"unreferenced tag", unused.ID, nil},
		{"missing tag", 9999, store.ErrTagNotFound},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			err := f.tags.DeleteTag(ctx, tc.id)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			_, err = f.tags.GetTag(ctx, tc.id)
			assert.ErrorIs(t, err, store.ErrTagNotFound)
		})
	}
}

func TestTagService_Update(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	tag, err := f.tags.CreateTag(ctx, "Frontend", "#10B981", "UI work")
	require.NoError(t, err)
	_, err = f.tags.CreateTag(ctx, "Backend", "", "")
	require.NoError(t, err)

	updated, err := f.tags.UpdateTag(ctx, tag.ID, service.TagPatch{Color: patch.Null[string]()})
	require.NoError(t, err)
	assert.Empty(t, updated.Color)
	assert.Equal(t, "UI work", updated.Description, "absent fields are kept")

	updated, err = f.tags.UpdateTag(ctx, tag.ID, service.TagPatch{Name: patch.Set("Web")})
	require.NoError(t, err)
	assert.Equal(t, "Web", updated.Name)

	byName, err := f.tags.GetTagByName(ctx, "Web")
	require.NoError(t, err)
	assert.Equal(t, tag.ID, byName.ID)

	_, err = f.tags.UpdateTag(ctx, tag.ID, service.TagPatch{Name: patch.Set("Backend")})
	assert.ErrorIs(t, err, store.ErrTagNameExists)

	_, err = f.tags.UpdateTag(ctx, tag.ID, service.TagPatch{Color: patch.Set("blue")})
	assert.ErrorIs(t, err, domain.ErrValidation)

	t.Run("keeping its own name is not a conflict", func(t *testing.T) {
		_, err := f.tags.UpdateTag(ctx, tag.ID, service.TagPatch{Name: patch.Set("Web")})
		assert.NoError(t, err)
	})
}
