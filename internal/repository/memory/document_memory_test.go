package memory

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"normas/internal/model"
)

func TestDocumentMemory(t *testing.T) {
	ctx := context.Background()
	repo := NewDocumentMemory()
	base := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)

	_, err := repo.Create(ctx, &model.Document{ID: "a", Title: "A", Category: model.CategoryProcess, CreatedAt: base})
	require.NoError(t, err)
	_, err = repo.Create(ctx, &model.Document{ID: "b", Title: "B", Category: model.CategoryProcess, CreatedAt: base.Add(time.Hour)})
	require.NoError(t, err)

	_, err = repo.Create(ctx, &model.Document{ID: "a"})
	assert.Error(t, err)

	items, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "b", items[0].ID, "newest first")

	desc := "d"
	updated, err := repo.Update(ctx, "a", model.DocumentPatch{Description: &desc}, base.Add(2*time.Hour))
	require.NoError(t, err)
	assert.Equal(t, "A", updated.Title)
	assert.Equal(t, "d", updated.Description)
	assert.Equal(t, base.Add(2*time.Hour), updated.UpdatedAt)

	_, err = repo.Update(ctx, "zzz", model.DocumentPatch{}, base)
	assert.ErrorIs(t, err, sql.ErrNoRows)

	require.NoError(t, repo.Delete(ctx, "a"))
	assert.ErrorIs(t, repo.Delete(ctx, "a"), sql.ErrNoRows)

	_, err = repo.FindByID(ctx, "a")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}
