package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCategory(t *testing.T) {
	for _, c := range Categories() {
		assert.True(t, c.Valid(), c)
		parsed, err := ParseCategory(c.String())
		assert.NoError(t, err)
		assert.Equal(t, c, parsed)
	}

	_, err := ParseCategory("eletrica")
	assert.Error(t, err)
	assert.False(t, Category("").Valid())
}

func TestDocument_LastUpdated(t *testing.T) {
	created := time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	updated := created.Add(48 * time.Hour)

	assert.Equal(t, created, Document{CreatedAt: created}.LastUpdated())
	assert.Equal(t, updated, Document{CreatedAt: created, UpdatedAt: updated}.LastUpdated())
}

func TestDocumentPatch_Apply(t *testing.T) {
	doc := Document{ID: "a", Title: "NR-10", Category: CategoryElectrical, Description: "old"}
	desc := "new"

	patch := DocumentPatch{Description: &desc}
	assert.False(t, patch.Empty())

	got := patch.Apply(doc)
	assert.Equal(t, "new", got.Description)
	assert.Equal(t, "NR-10", got.Title)
	assert.Equal(t, CategoryElectrical, got.Category)
	assert.True(t, DocumentPatch{}.Empty())
}
