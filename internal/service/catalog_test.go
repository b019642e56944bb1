package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"normas/internal/model"
	repoMocks "normas/internal/repository/mocks"
	storeMocks "normas/internal/storage/mocks"
)

var fixedNow = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func newTestCatalog(repo *repoMocks.MockDocumentRepository, store *storeMocks.MockStorage) *Catalog {
	return NewCatalog(repo, store, nil, WithClock(func() time.Time { return fixedNow }))
}

func TestCatalog_Start(t *testing.T) {
	ctx := context.Background()

	t.Run("initial load populates the cache", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		mRepo.On("List", mock.Anything).Return([]model.Document{{ID: "a"}, {ID: "b"}}, nil).Once()
		c := newTestCatalog(mRepo, nil)

		assert.True(t, c.Loading())
		require.NoError(t, c.Start(ctx))
		require.NoError(t, c.Start(ctx))

		assert.False(t, c.Loading())
		assert.Len(t, c.List(), 2)
		mRepo.AssertExpectations(t)
	})

	t.Run("failed load leaves an empty usable catalog", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		mRepo.On("List", mock.Anything).Return(nil, errors.New("connection refused"))
		c := newTestCatalog(mRepo, nil)

		err := c.Start(ctx)

		var remote *RemoteError
		assert.ErrorAs(t, err, &remote)
		assert.Empty(t, c.List())
		assert.NotNil(t, c.List())
		assert.False(t, c.Loading())
	})
}

func TestCatalog_Refresh(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDocumentRepository)
	mRepo.On("List", mock.Anything).Return([]model.Document{{ID: "a"}}, nil).Once()
	mRepo.On("List", mock.Anything).Return(nil, errors.New("timeout")).Once()
	c := newTestCatalog(mRepo, nil)

	require.NoError(t, c.Refresh(ctx))
	err := c.Refresh(ctx)

	var remote *RemoteError
	require.ErrorAs(t, err, &remote)
	assert.Equal(t, "list", remote.Op)
	assert.Equal(t, []model.Document{{ID: "a"}}, c.List(), "cache survives a failed refresh")
	mRepo.AssertExpectations(t)
}

func TestCatalog_Create(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		doc        model.Document
		setupMocks func(mRepo *repoMocks.MockDocumentRepository)
		wantErr    func(t *testing.T, err error)
		wantCached int
	}{
		{
			name: "happy path",
			doc:  model.Document{Title: "NR-10", Category: model.CategoryElectrical},
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("Create", mock.Anything, mock.MatchedBy(func(d *model.Document) bool {
					return d.ID != "" && d.CreatedAt.Equal(fixedNow) && d.UpdatedAt.Equal(fixedNow)
				})).Return(&model.Document{ID: "new", Title: "NR-10", Category: model.CategoryElectrical}, nil)
				mRepo.On("List", mock.Anything).Return([]model.Document{{ID: "new"}}, nil)
			},
			wantCached: 1,
		},
		{
			name:       "blank title never reaches the store",
			doc:        model.Document{Title: "   ", Category: model.CategoryElectrical},
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {},
			wantErr: func(t *testing.T, err error) {
				var v *ValidationError
				require.ErrorAs(t, err, &v)
				assert.Equal(t, "title", v.Field)
			},
		},
		{
			name:       "unknown category never reaches the store",
			doc:        model.Document{Title: "x", Category: "civil"},
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {},
			wantErr: func(t *testing.T, err error) {
				assert.True(t, IsValidation(err))
			},
		},
		{
			name: "remote rejects the insert",
			doc:  model.Document{Title: "x", Category: model.CategoryProcess},
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("Create", mock.Anything, mock.Anything).Return(nil, errors.New("db fail"))
			},
			wantErr: func(t *testing.T, err error) {
				var remote *RemoteError
				require.ErrorAs(t, err, &remote)
				assert.Equal(t, "create", remote.Op)
			},
		},
		{
			name: "refresh failure keeps the new row locally",
			doc:  model.Document{Title: "x", Category: model.CategoryProcess},
			setupMocks: func(mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("Create", mock.Anything, mock.Anything).Return(&model.Document{ID: "new"}, nil)
				mRepo.On("List", mock.Anything).Return(nil, errors.New("timeout"))
			},
			wantCached: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mRepo := new(repoMocks.MockDocumentRepository)
			tt.setupMocks(mRepo)
			c := newTestCatalog(mRepo, nil)

			doc, err := c.Create(ctx, tt.doc)

			if tt.wantErr != nil {
				tt.wantErr(t, err)
				assert.Nil(t, doc)
			} else {
				require.NoError(t, err)
				assert.Equal(t, "new", doc.ID)
				assert.Len(t, c.List(), tt.wantCached)
			}
			mRepo.AssertExpectations(t)
		})
	}
}

func TestCatalog_Update(t *testing.T) {
	ctx := context.Background()
	desc := "revisão 3"

	t.Run("merges the stored row into the cache", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		mRepo.On("List", mock.Anything).Return([]model.Document{
			{ID: "a", Title: "A", Category: model.CategoryMechanical},
			{ID: "b", Title: "B", Category: model.CategoryProcess},
		}, nil)
		patch := model.DocumentPatch{Description: &desc}
		mRepo.On("Update", mock.Anything, "a", patch, fixedNow).
			Return(&model.Document{ID: "a", Title: "A", Category: model.CategoryMechanical, Description: desc, UpdatedAt: fixedNow}, nil)
		c := newTestCatalog(mRepo, nil)
		require.NoError(t, c.Refresh(ctx))

		doc, err := c.Update(ctx, "a", patch)

		require.NoError(t, err)
		assert.Equal(t, desc, doc.Description)
		cached, ok := c.Get("a")
		require.True(t, ok)
		assert.Equal(t, "A", cached.Title)
		assert.Equal(t, model.CategoryMechanical, cached.Category)
		assert.Equal(t, desc, cached.Description)
		assert.Equal(t, fixedNow, cached.LastUpdated())
		assert.Len(t, c.List(), 2)
	})

	t.Run("missing row", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		mRepo.On("Update", mock.Anything, "gone", mock.Anything, mock.Anything).Return(nil, sql.ErrNoRows)
		c := newTestCatalog(mRepo, nil)

		_, err := c.Update(ctx, "gone", model.DocumentPatch{Description: &desc})

		assert.True(t, IsNotFound(err))
	})

	t.Run("blank title is rejected locally", func(t *testing.T) {
		mRepo := new(repoMocks.MockDocumentRepository)
		c := newTestCatalog(mRepo, nil)
		blank := " "

		_, err := c.Update(ctx, "a", model.DocumentPatch{Title: &blank})

		assert.True(t, IsValidation(err))
		mRepo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestCatalog_Delete(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name       string
		id         string
		setupMocks func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository)
		wantErr    func(t *testing.T, err error)
	}{
		{
			name: "uploaded binary is removed before the record",
			id:   "a",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", mock.Anything, "a").Return(&model.Document{ID: "a", PDFPath: "123-abc.pdf"}, nil)
				storeDelete := mStore.On("Delete", mock.Anything, "123-abc.pdf").Return(nil)
				mRepo.On("Delete", mock.Anything, "a").Return(nil).NotBefore(storeDelete)
			},
		},
		{
			name: "linked document skips storage",
			id:   "a",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", mock.Anything, "a").Return(&model.Document{ID: "a", PDFURL: "https://x/a.pdf"}, nil)
				mRepo.On("Delete", mock.Anything, "a").Return(nil)
			},
		},
		{
			name: "storage failure does not block the record delete",
			id:   "a",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", mock.Anything, "a").Return(&model.Document{ID: "a", PDFPath: "k.pdf"}, nil)
				mStore.On("Delete", mock.Anything, "k.pdf").Return(errors.New("storage fail"))
				mRepo.On("Delete", mock.Anything, "a").Return(nil)
			},
		},
		{
			name: "not found",
			id:   "missing",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", mock.Anything, "missing").Return(nil, sql.ErrNoRows)
			},
			wantErr: func(t *testing.T, err error) {
				assert.True(t, IsNotFound(err))
			},
		},
		{
			name: "record delete error",
			id:   "a",
			setupMocks: func(mStore *storeMocks.MockStorage, mRepo *repoMocks.MockDocumentRepository) {
				mRepo.On("FindByID", mock.Anything, "a").Return(&model.Document{ID: "a"}, nil)
				mRepo.On("Delete", mock.Anything, "a").Return(errors.New("db fail"))
			},
			wantErr: func(t *testing.T, err error) {
				var remote *RemoteError
				require.ErrorAs(t, err, &remote)
				assert.Equal(t, "delete", remote.Op)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mStore := new(storeMocks.MockStorage)
			mRepo := new(repoMocks.MockDocumentRepository)
			mRepo.On("List", mock.Anything).Return([]model.Document{{ID: "a"}, {ID: "b"}}, nil)
			tt.setupMocks(mStore, mRepo)
			c := newTestCatalog(mRepo, mStore)
			require.NoError(t, c.Refresh(ctx))

			err := c.Delete(ctx, tt.id)

			if tt.wantErr != nil {
				tt.wantErr(t, err)
				assert.Len(t, c.List(), 2)
			} else {
				require.NoError(t, err)
				_, ok := c.Get(tt.id)
				assert.False(t, ok)
				assert.Len(t, c.List(), 1)
			}
			mStore.AssertExpectations(t)
			mRepo.AssertExpectations(t)
		})
	}
}

func TestCatalog_Subscribe(t *testing.T) {
	ctx := context.Background()
	mRepo := new(repoMocks.MockDocumentRepository)
	mRepo.On("List", mock.Anything).Return([]model.Document{{ID: "a"}}, nil).Once()
	mRepo.On("List", mock.Anything).Return([]model.Document{{ID: "a"}, {ID: "b"}}, nil).Once()
	mRepo.On("List", mock.Anything).Return([]model.Document{{ID: "a"}, {ID: "b"}, {ID: "c"}}, nil).Once()
	c := newTestCatalog(mRepo, nil)

	updates, cancel := c.Subscribe()
	assert.Empty(t, <-updates)

	require.NoError(t, c.Refresh(ctx))
	require.NoError(t, c.Refresh(ctx))
	require.NoError(t, c.Refresh(ctx))

	latest := <-updates
	assert.Len(t, latest, 3, "a slow reader only sees the newest snapshot")

	cancel()
	_, open := <-updates
	assert.False(t, open)
	cancel()

	c.Close()
	closed, _ := c.Subscribe()
	_, open = <-closed
	assert.False(t, open)
}
