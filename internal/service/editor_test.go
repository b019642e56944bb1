package service

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"normas/internal/model"
	"normas/internal/storage"
	storeMocks "normas/internal/storage/mocks"
)

const samplePDF = "%PDF-1.4\n1 0 obj\n<< /Type /Catalog >>\nendobj\ntrailer\n%%EOF\n"

func pdfFile(name string) *PendingFile {
	return &PendingFile{
		Name:        name,
		ContentType: "application/pdf",
		Size:        int64(len(samplePDF)),
		Content:     strings.NewReader(samplePDF),
	}
}

// catalogMock is a local testify mock; the shared one in service/mocks would import this package.
type catalogMock struct {
	mock.Mock
}

func (m *catalogMock) List() []model.Document { return nil }

func (m *catalogMock) Loading() bool { return false }

func (m *catalogMock) Refresh(ctx context.Context) error { return nil }

func (m *catalogMock) Get(id string) (model.Document, bool) {
	args := m.Called(id)
	return args.Get(0).(model.Document), args.Bool(1)
}

func (m *catalogMock) Create(ctx context.Context, doc model.Document) (*model.Document, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *catalogMock) Update(ctx context.Context, id string, patch model.DocumentPatch) (*model.Document, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *catalogMock) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func newTestEditor(cat *catalogMock, store *storeMocks.MockStorage) *Editor {
	e := NewEditor(cat, store, nil)
	e.now = func() time.Time { return fixedNow }
	return e
}

func TestEditor_SubmitValidation(t *testing.T) {
	ctx := context.Background()
	valid := Draft{Title: "NR-12", Category: model.CategoryMechanical}

	tests := []struct {
		name      string
		draft     Draft
		file      *PendingFile
		wantField string
	}{
		{name: "blank title", draft: Draft{Title: "  ", Category: model.CategoryMechanical}, wantField: "title"},
		{name: "unknown category", draft: Draft{Title: "x", Category: "civil"}, wantField: "category"},
		{name: "relative url", draft: Draft{Title: "x", Category: model.CategoryProcess, PDFURL: "/docs/a.pdf"}, wantField: "pdf_url"},
		{name: "non http url", draft: Draft{Title: "x", Category: model.CategoryProcess, PDFURL: "ftp://host/a.pdf"}, wantField: "pdf_url"},
		{
			name:      "oversize file",
			draft:     valid,
			file:      &PendingFile{Name: "big.pdf", ContentType: "application/pdf", Size: MaxUploadSize + 1, Content: strings.NewReader(samplePDF)},
			wantField: "file",
		},
		{
			name:      "declared non pdf",
			draft:     valid,
			file:      &PendingFile{Name: "a.png", ContentType: "image/png", Size: 10, Content: strings.NewReader(samplePDF)},
			wantField: "file",
		},
		{
			name:      "content is not a pdf",
			draft:     valid,
			file:      &PendingFile{Name: "fake.pdf", ContentType: "application/octet-stream", Size: 11, Content: strings.NewReader("hello world")},
			wantField: "file",
		},
		{
			name:      "missing content",
			draft:     valid,
			file:      &PendingFile{Name: "a.pdf"},
			wantField: "file",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mCat := new(catalogMock)
			mStore := new(storeMocks.MockStorage)
			e := newTestEditor(mCat, mStore)

			doc, err := e.Submit(ctx, tt.draft, tt.file)

			var v *ValidationError
			require.ErrorAs(t, err, &v)
			assert.Equal(t, tt.wantField, v.Field)
			assert.Nil(t, doc)
			mStore.AssertNotCalled(t, "Put", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			mCat.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
			mCat.AssertNotCalled(t, "Update", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestEditor_SubmitCreate(t *testing.T) {
	ctx := context.Background()

	t.Run("linked pdf", func(t *testing.T) {
		mCat := new(catalogMock)
		mStore := new(storeMocks.MockStorage)
		mCat.On("Create", ctx, model.Document{
			Title:    "NR-10",
			Category: model.CategoryElectrical,
			PDFURL:   "https://example.com/nr10.pdf",
		}).Return(&model.Document{ID: "new"}, nil)
		e := newTestEditor(mCat, mStore)

		doc, err := e.Submit(ctx, Draft{Title: " NR-10 ", Category: model.CategoryElectrical, PDFURL: "https://example.com/nr10.pdf"}, nil)

		require.NoError(t, err)
		assert.Equal(t, "new", doc.ID)
		mCat.AssertExpectations(t)
		mStore.AssertExpectations(t)
	})

	t.Run("uploaded pdf", func(t *testing.T) {
		mCat := new(catalogMock)
		mStore := new(storeMocks.MockStorage)
		var uploaded []byte
		mStore.On("Put", ctx, mock.MatchedBy(func(key string) bool {
			return strings.HasPrefix(key, "1709294400000-") && strings.HasSuffix(key, ".pdf")
		}), mock.Anything, storage.PutObjectOptions{
			Size:        int64(len(samplePDF)),
			ContentType: "application/pdf",
			Metadata:    map[string]string{"original-filename": "Manual.PDF"},
		}).Run(func(args mock.Arguments) {
			uploaded, _ = io.ReadAll(args.Get(2).(io.Reader))
		}).Return(storage.ObjectInfo{}, nil)
		mStore.On("PublicURL", mock.Anything).Return("http://files/k.pdf")
		mCat.On("Create", ctx, mock.MatchedBy(func(d model.Document) bool {
			return d.PDFURL == "http://files/k.pdf" && strings.HasSuffix(d.PDFPath, ".pdf")
		})).Return(&model.Document{ID: "new"}, nil)
		e := newTestEditor(mCat, mStore)

		_, err := e.Submit(ctx, Draft{Title: "Manual", Category: model.CategoryProcess}, pdfFile("Manual.PDF"))

		require.NoError(t, err)
		assert.Equal(t, samplePDF, string(uploaded), "sniffed bytes are not lost")
		mCat.AssertExpectations(t)
		mStore.AssertExpectations(t)
	})

	t.Run("upload failure", func(t *testing.T) {
		mCat := new(catalogMock)
		mStore := new(storeMocks.MockStorage)
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, errors.New("bucket gone"))
		e := newTestEditor(mCat, mStore)

		_, err := e.Submit(ctx, Draft{Title: "Manual", Category: model.CategoryProcess}, pdfFile("m.pdf"))

		var upload *UploadError
		require.ErrorAs(t, err, &upload)
		assert.NotEmpty(t, upload.Key)
		mCat.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	})

	t.Run("record failure removes the new upload", func(t *testing.T) {
		mCat := new(catalogMock)
		mStore := new(storeMocks.MockStorage)
		var key string
		mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Run(func(args mock.Arguments) {
			key = args.String(1)
		}).Return(storage.ObjectInfo{}, nil)
		mStore.On("PublicURL", mock.Anything).Return("http://files/k.pdf")
		mCat.On("Create", ctx, mock.Anything).Return(nil, &RemoteError{Op: "create", Err: errors.New("db fail")})
		mStore.On("Delete", ctx, mock.MatchedBy(func(k string) bool { return k == key })).Return(nil)
		e := newTestEditor(mCat, mStore)

		_, err := e.Submit(ctx, Draft{Title: "Manual", Category: model.CategoryProcess}, pdfFile("m.pdf"))

		var remote *RemoteError
		require.ErrorAs(t, err, &remote)
		mStore.AssertExpectations(t)
	})
}

func TestEditor_SubmitUpdate(t *testing.T) {
	ctx := context.Background()
	existing := model.Document{ID: "a", Title: "Old", Category: model.CategoryProcess, PDFPath: "old.pdf", PDFURL: "http://files/old.pdf"}

	t.Run("unknown id", func(t *testing.T) {
		mCat := new(catalogMock)
		mCat.On("Get", "zzz").Return(model.Document{}, false)
		e := newTestEditor(mCat, new(storeMocks.MockStorage))

		_, err := e.Submit(ctx, Draft{ID: "zzz", Title: "x", Category: model.CategoryProcess}, nil)

		assert.True(t, IsNotFound(err))
	})

	t.Run("fields only keep the existing upload", func(t *testing.T) {
		mCat := new(catalogMock)
		mStore := new(storeMocks.MockStorage)
		mCat.On("Get", "a").Return(existing, true)
		mCat.On("Update", ctx, "a", mock.MatchedBy(func(p model.DocumentPatch) bool {
			return *p.Title == "New" && p.PDFPath == nil
		})).Return(&model.Document{ID: "a", Title: "New"}, nil)
		e := newTestEditor(mCat, mStore)

		doc, err := e.Submit(ctx, Draft{ID: "a", Title: "New", Category: model.CategoryProcess, PDFURL: existing.PDFURL}, nil)

		require.NoError(t, err)
		assert.Equal(t, "New", doc.Title)
		mStore.AssertNotCalled(t, "Delete", mock.Anything, mock.Anything)
	})

	t.Run("replacing the file removes the old upload after the update", func(t *testing.T) {
		mCat := new(catalogMock)
		mStore := new(storeMocks.MockStorage)
		mCat.On("Get", "a").Return(existing, true)
		put := mStore.On("Put", ctx, mock.Anything, mock.Anything, mock.Anything).Return(storage.ObjectInfo{}, nil)
		mStore.On("PublicURL", mock.Anything).Return("http://files/new.pdf")
		update := mCat.On("Update", ctx, "a", mock.MatchedBy(func(p model.DocumentPatch) bool {
			return p.PDFPath != nil && *p.PDFPath != "old.pdf" && *p.PDFURL == "http://files/new.pdf"
		})).Return(&model.Document{ID: "a"}, nil).NotBefore(put)
		mStore.On("Delete", ctx, "old.pdf").Return(errors.New("transient")).NotBefore(update)
		e := newTestEditor(mCat, mStore)

		_, err := e.Submit(ctx, Draft{ID: "a", Title: "Old", Category: model.CategoryProcess}, pdfFile("new.pdf"))

		require.NoError(t, err, "a failed cleanup of the old upload is not reported")
		mCat.AssertExpectations(t)
		mStore.AssertExpectations(t)
	})

	t.Run("removing the file switches back to a link", func(t *testing.T) {
		mCat := new(catalogMock)
		mStore := new(storeMocks.MockStorage)
		mCat.On("Get", "a").Return(existing, true)
		update := mCat.On("Update", ctx, "a", mock.MatchedBy(func(p model.DocumentPatch) bool {
			return p.PDFPath != nil && *p.PDFPath == "" && *p.PDFURL == "https://example.com/nr10.pdf"
		})).Return(&model.Document{ID: "a", PDFURL: "https://example.com/nr10.pdf"}, nil)
		mStore.On("Delete", ctx, "old.pdf").Return(nil).NotBefore(update)
		e := newTestEditor(mCat, mStore)

		doc, err := e.Submit(ctx, Draft{ID: "a", Title: "Old", Category: model.CategoryProcess, PDFURL: "https://example.com/nr10.pdf", RemoveFile: true}, nil)

		require.NoError(t, err)
		assert.False(t, doc.HasUpload())
		mCat.AssertExpectations(t)
		mStore.AssertExpectations(t)
	})

	t.Run("removing the file drops its echoed public url", func(t *testing.T) {
		mCat := new(catalogMock)
		mStore := new(storeMocks.MockStorage)
		mCat.On("Get", "a").Return(existing, true)
		mCat.On("Update", ctx, "a", mock.MatchedBy(func(p model.DocumentPatch) bool {
			return *p.PDFPath == "" && *p.PDFURL == ""
		})).Return(&model.Document{ID: "a"}, nil)
		mStore.On("Delete", ctx, "old.pdf").Return(nil)
		e := newTestEditor(mCat, mStore)

		_, err := e.Submit(ctx, Draft{ID: "a", Title: "Old", Category: model.CategoryProcess, PDFURL: existing.PDFURL, RemoveFile: true}, nil)

		require.NoError(t, err)
		mCat.AssertExpectations(t)
	})
}
