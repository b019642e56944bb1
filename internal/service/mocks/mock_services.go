package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"normas/internal/model"
	"normas/internal/service"
)

type MockDocumentCatalog struct {
	mock.Mock
}

func (m *MockDocumentCatalog) List() []model.Document {
	args := m.Called()
	if args.Get(0) == nil {
		return nil
	}
	return args.Get(0).([]model.Document)
}

func (m *MockDocumentCatalog) Get(id string) (model.Document, bool) {
	args := m.Called(id)
	return args.Get(0).(model.Document), args.Bool(1)
}

func (m *MockDocumentCatalog) Loading() bool {
	args := m.Called()
	return args.Bool(0)
}

func (m *MockDocumentCatalog) Refresh(ctx context.Context) error {
	args := m.Called(ctx)
	return args.Error(0)
}

func (m *MockDocumentCatalog) Create(ctx context.Context, doc model.Document) (*model.Document, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentCatalog) Update(ctx context.Context, id string, patch model.DocumentPatch) (*model.Document, error) {
	args := m.Called(ctx, id, patch)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentCatalog) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

type MockDocumentEditor struct {
	mock.Mock
}

func (m *MockDocumentEditor) Submit(ctx context.Context, draft service.Draft, file *service.PendingFile) (*model.Document, error) {
	args := m.Called(ctx, draft, file)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

type MockDocumentViewer struct {
	mock.Mock
}

func (m *MockDocumentViewer) Present(doc model.Document) service.Presentation {
	args := m.Called(doc)
	return args.Get(0).(service.Presentation)
}

func (m *MockDocumentViewer) Download(ctx context.Context, doc model.Document) (io.ReadCloser, service.Attachment, error) {
	args := m.Called(ctx, doc)
	if args.Get(0) == nil {
		return nil, args.Get(1).(service.Attachment), args.Error(2)
	}
	return args.Get(0).(io.ReadCloser), args.Get(1).(service.Attachment), args.Error(2)
}

type MockOrphanReconciler struct {
	mock.Mock
}

func (m *MockOrphanReconciler) Run(ctx context.Context) (*service.ReconcileReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.ReconcileReport), args.Error(1)
}
