package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docvault/internal/model"
	"docvault/internal/repository"
)

type MockDocumentRepository struct {
	mock.Mock
}

// WithinTx runs fn against the mock itself: expectations set on the mock apply
// inside and outside the "transaction", which is what service tests need.
func (m *MockDocumentRepository) WithinTx(ctx context.Context, fn func(repository.DocumentRepository) error) error {
	return fn(m)
}

func (m *MockDocumentRepository) CreateDocument(ctx context.Context, title, description string) (*model.Document, error) {
	args := m.Called(ctx, title, description)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) FindDocumentByID(ctx context.Context, id int64) (*model.Document, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Document), args.Error(1)
}

func (m *MockDocumentRepository) UpdateDocument(ctx context.Context, id int64, title, description *string) error {
	args := m.Called(ctx, id, title, description)
	return args.Error(0)
}

func (m *MockDocumentRepository) DeleteDocument(ctx context.Context, id int64) (bool, error) {
	args := m.Called(ctx, id)
	return args.Bool(0), args.Error(1)
}

func (m *MockDocumentRepository) ListDocuments(ctx context.Context, pq repository.PageQuery) (*repository.PageResult[model.DocumentSummary], error) {
	args := m.Called(ctx, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.DocumentSummary]), args.Error(1)
}

func (m *MockDocumentRepository) MaxVersionNumber(ctx context.Context, documentID int64) (int, error) {
	args := m.Called(ctx, documentID)
	return args.Int(0), args.Error(1)
}

func (m *MockDocumentRepository) CreateVersion(ctx context.Context, v *model.DocumentVersion) (*model.DocumentVersion, error) {
	args := m.Called(ctx, v)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentVersion), args.Error(1)
}

func (m *MockDocumentRepository) ListVersions(ctx context.Context, documentID int64) ([]model.DocumentVersion, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentVersion), args.Error(1)
}

func (m *MockDocumentRepository) GetOrCreateTag(ctx context.Context, name string) (*model.Tag, error) {
	args := m.Called(ctx, name)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Tag), args.Error(1)
}

func (m *MockDocumentRepository) FindTagsByNames(ctx context.Context, names []string) ([]model.Tag, error) {
	args := m.Called(ctx, names)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.Tag), args.Error(1)
}

func (m *MockDocumentRepository) ReplaceDocumentTags(ctx context.Context, documentID int64, tagIDs []int64) error {
	args := m.Called(ctx, documentID, tagIDs)
	return args.Error(0)
}

func (m *MockDocumentRepository) SearchByTags(ctx context.Context, tagIDs []int64, matchAll bool, pq repository.PageQuery) (*repository.PageResult[model.DocumentSummary], error) {
	args := m.Called(ctx, tagIDs, matchAll, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.DocumentSummary]), args.Error(1)
}

func (m *MockDocumentRepository) Search(ctx context.Context, f repository.SearchFilter, pq repository.PageQuery) (*repository.PageResult[model.DocumentSummary], error) {
	args := m.Called(ctx, f, pq)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*repository.PageResult[model.DocumentSummary]), args.Error(1)
}
