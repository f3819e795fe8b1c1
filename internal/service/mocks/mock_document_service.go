package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"docvault/internal/model"
	"docvault/internal/service"
)

type MockDocumentService struct {
	mock.Mock
}

func (m *MockDocumentService) Upload(ctx context.Context, in service.UploadInput) (*service.UploadResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.UploadResult), args.Error(1)
}

func (m *MockDocumentService) List(ctx context.Context, skip, limit int) ([]model.DocumentSummary, error) {
	args := m.Called(ctx, skip, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]model.DocumentSummary), args.Error(1)
}

func (m *MockDocumentService) Versions(ctx context.Context, documentID int64) (*model.DocumentVersions, error) {
	args := m.Called(ctx, documentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.DocumentVersions), args.Error(1)
}

func (m *MockDocumentService) Fetch(ctx context.Context, documentID int64, version *int) (*service.FetchResult, error) {
	args := m.Called(ctx, documentID, version)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.FetchResult), args.Error(1)
}

func (m *MockDocumentService) Search(ctx context.Context, in service.SearchInput) (*service.SearchResult, error) {
	args := m.Called(ctx, in)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SearchResult), args.Error(1)
}

func (m *MockDocumentService) Delete(ctx context.Context, documentID int64) error {
	args := m.Called(ctx, documentID)
	return args.Error(0)
}
