package mocks

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"

	"docvault/internal/blob"
)

type MockStore struct {
	mock.Mock
}

func (m *MockStore) Put(ctx context.Context, documentID int64, version int, r io.Reader, opt blob.PutOptions) (blob.Object, error) {
	args := m.Called(ctx, documentID, version, r, opt)
	if f, ok := args.Get(0).(func(int64, int) blob.Object); ok {
		return f(documentID, version), args.Error(1)
	}
	return args.Get(0).(blob.Object), args.Error(1)
}

func (m *MockStore) Locate(ctx context.Context, documentID int64, version int) (blob.Object, error) {
	args := m.Called(ctx, documentID, version)
	return args.Get(0).(blob.Object), args.Error(1)
}

func (m *MockStore) Open(ctx context.Context, obj blob.Object) (io.ReadCloser, error) {
	args := m.Called(ctx, obj)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(io.ReadCloser), args.Error(1)
}

func (m *MockStore) Remove(ctx context.Context, obj blob.Object) error {
	args := m.Called(ctx, obj)
	return args.Error(0)
}

func (m *MockStore) DeleteAll(ctx context.Context, documentID int64) error {
	args := m.Called(ctx, documentID)
	return args.Error(0)
}
