package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/civicyouth/portal/internal/domain"
	"github.com/civicyouth/portal/internal/port"
)

// ContentStoreMock is a testify mock for port.ContentStore.
type ContentStoreMock struct {
	mock.Mock
}

type ContentStoreMock_Expecter struct {
	mock *mock.Mock
}

// NewContentStoreMock registers a cleanup that asserts all expectations.
func NewContentStoreMock(t interface {
	mock.TestingT
	Cleanup(func())
}) *ContentStoreMock {
	m := &ContentStoreMock{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

func (m *ContentStoreMock) EXPECT() *ContentStoreMock_Expecter {
	return &ContentStoreMock_Expecter{mock: &m.Mock}
}

func (m *ContentStoreMock) SaveEntry(ctx context.Context, e *domain.Entry) error {
	return m.Called(ctx, e).Error(0)
}

func (e *ContentStoreMock_Expecter) SaveEntry(ctx, entry any) *mock.Call {
	return e.mock.On("SaveEntry", ctx, entry)
}

func (m *ContentStoreMock) UpdateEntry(ctx context.Context, e *domain.Entry) error {
	return m.Called(ctx, e).Error(0)
}

func (e *ContentStoreMock_Expecter) UpdateEntry(ctx, entry any) *mock.Call {
	return e.mock.On("UpdateEntry", ctx, entry)
}

func (m *ContentStoreMock) DeleteEntry(ctx context.Context, id string) error {
	return m.Called(ctx, id).Error(0)
}

func (e *ContentStoreMock_Expecter) DeleteEntry(ctx, id any) *mock.Call {
	return e.mock.On("DeleteEntry", ctx, id)
}

func (m *ContentStoreMock) GetEntry(ctx context.Context, id string) (*domain.Entry, error) {
	args := m.Called(ctx, id)
	return entryArg(args, 0), args.Error(1)
}

func (e *ContentStoreMock_Expecter) GetEntry(ctx, id any) *mock.Call {
	return e.mock.On("GetEntry", ctx, id)
}

func (m *ContentStoreMock) GetEntryBySlug(ctx context.Context, section domain.Section, slug string) (*domain.Entry, error) {
	args := m.Called(ctx, section, slug)
	return entryArg(args, 0), args.Error(1)
}

func (e *ContentStoreMock_Expecter) GetEntryBySlug(ctx, section, slug any) *mock.Call {
	return e.mock.On("GetEntryBySlug", ctx, section, slug)
}

func (m *ContentStoreMock) ListEntries(ctx context.Context, section domain.Section, publishedOnly bool) ([]*domain.Entry, error) {
	args := m.Called(ctx, section, publishedOnly)
	return entriesArg(args, 0), args.Error(1)
}

func (e *ContentStoreMock_Expecter) ListEntries(ctx, section, publishedOnly any) *mock.Call {
	return e.mock.On("ListEntries", ctx, section, publishedOnly)
}

func (m *ContentStoreMock) ListLatestPublished(ctx context.Context, limit int) ([]*domain.Entry, error) {
	args := m.Called(ctx, limit)
	return entriesArg(args, 0), args.Error(1)
}

func (e *ContentStoreMock_Expecter) ListLatestPublished(ctx, limit any) *mock.Call {
	return e.mock.On("ListLatestPublished", ctx, limit)
}

func entryArg(args mock.Arguments, i int) *domain.Entry {
	if v, ok := args.Get(i).(*domain.Entry); ok {
		return v
	}
	return nil
}

func entriesArg(args mock.Arguments, i int) []*domain.Entry {
	if v, ok := args.Get(i).([]*domain.Entry); ok {
		return v
	}
	return nil
}

var _ port.ContentStore = (*ContentStoreMock)(nil)
