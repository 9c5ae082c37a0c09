// Package mocks provides test doubles for the streak client.
package mocks

import (
	"context"
	"encoding/json"

	mock "github.com/stretchr/testify/mock"

	streak "github.com/sells-group/ringstreak/pkg/streak"
)

// MockClient is a mock type for the Client interface.
type MockClient struct {
	mock.Mock
}

// Search provides a mock function with given fields: ctx, query
func (_m *MockClient) Search(ctx context.Context, query string) (*streak.SearchResponse, error) {
	ret := _m.Called(ctx, query)

	if len(ret) == 0 {
		panic("no return value specified for Search")
	}

	var r0 *streak.SearchResponse
	if rf, ok := ret.Get(0).(func(context.Context, string) *streak.SearchResponse); ok {
		r0 = rf(ctx, query)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(*streak.SearchResponse)
	}

	return r0, ret.Error(1)
}

// ContactBoxes provides a mock function with given fields: ctx, version, contactKey
func (_m *MockClient) ContactBoxes(ctx context.Context, version streak.APIVersion, contactKey string) ([]json.RawMessage, error) {
	ret := _m.Called(ctx, version, contactKey)

	if len(ret) == 0 {
		panic("no return value specified for ContactBoxes")
	}

	return rawList(ret.Get(0)), ret.Error(1)
}

// PipelineStages provides a mock function with given fields: ctx, version, pipelineKey
func (_m *MockClient) PipelineStages(ctx context.Context, version streak.APIVersion, pipelineKey string) (json.RawMessage, error) {
	ret := _m.Called(ctx, version, pipelineKey)

	if len(ret) == 0 {
		panic("no return value specified for PipelineStages")
	}

	return rawObject(ret.Get(0)), ret.Error(1)
}

// BoxTimeline provides a mock function with given fields: ctx, boxKey, limit
func (_m *MockClient) BoxTimeline(ctx context.Context, boxKey string, limit int) ([]json.RawMessage, error) {
	ret := _m.Called(ctx, boxKey, limit)

	if len(ret) == 0 {
		panic("no return value specified for BoxTimeline")
	}

	return rawList(ret.Get(0)), ret.Error(1)
}

// BoxThreads provides a mock function with given fields: ctx, boxKey
func (_m *MockClient) BoxThreads(ctx context.Context, boxKey string) ([]json.RawMessage, error) {
	ret := _m.Called(ctx, boxKey)

	if len(ret) == 0 {
		panic("no return value specified for BoxThreads")
	}

	return rawList(ret.Get(0)), ret.Error(1)
}

// GetBox provides a mock function with given fields: ctx, boxKey
func (_m *MockClient) GetBox(ctx context.Context, boxKey string) (json.RawMessage, error) {
	ret := _m.Called(ctx, boxKey)

	if len(ret) == 0 {
		panic("no return value specified for GetBox")
	}

	return rawObject(ret.Get(0)), ret.Error(1)
}

// GetContact provides a mock function with given fields: ctx, contactKey
func (_m *MockClient) GetContact(ctx context.Context, contactKey string) (json.RawMessage, error) {
	ret := _m.Called(ctx, contactKey)

	if len(ret) == 0 {
		panic("no return value specified for GetContact")
	}

	return rawObject(ret.Get(0)), ret.Error(1)
}

func rawList(v any) []json.RawMessage {
	switch x := v.(type) {
	case []json.RawMessage:
		return x
	case []string:
		out := make([]json.RawMessage, len(x))
		for i, s := range x {
			out[i] = json.RawMessage(s)
		}
		return out
	default:
		return nil
	}
}

func rawObject(v any) json.RawMessage {
	switch x := v.(type) {
	case json.RawMessage:
		return x
	case string:
		return json.RawMessage(x)
	default:
		return nil
	}
}

// NewMockClient creates a new instance of MockClient. It also registers a
// testing interface on the mock and a cleanup function to assert the mocks
// expectations.
func NewMockClient(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockClient {
	mock := &MockClient{}
	mock.Mock.Test(t)

	t.Cleanup(func() { mock.AssertExpectations(t) })

	return mock
}
