package mocks

import (
	"context"

	"adventure-server/internal/service"

	"github.com/stretchr/testify/mock"
)

// MockNarrativeGenerator is a mock type for the NarrativeGenerator type
type MockNarrativeGenerator struct {
	mock.Mock
}

// Continue provides a mock function with given fields: ctx, promptContext, final
func (_m *MockNarrativeGenerator) Continue(ctx context.Context, promptContext string, final bool) (service.GeneratedSegment, error) {
	ret := _m.Called(ctx, promptContext, final)

	var r0 service.GeneratedSegment
	if rf, ok := ret.Get(0).(func(context.Context, string, bool) service.GeneratedSegment); ok {
		r0 = rf(ctx, promptContext, final)
	} else if ret.Get(0) != nil {
		r0 = ret.Get(0).(service.GeneratedSegment)
	}

	return r0, ret.Error(1)
}

// Opening provides a mock function with given fields: ctx, params
func (_m *MockNarrativeGenerator) Opening(ctx context.Context, params service.StoryParams) (string, error) {
	ret := _m.Called(ctx, params)
	return ret.String(0), ret.Error(1)
}

// Choices provides a mock function with given fields: ctx, story
func (_m *MockNarrativeGenerator) Choices(ctx context.Context, story string) ([]string, error) {
	ret := _m.Called(ctx, story)

	var r0 []string
	if ret.Get(0) != nil {
		r0 = ret.Get(0).([]string)
	}

	return r0, ret.Error(1)
}

// NewMockNarrativeGenerator creates a new instance of MockNarrativeGenerator. It also registers a testing interface on the mock and a cleanup function to assert the mocks expectations.
func NewMockNarrativeGenerator(t interface {
	mock.TestingT
	Cleanup(func())
}) *MockNarrativeGenerator {
	m := &MockNarrativeGenerator{}
	m.Mock.Test(t)
	t.Cleanup(func() { m.AssertExpectations(t) })
	return m
}

var _ service.NarrativeGenerator = (*MockNarrativeGenerator)(nil)
