// Package heapmock provides a hand-maintained mock of heapmem.Region, in
// the shape mockgen generates for go.uber.org/mock, so internal/alloc's
// tests can inject a heap-extension failure without needing a real arena
// to run out of space.
package heapmock

import (
	"reflect"

	"go.uber.org/mock/gomock"
)

// MockRegion is a mock of the heapmem.Region interface.
type MockRegion struct {
	ctrl     *gomock.Controller
	recorder *MockRegionMockRecorder
}

// MockRegionMockRecorder is the mock recorder for MockRegion.
type MockRegionMockRecorder struct {
	mock *MockRegion
}

// NewMockRegion creates a new mock instance.
func NewMockRegion(ctrl *gomock.Controller) *MockRegion {
	mock := &MockRegion{ctrl: ctrl}
	mock.recorder = &MockRegionMockRecorder{mock}

	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockRegion) EXPECT() *MockRegionMockRecorder {
	return m.recorder
}

// Extend mocks base method.
func (m *MockRegion) Extend(n uintptr) (int, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Extend", n)
	ret0, _ := ret[0].(int)
	ret1, _ := ret[1].(error)

	return ret0, ret1
}

// Extend indicates an expected call of Extend.
func (mr *MockRegionMockRecorder) Extend(n interface{}) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Extend", reflect.TypeOf((*MockRegion)(nil).Extend), n)
}

// Bytes mocks base method.
func (m *MockRegion) Bytes() []byte {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Bytes")
	ret0, _ := ret[0].([]byte)

	return ret0
}

// Bytes indicates an expected call of Bytes.
func (mr *MockRegionMockRecorder) Bytes() *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Bytes", reflect.TypeOf((*MockRegion)(nil).Bytes))
}
