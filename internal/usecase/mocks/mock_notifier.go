//	mockgen -source=internal/usecase/interfaces.go -destination=internal/usecase/mocks/mock_notifier.go -package=mocks
//

// Package mocks is a generated GoMock package.
package mocks

import (
	context "context"
	reflect "reflect"

	usecase "github.com/fintrack/fintrack/internal/usecase"
	gomock "go.uber.org/mock/gomock"
)

// MockNotifier is a mock of Notifier interface.
type MockNotifier struct {
	ctrl     *gomock.Controller
	recorder *MockNotifierMockRecorder
	isgomock struct{}
}

// MockNotifierMockRecorder is the mock recorder for MockNotifier.
type MockNotifierMockRecorder struct {
	mock *MockNotifier
}

// NewMockNotifier creates a new mock instance.
func NewMockNotifier(ctrl *gomock.Controller) *MockNotifier {
	mock := &MockNotifier{ctrl: ctrl}
	mock.recorder = &MockNotifierMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockNotifier) EXPECT() *MockNotifierMockRecorder {
	return m.recorder
}

// Send mocks base method.
func (m *MockNotifier) Send(ctx context.Context, notification usecase.Notification) error {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Send", ctx, notification)
	ret0, _ := ret[0].(error)
	return ret0
}

// Send indicates an expected call of Send.
func (mr *MockNotifierMockRecorder) Send(ctx, notification any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Send", reflect.TypeOf((*MockNotifier)(nil).Send), ctx, notification)
}

// MockInsightGenerator is a mock of InsightGenerator interface.
type MockInsightGenerator struct {
	ctrl     *gomock.Controller
	recorder *MockInsightGeneratorMockRecorder
	isgomock struct{}
}

// MockInsightGeneratorMockRecorder is the mock recorder for MockInsightGenerator.
type MockInsightGeneratorMockRecorder struct {
	mock *MockInsightGenerator
}

// NewMockInsightGenerator creates a new mock instance.
func NewMockInsightGenerator(ctrl *gomock.Controller) *MockInsightGenerator {
	mock := &MockInsightGenerator{ctrl: ctrl}
	mock.recorder = &MockInsightGeneratorMockRecorder{mock}
	return mock
}

// EXPECT returns an object that allows the caller to indicate expected use.
func (m *MockInsightGenerator) EXPECT() *MockInsightGeneratorMockRecorder {
	return m.recorder
}

// Generate mocks base method.
func (m *MockInsightGenerator) Generate(ctx context.Context, stats usecase.MonthlyStats, month string) ([]string, error) {
	m.ctrl.T.Helper()
	ret := m.ctrl.Call(m, "Generate", ctx, stats, month)
	ret0, _ := ret[0].([]string)
	ret1, _ := ret[1].(error)
	return ret0, ret1
}

// Generate indicates an expected call of Generate.
func (mr *MockInsightGeneratorMockRecorder) Generate(ctx, stats, month any) *gomock.Call {
	mr.mock.ctrl.T.Helper()
	return mr.mock.ctrl.RecordCallWithMethodType(mr.mock, "Generate", reflect.TypeOf((*MockInsightGenerator)(nil).Generate), ctx, stats, month)
}
