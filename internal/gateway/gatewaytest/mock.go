package gatewaytest

import (
	"context"
	"encoding/json"

	"github.com/stretchr/testify/mock"
)

// MockCaller records gateway calls. A response given to Respond is copied
// into the out argument through JSON, the way the real client decodes it.
type MockCaller struct {
	mock.Mock
}

func (m *MockCaller) Call(ctx context.Context, method, path string, body, out any) error {
	args := m.Called(method, path, body)
	return fill(args, out)
}

func (m *MockCaller) CallAnonymous(ctx context.Context, method, path string, body, out any) error {
	args := m.Called(method, path, body)
	return fill(args, out)
}

// Respond registers a successful authenticated call returning response.
func (m *MockCaller) Respond(method, path string, body any, response any) *mock.Call {
	return m.On("Call", method, path, body).Return(response, nil)
}

// Fail registers a failed authenticated call.
func (m *MockCaller) Fail(method, path string, body any, err error) *mock.Call {
	return m.On("Call", method, path, body).Return(nil, err)
}

func (m *MockCaller) RespondAnonymous(method, path string, body any, response any) *mock.Call {
	return m.On("CallAnonymous", method, path, body).Return(response, nil)
}

func (m *MockCaller) FailAnonymous(method, path string, body any, err error) *mock.Call {
	return m.On("CallAnonymous", method, path, body).Return(nil, err)
}

func fill(args mock.Arguments, out any) error {
	if err := args.Error(1); err != nil {
		return err
	}
	response := args.Get(0)
	if response == nil || out == nil {
		return nil
	}
	data, err := json.Marshal(response)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, out)
}
