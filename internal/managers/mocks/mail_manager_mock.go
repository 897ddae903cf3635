package mocks

import (
	"github.com/stretchr/testify/mock"
)

// MockMailManager is a mock of the MailMgr interface.
type MockMailManager struct {
	mock.Mock
}

func (m *MockMailManager) SendActivationMail(email, firstName, activationLink string) error {
	args := m.Called(email, firstName, activationLink)
	return args.Error(0)
}
