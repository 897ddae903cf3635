// Package mocks provides testify mocks for the manager interfaces.
package mocks

import (
	"github.com/stretchr/testify/mock"

	"storefront-auth/internal/interfaces"
)

// MockDatabaseManager is a mock of the DatabaseMgr interface.
type MockDatabaseManager struct {
	mock.Mock
}

func (m *MockDatabaseManager) GetPool() interfaces.PgxPoolIface {
	args := m.Called()
	return args.Get(0).(interfaces.PgxPoolIface)
}
