// Package mocks provides a testify mock of the autoflex.Client interface.
package mocks

import (
	"context"

	"key-manager/feature/keys/reconcile"

	"github.com/stretchr/testify/mock"
)

// Client is a mock implementation of autoflex.Client.
type Client struct {
	mock.Mock
}

func (m *Client) FetchSnapshot(ctx context.Context) ([]reconcile.ExternalVehicle, error) {
	args := m.Called(ctx)
	if snapshot := args.Get(0); snapshot != nil {
		return snapshot.([]reconcile.ExternalVehicle), args.Error(1)
	}
	return nil, args.Error(1)
}
