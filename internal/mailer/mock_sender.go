package mailer

import (
	"context"

	"github.com/stretchr/testify/mock"

	"user-management-api/internal/model"
)

type MockSender struct {
	mock.Mock
}

func (m *MockSender) SendWelcome(ctx context.Context, user model.User) error {
	args := m.Called(ctx, user)
	return args.Error(0)
}
