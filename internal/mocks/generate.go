// Package mocks provides mock implementations for testing the gateway.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks for
// our repository interfaces. Lightweight hand-written doubles for the auth
// ports live in the auth subpackage; codegen is reserved for the wider
// repository-style interfaces.
//
// To regenerate mocks after interface changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockRepo := users.NewMockUserRepository(ctrl)
//	mockRepo.EXPECT().GetByID(gomock.Any(), "u1").Return(user, nil)
package mocks

// Generate mock for UserRepository interface from internal/ports.
// This creates MockUserRepository with Upsert, GetByID, and List.
//go:generate go run go.uber.org/mock/mockgen@v0.6.0 -package=users -destination=users/user_repository_mock.go github.com/clycites/clygate/internal/ports UserRepository
