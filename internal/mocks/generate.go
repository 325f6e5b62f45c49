// Package mocks provides generated mock implementations of the core ports.
//
// This package uses go.uber.org/mock (gomock) to generate type-safe mocks
// for the repository and client interfaces. To regenerate after interface
// changes, run:
//
//	go generate ./internal/mocks
//
// Usage in tests:
//
//	ctrl := gomock.NewController(t)
//	defer ctrl.Finish()
//	mockQueue := mocks.NewMockQueueClient(ctrl)
//	mockQueue.EXPECT().Enqueue(gomock.Any(), gomock.Any()).Return(nil)
package mocks

// Generate mock for QueueClient interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=queue_client_mock.go github.com/gradebench/gradebench/internal/core QueueClient

// Generate mock for EvaluationRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=evaluation_repository_mock.go github.com/gradebench/gradebench/internal/core EvaluationRepository

// Generate mock for ProjectRepository interface from internal/core package.
//go:generate go run go.uber.org/mock/mockgen -package=mocks -destination=project_repository_mock.go github.com/gradebench/gradebench/internal/core ProjectRepository
