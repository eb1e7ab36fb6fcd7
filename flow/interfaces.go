package flow

//go:generate mockgen -source=interfaces.go -destination=../internal/mock/backend_mock.go -package=mock

import (
	"context"

	"github.com/AlexZinkM/flow-wallet/internal/model"
)

// Backend is the order service that opens and commits flow phases.
type Backend interface {
	Init(ctx context.Context, req model.InitRequest) (*model.InitResult, error)
	Commit(ctx context.Context, req model.CommitRequest) error
}
