package unitofwork

import (
	"context"

	"leaf-research-be/internal/repository/contract"
)

type UnitOfWork interface {
	Begin(ctx context.Context) error
	Commit() error
	Rollback() error

	ThreadRepository() contract.ThreadRepository
	MessageRepository() contract.MessageRepository
	DocumentChunkRepository() contract.DocumentChunkRepository
}
