package entity

import (
	"time"

	"leaf-research-be/pkg/rag/sources"

	"github.com/google/uuid"
)

type Message struct {
	Id              uuid.UUID
	ThreadId        uuid.UUID
	Role            string
	Content         string
	ProcessingState string
	// Sources is only set on assistant messages.
	Sources   *sources.Set
	CreatedAt time.Time
	UpdatedAt *time.Time
	DeletedAt *time.Time
	IsDeleted bool
}
