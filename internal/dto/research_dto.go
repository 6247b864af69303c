package dto

import (
	"time"

	"leaf-research-be/pkg/rag/sources"

	"github.com/google/uuid"
)

type CreateThreadRequest struct {
	Title string `json:"title" validate:"required,max=200"`
}

type UpdateThreadRequest struct {
	Id    uuid.UUID `json:"-"`
	Title string    `json:"title" validate:"required,max=200"`
}

type ThreadResponse struct {
	Id        uuid.UUID  `json:"id"`
	Title     string     `json:"title"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt *time.Time `json:"updatedAt"`
}

type MessageResponse struct {
	Id              uuid.UUID    `json:"id"`
	ThreadId        uuid.UUID    `json:"threadId"`
	Role            string       `json:"role"`
	Content         string       `json:"content"`
	ProcessingState string       `json:"processingState,omitempty"`
	Sources         *sources.Set `json:"sources,omitempty"`
	CreatedAt       time.Time    `json:"createdAt"`
}

// SendMessageRequest is one user turn. Optional flags default to true and
// mode to detailed.
type SendMessageRequest struct {
	ThreadId        uuid.UUID `json:"threadId" validate:"required"`
	Message         string    `json:"message" validate:"required"`
	PdfContext      string    `json:"pdfContext,omitempty"`
	EnableWebSearch *bool     `json:"enableWebSearch,omitempty"`
	Mode            string    `json:"mode,omitempty" validate:"omitempty,oneof=detailed concise"`
	IncludeImages   *bool     `json:"includeImages,omitempty"`
}

type SendMessageResponse struct {
	Messages        []*MessageResponse `json:"messages"`
	ProcessingState string             `json:"processingState"`
	WebSearchData   *sources.Set       `json:"webSearchData,omitempty"`
	PdfProcessed    bool               `json:"pdfProcessed"`
}
