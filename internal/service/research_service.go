package service

import (
	"context"
	"errors"
	"time"

	"leaf-research-be/internal/dto"
	"leaf-research-be/internal/entity"
	"leaf-research-be/internal/pkg/logger"
	"leaf-research-be/internal/repository/specification"
	"leaf-research-be/internal/repository/unitofwork"
	"leaf-research-be/pkg/llm"
	"leaf-research-be/pkg/pdf"
	"leaf-research-be/pkg/rag/executor"
	"leaf-research-be/pkg/rag/history"
	"leaf-research-be/pkg/rag/prompt"

	"github.com/google/uuid"
)

var ErrThreadNotFound = errors.New("thread not found")

type IResearchService interface {
	CreateThread(ctx context.Context, userId uuid.UUID, request *dto.CreateThreadRequest) (*dto.ThreadResponse, error)
	GetThreads(ctx context.Context, userId uuid.UUID) ([]*dto.ThreadResponse, error)
	UpdateThread(ctx context.Context, userId uuid.UUID, request *dto.UpdateThreadRequest) (*dto.ThreadResponse, error)
	DeleteThread(ctx context.Context, userId uuid.UUID, threadId uuid.UUID) error
	GetMessages(ctx context.Context, userId uuid.UUID, threadId uuid.UUID) ([]*dto.MessageResponse, error)
	SendMessage(ctx context.Context, userId uuid.UUID, request *dto.SendMessageRequest) (*dto.SendMessageResponse, error)
}

type Pipeline interface {
	Execute(ctx context.Context, req executor.Request) (*executor.ExecutionResult, error)
}

type HistoryLoader interface {
	Load(ctx context.Context, threadID uuid.UUID, limit int) ([]llm.Message, error)
}

type PDFExtractor interface {
	ExtractText(data []byte) (string, error)
}

// SourceForgetter drops the recovery sources kept for a thread.
type SourceForgetter interface {
	Forget(ctx context.Context, threadID string)
}

type researchService struct {
	uowFactory    unitofwork.RepositoryFactory
	pipeline      Pipeline
	historyLoader HistoryLoader
	pdfExtractor  PDFExtractor
	sources       SourceForgetter
	logger        logger.ILogger
}

func NewResearchService(
	uowFactory unitofwork.RepositoryFactory,
	pipeline Pipeline,
	historyLoader HistoryLoader,
	pdfExtractor PDFExtractor,
	sources SourceForgetter,
	logger logger.ILogger,
) IResearchService {
	return &researchService{
		uowFactory:    uowFactory,
		pipeline:      pipeline,
		historyLoader: historyLoader,
		pdfExtractor:  pdfExtractor,
		sources:       sources,
		logger:        logger,
	}
}

func (s *researchService) CreateThread(ctx context.Context, userId uuid.UUID, request *dto.CreateThreadRequest) (*dto.ThreadResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	thread := entity.Thread{
		Id:        uuid.New(),
		UserId:    userId,
		Title:     request.Title,
		CreatedAt: time.Now(),
	}
	if err := uow.ThreadRepository().Create(ctx, &thread); err != nil {
		return nil, err
	}

	return toThreadResponse(&thread), nil
}

func (s *researchService) GetThreads(ctx context.Context, userId uuid.UUID) ([]*dto.ThreadResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	threads, err := uow.ThreadRepository().FindAll(ctx,
		specification.OwnedBy{UserID: userId},
		specification.OrderBy{Field: "created_at", Desc: true},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.ThreadResponse, 0, len(threads))
	for _, t := range threads {
		res = append(res, toThreadResponse(t))
	}
	return res, nil
}

func (s *researchService) UpdateThread(ctx context.Context, userId uuid.UUID, request *dto.UpdateThreadRequest) (*dto.ThreadResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	thread, err := s.findThread(ctx, uow, userId, request.Id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	thread.Title = request.Title
	thread.UpdatedAt = &now
	if err := uow.ThreadRepository().Update(ctx, thread); err != nil {
		return nil, err
	}

	return toThreadResponse(thread), nil
}

func (s *researchService) DeleteThread(ctx context.Context, userId uuid.UUID, threadId uuid.UUID) error {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.findThread(ctx, uow, userId, threadId); err != nil {
		return err
	}

	if err := uow.Begin(ctx); err != nil {
		return err
	}
	defer uow.Rollback()

	if err := uow.MessageRepository().DeleteByThreadId(ctx, threadId); err != nil {
		return err
	}
	if err := uow.ThreadRepository().Delete(ctx, threadId); err != nil {
		return err
	}
	if err := uow.Commit(); err != nil {
		return err
	}

	if s.sources != nil {
		s.sources.Forget(ctx, threadId.String())
	}
	return nil
}

func (s *researchService) GetMessages(ctx context.Context, userId uuid.UUID, threadId uuid.UUID) ([]*dto.MessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	if _, err := s.findThread(ctx, uow, userId, threadId); err != nil {
		return nil, err
	}

	messages, err := uow.MessageRepository().FindAll(ctx,
		specification.ByThreadID{ThreadID: threadId},
		specification.OrderBy{Field: "created_at", Desc: false},
	)
	if err != nil {
		return nil, err
	}

	res := make([]*dto.MessageResponse, 0, len(messages))
	for _, m := range messages {
		res = append(res, toMessageResponse(m))
	}
	return res, nil
}

// SendMessage stores the user turn, runs the research pipeline and stores the
// answer. A failed generation leaves only the user message behind.
func (s *researchService) SendMessage(ctx context.Context, userId uuid.UUID, request *dto.SendMessageRequest) (*dto.SendMessageResponse, error) {
	uow := s.uowFactory.NewUnitOfWork(ctx)

	thread, err := s.findThread(ctx, uow, userId, request.ThreadId)
	if err != nil {
		return nil, err
	}

	turns, err := s.historyLoader.Load(ctx, thread.Id, history.DefaultLimit)
	if err != nil {
		s.logger.Warn("RESEARCH", "Failed to load conversation history", map[string]interface{}{
			"thread_id": thread.Id.String(),
			"error":     err.Error(),
		})
		turns = nil
	}

	userMessage := entity.Message{
		Id:        uuid.New(),
		ThreadId:  thread.Id,
		Role:      string(llm.RoleUser),
		Content:   request.Message,
		CreatedAt: time.Now(),
	}
	if err := uow.MessageRepository().Create(ctx, &userMessage); err != nil {
		return nil, err
	}

	pdfText := s.readPDF(thread.Id, request.PdfContext)

	result, err := s.pipeline.Execute(ctx, executor.Request{
		ThreadID:        thread.Id.String(),
		Query:           request.Message,
		PDFText:         pdfText,
		History:         turns,
		EnableWebSearch: boolOr(request.EnableWebSearch, true),
		IncludeImages:   boolOr(request.IncludeImages, true),
		Mode:            prompt.Mode(request.Mode),
	})
	if err != nil {
		return nil, err
	}

	assistantMessage := entity.Message{
		Id:              uuid.New(),
		ThreadId:        thread.Id,
		Role:            string(llm.RoleAssistant),
		Content:         result.Reply,
		ProcessingState: result.ProcessingState,
		CreatedAt:       time.Now(),
	}
	if !result.Sources.Empty() {
		set := result.Sources
		assistantMessage.Sources = &set
	}

	if err := uow.Begin(ctx); err != nil {
		return nil, err
	}
	defer uow.Rollback()

	if err := uow.MessageRepository().Create(ctx, &assistantMessage); err != nil {
		return nil, err
	}
	now := time.Now()
	thread.UpdatedAt = &now
	if err := uow.ThreadRepository().Update(ctx, thread); err != nil {
		return nil, err
	}
	if err := uow.Commit(); err != nil {
		return nil, err
	}

	return &dto.SendMessageResponse{
		Messages:        []*dto.MessageResponse{toMessageResponse(&userMessage), toMessageResponse(&assistantMessage)},
		ProcessingState: result.ProcessingState,
		WebSearchData:   assistantMessage.Sources,
		PdfProcessed:    pdfText != "",
	}, nil
}

func (s *researchService) findThread(ctx context.Context, uow unitofwork.UnitOfWork, userId, threadId uuid.UUID) (*entity.Thread, error) {
	thread, err := uow.ThreadRepository().FindOne(ctx,
		specification.ByID{ID: threadId},
		specification.OwnedBy{UserID: userId},
	)
	if err != nil {
		return nil, err
	}
	if thread == nil {
		return nil, ErrThreadNotFound
	}
	return thread, nil
}

// readPDF returns the text of an attached PDF. Unreadable attachments are
// logged and ignored.
func (s *researchService) readPDF(threadId uuid.UUID, encoded string) string {
	if encoded == "" || s.pdfExtractor == nil {
		return ""
	}

	data, err := pdf.DecodeBase64(encoded)
	if err == nil {
		var text string
		if text, err = s.pdfExtractor.ExtractText(data); err == nil {
			return text
		}
	}

	s.logger.Warn("RESEARCH", "Ignoring unreadable PDF attachment", map[string]interface{}{
		"thread_id": threadId.String(),
		"error":     err.Error(),
	})
	return ""
}

func toThreadResponse(t *entity.Thread) *dto.ThreadResponse {
	return &dto.ThreadResponse{
		Id:        t.Id,
		Title:     t.Title,
		CreatedAt: t.CreatedAt,
		UpdatedAt: t.UpdatedAt,
	}
}

func toMessageResponse(m *entity.Message) *dto.MessageResponse {
	return &dto.MessageResponse{
		Id:              m.Id,
		ThreadId:        m.ThreadId,
		Role:            m.Role,
		Content:         m.Content,
		ProcessingState: m.ProcessingState,
		Sources:         m.Sources,
		CreatedAt:       m.CreatedAt,
	}
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
