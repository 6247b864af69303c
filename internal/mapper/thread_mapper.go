package mapper

import (
	"encoding/json"
	"time"

	"leaf-research-be/internal/entity"
	"leaf-research-be/internal/model"
	"leaf-research-be/pkg/rag/sources"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type ThreadMapper struct{}

func NewThreadMapper() *ThreadMapper {
	return &ThreadMapper{}
}

func deletedAtPtr(d gorm.DeletedAt) *time.Time {
	if !d.Valid {
		return nil
	}
	t := d.Time
	return &t
}

func updatedAtPtr(t time.Time) *time.Time {
	if t.IsZero() {
		return nil
	}
	return &t
}

func toDeletedAt(deletedAt *time.Time, isDeleted bool) gorm.DeletedAt {
	if deletedAt != nil {
		return gorm.DeletedAt{Time: *deletedAt, Valid: true}
	}
	if isDeleted {
		return gorm.DeletedAt{Time: time.Now(), Valid: true}
	}
	return gorm.DeletedAt{}
}

// Thread Mappers

func (m *ThreadMapper) ThreadToEntity(t *model.Thread) *entity.Thread {
	if t == nil {
		return nil
	}
	return &entity.Thread{
		Id:        t.Id,
		UserId:    t.UserId,
		Title:     t.Title,
		CreatedAt: t.CreatedAt,
		UpdatedAt: updatedAtPtr(t.UpdatedAt),
		DeletedAt: deletedAtPtr(t.DeletedAt),
		IsDeleted: t.DeletedAt.Valid,
	}
}

func (m *ThreadMapper) ThreadToModel(t *entity.Thread) *model.Thread {
	if t == nil {
		return nil
	}

	var updatedAt time.Time
	if t.UpdatedAt != nil {
		updatedAt = *t.UpdatedAt
	}

	return &model.Thread{
		Id:        t.Id,
		UserId:    t.UserId,
		Title:     t.Title,
		CreatedAt: t.CreatedAt,
		UpdatedAt: updatedAt,
		DeletedAt: toDeletedAt(t.DeletedAt, t.IsDeleted),
	}
}

// Message Mappers

func (m *ThreadMapper) MessageToEntity(msg *model.Message) *entity.Message {
	if msg == nil {
		return nil
	}

	var set *sources.Set
	if len(msg.Sources) > 0 && string(msg.Sources) != "null" {
		var decoded sources.Set
		if err := json.Unmarshal(msg.Sources, &decoded); err == nil {
			set = &decoded
		}
	}

	return &entity.Message{
		Id:              msg.Id,
		ThreadId:        msg.ThreadId,
		Role:            msg.Role,
		Content:         msg.Content,
		ProcessingState: msg.ProcessingState,
		Sources:         set,
		CreatedAt:       msg.CreatedAt,
		UpdatedAt:       updatedAtPtr(msg.UpdatedAt),
		DeletedAt:       deletedAtPtr(msg.DeletedAt),
		IsDeleted:       msg.DeletedAt.Valid,
	}
}

func (m *ThreadMapper) MessageToModel(msg *entity.Message) *model.Message {
	if msg == nil {
		return nil
	}

	var raw datatypes.JSON
	if msg.Sources != nil {
		if b, err := json.Marshal(msg.Sources); err == nil {
			raw = datatypes.JSON(b)
		}
	}

	var updatedAt time.Time
	if msg.UpdatedAt != nil {
		updatedAt = *msg.UpdatedAt
	}

	return &model.Message{
		Id:              msg.Id,
		ThreadId:        msg.ThreadId,
		Role:            msg.Role,
		Content:         msg.Content,
		ProcessingState: msg.ProcessingState,
		Sources:         raw,
		CreatedAt:       msg.CreatedAt,
		UpdatedAt:       updatedAt,
		DeletedAt:       toDeletedAt(msg.DeletedAt, msg.IsDeleted),
	}
}

func (m *ThreadMapper) MessagesToEntities(models []*model.Message) []*entity.Message {
	entities := make([]*entity.Message, len(models))
	for i, msg := range models {
		entities[i] = m.MessageToEntity(msg)
	}
	return entities
}
