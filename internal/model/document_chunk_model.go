package model

import (
	"time"

	"github.com/pgvector/pgvector-go"
)

type DocumentChunk struct {
	Id         int64            `gorm:"primaryKey;autoIncrement"`
	Source     string           `gorm:"type:varchar(255);not null;index"`
	ChunkIndex int              `gorm:"default:0"`
	FilePath   string           `gorm:"type:text"`
	Text       string           `gorm:"type:text;not null"`
	Embedding  *pgvector.Vector `gorm:"type:vector(768)"` // nomic-embed-text and text-embedding-004, NULL when not embedded
	CreatedAt  time.Time        `gorm:"autoCreateTime"`
}

func (DocumentChunk) TableName() string {
	return "document_chunks"
}
