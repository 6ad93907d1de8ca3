package models

import (
	"math"
)

// StudentEmbedding represents one reference face embedding captured during a
// student's liveness-gated registration. A student typically owns several,
// one per accepted pose frame. Rows are immutable once stored; (re)registration
// only appends.
// It corresponds to the 'student_embeddings' table.
type StudentEmbedding struct {
	ID             uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	StudentID      uint   `json:"student_id" gorm:"not null;index"`
	EmbeddingData  []byte `json:"-" gorm:"not null;column:embedding_data"` // 512-dimensional unit-norm vector as BLOB
	EmbeddingModel string `json:"embedding_model" gorm:"not null;column:embedding_model;default:'arcface'"`
	PoseLabel      string `json:"pose_label" gorm:"column:pose_label"` // liveness pose the source frame was captured for
	CreatedAt      int64  `json:"created_at" gorm:"not null"`          // Unix timestamp

	Student *Student `json:"-" gorm:"foreignKey:StudentID"`
}

// TableName explicitly sets the table name for GORM.
func (StudentEmbedding) TableName() string {
	return "student_embeddings"
}

// GetEmbedding converts the BLOB data to []float32
func (se *StudentEmbedding) GetEmbedding() []float32 {
	return BytesToEmbedding(se.EmbeddingData)
}

// SetEmbedding converts []float32 to BLOB data
func (se *StudentEmbedding) SetEmbedding(embedding []float32) {
	se.EmbeddingData = EmbeddingToBytes(embedding)
}

// BytesToEmbedding decodes a little-endian float32 BLOB
func BytesToEmbedding(data []byte) []float32 {
	if len(data) == 0 || len(data)%4 != 0 {
		return nil
	}
	embedding := make([]float32, len(data)/4)
	for i := 0; i < len(embedding); i++ {
		offset := i * 4
		bits := uint32(data[offset]) |
			uint32(data[offset+1])<<8 |
			uint32(data[offset+2])<<16 |
			uint32(data[offset+3])<<24
		embedding[i] = math.Float32frombits(bits)
	}
	return embedding
}

// EmbeddingToBytes encodes a []float32 as a little-endian BLOB
func EmbeddingToBytes(embedding []float32) []byte {
	if len(embedding) == 0 {
		return nil
	}
	data := make([]byte, len(embedding)*4)
	for i, val := range embedding {
		offset := i * 4
		bits := math.Float32bits(val)
		data[offset] = byte(bits)
		data[offset+1] = byte(bits >> 8)
		data[offset+2] = byte(bits >> 16)
		data[offset+3] = byte(bits >> 24)
	}
	return data
}
