package models

// UnknownFace is a detected face that matched no roster entry above the
// recognition threshold. The crop and its embedding are kept as independent
// low-confidence artifacts for manual review; no cross-photo dedup is
// attempted.
type UnknownFace struct {
	ID        uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	SessionID string `json:"session_id" gorm:"not null;index"`

	CropPath      string  `json:"crop_path" gorm:"not null"`
	ThumbnailPath *string `json:"thumbnail_path,omitempty"`

	X1 float64 `json:"x1" gorm:"not null"`
	Y1 float64 `json:"y1" gorm:"not null"`
	X2 float64 `json:"x2" gorm:"not null"`
	Y2 float64 `json:"y2" gorm:"not null"`

	DetectionScore float64 `json:"detection_score" gorm:"not null"`
	BestSimilarity float64 `json:"best_similarity"` // highest roster similarity observed; may exceed the threshold when the best entry was already claimed
	PhotoIndex     int     `json:"photo_index" gorm:"not null"`

	EmbeddingData []byte `json:"-" gorm:"column:embedding_data"` // for later re-matching attempts

	CreatedAt int64 `json:"created_at" gorm:"not null"` // Unix timestamp

	Session *AttendanceSession `json:"-" gorm:"foreignKey:SessionID"`
}

// TableName explicitly sets the table name for GORM.
func (UnknownFace) TableName() string {
	return "unknown_faces"
}

// GetEmbedding converts the BLOB data to []float32
func (uf *UnknownFace) GetEmbedding() []float32 {
	return BytesToEmbedding(uf.EmbeddingData)
}

// SetEmbedding converts []float32 to BLOB data
func (uf *UnknownFace) SetEmbedding(embedding []float32) {
	uf.EmbeddingData = EmbeddingToBytes(embedding)
}
