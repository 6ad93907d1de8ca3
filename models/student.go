package models

import "gorm.io/gorm"

// Student represents a registered roster member for a unit. A student is
// matchable only once at least one reference embedding is stored; embeddings
// are append-only after registration.
type Student struct {
	ID              uint           `json:"id" gorm:"primaryKey;autoIncrement"`
	UnitID          uint           `json:"unit_id" gorm:"not null;index:idx_unit_admission,unique"`
	AdmissionNumber string         `json:"admission_number" gorm:"not null;index:idx_unit_admission,unique"`
	FullName        string         `json:"full_name" gorm:"not null"`
	IsActive        bool           `json:"is_active" gorm:"default:true"`
	CreatedAt       int64          `json:"created_at" gorm:"not null"` // Unix timestamp
	UpdatedAt       int64          `json:"updated_at" gorm:"not null"` // Unix timestamp
	DeletedAt       gorm.DeletedAt `json:"deleted_at,omitempty" gorm:"index"`

	Unit       *Unit              `json:"-" gorm:"foreignKey:UnitID"`
	Embeddings []StudentEmbedding `json:"embeddings,omitempty" gorm:"foreignKey:StudentID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (Student) TableName() string {
	return "students"
}

// ReferenceEmbeddings decodes every stored embedding blob, skipping records
// whose payload fails to decode.
func (s *Student) ReferenceEmbeddings() [][]float32 {
	var out [][]float32
	for i := range s.Embeddings {
		if emb := s.Embeddings[i].GetEmbedding(); emb != nil {
			out = append(out, emb)
		}
	}
	return out
}
