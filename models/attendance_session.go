package models

// Session status values. Transitions are monotonic and written only by the
// attendance worker: pending -> processing -> completed | failed. A failed
// session is terminal; retry is a new session.
const (
	SessionStatusPending    = "pending"
	SessionStatusProcessing = "processing"
	SessionStatusCompleted  = "completed"
	SessionStatusFailed     = "failed"
)

// AttendanceSession represents one attendance run over a set of classroom
// photos for a unit. Counts are published only when the session completes;
// a failed session carries no partial counts.
type AttendanceSession struct {
	ID         string `json:"id" gorm:"primaryKey"` // UUID
	UnitID     uint   `json:"unit_id" gorm:"not null;index"`
	LecturerID uint   `json:"lecturer_id" gorm:"not null;index"`
	Status     string `json:"status" gorm:"not null;default:'pending';index"`
	PhotoCount int    `json:"photo_count" gorm:"not null"`

	TotalRegistered int `json:"total_registered"`
	PresentCount    int `json:"present_count"`
	AbsentCount     int `json:"absent_count"`
	UnknownCount    int `json:"unknown_count"`

	// capture time of the first photo carrying EXIF data, when available
	PhotoTakenAt *int64 `json:"photo_taken_at,omitempty"`
	CameraMake   *string `json:"camera_make,omitempty"`
	CameraModel  *string `json:"camera_model,omitempty"`

	ErrorMessage *string `json:"error_message,omitempty"`

	CreatedAt int64 `json:"created_at" gorm:"not null"` // Unix timestamp
	UpdatedAt int64 `json:"updated_at" gorm:"not null"` // Unix timestamp

	Unit    *Unit              `json:"-" gorm:"foreignKey:UnitID"`
	Records []AttendanceRecord `json:"records,omitempty" gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE"`
}

// TableName explicitly sets the table name for GORM.
func (AttendanceSession) TableName() string {
	return "attendance_sessions"
}

// AttendanceRecord is the per-student outcome of a completed session. Every
// registered student gets exactly one record, present or absent.
type AttendanceRecord struct {
	ID        uint   `json:"id" gorm:"primaryKey;autoIncrement"`
	SessionID string `json:"session_id" gorm:"not null;index:idx_session_student,unique"`
	StudentID uint   `json:"student_id" gorm:"not null;index:idx_session_student,unique"`
	Present   bool   `json:"present" gorm:"not null"`

	// best similarity and the photo it came from, present students only
	Similarity *float64 `json:"similarity,omitempty"`
	PhotoIndex *int     `json:"photo_index,omitempty"`

	CreatedAt int64 `json:"created_at" gorm:"not null"` // Unix timestamp

	Session *AttendanceSession `json:"-" gorm:"foreignKey:SessionID"`
	Student *Student           `json:"student,omitempty" gorm:"foreignKey:StudentID"`
}

// TableName explicitly sets the table name for GORM.
func (AttendanceRecord) TableName() string {
	return "attendance_records"
}
