package generation

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Record is one audited call-site generation. Prompt and completion text are never stored;
// PromptFingerprint identifies the template version instead.
type Record struct {
	ID                uuid.UUID      `gorm:"type:uuid;primaryKey" json:"id"`
	CallSite          string         `gorm:"column:call_site;not null;index:idx_generation_learner_site,priority:2" json:"call_site"`
	LearnerID         string         `gorm:"column:learner_id;index:idx_generation_learner_site,priority:1" json:"learner_id,omitempty"`
	Model             string         `gorm:"column:model;not null" json:"model"`
	PromptFingerprint string         `gorm:"column:prompt_fingerprint" json:"prompt_fingerprint"`
	Outcome           string         `gorm:"column:outcome;not null;index" json:"outcome"`
	ErrorCode         string         `gorm:"column:error_code" json:"error_code,omitempty"`
	DurationMS        int64          `gorm:"column:duration_ms;not null" json:"duration_ms"`
	Result            datatypes.JSON `gorm:"column:result" json:"result,omitempty"`
	CreatedAt         time.Time      `gorm:"not null;index" json:"created_at"`
}

func (Record) TableName() string {
	return "generation_record"
}

func (r *Record) BeforeCreate(*gorm.DB) error {
	if r.ID == uuid.Nil {
		r.ID = uuid.New()
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = time.Now().UTC()
	}
	return nil
}
