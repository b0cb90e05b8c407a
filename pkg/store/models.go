package store

import (
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/datatypes"

	"oned/pkg/domain"
)

// GORM models used for persistence.
type PresentationModel struct {
	ID            string    `gorm:"primaryKey"`
	OwnerID       string    `gorm:"not null;index"`
	Title         string    `gorm:"not null"`
	Transcription string    `gorm:"type:text;not null"`
	CreatedAt     time.Time `gorm:"not null;index"`
	UpdatedAt     time.Time `gorm:"not null"`

	Slides []SlideModel `gorm:"foreignKey:PresentationID;constraint:OnDelete:CASCADE"`
}

type SlideModel struct {
	ID             string         `gorm:"primaryKey"`
	PresentationID string         `gorm:"not null;index;index:idx_slide_position,unique"`
	Title          string         `gorm:"not null"`
	BulletPoints   datatypes.JSON `gorm:"not null"`
	KeyTakeaway    string
	ImageIdea      string
	SlideOrder     int       `gorm:"not null;index:idx_slide_position,unique"`
	CreatedAt      time.Time `gorm:"not null"`
	UpdatedAt      time.Time `gorm:"not null"`
}

// encodeBullets serializes bullet points for storage. The JSON-array-as-text
// column is the only place the encoded form exists; everything above the
// store speaks []string.
func encodeBullets(points []string) (datatypes.JSON, error) {
	if points == nil {
		points = []string{}
	}
	raw, err := json.Marshal(points)
	if err != nil {
		return nil, fmt.Errorf("encode bullet points: %w", err)
	}
	return datatypes.JSON(raw), nil
}

// decodeBullets deserializes a stored bullet point column. A corrupt column
// decodes to an empty list rather than failing the whole read.
func decodeBullets(raw datatypes.JSON) []string {
	if len(raw) == 0 {
		return []string{}
	}
	var points []string
	if err := json.Unmarshal(raw, &points); err != nil {
		return []string{}
	}
	if points == nil {
		return []string{}
	}
	return points
}

func (m PresentationModel) toDomain() domain.Presentation {
	return domain.Presentation{
		ID:            m.ID,
		OwnerID:       m.OwnerID,
		Title:         m.Title,
		Transcription: m.Transcription,
		CreatedAt:     m.CreatedAt,
		UpdatedAt:     m.UpdatedAt,
	}
}

func (m SlideModel) toDomain() domain.Slide {
	return domain.Slide{
		ID:             m.ID,
		PresentationID: m.PresentationID,
		Title:          m.Title,
		BulletPoints:   decodeBullets(m.BulletPoints),
		KeyTakeaway:    m.KeyTakeaway,
		ImageIdea:      m.ImageIdea,
		SlideOrder:     m.SlideOrder,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
}
