package store

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"oned/pkg/domain"
)

const sqliteDSNPrefix = "sqlite:"

// slideInsertConcurrency bounds the fan-out of slide row inserts during
// creation. Each slide carries its own pre-computed order, so inserts have
// no inter-slide dependency.
const slideInsertConcurrency = 4

// GormStore implements Store using GORM over Postgres, or SQLite when the
// DSN carries a "sqlite:" prefix (local development).
type GormStore struct {
	db *gorm.DB
}

// NewGormStore opens the database and runs auto-migrations.
func NewGormStore(dsn string) (*GormStore, error) {
	dsn = strings.TrimSpace(dsn)
	if dsn == "" {
		return nil, fmt.Errorf("database dsn required")
	}

	gormLog := gormlogger.New(
		log.New(os.Stdout, "\r\n", log.LstdFlags),
		gormlogger.Config{
			SlowThreshold:             time.Second,
			LogLevel:                  gormlogger.Warn,
			IgnoreRecordNotFoundError: true,
			Colorful:                  false,
		},
	)

	var dialector gorm.Dialector
	if strings.HasPrefix(dsn, sqliteDSNPrefix) {
		dialector = sqlite.Open(strings.TrimPrefix(dsn, sqliteDSNPrefix))
	} else {
		dialector = postgres.Open(dsn)
	}

	db, err := gorm.Open(dialector, &gorm.Config{Logger: gormLog})
	if err != nil {
		return nil, fmt.Errorf("open db: %w", err)
	}
	if err := db.AutoMigrate(&PresentationModel{}, &SlideModel{}); err != nil {
		return nil, fmt.Errorf("auto migrate: %w", err)
	}
	return &GormStore{db: db}, nil
}

// CreatePresentation inserts the presentation row and fans out the slide row
// inserts. A failed slide insert triggers a best-effort compensating delete
// of everything already written so no orphaned rows survive.
func (s *GormStore) CreatePresentation(ctx context.Context, p NewPresentation) (domain.PresentationWithSlides, error) {
	if err := validateNewPresentation(p); err != nil {
		return domain.PresentationWithSlides{}, err
	}

	now := time.Now().UTC()
	pres := PresentationModel{
		ID:            uuid.NewString(),
		OwnerID:       p.OwnerID,
		Title:         p.Title,
		Transcription: p.Transcription,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.db.WithContext(ctx).Create(&pres).Error; err != nil {
		return domain.PresentationWithSlides{}, fmt.Errorf("insert presentation: %w", err)
	}

	slides := make([]SlideModel, len(p.Slides))
	for i, sl := range p.Slides {
		bullets, err := encodeBullets(sl.BulletPoints)
		if err != nil {
			s.compensate(ctx, pres.ID)
			return domain.PresentationWithSlides{}, err
		}
		slides[i] = SlideModel{
			ID:             uuid.NewString(),
			PresentationID: pres.ID,
			Title:          sl.Title,
			BulletPoints:   bullets,
			KeyTakeaway:    sl.KeyTakeaway,
			ImageIdea:      sl.ImageIdea,
			SlideOrder:     i,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(slideInsertConcurrency)
	for i := range slides {
		slide := slides[i]
		g.Go(func() error {
			return s.db.WithContext(gctx).Create(&slide).Error
		})
	}
	if err := g.Wait(); err != nil {
		s.compensate(ctx, pres.ID)
		return domain.PresentationWithSlides{}, fmt.Errorf("insert slides: %w", err)
	}

	result := domain.PresentationWithSlides{
		Presentation: pres.toDomain(),
		Slides:       make([]domain.Slide, len(slides)),
	}
	for i, slide := range slides {
		result.Slides[i] = slide.toDomain()
	}
	sort.Slice(result.Slides, func(i, j int) bool {
		return result.Slides[i].SlideOrder < result.Slides[j].SlideOrder
	})
	return result, nil
}

// compensate removes partially written rows after a failed create.
func (s *GormStore) compensate(ctx context.Context, presentationID string) {
	if err := s.db.WithContext(ctx).Where("presentation_id = ?", presentationID).Delete(&SlideModel{}).Error; err != nil {
		return
	}
	_ = s.db.WithContext(ctx).Where("id = ?", presentationID).Delete(&PresentationModel{}).Error
}

// GetPresentationWithSlides returns a presentation and its slides sorted by
// slide order. A missing id and an ownership mismatch both return
// ErrNotFound.
func (s *GormStore) GetPresentationWithSlides(ctx context.Context, id, ownerID string) (domain.PresentationWithSlides, error) {
	var pres PresentationModel
	err := s.db.WithContext(ctx).First(&pres, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return domain.PresentationWithSlides{}, ErrNotFound
	}
	if err != nil {
		return domain.PresentationWithSlides{}, fmt.Errorf("select presentation: %w", err)
	}
	if pres.OwnerID != ownerID {
		return domain.PresentationWithSlides{}, ErrNotFound
	}

	var slides []SlideModel
	if err := s.db.WithContext(ctx).
		Where("presentation_id = ?", id).
		Order("slide_order ASC").
		Find(&slides).Error; err != nil {
		return domain.PresentationWithSlides{}, fmt.Errorf("select slides: %w", err)
	}

	result := domain.PresentationWithSlides{
		Presentation: pres.toDomain(),
		Slides:       make([]domain.Slide, len(slides)),
	}
	for i, slide := range slides {
		result.Slides[i] = slide.toDomain()
	}
	return result, nil
}

// ListPresentationsByOwner returns the owner's presentations ordered by
// creation time.
func (s *GormStore) ListPresentationsByOwner(ctx context.Context, ownerID string) ([]domain.Presentation, error) {
	var rows []PresentationModel
	if err := s.db.WithContext(ctx).
		Where("owner_id = ?", ownerID).
		Order("created_at ASC").
		Find(&rows).Error; err != nil {
		return nil, fmt.Errorf("list presentations: %w", err)
	}
	result := make([]domain.Presentation, len(rows))
	for i, row := range rows {
		result[i] = row.toDomain()
	}
	return result, nil
}

// DeletePresentation verifies ownership, then deletes slides before the
// presentation row. Returns false without error when the presentation is
// missing or owned by someone else.
func (s *GormStore) DeletePresentation(ctx context.Context, id, ownerID string) (bool, error) {
	var pres PresentationModel
	err := s.db.WithContext(ctx).First(&pres, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("select presentation: %w", err)
	}
	if pres.OwnerID != ownerID {
		return false, nil
	}

	if err := s.db.WithContext(ctx).Where("presentation_id = ?", id).Delete(&SlideModel{}).Error; err != nil {
		return false, fmt.Errorf("delete slides: %w", err)
	}
	if err := s.db.WithContext(ctx).Where("id = ?", id).Delete(&PresentationModel{}).Error; err != nil {
		return false, fmt.Errorf("delete presentation: %w", err)
	}
	return true, nil
}

func validateNewPresentation(p NewPresentation) error {
	if strings.TrimSpace(p.OwnerID) == "" {
		return fmt.Errorf("owner id required")
	}
	if strings.TrimSpace(p.Title) == "" {
		return fmt.Errorf("title required")
	}
	if len(strings.TrimSpace(p.Transcription)) < 10 {
		return fmt.Errorf("transcription must be at least 10 characters")
	}
	return nil
}
