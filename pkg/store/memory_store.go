package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"oned/pkg/domain"
)

// MemoryStore keeps presentations in-process. It mirrors GormStore semantics
// exactly (ordering, ownership checks, bullet codec) and backs tests.
type MemoryStore struct {
	mu            sync.RWMutex
	presentations map[string]domain.Presentation
	slides        map[string][]domain.Slide // key: presentation ID
	order         []string                  // presentation IDs in insertion order
}

// NewMemoryStore initializes an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		presentations: make(map[string]domain.Presentation),
		slides:        make(map[string][]domain.Slide),
	}
}

// CreatePresentation stores the presentation and its slides as one unit.
func (m *MemoryStore) CreatePresentation(_ context.Context, p NewPresentation) (domain.PresentationWithSlides, error) {
	if err := validateNewPresentation(p); err != nil {
		return domain.PresentationWithSlides{}, err
	}

	now := time.Now().UTC()
	pres := domain.Presentation{
		ID:            uuid.NewString(),
		OwnerID:       p.OwnerID,
		Title:         p.Title,
		Transcription: p.Transcription,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	slides := make([]domain.Slide, len(p.Slides))
	for i, sl := range p.Slides {
		// Round-trip through the storage codec so memory-backed tests see
		// the same decode behavior as the database path.
		encoded, err := encodeBullets(sl.BulletPoints)
		if err != nil {
			return domain.PresentationWithSlides{}, err
		}
		slides[i] = domain.Slide{
			ID:             uuid.NewString(),
			PresentationID: pres.ID,
			Title:          sl.Title,
			BulletPoints:   decodeBullets(encoded),
			KeyTakeaway:    sl.KeyTakeaway,
			ImageIdea:      sl.ImageIdea,
			SlideOrder:     i,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	m.presentations[pres.ID] = pres
	m.slides[pres.ID] = slides
	m.order = append(m.order, pres.ID)

	return domain.PresentationWithSlides{Presentation: pres, Slides: append([]domain.Slide(nil), slides...)}, nil
}

// GetPresentationWithSlides returns the presentation and its slides sorted
// by slide order, or ErrNotFound for missing ids and ownership mismatches
// alike.
func (m *MemoryStore) GetPresentationWithSlides(_ context.Context, id, ownerID string) (domain.PresentationWithSlides, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	pres, ok := m.presentations[id]
	if !ok || pres.OwnerID != ownerID {
		return domain.PresentationWithSlides{}, ErrNotFound
	}
	slides := append([]domain.Slide(nil), m.slides[id]...)
	sort.Slice(slides, func(i, j int) bool { return slides[i].SlideOrder < slides[j].SlideOrder })
	return domain.PresentationWithSlides{Presentation: pres, Slides: slides}, nil
}

// ListPresentationsByOwner returns the owner's presentations in creation order.
func (m *MemoryStore) ListPresentationsByOwner(_ context.Context, ownerID string) ([]domain.Presentation, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	result := make([]domain.Presentation, 0, len(m.order))
	for _, id := range m.order {
		if pres, ok := m.presentations[id]; ok && pres.OwnerID == ownerID {
			result = append(result, pres)
		}
	}
	return result, nil
}

// DeletePresentation removes the presentation and its slides after an
// ownership check. Returns false when nothing was deleted.
func (m *MemoryStore) DeletePresentation(_ context.Context, id, ownerID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	pres, ok := m.presentations[id]
	if !ok || pres.OwnerID != ownerID {
		return false, nil
	}
	delete(m.slides, id)
	delete(m.presentations, id)
	for i, ordered := range m.order {
		if ordered == id {
			m.order = append(m.order[:i], m.order[i+1:]...)
			break
		}
	}
	return true, nil
}
