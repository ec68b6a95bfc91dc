package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"sync"
	"time"

	"github.com/google/uuid"

	"cedra_variant_editor/internal/models"
	"cedra_variant_editor/internal/variants"
	apperrors "cedra_variant_editor/pkg/errors"
)

// memSessions sérialise en JSON comme le ferait Redis
type memSessions struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMemSessions() *memSessions {
	return &memSessions{data: map[string][]byte{}}
}

func (m *memSessions) Save(_ context.Context, s *Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[s.ID] = raw
	return nil
}

func (m *memSessions) Load(_ context.Context, id string) (*Session, error) {
	m.mu.Lock()
	raw, ok := m.data[id]
	m.mu.Unlock()
	if !ok {
		return nil, &apperrors.ErrNotFound{Resource: "session", ID: id}
	}
	var s Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *memSessions) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, id)
	return nil
}

type memRepo struct {
	states  map[uuid.UUID]variants.MatrixState
	owners  map[string]uuid.UUID
	saveErr error
}

func newMemRepo() *memRepo {
	return &memRepo{states: map[uuid.UUID]variants.MatrixState{}, owners: map[string]uuid.UUID{}}
}

func (r *memRepo) LoadMatrix(_ context.Context, productID uuid.UUID) (*variants.MatrixState, error) {
	state, ok := r.states[productID]
	if !ok {
		return nil, nil
	}
	return &state, nil
}

func (r *memRepo) SaveMatrix(_ context.Context, productID uuid.UUID, state variants.MatrixState) (int, error) {
	if r.saveErr != nil {
		return 0, r.saveErr
	}
	deactivated := 0
	if prev, ok := r.states[productID]; ok {
		kept := map[string]bool{}
		for _, c := range state.Combinations {
			kept[c.ID] = true
		}
		for _, c := range prev.Combinations {
			if !kept[c.ID] {
				deactivated++
			}
		}
	}
	r.states[productID] = state
	for _, c := range state.Combinations {
		r.owners[c.SKU] = productID
	}
	return deactivated, nil
}

func (r *memRepo) FindSkuOwner(_ context.Context, sku string) (uuid.UUID, bool, error) {
	owner, ok := r.owners[sku]
	return owner, ok, nil
}

type memIndex struct {
	indexed map[uuid.UUID][]models.VariantCombination
	hits    []SkuHit
	err     error
	queries []string
}

func newMemIndex() *memIndex {
	return &memIndex{indexed: map[uuid.UUID][]models.VariantCombination{}}
}

func (x *memIndex) IndexVariants(_ context.Context, productID uuid.UUID, combinations []models.VariantCombination) error {
	if x.err != nil {
		return x.err
	}
	x.indexed[productID] = combinations
	return nil
}

func (x *memIndex) Search(_ context.Context, query string, limit int) ([]SkuHit, error) {
	x.queries = append(x.queries, query)
	if len(x.hits) > limit {
		return x.hits[:limit], nil
	}
	return x.hits, nil
}

type memImages struct {
	objects map[string][]byte
	signErr error
}

func newMemImages() *memImages {
	return &memImages{objects: map[string][]byte{}}
}

func (i *memImages) Upload(_ context.Context, objectName string, r io.Reader, _ int64, _ string) (string, error) {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	i.objects[objectName] = buf.Bytes()
	return "/uploads/" + objectName, nil
}

func (i *memImages) SignedURL(_ context.Context, imageURL string, _ time.Duration) (string, error) {
	if i.signErr != nil {
		return "", i.signErr
	}
	return "https://minio.test" + imageURL + "?signed=1", nil
}

var errBoom = errors.New("boom")
