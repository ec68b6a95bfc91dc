package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"

	"cedra_variant_editor/internal/models"
	"cedra_variant_editor/internal/variants"
)

// Session est une édition en cours des variantes d'un produit
type Session struct {
	ID        string               `json:"id"`
	ProductID uuid.UUID            `json:"productId"`
	State     variants.MatrixState `json:"state"`
	CreatedAt time.Time            `json:"createdAt"`
	UpdatedAt time.Time            `json:"updatedAt"`
}

// SessionStore conserve les sessions entre deux appels HTTP.
// Load renvoie *errors.ErrNotFound pour une session absente ou expirée.
type SessionStore interface {
	Save(ctx context.Context, session *Session) error
	Load(ctx context.Context, id string) (*Session, error)
	Delete(ctx context.Context, id string) error
}

// VariantRepository est la persistance durable des matrices
type VariantRepository interface {
	LoadMatrix(ctx context.Context, productID uuid.UUID) (*variants.MatrixState, error)
	SaveMatrix(ctx context.Context, productID uuid.UUID, state variants.MatrixState) (int, error)
	FindSkuOwner(ctx context.Context, sku string) (uuid.UUID, bool, error)
}

// SkuHit est un résultat de recherche de SKU
type SkuHit struct {
	SKU           string            `json:"sku"`
	ProductID     string            `json:"productId"`
	CombinationID string            `json:"combinationId"`
	Attributes    map[string]string `json:"attributes"`
	Price         float64           `json:"price"`
	Stock         int               `json:"stock"`
}

type SkuIndex interface {
	IndexVariants(ctx context.Context, productID uuid.UUID, combinations []models.VariantCombination) error
	Search(ctx context.Context, query string, limit int) ([]SkuHit, error)
}

type ImageStore interface {
	// Upload renvoie l'URL relative /uploads/<objet>
	Upload(ctx context.Context, objectName string, r io.Reader, size int64, contentType string) (string, error)
	SignedURL(ctx context.Context, imageURL string, ttl time.Duration) (string, error)
}
