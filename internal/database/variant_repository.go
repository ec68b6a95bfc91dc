package database

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/gocql/gocql"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"cedra_variant_editor/internal/models"
	"cedra_variant_editor/internal/variants"
	apperrors "cedra_variant_editor/pkg/errors"
)

const (
	selectMatrixQuery = `SELECT state FROM product_variant_matrices WHERE product_id = ?`
	upsertMatrixQuery = `INSERT INTO product_variant_matrices (product_id, state, updated_at) VALUES (?, ?, ?)`

	selectVariantIDsQuery = `SELECT id, is_active FROM product_variants WHERE product_id = ?`
	selectSkuOwnerQuery   = `SELECT product_id, is_active FROM product_variants WHERE sku = ?`

	insertVariantQuery = `
		INSERT INTO product_variants (
			id, product_id, sku, price, original_price, stock, attributes, image_urls, signature, is_active, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, true, ?, ?)`
	updateVariantQuery = `
		UPDATE product_variants SET sku = ?, price = ?, original_price = ?, stock = ?, attributes = ?,
			image_urls = ?, signature = ?, is_active = true, updated_at = ?
		WHERE id = ?`
	deactivateVariantQuery = `UPDATE product_variants SET is_active = false, updated_at = ? WHERE id = ?`
)

// VariantRepository persiste la matrice d'un produit et une ligne product_variants par combinaison
type VariantRepository struct {
	session *gocql.Session
	logger  *zap.Logger
}

func NewVariantRepository(session *gocql.Session, logger *zap.Logger) *VariantRepository {
	return &VariantRepository{session: session, logger: logger}
}

// LoadMatrix renvoie nil, nil si le produit n'a jamais été enregistré
func (r *VariantRepository) LoadMatrix(ctx context.Context, productID uuid.UUID) (*variants.MatrixState, error) {
	var raw string
	err := r.session.Query(selectMatrixQuery, gocql.UUID(productID)).WithContext(ctx).Scan(&raw)
	if err == gocql.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("lecture matrice %s: %w", productID, err)
	}

	var state variants.MatrixState
	if err := json.Unmarshal([]byte(raw), &state); err != nil {
		return nil, fmt.Errorf("décodage matrice %s: %w", productID, err)
	}
	return &state, nil
}

// SaveMatrix écrit l'instantané et les variantes dans un batch, puis désactive les variantes disparues
func (r *VariantRepository) SaveMatrix(ctx context.Context, productID uuid.UUID, state variants.MatrixState) (int, error) {
	pid := gocql.UUID(productID)

	existing := make(map[gocql.UUID]bool)
	iter := r.session.Query(selectVariantIDsQuery, pid).WithContext(ctx).Iter()
	var (
		id     gocql.UUID
		active bool
	)
	for iter.Scan(&id, &active) {
		existing[id] = active
	}
	if err := iter.Close(); err != nil {
		return 0, fmt.Errorf("lecture variantes %s: %w", productID, err)
	}

	raw, err := json.Marshal(state)
	if err != nil {
		return 0, fmt.Errorf("encodage matrice %s: %w", productID, err)
	}

	now := time.Now()
	batch := r.session.NewBatch(gocql.LoggedBatch).WithContext(ctx)
	batch.Query(upsertMatrixQuery, pid, string(raw), now)

	kept := make(map[gocql.UUID]bool, len(state.Combinations))
	for _, c := range state.Combinations {
		v, err := variantRow(pid, c, now)
		if err != nil {
			return 0, err
		}
		kept[v.ID] = true

		if _, known := existing[v.ID]; known {
			batch.Query(updateVariantQuery,
				v.SKU, v.Price, v.OriginalPrice, v.Stock, v.Attributes, v.ImageURLs, v.Signature, v.UpdatedAt, v.ID)
			continue
		}
		batch.Query(insertVariantQuery,
			v.ID, v.ProductID, v.SKU, v.Price, v.OriginalPrice, v.Stock, v.Attributes, v.ImageURLs, v.Signature, v.CreatedAt, v.UpdatedAt)
	}

	deactivated := 0
	for vid, wasActive := range existing {
		if kept[vid] || !wasActive {
			continue
		}
		batch.Query(deactivateVariantQuery, now, vid)
		deactivated++
	}

	if err := r.session.ExecuteBatch(batch); err != nil {
		return 0, fmt.Errorf("enregistrement variantes %s: %w", productID, err)
	}

	r.logger.Info("✅ Variantes enregistrées",
		zap.String("product_id", productID.String()),
		zap.Int("variants", len(state.Combinations)),
		zap.Int("deactivated", deactivated),
	)
	return deactivated, nil
}

// variantRow convertit une combinaison en ligne product_variants ; son ID devient celui de la ligne
func variantRow(productID gocql.UUID, c models.VariantCombination, now time.Time) (models.ProductVariant, error) {
	id, err := gocql.ParseUUID(c.ID)
	if err != nil {
		return models.ProductVariant{}, &apperrors.ErrValidation{
			Message: "identifiant de combinaison invalide",
			Fields:  map[string]string{"id": c.ID},
		}
	}
	images := c.Images
	if images == nil {
		images = []string{}
	}
	return models.ProductVariant{
		ID:            id,
		ProductID:     productID,
		SKU:           c.SKU,
		Price:         c.Price,
		OriginalPrice: c.OriginalPrice,
		Stock:         c.Stock,
		Attributes:    c.Attributes(),
		ImageURLs:     images,
		Signature:     variants.Signature(c.Options),
		IsActive:      true,
		CreatedAt:     now,
		UpdatedAt:     now,
	}, nil
}

// FindSkuOwner renvoie le produit qui porte ce SKU sur une variante active
func (r *VariantRepository) FindSkuOwner(ctx context.Context, sku string) (uuid.UUID, bool, error) {
	iter := r.session.Query(selectSkuOwnerQuery, sku).WithContext(ctx).Iter()
	var (
		owner  gocql.UUID
		active bool
		found  uuid.UUID
		ok     bool
	)
	for iter.Scan(&owner, &active) {
		if active && !ok {
			found, ok = uuid.UUID(owner), true
		}
	}
	if err := iter.Close(); err != nil {
		return uuid.Nil, false, fmt.Errorf("recherche SKU %s: %w", sku, err)
	}
	return found, ok, nil
}
