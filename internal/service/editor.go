package service

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"cedra_variant_editor/internal/models"
	"cedra_variant_editor/internal/variants"
	apperrors "cedra_variant_editor/pkg/errors"
)

const (
	maxDimensionNameLength = 40
	maxOptionValueLength   = 60
	imagePreviewTTL        = 24 * time.Hour
)

// OpenRequest porte les valeurs du produit au moment de l'ouverture de l'éditeur.
// nil garde la valeur enregistrée avec la matrice.
type OpenRequest struct {
	ProductName       string   `json:"productName"`
	SkuBase           *string  `json:"skuBase"`
	BasePrice         *float64 `json:"basePrice"`
	BaseOriginalPrice *float64 `json:"baseOriginalPrice"`
}

// CombinationPatch liste les champs modifiables ; nil signifie inchangé
type CombinationPatch struct {
	SKU           *string   `json:"sku"`
	Price         *float64  `json:"price"`
	OriginalPrice *float64  `json:"originalPrice"`
	Stock         *int      `json:"stock"`
	Images        *[]string `json:"images"`
}

type RegenerateRequest struct {
	BasePrice         *float64 `json:"basePrice"`
	BaseOriginalPrice *float64 `json:"baseOriginalPrice"`
	SkuBase           *string  `json:"skuBase"`
}

type ImageUpload struct {
	Reader      io.Reader
	Size        int64
	Filename    string
	ContentType string
}

type SaveResult struct {
	ProductID   uuid.UUID `json:"productId"`
	Variants    int       `json:"variants"`
	Deactivated int       `json:"deactivated"`
	Indexed     bool      `json:"indexed"`
}

// EditorService applique les opérations de l'éditeur sur des sessions stockées.
// Une session n'accepte qu'une opération à la fois.
type EditorService struct {
	sessions SessionStore
	repo     VariantRepository
	index    SkuIndex
	images   ImageStore
	logger   *zap.Logger

	newID func() string
	now   func() time.Time
}

func NewEditorService(sessions SessionStore, repo VariantRepository, index SkuIndex, images ImageStore, logger *zap.Logger) *EditorService {
	return &EditorService{
		sessions: sessions,
		repo:     repo,
		index:    index,
		images:   images,
		logger:   logger,
		newID:    uuid.NewString,
		now:      time.Now,
	}
}

func (s *EditorService) matrixOptions() []variants.MatrixOption {
	return []variants.MatrixOption{variants.WithIDGenerator(s.newID)}
}

// Open démarre une session à partir de la matrice enregistrée du produit, ou d'une matrice vide
func (s *EditorService) Open(ctx context.Context, productID uuid.UUID, req OpenRequest) (*Session, error) {
	if productID == uuid.Nil {
		return nil, &apperrors.ErrValidation{Message: "ID produit invalide"}
	}
	if (req.BasePrice != nil && *req.BasePrice < 0) || (req.BaseOriginalPrice != nil && *req.BaseOriginalPrice < 0) {
		return nil, &apperrors.ErrValidation{Message: "les prix doivent être positifs"}
	}

	saved, err := s.repo.LoadMatrix(ctx, productID)
	if err != nil {
		return nil, err
	}

	var defaults variants.Defaults
	if saved != nil {
		defaults = saved.Defaults
	}
	if req.BasePrice != nil {
		defaults.BasePrice = *req.BasePrice
	}
	if req.BaseOriginalPrice != nil {
		defaults.BaseOriginalPrice = *req.BaseOriginalPrice
	}
	if req.SkuBase != nil {
		if base := variants.SanitizeSkuBase(*req.SkuBase); base != "" {
			defaults.SkuBase = base
		}
	}
	if defaults.SkuBase == "" {
		defaults.SkuBase = variants.SuggestSkuBase(req.ProductName)
	}

	var state variants.MatrixState
	if saved != nil {
		state = *saved
		state.Defaults = defaults
	} else {
		state = variants.NewMatrix(defaults, s.matrixOptions()...).State()
	}

	now := s.now()
	session := &Session{
		ID:        s.newID(),
		ProductID: productID,
		State:     state,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("enregistrement session: %w", err)
	}

	s.logger.Info("✏️ Session d'édition ouverte",
		zap.String("session_id", session.ID),
		zap.String("product_id", productID.String()),
		zap.Bool("from_saved", saved != nil),
		zap.Int("combinations", len(state.Combinations)),
	)
	return session, nil
}

func (s *EditorService) Get(ctx context.Context, sessionID string) (*Session, error) {
	return s.sessions.Load(ctx, sessionID)
}

func (s *EditorService) Close(ctx context.Context, sessionID string) error {
	if _, err := s.sessions.Load(ctx, sessionID); err != nil {
		return err
	}
	return s.sessions.Delete(ctx, sessionID)
}

// mutate charge la session, applique fn sur sa matrice et réenregistre le résultat
func (s *EditorService) mutate(ctx context.Context, sessionID string, fn func(m *variants.Matrix) error) (*Session, error) {
	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	m := variants.LoadMatrix(session.State, s.matrixOptions()...)
	if err := fn(m); err != nil {
		return nil, err
	}

	session.State = m.State()
	session.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("enregistrement session: %w", err)
	}
	return session, nil
}

func hasDimension(m *variants.Matrix, id string) bool {
	for _, d := range m.Dimensions() {
		if d.ID == id {
			return true
		}
	}
	return false
}

func (s *EditorService) AddDimension(ctx context.Context, sessionID, name string, isColor bool) (*Session, models.VariantDimension, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, models.VariantDimension{}, &apperrors.ErrValidation{
			Message: "nom de dimension requis",
			Fields:  map[string]string{"name": "required"},
		}
	}
	if utf8.RuneCountInString(name) > maxDimensionNameLength {
		return nil, models.VariantDimension{}, &apperrors.ErrValidation{
			Message: fmt.Sprintf("nom de dimension limité à %d caractères", maxDimensionNameLength),
			Fields:  map[string]string{"name": "too_long"},
		}
	}

	var dim models.VariantDimension
	session, err := s.mutate(ctx, sessionID, func(m *variants.Matrix) error {
		dim = m.AddDimension(name, isColor)
		return nil
	})
	if err != nil {
		return nil, models.VariantDimension{}, err
	}
	return session, dim, nil
}

func (s *EditorService) RemoveDimension(ctx context.Context, sessionID, dimensionID string) (*Session, error) {
	return s.mutate(ctx, sessionID, func(m *variants.Matrix) error {
		if !m.RemoveDimension(dimensionID) {
			return &apperrors.ErrNotFound{Resource: "dimension", ID: dimensionID}
		}
		return nil
	})
}

// AddOption ignore silencieusement une valeur vide ou déjà présente
func (s *EditorService) AddOption(ctx context.Context, sessionID, dimensionID, value, colorCode string) (*Session, error) {
	if utf8.RuneCountInString(strings.TrimSpace(value)) > maxOptionValueLength {
		return nil, &apperrors.ErrValidation{
			Message: fmt.Sprintf("valeur limitée à %d caractères", maxOptionValueLength),
			Fields:  map[string]string{"value": "too_long"},
		}
	}
	return s.mutate(ctx, sessionID, func(m *variants.Matrix) error {
		if !hasDimension(m, dimensionID) {
			return &apperrors.ErrNotFound{Resource: "dimension", ID: dimensionID}
		}
		m.AddOption(dimensionID, value, strings.TrimSpace(colorCode))
		return nil
	})
}

func (s *EditorService) RemoveOption(ctx context.Context, sessionID, dimensionID, value string) (*Session, error) {
	return s.mutate(ctx, sessionID, func(m *variants.Matrix) error {
		if !hasDimension(m, dimensionID) {
			return &apperrors.ErrNotFound{Resource: "dimension", ID: dimensionID}
		}
		if !m.RemoveOption(dimensionID, value) {
			return &apperrors.ErrNotFound{Resource: "option", ID: value}
		}
		return nil
	})
}

func (p CombinationPatch) updates() ([]variants.CombinationUpdate, error) {
	var updates []variants.CombinationUpdate
	fields := map[string]string{}

	if p.SKU != nil {
		sku := strings.ToUpper(strings.TrimSpace(*p.SKU))
		if utf8.RuneCountInString(sku) > variants.MaxSkuLength {
			fields["sku"] = "too_long"
		}
		updates = append(updates, variants.SetSku(sku))
	}
	if p.Price != nil {
		if *p.Price < 0 {
			fields["price"] = "negative"
		}
		updates = append(updates, variants.SetPrice(*p.Price))
	}
	if p.OriginalPrice != nil {
		if *p.OriginalPrice < 0 {
			fields["originalPrice"] = "negative"
		}
		updates = append(updates, variants.SetOriginalPrice(*p.OriginalPrice))
	}
	if p.Stock != nil {
		if *p.Stock < 0 {
			fields["stock"] = "negative"
		}
		updates = append(updates, variants.SetStock(*p.Stock))
	}
	if p.Images != nil {
		updates = append(updates, variants.SetImages(*p.Images))
	}

	if len(fields) > 0 {
		return nil, &apperrors.ErrValidation{Message: "champs invalides", Fields: fields}
	}
	if len(updates) == 0 {
		return nil, &apperrors.ErrValidation{Message: "aucune mise à jour fournie"}
	}
	return updates, nil
}

func (s *EditorService) UpdateCombination(ctx context.Context, sessionID, combinationID string, patch CombinationPatch) (*Session, error) {
	updates, err := patch.updates()
	if err != nil {
		return nil, err
	}
	return s.mutate(ctx, sessionID, func(m *variants.Matrix) error {
		if !m.UpdateCombination(combinationID, updates...) {
			return &apperrors.ErrNotFound{Resource: "combination", ID: combinationID}
		}
		return nil
	})
}

// Regenerate applique les nouvelles valeurs par défaut fournies puis recalcule
func (s *EditorService) Regenerate(ctx context.Context, sessionID string, req RegenerateRequest) (*Session, error) {
	if (req.BasePrice != nil && *req.BasePrice < 0) || (req.BaseOriginalPrice != nil && *req.BaseOriginalPrice < 0) {
		return nil, &apperrors.ErrValidation{Message: "les prix doivent être positifs"}
	}
	return s.mutate(ctx, sessionID, func(m *variants.Matrix) error {
		defaults := m.Defaults()
		if req.BasePrice != nil {
			defaults.BasePrice = *req.BasePrice
		}
		if req.BaseOriginalPrice != nil {
			defaults.BaseOriginalPrice = *req.BaseOriginalPrice
		}
		if req.SkuBase != nil {
			defaults.SkuBase = variants.SanitizeSkuBase(*req.SkuBase)
		}
		m.Regenerate(defaults)
		return nil
	})
}

// RegenerateSkus redérive tous les SKU ; une base vide garde la base courante
func (s *EditorService) RegenerateSkus(ctx context.Context, sessionID, skuBase string) (*Session, error) {
	return s.mutate(ctx, sessionID, func(m *variants.Matrix) error {
		base := variants.SanitizeSkuBase(skuBase)
		if base == "" {
			base = m.Defaults().SkuBase
		}
		m.RegenerateAllSkus(base)
		return nil
	})
}

func (s *EditorService) Legacy(ctx context.Context, sessionID string) ([]models.LegacyVariant, error) {
	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	return variants.CombinationsToLegacyVariants(session.State.Combinations, session.State.Dimensions), nil
}

// ImportLegacy remplace la matrice de la session par la conversion de l'ancien format
func (s *EditorService) ImportLegacy(ctx context.Context, sessionID string, legacy []models.LegacyVariant) (*Session, error) {
	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	state := variants.LegacyVariantsToShopifyFormat(legacy, s.matrixOptions()...)
	state.Defaults = session.State.Defaults
	assigned := variants.AssignMissingSkus(&state, state.Defaults.SkuBase)

	session.State = state
	session.UpdatedAt = s.now()
	if err := s.sessions.Save(ctx, session); err != nil {
		return nil, fmt.Errorf("enregistrement session: %w", err)
	}

	s.logger.Info("📥 Variantes importées depuis l'ancien format",
		zap.String("session_id", sessionID),
		zap.Int("legacy_variants", len(legacy)),
		zap.Int("combinations", len(state.Combinations)),
		zap.Int("skus_assigned", assigned),
	)
	return session, nil
}

func (s *EditorService) ExportCSV(ctx context.Context, sessionID string, w io.Writer) error {
	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return err
	}
	return variants.WriteCombinationsCSV(w, session.State.Dimensions, session.State.Combinations)
}

// AttachImage envoie l'image dans le stockage objet puis l'ajoute à la combinaison.
// Renvoie aussi une URL signée pour l'aperçu.
func (s *EditorService) AttachImage(ctx context.Context, sessionID, combinationID string, upload ImageUpload) (*Session, string, error) {
	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, "", err
	}
	found := false
	for _, c := range session.State.Combinations {
		if c.ID == combinationID {
			found = true
			break
		}
	}
	if !found {
		return nil, "", &apperrors.ErrNotFound{Resource: "combination", ID: combinationID}
	}

	objectName := fmt.Sprintf("variants/%s/%s/%d%s",
		session.ProductID, combinationID, s.now().UnixNano(), strings.ToLower(filepath.Ext(upload.Filename)))
	imageURL, err := s.images.Upload(ctx, objectName, upload.Reader, upload.Size, upload.ContentType)
	if err != nil {
		return nil, "", fmt.Errorf("upload image: %w", err)
	}

	session, err = s.mutate(ctx, sessionID, func(m *variants.Matrix) error {
		if !m.UpdateCombination(combinationID, variants.AddImage(imageURL)) {
			return &apperrors.ErrNotFound{Resource: "combination", ID: combinationID}
		}
		return nil
	})
	if err != nil {
		return nil, "", err
	}

	preview, err := s.images.SignedURL(ctx, imageURL, imagePreviewTTL)
	if err != nil {
		s.logger.Warn("⚠️ URL signée indisponible", zap.String("image", imageURL), zap.Error(err))
		preview = imageURL
	}
	return session, preview, nil
}

func (s *EditorService) checkSkus(ctx context.Context, productID uuid.UUID, combinations []models.VariantCombination) error {
	seen := make(map[string]bool, len(combinations))
	for _, c := range combinations {
		if c.SKU == "" {
			return &apperrors.ErrValidation{
				Message: "chaque combinaison doit avoir un SKU",
				Fields:  map[string]string{"combination": c.ID},
			}
		}
		if seen[c.SKU] {
			return &apperrors.ErrConflict{Message: fmt.Sprintf("SKU en double dans la matrice: %s", c.SKU)}
		}
		seen[c.SKU] = true

		owner, ok, err := s.repo.FindSkuOwner(ctx, c.SKU)
		if err != nil {
			return err
		}
		if ok && owner != productID {
			return &apperrors.ErrConflict{Message: fmt.Sprintf("SKU déjà utilisé par un autre produit: %s", c.SKU)}
		}
	}
	return nil
}

// Save persiste la matrice puis indexe les SKU. Un échec d'indexation n'annule pas l'enregistrement.
func (s *EditorService) Save(ctx context.Context, sessionID string) (*SaveResult, error) {
	session, err := s.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	if err := s.checkSkus(ctx, session.ProductID, session.State.Combinations); err != nil {
		return nil, err
	}

	deactivated, err := s.repo.SaveMatrix(ctx, session.ProductID, session.State)
	if err != nil {
		return nil, err
	}

	result := &SaveResult{
		ProductID:   session.ProductID,
		Variants:    len(session.State.Combinations),
		Deactivated: deactivated,
		Indexed:     true,
	}
	if err := s.index.IndexVariants(ctx, session.ProductID, session.State.Combinations); err != nil {
		s.logger.Warn("⚠️ Indexation des SKU échouée",
			zap.String("product_id", session.ProductID.String()),
			zap.Error(err),
		)
		result.Indexed = false
	}
	return result, nil
}

func (s *EditorService) SearchSkus(ctx context.Context, query string, limit int) ([]SkuHit, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, &apperrors.ErrValidation{Message: "paramètre q requis"}
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return s.index.Search(ctx, query, limit)
}
