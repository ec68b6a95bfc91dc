package service

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"cedra_variant_editor/internal/models"
	"cedra_variant_editor/internal/variants"
	apperrors "cedra_variant_editor/pkg/errors"
)

type testEditor struct {
	*EditorService
	sessions *memSessions
	repo     *memRepo
	index    *memIndex
	images   *memImages
}

func newTestEditor(t *testing.T) *testEditor {
	t.Helper()
	te := &testEditor{
		sessions: newMemSessions(),
		repo:     newMemRepo(),
		index:    newMemIndex(),
		images:   newMemImages(),
	}
	te.EditorService = NewEditorService(te.sessions, te.repo, te.index, te.images, zap.NewNop())

	n := 0
	te.newID = func() string {
		n++
		return fmt.Sprintf("id-%d", n)
	}
	clock := time.Date(2025, 3, 1, 10, 0, 0, 0, time.UTC)
	te.now = func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	}
	return te
}

// openTshirt ouvre une session Color(Red, Blue) x Size(S, M) sur la base TSHIRT
func (te *testEditor) openTshirt(t *testing.T, productID uuid.UUID) *Session {
	t.Helper()
	ctx := context.Background()

	session, err := te.Open(ctx, productID, OpenRequest{SkuBase: ptr("tshirt"), BasePrice: ptr(19.9), BaseOriginalPrice: ptr(25.0)})
	require.NoError(t, err)

	_, color, err := te.AddDimension(ctx, session.ID, "Color", true)
	require.NoError(t, err)
	_, size, err := te.AddDimension(ctx, session.ID, "Size", false)
	require.NoError(t, err)

	for _, v := range []struct{ value, code string }{{"Red", "#ff0000"}, {"Blue", "#0000ff"}} {
		_, err = te.AddOption(ctx, session.ID, color.ID, v.value, v.code)
		require.NoError(t, err)
	}
	for _, v := range []string{"S", "M"} {
		session, err = te.AddOption(ctx, session.ID, size.ID, v, "")
		require.NoError(t, err)
	}
	return session
}

func ptr[T any](v T) *T { return &v }

func sessionSkus(s *Session) []string {
	out := make([]string, len(s.State.Combinations))
	for i, c := range s.State.Combinations {
		out[i] = c.SKU
	}
	return out
}

func TestOpenEmptySession(t *testing.T) {
	te := newTestEditor(t)
	productID := uuid.New()

	session, err := te.Open(context.Background(), productID, OpenRequest{ProductName: "Tee-shirt Été", BasePrice: ptr(10.0)})
	require.NoError(t, err)

	assert.Equal(t, productID, session.ProductID)
	assert.Equal(t, "TEE-SHIRT-ETE", session.State.Defaults.SkuBase)
	assert.Equal(t, 10.0, session.State.Defaults.BasePrice)
	assert.Empty(t, session.State.Dimensions)
	assert.Empty(t, session.State.Combinations)

	stored, err := te.Get(context.Background(), session.ID)
	require.NoError(t, err)
	assert.Equal(t, session.ID, stored.ID)
}

func TestOpenValidation(t *testing.T) {
	te := newTestEditor(t)
	ctx := context.Background()

	tests := []struct {
		name      string
		productID uuid.UUID
		req       OpenRequest
	}{
		{"nil product", uuid.Nil, OpenRequest{}},
		{"negative price", uuid.New(), OpenRequest{BasePrice: ptr(-1.0)}},
		{"negative original price", uuid.New(), OpenRequest{BaseOriginalPrice: ptr(-0.5)}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := te.Open(ctx, tt.productID, tt.req)
			var validation *apperrors.ErrValidation
			assert.ErrorAs(t, err, &validation)
		})
	}
}

func TestOpenLoadsSavedMatrix(t *testing.T) {
	te := newTestEditor(t)
	productID := uuid.New()
	first := te.openTshirt(t, productID)
	te.repo.states[productID] = first.State

	session, err := te.Open(context.Background(), productID, OpenRequest{SkuBase: ptr("new"), BasePrice: ptr(30.0)})
	require.NoError(t, err)

	assert.NotEqual(t, first.ID, session.ID)
	assert.Equal(t, "NEW", session.State.Defaults.SkuBase)
	assert.Equal(t, 30.0, session.State.Defaults.BasePrice)
	assert.Equal(t, sessionSkus(first), sessionSkus(session))
}

func TestOpenWithoutDefaultsKeepsSavedOnes(t *testing.T) {
	te := newTestEditor(t)
	ctx := context.Background()
	productID := uuid.New()
	first := te.openTshirt(t, productID)
	te.repo.states[productID] = first.State

	session, err := te.Open(ctx, productID, OpenRequest{})
	require.NoError(t, err)
	assert.Equal(t, variants.Defaults{BasePrice: 19.9, BaseOriginalPrice: 25, SkuBase: "TSHIRT"}, session.State.Defaults)

	updated, err := te.AddOption(ctx, session.ID, session.State.Dimensions[1].ID, "L", "")
	require.NoError(t, err)
	require.Len(t, updated.State.Combinations, 6)
	added := updated.State.Combinations[2]
	assert.Equal(t, "TSHIRT-RED-L", added.SKU)
	assert.Equal(t, 19.9, added.Price)
	assert.Equal(t, 25.0, added.OriginalPrice)
}

func TestOpenOverridesOnlyGivenDefaults(t *testing.T) {
	te := newTestEditor(t)
	productID := uuid.New()
	first := te.openTshirt(t, productID)
	te.repo.states[productID] = first.State

	session, err := te.Open(context.Background(), productID, OpenRequest{BasePrice: ptr(30.0), SkuBase: ptr("  ")})
	require.NoError(t, err)
	assert.Equal(t, variants.Defaults{BasePrice: 30, BaseOriginalPrice: 25, SkuBase: "TSHIRT"}, session.State.Defaults)
}

func TestEditorBuildsMatrix(t *testing.T) {
	te := newTestEditor(t)
	session := te.openTshirt(t, uuid.New())

	assert.Equal(t, []string{"TSHIRT-RED-S", "TSHIRT-RED-M", "TSHIRT-BLUE-S", "TSHIRT-BLUE-M"}, sessionSkus(session))
	for _, c := range session.State.Combinations {
		assert.Equal(t, 19.9, c.Price)
		assert.Equal(t, 25.0, c.OriginalPrice)
	}
}

func TestUnknownSession(t *testing.T) {
	te := newTestEditor(t)
	ctx := context.Background()

	_, _, err := te.AddDimension(ctx, "missing", "Color", true)
	var notFound *apperrors.ErrNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "session", notFound.Resource)

	_, err = te.Get(ctx, "missing")
	assert.ErrorAs(t, err, &notFound)
	assert.ErrorAs(t, te.Close(ctx, "missing"), &notFound)
}

func TestAddDimensionValidation(t *testing.T) {
	te := newTestEditor(t)
	ctx := context.Background()
	session, err := te.Open(ctx, uuid.New(), OpenRequest{SkuBase: ptr("X")})
	require.NoError(t, err)

	for _, name := range []string{"", "   ", strings.Repeat("a", 41)} {
		_, _, err := te.AddDimension(ctx, session.ID, name, false)
		var validation *apperrors.ErrValidation
		assert.ErrorAs(t, err, &validation, "name %q", name)
	}

	_, dim, err := te.AddDimension(ctx, session.ID, "  Material ", false)
	require.NoError(t, err)
	assert.Equal(t, "Material", dim.Name)
}

func TestAddOption(t *testing.T) {
	te := newTestEditor(t)
	ctx := context.Background()
	session := te.openTshirt(t, uuid.New())
	colorID := session.State.Dimensions[0].ID

	_, err := te.AddOption(ctx, session.ID, "unknown", "Green", "")
	var notFound *apperrors.ErrNotFound
	assert.ErrorAs(t, err, &notFound)

	_, err = te.AddOption(ctx, session.ID, colorID, strings.Repeat("x", 61), "")
	var validation *apperrors.ErrValidation
	assert.ErrorAs(t, err, &validation)

	same, err := te.AddOption(ctx, session.ID, colorID, "Red", "")
	require.NoError(t, err)
	assert.Equal(t, sessionSkus(session), sessionSkus(same))

	empty, err := te.AddOption(ctx, session.ID, colorID, "  ", "")
	require.NoError(t, err)
	assert.Len(t, empty.State.Combinations, 4)

	more, err := te.AddOption(ctx, session.ID, colorID, "Green", "#00ff00")
	require.NoError(t, err)
	assert.Len(t, more.State.Combinations, 6)
	assert.Equal(t, session.State.Combinations[0].ID, more.State.Combinations[0].ID)
}

func TestRemoveOptionAndDimension(t *testing.T) {
	te := newTestEditor(t)
	ctx := context.Background()
	session := te.openTshirt(t, uuid.New())
	colorID := session.State.Dimensions[0].ID
	sizeID := session.State.Dimensions[1].ID

	_, err := te.RemoveOption(ctx, session.ID, colorID, "Green")
	var notFound *apperrors.ErrNotFound
	require.ErrorAs(t, err, &notFound)
	assert.Equal(t, "option", notFound.Resource)

	updated, err := te.RemoveOption(ctx, session.ID, colorID, "Blue")
	require.NoError(t, err)
	assert.Equal(t, []string{"TSHIRT-RED-S", "TSHIRT-RED-M"}, sessionSkus(updated))

	_, err = te.RemoveDimension(ctx, session.ID, "unknown")
	assert.ErrorAs(t, err, &notFound)

	updated, err = te.RemoveDimension(ctx, session.ID, sizeID)
	require.NoError(t, err)
	require.Len(t, updated.State.Combinations, 1)
	assert.Equal(t, "TSHIRT-RED", updated.State.Combinations[0].SKU)
}

func TestUpdateCombination(t *testing.T) {
	te := newTestEditor(t)
	ctx := context.Background()
	session := te.openTshirt(t, uuid.New())
	cid := session.State.Combinations[1].ID

	sku := "  ts-red-m-custom "
	price := 22.5
	stock := 7
	images := []string{"/uploads/a.jpg"}
	updated, err := te.UpdateCombination(ctx, session.ID, cid, CombinationPatch{
		SKU: &sku, Price: &price, Stock: &stock, Images: &images,
	})
	require.NoError(t, err)

	c := updated.State.Combinations[1]
	assert.Equal(t, "TS-RED-M-CUSTOM", c.SKU)
	assert.Equal(t, 22.5, c.Price)
	assert.Equal(t, 25.0, c.OriginalPrice)
	assert.Equal(t, 7, c.Stock)
	assert.Equal(t, images, c.Images)
}

func TestUpdateCombinationErrors(t *testing.T) {
	te := newTestEditor(t)
	ctx := context.Background()
	session := te.openTshirt(t, uuid.New())
	cid := session.State.Combinations[0].ID

	negative := -1
	negativePrice := -3.0
	long := strings.Repeat("A", variants.MaxSkuLength+1)

	tests := []struct {
		name  string
		patch CombinationPatch
		field string
	}{
		{"empty patch", CombinationPatch{}, ""},
		{"negative stock", CombinationPatch{Stock: &negative}, "stock"},
		{"negative price", CombinationPatch{Price: &negativePrice}, "price"},
		{"negative original price", CombinationPatch{OriginalPrice: &negativePrice}, "originalPrice"},
		{"sku too long", CombinationPatch{SKU: &long}, "sku"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := te.UpdateCombination(ctx, session.ID, cid, tt.patch)
			var validation *apperrors.ErrValidation
			require.ErrorAs(t, err, &validation)
			if tt.field != "" {
				assert.Contains(t, validation.Fields, tt.field)
			}
		})
	}

	stock := 1
	_, err := te.UpdateCombination(ctx, session.ID, "unknown", CombinationPatch{Stock: &stock})
	var notFound *apperrors.ErrNotFound
	assert.ErrorAs(t, err, &notFound)
}

func TestRegenerateKeepsEdits(t *testing.T) {
	te := newTestEditor(t)
	ctx := context.Background()
	session := te.openTshirt(t, uuid.New())
	cid := session.State.Combinations[0].ID
	stock := 12
	_, err := te.UpdateCombination(ctx, session.ID, cid, CombinationPatch{Stock: &stock})
	require.NoError(t, err)

	price := 40.0
	updated, err := te.Regenerate(ctx, session.ID, RegenerateRequest{BasePrice: &price})
	require.NoError(t, err)
	assert.Equal(t, 40.0, updated.State.Defaults.BasePrice)
	assert.Equal(t, 12, updated.State.Combinations[0].Stock)
	assert.Equal(t, 19.9, updated.State.Combinations[0].Price)

	sizeID := updated.State.Dimensions[1].ID
	updated, err = te.AddOption(ctx, session.ID, sizeID, "L", "")
	require.NoError(t, err)
	require.Len(t, updated.State.Combinations, 6)
	assert.Equal(t, 40.0, updated.State.Combinations[2].Price)
	assert.Equal(t, "TSHIRT-RED-L", updated.State.Combinations[2].SKU)

	negative := -1.0
	_, err = te.Regenerate(ctx, session.ID, RegenerateRequest{BaseOriginalPrice: &negative})
	var validation *apperrors.ErrValidation
	assert.ErrorAs(t, err, &validation)
}

func TestRegenerateSkus(t *testing.T) {
	te := newTestEditor(t)
	ctx := context.Background()
	session := te.openTshirt(t, uuid.New())

	updated, err := te.RegenerateSkus(ctx, session.ID, "polo 2025")
	require.NoError(t, err)
	assert.Equal(t, "POLO-2025", updated.State.Defaults.SkuBase)
	assert.Equal(t, "POLO-2025-RED-S", updated.State.Combinations[0].SKU)

	updated, err = te.RegenerateSkus(ctx, session.ID, "")
	require.NoError(t, err)
	assert.Equal(t, "POLO-2025-BLUE-M", updated.State.Combinations[3].SKU)
}

func TestLegacyImportExport(t *testing.T) {
	te := newTestEditor(t)
	ctx := context.Background()
	session, err := te.Open(ctx, uuid.New(), OpenRequest{SkuBase: ptr("tee")})
	require.NoError(t, err)

	legacy := []models.LegacyVariant{
		{
			ColorName: "Red",
			ColorCode: "#ff0000",
			Sizes: []models.LegacySize{
				{Size: "S", Stock: 3, SKU: "TEE-RED-S", Price: 20, OriginalPrice: 25},
				{Size: "M", Stock: 1, Price: 20, OriginalPrice: 25},
			},
		},
	}
	imported, err := te.ImportLegacy(ctx, session.ID, legacy)
	require.NoError(t, err)
	assert.Equal(t, "TEE", imported.State.Defaults.SkuBase)
	assert.Equal(t, []string{"TEE-RED-S", "TEE-RED-M"}, sessionSkus(imported))

	exported, err := te.Legacy(ctx, session.ID)
	require.NoError(t, err)
	require.Len(t, exported, 1)
	assert.Equal(t, "Red", exported[0].ColorName)
	assert.Equal(t, "#ff0000", exported[0].ColorCode)
	require.Len(t, exported[0].Sizes, 2)
	assert.Equal(t, models.LegacySize{Size: "M", Stock: 1, SKU: "TEE-RED-M", Price: 20, OriginalPrice: 25}, exported[0].Sizes[1])
}

func TestExportCSV(t *testing.T) {
	te := newTestEditor(t)
	session := te.openTshirt(t, uuid.New())

	var buf bytes.Buffer
	require.NoError(t, te.ExportCSV(context.Background(), session.ID, &buf))
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 5)
	assert.Equal(t, "sku,Color,Size,price,originalPrice,stock,images", lines[0])
	assert.Equal(t, "TSHIRT-RED-S,Red,S,19.90,25.00,0,", lines[1])
}

func TestAttachImage(t *testing.T) {
	te := newTestEditor(t)
	ctx := context.Background()
	productID := uuid.New()
	session := te.openTshirt(t, productID)
	cid := session.State.Combinations[0].ID

	updated, preview, err := te.AttachImage(ctx, session.ID, cid, ImageUpload{
		Reader:      strings.NewReader("png-bytes"),
		Size:        9,
		Filename:    "Front.PNG",
		ContentType: "image/png",
	})
	require.NoError(t, err)

	require.Len(t, te.images.objects, 1)
	var objectName string
	for name := range te.images.objects {
		objectName = name
	}
	assert.True(t, strings.HasPrefix(objectName, fmt.Sprintf("variants/%s/%s/", productID, cid)))
	assert.True(t, strings.HasSuffix(objectName, ".png"))

	assert.Equal(t, []string{"/uploads/" + objectName}, updated.State.Combinations[0].Images)
	assert.Equal(t, "https://minio.test/uploads/"+objectName+"?signed=1", preview)

	te.images.signErr = errBoom
	_, preview, err = te.AttachImage(ctx, session.ID, cid, ImageUpload{Reader: strings.NewReader("x"), Size: 1, Filename: "b.jpg"})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(preview, "/uploads/variants/"))
}

func TestAttachImageUnknownCombination(t *testing.T) {
	te := newTestEditor(t)
	session := te.openTshirt(t, uuid.New())

	_, _, err := te.AttachImage(context.Background(), session.ID, "unknown", ImageUpload{Reader: strings.NewReader("x"), Filename: "a.jpg"})
	var notFound *apperrors.ErrNotFound
	assert.ErrorAs(t, err, &notFound)
	assert.Empty(t, te.images.objects)
}

func TestSave(t *testing.T) {
	te := newTestEditor(t)
	ctx := context.Background()
	productID := uuid.New()
	session := te.openTshirt(t, productID)

	result, err := te.Save(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, &SaveResult{ProductID: productID, Variants: 4, Deactivated: 0, Indexed: true}, result)
	assert.Len(t, te.index.indexed[productID], 4)
	assert.Len(t, te.repo.states[productID].Combinations, 4)

	_, err = te.RemoveOption(ctx, session.ID, session.State.Dimensions[0].ID, "Blue")
	require.NoError(t, err)
	result, err = te.Save(ctx, session.ID)
	require.NoError(t, err)
	assert.Equal(t, 2, result.Variants)
	assert.Equal(t, 2, result.Deactivated)
}

func TestSaveRejectsDuplicateSkus(t *testing.T) {
	te := newTestEditor(t)
	ctx := context.Background()
	session := te.openTshirt(t, uuid.New())

	sku := "TSHIRT-RED-S"
	_, err := te.UpdateCombination(ctx, session.ID, session.State.Combinations[1].ID, CombinationPatch{SKU: &sku})
	require.NoError(t, err)

	_, err = te.Save(ctx, session.ID)
	var conflict *apperrors.ErrConflict
	assert.ErrorAs(t, err, &conflict)
	assert.Empty(t, te.repo.states)
}

func TestSaveRejectsEmptySku(t *testing.T) {
	te := newTestEditor(t)
	ctx := context.Background()
	session := te.openTshirt(t, uuid.New())

	empty := ""
	_, err := te.UpdateCombination(ctx, session.ID, session.State.Combinations[0].ID, CombinationPatch{SKU: &empty})
	require.NoError(t, err)

	_, err = te.Save(ctx, session.ID)
	var validation *apperrors.ErrValidation
	assert.ErrorAs(t, err, &validation)
}

func TestSaveRejectsSkuOfAnotherProduct(t *testing.T) {
	te := newTestEditor(t)
	session := te.openTshirt(t, uuid.New())
	te.repo.owners["TSHIRT-BLUE-M"] = uuid.New()

	_, err := te.Save(context.Background(), session.ID)
	var conflict *apperrors.ErrConflict
	require.ErrorAs(t, err, &conflict)
	assert.Contains(t, conflict.Error(), "TSHIRT-BLUE-M")
}

func TestSaveSurvivesIndexFailure(t *testing.T) {
	te := newTestEditor(t)
	productID := uuid.New()
	session := te.openTshirt(t, productID)
	te.index.err = errBoom

	result, err := te.Save(context.Background(), session.ID)
	require.NoError(t, err)
	assert.False(t, result.Indexed)
	assert.Len(t, te.repo.states[productID].Combinations, 4)
}

func TestSaveRepositoryFailure(t *testing.T) {
	te := newTestEditor(t)
	session := te.openTshirt(t, uuid.New())
	te.repo.saveErr = errBoom

	_, err := te.Save(context.Background(), session.ID)
	assert.ErrorIs(t, err, errBoom)
	assert.Empty(t, te.index.indexed)
}

func TestSearchSkus(t *testing.T) {
	te := newTestEditor(t)
	ctx := context.Background()

	_, err := te.SearchSkus(ctx, "  ", 10)
	var validation *apperrors.ErrValidation
	assert.ErrorAs(t, err, &validation)

	for i := 0; i < 120; i++ {
		te.index.hits = append(te.index.hits, SkuHit{SKU: fmt.Sprintf("TSHIRT-%d", i)})
	}

	hits, err := te.SearchSkus(ctx, " tshirt ", 0)
	require.NoError(t, err)
	assert.Len(t, hits, 20)
	assert.Equal(t, "tshirt", te.index.queries[0])

	hits, err = te.SearchSkus(ctx, "tshirt", 500)
	require.NoError(t, err)
	assert.Len(t, hits, 100)
}

func TestCloseSession(t *testing.T) {
	te := newTestEditor(t)
	ctx := context.Background()
	session, err := te.Open(ctx, uuid.New(), OpenRequest{SkuBase: ptr("X")})
	require.NoError(t, err)

	require.NoError(t, te.Close(ctx, session.ID))
	_, err = te.Get(ctx, session.ID)
	var notFound *apperrors.ErrNotFound
	assert.ErrorAs(t, err, &notFound)
}
