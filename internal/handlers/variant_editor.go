package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"cedra_variant_editor/internal/models"
	"cedra_variant_editor/internal/service"
	"cedra_variant_editor/internal/variants"
)

const maxImageSize = 10 << 20

// EditorHandler expose l'éditeur de variantes du dashboard admin
type EditorHandler struct {
	editor *service.EditorService
	logger *zap.Logger
}

func NewEditorHandler(editor *service.EditorService, logger *zap.Logger) *EditorHandler {
	return &EditorHandler{editor: editor, logger: logger}
}

// 🟢 POST /products/:id/sessions
func (h *EditorHandler) OpenSession(c *gin.Context) {
	productID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "ID produit invalide"})
		return
	}

	var req service.OpenRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
			return
		}
	}

	session, err := h.editor.Open(c.Request.Context(), productID, req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, session)
}

// 🟢 GET /sessions/:sid
func (h *EditorHandler) GetSession(c *gin.Context) {
	session, err := h.editor.Get(c.Request.Context(), c.Param("sid"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// 🔴 DELETE /sessions/:sid
func (h *EditorHandler) CloseSession(c *gin.Context) {
	if err := h.editor.Close(c.Request.Context(), c.Param("sid")); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// 🟢 POST /sessions/:sid/dimensions
func (h *EditorHandler) AddDimension(c *gin.Context) {
	var req struct {
		Name    string `json:"name"`
		IsColor bool   `json:"isColor"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}

	session, dim, err := h.editor.AddDimension(c.Request.Context(), c.Param("sid"), req.Name, req.IsColor)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"dimension": dim, "session": session})
}

// 🔴 DELETE /sessions/:sid/dimensions/:dimId
func (h *EditorHandler) RemoveDimension(c *gin.Context) {
	session, err := h.editor.RemoveDimension(c.Request.Context(), c.Param("sid"), c.Param("dimId"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// 🟢 POST /sessions/:sid/dimensions/:dimId/options
func (h *EditorHandler) AddOption(c *gin.Context) {
	var req struct {
		Value     string `json:"value"`
		ColorCode string `json:"colorCode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}

	session, err := h.editor.AddOption(c.Request.Context(), c.Param("sid"), c.Param("dimId"), req.Value, req.ColorCode)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// 🔴 DELETE /sessions/:sid/dimensions/:dimId/options?value=
// La valeur passe en query : elle peut contenir des "/" (ex. "S/M").
func (h *EditorHandler) RemoveOption(c *gin.Context) {
	value, ok := c.GetQuery("value")
	if !ok || value == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Paramètre 'value' manquant"})
		return
	}

	session, err := h.editor.RemoveOption(c.Request.Context(), c.Param("sid"), c.Param("dimId"), value)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// 🟡 PATCH /sessions/:sid/combinations/:cid
func (h *EditorHandler) UpdateCombination(c *gin.Context) {
	var patch service.CombinationPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}

	session, err := h.editor.UpdateCombination(c.Request.Context(), c.Param("sid"), c.Param("cid"), patch)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// 🟢 POST /sessions/:sid/combinations/:cid/images (multipart, champ "file")
func (h *EditorHandler) AttachImage(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Champ 'file' manquant"})
		return
	}
	if fileHeader.Size > maxImageSize {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Image trop volumineuse (10 Mo max)"})
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Fichier illisible"})
		return
	}
	defer file.Close()

	session, preview, err := h.editor.AttachImage(c.Request.Context(), c.Param("sid"), c.Param("cid"), service.ImageUpload{
		Reader:      file,
		Size:        fileHeader.Size,
		Filename:    fileHeader.Filename,
		ContentType: fileHeader.Header.Get("Content-Type"),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"previewUrl": preview, "session": session})
}

// 🔄 POST /sessions/:sid/regenerate
func (h *EditorHandler) Regenerate(c *gin.Context) {
	var req service.RegenerateRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
			return
		}
	}

	session, err := h.editor.Regenerate(c.Request.Context(), c.Param("sid"), req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// 🔄 POST /sessions/:sid/regenerate-skus
func (h *EditorHandler) RegenerateSkus(c *gin.Context) {
	var req struct {
		SkuBase string `json:"skuBase"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
			return
		}
	}

	session, err := h.editor.RegenerateSkus(c.Request.Context(), c.Param("sid"), req.SkuBase)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// 🟢 GET /sessions/:sid/legacy
func (h *EditorHandler) ExportLegacy(c *gin.Context) {
	legacy, err := h.editor.Legacy(c.Request.Context(), c.Param("sid"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"variants": legacy})
}

// 🟢 POST /sessions/:sid/legacy
func (h *EditorHandler) ImportLegacy(c *gin.Context) {
	var req struct {
		Variants []models.LegacyVariant `json:"variants"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}

	session, err := h.editor.ImportLegacy(c.Request.Context(), c.Param("sid"), req.Variants)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, session)
}

// 📄 GET /sessions/:sid/export.csv
func (h *EditorHandler) ExportCSV(c *gin.Context) {
	sid := c.Param("sid")
	if _, err := h.editor.Get(c.Request.Context(), sid); err != nil {
		respondError(c, h.logger, err)
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", `attachment; filename="variants.csv"`)
	c.Status(http.StatusOK)
	if err := h.editor.ExportCSV(c.Request.Context(), sid, c.Writer); err != nil {
		h.logger.Error("❌ Export CSV interrompu", zap.String("session_id", sid), zap.Error(err))
	}
}

// 💾 POST /sessions/:sid/save
func (h *EditorHandler) Save(c *gin.Context) {
	result, err := h.editor.Save(c.Request.Context(), c.Param("sid"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

// 🔍 GET /sku/search?q=
func (h *EditorHandler) SearchSkus(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))

	hits, err := h.editor.SearchSkus(c.Request.Context(), c.Query("q"), limit)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"results": hits, "count": len(hits)})
}

// 🟢 POST /sku/derive
func DeriveSku(c *gin.Context) {
	var req struct {
		Base      string   `json:"base"`
		Parts     []string `json:"parts"`
		MaxLength int      `json:"maxLength"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Données invalides: " + err.Error()})
		return
	}

	parts := make([]variants.SkuPart, 0, len(req.Parts))
	for _, p := range req.Parts {
		parts = append(parts, variants.SkuPart{Value: p, Fallback: variants.UnknownFallback})
	}
	c.JSON(http.StatusOK, gin.H{"sku": variants.DeriveSku(req.Base, parts, req.MaxLength)})
}
