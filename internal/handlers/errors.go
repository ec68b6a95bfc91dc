package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	apperrors "cedra_variant_editor/pkg/errors"
)

// respondError traduit les erreurs typées en statut HTTP
func respondError(c *gin.Context, logger *zap.Logger, err error) {
	var validation *apperrors.ErrValidation
	var notFound *apperrors.ErrNotFound
	var conflict *apperrors.ErrConflict

	switch {
	case errors.As(err, &validation):
		body := gin.H{"error": validation.Error()}
		if len(validation.Fields) > 0 {
			body["fields"] = validation.Fields
		}
		c.JSON(http.StatusBadRequest, body)
	case errors.As(err, &notFound):
		c.JSON(http.StatusNotFound, gin.H{"error": notFound.Error()})
	case errors.As(err, &conflict):
		c.JSON(http.StatusConflict, gin.H{"error": conflict.Error()})
	default:
		logger.Error("❌ Erreur éditeur de variantes",
			zap.String("method", c.Request.Method),
			zap.String("path", c.FullPath()),
			zap.Error(err),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Erreur interne"})
	}
}
