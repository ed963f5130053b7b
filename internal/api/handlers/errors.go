package handlers

import (
	"errors"
	"net/http"
	"strings"

	"farm-market/internal/api/models"
	"farm-market/internal/model"

	"github.com/gin-gonic/gin"
)

func respondError(c *gin.Context, status int, code, message string, details map[string]interface{}) {
	c.JSON(status, models.ErrorResponse{
		Error: models.ErrorDetail{
			Code:    code,
			Message: message,
			Details: details,
		},
	})
}

// respondInputError maps request decoding and engine input errors to a 400.
// Malformed crop values get INVALID_VALUE with the offending crop and field.
func respondInputError(c *gin.Context, err error) {
	var ive *model.InvalidValueError
	if errors.As(err, &ive) {
		details := map[string]interface{}{"field": ive.Field}
		if ive.Crop != "" {
			details["crop"] = ive.Crop
		}
		if ive.Index >= 0 {
			details["index"] = ive.Index
		}
		respondError(c, http.StatusBadRequest, "INVALID_VALUE", ive.Error(), details)
		return
	}
	respondError(c, http.StatusBadRequest, "INVALID_REQUEST", err.Error(), nil)
}

// splitList splits a comma-separated query value, dropping blanks.
func splitList(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
