package ginserver

import (
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"

	"storefront/internal/domain/shared/apperr"
)

// credential returns the bearer token the caller presented. The BFF forwards it upstream
// unverified; the storefront API is the authority.
func credential(c *gin.Context) string {
	return extractBearerToken(c.GetHeader("Authorization"))
}

func requireCredential(c *gin.Context) (string, bool) {
	token := credential(c)
	if token == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return "", false
	}
	return token, true
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// respondError writes the taxonomy-mapped status with the displayable message.
func respondError(c *gin.Context, logger *slog.Logger, op string, err error, attrs ...any) {
	status := apperr.HTTPStatus(err)
	if logger != nil {
		args := append([]any{"op", op, "status", status, "error", err}, attrs...)
		if status >= http.StatusInternalServerError {
			logger.Error("request failed", args...)
		} else {
			logger.Debug("request rejected", args...)
		}
	}
	c.JSON(status, gin.H{"error": apperr.Message(err)})
}
