package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/ajharbinger/dealscope/internal/auth"
	apperrors "github.com/ajharbinger/dealscope/internal/errors"
	"github.com/ajharbinger/dealscope/internal/models"
	"github.com/ajharbinger/dealscope/internal/repository"
)

// respondError writes the JSON error envelope for err. Validation failures
// carry their per-field messages.
func respondError(c *gin.Context, err error) {
	status := apperrors.HTTPStatus(err)
	if status >= http.StatusInternalServerError {
		_ = c.Error(err)
	}

	body := gin.H{"error": apperrors.PublicMessage(err)}
	if fields := apperrors.FieldsOf(err); len(fields) > 0 {
		body["fields"] = fields
	}
	c.AbortWithStatusJSON(status, body)
}

// currentUser returns the authenticated caller or writes a 401
func currentUser(c *gin.Context) (*models.User, bool) {
	user, ok := auth.CurrentUser(c)
	if !ok {
		respondError(c, apperrors.Unauthenticated("User not authenticated", nil))
		return nil, false
	}
	return user, true
}

// pathID parses a uuid path parameter or writes a 400
func pathID(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		respondError(c, apperrors.InvalidInput("Invalid "+name, err))
		return uuid.Nil, false
	}
	return id, true
}

// bindJSON decodes the request body or writes a 400
func bindJSON(c *gin.Context, dst interface{}) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		respondError(c, apperrors.InvalidInput("Invalid request format", err).WithDetails(err.Error()))
		return false
	}
	return true
}

// listFilters reads limit, offset and active from the query string
func listFilters(c *gin.Context) repository.ListFilters {
	limit, _ := strconv.Atoi(c.Query("limit"))
	offset, _ := strconv.Atoi(c.Query("offset"))
	return repository.ListFilters{
		ActiveOnly: c.Query("active") == "true",
		Limit:      limit,
		Offset:     offset,
	}.Normalize()
}
