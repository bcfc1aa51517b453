// Package handlers provides HTTP handlers for the v1 API.
package handlers

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/apperror"
	appctx "github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/context"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain/filter"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/infrastructure/http/v1/dto"
)

const maxBodyBytes = 1 << 20

// BaseHandler provides common handler utilities.
type BaseHandler struct{}

// BindJSON binds and validates JSON request body.
func (h *BaseHandler) BindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return false
	}
	return true
}

// BindFields decodes the request body into entity fields, keeping numbers exact.
func (h *BaseHandler) BindFields(c *gin.Context) (entity.Fields, bool) {
	body, err := io.ReadAll(io.LimitReader(c.Request.Body, maxBodyBytes))
	if err != nil {
		h.Error(c, apperror.NewValidation("cannot read request body"))
		return nil, false
	}
	fields, err := entity.DecodeFields(body)
	if err != nil {
		h.Error(c, apperror.NewValidation("invalid request body").WithDetail("error", err.Error()))
		return nil, false
	}
	return fields, true
}

// Error registers err on the gin context and aborts the request.
// The JSON response is produced by middleware.ErrorHandler.
func (h *BaseHandler) Error(c *gin.Context, err error) {
	_ = c.Error(err)
	c.Abort()
}

// ParseIntQuery parses integer query parameter with default value.
func (h *BaseHandler) ParseIntQuery(c *gin.Context, key string, defaultVal int) int {
	val := c.Query(key)
	if val == "" {
		return defaultVal
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return defaultVal
	}
	return parsed
}

// ParseID reads a numeric path parameter.
func (h *BaseHandler) ParseID(c *gin.Context, key string) (int64, bool) {
	id, err := strconv.ParseInt(c.Param(key), 10, 64)
	if err != nil || id <= 0 {
		h.Error(c, apperror.NewFieldValidation(key, "must be a positive integer"))
		return 0, false
	}
	return id, true
}

// ParseListFilter reads limit, offset, orderBy, includeDeleted and an optional
// JSON array of filter items from the query string.
func (h *BaseHandler) ParseListFilter(c *gin.Context) (domain.ListFilter, bool) {
	lf := domain.ListFilter{
		Limit:          h.ParseIntQuery(c, "limit", 0),
		Offset:         h.ParseIntQuery(c, "offset", 0),
		OrderBy:        c.Query("orderBy"),
		IncludeDeleted: c.Query("includeDeleted") == "true",
	}
	if raw := c.Query("filter"); raw != "" {
		var items []filter.Item
		if err := json.Unmarshal([]byte(raw), &items); err != nil {
			h.Error(c, apperror.NewFieldValidation("filter", "must be a JSON array of {field, operator, value}"))
			return lf, false
		}
		lf.Filters = items
	}
	return lf, true
}

// Principal returns the authenticated caller and its numeric id.
func (h *BaseHandler) Principal(c *gin.Context) (*appctx.UserContext, int64, bool) {
	user := appctx.GetUser(c.Request.Context())
	id, ok := user.NumericID()
	if !ok {
		h.Error(c, apperror.NewUnauthorized("authentication required"))
		return nil, 0, false
	}
	return user, id, true
}

// Created sends 201 response with data.
func (h *BaseHandler) Created(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, data)
}

// OK sends 200 response with data.
func (h *BaseHandler) OK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, data)
}

// NoContent sends 204 response.
func (h *BaseHandler) NoContent(c *gin.Context) {
	c.Status(http.StatusNoContent)
}

// Success sends success response.
func (h *BaseHandler) Success(c *gin.Context, message string) {
	c.JSON(http.StatusOK, dto.SuccessResponse{Success: true, Message: message})
}
