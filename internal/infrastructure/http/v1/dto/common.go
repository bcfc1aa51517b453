// Package dto provides Data Transfer Objects for API requests/responses.
package dto

import (
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
)

// ListResponse wraps list results with pagination.
type ListResponse struct {
	Items      []entity.Record `json:"items"`
	TotalCount int64           `json:"totalCount"`
	Limit      int             `json:"limit"`
	Offset     int             `json:"offset"`
}

// FromListResult maps a coordinator page.
func FromListResult(res domain.ListResult) ListResponse {
	items := res.Items
	if items == nil {
		items = []entity.Record{}
	}
	return ListResponse{
		Items:      items,
		TotalCount: res.TotalCount,
		Limit:      res.Limit,
		Offset:     res.Offset,
	}
}

// SuccessResponse for operations without a body of their own.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse is the body of every failed request.
type ErrorResponse struct {
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

// ResolveTokenRequest looks up a device by its push token.
type ResolveTokenRequest struct {
	Token string `json:"token" binding:"required"`
}

// TransitionRequest moves a notification to a new estado.
type TransitionRequest struct {
	Estado string `json:"estado" binding:"required"`
}
