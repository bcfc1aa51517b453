package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/apperror"
	appctx "github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/context"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/core/entity"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/domain"
	"github.com/delatorremichaelcnmm/SOS-911-sub000/internal/infrastructure/http/v1/dto"
)

// EntityHandler exposes create, read, list, patch and soft delete for one coordinator.
type EntityHandler struct {
	BaseHandler
	coord *domain.Coordinator
	scope *ownerScope
}

// ownerScope limits principals outside staffKinds to records they own.
type ownerScope struct {
	createField string
	staffKinds  []string
}

// NewEntityHandler creates a handler over coord.
func NewEntityHandler(coord *domain.Coordinator) *EntityHandler {
	return &EntityHandler{coord: coord}
}

// Coordinator returns the wrapped coordinator.
func (h *EntityHandler) Coordinator() *domain.Coordinator { return h.coord }

// ScopeToOwner limits callers that are not of staffKinds to records whose owner
// column is their own id. On create, createField must name the caller and is
// filled in when absent.
func (h *EntityHandler) ScopeToOwner(createField string, staffKinds ...string) *EntityHandler {
	h.scope = &ownerScope{createField: createField, staffKinds: staffKinds}
	return h
}

// caller returns the id records must be owned by, with scoped false when the
// caller may touch any record.
func (h *EntityHandler) caller(c *gin.Context) (ownerID int64, scoped, ok bool) {
	if h.scope == nil {
		return 0, false, true
	}
	if user := appctx.GetUser(c.Request.Context()); user != nil {
		for _, k := range h.scope.staffKinds {
			if user.Kind == k {
				return 0, false, true
			}
		}
	}
	_, id, ok := h.Principal(c)
	return id, true, ok
}

func (h *EntityHandler) owns(rec entity.Record, ownerID int64) bool {
	owner, ok := entity.CoerceInt(rec.Fields[h.coord.Schema().OwnerField])
	return ok && owner == ownerID
}

func forbiddenNotOwner() error {
	return apperror.NewForbidden("record belongs to another cliente")
}

// RequireOwned aborts unless the caller may act on record id.
func (h *EntityHandler) RequireOwned(c *gin.Context, id int64) bool {
	ownerID, scoped, ok := h.caller(c)
	if !ok {
		return false
	}
	if !scoped {
		return true
	}
	rec, err := h.coord.Get(c.Request.Context(), id, domain.ReadOptions{})
	if err != nil {
		h.Error(c, err)
		return false
	}
	if !h.owns(rec, ownerID) {
		h.Error(c, forbiddenNotOwner())
		return false
	}
	return true
}

// claimsOther reports whether fields assign field to someone other than ownerID.
func claimsOther(fields entity.Fields, field string, ownerID int64) bool {
	v, present := fields[field]
	if !present {
		return false
	}
	n, ok := entity.CoerceInt(v)
	return !ok || n != ownerID
}

// List handles GET /{entity}
func (h *EntityHandler) List(c *gin.Context) {
	ownerID, scoped, ok := h.caller(c)
	if !ok {
		return
	}
	lf, ok := h.ParseListFilter(c)
	if !ok {
		return
	}
	var (
		res domain.ListResult
		err error
	)
	if scoped {
		res, err = h.coord.ListOwned(c.Request.Context(), ownerID, lf)
	} else {
		res, err = h.coord.List(c.Request.Context(), lf)
	}
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res))
}

// Get handles GET /{entity}/:id
func (h *EntityHandler) Get(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	rec, err := h.coord.Get(c.Request.Context(), id, domain.ReadOptions{
		IncludeDeleted: c.Query("includeDeleted") == "true",
	})
	if err != nil {
		h.Error(c, err)
		return
	}
	ownerID, scoped, ok := h.caller(c)
	if !ok {
		return
	}
	if scoped && !h.owns(rec, ownerID) {
		h.Error(c, forbiddenNotOwner())
		return
	}
	h.OK(c, rec)
}

// Create handles POST /{entity}
func (h *EntityHandler) Create(c *gin.Context) {
	ownerID, scoped, ok := h.caller(c)
	if !ok {
		return
	}
	fields, ok := h.BindFields(c)
	if !ok {
		return
	}
	if scoped && h.scope.createField != "" {
		if claimsOther(fields, h.scope.createField, ownerID) {
			h.Error(c, apperror.NewForbidden("cannot create records for another cliente"))
			return
		}
		fields[h.scope.createField] = ownerID
	}
	rec, err := h.coord.Create(c.Request.Context(), fields)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.Created(c, rec)
}

// Update handles PATCH /{entity}/:id
func (h *EntityHandler) Update(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	fields, ok := h.BindFields(c)
	if !ok {
		return
	}
	if !h.RequireOwned(c, id) {
		return
	}
	if ownerID, scoped, _ := h.caller(c); scoped && claimsOther(fields, h.coord.Schema().OwnerField, ownerID) {
		h.Error(c, apperror.NewForbidden("cannot hand a record to another cliente"))
		return
	}
	rec, err := h.coord.Update(c.Request.Context(), id, fields)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, rec)
}

// Delete handles DELETE /{entity}/:id
func (h *EntityHandler) Delete(c *gin.Context) {
	id, ok := h.ParseID(c, "id")
	if !ok {
		return
	}
	if !h.RequireOwned(c, id) {
		return
	}
	if err := h.coord.Delete(c.Request.Context(), id); err != nil {
		h.Error(c, err)
		return
	}
	h.NoContent(c)
}

// ListOwned handles GET /me/{entity}: records owned by the calling cliente.
func (h *EntityHandler) ListOwned(c *gin.Context) {
	_, id, ok := h.Principal(c)
	if !ok {
		return
	}
	lf, ok := h.ParseListFilter(c)
	if !ok {
		return
	}
	res, err := h.coord.ListOwned(c.Request.Context(), id, lf)
	if err != nil {
		h.Error(c, err)
		return
	}
	h.OK(c, dto.FromListResult(res))
}

// RegisterRoutes mounts the CRUD routes on g. Extra middleware guards the writes.
func (h *EntityHandler) RegisterRoutes(g *gin.RouterGroup, writeGuard ...gin.HandlerFunc) {
	g.GET("", h.List)
	g.GET("/:id", h.Get)
	g.POST("", chain(writeGuard, h.Create)...)
	g.PATCH("/:id", chain(writeGuard, h.Update)...)
	g.DELETE("/:id", chain(writeGuard, h.Delete)...)
}

func chain(guard []gin.HandlerFunc, h gin.HandlerFunc) []gin.HandlerFunc {
	out := make([]gin.HandlerFunc, 0, len(guard)+1)
	return append(append(out, guard...), h)
}
