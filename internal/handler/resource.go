package handler

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// store is the CRUD surface every entity repository offers.
type store[T any] interface {
	Create(ctx context.Context, v *T) error
	GetByID(ctx context.Context, id uint64) (*T, error)
	List(ctx context.Context) ([]*T, error)
	Update(ctx context.Context, v *T) error
	Delete(ctx context.Context, id uint64) error
}

// input is a request body with pointer fields.  apply copies the present
// fields onto dst; with full set every required field must be present
// (create and PUT), otherwise absent fields are left alone (PATCH).
type input[T any] interface {
	apply(dst *T, full bool) fieldErrors
}

// resource serves list/create/retrieve/update/delete for one entity.
type resource[T any, I input[T]] struct {
	name     string
	store    store[T]
	blank    func() *T
	newInput func() I
	create   func(ctx context.Context, v *T) error
	list     echo.HandlerFunc // optional replacement for the plain list
	log      *zap.Logger
}

func (r *resource[T, I]) List(c echo.Context) error {
	ctx, cancel := withTimeout(c)
	defer cancel()
	items, err := r.store.List(ctx)
	if err != nil {
		return storeError(c, r.log, err, r.name)
	}
	return c.JSON(http.StatusOK, items)
}

func (r *resource[T, I]) Get(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	v, err := r.store.GetByID(ctx, id)
	if err != nil {
		return storeError(c, r.log, err, r.name)
	}
	return c.JSON(http.StatusOK, v)
}

func (r *resource[T, I]) Create(c echo.Context) error {
	in := r.newInput()
	if err := c.Bind(in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	v := r.blank()
	if errs := in.apply(v, true); len(errs) > 0 {
		return validationFailed(c, errs)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	create := r.create
	if create == nil {
		create = r.store.Create
	}
	if err := create(ctx, v); err != nil {
		return storeError(c, r.log, err, r.name)
	}
	return c.JSON(http.StatusCreated, v)
}

// Update serves both PUT (full) and PATCH (partial).
func (r *resource[T, I]) Update(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	in := r.newInput()
	if err := c.Bind(in); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request body"})
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	v, err := r.store.GetByID(ctx, id)
	if err != nil {
		return storeError(c, r.log, err, r.name)
	}
	if errs := in.apply(v, c.Request().Method == http.MethodPut); len(errs) > 0 {
		return validationFailed(c, errs)
	}
	if err := r.store.Update(ctx, v); err != nil {
		return storeError(c, r.log, err, r.name)
	}
	// re-read so store-managed columns (timestamps, protected fields) are current
	fresh, err := r.store.GetByID(ctx, id)
	if err != nil {
		return storeError(c, r.log, err, r.name)
	}
	return c.JSON(http.StatusOK, fresh)
}

func (r *resource[T, I]) Delete(c echo.Context) error {
	id, ok := parseID(c)
	if !ok {
		return invalidID(c)
	}
	ctx, cancel := withTimeout(c)
	defer cancel()
	if err := r.store.Delete(ctx, id); err != nil {
		return storeError(c, r.log, err, r.name)
	}
	return c.NoContent(http.StatusNoContent)
}

func (r *resource[T, I]) listHandler() echo.HandlerFunc {
	if r.list != nil {
		return r.list
	}
	return r.List
}

// Register mounts the five verbs under prefix.
func (r *resource[T, I]) Register(g *echo.Group, prefix string, mw ...echo.MiddlewareFunc) {
	r.RegisterAppendOnly(g, prefix, mw...)
	g.PUT(prefix+"/:id", r.Update, mw...)
	g.PATCH(prefix+"/:id", r.Update, mw...)
	g.DELETE(prefix+"/:id", r.Delete, mw...)
}

// RegisterAppendOnly mounts list, create and retrieve only.  Other verbs on
// the same paths get 405 from the router.
func (r *resource[T, I]) RegisterAppendOnly(g *echo.Group, prefix string, mw ...echo.MiddlewareFunc) {
	g.GET(prefix, r.listHandler(), mw...)
	g.POST(prefix, r.Create, mw...)
	g.GET(prefix+"/:id", r.Get, mw...)
}
