package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/entity"
)

var errIDsRequired = newAPIError(http.StatusBadRequest, "ids must be a non-empty array")

type entityApi struct {
	svc *entity.Service
}

// filterRequest is the body of /filter and /count. Page and limit may be numbers or strings.
type filterRequest struct {
	Filters map[string]interface{} `json:"filters"`
	Sort    string                 `json:"sort"`
	Page    interface{}            `json:"page"`
	Limit   interface{}            `json:"limit"`
}

// registerEntityAPI mounts the generic CRUD routes of one entity kind.
// Reads are public; writes need an admin token.
func registerEntityAPI(g *echo.Group, svc *entity.Service, authn, admin echo.MiddlewareFunc) {
	api := entityApi{svc: svc}

	g.GET("/list", api.list)
	g.POST("/filter", api.filter)
	g.POST("/count", api.count)
	g.GET("/:id", api.retrieve)

	g.POST("/create", api.create, authn, admin)
	g.PUT("/:id", api.update, authn, admin)
	g.DELETE("/:id", api.destroy, authn, admin)
	g.POST("/batch/delete", api.destroyMultiple, authn, admin)
}

// Handlers

func (api *entityApi) list(ctx echo.Context) error {
	var ord Ordering
	var pg Paging
	ord.Bind(ctx)
	pg.Bind(ctx)

	res, err := api.svc.List(ctx.Request().Context(), entity.NewListParams(ord.Sort, pg.Page, pg.Limit))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *entityApi) filter(ctx echo.Context) error {
	var data filterRequest
	if err := decodeJSON(ctx, &data); err != nil {
		return err
	}
	params := entity.NewListParams(data.Sort, intValue(data.Page, 0), intValue(data.Limit, 0))

	res, err := api.svc.Filter(ctx.Request().Context(), data.Filters, params)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *entityApi) count(ctx echo.Context) error {
	var data filterRequest
	if err := decodeJSON(ctx, &data); err != nil {
		return err
	}
	res, err := api.svc.Count(ctx.Request().Context(), data.Filters)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *entityApi) retrieve(ctx echo.Context) error {
	res, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *entityApi) create(ctx echo.Context) error {
	var data core.Document
	if err := decodeJSON(ctx, &data); err != nil {
		return err
	}
	res, err := api.svc.Create(ctx.Request().Context(), data, contextUserEmail(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, res)
}

func (api *entityApi) update(ctx echo.Context) error {
	var data core.Document
	if err := decodeJSON(ctx, &data); err != nil {
		return err
	}
	res, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data, contextUserEmail(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *entityApi) destroy(ctx echo.Context) error {
	res, err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}

func (api *entityApi) destroyMultiple(ctx echo.Context) error {
	var data struct {
		IDs interface{} `json:"ids"`
	}
	if err := decodeJSON(ctx, &data); err != nil {
		return err
	}
	items, ok := data.IDs.([]interface{})
	if !ok || len(items) == 0 {
		return errIDsRequired
	}
	ids := make([]string, 0, len(items))
	for _, item := range items {
		if id, ok := item.(string); ok {
			ids = append(ids, id)
		}
	}

	res, err := api.svc.DeleteBatch(ctx.Request().Context(), ids)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, res)
}
