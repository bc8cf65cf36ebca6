package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/branch"
)

const branchLabel = "Branch"

type branchApi struct {
	svc *branch.Service
}

func registerBranchAPI(g *echo.Group, svc *branch.Service, authn echo.MiddlewareFunc) {
	api := branchApi{svc: svc}

	g.GET("", api.query)
	g.GET("/search/:name", api.search)
	g.GET("/:id", api.retrieve)

	g.POST("", api.create, authn)
	g.PUT("/:id", api.update, authn)
	g.DELETE("/:id", api.destroy, authn)
}

// Handlers

func (api *branchApi) query(ctx echo.Context) error {
	docs, err := api.svc.All(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, docs)
}

func (api *branchApi) search(ctx echo.Context) error {
	doc, err := api.svc.FindByNameOrCode(ctx.Request().Context(), ctx.Param("name"))
	if err != nil {
		return notFoundAs(err, branchLabel)
	}
	return ctx.JSON(http.StatusOK, doc)
}

func (api *branchApi) retrieve(ctx echo.Context) error {
	res, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundAs(err, branchLabel)
	}
	return ctx.JSON(http.StatusOK, res.Data)
}

func (api *branchApi) create(ctx echo.Context) error {
	var data core.Document
	if err := decodeJSON(ctx, &data); err != nil {
		return err
	}
	res, err := api.svc.Create(ctx.Request().Context(), data, contextUserEmail(ctx))
	if err != nil {
		return duplicateAs(err, "Branch code already exists")
	}
	return ctx.JSON(http.StatusCreated, res.Data)
}

func (api *branchApi) update(ctx echo.Context) error {
	var data core.Document
	if err := decodeJSON(ctx, &data); err != nil {
		return err
	}
	res, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data, contextUserEmail(ctx))
	if err != nil {
		return duplicateAs(notFoundAs(err, branchLabel), "Branch code already exists")
	}
	return ctx.JSON(http.StatusOK, res.Data)
}

func (api *branchApi) destroy(ctx echo.Context) error {
	if _, err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id")); err != nil {
		return notFoundAs(err, branchLabel)
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Branch deleted successfully"})
}
