package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/entity"
	"github.com/crreddy/polysis/core/material"
	"github.com/crreddy/polysis/core/paper"
)

// downloadable serves a collection of uploaded files (materials, question papers):
// reading one counts a download, creating one requires a file, deleting one removes it.
type downloadable struct {
	svc         *entity.Service
	files       fileHandler
	label       string
	listKey     string
	fileMissing string
	form        formPayload
	search      func(ctx echo.Context, page, limit int) (*entity.ListResult, error)
	download    func(ctx echo.Context, id string) (core.Document, error)
}

func registerMaterialAPI(g *echo.Group, svc *material.Service, files fileHandler, authn, upload echo.MiddlewareFunc) {
	api := downloadable{
		svc:         svc.Service,
		files:       files,
		label:       "Material",
		listKey:     "materials",
		fileMissing: "File is required",
		form:        formPayload{ints: []string{"semester"}, lists: []string{"tags"}},
		search: func(ctx echo.Context, page, limit int) (*entity.ListResult, error) {
			return svc.Search(ctx.Request().Context(),
				ctx.QueryParam("branch"), core.ParseInt(ctx.QueryParam("semester"), 0), ctx.QueryParam("subject"),
				page, limit)
		},
		download: func(ctx echo.Context, id string) (core.Document, error) {
			return svc.Download(ctx.Request().Context(), id)
		},
	}
	api.register(g, authn, upload)
}

func registerPaperAPI(g *echo.Group, svc *paper.Service, files fileHandler, authn, upload echo.MiddlewareFunc) {
	api := downloadable{
		svc:         svc.Service,
		files:       files,
		label:       "Question paper",
		listKey:     "papers",
		fileMissing: "Question paper file is required",
		form:        formPayload{ints: []string{"semester"}},
		search: func(ctx echo.Context, page, limit int) (*entity.ListResult, error) {
			return svc.Search(ctx.Request().Context(), paper.SearchParams{
				Branch:       ctx.QueryParam("branch"),
				Semester:     core.ParseInt(ctx.QueryParam("semester"), 0),
				AcademicYear: ctx.QueryParam("academicYear"),
				Regulation:   ctx.QueryParam("regulation"),
				ExamType:     ctx.QueryParam("examType"),
				Page:         page,
				Limit:        limit,
			})
		},
		download: func(ctx echo.Context, id string) (core.Document, error) {
			return svc.Download(ctx.Request().Context(), id)
		},
	}
	api.register(g, authn, upload)
}

func (api *downloadable) register(g *echo.Group, authn, upload echo.MiddlewareFunc) {
	g.GET("", api.query)
	g.GET("/:id", api.retrieve)

	g.POST("", api.create, authn, upload)
	g.PUT("/:id", api.update, authn)
	g.DELETE("/:id", api.destroy, authn)
}

// Handlers

func (api *downloadable) query(ctx echo.Context) error {
	var pg Paging
	pg.Bind(ctx)

	res, err := api.search(ctx, pg.Page, pg.Limit)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{api.listKey: res.Data, "pagination": res.Pagination})
}

func (api *downloadable) retrieve(ctx echo.Context) error {
	doc, err := api.download(ctx, ctx.Param("id"))
	if err != nil {
		return notFoundAs(err, api.label)
	}
	return ctx.JSON(http.StatusOK, doc)
}

func (api *downloadable) create(ctx echo.Context) error {
	data, err := api.form.bind(ctx)
	if err != nil {
		return err
	}
	data["uploadedBy"] = contextUserID(ctx)

	stored, err := api.files.save(ctx, "file", core.FolderFiles)
	if err != nil {
		return err
	}
	if stored == nil {
		return newAPIError(http.StatusBadRequest, api.fileMissing)
	}
	data["fileUrl"] = stored.URL
	data["fileSize"] = stored.Size

	res, err := api.svc.Create(ctx.Request().Context(), data, contextUserEmail(ctx))
	if err != nil {
		api.files.remove(ctx.Request().Context(), stored.URL)
		return err
	}
	return ctx.JSON(http.StatusCreated, res.Data)
}

func (api *downloadable) update(ctx echo.Context) error {
	data, err := api.form.bind(ctx)
	if err != nil {
		return err
	}
	res, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data, contextUserEmail(ctx))
	if err != nil {
		return notFoundAs(err, api.label)
	}
	return ctx.JSON(http.StatusOK, res.Data)
}

func (api *downloadable) destroy(ctx echo.Context) error {
	res, err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundAs(err, api.label)
	}
	url, _ := res.Data["fileUrl"].(string)
	api.files.remove(ctx.Request().Context(), url)
	return ctx.JSON(http.StatusOK, echo.Map{"message": api.label + " deleted successfully"})
}
