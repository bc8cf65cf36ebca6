package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/announcement"
)

const announcementLabel = "Announcement"

var announcementForm = formPayload{bools: []string{"isActive"}}

// announcementFields are the fields an admin may set; everything else is managed by the server.
var announcementFields = []string{"title", "content", "type", "isActive", "publishDate", "expiryDate"}

type announcementApi struct {
	svc   *announcement.Service
	files fileHandler
}

func registerAnnouncementAPI(g *echo.Group, svc *announcement.Service, files fileHandler, authn, upload echo.MiddlewareFunc) {
	api := announcementApi{svc: svc, files: files}

	g.GET("", api.query)
	g.GET("/:id", api.retrieve)

	g.POST("", api.create, authn, upload)
	g.PUT("/:id", api.update, authn, upload)
	g.DELETE("/:id", api.destroy, authn)
}

func (api *announcementApi) bind(ctx echo.Context) (core.Document, error) {
	raw, err := announcementForm.bind(ctx)
	if err != nil {
		return nil, err
	}
	data := make(core.Document, len(announcementFields))
	for _, field := range announcementFields {
		if v, ok := raw[field]; ok {
			data[field] = v
		}
	}
	if s, ok := data["isActive"].(string); ok {
		data["isActive"] = core.ParseBool(s)
	}
	return data, nil
}

// Handlers

func (api *announcementApi) query(ctx echo.Context) error {
	var pg Paging
	pg.Bind(ctx)

	res, err := api.svc.Active(ctx.Request().Context(), ctx.QueryParam("type"), pg.Page, pg.Limit)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"announcements": res.Data, "pagination": res.Pagination})
}

func (api *announcementApi) retrieve(ctx echo.Context) error {
	doc, err := api.svc.View(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundAs(err, announcementLabel)
	}
	return ctx.JSON(http.StatusOK, doc)
}

func (api *announcementApi) create(ctx echo.Context) error {
	data, err := api.bind(ctx)
	if err != nil {
		return err
	}
	data["publishedBy"] = contextUserID(ctx)

	stored, err := api.files.save(ctx, "file", core.FolderFiles)
	if err != nil {
		return err
	}
	if stored != nil {
		data["fileUrl"] = stored.URL
	}

	res, err := api.svc.Create(ctx.Request().Context(), data, contextUserEmail(ctx))
	if err != nil {
		if stored != nil {
			api.files.remove(ctx.Request().Context(), stored.URL)
		}
		return err
	}
	return ctx.JSON(http.StatusCreated, res.Data)
}

func (api *announcementApi) update(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	current, err := api.svc.Get(reqCtx, ctx.Param("id"))
	if err != nil {
		return notFoundAs(err, announcementLabel)
	}

	data, err := api.bind(ctx)
	if err != nil {
		return err
	}
	stored, err := api.files.save(ctx, "file", core.FolderFiles)
	if err != nil {
		return err
	}
	if stored != nil {
		data["fileUrl"] = stored.URL
	}

	res, err := api.svc.Update(reqCtx, ctx.Param("id"), data, contextUserEmail(ctx))
	if err != nil {
		if stored != nil {
			api.files.remove(reqCtx, stored.URL)
		}
		return notFoundAs(err, announcementLabel)
	}
	if oldURL, _ := current.Data["fileUrl"].(string); stored != nil {
		api.files.remove(reqCtx, oldURL)
	}
	return ctx.JSON(http.StatusOK, res.Data)
}

func (api *announcementApi) destroy(ctx echo.Context) error {
	res, err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundAs(err, announcementLabel)
	}
	url, _ := res.Data["fileUrl"].(string)
	api.files.remove(ctx.Request().Context(), url)
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Announcement deleted successfully"})
}
