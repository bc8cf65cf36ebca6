package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/student"
)

const studentLabel = "Student"

var studentForm = formPayload{jsonFields: []string{"personalInfo", "academicInfo", "attendance"}}

type studentApi struct {
	svc   *student.Service
	files fileHandler
}

func registerStudentAPI(g *echo.Group, svc *student.Service, files fileHandler, authn, upload echo.MiddlewareFunc) {
	api := studentApi{svc: svc, files: files}

	g.GET("/search", api.search)

	g.GET("", api.query, authn)
	g.POST("", api.create, authn, upload)
	g.GET("/:id", api.retrieve, authn)
	g.PUT("/:id", api.update, authn, upload)
	g.DELETE("/:id", api.destroy, authn)
}

// Handlers

func (api *studentApi) search(ctx echo.Context) error {
	pin := core.CleanString(ctx.QueryParam("pin"))
	if pin == "" {
		return newAPIError(http.StatusBadRequest, "PIN is required")
	}
	doc, err := api.svc.SearchByPIN(ctx.Request().Context(), pin, ctx.QueryParam("branch"), ctx.QueryParam("academicYear"))
	if err != nil {
		return notFoundAs(err, studentLabel)
	}
	return ctx.JSON(http.StatusOK, doc)
}

func (api *studentApi) query(ctx echo.Context) error {
	var pg Paging
	pg.Bind(ctx)

	res, err := api.svc.Search(ctx.Request().Context(), ctx.QueryParam("branch"), ctx.QueryParam("academicYear"), pg.Page, pg.Limit)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"students": res.Data, "pagination": res.Pagination})
}

func (api *studentApi) retrieve(ctx echo.Context) error {
	res, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundAs(err, studentLabel)
	}
	return ctx.JSON(http.StatusOK, res.Data)
}

func (api *studentApi) create(ctx echo.Context) error {
	data, err := studentForm.bind(ctx)
	if err != nil {
		return err
	}
	pic, err := api.files.save(ctx, "file", core.FolderProfile)
	if err != nil {
		return err
	}
	if pic != nil {
		setProfilePicture(data, nil, pic.URL)
	}

	res, err := api.svc.Create(ctx.Request().Context(), data, contextUserEmail(ctx))
	if err != nil {
		if pic != nil {
			api.files.remove(ctx.Request().Context(), pic.URL)
		}
		return duplicateAs(err, "PIN already exists")
	}
	return ctx.JSON(http.StatusCreated, res.Data)
}

func (api *studentApi) update(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	current, err := api.svc.Get(reqCtx, ctx.Param("id"))
	if err != nil {
		return notFoundAs(err, studentLabel)
	}

	data, err := studentForm.bind(ctx)
	if err != nil {
		return err
	}
	pic, err := api.files.save(ctx, "file", core.FolderProfile)
	if err != nil {
		return err
	}
	oldPicture := student.ProfilePictureURL(current.Data)
	if pic != nil {
		setProfilePicture(data, current.Data, pic.URL)
	}

	res, err := api.svc.Update(reqCtx, ctx.Param("id"), data, contextUserEmail(ctx))
	if err != nil {
		if pic != nil {
			api.files.remove(reqCtx, pic.URL)
		}
		return duplicateAs(notFoundAs(err, studentLabel), "PIN already exists")
	}
	if pic != nil && oldPicture != "" {
		api.files.remove(reqCtx, oldPicture)
	}
	return ctx.JSON(http.StatusOK, res.Data)
}

func (api *studentApi) destroy(ctx echo.Context) error {
	res, err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundAs(err, studentLabel)
	}
	api.files.remove(ctx.Request().Context(), student.ProfilePictureURL(res.Data))
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Student deleted successfully"})
}

// setProfilePicture sets personalInfo.profilePictureUrl on the payload. When the payload has no
// personalInfo, the one of current (if any) is used as the base.
func setProfilePicture(data, current core.Document, url string) {
	info := subDocument(data["personalInfo"])
	if info == nil {
		info = make(core.Document)
		for k, v := range subDocument(current["personalInfo"]) {
			info[k] = v
		}
	}
	info["profilePictureUrl"] = url
	data["personalInfo"] = info
}

func subDocument(v interface{}) core.Document {
	switch m := v.(type) {
	case core.Document:
		return m
	case map[string]interface{}:
		return core.Document(m)
	}
	return nil
}
