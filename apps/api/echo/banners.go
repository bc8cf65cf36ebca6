package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/crreddy/polysis/core"
	"github.com/crreddy/polysis/core/banner"
)

var bannerForm = formPayload{ints: []string{"displayOrder"}, bools: []string{"isActive"}}

// bannerFields are the fields an admin may set on banners and carousel images.
var bannerFields = []string{"title", "displayOrder", "isActive", "link", "description"}

type bannerApi struct {
	svc   *banner.Service
	files fileHandler
}

func registerBannerAPI(g *echo.Group, svc *banner.Service, files fileHandler, authn, upload echo.MiddlewareFunc) {
	api := bannerApi{svc: svc, files: files}

	g.GET("", api.queryActive)
	g.GET("/admin/all", api.queryAll, authn)

	g.POST("", api.create, authn, upload)
	g.PUT("/:id", api.update, authn, upload)
	g.DELETE("/:id", api.destroy, authn)
}

func bindBanner(ctx echo.Context) (core.Document, error) {
	raw, err := bannerForm.bind(ctx)
	if err != nil {
		return nil, err
	}
	data := make(core.Document, len(bannerFields))
	for _, field := range bannerFields {
		if v, ok := raw[field]; ok {
			data[field] = v
		}
	}
	if s, ok := data["isActive"].(string); ok {
		data["isActive"] = core.ParseBool(s)
	}
	if s, ok := data["displayOrder"].(string); ok {
		data["displayOrder"] = core.ParseInt(s, 0)
	}
	return data, nil
}

// Handlers

func (api *bannerApi) queryActive(ctx echo.Context) error {
	docs, err := api.svc.Active(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"banners": docs, "success": true})
}

func (api *bannerApi) queryAll(ctx echo.Context) error {
	docs, err := api.svc.All(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, echo.Map{"banners": docs, "success": true})
}

func (api *bannerApi) create(ctx echo.Context) error {
	data, err := bindBanner(ctx)
	if err != nil {
		return err
	}
	title, _ := data["title"].(string)
	hasFile := false
	if isMultipart(ctx) {
		if _, err := ctx.FormFile("file"); err == nil {
			hasFile = true
		}
	}
	if core.CleanString(title) == "" || !hasFile {
		return ctx.JSON(http.StatusBadRequest, echo.Map{
			"message": "Title and image are required",
			"fields":  echo.Map{"title": title, "hasFile": hasFile},
		})
	}

	stored, err := api.files.save(ctx, "file", core.FolderBanners)
	if err != nil {
		return err
	}
	data["imageUrl"] = stored.URL
	if _, ok := data["displayOrder"]; !ok {
		data["displayOrder"] = 0
	}
	data["isActive"] = true

	res, err := api.svc.Create(ctx.Request().Context(), data, contextUserEmail(ctx))
	if err != nil {
		api.files.remove(ctx.Request().Context(), stored.URL)
		return err
	}
	return ctx.JSON(http.StatusCreated, echo.Map{"message": "Banner created successfully", "banner": res.Data, "success": true})
}

func (api *bannerApi) update(ctx echo.Context) error {
	reqCtx := ctx.Request().Context()
	current, err := api.svc.Get(reqCtx, ctx.Param("id"))
	if err != nil {
		return notFoundAs(err, "Banner")
	}

	data, err := bindBanner(ctx)
	if err != nil {
		return err
	}
	stored, err := api.files.save(ctx, "file", core.FolderBanners)
	if err != nil {
		return err
	}
	if stored != nil {
		data["imageUrl"] = stored.URL
	}

	res, err := api.svc.Update(reqCtx, ctx.Param("id"), data, contextUserEmail(ctx))
	if err != nil {
		if stored != nil {
			api.files.remove(reqCtx, stored.URL)
		}
		return notFoundAs(err, "Banner")
	}
	if oldURL, _ := current.Data["imageUrl"].(string); stored != nil {
		api.files.remove(reqCtx, oldURL)
	}
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Banner updated successfully", "banner": res.Data, "success": true})
}

func (api *bannerApi) destroy(ctx echo.Context) error {
	res, err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundAs(err, "Banner")
	}
	url, _ := res.Data["imageUrl"].(string)
	api.files.remove(ctx.Request().Context(), url)
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Banner deleted successfully", "success": true})
}

// carouselApi serves the banners as a bare list of images.
type carouselApi struct {
	svc   *banner.Service
	files fileHandler
}

func registerCarouselAPI(g *echo.Group, svc *banner.Service, files fileHandler, authn, upload echo.MiddlewareFunc) {
	api := carouselApi{svc: svc, files: files}

	g.GET("", api.query)

	g.POST("", api.create, authn, upload)
	g.PUT("/:id", api.update, authn)
	g.DELETE("/:id", api.destroy, authn)
}

func (api *carouselApi) query(ctx echo.Context) error {
	docs, err := api.svc.Active(ctx.Request().Context())
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, docs)
}

func (api *carouselApi) create(ctx echo.Context) error {
	data, err := bindBanner(ctx)
	if err != nil {
		return err
	}
	stored, err := api.files.save(ctx, "image", core.FolderBanners)
	if err != nil {
		return err
	}
	if stored != nil {
		data["imageUrl"] = stored.URL
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

func (api *carouselApi) update(ctx echo.Context) error {
	data, err := bindBanner(ctx)
	if err != nil {
		return err
	}
	res, err := api.svc.Update(ctx.Request().Context(), ctx.Param("id"), data, contextUserEmail(ctx))
	if err != nil {
		return notFoundAs(err, "Image")
	}
	return ctx.JSON(http.StatusOK, res.Data)
}

func (api *carouselApi) destroy(ctx echo.Context) error {
	res, err := api.svc.Delete(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return notFoundAs(err, "Image")
	}
	url, _ := res.Data["imageUrl"].(string)
	api.files.remove(ctx.Request().Context(), url)
	return ctx.JSON(http.StatusOK, echo.Map{"message": "Image deleted successfully"})
}
