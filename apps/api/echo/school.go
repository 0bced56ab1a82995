package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"sekolahku/core/school"
)

type schoolApi struct {
	svc *school.Service
}

func registerSchoolAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *school.Service) {
	api := schoolApi{svc: svc}

	sg := g.Group("/schools")

	// the directory is public
	sg.GET("", api.query)
	sg.GET("/nearby", api.nearby)
	sg.GET("/:id", api.retrieve)

	// mutations are authed; the policy layer decides who may touch what
	sg.POST("", api.create, jwt)
	sg.PUT("/:id", api.update, jwt)
	sg.DELETE("", api.destroyMultiple, jwt, superadminMiddleware())
	sg.DELETE("/:id", api.destroy, jwt, superadminMiddleware())
}

func (api *schoolApi) query(ctx echo.Context) error {
	filter := new(school.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []school.Summary{})
	}
	ordering := new(Ordering)
	ordering.Bind(ctx)

	schools, err := api.svc.List(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying schools")
	}
	if schools == nil {
		schools = []school.Summary{}
	}
	return ctx.JSON(http.StatusOK, schools)
}

func (api *schoolApi) nearby(ctx echo.Context) error {
	var query NearbyRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to NearbyRequest")
	}

	origin := school.Coordinates{Lat: query.Lat, Lng: query.Lng}
	ranked, err := api.svc.Nearby(ctx.Request().Context(), origin, query.Limit)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, ranked)
}

func (api *schoolApi) retrieve(ctx echo.Context) error {
	detail, err := api.svc.Get(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, detail)
}

func (api *schoolApi) create(ctx echo.Context) error {
	principal, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	var data school.NewSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewSchool")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sch, err := api.svc.Create(ctx.Request().Context(), principal, data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusCreated, sch)
}

func (api *schoolApi) update(ctx echo.Context) error {
	principal, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	var data school.UpdateSchool
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateSchool")
	}
	if err := data.Validate(); err != nil {
		return err
	}

	sch, err := api.svc.Update(ctx.Request().Context(), principal, ctx.Param("id"), data)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, sch)
}

func (api *schoolApi) destroy(ctx echo.Context) error {
	principal, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	if err := api.svc.Delete(ctx.Request().Context(), principal, ctx.Param("id")); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *schoolApi) destroyMultiple(ctx echo.Context) error {
	principal, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}

	var query DestroyMultipleRequest
	if err := ctx.Bind(&query); err != nil {
		return errors.Wrap(err, "binding to DestroyMultipleRequest")
	}
	if query.IDs == nil {
		return ctx.NoContent(http.StatusNoContent)
	}

	if err := api.svc.Delete(ctx.Request().Context(), principal, query.IDs...); err != nil {
		return err
	}
	return ctx.NoContent(http.StatusNoContent)
}

// NearbyRequest is the proximity query input. Lat and Lng are required;
// a zero or missing limit falls back to the service default.
type NearbyRequest struct {
	Lat   float64 `query:"lat"`
	Lng   float64 `query:"lng"`
	Limit int     `query:"limit"`
}
