package echoapi

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"sekolahku/core/stats"
)

type statsApi struct {
	svc *stats.Service
}

func registerStatsAPI(g *echo.Group, jwt echo.MiddlewareFunc, svc *stats.Service) {
	api := statsApi{svc: svc}
	g.GET("/stats/dashboard", api.dashboard, jwt)
}

func (api *statsApi) dashboard(ctx echo.Context) error {
	principal, err := getContextPrincipal(ctx)
	if err != nil {
		return err
	}
	dash, err := api.svc.BuildDashboard(ctx.Request().Context(), principal)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, dash)
}
