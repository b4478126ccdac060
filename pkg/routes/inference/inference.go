package inference

import (
	"net/http"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Ramsey-B/tendril/pkg/inference"
	"github.com/Ramsey-B/tendril/pkg/models"
	"github.com/Ramsey-B/tendril/pkg/reqcontext"
	"github.com/labstack/echo/v4"
)

// Register registers inference routes
func Register(g *echo.Group) {
	g.POST("/run", Run)
}

// Run executes one inference run for the tenant and reports the upsert count
func Run(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := reqcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	ctx, reconciler, err := ectoinject.GetContext[*inference.Reconciler](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get reconciler")
	}

	upserted, err := reconciler.Run(ctx, tenantID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.InferenceRunResponse{Upserted: upserted})
}
