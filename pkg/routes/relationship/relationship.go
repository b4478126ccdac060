package relationship

import (
	"net/http"
	"strconv"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Ramsey-B/tendril/pkg/graph"
	"github.com/Ramsey-B/tendril/pkg/models"
	"github.com/Ramsey-B/tendril/pkg/reqcontext"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

// Register registers relationship routes
func Register(g *echo.Group) {
	g.GET("", List)
	g.POST("", Create)
	g.DELETE("/:id", Delete)
}

// List returns edges joined with type labels, narrowed by query filters
func List(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := reqcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	filter := models.RelationshipFilter{
		EntityID: c.QueryParam("entity_id"),
		TypeID:   c.QueryParam("type_id"),
		Source:   models.RelationshipSource(c.QueryParam("source")),
	}

	if raw := c.QueryParam("min_strength"); raw != "" {
		minStrength, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return httperror.NewHTTPError(http.StatusBadRequest, "min_strength must be a number")
		}
		filter.MinStrength = &minStrength
	}

	ctx, svc, err := ectoinject.GetContext[*graph.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get graph service")
	}

	items, err := svc.List(ctx, tenantID, filter)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.RelationshipListResponse{Items: items})
}

// Create manually asserts an edge
func Create(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := reqcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	var req models.CreateManualRelationshipRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	ctx, svc, err := ectoinject.GetContext[*graph.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get graph service")
	}

	result, err := svc.CreateManual(ctx, tenantID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, models.RelationshipResponse{Relationship: *result})
}

// Delete removes a manually asserted edge (and its mirror, for symmetric types)
func Delete(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := reqcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	edgeID := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*graph.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get graph service")
	}

	if err := svc.DeleteManual(ctx, tenantID, edgeID); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
