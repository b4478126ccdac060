package relationshiptype

import (
	"net/http"
	"regexp"

	"github.com/Gobusters/ectoerror/httperror"
	"github.com/Gobusters/ectoinject"
	"github.com/Ramsey-B/tendril/pkg/catalog"
	"github.com/Ramsey-B/tendril/pkg/models"
	"github.com/Ramsey-B/tendril/pkg/reqcontext"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
)

var validate = validator.New()

var typeNameRE = regexp.MustCompile(`^[a-z][a-z0-9_]*$`)

// Register registers relationship type routes
func Register(g *echo.Group) {
	g.GET("", List)
	g.POST("", Create)
	g.GET("/:id", Get)
	g.PUT("/:id", Update)
	g.DELETE("/:id", Delete)
}

// List returns the tenant's relationship types ordered by name
func List(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := reqcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	fromKind := models.EntityKind(c.QueryParam("from_kind"))
	toKind := models.EntityKind(c.QueryParam("to_kind"))

	ctx, svc, err := ectoinject.GetContext[*catalog.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get catalog service")
	}

	items, err := svc.ListTypes(ctx, tenantID, fromKind, toKind)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.RelationshipTypeListResponse{Items: items})
}

// Create creates a new relationship type
func Create(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := reqcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	var req models.CreateRelationshipTypeRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	if err := validate.Struct(req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if !typeNameRE.MatchString(req.Name) {
		return httperror.NewHTTPError(http.StatusBadRequest, "name must be snake_case (lowercase letters, numbers, underscores), starting with a letter")
	}

	ctx, svc, err := ectoinject.GetContext[*catalog.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get catalog service")
	}

	result, err := svc.CreateType(ctx, tenantID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusCreated, models.RelationshipTypeResponse{RelationshipType: *result})
}

// Get returns a single relationship type by ID
func Get(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := reqcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	typeID := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*catalog.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get catalog service")
	}

	result, err := svc.GetType(ctx, tenantID, typeID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.RelationshipTypeResponse{RelationshipType: *result})
}

// Update updates a relationship type's labels and description
func Update(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := reqcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	typeID := c.Param("id")

	var req models.UpdateRelationshipTypeRequest
	if err := c.Bind(&req); err != nil {
		return httperror.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}

	ctx, svc, err := ectoinject.GetContext[*catalog.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get catalog service")
	}

	result, err := svc.UpdateType(ctx, tenantID, typeID, req)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, models.RelationshipTypeResponse{RelationshipType: *result})
}

// Delete deletes an unreferenced, non-system relationship type
func Delete(c echo.Context) error {
	ctx := c.Request().Context()

	tenantID := reqcontext.GetTenantID(ctx)
	if tenantID == "" {
		return httperror.NewHTTPError(http.StatusUnauthorized, "tenant_id is required")
	}

	typeID := c.Param("id")

	ctx, svc, err := ectoinject.GetContext[*catalog.Service](ctx)
	if err != nil {
		return httperror.NewHTTPError(http.StatusInternalServerError, "failed to get catalog service")
	}

	if err := svc.DeleteType(ctx, tenantID, typeID); err != nil {
		return err
	}

	return c.NoContent(http.StatusNoContent)
}
