package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/janovincze/lakepath/internal/api/models"
	"github.com/janovincze/lakepath/internal/catalog"
)

// CatalogHandler handles namespace and table endpoints.
type CatalogHandler struct {
	catalog *catalog.Catalog
}

// NewCatalogHandler creates a new CatalogHandler.
func NewCatalogHandler(cat *catalog.Catalog) *CatalogHandler {
	return &CatalogHandler{catalog: cat}
}

// respondCatalogError maps catalog errors onto problem responses.
func respondCatalogError(c *gin.Context, err error) {
	instance := c.Request.URL.Path

	var nsNotFound *catalog.NamespaceNotFoundError
	var tblNotFound *catalog.TableNotFoundError
	var nsExists *catalog.AlreadyExistsError
	var tblExists *catalog.TableAlreadyExistsError
	var notEmpty *catalog.NamespaceNotEmptyError

	switch {
	case errors.As(err, &nsNotFound), errors.As(err, &tblNotFound):
		models.RespondWithError(c, models.NewNotFoundError(instance, err.Error()))
	case errors.As(err, &nsExists), errors.As(err, &tblExists):
		models.RespondWithError(c, models.NewConflictError(instance, err.Error()))
	case errors.As(err, &notEmpty):
		models.RespondWithError(c, models.NewConflictError(instance, err.Error()))
	case errors.Is(err, catalog.ErrNotSupported):
		models.RespondWithError(c, models.NewNotSupportedError(instance, err.Error()))
	default:
		models.RespondWithError(c, models.NewInternalError(instance, err.Error()))
	}
}

// ListNamespaces lists child namespaces of the optional parent.
// GET /api/v1/namespaces?parent=a.b
func (h *CatalogHandler) ListNamespaces(c *gin.Context) {
	parent := catalog.ParseNamespace(c.Query("parent"))

	namespaces, err := h.catalog.ListNamespaces(c.Request.Context(), parent)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	items := make([]models.NamespaceResponse, 0, len(namespaces))
	for _, ns := range namespaces {
		items = append(items, models.NamespaceResponse{
			Namespace: ns.String(),
			Location:  ns.Path(),
		})
	}

	c.JSON(http.StatusOK, models.ListResponse[models.NamespaceResponse]{
		Items: items,
		Total: len(items),
	})
}

// CreateNamespace creates a namespace directory.
// POST /api/v1/namespaces
func (h *CatalogHandler) CreateNamespace(c *gin.Context) {
	var req models.CreateNamespaceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		models.RespondWithError(c, models.NewBadRequestError(c.Request.URL.Path, err.Error()))
		return
	}

	ns := catalog.ParseNamespace(req.Namespace)
	if err := h.catalog.CreateNamespace(c.Request.Context(), ns, req.Properties); err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.NamespaceResponse{
		Namespace: ns.String(),
		Location:  ns.Path(),
	})
}

// GetNamespace returns namespace properties.
// GET /api/v1/namespaces/:namespace
func (h *CatalogHandler) GetNamespace(c *gin.Context) {
	ns := catalog.ParseNamespace(c.Param("namespace"))

	props, err := h.catalog.LoadNamespaceMetadata(c.Request.Context(), ns)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusOK, models.NamespaceResponse{
		Namespace: ns.String(),
		Location:  props["location"],
	})
}

// DropNamespace removes an empty namespace.
// DELETE /api/v1/namespaces/:namespace
func (h *CatalogHandler) DropNamespace(c *gin.Context) {
	ns := catalog.ParseNamespace(c.Param("namespace"))

	dropped, err := h.catalog.DropNamespace(c.Request.Context(), ns)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	if !dropped {
		models.RespondWithError(c, models.NewNotFoundError(
			c.Request.URL.Path, "namespace does not exist: "+ns.String()))
		return
	}

	c.JSON(http.StatusOK, models.DropResponse{Dropped: true})
}

// ListTables lists the tables directly under a namespace.
// GET /api/v1/namespaces/:namespace/tables
func (h *CatalogHandler) ListTables(c *gin.Context) {
	ns := catalog.ParseNamespace(c.Param("namespace"))

	idents, err := h.catalog.ListTables(c.Request.Context(), ns)
	if err != nil {
		respondCatalogError(c, err)
		return
	}

	items := make([]models.TableResponse, 0, len(idents))
	for _, ident := range idents {
		items = append(items, models.TableResponse{
			Namespace: ident.Namespace.String(),
			Name:      ident.Name,
			Location:  h.catalog.DefaultLocation(ident),
		})
	}

	c.JSON(http.StatusOK, models.ListResponse[models.TableResponse]{
		Items: items,
		Total: len(items),
	})
}

// CreateTable stakes out a table directory under a namespace.
// POST /api/v1/namespaces/:namespace/tables
func (h *CatalogHandler) CreateTable(c *gin.Context) {
	var req models.CreateTableRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		models.RespondWithError(c, models.NewBadRequestError(c.Request.URL.Path, err.Error()))
		return
	}

	ident := catalog.TableIdentifier{
		Namespace: catalog.ParseNamespace(c.Param("namespace")),
		Name:      req.Name,
	}

	// A custom location is a client error, not a server one.
	if req.Location != "" && req.Location != h.catalog.DefaultLocation(ident) {
		models.RespondWithError(c, models.NewBadRequestError(
			c.Request.URL.Path,
			"cannot set a custom location for a path-based table"))
		return
	}

	builder := h.catalog.BuildTable(ident).WithLocation(req.Location)
	for k, v := range req.Properties {
		builder = builder.WithProperty(k, v)
	}

	if err := builder.Create(c.Request.Context()); err != nil {
		respondCatalogError(c, err)
		return
	}

	c.JSON(http.StatusCreated, models.TableResponse{
		Namespace: ident.Namespace.String(),
		Name:      ident.Name,
		Location:  h.catalog.DefaultLocation(ident),
	})
}

// GetTable reports a table's identifier-derived location.
// GET /api/v1/namespaces/:namespace/tables/:table
func (h *CatalogHandler) GetTable(c *gin.Context) {
	ident := catalog.TableIdentifier{
		Namespace: catalog.ParseNamespace(c.Param("namespace")),
		Name:      c.Param("table"),
	}

	exists, err := h.catalog.TableExists(c.Request.Context(), ident)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	if !exists {
		respondCatalogError(c, &catalog.TableNotFoundError{Table: ident})
		return
	}

	c.JSON(http.StatusOK, models.TableResponse{
		Namespace: ident.Namespace.String(),
		Name:      ident.Name,
		Location:  h.catalog.DefaultLocation(ident),
	})
}

// DropTable removes a table, optionally purging referenced files first.
// DELETE /api/v1/namespaces/:namespace/tables/:table?purge=true
func (h *CatalogHandler) DropTable(c *gin.Context) {
	ident := catalog.TableIdentifier{
		Namespace: catalog.ParseNamespace(c.Param("namespace")),
		Name:      c.Param("table"),
	}
	purge := c.Query("purge") == "true"

	dropped, err := h.catalog.DropTable(c.Request.Context(), ident, purge)
	if err != nil {
		respondCatalogError(c, err)
		return
	}
	if !dropped {
		respondCatalogError(c, &catalog.TableNotFoundError{Table: ident})
		return
	}

	c.JSON(http.StatusOK, models.DropResponse{Dropped: true})
}

// RenameTable always fails: renames would require a physical move.
// POST /api/v1/tables/rename
func (h *CatalogHandler) RenameTable(c *gin.Context) {
	var req struct {
		From string `json:"from" binding:"required"`
		To   string `json:"to" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		models.RespondWithError(c, models.NewBadRequestError(c.Request.URL.Path, err.Error()))
		return
	}

	models.RespondWithError(c, models.NewNotSupportedError(
		c.Request.URL.Path,
		"table rename is not supported: locations are derived from identifiers"))
}
