package http

import (
	"context"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/jhoicas/Catalogo-api/internal/application/catalog"
	"github.com/jhoicas/Catalogo-api/internal/infrastructure/pdf"
	"github.com/jhoicas/Catalogo-api/pkg/logger"
)

// TreeCache caché del árbol completo. La implementa redis.HierarchyCache.
type TreeCache interface {
	GetOrLoad(ctx context.Context, key string, dest any, loader func(ctx context.Context) (any, error)) error
	Invalidate(ctx context.Context) error
}

// HierarchyHandler expone el motor de recorrido de la jerarquía.
type HierarchyHandler struct {
	engine *catalog.HierarchyService
	sheets *pdf.CatalogSheetGenerator
	cache  TreeCache
	log    *logger.Logger
}

// NewHierarchyHandler construye el handler. cache puede ser nil.
func NewHierarchyHandler(engine *catalog.HierarchyService, sheets *pdf.CatalogSheetGenerator, cache TreeCache, log *logger.Logger) *HierarchyHandler {
	return &HierarchyHandler{engine: engine, sheets: sheets, cache: cache, log: log}
}

// treeOptions lee ?maxDepth. Sin valor se usa la profundidad por defecto del motor; negativo = sin límite.
func treeOptions(c *fiber.Ctx) ([]catalog.TreeOption, string, error) {
	raw := c.Query("maxDepth")
	if raw == "" {
		return nil, "default", nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return nil, "", err
	}
	return []catalog.TreeOption{catalog.WithMaxDepth(n)}, strconv.Itoa(n), nil
}

// GetFull godoc
// @Summary      Jerarquía completa
// @Description  Un árbol por cada serie activa, en orden de creación, con descendientes activos anidados.
// @Tags         hierarchy
// @Produce      json
// @Param        maxDepth  query  int  false  "Profundidad máxima (negativo = sin límite)"  default(5)
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Router       /api/hierarchy [get]
func (h *HierarchyHandler) GetFull(c *fiber.Ctx) error {
	opts, key, err := treeOptions(c)
	if err != nil {
		return badRequest(c, "INVALID_QUERY", "maxDepth debe ser un entero")
	}
	ctx := c.UserContext()
	load := func(ctx context.Context) (any, error) {
		return h.engine.GetFullHierarchyData(ctx, opts...)
	}

	var tree []map[string]any
	if h.cache != nil {
		err = h.cache.GetOrLoad(ctx, "full:depth:"+key, &tree, load)
	} else {
		tree, err = h.engine.GetFullHierarchyData(ctx, opts...)
	}
	if err != nil {
		return writeError(c, h.log, "hierarchy_full", "", err)
	}
	if tree == nil {
		tree = []map[string]any{}
	}
	return c.JSON(fiber.Map{"hierarchy": tree})
}

// GetChildren godoc
// @Summary      Hijos directos de un nodo
// @Tags         hierarchy
// @Produce      json
// @Param        parentType  path  string  true  "Nivel del padre"
// @Param        parentId    path  string  true  "ID del padre"
// @Success      200  {object}  catalog.ChildrenResult
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/hierarchy/children/{parentType}/{parentId} [get]
func (h *HierarchyHandler) GetChildren(c *fiber.Ctx) error {
	level := GetLevel(c)
	res, err := h.engine.GetChildrenByParentIdData(c.UserContext(), level, c.Params("parentId"))
	if err != nil {
		return writeError(c, h.log, "hierarchy_children", string(level), err)
	}
	return c.JSON(res)
}

// GetParents godoc
// @Summary      Cadena de ancestros
// @Description  Desde la raíz hasta el nodo pedido (incluido, al final).
// @Tags         hierarchy
// @Produce      json
// @Param        itemType  path  string  true  "Nivel"
// @Param        itemId    path  string  true  "ID"
// @Success      200  {object}  map[string]interface{}
// @Failure      400  {object}  dto.ErrorResponse
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/hierarchy/parents/{itemType}/{itemId} [get]
func (h *HierarchyHandler) GetParents(c *fiber.Ctx) error {
	level := GetLevel(c)
	chain, err := h.engine.GetParentHierarchyData(c.UserContext(), level, c.Params("itemId"))
	if err != nil {
		return writeError(c, h.log, "hierarchy_parents", string(level), err)
	}
	return c.JSON(fiber.Map{"hierarchy": chain})
}

// GetSubtree godoc
// @Summary      Subárbol de un nodo
// @Tags         hierarchy
// @Produce      json
// @Param        itemType  path   string  true   "Nivel"
// @Param        itemId    path   string  true   "ID"
// @Param        maxDepth  query  int     false  "Profundidad máxima"
// @Success      200  {object}  map[string]interface{}
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/hierarchy/{itemType}/{itemId} [get]
func (h *HierarchyHandler) GetSubtree(c *fiber.Ctx) error {
	level := GetLevel(c)
	opts, _, err := treeOptions(c)
	if err != nil {
		return badRequest(c, "INVALID_QUERY", "maxDepth debe ser un entero")
	}
	tree, err := h.engine.GetSubHierarchyData(c.UserContext(), level, c.Params("itemId"), opts...)
	if err != nil {
		return writeError(c, h.log, "hierarchy_subtree", string(level), err)
	}
	return c.JSON(tree)
}

// GetSubtreePDF godoc
// @Summary      Ficha PDF del subárbol
// @Tags         hierarchy
// @Produce      application/pdf
// @Param        itemType  path   string  true   "Nivel"
// @Param        itemId    path   string  true   "ID"
// @Param        lang      query  string  false  "Idioma de los nombres"  default(EN)
// @Success      200  {file}    binary
// @Failure      404  {object}  dto.ErrorResponse
// @Router       /api/hierarchy/{itemType}/{itemId}/pdf [get]
func (h *HierarchyHandler) GetSubtreePDF(c *fiber.Ctx) error {
	level := GetLevel(c)
	id := c.Params("itemId")
	ctx := c.UserContext()
	opts, _, err := treeOptions(c)
	if err != nil {
		return badRequest(c, "INVALID_QUERY", "maxDepth debe ser un entero")
	}
	tree, err := h.engine.GetSubHierarchyData(ctx, level, id, opts...)
	if err != nil {
		return writeError(c, h.log, "hierarchy_pdf", string(level), err)
	}
	out, err := h.sheets.GenerateTreePDF(ctx, pdf.SheetRequest{
		Level:    level,
		Tree:     tree,
		Language: c.Query("lang", "EN"),
		QRURL:    c.BaseURL() + "/api/hierarchy/" + string(level) + "/" + id,
	})
	if err != nil {
		return writeError(c, h.log, "hierarchy_pdf", string(level), err)
	}
	name, _ := tree["code"].(string)
	if name == "" {
		name = id
	}
	c.Set(fiber.HeaderContentType, "application/pdf")
	c.Set(fiber.HeaderContentDisposition, `attachment; filename="`+name+`.pdf"`)
	return c.Send(out)
}
