package controllers

import (
	"github.com/MEE-POONG/mapoo-sub001/src/apperror"
	"github.com/MEE-POONG/mapoo-sub001/src/controllers/models"
	"github.com/MEE-POONG/mapoo-sub001/src/middleware"
	"github.com/MEE-POONG/mapoo-sub001/src/services/inventory"
	"github.com/MEE-POONG/mapoo-sub001/src/services/wholesale"

	"github.com/gofiber/fiber/v2"
)

const (
	msgProductDeleted = "ลบสินค้าเรียบร้อยแล้ว"
	msgRateDeleted    = "ลบราคาขายส่งเรียบร้อยแล้ว"
)

type InventoryController struct {
	inventoryService  inventory.InventoryService
	wholesaleService  wholesale.Service
	lowStockThreshold int
}

func NewInventoryController(inventoryService inventory.InventoryService, wholesaleService wholesale.Service, lowStockThreshold int) *InventoryController {
	return &InventoryController{
		inventoryService:  inventoryService,
		wholesaleService:  wholesaleService,
		lowStockThreshold: lowStockThreshold,
	}
}

func (c *InventoryController) Route(r Routers) {
	r.Public.Get("/products", c.ListProducts)
	r.Public.Get("/products/:id", c.GetProduct)
	r.Public.Get("/products/:id/wholesale-rates", c.ListWholesaleRates)
	r.Public.Post("/products/:id/wholesale-rates", r.Auth.RequireAuth(), middleware.RequireRole(middleware.RoleAdmin), c.AddWholesaleRate)

	r.Admin.Get("/products/low-stock", c.GetLowStockProducts)
	r.Admin.Post("/products", c.AddProduct)
	r.Admin.Put("/products/:id", c.UpdateProduct)
	r.Admin.Delete("/products/:id", c.DeleteProduct)
	r.Admin.Delete("/products/:id/wholesale-rates/:rateId", c.DeleteWholesaleRate)
}

// ListProducts godoc
// @Summary      List products
// @Description  Paginated catalogue with optional search, category and featured filters
// @Tags         products
// @Produce      json
// @Param        q         query  string  false  "Name search"
// @Param        category  query  string  false  "Category"
// @Param        featured  query  bool    false  "Only featured products"
// @Param        page      query  int     false  "Page"
// @Param        perPage   query  int     false  "Page size"
// @Success      200  {object}  models.ProductList
// @Failure      500  {object}  middleware.ErrorResponse
// @Router       /api/products [get]
func (c *InventoryController) ListProducts(ctx *fiber.Ctx) error {
	filter := inventory.ProductFilter{
		Query:    ctx.Query("q"),
		Category: ctx.Query("category"),
		Page:     ctx.QueryInt("page", 1),
		PerPage:  ctx.QueryInt("perPage", 20),
	}
	if raw := ctx.Query("featured"); raw != "" {
		featured := ctx.QueryBool("featured")
		filter.Featured = &featured
	}
	products, total, err := c.inventoryService.ListProducts(ctx.UserContext(), filter)
	if err != nil {
		return err
	}
	if products == nil {
		products = []inventory.Product{}
	}
	filter.Normalize()
	return ctx.JSON(models.ProductList{Data: products, Total: total, Page: filter.Page, PerPage: filter.PerPage})
}

// GetProduct godoc
// @Summary      Get product by ID
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  inventory.Product
// @Failure      404  {object}  middleware.ErrorResponse
// @Router       /api/products/{id} [get]
func (c *InventoryController) GetProduct(ctx *fiber.Ctx) error {
	product, err := c.inventoryService.GetProduct(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(product)
}

// GetLowStockProducts godoc
// @Summary      Get low stock products
// @Description  Products whose stock is at or below the threshold
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        threshold  query  int  false  "Stock threshold"
// @Success      200  {array}   inventory.Product
// @Failure      400  {object}  middleware.ErrorResponse
// @Router       /api/admin/products/low-stock [get]
func (c *InventoryController) GetLowStockProducts(ctx *fiber.Ctx) error {
	threshold := ctx.QueryInt("threshold", c.lowStockThreshold)
	if threshold < 0 {
		return apperror.Validation(apperror.MsgInvalidRequest)
	}
	products, err := c.inventoryService.GetLowStockProducts(ctx.UserContext(), threshold)
	if err != nil {
		return err
	}
	if products == nil {
		products = []inventory.Product{}
	}
	return ctx.JSON(products)
}

// AddProduct godoc
// @Summary      Create a product
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        product  body  models.ProductRequest  true  "Product"
// @Success      201  {object}  inventory.Product
// @Failure      400  {object}  middleware.ErrorResponse
// @Router       /api/admin/products [post]
func (c *InventoryController) AddProduct(ctx *fiber.Ctx) error {
	var req models.ProductRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation(apperror.MsgInvalidRequest)
	}
	product, err := c.inventoryService.AddProduct(ctx.UserContext(), req.ToProduct())
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(product)
}

// UpdateProduct godoc
// @Summary      Update a product
// @Description  Partial update; absent fields are kept and null clears optional text fields
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id     path  string                  true  "Product ID"
// @Param        patch  body  inventory.ProductPatch  true  "Fields to change"
// @Success      200  {object}  inventory.Product
// @Failure      400  {object}  middleware.ErrorResponse
// @Failure      404  {object}  middleware.ErrorResponse
// @Router       /api/admin/products/{id} [put]
func (c *InventoryController) UpdateProduct(ctx *fiber.Ctx) error {
	var patch inventory.ProductPatch
	if err := ctx.BodyParser(&patch); err != nil {
		return apperror.Validation(apperror.MsgInvalidRequest)
	}
	product, err := c.inventoryService.UpdateProduct(ctx.UserContext(), ctx.Params("id"), patch)
	if err != nil {
		return err
	}
	return ctx.JSON(product)
}

// DeleteProduct godoc
// @Summary      Delete a product
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Product ID"
// @Success      200  {object}  models.MessageResponse
// @Failure      404  {object}  middleware.ErrorResponse
// @Router       /api/admin/products/{id} [delete]
func (c *InventoryController) DeleteProduct(ctx *fiber.Ctx) error {
	if err := c.inventoryService.DeleteProduct(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(models.MessageResponse{Message: msgProductDeleted})
}

// ListWholesaleRates godoc
// @Summary      List wholesale price tiers of a product
// @Tags         products
// @Produce      json
// @Param        id   path      string  true  "Product ID"
// @Success      200  {array}   wholesale.Rate
// @Router       /api/products/{id}/wholesale-rates [get]
func (c *InventoryController) ListWholesaleRates(ctx *fiber.Ctx) error {
	rates, err := c.wholesaleService.ListRates(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	if rates == nil {
		rates = []wholesale.Rate{}
	}
	return ctx.JSON(rates)
}

// AddWholesaleRate godoc
// @Summary      Add a wholesale price tier
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id    path  string                       true  "Product ID"
// @Param        rate  body  models.WholesaleRateRequest  true  "Tier"
// @Success      201  {object}  wholesale.Rate
// @Failure      400  {object}  middleware.ErrorResponse
// @Failure      404  {object}  middleware.ErrorResponse
// @Router       /api/products/{id}/wholesale-rates [post]
func (c *InventoryController) AddWholesaleRate(ctx *fiber.Ctx) error {
	var req models.WholesaleRateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation(apperror.MsgInvalidRequest)
	}
	productID := ctx.Params("id")
	if _, err := c.inventoryService.GetProduct(ctx.UserContext(), productID); err != nil {
		return err
	}
	rate, err := c.wholesaleService.AddRate(ctx.UserContext(), req.ToRate(productID))
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(rate)
}

// DeleteWholesaleRate godoc
// @Summary      Delete a wholesale price tier
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id      path  string  true  "Product ID"
// @Param        rateId  path  string  true  "Rate ID"
// @Success      200  {object}  models.MessageResponse
// @Failure      404  {object}  middleware.ErrorResponse
// @Router       /api/admin/products/{id}/wholesale-rates/{rateId} [delete]
func (c *InventoryController) DeleteWholesaleRate(ctx *fiber.Ctx) error {
	if err := c.wholesaleService.DeleteRate(ctx.UserContext(), ctx.Params("id"), ctx.Params("rateId")); err != nil {
		return err
	}
	return ctx.JSON(models.MessageResponse{Message: msgRateDeleted})
}
