package controllers

import (
	"github.com/MEE-POONG/mapoo-sub001/src/apperror"
	"github.com/MEE-POONG/mapoo-sub001/src/controllers/models"
	"github.com/MEE-POONG/mapoo-sub001/src/services/discount"

	"github.com/gofiber/fiber/v2"
)

const msgDiscountDeleted = "ลบโค้ดส่วนลดเรียบร้อยแล้ว"

type DiscountController struct {
	discountService discount.DiscountService
}

func NewDiscountController(discountService discount.DiscountService) *DiscountController {
	return &DiscountController{discountService: discountService}
}

func (c *DiscountController) Route(r Routers) {
	r.Public.Post("/discounts/validate", c.Validate)

	r.Admin.Get("/discounts", c.List)
	r.Admin.Post("/discounts", c.Create)
	r.Admin.Get("/discounts/:id", c.Get)
	r.Admin.Put("/discounts/:id", c.Update)
	r.Admin.Delete("/discounts/:id", c.Delete)
}

// Validate godoc
// @Summary      Validate a discount code
// @Description  Checks the code against the cart subtotal and, when a phone is given, the per-customer limit
// @Tags         discounts
// @Accept       json
// @Produce      json
// @Param        request  body  discount.Request  true  "Code, subtotal and phone"
// @Success      200  {object}  discount.Descriptor
// @Failure      400  {object}  middleware.ErrorResponse
// @Failure      404  {object}  middleware.ErrorResponse
// @Router       /api/discounts/validate [post]
func (c *DiscountController) Validate(ctx *fiber.Ctx) error {
	var req discount.Request
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation(apperror.MsgInvalidRequest)
	}
	descriptor, err := c.discountService.Evaluate(ctx.UserContext(), req)
	if err != nil {
		return err
	}
	return ctx.JSON(descriptor)
}

// List godoc
// @Summary      List discount codes
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}  discount.Discount
// @Router       /api/admin/discounts [get]
func (c *DiscountController) List(ctx *fiber.Ctx) error {
	discounts, err := c.discountService.List(ctx.UserContext())
	if err != nil {
		return err
	}
	if discounts == nil {
		discounts = []discount.Discount{}
	}
	return ctx.JSON(discounts)
}

// Create godoc
// @Summary      Create a discount code
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        discount  body  models.DiscountRequest  true  "Discount"
// @Success      201  {object}  discount.Discount
// @Failure      400  {object}  middleware.ErrorResponse
// @Failure      409  {object}  middleware.ErrorResponse
// @Router       /api/admin/discounts [post]
func (c *DiscountController) Create(ctx *fiber.Ctx) error {
	var req models.DiscountRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation(apperror.MsgInvalidRequest)
	}
	created, err := c.discountService.Create(ctx.UserContext(), req.ToDiscount())
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(created)
}

// Get godoc
// @Summary      Get a discount code
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Discount ID"
// @Success      200  {object}  discount.Discount
// @Failure      404  {object}  middleware.ErrorResponse
// @Router       /api/admin/discounts/{id} [get]
func (c *DiscountController) Get(ctx *fiber.Ctx) error {
	d, err := c.discountService.Get(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(d)
}

// Update godoc
// @Summary      Update a discount code
// @Description  Partial update; null clears optional limits and dates
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id     path  string          true  "Discount ID"
// @Param        patch  body  discount.Patch  true  "Fields to change"
// @Success      200  {object}  discount.Discount
// @Failure      400  {object}  middleware.ErrorResponse
// @Failure      404  {object}  middleware.ErrorResponse
// @Router       /api/admin/discounts/{id} [put]
func (c *DiscountController) Update(ctx *fiber.Ctx) error {
	var p discount.Patch
	if err := ctx.BodyParser(&p); err != nil {
		return apperror.Validation(apperror.MsgInvalidRequest)
	}
	d, err := c.discountService.Update(ctx.UserContext(), ctx.Params("id"), p)
	if err != nil {
		return err
	}
	return ctx.JSON(d)
}

// Delete godoc
// @Summary      Delete a discount code
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Discount ID"
// @Success      200  {object}  models.MessageResponse
// @Failure      404  {object}  middleware.ErrorResponse
// @Router       /api/admin/discounts/{id} [delete]
func (c *DiscountController) Delete(ctx *fiber.Ctx) error {
	if err := c.discountService.Delete(ctx.UserContext(), ctx.Params("id")); err != nil {
		return err
	}
	return ctx.JSON(models.MessageResponse{Message: msgDiscountDeleted})
}
