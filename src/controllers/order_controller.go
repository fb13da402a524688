package controllers

import (
	"strings"

	"github.com/MEE-POONG/mapoo-sub001/src/apperror"
	"github.com/MEE-POONG/mapoo-sub001/src/controllers/models"
	"github.com/MEE-POONG/mapoo-sub001/src/middleware"
	"github.com/MEE-POONG/mapoo-sub001/src/services/order/domain"

	"github.com/gofiber/fiber/v2"
)

const msgCancelled = "ยกเลิกคำสั่งซื้อเรียบร้อยแล้ว"

type OrderController struct {
	domain.OrderService
}

func NewOrderController(orderService domain.OrderService) *OrderController {
	return &OrderController{
		OrderService: orderService,
	}
}

func (c *OrderController) Route(r Routers) {
	r.Public.Post("/orders", r.Auth.OptionalAuth(), c.Checkout)
	r.Public.Get("/orders/track", c.TrackOrder)

	r.Customer.Get("/orders", c.ListMyOrders)
	r.Customer.Patch("/orders/:id/cancel", c.CancelMyOrder)

	r.Admin.Get("/orders", c.ListOrders)
	r.Admin.Post("/orders/replay-failed-events", c.ReplayFailedEvents)
	r.Admin.Get("/orders/:id", c.GetOrder)
	r.Admin.Patch("/orders/:id", c.UpdateStatus)
}

// Checkout godoc
// @Summary      Place an order
// @Description  Prices the cart, applies an optional discount code and reserves stock. A bearer token binds the order to the customer.
// @Tags         orders
// @Accept       json
// @Produce      json
// @Param        order  body  models.CheckoutRequest  true  "Checkout payload"
// @Success      201  {object}  domain.Order
// @Failure      400  {object}  middleware.ErrorResponse
// @Failure      404  {object}  middleware.ErrorResponse
// @Failure      500  {object}  middleware.ErrorResponse
// @Router       /api/orders [post]
func (c *OrderController) Checkout(ctx *fiber.Ctx) error {
	var req models.CheckoutRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation(apperror.MsgInvalidRequest)
	}
	order, err := c.OrderService.PlaceOrder(ctx.UserContext(), req.ToDomain(middleware.UserID(ctx)))
	if err != nil {
		return err
	}
	return ctx.Status(fiber.StatusCreated).JSON(order)
}

// TrackOrder godoc
// @Summary      Track a guest order
// @Tags         orders
// @Produce      json
// @Param        orderNo  query  string  true  "Order number"
// @Param        phone    query  string  true  "Phone used at checkout"
// @Success      200  {object}  domain.Order
// @Failure      400  {object}  middleware.ErrorResponse
// @Failure      404  {object}  middleware.ErrorResponse
// @Router       /api/orders/track [get]
func (c *OrderController) TrackOrder(ctx *fiber.Ctx) error {
	order, err := c.OrderService.TrackOrder(ctx.UserContext(), ctx.Query("orderNo"), ctx.Query("phone"))
	if err != nil {
		return err
	}
	return ctx.JSON(order)
}

// ListMyOrders godoc
// @Summary      List the caller's orders
// @Tags         customer
// @Produce      json
// @Security     BearerAuth
// @Success      200  {array}   domain.Order
// @Failure      401  {object}  middleware.ErrorResponse
// @Router       /api/customer/orders [get]
func (c *OrderController) ListMyOrders(ctx *fiber.Ctx) error {
	orders, err := c.OrderService.ListCustomerOrders(ctx.UserContext(), middleware.UserID(ctx))
	if err != nil {
		return err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	return ctx.JSON(orders)
}

// CancelMyOrder godoc
// @Summary      Cancel a pending order
// @Description  Only the owner may cancel, and only while the order is PENDING. Stock is restored.
// @Tags         customer
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  models.CancelResponse
// @Failure      400  {object}  middleware.ErrorResponse
// @Failure      401  {object}  middleware.ErrorResponse
// @Failure      403  {object}  middleware.ErrorResponse
// @Failure      404  {object}  middleware.ErrorResponse
// @Router       /api/customer/orders/{id}/cancel [patch]
func (c *OrderController) CancelMyOrder(ctx *fiber.Ctx) error {
	order, err := c.OrderService.CancelByCustomer(ctx.UserContext(), ctx.Params("id"), middleware.UserID(ctx))
	if err != nil {
		return err
	}
	return ctx.JSON(models.CancelResponse{Message: msgCancelled, Order: order})
}

// ListOrders godoc
// @Summary      List orders
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        status   query  string  false  "Status filter"
// @Param        q        query  string  false  "Order number, customer name or phone"
// @Param        page     query  int     false  "Page"
// @Param        perPage  query  int     false  "Page size"
// @Success      200  {object}  models.OrderList
// @Failure      400  {object}  middleware.ErrorResponse
// @Router       /api/admin/orders [get]
func (c *OrderController) ListOrders(ctx *fiber.Ctx) error {
	filter := domain.OrderFilter{
		Status:  domain.Status(strings.ToUpper(ctx.Query("status"))),
		Query:   ctx.Query("q"),
		Page:    ctx.QueryInt("page", 1),
		PerPage: ctx.QueryInt("perPage", 20),
	}
	orders, total, err := c.OrderService.ListOrders(ctx.UserContext(), filter)
	if err != nil {
		return err
	}
	if orders == nil {
		orders = []domain.Order{}
	}
	filter.Normalize()
	return ctx.JSON(models.OrderList{Data: orders, Total: total, Page: filter.Page, PerPage: filter.PerPage})
}

// GetOrder godoc
// @Summary      Get an order
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Param        id   path      string  true  "Order ID"
// @Success      200  {object}  domain.Order
// @Failure      404  {object}  middleware.ErrorResponse
// @Router       /api/admin/orders/{id} [get]
func (c *OrderController) GetOrder(ctx *fiber.Ctx) error {
	order, err := c.OrderService.GetOrder(ctx.UserContext(), ctx.Params("id"))
	if err != nil {
		return err
	}
	return ctx.JSON(order)
}

// UpdateStatus godoc
// @Summary      Change order status
// @Description  Moves the order along PENDING, CONFIRMED, SHIPPED, DELIVERED. Cancelling restores stock atomically.
// @Tags         admin
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path  string                      true  "Order ID"
// @Param        status  body  models.StatusUpdateRequest  true  "Target status"
// @Success      200  {object}  domain.Order
// @Failure      400  {object}  middleware.ErrorResponse
// @Failure      404  {object}  middleware.ErrorResponse
// @Failure      409  {object}  middleware.ErrorResponse
// @Failure      500  {object}  middleware.ErrorResponse
// @Router       /api/admin/orders/{id} [patch]
func (c *OrderController) UpdateStatus(ctx *fiber.Ctx) error {
	var req models.StatusUpdateRequest
	if err := ctx.BodyParser(&req); err != nil {
		return apperror.Validation(apperror.MsgInvalidRequest)
	}
	status, ok := domain.ParseStatus(req.Status)
	if !ok {
		return apperror.Validation(apperror.MsgInvalidStatus)
	}
	order, err := c.OrderService.UpdateStatus(ctx.UserContext(), ctx.Params("id"), status)
	if err != nil {
		return err
	}
	return ctx.JSON(order)
}

// ReplayFailedEvents godoc
// @Summary      Replay failed order events
// @Description  Republishes order events whose publish failed at the time of the change
// @Tags         admin
// @Produce      json
// @Security     BearerAuth
// @Success      200  {object}  domain.ReplayResult
// @Failure      500  {object}  middleware.ErrorResponse
// @Router       /api/admin/orders/replay-failed-events [post]
func (c *OrderController) ReplayFailedEvents(ctx *fiber.Ctx) error {
	result, err := c.OrderService.ReplayFailedEvents(ctx.UserContext())
	if err != nil {
		return err
	}
	return ctx.JSON(result)
}
