package handlers

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/MEE-POONG/mapoo-sub001/src/infrastructure/log"
	"github.com/MEE-POONG/mapoo-sub001/src/services/events"
	"github.com/MEE-POONG/mapoo-sub001/src/services/notification"
)

type Publisher interface {
	Publish(topic string, body []byte) error
}

// OrderEventHandler turns order events into customer notifications. Messages
// it cannot process are forwarded to the topic's DLQ.
type OrderEventHandler struct {
	publisher           Publisher
	notificationService notification.NotificationService
	logger              log.Logger
}

func NewOrderEventHandler(publisher Publisher, notificationService notification.NotificationService, logger log.Logger) *OrderEventHandler {
	return &OrderEventHandler{
		publisher:           publisher,
		notificationService: notificationService,
		logger:              logger,
	}
}

// OrderPlacedHandler and OrderStatusChangedHandler adapt the shared handler to
// one queue each.
type OrderPlacedHandler struct{ *OrderEventHandler }
type OrderStatusChangedHandler struct{ *OrderEventHandler }

func (h *OrderEventHandler) Placed() *OrderPlacedHandler { return &OrderPlacedHandler{h} }

func (h *OrderEventHandler) StatusChanged() *OrderStatusChangedHandler {
	return &OrderStatusChangedHandler{h}
}

func (h *OrderPlacedHandler) Handle(ctx context.Context, msgBody []byte) {
	var event events.OrderPlacedEvent
	if err := decode(msgBody, &event); err != nil {
		h.logger.Exception(ctx, "Failed to decode OrderPlacedEvent", err)
		h.sendToDLQ(ctx, events.OrderPlaced, msgBody)
		return
	}

	req := notification.NotificationRequest{
		OrderID:     event.OrderID,
		OrderNo:     event.OrderNo,
		Recipient:   event.CustomerPhone,
		MessageType: "confirmation",
		Message:     fmt.Sprintf("ขอบคุณที่สั่งซื้อ คำสั่งซื้อ %s ยอดรวม %.2f บาท", event.OrderNo, event.TotalAmount),
	}
	if err := h.notificationService.SendMultiChannelNotification(ctx, req,
		[]notification.NotificationChannel{notification.ChannelSMS, notification.ChannelLine}); err != nil {
		h.sendToDLQ(ctx, events.OrderPlaced, msgBody)
	}
}

func (h *OrderStatusChangedHandler) Handle(ctx context.Context, msgBody []byte) {
	var event events.OrderStatusChangedEvent
	if err := decode(msgBody, &event); err != nil {
		h.logger.Exception(ctx, "Failed to decode OrderStatusChangedEvent", err)
		h.sendToDLQ(ctx, events.OrderStatusChanged, msgBody)
		return
	}

	req := notification.NotificationRequest{
		OrderID:     event.OrderID,
		OrderNo:     event.OrderNo,
		Recipient:   event.CustomerPhone,
		MessageType: messageType(event.To),
		Message:     statusMessage(event.OrderNo, event.To),
	}
	if err := h.notificationService.SendNotification(ctx, withChannel(req, notification.ChannelSMS)); err != nil {
		h.logger.Exception(ctx, "Failed to send status notification", err)
		h.sendToDLQ(ctx, events.OrderStatusChanged, msgBody)
	}
}

func (h *OrderEventHandler) sendToDLQ(ctx context.Context, topic string, body []byte) {
	if err := h.publisher.Publish(events.DLQ(topic), body); err != nil {
		h.logger.Exception(ctx, "Failed to send event to DLQ", err)
	}
}

func withChannel(req notification.NotificationRequest, channel notification.NotificationChannel) notification.NotificationRequest {
	req.Channel = channel
	return req
}

func messageType(status string) string {
	if status == "CANCELLED" {
		return "cancellation"
	}
	return "status_update"
}

func statusMessage(orderNo, status string) string {
	switch status {
	case "CONFIRMED":
		return "คำสั่งซื้อ " + orderNo + " ได้รับการยืนยันแล้ว"
	case "SHIPPED":
		return "คำสั่งซื้อ " + orderNo + " จัดส่งแล้ว"
	case "DELIVERED":
		return "คำสั่งซื้อ " + orderNo + " จัดส่งถึงปลายทางแล้ว"
	case "CANCELLED":
		return "คำสั่งซื้อ " + orderNo + " ถูกยกเลิกแล้ว"
	default:
		return "คำสั่งซื้อ " + orderNo + " มีการเปลี่ยนสถานะเป็น " + status
	}
}

func decode(body []byte, event interface{ Validate() error }) error {
	if err := json.Unmarshal(body, event); err != nil {
		return err
	}
	return event.Validate()
}
