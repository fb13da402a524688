package notification

import (
	"context"
	"fmt"

	"github.com/MEE-POONG/mapoo-sub001/src/infrastructure/log"
)

// NotificationChannel represents different notification delivery methods
type NotificationChannel string

const (
	ChannelEmail NotificationChannel = "email"
	ChannelSMS   NotificationChannel = "sms"
	ChannelLine  NotificationChannel = "line"
)

// NotificationRequest represents a notification to be sent
type NotificationRequest struct {
	OrderID     string              `json:"orderId"`
	OrderNo     string              `json:"orderNo"`
	Message     string              `json:"message"`
	Channel     NotificationChannel `json:"channel"`
	Recipient   string              `json:"recipient"`
	MessageType string              `json:"messageType"`
}

// NotificationService delivers customer notifications. Delivery is recorded
// in the log only; no external provider is wired.
type NotificationService interface {
	SendNotification(ctx context.Context, request NotificationRequest) error
	SendMultiChannelNotification(ctx context.Context, request NotificationRequest, channels []NotificationChannel) error
}

type NotificationServiceImpl struct {
	logger log.Logger
}

func NewNotificationService(logger log.Logger) NotificationService {
	return &NotificationServiceImpl{
		logger: logger,
	}
}

func (n *NotificationServiceImpl) SendNotification(ctx context.Context, request NotificationRequest) error {
	switch request.Channel {
	case ChannelEmail, ChannelSMS, ChannelLine:
	default:
		return fmt.Errorf("unknown notification channel %q", request.Channel)
	}
	if request.Recipient == "" {
		return fmt.Errorf("no recipient for %s notification of order %s", request.Channel, request.OrderNo)
	}

	n.logger.InfoWithExtra(ctx, "Notification dispatched", map[string]any{
		"channel":     request.Channel,
		"orderId":     request.OrderID,
		"orderNo":     request.OrderNo,
		"recipient":   request.Recipient,
		"messageType": request.MessageType,
		"body":        request.Message,
	})
	return nil
}

// SendMultiChannelNotification tries every channel and returns the first error.
func (n *NotificationServiceImpl) SendMultiChannelNotification(ctx context.Context, request NotificationRequest, channels []NotificationChannel) error {
	var firstErr error
	for _, channel := range channels {
		request.Channel = channel
		if err := n.SendNotification(ctx, request); err != nil {
			n.logger.Exception(ctx, "Failed to send notification via "+string(channel), err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}
