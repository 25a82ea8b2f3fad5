package client

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/claimswift/backend/internal/domain/collaborator"
	"go.uber.org/zap"
)

type notificationPayload struct {
	UserID  int64  `json:"user_id"`
	ClaimID int64  `json:"claim_id"`
	Type    string `json:"type"`
	Message string `json:"message"`
}

// HTTPNotifier posts notifications to the notification service. It makes a
// single attempt; callers swallow its errors.
type HTTPNotifier struct {
	url    string
	caller jsonCaller
}

// NewHTTPNotifier creates a notifier for the service at baseURL.
func NewHTTPNotifier(baseURL string, httpClient *http.Client) *HTTPNotifier {
	return &HTTPNotifier{
		url:    strings.TrimRight(baseURL, "/") + "/api/v1/notifications",
		caller: jsonCaller{http: httpClient, retry: RetryPolicy{MaxTries: 1}},
	}
}

// Send implements collaborator.Notifier.
func (n *HTTPNotifier) Send(ctx context.Context, msg collaborator.Notification) error {
	body := notificationPayload{
		UserID:  msg.UserID,
		ClaimID: msg.ClaimID,
		Type:    string(msg.Type),
		Message: msg.Message,
	}
	if err := n.caller.call(ctx, http.MethodPost, n.url, body, nil); err != nil {
		return fmt.Errorf("failed to send %s notification for claim %d: %w", msg.Type, msg.ClaimID, err)
	}
	return nil
}

// LoggingNotifier writes notifications to the log instead of delivering them.
type LoggingNotifier struct {
	logger *zap.Logger
}

// NewLoggingNotifier creates a LoggingNotifier.
func NewLoggingNotifier(logger *zap.Logger) *LoggingNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LoggingNotifier{logger: logger}
}

// Send implements collaborator.Notifier.
func (n *LoggingNotifier) Send(_ context.Context, msg collaborator.Notification) error {
	n.logger.Info("notification",
		zap.Int64("user_id", msg.UserID),
		zap.Int64("claim_id", msg.ClaimID),
		zap.String("type", string(msg.Type)),
		zap.String("message", msg.Message),
	)
	return nil
}

var (
	_ collaborator.Notifier = (*HTTPNotifier)(nil)
	_ collaborator.Notifier = (*LoggingNotifier)(nil)
)
