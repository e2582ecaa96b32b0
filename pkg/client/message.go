package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"github.com/labdesk/labctl/internal/fanout"
	"github.com/labdesk/labctl/pkg/domain"
)

// --- Message methods ---
//
// User-scoped endpoints take a userID. Zero selects the variant that
// resolves the user from the bearer token.

// userScoped builds "/api/messages/<base>[/<userID>]<suffix>".
func userScoped(base string, userID int64, suffix string) string {
	p := "/api/messages/" + base
	if userID != 0 {
		p += "/" + strconv.FormatInt(userID, 10)
	}
	return p + suffix
}

// userQuery returns ?userId= for explicit-user calls.
func userQuery(userID int64) url.Values {
	if userID == 0 {
		return nil
	}
	params := url.Values{}
	params.Set("userId", strconv.FormatInt(userID, 10))
	return params
}

// SendSystemMessage sends an administrator notice.
func (c *Client) SendSystemMessage(ctx context.Context, req domain.SendMessageRequest) error {
	if err := c.post(ctx, "/api/messages/system", req, nil); err != nil {
		return fmt.Errorf("client.SendSystemMessage: %w", err)
	}
	return nil
}

// SendUserMessage sends a message from the signed-in user.
func (c *Client) SendUserMessage(ctx context.Context, req domain.SendMessageRequest) error {
	if err := c.post(ctx, "/api/messages/user", req, nil); err != nil {
		return fmt.Errorf("client.SendUserMessage: %w", err)
	}
	return nil
}

// SendBatchMessages sends one high-priority system message per receiver.
// Every send is issued at once and all of them run to completion; the
// batch then fails if any send failed.
func (c *Client) SendBatchMessages(ctx context.Context, batch domain.BatchMessage) error {
	sends := make([]fanout.Func[struct{}], len(batch.ReceiverIDs))
	for i, id := range batch.ReceiverIDs {
		req := domain.SendMessageRequest{
			ReceiverID: id,
			Title:      batch.Title,
			Content:    batch.Content,
			Priority:   domain.PriorityHigh,
		}
		sends[i] = func(ctx context.Context) (struct{}, error) {
			return struct{}{}, c.post(ctx, "/api/messages/system", req, nil)
		}
	}
	if _, err := fanout.Join(ctx, sends...); err != nil {
		return fmt.Errorf("client.SendBatchMessages: %w", err)
	}
	return nil
}

func (c *Client) messageList(ctx context.Context, op, path string, params url.Values) ([]domain.Message, error) {
	var msgs []domain.Message
	if err := c.get(ctx, path, params, &msgs); err != nil {
		return nil, fmt.Errorf("client.%s: %w", op, err)
	}
	return msgs, nil
}

// ListMessages lists a user's inbox.
func (c *Client) ListMessages(ctx context.Context, userID int64) ([]domain.Message, error) {
	return c.messageList(ctx, "ListMessages", userScoped("list", userID, ""), nil)
}

// UnreadMessages lists a user's unread messages.
func (c *Client) UnreadMessages(ctx context.Context, userID int64) ([]domain.Message, error) {
	return c.messageList(ctx, "UnreadMessages", userScoped("unread", userID, ""), nil)
}

// MessagesByType lists a user's messages of one type.
func (c *Client) MessagesByType(ctx context.Context, userID int64, messageType string) ([]domain.Message, error) {
	path := userScoped("list", userID, "/type/"+url.PathEscape(messageType))
	return c.messageList(ctx, "MessagesByType", path, nil)
}

// SentMessages lists messages a user has sent.
func (c *Client) SentMessages(ctx context.Context, userID int64) ([]domain.Message, error) {
	return c.messageList(ctx, "SentMessages", userScoped("sent", userID, ""), nil)
}

// MessagesByPriority lists a user's messages at one priority.
func (c *Client) MessagesByPriority(ctx context.Context, userID int64, priority int) ([]domain.Message, error) {
	path := userScoped("priority", userID, "/"+strconv.Itoa(priority))
	return c.messageList(ctx, "MessagesByPriority", path, nil)
}

// HighPriorityUnread lists a user's unread high-priority messages.
func (c *Client) HighPriorityUnread(ctx context.Context, userID int64) ([]domain.Message, error) {
	return c.messageList(ctx, "HighPriorityUnread", userScoped("high-priority-unread", userID, ""), nil)
}

// MessagePage fetches one page of a user's inbox.
func (c *Client) MessagePage(ctx context.Context, userID int64, page, size int) ([]domain.Message, error) {
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("pageSize", strconv.Itoa(size))
	var raw pageBody[domain.Message]
	if err := c.get(ctx, userScoped("page", userID, ""), params, &raw); err != nil {
		return nil, fmt.Errorf("client.MessagePage: %w", err)
	}
	return raw.Items, nil
}

// GetMessage fetches one message.
func (c *Client) GetMessage(ctx context.Context, userID, messageID int64) (*domain.Message, error) {
	var m domain.Message
	if err := c.get(ctx, idPath("/api/messages/detail/", messageID), userQuery(userID), &m); err != nil {
		return nil, fmt.Errorf("client.GetMessage: %w", err)
	}
	return &m, nil
}

// UnreadCount returns a user's unread total.
func (c *Client) UnreadCount(ctx context.Context, userID int64) (int, error) {
	var n int
	if err := c.get(ctx, userScoped("unread-count", userID, ""), nil, &n); err != nil {
		return 0, fmt.Errorf("client.UnreadCount: %w", err)
	}
	return n, nil
}

// UnreadCountByTypes returns unread totals keyed by message type.
func (c *Client) UnreadCountByTypes(ctx context.Context, userID int64) (map[string]int, error) {
	var counts map[string]int
	if err := c.get(ctx, userScoped("unread-count-by-types", userID, ""), nil, &counts); err != nil {
		return nil, fmt.Errorf("client.UnreadCountByTypes: %w", err)
	}
	return counts, nil
}

// MarkRead marks one message read.
func (c *Client) MarkRead(ctx context.Context, userID, messageID int64) error {
	if err := c.put(ctx, idPath("/api/messages/mark-read/", messageID), userQuery(userID), nil, nil); err != nil {
		return fmt.Errorf("client.MarkRead: %w", err)
	}
	return nil
}

type messageIDs struct {
	UserID     int64   `json:"userId,omitempty"`
	MessageIDs []int64 `json:"messageIds"`
}

// BatchMarkRead marks several messages read.
func (c *Client) BatchMarkRead(ctx context.Context, userID int64, ids []int64) error {
	if err := c.put(ctx, "/api/messages/batch-mark-read", nil, messageIDs{UserID: userID, MessageIDs: ids}, nil); err != nil {
		return fmt.Errorf("client.BatchMarkRead: %w", err)
	}
	return nil
}

// MarkAllRead marks a user's whole inbox read.
func (c *Client) MarkAllRead(ctx context.Context, userID int64) error {
	if err := c.put(ctx, userScoped("mark-all-read", userID, ""), nil, nil, nil); err != nil {
		return fmt.Errorf("client.MarkAllRead: %w", err)
	}
	return nil
}

// DeleteMessage removes one message.
func (c *Client) DeleteMessage(ctx context.Context, userID, messageID int64) error {
	if err := c.del(ctx, idPath("/api/messages/", messageID), userQuery(userID), nil); err != nil {
		return fmt.Errorf("client.DeleteMessage: %w", err)
	}
	return nil
}

// BatchDeleteMessages removes several messages.
func (c *Client) BatchDeleteMessages(ctx context.Context, userID int64, ids []int64) error {
	if err := c.del(ctx, "/api/messages/batch", nil, messageIDs{UserID: userID, MessageIDs: ids}); err != nil {
		return fmt.Errorf("client.BatchDeleteMessages: %w", err)
	}
	return nil
}
