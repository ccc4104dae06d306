package sdk

import "context"

// StartConversation gets or creates the conversation with a peer
func (c *Client) StartConversation(ctx context.Context, req *StartConversationRequest) (*ConversationView, error) {
	var result ConversationView
	if err := c.post(ctx, "/conversation/start", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListConversations fetches the caller's inbox
func (c *Client) ListConversations(ctx context.Context, includeArchived bool) ([]*InboxEntry, error) {
	params := map[string]string{}
	if includeArchived {
		params["include_archived"] = "true"
	}
	var result InboxResponse
	if err := c.get(ctx, "/conversation/list", params, &result); err != nil {
		return nil, err
	}
	return result.Conversations, nil
}

// GetConversation fetches the caller's view of one conversation
func (c *Client) GetConversation(ctx context.Context, conversationId string) (*ConversationView, error) {
	params := map[string]string{"conversation_id": conversationId}
	var result ConversationView
	if err := c.get(ctx, "/conversation/info", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// MarkRead advances the caller's read watermark
func (c *Client) MarkRead(ctx context.Context, conversationId string) error {
	body := map[string]string{"conversation_id": conversationId}
	return c.post(ctx, "/conversation/mark_read", body, nil)
}

// SetVisibility updates mute/archive/clear state on the caller's membership
func (c *Client) SetVisibility(ctx context.Context, req *VisibilityRequest) error {
	return c.put(ctx, "/conversation/visibility", req, nil)
}

// Mute is a convenience wrapper around SetVisibility
func (c *Client) Mute(ctx context.Context, conversationId string, muted bool) error {
	return c.SetVisibility(ctx, &VisibilityRequest{ConversationId: conversationId, Muted: &muted})
}

// Archive is a convenience wrapper around SetVisibility
func (c *Client) Archive(ctx context.Context, conversationId string, archived bool) error {
	return c.SetVisibility(ctx, &VisibilityRequest{ConversationId: conversationId, Archived: &archived})
}

// ClearHistory hides all messages up to now from the caller's view
func (c *Client) ClearHistory(ctx context.Context, conversationId string) error {
	clear := true
	return c.SetVisibility(ctx, &VisibilityRequest{ConversationId: conversationId, ClearHistory: &clear})
}

// RestoreHistory undoes a previous ClearHistory
func (c *Client) RestoreHistory(ctx context.Context, conversationId string) error {
	body := map[string]string{"conversation_id": conversationId}
	return c.post(ctx, "/conversation/restore_history", body, nil)
}
