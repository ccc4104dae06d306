package sdk

import (
	"context"
	"strconv"
)

// SendMessage sends a message into a conversation
func (c *Client) SendMessage(ctx context.Context, req *SendMessageRequest) (*MessageInfo, error) {
	var result MessageInfo
	if err := c.post(ctx, "/msg/send", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// SendText is a convenience method to send a text message to a peer
func (c *Client) SendText(ctx context.Context, clientMsgId, peerSubjectId, text string) (*MessageInfo, error) {
	return c.SendMessage(ctx, &SendMessageRequest{
		ClientMsgId:   clientMsgId,
		PeerSubjectId: peerSubjectId,
		Content:       &text,
		MediaType:     MediaTypeText,
	})
}

// ListMessages fetches a page of history. before and after are exclusive
// created-at cursors in unix milliseconds; zero disables the bound.
func (c *Client) ListMessages(ctx context.Context, conversationId string, before, after int64, limit int) (*ListMessagesResponse, error) {
	params := map[string]string{
		"conversation_id": conversationId,
	}
	if before > 0 {
		params["before"] = strconv.FormatInt(before, 10)
	}
	if after > 0 {
		params["after"] = strconv.FormatInt(after, 10)
	}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}

	var result ListMessagesResponse
	if err := c.get(ctx, "/msg/list", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// ListMessagesAfterSeq fetches a page of history strictly after a sequence
// watermark, ascending by seq. Seqs are unique per conversation, so this
// cursor survives created_at ties where a timestamp cursor would skip a
// message at a page boundary.
func (c *Client) ListMessagesAfterSeq(ctx context.Context, conversationId string, afterSeq int64, limit int) (*ListMessagesResponse, error) {
	params := map[string]string{
		"conversation_id": conversationId,
		"after_seq":       strconv.FormatInt(afterSeq, 10),
	}
	if limit > 0 {
		params["limit"] = strconv.Itoa(limit)
	}

	var result ListMessagesResponse
	if err := c.get(ctx, "/msg/list", params, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// GetMaxSeq gets the max seq for a conversation
func (c *Client) GetMaxSeq(ctx context.Context, conversationId string) (int64, error) {
	params := map[string]string{"conversation_id": conversationId}
	var result MaxSeqResponse
	if err := c.get(ctx, "/msg/max_seq", params, &result); err != nil {
		return 0, err
	}
	return result.MaxSeq, nil
}
