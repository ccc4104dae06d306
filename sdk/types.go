package sdk

// Response represents the standard API response
type Response struct {
	Code int         `json:"code"`
	Msg  string      `json:"msg"`
	Data interface{} `json:"data,omitempty"`
}

// Media types mirror the server side constants
const (
	MediaTypeText  = 1
	MediaTypeImage = 2
	MediaTypeVideo = 3
	MediaTypeAudio = 4
	MediaTypeFile  = 5
)

// MessageInfo represents message info
type MessageInfo struct {
	Id               string  `json:"id"`
	ConversationId   string  `json:"conversation_id"`
	Seq              int64   `json:"seq"`
	ClientMsgId      string  `json:"client_msg_id"`
	AuthoringActorId string  `json:"authoring_actor_id"`
	SenderSubjectId  string  `json:"sender_subject_id"`
	Content          *string `json:"content,omitempty"`
	MediaUrl         *string `json:"media_url,omitempty"`
	MediaType        int32   `json:"media_type"`
	CreatedAt        int64   `json:"created_at"`
}

// SendMessageRequest represents a send message request
type SendMessageRequest struct {
	ConversationId string  `json:"conversation_id,omitempty"`
	PeerSubjectId  string  `json:"peer_subject_id,omitempty"`
	ClientMsgId    string  `json:"client_msg_id"`
	AsOrganization string  `json:"as_organization,omitempty"`
	Content        *string `json:"content,omitempty"`
	MediaUrl       *string `json:"media_url,omitempty"`
	MediaType      int32   `json:"media_type,omitempty"`
}

// ListMessagesResponse represents a message history page
type ListMessagesResponse struct {
	Messages []*MessageInfo `json:"messages"`
	MaxSeq   int64          `json:"max_seq"`
}

// MaxSeqResponse represents a max seq probe result
type MaxSeqResponse struct {
	MaxSeq int64 `json:"max_seq"`
}

// StartConversationRequest represents a get-or-create conversation request
type StartConversationRequest struct {
	PeerSubjectId  string `json:"peer_subject_id"`
	AsOrganization string `json:"as_organization,omitempty"`
}

// ConversationView represents the caller's view of a conversation
type ConversationView struct {
	ConversationId   string `json:"conversation_id"`
	Kind             int32  `json:"kind"`
	OrgId            string `json:"org_id,omitempty"`
	PartnerSubjectId string `json:"partner_subject_id"`
	Muted            bool   `json:"muted"`
	Archived         bool   `json:"archived"`
	ClearedBefore    *int64 `json:"cleared_before,omitempty"`
	LastReadSeq      int64  `json:"last_read_seq"`
	LastReadAt       *int64 `json:"last_read_at,omitempty"`
	MaxSeq           int64  `json:"max_seq"`
	UnreadCount      int64  `json:"unread_count"`
	CreatedAt        int64  `json:"created_at"`
}

// InboxEntry represents one conversation row in the inbox list
type InboxEntry struct {
	ConversationId     string `json:"conversation_id"`
	PartnerSubjectId   string `json:"partner_subject_id"`
	LastMessagePreview string `json:"last_message_preview"`
	LastMessageAt      int64  `json:"last_message_at"`
	UnreadCount        int64  `json:"unread_count"`
	Muted              bool   `json:"muted"`
	Archived           bool   `json:"archived"`
}

// InboxResponse represents the inbox list payload
type InboxResponse struct {
	Conversations []*InboxEntry `json:"conversations"`
}

// VisibilityRequest represents a membership visibility update
type VisibilityRequest struct {
	ConversationId string `json:"conversation_id"`
	Muted          *bool  `json:"muted,omitempty"`
	Archived       *bool  `json:"archived,omitempty"`
	ClearHistory   *bool  `json:"clear_history,omitempty"`
}
