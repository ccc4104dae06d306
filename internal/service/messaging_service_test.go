package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/parleyhq/parley/internal/entity"
	"github.com/parleyhq/parley/internal/mocks"
	"github.com/parleyhq/parley/internal/ownership"
	"github.com/parleyhq/parley/pkg/constant"
	"github.com/parleyhq/parley/pkg/errcode"
)

func newMessagingService(f *fakeStore, authorizer ownership.Authorizer) *MessagingService {
	return NewMessagingService(f, f, f, f, authorizer)
}

func sendText(t *testing.T, svc *MessagingService, sender, peer, clientMsgId, text string) *entity.Message {
	t.Helper()
	msg, err := svc.Send(context.Background(), sender, &SendMessageRequest{
		PeerSubjectId: peer,
		ClientMsgId:   clientMsgId,
		Content:       text,
	})
	require.NoError(t, err)
	return msg
}

func TestSendFirstContactCreatesConversation(t *testing.T) {
	f := newFakeStore()
	svc := newMessagingService(f, ownership.AllowAll{})

	msg := sendText(t, svc, "alice", "bob", "c1", "hello")
	assert.Equal(t, int64(1), msg.Seq)
	assert.Equal(t, "alice", msg.SenderSubjectId)
	assert.Equal(t, constant.MediaTypeText, int(msg.MediaType))
	require.NotNil(t, msg.Content)
	assert.Equal(t, "hello", *msg.Content)

	// Both participants got membership rows from the append.
	sender, err := f.Get(context.Background(), msg.ConversationId, "alice")
	require.NoError(t, err)
	require.NotNil(t, sender)
	assert.Equal(t, "bob", sender.PartnerSubjectId)

	partner, err := f.Get(context.Background(), msg.ConversationId, "bob")
	require.NoError(t, err)
	require.NotNil(t, partner)
	assert.Equal(t, "alice", partner.PartnerSubjectId)

	// The sender's own message is never unread for them; it is for bob.
	senderUnread, _ := f.UnreadCount(context.Background(), msg.ConversationId, "alice")
	assert.Equal(t, int64(0), senderUnread)
	partnerUnread, _ := f.UnreadCount(context.Background(), msg.ConversationId, "bob")
	assert.Equal(t, int64(1), partnerUnread)
}

func TestSendDuplicateClientMsgIdReturnsOriginal(t *testing.T) {
	f := newFakeStore()
	svc := newMessagingService(f, ownership.AllowAll{})

	first := sendText(t, svc, "alice", "bob", "dup", "hello")
	second := sendText(t, svc, "alice", "bob", "dup", "hello")

	assert.Equal(t, first.Id, second.Id)
	assert.Equal(t, first.Seq, second.Seq)

	maxSeq, _ := f.MaxSeq(context.Background(), first.ConversationId)
	assert.Equal(t, int64(1), maxSeq)
}

func TestSendValidation(t *testing.T) {
	f := newFakeStore()
	svc := newMessagingService(f, ownership.AllowAll{})
	ctx := context.Background()

	_, err := svc.Send(ctx, "alice", &SendMessageRequest{PeerSubjectId: "bob", Content: "hi"})
	assert.True(t, errcode.ErrInvalidParam.Is(err), "missing client_msg_id")

	_, err = svc.Send(ctx, "alice", &SendMessageRequest{PeerSubjectId: "bob", ClientMsgId: "c1"})
	assert.True(t, errcode.ErrPayloadInvalid.Is(err), "empty payload")

	_, err = svc.Send(ctx, "alice", &SendMessageRequest{PeerSubjectId: "alice", ClientMsgId: "c2", Content: "hi"})
	assert.True(t, errcode.ErrInvalidParam.Is(err), "self conversation")

	_, err = svc.Send(ctx, "alice", &SendMessageRequest{ConversationId: "missing", ClientMsgId: "c3", Content: "hi"})
	assert.True(t, errcode.ErrConvNotFound.Is(err))
}

func TestSendNonPartyRejected(t *testing.T) {
	f := newFakeStore()
	svc := newMessagingService(f, ownership.AllowAll{})

	msg := sendText(t, svc, "alice", "bob", "c1", "hello")

	_, err := svc.Send(context.Background(), "mallory", &SendMessageRequest{
		ConversationId: msg.ConversationId,
		ClientMsgId:    "c2",
		Content:        "hi",
	})
	assert.True(t, errcode.ErrNotConversationParty.Is(err))
}

func TestSendMediaDefaultsType(t *testing.T) {
	f := newFakeStore()
	svc := newMessagingService(f, ownership.AllowAll{})

	msg, err := svc.Send(context.Background(), "alice", &SendMessageRequest{
		PeerSubjectId: "bob",
		ClientMsgId:   "m1",
		MediaUrl:      "https://cdn/report.pdf",
	})
	require.NoError(t, err)
	assert.Equal(t, constant.MediaTypeFile, int(msg.MediaType))
	assert.Nil(t, msg.Content)
}

func TestSendAsOrganization(t *testing.T) {
	f := newFakeStore()
	authorizer := &mocks.AuthorizerMock{}
	authorizer.On("MayActAs", mock.Anything, "alice", "acme").Return(true, nil)
	svc := newMessagingService(f, authorizer)

	msg, err := svc.Send(context.Background(), "alice", &SendMessageRequest{
		PeerSubjectId:  "bob",
		ClientMsgId:    "o1",
		AsOrganization: "acme",
		Content:        "hello from acme",
	})
	require.NoError(t, err)

	conv, _ := f.GetById(context.Background(), msg.ConversationId)
	assert.Equal(t, int32(constant.ConversationKindOrg), conv.Kind)
	assert.Equal(t, "acme", conv.OrgId)
	assert.True(t, entity.IsOrgPairingKey(conv.PairingKey))

	// The message speaks as the organization actor, while transport
	// identity stays the person.
	orgActor, _ := f.Resolve(context.Background(), "acme", constant.ActorKindOrganization)
	assert.Equal(t, orgActor.Id, msg.AuthoringActorId)
	assert.Equal(t, "alice", msg.SenderSubjectId)
	authorizer.AssertExpectations(t)
}

func TestSendAsOrganizationDenied(t *testing.T) {
	f := newFakeStore()
	authorizer := &mocks.AuthorizerMock{}
	authorizer.On("MayActAs", mock.Anything, "alice", "acme").Return(false, nil)
	svc := newMessagingService(f, authorizer)

	_, err := svc.Send(context.Background(), "alice", &SendMessageRequest{
		PeerSubjectId:  "bob",
		ClientMsgId:    "o1",
		AsOrganization: "acme",
		Content:        "hello",
	})
	assert.True(t, errcode.ErrActorNotAuthorized.Is(err))
}

func TestSendAsOrganizationInPersonalConversationRejected(t *testing.T) {
	f := newFakeStore()
	svc := newMessagingService(f, ownership.AllowAll{})

	msg := sendText(t, svc, "alice", "bob", "c1", "hi")

	_, err := svc.Send(context.Background(), "alice", &SendMessageRequest{
		ConversationId: msg.ConversationId,
		ClientMsgId:    "c2",
		AsOrganization: "acme",
		Content:        "hello",
	})
	assert.True(t, errcode.ErrActorNotAuthorized.Is(err))
}

func TestSendOrgAndPersonalConversationsStaySeparate(t *testing.T) {
	f := newFakeStore()
	svc := newMessagingService(f, ownership.AllowAll{})

	personal := sendText(t, svc, "alice", "bob", "p1", "personal hi")

	orgMsg, err := svc.Send(context.Background(), "alice", &SendMessageRequest{
		PeerSubjectId:  "bob",
		ClientMsgId:    "g1",
		AsOrganization: "acme",
		Content:        "org hi",
	})
	require.NoError(t, err)

	assert.NotEqual(t, personal.ConversationId, orgMsg.ConversationId)
}

func TestSendNotifiesPartner(t *testing.T) {
	f := newFakeStore()
	svc := newMessagingService(f, ownership.AllowAll{})

	notifier := &mocks.NotifierMock{}
	notifier.On("NotifyNewMessage", mock.Anything, "bob").Once()
	svc.SetNotifier(notifier)

	sendText(t, svc, "alice", "bob", "n1", "ping")
	notifier.AssertExpectations(t)
}

func TestListHonorsClearHistoryPerParticipant(t *testing.T) {
	f := newFakeStore()
	svc := newMessagingService(f, ownership.AllowAll{})
	ctx := context.Background()

	m1 := sendText(t, svc, "alice", "bob", "c1", "one")
	sendText(t, svc, "bob", "alice", "c2", "two")

	// Alice clears her history after the second message.
	cleared := f.clock
	require.NoError(t, f.UpdateVisibility(ctx, m1.ConversationId, "alice", map[string]interface{}{
		"cleared_before": cleared,
	}))

	sendText(t, svc, "bob", "alice", "c3", "three")

	aliceMsgs, _, err := svc.List(ctx, "alice", &ListMessagesRequest{ConversationId: m1.ConversationId})
	require.NoError(t, err)
	require.Len(t, aliceMsgs, 1)
	assert.Equal(t, "three", *aliceMsgs[0].Content)

	// Bob's view is unaffected by alice's clear.
	bobMsgs, maxSeq, err := svc.List(ctx, "bob", &ListMessagesRequest{ConversationId: m1.ConversationId})
	require.NoError(t, err)
	assert.Len(t, bobMsgs, 3)
	assert.Equal(t, int64(3), maxSeq)
}

func TestListCursors(t *testing.T) {
	f := newFakeStore()
	svc := newMessagingService(f, ownership.AllowAll{})
	ctx := context.Background()

	var msgs []*entity.Message
	for i := 0; i < 5; i++ {
		msgs = append(msgs, sendText(t, svc, "alice", "bob", fmt.Sprintf("c%d", i), fmt.Sprintf("m%d", i)))
	}
	convId := msgs[0].ConversationId

	// after is exclusive: everything newer than the second message.
	page, _, err := svc.List(ctx, "bob", &ListMessagesRequest{ConversationId: convId, After: msgs[1].CreatedAt})
	require.NoError(t, err)
	require.Len(t, page, 3)
	assert.Equal(t, msgs[2].Id, page[0].Id)

	// before is exclusive: everything older than the third message.
	page, _, err = svc.List(ctx, "bob", &ListMessagesRequest{ConversationId: convId, Before: msgs[2].CreatedAt})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, msgs[0].Id, page[0].Id)

	page, _, err = svc.List(ctx, "bob", &ListMessagesRequest{ConversationId: convId, Limit: 2})
	require.NoError(t, err)
	assert.Len(t, page, 2)
}

func TestListSeqCursorSurvivesTimestampTies(t *testing.T) {
	f := newFakeStore()
	svc := newMessagingService(f, ownership.AllowAll{})
	ctx := context.Background()

	first := sendText(t, svc, "alice", "bob", "c1", "m1")
	convId := first.ConversationId

	// Two appends land in the same millisecond. A created_at cursor taken at
	// the first of them would skip the second; the seq cursor cannot.
	f.freezeClock()
	second := sendText(t, svc, "alice", "bob", "c2", "m2")
	third := sendText(t, svc, "alice", "bob", "c3", "m3")
	require.Equal(t, second.CreatedAt, third.CreatedAt)

	page, _, err := svc.List(ctx, "bob", &ListMessagesRequest{ConversationId: convId, AfterSeq: second.Seq})
	require.NoError(t, err)
	require.Len(t, page, 1)
	assert.Equal(t, third.Id, page[0].Id)

	page, _, err = svc.List(ctx, "bob", &ListMessagesRequest{ConversationId: convId, AfterSeq: first.Seq})
	require.NoError(t, err)
	require.Len(t, page, 2)
}

func TestListNonPartyRejected(t *testing.T) {
	f := newFakeStore()
	svc := newMessagingService(f, ownership.AllowAll{})

	msg := sendText(t, svc, "alice", "bob", "c1", "hello")

	_, _, err := svc.List(context.Background(), "mallory", &ListMessagesRequest{ConversationId: msg.ConversationId})
	assert.True(t, errcode.ErrNotConversationParty.Is(err))

	_, err = svc.MaxSeq(context.Background(), "mallory", msg.ConversationId)
	assert.True(t, errcode.ErrNotConversationParty.Is(err))
}

func TestConcurrentFirstContactYieldsOneConversation(t *testing.T) {
	f := newFakeStore()
	svc := newMessagingService(f, ownership.AllowAll{})

	const n = 20
	var wg sync.WaitGroup
	convIds := make([]string, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sender, peer := "alice", "bob"
			if i%2 == 1 {
				sender, peer = "bob", "alice"
			}
			msg, err := svc.Send(context.Background(), sender, &SendMessageRequest{
				PeerSubjectId: peer,
				ClientMsgId:   fmt.Sprintf("cc-%d", i),
				Content:       "hi",
			})
			if assert.NoError(t, err) {
				convIds[i] = msg.ConversationId
			}
		}(i)
	}
	wg.Wait()

	for i := 1; i < n; i++ {
		assert.Equal(t, convIds[0], convIds[i])
	}

	// All sends landed in the single conversation with a contiguous seq run.
	maxSeq, _ := f.MaxSeq(context.Background(), convIds[0])
	assert.Equal(t, int64(n), maxSeq)
}
