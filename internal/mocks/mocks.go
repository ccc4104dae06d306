// Package mocks provides testify mocks for the store interfaces the
// services consume.
package mocks

import (
	"context"

	"github.com/stretchr/testify/mock"

	"github.com/parleyhq/parley/internal/entity"
	"github.com/parleyhq/parley/internal/repository"
)

type ActorStoreMock struct {
	mock.Mock
}

func (m *ActorStoreMock) Resolve(ctx context.Context, subjectId string, kind int32) (*entity.Actor, error) {
	args := m.Called(ctx, subjectId, kind)
	var actor *entity.Actor
	if val := args.Get(0); val != nil {
		actor = val.(*entity.Actor)
	}
	return actor, args.Error(1)
}

type ConversationStoreMock struct {
	mock.Mock
}

func (m *ConversationStoreMock) GetOrCreate(ctx context.Context, conv *entity.Conversation) (*entity.Conversation, error) {
	args := m.Called(ctx, conv)
	var out *entity.Conversation
	if val := args.Get(0); val != nil {
		out = val.(*entity.Conversation)
	}
	return out, args.Error(1)
}

func (m *ConversationStoreMock) GetById(ctx context.Context, id string) (*entity.Conversation, error) {
	args := m.Called(ctx, id)
	var out *entity.Conversation
	if val := args.Get(0); val != nil {
		out = val.(*entity.Conversation)
	}
	return out, args.Error(1)
}

type MembershipStoreMock struct {
	mock.Mock
}

func (m *MembershipStoreMock) Get(ctx context.Context, conversationId, participantSubjectId string) (*entity.Membership, error) {
	args := m.Called(ctx, conversationId, participantSubjectId)
	var out *entity.Membership
	if val := args.Get(0); val != nil {
		out = val.(*entity.Membership)
	}
	return out, args.Error(1)
}

func (m *MembershipStoreMock) Upsert(ctx context.Context, mem *entity.Membership) error {
	args := m.Called(ctx, mem)
	return args.Error(0)
}

func (m *MembershipStoreMock) UpdateVisibility(ctx context.Context, conversationId, participantSubjectId string, updates map[string]interface{}) error {
	args := m.Called(ctx, conversationId, participantSubjectId, updates)
	return args.Error(0)
}

func (m *MembershipStoreMock) MarkRead(ctx context.Context, conversationId, participantSubjectId string, readSeq, readAt int64) error {
	args := m.Called(ctx, conversationId, participantSubjectId, readSeq, readAt)
	return args.Error(0)
}

func (m *MembershipStoreMock) Unarchive(ctx context.Context, conversationId, participantSubjectId string) error {
	args := m.Called(ctx, conversationId, participantSubjectId)
	return args.Error(0)
}

func (m *MembershipStoreMock) Inbox(ctx context.Context, participantSubjectId string) ([]*entity.InboxRow, error) {
	args := m.Called(ctx, participantSubjectId)
	var out []*entity.InboxRow
	if val := args.Get(0); val != nil {
		out = val.([]*entity.InboxRow)
	}
	return out, args.Error(1)
}

func (m *MembershipStoreMock) UnreadCount(ctx context.Context, conversationId, participantSubjectId string) (int64, error) {
	args := m.Called(ctx, conversationId, participantSubjectId)
	return args.Get(0).(int64), args.Error(1)
}

type MessageStoreMock struct {
	mock.Mock
}

func (m *MessageStoreMock) Append(ctx context.Context, msg *entity.Message, sender, partner *entity.Membership) (*entity.Message, error) {
	args := m.Called(ctx, msg, sender, partner)
	var out *entity.Message
	if val := args.Get(0); val != nil {
		out = val.(*entity.Message)
	}
	return out, args.Error(1)
}

func (m *MessageStoreMock) GetByClientMsgId(ctx context.Context, senderSubjectId, clientMsgId string) (*entity.Message, error) {
	args := m.Called(ctx, senderSubjectId, clientMsgId)
	var out *entity.Message
	if val := args.Get(0); val != nil {
		out = val.(*entity.Message)
	}
	return out, args.Error(1)
}

func (m *MessageStoreMock) List(ctx context.Context, conversationId string, q repository.ListQuery) ([]*entity.Message, error) {
	args := m.Called(ctx, conversationId, q)
	var out []*entity.Message
	if val := args.Get(0); val != nil {
		out = val.([]*entity.Message)
	}
	return out, args.Error(1)
}

func (m *MessageStoreMock) MaxSeq(ctx context.Context, conversationId string) (int64, error) {
	args := m.Called(ctx, conversationId)
	return args.Get(0).(int64), args.Error(1)
}

type AuthorizerMock struct {
	mock.Mock
}

func (m *AuthorizerMock) MayActAs(ctx context.Context, subjectId, orgId string) (bool, error) {
	args := m.Called(ctx, subjectId, orgId)
	return args.Bool(0), args.Error(1)
}

type NotifierMock struct {
	mock.Mock
}

func (m *NotifierMock) NotifyNewMessage(msg *entity.Message, recipientSubjectId string) {
	m.Called(msg, recipientSubjectId)
}
