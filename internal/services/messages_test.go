package services

import (
	"context"
	"testing"

	"devlink/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestMessages(t *testing.T) (*MessageService, func(id string)) {
	t.Helper()
	g := newTestDB(t)
	seed := func(id string) { seedUser(t, g, id) }
	return NewMessageService(g, NewNotifier(g)), seed
}

func TestConversationReused(t *testing.T) {
	svc, seed := newTestMessages(t)
	seed("u1")
	seed("u2")
	ctx := context.Background()

	c1, err := svc.GetOrCreateConversation(ctx, "u1", "u2")
	require.NoError(t, err)

	// 任一方再开都回到同一个会话
	c2, err := svc.GetOrCreateConversation(ctx, "u2", "u1")
	require.NoError(t, err)
	assert.Equal(t, c1.ID, c2.ID)
}

func TestConversationSelfRejected(t *testing.T) {
	svc, seed := newTestMessages(t)
	seed("u1")

	_, err := svc.GetOrCreateConversation(context.Background(), "u1", "u1")
	require.ErrorIs(t, err, ErrInvalidArgument)
}

func TestConversationUnknownUser(t *testing.T) {
	svc, seed := newTestMessages(t)
	seed("u1")

	_, err := svc.GetOrCreateConversation(context.Background(), "u1", "ghost")
	require.ErrorIs(t, err, ErrNotFound)
}

func TestSendMessageNotifiesAndCountsUnread(t *testing.T) {
	g := newTestDB(t)
	seedUser(t, g, "u1")
	seedUser(t, g, "u2")
	svc := NewMessageService(g, NewNotifier(g))
	ctx := context.Background()

	conv, err := svc.GetOrCreateConversation(ctx, "u1", "u2")
	require.NoError(t, err)

	msg, err := svc.SendMessage(ctx, conv.ID, "u1", "hey <script>x</script>there")
	require.NoError(t, err)
	assert.Equal(t, "hey there", msg.Content) // 消毒过

	// 接收方有一条未读和一条通知
	count, err := svc.UnreadCount(ctx, "u2")
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	var notifications []models.Notification
	require.NoError(t, g.Where("user_id = ?", "u2").Find(&notifications).Error)
	require.Len(t, notifications, 1)
	assert.Equal(t, models.NotificationTypeMessage, notifications[0].Type)
	assert.Equal(t, msg.ID, notifications[0].RefID)

	// 发送方自己没有未读
	count, err = svc.UnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMessagesMarkRead(t *testing.T) {
	svc, seed := newTestMessages(t)
	seed("u1")
	seed("u2")
	ctx := context.Background()

	conv, err := svc.GetOrCreateConversation(ctx, "u1", "u2")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, conv.ID, "u1", "one")
	require.NoError(t, err)
	_, err = svc.SendMessage(ctx, conv.ID, "u1", "two")
	require.NoError(t, err)

	// 读一次之后未读归零
	msgs, err := svc.Messages(ctx, conv.ID, "u2", 50)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "two", msgs[0].Content) // 新的在前

	count, err := svc.UnreadCount(ctx, "u2")
	require.NoError(t, err)
	assert.Zero(t, count)
}

func TestMessagesParticipantOnly(t *testing.T) {
	svc, seed := newTestMessages(t)
	seed("u1")
	seed("u2")
	seed("outsider")
	ctx := context.Background()

	conv, err := svc.GetOrCreateConversation(ctx, "u1", "u2")
	require.NoError(t, err)

	_, err = svc.Messages(ctx, conv.ID, "outsider", 50)
	require.ErrorIs(t, err, ErrForbidden)

	_, err = svc.SendMessage(ctx, conv.ID, "outsider", "let me in")
	require.ErrorIs(t, err, ErrForbidden)
}

func TestDeleteMessageSenderOnly(t *testing.T) {
	svc, seed := newTestMessages(t)
	seed("u1")
	seed("u2")
	ctx := context.Background()

	conv, err := svc.GetOrCreateConversation(ctx, "u1", "u2")
	require.NoError(t, err)
	msg, err := svc.SendMessage(ctx, conv.ID, "u1", "oops")
	require.NoError(t, err)

	require.ErrorIs(t, svc.DeleteMessage(ctx, msg.ID, "u2"), ErrForbidden)
	require.NoError(t, svc.DeleteMessage(ctx, msg.ID, "u1"))
	require.ErrorIs(t, svc.DeleteMessage(ctx, msg.ID, "u1"), ErrNotFound)
}

func TestConversationListSummaries(t *testing.T) {
	svc, seed := newTestMessages(t)
	seed("u1")
	seed("u2")
	seed("u3")
	ctx := context.Background()

	cA, err := svc.GetOrCreateConversation(ctx, "u1", "u2")
	require.NoError(t, err)
	cB, err := svc.GetOrCreateConversation(ctx, "u1", "u3")
	require.NoError(t, err)

	_, err = svc.SendMessage(ctx, cA.ID, "u2", "first")
	require.NoError(t, err)
	// 后发消息的会话排前面
	_, err = svc.SendMessage(ctx, cB.ID, "u3", "second")
	require.NoError(t, err)

	list, err := svc.Conversations(ctx, "u1", 20)
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, cB.ID, list[0].ID)
	require.NotNil(t, list[0].LastMessage)
	assert.Equal(t, "second", list[0].LastMessage.Content)
	assert.Equal(t, int64(1), list[0].UnreadCount)
	assert.Len(t, list[0].Participants, 2)

	// u2 只看到自己那个会话
	list, err = svc.Conversations(ctx, "u2", 20)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, cA.ID, list[0].ID)
}
