package service

import (
	"context"
	"testing"

	"github.com/shinyyama/mercado-backend/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestNotifications(t *testing.T) {
	repo := &fakeNotifications{}
	svc := NewNotificationService(repo, zap.NewNop())
	ctx := context.Background()

	svc.Notify(ctx, model.Notification{UserUID: "ana", Type: model.NotificationOffer, Title: "Nueva oferta recibida"})
	svc.Notify(ctx, model.Notification{UserUID: "ana", Type: model.NotificationSystem, Title: "Promoción especial"})
	svc.Notify(ctx, model.Notification{UserUID: "ana", Type: model.NotificationMessage, FromUID: "ana"})
	svc.Notify(ctx, model.Notification{UserUID: "", Type: model.NotificationMessage})
	require.Len(t, repo.rows, 2)

	list, unread, err := svc.List(ctx, "ana", false, 10)
	require.NoError(t, err)
	assert.Len(t, list, 2)
	assert.Equal(t, int64(2), unread)
	assert.Equal(t, model.NotificationSystem, list[0].Type)

	require.NoError(t, svc.MarkRead(ctx, "ana", list[0].ID))
	require.NoError(t, svc.MarkRead(ctx, "ana", list[0].ID))
	assert.ErrorIs(t, svc.MarkRead(ctx, "bruno", list[0].ID), ErrNotFound)

	onlyUnread, unread, err := svc.List(ctx, "ana", true, 10)
	require.NoError(t, err)
	assert.Len(t, onlyUnread, 1)
	assert.Equal(t, int64(1), unread)

	require.NoError(t, svc.MarkAllRead(ctx, "ana"))
	_, unread, err = svc.List(ctx, "ana", false, 10)
	require.NoError(t, err)
	assert.Zero(t, unread)
}
