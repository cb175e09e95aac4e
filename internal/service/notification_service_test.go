package service

import (
	"context"
	"fmt"
	"testing"

	"github.com/Marga-Ghale/ora-taskflow-backend/internal/repository"
	"github.com/Marga-Ghale/ora-taskflow-backend/internal/types"
)

func TestNotificationInbox(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	me := h.user("Mia Member", types.RoleMember)
	other := h.user("Oscar Other", types.RoleMember)
	repo := fakeNotifications{h.store}

	for i := 0; i < 25; i++ {
		repo.Create(ctx, &repository.Notification{UserID: me.ID, Title: fmt.Sprintf("n%d", i), Type: types.NotificationInfo})
	}
	foreign := &repository.Notification{UserID: other.ID, Title: "theirs", Type: types.NotificationInfo}
	repo.Create(ctx, foreign)

	list, err := h.services.Notification.List(ctx, me, false)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != NotificationListLimit || list[0].Title != "n24" {
		t.Errorf("list = %d items, first %q", len(list), list[0].Title)
	}

	if err := h.services.Notification.MarkAsRead(ctx, me, list[0].ID); err != nil {
		t.Fatal(err)
	}
	err = h.services.Notification.MarkAsRead(ctx, me, foreign.ID)
	expectError(t, err, NotFound(""))

	count, err := h.services.Notification.Count(ctx, me)
	if err != nil || count.Total != 25 || count.Unread != 24 {
		t.Errorf("count = %+v, %v", count, err)
	}

	n, err := h.services.Notification.MarkAllAsRead(ctx, me)
	if err != nil || n != 24 {
		t.Errorf("marked %d, %v", n, err)
	}
	unread, _ := h.services.Notification.List(ctx, me, true)
	if len(unread) != 0 {
		t.Errorf("unread after mark all = %d", len(unread))
	}
	if foreign.IsRead {
		t.Error("another user's notification was touched")
	}
}
