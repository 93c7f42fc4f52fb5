package store_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/voltasol/osboard/store"
	"github.com/voltasol/osboard/testutil"
)

func seedNotifications(t *testing.T) (s *store.Store, ids []string) {
	t.Helper()
	api := testutil.NewFakeAPI(t)
	api.EchoJSON("POST /api/os")
	c := testutil.NewMemoryCache()
	seedCache(c)
	s = newTestStore(t, api, c)

	// Two creations produce two notifications for the supervisor and two
	// for the technician.
	for i := 0; i < 2; i++ {
		_, err := s.CreateWorkOrder(context.Background(), newWorkOrderInput())
		require.NoError(t, err)
	}
	for _, n := range s.NotificationsFor("sup-1") {
		ids = append(ids, n.ID)
	}
	return s, ids
}

func TestStore_Notifications(t *testing.T) {
	t.Run("unread count and mark read", func(t *testing.T) {
		s, ids := seedNotifications(t)
		require.Len(t, ids, 2)

		assert.Equal(t, 2, s.UnreadCount("sup-1"))
		s.MarkNotificationRead(ids[0])
		assert.Equal(t, 1, s.UnreadCount("sup-1"))
		s.MarkNotificationRead(ids[0])
		assert.Equal(t, 1, s.UnreadCount("sup-1"), "marking twice is a no-op")
	})

	t.Run("unknown id is a no-op", func(t *testing.T) {
		s, _ := seedNotifications(t)
		before := s.UnreadCount("sup-1")
		s.MarkNotificationRead("ghost")
		assert.Equal(t, before, s.UnreadCount("sup-1"))
	})

	t.Run("mark all only touches the given user", func(t *testing.T) {
		s, _ := seedNotifications(t)
		s.MarkAllNotificationsRead("sup-1")
		assert.Equal(t, 0, s.UnreadCount("sup-1"))
		assert.Equal(t, 2, s.UnreadCount("tech-1"))
	})

	t.Run("newest first", func(t *testing.T) {
		s, _ := seedNotifications(t)
		notes := s.NotificationsFor("sup-1")
		require.Len(t, notes, 2)
		assert.False(t, notes[0].Timestamp.Before(notes[1].Timestamp))
	})
}
