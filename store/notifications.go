package store

import (
	"time"

	"github.com/google/uuid"
	"github.com/voltasol/osboard/domain"
)

// notify prepends an unread notification for a user. Notifications are a
// purely local side effect of mutations and are never pushed to the server.
// An empty recipient is silently skipped.
func (s *Store) notify(userID, message string) {
	if userID == "" {
		return
	}
	n := domain.Notification{
		ID:        uuid.NewString(),
		UserID:    userID,
		Message:   message,
		Read:      false,
		Timestamp: time.Now().UTC(),
	}
	s.mu.Lock()
	s.notifications = append([]domain.Notification{n}, s.notifications...)
	s.saveNotifications()
	s.mu.Unlock()
}

// NotificationsFor returns a user's notifications, newest first.
func (s *Store) NotificationsFor(userID string) []domain.Notification {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Notification
	for _, n := range s.notifications {
		if n.UserID == userID {
			out = append(out, n)
		}
	}
	return out
}

// MarkNotificationRead marks one notification as read. Unknown ids are a
// no-op: the notification may have been pruned by another session.
func (s *Store) MarkNotificationRead(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.notifications {
		if s.notifications[i].ID == id {
			if !s.notifications[i].Read {
				s.notifications[i].Read = true
				s.saveNotifications()
			}
			return
		}
	}
}

// MarkAllNotificationsRead marks every notification of a user as read.
func (s *Store) MarkAllNotificationsRead(userID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	changed := false
	for i := range s.notifications {
		if s.notifications[i].UserID == userID && !s.notifications[i].Read {
			s.notifications[i].Read = true
			changed = true
		}
	}
	if changed {
		s.saveNotifications()
	}
}

// UnreadCount returns how many unread notifications a user has.
func (s *Store) UnreadCount(userID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	count := 0
	for _, n := range s.notifications {
		if n.UserID == userID && !n.Read {
			count++
		}
	}
	return count
}
