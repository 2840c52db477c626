package service

import (
	"roomrent/marketplace/internal/models"
)

// GroupThreads folds a newest-first message list into one ChatRoom per
// (listing, counterpart). The first message seen for a key is its preview, so
// rooms come out ordered by most recent activity.
func GroupThreads(userID string, messages []*models.Message) []models.ChatRoom {
	seen := make(map[models.ThreadKey]struct{}, len(messages))
	rooms := make([]models.ChatRoom, 0)

	for _, msg := range messages {
		counterpartID, counterpart := msg.Counterpart(userID)
		key := models.ThreadKey{ListingID: msg.ListingID, CounterpartID: counterpartID}
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}

		if counterpart == nil {
			counterpart = &models.User{ID: counterpartID}
		}
		rooms = append(rooms, models.ChatRoom{
			ListingID:   msg.ListingID,
			OtherUser:   counterpart,
			LastMessage: msg,
			UnreadCount: 0,
		})
	}
	return rooms
}
