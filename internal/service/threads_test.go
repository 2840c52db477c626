package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"roomrent/marketplace/internal/models"
)

func TestGroupThreads(t *testing.T) {
	// newest first
	messages := []*models.Message{
		message("m5", "l1", "tenant-1", "owner-1", 5),
		message("m4", "l2", "owner-2", "tenant-1", 4),
		message("m3", "l1", "owner-1", "tenant-1", 3),
		message("m2", "l1", "tenant-1", "owner-3", 2),
		message("m1", "l2", "tenant-1", "owner-2", 1),
	}

	rooms := GroupThreads("tenant-1", messages)
	require.Len(t, rooms, 3)

	assert.Equal(t, models.ThreadKey{ListingID: "l1", CounterpartID: "owner-1"}, rooms[0].Key())
	assert.Equal(t, "m5", rooms[0].LastMessage.ID)
	assert.Equal(t, models.ThreadKey{ListingID: "l2", CounterpartID: "owner-2"}, rooms[1].Key())
	assert.Equal(t, "m4", rooms[1].LastMessage.ID)
	assert.Equal(t, models.ThreadKey{ListingID: "l1", CounterpartID: "owner-3"}, rooms[2].Key())
	assert.Equal(t, "m2", rooms[2].LastMessage.ID)

	for _, room := range rooms {
		assert.Zero(t, room.UnreadCount)
	}
}

func TestGroupThreads_Idempotent(t *testing.T) {
	messages := []*models.Message{
		message("m3", "l1", "owner-1", "tenant-1", 3),
		message("m2", "l2", "tenant-1", "owner-1", 2),
		message("m1", "l1", "tenant-1", "owner-1", 1),
	}

	assert.Equal(t, GroupThreads("tenant-1", messages), GroupThreads("tenant-1", messages))
}

func TestGroupThreads_Empty(t *testing.T) {
	assert.Empty(t, GroupThreads("tenant-1", nil))
}
