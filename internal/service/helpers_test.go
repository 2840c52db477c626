package service

import (
	"io"
	"time"

	"github.com/sirupsen/logrus"

	"roomrent/marketplace/internal/models"
)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

var (
	owner  = &models.User{ID: "owner-1", Name: "Ram", Role: models.RoleOwner}
	tenant = &models.User{ID: "tenant-1", Name: "Sita", Role: models.RoleTenant}
)

var epoch = time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)

func message(id, listingID, sender, receiver string, minute int) *models.Message {
	return &models.Message{
		ID:         id,
		ListingID:  listingID,
		SenderID:   sender,
		ReceiverID: receiver,
		Message:    "body " + id,
		CreatedAt:  epoch.Add(time.Duration(minute) * time.Minute),
		Sender:     &models.User{ID: sender},
		Receiver:   &models.User{ID: receiver},
	}
}

func timeStep(n int) time.Duration {
	return time.Duration(n) * time.Second
}
