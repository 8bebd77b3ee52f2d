package testutil

import (
	"testing"
	"time"

	"github.com/Sroberts03/pickup-sub000/internal/models"
)

// TestHelper provides utility functions for tests
type TestHelper struct {
	t *testing.T
}

func NewTestHelper(t *testing.T) *TestHelper {
	return &TestHelper{t: t}
}

// AssertError checks if an error occurred when it should (or shouldn't)
func (h *TestHelper) AssertError(err error, shouldErr bool, testName string) {
	if (err != nil) != shouldErr {
		if shouldErr {
			h.t.Errorf("%s: expected error but got nil", testName)
		} else {
			h.t.Errorf("%s: unexpected error: %v", testName, err)
		}
	}
}

// AssertEqual checks if two values are equal
func (h *TestHelper) AssertEqual(got, want interface{}, testName string) {
	if got != want {
		h.t.Errorf("%s: got %v, want %v", testName, got, want)
	}
}

// TestMessage creates a confirmed test message with default content.
func TestMessage(id, groupID, senderID uint) models.Message {
	return models.Message{
		ID:       id,
		GroupID:  groupID,
		SenderID: senderID,
		Content:  "Test message",
		SentAt:   time.Date(2025, 6, 14, 18, 0, 0, 0, time.UTC).Add(time.Duration(id) * time.Minute),
		Status:   models.StatusSent,
	}
}

// TestProfile creates a test profile with default values.
func TestProfile(id uint, username string) models.Profile {
	if username == "" {
		username = "testuser"
	}
	return models.Profile{
		ID:       id,
		Username: username,
		FullName: "Test User",
		Avatar:   "https://example.com/avatar.jpg",
	}
}

// MessageIDs extracts the IDs of a message sequence in order.
func MessageIDs(msgs []models.Message) []uint {
	ids := make([]uint, len(msgs))
	for i, m := range msgs {
		ids[i] = m.ID
	}
	return ids
}
