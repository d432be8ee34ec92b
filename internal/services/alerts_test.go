package services

import (
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingSender struct {
	messages []string
}

func (s *recordingSender) SendMessage(phoneNumber, message string) error {
	s.messages = append(s.messages, message)
	return nil
}

func TestAlertRateLimiterWindow(t *testing.T) {
	limiter := NewAlertRateLimiter(2, time.Hour)

	require.NoError(t, limiter.Allow("+15551234567"))
	require.NoError(t, limiter.Allow("+15551234567"))
	assert.Error(t, limiter.Allow("+15551234567"))

	// Other recipients have their own budget.
	assert.NoError(t, limiter.Allow("+15559876543"))
}

func TestNotifyHighUrgencyRespectsLimit(t *testing.T) {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	sender := &recordingSender{}
	svc := NewAlertService(sender, []string{"+15551234567"}, log)
	svc.rateLimiter = NewAlertRateLimiter(2, time.Hour)

	for i := 0; i < 5; i++ {
		svc.NotifyHighUrgency("Jalen Marsh Points over", 14.2, "nba")
	}

	assert.Len(t, sender.messages, 2)
	assert.Contains(t, sender.messages[0], "Jalen Marsh Points over")
	assert.Contains(t, sender.messages[0], "nba")
}
