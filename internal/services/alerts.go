package services

import (
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/twilio/twilio-go"
	twilioApi "github.com/twilio/twilio-go/rest/api/v2010"
)

// SMSSender is implemented by the Twilio client and the mock used in
// development.
type SMSSender interface {
	SendMessage(phoneNumber, message string) error
}

// MockSMSSender logs instead of sending. Default in development.
type MockSMSSender struct {
	logger *logrus.Logger
}

func NewMockSMSSender(logger *logrus.Logger) *MockSMSSender {
	return &MockSMSSender{logger: logger}
}

func (s *MockSMSSender) SendMessage(phoneNumber, message string) error {
	s.logger.Infof("MOCK SMS to %s: %s", phoneNumber, message)
	return nil
}

// TwilioSMSSender sends alerts through the Twilio API.
type TwilioSMSSender struct {
	client     *twilio.RestClient
	fromNumber string
	logger     *logrus.Logger
}

func NewTwilioSMSSender(accountSID, authToken, fromNumber string, logger *logrus.Logger) *TwilioSMSSender {
	client := twilio.NewRestClientWithParams(twilio.ClientParams{
		Username: accountSID,
		Password: authToken,
	})
	return &TwilioSMSSender{
		client:     client,
		fromNumber: fromNumber,
		logger:     logger,
	}
}

func (s *TwilioSMSSender) SendMessage(phoneNumber, message string) error {
	params := &twilioApi.CreateMessageParams{}
	params.SetTo(phoneNumber)
	params.SetFrom(s.fromNumber)
	params.SetBody(message)

	if _, err := s.client.Api.CreateMessage(params); err != nil {
		return fmt.Errorf("failed to send SMS to %s: %w", phoneNumber, err)
	}
	return nil
}

// AlertRateLimiter caps alerts per recipient over a sliding window so a
// volatile slate cannot spam anyone.
type AlertRateLimiter struct {
	mu          sync.Mutex
	sent        map[string][]time.Time
	maxRequests int
	window      time.Duration
}

func NewAlertRateLimiter(maxRequests int, window time.Duration) *AlertRateLimiter {
	return &AlertRateLimiter{
		sent:        make(map[string][]time.Time),
		maxRequests: maxRequests,
		window:      window,
	}
}

func (rl *AlertRateLimiter) Allow(recipient string) error {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	cutoff := now.Add(-rl.window)
	valid := rl.sent[recipient][:0]
	for _, t := range rl.sent[recipient] {
		if t.After(cutoff) {
			valid = append(valid, t)
		}
	}
	rl.sent[recipient] = valid

	if len(valid) >= rl.maxRequests {
		return fmt.Errorf("alert rate limit exceeded: maximum %d per %v", rl.maxRequests, rl.window)
	}
	rl.sent[recipient] = append(rl.sent[recipient], now)
	return nil
}

// AlertService notifies configured recipients when high-urgency edge
// opportunities appear.
type AlertService struct {
	sender      SMSSender
	rateLimiter *AlertRateLimiter
	recipients  []string
	logger      *logrus.Logger
}

func NewAlertService(sender SMSSender, recipients []string, logger *logrus.Logger) *AlertService {
	return &AlertService{
		sender:      sender,
		rateLimiter: NewAlertRateLimiter(5, time.Hour),
		recipients:  recipients,
		logger:      logger,
	}
}

// NotifyHighUrgency sends one summary SMS per recipient. Failures are
// logged, never propagated; alerting is best-effort.
func (s *AlertService) NotifyHighUrgency(title string, edgePct float64, sport string) {
	message := fmt.Sprintf("propedge alert [%s]: %s (edge %.1f%%)", sport, title, edgePct)
	for _, recipient := range s.recipients {
		if err := s.rateLimiter.Allow(recipient); err != nil {
			s.logger.Debugf("Skipping alert to %s: %v", recipient, err)
			continue
		}
		if err := s.sender.SendMessage(recipient, message); err != nil {
			s.logger.Errorf("Failed to alert %s: %v", recipient, err)
		}
	}
}
