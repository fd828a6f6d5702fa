package alert_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wardenhq/warden/internal/alert"
	"github.com/wardenhq/warden/internal/domain"
	"github.com/wardenhq/warden/internal/messenger"
)

type fakeMessenger struct {
	sent     []string
	failWith error
}

func (f *fakeMessenger) SendMessage(_ context.Context, _, text string) (messenger.MessageID, error) {
	if f.failWith != nil {
		return "", f.failWith
	}
	f.sent = append(f.sent, text)
	return "msg-1", nil
}

func (f *fakeMessenger) SendNotification(_ context.Context, _, _ string) error { return nil }
func (f *fakeMessenger) Platform() string                                      { return "fake" }

func TestChannelNotifier_Deliver(t *testing.T) {
	t.Parallel()

	msgr := &fakeMessenger{}
	sink := alert.NewChannelNotifier(msgr, "staff-channel")

	err := sink.Deliver(context.Background(), alert.Alert{
		Kind:      domain.EventPermanentExclusion,
		TargetID:  "1001",
		ActorID:   "cohost-1",
		Reason:    "repeated abuse",
		CreatedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	})
	require.NoError(t, err)

	require.Len(t, msgr.sent, 1)
	assert.Contains(t, msgr.sent[0], "Permanent exclusion")
	assert.Contains(t, msgr.sent[0], "1001")
	assert.Contains(t, msgr.sent[0], "cohost-1")
	assert.Contains(t, msgr.sent[0], "repeated abuse")
}

func TestFormat_SystemAlertOmitsActor(t *testing.T) {
	t.Parallel()

	text := alert.Format(alert.Alert{
		Kind:      domain.EventEvasionFlagged,
		TargetID:  "2002",
		Reason:    "display name matches excluded member 1001",
		CreatedAt: time.Now(),
	})

	assert.Contains(t, text, "Possible ban evasion")
	assert.NotContains(t, text, "(by ")
}

func TestMulti_ContinuesPastFailingSink(t *testing.T) {
	t.Parallel()

	broken := alert.NewChannelNotifier(&fakeMessenger{failWith: errors.New("boom")}, "c1")
	working := &fakeMessenger{}
	sinks := alert.Multi{broken, alert.NewChannelNotifier(working, "c2")}

	err := sinks.Deliver(context.Background(), alert.Alert{
		Kind:     domain.EventConcernReported,
		TargetID: "1001",
	})

	// The first error is surfaced, but the second sink still received the alert.
	require.Error(t, err)
	assert.Len(t, working.sent, 1)
}
