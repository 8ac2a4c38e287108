package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEveryTypeHasTemplate(t *testing.T) {
	for _, nt := range NotificationTypes() {
		tmpl, ok := TemplateFor(nt)
		require.True(t, ok, "type %s has no template", nt)
		assert.NotEmpty(t, tmpl.Category, "type %s", nt)
		assert.NotEmpty(t, tmpl.Priority, "type %s", nt)
	}
	assert.Len(t, NotificationTypes(), len(notificationTemplates))
}

func TestTemplateForUnknownType(t *testing.T) {
	_, ok := TemplateFor(NotificationType("made_up"))
	assert.False(t, ok)
}

func TestDefaultChannelPreferencesFollowTemplate(t *testing.T) {
	prefs := DefaultChannelPreferences(NotificationBookingConfirmed)
	assert.Equal(t, ChannelPreferences{Push: true, Email: true, SMS: true, InApp: true}, prefs)

	prefs = DefaultChannelPreferences(NotificationMessageReceived)
	assert.Equal(t, ChannelPreferences{Push: true, Email: false, SMS: false, InApp: true}, prefs)

	prefs = DefaultChannelPreferences(NotificationReviewReceived)
	assert.Equal(t, ChannelPreferences{Push: true, Email: true, SMS: false, InApp: true}, prefs)
}

func TestAllChannelsCoversEveryChannel(t *testing.T) {
	assert.ElementsMatch(t, []Channel{ChannelPush, ChannelEmail, ChannelSMS, ChannelWebsocket, ChannelInApp}, AllChannels)
}

func TestPreferenceRowRoundTrip(t *testing.T) {
	row := &NotificationPreference{ChannelPush: true, ChannelSMS: true}
	assert.Equal(t, ChannelPreferences{Push: true, SMS: true}, row.Channels())
}
