package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnhan0211/serverzola/internal/models"
)

func TestNewPublisherWithoutBrokers(t *testing.T) {
	assert.Nil(t, NewPublisher(nil, "a", "b"))
	assert.Nil(t, NewPublisher([]string{}, "a", "b"))
}

func TestNilPublisherDropsEverything(t *testing.T) {
	var p *Publisher
	ctx := context.Background()

	require.NoError(t, p.MessageSent(ctx, &models.Message{ID: "m1"}))
	require.NoError(t, p.NotificationCreated(ctx, &models.Notification{ID: "n1"}))
	require.NoError(t, p.Close())
}

func TestNewPublisherConfiguresTopics(t *testing.T) {
	p := NewPublisher([]string{"broker:9092"}, "msgs", "notifs")
	require.NotNil(t, p)
	assert.Equal(t, "msgs", p.topicMessageSent)
	assert.Equal(t, "notifs", p.topicNotification)
	require.NoError(t, p.Close())
}
