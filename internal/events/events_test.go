package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mockSNS struct {
	mock.Mock
}

func (m *mockSNS) Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error) {
	args := m.Called(ctx, params)
	out, _ := args.Get(0).(*sns.PublishOutput)
	return out, args.Error(1)
}

func TestSNSPublisherPublish(t *testing.T) {
	// Arrange
	client := new(mockSNS)
	publisher := NewSNSPublisher(client, "arn:aws:sns:us-east-1:000000000000:orders")
	event := Event{
		Type:       TypeOrderPlaced,
		OrderID:    42,
		UserID:     7,
		Total:      "25.00",
		OccurredAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	}

	var captured *sns.PublishInput
	client.On("Publish", mock.Anything, mock.AnythingOfType("*sns.PublishInput")).
		Run(func(args mock.Arguments) { captured = args.Get(1).(*sns.PublishInput) }).
		Return(&sns.PublishOutput{}, nil)

	// Act
	err := publisher.Publish(context.Background(), event)

	// Assert
	require.NoError(t, err)
	require.NotNil(t, captured)
	assert.Equal(t, "arn:aws:sns:us-east-1:000000000000:orders", *captured.TopicArn)
	assert.Equal(t, TypeOrderPlaced, *captured.MessageAttributes["event_type"].StringValue)

	var decoded Event
	require.NoError(t, json.Unmarshal([]byte(*captured.Message), &decoded))
	assert.Equal(t, event, decoded)
	client.AssertExpectations(t)
}

func TestSNSPublisherWrapsError(t *testing.T) {
	client := new(mockSNS)
	publisher := NewSNSPublisher(client, "arn:topic")
	client.On("Publish", mock.Anything, mock.Anything).Return(nil, errors.New("throttled"))

	err := publisher.Publish(context.Background(), Event{Type: TypeOrderStatusChanged, OrderID: 1})

	assert.ErrorContains(t, err, "sns publish failed for topic arn:topic")
}

func TestNewPublisherWithoutTopicIsNop(t *testing.T) {
	p, err := NewPublisher(context.Background(), "")
	require.NoError(t, err)
	assert.IsType(t, NopPublisher{}, p)
	assert.NoError(t, p.Publish(context.Background(), Event{}))
}
