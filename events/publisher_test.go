package events

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderKeepsOrder(t *testing.T) {
	r := &Recorder{}
	require.NoError(t, r.PublishJSON(context.Background(), BookingCreated, map[string]string{"booking_id": "b1"}))
	require.NoError(t, r.PublishJSON(context.Background(), PaymentVerified, nil))
	assert.Equal(t, []string{BookingCreated, PaymentVerified}, r.Keys())
}

func TestNopPublisher(t *testing.T) {
	var p Publisher = Nop{}
	assert.NoError(t, p.PublishJSON(context.Background(), PointsRedeemed, struct{}{}))
	assert.NoError(t, p.Close())
}
