package notify

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/avelane/cartwish/pkg/logger"
)

func TestRecorder_CollectsInOrder(t *testing.T) {
	r := NewRecorder()
	ctx := context.Background()

	r.Notify(ctx, Success("Widget added to cart"))
	r.Notify(ctx, Notification{Level: LevelError, Message: "something failed"})

	sent := r.Sent()
	require.Len(t, sent, 2)
	assert.Equal(t, LevelSuccess, sent[0].Level)
	assert.Equal(t, "Widget added to cart", sent[0].Message)
	assert.Equal(t, LevelError, sent[1].Level)
}

func TestRecorder_Reset(t *testing.T) {
	r := NewRecorder()
	r.Notify(context.Background(), Success("x"))
	r.Reset()
	assert.Empty(t, r.Sent())
}

func TestLogNotifier_WritesStructuredEntry(t *testing.T) {
	var buf bytes.Buffer
	n := NewLogNotifier(logger.NewWithWriter("test", "info", &buf))

	n.Notify(context.Background(), Success("Widget added to cart"))

	assert.Contains(t, buf.String(), "user notification")
	assert.Contains(t, buf.String(), "Widget added to cart")
	assert.Contains(t, buf.String(), `"level":"success"`)
}

func TestContextNotifier_RecordsWhenPresent(t *testing.T) {
	r := NewRecorder()
	ctx := WithRecorder(context.Background(), r)

	ContextNotifier{}.Notify(ctx, Success("echoed"))

	sent := r.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, "echoed", sent[0].Message)
}

func TestContextNotifier_NoopWithoutRecorder(t *testing.T) {
	assert.NotPanics(t, func() {
		ContextNotifier{}.Notify(context.Background(), Success("dropped"))
	})
}

func TestFanout_DeliversToAll(t *testing.T) {
	a := NewRecorder()
	b := NewRecorder()

	Fanout{a, b}.Notify(context.Background(), Success("x"))

	assert.Len(t, a.Sent(), 1)
	assert.Len(t, b.Sent(), 1)
}
