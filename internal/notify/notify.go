package notify

import (
	"context"
	"log/slog"
	"sync"
)

// Level classifies a user-facing notification for toast styling.
type Level string

const (
	LevelSuccess Level = "success"
	LevelError   Level = "error"
)

// Notification is a transient, fire-and-forget message shown to the
// shopper after a cart or wishlist mutation.
type Notification struct {
	Level   Level  `json:"level"`
	Message string `json:"message"`
}

// Success builds a success-styled notification.
func Success(message string) Notification {
	return Notification{Level: LevelSuccess, Message: message}
}

// Notifier delivers notifications to the toast surface. Delivery is
// best-effort; implementations must not fail the mutation that emitted
// the notification.
type Notifier interface {
	Notify(ctx context.Context, n Notification)
}

// LogNotifier writes notifications to the structured log. The HTTP layer
// separately echoes them to the SPA in the response envelope.
type LogNotifier struct {
	logger *slog.Logger
}

// NewLogNotifier creates a log-backed notifier.
func NewLogNotifier(logger *slog.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (n *LogNotifier) Notify(ctx context.Context, msg Notification) {
	n.logger.InfoContext(ctx, "user notification",
		slog.String("level", string(msg.Level)),
		slog.String("message", msg.Message),
	)
}

// Recorder collects notifications so tests and the HTTP layer can assert
// on message text and classification.
type Recorder struct {
	mu   sync.Mutex
	sent []Notification
}

// NewRecorder creates an empty recorder.
func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Notify(_ context.Context, n Notification) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, n)
}

// Sent returns a copy of all recorded notifications in emission order.
func (r *Recorder) Sent() []Notification {
	r.mu.Lock()
	defer r.mu.Unlock()
	cp := make([]Notification, len(r.sent))
	copy(cp, r.sent)
	return cp
}

// Reset discards recorded notifications.
func (r *Recorder) Reset() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = nil
}

// Fanout delivers each notification to every wrapped notifier.
type Fanout []Notifier

func (f Fanout) Notify(ctx context.Context, n Notification) {
	for _, target := range f {
		target.Notify(ctx, n)
	}
}

type recorderKey struct{}

// WithRecorder stores a per-request recorder in the context so the HTTP
// layer can echo emitted notifications back in the response envelope.
func WithRecorder(ctx context.Context, r *Recorder) context.Context {
	return context.WithValue(ctx, recorderKey{}, r)
}

// Recording returns a context carrying a fresh recorder along with the
// recorder itself.
func Recording(ctx context.Context) (context.Context, *Recorder) {
	r := NewRecorder()
	return WithRecorder(ctx, r), r
}

// RecorderFromContext returns the recorder stored in the context, or nil.
func RecorderFromContext(ctx context.Context) *Recorder {
	r, _ := ctx.Value(recorderKey{}).(*Recorder)
	return r
}

// ContextNotifier forwards notifications to the recorder stored in the
// request context, if any. It is a no-op otherwise.
type ContextNotifier struct{}

func (ContextNotifier) Notify(ctx context.Context, n Notification) {
	if r := RecorderFromContext(ctx); r != nil {
		r.Notify(ctx, n)
	}
}
