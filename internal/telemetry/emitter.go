// Package telemetry fans user-facing notifications and in-context chat
// log entries out to pluggable sinks. The host environment supplies real
// sinks; the engine only ever emits fire-and-forget.
package telemetry

import (
	"context"
	"log"
	"time"
)

// Severity describes the notification severity level.
type Severity string

const (
	SeverityInfo  Severity = "INFO"
	SeverityWarn  Severity = "WARN"
	SeverityError Severity = "ERROR"
)

// ChatEntry is one in-context chat-style log record.
type ChatEntry struct {
	Speaker  string
	Content  string
	PostedAt time.Time
}

// NotificationSink receives user-facing notifications.
type NotificationSink interface {
	Notify(ctx context.Context, severity Severity, message string) error
}

// ChatLogSink receives chat-style log entries.
type ChatLogSink interface {
	PostLog(ctx context.Context, entry ChatEntry) error
}

// Emitter delivers notifications and chat entries to its sinks. Delivery
// is fire-and-forget: sink errors are logged and never returned, and a
// nil emitter or sink is a no-op.
type Emitter struct {
	notifications NotificationSink
	chat          ChatLogSink
	clock         func() time.Time
}

// NewEmitter creates an emitter over the given sinks. Either sink may be
// nil to drop that channel.
func NewEmitter(notifications NotificationSink, chat ChatLogSink) *Emitter {
	return &Emitter{notifications: notifications, chat: chat, clock: time.Now}
}

// Notify delivers one user-facing notification.
func (e *Emitter) Notify(ctx context.Context, severity Severity, message string) {
	if e == nil || e.notifications == nil {
		return
	}
	if err := e.notifications.Notify(ctx, severity, message); err != nil {
		log.Printf("notification delivery failed severity=%s err=%v", severity, err)
	}
}

// PostLog delivers one chat-style log entry, stamping PostedAt when unset.
func (e *Emitter) PostLog(ctx context.Context, entry ChatEntry) {
	if e == nil || e.chat == nil {
		return
	}
	if entry.PostedAt.IsZero() {
		if e.clock == nil {
			entry.PostedAt = time.Now().UTC()
		} else {
			entry.PostedAt = e.clock().UTC()
		}
	}
	if err := e.chat.PostLog(ctx, entry); err != nil {
		log.Printf("chat log delivery failed speaker=%q err=%v", entry.Speaker, err)
	}
}

// LogSink writes notifications and chat entries to the process log. It is
// the default sink for binaries without a host environment.
type LogSink struct{}

// Notify implements NotificationSink.
func (LogSink) Notify(_ context.Context, severity Severity, message string) error {
	log.Printf("notification severity=%s message=%q", severity, message)
	return nil
}

// PostLog implements ChatLogSink.
func (LogSink) PostLog(_ context.Context, entry ChatEntry) error {
	log.Printf("chat entry speaker=%q content=%q", entry.Speaker, entry.Content)
	return nil
}
