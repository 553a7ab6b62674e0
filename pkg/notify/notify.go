// Package notify reports swap and batch outcomes to operators
package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/jakechorley/residency-scheduler/pkg/core/conflicts"
	"github.com/jakechorley/residency-scheduler/pkg/core/model"
)

type Level string

const (
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notification is a single operator-facing message
type Notification struct {
	Level   Level
	Title   string
	Message string
}

// Notifier delivers notifications
type Notifier interface {
	Notify(ctx context.Context, n Notification) error
}

// LogNotifier writes notifications to the application log
type LogNotifier struct {
	logger *zap.Logger
}

func NewLogNotifier(logger *zap.Logger) *LogNotifier {
	return &LogNotifier{logger: logger}
}

func (l *LogNotifier) Notify(ctx context.Context, n Notification) error {
	fields := []zap.Field{zap.String("title", n.Title), zap.String("message", n.Message)}
	switch n.Level {
	case LevelError:
		l.logger.Error("Notification", fields...)
	case LevelWarning:
		l.logger.Warn("Notification", fields...)
	default:
		l.logger.Info("Notification", fields...)
	}
	return nil
}

// Multi fans a notification out to every notifier, returning all failures
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, n Notification) error {
	var errs []error
	for _, notifier := range m {
		if err := notifier.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// EmailSender sends a plain text email
type EmailSender interface {
	SendEmail(to, subject, body string) error
}

// EmailNotifier emails warnings and errors to a fixed recipient.
// Info notifications are not emailed.
type EmailNotifier struct {
	sender    EmailSender
	recipient string
}

func NewEmailNotifier(sender EmailSender, recipient string) *EmailNotifier {
	return &EmailNotifier{sender: sender, recipient: recipient}
}

func (e *EmailNotifier) Notify(ctx context.Context, n Notification) error {
	if n.Level == LevelInfo {
		return nil
	}
	subject := fmt.Sprintf("[Residency Scheduler] %s", n.Title)
	if err := e.sender.SendEmail(e.recipient, subject, n.Message); err != nil {
		return fmt.Errorf("failed to email notification: %w", err)
	}
	return nil
}

func SwapExecuted(swap *model.SwapRequest) Notification {
	return Notification{
		Level: LevelInfo,
		Title: "Swap executed",
		Message: fmt.Sprintf("Swap %s executed: %s (%s) with %s. It can be rolled back for 24 hours.",
			swap.ID, swap.SourceFacultyID, swap.SourceWeek, swap.TargetFacultyID),
	}
}

func SwapFailed(swap *model.SwapRequest) Notification {
	return Notification{
		Level:   LevelError,
		Title:   "Swap failed",
		Message: fmt.Sprintf("Swap of %s (%s) with %s failed: %s", swap.SourceFacultyID, swap.SourceWeek, swap.TargetFacultyID, swap.Message),
	}
}

func SwapRolledBack(swap *model.SwapRequest, reason string) Notification {
	message := fmt.Sprintf("Swap %s was rolled back", swap.ID)
	if reason != "" {
		message += ": " + reason
	}
	return Notification{Level: LevelWarning, Title: "Swap rolled back", Message: message}
}

// BatchCompleted summarises a batch, listing failed ids when there are any
func BatchCompleted(result *model.BatchResolutionResult) Notification {
	var b strings.Builder
	fmt.Fprintf(&b, "%d of %d violations %s", result.Successful, result.Total, describeMethod(result.Method))
	if result.Failed > 0 {
		fmt.Fprintf(&b, ", %d failed", result.Failed)
	}
	if len(result.RetryableIDs) > 0 {
		fmt.Fprintf(&b, ". Retry: %s", strings.Join(result.RetryableIDs, ", "))
	}
	if unattributed := result.Failed - len(result.RetryableIDs); result.Method == model.ResolutionIgnored && unattributed > 0 {
		fmt.Fprintf(&b, ". %d failed ignores are not attributable to ids; list unresolved violations to find them", unattributed)
	}

	level := LevelInfo
	switch {
	case conflicts.IsPartial(result):
		level = LevelWarning
	case result.Failed > 0:
		level = LevelError
	}
	return Notification{Level: level, Title: "Violation batch complete", Message: b.String()}
}

func describeMethod(method model.ResolutionMethod) string {
	if method == model.ResolutionIgnored {
		return "ignored"
	}
	return "resolved"
}
