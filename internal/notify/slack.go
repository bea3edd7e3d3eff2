package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// SlackNotifier posts escalations and resolutions to a Slack channel where
// the supervisor team watches the queue.
type SlackNotifier struct {
	client    *slack.Client
	channelID string
}

// NewSlackNotifier creates a Slack-backed notifier.
func NewSlackNotifier(botToken, channelID string) *SlackNotifier {
	return &SlackNotifier{
		client:    slack.New(botToken),
		channelID: channelID,
	}
}

// NotifySupervisor posts the escalated question to the supervisor channel.
func (s *SlackNotifier) NotifySupervisor(ctx context.Context, n SupervisorNotification) error {
	caller := n.CallerPhone
	if n.CallerName != "" {
		caller = fmt.Sprintf("%s (%s)", n.CallerName, n.CallerPhone)
	}

	msg := fmt.Sprintf(
		":rotating_light: *Help needed* — request `%s`\n*Caller:* %s\n*Question:* %s",
		n.RequestID, caller, n.Question,
	)
	if n.Context != "" {
		msg += "\n*Recent conversation:*\n```" + n.Context + "```"
	}

	_, _, err := s.client.PostMessageContext(ctx, s.channelID, slack.MsgOptionText(msg, false))
	if err != nil {
		return fmt.Errorf("failed to post supervisor notification to slack: %w", err)
	}

	return nil
}

// NotifyCallerFollowup posts the resolution so the team can see the
// follow-up went out.
func (s *SlackNotifier) NotifyCallerFollowup(ctx context.Context, f CallerFollowup) error {
	msg := fmt.Sprintf(
		":white_check_mark: Request `%s` resolved. Follow up with %s:\n> %s",
		f.RequestID, f.CallerPhone, f.SupervisorResponse,
	)

	_, _, err := s.client.PostMessageContext(ctx, s.channelID, slack.MsgOptionText(msg, false))
	if err != nil {
		return fmt.Errorf("failed to post follow-up notification to slack: %w", err)
	}

	return nil
}
