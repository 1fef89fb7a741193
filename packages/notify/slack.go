package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/abdul-hamid-achik/branchspec/packages/http"
)

// SlackNotifier sends notifications to Slack via webhook
type SlackNotifier struct {
	webhookURL string
	channel    string
	username   string
	iconEmoji  string
	client     *http.Client
	now        func() time.Time
}

// SlackOption is a functional option for SlackNotifier
type SlackOption func(*SlackNotifier)

// WithSlackChannel sets the Slack channel
func WithSlackChannel(channel string) SlackOption {
	return func(s *SlackNotifier) {
		s.channel = channel
	}
}

// WithSlackUsername sets the Slack bot username
func WithSlackUsername(username string) SlackOption {
	return func(s *SlackNotifier) {
		s.username = username
	}
}

// WithSlackIconEmoji sets the Slack bot icon emoji
func WithSlackIconEmoji(emoji string) SlackOption {
	return func(s *SlackNotifier) {
		s.iconEmoji = emoji
	}
}

// WithSlackClient replaces the HTTP client used to reach the webhook
func WithSlackClient(client *http.Client) SlackOption {
	return func(s *SlackNotifier) {
		s.client = client
	}
}

// NewSlackNotifier creates a new Slack notifier
func NewSlackNotifier(webhookURL string, opts ...SlackOption) *SlackNotifier {
	s := &SlackNotifier{
		webhookURL: webhookURL,
		username:   "branchspec",
		iconEmoji:  ":deciduous_tree:",
		client:     http.NewClient(http.WithTimeout(10 * time.Second)),
		now:        time.Now,
	}

	for _, opt := range opts {
		opt(s)
	}

	return s
}

// Name returns the name of the notifier
func (s *SlackNotifier) Name() string {
	return "slack"
}

// slackMessage represents a Slack webhook message
type slackMessage struct {
	Channel     string            `json:"channel,omitempty"`
	Username    string            `json:"username,omitempty"`
	IconEmoji   string            `json:"icon_emoji,omitempty"`
	Attachments []slackAttachment `json:"attachments"`
}

// slackAttachment represents a Slack message attachment
type slackAttachment struct {
	Color  string       `json:"color"`
	Title  string       `json:"title"`
	Text   string       `json:"text,omitempty"`
	Fields []slackField `json:"fields,omitempty"`
	Footer string       `json:"footer,omitempty"`
	TS     int64        `json:"ts,omitempty"`
}

// slackField represents a field in a Slack attachment
type slackField struct {
	Title string `json:"title"`
	Value string `json:"value"`
	Short bool   `json:"short"`
}

// Notify sends a notification to Slack
func (s *SlackNotifier) Notify(ctx context.Context, summary *RunSummary) error {
	color := "good"
	title := "All checks passed!"
	emoji := ":white_check_mark:"

	switch {
	case summary.Fatal != "":
		color = "danger"
		title = "Run aborted"
		emoji = ":rotating_light:"
	case summary.FailedChecks > 0:
		color = "danger"
		title = fmt.Sprintf("%d check(s) failed", summary.FailedChecks)
		emoji = ":x:"
	case summary.IsRecovery:
		title = "Checks recovered!"
		emoji = ":tada:"
	}

	fields := []slackField{
		{Title: "Total Checks", Value: fmt.Sprintf("%d", summary.TotalChecks), Short: true},
		{Title: "Passed", Value: fmt.Sprintf("%d", summary.PassedChecks), Short: true},
		{Title: "Failed", Value: fmt.Sprintf("%d", summary.FailedChecks), Short: true},
		{Title: "Duration", Value: summary.Duration.Round(time.Millisecond).String(), Short: true},
	}
	if summary.Repository != "" {
		fields = append(fields, slackField{Title: "Repository", Value: summary.Repository, Short: true})
	}
	if len(summary.Suites) > 0 {
		fields = append(fields, slackField{Title: "Suites", Value: strings.Join(summary.Suites, ", "), Short: true})
	}

	var text strings.Builder
	if summary.Fatal != "" {
		fmt.Fprintf(&text, "*Fatal error:* %s\n", summary.Fatal)
	}
	if len(summary.FailedResults) > 0 {
		text.WriteString("*Failed checks:*\n")
		for _, fc := range summary.FailedResults {
			fmt.Fprintf(&text, "• `%s` (%s)\n", fc.Name, fc.Suite)
			if fc.Error != "" {
				fmt.Fprintf(&text, "  - %s\n", fc.Error)
			}
		}
	}

	msg := slackMessage{
		Channel:   s.channel,
		Username:  s.username,
		IconEmoji: s.iconEmoji,
		Attachments: []slackAttachment{{
			Color:  color,
			Title:  fmt.Sprintf("%s %s", emoji, title),
			Text:   text.String(),
			Fields: fields,
			Footer: "branchspec",
			TS:     s.now().Unix(),
		}},
	}

	if _, err := s.client.PostJSON(ctx, s.webhookURL, msg); err != nil {
		return fmt.Errorf("failed to send Slack notification: %w", err)
	}
	return nil
}
