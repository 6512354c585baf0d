package notifications

import (
	"bytes"
	"fmt"
	"html/template"
	"strings"
	"time"

	"github.com/brandsentry/sentiment-bot/internal/config"
	"github.com/brandsentry/sentiment-bot/internal/models"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"gopkg.in/gomail.v2"
)

// Service delivers alerts and summaries via the configured channels
// (Teams webhook, email). Channels are independent: both are attempted and
// per-channel failures are joined into a single error.
type Service struct {
	config *config.Config
	client *resty.Client
}

// Ensure Service implements NotificationInterface
var _ NotificationInterface = (*Service)(nil)

// TeamsMessage represents a Microsoft Teams MessageCard payload
type TeamsMessage struct {
	Type     string         `json:"@type"`
	Context  string         `json:"@context"`
	Title    string         `json:"title"`
	Text     string         `json:"text"`
	Sections []TeamsSection `json:"sections,omitempty"`
}

type TeamsSection struct {
	ActivityTitle string      `json:"activityTitle,omitempty"`
	ActivityText  string      `json:"activityText,omitempty"`
	Facts         []TeamsFact `json:"facts,omitempty"`
	Markdown      bool        `json:"markdown,omitempty"`
}

type TeamsFact struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// NewService creates a new notification service
func NewService(cfg *config.Config) *Service {
	return &Service{
		config: cfg,
		client: resty.New().SetTimeout(30 * time.Second),
	}
}

// SendAlert delivers an alert through every configured channel.
func (s *Service) SendAlert(alert *models.Alert, result *models.SentimentResult) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(s.buildAlertTeamsMessage(alert, result)); err != nil {
			logrus.Errorf("Failed to send Teams alert: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Infof("Sent alert %d to Teams", alert.ID)
		}
	}

	if s.config.AlertEmail != "" {
		if err := s.sendAlertEmail(alert, result); err != nil {
			logrus.Errorf("Failed to send alert email: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Infof("Sent alert %d via email", alert.ID)
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// SendSummary delivers the daily summary through every configured channel.
func (s *Service) SendSummary(summary *models.SummaryData) error {
	var errors []string

	if s.config.TeamsWebhookURL != "" {
		if err := s.sendToTeams(s.buildSummaryTeamsMessage(summary)); err != nil {
			logrus.Errorf("Failed to send Teams summary: %v", err)
			errors = append(errors, fmt.Sprintf("Teams: %v", err))
		} else {
			logrus.Info("Sent daily summary to Teams")
		}
	}

	if s.config.AlertEmail != "" {
		if err := s.sendSummaryEmail(summary); err != nil {
			logrus.Errorf("Failed to send summary email: %v", err)
			errors = append(errors, fmt.Sprintf("Email: %v", err))
		} else {
			logrus.Info("Sent daily summary via email")
		}
	}

	if len(errors) > 0 {
		return fmt.Errorf("notification errors: %s", strings.Join(errors, "; "))
	}

	return nil
}

// GenerateResponseRecommendation authors a suggested response for the team
// handling the alert. Pure text templating on the result's urgency and
// content signals.
func (s *Service) GenerateResponseRecommendation(result *models.SentimentResult) string {
	var b strings.Builder

	switch result.Urgency {
	case models.UrgencyCritical:
		b.WriteString("Respond within 1 hour. Escalate to a senior support representative and ")
		b.WriteString("offer direct contact (phone or private channel). ")
	case models.UrgencyHigh:
		b.WriteString("Respond within 4 hours. Acknowledge the problem publicly and move ")
		b.WriteString("details to a private channel. ")
	case models.UrgencyMedium:
		b.WriteString("Respond within 24 hours with an acknowledgment and a concrete next step. ")
	default:
		b.WriteString("Monitor the conversation; respond if it gains engagement. ")
	}

	lower := strings.ToLower(result.Text)
	switch {
	case strings.Contains(lower, "refund") || strings.Contains(lower, "cancel"):
		b.WriteString("The customer mentions refund or cancellation: involve billing and state the refund policy clearly.")
	case strings.Contains(lower, "sue") || strings.Contains(lower, "lawyer") || strings.Contains(lower, "legal"):
		b.WriteString("Legal action is mentioned: loop in the legal team before responding publicly.")
	case result.Category == models.CategoryVeryNegative:
		b.WriteString("Apologize specifically for the experience described, not generically.")
	default:
		b.WriteString("Thank the customer for the feedback and ask for specifics if the complaint is vague.")
	}

	return b.String()
}

func (s *Service) sendToTeams(message *TeamsMessage) error {
	resp, err := s.client.R().
		SetHeader("Content-Type", "application/json").
		SetBody(message).
		Post(s.config.TeamsWebhookURL)

	if err != nil {
		return fmt.Errorf("failed to send Teams message: %w", err)
	}

	if resp.StatusCode() != 200 {
		return fmt.Errorf("Teams webhook returned status %d: %s", resp.StatusCode(), string(resp.Body()))
	}

	return nil
}

func (s *Service) buildAlertTeamsMessage(alert *models.Alert, result *models.SentimentResult) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   fmt.Sprintf("Sentiment Alert [%s]", strings.ToUpper(alert.Urgency)),
		Text:    alert.Message,
	}

	facts := []TeamsFact{
		{Name: "Urgency", Value: alert.Urgency},
		{Name: "Score", Value: fmt.Sprintf("%.3f", result.Score)},
		{Name: "Confidence", Value: fmt.Sprintf("%.3f", result.Confidence)},
		{Name: "Source", Value: result.Source},
	}
	if result.Author != "" {
		facts = append(facts, TeamsFact{Name: "Author", Value: result.Author})
	}

	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Details",
		Facts:         facts,
		Markdown:      true,
	})

	text := result.Text
	if len(text) > 280 {
		text = text[:280] + "..."
	}
	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Mention",
		ActivityText:  text,
		Markdown:      true,
	})

	if alert.ResponseRecommendation != "" {
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Recommended Response",
			ActivityText:  alert.ResponseRecommendation,
			Markdown:      true,
		})
	}

	return message
}

func (s *Service) buildSummaryTeamsMessage(summary *models.SummaryData) *TeamsMessage {
	message := &TeamsMessage{
		Type:    "MessageCard",
		Context: "https://schema.org/extensions",
		Title:   "Daily Sentiment Summary",
		Text: fmt.Sprintf("%d mentions in the last 24 hours, %d negative",
			summary.TotalMentions, summary.NegativeMentions),
	}

	facts := []TeamsFact{
		{Name: "Total Mentions", Value: fmt.Sprintf("%d", summary.TotalMentions)},
		{Name: "Negative Mentions", Value: fmt.Sprintf("%d", summary.NegativeMentions)},
		{Name: "Alerts Created", Value: fmt.Sprintf("%d", summary.TotalAlerts)},
		{Name: "Critical / High", Value: fmt.Sprintf("%d / %d", summary.CriticalAlerts, summary.HighAlerts)},
		{Name: "Generated", Value: summary.GeneratedAt.Format("2006-01-02 15:04:05 UTC")},
	}

	message.Sections = append(message.Sections, TeamsSection{
		ActivityTitle: "Summary",
		Facts:         facts,
		Markdown:      true,
	})

	if len(summary.RecentCritical) > 0 {
		var lines []string
		for i, alert := range summary.RecentCritical {
			if i >= 5 {
				break
			}
			lines = append(lines, fmt.Sprintf("**[%s]** %s (%s)",
				alert.Urgency, alert.Message, alert.CreatedAt.Format("Jan 2 15:04")))
		}
		message.Sections = append(message.Sections, TeamsSection{
			ActivityTitle: "Recent Critical/High Alerts",
			ActivityText:  strings.Join(lines, "\n\n"),
			Markdown:      true,
		})
	}

	return message
}

func (s *Service) sendAlertEmail(alert *models.Alert, result *models.SentimentResult) error {
	subject := fmt.Sprintf("[%s] Sentiment Alert - %s", strings.ToUpper(alert.Urgency), result.Source)

	htmlBody, err := buildHTML(alertEmailTemplate, struct {
		Alert  *models.Alert
		Result *models.SentimentResult
	}{alert, result})
	if err != nil {
		return fmt.Errorf("failed to build alert email HTML: %w", err)
	}

	textBody := s.buildAlertEmailText(alert, result)
	return s.sendEmail(subject, textBody, htmlBody)
}

func (s *Service) sendSummaryEmail(summary *models.SummaryData) error {
	subject := fmt.Sprintf("Daily Sentiment Summary - %d mentions, %d alerts",
		summary.TotalMentions, summary.TotalAlerts)

	htmlBody, err := buildHTML(summaryEmailTemplate, summary)
	if err != nil {
		return fmt.Errorf("failed to build summary email HTML: %w", err)
	}

	textBody := s.buildSummaryEmailText(summary)
	return s.sendEmail(subject, textBody, htmlBody)
}

func (s *Service) sendEmail(subject, textBody, htmlBody string) error {
	m := gomail.NewMessage()
	m.SetHeader("From", s.config.SMTPUsername)
	m.SetHeader("To", s.config.AlertEmail)
	m.SetHeader("Subject", subject)
	m.SetBody("text/plain", textBody)
	m.AddAlternative("text/html", htmlBody)

	d := gomail.NewDialer(s.config.SMTPHost, s.config.SMTPPort, s.config.SMTPUsername, s.config.SMTPPassword)

	if err := d.DialAndSend(m); err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}

	return nil
}

func (s *Service) buildAlertEmailText(alert *models.Alert, result *models.SentimentResult) string {
	var text strings.Builder

	text.WriteString(fmt.Sprintf("SENTIMENT ALERT [%s]\n", strings.ToUpper(alert.Urgency)))
	text.WriteString("=====================\n\n")
	text.WriteString(fmt.Sprintf("%s\n\n", alert.Message))
	text.WriteString(fmt.Sprintf("Score: %.3f (confidence %.3f)\n", result.Score, result.Confidence))
	text.WriteString(fmt.Sprintf("Category: %s\n", result.Category))
	text.WriteString(fmt.Sprintf("Source: %s\n", result.Source))
	if result.Author != "" {
		text.WriteString(fmt.Sprintf("Author: %s\n", result.Author))
	}
	if result.URL != "" {
		text.WriteString(fmt.Sprintf("URL: %s\n", result.URL))
	}
	text.WriteString(fmt.Sprintf("\nMention:\n%s\n", result.Text))
	if alert.ResponseRecommendation != "" {
		text.WriteString(fmt.Sprintf("\nRecommended response:\n%s\n", alert.ResponseRecommendation))
	}
	text.WriteString("\n---\nThis alert was generated automatically by the sentiment bot.\n")

	return text.String()
}

func (s *Service) buildSummaryEmailText(summary *models.SummaryData) string {
	var text strings.Builder

	text.WriteString("DAILY SENTIMENT SUMMARY\n")
	text.WriteString("=======================\n")
	text.WriteString(fmt.Sprintf("Generated: %s\n\n", summary.GeneratedAt.Format("2006-01-02 15:04:05 UTC")))
	text.WriteString(fmt.Sprintf("Total Mentions: %d\n", summary.TotalMentions))
	text.WriteString(fmt.Sprintf("Negative Mentions: %d\n", summary.NegativeMentions))
	text.WriteString(fmt.Sprintf("Alerts Created: %d\n", summary.TotalAlerts))
	text.WriteString(fmt.Sprintf("Critical Alerts: %d\n", summary.CriticalAlerts))
	text.WriteString(fmt.Sprintf("High Alerts: %d\n", summary.HighAlerts))

	if len(summary.SourceCounts) > 0 {
		text.WriteString("\nMENTIONS BY SOURCE\n")
		text.WriteString("==================\n")
		for source, count := range summary.SourceCounts {
			text.WriteString(fmt.Sprintf("%s: %d\n", source, count))
		}
	}

	if len(summary.RecentCritical) > 0 {
		text.WriteString("\nRECENT CRITICAL/HIGH ALERTS\n")
		text.WriteString("===========================\n")
		for i, alert := range summary.RecentCritical {
			if i >= 5 {
				break
			}
			text.WriteString(fmt.Sprintf("%d. [%s] %s (%s)\n", i+1, alert.Urgency,
				alert.Message, alert.CreatedAt.Format("Jan 2, 2006 15:04")))
		}
	}

	text.WriteString("\n---\nThis summary was generated automatically by the sentiment bot.\n")

	return text.String()
}

func buildHTML(tmpl string, data interface{}) (string, error) {
	t, err := template.New("email").Funcs(template.FuncMap{
		"upper": strings.ToUpper,
		"truncate": func(s string, length int) string {
			if len(s) <= length {
				return s
			}
			return s[:length] + "..."
		},
	}).Parse(tmpl)
	if err != nil {
		return "", err
	}

	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}

	return buf.String(), nil
}

const alertEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Sentiment Alert</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { color: white; padding: 20px; border-radius: 5px; background-color: #d13438; }
        .header.high { background-color: #e8830c; }
        .header.medium { background-color: #ffb900; }
        .detail { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .mention { border-left: 4px solid #d13438; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .recommendation { border-left: 4px solid #0078d4; padding: 10px; margin: 10px 0; background-color: #fafafa; }
    </style>
</head>
<body>
    <div class="header {{.Alert.Urgency}}">
        <h1>Sentiment Alert [{{.Alert.Urgency | upper}}]</h1>
        <p>{{.Alert.Message}}</p>
    </div>

    <div class="detail">
        <p><strong>Score:</strong> {{printf "%.3f" .Result.Score}} (confidence {{printf "%.3f" .Result.Confidence}})</p>
        <p><strong>Category:</strong> {{.Result.Category}}</p>
        <p><strong>Source:</strong> {{.Result.Source}}</p>
        {{if .Result.Author}}<p><strong>Author:</strong> {{.Result.Author}}</p>{{end}}
        {{if .Result.URL}}<p><strong>URL:</strong> <a href="{{.Result.URL}}">{{.Result.URL}}</a></p>{{end}}
    </div>

    <div class="mention">
        <p>{{truncate .Result.Text 500}}</p>
    </div>

    {{if .Alert.ResponseRecommendation}}
    <h2>Recommended Response</h2>
    <div class="recommendation">
        <p>{{.Alert.ResponseRecommendation}}</p>
    </div>
    {{end}}

    <hr>
    <p><small>This alert was generated automatically by the sentiment bot.</small></p>
</body>
</html>
`

const summaryEmailTemplate = `
<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <title>Daily Sentiment Summary</title>
    <style>
        body { font-family: Arial, sans-serif; margin: 20px; }
        .header { background-color: #0078d4; color: white; padding: 20px; border-radius: 5px; }
        .summary { background-color: #f5f5f5; padding: 15px; margin: 20px 0; border-radius: 5px; }
        .alert { border-left: 4px solid #d13438; padding: 10px; margin: 10px 0; background-color: #fafafa; }
        .alert-meta { color: #666; font-size: 0.9em; }
    </style>
</head>
<body>
    <div class="header">
        <h1>Daily Sentiment Summary</h1>
        <p>Generated {{.GeneratedAt.Format "January 2, 2006 at 3:04 PM UTC"}}</p>
    </div>

    <div class="summary">
        <h2>Last 24 Hours</h2>
        <p><strong>Total Mentions:</strong> {{.TotalMentions}}</p>
        <p><strong>Negative Mentions:</strong> {{.NegativeMentions}}</p>
        <p><strong>Alerts Created:</strong> {{.TotalAlerts}}</p>
        <p><strong>Critical / High Alerts:</strong> {{.CriticalAlerts}} / {{.HighAlerts}}</p>
    </div>

    {{if .SourceCounts}}
    <h2>Mentions by Source</h2>
    <div class="summary">
        {{range $source, $count := .SourceCounts}}
        <p><strong>{{$source}}:</strong> {{$count}}</p>
        {{end}}
    </div>
    {{end}}

    {{if .RecentCritical}}
    <h2>Recent Critical/High Alerts</h2>
    {{range $index, $alert := .RecentCritical}}
        {{if lt $index 5}}
        <div class="alert">
            <p>{{$alert.Message}}</p>
            <div class="alert-meta">[{{$alert.Urgency}}] {{$alert.CreatedAt.Format "Jan 2, 2006 15:04"}}</div>
        </div>
        {{end}}
    {{end}}
    {{end}}

    <hr>
    <p><small>This summary was generated automatically by the sentiment bot.</small></p>
</body>
</html>
`
