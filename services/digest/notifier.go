package digest

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"mimiecho/lib/scrapers/navercafe"
	"mimiecho/lib/telemetry"
	"mimiecho/lib/textutil"

	"github.com/go-resty/resty/v2"
)

const (
	embedDescriptionLimit = 4096

	colorNaverGreen = 0x03C75A
	colorError      = 0xFF0000
	colorNotice     = 0xAAAAAA

	botUsername = "MimiEcho"
	footerText  = "MimiEcho • 네이버 카페 자동 요약봇"
)

type webhookPayload struct {
	Username string  `json:"username"`
	Content  string  `json:"content"`
	Embeds   []embed `json:"embeds"`
}

type embed struct {
	Title       string       `json:"title,omitempty"`
	Url         string       `json:"url,omitempty"`
	Description string       `json:"description,omitempty"`
	Color       int          `json:"color"`
	Fields      []embedField `json:"fields,omitempty"`
	Footer      *embedFooter `json:"footer,omitempty"`
	Timestamp   string       `json:"timestamp,omitempty"`
}

type embedField struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

type embedFooter struct {
	Text    string `json:"text"`
	IconUrl string `json:"icon_url,omitempty"`
}

// DiscordNotifier delivers post summaries and operational notices to a
// discord channel through a webhook.
type DiscordNotifier struct {
	Http       *resty.Client
	WebhookUrl string
}

func NewDiscordNotifier(webhookUrl string) *DiscordNotifier {
	client := resty.New()
	client.SetTimeout(time.Second * 15)
	telemetry.InstrumentResty(client, "digest/discord")

	return &DiscordNotifier{
		Http:       client,
		WebhookUrl: webhookUrl,
	}
}

// Send posts one summarized article as a rich embed.
func (n *DiscordNotifier) Send(ctx context.Context, post navercafe.Post, summary Summary) error {
	title := "📝 " + orDefault(post.Title, "(제목 없음)")

	payload := webhookPayload{
		Username: botUsername,
		Embeds: []embed{{
			Title:       title,
			Url:         post.URL,
			Color:       colorNaverGreen,
			Description: buildDescription(summary, embedDescriptionLimit),
			Fields: []embedField{
				{Name: "✍️ 작성자", Value: orDefault(post.Author, "알 수 없음"), Inline: true},
				{Name: "📅 작성일", Value: orDefault(post.WrittenAt, "알 수 없음"), Inline: true},
				{Name: "🔗 원문 링크", Value: fmt.Sprintf("[게시글 바로가기](%s)", post.URL)},
			},
			Footer: &embedFooter{
				Text:    footerText,
				IconUrl: "https://ssl.pstatic.net/static/cafe/cafe_pc/favicon/favicon.ico",
			},
			Timestamp: time.Now().UTC().Format(time.RFC3339),
		}},
	}
	return n.post(ctx, payload)
}

// SendError reports an operational failure in the same channel so runs
// never fail silently.
func (n *DiscordNotifier) SendError(ctx context.Context, message string) error {
	payload := webhookPayload{
		Username: botUsername,
		Embeds: []embed{{
			Title:       "❌ MimiEcho 오류 발생",
			Description: fmt.Sprintf("```\n%s\n```", textutil.Truncate(message, embedDescriptionLimit-10)),
			Color:       colorError,
			Footer:      &embedFooter{Text: botUsername},
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}},
	}
	return n.post(ctx, payload)
}

// SendNoPostsNotice posts an informational notice for an empty run.
func (n *DiscordNotifier) SendNoPostsNotice(ctx context.Context) error {
	payload := webhookPayload{
		Username: botUsername,
		Embeds: []embed{{
			Title:       "ℹ️ 새로운 게시글 없음",
			Description: "이번 주기에 새로운 게시글이 없습니다.",
			Color:       colorNotice,
			Footer:      &embedFooter{Text: botUsername},
			Timestamp:   time.Now().UTC().Format(time.RFC3339),
		}},
	}
	return n.post(ctx, payload)
}

func (n *DiscordNotifier) post(ctx context.Context, payload webhookPayload) error {
	res, err := n.Http.R().
		SetContext(ctx).
		SetHeader("content-type", "application/json").
		SetBody(payload).
		Post(n.WebhookUrl)
	if err != nil {
		return fmt.Errorf("discord webhook request failed: %w", err)
	}
	if res.IsError() {
		return fmt.Errorf("discord webhook returned %s: %s", res.Status(), textutil.Truncate(res.String(), 200))
	}
	return nil
}

type descriptionSection struct {
	heading string
	items   []string
}

// buildDescription renders the three summary sections as bulleted
// blocks. when the result would exceed the embed limit, bullet text is
// trimmed evenly while every heading survives.
func buildDescription(summary Summary, limit int) string {
	sections := []descriptionSection{
		{"**📋 핵심 주제**", summary.Topics},
		{"**✅ 결정된 사항**", summary.Decisions},
		{"**📌 향후 행동 지침 (Action Items)**", summary.ActionItems},
	}

	rendered := renderSections(sections)
	if utf8.RuneCountInString(rendered) <= limit {
		return rendered
	}

	// structure cost: everything except the bullet text itself
	structure := 0
	bullets := 0
	for _, section := range sections {
		structure += utf8.RuneCountInString(section.heading) + 2
		if len(section.items) == 0 {
			structure += utf8.RuneCountInString("- " + emptySectionMarker + "\n")
			continue
		}
		for range section.items {
			structure += utf8.RuneCountInString("- …\n")
			bullets++
		}
	}

	share := 0
	if bullets > 0 && limit > structure {
		share = (limit - structure) / bullets
	}
	for i, section := range sections {
		// copy before truncating, the items alias the caller's summary
		items := make([]string, len(section.items))
		copy(items, section.items)
		for j, item := range items {
			if utf8.RuneCountInString(item) > share {
				items[j] = textutil.Truncate(item, share) + "…"
			}
		}
		sections[i].items = items
	}
	return textutil.Truncate(renderSections(sections), limit)
}

func renderSections(sections []descriptionSection) string {
	var b strings.Builder
	for i, section := range sections {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(section.heading + "\n")
		if len(section.items) == 0 {
			b.WriteString("- " + emptySectionMarker + "\n")
			continue
		}
		for _, item := range section.items {
			b.WriteString("- " + item + "\n")
		}
	}
	return strings.TrimRight(b.String(), "\n")
}
