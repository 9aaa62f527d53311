package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mimiecho/lib/scrapers/navercafe"
	"mimiecho/lib/textutil"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"google.golang.org/genai"
)

// ErrSummarize is returned when the language-model api call fails or its
// response is unusable.
var ErrSummarize = errors.New("summarization failed")

const systemPrompt = `당신은 회의록 및 커뮤니티 게시글 요약 전문가입니다.
주어진 게시글을 분석하여 핵심 정보만을 추출하고, 명확한 구조로 정리합니다.`

const userPromptTemplate = `다음 네이버 카페 게시글을 분석하여 핵심 내용을 요약해주세요.

---
제목: %s
작성자: %s
작성일: %s

본문:
%s
---

아래 형식에 맞춰 요약해주세요. 각 섹션에 해당하는 내용이 없으면 "해당 없음"으로 표시하세요.

**📋 핵심 주제**
- (이 게시글에서 주요하게 다루는 주제나 논의 사항)

**✅ 결정된 사항**
- (논의 결과 확정된 내용, 합의된 사항)

**📌 향후 행동 지침 (Action Items)**
- (앞으로 해야 할 일, 담당자 및 마감일이 있으면 함께 표기)

규칙:
- 불렛 포인트 형식 사용 (하이픈 ` + "`-`" + ` 사용)
- 인사말, 서론, 결론 등 불필요한 서술 제외
- 핵심 내용만 간결하게 작성
- 한국어로 작성`

const truncationNotice = "\n\n[... 내용이 길어 일부 생략됨]"

// GeminiSummarizer summarizes posts with the Gemini api.
type GeminiSummarizer struct {
	client          *genai.Client
	model           string
	maxContentChars int
}

type GeminiSummarizerOptions struct {
	APIKey string
	// model name, DefaultModel when empty
	Model string
	// content truncation cap in runes, DefaultMaxContentChars when 0
	MaxContentChars int
}

func NewGeminiSummarizer(ctx context.Context, opts GeminiSummarizerOptions) (*GeminiSummarizer, error) {
	if opts.Model == "" {
		opts.Model = DefaultModel
	}
	if opts.MaxContentChars <= 0 {
		opts.MaxContentChars = DefaultMaxContentChars
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  opts.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &GeminiSummarizer{
		client:          client,
		model:           opts.Model,
		maxContentChars: opts.MaxContentChars,
	}, nil
}

// Summarize generates a structured summary for one post. the post's
// content is truncated to the configured cap before submission.
func (s *GeminiSummarizer) Summarize(ctx context.Context, post navercafe.Post) (Summary, error) {
	ctx, span := tracer.Start(ctx, "summarizer:Summarize")
	defer span.End()
	span.SetAttributes(attribute.Int64("article_id", post.ID))

	slog.Info("summarizing post", "article_id", post.ID, "title", textutil.Truncate(post.Title, 60))

	prompt := buildPrompt(post, s.maxContentChars)
	config := &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(systemPrompt, genai.RoleUser),
		MaxOutputTokens:   1024,
	}

	res, err := s.client.Models.GenerateContent(ctx, s.model, genai.Text(prompt), config)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "generate content failed")
		return Summary{}, fmt.Errorf("%w: %v", ErrSummarize, err)
	}
	if len(res.Candidates) == 0 || res.Candidates[0].Content == nil {
		err := fmt.Errorf("%w: empty model response", ErrSummarize)
		span.RecordError(err)
		span.SetStatus(codes.Error, "empty model response")
		return Summary{}, err
	}

	var text string
	for _, part := range res.Candidates[0].Content.Parts {
		if part != nil && part.Text != "" {
			text += part.Text
		}
	}

	summary, err := ParseSummary(text)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "unparseable summary")
		return Summary{}, fmt.Errorf("%w: %w", ErrSummarize, err)
	}

	slog.Info("summary generated",
		"article_id", post.ID,
		"topics", len(summary.Topics),
		"decisions", len(summary.Decisions),
		"action_items", len(summary.ActionItems),
	)
	return summary, nil
}

func buildPrompt(post navercafe.Post, maxContentChars int) string {
	content := post.Content
	truncated := textutil.Truncate(content, maxContentChars)
	if len(truncated) != len(content) {
		slog.Debug("post content truncated",
			"article_id", post.ID,
			"max_chars", maxContentChars,
		)
		content = truncated + truncationNotice
	}

	return fmt.Sprintf(
		userPromptTemplate,
		orDefault(post.Title, "(제목 없음)"),
		orDefault(post.Author, "알 수 없음"),
		orDefault(post.WrittenAt, "알 수 없음"),
		orDefault(content, "(내용 없음)"),
	)
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
