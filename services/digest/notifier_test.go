package digest

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"mimiecho/lib/scrapers/navercafe"

	"github.com/stretchr/testify/require"
)

func TestNotifierSend(t *testing.T) {
	var captured webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "application/json", r.Header.Get("content-type"))
		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		require.NoError(t, json.Unmarshal(body, &captured))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	notifier := NewDiscordNotifier(server.URL)
	post := navercafe.Post{
		ID:        1234,
		Title:     "9월 정기 모임 안내",
		Author:    "관리자",
		WrittenAt: "2026.08.20.",
		URL:       "https://cafe.naver.com/testcafe/1234",
	}
	summary := Summary{
		Topics:    []string{"정기 모임 일정"},
		Decisions: []string{"9월 7일로 확정"},
	}

	require.NoError(t, notifier.Send(context.Background(), post, summary))

	require.Equal(t, botUsername, captured.Username)
	require.Len(t, captured.Embeds, 1)

	e := captured.Embeds[0]
	require.Equal(t, "📝 9월 정기 모임 안내", e.Title)
	require.Equal(t, post.URL, e.Url)
	require.Equal(t, colorNaverGreen, e.Color)
	require.Contains(t, e.Description, "정기 모임 일정")
	require.Contains(t, e.Description, "9월 7일로 확정")
	// empty action items render as the placeholder, not as nothing
	require.Contains(t, e.Description, emptySectionMarker)

	require.Len(t, e.Fields, 3)
	require.Equal(t, "관리자", e.Fields[0].Value)
	require.Equal(t, "2026.08.20.", e.Fields[1].Value)
	require.Contains(t, e.Fields[2].Value, post.URL)
	require.Equal(t, footerText, e.Footer.Text)
}

func TestNotifierSendError(t *testing.T) {
	var captured webhookPayload
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	notifier := NewDiscordNotifier(server.URL)
	require.NoError(t, notifier.SendError(context.Background(), "게시글 1234 요약 실패"))

	require.Len(t, captured.Embeds, 1)
	require.Equal(t, colorError, captured.Embeds[0].Color)
	require.Contains(t, captured.Embeds[0].Description, "게시글 1234 요약 실패")
}

func TestNotifierNon2xxIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"message": "Invalid Webhook Token"}`, http.StatusUnauthorized)
	}))
	defer server.Close()

	notifier := NewDiscordNotifier(server.URL)
	err := notifier.SendNoPostsNotice(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "401")
}

func TestBuildDescription(t *testing.T) {
	summary := Summary{
		Topics:      []string{"주제 하나", "주제 둘"},
		ActionItems: []string{"담당자 지정"},
	}

	description := buildDescription(summary, embedDescriptionLimit)
	require.Contains(t, description, "**📋 핵심 주제**")
	require.Contains(t, description, "**✅ 결정된 사항**")
	require.Contains(t, description, "**📌 향후 행동 지침 (Action Items)**")
	require.Contains(t, description, "- 주제 하나")
	require.Contains(t, description, "- 주제 둘")
	require.Contains(t, description, "- 담당자 지정")
	// the decisions section is empty and renders the placeholder
	require.Contains(t, description, "- "+emptySectionMarker)
}

func TestBuildDescriptionRespectsLimit(t *testing.T) {
	summary := Summary{
		Topics:      []string{strings.Repeat("아주 긴 주제 설명 ", 400)},
		Decisions:   []string{strings.Repeat("아주 긴 결정 사항 ", 400)},
		ActionItems: []string{strings.Repeat("아주 긴 행동 지침 ", 400)},
	}

	description := buildDescription(summary, embedDescriptionLimit)
	require.LessOrEqual(t, utf8.RuneCountInString(description), embedDescriptionLimit)
	// every heading survives truncation
	require.Contains(t, description, "**📋 핵심 주제**")
	require.Contains(t, description, "**✅ 결정된 사항**")
	require.Contains(t, description, "**📌 향후 행동 지침 (Action Items)**")
}

func TestBuildDescriptionDoesNotMutateSummary(t *testing.T) {
	longTopic := strings.Repeat("아주 긴 주제 설명 ", 400)
	longAction := strings.Repeat("아주 긴 행동 지침 ", 400)
	summary := Summary{
		Topics:      []string{longTopic, "짧은 주제"},
		ActionItems: []string{longAction},
	}

	buildDescription(summary, embedDescriptionLimit)

	// the over-budget path trims its own copy, the caller keeps the
	// full text for retries or a second notifier
	require.Equal(t, []string{longTopic, "짧은 주제"}, summary.Topics)
	require.Equal(t, []string{longAction}, summary.ActionItems)
}
