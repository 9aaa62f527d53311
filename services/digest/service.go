// Package digest runs the cafe-to-discord summary pipeline: load
// watermark, fetch new posts above it, summarize and deliver each in
// ascending id order, then persist the highest fully-delivered id.
package digest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"mimiecho/lib/scrapers/navercafe"
	"mimiecho/lib/textutil"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

var tracer = otel.Tracer("services/digest")

// BoardClient is the authenticated forum board the pipeline reads from.
type BoardClient interface {
	Login(ctx context.Context, cred navercafe.Credential) error
	ResolveClubID(ctx context.Context, cafeName string) (string, error)
	GetNewPosts(ctx context.Context, cafeName, clubID, boardID string, watermark int64, maxBatch int) ([]navercafe.Post, error)
}

// Summarizer turns one post into a structured summary.
type Summarizer interface {
	Summarize(ctx context.Context, post navercafe.Post) (Summary, error)
}

// Notifier delivers summaries and operational notices.
type Notifier interface {
	Send(ctx context.Context, post navercafe.Post, summary Summary) error
	SendError(ctx context.Context, message string) error
	SendNoPostsNotice(ctx context.Context) error
}

// WatermarkStore persists the run's resumption point.
type WatermarkStore interface {
	Load() int64
	Save(id int64) error
}

// Outcome tells the external scheduler how the run went.
type Outcome int

const (
	// every new post was summarized and delivered
	OutcomeOK Outcome = iota
	// the run found nothing new
	OutcomeNoPosts
	// some or all posts failed, they stay above the watermark for the
	// next run
	OutcomePartial
	// the run aborted before processing anything
	OutcomeFatal
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeNoPosts:
		return "no_posts"
	case OutcomePartial:
		return "partial_failure"
	case OutcomeFatal:
		return "fatal"
	}
	return "unknown"
}

// ExitCode maps the outcome onto distinct process exit statuses:
// 0 all succeeded, 2 nothing new, 1 partial or total failure.
func (o Outcome) ExitCode() int {
	switch o {
	case OutcomeOK:
		return 0
	case OutcomeNoPosts:
		return 2
	}
	return 1
}

type Service struct {
	cfg        Config
	board      BoardClient
	summarizer Summarizer
	notifier   Notifier
	store      WatermarkStore

	// DryRun runs the full pipeline but logs deliveries instead of
	// posting them and leaves the watermark untouched.
	DryRun bool
}

func NewService(cfg Config, board BoardClient, summarizer Summarizer, notifier Notifier, store WatermarkStore) *Service {
	return &Service{
		cfg:        cfg,
		board:      board,
		summarizer: summarizer,
		notifier:   notifier,
		store:      store,
	}
}

// Run executes one pipeline pass. the watermark only advances through
// posts that were fully delivered: processing stops at the first failed
// post so nothing is ever skipped or silently lost, the next scheduled
// run re-attempts everything still above the watermark.
func (s *Service) Run(ctx context.Context) Outcome {
	ctx, span := tracer.Start(ctx, "digest:Run")
	defer span.End()

	watermark := s.store.Load()
	slog.Info("starting run",
		"cafe", s.cfg.CafeName,
		"board_id", s.cfg.BoardID,
		"last_processed_id", watermark,
		"dry_run", s.DryRun,
	)

	if err := s.board.Login(ctx, s.cfg.Credential()); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "login failed")
		s.reportFatal(ctx, "네이버 로그인 실패", err)
		return OutcomeFatal
	}

	clubID, err := s.board.ResolveClubID(ctx, s.cfg.CafeName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "club id resolution failed")
		s.reportFatal(ctx, "카페 ID 자동 감지 실패", err)
		return OutcomeFatal
	}

	posts, fetchErr := s.board.GetNewPosts(ctx, s.cfg.CafeName, clubID, s.cfg.BoardID, watermark, s.cfg.MaxBatch)
	if fetchErr != nil && len(posts) == 0 && !errors.Is(fetchErr, navercafe.ErrContentExtraction) {
		// the listing itself failed, nothing was salvaged
		span.RecordError(fetchErr)
		span.SetStatus(codes.Error, "listing failed")
		s.reportFatal(ctx, "게시판 조회 실패", fetchErr)
		return OutcomeFatal
	}

	if len(posts) == 0 && fetchErr == nil {
		slog.Info("no new posts found", "last_processed_id", watermark)
		if s.cfg.NotifyNoPosts {
			if err := s.notifier.SendNoPostsNotice(ctx); err != nil {
				slog.Warn("failed to send no-posts notice", "err", err)
			}
		}
		return OutcomeNoPosts
	}

	failed := fetchErr != nil
	if fetchErr != nil {
		slog.Error("batch fetch stopped early", "err", fetchErr)
		span.RecordError(fetchErr)
		s.reportError(ctx, fmt.Sprintf("게시글 수집 중단:\n%v", fetchErr))
	}

	slog.Info("processing new posts", "count", len(posts))
	span.SetAttributes(attribute.Int("posts", len(posts)))

	delivered := watermark
	for _, post := range posts {
		summary, err := s.summarizer.Summarize(ctx, post)
		if err != nil {
			slog.Error("failed to summarize post, stopping run", "article_id", post.ID, "err", err)
			span.RecordError(err)
			s.reportError(ctx, fmt.Sprintf("게시글 %d (%s) 요약 실패:\n%v", post.ID, shortTitle(post.Title), err))
			failed = true
			break
		}
		if err := s.deliver(ctx, post, summary); err != nil {
			slog.Error("failed to deliver post, stopping run", "article_id", post.ID, "err", err)
			span.RecordError(err)
			s.reportError(ctx, fmt.Sprintf("게시글 %d (%s) 전송 실패:\n%v", post.ID, shortTitle(post.Title), err))
			failed = true
			break
		}
		delivered = post.ID
	}

	if delivered > watermark {
		if s.DryRun {
			slog.Info("dry run, watermark not persisted", "would_save", delivered)
		} else if err := s.store.Save(delivered); err != nil {
			slog.Error("failed to persist watermark", "err", err)
			span.RecordError(err)
			failed = true
		}
	}

	if failed {
		span.SetStatus(codes.Error, "run finished with failures")
		return OutcomePartial
	}
	return OutcomeOK
}

func (s *Service) deliver(ctx context.Context, post navercafe.Post, summary Summary) error {
	if s.DryRun {
		slog.Info("dry run, skipping delivery",
			"article_id", post.ID,
			"title", shortTitle(post.Title),
			"topics", len(summary.Topics),
		)
		return nil
	}
	return s.notifier.Send(ctx, post, summary)
}

// reportError surfaces a failure in the notification channel, best
// effort, so failures are visible where the successes are.
func (s *Service) reportError(ctx context.Context, message string) {
	if s.DryRun {
		slog.Info("dry run, skipping error notice", "message", message)
		return
	}
	if err := s.notifier.SendError(ctx, message); err != nil {
		slog.Warn("failed to send error notice", "err", err)
	}
}

func (s *Service) reportFatal(ctx context.Context, prefix string, err error) {
	slog.Error(prefix, "err", err)
	s.reportError(ctx, fmt.Sprintf("%s:\n%v", prefix, err))
}

func shortTitle(title string) string {
	return textutil.Truncate(title, 60)
}
