package navercafe

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"

	"mimiecho/lib/htmlutil"
	"mimiecho/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// selector strategies tried in order, richer current editor formats
// first, legacy formats as fallback
var titleSelectors = []string{
	".title_text",
	"h3.title",
	".ArticleTitle",
	".tit-article",
	".article-head .title",
	"h2.title",
}

var contentSelectors = []string{
	".se-main-container", // smart editor 3
	".se-module-text",    // smart editor 3 text block
	"#tbody",             // old editor
	".ArticleContentBox .tbody",
	".article_body",
	".article-body",
	".ContentRenderer",
}

var dateSelectors = []string{".date", ".article_date", "span.date", ".se-date"}

var authorSelectors = []string{".nick", ".m-tcol-c", ".nickname", ".writer_info .nick"}

// FetchContent navigates to the article page behind a stub and extracts
// its body text. returns ErrContentExtraction when no selector strategy
// matches anything.
func (c *Client) FetchContent(ctx context.Context, stub PostStub) (Post, error) {
	ctx, span := tracer.Start(ctx, "client:FetchContent")
	defer span.End()
	span.SetAttributes(attribute.Int64("article_id", stub.ID))

	res, err := c.Http.R().
		SetContext(ctx).
		Get(stub.URL)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch article")
		return Post{}, err
	}
	if res.IsError() {
		err := fmt.Errorf("article %d returned %s", stub.ID, res.Status())
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch article")
		return Post{}, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse article html")
		return Post{}, err
	}

	title := extractText(doc, titleSelectors)
	if title == "" {
		title = stub.Title
	}
	content := extractInnerText(doc, contentSelectors)
	date := extractText(doc, dateSelectors)
	if date == "" {
		date = stub.WrittenAt
	}
	author := extractText(doc, authorSelectors)
	if author == "" {
		author = stub.Author
	}

	if title == "" && content == "" {
		err := fmt.Errorf("%w: article %d", ErrContentExtraction, stub.ID)
		span.RecordError(err)
		span.SetStatus(codes.Error, "no selector strategy matched")
		return Post{}, err
	}

	slog.Info("extracted article", "article_id", stub.ID, "title", textutil.Truncate(title, 60))
	return Post{
		ID:        stub.ID,
		Title:     title,
		Author:    author,
		WrittenAt: date,
		URL:       stub.URL,
		Content:   content,
	}, nil
}

// GetNewPosts lists the board, keeps posts above the watermark capped at
// maxBatch (the most recent ones), and fetches their content in ascending
// id order. a fetch failure stops the loop: the successfully fetched
// prefix is returned together with the error so the caller's watermark
// can never advance past a failed post.
func (c *Client) GetNewPosts(ctx context.Context, cafeName, clubID, boardID string, watermark int64, maxBatch int) ([]Post, error) {
	ctx, span := tracer.Start(ctx, "client:GetNewPosts")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("watermark", watermark),
		attribute.Int("max_batch", maxBatch),
	)

	stubs, err := c.ListRecentPosts(ctx, cafeName, clubID, boardID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "listing failed")
		return nil, err
	}

	var fresh []PostStub
	for _, stub := range stubs {
		if stub.ID > watermark {
			fresh = append(fresh, stub)
		}
	}
	if len(fresh) == 0 {
		slog.Info("no new articles", "watermark", watermark)
		return nil, nil
	}

	sort.Slice(fresh, func(i, j int) bool {
		return fresh[i].ID < fresh[j].ID
	})
	if maxBatch > 0 && len(fresh) > maxBatch {
		slog.Warn("capping new articles", "found", len(fresh), "max_batch", maxBatch)
		fresh = fresh[len(fresh)-maxBatch:]
	}

	posts := make([]Post, 0, len(fresh))
	for _, stub := range fresh {
		post, err := c.FetchContent(ctx, stub)
		if err != nil {
			slog.Error("failed to fetch article, stopping batch", "article_id", stub.ID, "err", err)
			span.RecordError(err)
			span.SetStatus(codes.Error, "content fetch failed mid-batch")
			return posts, err
		}
		posts = append(posts, post)
	}

	span.SetAttributes(attribute.Int("count", len(posts)))
	return posts, nil
}

func extractText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		found := doc.Find(sel).First()
		if found.Length() == 0 {
			continue
		}
		text := textutil.CleanText(found.Text())
		if text != "" {
			return text
		}
	}
	return ""
}

func extractInnerText(doc *goquery.Document, selectors []string) string {
	for _, sel := range selectors {
		found := doc.Find(sel).First()
		if found.Length() == 0 {
			continue
		}
		text := textutil.CleanText(htmlutil.GetInnerText(found.Nodes[0]))
		if text != "" {
			return text
		}
	}
	return ""
}
