package navercafe

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"net/url"
	"regexp"
	"sort"
	"strconv"

	"mimiecho/lib/textutil"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// legacy article links look like ?articleid=12345
var legacyArticleIDPattern = regexp.MustCompile(`[?&]articleid=(\d+)`)

// the redesigned ca-fe ui links articles as /<cafename>/12345
func modernArticleIDPattern(cafeName string) *regexp.Regexp {
	return regexp.MustCompile(`/` + regexp.QuoteMeta(cafeName) + `/(\d+)(?:[?#]|$)`)
}

// selectors tried in order against listing table rows
var listingAuthorSelectors = []string{
	".td_name .m-tcol-c",
	".p-nick",
	".td_name",
}

var listingDateSelectors = []string{
	".td_date",
	".date",
}

// ListRecentPosts returns the stubs visible on the board's first listing
// page, newest first. body content is not fetched.
func (c *Client) ListRecentPosts(ctx context.Context, cafeName, clubID, boardID string) ([]PostStub, error) {
	ctx, span := tracer.Start(ctx, "client:ListRecentPosts")
	defer span.End()
	span.SetAttributes(
		attribute.String("cafe", cafeName),
		attribute.String("club_id", clubID),
		attribute.String("board_id", boardID),
	)

	query := url.Values{}
	query.Set("search.clubid", clubID)
	query.Set("search.menuid", boardID)
	query.Set("userDisplay", "50")
	query.Set("search.page", "1")

	res, err := c.Http.R().
		SetContext(ctx).
		Get("/ArticleList.nhn?" + query.Encode())
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch board listing")
		return nil, err
	}
	if res.IsError() {
		err := fmt.Errorf("board listing returned %s", res.Status())
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch board listing")
		return nil, err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse board listing")
		return nil, err
	}

	modernPattern := modernArticleIDPattern(cafeName)
	stubs := map[int64]PostStub{}

	// pass 1: listing table rows carry title, author and date
	doc.Find("div.article-board tr, table tbody tr").Each(func(_ int, row *goquery.Selection) {
		link := row.Find("a.article").First()
		if link.Length() == 0 {
			return
		}
		id := articleIDFromHref(link.AttrOr("href", ""), modernPattern)
		if id == 0 {
			return
		}
		stub := PostStub{
			ID:    id,
			Title: textutil.CleanText(link.Text()),
			URL:   c.articleUrl(cafeName, id),
		}
		for _, sel := range listingAuthorSelectors {
			if author := textutil.CleanText(row.Find(sel).First().Text()); author != "" {
				stub.Author = author
				break
			}
		}
		for _, sel := range listingDateSelectors {
			if date := textutil.CleanText(row.Find(sel).First().Text()); date != "" {
				stub.WrittenAt = date
				break
			}
		}
		stubs[id] = stub
	})

	// pass 2: harvest ids from any remaining anchors so a markup change
	// in the table never hides posts entirely
	doc.Find("a").Each(func(_ int, link *goquery.Selection) {
		id := articleIDFromHref(link.AttrOr("href", ""), modernPattern)
		if id == 0 {
			return
		}
		if _, ok := stubs[id]; ok {
			return
		}
		stubs[id] = PostStub{
			ID:    id,
			Title: textutil.CleanText(link.Text()),
			URL:   c.articleUrl(cafeName, id),
		}
	})

	out := make([]PostStub, 0, len(stubs))
	for _, stub := range stubs {
		out = append(out, stub)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ID > out[j].ID
	})

	slog.Info("listed board articles", "cafe", cafeName, "board_id", boardID, "count", len(out))
	span.SetAttributes(attribute.Int("count", len(out)))
	return out, nil
}

func articleIDFromHref(href string, modernPattern *regexp.Regexp) int64 {
	if href == "" {
		return 0
	}
	m := legacyArticleIDPattern.FindStringSubmatch(href)
	if m == nil {
		m = modernPattern.FindStringSubmatch(href)
	}
	if m == nil {
		return 0
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil {
		return 0
	}
	return id
}

func (c *Client) articleUrl(cafeName string, id int64) string {
	return fmt.Sprintf("%s/%s/%d", c.BaseUrl.String(), cafeName, id)
}
