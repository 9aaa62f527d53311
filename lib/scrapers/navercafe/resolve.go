package navercafe

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"regexp"

	"github.com/PuerkitoBio/goquery"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// patterns the numeric club id shows up under in cafe page markup
var clubIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(?i)clubid=(\d+)`),
	regexp.MustCompile(`"clubId"\s*:\s*"?(\d+)"?`),
	regexp.MustCompile(`g_sClubid\s*=\s*["'](\d+)["']`),
	regexp.MustCompile(`(?i)search\.clubid=(\d+)`),
}

// ResolveClubID extracts the internal numeric club id from the cafe's
// main page. the article list endpoint requires it even though the cafe
// is addressed by a text url name. tries the content iframe's address
// first, then pattern-matches the raw markup.
func (c *Client) ResolveClubID(ctx context.Context, cafeName string) (string, error) {
	ctx, span := tracer.Start(ctx, "client:ResolveClubID")
	defer span.End()
	span.SetAttributes(attribute.String("cafe", cafeName))

	res, err := c.Http.R().
		SetContext(ctx).
		Get("/" + cafeName)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch cafe main page")
		return "", err
	}
	if res.IsError() {
		err := fmt.Errorf("cafe main page returned %s", res.Status())
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to fetch cafe main page")
		return "", err
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewBuffer(res.Body()))
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to parse cafe main page")
		return "", err
	}

	// strategy 1: the cafe_main iframe src carries the club id
	src := doc.Find("iframe#cafe_main").AttrOr("src", "")
	if src != "" {
		if m := clubIDPatterns[0].FindStringSubmatch(src); m != nil {
			slog.Info("resolved club id from iframe src", "cafe", cafeName, "club_id", m[1])
			return m[1], nil
		}
	}

	// strategy 2: search the raw page markup
	html := string(res.Body())
	for _, pattern := range clubIDPatterns {
		if m := pattern.FindStringSubmatch(html); m != nil {
			slog.Info("resolved club id from page markup", "cafe", cafeName, "club_id", m[1])
			return m[1], nil
		}
	}

	err = fmt.Errorf("%w for cafe %q, check the url name and account access", ErrClubIDResolution, cafeName)
	span.RecordError(err)
	span.SetStatus(codes.Error, "club id not found")
	return "", err
}
