package digest

import (
	"errors"
	"strings"
)

// ErrSummaryParse is returned when a model response contains no
// recognizable summary section at all.
var ErrSummaryParse = errors.New("no summary section recognized in model response")

// Summary is the structured result of summarizing one post.
type Summary struct {
	Topics      []string
	Decisions   []string
	ActionItems []string
}

// the marker the prompt tells the model to use for an empty section
const emptySectionMarker = "해당 없음"

var (
	topicLabels    = []string{"핵심 주제", "주요 주제"}
	decisionLabels = []string{"결정된 사항", "결정 사항"}
	actionLabels   = []string{"행동 지침", "action item"}
)

// ParseSummary extracts the three labeled sections from a model
// response. heading matching is keyword-driven so minor whitespace, bold
// markers or emoji variation does not break parsing. a missing section is
// tolerated as empty; only a response with no recognizable heading at all
// is an error.
func ParseSummary(text string) (Summary, error) {
	var summary Summary
	var current *[]string
	matchedAny := false

	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if !isBullet(line) {
			if section := matchHeading(line, &summary); section != nil {
				current = section
				matchedAny = true
				continue
			}
		}
		if current == nil {
			continue
		}

		item := strings.TrimSpace(strings.TrimLeft(line, "-*• \t"))
		if item == "" || strings.HasPrefix(item, emptySectionMarker) {
			continue
		}
		*current = append(*current, item)
	}

	if !matchedAny {
		return Summary{}, ErrSummaryParse
	}
	return summary, nil
}

func isBullet(line string) bool {
	if strings.HasPrefix(line, "- ") || strings.HasPrefix(line, "• ") {
		return true
	}
	// "* item" is a bullet but "**heading**" is not
	return strings.HasPrefix(line, "* ") && !strings.HasPrefix(line, "**")
}

func matchHeading(line string, summary *Summary) *[]string {
	lower := strings.ToLower(line)
	switch {
	case containsAny(lower, topicLabels):
		return &summary.Topics
	case containsAny(lower, decisionLabels):
		return &summary.Decisions
	case containsAny(lower, actionLabels):
		return &summary.ActionItems
	}
	return nil
}

func containsAny(s string, labels []string) bool {
	for _, label := range labels {
		if strings.Contains(s, label) {
			return true
		}
	}
	return false
}
