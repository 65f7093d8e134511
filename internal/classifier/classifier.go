
package classifier

import (
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"thronebutt-scraper/internal/models"
)

const (
	PlateSelector  = "div.score_plate"
	noticeSelector = `div[class*="text-center"]`
	NoScoresPhrase = "No scores!"
)

type Classifier struct {
	phrases []string
}

func New(extraPhrases ...string) *Classifier {
	return &Classifier{phrases: append([]string{NoScoresPhrase}, extraPhrases...)}
}

// Classify decides whether a leaderboard page holds entries. An explicit
// "no scores" notice wins over anything else in the document; a missing
// plate list only confirms the page is past the end.
func (c *Classifier) Classify(doc *goquery.Document) models.Classification {
	reason := map[string]string{}

	if notice, ok := c.notice(doc); ok {
		reason["notice"] = notice
		return models.Classification{State: models.StateNoScores, Reason: reason}
	}

	plates := doc.Find(PlateSelector).Length()
	reason["plates"] = strconv.Itoa(plates)
	if plates == 0 {
		return models.Classification{State: models.StateEmpty, Reason: reason}
	}
	return models.Classification{State: models.StatePopulated, Reason: reason}
}

func (c *Classifier) notice(doc *goquery.Document) (string, bool) {
	var found string
	doc.Find(noticeSelector).EachWithBreak(func(i int, s *goquery.Selection) bool {
		text := strings.TrimSpace(s.Text())
		for _, phrase := range c.phrases {
			if strings.Contains(text, phrase) {
				found = phrase
				return false
			}
		}
		return true
	})
	return found, found != ""
}
