package marketplace

import (
	"bytes"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/okian/agentpulse/internal/domain/model"
)

// Selector candidates per field, tried in order. The first selector whose
// text holds a number wins.
var (
	successRateSelectors = []string{
		".success-rate",
		`[data-testid="success-rate"]`,
		`div:contains("Success Rate") + div`,
		`div:contains("Success Rate")`,
	}
	jobsSelectors = []string{
		".jobs-completed",
		`[data-testid="jobs-completed"]`,
		`div:contains("Jobs Completed") + div`,
		`div:contains("Jobs Completed")`,
	}
	buyersSelectors = []string{
		".unique-buyers",
		`[data-testid="unique-buyers"]`,
		`div:contains("Unique Buyers") + div`,
	}
	revenueSelectors = []string{
		".revenue",
		`[data-testid="revenue"]`,
		`div:contains("Revenue") + div`,
		`div:contains("Revenue")`,
	}
	ratingSelectors = []string{
		".rating",
		`[data-testid="rating"]`,
		`div:contains("Rating") + div`,
	}
	nameSelector = `h1, .agent-name, [data-testid="agent-name"]`
)

var (
	decimalPattern = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?|\.\d+`)

	jobsText    = regexp.MustCompile(`(?i)Jobs Completed[^\d]*(\d[\d,]*)`)
	revenueText = regexp.MustCompile(`(?i)Revenue[^\d]*\$?(\d[\d,]*\.?\d*)`)
	buyersText  = regexp.MustCompile(`(?i)Unique Buyers[^\d]*(\d[\d,]*)`)
	ratingText  = regexp.MustCompile(`(?i)Rating[^\d]*(\d+(?:\.\d+)?)`)
	successText = regexp.MustCompile(`(?i)Success Rate[^\d]*(\d+(?:\.\d+)?)`)
)

// scrapeDocument extracts metrics from the profile page DOM.
func scrapeDocument(agentID string, page []byte) (model.AgentMetrics, bool) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return model.AgentMetrics{}, false
	}

	m := scraped(agentID)
	m.SuccessRate = clamp(firstNumber(doc, successRateSelectors), 0, 100)
	m.JobsCompleted = toCount(firstNumber(doc, jobsSelectors))
	m.UniqueBuyers = toCount(firstNumber(doc, buyersSelectors))
	m.Revenue = firstNumber(doc, revenueSelectors)
	m.Rating = clamp(firstNumber(doc, ratingSelectors), 0, 5)
	if name := strings.TrimSpace(doc.Find(nameSelector).First().Text()); name != "" {
		m.AgentName = name
	}
	return m, usable(m)
}

// scrapeText pattern-matches label-adjacent numbers in the raw markup.
func scrapeText(agentID string, page []byte) (model.AgentMetrics, bool) {
	html := string(page)
	m := scraped(agentID)
	m.JobsCompleted = toCount(match(jobsText, html))
	m.Revenue = match(revenueText, html)
	m.UniqueBuyers = toCount(match(buyersText, html))
	m.Rating = clamp(match(ratingText, html), 0, 5)
	m.SuccessRate = clamp(match(successText, html), 0, 100)
	return m, usable(m)
}

func scraped(agentID string) model.AgentMetrics {
	return model.AgentMetrics{
		AgentID:    agentID,
		AgentName:  "Agent " + agentID,
		Offerings:  []model.Offering{},
		DataSource: model.SourceScraping,
	}
}

func usable(m model.AgentMetrics) bool {
	return m.JobsCompleted > 0 || m.Revenue > 0
}

func firstNumber(doc *goquery.Document, selectors []string) float64 {
	for _, sel := range selectors {
		text := strings.TrimSpace(doc.Find(sel).Text())
		if text == "" {
			continue
		}
		if raw := decimalPattern.FindString(text); raw != "" {
			return parseNumber(raw)
		}
	}
	return 0
}

func match(re *regexp.Regexp, s string) float64 {
	m := re.FindStringSubmatch(s)
	if m == nil {
		return 0
	}
	return parseNumber(m[1])
}

func parseNumber(raw string) float64 {
	f, err := strconv.ParseFloat(strings.ReplaceAll(raw, ",", ""), 64)
	if err != nil || f < 0 {
		return 0
	}
	return f
}
