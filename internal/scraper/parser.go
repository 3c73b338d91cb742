package scraper

import (
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"stockwatch/pkg/contracts/domain"
)

var nonNumeric = regexp.MustCompile(`[^\d.\-]`)

// ParsedQuote is the data extracted from a single quote page
type ParsedQuote struct {
	CompanyName string
	Open        float64
	High        float64
	Low         float64
	Close       float64
	Performance domain.Performance
	Competitors []domain.Competitor
}

// ParseQuotePage extracts company name, key data, performance and
// competitors from a quote page. Returns ErrSymbolNotFound when the page
// has no company name node.
func ParseQuotePage(body io.Reader) (*ParsedQuote, error) {
	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}

	companyName := strings.TrimSpace(doc.Find("h1.company__name").First().Text())
	if companyName == "" {
		return nil, ErrSymbolNotFound
	}

	parsed := &ParsedQuote{CompanyName: companyName}

	if err := parseKeyData(doc, parsed); err != nil {
		return nil, err
	}
	parsePerformance(doc, &parsed.Performance)
	parsed.Competitors = parseCompetitors(doc)

	return parsed, nil
}

// parseKeyData reads Open and Day Range from the Key Data list and the
// previous close from the intraday close table.
func parseKeyData(doc *goquery.Document, parsed *ParsedQuote) error {
	doc.Find("li.kv__item").Each(func(_ int, item *goquery.Selection) {
		label := strings.TrimSpace(item.Find("small.label").Text())
		value := strings.TrimSpace(item.Find("span.primary").Text())

		switch label {
		case "Open":
			if v, err := parsePrice(value); err == nil {
				parsed.Open = v
			}
		case "Day Range":
			parts := strings.Split(strings.ReplaceAll(value, ",", ""), " - ")
			if len(parts) == 2 {
				if low, err := parsePrice(parts[0]); err == nil {
					parsed.Low = low
				}
				if high, err := parsePrice(parts[1]); err == nil {
					parsed.High = high
				}
			}
		}
	})

	closeText := strings.TrimSpace(doc.Find("div.intraday__close td.table__cell.u-semi").First().Text())
	if closeText == "" {
		return fmt.Errorf("%w: previous close", ErrMissingData)
	}
	closeValue, err := parsePrice(closeText)
	if err != nil {
		return fmt.Errorf("%w: previous close %q", ErrMissingData, closeText)
	}
	parsed.Close = closeValue

	return nil
}

// parsePerformance reads the percentage rows of the performance table.
// Missing rows are left at zero.
func parsePerformance(doc *goquery.Document, perf *domain.Performance) {
	doc.Find("div.element--table.performance tr.table__row").Each(func(_ int, row *goquery.Selection) {
		period := strings.TrimSpace(row.Find("td.table__cell").First().Text())
		value := strings.TrimSpace(row.Find("li.content__item.value.ignore-color").First().Text())
		value = strings.ReplaceAll(value, "%", "")

		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return
		}

		switch {
		case strings.Contains(period, "5 Day"):
			perf.FiveDays = v
		case strings.Contains(period, "1 Month"):
			perf.OneMonth = v
		case strings.Contains(period, "3 Month"):
			perf.ThreeMonths = v
		case strings.Contains(period, "YTD"):
			perf.YearToDate = v
		case strings.Contains(period, "1 Year"):
			perf.OneYear = v
		}
	})
}

// parseCompetitors reads the competitors table. Rows with an unparseable
// market cap are skipped.
func parseCompetitors(doc *goquery.Document) []domain.Competitor {
	competitors := make([]domain.Competitor, 0)

	doc.Find("div.Competitors tbody.table__body tr.table__row").Each(func(_ int, row *goquery.Selection) {
		name := strings.TrimSpace(row.Find("td.table__cell.w50").First().Text())
		capText := strings.TrimSpace(row.Find("td.table__cell.w25.number").First().Text())
		if name == "" || capText == "" {
			return
		}

		marketCap, err := ParseMarketCap(capText)
		if err != nil {
			return
		}

		competitors = append(competitors, domain.Competitor{
			Name:      name,
			MarketCap: marketCap,
		})
	})

	return competitors
}

// ParseMarketCap parses strings like "$3.09T", "₩403.65T" or "¥1.2B".
// Values are scaled by the trillion/billion/million suffix.
func ParseMarketCap(s string) (domain.MarketCap, error) {
	cleaned := strings.NewReplacer("$", "", "₩", "", "¥", "", ",", "").Replace(s)
	cleaned = strings.TrimSpace(cleaned)
	if cleaned == "" {
		return domain.MarketCap{}, fmt.Errorf("%w: empty market cap", ErrMissingData)
	}

	multiplier := 1.0
	switch cleaned[len(cleaned)-1] {
	case 'T':
		multiplier = 1e12
		cleaned = cleaned[:len(cleaned)-1]
	case 'B':
		multiplier = 1e9
		cleaned = cleaned[:len(cleaned)-1]
	case 'M':
		multiplier = 1e6
		cleaned = cleaned[:len(cleaned)-1]
	}

	value, err := strconv.ParseFloat(cleaned, 64)
	if err != nil {
		return domain.MarketCap{}, fmt.Errorf("invalid market cap %q: %w", s, err)
	}

	return domain.MarketCap{Currency: "$", Value: value * multiplier}, nil
}

// parsePrice strips currency symbols and thousand separators from a price
func parsePrice(s string) (float64, error) {
	cleaned := nonNumeric.ReplaceAllString(s, "")
	if cleaned == "" {
		return 0, fmt.Errorf("invalid price %q", s)
	}
	return strconv.ParseFloat(cleaned, 64)
}
