package scrape

import (
	"bytes"
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoDetail indicates the page carries no record detail body.
var ErrNoDetail = errors.New("no record detail body found")

// ParseRecordDetail extracts the title, abstract, and description table of a
// record detail page. The description table rows become the Fields map with
// trailing ':' stripped from field names.
func ParseRecordDetail(body []byte) (*RecordDetail, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse record page: %w", err)
	}

	main := doc.Find("div.mainbody").First()
	if main.Length() == 0 {
		return nil, ErrNoDetail
	}

	detail := &RecordDetail{
		Title:    strings.TrimSpace(main.Find("h3[property=name]").First().Text()),
		Abstract: AbstractUnavailable,
		Fields:   make(map[string]string),
	}

	if p := main.Find("div.col-sm-12 p").First(); p.Length() > 0 {
		if text := strings.TrimSpace(p.Text()); text != "" {
			detail.Abstract = text
		}
	}

	// Description table: one field per row, name cell then value cell.
	main.Find("table[summary=description] tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("th, td")
		if cells.Length() < 2 {
			return
		}
		name := strings.TrimSuffix(strings.TrimSpace(cells.First().Text()), ":")
		value := strings.TrimSpace(cells.Last().Text())
		if name != "" {
			detail.Fields[name] = value
		}
	})

	return detail, nil
}

// ExtractPDFLinks returns every hyperlink on the page whose target contains
// ".pdf" (case-insensitive). Host-relative links are resolved against the
// page's own host.
func ExtractPDFLinks(body []byte, pageURL string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse page for pdf links: %w", err)
	}

	var host string
	if u, err := url.Parse(pageURL); err == nil && u.Host != "" {
		host = u.Scheme + "://" + u.Host
	}

	var links []string
	doc.Find("a").Each(func(_ int, s *goquery.Selection) {
		href, ok := s.Attr("href")
		if !ok {
			return
		}
		if !strings.Contains(strings.ToLower(href), ".pdf") {
			return
		}
		if strings.HasPrefix(href, "/") && host != "" {
			href = host + href
		}
		links = append(links, href)
	})

	return links, nil
}
