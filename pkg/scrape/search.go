package scrape

import (
	"bytes"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// ErrNoPagination indicates the page carries no pagination widget. A search
// with a single page of results renders no widget at all.
var ErrNoPagination = errors.New("no pagination widget found")

// SiteHost is the host prefixed to the relative links found in listings.
const SiteHost = "https://bdtd.ibict.br"

// ParseTotalPages extracts the total page count from the pagination widget
// of a search results page: the last <a> of ul.pagination links to the last
// page and carries a page= query parameter.
func ParseTotalPages(body []byte) (int, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return 0, fmt.Errorf("parse search page: %w", err)
	}

	links := doc.Find("ul.pagination a")
	if links.Length() == 0 {
		return 0, ErrNoPagination
	}

	href, ok := links.Last().Attr("href")
	if !ok {
		return 0, fmt.Errorf("pagination link without href")
	}

	_, pageStr, found := strings.Cut(href, "page=")
	if !found {
		return 0, fmt.Errorf("pagination link %q has no page parameter", href)
	}
	if i := strings.IndexAny(pageStr, "&#"); i >= 0 {
		pageStr = pageStr[:i]
	}

	pages, err := strconv.Atoi(pageStr)
	if err != nil {
		return 0, fmt.Errorf("parse page count from %q: %w", href, err)
	}
	return pages, nil
}

// ParseSearchPage extracts the records listed on a search results page.
// Each result is a div.media block. Blocks missing required fields are
// skipped; a page with no div.media blocks yields an empty slice, which the
// caller treats as the end of usable results.
func ParseSearchPage(body []byte) ([]Record, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse search page: %w", err)
	}

	var records []Record
	doc.Find("div.media").Each(func(_ int, s *goquery.Selection) {
		titleLink := s.Find("a.title.getFull").First()
		href, ok := titleLink.Attr("href")
		if !ok {
			return
		}

		rec := Record{
			Type:  strings.TrimSpace(s.Find("span.format2").First().Text()),
			Title: strings.TrimSpace(titleLink.Text()),
			URL:   absoluteURL(href),
		}
		rec.ID = RecordIDFromURL(rec.URL)
		if rec.ID == "" {
			return
		}

		authorRow := s.Find("div#rowAutor").First()
		authorDiv := authorRow.Find("div").First()
		rec.Author = lastField(authorDiv.Text())
		if authorHref, ok := authorDiv.Find("a").First().Attr("href"); ok {
			rec.AuthorURL = absoluteURL(authorHref)
		}

		date := strings.TrimSpace(s.Find("div#datePublish").First().Text())
		_, after, found := strings.Cut(date, "Data de Defesa")
		if found {
			date = after
		}
		rec.DefenseDate = strings.TrimSpace(date)

		if fulltext, ok := s.Find("a.fulltext").First().Attr("href"); ok {
			rec.FulltextURL = fulltext
		}

		records = append(records, rec)
	})

	return records, nil
}

// absoluteURL prefixes site-relative hrefs with the BDTD host.
func absoluteURL(href string) string {
	if strings.HasPrefix(href, "/") {
		return SiteHost + href
	}
	return href
}

// lastField returns the last whitespace-separated run of a listing cell.
// Author cells render as "Autor:   Name Surname" with layout whitespace.
func lastField(text string) string {
	parts := strings.Split(strings.TrimSpace(text), "\n")
	out := strings.TrimSpace(parts[len(parts)-1])
	if _, after, found := strings.Cut(out, ":"); found {
		out = strings.TrimSpace(after)
	}
	return out
}
