package cleaner

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
)

// SummaryConfig bounds what the summary cleaner collects.
type SummaryConfig struct {
	// RemoveSelectors are stripped from the document before collection.
	RemoveSelectors []string

	MaxH1         int
	MaxH2         int
	MaxH3         int
	MaxParagraphs int

	// MinParagraphChars is exclusive: a paragraph needs more runes than this.
	MinParagraphChars int

	// Separator joins the collected fragments.
	Separator string
}

// DefaultSummaryConfig returns the collection bounds used for brand briefs.
func DefaultSummaryConfig() SummaryConfig {
	return SummaryConfig{
		RemoveSelectors:   []string{"script", "style", "noscript", "nav", "footer", "header"},
		MaxH1:             3,
		MaxH2:             5,
		MaxH3:             5,
		MaxParagraphs:     10,
		MinParagraphChars: 20,
		Separator:         "\n",
	}
}

// SummaryCleaner collects a bounded, ordered set of text fragments from a
// page: title, meta description, headings, then substantial paragraphs.
// Each fragment has its whitespace collapsed; fragments are joined by
// Separator in collection order, and repeated fragments are kept once.
type SummaryCleaner struct {
	cfg SummaryConfig
}

// NewSummary creates a summary cleaner. Zero limits fall back to defaults.
func NewSummary(cfg SummaryConfig) *SummaryCleaner {
	def := DefaultSummaryConfig()
	if cfg.RemoveSelectors == nil {
		cfg.RemoveSelectors = def.RemoveSelectors
	}
	if cfg.MaxH1 <= 0 {
		cfg.MaxH1 = def.MaxH1
	}
	if cfg.MaxH2 <= 0 {
		cfg.MaxH2 = def.MaxH2
	}
	if cfg.MaxH3 <= 0 {
		cfg.MaxH3 = def.MaxH3
	}
	if cfg.MaxParagraphs <= 0 {
		cfg.MaxParagraphs = def.MaxParagraphs
	}
	if cfg.MinParagraphChars < 0 {
		cfg.MinParagraphChars = 0
	}
	if cfg.Separator == "" {
		cfg.Separator = def.Separator
	}
	return &SummaryCleaner{cfg: cfg}
}

// Clean returns the joined fragments.
func (c *SummaryCleaner) Clean(html string) (string, error) {
	fragments, err := c.Fragments(html)
	if err != nil {
		return "", err
	}
	return strings.Join(fragments, c.cfg.Separator), nil
}

// Fragments returns the collected fragments in order.
func (c *SummaryCleaner) Fragments(html string) ([]string, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parsing HTML: %w", err)
	}

	var (
		fragments []string
		seen      = make(map[string]struct{})
	)
	add := func(s string) bool {
		s = collapse(s)
		if s == "" {
			return false
		}
		if _, dup := seen[s]; dup {
			return false
		}
		seen[s] = struct{}{}
		fragments = append(fragments, s)
		return true
	}

	// Head metadata is read before noise removal; <header> is not <head>.
	add(doc.Find("title").First().Text())
	add(metaDescription(doc))

	for _, sel := range c.cfg.RemoveSelectors {
		doc.Find(sel).Remove()
	}

	collect := func(selector string, limit, minRunes int) {
		n := 0
		doc.Find(selector).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := collapse(s.Text())
			if utf8.RuneCountInString(text) <= minRunes {
				return true
			}
			if add(text) {
				n++
			}
			return n < limit
		})
	}
	collect("h1", c.cfg.MaxH1, 0)
	collect("h2", c.cfg.MaxH2, 0)
	collect("h3", c.cfg.MaxH3, 0)
	collect("p", c.cfg.MaxParagraphs, c.cfg.MinParagraphChars)

	return fragments, nil
}

// Name returns the cleaner type.
func (c *SummaryCleaner) Name() string {
	return "summary"
}

func metaDescription(doc *goquery.Document) string {
	var desc, og string
	doc.Find("meta").Each(func(_ int, s *goquery.Selection) {
		content, _ := s.Attr("content")
		if name, ok := s.Attr("name"); ok && desc == "" && strings.EqualFold(name, "description") {
			desc = content
		}
		if prop, ok := s.Attr("property"); ok && og == "" && strings.EqualFold(prop, "og:description") {
			og = content
		}
	})
	if strings.TrimSpace(desc) != "" {
		return desc
	}
	return og
}

// collapse normalizes whitespace in text.
func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
