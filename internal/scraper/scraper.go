// Package scraper collects product listings and product details from the
// vendor website.
package scraper

import (
	"bytes"
	"context"
	"fmt"
	"net/url"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"
	"golang.org/x/time/rate"

	"github.com/venthub/catalog-tools/internal/catalog"
)

const (
	DefaultBaseURL   = "https://www.avensair.com"
	DefaultListPath  = "/urunler"
	DefaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"
	// FallbackCategory is recorded when a detail page names no category.
	FallbackCategory = catalog.FallbackCategory

	maxDescriptionRunes = 500
)

var (
	cardSelectors = []string{
		".urunkutu", ".product-card", ".product-item", ".product", ".thumbnail",
		".thumbnail-variant-1", "article", ".card", ".col-md-4", ".col-sm-6", ".col-lg-3",
	}
	breadcrumbSelectors = []string{
		".breadcrumb", ".breadcrumbs", ".bread-crumb", `[aria-label="breadcrumb"]`,
		".page-breadcrumb", ".woocommerce-breadcrumb", `nav[aria-label="breadcrumb"]`,
	}
	descriptionSelectors = []string{
		".product-description", ".description", ".product-details",
		`[itemprop="description"]`, ".entry-content", ".product-content",
	}
	imageSelectors = []string{
		".product-image img", ".product-main-image img", `[itemprop="image"]`,
		".woocommerce-product-gallery img", ".product-gallery img", "img.wp-post-image",
	}
	priceSelectors = []string{
		".price", ".product-price", `[itemprop="price"]`, ".woocommerce-Price-amount", ".amount",
	}

	// Crumbs that are navigation, not categories.
	skipCrumbs = map[string]bool{
		">": true, "/": true, "ana sayfa": true, "home": true, "urunler": true,
	}
	// Card titles containing these are page furniture.
	noiseTitles = []string{"404", "Sepet", "satis@", "Cookie"}
)

type Options struct {
	BaseURL   string
	ListPath  string
	UserAgent string
	// Rate is the minimum delay between requests.
	Rate     time.Duration
	MaxPages int
	Timeout  time.Duration
}

// Link is a product card found on a listing page.
type Link struct {
	Name string
	URL  string
}

// Details is what a product page contributes to a scraped record.
type Details struct {
	Category    string
	Subcategory string
	Description string
	ImageURL    string
	Price       string
}

type Scraper struct {
	httpClient *resty.Client
	base       *url.URL
	listPath   string
	maxPages   int
	limiter    *rate.Limiter
}

func New(opts Options) (*Scraper, error) {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.ListPath == "" {
		opts.ListPath = DefaultListPath
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	if opts.Rate <= 0 {
		opts.Rate = 800 * time.Millisecond
	}
	if opts.MaxPages <= 0 {
		opts.MaxPages = 50
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid base url: %w", err)
	}

	s := &Scraper{
		base:     base,
		listPath: opts.ListPath,
		maxPages: opts.MaxPages,
		limiter:  rate.NewLimiter(rate.Every(opts.Rate), 1),
	}
	s.httpClient = resty.New().
		SetBaseURL(strings.TrimRight(opts.BaseURL, "/")).
		SetTimeout(opts.Timeout).
		SetHeader("User-Agent", opts.UserAgent).
		SetHeader("Accept", "text/html,application/xhtml+xml")

	return s, nil
}

func (s *Scraper) fetch(ctx context.Context, rawURL string, params map[string]string) (*goquery.Document, error) {
	if err := s.limiter.Wait(ctx); err != nil {
		return nil, err
	}
	res, err := s.httpClient.R().
		SetContext(ctx).
		SetQueryParams(params).
		Get(rawURL)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	if res.IsError() {
		return nil, fmt.Errorf("request failed: GET %s (status: %d)", res.Request.URL, res.StatusCode())
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(res.Body()))
	if err != nil {
		return nil, fmt.Errorf("failed to parse html: %w", err)
	}
	return doc, nil
}

// ScrapeLinks walks the listing pages (?page=N) until a page adds no new
// product links or MaxPages is reached.
func (s *Scraper) ScrapeLinks(ctx context.Context) ([]Link, error) {
	var links []Link
	seen := make(map[string]bool)

	for page := 1; page <= s.maxPages; page++ {
		var params map[string]string
		if page > 1 {
			params = map[string]string{"page": strconv.Itoa(page)}
		}
		doc, err := s.fetch(ctx, s.listPath, params)
		if err != nil {
			if page == 1 {
				return nil, err
			}
			log.Warn().Err(err).Int("page", page).Msg("failed to fetch listing page, stopping")
			break
		}

		added := 0
		for _, l := range s.extractLinks(doc) {
			if seen[l.URL] {
				continue
			}
			seen[l.URL] = true
			links = append(links, l)
			added++
		}
		log.Info().Int("page", page).Int("added", added).Int("total", len(links)).Msg("listing page scraped")
		if added == 0 {
			break
		}
	}
	return links, nil
}

func (s *Scraper) extractLinks(doc *goquery.Document) []Link {
	var cards *goquery.Selection
	for _, sel := range cardSelectors {
		if found := doc.Find(sel); found.Length() > 0 {
			cards = found
			break
		}
	}
	if cards == nil {
		return nil
	}

	var links []Link
	cards.Each(func(_ int, card *goquery.Selection) {
		link := card
		if goquery.NodeName(card) != "a" {
			link = card.Find("a").First()
		}
		href, ok := link.Attr("href")
		if !ok || strings.TrimSpace(href) == "" {
			return
		}

		title := card.Find("h1, h2, h3, h4, h5, h6, .title, .name, .product-name").First()
		name := cleanText(title.Text())
		if name == "" {
			name = cleanText(link.Text())
		}
		if !isProductTitle(name) {
			return
		}
		links = append(links, Link{Name: name, URL: s.absolute(href)})
	})
	return links
}

func isProductTitle(name string) bool {
	if len([]rune(name)) <= 3 {
		return false
	}
	for _, noise := range noiseTitles {
		if strings.Contains(name, noise) {
			return false
		}
	}
	return true
}

// ScrapeDetail reads category, description, image and price from a product
// page.
func (s *Scraper) ScrapeDetail(ctx context.Context, link string) (Details, error) {
	doc, err := s.fetch(ctx, link, nil)
	if err != nil {
		return Details{Category: FallbackCategory}, err
	}
	return s.extractDetails(doc), nil
}

func (s *Scraper) extractDetails(doc *goquery.Document) Details {
	d := Details{Category: FallbackCategory}

	for _, sel := range breadcrumbSelectors {
		crumb := doc.Find(sel).First()
		if crumb.Length() == 0 {
			continue
		}
		var parts []string
		crumb.Find("a, span").Each(func(_ int, item *goquery.Selection) {
			text := cleanText(item.Text())
			if text == "" || skipCrumbs[catalog.Fold(text)] {
				return
			}
			if len(parts) > 0 && parts[len(parts)-1] == text {
				return
			}
			parts = append(parts, text)
		})
		if len(parts) > 0 {
			d.Category = parts[0]
		}
		if len(parts) > 1 {
			d.Subcategory = parts[1]
		}
		break
	}

	if d.Category == FallbackCategory {
		if content, ok := doc.Find(`meta[property="product:category"]`).Attr("content"); ok && strings.TrimSpace(content) != "" {
			d.Category = strings.TrimSpace(content)
		}
	}

	if text, ok := firstText(doc, descriptionSelectors); ok {
		d.Description = truncateRunes(text, maxDescriptionRunes)
	}

	for _, sel := range imageSelectors {
		img := doc.Find(sel).First()
		if img.Length() == 0 {
			continue
		}
		src := img.AttrOr("src", "")
		if src == "" {
			src = img.AttrOr("data-src", "")
		}
		if src != "" {
			d.ImageURL = s.absolute(src)
		}
		break
	}

	if text, ok := firstText(doc, priceSelectors); ok {
		d.Price = text
	}
	return d
}

// ScrapeAll scrapes the listing and then every product page. A failing
// product page is recorded on its record instead of aborting the run.
func (s *Scraper) ScrapeAll(ctx context.Context) ([]catalog.ScrapedProduct, error) {
	links, err := s.ScrapeLinks(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to scrape product links: %w", err)
	}
	log.Info().Int("links", len(links)).Msg("product links collected")

	products := make([]catalog.ScrapedProduct, 0, len(links))
	for i, l := range links {
		if ctx.Err() != nil {
			return products, ctx.Err()
		}
		p := catalog.ScrapedProduct{
			Name:      l.Name,
			URL:       l.URL,
			ScrapedAt: time.Now().UTC().Format(time.RFC3339),
		}
		d, err := s.ScrapeDetail(ctx, l.URL)
		if err != nil {
			log.Warn().Err(err).Str("product", l.Name).Msg("failed to scrape product page")
			p.Error = err.Error()
		}
		p.Category = d.Category
		p.Subcategory = d.Subcategory
		p.Description = d.Description
		p.ImageURL = d.ImageURL
		p.Price = d.Price
		products = append(products, p)

		log.Debug().
			Int("n", i+1).
			Int("of", len(links)).
			Str("product", l.Name).
			Str("category", d.Category).
			Str("subcategory", d.Subcategory).
			Msg("product scraped")
	}
	return products, nil
}

// OutputPath returns the file a scrape started at t is written to.
func OutputPath(dir string, t time.Time) string {
	ts := strings.ReplaceAll(t.UTC().Format("2006-01-02T15-04-05.000Z"), ".", "-")
	return filepath.Join(dir, "complete_with_categories_"+ts+".json")
}

func (s *Scraper) absolute(ref string) string {
	u, err := url.Parse(strings.TrimSpace(ref))
	if err != nil {
		return ref
	}
	return s.base.ResolveReference(u).String()
}

func firstText(doc *goquery.Document, selectors []string) (string, bool) {
	for _, sel := range selectors {
		found := doc.Find(sel).First()
		if found.Length() > 0 {
			return cleanText(found.Text()), true
		}
	}
	return "", false
}

func cleanText(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
