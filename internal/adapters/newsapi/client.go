package newsapi

// client.go — descarga de prensa macro desde NewsAPI /v2/everything.
//
// La query es un OR de frases exactas sobre keywords macro (Fed, CPI,
// inflación...). NewsAPI pagina de 100 en 100: se corta al agotar
// totalResults o al alcanzar el tope de artículos por fetch.

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/polysent/internal/domain"
)

// MacroKeywords son los términos macro buscados en titulares y cuerpo.
var MacroKeywords = []string{
	"Federal Reserve",
	"Fed",
	"FOMC",
	"interest rate",
	"CPI",
	"inflation",
	"PCE",
	"unemployment",
	"non-farm payrolls",
	"jobs report",
}

const (
	defaultBase = "https://newsapi.org/v2"
	pageSize    = 100
	maxArticles = 5000

	// El tier gratuito de NewsAPI castiga ráfagas; 1 req/s sobra para
	// paginar un backfill de meses.
	requestsPerSec = 1
)

// Client descarga artículos de NewsAPI.
type Client struct {
	http    *http.Client
	base    string
	apiKey  string
	limiter *rate.Limiter
}

// NewClient crea un Client. Si base está vacío usa el URL de producción.
func NewClient(base, apiKey string) *Client {
	if base == "" {
		base = defaultBase
	}
	return &Client{
		http:    &http.Client{Timeout: 30 * time.Second},
		base:    strings.TrimRight(base, "/"),
		apiKey:  apiKey,
		limiter: rate.NewLimiter(requestsPerSec, 1),
	}
}

// everythingResponse es la respuesta de GET /everything.
type everythingResponse struct {
	Status       string       `json:"status"`
	TotalResults int          `json:"totalResults"`
	Articles     []rawArticle `json:"articles"`
}

type rawArticle struct {
	Source      rawSource `json:"source"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Content     string    `json:"content"`
	URL         string    `json:"url"`
	PublishedAt string    `json:"publishedAt"`
}

type rawSource struct {
	Name string `json:"name"`
}

// FetchNews devuelve los artículos macro publicados en [from, to], ordenados
// por fecha de publicación. Los artículos sin fecha parseable se descartan
// individualmente; el fetch continúa.
func (c *Client) FetchNews(ctx context.Context, from, to time.Time) ([]domain.NewsItem, error) {
	if c.apiKey == "" {
		return nil, fmt.Errorf("newsapi.FetchNews: NEWSAPI_API_KEY is not set")
	}

	query := buildQuery(MacroKeywords)
	items := make([]domain.NewsItem, 0, pageSize)
	dropped := 0

	for page := 1; ; page++ {
		resp, err := c.fetchPage(ctx, query, from, to, page)
		if err != nil {
			return nil, fmt.Errorf("newsapi.FetchNews: page %d: %w", page, err)
		}

		for _, art := range resp.Articles {
			published, ok := parsePublishedAt(art.PublishedAt)
			if !ok {
				dropped++
				continue
			}
			items = append(items, domain.NewsItem{
				Source:      art.Source.Name,
				Title:       art.Title,
				Description: art.Description,
				Content:     art.Content,
				URL:         art.URL,
				PublishedAt: published,
			})
		}

		slog.Debug("fetched news page",
			"page", page,
			"articles", len(resp.Articles),
			"total", len(items),
			"total_results", resp.TotalResults,
		)

		if len(items) >= maxArticles {
			slog.Warn("article cap reached, truncating fetch", "cap", maxArticles)
			break
		}
		expectedPages := (resp.TotalResults + pageSize - 1) / pageSize
		if page >= expectedPages {
			break
		}
	}

	if dropped > 0 {
		slog.Warn("dropped articles without parseable date", "count", dropped)
	}

	// NewsAPI devuelve de más reciente a más antiguo; el pipeline trabaja
	// en orden cronológico.
	sortByPublishedAt(items)
	return items, nil
}

// fetchPage pide una página de /everything con rate limiting.
func (c *Client) fetchPage(ctx context.Context, query string, from, to time.Time, page int) (everythingResponse, error) {
	var out everythingResponse
	if err := c.limiter.Wait(ctx); err != nil {
		return out, fmt.Errorf("rate limiter: %w", err)
	}

	params := url.Values{}
	params.Set("q", query)
	params.Set("from", from.UTC().Format(time.RFC3339))
	params.Set("to", to.UTC().Format(time.RFC3339))
	params.Set("language", "en")
	params.Set("sortBy", "publishedAt")
	params.Set("pageSize", strconv.Itoa(pageSize))
	params.Set("page", strconv.Itoa(page))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/everything?"+params.Encode(), nil)
	if err != nil {
		return out, err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Api-Key", c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return out, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return out, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return out, fmt.Errorf("decode response: %w", err)
	}
	return out, nil
}

// buildQuery arma el OR de frases exactas para el parámetro q.
func buildQuery(keywords []string) string {
	quoted := make([]string, 0, len(keywords))
	for _, kw := range keywords {
		quoted = append(quoted, `"`+kw+`"`)
	}
	return strings.Join(quoted, " OR ")
}

// parsePublishedAt intenta los formatos de fecha que devuelve NewsAPI.
func parsePublishedAt(s string) (time.Time, bool) {
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z", "2006-01-02 15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UTC(), true
		}
	}
	return time.Time{}, false
}

func sortByPublishedAt(items []domain.NewsItem) {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].PublishedAt.Before(items[j].PublishedAt)
	})
}
