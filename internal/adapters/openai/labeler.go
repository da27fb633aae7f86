package openai

// labeler.go — etiquetado de artículos con chat completions.
//
// Cada artículo se manda por separado con temperature 0 y se espera un JSON
// estricto {topic, relevance, sentiment}. Cualquier fallo — API caída,
// respuesta no-JSON, valores fuera de rango — degrada ese artículo a la
// etiqueta neutra (other, no relevante, 0) y el lote sigue: un artículo
// perdido no tumba un etiquetado de miles.

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"golang.org/x/time/rate"

	"github.com/alejandrodnm/polysent/internal/domain"
)

const (
	defaultBase  = "https://api.openai.com/v1"
	defaultModel = "gpt-4.1-mini"

	// Tamaño de lote solo para reportar progreso; las llamadas son 1 a 1.
	batchSize = 20

	// Contenido truncado antes de mandarlo: el título y la descripción ya
	// cargan la señal, el resto solo quema tokens.
	maxContentChars = 2000

	requestsPerSec = 2
)

const promptTemplate = "You are a macro and Federal Reserve policy analyst." +
	" Given the following news article title, description, and content," +
	" determine whether it discusses Fed policy, interest rates, inflation, jobs, or is unrelated." +
	" Respond with a strict JSON object containing keys:" +
	" topic (Fed_rate | inflation | jobs | other)," +
	" relevance (1 if clearly about Fed/macro policy/inflation/jobs, else 0)," +
	" sentiment (-1 bearish/hawkish, 0 neutral, 1 bullish/dovish for risk assets)."

// Client etiqueta artículos contra la API de chat completions de OpenAI.
type Client struct {
	http    *http.Client
	base    string
	apiKey  string
	model   string
	limiter *rate.Limiter
}

// NewClient crea un Client. base y model vacíos usan los de producción.
func NewClient(base, apiKey, model string) *Client {
	if base == "" {
		base = defaultBase
	}
	if model == "" {
		model = defaultModel
	}
	return &Client{
		http:    &http.Client{Timeout: 60 * time.Second},
		base:    strings.TrimRight(base, "/"),
		apiKey:  apiKey,
		model:   model,
		limiter: rate.NewLimiter(requestsPerSec, 1),
	}
}

type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []chatMessage `json:"messages"`
	Temperature float64       `json:"temperature"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

// labelResult es el JSON que debe devolver el modelo por artículo.
type labelResult struct {
	Topic     string      `json:"topic"`
	Relevance json.Number `json:"relevance"`
	Sentiment json.Number `json:"sentiment"`
}

// Label devuelve una copia de los artículos con topic, relevancia y
// sentimiento rellenos. Falla entero solo si no hay API key; los fallos por
// artículo degradan a etiqueta neutra.
func (c *Client) Label(ctx context.Context, items []domain.NewsItem) ([]domain.NewsItem, error) {
	if len(items) == 0 {
		return nil, nil
	}
	if c.apiKey == "" {
		return nil, fmt.Errorf("openai.Label: OPENAI_API_KEY is not set")
	}

	labeled := make([]domain.NewsItem, len(items))
	copy(labeled, items)

	fallbacks := 0
	for i := range labeled {
		res, err := c.labelOne(ctx, labeled[i])
		if err != nil {
			if ctx.Err() != nil {
				return nil, fmt.Errorf("openai.Label: %w", ctx.Err())
			}
			slog.Debug("labeling failed, using neutral label", "url", labeled[i].URL, "err", err)
			res = labelResult{Topic: "other"}
			fallbacks++
		}
		applyLabel(&labeled[i], res)

		if (i+1)%batchSize == 0 || i == len(labeled)-1 {
			slog.Info("labeling progress", "done", i+1, "total", len(labeled), "fallbacks", fallbacks)
		}
	}
	return labeled, nil
}

// labelOne manda un artículo al modelo y parsea su respuesta.
func (c *Client) labelOne(ctx context.Context, item domain.NewsItem) (labelResult, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return labelResult{}, fmt.Errorf("rate limiter: %w", err)
	}

	content := item.Content
	if len(content) > maxContentChars {
		// el corte es por runas: un corte por bytes puede partir un
		// carácter multibyte y mandar UTF-8 inválido al modelo
		if runes := []rune(content); len(runes) > maxContentChars {
			content = string(runes[:maxContentChars])
		}
	}
	user := fmt.Sprintf("%s\nTitle: %s\nDescription: %s\nContent: %s",
		promptTemplate, item.Title, item.Description, content)

	reqBody := chatRequest{
		Model: c.model,
		Messages: []chatMessage{
			{Role: "system", Content: promptTemplate},
			{Role: "user", Content: user},
		},
		Temperature: 0,
	}
	b, err := json.Marshal(reqBody)
	if err != nil {
		return labelResult{}, fmt.Errorf("marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+"/chat/completions", bytes.NewReader(b))
	if err != nil {
		return labelResult{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.http.Do(req)
	if err != nil {
		return labelResult{}, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return labelResult{}, fmt.Errorf("status %d: %s", resp.StatusCode, string(body))
	}

	var chat chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chat); err != nil {
		return labelResult{}, fmt.Errorf("decode response: %w", err)
	}
	if len(chat.Choices) == 0 {
		return labelResult{}, fmt.Errorf("empty choices")
	}

	var res labelResult
	if err := json.Unmarshal([]byte(chat.Choices[0].Message.Content), &res); err != nil {
		return labelResult{}, fmt.Errorf("model did not return strict JSON: %w", err)
	}
	return res, nil
}

// applyLabel vuelca el resultado del modelo en el artículo, normalizando
// valores fuera de contrato a la etiqueta neutra.
func applyLabel(item *domain.NewsItem, res labelResult) {
	item.Topic = res.Topic
	if item.Topic == "" {
		item.Topic = "other"
	}

	rel, _ := res.Relevance.Float64()
	item.Relevant = int(rel) == 1

	sent := 0
	if f, err := res.Sentiment.Float64(); err == nil {
		sent = int(f)
	}
	if sent < domain.SentimentBearish || sent > domain.SentimentBullish {
		sent = domain.SentimentNeutral
	}
	item.Sentiment = sent
}
