// Package advisor asks a hosted Gemini model for product descriptions and
// inventory analysis. Every failure turns into a fixed fallback message.
package advisor

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"google.golang.org/genai"

	"github.com/goliatone/go-inventory"
	"github.com/goliatone/go-print"
)

const (
	FallbackEmptyDescription = "No description generated."
	FallbackDescriptionError = "Error generating description (Check API Key)."
	FallbackAnalysisSummary  = "Unable to analyze inventory. Please ensure your API key and network connection are active."
)

// FallbackRecommendations are returned when the analysis fails.
var FallbackRecommendations = []string{"Review stock levels manually", "Contact system administrator"}

const (
	DefaultDescriptionModel = "gemini-2.5-flash"
	DefaultAnalysisModel    = "gemini-2.5-pro"
	DefaultCacheSize        = 256
	DefaultTimeout          = 30 * time.Second
)

// Generator sends a prompt to a model and returns the text of the answer.
type Generator interface {
	Generate(ctx context.Context, model, prompt string, cfg *genai.GenerateContentConfig) (string, error)
}

// GeneratorFunc adapts a function into a Generator.
type GeneratorFunc func(ctx context.Context, model, prompt string, cfg *genai.GenerateContentConfig) (string, error)

func (f GeneratorFunc) Generate(ctx context.Context, model, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	return f(ctx, model, prompt, cfg)
}

// Config selects models and limits.
type Config struct {
	APIKey           string
	DescriptionModel string
	AnalysisModel    string
	CacheSize        int
	Timeout          time.Duration
}

// Option customizes a Service.
type Option func(*Service)

// WithGenerator replaces the Gemini client, mostly for tests.
func WithGenerator(g Generator) Option {
	return func(s *Service) {
		s.gen = g
	}
}

// WithLogger sets the logger.
func WithLogger(l inventory.Logger) Option {
	return func(s *Service) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithCallObserver is called after every model call, err nil on success.
func WithCallObserver(fn func(operation string, err error)) Option {
	return func(s *Service) {
		if fn != nil {
			s.observe = fn
		}
	}
}

// Service implements inventory.Advisor.
type Service struct {
	gen              Generator
	descriptionModel string
	analysisModel    string
	timeout          time.Duration
	cache            *lru.Cache[string, string]
	logger           inventory.Logger
	observe          func(string, error)
}

var _ inventory.Advisor = (*Service)(nil)

// New creates a Service. Without an API key and without WithGenerator the
// service is disabled and always answers with the fallbacks.
func New(ctx context.Context, cfg Config, opts ...Option) (*Service, error) {
	size := cfg.CacheSize
	if size <= 0 {
		size = DefaultCacheSize
	}
	cache, err := lru.New[string, string](size)
	if err != nil {
		return nil, fmt.Errorf("advisor cache: %w", err)
	}

	_, logger := inventory.ResolveLogger("advisor", nil, nil)
	s := &Service{
		descriptionModel: orDefault(cfg.DescriptionModel, DefaultDescriptionModel),
		analysisModel:    orDefault(cfg.AnalysisModel, DefaultAnalysisModel),
		timeout:          cfg.Timeout,
		cache:            cache,
		logger:           logger,
		observe:          func(string, error) {},
	}
	if s.timeout <= 0 {
		s.timeout = DefaultTimeout
	}

	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}

	if s.gen == nil && cfg.APIKey != "" {
		cli, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("advisor gemini client: %w", err)
		}
		s.gen = &geminiGenerator{cli: cli}
	}

	return s, nil
}

// Enabled reports whether a model is wired.
func (s *Service) Enabled() bool {
	return s.gen != nil
}

// GenerateProductDescription writes at most two sentences for a product.
// Answers are cached per name and category.
func (s *Service) GenerateProductDescription(ctx context.Context, name, category string) string {
	if !s.Enabled() {
		return FallbackDescriptionError
	}

	key := strings.ToLower(strings.TrimSpace(name)) + "\x00" + strings.ToLower(strings.TrimSpace(category))
	if v, ok := s.cache.Get(key); ok {
		return v
	}

	prompt := fmt.Sprintf(
		"Write a compelling, short professional description (max 2 sentences) for a product named %q in the category %q.",
		name, category,
	)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.gen.Generate(ctx, s.descriptionModel, prompt, nil)
	s.observe("description", err)
	if err != nil {
		s.logger.Error("advisor description failed", "product", name, "error", err)
		return FallbackDescriptionError
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return FallbackEmptyDescription
	}

	s.cache.Add(key, text)
	return text
}

type simplifiedProduct struct {
	Name  string  `json:"name"`
	Qty   int     `json:"qty"`
	Min   int     `json:"min"`
	Cat   string  `json:"cat"`
	Price float64 `json:"price"`
}

// AnalyzeInventory asks for a summary, recommendations and a restock list.
func (s *Service) AnalyzeInventory(ctx context.Context, products []*inventory.Product) inventory.InventoryAnalysis {
	if !s.Enabled() {
		return fallbackAnalysis()
	}

	simplified := make([]simplifiedProduct, 0, len(products))
	for _, p := range products {
		simplified = append(simplified, simplifiedProduct{
			Name:  p.Name,
			Qty:   p.Quantity,
			Min:   p.MinStock,
			Cat:   p.Category,
			Price: p.Price,
		})
	}

	payload, err := json.Marshal(simplified)
	if err != nil {
		s.logger.Error("advisor could not encode products", "error", err)
		return fallbackAnalysis()
	}

	prompt := "Act as an Inventory Expert. Analyze this stock data: " + string(payload) + ".\n" +
		"Provide a strategic summary, specific recommendations for restocking or sales, " +
		"and a list of high-priority restock items.\n" +
		"Return JSON data conforming to the schema."

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	text, err := s.gen.Generate(ctx, s.analysisModel, prompt, analysisConfig())
	s.observe("analysis", err)
	if err != nil {
		s.logger.Error("advisor analysis failed", "products", len(products), "error", err)
		return fallbackAnalysis()
	}

	analysis, err := parseAnalysis(text)
	if err != nil {
		s.logger.Warn("advisor analysis response could not be parsed",
			"error", err,
			"response", print.MaybePrettyJSON(text),
		)
		return fallbackAnalysis()
	}

	return analysis
}

func parseAnalysis(text string) (inventory.InventoryAnalysis, error) {
	var out inventory.InventoryAnalysis
	text = strings.TrimSpace(text)
	if text == "" {
		return out, fmt.Errorf("empty response from model")
	}
	if err := json.Unmarshal([]byte(text), &out); err != nil {
		return out, err
	}
	if out.Recommendations == nil {
		out.Recommendations = []string{}
	}
	if out.RestockPriority == nil {
		out.RestockPriority = []string{}
	}
	return out, nil
}

func fallbackAnalysis() inventory.InventoryAnalysis {
	return inventory.InventoryAnalysis{
		Summary:         FallbackAnalysisSummary,
		Recommendations: append([]string(nil), FallbackRecommendations...),
		RestockPriority: []string{},
	}
}

func analysisConfig() *genai.GenerateContentConfig {
	return &genai.GenerateContentConfig{
		ResponseMIMEType: "application/json",
		ResponseSchema: &genai.Schema{
			Type: genai.TypeObject,
			Properties: map[string]*genai.Schema{
				"summary": {
					Type:        genai.TypeString,
					Description: "A brief 2-3 sentence overview of the stock health.",
				},
				"recommendations": {
					Type:        genai.TypeArray,
					Items:       &genai.Schema{Type: genai.TypeString},
					Description: "Actionable business advice based on data.",
				},
				"restockPriority": {
					Type:        genai.TypeArray,
					Items:       &genai.Schema{Type: genai.TypeString},
					Description: "Names of products that urgently need restocking.",
				},
			},
			Required: []string{"summary", "recommendations", "restockPriority"},
		},
	}
}

type geminiGenerator struct {
	cli *genai.Client
}

func (g *geminiGenerator) Generate(ctx context.Context, model, prompt string, cfg *genai.GenerateContentConfig) (string, error) {
	resp, err := g.cli.Models.GenerateContent(ctx, model, genai.Text(prompt), cfg)
	if err != nil {
		return "", err
	}
	return resp.Text(), nil
}

func orDefault(v, def string) string {
	if strings.TrimSpace(v) == "" {
		return def
	}
	return v
}
