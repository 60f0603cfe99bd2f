package assist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/fibersift/fibersift/internal/catalog"
)

// ErrAssistDisabled is returned when the service has no usable backend.
// Only the assist surface degrades; ingestion and querying are unaffected.
var ErrAssistDisabled = errors.New("assist service disabled")

// Service answers free-form shopping questions over a set of catalog
// products by grounding the LLM prompt in their data.
type Service struct {
	client  *Client
	enabled bool
	logger  *slog.Logger
}

// NewService builds the assist service. A configuration without the
// credentials its provider needs yields a disabled service rather than an
// error, so the rest of the system runs without LLM access.
func NewService(enabled bool, cfg ClientConfig, logger *slog.Logger) *Service {
	log := logger.With("component", "assist_service")

	if enabled && cfg.Provider == ProviderOpenAI && cfg.APIKey == "" {
		log.Warn("assist disabled: openai provider configured without api key")
		enabled = false
	}
	if enabled && (cfg.Provider == ProviderOllama || cfg.Provider == ProviderCustom) && cfg.Endpoint == "" {
		log.Warn("assist disabled: provider configured without endpoint", "provider", cfg.Provider)
		enabled = false
	}

	s := &Service{enabled: enabled, logger: log}
	if enabled {
		s.client = NewClient(cfg, logger)
	}
	return s
}

// Enabled reports whether the service can answer questions.
func (s *Service) Enabled() bool { return s.enabled }

// Answer responds to a user question grounded in the given products. The
// model's response is returned verbatim.
func (s *Service) Answer(ctx context.Context, question string, products []catalog.Product) (string, error) {
	if !s.enabled {
		return "", ErrAssistDisabled
	}

	prompt := buildPrompt(question, products)
	s.logger.Debug("assist prompt built", "products", len(products), "bytes", len(prompt))

	answer, err := s.client.Generate(ctx, prompt)
	if err != nil {
		return "", fmt.Errorf("assist generate: %w", err)
	}
	return strings.TrimSpace(answer), nil
}

// buildPrompt renders the product context block followed by the question.
// One line per product keeps the block compact enough for small models.
func buildPrompt(question string, products []catalog.Product) string {
	var b strings.Builder
	b.WriteString("You are a shopping assistant for a cotton clothing catalog. ")
	b.WriteString("Answer the question using only the products listed below.\n\nProducts:\n")

	for _, p := range products {
		price := "price unknown"
		if p.Price != nil {
			price = fmt.Sprintf("%.2f %s", *p.Price, p.Currency)
		}
		fmt.Fprintf(&b, "- %s | %s | %d%% cotton | %s | %s\n",
			p.Name, price, p.CottonPercentage, p.Category, p.URL)
	}
	if len(products) == 0 {
		b.WriteString("(no matching products)\n")
	}

	b.WriteString("\nQuestion: ")
	b.WriteString(question)
	return b.String()
}
