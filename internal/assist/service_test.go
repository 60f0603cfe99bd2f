package assist

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/fibersift/fibersift/internal/catalog"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func TestServiceDisabledWithoutCredentials(t *testing.T) {
	tests := []struct {
		name string
		cfg  ClientConfig
	}{
		{"openai without key", ClientConfig{Provider: ProviderOpenAI}},
		{"ollama without endpoint", ClientConfig{Provider: ProviderOllama}},
		{"custom without endpoint", ClientConfig{Provider: ProviderCustom}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := NewService(true, tt.cfg, testLogger)
			if s.Enabled() {
				t.Error("service should be disabled")
			}
			if _, err := s.Answer(context.Background(), "anything", nil); !errors.Is(err, ErrAssistDisabled) {
				t.Errorf("err = %v, want ErrAssistDisabled", err)
			}
		})
	}
}

func TestServiceDisabledByConfig(t *testing.T) {
	s := NewService(false, ClientConfig{Provider: ProviderCustom, Endpoint: "http://localhost:9"}, testLogger)
	if s.Enabled() {
		t.Error("explicitly disabled service reports enabled")
	}
}

func TestAnswerGroundsPromptInProducts(t *testing.T) {
	var gotPrompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		var payload struct {
			Prompt string `json:"prompt"`
		}
		if err := json.Unmarshal(body, &payload); err != nil {
			t.Errorf("decode request: %v", err)
		}
		gotPrompt = payload.Prompt
		io.WriteString(w, "The cheapest option is the Crew Tee.")
	}))
	defer srv.Close()

	s := NewService(true, ClientConfig{Provider: ProviderCustom, Endpoint: srv.URL}, testLogger)
	price := 19.90
	products := []catalog.Product{
		{
			Name:             "Crew Tee",
			Price:            &price,
			Currency:         "EUR",
			CottonPercentage: 95,
			Category:         catalog.CategoryTops,
			URL:              "https://shop.example.com/p1.html",
		},
	}

	answer, err := s.Answer(context.Background(), "what is cheapest?", products)
	if err != nil {
		t.Fatalf("answer: %v", err)
	}
	if answer != "The cheapest option is the Crew Tee." {
		t.Errorf("answer = %q, model response must pass through verbatim", answer)
	}

	for _, want := range []string{"Crew Tee", "19.90 EUR", "95% cotton", "tops", "https://shop.example.com/p1.html", "what is cheapest?"} {
		if !strings.Contains(gotPrompt, want) {
			t.Errorf("prompt missing %q:\n%s", want, gotPrompt)
		}
	}
}

func TestAnswerSurfacesBackendErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	s := NewService(true, ClientConfig{Provider: ProviderCustom, Endpoint: srv.URL}, testLogger)
	_, err := s.Answer(context.Background(), "anything?", nil)
	if err == nil {
		t.Fatal("backend error body must not come back as an answer")
	}
	if !strings.Contains(err.Error(), "429") || !strings.Contains(err.Error(), "quota exceeded") {
		t.Errorf("err = %v, want status and body snippet", err)
	}
}

func TestBuildPromptHandlesMissingPriceAndEmptySet(t *testing.T) {
	prompt := buildPrompt("anything cheap?", []catalog.Product{{Name: "Mystery Tee"}})
	if !strings.Contains(prompt, "price unknown") {
		t.Error("unpriced product should render as price unknown")
	}

	empty := buildPrompt("anything?", nil)
	if !strings.Contains(empty, "no matching products") {
		t.Error("empty product set should be stated in the prompt")
	}
}
