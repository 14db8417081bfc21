package gemini

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/Tomas-vilte/MateGrade/internal/config"
	domainErrors "github.com/Tomas-vilte/MateGrade/internal/errors"
	"github.com/Tomas-vilte/MateGrade/internal/logger"
	"github.com/Tomas-vilte/MateGrade/internal/ports"
	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
)

const (
	ProviderName = "gemini"
	DefaultModel = "gemini-1.5-flash"
)

var _ ports.TextGenerator = (*Generator)(nil)

type generateFunc func(ctx context.Context, apiKey, prompt string) (*genai.GenerateContentResponse, error)

// Generator is a ports.TextGenerator backed by the Gemini API. The key is
// supplied per call, so a client is created for every request.
type Generator struct {
	model       string
	temperature float32
	generateFn  generateFunc
}

func NewGenerator(model string, temperature float32) *Generator {
	if model == "" {
		model = DefaultModel
	}
	g := &Generator{
		model:       model,
		temperature: temperature,
	}
	g.generateFn = g.defaultGenerate
	return g
}

func (g *Generator) defaultGenerate(ctx context.Context, apiKey, prompt string) (*genai.GenerateContentResponse, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := client.Close(); cerr != nil {
			logger.Debug(ctx, "closing gemini client", "error", cerr)
		}
	}()

	model := client.GenerativeModel(g.model)
	model.SetTemperature(g.temperature)
	return model.GenerateContent(ctx, genai.Text(prompt))
}

func (g *Generator) Generate(ctx context.Context, prompt, apiKey string) (string, error) {
	if apiKey == "" {
		return "", domainErrors.ErrAPIKeyMissing
	}

	log := logger.FromContext(ctx)
	log.Debug("calling gemini API", "model", g.model, "prompt_length", len(prompt))

	resp, err := g.generateFn(ctx, apiKey, prompt)
	if err != nil {
		classified := classifyError(ctx, err)
		log.Error("gemini API call failed", "error", classified, "model", g.model)
		return "", classified
	}

	text := formatResponse(resp)
	if strings.TrimSpace(text) == "" {
		return "", domainErrors.ErrEvaluatorResponse.
			WithError(errors.New("no text candidates")).
			WithContext("model", g.model)
	}
	return text, nil
}

func formatResponse(resp *genai.GenerateContentResponse) string {
	if resp == nil || len(resp.Candidates) == 0 {
		return ""
	}

	var b strings.Builder
	for _, cand := range resp.Candidates {
		if cand == nil || cand.Content == nil {
			continue
		}
		for _, part := range cand.Content.Parts {
			if text, ok := part.(genai.Text); ok {
				b.WriteString(string(text))
			}
		}
		// Only the first usable candidate is graded.
		if b.Len() > 0 {
			break
		}
	}
	return b.String()
}

func classifyError(ctx context.Context, err error) error {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) || errors.Is(err, context.DeadlineExceeded) {
		return domainErrors.ErrEvaluatorTimeout.WithError(err)
	}

	var blocked *genai.BlockedError
	if errors.As(err, &blocked) {
		return domainErrors.ErrEvaluatorResponse.WithError(err)
	}

	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return domainErrors.ErrEvaluatorAuth.WithError(err)
		case http.StatusTooManyRequests:
			return domainErrors.ErrEvaluatorQuota.WithError(err)
		case http.StatusBadRequest:
			if strings.Contains(strings.ToLower(apiErr.Message), "api key") {
				return domainErrors.ErrEvaluatorAuth.WithError(err)
			}
		}
		return domainErrors.ErrEvaluatorNetwork.WithError(err).WithContext("status_code", apiErr.Code)
	}

	errMsg := strings.ToLower(err.Error())
	if strings.Contains(errMsg, "quota") ||
		strings.Contains(errMsg, "rate limit") ||
		strings.Contains(errMsg, "resource exhausted") {
		return domainErrors.ErrEvaluatorQuota.WithError(err)
	}

	if strings.Contains(errMsg, "unauthenticated") ||
		strings.Contains(errMsg, "permission denied") ||
		strings.Contains(errMsg, "api key") {
		return domainErrors.ErrEvaluatorAuth.WithError(err)
	}

	return domainErrors.ErrEvaluatorNetwork.WithError(err)
}

// ProviderFactory registers Gemini in the provider registry.
type ProviderFactory struct{}

func (ProviderFactory) Name() string {
	return ProviderName
}

func (ProviderFactory) ValidateConfig(cfg *config.Config) error {
	if strings.TrimSpace(cfg.AI.Model) == "" {
		return domainErrors.ErrConfigInvalid.WithContext("field", "ai.model")
	}
	if cfg.AI.Temperature < 0 || cfg.AI.Temperature > 2 {
		return domainErrors.ErrConfigInvalid.WithContext("field", "ai.temperature")
	}
	return nil
}

func (f ProviderFactory) CreateGenerator(cfg *config.Config) (ports.TextGenerator, error) {
	if err := f.ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return NewGenerator(cfg.AI.Model, cfg.AI.Temperature), nil
}
