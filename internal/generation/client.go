// Package generation produces chapter content from a composed prompt, either
// through an external text-completion API or a deterministic local mock.
package generation

import (
	"context"
	"fmt"
	"strings"
	"time"

	"storyrunner/internal/config"
	"storyrunner/internal/models"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
)

var (
	generationRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "storyrunner_generation_requests_total",
			Help: "Total number of chapter generation requests.",
		},
		[]string{"model", "status"},
	)
	generationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyrunner_generation_duration_seconds",
			Help:    "Histogram of chapter generation durations.",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"model"},
	)
	generationTotalTokens = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "storyrunner_generation_total_tokens",
			Help:    "Histogram of total token counts per generation request.",
			Buckets: prometheus.LinearBuckets(350, 350, 20),
		},
		[]string{"model"},
	)
)

// Client generates one chapter from a fully composed prompt. Implementations
// must not persist anything; the caller owns storage.
type Client interface {
	GenerateChapter(ctx context.Context, prompt string, chapterIndex int) (*models.GeneratedChapter, error)
}

// systemPrompt instructs the model to answer with a single JSON object the
// parser understands.
const systemPrompt = `You are the narrator of an interactive story. Given the instruction text,
write the next chapter. Respond with a single JSON object and nothing else:
{"title": "...", "body": "...", "choices": ["...", "...", "..."]}
The body is 2-4 paragraphs of narrative prose. Offer exactly three choices,
each a short action the reader can take next.`

type openAIClient struct {
	client     *openai.Client
	model      string
	timeout    time.Duration
	maxRetries int
	logger     *zap.Logger
}

// NewClient builds the configured generation client: the OpenAI-backed one, or
// the deterministic mock when mock mode is selected or no API key is present.
func NewClient(cfg *config.Config, logger *zap.Logger) Client {
	if cfg.MockGeneration() {
		logger.Info("Chapter generation running in mock mode")
		return NewMockClient()
	}

	clientConfig := openai.DefaultConfig(cfg.GenerationAPIKey)
	if cfg.GenerationBaseURL != "" {
		clientConfig.BaseURL = cfg.GenerationBaseURL
	}
	return &openAIClient{
		client:     openai.NewClientWithConfig(clientConfig),
		model:      cfg.GenerationModel,
		timeout:    cfg.GenerationTimeout,
		maxRetries: cfg.GenerationMaxRetries,
		logger:     logger.Named("GenerationClient"),
	}
}

func (c *openAIClient) GenerateChapter(ctx context.Context, prompt string, chapterIndex int) (*models.GeneratedChapter, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("%w: empty prompt", models.ErrGenerationFailed)
	}

	log := c.logger.With(zap.String("model", c.model), zap.Int("chapterIndex", chapterIndex))

	var lastErr error
	for attempt := 0; attempt <= c.maxRetries; attempt++ {
		if attempt > 0 {
			// Linear backoff between attempts; the per-attempt timeout below
			// bounds the total time a caller can be held.
			select {
			case <-ctx.Done():
				return nil, fmt.Errorf("%w: %v", models.ErrGenerationFailed, ctx.Err())
			case <-time.After(time.Duration(attempt) * time.Second):
			}
			log.Warn("Retrying chapter generation", zap.Int("attempt", attempt), zap.Error(lastErr))
		}

		chapter, err := c.generateOnce(ctx, prompt)
		if err == nil {
			return chapter, nil
		}
		lastErr = err
	}

	log.Error("Chapter generation failed after retries", zap.Error(lastErr))
	return nil, lastErr
}

func (c *openAIClient) generateOnce(ctx context.Context, prompt string) (*models.GeneratedChapter, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	startTime := time.Now()
	resp, err := c.client.CreateChatCompletion(reqCtx, openai.ChatCompletionRequest{
		Model: c.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: systemPrompt},
			{Role: openai.ChatMessageRoleUser, Content: prompt},
		},
	})
	duration := time.Since(startTime)

	if err != nil {
		generationRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error"}).Inc()
		return nil, fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		generationRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_empty_response"}).Inc()
		return nil, fmt.Errorf("%w: empty response", models.ErrGenerationFailed)
	}

	chapter, err := ParseChapterResponse(resp.Choices[0].Message.Content)
	if err != nil {
		generationRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "error_unparseable"}).Inc()
		return nil, fmt.Errorf("%w: %v", models.ErrGenerationFailed, err)
	}

	generationRequestsTotal.With(prometheus.Labels{"model": c.model, "status": "success"}).Inc()
	generationDuration.With(prometheus.Labels{"model": c.model}).Observe(duration.Seconds())
	if resp.Usage.TotalTokens > 0 {
		generationTotalTokens.With(prometheus.Labels{"model": c.model}).Observe(float64(resp.Usage.TotalTokens))
	}
	return chapter, nil
}
