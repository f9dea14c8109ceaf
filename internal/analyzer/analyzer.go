package analyzer

import (
	"context"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/sozercan/insight-gateway/apimodels"
	apperrors "github.com/sozercan/insight-gateway/internal/errors"
	"github.com/sozercan/insight-gateway/internal/llm"
	"github.com/sozercan/insight-gateway/internal/logger"
	"github.com/sozercan/insight-gateway/internal/metrics"
)

const DefaultCategoryTimeout = 60 * time.Second

// Outcome is the result of one category. Insights is only meaningful when
// Err is nil.
type Outcome struct {
	Category string
	Insights []string
	Err      error
}

func (o Outcome) OK() bool {
	return o.Err == nil
}

type Analyzer struct {
	catalog        *Catalog
	llmProvider    llm.Provider
	logger         logger.Logger
	timeout        time.Duration
	maxConcurrency int
}

type Option func(*Analyzer)

// WithCategoryTimeout bounds each provider call. Zero disables the bound.
func WithCategoryTimeout(d time.Duration) Option {
	return func(a *Analyzer) { a.timeout = d }
}

// WithMaxConcurrency caps in-flight provider calls. Zero means unbounded.
func WithMaxConcurrency(n int) Option {
	return func(a *Analyzer) { a.maxConcurrency = n }
}

func New(catalog *Catalog, llmProvider llm.Provider, log logger.Logger, opts ...Option) *Analyzer {
	a := &Analyzer{
		catalog:     catalog,
		llmProvider: llmProvider,
		logger:      log.With(map[string]interface{}{"component": "analyzer"}),
		timeout:     DefaultCategoryTimeout,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Generate expands the requested focus areas, fans them out and aggregates
// the successful results. It never fails: categories that fail are absent.
func (a *Analyzer) Generate(ctx context.Context, req apimodels.GenerateRequest) *Insights {
	batchID := uuid.NewString()
	log := a.logger.With(map[string]interface{}{"batch_id": batchID})
	start := time.Now()

	categories := a.catalog.Expand(req.FocusAreas)
	log.Info("starting generation", map[string]interface{}{
		"focus_areas": req.FocusAreas,
		"categories":  categories,
	})

	outcomes := a.fanOut(ctx, log, req, categories)
	result := Aggregate(outcomes)

	log.Info("generation completed", map[string]interface{}{
		"requested": len(categories),
		"succeeded": result.Len(),
		"duration":  time.Since(start).String(),
	})
	return result
}

// FanOut runs every category concurrently and returns one outcome per
// category, in the order given.
func (a *Analyzer) FanOut(ctx context.Context, req apimodels.GenerateRequest, categories []string) []Outcome {
	return a.fanOut(ctx, a.logger, req, categories)
}

func (a *Analyzer) fanOut(ctx context.Context, log logger.Logger, req apimodels.GenerateRequest, categories []string) []Outcome {
	// Category calls outlive a departed caller; only the per-call timeout
	// bounds them.
	ctx = context.WithoutCancel(ctx)

	outcomes := make([]Outcome, len(categories))

	var g errgroup.Group
	if a.maxConcurrency > 0 {
		g.SetLimit(a.maxConcurrency)
	}
	for i, category := range categories {
		g.Go(func() error {
			outcomes[i] = a.runCategory(ctx, log, req, category)
			return nil
		})
	}
	_ = g.Wait()

	return outcomes
}

func (a *Analyzer) runCategory(ctx context.Context, log logger.Logger, req apimodels.GenerateRequest, category string) (out Outcome) {
	start := time.Now()
	log = log.With(map[string]interface{}{"category": category})
	out.Category = category

	defer func() {
		if r := recover(); r != nil {
			out = Outcome{Category: category, Err: apperrors.NewCategoryPanicError(category, r)}
		}
		a.record(log, out, time.Since(start))
	}()

	log.Debug("starting prompt", nil)

	prompt, ok := a.catalog.Render(category, req)
	if !ok {
		out.Err = apperrors.NewTemplateNotFoundError(category)
		return out
	}

	callCtx := ctx
	if a.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	resp, err := a.complete(callCtx, prompt)
	if err != nil {
		out.Err = apperrors.NewLLMCallFailedError(category, err)
		return out
	}

	insights, err := ParseInsights(resp.Content)
	if err != nil {
		out.Err = apperrors.NewSchemaValidationFailedError(category, err.Error())
		return out
	}

	out.Insights = insights
	return out
}

func (a *Analyzer) complete(ctx context.Context, prompt string) (*llm.Response, error) {
	metrics.CategoriesInFlight.Inc()
	defer metrics.CategoriesInFlight.Dec()

	resp, err := a.llmProvider.Complete(ctx, prompt, llm.WithJSONOutput())
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, llm.ErrEmptyResponse
	}
	return resp, nil
}

func (a *Analyzer) record(log logger.Logger, out Outcome, elapsed time.Duration) {
	if out.OK() {
		metrics.CategoryOutcomes.WithLabelValues(metrics.OutcomeSuccess, "none").Inc()
		metrics.CategoryDuration.WithLabelValues(metrics.OutcomeSuccess).Observe(elapsed.Seconds())
		log.Info("category completed", map[string]interface{}{
			"duration": elapsed.String(),
			"insights": len(out.Insights),
		})
		return
	}

	code := apperrors.CodeOf(out.Err)
	metrics.CategoryOutcomes.WithLabelValues(metrics.OutcomeFailure, string(code)).Inc()
	metrics.CategoryDuration.WithLabelValues(metrics.OutcomeFailure).Observe(elapsed.Seconds())
	log.Error("category failed", map[string]interface{}{
		"duration":  elapsed.String(),
		"errorCode": string(code),
		"error":     out.Err,
	})
}
