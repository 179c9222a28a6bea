package application

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/semaphore"

	"github.com/pouchworks/quote-service/internal/domain"
	"github.com/pouchworks/quote-service/pkg/cache"
	apperrors "github.com/pouchworks/quote-service/pkg/errors"
	"github.com/pouchworks/quote-service/pkg/logging"
	"github.com/pouchworks/quote-service/pkg/metrics"
	"github.com/pouchworks/quote-service/pkg/resilience"
	"github.com/pouchworks/quote-service/pkg/tracing"
)

// Config holds QuoteService configuration
type Config struct {
	Currency           string
	CalculationTimeout time.Duration
	Workers            int
	MaxInflightLines   int64
	Validity           time.Duration
	Limits             Limits
	Comparison         domain.ComparisonConfig
	Cache              cache.Config
}

// DefaultConfig returns the production defaults
func DefaultConfig() Config {
	return Config{
		Currency:           "JPY",
		CalculationTimeout: 6 * time.Second,
		Workers:            8,
		MaxInflightLines:   2000,
		Validity:           24 * time.Hour,
		Limits:             DefaultLimits(),
		Comparison:         domain.DefaultComparisonConfig(),
		Cache:              cache.DefaultConfig(),
	}
}

// comparisonResult is the cached part of a comparison. It is shared between
// requests and must not be mutated after it is stored.
type comparisonResult struct {
	Calculations    map[int]domain.QuoteLineResult
	Comparison      domain.MultiQuantityComparison
	Recommendations []domain.Recommendation
	Impact          domain.ProcessingImpact
	ValidUntil      time.Time
	BestQuantity    int
}

// QuoteService handles the quote use cases
type QuoteService struct {
	catalog      *domain.OptionCatalog
	resolver     domain.ReferenceResolver
	calculator   LineCalculator
	orchestrator *Orchestrator
	validator    *RequestValidator
	cache        *cache.Cache[*comparisonResult]
	capacity     *semaphore.Weighted
	config       Config
	logger       *logging.Logger
	metrics      *metrics.Metrics
	now          func() time.Time
}

// NewQuoteService creates a new QuoteService
func NewQuoteService(
	catalog *domain.OptionCatalog,
	resolver domain.ReferenceResolver,
	calculator LineCalculator,
	config Config,
	logger *logging.Logger,
	m *metrics.Metrics,
) *QuoteService {
	if config.MaxInflightLines <= 0 {
		config.MaxInflightLines = DefaultConfig().MaxInflightLines
	}
	if config.CalculationTimeout <= 0 {
		config.CalculationTimeout = DefaultConfig().CalculationTimeout
	}
	if config.Currency == "" {
		config.Currency = DefaultConfig().Currency
	}
	return &QuoteService{
		catalog:      catalog,
		resolver:     resolver,
		calculator:   calculator,
		orchestrator: NewOrchestrator(calculator, config.Workers),
		validator:    NewRequestValidator(config.Limits),
		cache:        cache.New[*comparisonResult](config.Cache),
		capacity:     semaphore.NewWeighted(config.MaxInflightLines),
		config:       config,
		logger:       logger.WithComponent("quote-service"),
		metrics:      m,
		now:          time.Now,
	}
}

// CompareQuantities prices the specification at every requested quantity and
// assembles the comparison. Identical requests are served from the cache and
// concurrent identical requests share one computation.
func (s *QuoteService) CompareQuantities(ctx context.Context, req *MultiQuantityQuoteRequest) (*MultiQuantityQuoteResponse, error) {
	start := s.now()

	spec, quantities, appErr := s.validator.ValidateMultiQuantity(req)
	if appErr != nil {
		s.metrics.RecordComparison(appErr.Code, 0, false, s.now().Sub(start))
		return nil, appErr
	}

	mode := domain.ParseComparisonMode(req.ComparisonMode)
	includeRecommendations := req.IncludeRecommendations == nil || *req.IncludeRecommendations

	key, err := CacheKey(spec, quantities, mode, includeRecommendations)
	if err != nil {
		return nil, s.fail(ctx, start, len(quantities), err)
	}

	result, outcome, err := s.cache.GetOrLoad(ctx, key, func(ctx context.Context) (*comparisonResult, error) {
		return s.compute(ctx, spec, quantities, mode, includeRecommendations)
	})
	s.logger.CacheEvent(ctx, string(outcome), key)
	s.metrics.RecordCacheResult(string(outcome), s.cache.Len())
	if err != nil {
		return nil, s.fail(ctx, start, len(quantities), err)
	}

	cached := outcome == cache.OutcomeHit
	duration := s.now().Sub(start)
	s.metrics.RecordComparison("success", len(quantities), cached, duration)
	s.logger.QuoteComparison(ctx, len(quantities), cached, result.BestQuantity, duration)

	return &MultiQuantityQuoteResponse{
		Success: true,
		Data: MultiQuantityQuoteData{
			BaseParams:       spec,
			Quantities:       quantities,
			Calculations:     result.Calculations,
			Comparison:       result.Comparison,
			Recommendations:  result.Recommendations,
			ProcessingImpact: result.Impact,
		},
		Metadata: s.metadata(ctx, start, result.ValidUntil, cached),
	}, nil
}

// CalculateQuote prices a single quantity without caching
func (s *QuoteService) CalculateQuote(ctx context.Context, req *QuoteRequest) (*QuoteResponse, error) {
	start := s.now()

	spec, quantity, appErr := s.validator.ValidateQuote(req)
	if appErr != nil {
		return nil, appErr
	}

	ctx, cancel := context.WithTimeout(ctx, s.config.CalculationTimeout)
	defer cancel()

	pc, err := s.pricingContext(ctx, spec)
	if err != nil {
		return nil, s.mapError(err)
	}
	line, err := s.calculator.PriceForQuantity(pc, quantity)
	if err != nil {
		return nil, s.mapError(err)
	}
	s.metrics.RecordQuoteLines(1)
	if !line.MinimumQuantityMet {
		s.metrics.RecordMinimumQuantityWarning(1)
	}

	issues := s.catalog.CheckCompatibility(spec.BagTypeID, spec.PostProcessingOptionIDs)
	if issues == nil {
		issues = []domain.CompatibilityIssue{}
	}

	return &QuoteResponse{
		Success: true,
		Data: QuoteData{
			BaseParams:          spec,
			Quote:               line,
			ProcessingImpact:    pc.Impact,
			CompatibilityIssues: issues,
		},
		Metadata: s.metadata(ctx, start, s.now().Add(s.config.Validity), false),
	}, nil
}

// ListOptions returns catalog entries filtered by category and bag type. Empty
// filters match everything; unknown values match nothing.
func (s *QuoteService) ListOptions(category, bagTypeID string) []domain.ProcessingOption {
	var opts []domain.ProcessingOption
	switch {
	case category != "":
		opts = s.catalog.GetOptionsByCategory(domain.OptionCategory(category))
	case bagTypeID != "":
		opts = s.catalog.GetOptionsCompatibleWith(bagTypeID)
	default:
		return s.catalog.All()
	}
	if category == "" || bagTypeID == "" {
		return opts
	}
	filtered := make([]domain.ProcessingOption, 0, len(opts))
	for _, o := range opts {
		if o.IsCompatibleWith(bagTypeID) {
			filtered = append(filtered, o)
		}
	}
	return filtered
}

// Categories returns the catalog categories
func (s *QuoteService) Categories() []domain.OptionCategory {
	return s.catalog.Categories()
}

// GetOption looks up one catalog entry
func (s *QuoteService) GetOption(id string) (domain.ProcessingOption, error) {
	opt, ok := s.catalog.GetOptionByID(id)
	if !ok {
		return domain.ProcessingOption{}, apperrors.ErrNotFoundWithID("processing option", id)
	}
	return opt, nil
}

// CalculateImpact composes the impact of an option set and reports
// compatibility problems against the optional bag type.
func (s *QuoteService) CalculateImpact(req *ImpactRequest) (*ImpactResponse, error) {
	if appErr := s.validator.ValidateImpact(req); appErr != nil {
		return nil, appErr
	}
	issues := s.catalog.CheckCompatibility(req.BagTypeID, req.OptionIDs)
	if issues == nil {
		issues = []domain.CompatibilityIssue{}
	}
	return &ImpactResponse{
		Success: true,
		Data: ImpactData{
			Impact:              s.catalog.CalculateImpact(req.OptionIDs),
			CompatibilityIssues: issues,
		},
	}, nil
}

// CacheStats exposes the result cache counters
func (s *QuoteService) CacheStats() cache.Stats {
	return s.cache.Stats()
}

// PurgeCache drops expired comparison results and returns how many were removed
func (s *QuoteService) PurgeCache() int {
	return s.cache.PurgeExpired()
}

// Ready reports whether the service can take traffic
func (s *QuoteService) Ready() error {
	if s.catalog == nil || s.resolver == nil || s.calculator == nil {
		return errors.New("quote service is not fully configured")
	}
	return nil
}

func (s *QuoteService) compute(ctx context.Context, spec domain.PackagingSpecification, quantities []int, mode domain.ComparisonMode, includeRecommendations bool) (*comparisonResult, error) {
	ctx, cancel := context.WithTimeout(ctx, s.config.CalculationTimeout)
	defer cancel()

	ctx, span := tracing.StartSpan(ctx, "quote.compare",
		attribute.Int("quote.quantity_count", len(quantities)),
		attribute.String("quote.mode", string(mode)),
		attribute.String("quote.bag_type", spec.BagTypeID),
	)
	defer span.End()

	weight := int64(len(quantities))
	if !s.capacity.TryAcquire(weight) {
		err := apperrors.ErrInsufficientStorage("calculation capacity exhausted, retry later").
			WithDetail("requestedLines", weight)
		tracing.RecordError(span, err)
		return nil, err
	}
	defer s.capacity.Release(weight)

	pc, err := s.pricingContext(ctx, spec)
	if err != nil {
		tracing.RecordError(span, err)
		return nil, err
	}

	lines, err := s.orchestrator.PriceAll(ctx, pc, quantities)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordQuoteLines(len(lines))

	calculations := make(map[int]domain.QuoteLineResult, len(lines))
	warned := 0
	for _, l := range lines {
		calculations[l.Quantity] = l
		if !l.MinimumQuantityMet {
			warned++
		}
	}
	s.metrics.RecordMinimumQuantityWarning(warned)

	comparison := domain.CompareQuantities(lines, mode, s.config.Comparison)
	recommendations := []domain.Recommendation{}
	if includeRecommendations {
		recommendations = domain.BuildRecommendations(lines, comparison, s.config.Currency)
	}

	return &comparisonResult{
		Calculations:    calculations,
		Comparison:      comparison,
		Recommendations: recommendations,
		Impact:          pc.Impact,
		ValidUntil:      s.now().Add(s.config.Validity).UTC(),
		BestQuantity:    comparison.BestValue.Quantity,
	}, nil
}

// pricingContext resolves reference data and option impact once per request
func (s *QuoteService) pricingContext(ctx context.Context, spec domain.PackagingSpecification) (domain.PricingContext, error) {
	ref, err := s.resolver.Resolve(ctx, spec.MaterialID, spec.BagTypeID)
	if err != nil {
		return domain.PricingContext{}, err
	}
	if ref.MaterialFallback || ref.BagTypeFallback {
		s.logger.WithContext(ctx).Debug("Reference data fallback",
			"materialId", spec.MaterialID,
			"bagTypeId", spec.BagTypeID,
			"materialFallback", ref.MaterialFallback,
			"bagTypeFallback", ref.BagTypeFallback,
		)
	}
	return domain.PricingContext{
		Spec:      spec,
		Reference: ref,
		Impact:    s.catalog.CalculateImpact(spec.PostProcessingOptionIDs),
	}, nil
}

func (s *QuoteService) fail(ctx context.Context, start time.Time, quantities int, err error) *apperrors.AppError {
	appErr := s.mapError(err)
	s.metrics.RecordComparison(appErr.Code, quantities, false, s.now().Sub(start))
	if appErr.HTTPStatus >= 500 {
		s.logger.WithContext(ctx).WithError(err).Error("Quote comparison failed", "code", appErr.Code)
	}
	return appErr
}

// mapError classifies a failure from the pricing pipeline
func (s *QuoteService) mapError(err error) *apperrors.AppError {
	var violation *domain.MinimumQuantityViolation
	switch {
	case apperrors.IsAppError(err):
		appErr, _ := apperrors.AsAppError(err)
		return appErr
	case errors.As(err, &violation):
		return apperrors.ErrMinimumQuantity(violation.Quantity, violation.MinimumQuantity).Wrap(err)
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled):
		return apperrors.ErrTimeout("quote calculation").Wrap(err)
	case errors.Is(err, resilience.ErrCircuitOpen):
		return apperrors.ErrCircuitOpen("reference data").Wrap(err)
	default:
		return apperrors.ErrCalculation("").Wrap(fmt.Errorf("pricing pipeline: %w", err))
	}
}

func (s *QuoteService) metadata(ctx context.Context, start time.Time, validUntil time.Time, cached bool) Metadata {
	now := s.now()
	return Metadata{
		ProcessingTime: now.Sub(start).Milliseconds(),
		Currency:       s.config.Currency,
		ValidUntil:     validUntil,
		Cached:         cached,
		SessionID:      uuid.New().String(),
		Timestamp:      now.UTC(),
		RequestID:      logging.RequestIDFromContext(ctx),
	}
}
