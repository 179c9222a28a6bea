package refdata

import (
	"context"
	"log/slog"

	"github.com/sony/gobreaker"

	"github.com/pouchworks/quote-service/internal/domain"
	"github.com/pouchworks/quote-service/pkg/metrics"
	"github.com/pouchworks/quote-service/pkg/resilience"
)

// BreakerName is the circuit breaker name reported in logs and metrics
const BreakerName = "reference-data"

// BreakerResolver guards a ReferenceResolver with a circuit breaker so a
// failing reference source fails requests fast instead of piling them up.
type BreakerResolver struct {
	next    domain.ReferenceResolver
	breaker *resilience.CircuitBreaker
}

// NewBreakerResolver wraps next. A nil config uses the resilience defaults.
func NewBreakerResolver(next domain.ReferenceResolver, config *resilience.CircuitBreakerConfig, m *metrics.Metrics, logger *slog.Logger) *BreakerResolver {
	if config == nil {
		config = resilience.DefaultCircuitBreakerConfig(BreakerName)
	}
	cfg := *config
	userHook := cfg.OnStateChange
	cfg.OnStateChange = func(name string, from, to gobreaker.State) {
		m.SetCircuitBreakerState(name, int(to))
		if to == gobreaker.StateOpen {
			m.RecordCircuitBreakerTrip(name)
		}
		if userHook != nil {
			userHook(name, from, to)
		}
	}
	m.SetCircuitBreakerState(cfg.Name, int(gobreaker.StateClosed))

	return &BreakerResolver{
		next:    next,
		breaker: resilience.NewCircuitBreaker(&cfg, logger),
	}
}

// Resolve implements domain.ReferenceResolver
func (r *BreakerResolver) Resolve(ctx context.Context, materialID, bagTypeID string) (domain.ResolvedReference, error) {
	result, err := r.breaker.Execute(ctx, func(ctx context.Context) (any, error) {
		return r.next.Resolve(ctx, materialID, bagTypeID)
	})
	if err != nil {
		return domain.ResolvedReference{}, err
	}
	return result.(domain.ResolvedReference), nil
}

// State returns the breaker state
func (r *BreakerResolver) State() gobreaker.State {
	return r.breaker.State()
}
