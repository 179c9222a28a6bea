package refdata

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pouchworks/quote-service/internal/domain"
	"github.com/pouchworks/quote-service/pkg/metrics"
	"github.com/pouchworks/quote-service/pkg/resilience"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestDefaultCatalog(t *testing.T) {
	catalog, err := Default()
	require.NoError(t, err)

	pet, ok := catalog.Material("pet")
	require.True(t, ok)
	assert.Equal(t, 450.0, pet.CostPerKg)
	assert.Equal(t, 1.38, pet.Density)

	foil, ok := catalog.Material("opp-alu-foil")
	require.True(t, ok)
	assert.True(t, foil.ThicknessRequired)

	standUp, ok := catalog.BagType("stand_up")
	require.True(t, ok)
	assert.Equal(t, 18.0, standUp.ProcessingCostPerUnit)
	assert.Equal(t, 40000.0, standUp.SetupCost)
	assert.False(t, standUp.Flat)

	assert.Contains(t, catalog.BagTypeIDs(), "soft_pouch")
}

func TestThicknessFamilyMatchesDomain(t *testing.T) {
	catalog, err := Default()
	require.NoError(t, err)

	for _, id := range []string{"PET", "PP", "PE", "ALUMINUM", "PAPER_LAMINATE", "opp-alu-foil", "kraft-pe", "alu-vapor", "pet-transparent"} {
		m, ok := catalog.Material(id)
		require.True(t, ok, id)
		assert.Equal(t, domain.RequiresThickness(id), m.ThicknessRequired, id)
	}
}

func TestResolveFallsBackToDefaults(t *testing.T) {
	catalog, err := Default()
	require.NoError(t, err)

	ref, err := catalog.Resolve(context.Background(), "material-1", "bag-type-1")
	require.NoError(t, err)

	assert.Equal(t, "PET", ref.Material.ID)
	assert.Equal(t, "flat_3_side", ref.BagType.ID)
	assert.True(t, ref.MaterialFallback)
	assert.True(t, ref.BagTypeFallback)

	ref, err = catalog.Resolve(context.Background(), "kraft-pe", "gusset")
	require.NoError(t, err)
	assert.False(t, ref.MaterialFallback)
	assert.False(t, ref.BagTypeFallback)
}

func TestResolveHonoursCancellation(t *testing.T) {
	catalog, err := Default()
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = catalog.Resolve(ctx, "PET", "stand_up")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestLoadRejectsInvalidDocuments(t *testing.T) {
	tests := map[string]string{
		"bad yaml": "materials: [",
		"unknown default": `
defaultMaterial: NYLON
defaultBagType: flat_3_side
materials:
  - {id: PET, costPerKg: 450, density: 1.38}
bagTypes:
  - {id: flat_3_side, processingCostPerUnit: 15, setupCost: 30000, flat: true}
`,
		"zero density": `
defaultMaterial: PET
defaultBagType: flat_3_side
materials:
  - {id: PET, costPerKg: 450, density: 0}
bagTypes:
  - {id: flat_3_side, processingCostPerUnit: 15, setupCost: 30000, flat: true}
`,
		"duplicate bag type": `
defaultMaterial: PET
defaultBagType: flat_3_side
materials:
  - {id: PET, costPerKg: 450, density: 1.38}
bagTypes:
  - {id: flat_3_side, processingCostPerUnit: 15, setupCost: 30000, flat: true}
  - {id: FLAT_3_SIDE, processingCostPerUnit: 16, setupCost: 30000, flat: true}
`,
	}

	for name, doc := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := Load([]byte(doc))
			assert.ErrorIs(t, err, ErrInvalidReferenceData)
		})
	}
}

type resolverFunc func(ctx context.Context, materialID, bagTypeID string) (domain.ResolvedReference, error)

func (f resolverFunc) Resolve(ctx context.Context, materialID, bagTypeID string) (domain.ResolvedReference, error) {
	return f(ctx, materialID, bagTypeID)
}

func TestBreakerResolverPassesThrough(t *testing.T) {
	catalog, err := Default()
	require.NoError(t, err)

	r := NewBreakerResolver(catalog, nil, nil, testLogger())

	ref, err := r.Resolve(context.Background(), "PP", "box")
	require.NoError(t, err)
	assert.Equal(t, "PP", ref.Material.ID)
	assert.Equal(t, "box", ref.BagType.ID)
	assert.Equal(t, gobreaker.StateClosed, r.State())
}

func TestBreakerResolverOpensAfterFailures(t *testing.T) {
	m := metrics.New(metrics.DefaultConfig("quote-service"))
	calls := 0
	failing := resolverFunc(func(context.Context, string, string) (domain.ResolvedReference, error) {
		calls++
		return domain.ResolvedReference{}, errors.New("reference source down")
	})

	config := resilience.DefaultCircuitBreakerConfig(BreakerName)
	config.FailureThreshold = 3
	config.Timeout = time.Hour
	r := NewBreakerResolver(failing, config, m, testLogger())

	for i := 0; i < 3; i++ {
		_, err := r.Resolve(context.Background(), "PET", "stand_up")
		require.Error(t, err)
	}

	_, err := r.Resolve(context.Background(), "PET", "stand_up")
	assert.ErrorIs(t, err, resilience.ErrCircuitOpen)
	assert.Equal(t, 3, calls)
	assert.Equal(t, gobreaker.StateOpen, r.State())
	assert.Equal(t, float64(1), testutil.ToFloat64(m.CircuitBreakerTrips.WithLabelValues("quote-service", BreakerName)))
	assert.Equal(t, float64(gobreaker.StateOpen), testutil.ToFloat64(m.CircuitBreakerState.WithLabelValues("quote-service", BreakerName)))

	// caller's config is not modified
	assert.Nil(t, config.OnStateChange)
}
