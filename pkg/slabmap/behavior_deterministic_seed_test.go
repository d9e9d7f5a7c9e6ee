package slabmap_test

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/calvinalkan/slabmap/pkg/slabmap/internal/testutil"
)

// Test_Behavior_Matches_Model_When_Driven_By_Seeded_Ops runs long seeded
// op streams against every container kind.
func Test_Behavior_Matches_Model_When_Driven_By_Seeded_Ops(t *testing.T) {
	t.Parallel()

	seedCount := 20
	opsPerSeed := 2000

	if testing.Short() {
		seedCount = 3
		opsPerSeed = 300
	}

	configs := map[string]testutil.OpGenConfig{
		"default": testutil.DefaultOpGenConfig(),
		"churn":   testutil.ChurnOpGenConfig(),
	}

	for _, kind := range testutil.AllKinds {
		for cfgName, cfg := range configs {
			for i := range seedCount {
				seed := uint64(7000 + i)

				t.Run(fmt.Sprintf("%s/%s/seed=%d", kind, cfgName, seed), func(t *testing.T) {
					t.Parallel()

					src := testutil.NewSeededSource(seed, &cfg)

					testutil.RunBehavior(t, kind, src, testutil.BehaviorRunConfig{
						MaxOps:        opsPerSeed,
						CompareEveryN: 25,
					})
				})
			}
		}
	}
}

// Test_Behavior_Promotes_Small_Maps_When_Driven_By_Seeded_Ops guards that the
// seeded streams actually leave the inline phase, otherwise the small-map
// runs above would only cover the inline code.
func Test_Behavior_Promotes_Small_Maps_When_Driven_By_Seeded_Ops(t *testing.T) {
	t.Parallel()

	cfg := testutil.DefaultOpGenConfig()

	for _, kind := range []testutil.Kind{testutil.KindSmall1, testutil.KindSmall4, testutil.KindSmall32} {
		src := testutil.NewSeededSource(7000, &cfg)

		h := testutil.RunBehavior(t, kind, src, testutil.BehaviorRunConfig{MaxOps: 500})

		assert.True(t, h.Real.Promoted(), "%s: 500 ops with insert-heavy weights must outgrow the inline array", kind)
	}
}
