package quota

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func strPtr(s string) *string { return &s }

func tierPtr(t Tier) *Tier { return &t }

func TestUpdateOrganization_TierOverwritesAllLimits(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	future := time.Now().Add(time.Hour)
	seedOrg(t, store, "org-1",
		map[ResourceType]int64{ResourcePlugins: 3, ResourcePipelines: 3, ResourceAPICalls: 3},
		freshUsage(future))

	mutator := NewMutator(store, testDefaults())

	org, err := mutator.UpdateOrganization(ctx, "org-1", UpdateRequest{Tier: tierPtr(TierPro)})
	require.NoError(t, err)

	assert.Equal(t, TierPro, org.Tier)
	assert.Equal(t, int64(1000), org.Limits[ResourcePlugins])
	assert.Equal(t, int64(100), org.Limits[ResourcePipelines])
	assert.Equal(t, Unlimited, org.Limits[ResourceAPICalls])
}

func TestUpdateOrganization_OverridesWinOverTierPreset(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	future := time.Now().Add(time.Hour)
	seedOrg(t, store, "org-1",
		map[ResourceType]int64{ResourcePlugins: 3, ResourcePipelines: 3, ResourceAPICalls: 3},
		freshUsage(future))

	mutator := NewMutator(store, testDefaults())

	org, err := mutator.UpdateOrganization(ctx, "org-1", UpdateRequest{
		Tier:   tierPtr(TierPro),
		Limits: map[ResourceType]int64{ResourceAPICalls: 500},
	})
	require.NoError(t, err)

	// Pro tier everywhere, but the explicit apiCalls override wins.
	assert.Equal(t, int64(1000), org.Limits[ResourcePlugins])
	assert.Equal(t, int64(100), org.Limits[ResourcePipelines])
	assert.Equal(t, int64(500), org.Limits[ResourceAPICalls])
}

func TestUpdateOrganization_LimitsOnlyLeavesTierLabel(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	future := time.Now().Add(time.Hour)
	seedOrg(t, store, "org-1",
		map[ResourceType]int64{ResourcePlugins: 3, ResourcePipelines: 3, ResourceAPICalls: 3},
		freshUsage(future))

	mutator := NewMutator(store, testDefaults())

	org, err := mutator.UpdateOrganization(ctx, "org-1", UpdateRequest{
		Limits: map[ResourceType]int64{ResourcePlugins: 42},
	})
	require.NoError(t, err)

	assert.Equal(t, TierDeveloper, org.Tier)
	assert.Equal(t, int64(42), org.Limits[ResourcePlugins])
	assert.Equal(t, int64(3), org.Limits[ResourcePipelines])
}

func TestUpdateOrganization_NameAndSlug(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	future := time.Now().Add(time.Hour)
	seedOrg(t, store, "org-1",
		map[ResourceType]int64{ResourcePlugins: 3, ResourcePipelines: 3, ResourceAPICalls: 3},
		freshUsage(future))

	mutator := NewMutator(store, testDefaults())

	org, err := mutator.UpdateOrganization(ctx, "org-1", UpdateRequest{
		Name: strPtr("Beta Industries"),
		Slug: strPtr("beta"),
	})
	require.NoError(t, err)

	assert.Equal(t, "Beta Industries", org.Name)
	assert.Equal(t, "beta", org.Slug)
	// Limits untouched.
	assert.Equal(t, int64(3), org.Limits[ResourcePlugins])
}

func TestUpdateOrganization_NotFound(t *testing.T) {
	mutator := NewMutator(NewMemoryStore(), testDefaults())

	_, err := mutator.UpdateOrganization(context.Background(), "no-such-org", UpdateRequest{
		Name: strPtr("ghost"),
	})
	assert.ErrorIs(t, err, ErrOrgNotFound)
}

func TestUpdateOrganization_RejectsNegativeLimit(t *testing.T) {
	mutator := NewMutator(NewMemoryStore(), testDefaults())

	_, err := mutator.UpdateOrganization(context.Background(), "org-1", UpdateRequest{
		Limits: map[ResourceType]int64{ResourcePlugins: -2},
	})
	assert.Error(t, err)
	assert.NotErrorIs(t, err, ErrOrgNotFound)
}

func TestUpdateOrganization_RejectsUnknownResourceType(t *testing.T) {
	mutator := NewMutator(NewMemoryStore(), testDefaults())

	_, err := mutator.UpdateOrganization(context.Background(), "org-1", UpdateRequest{
		Limits: map[ResourceType]int64{"widgets": 5},
	})
	var invalidType *InvalidResourceTypeError
	assert.ErrorAs(t, err, &invalidType)
}

func TestResetUsage_SingleTypeLeavesOthersUntouched(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	future := time.Now().Add(time.Hour)
	seedOrg(t, store, "org-1",
		map[ResourceType]int64{ResourcePlugins: 10, ResourcePipelines: 10, ResourceAPICalls: Unlimited},
		map[ResourceType]Usage{
			ResourcePlugins:   {Used: 9, ResetAt: future},
			ResourcePipelines: {Used: 4, ResetAt: future},
			ResourceAPICalls:  {Used: 123, ResetAt: future},
		})

	now := time.Now()
	mutator := NewMutator(store, testDefaults()).WithClock(func() time.Time { return now })

	rt := ResourcePlugins
	org, err := mutator.ResetUsage(ctx, "org-1", &rt)
	require.NoError(t, err)

	assert.Equal(t, int64(0), org.Usage[ResourcePlugins].Used)
	assert.Equal(t, now.Add(DefaultResetPeriod), org.Usage[ResourcePlugins].ResetAt)
	assert.Equal(t, int64(4), org.Usage[ResourcePipelines].Used)
	assert.Equal(t, int64(123), org.Usage[ResourceAPICalls].Used)
}

func TestResetUsage_AllTypes(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	future := time.Now().Add(time.Hour)
	seedOrg(t, store, "org-1",
		map[ResourceType]int64{ResourcePlugins: 10, ResourcePipelines: 10, ResourceAPICalls: Unlimited},
		map[ResourceType]Usage{
			ResourcePlugins:   {Used: 9, ResetAt: future},
			ResourcePipelines: {Used: 4, ResetAt: future},
			ResourceAPICalls:  {Used: 123, ResetAt: future},
		})

	mutator := NewMutator(store, testDefaults())

	org, err := mutator.ResetUsage(ctx, "org-1", nil)
	require.NoError(t, err)

	for _, rt := range ResourceTypes() {
		assert.Equal(t, int64(0), org.Usage[rt].Used, "usage for %s", rt)
	}
}

func TestResetUsage_NotFound(t *testing.T) {
	mutator := NewMutator(NewMemoryStore(), testDefaults())

	_, err := mutator.ResetUsage(context.Background(), "no-such-org", nil)
	assert.ErrorIs(t, err, ErrOrgNotFound)
}
