package retention

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/2389/finch-store/internal/store"
)

func TestPolicy_Days_Default(t *testing.T) {
	mock := store.NewMockStore()
	policy := NewPolicy(mock, DefaultDays, nil)

	assert.Equal(t, 14, policy.Days(context.Background()))
}

func TestPolicy_Days_Stored(t *testing.T) {
	ctx := context.Background()
	mock := store.NewMockStore()
	assert.NoError(t, mock.SetIntPref(ctx, store.PrefRetentionDays, 30))

	policy := NewPolicy(mock, DefaultDays, nil)
	assert.Equal(t, 30, policy.Days(ctx))
}

func TestPolicy_Days_Malformed(t *testing.T) {
	mock := store.NewMockStore()
	mock.SetRawPref(store.PrefRetentionDays, "not-a-number")

	policy := NewPolicy(mock, DefaultDays, nil)
	assert.Equal(t, 14, policy.Days(context.Background()),
		"malformed preference must degrade to the default")
}

func TestPolicy_SetDefaultDays(t *testing.T) {
	mock := store.NewMockStore()
	policy := NewPolicy(mock, DefaultDays, nil)

	// With no stored preference, the replaced default takes effect
	policy.SetDefaultDays(30)
	assert.Equal(t, 30, policy.Days(context.Background()))

	// A stored preference still wins over the default
	assert.NoError(t, mock.SetIntPref(context.Background(), store.PrefRetentionDays, 7))
	assert.Equal(t, 7, policy.Days(context.Background()))
}

func TestDisabledAndImmediate(t *testing.T) {
	assert.True(t, Disabled(-1))
	assert.False(t, Disabled(0))
	assert.False(t, Disabled(14))

	assert.True(t, Immediate(0))
	assert.False(t, Immediate(-1))
	assert.False(t, Immediate(14))
}

func TestCutoffMillis(t *testing.T) {
	now := time.UnixMilli(1_000_000_000_000)

	assert.Equal(t, now.UnixMilli()-14*DayMillis, CutoffMillis(14, now))
	assert.Equal(t, now.UnixMilli()-DayMillis, CutoffMillis(1, now))
}

func TestExpired_InclusiveBoundary(t *testing.T) {
	now := time.UnixMilli(1_000_000_000_000)

	// Exactly 14 days old: eligible
	exactly := now.UnixMilli() - 14*DayMillis
	assert.True(t, Expired(14, exactly, now))

	// One millisecond younger: not eligible
	assert.False(t, Expired(14, exactly+1, now))

	// One millisecond older: eligible
	assert.True(t, Expired(14, exactly-1, now))
}

func TestExpired_ZeroTimestamp(t *testing.T) {
	now := time.Now()

	// A zero timestamp means the conversation was never soft-deleted;
	// it is not a purge candidate regardless of retention.
	assert.False(t, Expired(0, 0, now))
	assert.False(t, Expired(14, 0, now))
}

func TestClampDays(t *testing.T) {
	assert.Equal(t, 0, ClampDays(-5))
	assert.Equal(t, 0, ClampDays(0))
	assert.Equal(t, 14, ClampDays(14))
	assert.Equal(t, 999, ClampDays(999))
	assert.Equal(t, 999, ClampDays(1000))
}
