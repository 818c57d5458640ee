package registration

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosslist/backend/internal/domain/integration"
)

func orderAt(platform integration.PlatformCode, id string, at time.Time) integration.Order {
	return integration.Order{
		PlatformOrderID: id,
		PlatformCode:    platform,
		OrderedAt:       at,
	}
}

func TestOrderPuller_Pull_MergesNewestFirst(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	coupang := &fakeAdapter{
		code: integration.PlatformCodeCoupang,
		orders: []integration.Order{
			orderAt(integration.PlatformCodeCoupang, "cp-1", base),
			orderAt(integration.PlatformCodeCoupang, "cp-2", base.Add(2*time.Hour)),
		},
	}
	eleven := &fakeAdapter{
		code: integration.PlatformCodeEleven,
		orders: []integration.Order{
			orderAt(integration.PlatformCodeEleven, "el-1", base.Add(time.Hour)),
		},
	}

	puller := NewOrderPuller(newFakeRegistry(coupang, eleven), nil)

	res, err := puller.Pull(context.Background(), integration.ListOptions{From: base.Add(-24 * time.Hour), To: base.Add(3 * time.Hour)})
	require.NoError(t, err)

	require.Len(t, res.Orders, 3)
	assert.Equal(t, "cp-2", res.Orders[0].PlatformOrderID)
	assert.Equal(t, "el-1", res.Orders[1].PlatformOrderID)
	assert.Equal(t, "cp-1", res.Orders[2].PlatformOrderID)
	assert.Empty(t, res.Failed)
}

func TestOrderPuller_Pull_DegradesOnPlatformFailure(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	coupang := &fakeAdapter{
		code:   integration.PlatformCodeCoupang,
		orders: []integration.Order{orderAt(integration.PlatformCodeCoupang, "cp-1", base)},
	}
	eleven := &fakeAdapter{
		code: integration.PlatformCodeEleven,
		err: &integration.PlatformError{
			Platform: integration.PlatformCodeEleven,
			Kind:     integration.ErrorKindNetwork,
			Message:  "connection refused",
		},
	}

	puller := NewOrderPuller(newFakeRegistry(coupang, eleven), nil)

	res, err := puller.Pull(context.Background(), integration.ListOptions{})
	require.NoError(t, err, "one unreachable platform must not fail the pull")

	require.Len(t, res.Orders, 1)
	assert.Equal(t, "cp-1", res.Orders[0].PlatformOrderID)
	assert.Equal(t, []integration.PlatformCode{integration.PlatformCodeEleven}, res.Failed)
}

func TestOrderPuller_Pull_NoAdapters(t *testing.T) {
	puller := NewOrderPuller(newFakeRegistry(), nil)

	res, err := puller.Pull(context.Background(), integration.ListOptions{})
	require.NoError(t, err)
	assert.Empty(t, res.Orders)
	assert.Empty(t, res.Failed)
}
