package marketplace

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/infrastructure/retry"
)

func testRetrier() *retry.Client {
	return NewRetrier(retry.Options{MaxRetries: 1, InitialDelay: time.Millisecond})
}

func TestRegistry(t *testing.T) {
	retrier := testRetrier()

	smartstore, err := NewSmartStoreAdapter(&SmartStoreConfig{
		ClientID: "cid", ClientSecret: "secret", ChannelID: "ch-1",
	}, nil, retrier, nil)
	require.NoError(t, err)

	coupang, err := NewCoupangAdapter(&CoupangConfig{
		AccessKey: "ak", SecretKey: "sk", VendorID: "A00012345",
	}, nil, retrier, nil)
	require.NoError(t, err)

	reg := NewRegistry()
	reg.Register(smartstore)
	reg.Register(coupang)

	t.Run("lookup returns registered adapter", func(t *testing.T) {
		got, err := reg.Adapter(integration.PlatformCodeCoupang)
		require.NoError(t, err)
		assert.Equal(t, integration.PlatformCodeCoupang, got.PlatformCode())
	})

	t.Run("missing platform", func(t *testing.T) {
		_, err := reg.Adapter(integration.PlatformCodeEleven)
		require.ErrorIs(t, err, integration.ErrPlatformNotConfigured)
		assert.Contains(t, err.Error(), "ELEVEN")
	})

	t.Run("adapters sorted by code", func(t *testing.T) {
		all := reg.Adapters()
		require.Len(t, all, 2)
		assert.Equal(t, integration.PlatformCodeCoupang, all[0].PlatformCode())
		assert.Equal(t, integration.PlatformCodeSmartStore, all[1].PlatformCode())
	})
}
