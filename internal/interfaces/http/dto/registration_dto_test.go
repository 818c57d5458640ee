package dto

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosslist/backend/internal/domain/integration"
)

func validRequest() *RegisterProductRequest {
	return &RegisterProductRequest{
		Product: ProductRequest{
			ProductID:  "prod-1",
			Title:      "Wireless Keyboard",
			CategoryID: "electronics",
			Price:      "35000",
			Quantity:   10,
		},
		Platforms: []string{"COUPANG", "ELEVEN"},
	}
}

func TestRegisterProductRequestToInput(t *testing.T) {
	t.Run("defaults", func(t *testing.T) {
		input, err := validRequest().ToInput()
		require.NoError(t, err)

		assert.Equal(t, "prod-1", input.Listing.ProductID)
		assert.True(t, input.Listing.Price.Equal(decimal.NewFromInt(35000)))
		// Original price falls back to the selling price, currency to KRW.
		assert.True(t, input.Listing.OriginalPrice.Equal(decimal.NewFromInt(35000)))
		assert.Equal(t, "KRW", input.Listing.Currency)
		assert.Equal(t, []integration.PlatformCode{integration.PlatformCodeCoupang, integration.PlatformCodeEleven}, input.Platforms)
		assert.False(t, input.Options.SkipCategoryValidation)
	})

	t.Run("explicit original price and options", func(t *testing.T) {
		req := validRequest()
		req.Product.OriginalPrice = "42000"
		req.Product.Options = []OptionRequest{
			{Name: "Color:Black", SKU: "sku-b", Price: "35000", Quantity: 5},
		}
		req.Options.SkipCategoryValidation = true

		input, err := req.ToInput()
		require.NoError(t, err)
		assert.True(t, input.Listing.OriginalPrice.Equal(decimal.NewFromInt(42000)))
		require.Len(t, input.Listing.Options, 1)
		assert.Equal(t, "Color:Black", input.Listing.Options[0].Name)
		assert.True(t, input.Options.SkipCategoryValidation)
	})

	t.Run("invalid price", func(t *testing.T) {
		req := validRequest()
		req.Product.Price = "abc"
		_, err := req.ToInput()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "invalid price")
	})

	t.Run("invalid option price names the option", func(t *testing.T) {
		req := validRequest()
		req.Product.Options = []OptionRequest{{Name: "Size:L", Price: "??"}}
		_, err := req.ToInput()
		require.Error(t, err)
		assert.Contains(t, err.Error(), "Size:L")
	})
}

func TestResponseEnvelopes(t *testing.T) {
	success := NewSuccessResponse(201, "created", map[string]string{"id": "1"})
	assert.Equal(t, StatusSuccess, success.Status)
	assert.Equal(t, 201, success.StatusCode)
	assert.Nil(t, success.Error)
	assert.False(t, success.Timestamp.IsZero())

	fail := NewFailResponse(207, "partial", nil)
	assert.Equal(t, StatusFail, fail.Status)

	errResp := NewErrorResponse(502, ErrCodeDispatchFailed, "no platform accepted the product", "req-1")
	assert.Equal(t, StatusError, errResp.Status)
	require.NotNil(t, errResp.Error)
	assert.Equal(t, ErrCodeDispatchFailed, errResp.Error.Code)
	assert.Equal(t, "req-1", errResp.Error.RequestID)

	withData := NewErrorResponseWithData(422, ErrCodeCategoryUnmapped, "category not mapped", "req-2", []string{"ELEVEN"})
	require.NotNil(t, withData.Error)
	assert.Equal(t, []string{"ELEVEN"}, withData.Data)
}
