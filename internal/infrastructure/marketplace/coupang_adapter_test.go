package marketplace

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/infrastructure/retry"
)

func newTestCoupangAdapter(t *testing.T, baseURL string, maxRetries int) *CoupangAdapter {
	t.Helper()
	retrier := NewRetrier(retry.Options{MaxRetries: maxRetries, InitialDelay: time.Millisecond})
	adapter, err := NewCoupangAdapter(&CoupangConfig{
		AccessKey:  "test-access-key",
		SecretKey:  "test-secret",
		VendorID:   "A00012345",
		APIBaseURL: baseURL,
	}, nil, retrier, nil)
	require.NoError(t, err)
	return adapter
}

func testListing() *integration.Listing {
	return &integration.Listing{
		ProductID:   "prod-1",
		Title:       "Wireless Keyboard",
		Description: "<p>Quiet keys</p>",
		CategoryID:  "cp-77421",
		Price:       decimal.NewFromInt(35000),
		Quantity:    10,
	}
}

func TestCoupangAdapter_RegisterProduct(t *testing.T) {
	var gotPath, gotAuth, gotRequestedBy string
	var gotReq coupangProductRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotRequestedBy = r.Header.Get("X-Requested-By")
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"SUCCESS","message":"OK","data":{"sellerProductId":"987654"}}`))
	}))
	defer srv.Close()

	adapter := newTestCoupangAdapter(t, srv.URL, 0)
	result, err := adapter.RegisterProduct(context.Background(), testListing())
	require.NoError(t, err)

	assert.Equal(t, "987654", result.PlatformProductID)
	assert.Equal(t, 1, result.Attempts)
	assert.Contains(t, result.Raw, "SUCCESS")

	assert.Equal(t, "/v2/providers/seller_api/apis/api/v1/marketplace/vendors/A00012345/products", gotPath)
	assert.True(t, strings.HasPrefix(gotAuth, "CEA algorithm=HmacSHA256, access-key=test-access-key"), gotAuth)
	assert.Equal(t, "A00012345", gotRequestedBy)

	// A listing without options still carries one sellable item.
	require.Len(t, gotReq.Items, 1)
	assert.Equal(t, "Wireless Keyboard", gotReq.Items[0].ItemName)
	assert.Equal(t, "prod-1", gotReq.Items[0].ExternalVendorSKU)
	assert.Equal(t, "35000", gotReq.Items[0].SalePrice)
	assert.Equal(t, "cp-77421", gotReq.DisplayCategoryCode)
}

func TestCoupangAdapter_RegisterProduct_PolicyRejection(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"PROHIBITED_KEYWORD","message":"title contains a banned word"}`))
	}))
	defer srv.Close()

	adapter := newTestCoupangAdapter(t, srv.URL, 3)
	_, err := adapter.RegisterProduct(context.Background(), testListing())

	pe, ok := integration.AsPlatformError(err)
	require.True(t, ok)
	assert.Equal(t, integration.ErrorKindPolicy, pe.Kind)
	assert.Equal(t, coupangCodeProhibitedKeyword, pe.Code)
	assert.Equal(t, "title contains a banned word", pe.Message)
	assert.NotEmpty(t, pe.Hint)
	assert.Equal(t, 1, pe.Attempts)
	assert.False(t, pe.Retryable())
}

func TestCoupangAdapter_RegisterProduct_RetriesServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "upstream exploded", http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"SUCCESS","message":"OK","data":{"sellerProductId":"1"}}`))
	}))
	defer srv.Close()

	adapter := newTestCoupangAdapter(t, srv.URL, 3)
	result, err := adapter.RegisterProduct(context.Background(), testListing())
	require.NoError(t, err)
	assert.Equal(t, 2, result.Attempts)
	assert.Equal(t, int32(2), calls.Load())
}

func TestCoupangAdapter_RegisterProduct_RateLimited(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Retry-After", "7")
		w.WriteHeader(http.StatusTooManyRequests)
	}))
	defer srv.Close()

	adapter := newTestCoupangAdapter(t, srv.URL, 0)
	_, err := adapter.RegisterProduct(context.Background(), testListing())

	pe, ok := integration.AsPlatformError(err)
	require.True(t, ok)
	assert.Equal(t, integration.ErrorKindRateLimited, pe.Kind)
	assert.Equal(t, 7*time.Second, pe.RetryAfter)
	assert.True(t, pe.Retryable())
}

func TestCoupangAdapter_RegisterProduct_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close()

	adapter := newTestCoupangAdapter(t, srv.URL, 1)
	_, err := adapter.RegisterProduct(context.Background(), testListing())

	pe, ok := integration.AsPlatformError(err)
	require.True(t, ok)
	assert.Equal(t, integration.ErrorKindNetwork, pe.Kind)
	assert.Equal(t, 2, pe.Attempts)
}

func TestCoupangAdapter_ListOrders(t *testing.T) {
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"SUCCESS","message":"OK","data":{"orders":[
			{"orderId":"O-100","status":"ACCEPT","ordererName":"Kim","totalPaidAmount":"45000","orderedAt":"2024-03-15T10:20:30",
			 "orderItems":[{"sellerProductId":"987654","productName":"Wireless Keyboard","shippingCount":2,"salesPrice":"22500"}]}
		]}}`))
	}))
	defer srv.Close()

	adapter := newTestCoupangAdapter(t, srv.URL, 0)
	from := time.Date(2024, 3, 15, 0, 0, 0, 0, time.UTC)
	orders, err := adapter.ListOrders(context.Background(), integration.ListOptions{
		From: from, To: from.Add(24 * time.Hour), Page: 1, PageSize: 50,
	})
	require.NoError(t, err)

	assert.Contains(t, gotQuery, "createdAtFrom=2024-03-15T00%3A00%3A00")
	assert.Contains(t, gotQuery, "maxPerPage=50")

	require.Len(t, orders, 1)
	o := orders[0]
	assert.Equal(t, "O-100", o.PlatformOrderID)
	assert.Equal(t, integration.PlatformCodeCoupang, o.PlatformCode)
	assert.Equal(t, "Kim", o.BuyerName)
	assert.Equal(t, "KRW", o.Currency)
	assert.True(t, o.TotalAmount.Equal(decimal.NewFromInt(45000)))
	assert.Equal(t, time.Date(2024, 3, 15, 10, 20, 30, 0, time.UTC), o.OrderedAt)
	require.Len(t, o.Items, 1)
	assert.Equal(t, "987654", o.Items[0].PlatformProductID)
	assert.Equal(t, 2, o.Items[0].Quantity)
}

func TestCoupangAdapter_ListCategories(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2/providers/seller_api/apis/api/v1/marketplace/meta/display-categories", r.URL.Path)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"code":"SUCCESS","message":"OK","data":[
			{"displayCategoryCode":"77420","name":"Peripherals","parentCode":"","isLeaf":false},
			{"displayCategoryCode":"77421","name":"Keyboards","parentCode":"77420","isLeaf":true}
		]}`))
	}))
	defer srv.Close()

	adapter := newTestCoupangAdapter(t, srv.URL, 0)
	categories, err := adapter.ListCategories(context.Background())
	require.NoError(t, err)

	require.Len(t, categories, 2)
	assert.Equal(t, "77420", categories[0].ID)
	assert.False(t, categories[0].Leaf)
	assert.Equal(t, "77420", categories[1].ParentID)
	assert.True(t, categories[1].Leaf)
}

func TestCoupangAdapter_UpdateInventory(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPut, r.Method)
		assert.Equal(t, "/v2/providers/seller_api/apis/api/v1/marketplace/vendors/A00012345/products/987654/quantity", r.URL.Path)
		var body map[string]int
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, 5, body["quantity"])
		w.Write([]byte(`{"code":"SUCCESS","message":"OK"}`))
	}))
	defer srv.Close()

	adapter := newTestCoupangAdapter(t, srv.URL, 0)
	err := adapter.UpdateInventory(context.Background(), integration.InventoryUpdate{
		PlatformProductID: "987654",
		Quantity:          5,
	})
	require.NoError(t, err)
}

func TestListQuery(t *testing.T) {
	assert.Empty(t, listQuery(integration.ListOptions{}))

	q := listQuery(integration.ListOptions{
		From:     time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC),
		Page:     2,
		PageSize: 25,
	})
	assert.Contains(t, q, "createdAtFrom=2024-01-02T03%3A04%3A05")
	assert.Contains(t, q, "page=2")
	assert.Contains(t, q, "maxPerPage=25")
	assert.NotContains(t, q, "createdAtTo")
}
