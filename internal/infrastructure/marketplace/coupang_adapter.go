package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/infrastructure/ratelimit"
	"github.com/crosslist/backend/internal/infrastructure/retry"
)

// coupangOrderedAtLayout is the order timestamp layout.
const coupangOrderedAtLayout = "2006-01-02T15:04:05"

// CoupangAdapter implements the PlatformAdapter port for Coupang.
type CoupangAdapter struct {
	config    *CoupangConfig
	transport *transport
	logger    *zap.Logger
}

// NewCoupangAdapter creates a Coupang adapter composing the given rate
// limiter and retrying client for all outbound calls.
func NewCoupangAdapter(config *CoupangConfig, limiter *ratelimit.FixedWindowLimiter, retrier *retry.Client, logger *zap.Logger) (*CoupangAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := &http.Client{Timeout: time.Duration(config.TimeoutSeconds) * time.Second}
	return &CoupangAdapter{
		config:    config,
		transport: newTransport(integration.PlatformCodeCoupang, config.VendorID, limiter, retrier, httpClient, logger),
		logger:    logger,
	}, nil
}

// PlatformCode returns the platform code this adapter handles.
func (a *CoupangAdapter) PlatformCode() integration.PlatformCode {
	return integration.PlatformCodeCoupang
}

// ---------------------------------------------------------------------------
// Product Operations
// ---------------------------------------------------------------------------

// RegisterProduct creates a new listing on Coupang.
func (a *CoupangAdapter) RegisterProduct(ctx context.Context, listing *integration.Listing) (*integration.RegisterResult, error) {
	payload := a.buildProductRequest(listing)
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("coupang: marshal product: %w", err)
	}

	path := fmt.Sprintf("/v2/providers/seller_api/apis/api/v1/marketplace/vendors/%s/products", a.config.VendorID)
	cr, err := a.post(ctx, path, body)
	if err != nil {
		return nil, classifyTransportError(a.PlatformCode(), err)
	}

	var resp coupangProductResponse
	if err := json.Unmarshal(cr.Body, &resp); err != nil {
		return nil, fmt.Errorf("coupang: parse response: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, a.businessError(resp.Code, resp.Message, cr.Attempts)
	}

	return &integration.RegisterResult{
		PlatformProductID: resp.Data.SellerProductID,
		Raw:               string(cr.Body),
		Attempts:          cr.Attempts,
	}, nil
}

// UpdateProduct updates an existing listing on Coupang.
func (a *CoupangAdapter) UpdateProduct(ctx context.Context, platformProductID string, listing *integration.Listing) error {
	payload := a.buildProductRequest(listing)
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("coupang: marshal product: %w", err)
	}

	path := fmt.Sprintf("/v2/providers/seller_api/apis/api/v1/marketplace/vendors/%s/products/%s", a.config.VendorID, platformProductID)
	cr, err := a.transport.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := jsonRequest(ctx, http.MethodPut, a.config.APIBaseURL+path, body)
		if err != nil {
			return nil, err
		}
		a.authorize(req, http.MethodPut, path, "")
		return req, nil
	})
	if err != nil {
		return classifyTransportError(a.PlatformCode(), err)
	}
	return a.checkEnvelope(cr)
}

// DeleteProduct removes a listing from Coupang.
func (a *CoupangAdapter) DeleteProduct(ctx context.Context, platformProductID string) error {
	path := fmt.Sprintf("/v2/providers/seller_api/apis/api/v1/marketplace/vendors/%s/products/%s", a.config.VendorID, platformProductID)
	cr, err := a.transport.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodDelete, a.config.APIBaseURL+path, nil)
		if err != nil {
			return nil, err
		}
		a.authorize(req, http.MethodDelete, path, "")
		return req, nil
	})
	if err != nil {
		return classifyTransportError(a.PlatformCode(), err)
	}
	return a.checkEnvelope(cr)
}

// ListProducts pages through our listings on Coupang.
func (a *CoupangAdapter) ListProducts(ctx context.Context, opts integration.ListOptions) ([]integration.ProductSummary, error) {
	path := fmt.Sprintf("/v2/providers/seller_api/apis/api/v1/marketplace/vendors/%s/products", a.config.VendorID)
	query := listQuery(opts)

	cr, err := a.get(ctx, path, query)
	if err != nil {
		return nil, classifyTransportError(a.PlatformCode(), err)
	}

	var resp coupangProductListResponse
	if err := json.Unmarshal(cr.Body, &resp); err != nil {
		return nil, fmt.Errorf("coupang: parse response: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, a.businessError(resp.Code, resp.Message, cr.Attempts)
	}

	products := make([]integration.ProductSummary, 0, len(resp.Data.Products))
	for _, p := range resp.Data.Products {
		products = append(products, integration.ProductSummary{
			PlatformProductID: p.SellerProductID,
			Title:             p.SellerProductName,
			Price:             parseDecimal(p.SalePrice),
			Quantity:          p.Quantity,
			OnSale:            p.StatusName == "APPROVED",
		})
	}
	return products, nil
}

// ListOrders pages through Coupang orders in a time range.
func (a *CoupangAdapter) ListOrders(ctx context.Context, opts integration.ListOptions) ([]integration.Order, error) {
	path := fmt.Sprintf("/v2/providers/openapi/apis/api/v4/vendors/%s/ordersheets", a.config.VendorID)
	query := listQuery(opts)

	cr, err := a.get(ctx, path, query)
	if err != nil {
		return nil, classifyTransportError(a.PlatformCode(), err)
	}

	var resp coupangOrderListResponse
	if err := json.Unmarshal(cr.Body, &resp); err != nil {
		return nil, fmt.Errorf("coupang: parse response: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, a.businessError(resp.Code, resp.Message, cr.Attempts)
	}

	orders := make([]integration.Order, 0, len(resp.Data.Orders))
	for _, o := range resp.Data.Orders {
		orders = append(orders, a.convertOrder(&o))
	}
	return orders, nil
}

// UpdateInventory sets the sellable quantity of a listing.
func (a *CoupangAdapter) UpdateInventory(ctx context.Context, update integration.InventoryUpdate) error {
	path := fmt.Sprintf("/v2/providers/seller_api/apis/api/v1/marketplace/vendors/%s/products/%s/quantity", a.config.VendorID, update.PlatformProductID)
	body, err := json.Marshal(map[string]any{"quantity": update.Quantity})
	if err != nil {
		return fmt.Errorf("coupang: marshal inventory: %w", err)
	}

	cr, err := a.transport.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := jsonRequest(ctx, http.MethodPut, a.config.APIBaseURL+path, body)
		if err != nil {
			return nil, err
		}
		a.authorize(req, http.MethodPut, path, "")
		return req, nil
	})
	if err != nil {
		return classifyTransportError(a.PlatformCode(), err)
	}
	return a.checkEnvelope(cr)
}

// ListCategories returns the Coupang display category tree.
func (a *CoupangAdapter) ListCategories(ctx context.Context) ([]integration.Category, error) {
	path := "/v2/providers/seller_api/apis/api/v1/marketplace/meta/display-categories"

	cr, err := a.get(ctx, path, "")
	if err != nil {
		return nil, classifyTransportError(a.PlatformCode(), err)
	}

	var resp coupangCategoryListResponse
	if err := json.Unmarshal(cr.Body, &resp); err != nil {
		return nil, fmt.Errorf("coupang: parse response: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, a.businessError(resp.Code, resp.Message, cr.Attempts)
	}

	categories := make([]integration.Category, 0, len(resp.Data))
	for _, c := range resp.Data {
		categories = append(categories, integration.Category{
			ID:       c.DisplayCategoryCode,
			Name:     c.Name,
			ParentID: c.ParentCode,
			Leaf:     c.IsLeaf,
		})
	}
	return categories, nil
}

// UploadImage pushes raw image bytes to the Coupang image host.
func (a *CoupangAdapter) UploadImage(ctx context.Context, data []byte, filename string) (*integration.UploadedImage, error) {
	path := fmt.Sprintf("/v2/providers/seller_api/apis/api/v1/marketplace/vendors/%s/images", a.config.VendorID)

	cr, err := a.transport.do(ctx, func(ctx context.Context) (*http.Request, error) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("image", filename)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(data); err != nil {
			return nil, err
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.APIBaseURL+path, &buf)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		a.authorize(req, http.MethodPost, path, "")
		return req, nil
	})
	if err != nil {
		return nil, classifyTransportError(a.PlatformCode(), err)
	}

	var resp coupangImageUploadResponse
	if err := json.Unmarshal(cr.Body, &resp); err != nil {
		return nil, fmt.Errorf("coupang: parse response: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, a.businessError(resp.Code, resp.Message, cr.Attempts)
	}
	return &integration.UploadedImage{URL: resp.Data.CdnPath, ImageID: resp.Data.ImageID}, nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

func (a *CoupangAdapter) buildProductRequest(listing *integration.Listing) *coupangProductRequest {
	req := &coupangProductRequest{
		DisplayCategoryCode: listing.CategoryID,
		SellerProductName:   listing.Title,
		VendorID:            a.config.VendorID,
		Brand:               listing.BrandName,
		Description:         listing.Description,
		SalePrice:           listing.Price.String(),
		OriginalPrice:       listing.OriginalPrice.String(),
		MaximumBuyCount:     listing.Quantity,
		MainImageURL:        listing.MainImageURL,
		ImageURLs:           listing.AdditionalImageURLs,
	}
	for _, opt := range listing.Options {
		req.Items = append(req.Items, coupangProductItem{
			ItemName:          opt.Name,
			ExternalVendorSKU: opt.SKU,
			SalePrice:         opt.Price.String(),
			MaximumBuyCount:   opt.Quantity,
		})
	}
	// A listing without explicit options still needs one sellable item.
	if len(req.Items) == 0 {
		req.Items = append(req.Items, coupangProductItem{
			ItemName:          listing.Title,
			ExternalVendorSKU: listing.ProductID,
			SalePrice:         listing.Price.String(),
			MaximumBuyCount:   listing.Quantity,
		})
	}
	for name, value := range listing.Attributes {
		req.Attributes = append(req.Attributes, coupangAttribute{
			AttributeTypeName: name,
			AttributeValue:    value,
		})
	}
	return req
}

func (a *CoupangAdapter) convertOrder(o *coupangOrder) integration.Order {
	order := integration.Order{
		PlatformOrderID: o.OrderID,
		PlatformCode:    integration.PlatformCodeCoupang,
		Status:          o.Status,
		BuyerName:       o.OrdererName,
		TotalAmount:     parseDecimal(o.TotalPaidAmount),
		Currency:        "KRW",
	}
	if t, err := time.Parse(coupangOrderedAtLayout, o.OrderedAt); err == nil {
		order.OrderedAt = t
	}
	for _, item := range o.Items {
		order.Items = append(order.Items, integration.OrderItem{
			PlatformProductID: item.SellerProductID,
			ProductName:       item.ProductName,
			Quantity:          item.ShippingCount,
			UnitPrice:         parseDecimal(item.SalesPrice),
		})
	}
	if raw, err := json.Marshal(o); err == nil {
		order.Raw = string(raw)
	}
	return order
}

func (a *CoupangAdapter) post(ctx context.Context, path string, body []byte) (*callResult, error) {
	return a.transport.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := jsonRequest(ctx, http.MethodPost, a.config.APIBaseURL+path, body)
		if err != nil {
			return nil, err
		}
		a.authorize(req, http.MethodPost, path, "")
		return req, nil
	})
}

func (a *CoupangAdapter) get(ctx context.Context, path, query string) (*callResult, error) {
	fullURL := a.config.APIBaseURL + path
	if query != "" {
		fullURL += "?" + query
	}
	return a.transport.do(ctx, func(ctx context.Context) (*http.Request, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Accept", "application/json")
		a.authorize(req, http.MethodGet, path, query)
		return req, nil
	})
}

func (a *CoupangAdapter) authorize(req *http.Request, method, path, query string) {
	req.Header.Set("Authorization", a.config.Sign(method, path, query, time.Now()))
	req.Header.Set("X-Requested-By", a.config.VendorID)
}

// checkEnvelope parses the common envelope of mutating calls.
func (a *CoupangAdapter) checkEnvelope(cr *callResult) error {
	var env coupangEnvelope
	if err := json.Unmarshal(cr.Body, &env); err != nil {
		return fmt.Errorf("coupang: parse response: %w", err)
	}
	if !env.IsSuccess() {
		return a.businessError(env.Code, env.Message, cr.Attempts)
	}
	return nil
}

// businessError maps Coupang business codes onto the error taxonomy. These
// failures arrive with HTTP 200, so the retrying client never saw them; they
// are terminal by definition.
func (a *CoupangAdapter) businessError(code, message string, attempts int) *integration.PlatformError {
	pe := &integration.PlatformError{
		Platform:   a.PlatformCode(),
		Kind:       integration.ErrorKindValidation,
		Code:       code,
		HTTPStatus: http.StatusOK,
		Message:    message,
		Attempts:   attempts,
		Err:        integration.ErrPlatformRequestFailed,
	}
	switch code {
	case coupangCodeProhibitedKeyword:
		pe.Kind = integration.ErrorKindPolicy
		pe.Hint = "remove the flagged keyword from the title or description"
	case coupangCodeInvalidCategory:
		pe.Kind = integration.ErrorKindPolicy
		pe.Hint = "re-run category mapping for this product"
	case coupangCodeDuplicateProduct:
		pe.Hint = "a listing with this external SKU already exists"
	}
	return pe
}

func listQuery(opts integration.ListOptions) string {
	q := url.Values{}
	if !opts.From.IsZero() {
		q.Set("createdAtFrom", opts.From.UTC().Format(coupangOrderedAtLayout))
	}
	if !opts.To.IsZero() {
		q.Set("createdAtTo", opts.To.UTC().Format(coupangOrderedAtLayout))
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 {
		q.Set("maxPerPage", strconv.Itoa(opts.PageSize))
	}
	return q.Encode()
}

func parseDecimal(s string) decimal.Decimal {
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero
	}
	return d
}

// Ensure CoupangAdapter implements PlatformAdapter
var _ integration.PlatformAdapter = (*CoupangAdapter)(nil)
