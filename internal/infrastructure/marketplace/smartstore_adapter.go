package marketplace

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/infrastructure/ratelimit"
	"github.com/crosslist/backend/internal/infrastructure/retry"
)

const (
	smartstoreOrderedAtLayout = "2006-01-02T15:04:05.000-07:00"

	// tokenRefreshMargin renews the access token before it actually expires.
	tokenRefreshMargin = 60 * time.Second
)

// SmartStoreAdapter implements the PlatformAdapter port for Naver SmartStore.
// It maintains a short-lived bearer token behind a mutex and renews it on
// demand.
type SmartStoreAdapter struct {
	config    *SmartStoreConfig
	transport *transport
	logger    *zap.Logger

	mu           sync.Mutex
	accessToken  string
	tokenExpires time.Time
}

// NewSmartStoreAdapter creates a SmartStore adapter.
func NewSmartStoreAdapter(config *SmartStoreConfig, limiter *ratelimit.FixedWindowLimiter, retrier *retry.Client, logger *zap.Logger) (*SmartStoreAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := &http.Client{Timeout: time.Duration(config.TimeoutSeconds) * time.Second}
	return &SmartStoreAdapter{
		config:    config,
		transport: newTransport(integration.PlatformCodeSmartStore, config.ChannelID, limiter, retrier, httpClient, logger),
		logger:    logger,
	}, nil
}

func (a *SmartStoreAdapter) PlatformCode() integration.PlatformCode {
	return integration.PlatformCodeSmartStore
}

func (a *SmartStoreAdapter) RegisterProduct(ctx context.Context, listing *integration.Listing) (*integration.RegisterResult, error) {
	payload := smartstoreProductRequest{
		OriginProduct: a.buildOriginProduct(listing),
		ChannelID:     a.config.ChannelID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("smartstore: marshal product: %w", err)
	}

	cr, err := a.send(ctx, http.MethodPost, "/v2/products", "", body)
	if err != nil {
		return nil, a.classify(err)
	}

	var resp smartstoreProductResponse
	if err := json.Unmarshal(cr.Body, &resp); err != nil {
		return nil, fmt.Errorf("smartstore: parse response: %w", err)
	}
	return &integration.RegisterResult{
		PlatformProductID: resp.ChannelProductNo,
		Raw:               string(cr.Body),
		Attempts:          cr.Attempts,
	}, nil
}

func (a *SmartStoreAdapter) UpdateProduct(ctx context.Context, platformProductID string, listing *integration.Listing) error {
	payload := smartstoreProductRequest{
		OriginProduct: a.buildOriginProduct(listing),
		ChannelID:     a.config.ChannelID,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("smartstore: marshal product: %w", err)
	}
	if _, err := a.send(ctx, http.MethodPut, "/v2/products/channel-products/"+platformProductID, "", body); err != nil {
		return a.classify(err)
	}
	return nil
}

func (a *SmartStoreAdapter) DeleteProduct(ctx context.Context, platformProductID string) error {
	if _, err := a.send(ctx, http.MethodDelete, "/v2/products/channel-products/"+platformProductID, "", nil); err != nil {
		return a.classify(err)
	}
	return nil
}

func (a *SmartStoreAdapter) ListProducts(ctx context.Context, opts integration.ListOptions) ([]integration.ProductSummary, error) {
	cr, err := a.send(ctx, http.MethodGet, "/v1/products/search", a.listQuery(opts), nil)
	if err != nil {
		return nil, a.classify(err)
	}

	var resp smartstoreProductListResponse
	if err := json.Unmarshal(cr.Body, &resp); err != nil {
		return nil, fmt.Errorf("smartstore: parse response: %w", err)
	}

	products := make([]integration.ProductSummary, 0, len(resp.Contents))
	for _, p := range resp.Contents {
		products = append(products, integration.ProductSummary{
			PlatformProductID: p.ChannelProductNo,
			Title:             p.Name,
			Price:             parseDecimal(p.SalePrice),
			Quantity:          p.StockQuantity,
			OnSale:            p.StatusType == "SALE",
		})
	}
	return products, nil
}

func (a *SmartStoreAdapter) ListOrders(ctx context.Context, opts integration.ListOptions) ([]integration.Order, error) {
	cr, err := a.send(ctx, http.MethodGet, "/v1/pay-order/seller/product-orders", a.listQuery(opts), nil)
	if err != nil {
		return nil, a.classify(err)
	}

	var resp smartstoreOrderListResponse
	if err := json.Unmarshal(cr.Body, &resp); err != nil {
		return nil, fmt.Errorf("smartstore: parse response: %w", err)
	}

	orders := make([]integration.Order, 0, len(resp.Data))
	for _, o := range resp.Data {
		order := integration.Order{
			PlatformOrderID: o.ProductOrderID,
			PlatformCode:    integration.PlatformCodeSmartStore,
			Status:          o.Status,
			BuyerName:       o.OrdererName,
			TotalAmount:     parseDecimal(o.TotalAmount),
			Currency:        "KRW",
		}
		if t, err := time.Parse(smartstoreOrderedAtLayout, o.OrderedAt); err == nil {
			order.OrderedAt = t
		}
		for _, item := range o.Items {
			order.Items = append(order.Items, integration.OrderItem{
				PlatformProductID: item.ChannelProductNo,
				ProductName:       item.ProductName,
				Quantity:          item.Quantity,
				UnitPrice:         parseDecimal(item.UnitPrice),
			})
		}
		if raw, err := json.Marshal(o); err == nil {
			order.Raw = string(raw)
		}
		orders = append(orders, order)
	}
	return orders, nil
}

func (a *SmartStoreAdapter) UpdateInventory(ctx context.Context, update integration.InventoryUpdate) error {
	body, err := json.Marshal(map[string]any{"stockQuantity": update.Quantity})
	if err != nil {
		return fmt.Errorf("smartstore: marshal inventory: %w", err)
	}
	path := "/v1/products/channel-products/" + update.PlatformProductID + "/option-stock"
	if _, err := a.send(ctx, http.MethodPut, path, "", body); err != nil {
		return a.classify(err)
	}
	return nil
}

func (a *SmartStoreAdapter) ListCategories(ctx context.Context) ([]integration.Category, error) {
	cr, err := a.send(ctx, http.MethodGet, "/v1/categories", "", nil)
	if err != nil {
		return nil, a.classify(err)
	}

	var resp smartstoreCategoryListResponse
	if err := json.Unmarshal(cr.Body, &resp); err != nil {
		return nil, fmt.Errorf("smartstore: parse response: %w", err)
	}

	categories := make([]integration.Category, 0, len(resp))
	for _, c := range resp {
		categories = append(categories, integration.Category{
			ID:       c.ID,
			Name:     c.Name,
			ParentID: c.ParentID,
			Leaf:     c.Last,
		})
	}
	return categories, nil
}

func (a *SmartStoreAdapter) UploadImage(ctx context.Context, data []byte, filename string) (*integration.UploadedImage, error) {
	token, err := a.token(ctx)
	if err != nil {
		return nil, a.classify(err)
	}

	cr, err := a.transport.do(ctx, func(ctx context.Context) (*http.Request, error) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("imageFiles", filename)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(data); err != nil {
			return nil, err
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.APIBaseURL+"/v1/product-images/upload", &buf)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		req.Header.Set("Authorization", "Bearer "+token)
		return req, nil
	})
	if err != nil {
		return nil, a.classify(err)
	}

	var resp smartstoreImageUploadResponse
	if err := json.Unmarshal(cr.Body, &resp); err != nil {
		return nil, fmt.Errorf("smartstore: parse response: %w", err)
	}
	if len(resp.Images) == 0 {
		return nil, &integration.PlatformError{
			Platform: a.PlatformCode(),
			Kind:     integration.ErrorKindPlatform,
			Message:  "image upload returned no images",
			Attempts: cr.Attempts,
			Err:      integration.ErrPlatformInvalidResponse,
		}
	}
	return &integration.UploadedImage{URL: resp.Images[0].URL}, nil
}

// ---------------------------------------------------------------------------
// Internal Helpers
// ---------------------------------------------------------------------------

func (a *SmartStoreAdapter) buildOriginProduct(listing *integration.Listing) smartstoreOriginProduct {
	op := smartstoreOriginProduct{
		StatusType:    "SALE",
		CategoryID:    listing.CategoryID,
		Name:          listing.Title,
		Brand:         listing.BrandName,
		DetailContent: listing.Description,
		SalePrice:     listing.Price.String(),
		StockQuantity: listing.Quantity,
		Images: smartstoreImages{
			RepresentativeImage: smartstoreImageRef{URL: listing.MainImageURL},
		},
	}
	for _, u := range listing.AdditionalImageURLs {
		op.Images.OptionalImages = append(op.Images.OptionalImages, smartstoreImageRef{URL: u})
	}
	for _, opt := range listing.Options {
		op.OptionCombos = append(op.OptionCombos, smartstoreOption{
			OptionName:    opt.Name,
			SellerCode:    opt.SKU,
			Price:         opt.Price.String(),
			StockQuantity: opt.Quantity,
		})
	}
	for name, value := range listing.Attributes {
		op.Attributes = append(op.Attributes, smartstoreAttribute{Name: name, Value: value})
	}
	return op
}

func (a *SmartStoreAdapter) send(ctx context.Context, method, path, query string, body []byte) (*callResult, error) {
	token, err := a.token(ctx)
	if err != nil {
		return nil, err
	}

	fullURL := a.config.APIBaseURL + path
	if query != "" {
		fullURL += "?" + query
	}
	return a.transport.do(ctx, func(ctx context.Context) (*http.Request, error) {
		var req *http.Request
		var err error
		if body != nil {
			req, err = jsonRequest(ctx, method, fullURL, body)
		} else {
			req, err = http.NewRequestWithContext(ctx, method, fullURL, nil)
			if err == nil {
				req.Header.Set("Accept", "application/json")
			}
		}
		if err != nil {
			return nil, err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		return req, nil
	})
}

// token returns a valid access token, renewing it when close to expiry.
func (a *SmartStoreAdapter) token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.accessToken != "" && time.Now().Before(a.tokenExpires.Add(-tokenRefreshMargin)) {
		return a.accessToken, nil
	}

	signature, timestamp := a.config.SignTokenRequest(time.Now())
	body, err := json.Marshal(smartstoreTokenRequest{
		ClientID:        a.config.ClientID,
		Timestamp:       timestamp,
		ClientSecretSig: signature,
		GrantType:       "client_credentials",
		Type:            "SELF",
	})
	if err != nil {
		return "", fmt.Errorf("smartstore: marshal token request: %w", err)
	}

	// The exchange rides the same limiter and retrier as every other
	// outbound call, so a flapping token endpoint backs off instead of
	// hammering.
	cr, err := a.transport.do(ctx, func(ctx context.Context) (*http.Request, error) {
		return jsonRequest(ctx, http.MethodPost, a.config.APIBaseURL+"/v1/oauth2/token", body)
	})
	if err != nil {
		var httpErr *retry.HTTPError
		if errors.As(err, &httpErr) {
			a.logger.Warn("smartstore token exchange failed",
				zap.Int("status", httpErr.StatusCode))
			return "", fmt.Errorf("%w: token exchange returned %d", integration.ErrPlatformAuthFailed, httpErr.StatusCode)
		}
		return "", err
	}

	var tok smartstoreTokenResponse
	if err := json.Unmarshal(cr.Body, &tok); err != nil {
		return "", fmt.Errorf("smartstore: parse token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("%w: empty access token", integration.ErrPlatformAuthFailed)
	}

	a.accessToken = tok.AccessToken
	a.tokenExpires = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return a.accessToken, nil
}

// classify decodes commerce-API error bodies before falling back to the
// transport classification. SmartStore reports business failures with
// non-2xx statuses, so policy codes arrive inside the HTTP error excerpt.
func (a *SmartStoreAdapter) classify(err error) error {
	var httpErr *retry.HTTPError
	if errors.As(err, &httpErr) && len(httpErr.Body) > 0 {
		var se smartstoreError
		if jsonErr := json.Unmarshal([]byte(httpErr.Body), &se); jsonErr == nil && se.Code != "" {
			pe := classifyTransportError(a.PlatformCode(), err)
			pe.Code = se.Code
			if se.Message != "" {
				pe.Message = se.Message
			}
			switch se.Code {
			case smartstoreCodeRestrictedProduct:
				pe.Kind = integration.ErrorKindPolicy
				pe.Hint = "this product is restricted from sale on this channel"
			case smartstoreCodeInvalidCategory:
				pe.Kind = integration.ErrorKindPolicy
				pe.Hint = "re-run category mapping for this product"
			}
			return pe
		}
	}
	if errors.Is(err, integration.ErrPlatformAuthFailed) {
		return &integration.PlatformError{
			Platform: a.PlatformCode(),
			Kind:     integration.ErrorKindValidation,
			Message:  err.Error(),
			Hint:     "check the configured client id and secret",
			Err:      integration.ErrPlatformAuthFailed,
		}
	}
	return classifyTransportError(a.PlatformCode(), err)
}

func (a *SmartStoreAdapter) listQuery(opts integration.ListOptions) string {
	q := url.Values{}
	if !opts.From.IsZero() {
		q.Set("from", opts.From.UTC().Format(time.RFC3339))
	}
	if !opts.To.IsZero() {
		q.Set("to", opts.To.UTC().Format(time.RFC3339))
	}
	if opts.Page > 0 {
		q.Set("page", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 {
		q.Set("size", strconv.Itoa(opts.PageSize))
	}
	return q.Encode()
}

// Ensure SmartStoreAdapter implements PlatformAdapter
var _ integration.PlatformAdapter = (*SmartStoreAdapter)(nil)
