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

	"go.uber.org/zap"

	"github.com/crosslist/backend/internal/domain/integration"
	"github.com/crosslist/backend/internal/infrastructure/ratelimit"
	"github.com/crosslist/backend/internal/infrastructure/retry"
)

const elevenOrderedAtLayout = "20060102150405"

// ElevenAdapter implements the PlatformAdapter port for 11st.
type ElevenAdapter struct {
	config    *ElevenConfig
	transport *transport
	logger    *zap.Logger
}

// NewElevenAdapter creates an 11st adapter.
func NewElevenAdapter(config *ElevenConfig, limiter *ratelimit.FixedWindowLimiter, retrier *retry.Client, logger *zap.Logger) (*ElevenAdapter, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	httpClient := &http.Client{Timeout: time.Duration(config.TimeoutSeconds) * time.Second}
	return &ElevenAdapter{
		config:    config,
		transport: newTransport(integration.PlatformCodeEleven, config.SellerID, limiter, retrier, httpClient, logger),
		logger:    logger,
	}, nil
}

func (a *ElevenAdapter) PlatformCode() integration.PlatformCode {
	return integration.PlatformCodeEleven
}

func (a *ElevenAdapter) RegisterProduct(ctx context.Context, listing *integration.Listing) (*integration.RegisterResult, error) {
	body, err := json.Marshal(a.buildProductRequest(listing))
	if err != nil {
		return nil, fmt.Errorf("eleven: marshal product: %w", err)
	}

	cr, err := a.send(ctx, http.MethodPost, "/prodservices/product", "", body)
	if err != nil {
		return nil, classifyTransportError(a.PlatformCode(), err)
	}

	var resp elevenProductResponse
	if err := json.Unmarshal(cr.Body, &resp); err != nil {
		return nil, fmt.Errorf("eleven: parse response: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, a.businessError(resp.ResultCode, resp.ResultMessage, cr.Attempts)
	}
	return &integration.RegisterResult{
		PlatformProductID: resp.ProductNo,
		Raw:               string(cr.Body),
		Attempts:          cr.Attempts,
	}, nil
}

func (a *ElevenAdapter) UpdateProduct(ctx context.Context, platformProductID string, listing *integration.Listing) error {
	body, err := json.Marshal(a.buildProductRequest(listing))
	if err != nil {
		return fmt.Errorf("eleven: marshal product: %w", err)
	}
	cr, err := a.send(ctx, http.MethodPut, "/prodservices/product/"+platformProductID, "", body)
	if err != nil {
		return classifyTransportError(a.PlatformCode(), err)
	}
	return a.checkEnvelope(cr)
}

func (a *ElevenAdapter) DeleteProduct(ctx context.Context, platformProductID string) error {
	cr, err := a.send(ctx, http.MethodDelete, "/prodservices/product/"+platformProductID, "", nil)
	if err != nil {
		return classifyTransportError(a.PlatformCode(), err)
	}
	return a.checkEnvelope(cr)
}

func (a *ElevenAdapter) ListProducts(ctx context.Context, opts integration.ListOptions) ([]integration.ProductSummary, error) {
	cr, err := a.send(ctx, http.MethodGet, "/prodservices/products", a.listQuery(opts), nil)
	if err != nil {
		return nil, classifyTransportError(a.PlatformCode(), err)
	}

	var resp elevenProductListResponse
	if err := json.Unmarshal(cr.Body, &resp); err != nil {
		return nil, fmt.Errorf("eleven: parse response: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, a.businessError(resp.ResultCode, resp.ResultMessage, cr.Attempts)
	}

	products := make([]integration.ProductSummary, 0, len(resp.Products))
	for _, p := range resp.Products {
		products = append(products, integration.ProductSummary{
			PlatformProductID: p.ProductNo,
			Title:             p.ProductName,
			Price:             parseDecimal(p.SellPrice),
			Quantity:          p.Quantity,
			OnSale:            p.StatusCode == "103",
		})
	}
	return products, nil
}

func (a *ElevenAdapter) ListOrders(ctx context.Context, opts integration.ListOptions) ([]integration.Order, error) {
	cr, err := a.send(ctx, http.MethodGet, "/ordservices/orders", a.listQuery(opts), nil)
	if err != nil {
		return nil, classifyTransportError(a.PlatformCode(), err)
	}

	var resp elevenOrderListResponse
	if err := json.Unmarshal(cr.Body, &resp); err != nil {
		return nil, fmt.Errorf("eleven: parse response: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, a.businessError(resp.ResultCode, resp.ResultMessage, cr.Attempts)
	}

	orders := make([]integration.Order, 0, len(resp.Orders))
	for _, o := range resp.Orders {
		order := integration.Order{
			PlatformOrderID: o.OrderNo,
			PlatformCode:    integration.PlatformCodeEleven,
			Status:          o.Status,
			BuyerName:       o.BuyerName,
			TotalAmount:     parseDecimal(o.TotalAmount),
			Currency:        "KRW",
		}
		if t, err := time.Parse(elevenOrderedAtLayout, o.OrderedAt); err == nil {
			order.OrderedAt = t
		}
		for _, item := range o.Items {
			order.Items = append(order.Items, integration.OrderItem{
				PlatformProductID: item.ProductNo,
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

func (a *ElevenAdapter) UpdateInventory(ctx context.Context, update integration.InventoryUpdate) error {
	body, err := json.Marshal(map[string]any{"prdNo": update.PlatformProductID, "prdSelQty": update.Quantity})
	if err != nil {
		return fmt.Errorf("eleven: marshal inventory: %w", err)
	}
	cr, err := a.send(ctx, http.MethodPut, "/prodservices/product/"+update.PlatformProductID+"/stock", "", body)
	if err != nil {
		return classifyTransportError(a.PlatformCode(), err)
	}
	return a.checkEnvelope(cr)
}

func (a *ElevenAdapter) ListCategories(ctx context.Context) ([]integration.Category, error) {
	cr, err := a.send(ctx, http.MethodGet, "/cateservice/category", "", nil)
	if err != nil {
		return nil, classifyTransportError(a.PlatformCode(), err)
	}

	var resp elevenCategoryListResponse
	if err := json.Unmarshal(cr.Body, &resp); err != nil {
		return nil, fmt.Errorf("eleven: parse response: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, a.businessError(resp.ResultCode, resp.ResultMessage, cr.Attempts)
	}

	categories := make([]integration.Category, 0, len(resp.Categories))
	for _, c := range resp.Categories {
		categories = append(categories, integration.Category{
			ID:       c.CategoryCode,
			Name:     c.CategoryName,
			ParentID: c.ParentCode,
			Depth:    c.Depth,
			Leaf:     c.IsLeaf,
		})
	}
	return categories, nil
}

func (a *ElevenAdapter) UploadImage(ctx context.Context, data []byte, filename string) (*integration.UploadedImage, error) {
	cr, err := a.transport.do(ctx, func(ctx context.Context) (*http.Request, error) {
		var buf bytes.Buffer
		mw := multipart.NewWriter(&buf)
		part, err := mw.CreateFormFile("file", filename)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(data); err != nil {
			return nil, err
		}
		if err := mw.Close(); err != nil {
			return nil, err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.config.APIBaseURL+"/prodservices/product/image", &buf)
		if err != nil {
			return nil, err
		}
		req.Header.Set("Content-Type", mw.FormDataContentType())
		a.authorize(req)
		return req, nil
	})
	if err != nil {
		return nil, classifyTransportError(a.PlatformCode(), err)
	}

	var resp elevenImageUploadResponse
	if err := json.Unmarshal(cr.Body, &resp); err != nil {
		return nil, fmt.Errorf("eleven: parse response: %w", err)
	}
	if !resp.IsSuccess() {
		return nil, a.businessError(resp.ResultCode, resp.ResultMessage, cr.Attempts)
	}
	return &integration.UploadedImage{URL: resp.ImageURL, ImageID: resp.ImageNo}, nil
}

func (a *ElevenAdapter) buildProductRequest(listing *integration.Listing) *elevenProductRequest {
	req := &elevenProductRequest{
		SellerID:      a.config.SellerID,
		CategoryCode:  listing.CategoryID,
		ProductName:   listing.Title,
		Brand:         listing.BrandName,
		Detail:        listing.Description,
		SellPrice:     listing.Price.String(),
		MarketPrice:   listing.OriginalPrice.String(),
		StockQuantity: listing.Quantity,
		ImageURL:      listing.MainImageURL,
		ExtraImages:   listing.AdditionalImageURLs,
	}
	for _, opt := range listing.Options {
		req.Options = append(req.Options, elevenOption{
			OptionName: opt.Name,
			SellerSKU:  opt.SKU,
			Price:      opt.Price.String(),
			Quantity:   opt.Quantity,
		})
	}
	for name, value := range listing.Attributes {
		req.Attributes = append(req.Attributes, elevenAttribute{Name: name, Value: value})
	}
	return req
}

func (a *ElevenAdapter) send(ctx context.Context, method, path, query string, body []byte) (*callResult, error) {
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
		a.authorize(req)
		return req, nil
	})
}

func (a *ElevenAdapter) authorize(req *http.Request) {
	req.Header.Set("openapikey", a.config.APIKey)
}

func (a *ElevenAdapter) checkEnvelope(cr *callResult) error {
	var env elevenEnvelope
	if err := json.Unmarshal(cr.Body, &env); err != nil {
		return fmt.Errorf("eleven: parse response: %w", err)
	}
	if !env.IsSuccess() {
		return a.businessError(env.ResultCode, env.ResultMessage, cr.Attempts)
	}
	return nil
}

// businessError maps 11st result codes onto the error taxonomy.
func (a *ElevenAdapter) businessError(code, message string, attempts int) *integration.PlatformError {
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
	case elevenCodeForbiddenWord:
		pe.Kind = integration.ErrorKindPolicy
		pe.Hint = "remove the flagged word from the title or description"
	case elevenCodeInvalidCategory:
		pe.Kind = integration.ErrorKindPolicy
		pe.Hint = "re-run category mapping for this product"
	case elevenCodeQuotaExceeded:
		pe.Kind = integration.ErrorKindRateLimited
		pe.Err = integration.ErrPlatformRateLimited
	}
	return pe
}

func (a *ElevenAdapter) listQuery(opts integration.ListOptions) string {
	q := url.Values{}
	if !opts.From.IsZero() {
		q.Set("startDt", opts.From.UTC().Format(elevenOrderedAtLayout))
	}
	if !opts.To.IsZero() {
		q.Set("endDt", opts.To.UTC().Format(elevenOrderedAtLayout))
	}
	if opts.Page > 0 {
		q.Set("pageNum", strconv.Itoa(opts.Page))
	}
	if opts.PageSize > 0 {
		q.Set("pageSize", strconv.Itoa(opts.PageSize))
	}
	return q.Encode()
}

// Ensure ElevenAdapter implements PlatformAdapter
var _ integration.PlatformAdapter = (*ElevenAdapter)(nil)
