// Package integration defines the ports and value objects for pushing
// products to external marketplaces. Concrete marketplace adapters live in
// the infrastructure layer; this package only knows the capability set every
// marketplace must offer.
package integration

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// PlatformCode represents a target marketplace
// ---------------------------------------------------------------------------

// PlatformCode identifies a target marketplace.
type PlatformCode string

const (
	// PlatformCodeCoupang represents the Coupang marketplace
	PlatformCodeCoupang PlatformCode = "COUPANG"
	// PlatformCodeEleven represents the 11st-style open market
	PlatformCodeEleven PlatformCode = "ELEVEN"
	// PlatformCodeSmartStore represents the Naver SmartStore marketplace
	PlatformCodeSmartStore PlatformCode = "SMARTSTORE"
)

// IsValid returns true if the platform code is a known marketplace.
func (c PlatformCode) IsValid() bool {
	switch c {
	case PlatformCodeCoupang, PlatformCodeEleven, PlatformCodeSmartStore:
		return true
	default:
		return false
	}
}

// String returns the string representation of PlatformCode.
func (c PlatformCode) String() string {
	return string(c)
}

// AllPlatformCodes returns every known platform code.
func AllPlatformCodes() []PlatformCode {
	return []PlatformCode{PlatformCodeCoupang, PlatformCodeEleven, PlatformCodeSmartStore}
}

// ---------------------------------------------------------------------------
// Value Objects
// ---------------------------------------------------------------------------

// Listing is the platform-neutral description of a product to be registered
// on a marketplace. Adapters map it to their own wire payloads.
type Listing struct {
	// ProductID is our internal product identifier
	ProductID string
	// Title is the (already translated) product title
	Title string
	// Description is the product description, HTML allowed
	Description string
	// BrandName is the brand to declare on the platform
	BrandName string
	// CategoryID is the platform-specific category, resolved by the
	// category mapper before dispatch
	CategoryID string
	// Price is the selling price in the platform currency
	Price decimal.Decimal
	// OriginalPrice is the compare-at price
	OriginalPrice decimal.Decimal
	// Currency is the ISO currency code (default KRW)
	Currency string
	// Quantity is the initial sellable stock
	Quantity int
	// MainImageURL is the primary image, already hosted on our storage
	MainImageURL string
	// AdditionalImageURLs are gallery images
	AdditionalImageURLs []string
	// Options are the purchasable variants
	Options []ListingOption
	// Attributes are platform attribute key/value pairs
	Attributes map[string]string
}

// ListingOption is a purchasable variant of a listing.
type ListingOption struct {
	// Name is the option label, e.g. "Color:Red;Size:L"
	Name string
	// SKU is our internal SKU code
	SKU string
	// Price is the option price
	Price decimal.Decimal
	// Quantity is the option stock
	Quantity int
}

// RegisterResult is the per-platform outcome of a registration call.
type RegisterResult struct {
	// PlatformProductID is the identifier assigned by the marketplace
	PlatformProductID string
	// Raw is the original platform response body (JSON)
	Raw string
	// Attempts is how many times the retrying client invoked the call
	Attempts int
}

// InventoryUpdate adjusts the sellable quantity of a registered product.
type InventoryUpdate struct {
	PlatformProductID string
	Quantity          int
}

// Category is a node of a platform category tree.
type Category struct {
	ID       string
	Name     string
	ParentID string
	Depth    int
	Leaf     bool
}

// Order is a marketplace order pulled during reconciliation.
type Order struct {
	PlatformOrderID string
	PlatformCode    PlatformCode
	Status          string
	BuyerName       string
	TotalAmount     decimal.Decimal
	Currency        string
	OrderedAt       time.Time
	Items           []OrderItem
	Raw             string
}

// OrderItem is a line item of a marketplace order.
type OrderItem struct {
	PlatformProductID string
	ProductName       string
	Quantity          int
	UnitPrice         decimal.Decimal
}

// ListOptions narrows list calls to a page and time range.
type ListOptions struct {
	From     time.Time
	To       time.Time
	Page     int
	PageSize int
}

// ProductSummary is a listing as reported back by the marketplace.
type ProductSummary struct {
	PlatformProductID string
	Title             string
	Price             decimal.Decimal
	Quantity          int
	OnSale            bool
}

// UploadedImage is the platform-side handle of an uploaded image.
type UploadedImage struct {
	// URL is the platform-hosted image URL
	URL string
	// ImageID is the platform image identifier, when the platform assigns one
	ImageID string
}

// ---------------------------------------------------------------------------
// PlatformAdapter Port Interface
// ---------------------------------------------------------------------------

// PlatformAdapter is the port every marketplace implementation fulfils.
// Implementations compose the rate limiter and the retrying client for every
// outbound call; callers never retry on top of an adapter.
type PlatformAdapter interface {
	// PlatformCode returns the marketplace this adapter talks to
	PlatformCode() PlatformCode

	// RegisterProduct creates a new listing on the marketplace
	RegisterProduct(ctx context.Context, listing *Listing) (*RegisterResult, error)

	// UpdateProduct updates an existing listing
	UpdateProduct(ctx context.Context, platformProductID string, listing *Listing) error

	// DeleteProduct removes a listing from the marketplace
	DeleteProduct(ctx context.Context, platformProductID string) error

	// ListProducts pages through our listings on the marketplace
	ListProducts(ctx context.Context, opts ListOptions) ([]ProductSummary, error)

	// ListOrders pages through marketplace orders in a time range
	ListOrders(ctx context.Context, opts ListOptions) ([]Order, error)

	// UpdateInventory sets the sellable quantity of a listing
	UpdateInventory(ctx context.Context, update InventoryUpdate) error

	// ListCategories returns the platform category tree (leaf nodes included)
	ListCategories(ctx context.Context) ([]Category, error)

	// UploadImage pushes raw image bytes to the platform image host
	UploadImage(ctx context.Context, data []byte, filename string) (*UploadedImage, error)
}

// Registry provides access to the configured marketplace adapters.
type Registry interface {
	// Adapter returns the adapter for the given platform code
	Adapter(code PlatformCode) (PlatformAdapter, error)

	// Adapters returns every registered adapter
	Adapters() []PlatformAdapter
}

// ---------------------------------------------------------------------------
// CategoryMapper collaborator
// ---------------------------------------------------------------------------

// CategoryMapping is the resolved platform category for a product.
type CategoryMapping struct {
	CategoryID string
	// Confidence is the mapper's confidence in [0,1]
	Confidence float64
}

// CategoryMapper resolves our product categories to platform categories.
// The mapping heuristics themselves are an external collaborator.
type CategoryMapper interface {
	MapCategory(ctx context.Context, listing *Listing, code PlatformCode) (*CategoryMapping, error)
}
