package dto

import (
	"fmt"

	"github.com/shopspring/decimal"

	"github.com/crosslist/backend/internal/application/registration"
	"github.com/crosslist/backend/internal/domain/integration"
)

// RegisterProductRequest is the POST /registrations payload.
type RegisterProductRequest struct {
	Product   ProductRequest `json:"product" binding:"required"`
	Platforms []string       `json:"platforms" binding:"required,min=1,dive,oneof=COUPANG ELEVEN SMARTSTORE"`
	Options   OptionsRequest `json:"options"`
}

// ProductRequest is the neutral product payload.
type ProductRequest struct {
	ProductID           string            `json:"product_id" binding:"required"`
	Title               string            `json:"title" binding:"required,max=200"`
	Description         string            `json:"description"`
	BrandName           string            `json:"brand_name"`
	CategoryID          string            `json:"category_id"`
	Price               string            `json:"price" binding:"required,decimalstr"`
	OriginalPrice       string            `json:"original_price" binding:"omitempty,decimalstr"`
	Currency            string            `json:"currency"`
	Quantity            int               `json:"quantity" binding:"min=0"`
	MainImageURL        string            `json:"main_image_url" binding:"omitempty,url"`
	AdditionalImageURLs []string          `json:"additional_image_urls" binding:"omitempty,dive,url"`
	Options             []OptionRequest   `json:"options" binding:"omitempty,dive"`
	Attributes          map[string]string `json:"attributes"`
}

// OptionRequest is one purchasable variant.
type OptionRequest struct {
	Name     string `json:"name" binding:"required"`
	SKU      string `json:"sku"`
	Price    string `json:"price" binding:"required,decimalstr"`
	Quantity int    `json:"quantity" binding:"min=0"`
}

// OptionsRequest tunes one registration run.
type OptionsRequest struct {
	SkipCategoryValidation bool `json:"skip_category_validation"`
}

// ToInput converts the request into the orchestrator's input shape.
func (r *RegisterProductRequest) ToInput() (*registration.Input, error) {
	price, err := decimal.NewFromString(r.Product.Price)
	if err != nil {
		return nil, fmt.Errorf("invalid price: %w", err)
	}
	originalPrice := price
	if r.Product.OriginalPrice != "" {
		originalPrice, err = decimal.NewFromString(r.Product.OriginalPrice)
		if err != nil {
			return nil, fmt.Errorf("invalid original_price: %w", err)
		}
	}
	currency := r.Product.Currency
	if currency == "" {
		currency = "KRW"
	}

	listing := integration.Listing{
		ProductID:           r.Product.ProductID,
		Title:               r.Product.Title,
		Description:         r.Product.Description,
		BrandName:           r.Product.BrandName,
		CategoryID:          r.Product.CategoryID,
		Price:               price,
		OriginalPrice:       originalPrice,
		Currency:            currency,
		Quantity:            r.Product.Quantity,
		MainImageURL:        r.Product.MainImageURL,
		AdditionalImageURLs: r.Product.AdditionalImageURLs,
		Attributes:          r.Product.Attributes,
	}
	for _, opt := range r.Product.Options {
		optPrice, err := decimal.NewFromString(opt.Price)
		if err != nil {
			return nil, fmt.Errorf("invalid option price for %q: %w", opt.Name, err)
		}
		listing.Options = append(listing.Options, integration.ListingOption{
			Name:     opt.Name,
			SKU:      opt.SKU,
			Price:    optPrice,
			Quantity: opt.Quantity,
		})
	}

	platforms := make([]integration.PlatformCode, 0, len(r.Platforms))
	for _, p := range r.Platforms {
		platforms = append(platforms, integration.PlatformCode(p))
	}

	return &registration.Input{
		Listing:   listing,
		Platforms: platforms,
		Options: registration.Options{
			SkipCategoryValidation: r.Options.SkipCategoryValidation,
		},
	}, nil
}
