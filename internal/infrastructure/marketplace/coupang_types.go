package marketplace

// Coupang wire types. Only the fields the adapter reads are modeled; the raw
// body is preserved on results for downstream inspection.

// coupangEnvelope is the common response wrapper.
type coupangEnvelope struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// IsSuccess reports whether the platform accepted the request.
func (e *coupangEnvelope) IsSuccess() bool {
	return e.Code == "SUCCESS"
}

// Business error codes the adapter maps to terminal failures.
const (
	coupangCodeProhibitedKeyword = "PROHIBITED_KEYWORD"
	coupangCodeInvalidCategory   = "INVALID_CATEGORY"
	coupangCodeDuplicateProduct  = "DUPLICATE_PRODUCT"
)

// coupangProductRequest is the listing registration payload.
type coupangProductRequest struct {
	DisplayCategoryCode string               `json:"displayCategoryCode"`
	SellerProductName   string               `json:"sellerProductName"`
	VendorID            string               `json:"vendorId"`
	Brand               string               `json:"brand,omitempty"`
	Description         string               `json:"description,omitempty"`
	SalePrice           string               `json:"salePrice"`
	OriginalPrice       string               `json:"originalPrice,omitempty"`
	MaximumBuyCount     int                  `json:"maximumBuyCount"`
	MainImageURL        string               `json:"mainImageUrl,omitempty"`
	ImageURLs           []string             `json:"imageUrls,omitempty"`
	Items               []coupangProductItem `json:"items"`
	Attributes          []coupangAttribute   `json:"attributes,omitempty"`
}

// coupangProductItem is one purchasable variant.
type coupangProductItem struct {
	ItemName          string `json:"itemName"`
	ExternalVendorSKU string `json:"externalVendorSku"`
	SalePrice         string `json:"salePrice"`
	MaximumBuyCount   int    `json:"maximumBuyCount"`
}

// coupangAttribute is a platform attribute pair.
type coupangAttribute struct {
	AttributeTypeName string `json:"attributeTypeName"`
	AttributeValue    string `json:"attributeValueName"`
}

// coupangProductResponse is the registration/update response.
type coupangProductResponse struct {
	coupangEnvelope
	Data struct {
		SellerProductID string `json:"sellerProductId"`
	} `json:"data"`
}

// coupangProductListResponse pages through registered products.
type coupangProductListResponse struct {
	coupangEnvelope
	Data struct {
		Products []struct {
			SellerProductID   string `json:"sellerProductId"`
			SellerProductName string `json:"sellerProductName"`
			SalePrice         string `json:"salePrice"`
			Quantity          int    `json:"quantity"`
			StatusName        string `json:"statusName"`
		} `json:"products"`
		NextToken string `json:"nextToken"`
	} `json:"data"`
}

// coupangOrderListResponse pages through marketplace orders.
type coupangOrderListResponse struct {
	coupangEnvelope
	Data struct {
		Orders []coupangOrder `json:"orders"`
	} `json:"data"`
}

// coupangOrder is one marketplace order.
type coupangOrder struct {
	OrderID         string `json:"orderId"`
	Status          string `json:"status"`
	OrdererName     string `json:"ordererName"`
	TotalPaidAmount string `json:"totalPaidAmount"`
	OrderedAt       string `json:"orderedAt"`
	Items           []struct {
		SellerProductID string `json:"sellerProductId"`
		ProductName     string `json:"productName"`
		ShippingCount   int    `json:"shippingCount"`
		SalesPrice      string `json:"salesPrice"`
	} `json:"orderItems"`
}

// coupangCategoryListResponse is the category tree response.
type coupangCategoryListResponse struct {
	coupangEnvelope
	Data []struct {
		DisplayCategoryCode string `json:"displayCategoryCode"`
		Name                string `json:"name"`
		ParentCode          string `json:"parentCode"`
		IsLeaf              bool   `json:"isLeaf"`
	} `json:"data"`
}

// coupangImageUploadResponse is the image host response.
type coupangImageUploadResponse struct {
	coupangEnvelope
	Data struct {
		CdnPath string `json:"cdnPath"`
		ImageID string `json:"imageId"`
	} `json:"data"`
}
