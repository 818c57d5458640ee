package marketplace

// SmartStore wire types. Unlike the other platforms the commerce API signals
// business failures with non-2xx statuses and a code/message body, so only
// the error shape carries an envelope.

type smartstoreError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Business error codes the adapter maps to terminal failures.
const (
	smartstoreCodeRestrictedProduct = "PRODUCT_RESTRICTED"
	smartstoreCodeInvalidCategory   = "CATEGORY_NOT_FOUND"
)

type smartstoreTokenRequest struct {
	ClientID        string `json:"client_id"`
	Timestamp       int64  `json:"timestamp"`
	ClientSecretSig string `json:"client_secret_sign"`
	GrantType       string `json:"grant_type"`
	Type            string `json:"type"`
}

type smartstoreTokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresIn   int64  `json:"expires_in"`
	TokenType   string `json:"token_type"`
}

// smartstoreProductRequest is the listing registration payload.
type smartstoreProductRequest struct {
	OriginProduct smartstoreOriginProduct `json:"originProduct"`
	ChannelID     string                  `json:"smartstoreChannelId"`
}

type smartstoreOriginProduct struct {
	StatusType    string                `json:"statusType"`
	CategoryID    string                `json:"leafCategoryId"`
	Name          string                `json:"name"`
	Brand         string                `json:"brandName,omitempty"`
	DetailContent string                `json:"detailContent,omitempty"`
	SalePrice     string                `json:"salePrice"`
	StockQuantity int                   `json:"stockQuantity"`
	Images        smartstoreImages      `json:"images"`
	OptionCombos  []smartstoreOption    `json:"optionCombinations,omitempty"`
	Attributes    []smartstoreAttribute `json:"attributes,omitempty"`
}

type smartstoreImages struct {
	RepresentativeImage smartstoreImageRef   `json:"representativeImage"`
	OptionalImages      []smartstoreImageRef `json:"optionalImages,omitempty"`
}

type smartstoreImageRef struct {
	URL string `json:"url"`
}

type smartstoreOption struct {
	OptionName    string `json:"optionName1"`
	SellerCode    string `json:"sellerManagerCode"`
	Price         string `json:"price"`
	StockQuantity int    `json:"stockQuantity"`
}

type smartstoreAttribute struct {
	Name  string `json:"attributeName"`
	Value string `json:"attributeValueName"`
}

type smartstoreProductResponse struct {
	OriginProductNo  string `json:"originProductNo"`
	ChannelProductNo string `json:"smartstoreChannelProductNo"`
}

type smartstoreProductListResponse struct {
	Contents []struct {
		ChannelProductNo string `json:"channelProductNo"`
		Name             string `json:"name"`
		SalePrice        string `json:"salePrice"`
		StockQuantity    int    `json:"stockQuantity"`
		StatusType       string `json:"statusType"`
	} `json:"contents"`
	TotalElements int `json:"totalElements"`
}

type smartstoreOrderListResponse struct {
	Data []smartstoreOrder `json:"data"`
}

type smartstoreOrder struct {
	ProductOrderID string `json:"productOrderId"`
	Status         string `json:"productOrderStatus"`
	OrdererName    string `json:"ordererName"`
	TotalAmount    string `json:"totalPaymentAmount"`
	OrderedAt      string `json:"orderDate"`
	Items          []struct {
		ChannelProductNo string `json:"channelProductNo"`
		ProductName      string `json:"productName"`
		Quantity         int    `json:"quantity"`
		UnitPrice        string `json:"unitPrice"`
	} `json:"productOrderItems"`
}

type smartstoreCategoryListResponse []struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ParentID string `json:"parentId"`
	Last     bool   `json:"last"`
}

type smartstoreImageUploadResponse struct {
	Images []struct {
		URL string `json:"url"`
	} `json:"images"`
}
