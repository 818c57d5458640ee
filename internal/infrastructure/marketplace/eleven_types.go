package marketplace

// 11st wire types. The open API wraps every response in a resultCode /
// resultMessage pair; "00" means accepted.

type elevenEnvelope struct {
	ResultCode    string `json:"resultCode"`
	ResultMessage string `json:"resultMessage"`
}

func (e *elevenEnvelope) IsSuccess() bool {
	return e.ResultCode == "00"
}

// Business error codes the adapter maps to terminal failures.
const (
	elevenCodeForbiddenWord   = "E2101"
	elevenCodeInvalidCategory = "E2201"
	elevenCodeQuotaExceeded   = "E9001"
)

// elevenProductRequest is the listing registration payload.
type elevenProductRequest struct {
	SellerID      string             `json:"sellerId"`
	CategoryCode  string             `json:"dispCtgrNo"`
	ProductName   string             `json:"prdNm"`
	Brand         string             `json:"brand,omitempty"`
	Detail        string             `json:"htmlDetail,omitempty"`
	SellPrice     string             `json:"selPrc"`
	MarketPrice   string             `json:"mktPrc,omitempty"`
	StockQuantity int                `json:"prdSelQty"`
	ImageURL      string             `json:"prdImage01,omitempty"`
	ExtraImages   []string           `json:"prdImageExtra,omitempty"`
	Options       []elevenOption    `json:"optItems,omitempty"`
	Attributes    []elevenAttribute `json:"prdAttrs,omitempty"`
}

type elevenOption struct {
	OptionName string `json:"optNm"`
	SellerSKU  string `json:"sellerPrdCd"`
	Price      string `json:"optPrc"`
	Quantity   int    `json:"optQty"`
}

type elevenAttribute struct {
	Name  string `json:"attrNm"`
	Value string `json:"attrVal"`
}

type elevenProductResponse struct {
	elevenEnvelope
	ProductNo string `json:"prdNo"`
}

type elevenProductListResponse struct {
	elevenEnvelope
	Products []struct {
		ProductNo   string `json:"prdNo"`
		ProductName string `json:"prdNm"`
		SellPrice   string `json:"selPrc"`
		Quantity    int    `json:"prdSelQty"`
		StatusCode  string `json:"selStatCd"`
	} `json:"products"`
}

type elevenOrderListResponse struct {
	elevenEnvelope
	Orders []elevenOrder `json:"orders"`
}

type elevenOrder struct {
	OrderNo     string `json:"ordNo"`
	Status      string `json:"ordStatCd"`
	BuyerName   string `json:"ordNm"`
	TotalAmount string `json:"ordAmt"`
	OrderedAt   string `json:"ordDt"`
	Items       []struct {
		ProductNo   string `json:"prdNo"`
		ProductName string `json:"prdNm"`
		Quantity    int    `json:"ordQty"`
		UnitPrice   string `json:"selPrc"`
	} `json:"ordPrdList"`
}

type elevenCategoryListResponse struct {
	elevenEnvelope
	Categories []struct {
		CategoryCode string `json:"dispCtgrNo"`
		CategoryName string `json:"dispCtgrNm"`
		ParentCode   string `json:"upperDispCtgrNo"`
		Depth        int    `json:"dispCtgrLvl"`
		IsLeaf       bool   `json:"lowestYn"`
	} `json:"categories"`
}

type elevenImageUploadResponse struct {
	elevenEnvelope
	ImageURL string `json:"imageUrl"`
	ImageNo  string `json:"imageNo"`
}
