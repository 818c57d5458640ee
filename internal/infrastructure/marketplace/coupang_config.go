package marketplace

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"strings"
	"time"
)

// CoupangConfig holds credentials for the Coupang open API.
type CoupangConfig struct {
	// AccessKey is the vendor access key issued by the Coupang developer portal
	AccessKey string
	// SecretKey signs every request
	SecretKey string
	// VendorID is the seller identifier on Coupang
	VendorID string
	// APIBaseURL is the API endpoint (production or sandbox)
	APIBaseURL string
	// IsSandbox selects the sandbox endpoint when APIBaseURL is empty
	IsSandbox bool
	// TimeoutSeconds is the HTTP request timeout
	TimeoutSeconds int
}

const (
	// CoupangProductionAPIURL is the production API endpoint
	CoupangProductionAPIURL = "https://api-gateway.coupang.com"
	// CoupangSandboxAPIURL is the sandbox API endpoint
	CoupangSandboxAPIURL = "https://api-gateway-it.coupang.com"

	// coupangSignedDateLayout is the timestamp layout the signature covers
	coupangSignedDateLayout = "060102T150405Z"
)

// Errors for Coupang configuration
var (
	ErrCoupangConfigMissingAccessKey = errors.New("coupang: access key is required")
	ErrCoupangConfigMissingSecretKey = errors.New("coupang: secret key is required")
	ErrCoupangConfigMissingVendorID  = errors.New("coupang: vendor ID is required")
)

// NewCoupangConfig creates a Coupang configuration with defaults.
func NewCoupangConfig(accessKey, secretKey, vendorID string) *CoupangConfig {
	return &CoupangConfig{
		AccessKey:      accessKey,
		SecretKey:      secretKey,
		VendorID:       vendorID,
		APIBaseURL:     CoupangProductionAPIURL,
		TimeoutSeconds: 30,
	}
}

// Validate validates the configuration and fills defaults.
func (c *CoupangConfig) Validate() error {
	if c.AccessKey == "" {
		return ErrCoupangConfigMissingAccessKey
	}
	if c.SecretKey == "" {
		return ErrCoupangConfigMissingSecretKey
	}
	if c.VendorID == "" {
		return ErrCoupangConfigMissingVendorID
	}
	if c.APIBaseURL == "" {
		if c.IsSandbox {
			c.APIBaseURL = CoupangSandboxAPIURL
		} else {
			c.APIBaseURL = CoupangProductionAPIURL
		}
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// Sign builds the HMAC authorization header for one request. The signature
// covers signed-date + method + path + query, keyed by the secret key.
func (c *CoupangConfig) Sign(method, path, query string, signedAt time.Time) string {
	signedDate := signedAt.UTC().Format(coupangSignedDateLayout)

	var builder strings.Builder
	builder.WriteString(signedDate)
	builder.WriteString(method)
	builder.WriteString(path)
	builder.WriteString(query)

	h := hmac.New(sha256.New, []byte(c.SecretKey))
	h.Write([]byte(builder.String()))
	signature := hex.EncodeToString(h.Sum(nil))

	return "CEA algorithm=HmacSHA256, access-key=" + c.AccessKey +
		", signed-date=" + signedDate +
		", signature=" + signature
}
