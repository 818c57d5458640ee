package marketplace

import "errors"

// Eleven API endpoints
const (
	ElevenAPIBaseURL        = "https://api.11st.co.kr/rest"
	ElevenSandboxAPIBaseURL = "https://api.11st.co.kr/rest/test"
)

// Config validation errors
var (
	ErrElevenAPIKeyRequired   = errors.New("eleven: api key is required")
	ErrElevenSellerIDRequired = errors.New("eleven: seller id is required")
)

// ElevenConfig holds 11st open-API credentials.
type ElevenConfig struct {
	APIKey         string
	SellerID       string
	APIBaseURL     string
	IsSandbox      bool
	TimeoutSeconds int
}

// NewElevenConfig creates a config for the given credentials.
func NewElevenConfig(apiKey, sellerID string) *ElevenConfig {
	return &ElevenConfig{
		APIKey:         apiKey,
		SellerID:       sellerID,
		APIBaseURL:     ElevenAPIBaseURL,
		TimeoutSeconds: 30,
	}
}

// Validate checks required fields and fills defaults.
func (c *ElevenConfig) Validate() error {
	if c.APIKey == "" {
		return ErrElevenAPIKeyRequired
	}
	if c.SellerID == "" {
		return ErrElevenSellerIDRequired
	}
	if c.APIBaseURL == "" {
		if c.IsSandbox {
			c.APIBaseURL = ElevenSandboxAPIBaseURL
		} else {
			c.APIBaseURL = ElevenAPIBaseURL
		}
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}
