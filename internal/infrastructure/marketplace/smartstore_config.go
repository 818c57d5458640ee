package marketplace

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"
	"time"
)

// SmartStore API endpoints
const (
	SmartStoreAPIBaseURL        = "https://api.commerce.naver.com/external"
	SmartStoreSandboxAPIBaseURL = "https://sandbox.api.commerce.naver.com/external"
)

// Config validation errors
var (
	ErrSmartStoreClientIDRequired     = errors.New("smartstore: client id is required")
	ErrSmartStoreClientSecretRequired = errors.New("smartstore: client secret is required")
	ErrSmartStoreChannelIDRequired    = errors.New("smartstore: channel id is required")
)

// SmartStoreConfig holds commerce-API credentials. Access tokens are issued
// from a client-credentials exchange signed with the client secret.
type SmartStoreConfig struct {
	ClientID       string
	ClientSecret   string
	ChannelID      string
	APIBaseURL     string
	IsSandbox      bool
	TimeoutSeconds int
}

// NewSmartStoreConfig creates a config for the given credentials.
func NewSmartStoreConfig(clientID, clientSecret, channelID string) *SmartStoreConfig {
	return &SmartStoreConfig{
		ClientID:       clientID,
		ClientSecret:   clientSecret,
		ChannelID:      channelID,
		APIBaseURL:     SmartStoreAPIBaseURL,
		TimeoutSeconds: 30,
	}
}

// Validate checks required fields and fills defaults.
func (c *SmartStoreConfig) Validate() error {
	if c.ClientID == "" {
		return ErrSmartStoreClientIDRequired
	}
	if c.ClientSecret == "" {
		return ErrSmartStoreClientSecretRequired
	}
	if c.ChannelID == "" {
		return ErrSmartStoreChannelIDRequired
	}
	if c.APIBaseURL == "" {
		if c.IsSandbox {
			c.APIBaseURL = SmartStoreSandboxAPIBaseURL
		} else {
			c.APIBaseURL = SmartStoreAPIBaseURL
		}
	}
	if c.TimeoutSeconds <= 0 {
		c.TimeoutSeconds = 30
	}
	return nil
}

// SignTokenRequest produces the client-credentials signature. The signed
// string is "{clientID}_{timestampMillis}" keyed with the client secret.
func (c *SmartStoreConfig) SignTokenRequest(at time.Time) (signature string, timestamp int64) {
	timestamp = at.UnixMilli()
	mac := hmac.New(sha256.New, []byte(c.ClientSecret))
	fmt.Fprintf(mac, "%s_%d", c.ClientID, timestamp)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil)), timestamp
}
