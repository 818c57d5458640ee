package integration

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPlatformCode_IsValid(t *testing.T) {
	tests := []struct {
		name     string
		code     PlatformCode
		expected bool
	}{
		{"Coupang valid", PlatformCodeCoupang, true},
		{"Eleven valid", PlatformCodeEleven, true},
		{"SmartStore valid", PlatformCodeSmartStore, true},
		{"Invalid code", PlatformCode("INVALID"), false},
		{"Empty code", PlatformCode(""), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.code.IsValid())
		})
	}
}

func TestAllPlatformCodes(t *testing.T) {
	codes := AllPlatformCodes()
	assert.Len(t, codes, 3)
	for _, code := range codes {
		assert.True(t, code.IsValid())
	}
}

func TestPlatformError_Retryable(t *testing.T) {
	tests := []struct {
		kind      ErrorKind
		retryable bool
	}{
		{ErrorKindNetwork, true},
		{ErrorKindPlatform, true},
		{ErrorKindRateLimited, true},
		{ErrorKindValidation, false},
		{ErrorKindPolicy, false},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			pe := &PlatformError{Platform: PlatformCodeCoupang, Kind: tt.kind}
			assert.Equal(t, tt.retryable, pe.Retryable())
		})
	}
}

func TestPlatformError_Error(t *testing.T) {
	withCode := &PlatformError{
		Platform: PlatformCodeEleven,
		Kind:     ErrorKindPolicy,
		Code:     "E2101",
		Message:  "forbidden word",
	}
	assert.Equal(t, "ELEVEN: [POLICY] E2101 - forbidden word", withCode.Error())

	withoutCode := &PlatformError{
		Platform: PlatformCodeCoupang,
		Kind:     ErrorKindNetwork,
		Message:  "connection refused",
	}
	assert.Equal(t, "COUPANG: [NETWORK] connection refused", withoutCode.Error())
}

func TestPlatformError_Unwrap(t *testing.T) {
	pe := &PlatformError{
		Platform: PlatformCodeCoupang,
		Kind:     ErrorKindPlatform,
		Err:      ErrPlatformRequestFailed,
	}
	assert.True(t, errors.Is(pe, ErrPlatformRequestFailed))
}

func TestAsPlatformError(t *testing.T) {
	pe := &PlatformError{Platform: PlatformCodeSmartStore, Kind: ErrorKindValidation}
	wrapped := fmt.Errorf("dispatch: %w", pe)

	got, ok := AsPlatformError(wrapped)
	assert.True(t, ok)
	assert.Equal(t, pe, got)

	_, ok = AsPlatformError(errors.New("plain"))
	assert.False(t, ok)
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(&PlatformError{Kind: ErrorKindNetwork}))
	assert.False(t, IsRetryable(&PlatformError{Kind: ErrorKindPolicy}))
	assert.True(t, IsRetryable(fmt.Errorf("call: %w", ErrPlatformUnavailable)))
	assert.True(t, IsRetryable(ErrPlatformRateLimited))
	assert.False(t, IsRetryable(errors.New("plain")))
}
