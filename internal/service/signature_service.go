package service

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// HMACSignatureService implements ports.SignatureService using HMAC-SHA256.
type HMACSignatureService struct{}

// NewHMACSignatureService creates a new HMAC-SHA256 signature service.
func NewHMACSignatureService() *HMACSignatureService {
	return &HMACSignatureService{}
}

// Sign computes HMAC-SHA256 of payload using secretKey.
// Returns lowercase hex-encoded signature.
func (s *HMACSignatureService) Sign(secretKey string, payload string) string {
	mac := hmac.New(sha256.New, []byte(secretKey))
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// Verify checks if signature matches HMAC-SHA256(secretKey, payload).
// An optional "sha256=" prefix is accepted and hex case is ignored.
func (s *HMACSignatureService) Verify(secretKey string, payload string, signature string) bool {
	signature = strings.ToLower(strings.TrimPrefix(strings.TrimSpace(signature), "sha256="))
	expected := s.Sign(secretKey, payload)
	return hmac.Equal([]byte(expected), []byte(signature))
}
