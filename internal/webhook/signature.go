package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"fmt"

	"storepulse/internal/domain"
)

// Sign returns the base64 HMAC-SHA256 of body, as sent in X-Shopify-Hmac-Sha256.
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return base64.StdEncoding.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks header against body. An empty secret disables the check.
func VerifySignature(secret string, body []byte, header string) error {
	if secret == "" {
		return nil
	}
	if header == "" {
		return fmt.Errorf("%w: missing webhook signature", domain.ErrUnauthorized)
	}
	if !hmac.Equal([]byte(Sign(secret, body)), []byte(header)) {
		return fmt.Errorf("%w: webhook signature mismatch", domain.ErrUnauthorized)
	}
	return nil
}
