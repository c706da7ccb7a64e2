package webhook

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"

	"github.com/catalyst-engine/whatsapp-relay/internal/apperr"
)

// SignatureHeader is the header Meta signs webhook deliveries with.
const SignatureHeader = "X-Hub-Signature-256"

// VerifySignature checks the x-hub-signature-256 header against the raw
// request body. It must run on the exact bytes received: re-serialized JSON
// will not match the signature.
//
// An empty secret disables verification entirely. That is the development
// mode; production deployments should always configure the app secret.
func VerifySignature(body []byte, header string, secret []byte) error {
	if len(secret) == 0 {
		return nil
	}
	if header == "" {
		return apperr.Authentication("missing webhook signature header")
	}

	mac := hmac.New(sha256.New, secret)
	mac.Write(body)
	expected := "sha256=" + hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(expected), []byte(header)) {
		return apperr.Authentication("invalid webhook signature")
	}
	return nil
}
