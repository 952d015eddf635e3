package main

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha512"
	"encoding/hex"
	"io"
	"net/http"
	"os"

	"chatdesk/internal/errors"
)

const (
	signatureHeader = "X-Webhook-Hmac"
	timestampHeader = "X-Webhook-Timestamp"
)

// verifySignature checks the webhook HMAC and returns the request body.
// An empty secret disables verification outside production.
func verifySignature(r *http.Request, secretKey string) ([]byte, error) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeInternalError, "failed to read request body")
	}
	r.Body = io.NopCloser(bytes.NewBuffer(body))

	if secretKey == "" {
		if os.Getenv("CHATDESK_ENV") == "production" {
			return nil, errors.New(errors.ErrCodeAuthentication, "webhook secret is required in production mode")
		}
		return body, nil
	}

	expectedSignatureHex := r.Header.Get(signatureHeader)
	if expectedSignatureHex == "" {
		return nil, errors.New(errors.ErrCodeAuthentication, "missing signature header").
			WithContext("header", signatureHeader)
	}
	if r.Header.Get(timestampHeader) == "" {
		return nil, errors.New(errors.ErrCodeAuthentication, "missing timestamp header").
			WithContext("header", timestampHeader)
	}

	mac := hmac.New(sha512.New, []byte(secretKey))
	mac.Write(body)
	computedSignatureHex := hex.EncodeToString(mac.Sum(nil))

	if !hmac.Equal([]byte(computedSignatureHex), []byte(expectedSignatureHex)) {
		return nil, errors.New(errors.ErrCodeAuthentication, "signature mismatch")
	}

	return body, nil
}
