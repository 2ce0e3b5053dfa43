// Package storage hands out short-lived signed URLs for object upload and
// download. The API layer only consults it after the visibility resolver has
// granted access.
package storage

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Presigner produces signed URLs for the object store fronting the data room.
type Presigner interface {
	PresignUpload(key, contentType string) (string, error)
	PresignDownload(key string) (string, error)
}

// HMACPresigner signs gateway URLs with a shared secret. The storage gateway
// validates signature and expiry before streaming the object.
type HMACPresigner struct {
	baseURL string
	secret  []byte
	ttl     time.Duration
	now     func() time.Time
}

// NewHMACPresigner constructs a presigner for the given gateway base URL.
func NewHMACPresigner(baseURL, secret string, ttl time.Duration) (*HMACPresigner, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("storage: base url is required")
	}
	if strings.TrimSpace(secret) == "" {
		return nil, errors.New("storage: signing secret is required")
	}
	if ttl <= 0 {
		ttl = 15 * time.Minute
	}
	return &HMACPresigner{
		baseURL: baseURL,
		secret:  []byte(secret),
		ttl:     ttl,
		now:     time.Now,
	}, nil
}

// PresignUpload returns a signed PUT URL for the object key.
func (p *HMACPresigner) PresignUpload(key, contentType string) (string, error) {
	return p.sign("upload", key, contentType)
}

// PresignDownload returns a signed GET URL for the object key.
func (p *HMACPresigner) PresignDownload(key string) (string, error) {
	return p.sign("download", key, "")
}

// Verify checks a signature produced by this presigner. The storage gateway
// calls this before serving the object.
func (p *HMACPresigner) Verify(op, key string, expires int64, signature string) bool {
	if p.now().Unix() > expires {
		return false
	}
	expected := p.signature(op, key, expires)
	return hmac.Equal([]byte(expected), []byte(signature))
}

func (p *HMACPresigner) sign(op, key, contentType string) (string, error) {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return "", errors.New("storage: object key is required")
	}

	expires := p.now().Add(p.ttl).Unix()
	values := url.Values{}
	values.Set("expires", strconv.FormatInt(expires, 10))
	values.Set("signature", p.signature(op, key, expires))
	if contentType != "" {
		values.Set("content_type", contentType)
	}

	return fmt.Sprintf("%s/%s/%s?%s", p.baseURL, op, key, values.Encode()), nil
}

func (p *HMACPresigner) signature(op, key string, expires int64) string {
	mac := hmac.New(sha256.New, p.secret)
	fmt.Fprintf(mac, "%s\n%s\n%d", op, key, expires)
	return hex.EncodeToString(mac.Sum(nil))
}
