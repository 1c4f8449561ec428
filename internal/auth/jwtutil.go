package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"errors"
	"strings"
)

var (
	b64 = base64.RawURLEncoding

	errTokenFormat    = errors.New("invalid token format")
	errTokenSignature = errors.New("signature mismatch")
)

// SignHS256 creates a compact JWT string using HS256.
func SignHS256(claims map[string]any, secret []byte) (string, error) {
	h, err := json.Marshal(map[string]string{"alg": "HS256", "typ": "JWT"})
	if err != nil {
		return "", err
	}
	c, err := json.Marshal(claims)
	if err != nil {
		return "", err
	}
	unsigned := b64.EncodeToString(h) + "." + b64.EncodeToString(c)
	return unsigned + "." + b64.EncodeToString(mac(unsigned, secret)), nil
}

// ParseAndVerifyHS256 verifies the header algorithm and signature and returns
// the claims. Expiry is checked by the caller.
func ParseAndVerifyHS256(token string, secret []byte) (map[string]any, error) {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return nil, errTokenFormat
	}

	rawHeader, err := b64.DecodeString(parts[0])
	if err != nil {
		return nil, errTokenFormat
	}
	var header struct {
		Alg string `json:"alg"`
	}
	if err := json.Unmarshal(rawHeader, &header); err != nil || header.Alg != "HS256" {
		return nil, errTokenFormat
	}

	sig, err := b64.DecodeString(parts[2])
	if err != nil {
		return nil, errTokenSignature
	}
	if !hmac.Equal(sig, mac(parts[0]+"."+parts[1], secret)) {
		return nil, errTokenSignature
	}

	payload, err := b64.DecodeString(parts[1])
	if err != nil {
		return nil, errTokenFormat
	}
	var claims map[string]any
	if err := json.Unmarshal(payload, &claims); err != nil {
		return nil, errTokenFormat
	}
	return claims, nil
}

func mac(unsigned string, secret []byte) []byte {
	m := hmac.New(sha256.New, secret)
	m.Write([]byte(unsigned))
	return m.Sum(nil)
}
