package sigv4

import (
	"crypto/hmac"
	"crypto/sha256"
)

// DeriveSigningKey derives the per-day, per-region, per-service signing key.
// The returned slice is owned by the caller.
func DeriveSigningKey(secret []byte, dateStamp, region, service string) []byte {
	seed := make([]byte, 0, 4+len(secret))
	seed = append(seed, "AWS4"...)
	seed = append(seed, secret...)
	defer clear(seed)

	kDate := hmacSHA256(seed, []byte(dateStamp))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))
	kSigning := hmacSHA256(kService, []byte(scopeTerminator))

	clear(kDate)
	clear(kRegion)
	clear(kService)
	return kSigning
}

func hmacSHA256(key, data []byte) []byte {
	mac := hmac.New(sha256.New, key)
	mac.Write(data)
	return mac.Sum(nil)
}
