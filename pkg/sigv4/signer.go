package sigv4

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const (
	// Algorithm is the signing algorithm identifier.
	Algorithm = "AWS4-HMAC-SHA256"

	// ContentType is the only content type this signer covers.
	ContentType = "application/json"

	// SignedHeaders lists the headers included in every signature, sorted.
	SignedHeaders = "content-type;host;x-amz-date"

	// TimeFormat is the compact ISO-8601 layout used by X-Amz-Date.
	TimeFormat = "20060102T150405Z"

	// HeaderDate and HeaderAuthorization are the two headers Sign produces.
	HeaderDate          = "X-Amz-Date"
	HeaderAuthorization = "Authorization"

	// EmptyPayloadHash is hex(sha256("")).
	EmptyPayloadHash = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"

	scopeTerminator = "aws4_request"
	redacted        = "[REDACTED]"
)

// now is replaced in tests.
var now = time.Now

// Request holds everything needed to sign one outgoing request.
//
// A zero Time means "now"; the clock is read once per Sign call so the date
// stamp, scope and X-Amz-Date header always agree.
type Request struct {
	Method      string
	URL         *url.URL
	Body        []byte
	AccessKeyID string
	SecretKey   []byte
	Region      string
	Service     string
	Time        time.Time
}

// String renders the request without its secret key.
func (r Request) String() string {
	return fmt.Sprintf("sigv4.Request{Method:%s URL:%s Region:%s Service:%s AccessKeyID:%s SecretKey:%s}",
		r.Method, urlString(r.URL), r.Region, r.Service, r.AccessKeyID, redacted)
}

// LogValue implements slog.LogValuer so a Request can be logged directly.
func (r Request) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("method", r.Method),
		slog.String("url", urlString(r.URL)),
		slog.String("region", r.Region),
		slog.String("service", r.Service),
		slog.String("access_key_id", r.AccessKeyID),
		slog.String("secret_key", redacted),
		slog.Int("body_bytes", len(r.Body)),
	)
}

func urlString(u *url.URL) string {
	if u == nil {
		return ""
	}
	return u.Redacted()
}

// Headers is the result of signing: exactly X-Amz-Date and Authorization.
type Headers map[string]string

// Date returns the X-Amz-Date value.
func (h Headers) Date() string { return h[HeaderDate] }

// Authorization returns the Authorization value.
func (h Headers) Authorization() string { return h[HeaderAuthorization] }

// Apply sets the signed headers on dst, replacing existing values.
func (h Headers) Apply(dst http.Header) {
	for k, v := range h {
		dst.Set(k, v)
	}
}

// Sign computes the SigV4 headers for req.
//
// Sign never fails. A nil URL is a programmer error and panics.
func Sign(req Request) Headers {
	t := req.Time
	if t.IsZero() {
		t = now()
	}

	amzDate := FormatTime(t)
	dateStamp := amzDate[:8]

	canonical := CanonicalRequest(req.Method, CanonicalPath(req.URL), req.URL.Host, amzDate, HashPayload(req.Body))
	scope := CredentialScope(dateStamp, req.Region, req.Service)
	stringToSign := StringToSign(amzDate, scope, canonical)

	key := DeriveSigningKey(req.SecretKey, dateStamp, req.Region, req.Service)
	signature := hex.EncodeToString(hmacSHA256(key, []byte(stringToSign)))
	clear(key)

	return Headers{
		HeaderDate:          amzDate,
		HeaderAuthorization: AuthorizationHeader(req.AccessKeyID, scope, signature),
	}
}

// SignHTTPRequest signs r in place. The body must be the exact bytes that
// will be sent; r.Body is not read. Content-Type is forced to ContentType
// since it is part of the signature. The secret is copied into a scratch
// buffer that is cleared before returning.
func SignHTTPRequest(r *http.Request, body []byte, creds Credentials, region, service string, t time.Time) {
	secret := []byte(creds.SecretAccessKey)
	defer clear(secret)

	r.Header.Set("Content-Type", ContentType)
	Sign(Request{
		Method:      r.Method,
		URL:         r.URL,
		Body:        body,
		AccessKeyID: creds.AccessKeyID,
		SecretKey:   secret,
		Region:      region,
		Service:     service,
		Time:        t,
	}).Apply(r.Header)
}

// FormatTime renders t as a UTC X-Amz-Date timestamp.
func FormatTime(t time.Time) string {
	return t.UTC().Format(TimeFormat)
}

// HashPayload returns the lowercase hex SHA-256 of body.
func HashPayload(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// CanonicalPath returns the URL's escaped path, or "/" when it is empty.
func CanonicalPath(u *url.URL) string {
	if p := u.EscapedPath(); p != "" {
		return p
	}
	return "/"
}

// CanonicalRequest builds the canonical request string. The query line is
// always empty.
func CanonicalRequest(method, path, host, amzDate, payloadHash string) string {
	var b strings.Builder
	b.Grow(len(method) + len(path) + len(host) + len(payloadHash) + 128)

	b.WriteString(strings.ToUpper(method))
	b.WriteByte('\n')
	b.WriteString(path)
	b.WriteByte('\n')
	b.WriteByte('\n')

	b.WriteString("content-type:")
	b.WriteString(ContentType)
	b.WriteByte('\n')
	b.WriteString("host:")
	b.WriteString(host)
	b.WriteByte('\n')
	b.WriteString("x-amz-date:")
	b.WriteString(amzDate)
	b.WriteByte('\n')
	b.WriteByte('\n')

	b.WriteString(SignedHeaders)
	b.WriteByte('\n')
	b.WriteString(payloadHash)
	return b.String()
}

// CredentialScope returns date/region/service/aws4_request.
func CredentialScope(dateStamp, region, service string) string {
	return dateStamp + "/" + region + "/" + service + "/" + scopeTerminator
}

// StringToSign builds the string signed with the derived key.
func StringToSign(amzDate, scope, canonicalRequest string) string {
	sum := sha256.Sum256([]byte(canonicalRequest))
	return Algorithm + "\n" + amzDate + "\n" + scope + "\n" + hex.EncodeToString(sum[:])
}

// AuthorizationHeader formats the Authorization header value.
func AuthorizationHeader(accessKeyID, scope, signature string) string {
	return Algorithm + " Credential=" + accessKeyID + "/" + scope +
		", SignedHeaders=" + SignedHeaders +
		", Signature=" + signature
}
