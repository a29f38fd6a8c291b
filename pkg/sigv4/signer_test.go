package sigv4

import (
	"bytes"
	"encoding/hex"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"testing"
	"time"
)

const (
	testSecret    = "wJalrXUtnFEMI/K7MDENG+bPxRfiCYEXAMPLEKEY"
	testAccessKey = "AKIDEXAMPLE"
	testHost      = "bedrock-runtime.us-east-1.amazonaws.com"
)

var testTime = time.Date(2015, 8, 30, 12, 36, 0, 0, time.UTC)

func mustURL(t testing.TB, raw string) *url.URL {
	t.Helper()
	u, err := url.Parse(raw)
	if err != nil {
		t.Fatalf("failed to parse URL %q: %v", raw, err)
	}
	return u
}

func testRequest(t testing.TB) Request {
	return Request{
		Method:      http.MethodPost,
		URL:         mustURL(t, "https://"+testHost+"/model/x/invoke"),
		Body:        []byte("{}"),
		AccessKeyID: testAccessKey,
		SecretKey:   []byte(testSecret),
		Region:      "us-east-1",
		Service:     "bedrock",
		Time:        testTime,
	}
}

func signatureOf(t *testing.T, h Headers) string {
	t.Helper()
	auth := h.Authorization()
	idx := strings.LastIndex(auth, "Signature=")
	if idx < 0 {
		t.Fatalf("Authorization header has no signature: %q", auth)
	}
	return auth[idx+len("Signature="):]
}

func TestSign_KnownVector(t *testing.T) {
	headers := Sign(testRequest(t))

	if len(headers) != 2 {
		t.Fatalf("expected exactly 2 headers, got %d: %v", len(headers), headers)
	}
	if got := headers.Date(); got != "20150830T123600Z" {
		t.Errorf("expected X-Amz-Date 20150830T123600Z, got %q", got)
	}

	want := "AWS4-HMAC-SHA256 Credential=AKIDEXAMPLE/20150830/us-east-1/bedrock/aws4_request, " +
		"SignedHeaders=content-type;host;x-amz-date, " +
		"Signature=5c03a71a23cbd90156e7ec361d97fd2c3315684e385f592d3c3ddc2c4dcfb8fe"
	if got := headers.Authorization(); got != want {
		t.Errorf("unexpected Authorization header\nexpected: %s\ngot:      %s", want, got)
	}
}

func TestSign_RootPathGET(t *testing.T) {
	req := Request{
		Method:      "get",
		URL:         mustURL(t, "https://example.amazonaws.com"),
		AccessKeyID: testAccessKey,
		SecretKey:   []byte(testSecret),
		Region:      "us-east-1",
		Service:     "service",
		Time:        testTime,
	}

	got := signatureOf(t, Sign(req))
	want := "96d410dce17d9a055b33365ad30cb5fdfbc34afd14b3549a0a760ef2291783eb"
	if got != want {
		t.Errorf("expected signature %s, got %s", want, got)
	}
}

func TestSign_Deterministic(t *testing.T) {
	req := testRequest(t)
	first := Sign(req)
	for i := 0; i < 5; i++ {
		again := Sign(req)
		if again.Authorization() != first.Authorization() || again.Date() != first.Date() {
			t.Fatalf("signing is not deterministic: %v vs %v", first, again)
		}
	}
}

func TestSign_Sensitivity(t *testing.T) {
	base := testRequest(t)
	baseHeaders := Sign(base)
	baseSig := signatureOf(t, baseHeaders)

	tests := []struct {
		name   string
		mutate func(r *Request)
		want   string
	}{
		{
			name:   "body whitespace",
			mutate: func(r *Request) { r.Body = []byte("{ }") },
			want:   "c0307f428b20e68cc2d67ce2292b9fecc1524b73efaf02e322f30fa84f453bec",
		},
		{
			name:   "path",
			mutate: func(r *Request) { r.URL = mustURL(t, "https://"+testHost+"/model/y/invoke") },
			want:   "ecd6a81df7239afd726e97de5a6e4a978ffb6c9c8a93ddfdbb11bf0f6ec23333",
		},
		{
			name:   "secret",
			mutate: func(r *Request) { r.SecretKey = []byte(testSecret + "X") },
			want:   "f9f5a45a3d9489d0d840e3906388e2e6c81e53089f7480ce1f2257698ad94554",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := base
			tt.mutate(&req)
			headers := Sign(req)

			got := signatureOf(t, headers)
			if got == baseSig {
				t.Errorf("expected signature to change")
			}
			if got != tt.want {
				t.Errorf("expected signature %s, got %s", tt.want, got)
			}
			if !strings.Contains(headers.Authorization(), "SignedHeaders="+SignedHeaders+",") {
				t.Errorf("expected SignedHeaders to stay %q, got %q", SignedHeaders, headers.Authorization())
			}
			if headers.Date() != baseHeaders.Date() {
				t.Errorf("expected date %s, got %s", baseHeaders.Date(), headers.Date())
			}
		})
	}
}

func TestSign_IgnoresQueryString(t *testing.T) {
	withQuery := testRequest(t)
	withQuery.URL = mustURL(t, "https://"+testHost+"/model/x/invoke?trace=1")

	if got, want := Sign(withQuery).Authorization(), Sign(testRequest(t)).Authorization(); got != want {
		t.Errorf("expected query string to be ignored\nexpected: %s\ngot:      %s", want, got)
	}
}

func TestSign_ZeroTimeCapturedOnce(t *testing.T) {
	calls := 0
	orig := now
	now = func() time.Time {
		calls++
		return testTime.Add(time.Duration(calls) * time.Hour)
	}
	defer func() { now = orig }()

	req := testRequest(t)
	req.Time = time.Time{}
	headers := Sign(req)

	if calls != 1 {
		t.Errorf("expected clock to be read once, got %d", calls)
	}
	if got := headers.Date(); got != "20150830T133600Z" {
		t.Errorf("expected X-Amz-Date 20150830T133600Z, got %q", got)
	}
	if !strings.Contains(headers.Authorization(), "/20150830/us-east-1/bedrock/aws4_request") {
		t.Errorf("scope does not match captured time: %s", headers.Authorization())
	}
}

func TestSign_NonUTCTime(t *testing.T) {
	loc := time.FixedZone("UTC+2", 2*60*60)
	req := testRequest(t)
	req.Time = testTime.In(loc)

	if got, want := Sign(req).Authorization(), Sign(testRequest(t)).Authorization(); got != want {
		t.Errorf("expected timezone to be normalized\nexpected: %s\ngot:      %s", want, got)
	}
}

func TestSign_DoesNotMutateSecret(t *testing.T) {
	req := testRequest(t)
	secret := append([]byte(nil), req.SecretKey...)
	Sign(req)
	if !bytes.Equal(req.SecretKey, secret) {
		t.Errorf("Sign modified the caller's secret key")
	}
}

func TestCanonicalRequest(t *testing.T) {
	got := CanonicalRequest("POST", "/model/x/invoke", testHost, "20150830T123600Z", HashPayload([]byte("{}")))
	want := "POST\n" +
		"/model/x/invoke\n" +
		"\n" +
		"content-type:application/json\n" +
		"host:bedrock-runtime.us-east-1.amazonaws.com\n" +
		"x-amz-date:20150830T123600Z\n" +
		"\n" +
		"content-type;host;x-amz-date\n" +
		"44136fa355b3678a1146ad16f7e8649e94fb4fc21fe77e8310c060f61caaff8a"
	if got != want {
		t.Errorf("unexpected canonical request\nexpected:\n%s\ngot:\n%s", want, got)
	}
}

func TestStringToSign(t *testing.T) {
	canonical := CanonicalRequest("POST", "/model/x/invoke", testHost, "20150830T123600Z", HashPayload([]byte("{}")))
	scope := CredentialScope("20150830", "us-east-1", "bedrock")

	got := StringToSign("20150830T123600Z", scope, canonical)
	want := "AWS4-HMAC-SHA256\n" +
		"20150830T123600Z\n" +
		"20150830/us-east-1/bedrock/aws4_request\n" +
		"2d4b80cfcf863cbd49231e2f8e939ee131c084760814b2f0cefaf4fdd6c13969"
	if got != want {
		t.Errorf("unexpected string to sign\nexpected:\n%s\ngot:\n%s", want, got)
	}
}

func TestCanonicalPath(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"https://example.com", "/"},
		{"https://example.com/", "/"},
		{"https://example.com/model/x/invoke", "/model/x/invoke"},
		{"https://example.com/a%20b", "/a%20b"},
		{"https://example.com/path?x=1", "/path"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			if got := CanonicalPath(mustURL(t, tt.raw)); got != tt.want {
				t.Errorf("expected %q, got %q", tt.want, got)
			}
		})
	}
}

func TestHashPayload(t *testing.T) {
	if got := HashPayload(nil); got != EmptyPayloadHash {
		t.Errorf("expected %s, got %s", EmptyPayloadHash, got)
	}
	if got := HashPayload([]byte{}); got != EmptyPayloadHash {
		t.Errorf("expected %s, got %s", EmptyPayloadHash, got)
	}
}

func TestFormatTime(t *testing.T) {
	got := FormatTime(time.Date(2024, 1, 2, 3, 4, 5, 999, time.UTC))
	if got != "20240102T030405Z" {
		t.Errorf("expected 20240102T030405Z, got %s", got)
	}
}

func TestHeadersApply(t *testing.T) {
	h := http.Header{}
	h.Set("Authorization", "Bearer stale")
	h.Set("Content-Type", ContentType)

	Sign(testRequest(t)).Apply(h)

	if got := h.Get("X-Amz-Date"); got != "20150830T123600Z" {
		t.Errorf("expected X-Amz-Date to be set, got %q", got)
	}
	if !strings.HasPrefix(h.Get("Authorization"), Algorithm+" ") {
		t.Errorf("expected Authorization to be replaced, got %q", h.Get("Authorization"))
	}
	if len(h.Values("Authorization")) != 1 {
		t.Errorf("expected a single Authorization value, got %v", h.Values("Authorization"))
	}
}

func TestSignHTTPRequest(t *testing.T) {
	body := []byte("{}")
	r, err := http.NewRequest(http.MethodPost, "https://"+testHost+"/model/x/invoke", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("failed to build request: %v", err)
	}
	r.Header.Set("Content-Type", "text/plain")

	SignHTTPRequest(r, body, Credentials{AccessKeyID: testAccessKey, SecretAccessKey: testSecret}, "us-east-1", "bedrock", testTime)

	if got := r.Header.Get("Content-Type"); got != ContentType {
		t.Errorf("expected Content-Type %s, got %s", ContentType, got)
	}
	if got, want := r.Header.Get("Authorization"), Sign(testRequest(t)).Authorization(); got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}

func TestRequest_SecretNotRendered(t *testing.T) {
	req := testRequest(t)

	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))
	logger.Info("signing", "request", req)

	outputs := map[string]string{
		"String":  req.String(),
		"Sprintf": fmt.Sprintf("%v", req),
		"slog":    buf.String(),
	}
	for name, out := range outputs {
		if strings.Contains(out, testSecret) {
			t.Errorf("%s leaked the secret key: %s", name, out)
		}
		if !strings.Contains(out, redacted) {
			t.Errorf("%s missing redaction marker: %s", name, out)
		}
	}
}

func TestDeriveSigningKey(t *testing.T) {
	tests := []struct {
		name      string
		secret    string
		dateStamp string
		region    string
		service   string
		want      string
	}{
		{
			// Published AWS key-derivation example.
			name:      "aws iam example",
			secret:    testSecret,
			dateStamp: "20120215",
			region:    "us-east-1",
			service:   "iam",
			want:      "f4780e2d9f65fa895f9c67b32ce1baf0b0d8a43505a000a1a9e090d414db404d",
		},
		{
			name:      "iam 2015",
			secret:    testSecret,
			dateStamp: "20150830",
			region:    "us-east-1",
			service:   "iam",
			want:      "c4afb1cc5771d871763a393e44b703571b55cc28424d1a5e86da6ed3c154a4b9",
		},
		{
			name:      "bedrock",
			secret:    testSecret,
			dateStamp: "20150830",
			region:    "us-east-1",
			service:   "bedrock",
			want:      "90e694a0eeb93605dc6a1e798b98fe0e790776a911d2494317b06246c599ba53",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := hex.EncodeToString(DeriveSigningKey([]byte(tt.secret), tt.dateStamp, tt.region, tt.service))
			if got != tt.want {
				t.Errorf("expected %s, got %s", tt.want, got)
			}
		})
	}
}

func TestCredentials(t *testing.T) {
	if err := (Credentials{AccessKeyID: "a"}).Validate(); err != ErrMissingCredentials {
		t.Errorf("expected ErrMissingCredentials, got %v", err)
	}
	if err := (Credentials{AccessKeyID: "a", SecretAccessKey: "b"}).Validate(); err != nil {
		t.Errorf("expected no error, got %v", err)
	}

	c := Credentials{AccessKeyID: testAccessKey, SecretAccessKey: testSecret}
	if strings.Contains(c.String(), testSecret) {
		t.Errorf("String leaked the secret: %s", c.String())
	}
}
