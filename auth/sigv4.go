package auth

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"time"
)

const (
	SignatureAlgorithm = "AWS4-HMAC-SHA256"
	MaxExpiresSeconds  = 604800 // 7 days
	DateTimeFormat     = "20060102T150405Z"
	DateFormat         = "20060102"

	unsignedPayload = "UNSIGNED-PAYLOAD"
)

// SignatureVerifier verifies AWS Signature V4 presigned URLs.
type SignatureVerifier struct {
	Region  string
	Service string
	Secrets SecretStore
	// Now returns the current time. Defaults to time.Now.
	Now func() time.Time
}

// NewSignatureVerifier creates a verifier for the given region and service.
func NewSignatureVerifier(region, service string, secrets SecretStore) *SignatureVerifier {
	return &SignatureVerifier{
		Region:  region,
		Service: service,
		Secrets: secrets,
		Now:     time.Now,
	}
}

// Verify checks an AWS Signature V4 presigned request and returns the access key
// that signed it.
//
// Required query parameters:
//   - X-Amz-Algorithm: Must be "AWS4-HMAC-SHA256"
//   - X-Amz-Credential: Format "access_key/date/region/service/aws4_request"
//   - X-Amz-Date: ISO8601 timestamp (YYYYMMDDTHHMMSSZ)
//   - X-Amz-Expires: Validity duration in seconds (1-604800)
//   - X-Amz-SignedHeaders: Semicolon-separated list of signed headers
//   - X-Amz-Signature: Hex-encoded HMAC-SHA256 signature
//
// Every failure wraps ErrUnauthorized.
func (v *SignatureVerifier) Verify(method, path string, query url.Values, headers http.Header) (string, error) {
	params, err := extractParams(query)
	if err != nil {
		return "", err
	}

	if err := v.validateParams(params); err != nil {
		return "", err
	}

	secretKey, err := v.Secrets.Lookup(params.accessKey)
	if err != nil {
		if errors.Is(err, ErrUnauthorized) {
			return "", fmt.Errorf("invalid access key: %w", err)
		}
		return "", fmt.Errorf("invalid access key: %w: %w", ErrUnauthorized, err)
	}

	expectedSignature := calculateSignature(
		secretKey,
		method,
		path,
		query,
		headers,
		params.requestTime,
		params.dateStamp,
		params.region,
		params.service,
		params.signedHeaders,
	)

	if !hmac.Equal([]byte(expectedSignature), []byte(params.signature)) {
		return "", fmt.Errorf("signature mismatch: %w", ErrUnauthorized)
	}

	return params.accessKey, nil
}

type signatureParams struct {
	algorithm     string
	accessKey     string
	dateStamp     string
	region        string
	service       string
	requestTime   time.Time
	expires       int
	signedHeaders string
	signature     string
}

func extractParams(query url.Values) (*signatureParams, error) {
	amzAlgorithm := query.Get("X-Amz-Algorithm")
	amzCredential := query.Get("X-Amz-Credential")
	amzDate := query.Get("X-Amz-Date")
	amzExpires := query.Get("X-Amz-Expires")
	amzSignedHeaders := query.Get("X-Amz-SignedHeaders")
	amzSignature := query.Get("X-Amz-Signature")

	if amzAlgorithm == "" || amzCredential == "" || amzDate == "" ||
		amzExpires == "" || amzSignedHeaders == "" || amzSignature == "" {
		return nil, fmt.Errorf("missing required signature parameters: %w", ErrUnauthorized)
	}

	requestTime, err := time.Parse(DateTimeFormat, amzDate)
	if err != nil {
		return nil, fmt.Errorf("invalid X-Amz-Date format: %w", ErrUnauthorized)
	}

	expires, err := strconv.Atoi(amzExpires)
	if err != nil || expires <= 0 || expires > MaxExpiresSeconds {
		return nil, fmt.Errorf("invalid X-Amz-Expires: must be between 1 and %d: %w", MaxExpiresSeconds, ErrUnauthorized)
	}

	credParts := strings.Split(amzCredential, "/")
	if len(credParts) != 5 {
		return nil, fmt.Errorf("invalid X-Amz-Credential format: %w", ErrUnauthorized)
	}

	if credParts[4] != "aws4_request" {
		return nil, fmt.Errorf("invalid credential terminator: expected aws4_request: %w", ErrUnauthorized)
	}

	return &signatureParams{
		algorithm:     amzAlgorithm,
		accessKey:     credParts[0],
		dateStamp:     credParts[1],
		region:        credParts[2],
		service:       credParts[3],
		requestTime:   requestTime,
		expires:       expires,
		signedHeaders: amzSignedHeaders,
		signature:     amzSignature,
	}, nil
}

func (v *SignatureVerifier) validateParams(params *signatureParams) error {
	if params.algorithm != SignatureAlgorithm {
		return fmt.Errorf("invalid algorithm: expected %s, got %s: %w", SignatureAlgorithm, params.algorithm, ErrUnauthorized)
	}

	now := time.Now
	if v.Now != nil {
		now = v.Now
	}
	if now().After(params.requestTime.Add(time.Duration(params.expires) * time.Second)) {
		return fmt.Errorf("signature expired: %w", ErrUnauthorized)
	}

	if params.dateStamp != params.requestTime.Format(DateFormat) {
		return fmt.Errorf("credential date mismatch: %w", ErrUnauthorized)
	}

	if params.region != v.Region {
		return fmt.Errorf("region mismatch: expected %s, got %s: %w", v.Region, params.region, ErrUnauthorized)
	}

	if params.service != v.Service {
		return fmt.Errorf("service mismatch: expected %s, got %s: %w", v.Service, params.service, ErrUnauthorized)
	}

	return nil
}

// SigV4 resolves the principal of a presigned request to its access key.
type SigV4 struct {
	verifier *SignatureVerifier
}

// NewSigV4 wraps a SignatureVerifier as a Resolver.
func NewSigV4(verifier *SignatureVerifier) *SigV4 {
	return &SigV4{verifier: verifier}
}

func (s *SigV4) Resolve(r *http.Request) (string, error) {
	// Go keeps Host outside of Header.
	headers := r.Header.Clone()
	headers.Set("Host", r.Host)

	return s.verifier.Verify(r.Method, r.URL.EscapedPath(), r.URL.Query(), headers)
}

// Presign returns rawURL with SigV4 query parameters that authorize method for
// expires. Only the host header is signed.
func Presign(method, rawURL string, creds KeyPair, region, service string, expires time.Duration, now time.Time) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", fmt.Errorf("presign: %w", err)
	}
	if u.Host == "" {
		return "", fmt.Errorf("presign: url has no host: %s", rawURL)
	}

	seconds := int(expires / time.Second)
	if seconds <= 0 || seconds > MaxExpiresSeconds {
		return "", fmt.Errorf("presign: expires must be between 1s and %ds", MaxExpiresSeconds)
	}

	now = now.UTC()
	dateStamp := now.Format(DateFormat)
	signedHeaders := "host"

	query := u.Query()
	query.Set("X-Amz-Algorithm", SignatureAlgorithm)
	query.Set("X-Amz-Credential", fmt.Sprintf("%s/%s/%s/%s/aws4_request", creds.AccessKey, dateStamp, region, service))
	query.Set("X-Amz-Date", now.Format(DateTimeFormat))
	query.Set("X-Amz-Expires", strconv.Itoa(seconds))
	query.Set("X-Amz-SignedHeaders", signedHeaders)

	headers := http.Header{}
	headers.Set("Host", u.Host)

	path := u.EscapedPath()
	if path == "" {
		path = "/"
	}

	signature := calculateSignature(creds.SecretKey, method, path, query, headers, now, dateStamp, region, service, signedHeaders)
	query.Set("X-Amz-Signature", signature)
	u.RawQuery = query.Encode()

	return u.String(), nil
}

func calculateSignature(
	secretKey, method, path string,
	query url.Values,
	headers http.Header,
	requestTime time.Time,
	dateStamp, region, service, signedHeaders string,
) string {
	canonicalRequest := buildCanonicalRequest(method, path, query, headers, signedHeaders)

	credentialScope := fmt.Sprintf("%s/%s/%s/aws4_request", dateStamp, region, service)
	stringToSign := buildStringToSign(requestTime, credentialScope, canonicalRequest)

	signingKey := deriveSigningKey(secretKey, dateStamp, region, service)

	return hex.EncodeToString(hmacSHA256(signingKey, []byte(stringToSign)))
}

func buildCanonicalRequest(method, path string, query url.Values, headers http.Header, signedHeaders string) string {
	return fmt.Sprintf("%s\n%s\n%s\n%s\n%s\n%s",
		method,
		path,
		buildCanonicalQueryString(query),
		buildCanonicalHeaders(headers, signedHeaders),
		signedHeaders,
		unsignedPayload,
	)
}

// buildCanonicalHeaders formats the signed headers, sorted, as "name:value\n".
func buildCanonicalHeaders(headers http.Header, signedHeaders string) string {
	headerNames := strings.Split(signedHeaders, ";")
	sort.Strings(headerNames)

	var result strings.Builder
	for _, name := range headerNames {
		result.WriteString(name)
		result.WriteString(":")
		result.WriteString(strings.TrimSpace(headers.Get(name)))
		result.WriteString("\n")
	}
	return result.String()
}

func buildCanonicalQueryString(query url.Values) string {
	params := url.Values{}
	for k, v := range query {
		if k != "X-Amz-Signature" {
			params[k] = v
		}
	}
	return strings.ReplaceAll(params.Encode(), "+", "%20")
}

func buildStringToSign(requestTime time.Time, credentialScope, canonicalRequest string) string {
	return fmt.Sprintf("%s\n%s\n%s\n%s",
		SignatureAlgorithm,
		requestTime.Format(DateTimeFormat),
		credentialScope,
		sha256Hash(canonicalRequest),
	)
}

func deriveSigningKey(secretKey, dateStamp, region, service string) []byte {
	kDate := hmacSHA256([]byte("AWS4"+secretKey), []byte(dateStamp))
	kRegion := hmacSHA256(kDate, []byte(region))
	kService := hmacSHA256(kRegion, []byte(service))
	return hmacSHA256(kService, []byte("aws4_request"))
}

func hmacSHA256(key, data []byte) []byte {
	h := hmac.New(sha256.New, key)
	h.Write(data)
	return h.Sum(nil)
}

func sha256Hash(data string) string {
	h := sha256.Sum256([]byte(data))
	return hex.EncodeToString(h[:])
}
