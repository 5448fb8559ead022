package shopify

import (
	"crypto/tls"
	"crypto/x509"
	"errors"
	"fmt"
	"net"
	"strings"
)

// ErrRateLimitExceeded is matched by every RateLimitError.
var ErrRateLimitExceeded = errors.New("rate limit exceeded")

// RateLimitError reports that every retry on HTTP 429 was consumed.
type RateLimitError struct {
	URL     string
	Retries int
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("Rate limited after %d retries", e.Retries)
}

func (e *RateLimitError) Is(target error) bool {
	return target == ErrRateLimitExceeded
}

// HTTPError is any non-2xx response other than an exhausted 429.
type HTTPError struct {
	StatusCode int
	Status     string
	URL        string
	Body       string
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP %d: %s", e.StatusCode, e.Status)
}

// NetworkError wraps a transport failure.
type NetworkError struct {
	URL string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Errorf("request to %s failed: %w", e.URL, e.Err).Error()
}

func (e *NetworkError) Unwrap() error {
	return e.Err
}

// CertificateError is a transport failure caused by TLS validation.
type CertificateError struct {
	URL string
	Err error
}

func (e *CertificateError) Error() string {
	return fmt.Errorf("certificate validation for %s failed: %w", e.URL, e.Err).Error()
}

func (e *CertificateError) Unwrap() error {
	return e.Err
}

// ValidationError is missing or malformed caller input.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsStatus reports whether err carries an HTTPError with the given code.
func IsStatus(err error, code int) bool {
	var httpErr *HTTPError
	return errors.As(err, &httpErr) && httpErr.StatusCode == code
}

// IsCertificateError reports whether err looks like a TLS validation
// failure anywhere in its chain.
func IsCertificateError(err error) bool {
	if err == nil {
		return false
	}
	var certErr *CertificateError
	if errors.As(err, &certErr) {
		return true
	}
	return looksLikeCertificateFailure(err)
}

func classifyTransportError(url string, err error) error {
	if looksLikeCertificateFailure(err) {
		return &CertificateError{URL: url, Err: err}
	}
	return &NetworkError{URL: url, Err: err}
}

func looksLikeCertificateFailure(err error) bool {
	var verifyErr *tls.CertificateVerificationError
	if errors.As(err, &verifyErr) {
		return true
	}
	var unknownAuthority x509.UnknownAuthorityError
	if errors.As(err, &unknownAuthority) {
		return true
	}
	var invalid x509.CertificateInvalidError
	if errors.As(err, &invalid) {
		return true
	}
	var hostname x509.HostnameError
	if errors.As(err, &hostname) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "certificate") || strings.Contains(msg, "x509")
}

func errorTypeLabel(err error) string {
	if err == nil {
		return "unknown"
	}
	if errors.Is(err, ErrRateLimitExceeded) {
		return "rate_limited"
	}
	var certErr *CertificateError
	if errors.As(err, &certErr) {
		return "certificate"
	}
	var netErr *NetworkError
	if errors.As(err, &netErr) {
		var timeout net.Error
		if errors.As(netErr.Err, &timeout) && timeout.Timeout() {
			return "timeout"
		}
		return "network"
	}
	var httpErr *HTTPError
	if errors.As(err, &httpErr) {
		switch {
		case httpErr.StatusCode == 403:
			return "forbidden"
		case httpErr.StatusCode == 404:
			return "not_found"
		case httpErr.StatusCode >= 500:
			return "server"
		default:
			return "http"
		}
	}
	var validation *ValidationError
	if errors.As(err, &validation) {
		return "validation"
	}
	return "other"
}
