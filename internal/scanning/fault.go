package scanning

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"google.golang.org/api/googleapi"
)

// FaultKind classifies why a single extraction attempt failed. The kind
// drives the dispatcher's retry policy.
type FaultKind int

const (
	// FaultNotFound means the model variant is not available on this
	// credential. The dispatcher tries the next variant on the same one.
	FaultNotFound FaultKind = iota
	// FaultExhausted means the credential is rate-limited, out of quota, or
	// the backend is failing. Remaining variants on this credential are
	// skipped and the dispatcher advances to the next credential.
	FaultExhausted
	// FaultUnclassified covers everything else. Mid-matrix it is treated
	// like FaultNotFound; on the last attempt it is terminal.
	FaultUnclassified
)

func (k FaultKind) String() string {
	switch k {
	case FaultNotFound:
		return "not_found"
	case FaultExhausted:
		return "exhausted"
	default:
		return "unclassified"
	}
}

// ChannelError is a classified failure of the extraction channel, surfaced
// after the fallback matrix is exhausted. It carries the last underlying
// fault.
type ChannelError struct {
	Kind  FaultKind
	Model string
	Err   error
}

func (e *ChannelError) Error() string {
	return fmt.Sprintf("all credentials and models exhausted, last fault (%s, model %s): %v", e.Kind, e.Model, e.Err)
}

func (e *ChannelError) Unwrap() error {
	return e.Err
}

// ContentError reports a response that arrived over a working channel but
// could not be used: malformed JSON or missing required fields. It is
// terminal and never retried against other credentials, because the fault is
// in the response content, not the channel.
type ContentError struct {
	Err error
}

func (e *ContentError) Error() string {
	return fmt.Sprintf("unusable extraction response: %v", e.Err)
}

func (e *ContentError) Unwrap() error {
	return e.Err
}

// classifyFault maps an attempt error onto a FaultKind. Structured API errors
// are classified by HTTP status code; anything else falls back to message
// matching the way the Gemini client reports faults.
func classifyFault(err error) FaultKind {
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		switch apiErr.Code {
		case http.StatusNotFound:
			return FaultNotFound
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusServiceUnavailable:
			return FaultExhausted
		}
		return FaultUnclassified
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "404"), strings.Contains(msg, "not found"):
		return FaultNotFound
	case strings.Contains(msg, "429"),
		strings.Contains(msg, "quota"),
		strings.Contains(msg, "resource has been exhausted"),
		strings.Contains(msg, "rate limit"),
		strings.Contains(msg, "500"),
		strings.Contains(msg, "internal server error"),
		strings.Contains(msg, "unavailable"):
		return FaultExhausted
	}
	return FaultUnclassified
}
