package lookup

import (
	"context"
	"net/http"

	"github.com/nao1215/vtlookup/internal/ioc"
)

// Gateway submits one batch to the reputation service.
//
// Submit returns the response body and status code. A non-nil error means no
// response was received; the body may then be empty. Implementations own
// transport concerns such as headers, timeouts and rate limiting.
type Gateway interface {
	Submit(ctx context.Context, batch string, desc ioc.Descriptor) (Response, error)
}

// GatewayFunc adapts a function to the Gateway interface.
type GatewayFunc func(ctx context.Context, batch string, desc ioc.Descriptor) (Response, error)

// Submit calls f.
func (f GatewayFunc) Submit(ctx context.Context, batch string, desc ioc.Descriptor) (Response, error) {
	return f(ctx, batch, desc)
}

// Response is the raw result of one submission.
type Response struct {
	// Body is the response body, possibly empty.
	Body []byte

	// StatusCode is the HTTP status code, or 0 if no response was received.
	StatusCode int
}

// OK reports whether the submission succeeded.
func (r Response) OK() bool {
	return r.StatusCode == http.StatusOK
}

// Sanitizer validates and normalizes an observable value.
// A non-nil error's message is recorded as the row's status.
type Sanitizer interface {
	Sanitize(raw string, t ioc.Type) (string, error)
}
