package engine

import (
	"net/http"

	"golang.org/x/net/http/httpguts"

	"github.com/go-drift/embedview/pkg/errors"
)

// HTTPHeader is one request header as passed across the binding boundary.
type HTTPHeader struct {
	Name  string
	Value string
}

// HeaderList is an ordered list of request headers.
type HeaderList []HTTPHeader

// Header validates every name and value and builds an http.Header.
// A later header with the same name replaces an earlier one.
func (l HeaderList) Header() (http.Header, error) {
	h := make(http.Header, len(l))
	for _, hdr := range l {
		if !httpguts.ValidHeaderFieldName(hdr.Name) {
			return nil, errors.Internal("engine.HeaderList", "invalid header name: %s", hdr.Name)
		}
		if !httpguts.ValidHeaderFieldValue(hdr.Value) {
			return nil, errors.Internal("engine.HeaderList", "invalid header value for %s: %s", hdr.Name, hdr.Value)
		}
		h.Set(hdr.Name, hdr.Value)
	}
	return h, nil
}
