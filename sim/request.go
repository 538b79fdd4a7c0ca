// Defines the Request and Response carriers that travel through the relay chain.
// A Response carries a fixed sidecar (Q, Reward) that transports the learning
// signal back along the traversed path.

package sim

import (
	"fmt"
	"regexp"
)

// Response status codes.
const (
	StatusOK        = 200
	StatusNoService = 501
)

const refusalContent = "Can not service"

var requestURLPattern = regexp.MustCompile(`(?i)^http://([a-z0-9:]+)/(.*)$`)

// Request names a resource by domain (the target key relays learn routes
// for) and path. Immutable once constructed.
type Request struct {
	url    string
	domain string
	path   string
}

// NewRequest parses url of the form http://<domain>/<path>.
// Returns an error if the url does not match; such requests never enter routing.
func NewRequest(url string) (*Request, error) {
	m := requestURLPattern.FindStringSubmatch(url)
	if m == nil {
		return nil, fmt.Errorf("malformed request url %q", url)
	}
	return &Request{url: url, domain: m[1], path: m[2]}, nil
}

// MustNewRequest is like NewRequest but panics on a malformed url.
func MustNewRequest(url string) *Request {
	req, err := NewRequest(url)
	if err != nil {
		panic(err)
	}
	return req
}

// RequestURL builds the canonical url for domain and path.
func RequestURL(domain, path string) string {
	return fmt.Sprintf("http://%s/%s", domain, path)
}

// URL returns the full request url, which is also the cache key.
func (r *Request) URL() string { return r.url }

// Domain returns the target key.
func (r *Request) Domain() string { return r.domain }

// Path returns the resource path within the domain.
func (r *Request) Path() string { return r.path }

func (r *Request) String() string { return r.url }

// Response is what a relay hands back to its caller.
type Response struct {
	Domain  string
	URL     string
	Content string
	Status  int

	// Sidecar, rewritten by every relay on the way back.
	Q      float64 // best value estimate the receiving relay should bootstrap from
	Reward float64 // reward earned where the response was produced or last passed through
}

// OK reports whether the response carries served content.
func (r *Response) OK() bool { return r.Status == StatusOK }

// Failed reports whether the request was refused.
func (r *Response) Failed() bool { return r.Status > 500 }

func newRefusal(req *Request) *Response {
	return &Response{
		Domain:  req.Domain(),
		URL:     req.URL(),
		Content: refusalContent,
		Status:  StatusNoService,
	}
}

func (r *Response) String() string {
	return fmt.Sprintf("Response{url=%s status=%d Q=%.3f reward=%.1f}", r.URL, r.Status, r.Q, r.Reward)
}
