package provider

import "net/http"

// RequestContext carries the inbound request state the engine is allowed
// to see: the cookie map. It is passed explicitly into every operation;
// the engine never reads ambient request globals.
type RequestContext struct {
	cookies map[string]string
}

// NewRequestContext builds a request context from a cookie map. The map
// is copied.
func NewRequestContext(cookies map[string]string) *RequestContext {
	copied := make(map[string]string, len(cookies))
	for k, v := range cookies {
		copied[k] = v
	}
	return &RequestContext{cookies: copied}
}

// RequestContextFromHTTP extracts the cookie map from an HTTP request.
func RequestContextFromHTTP(r *http.Request) *RequestContext {
	cookies := make(map[string]string)
	for _, c := range r.Cookies() {
		cookies[c.Name] = c.Value
	}
	return &RequestContext{cookies: cookies}
}

// Cookie returns the named cookie's value and whether it was present.
func (rc *RequestContext) Cookie(name string) (string, bool) {
	if rc == nil {
		return "", false
	}
	v, ok := rc.cookies[name]
	return v, ok
}
