package fcgi

import "time"

// Request is the handler input assembled from one BeginRequest + Params +
// Stdin sequence. It is created once per accepted Responder request and
// destroyed once its Response has been serialized.
type Request struct {
	// Method is the CGI REQUEST_METHOD meta-variable.
	Method string
	// Path is the CGI PATH_INFO meta-variable.
	Path string
	// QueryString is the CGI QUERY_STRING meta-variable (may be empty).
	QueryString string
	// Header holds the decoded HTTP_* meta-variables, with the HTTP_
	// prefix stripped and the remainder title-cased with '-' separators
	// (HTTP_USER_AGENT -> User-Agent).
	Header map[string]string
	// Body is the concatenated Stdin payload.
	Body []byte
	// CreatedAt is the time this Request was assembled, used for request
	// duration logging.
	CreatedAt time.Time

	// id correlates this request's log lines with its accepted
	// connection.
	id string
	// vars holds every CGI meta-variable the front-end sent, including
	// ones with no dedicated struct field, for Get().
	vars NameValueList
}

// Get returns the value of the CGI meta-variable name, if present and
// non-empty. This mirrors the behavior of the original implementation's
// Request::get: an empty-string value is treated the same as absent.
func (r *Request) Get(name string) (string, bool) {
	v, ok := r.vars.Get(name)
	if !ok || v == "" {
		return "", false
	}
	return v, true
}

// ID returns the correlation ID of the connection this request arrived
// on, for use in handler-side logging.
func (r *Request) ID() string { return r.id }
