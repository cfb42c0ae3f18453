package fcgi

import (
	"fmt"
	"io"
)

// HeaderField is one response header, kept in a slice rather than a map so
// that Response.writeStdout can serialize headers in insertion order, as
// spec.md's Stdout framing requires.
type HeaderField struct {
	Key   string
	Value string
}

// Response is the handler output: a status code, an ordered header list,
// and a body. The zero value is an empty 200 OK response, matching the
// original implementation's Response::default.
type Response struct {
	Status int
	Header []HeaderField
	Body   []byte
}

// NewResponse returns an empty 200 OK response with no headers set.
func NewResponse() *Response {
	return &Response{Status: 200}
}

// SetHeader appends a header field. Unlike a map-backed header set, this
// permits repeated keys, mirroring how multi-value headers (e.g.
// Set-Cookie) are represented over CGI.
func (r *Response) SetHeader(key, value string) *Response {
	r.Header = append(r.Header, HeaderField{Key: key, Value: value})
	return r
}

// SetStatus sets the response status code.
func (r *Response) SetStatus(code int) *Response {
	r.Status = code
	return r
}

// SetBody sets the response body to the given bytes.
func (r *Response) SetBody(body []byte) *Response {
	r.Body = body
	return r
}

// Text builds a text/plain response with the given body.
func Text(body string) *Response {
	return NewResponse().SetHeader("Content-Type", "text/plain").SetBody([]byte(body))
}

// HTML builds a text/html response with the given body.
func HTML(body string) *Response {
	return NewResponse().SetHeader("Content-Type", "text/html").SetBody([]byte(body))
}

// JSON builds an application/json response with the given already-encoded
// body. It does not marshal its argument: callers encode their own
// payload, keeping this package independent of any particular JSON
// strategy.
func JSON(body []byte) *Response {
	return NewResponse().SetHeader("Content-Type", "application/json").SetBody(body)
}

// Redirect builds a temporary (307) redirect response to path.
func Redirect(path string) *Response {
	return NewResponse().SetStatus(307).SetHeader("Location", path)
}

// PermanentRedirect builds a permanent (308) redirect response to path.
func PermanentRedirect(path string) *Response {
	return NewResponse().SetStatus(308).SetHeader("Location", path)
}

// writeStdout serializes the response as the CGI-style Stdout stream
// spec.md describes: each header as "K: V\n" in insertion order, then
// "Status: <code>\n", then a blank line, then the body.
func (r *Response) writeStdout(w io.Writer) error {
	for _, h := range r.Header {
		if _, err := fmt.Fprintf(w, "%s: %s\n", h.Key, h.Value); err != nil {
			return err
		}
	}
	status := r.Status
	if status == 0 {
		status = 200
	}
	if _, err := fmt.Fprintf(w, "Status: %d\n", status); err != nil {
		return err
	}
	if _, err := io.WriteString(w, "\n"); err != nil {
		return err
	}
	_, err := w.Write(r.Body)
	return err
}
