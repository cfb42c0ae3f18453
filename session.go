package fcgi

import (
	"errors"
	"strings"
	"time"
)

// session drives a single accepted connection through the state machine
// described by spec.md §4.C: GetValues is answered and the connection
// closes; BeginRequest(Responder, keep_alive=false) proceeds through
// Params and Stdin assembly to a handler dispatch and a single
// Stdout+EndRequest reply. Every other path logs and closes.
type session struct {
	conn    *Conn
	handler Handler
	log     Logger
	metrics *Metrics
	id      string
}

func newSession(conn *Conn, handler Handler, log Logger, metrics *Metrics, id string) *session {
	if log == nil {
		log = nopLogger{}
	}
	return &session{conn: conn, handler: handler, log: log, metrics: metrics, id: id}
}

// serve runs the connection to completion. It never returns an error: every
// failure is either answered on the wire (where spec.md prescribes a
// reply) or logged, and the connection is always considered closed once
// serve returns.
func (s *session) serve() {
	record, err := s.conn.ReadRecord()
	if err != nil {
		s.handleError(err)
		return
	}

	switch r := record.(type) {
	case GetValues:
		s.handleGetValues(r)
	case BeginRequest:
		s.handleBeginRequest(r)
	default:
		s.log.Warnw("fastcgi connection began with unexpected record", "fcgi.connID", s.id, "fcgi.type", record.TypeID().String())
	}
}

// handleGetValues answers a management query. Per spec.md §4.C, only
// FCGI_MPXS_CONNS is ever answered (always "0", since this engine never
// multiplexes); unknown queried names are omitted rather than echoed.
func (s *session) handleGetValues(r GetValues) {
	var result GetValuesResult
	for _, name := range r.Names() {
		if name == "FCGI_MPXS_CONNS" {
			result.Pairs = append(result.Pairs, NameValuePair{Name: "FCGI_MPXS_CONNS", Value: "0"})
			break
		}
	}
	if err := s.conn.WriteRecord(result); err != nil {
		s.log.Warnw("failed writing GetValuesResult", "fcgi.connID", s.id, "error", err)
	}
}

func (s *session) handleBeginRequest(begin BeginRequest) {
	if begin.KeepConn() {
		s.log.Warnw("fastcgi client requested keep-alive, which is not supported", "fcgi.connID", s.id)
		s.endRequest(0, StatusMultiplexingUnsupported)
		s.metrics.requestHandled("keepalive_unsupported")
		return
	}

	if begin.Role != RoleResponder {
		s.log.Warnw("fastcgi client requested an unsupported role", "fcgi.connID", s.id, "fcgi.role", begin.Role)
		s.endRequest(0, StatusUnknownRole)
		s.metrics.requestHandled("unsupported_role")
		return
	}

	paramsRecord, err := s.conn.ReadRecord()
	if err != nil {
		s.handleError(err)
		return
	}
	params, ok := paramsRecord.(Params)
	if !ok {
		s.log.Errorw("fastcgi connection missing Params record", "fcgi.connID", s.id)
		return
	}

	stdinRecord, err := s.conn.ReadRecord()
	if err != nil {
		s.handleError(err)
		return
	}
	stdin, ok := stdinRecord.(Stdin)
	if !ok {
		s.log.Errorw("fastcgi connection missing Stdin record", "fcgi.connID", s.id)
		return
	}

	req, err := s.buildRequest(params.Pairs, stdin.Data)
	if err != nil {
		s.log.Errorw("fastcgi request missing required CGI meta-variable", "fcgi.connID", s.id, "error", err)
		return
	}

	resp, panicked, panicValue := invokeHandler(s.handler, req)
	if panicked {
		s.metrics.handlerPanicked()
		s.log.Errorw("fastcgi handler panicked", "fcgi.connID", s.id, "fcgi.path", req.Path, "panic", panicValue)
		s.endRequest(1, StatusRequestComplete)
		s.metrics.requestHandled("panic")
		return
	}
	if resp == nil {
		resp = NewResponse().SetStatus(404)
	}

	elapsed := time.Since(req.CreatedAt)
	s.log.Infow("fastcgi-request",
		"fcgi.connID", s.id,
		"status", resp.Status,
		"method", req.Method,
		"path", req.Path,
		"query", req.QueryString,
		"elapsedMicro", elapsed.Microseconds(),
	)

	var stdout Stdout
	if err := resp.writeStdout(&stdoutBuffer{r: &stdout}); err != nil {
		s.log.Errorw("failed serializing response body", "fcgi.connID", s.id, "error", err)
		return
	}
	if err := s.conn.WriteRecord(stdout); err != nil {
		s.log.Warnw("failed writing Stdout record", "fcgi.connID", s.id, "error", err)
		return
	}

	s.endRequest(0, StatusRequestComplete)
	s.metrics.requestHandled("ok")
}

// stdoutBuffer adapts Response.writeStdout's io.Writer target into the
// byte slice a Stdout record carries.
type stdoutBuffer struct{ r *Stdout }

func (b *stdoutBuffer) Write(p []byte) (int, error) {
	b.r.Data = append(b.r.Data, p...)
	return len(p), nil
}

// requiredMetaVars are the CGI meta-variables spec.md §4.C requires a
// BeginRequest's Params stream to supply; their absence aborts the
// connection rather than producing a Request with blank fields.
var requiredMetaVars = []string{"REQUEST_METHOD", "PATH_INFO", "QUERY_STRING"}

// buildRequest assembles a Request from the decoded Params pairs and the
// reassembled Stdin body, stripping and title-casing HTTP_* variables into
// Request.Header the way the predecessor server's convert_case::Case::Train
// pass does (HTTP_USER_AGENT -> User-Agent).
func (s *session) buildRequest(vars NameValueList, body []byte) (*Request, error) {
	get := func(name string) (string, bool) { return vars.Get(name) }

	values := make(map[string]string, len(requiredMetaVars))
	for _, name := range requiredMetaVars {
		v, ok := get(name)
		if !ok {
			return nil, wrap(ErrMissingMetaVariable, nil, name)
		}
		values[name] = v
	}

	header := make(map[string]string)
	for _, p := range vars {
		suffix, ok := strings.CutPrefix(p.Name, "HTTP_")
		if !ok {
			continue
		}
		header[titleCaseHeader(suffix)] = p.Value
	}

	return &Request{
		Method:      values["REQUEST_METHOD"],
		Path:        values["PATH_INFO"],
		QueryString: values["QUERY_STRING"],
		Header:      header,
		Body:        body,
		CreatedAt:   time.Now(),
		id:          s.id,
		vars:        vars,
	}, nil
}

// titleCaseHeader renders an HTTP_-stripped CGI variable name
// ("USER_AGENT") as a canonical header name ("User-Agent"): split on '_',
// title-case each word, join with '-'.
func titleCaseHeader(name string) string {
	words := strings.Split(name, "_")
	for i, w := range words {
		if w == "" {
			continue
		}
		words[i] = strings.ToUpper(w[:1]) + strings.ToLower(w[1:])
	}
	return strings.Join(words, "-")
}

// endRequest writes an EndRequest record, logging (not failing) on a write
// error: the connection is being torn down regardless.
func (s *session) endRequest(appStatus uint32, status ProtocolStatus) {
	err := s.conn.WriteRecord(EndRequest{AppStatus: appStatus, ProtocolStatus: status})
	if err != nil {
		s.log.Warnw("failed writing EndRequest", "fcgi.connID", s.id, "error", err)
	}
}

// handleError maps a framing/codec error to a wire reply where spec.md
// prescribes one (the error-handler path in spec.md §4.C), otherwise logs
// and lets the connection close silently.
func (s *session) handleError(err error) {
	switch {
	case errors.Is(err, ErrUnsupportedRole):
		s.endRequest(0, StatusUnknownRole)
		s.log.Warnw("fastcgi client requested an unsupported role", "fcgi.connID", s.id, "error", err)
	case errors.Is(err, ErrMultiplexingUnsupported):
		s.endRequest(0, StatusMultiplexingUnsupported)
		s.log.Warnw("fastcgi client requested connection multiplexing", "fcgi.connID", s.id, "error", err)
	case errors.Is(err, ErrUnknownRecordType):
		var unknown unknownRecordTypeError
		if errors.As(err, &unknown) {
			if werr := s.conn.WriteRecord(UnknownType{Type: unknown.typeID}); werr != nil {
				s.log.Warnw("failed writing UnknownType reply", "fcgi.connID", s.id, "error", werr)
			}
		}
		s.log.Warnw("fastcgi connection sent an unknown record type", "fcgi.connID", s.id, "error", err)
	default:
		s.log.Warnw("error reading fastcgi record, closing connection", "fcgi.connID", s.id, "error", err)
	}
}
