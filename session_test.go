package fcgi

import (
	"bytes"
	"strings"
	"testing"
)

func writeTestRecord(t *testing.T, conn *Conn, r Record) {
	t.Helper()
	if err := conn.WriteRecord(r); err != nil {
		t.Fatalf("WriteRecord(%T): %v", r, err)
	}
}

func beginRequest(role Role, keepAlive bool) BeginRequest {
	var flags uint8
	if keepAlive {
		flags = keepConnMask
	}
	return BeginRequest{Role: role, Flags: flags}
}

func paramsRecord(pairs ...NameValuePair) Params {
	return Params{Pairs: NameValueList(pairs)}
}

func pair(name, value string) NameValuePair { return NameValuePair{Name: name, Value: value} }

// TestGetValuesEcho covers end-to-end scenario 1: a GetValues query for
// FCGI_MPXS_CONNS and an unknown name gets back only FCGI_MPXS_CONNS=0.
func TestGetValuesEcho(t *testing.T) {
	lb := &loopback{}
	clientSide := NewConn(lb)
	writeTestRecord(t, clientSide, GetValues{Pairs: NameValueList{pair("FCGI_MPXS_CONNS", ""), pair("UNKNOWN", "")}})

	s := newSession(NewConn(lb), nopHandler(), nil, nil, "test")
	s.serve()

	reply, err := clientSide.ReadRecord()
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	result, ok := reply.(GetValuesResult)
	if !ok {
		t.Fatalf("got %T, want GetValuesResult", reply)
	}
	if len(result.Pairs) != 1 || result.Pairs[0].Name != "FCGI_MPXS_CONNS" || result.Pairs[0].Value != "0" {
		t.Errorf("GetValuesResult = %+v", result.Pairs)
	}
}

// TestKeepAliveUnsupported covers end-to-end scenario 2.
func TestKeepAliveUnsupported(t *testing.T) {
	lb := &loopback{}
	clientSide := NewConn(lb)
	writeTestRecord(t, clientSide, beginRequest(RoleResponder, true))
	writeTestRecord(t, clientSide, paramsRecord(pair("REQUEST_METHOD", "GET"), pair("PATH_INFO", "/"), pair("QUERY_STRING", "")))
	writeTestRecord(t, clientSide, Stdin{})

	s := newSession(NewConn(lb), nopHandler(), nil, nil, "test")
	s.serve()

	reply, err := clientSide.ReadRecord()
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	end, ok := reply.(EndRequest)
	if !ok {
		t.Fatalf("got %T, want EndRequest", reply)
	}
	if end.ProtocolStatus != StatusMultiplexingUnsupported || end.AppStatus != 0 {
		t.Errorf("EndRequest = %+v", end)
	}
}

// TestUnknownRole covers end-to-end scenario 3.
func TestUnknownRole(t *testing.T) {
	lb := &loopback{}
	clientSide := NewConn(lb)
	writeTestRecord(t, clientSide, beginRequest(RoleAuthorizer, false))

	s := newSession(NewConn(lb), nopHandler(), nil, nil, "test")
	s.serve()

	reply, err := clientSide.ReadRecord()
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	end, ok := reply.(EndRequest)
	if !ok {
		t.Fatalf("got %T, want EndRequest", reply)
	}
	if end.ProtocolStatus != StatusUnknownRole || end.AppStatus != 0 {
		t.Errorf("EndRequest = %+v", end)
	}
}

// TestResponderEchoesBody covers end-to-end scenario 4.
func TestResponderEchoesBody(t *testing.T) {
	lb := &loopback{}
	clientSide := NewConn(lb)
	writeTestRecord(t, clientSide, beginRequest(RoleResponder, false))
	writeTestRecord(t, clientSide, paramsRecord(pair("REQUEST_METHOD", "GET"), pair("PATH_INFO", "/"), pair("QUERY_STRING", "")))
	writeTestRecord(t, clientSide, Stdin{Data: []byte("BAR")})

	handler := HandlerFunc(func(req *Request) *Response {
		return NewResponse().SetBody(req.Body)
	})

	s := newSession(NewConn(lb), handler, nil, nil, "test")
	s.serve()

	stdoutRec, err := clientSide.ReadRecord()
	if err != nil {
		t.Fatalf("ReadRecord (stdout): %v", err)
	}
	stdout, ok := stdoutRec.(Stdout)
	if !ok {
		t.Fatalf("got %T, want Stdout", stdoutRec)
	}
	want := "Status: 200\n\nBAR"
	if string(stdout.Data) != want {
		t.Errorf("stdout = %q, want %q", stdout.Data, want)
	}

	endRec, err := clientSide.ReadRecord()
	if err != nil {
		t.Fatalf("ReadRecord (end): %v", err)
	}
	end, ok := endRec.(EndRequest)
	if !ok || end.ProtocolStatus != StatusRequestComplete || end.AppStatus != 0 {
		t.Errorf("EndRequest = %+v, ok=%v", endRec, ok)
	}
}

// TestLargeStdinReassembly covers end-to-end scenario 5.
func TestLargeStdinReassembly(t *testing.T) {
	lb := &loopback{}
	clientSide := NewConn(lb)
	writeTestRecord(t, clientSide, beginRequest(RoleResponder, false))
	writeTestRecord(t, clientSide, paramsRecord(pair("REQUEST_METHOD", "POST"), pair("PATH_INFO", "/"), pair("QUERY_STRING", "")))

	body := bytes.Repeat([]byte{'A'}, 5*65535)
	writeTestRecord(t, clientSide, Stdin{Data: body})

	var gotLen int
	var firstByte, lastByte byte
	handler := HandlerFunc(func(req *Request) *Response {
		gotLen = len(req.Body)
		if gotLen > 0 {
			firstByte = req.Body[0]
			lastByte = req.Body[gotLen-1]
		}
		return NewResponse()
	})

	s := newSession(NewConn(lb), handler, nil, nil, "test")
	s.serve()

	if gotLen != 5*65535 {
		t.Errorf("body length = %d, want %d", gotLen, 5*65535)
	}
	if firstByte != 'A' || lastByte != 'A' {
		t.Errorf("boundary bytes: first=%q last=%q", firstByte, lastByte)
	}
}

func TestMissingRequiredMetaVariableAbortsConnection(t *testing.T) {
	lb := &loopback{}
	clientSide := NewConn(lb)
	writeTestRecord(t, clientSide, beginRequest(RoleResponder, false))
	writeTestRecord(t, clientSide, paramsRecord(pair("REQUEST_METHOD", "GET")))
	writeTestRecord(t, clientSide, Stdin{})

	called := false
	handler := HandlerFunc(func(req *Request) *Response {
		called = true
		return NewResponse()
	})

	s := newSession(NewConn(lb), handler, nil, nil, "test")
	s.serve()

	if called {
		t.Error("handler should not run when a required meta-variable is missing")
	}
	if lb.toRead.Len() != 0 {
		t.Error("no reply should be written when required meta-variables are missing")
	}
}

func TestHTTPHeaderTitleCasing(t *testing.T) {
	lb := &loopback{}
	clientSide := NewConn(lb)
	writeTestRecord(t, clientSide, beginRequest(RoleResponder, false))
	writeTestRecord(t, clientSide, paramsRecord(
		pair("REQUEST_METHOD", "GET"),
		pair("PATH_INFO", "/"),
		pair("QUERY_STRING", ""),
		pair("HTTP_USER_AGENT", "curl/8.0"),
		pair("HTTP_X_REQUEST_ID", "abc123"),
	))
	writeTestRecord(t, clientSide, Stdin{})

	var gotHeader map[string]string
	handler := HandlerFunc(func(req *Request) *Response {
		gotHeader = req.Header
		return NewResponse()
	})

	s := newSession(NewConn(lb), handler, nil, nil, "test")
	s.serve()

	if gotHeader["User-Agent"] != "curl/8.0" {
		t.Errorf("User-Agent = %q", gotHeader["User-Agent"])
	}
	if gotHeader["X-Request-Id"] != "abc123" {
		t.Errorf("X-Request-Id = %q", gotHeader["X-Request-Id"])
	}
}

func TestHandlerPanicEndsRequestWithErrorStatus(t *testing.T) {
	lb := &loopback{}
	clientSide := NewConn(lb)
	writeTestRecord(t, clientSide, beginRequest(RoleResponder, false))
	writeTestRecord(t, clientSide, paramsRecord(pair("REQUEST_METHOD", "GET"), pair("PATH_INFO", "/"), pair("QUERY_STRING", "")))
	writeTestRecord(t, clientSide, Stdin{})

	handler := HandlerFunc(func(req *Request) *Response {
		panic("boom")
	})

	s := newSession(NewConn(lb), handler, nil, nil, "test")
	s.serve()

	endRec, err := clientSide.ReadRecord()
	if err != nil {
		t.Fatalf("ReadRecord: %v", err)
	}
	end, ok := endRec.(EndRequest)
	if !ok {
		t.Fatalf("got %T, want EndRequest", endRec)
	}
	if end.AppStatus != 1 || end.ProtocolStatus != StatusRequestComplete {
		t.Errorf("EndRequest = %+v", end)
	}
}

func nopHandler() Handler {
	return HandlerFunc(func(req *Request) *Response { return NewResponse() })
}

func TestTitleCaseHeader(t *testing.T) {
	cases := map[string]string{
		"USER_AGENT": "User-Agent",
		"HOST":       "Host",
		"X_FOO_BAR":  "X-Foo-Bar",
	}
	for in, want := range cases {
		if got := titleCaseHeader(in); got != want {
			t.Errorf("titleCaseHeader(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestBuildRequestGetEmptyIsAbsent(t *testing.T) {
	s := newSession(nil, nil, nil, nil, "test")
	req, err := s.buildRequest(NameValueList{
		pair("REQUEST_METHOD", "GET"),
		pair("PATH_INFO", "/"),
		pair("QUERY_STRING", ""),
		pair("CONTENT_TYPE", ""),
	}, nil)
	if err != nil {
		t.Fatalf("buildRequest: %v", err)
	}
	if _, ok := req.Get("CONTENT_TYPE"); ok {
		t.Error("Get should treat an empty value as absent")
	}
	if !strings.HasPrefix(req.Method, "GET") {
		t.Errorf("Method = %q", req.Method)
	}
}
