package fcgi

import (
	"bytes"
	"errors"
	"testing"
)

func TestDecodeBeginRequest(t *testing.T) {
	payload := []byte{0, 1, 0x01, 0, 0, 0, 0, 0}
	rec, err := decodeRecord(uint8(TypeBeginRequest), payload)
	if err != nil {
		t.Fatalf("decodeRecord: %v", err)
	}
	begin, ok := rec.(BeginRequest)
	if !ok {
		t.Fatalf("got %T, want BeginRequest", rec)
	}
	if begin.Role != RoleResponder {
		t.Errorf("Role = %v, want Responder", begin.Role)
	}
	if !begin.KeepConn() {
		t.Error("KeepConn() = false, want true for flags=0x01")
	}
}

func TestDecodeBeginRequestAuthorizerRole(t *testing.T) {
	payload := []byte{0, 2, 0, 0, 0, 0, 0, 0}
	rec, err := decodeRecord(uint8(TypeBeginRequest), payload)
	if err != nil {
		t.Fatalf("decodeRecord: %v", err)
	}
	begin := rec.(BeginRequest)
	if begin.Role != RoleAuthorizer {
		t.Errorf("Role = %v, want Authorizer", begin.Role)
	}
}

func TestDecodeBeginRequestMalformed(t *testing.T) {
	if _, err := decodeRecord(uint8(TypeBeginRequest), []byte{0, 1}); !errors.Is(err, ErrMalformedRecordPayload) {
		t.Fatalf("err = %v, want ErrMalformedRecordPayload", err)
	}
}

func TestEndRequestEncodeDecodeRoundTrip(t *testing.T) {
	e := EndRequest{AppStatus: 1, ProtocolStatus: StatusUnknownRole}
	var buf bytes.Buffer
	if err := e.encodePayload(&buf); err != nil {
		t.Fatalf("encodePayload: %v", err)
	}
	rec, err := decodeRecord(uint8(TypeEndRequest), buf.Bytes())
	if err != nil {
		t.Fatalf("decodeRecord: %v", err)
	}
	got := rec.(EndRequest)
	if got != e {
		t.Errorf("got %+v, want %+v", got, e)
	}
}

func TestDecodeEndRequestUnsupportedStatus(t *testing.T) {
	payload := []byte{0, 0, 0, 0, 99, 0, 0, 0}
	if _, err := decodeRecord(uint8(TypeEndRequest), payload); !errors.Is(err, ErrUnsupportedProtoStatus) {
		t.Fatalf("err = %v, want ErrUnsupportedProtoStatus", err)
	}
}

func TestDecodeUnknownRecordType(t *testing.T) {
	_, err := decodeRecord(200, nil)
	if !errors.Is(err, ErrUnknownRecordType) {
		t.Fatalf("err = %v, want ErrUnknownRecordType", err)
	}
	var unknown unknownRecordTypeError
	if !errors.As(err, &unknown) {
		t.Fatal("expected errors.As to extract unknownRecordTypeError")
	}
	if unknown.typeID != 200 {
		t.Errorf("typeID = %d, want 200", unknown.typeID)
	}
}

func TestGetValuesNames(t *testing.T) {
	g := GetValues{Pairs: NameValueList{{Name: "FCGI_MPXS_CONNS"}, {Name: "UNKNOWN"}}}
	names := g.Names()
	if len(names) != 2 || names[0] != "FCGI_MPXS_CONNS" || names[1] != "UNKNOWN" {
		t.Errorf("Names() = %v", names)
	}
}

func TestRecordTypeString(t *testing.T) {
	if TypeBeginRequest.String() != "BeginRequest" {
		t.Errorf("String() = %q", TypeBeginRequest.String())
	}
	if RecordType(99).String() != "RecordType(99)" {
		t.Errorf("String() = %q", RecordType(99).String())
	}
}
