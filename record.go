package fcgi

import (
	"fmt"
	"io"
)

// RecordType identifies the wire type of a FastCGI record, per the FastCGI
// 1.0 specification. The record type universe is closed: these are the
// only eleven values a compliant peer may ever send.
type RecordType uint8

const (
	TypeBeginRequest    RecordType = 1
	TypeAbortRequest    RecordType = 2
	TypeEndRequest      RecordType = 3
	TypeParams          RecordType = 4
	TypeStdin           RecordType = 5
	TypeStdout          RecordType = 6
	TypeStderr          RecordType = 7
	TypeData            RecordType = 8
	TypeGetValues       RecordType = 9
	TypeGetValuesResult RecordType = 10
	TypeUnknownType     RecordType = 11
)

func (t RecordType) String() string {
	switch t {
	case TypeBeginRequest:
		return "BeginRequest"
	case TypeAbortRequest:
		return "AbortRequest"
	case TypeEndRequest:
		return "EndRequest"
	case TypeParams:
		return "Params"
	case TypeStdin:
		return "Stdin"
	case TypeStdout:
		return "Stdout"
	case TypeStderr:
		return "Stderr"
	case TypeData:
		return "Data"
	case TypeGetValues:
		return "GetValues"
	case TypeGetValuesResult:
		return "GetValuesResult"
	case TypeUnknownType:
		return "UnknownType"
	default:
		return fmt.Sprintf("RecordType(%d)", uint8(t))
	}
}

// discreteTypes never span more than one packet: a peer is not allowed to
// split their payload across multiple packets of the same type.
var discreteTypes = map[RecordType]bool{
	TypeBeginRequest:    true,
	TypeAbortRequest:    true,
	TypeEndRequest:      true,
	TypeGetValues:       true,
	TypeGetValuesResult: true,
	TypeUnknownType:     true,
}

// managementTypes are carried on request_id = 0; everything else is an
// application record and is carried on request_id = 1 (this engine never
// multiplexes, so 1 is the only application request ID it ever issues).
var managementTypes = map[RecordType]bool{
	TypeGetValues:       true,
	TypeGetValuesResult: true,
	TypeUnknownType:     true,
}

func isDiscreteType(t RecordType) bool   { return discreteTypes[t] }
func isManagementType(t RecordType) bool { return managementTypes[t] }

// Role is the FastCGI role requested by a BeginRequest record. Only
// RoleResponder is supported by this engine; the others are recognized so
// that an unsupported-role BeginRequest can be rejected per spec rather
// than treated as a malformed payload.
type Role uint16

const (
	RoleResponder  Role = 1
	RoleAuthorizer Role = 2
	RoleFilter     Role = 3
)

func roleFromWire(id uint16) (Role, error) {
	switch Role(id) {
	case RoleResponder, RoleAuthorizer, RoleFilter:
		return Role(id), nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedRole, id)
	}
}

// ProtocolStatus is the completion status carried by an EndRequest record.
type ProtocolStatus uint8

const (
	StatusRequestComplete       ProtocolStatus = 0
	StatusMultiplexingUnsupported ProtocolStatus = 1
	StatusOverloaded            ProtocolStatus = 2
	StatusUnknownRole           ProtocolStatus = 3
)

func protocolStatusFromWire(b byte) (ProtocolStatus, error) {
	switch ProtocolStatus(b) {
	case StatusRequestComplete, StatusMultiplexingUnsupported, StatusOverloaded, StatusUnknownRole:
		return ProtocolStatus(b), nil
	default:
		return 0, fmt.Errorf("%w: %d", ErrUnsupportedProtoStatus, b)
	}
}

const keepConnMask uint8 = 0x01

// Record is a logically complete FastCGI message: a tagged sum over the
// eleven variants defined by the FastCGI 1.0 specification. Decoding is
// dispatch-by-tag over this closed set; encoding is a method per variant.
type Record interface {
	// TypeID returns the wire type code for this record.
	TypeID() RecordType
	// encodePayload appends this record's wire payload (header/padding are
	// the framing layer's concern, not the codec's).
	encodePayload(w io.Writer) error
}

// decodeRecord dispatches on typeID to build the corresponding Record from
// a fully reassembled payload (already concatenated across packets for
// stream variants).
func decodeRecord(typeID uint8, payload []byte) (Record, error) {
	switch RecordType(typeID) {
	case TypeGetValues:
		return decodeGetValues(payload)
	case TypeGetValuesResult:
		return decodeGetValuesResult(payload)
	case TypeBeginRequest:
		return decodeBeginRequest(payload)
	case TypeAbortRequest:
		return decodeAbortRequest(payload)
	case TypeEndRequest:
		return decodeEndRequest(payload)
	case TypeParams:
		return decodeParams(payload)
	case TypeStdin:
		return Stdin{Data: payload}, nil
	case TypeData:
		return DataRecord{Data: payload}, nil
	case TypeStdout:
		return Stdout{Data: payload}, nil
	case TypeStderr:
		return Stderr{Data: payload}, nil
	case TypeUnknownType:
		return decodeUnknownType(payload)
	default:
		return nil, unknownRecordTypeError{typeID: typeID}
	}
}

// --- BeginRequest -----------------------------------------------------

// BeginRequest is sent by the front-end to start a request on a given
// request_id.
type BeginRequest struct {
	Role  Role
	Flags uint8
}

func (BeginRequest) TypeID() RecordType { return TypeBeginRequest }

// KeepConn reports whether the peer asked to reuse the connection after
// EndRequest. This engine always refuses (see session.go).
func (b BeginRequest) KeepConn() bool { return b.Flags&keepConnMask != 0 }

func decodeBeginRequest(payload []byte) (Record, error) {
	if len(payload) != 8 {
		return nil, malformedPayload("BeginRequest")
	}
	roleID := uint16(payload[0])<<8 | uint16(payload[1])
	role, err := roleFromWire(roleID)
	if err != nil {
		return nil, err
	}
	return BeginRequest{Role: role, Flags: payload[2]}, nil
}

func (b BeginRequest) encodePayload(w io.Writer) error {
	roleID := uint16(b.Role)
	buf := [8]byte{byte(roleID >> 8), byte(roleID), b.Flags, 0, 0, 0, 0, 0}
	_, err := w.Write(buf[:])
	return err
}

// --- AbortRequest -------------------------------------------------------

// AbortRequest carries no payload. It is rarely sent by FastCGI clients in
// practice, but is defined for completeness.
type AbortRequest struct{}

func (AbortRequest) TypeID() RecordType { return TypeAbortRequest }

func decodeAbortRequest(payload []byte) (Record, error) {
	if len(payload) != 0 {
		return nil, malformedPayload("AbortRequest")
	}
	return AbortRequest{}, nil
}

func (AbortRequest) encodePayload(io.Writer) error { return nil }

// --- EndRequest -----------------------------------------------------

// EndRequest is sent by the responder to signal completion of a request.
type EndRequest struct {
	AppStatus      uint32
	ProtocolStatus ProtocolStatus
}

func (EndRequest) TypeID() RecordType { return TypeEndRequest }

func decodeEndRequest(payload []byte) (Record, error) {
	if len(payload) != 8 {
		return nil, malformedPayload("EndRequest")
	}
	status, err := protocolStatusFromWire(payload[4])
	if err != nil {
		return nil, err
	}
	appStatus := uint32(payload[0])<<24 | uint32(payload[1])<<16 | uint32(payload[2])<<8 | uint32(payload[3])
	return EndRequest{AppStatus: appStatus, ProtocolStatus: status}, nil
}

func (e EndRequest) encodePayload(w io.Writer) error {
	buf := [8]byte{
		byte(e.AppStatus >> 24), byte(e.AppStatus >> 16), byte(e.AppStatus >> 8), byte(e.AppStatus),
		byte(e.ProtocolStatus), 0, 0, 0,
	}
	_, err := w.Write(buf[:])
	return err
}

// --- UnknownType -----------------------------------------------------

// UnknownType is emitted in reply to a record type this engine does not
// recognize, per the FastCGI management-record convention (and, per the
// original implementation this spec is derived from, also used to answer
// unrecognized application records since the spec is silent on that case).
type UnknownType struct {
	Type uint8
}

func (UnknownType) TypeID() RecordType { return TypeUnknownType }

func decodeUnknownType(payload []byte) (Record, error) {
	if len(payload) != 8 {
		return nil, malformedPayload("UnknownType")
	}
	return UnknownType{Type: payload[0]}, nil
}

func (u UnknownType) encodePayload(w io.Writer) error {
	buf := [8]byte{u.Type, 0, 0, 0, 0, 0, 0, 0}
	_, err := w.Write(buf[:])
	return err
}

// --- Stream records: Params / Stdin / Data / Stdout / Stderr --------

// Params carries CGI meta-variables (REQUEST_METHOD, PATH_INFO, HTTP_*,
// ...) as an ordered sequence of name-value pairs.
type Params struct {
	Pairs NameValueList
}

func (Params) TypeID() RecordType { return TypeParams }

func decodeParams(payload []byte) (Record, error) {
	pairs, err := decodePairs(payload)
	if err != nil {
		return nil, err
	}
	return Params{Pairs: pairs}, nil
}

func (p Params) encodePayload(w io.Writer) error { return encodePairs(p.Pairs, w) }

// Stdin carries the request body.
type Stdin struct{ Data []byte }

func (Stdin) TypeID() RecordType                { return TypeStdin }
func (s Stdin) encodePayload(w io.Writer) error { _, err := w.Write(s.Data); return err }

// DataRecord carries the FCGI_DATA stream. Unused by the Responder role,
// defined for completeness of the closed record-type universe.
type DataRecord struct{ Data []byte }

func (DataRecord) TypeID() RecordType                { return TypeData }
func (d DataRecord) encodePayload(w io.Writer) error { _, err := w.Write(d.Data); return err }

// Stdout carries the serialized HTTP-style response.
type Stdout struct{ Data []byte }

func (Stdout) TypeID() RecordType                { return TypeStdout }
func (s Stdout) encodePayload(w io.Writer) error { _, err := w.Write(s.Data); return err }

// Stderr carries diagnostic text. This engine never emits Stderr records
// (see spec.md Non-goals); the type is defined so ingress from a peer that
// sends one decodes cleanly instead of failing as unknown.
type Stderr struct{ Data []byte }

func (Stderr) TypeID() RecordType                { return TypeStderr }
func (s Stderr) encodePayload(w io.Writer) error { _, err := w.Write(s.Data); return err }

// --- GetValues / GetValuesResult ------------------------------------

// GetValues is a management query for server configuration variables.
type GetValues struct {
	Pairs NameValueList
}

func (GetValues) TypeID() RecordType { return TypeGetValues }

func decodeGetValues(payload []byte) (Record, error) {
	pairs, err := decodePairs(payload)
	if err != nil {
		return nil, err
	}
	return GetValues{Pairs: pairs}, nil
}

func (g GetValues) encodePayload(w io.Writer) error { return encodePairs(g.Pairs, w) }

// Names returns the variable names queried by this GetValues record. Per
// the wire format, queried names carry an empty value.
func (g GetValues) Names() []string {
	names := make([]string, len(g.Pairs))
	for i, p := range g.Pairs {
		names[i] = p.Name
	}
	return names
}

// GetValuesResult answers a GetValues query.
type GetValuesResult struct {
	Pairs NameValueList
}

func (GetValuesResult) TypeID() RecordType { return TypeGetValuesResult }

func decodeGetValuesResult(payload []byte) (Record, error) {
	pairs, err := decodePairs(payload)
	if err != nil {
		return nil, err
	}
	return GetValuesResult{Pairs: pairs}, nil
}

func (g GetValuesResult) encodePayload(w io.Writer) error { return encodePairs(g.Pairs, w) }
