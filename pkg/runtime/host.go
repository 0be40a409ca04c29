// Package runtime implements the bridge between generated analysis code
// and the host framework. Generated hooks call into a Bridge with the
// Cookie describing the current execution context; the Bridge translates
// each call into operations on the host's capability interfaces.
package runtime

import (
	"net/netip"
	"time"
)

// Transport is a transport-layer protocol as the host sees it.
type Transport int

const (
	TransportUnknown Transport = iota
	TransportTCP
	TransportUDP
	TransportICMP
)

func (t Transport) String() string {
	switch t {
	case TransportTCP:
		return "tcp"
	case TransportUDP:
		return "udp"
	case TransportICMP:
		return "icmp"
	}
	return "unknown"
}

// Port is a port number tagged with its transport protocol.
type Port struct {
	Number    uint16
	Transport Transport
}

// ConnID is the 4-tuple identity of a connection.
type ConnID struct {
	OrigAddr netip.Addr
	OrigPort Port
	RespAddr netip.Addr
	RespPort Port
}

// Val is an opaque host-side value. The host owns construction and
// interpretation; the bridge only moves Vals around.
type Val interface{ HostVal() }

// Type is an opaque host-side type.
type Type interface{ HostType() }

// Handler is a host-side event handler. A Handler with no subscribers
// still exists; Installed distinguishes the two so that raising can be
// skipped cheaply.
type Handler interface {
	Name() string
	// Installed reports whether at least one script subscribed to the
	// event.
	Installed() bool
	// ArgTypes returns the declared parameter types of the handler's
	// signature, in order.
	ArgTypes() []Type
}

// Connection is the host's view of one connection.
type Connection interface {
	Val() Val
	UID() string
	ID() ConnID
	Transport() Transport
	FlipRoles()
}

// ProtocolAnalyzer is the host-side analyzer instance a protocol context
// runs under.
type ProtocolAnalyzer interface {
	Name() string
	InstanceID() uint32
	Conn() Connection

	Confirm()
	Reject(reason string)
	Weird(id, addl string)

	// ForwardStream, ForwardUndelivered, and ForwardEndOfData broadcast
	// to every attached child analyzer; the host cannot target one child.
	ForwardStream(data []byte, isOrig bool)
	ForwardUndelivered(isOrig bool, offset, length uint64)
	ForwardEndOfData(isOrig bool)

	// AddChild attaches a child analyzer and reports whether it was
	// added; false means a child of the same type already exists (the
	// host has discarded the duplicate).
	AddChild(child ChildAnalyzer) bool
	RemoveChild(child ChildAnalyzer)
	Children() []ChildAnalyzer
}

// ChildAnalyzer is an analyzer attached beneath a protocol analyzer.
type ChildAnalyzer interface {
	TypeName() string
}

// StreamCapable is implemented by child analyzers that expect a
// stream-transport parent. The chaining engine hands them a session
// adapter when the real transport is not stream-shaped.
type StreamCapable interface {
	ChildAnalyzer
	SetSessionAdapter(adapter SessionAdapter)
}

// SessionAdapter is a stand-in transport parent for child analyzers that
// expect one. An adapter created for a non-stream connection never sees
// real packets; Finish marks it accordingly.
type SessionAdapter interface {
	Finish()
}

// DetectionChild is the host's dynamic-protocol-detection analyzer. It
// wants a synthetic start-of-data signal for each direction after being
// attached.
type DetectionChild interface {
	ChildAnalyzer
	FirstPacket(isOrig bool)
}

// AnalyzerFactory instantiates analyzers on demand.
type AnalyzerFactory interface {
	// InstantiateChild creates a child analyzer of the named type on the
	// connection. An unknown name is an error.
	InstantiateChild(name string, conn Connection) (ChildAnalyzer, error)
	// NewSessionAdapter creates a transport stand-in for the connection.
	NewSessionAdapter(conn Connection) SessionAdapter
	// NewDetectionChild creates a dynamic-protocol-detection child.
	NewDetectionChild(conn Connection) DetectionChild
}

// FileAnalyzer is the host-side analyzer instance a file context runs
// under.
type FileAnalyzer interface {
	Name() string
	InstanceID() uint32
	File() File
}

// File is the host's view of one file under analysis.
type File interface {
	ID() string
	Val() Val
	// IsOrig reports the direction of the enclosing connection, if any.
	IsOrig() bool
	// SetSource names the component that produced the file's data.
	SetSource(source string)
	// AdoptParent links a nested file to the enclosing one, copying
	// connection and direction metadata from it.
	AdoptParent(parent File)
}

// FileManager is the host's file-analysis entry point. An empty analyzer
// name addresses the host's default (untagged) analyzer scope, used when
// data originates from a file context rather than a connection.
type FileManager interface {
	HashHandle(handle string) string
	DataIn(data []byte, analyzer string, conn Connection, isOrig bool, fid, mimeType string)
	DataInAtOffset(data []byte, offset uint64, analyzer string, conn Connection, isOrig bool, fid, mimeType string)
	Gap(offset, length uint64, analyzer string, conn Connection, isOrig bool, fid string)
	SetSize(size uint64, analyzer string, conn Connection, isOrig bool, fid string)
	EndOfFile(fid string)
	Lookup(fid string) File
}

// PacketAnalyzer is the host-side analyzer a packet context runs under.
type PacketAnalyzer interface {
	Name() string
	Weird(id string, pkt Packet, addl string)
}

// Packet is the host's view of the packet being analyzed.
type Packet interface {
	Val() Val
}

// Reporter receives out-of-band diagnostics.
type Reporter interface {
	WeirdFile(file File, id, addl string)
}

// Host bundles the capability interfaces the runtime bridge needs. It is
// injected into the Bridge at construction; nothing in this package
// reaches for process-wide state.
type Host interface {
	Files() FileManager
	Analyzers() AnalyzerFactory
	Reporter() Reporter

	// RemoveSession asks the host to tear down the connection's session.
	RemoveSession(conn Connection)

	// NetworkTime is the host's current network time.
	NetworkTime() time.Time

	// BoolVal builds a host boolean value.
	BoolVal(v bool) Val

	// LookupHandler finds the handler for a registered event name; nil if
	// the name was never installed.
	LookupHandler(name string) Handler

	// EnqueueEvent schedules an event for delivery.
	EnqueueEvent(handler Handler, args []Val)
}
