package runtime

// CookieKind selects the active variant of a Cookie.
type CookieKind int

const (
	// ProtocolCookie marks a callback running under a protocol analyzer.
	ProtocolCookie CookieKind = iota
	// FileCookie marks a callback running under a file analyzer.
	FileCookie
	// PacketCookie marks a callback running under a packet analyzer.
	PacketCookie
)

// Cookie is the execution context of a single analysis callback. Exactly
// one variant is active for the Cookie's lifetime; the host creates it
// right before invoking generated code and discards it right after. It is
// never shared across threads.
//
// State that must survive across callbacks (file state stacks, attached
// children) lives on host-managed objects and is referenced from here, not
// owned.
type Cookie struct {
	kind     CookieKind
	protocol *ProtocolContext
	file     *FileContext
	packet   *PacketContext
}

// ProtocolContext is the per-callback state of a protocol analysis.
type ProtocolContext struct {
	Analyzer   ProtocolAnalyzer
	IsOrig     bool
	NumPackets uint64

	// FilesOrig and FilesResp track in-flight file extraction per
	// direction. They are owned by the connection, not the callback.
	FilesOrig *FileStateStack
	FilesResp *FileStateStack

	// adapter is the transport stand-in created lazily when a child
	// analyzer needs a stream-shaped parent the connection cannot
	// provide. Owned by the connection.
	adapter SessionAdapter
}

// FileContext is the per-callback state of a file analysis.
type FileContext struct {
	Analyzer FileAnalyzer

	// Files tracks nested files extracted from this file. Owned by the
	// host-managed file object.
	Files *FileStateStack

	// fileVal caches the file's host value after its first
	// materialization within the callback.
	fileVal Val
}

// PacketContext is the per-callback state of a packet analysis.
type PacketContext struct {
	Analyzer PacketAnalyzer
	Packet   Packet

	// packetVal caches the derived packet value after its first
	// materialization within the callback.
	packetVal Val

	// NextAnalyzer is the forwarding slot the dispatch loop consults
	// after the current unit finishes parsing. Negative means unset.
	NextAnalyzer int
}

// NewProtocolCookie wraps a protocol context.
func NewProtocolCookie(ctx *ProtocolContext) *Cookie {
	return &Cookie{kind: ProtocolCookie, protocol: ctx}
}

// NewFileCookie wraps a file context.
func NewFileCookie(ctx *FileContext) *Cookie {
	return &Cookie{kind: FileCookie, file: ctx}
}

// NewPacketCookie wraps a packet context. The forwarding slot starts
// unset.
func NewPacketCookie(ctx *PacketContext) *Cookie {
	ctx.NextAnalyzer = -1
	return &Cookie{kind: PacketCookie, packet: ctx}
}

// Kind returns the active variant.
func (c *Cookie) Kind() CookieKind { return c.kind }

// Protocol returns the protocol context, or nil if another variant is
// active.
func (c *Cookie) Protocol() *ProtocolContext {
	if c.kind == ProtocolCookie {
		return c.protocol
	}
	return nil
}

// File returns the file context, or nil if another variant is active.
func (c *Cookie) File() *FileContext {
	if c.kind == FileCookie {
		return c.file
	}
	return nil
}

// Packet returns the packet context, or nil if another variant is active.
func (c *Cookie) Packet() *PacketContext {
	if c.kind == PacketCookie {
		return c.packet
	}
	return nil
}

// fileStack picks the file state stack the current context feeds: the
// per-direction stack for protocol contexts, the file's own stack for
// file contexts.
func (c *Cookie) fileStack() (*FileStateStack, error) {
	switch c.kind {
	case ProtocolCookie:
		if c.protocol.IsOrig {
			return c.protocol.FilesOrig, nil
		}
		return c.protocol.FilesResp, nil
	case FileCookie:
		return c.file.Files, nil
	}
	return nil, unavailable("no current connection or file available", "")
}
