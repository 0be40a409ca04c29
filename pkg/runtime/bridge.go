package runtime

import (
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Bridge exposes the runtime operations generated code calls. Every call
// takes the Cookie of the current callback; operations that do not apply
// to the active variant fail with a ValueUnavailable error.
//
// The host handle is injected at construction and threaded through every
// call; the bridge holds no process-wide state.
type Bridge struct {
	host Host
	log  *zap.Logger
}

// NewBridge creates a bridge over the given host. A nil logger disables
// debug output.
func NewBridge(host Host, log *zap.Logger) *Bridge {
	if log == nil {
		log = zap.NewNop()
	}
	return &Bridge{host: host, log: log}
}

// Debug emits a diagnostic line tagged with the active context.
func (b *Bridge) Debug(c *Cookie, msg string) {
	switch c.Kind() {
	case ProtocolCookie:
		p := c.Protocol()
		dir := "resp"
		if p.IsOrig {
			dir = "orig"
		}
		b.log.Debug(msg,
			zap.String("analyzer", p.Analyzer.Name()),
			zap.Uint32("id", p.Analyzer.InstanceID()),
			zap.String("dir", dir))
	case FileCookie:
		f := c.File()
		b.log.Debug(msg,
			zap.String("analyzer", f.Analyzer.Name()),
			zap.Uint32("id", f.Analyzer.InstanceID()))
	case PacketCookie:
		b.log.Debug(msg, zap.String("analyzer", c.Packet().Analyzer.Name()))
	}
}

// CurrentConn returns the host value of the current connection.
func (b *Bridge) CurrentConn(c *Cookie, location string) (Val, error) {
	if p := c.Protocol(); p != nil {
		return p.Analyzer.Conn().Val(), nil
	}
	return nil, unavailable("$conn not available", location)
}

// CurrentIsOrig returns the direction of the current connection as a host
// value.
func (b *Bridge) CurrentIsOrig(c *Cookie, location string) (Val, error) {
	if p := c.Protocol(); p != nil {
		return b.host.BoolVal(p.IsOrig), nil
	}
	return nil, unavailable("$is_orig not available", location)
}

// CurrentFile returns the host value of the current file. The value is
// cached after its first materialization within the callback.
func (b *Bridge) CurrentFile(c *Cookie, location string) (Val, error) {
	if f := c.File(); f != nil {
		if f.fileVal == nil {
			f.fileVal = f.Analyzer.File().Val()
		}
		return f.fileVal, nil
	}
	return nil, unavailable("$file not available", location)
}

// CurrentPacket returns the host value derived from the current packet,
// cached after its first materialization within the callback.
func (b *Bridge) CurrentPacket(c *Cookie, location string) (Val, error) {
	if p := c.Packet(); p != nil {
		if p.packetVal == nil {
			p.packetVal = p.Packet.Val()
		}
		return p.packetVal, nil
	}
	return nil, unavailable("$packet not available", location)
}

// IsOrig reports whether the callback runs on the originator side.
func (b *Bridge) IsOrig(c *Cookie) (bool, error) {
	if p := c.Protocol(); p != nil {
		return p.IsOrig, nil
	}
	return false, unavailable("is_orig() not available in current context", "")
}

// UID returns the current connection's stable identifier. The connection
// value is materialized first so that the identifier is guaranteed set.
func (b *Bridge) UID(c *Cookie) (string, error) {
	if p := c.Protocol(); p != nil {
		p.Analyzer.Conn().Val()
		return p.Analyzer.Conn().UID(), nil
	}
	return "", unavailable("uid() not available in current context", "")
}

// ConnID returns the current connection's 4-tuple identity.
func (b *Bridge) ConnID(c *Cookie) (ConnID, error) {
	if p := c.Protocol(); p != nil {
		return p.Analyzer.Conn().ID(), nil
	}
	return ConnID{}, unavailable("conn_id() not available in current context", "")
}

// FlipRoles flips the directionality of the current connection.
func (b *Bridge) FlipRoles(c *Cookie) error {
	if p := c.Protocol(); p != nil {
		b.Debug(c, "flipping roles")
		p.Analyzer.Conn().FlipRoles()
		return nil
	}
	return unavailable("flip_roles() not available in current context", "")
}

// NumberPackets returns how many packets the current connection analysis
// has seen.
func (b *Bridge) NumberPackets(c *Cookie) (uint64, error) {
	if p := c.Protocol(); p != nil {
		return p.NumPackets, nil
	}
	return 0, unavailable("number_packets() not available in current context", "")
}

// ConfirmProtocol reports to the host that the analyzer identified its
// protocol on this connection.
func (b *Bridge) ConfirmProtocol(c *Cookie) error {
	if p := c.Protocol(); p != nil {
		b.log.Debug("confirming protocol", zap.String("analyzer", p.Analyzer.Name()))
		p.Analyzer.Confirm()
		return nil
	}
	return unavailable("no current connection available", "")
}

// RejectProtocol reports that the connection does not speak the
// analyzer's protocol.
func (b *Bridge) RejectProtocol(c *Cookie, reason string) error {
	if p := c.Protocol(); p != nil {
		b.log.Debug("rejecting protocol",
			zap.String("analyzer", p.Analyzer.Name()), zap.String("reason", reason))
		p.Analyzer.Reject(reason)
		return nil
	}
	return unavailable("no current connection available", "")
}

// Weird reports a "weird" diagnostic under a stable identifier, in
// whatever context is active.
func (b *Bridge) Weird(c *Cookie, id, addl string) error {
	switch c.Kind() {
	case ProtocolCookie:
		c.Protocol().Analyzer.Weird(id, addl)
		return nil
	case FileCookie:
		b.host.Reporter().WeirdFile(c.File().Analyzer.File(), id, addl)
		return nil
	case PacketCookie:
		p := c.Packet()
		p.Analyzer.Weird(id, p.Packet, addl)
		return nil
	}
	return unavailable("none of $conn, $file, or $packet available for weird reporting", "")
}

// TerminateSession asks the host to tear down the current session.
func (b *Bridge) TerminateSession(c *Cookie) error {
	if p := c.Protocol(); p != nil {
		b.host.RemoveSession(p.Analyzer.Conn())
		return nil
	}
	return unavailable("terminate_session() not available in the current context", "")
}

// NetworkTime returns the host's current network time.
func (b *Bridge) NetworkTime() time.Time {
	return b.host.NetworkTime()
}

// InternalHandler looks up the handler for an event name registered at
// pre-init time.
func (b *Bridge) InternalHandler(name string) (Handler, error) {
	h := b.host.LookupHandler(name)
	if h == nil {
		return nil, &HostError{Message: fmt.Sprintf("event %s was not installed", name)}
	}
	return h, nil
}

// HaveHandler reports whether raising the event would reach a subscriber.
func (b *Bridge) HaveHandler(h Handler) bool {
	return h != nil && h.Installed()
}

// EventArgType returns the host type of the handler's idx'th parameter.
func (b *Bridge) EventArgType(h Handler, idx int, location string) (Type, error) {
	types := h.ArgTypes()
	if idx >= len(types) || idx < 0 {
		return nil, &TypeMismatch{
			Message:  fmt.Sprintf("more parameters given than the %d that the event expects", len(types)),
			Location: location,
		}
	}
	return types[idx], nil
}

// RaiseEvent enqueues an event with the assembled argument vector. The
// argument count must match the installed handler's signature exactly.
func (b *Bridge) RaiseEvent(h Handler, args []Val, location string) error {
	want := len(h.ArgTypes())
	if len(args) != want {
		return &TypeMismatch{
			Message:  fmt.Sprintf("expected %d parameters, but got %d", want, len(args)),
			Location: location,
		}
	}

	for _, v := range args {
		if v == nil {
			return &InvalidValue{Message: "null value encountered after conversion", Location: location}
		}
	}

	b.host.EnqueueEvent(h, args)
	return nil
}
