package runtime

import "fmt"

// protocolContext returns the protocol context or the standard error for
// chaining operations invoked elsewhere.
func protocolContext(c *Cookie) (*ProtocolContext, error) {
	if p := c.Protocol(); p != nil {
		return p, nil
	}
	return nil, unavailable("no current connection available", "")
}

// ProtocolBegin attaches a child analyzer of the named type to the
// current connection. Adding a child of a type that is already attached
// is a silent no-op; the duplicate is discarded by the host.
//
// Child analyzers written against a stream transport cannot sit directly
// on a non-stream connection. For those, the engine creates one session
// adapter per connection as a stand-in parent and marks it finished so it
// never expects packets of its own.
func (b *Bridge) ProtocolBegin(c *Cookie, name string) error {
	p, err := protocolContext(c)
	if err != nil {
		return err
	}

	conn := p.Analyzer.Conn()
	child, err := b.host.Analyzers().InstantiateChild(name, conn)
	if err != nil {
		return &InvalidValue{Message: fmt.Sprintf("unknown analyzer '%s'", name)}
	}

	if conn.Transport() != TransportTCP {
		sc, ok := child.(StreamCapable)
		if !ok {
			return &InvalidValue{Message: fmt.Sprintf("'%s' is not a stream-capable analyzer", name)}
		}
		if p.adapter == nil {
			p.adapter = b.host.Analyzers().NewSessionAdapter(conn)
			p.adapter.Finish()
		}
		sc.SetSessionAdapter(p.adapter)
	}

	if !p.Analyzer.AddChild(child) {
		b.Debug(c, fmt.Sprintf("child analyzer %s already attached, skipping", name))
		return nil
	}

	b.Debug(c, fmt.Sprintf("attached child analyzer %s", name))
	return nil
}

// ProtocolBeginDetection attaches a dynamic-protocol-detection child to
// the current connection, giving forwarded data a chance to be
// classified by the host. The child gets a synthetic start-of-data signal
// for both directions.
func (b *Bridge) ProtocolBeginDetection(c *Cookie) error {
	p, err := protocolContext(c)
	if err != nil {
		return err
	}

	child := b.host.Analyzers().NewDetectionChild(p.Analyzer.Conn())
	if !p.Analyzer.AddChild(child) {
		b.Debug(c, "detection child already attached, skipping")
		return nil
	}

	child.FirstPacket(true)
	child.FirstPacket(false)
	b.Debug(c, "attached detection child")
	return nil
}

// ProtocolDataIn forwards data to all attached child analyzers, tagged
// with the given direction. The host broadcasts; there is no way to
// address a single child.
func (b *Bridge) ProtocolDataIn(c *Cookie, isOrig bool, data []byte) error {
	p, err := protocolContext(c)
	if err != nil {
		return err
	}
	p.Analyzer.ForwardStream(data, isOrig)
	return nil
}

// ProtocolGap reports a gap in the data stream to all attached child
// analyzers.
func (b *Bridge) ProtocolGap(c *Cookie, isOrig bool, offset, length uint64) error {
	p, err := protocolContext(c)
	if err != nil {
		return err
	}
	p.Analyzer.ForwardUndelivered(isOrig, offset, length)
	return nil
}

// ProtocolEnd signals end-of-data in both directions to all attached
// child analyzers and detaches them.
func (b *Bridge) ProtocolEnd(c *Cookie) error {
	p, err := protocolContext(c)
	if err != nil {
		return err
	}

	p.Analyzer.ForwardEndOfData(true)
	p.Analyzer.ForwardEndOfData(false)

	for _, child := range p.Analyzer.Children() {
		p.Analyzer.RemoveChild(child)
	}
	return nil
}

// ForwardPacket records the analyzer the dispatch loop should hand the
// remaining packet data to once the current unit finishes. Only
// meaningful inside a packet context.
func (b *Bridge) ForwardPacket(c *Cookie, identifier int) error {
	pk := c.Packet()
	if pk == nil {
		return unavailable("no current packet analyzer available", "")
	}
	pk.NextAnalyzer = identifier
	return nil
}
