package parser

import (
	"strings"

	"github.com/evtlang/evtc/internal/compiler/ast"
	compilererrors "github.com/evtlang/evtc/internal/compiler/errors"
)

// minPacketReplacesVersion is the first host-framework version supporting
// replacement of built-in packet analyzers.
const minPacketReplacesVersion = 50200

// ParseProtocolAnalyzer parses a "protocol analyzer" chunk:
//
//	protocol analyzer NAME over (tcp|udp|icmp):
//	    (parse [originator|responder] with UNIT | ports {..} | port .. | replaces NAME), ...;
func ParseProtocolAnalyzer(chunk string, loc ast.Location) (*ast.ProtocolAnalyzer, error) {
	a := &ast.ProtocolAnalyzer{Location: loc}
	c := newCursor(chunk, loc)

	if err := c.eat("protocol"); err != nil {
		return nil, err
	}
	if err := c.eat("analyzer"); err != nil {
		return nil, err
	}

	name, err := c.extractID()
	if err != nil {
		return nil, err
	}
	a.Name = name.String()

	if err := c.eat("over"); err != nil {
		return nil, err
	}

	proto, err := c.extractID()
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(proto.String()) {
	case "tcp":
		a.Protocol = ast.ProtocolTCP
	case "udp":
		a.Protocol = ast.ProtocolUDP
	case "icmp":
		a.Protocol = ast.ProtocolICMP
	default:
		return nil, c.errorf("unknown transport protocol '%s'", proto)
	}

	if err := c.eat(":"); err != nil {
		return nil, err
	}

	for {
		switch {
		case c.lookingAt("parse"):
			if err := c.eat("parse"); err != nil {
				return nil, err
			}

			orig, resp := true, true
			switch {
			case c.lookingAt("originator"):
				_ = c.eat("originator")
				resp = false
			case c.lookingAt("responder"):
				_ = c.eat("responder")
				orig = false
			case c.lookingAt("with"):
				// Both directions.
			default:
				return nil, c.errorf("invalid \"parse with ...\" specification")
			}

			if err := c.eat("with"); err != nil {
				return nil, err
			}
			unit, err := c.extractID()
			if err != nil {
				return nil, err
			}
			if orig {
				a.UnitNameOrig = unit
			}
			if resp {
				a.UnitNameResp = unit
			}

		case c.lookingAt("ports"):
			if err := c.eat("ports"); err != nil {
				return nil, err
			}
			if err := c.eat("{"); err != nil {
				return nil, err
			}
			for {
				ports, err := c.extractPorts()
				if err != nil {
					return nil, err
				}
				a.Ports = append(a.Ports, ports...)

				if c.lookingAt("}") {
					_ = c.eat("}")
					break
				}
				if err := c.eat(","); err != nil {
					return nil, err
				}
			}

		case c.lookingAt("port"):
			if err := c.eat("port"); err != nil {
				return nil, err
			}
			ports, err := c.extractPorts()
			if err != nil {
				return nil, err
			}
			a.Ports = append(a.Ports, ports...)

		case c.lookingAt("replaces"):
			if err := c.eat("replaces"); err != nil {
				return nil, err
			}
			if a.Replaces, err = c.extractID(); err != nil {
				return nil, err
			}

		default:
			return nil, c.errorf("unexpected token")
		}

		if c.lookingAt(";") {
			return a, nil
		}
		if err := c.eat(","); err != nil {
			return nil, err
		}
	}
}

// ParseFileAnalyzer parses a "file analyzer" chunk:
//
//	file analyzer NAME: (parse with UNIT | mime-type TYPE | replaces NAME), ...;
func ParseFileAnalyzer(chunk string, loc ast.Location) (*ast.FileAnalyzer, error) {
	a := &ast.FileAnalyzer{Location: loc}
	c := newCursor(chunk, loc)

	if err := c.eat("file"); err != nil {
		return nil, err
	}
	if err := c.eat("analyzer"); err != nil {
		return nil, err
	}

	name, err := c.extractID()
	if err != nil {
		return nil, err
	}
	a.Name = name.String()

	if err := c.eat(":"); err != nil {
		return nil, err
	}

	for {
		switch {
		case c.lookingAt("parse"):
			if err := c.eat("parse"); err != nil {
				return nil, err
			}
			if err := c.eat("with"); err != nil {
				return nil, err
			}
			if a.UnitName, err = c.extractID(); err != nil {
				return nil, err
			}

		case c.lookingAt("mime-type"):
			if err := c.eat("mime-type"); err != nil {
				return nil, err
			}
			mtype, err := c.extractPath()
			if err != nil {
				return nil, err
			}
			a.MimeTypes = append(a.MimeTypes, mtype)

		case c.lookingAt("replaces"):
			if err := c.eat("replaces"); err != nil {
				return nil, err
			}
			if a.Replaces, err = c.extractID(); err != nil {
				return nil, err
			}

		default:
			return nil, c.errorf("unexpected token")
		}

		if c.lookingAt(";") {
			return a, nil
		}
		if err := c.eat(","); err != nil {
			return nil, err
		}
	}
}

// ParsePacketAnalyzer parses a "packet analyzer" chunk. Replacing a packet
// analyzer is only available from hostVersion 5.2 on.
func ParsePacketAnalyzer(chunk string, loc ast.Location, hostVersion int) (*ast.PacketAnalyzer, error) {
	a := &ast.PacketAnalyzer{Location: loc}
	c := newCursor(chunk, loc)

	if err := c.eat("packet"); err != nil {
		return nil, err
	}
	if err := c.eat("analyzer"); err != nil {
		return nil, err
	}

	name, err := c.extractID()
	if err != nil {
		return nil, err
	}
	a.Name = name.String()

	if err := c.eat(":"); err != nil {
		return nil, err
	}

	for {
		switch {
		case c.lookingAt("parse"):
			if err := c.eat("parse"); err != nil {
				return nil, err
			}
			if err := c.eat("with"); err != nil {
				return nil, err
			}
			if a.UnitName, err = c.extractID(); err != nil {
				return nil, err
			}

		case c.lookingAt("replaces"):
			if hostVersion < minPacketReplacesVersion {
				return nil, compilererrors.NewSyntax(compilererrors.CodeUnexpectedToken,
					"packet analyzer replacement requires host version 5.2+").WithLocation(loc)
			}
			if err := c.eat("replaces"); err != nil {
				return nil, err
			}
			if a.Replaces, err = c.extractID(); err != nil {
				return nil, err
			}

		default:
			return nil, c.errorf("unexpected token")
		}

		if c.lookingAt(";") {
			return a, nil
		}
		if err := c.eat(","); err != nil {
			return nil, err
		}
	}
}

// ParseEvent parses an event mapping chunk:
//
//	on PATH [if (EXPR)] -> event NAME(EXPR, ...) [&priority=INT];
func ParseEvent(chunk string, loc ast.Location) (*ast.Event, error) {
	ev := &ast.Event{Location: loc, Priority: ast.DefaultEventPriority}
	c := newCursor(chunk, loc)

	if err := c.eat("on"); err != nil {
		return nil, err
	}

	path, err := c.extractID()
	if err != nil {
		return nil, err
	}
	ev.Path = path

	if c.lookingAt("if") {
		if err := c.eat("if"); err != nil {
			return nil, err
		}
		if err := c.eat("("); err != nil {
			return nil, err
		}
		if ev.Condition, err = c.extractExpr(); err != nil {
			return nil, err
		}
		if err := c.eat(")"); err != nil {
			return nil, err
		}
	}

	if err := c.eat("->"); err != nil {
		return nil, err
	}
	if err := c.eat("event"); err != nil {
		return nil, err
	}

	if ev.Name, err = c.extractID(); err != nil {
		return nil, err
	}

	if err := c.eat("("); err != nil {
		return nil, err
	}

	for !c.lookingAt(")") {
		if len(ev.Exprs) > 0 {
			if err := c.eat(","); err != nil {
				return nil, err
			}
		}
		expr, err := c.extractExpr()
		if err != nil {
			return nil, err
		}
		ev.Exprs = append(ev.Exprs, expr)
	}
	if err := c.eat(")"); err != nil {
		return nil, err
	}

	if c.lookingAt("&priority") {
		if err := c.eat("&priority"); err != nil {
			return nil, err
		}
		if err := c.eat("="); err != nil {
			return nil, err
		}
		if ev.Priority, err = c.extractInt(); err != nil {
			return nil, err
		}
	}

	if err := c.eat(";"); err != nil {
		return nil, err
	}

	c.eatSpaces()
	if c.pos < len(c.chunk) {
		return nil, c.errorf("unexpected characters at end of line")
	}

	return ev, nil
}

// ParseImport parses "import ID [from PATH];".
func ParseImport(chunk string, loc ast.Location) (*ast.Import, error) {
	c := newCursor(chunk, loc)

	if err := c.eat("import"); err != nil {
		return nil, err
	}

	module, err := c.extractID()
	if err != nil {
		return nil, err
	}
	imp := &ast.Import{Module: module}

	if c.lookingAt("from") {
		if err := c.eat("from"); err != nil {
			return nil, err
		}
		if imp.Scope, err = c.extractPath(); err != nil {
			return nil, err
		}
	}

	return imp, nil
}

// ParseExport parses "export ID;".
func ParseExport(chunk string, loc ast.Location) (*ast.Export, error) {
	c := newCursor(chunk, loc)

	if err := c.eat("export"); err != nil {
		return nil, err
	}

	id, err := c.extractID()
	if err != nil {
		return nil, err
	}

	return &ast.Export{ID: id, Location: loc}, nil
}
