package runtime

import (
	"fmt"
	"net/netip"
	"time"
)

// Fake host implementations shared by the tests in this package. They
// record calls rather than emulate real analysis.

type fakeVal struct{ v any }

func (*fakeVal) HostVal() {}

type fakeType struct{ name string }

func (*fakeType) HostType() {}

type fakeHandler struct {
	name      string
	installed bool
	argTypes  []Type
}

func (h *fakeHandler) Name() string      { return h.name }
func (h *fakeHandler) Installed() bool   { return h.installed }
func (h *fakeHandler) ArgTypes() []Type { return h.argTypes }

type fakeConn struct {
	uid       string
	transport Transport
	flipped   bool
	val       Val
}

func (c *fakeConn) Val() Val {
	if c.val == nil {
		c.val = &fakeVal{v: c.uid}
	}
	return c.val
}
func (c *fakeConn) UID() string { return c.uid }
func (c *fakeConn) ID() ConnID {
	return ConnID{
		OrigAddr: netip.MustParseAddr("10.0.0.1"),
		OrigPort: Port{Number: 12345, Transport: c.transport},
		RespAddr: netip.MustParseAddr("10.0.0.2"),
		RespPort: Port{Number: 80, Transport: c.transport},
	}
}
func (c *fakeConn) Transport() Transport { return c.transport }
func (c *fakeConn) FlipRoles()           { c.flipped = true }

type fakeChild struct{ typeName string }

func (c *fakeChild) TypeName() string { return c.typeName }

type fakeStreamChild struct {
	fakeChild
	adapter SessionAdapter
}

func (c *fakeStreamChild) SetSessionAdapter(a SessionAdapter) { c.adapter = a }

type fakeAdapter struct{ finished bool }

func (a *fakeAdapter) Finish() { a.finished = true }

type fakeDetectionChild struct {
	fakeChild
	firstPackets []bool
}

func (c *fakeDetectionChild) FirstPacket(isOrig bool) {
	c.firstPackets = append(c.firstPackets, isOrig)
}

type forwardedChunk struct {
	data   []byte
	isOrig bool
}

type fakeProtoAnalyzer struct {
	name      string
	conn      *fakeConn
	children  []ChildAnalyzer
	confirmed bool
	rejected  string
	weirds    []string

	streams     []forwardedChunk
	undelivered int
	eodDirs     []bool
}

func (a *fakeProtoAnalyzer) Name() string       { return a.name }
func (a *fakeProtoAnalyzer) InstanceID() uint32 { return 7 }
func (a *fakeProtoAnalyzer) Conn() Connection   { return a.conn }
func (a *fakeProtoAnalyzer) Confirm()           { a.confirmed = true }
func (a *fakeProtoAnalyzer) Reject(reason string) {
	a.rejected = reason
}
func (a *fakeProtoAnalyzer) Weird(id, addl string) {
	a.weirds = append(a.weirds, id)
}
func (a *fakeProtoAnalyzer) ForwardStream(data []byte, isOrig bool) {
	a.streams = append(a.streams, forwardedChunk{data: data, isOrig: isOrig})
}
func (a *fakeProtoAnalyzer) ForwardUndelivered(isOrig bool, offset, length uint64) {
	a.undelivered++
}
func (a *fakeProtoAnalyzer) ForwardEndOfData(isOrig bool) {
	a.eodDirs = append(a.eodDirs, isOrig)
}
func (a *fakeProtoAnalyzer) AddChild(child ChildAnalyzer) bool {
	for _, c := range a.children {
		if c.TypeName() == child.TypeName() {
			return false
		}
	}
	a.children = append(a.children, child)
	return true
}
func (a *fakeProtoAnalyzer) RemoveChild(child ChildAnalyzer) {
	for i, c := range a.children {
		if c == child {
			a.children = append(a.children[:i], a.children[i+1:]...)
			return
		}
	}
}
func (a *fakeProtoAnalyzer) Children() []ChildAnalyzer {
	out := make([]ChildAnalyzer, len(a.children))
	copy(out, a.children)
	return out
}

type fakeFactory struct {
	known    map[string]bool
	adapters []*fakeAdapter
}

func (f *fakeFactory) InstantiateChild(name string, conn Connection) (ChildAnalyzer, error) {
	if !f.known[name] {
		return nil, fmt.Errorf("no analyzer %s", name)
	}
	return &fakeStreamChild{fakeChild: fakeChild{typeName: name}}, nil
}
func (f *fakeFactory) NewSessionAdapter(conn Connection) SessionAdapter {
	a := &fakeAdapter{}
	f.adapters = append(f.adapters, a)
	return a
}
func (f *fakeFactory) NewDetectionChild(conn Connection) DetectionChild {
	return &fakeDetectionChild{fakeChild: fakeChild{typeName: "detect"}}
}

type fakeFile struct {
	id     string
	isOrig bool
	source string
	parent File
	val    Val
}

func (f *fakeFile) ID() string   { return f.id }
func (f *fakeFile) IsOrig() bool { return f.isOrig }
func (f *fakeFile) Val() Val {
	if f.val == nil {
		f.val = &fakeVal{v: f.id}
	}
	return f.val
}
func (f *fakeFile) SetSource(source string) { f.source = source }
func (f *fakeFile) AdoptParent(parent File) { f.parent = parent }

type fakeFileAnalyzer struct {
	name string
	file *fakeFile
}

func (a *fakeFileAnalyzer) Name() string       { return a.name }
func (a *fakeFileAnalyzer) InstanceID() uint32 { return 3 }
func (a *fakeFileAnalyzer) File() File {
	if a.file == nil {
		return nil
	}
	return a.file
}

type dataInCall struct {
	data     []byte
	offset   int64
	analyzer string
	isOrig   bool
	fid      string
	mimeType string
}

type fakeFileManager struct {
	files   map[string]*fakeFile
	dataIns []dataInCall
	sizes   map[string]uint64
	gaps    []string
	ended   []string
}

func newFakeFileManager() *fakeFileManager {
	return &fakeFileManager{
		files: make(map[string]*fakeFile),
		sizes: make(map[string]uint64),
	}
}

func (m *fakeFileManager) HashHandle(handle string) string {
	return "F" + handle
}

func (m *fakeFileManager) ensure(fid string) {
	if _, ok := m.files[fid]; !ok {
		m.files[fid] = &fakeFile{id: fid}
	}
}

func (m *fakeFileManager) DataIn(data []byte, analyzer string, conn Connection, isOrig bool, fid, mimeType string) {
	m.ensure(fid)
	m.dataIns = append(m.dataIns, dataInCall{
		data: data, offset: -1, analyzer: analyzer, isOrig: isOrig, fid: fid, mimeType: mimeType,
	})
}

func (m *fakeFileManager) DataInAtOffset(data []byte, offset uint64, analyzer string, conn Connection, isOrig bool, fid, mimeType string) {
	m.ensure(fid)
	m.dataIns = append(m.dataIns, dataInCall{
		data: data, offset: int64(offset), analyzer: analyzer, isOrig: isOrig, fid: fid, mimeType: mimeType,
	})
}

func (m *fakeFileManager) Gap(offset, length uint64, analyzer string, conn Connection, isOrig bool, fid string) {
	m.gaps = append(m.gaps, fid)
}

func (m *fakeFileManager) SetSize(size uint64, analyzer string, conn Connection, isOrig bool, fid string) {
	m.sizes[fid] = size
}

func (m *fakeFileManager) EndOfFile(fid string) {
	m.ended = append(m.ended, fid)
}

func (m *fakeFileManager) Lookup(fid string) File {
	f, ok := m.files[fid]
	if !ok {
		return nil
	}
	return f
}

type fakeReporter struct {
	weirdFiles []string
}

func (r *fakeReporter) WeirdFile(file File, id, addl string) {
	r.weirdFiles = append(r.weirdFiles, id)
}

type raisedEvent struct {
	handler Handler
	args    []Val
}

type fakeHost struct {
	files    *fakeFileManager
	factory  *fakeFactory
	reporter *fakeReporter
	handlers map[string]Handler

	removedSessions []Connection
	raised          []raisedEvent
}

func newFakeHost() *fakeHost {
	return &fakeHost{
		files:    newFakeFileManager(),
		factory:  &fakeFactory{known: map[string]bool{}},
		reporter: &fakeReporter{},
		handlers: make(map[string]Handler),
	}
}

func (h *fakeHost) Files() FileManager { return h.files }
func (h *fakeHost) Analyzers() AnalyzerFactory { return h.factory }
func (h *fakeHost) Reporter() Reporter { return h.reporter }
func (h *fakeHost) RemoveSession(conn Connection) {
	h.removedSessions = append(h.removedSessions, conn)
}
func (h *fakeHost) NetworkTime() time.Time {
	return time.Unix(1700000000, 0)
}
func (h *fakeHost) BoolVal(v bool) Val { return &fakeVal{v: v} }
func (h *fakeHost) LookupHandler(name string) Handler {
	return h.handlers[name]
}
func (h *fakeHost) EnqueueEvent(handler Handler, args []Val) {
	h.raised = append(h.raised, raisedEvent{handler: handler, args: args})
}

func newProtocolCookie(host *fakeHost, transport Transport, isOrig bool) (*Cookie, *fakeProtoAnalyzer) {
	a := &fakeProtoAnalyzer{
		name: "TestProto",
		conn: &fakeConn{uid: "CUid1", transport: transport},
	}
	hash := host.files.HashHandle
	ctx := &ProtocolContext{
		Analyzer:  a,
		IsOrig:    isOrig,
		FilesOrig: NewFileStateStack("orig", hash),
		FilesResp: NewFileStateStack("resp", hash),
	}
	return NewProtocolCookie(ctx), a
}

func newFileCookie(host *fakeHost) (*Cookie, *fakeFileAnalyzer) {
	a := &fakeFileAnalyzer{
		name: "TestFile",
		file: &fakeFile{id: "Fparent"},
	}
	ctx := &FileContext{
		Analyzer: a,
		Files:    NewFileStateStack("file", host.files.HashHandle),
	}
	return NewFileCookie(ctx), a
}
