package script

import (
	"errors"
	"fmt"
	"slices"

	"github.com/dshills/rewrite/internal/engine/buffer"
	"github.com/dshills/rewrite/internal/engine/edit"
	lua "github.com/yuin/gopher-lua"
)

const nodeTypeName = "rewrite.node"

// Document is the read access scripts have to the text being rewritten.
// *engine.Engine and *buffer.Buffer implement it.
type Document interface {
	Text() string
	Len() buffer.ByteOffset
	Slice(offset, length buffer.ByteOffset) (string, error)
	LineOfOffset(offset buffer.ByteOffset) (uint32, error)
	OffsetOfLine(line uint32) (buffer.ByteOffset, error)
	DisplayColumn(offset buffer.ByteOffset) int
}

// module implements the rewrite Lua module. Scripts create edit nodes
// with it; nodes not passed to group or span are attached to the root of
// the tree when the script ends.
type module struct {
	doc      Document
	tree     *edit.Tree
	loose    []edit.NodeID
	markers  map[string]edit.NodeID
	edits    int
	maxEdits int

	// err holds the Go error behind the last raised Lua error.
	err error
}

func newModule(doc Document, maxEdits int) *module {
	return &module{
		doc:      doc,
		tree:     edit.NewTree(),
		markers:  make(map[string]edit.NodeID),
		maxEdits: maxEdits,
	}
}

// Register installs the module as the global table rewrite.
func (m *module) Register(L *lua.LState) {
	mt := L.NewTypeMetatable(nodeTypeName)
	L.SetField(mt, "__tostring", L.NewFunction(m.nodeString))

	mod := L.SetFuncs(L.NewTable(), map[string]lua.LGFunction{
		"insert":     m.insert,
		"replace":    m.replace,
		"delete":     m.delete,
		"marker":     m.marker,
		"group":      m.group,
		"span":       m.span,
		"copy":       m.copy,
		"move":       m.move,
		"text":       m.text,
		"slice":      m.slice,
		"len":        m.docLen,
		"line_of":    m.lineOf,
		"line_start": m.lineStart,
		"column_of":  m.columnOf,
	})
	L.SetGlobal("rewrite", mod)
}

// finish attaches the loose nodes to the root in creation order.
func (m *module) finish() error {
	root := m.tree.Root()
	for _, id := range m.loose {
		if err := m.tree.Attach(root, id); err != nil {
			return err
		}
	}
	m.loose = nil
	return nil
}

// raise records err and raises it as a Lua error.
func (m *module) raise(L *lua.LState, fn string, err error) int {
	m.err = err
	L.RaiseError("%s: %v", fn, err)
	return 0
}

// count reserves n edits against the limit.
func (m *module) count(L *lua.LState, fn string, n int) {
	m.edits += n
	if m.maxEdits > 0 && m.edits > m.maxEdits {
		m.raise(L, fn, fmt.Errorf("%w (%d)", ErrEditLimit, m.maxEdits))
	}
}

func (m *module) push(L *lua.LState, id edit.NodeID) {
	ud := L.NewUserData()
	ud.Value = id
	L.SetMetatable(ud, L.GetTypeMetatable(nodeTypeName))
	L.Push(ud)
}

func (m *module) checkNode(L *lua.LState, n int) edit.NodeID {
	ud := L.CheckUserData(n)
	id, ok := ud.Value.(edit.NodeID)
	if !ok {
		L.ArgError(n, "edit node expected")
	}
	return id
}

func checkOffset(L *lua.LState, n int) buffer.ByteOffset {
	v := L.CheckInt(n)
	if v < 0 {
		L.ArgError(n, "offset must not be negative")
	}
	return buffer.ByteOffset(v)
}

// insert(offset, text) -> node
func (m *module) insert(L *lua.LState) int {
	off := checkOffset(L, 1)
	text := L.CheckString(2)
	m.count(L, "insert", 1)
	return m.created(L, m.tree.NewInsert(off, text))
}

// replace(offset, length, text) -> node
func (m *module) replace(L *lua.LState) int {
	off := checkOffset(L, 1)
	length := checkOffset(L, 2)
	text := L.CheckString(3)
	m.count(L, "replace", 1)
	return m.created(L, m.tree.NewReplace(off, length, text))
}

// delete(offset, length) -> node
func (m *module) delete(L *lua.LState) int {
	off := checkOffset(L, 1)
	length := checkOffset(L, 2)
	m.count(L, "delete", 1)
	return m.created(L, m.tree.NewDelete(off, length))
}

// marker(offset, length [, name]) -> node
// Named markers report their final range after the rewrite.
func (m *module) marker(L *lua.LState) int {
	off := checkOffset(L, 1)
	length := checkOffset(L, 2)
	name := L.OptString(3, "")
	m.count(L, "marker", 1)

	id := m.tree.NewMarker(off, length)
	if name != "" {
		if _, dup := m.markers[name]; dup {
			L.ArgError(3, fmt.Sprintf("marker %q already defined", name))
		}
		m.markers[name] = id
	}
	return m.created(L, id)
}

// group({nodes...}) -> node
// The group's range is the union of its children.
func (m *module) group(L *lua.LState) int {
	kids := m.checkNodes(L, 1)
	m.count(L, "group", 1)
	return m.adopt(L, "group", m.tree.NewComposite(), kids)
}

// span(offset, length, {nodes...}) -> node
// Every child must lie within the span.
func (m *module) span(L *lua.LState) int {
	off := checkOffset(L, 1)
	length := checkOffset(L, 2)
	kids := m.checkNodes(L, 3)
	m.count(L, "span", 1)
	return m.adopt(L, "span", m.tree.NewCompositeRange(off, length), kids)
}

// copy(offset, length, target) -> source, target
func (m *module) copy(L *lua.LState) int {
	off := checkOffset(L, 1)
	length := checkOffset(L, 2)
	at := checkOffset(L, 3)
	m.count(L, "copy", 2)
	return m.linked(L, "copy", m.tree.NewCopySource(off, length), m.tree.NewCopyTarget(at))
}

// move(offset, length, target) -> source, target
func (m *module) move(L *lua.LState) int {
	off := checkOffset(L, 1)
	length := checkOffset(L, 2)
	at := checkOffset(L, 3)
	m.count(L, "move", 2)
	return m.linked(L, "move", m.tree.NewMoveSource(off, length), m.tree.NewMoveTarget(at))
}

func (m *module) linked(L *lua.LState, fn string, src, tgt edit.NodeID) int {
	if err := m.tree.Link(src, tgt); err != nil {
		return m.raise(L, fn, err)
	}
	m.loose = append(m.loose, src, tgt)
	m.push(L, src)
	m.push(L, tgt)
	return 2
}

func (m *module) created(L *lua.LState, id edit.NodeID) int {
	m.loose = append(m.loose, id)
	m.push(L, id)
	return 1
}

// checkNodes reads an array of loose nodes.
func (m *module) checkNodes(L *lua.LState, n int) []edit.NodeID {
	tbl := L.CheckTable(n)
	kids := make([]edit.NodeID, 0, tbl.Len())
	for i := 1; i <= tbl.Len(); i++ {
		ud, ok := tbl.RawGetInt(i).(*lua.LUserData)
		if !ok {
			L.ArgError(n, fmt.Sprintf("element %d is not an edit node", i))
		}
		id, ok := ud.Value.(edit.NodeID)
		if !ok {
			L.ArgError(n, fmt.Sprintf("element %d is not an edit node", i))
		}
		kids = append(kids, id)
	}
	return kids
}

// adopt attaches kids to parent and makes parent loose instead of them.
// If any kid cannot be attached, the others are detached again and stay
// loose.
func (m *module) adopt(L *lua.LState, fn string, parent edit.NodeID, kids []edit.NodeID) int {
	for i, id := range kids {
		var err error
		if !slices.Contains(m.loose, id) {
			err = fmt.Errorf("node %d: %w", id, edit.ErrAttached)
		} else {
			err = m.tree.Attach(parent, id)
		}
		if err != nil {
			for j := i - 1; j >= 0; j-- {
				if derr := m.tree.Detach(kids[j]); derr != nil {
					err = errors.Join(err, derr)
				}
			}
			return m.raise(L, fn, err)
		}
	}
	m.loose = slices.DeleteFunc(m.loose, func(id edit.NodeID) bool {
		return slices.Contains(kids, id)
	})
	return m.created(L, parent)
}

// text() -> string
func (m *module) text(L *lua.LState) int {
	L.Push(lua.LString(m.doc.Text()))
	return 1
}

// slice(offset, length) -> string
func (m *module) slice(L *lua.LState) int {
	s, err := m.doc.Slice(checkOffset(L, 1), checkOffset(L, 2))
	if err != nil {
		return m.raise(L, "slice", err)
	}
	L.Push(lua.LString(s))
	return 1
}

// len() -> number
func (m *module) docLen(L *lua.LState) int {
	L.Push(lua.LNumber(m.doc.Len()))
	return 1
}

// line_of(offset) -> line (1-indexed)
func (m *module) lineOf(L *lua.LState) int {
	line, err := m.doc.LineOfOffset(checkOffset(L, 1))
	if err != nil {
		return m.raise(L, "line_of", err)
	}
	L.Push(lua.LNumber(line + 1))
	return 1
}

// column_of(offset) -> display column (1-indexed)
func (m *module) columnOf(L *lua.LState) int {
	off := checkOffset(L, 1)
	if off > m.doc.Len() {
		return m.raise(L, "column_of", fmt.Errorf("column of offset %d: %w", off, buffer.ErrOffsetOutOfRange))
	}
	L.Push(lua.LNumber(m.doc.DisplayColumn(off) + 1))
	return 1
}

// line_start(line) -> offset, with line 1-indexed
func (m *module) lineStart(L *lua.LState) int {
	line := L.CheckInt(1)
	if line < 1 {
		L.ArgError(1, "line must be at least 1")
	}
	off, err := m.doc.OffsetOfLine(uint32(line - 1))
	if err != nil {
		return m.raise(L, "line_start", err)
	}
	L.Push(lua.LNumber(off))
	return 1
}

func (m *module) nodeString(L *lua.LState) int {
	id := m.checkNode(L, 1)
	L.Push(lua.LString(fmt.Sprintf("%s%v", m.tree.Kind(id), m.tree.Range(id))))
	return 1
}

// cause returns the Go error behind a failed run, or err itself.
func (m *module) cause(err error) error {
	if m.err != nil && !errors.Is(err, ErrTimeout) {
		return m.err
	}
	return err
}
