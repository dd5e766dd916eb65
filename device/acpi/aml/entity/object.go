package entity

import (
	"errors"
	"strings"
)

var (
	// ErrInvalidName is returned when a path contains a segment that is
	// not a valid NameSeg.
	ErrInvalidName = errors.New("invalid name segment")

	// ErrParentNotFound is returned when the scope part of a path does not
	// resolve to an object.
	ErrParentNotFound = errors.New("parent scope not found")

	// ErrObjectExists is returned when creating an object whose name is
	// already used by a sibling.
	ErrObjectExists = errors.New("object already exists")
)

// Object is a node in the AML namespace. Each object has a fixed 4 character
// name, owns its Value and its children and keeps a non-owning pointer to
// its parent.
type Object struct {
	name  [4]byte
	Value Value

	parent     *Object
	firstChild *Object
	lastChild  *Object
	next       *Object
}

// Name returns the 4 character name of the object. The root object is
// named `\`.
func (o *Object) Name() string {
	if o.parent == nil {
		return `\`
	}
	return string(o.name[:])
}

// Parent returns the parent of this object or nil for the root.
func (o *Object) Parent() *Object {
	return o.parent
}

// Children returns the children of this object in definition order.
func (o *Object) Children() []*Object {
	var out []*Object
	for child := o.firstChild; child != nil; child = child.next {
		out = append(out, child)
	}
	return out
}

// Child returns the direct child with the given name segment or nil.
func (o *Object) Child(seg string) *Object {
	if len(seg) != 4 {
		return nil
	}
	for child := o.firstChild; child != nil; child = child.next {
		if string(child.name[:]) == seg {
			return child
		}
	}
	return nil
}

// Path returns the absolute path of this object, e.g. `\_SB_.PCI0`.
func (o *Object) Path() string {
	if o.parent == nil {
		return `\`
	}

	var segs []string
	for obj := o; obj.parent != nil; obj = obj.parent {
		segs = append(segs, string(obj.name[:]))
	}

	var sb strings.Builder
	sb.WriteByte('\\')
	for i := len(segs) - 1; i >= 0; i-- {
		sb.WriteString(segs[i])
		if i > 0 {
			sb.WriteByte('.')
		}
	}
	return sb.String()
}

// Target follows Alias links and returns the object they point to.
func (o *Object) Target() *Object {
	obj := o
	for hops := 0; hops < 64; hops++ {
		alias, ok := obj.Value.(*Alias)
		if !ok || alias.Target == nil {
			return obj
		}
		obj = alias.Target
	}
	return obj
}

func (o *Object) append(child *Object) {
	child.parent = o
	if o.lastChild == nil {
		o.firstChild, o.lastChild = child, child
		return
	}
	o.lastChild.next = child
	o.lastChild = child
}

func (o *Object) unlink(child *Object) bool {
	var prev *Object
	for cur := o.firstChild; cur != nil; prev, cur = cur, cur.next {
		if cur != child {
			continue
		}

		if prev == nil {
			o.firstChild = cur.next
		} else {
			prev.next = cur.next
		}
		if o.lastChild == cur {
			o.lastChild = prev
		}
		cur.next, cur.parent = nil, nil
		return true
	}
	return false
}

// Namespace is the AML object tree. A Namespace is owned by a single
// interpreter instance and is not safe for concurrent use.
type Namespace struct {
	root *Object

	// journal records created objects so that the objects created by a
	// failed statement or a returning method can be removed.
	journal []*Object
}

// NewNamespace creates an empty namespace that only contains the root
// object.
func NewNamespace() *Namespace {
	return &Namespace{
		root: &Object{name: [4]byte{'\\', '_', '_', '_'}, Value: &Scope{}},
	}
}

// Root returns the root object.
func (ns *Namespace) Root() *Object {
	return ns.root
}

// CreateDefaultScopes adds the scopes that the ACPI specification defines
// below the root:
//
//	\
//	├── _GPE  general events in GPE register block
//	├── _PR_  ACPI 1.0 processor namespace
//	├── _SB_  system bus with all device objects
//	├── _SI_  system indicators
//	└── _TZ_  ACPI 1.0 thermal zone namespace
func (ns *Namespace) CreateDefaultScopes() {
	for _, name := range []string{"_GPE", "_PR_", "_SB_", "_SI_", "_TZ_"} {
		if ns.root.Child(name) == nil {
			_, _ = ns.Create(ns.root, name, &Scope{})
		}
	}
}

// Lookup returns the object at the absolute path or nil. Segments shorter
// than 4 characters are padded with '_' so both `\_SB` and `\_SB_` work.
func (ns *Namespace) Lookup(absPath string) *Object {
	if absPath == "" || absPath[0] != '\\' {
		return nil
	}
	return ns.Find(ns.root, NormalizePath(absPath))
}

// Create adds a new object named by path below scope. The last segment of
// path names the object; the preceding part is resolved relative to scope
// without applying the upward search rules. The object is recorded in the
// creation journal.
func (ns *Namespace) Create(scope *Object, path string, v Value) (*Object, error) {
	parent, seg, err := ns.ResolveParent(scope, path)
	if err != nil {
		return nil, err
	}

	if parent.Child(seg) != nil {
		return nil, ErrObjectExists
	}

	obj := &Object{Value: v}
	copy(obj.name[:], seg)
	parent.append(obj)
	ns.journal = append(ns.journal, obj)
	return obj, nil
}

// Remove detaches obj and its children from the namespace.
func (ns *Namespace) Remove(obj *Object) {
	if obj == nil || obj.parent == nil {
		return
	}
	obj.parent.unlink(obj)
}

// Mark returns a token that identifies the current end of the creation
// journal.
func (ns *Namespace) Mark() int {
	return len(ns.journal)
}

// Rollback removes every object created after mark, newest first.
func (ns *Namespace) Rollback(mark int) {
	for i := len(ns.journal) - 1; i >= mark; i-- {
		ns.Remove(ns.journal[i])
		ns.journal[i] = nil
	}
	if mark < len(ns.journal) {
		ns.journal = ns.journal[:mark]
	}
}

// Commit keeps the objects created after mark and drops them from the
// journal.
func (ns *Namespace) Commit(mark int) {
	for i := mark; i < len(ns.journal); i++ {
		ns.journal[i] = nil
	}
	if mark < len(ns.journal) {
		ns.journal = ns.journal[:mark]
	}
}

// NormalizePath pads every name segment of a text path to 4 characters
// with trailing underscores and upper-cases it.
func NormalizePath(path string) string {
	var (
		sb     strings.Builder
		prefix int
	)

	for prefix < len(path) && (path[prefix] == '\\' || path[prefix] == '^') {
		prefix++
	}
	sb.WriteString(path[:prefix])

	if prefix == len(path) {
		return sb.String()
	}

	for i, seg := range strings.Split(path[prefix:], ".") {
		if i > 0 {
			sb.WriteByte('.')
		}
		seg = strings.ToUpper(seg)
		sb.WriteString(seg)
		for n := len(seg); n < 4; n++ {
			sb.WriteByte('_')
		}
	}
	return sb.String()
}

func validSeg(seg string) bool {
	if len(seg) != 4 || seg[0] >= '0' && seg[0] <= '9' {
		return false
	}
	for i := 0; i < 4; i++ {
		c := seg[i]
		if c != '_' && (c < 'A' || c > 'Z') && (c < '0' || c > '9') {
			return false
		}
	}
	return true
}
