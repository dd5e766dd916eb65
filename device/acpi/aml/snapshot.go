package aml

import (
	"bytes"
	"fmt"
	"io"
	"strings"

	"amlvm/device/acpi/aml/entity"
)

// Snapshot is a point-in-time copy of a namespace subtree suitable for
// printing or serializing. Data objects carry their formatted value;
// field units and methods are never evaluated.
type Snapshot struct {
	Name     string      `yaml:"name"`
	Type     string      `yaml:"type"`
	Value    string      `yaml:"value,omitempty"`
	Target   string      `yaml:"target,omitempty"`
	Children []*Snapshot `yaml:"children,omitempty"`
}

// Snapshot captures the namespace subtree rooted at absPath. It returns nil
// if absPath cannot be resolved.
func (vm *VM) Snapshot(absPath string) *Snapshot {
	obj := vm.ns.Lookup(absPath)
	if obj == nil {
		return nil
	}
	return vm.snapshot(obj)
}

func (vm *VM) snapshot(obj *entity.Object) *Snapshot {
	snap := &Snapshot{Name: obj.Name()}

	switch v := obj.Value.(type) {
	case nil:
		snap.Type = entity.TypeScope.String()
	case *entity.Alias:
		snap.Type = v.Type().String()
		if v.Target != nil {
			snap.Target = v.Target.Path()
		}
	case entity.Integer, entity.String, *entity.Buffer, *entity.Package, *entity.Reference:
		var buf bytes.Buffer
		formatValue(&buf, v, vm.sizeOfIntInBits)
		snap.Type, snap.Value = v.Type().String(), buf.String()
	case *entity.Method:
		snap.Type = v.Type().String()
		snap.Value = fmt.Sprintf("args: %d, serialized: %t", v.ArgCount(), v.Serialized())
	case *entity.Region:
		snap.Type = v.Type().String()
		snap.Value = fmt.Sprintf("space: %d, offset: 0x%x, length: 0x%x", v.Space, v.Offset, v.Length)
	default:
		snap.Type = v.Type().String()
	}

	for _, child := range obj.Children() {
		snap.Children = append(snap.Children, vm.snapshot(child))
	}
	return snap
}

// WriteTo writes an indented text rendition of the snapshot to w.
func (s *Snapshot) WriteTo(w io.Writer) (int64, error) {
	var buf bytes.Buffer
	s.write(&buf, 0)
	n, err := w.Write(buf.Bytes())
	return int64(n), err
}

func (s *Snapshot) write(buf *bytes.Buffer, depth int) {
	buf.WriteString(strings.Repeat("  ", depth))
	fmt.Fprintf(buf, "%s %s", s.Name, s.Type)
	switch {
	case s.Value != "":
		fmt.Fprintf(buf, " = %s", s.Value)
	case s.Target != "":
		fmt.Fprintf(buf, " -> %s", s.Target)
	}
	buf.WriteByte('\n')

	for _, child := range s.Children {
		child.write(buf, depth+1)
	}
}
