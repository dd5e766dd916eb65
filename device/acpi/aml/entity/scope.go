package entity

import "strings"

// ResolveParent examines a path expression and breaks it down into a parent
// object and the name segment of a child. The parent is looked up relative
// to scope without the upward search rules, as required when AML creates a
// new object. It fails if the parent does not exist or the final segment is
// not a valid NameSeg.
func (ns *Namespace) ResolveParent(scope *Object, path string) (*Object, string, error) {
	if scope == nil {
		scope = ns.root
	}

	var parentExpr, seg string
	switch lastDot := strings.LastIndexByte(path, '.'); {
	case lastDot != -1:
		// Pattern looks like: \FOO.BAR.BAZ or ^+FOO.BAR.BAZ or FOO.BAR.BAZ
		parentExpr, seg = path[:lastDot], path[lastDot+1:]
	default:
		// Pattern looks like \FOO or ^+BAR or BAZ (relative to scope)
		prefix := strings.LastIndexAny(path, `\^`) + 1
		parentExpr, seg = path[:prefix], path[prefix:]
	}

	if !validSeg(seg) {
		return nil, "", ErrInvalidName
	}

	parent := scope
	if parentExpr != "" {
		if parent = ns.findNoSearch(scope, parentExpr); parent == nil {
			return nil, "", ErrParentNotFound
		}
	}

	return parent.Target(), seg, nil
}

// Find attempts to find an object with the given name using the namespace
// search rules of the ACPI specification:
//
// There are two types of namespace paths: an absolute namespace path (that
// is, one that starts with a `\` prefix), and a relative namespace path
// (that is, one that is relative to the current namespace). The namespace
// search rules only apply to single NameSeg paths. For relative paths that
// contain multiple NameSegs or parent prefixes (`^`) the search rules do not
// apply and the object is looked up relative to the current namespace.
//
// Find returns nil if the object does not exist.
func (ns *Namespace) Find(scope *Object, path string) *Object {
	if scope == nil {
		scope = ns.root
	}

	if path != "" && path[0] != '\\' && path[0] != '^' && !strings.Contains(path, ".") {
		for s := scope; s != nil; s = s.parent {
			if child := s.Child(path); child != nil {
				return child
			}
		}
		return nil
	}

	return ns.findNoSearch(scope, path)
}

func (ns *Namespace) findNoSearch(scope *Object, path string) *Object {
	switch {
	case path == "":
		return nil
	case path[0] == '\\': // relative to the root scope
		scope, path = ns.root, path[1:]
	case path[0] == '^': // relative to the parent scope(s)
		for path != "" && path[0] == '^' {
			if scope = scope.parent; scope == nil {
				// No parent to visit
				return nil
			}
			path = path[1:]
		}
	}

	// Name was just `\` or a sequence of '^'
	if path == "" {
		return scope
	}

	for _, seg := range strings.Split(path, ".") {
		if scope = scope.Target().Child(seg); scope == nil {
			return nil
		}
	}
	return scope
}
