package entity

import "testing"

func TestResolveParent(t *testing.T) {
	ns, objs := genTestScopes(t)

	specs := []struct {
		curScope   *Object
		pathExpr   string
		wantParent *Object
		wantName   string
		wantErr    error
	}{
		{objs["IDE0"], `\_SB_`, ns.Root(), "_SB_", nil},
		{objs["IDE0"], `^FOO_`, objs["PCI0"], "FOO_", nil},
		{objs["IDE0"], `^^FOO_`, objs["_SB_"], "FOO_", nil},
		{objs["IDE0"], `_ADR`, objs["IDE0"], "_ADR", nil},
		// Paths with dots
		{objs["IDE0"], `\_SB_.PCI0.IDE0._ADR`, objs["IDE0"], "_ADR", nil},
		{objs["PCI0"], `IDE0._ADR`, objs["IDE0"], "_ADR", nil},
		{objs["PCI0"], `_CRS`, objs["PCI0"], "_CRS", nil},
		// Creating through an alias lands in the aliased scope
		{ns.Root(), `\PCIA.NEW_`, objs["PCI0"], "NEW_", nil},
		// Bad queries
		{objs["PCI0"], `FOO_.BAR_.BAZ_`, nil, "", ErrParentNotFound},
		{objs["PCI0"], ``, nil, "", ErrInvalidName},
		{objs["PCI0"], `\`, nil, "", ErrInvalidName},
		{objs["PCI0"], `\_SB`, nil, "", ErrInvalidName},
		{objs["PCI0"], `1ABC`, nil, "", ErrInvalidName},
		{objs["PCI0"], `^^^^^^^^^BADP`, nil, "", ErrParentNotFound},
	}

	for specIndex, spec := range specs {
		gotParent, gotName, err := ns.ResolveParent(spec.curScope, spec.pathExpr)
		if err != spec.wantErr {
			t.Errorf("[spec %02d] expected error %v; got %v", specIndex, spec.wantErr, err)
			continue
		}

		if gotParent != spec.wantParent {
			t.Errorf("[spec %02d] expected parent %v; got %v", specIndex, spec.wantParent, gotParent)
			continue
		}

		if gotName != spec.wantName {
			t.Errorf("[spec %02d] expected node name %q; got %q", specIndex, spec.wantName, gotName)
		}
	}
}

func TestFind(t *testing.T) {
	ns, objs := genTestScopes(t)

	specs := []struct {
		curScope *Object
		lookup   string
		want     *Object
	}{
		// Search rules do not apply for these cases
		{objs["PCI0"], `\`, ns.Root()},
		{objs["PCI0"], "IDE0._ADR", objs["_ADR"]},
		{objs["IDE0"], "^^PCI0.IDE0._ADR", objs["_ADR"]},
		{objs["IDE0"], `\_SB_.PCI0.IDE0._ADR`, objs["_ADR"]},
		{objs["IDE0"], `\_SB_.PCI0`, objs["PCI0"]},
		{objs["IDE0"], `^`, objs["PCI0"]},
		{objs["IDE0"], `\PCIA.IDE0`, objs["IDE0"]},
		// Bad queries
		{objs["_SB_"], "PCI0.USB_._CRS", nil},
		{objs["IDE0"], "^^^^^^^^^^^^^^^^^^^", nil},
		{objs["IDE0"], `^^^^^^^^^^^FOO_`, nil},
		{objs["IDE0"], "FOO_", nil},
		{objs["IDE0"], "", nil},
		// Search rules apply for these cases
		{objs["IDE0"], "_CRS", objs["_CRS"]},
		{objs["_ADR"], "_SB_", objs["_SB_"]},
	}

	for specIndex, spec := range specs {
		if got := ns.Find(spec.curScope, spec.lookup); got != spec.want {
			t.Errorf("[spec %02d] expected lookup of %q to return %v; got %v", specIndex, spec.lookup, spec.want, got)
		}
	}
}

func TestLookupAndPath(t *testing.T) {
	ns, objs := genTestScopes(t)

	specs := []struct {
		path string
		want *Object
	}{
		{`\`, ns.Root()},
		{`\_SB.PCI0.IDE0._ADR`, objs["_ADR"]},
		{`\_sb_.pci0`, objs["PCI0"]},
		{`_SB_`, nil},
		{``, nil},
	}

	for specIndex, spec := range specs {
		got := ns.Lookup(spec.path)
		if got != spec.want {
			t.Errorf("[spec %02d] expected Lookup(%q) to return %v; got %v", specIndex, spec.path, spec.want, got)
			continue
		}

		if got != nil && got != ns.Root() {
			if exp := NormalizePath(spec.path); got.Path() != exp {
				t.Errorf("[spec %02d] expected Path() to return %q; got %q", specIndex, exp, got.Path())
			}
		}
	}

	if exp, got := `\`, ns.Root().Path(); got != exp {
		t.Errorf("expected root path %q; got %q", exp, got)
	}
}

func TestCreateAndRollback(t *testing.T) {
	ns, objs := genTestScopes(t)

	if _, err := ns.Create(objs["PCI0"], "_CRS", Integer(1)); err != ErrObjectExists {
		t.Fatalf("expected ErrObjectExists; got %v", err)
	}

	mark := ns.Mark()
	dev, err := ns.Create(objs["PCI0"], "DEV0", &Device{})
	if err != nil {
		t.Fatal(err)
	}
	if _, err = ns.Create(dev, "_STA", Integer(0xf)); err != nil {
		t.Fatal(err)
	}
	if _, err = ns.Create(ns.Root(), `\_SB_.TMP0`, String("tmp")); err != nil {
		t.Fatal(err)
	}

	if got := len(objs["PCI0"].Children()); got != 3 {
		t.Fatalf("expected PCI0 to have 3 children; got %d", got)
	}

	ns.Rollback(mark)

	if ns.Lookup(`\_SB_.PCI0.DEV0`) != nil || ns.Lookup(`\_SB_.TMP0`) != nil {
		t.Fatal("expected rollback to remove the created objects")
	}

	if got := len(objs["PCI0"].Children()); got != 2 {
		t.Fatalf("expected PCI0 to have 2 children after rollback; got %d", got)
	}

	// Objects committed before the mark survive; committed objects are
	// not affected by later rollbacks.
	mark = ns.Mark()
	if _, err = ns.Create(objs["PCI0"], "KEEP", Integer(1)); err != nil {
		t.Fatal(err)
	}
	ns.Commit(mark)
	ns.Rollback(mark)
	if ns.Lookup(`\_SB_.PCI0.KEEP`) == nil {
		t.Fatal("expected committed object to survive rollback")
	}

	// Appending after removing the last child keeps the sibling list intact.
	if _, err = ns.Create(objs["PCI0"], "LAST", Integer(1)); err != nil {
		t.Fatal(err)
	}
	if exp, got := "LAST", objs["PCI0"].Children()[3].Name(); got != exp {
		t.Fatalf("expected last child to be %q; got %q", exp, got)
	}
}

func TestCreateDefaultScopes(t *testing.T) {
	ns := NewNamespace()
	ns.CreateDefaultScopes()
	ns.CreateDefaultScopes()

	var names []string
	for _, child := range ns.Root().Children() {
		names = append(names, child.Name())
		if child.Value.Type() != TypeScope {
			t.Errorf("expected %s to be a scope; got %s", child.Name(), child.Value.Type())
		}
	}

	if exp, got := "_GPE _PR_ _SB_ _SI_ _TZ_", join(names); got != exp {
		t.Fatalf("expected default scopes %q; got %q", exp, got)
	}
}

func join(names []string) string {
	var out string
	for i, name := range names {
		if i > 0 {
			out += " "
		}
		out += name
	}
	return out
}

// genTestScopes sets up the example tree from the namespace search rules
// section of the ACPI 6.2 spec:
//
//	\
//	├── _SB_
//	│   └── PCI0
//	│       ├── _CRS
//	│       └── IDE0
//	│           └── _ADR
//	└── PCIA (alias to PCI0)
func genTestScopes(t *testing.T) (*Namespace, map[string]*Object) {
	ns := NewNamespace()
	objs := make(map[string]*Object)

	create := func(scope *Object, name string, v Value) *Object {
		obj, err := ns.Create(scope, name, v)
		if err != nil {
			t.Fatalf("creating %s: %v", name, err)
		}
		objs[name] = obj
		return obj
	}

	sb := create(ns.Root(), "_SB_", &Scope{})
	pci := create(sb, "PCI0", &Device{})
	create(pci, "_CRS", &Method{})
	ide := create(pci, "IDE0", &Device{})
	create(ide, "_ADR", Integer(0))
	create(ns.Root(), "PCIA", &Alias{Target: pci})

	return ns, objs
}
