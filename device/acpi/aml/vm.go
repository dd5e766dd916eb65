package aml

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"amlvm/device/acpi/aml/entity"
	"amlvm/device/acpi/table"
	"amlvm/kernel/kfmt"
)

const (
	// According to the ACPI spec, methods can use up to 8 local args and
	// can receive up to 7 method args.
	maxLocalArgs  = 8
	maxMethodArgs = 7

	// DefaultMaxCallDepth is the default limit for nested method
	// invocations.
	DefaultMaxCallDepth = 256

	// maxSSDTs is the largest SSDT index probed by Init.
	maxSSDTs = 255

	// interpreterRevision is the value returned by the Revision opcode.
	interpreterRevision = 0x20231015

	// osName is the value of the predefined \_OS_ object.
	osName = "Microsoft Windows NT"
)

var (
	errTruncatedStream     = &Error{Kind: ErrMalformedStream, message: "vm: unexpected end of AML stream"}
	errInvalidPkgLength    = &Error{Kind: ErrMalformedStream, message: "vm: PkgLength exceeds the enclosing scope"}
	errBreakOutsideWhile   = &Error{Kind: ErrMalformedStream, message: "vm: Break/Continue outside of a While loop"}
	errReturnOutsideMethod = &Error{Kind: ErrMalformedStream, message: "vm: Return outside of a method body"}
	errOrphanElse          = &Error{Kind: ErrMalformedStream, message: "vm: Else without a matching If"}
	errNoValue             = &Error{Kind: ErrMalformedStream, message: "vm: opcode does not produce a value"}
	errCallDepthExceeded   = &Error{Kind: ErrResourceExhaustion, message: "vm: maximum method call depth exceeded"}
	errLoopLimitExceeded   = &Error{Kind: ErrResourceExhaustion, message: "vm: maximum While loop iterations exceeded"}
	errDivideByZero        = &Error{Kind: ErrInvalidOperation, message: "vm: division by zero"}
	errIndexOutOfBounds    = &Error{Kind: ErrInvalidOperation, message: "vm: index out of bounds"}
	errObjectExists        = &Error{Kind: ErrInvalidOperation, message: "vm: object already exists"}
	errInvalidStoreTarget  = &Error{Kind: ErrInvalidOperation, message: "vm: invalid store target"}
	errMutexNotOwned       = &Error{Kind: ErrInvalidOperation, message: "vm: Release of a mutex that is not owned"}
	errInvalidComparison   = &Error{Kind: ErrTypeCoercion, message: "vm: logic opcodes can only be applied to Integer, String or Buffer arguments"}
	errNotAReference       = &Error{Kind: ErrTypeCoercion, message: "vm: operand is not a reference"}
	errLoadUnsupported     = &Error{Kind: ErrUnsupported, message: "vm: dynamic table loading is not supported"}
	errMissingDSDT         = &Error{Kind: ErrUnresolvedReference, message: "vm: unable to locate the DSDT table"}
)

// Config contains the tunables of a VM instance.
type Config struct {
	// Host services region accesses, timing and notifications. If nil, a
	// MemoryHost answering to OSI is used.
	Host Host

	// DebugWriter receives the values stored to the AML Debug object. If
	// nil, a kfmt.RingBuffer is allocated and exposed via DebugOutput.
	DebugWriter io.Writer

	// MaxCallDepth limits nested method invocations. Zero selects
	// DefaultMaxCallDepth.
	MaxCallDepth int

	// MaxLoopIterations bounds the number of iterations of a single While
	// loop. Zero means unlimited.
	MaxLoopIterations uint64

	// DefaultScopes creates \_GPE, \_PR_, \_SB_, \_SI_ and \_TZ_ before
	// any table is loaded.
	DefaultScopes bool

	// OSI lists the interfaces reported as supported by the default host.
	OSI []string
}

// DefaultConfig returns the configuration used for real firmware tables.
func DefaultConfig() Config {
	return Config{
		MaxCallDepth:  DefaultMaxCallDepth,
		DefaultScopes: true,
	}
}

// VM is an AML interpreter. It owns an ACPI namespace, loads the AML
// byte-code of DSDT/SSDT tables into it and executes control methods. A VM
// is not safe for concurrent use.
type VM struct {
	errWriter   io.Writer
	debugWriter io.Writer
	debugBuf    *kfmt.RingBuffer

	tableResolver table.Resolver
	host          Host
	cfg           Config

	ns *entity.Namespace

	// According to the ACPI spec, the Revision field in the DSDT specifies
	// whether integers are treated as 32 or 64-bits. The VM memoizes this
	// value so that it can be used by the data conversion helpers.
	sizeOfIntInBits uint8

	callDepth    int
	loadedTables []string
}

// NewVM creates a new AML VM and initializes it with the scope hierarchy and
// pre-defined objects contained in the ACPI specification.
func NewVM(errWriter io.Writer, resolver table.Resolver, cfg Config) *VM {
	if cfg.MaxCallDepth <= 0 {
		cfg.MaxCallDepth = DefaultMaxCallDepth
	}
	if errWriter == nil {
		errWriter = io.Discard
	}

	vm := &VM{
		errWriter:       errWriter,
		tableResolver:   resolver,
		host:            cfg.Host,
		cfg:             cfg,
		ns:              entity.NewNamespace(),
		sizeOfIntInBits: 64,
	}

	if vm.host == nil {
		vm.host = NewMemoryHost(cfg.OSI...)
	}

	if vm.debugWriter = cfg.DebugWriter; vm.debugWriter == nil {
		vm.debugBuf = kfmt.NewRingBuffer(kfmt.DefaultRingBufferSize)
		vm.debugWriter = vm.debugBuf
	}

	if cfg.DefaultScopes {
		vm.ns.CreateDefaultScopes()
	}
	vm.createPredefinedObjects()
	return vm
}

// createPredefinedObjects populates the root scope with the objects that
// the OS must provide to AML code.
func (vm *VM) createPredefinedObjects() {
	root := vm.ns.Root()
	mark := vm.ns.Mark()

	_, _ = vm.ns.Create(root, "_GL_", &entity.Mutex{})
	_, _ = vm.ns.Create(root, "_OS_", entity.String(osName))
	_, _ = vm.ns.Create(root, "_REV", entity.Integer(2))
	_, _ = vm.ns.Create(root, "_OSI", &entity.Method{
		Flags: 1,
		Native: func(args []entity.Value) (entity.Value, error) {
			feature, err := ToString(args[0], vm.sizeOfIntInBits, true, false)
			if err != nil {
				return nil, err
			}
			if vm.host.OSI(string(feature)) {
				return vm.ones(), nil
			}
			return entity.Integer(0), nil
		},
	})

	vm.ns.Commit(mark)
}

// Init attempts to locate and execute the AML byte-code contained in the
// system's DSDT and SSDT tables.
func (vm *VM) Init() error {
	if vm.tableResolver == nil {
		return nil
	}

	names := []string{"DSDT", "SSDT"}
	for i := 1; i <= maxSSDTs; i++ {
		names = append(names, "SSDT"+strconv.Itoa(i))
	}

	if vm.tableResolver.LookupTable("DSDT") == nil {
		return errMissingDSDT
	}

	seen := make(map[*table.SDT]bool)
	for _, name := range names {
		t := vm.tableResolver.LookupTable(name)
		if t == nil || seen[t] {
			continue
		}
		seen[t] = true

		if err := vm.loadTable(name, t); err != nil {
			return err
		}
	}

	return nil
}

// Load executes the AML byte-code of a DSDT or SSDT table at the root
// scope. Objects created by the table remain in the namespace; if a
// statement fails, only the objects created by that statement are removed
// and loading stops.
func (vm *VM) Load(t *table.SDT) error {
	return vm.loadTable(t.Signature(), t)
}

func (vm *VM) loadTable(name string, t *table.SDT) error {
	if t.Signature() == "DSDT" {
		vm.sizeOfIntInBits = 32
		if t.Header.Revision >= 2 {
			vm.sizeOfIntInBits = 64
		}
	}

	ctx := &execContext{
		vm:    vm,
		goCtx: context.Background(),
		table: name,
	}
	if err := ctx.r.Init(t.Data, 0); err != nil {
		return asError(err)
	}
	ctx.scopes = []scope{{obj: vm.ns.Root(), prevLimit: ctx.r.Limit()}}

	mark := vm.ns.Mark()
	if err := ctx.execTermList(); err != nil {
		amlErr := asError(err)
		fillFrames(amlErr, name, `\`)
		fmt.Fprintf(vm.errWriter, "[table: %s, offset: %d] %s\n", name, amlErr.Offset, amlErr.Error())
		return amlErr
	}
	vm.ns.Commit(mark)

	vm.loadedTables = append(vm.loadedTables, name)
	return nil
}

// Tables returns the names of the tables loaded so far.
func (vm *VM) Tables() []string {
	return append([]string(nil), vm.loadedTables...)
}

// Namespace returns the namespace owned by the VM.
func (vm *VM) Namespace() *entity.Namespace {
	return vm.ns
}

// IntegerWidth returns the width of AML integers in bits (32 or 64).
func (vm *VM) IntegerWidth() uint8 {
	return vm.sizeOfIntInBits
}

// DebugOutput returns and clears the text written to the Debug object. It
// returns an empty string if a DebugWriter was supplied via Config.
func (vm *VM) DebugOutput() string {
	if vm.debugBuf == nil {
		return ""
	}
	return vm.debugBuf.Drain()
}

// Lookup traverses a potentially nested absolute AML path and returns the
// object reachable via that path or nil if the path does not point to a
// defined object.
func (vm *VM) Lookup(absPath string) *entity.Object {
	return vm.ns.Lookup(absPath)
}

// Visit performs a DFS on the AML namespace tree invoking the visitor for each
// encountered object whose type matches objType. Namespace nodes are visited
// in parent to child order a property which allows the supplied visitor
// function to signal that it's children should not be visited.
func (vm *VM) Visit(objType entity.Type, visitorFn entity.Visitor) {
	entity.Visit(0, vm.ns.Root(), objType, visitorFn)
}

// ExecuteMethod resolves the absolute path and evaluates the object it
// points to with the supplied args.
func (vm *VM) ExecuteMethod(absPath string, args ...entity.Value) (entity.Value, error) {
	return vm.ExecuteMethodContext(context.Background(), absPath, args...)
}

// ExecuteMethodContext works like ExecuteMethod; ctx bounds the time spent
// waiting on AML mutexes and events.
func (vm *VM) ExecuteMethodContext(ctx context.Context, absPath string, args ...entity.Value) (entity.Value, error) {
	obj := vm.Lookup(absPath)
	if obj == nil {
		return nil, newError(ErrUnresolvedReference, "vm: unable to resolve %q", absPath)
	}
	return vm.executeObject(ctx, obj, args)
}

// ExecuteObject evaluates obj. Methods are invoked with the supplied args;
// any other object is returned as a value (field units are read).
func (vm *VM) ExecuteObject(obj *entity.Object, args ...entity.Value) (entity.Value, error) {
	return vm.executeObject(context.Background(), obj, args)
}

func (vm *VM) executeObject(goCtx context.Context, obj *entity.Object, args []entity.Value) (entity.Value, error) {
	if len(args) > maxMethodArgs {
		return nil, newError(ErrInvalidOperation, "vm: too many method arguments (%d)", len(args))
	}

	ctx := &execContext{vm: vm, goCtx: goCtx}
	obj = obj.Target()

	if method, ok := obj.Value.(*entity.Method); ok {
		callArgs := make([]entity.Value, method.ArgCount())
		for i := range callArgs {
			if i < len(args) && args[i] != nil {
				callArgs[i] = args[i]
			} else {
				callArgs[i] = entity.Uninitialized{}
			}
		}

		ret, err := ctx.invoke(obj, callArgs)
		if err != nil {
			return nil, err
		}
		return ret, nil
	}

	return ctx.readObject(obj)
}

// ones returns the all-ones integer for the current integer width.
func (vm *VM) ones() entity.Integer {
	return entity.Integer(vm.intMask())
}

func (vm *VM) intMask() uint64 {
	if vm.sizeOfIntInBits == 32 {
		return 0xffffffff
	}
	return ^uint64(0)
}

// truncate clips v to the current integer width.
func (vm *VM) truncate(v uint64) entity.Integer {
	return entity.Integer(v & vm.intMask())
}
