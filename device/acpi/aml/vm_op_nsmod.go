package aml

import (
	"amlvm/device/acpi/aml/entity"
	"amlvm/device/acpi/aml/opcode"
)

// execNsModOp handles the namespace modifier opcodes.
func execNsModOp(ctx *execContext, op opcode.Opcode, info *opcode.Info) (bool, entity.Value, error) {
	var err error
	switch op {
	case opcode.Name:
		err = vmOpName(ctx, op, info)
	case opcode.Scope:
		err = vmOpScope(ctx, op, info)
	case opcode.Alias:
		err = vmOpAlias(ctx, op, info)
	case opcode.External:
		// External only provides hints to disassemblers.
		_, err = ctx.readArgs(op, info)
	default:
		return false, nil, nil
	}
	return true, nil, err
}

// Args: name, value
// Creates a named object holding a copy of value.
func vmOpName(ctx *execContext, op opcode.Opcode, info *opcode.Info) error {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return err
	}

	return ctx.createObject(args[0].str, entity.Copy(args[1].val))
}

// Grammar: Scope PkgLength NameString TermList
// Executes the body with an existing object as the current scope.
func vmOpScope(ctx *execContext, op opcode.Opcode, info *opcode.Info) error {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return err
	}

	obj := ctx.vm.ns.Find(ctx.curScope(), args[0].str)
	if obj == nil {
		return newError(ErrUnresolvedReference, "vm: unable to resolve scope %q", args[0].str)
	}

	ctx.setScope(obj.Target())
	return ctx.execTermList()
}

// Args: source, alias
func vmOpAlias(ctx *execContext, op opcode.Opcode, info *opcode.Info) error {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return err
	}

	src := ctx.vm.ns.Find(ctx.curScope(), args[0].str)
	if src == nil {
		return newError(ErrUnresolvedReference, "vm: unable to resolve alias source %q", args[0].str)
	}

	return ctx.createObject(args[1].str, &entity.Alias{Target: src.Target()})
}
