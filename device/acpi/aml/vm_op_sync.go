package aml

import (
	"context"
	"time"

	"amlvm/device/acpi/aml/entity"
	"amlvm/device/acpi/aml/opcode"
)

// timeoutForever is the timeout value that requests an indefinite wait.
const timeoutForever = 0xffff

// waitContext returns a context that expires after timeoutMs milliseconds.
// Both 0 and 0xFFFF request an indefinite wait.
func (ctx *execContext) waitContext(timeoutMs uint64) (context.Context, context.CancelFunc) {
	if timeoutMs == 0 || timeoutMs == timeoutForever {
		return context.WithCancel(ctx.goCtx)
	}
	return context.WithTimeout(ctx.goCtx, time.Duration(timeoutMs)*time.Millisecond)
}

// Args: mutex, timeout (Acquire only)
// Returns: Zero if the mutex was acquired; Ones if the wait timed out.
func vmOpMutex(ctx *execContext, op opcode.Opcode, info *opcode.Info) (entity.Value, error) {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return nil, err
	}

	obj, err := ctx.targetObject(args[0].tgt)
	if err != nil {
		return nil, err
	}

	mutex, ok := obj.Value.(*entity.Mutex)
	if !ok {
		return nil, newError(ErrTypeCoercion, "vm: %s is a %s object; expected a mutex", obj.Path(), typeOf(obj.Value))
	}

	if op == opcode.Release {
		if err = mutex.Release(ctx.vm); err != nil {
			return nil, errMutexNotOwned
		}
		return nil, nil
	}

	waitCtx, cancel := ctx.waitContext(args[1].num)
	defer cancel()

	if !mutex.Acquire(waitCtx, ctx.vm) {
		return ctx.vm.ones(), nil
	}
	return entity.Integer(0), nil
}

// Args: event, timeout (Wait only)
// Returns: for Wait, Zero if the event was signaled; Ones if the wait timed
// out.
func vmOpEvent(ctx *execContext, op opcode.Opcode, info *opcode.Info) (entity.Value, error) {
	args, err := ctx.readArgs(op, info)
	if err != nil {
		return nil, err
	}

	obj, err := ctx.targetObject(args[0].tgt)
	if err != nil {
		return nil, err
	}

	event, ok := obj.Value.(*entity.Event)
	if !ok {
		return nil, newError(ErrTypeCoercion, "vm: %s is a %s object; expected an event", obj.Path(), typeOf(obj.Value))
	}

	switch op {
	case opcode.Signal:
		event.Signal()
	case opcode.Reset:
		event.Reset()
	default:
		waitCtx, cancel := ctx.waitContext(args[1].num)
		defer cancel()

		if !event.Wait(waitCtx) {
			return ctx.vm.ones(), nil
		}
		return entity.Integer(0), nil
	}
	return nil, nil
}
