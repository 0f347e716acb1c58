package aot

import (
	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"
)

// popCallArgs pops the parameter values in reverse and prepends the current
// execution-context pointer.
func (t *funcTranslator) popCallArgs(paramCount int) []value.Value {
	args := make([]value.Value, paramCount+1)
	args[0] = t.f.Params[0]
	for i := paramCount; i >= 1; i-- {
		args[i] = t.pop()
	}
	return args
}

// pushCallResults pushes a call's results, unpacking multi-value
// aggregates.
func (t *funcTranslator) pushCallResults(ret value.Value) {
	switch ret.Type().(type) {
	case *types.VoidType:
	case *types.StructType:
		for _, v := range unpackStruct(t.cur, ret) {
			t.push(v)
		}
	default:
		t.push(ret)
	}
}

// compileCall emits a direct call to the resolved static callee.
func (t *funcTranslator) compileCall(funcIdx uint32) {
	c := t.ctx
	fn := c.functions[funcIdx]
	ft := c.compositeTypes[fn.TypeIdx].Func
	args := t.popCallArgs(len(ft.Params))
	t.pushCallResults(t.cur.NewCall(fn.Fn, args...))
}

// compileReturnCall is the tail variant: the callee result becomes the
// caller's return value.
func (t *funcTranslator) compileReturnCall(funcIdx uint32) {
	c := t.ctx
	fn := c.functions[funcIdx]
	ft := c.compositeTypes[fn.TypeIdx].Func
	args := t.popCallArgs(len(ft.Params))
	ret := t.cur.NewCall(fn.Fn, args...)
	if types.Equal(ret.Type(), types.Void) {
		t.cur.NewRet(nil)
	} else {
		t.cur.NewRet(ret)
	}
}

// compileIndirectCall looks the callable up through TableGetFuncSymbol and
// splits into a direct fast path and a boxed slow path through the
// CallIndirect intrinsic; the paths join at a PHI per result.
func (t *funcTranslator) compileIndirectCall(tableIdx, typeIdx uint32) {
	c := t.ctx
	notNullBB := t.newBlock("ci_not_null")
	isNullBB := t.newBlock("ci_is_null")
	endBB := t.newBlock("ci_end")

	funcIndex := t.pop()
	ft := c.compositeTypes[typeIdx].Func
	fnTy := c.funcIRType(ft)
	retTy := fnTy.RetType

	argCount := len(ft.Params)
	retCount := len(ft.Results)
	args := t.popCallArgs(argCount)

	symCallee := c.getIntrinsic(t.cur, IntrinsicTableGetFuncSymbol,
		types.NewFunc(types.NewPointer(fnTy), c.int32Ty, c.int32Ty, c.int32Ty))
	fptr := t.cur.NewCall(symCallee,
		constant.NewInt(c.int32Ty, int64(tableIdx)),
		constant.NewInt(c.int32Ty, int64(typeIdx)),
		funcIndex)
	notNull := c.likely(t.cur, t.cur.NewICmp(enum.IPredNE, fptr,
		constant.NewNull(types.NewPointer(fnTy))))
	t.cur.NewCondBr(notNull, notNullBB, isNullBB)

	t.cur = notNullBB
	var fastRets []value.Value
	fastRet := t.cur.NewCall(fptr, args...)
	switch retCount {
	case 0:
	case 1:
		fastRets = []value.Value{fastRet}
	default:
		fastRets = unpackStruct(t.cur, fastRet)
	}
	fastPred := t.cur
	t.cur.NewBr(endBB)

	t.cur = isNullBB
	scratchArgs := c.newValueArray(t.cur, argCount)
	scratchRets := c.newValueArray(t.cur, retCount)
	c.valueArrayStore(t.cur, args[1:], scratchArgs)

	slowCallee := c.getIntrinsic(t.cur, IntrinsicCallIndirect,
		types.NewFunc(types.Void, c.int32Ty, c.int32Ty, c.int32Ty, c.i8PtrTy, c.i8PtrTy))
	t.cur.NewCall(slowCallee,
		constant.NewInt(c.int32Ty, int64(tableIdx)),
		constant.NewInt(c.int32Ty, int64(typeIdx)),
		funcIndex, scratchArgs, scratchRets)

	var slowRets []value.Value
	switch retCount {
	case 0:
	case 1:
		slowRets = []value.Value{c.valuePtrLoad(t.cur, retTy, scratchRets, 0)}
	default:
		slowRets = c.valueArrayLoad(t.cur, c.toIRTypes(ft.Results), scratchRets)
	}
	slowPred := t.cur
	t.cur.NewBr(endBB)

	t.cur = endBB
	for i := 0; i < retCount; i++ {
		phi := t.cur.NewPhi(
			ir.NewIncoming(fastRets[i], fastPred),
			ir.NewIncoming(slowRets[i], slowPred))
		t.push(phi)
	}
}

// compileReturnIndirectCall is the tail variant of the indirect call: both
// paths terminate with a return instead of joining.
func (t *funcTranslator) compileReturnIndirectCall(tableIdx, typeIdx uint32) {
	c := t.ctx
	notNullBB := t.newBlock("ci_not_null")
	isNullBB := t.newBlock("ci_is_null")

	funcIndex := t.pop()
	ft := c.compositeTypes[typeIdx].Func
	fnTy := c.funcIRType(ft)
	retTy := fnTy.RetType

	argCount := len(ft.Params)
	retCount := len(ft.Results)
	args := t.popCallArgs(argCount)

	symCallee := c.getIntrinsic(t.cur, IntrinsicTableGetFuncSymbol,
		types.NewFunc(types.NewPointer(fnTy), c.int32Ty, c.int32Ty, c.int32Ty))
	fptr := t.cur.NewCall(symCallee,
		constant.NewInt(c.int32Ty, int64(tableIdx)),
		constant.NewInt(c.int32Ty, int64(typeIdx)),
		funcIndex)
	notNull := c.likely(t.cur, t.cur.NewICmp(enum.IPredNE, fptr,
		constant.NewNull(types.NewPointer(fnTy))))
	t.cur.NewCondBr(notNull, notNullBB, isNullBB)

	t.cur = notNullBB
	fastRet := t.cur.NewCall(fptr, args...)
	if retCount == 0 {
		t.cur.NewRet(nil)
	} else {
		t.cur.NewRet(fastRet)
	}

	t.cur = isNullBB
	scratchArgs := c.newValueArray(t.cur, argCount)
	scratchRets := c.newValueArray(t.cur, retCount)
	c.valueArrayStore(t.cur, args[1:], scratchArgs)

	slowCallee := c.getIntrinsic(t.cur, IntrinsicCallIndirect,
		types.NewFunc(types.Void, c.int32Ty, c.int32Ty, c.int32Ty, c.i8PtrTy, c.i8PtrTy))
	t.cur.NewCall(slowCallee,
		constant.NewInt(c.int32Ty, int64(tableIdx)),
		constant.NewInt(c.int32Ty, int64(typeIdx)),
		funcIndex, scratchArgs, scratchRets)

	switch retCount {
	case 0:
		t.cur.NewRet(nil)
	case 1:
		t.cur.NewRet(c.valuePtrLoad(t.cur, retTy, scratchRets, 0))
	default:
		aggregateRet(t.cur, retTy, c.valueArrayLoad(t.cur, c.toIRTypes(ft.Results), scratchRets))
	}
}

// refNullCheck traps when the reference payload is null, then returns the
// canonical <2 x i64> form of the reference.
func (t *funcTranslator) refNullCheck(code ErrCode) value.Value {
	c := t.ctx
	ref := t.bitCast(t.pop(), c.int64x2Ty)
	okBB := t.newBlock("ref_not_null")
	notNull := c.likely(t.cur, t.cur.NewICmp(enum.IPredNE,
		t.cur.NewExtractElement(ref, constant.NewInt(c.int64Ty, 1)),
		constant.NewInt(c.int64Ty, 0)))
	t.cur.NewCondBr(notNull, okBB, t.getTrapBlock(code))
	t.cur = okBB
	return ref
}

// compileCallRef traps on a null reference, then follows the same fast/slow
// split as the indirect call using RefGetFuncSymbol and CallRef.
func (t *funcTranslator) compileCallRef(typeIdx uint32) {
	c := t.ctx
	ref := t.refNullCheck(ErrAccessNullFunc)

	notNullBB := t.newBlock("cr_not_null")
	isNullBB := t.newBlock("cr_is_null")
	endBB := t.newBlock("cr_end")

	ft := c.compositeTypes[typeIdx].Func
	fnTy := c.funcIRType(ft)
	retTy := fnTy.RetType

	argCount := len(ft.Params)
	retCount := len(ft.Results)
	args := t.popCallArgs(argCount)

	symCallee := c.getIntrinsic(t.cur, IntrinsicRefGetFuncSymbol,
		types.NewFunc(types.NewPointer(fnTy), c.int64x2Ty))
	fptr := t.cur.NewCall(symCallee, ref)
	notNull := c.likely(t.cur, t.cur.NewICmp(enum.IPredNE, fptr,
		constant.NewNull(types.NewPointer(fnTy))))
	t.cur.NewCondBr(notNull, notNullBB, isNullBB)

	t.cur = notNullBB
	var fastRets []value.Value
	fastRet := t.cur.NewCall(fptr, args...)
	switch retCount {
	case 0:
	case 1:
		fastRets = []value.Value{fastRet}
	default:
		fastRets = unpackStruct(t.cur, fastRet)
	}
	fastPred := t.cur
	t.cur.NewBr(endBB)

	t.cur = isNullBB
	scratchArgs := c.newValueArray(t.cur, argCount)
	scratchRets := c.newValueArray(t.cur, retCount)
	c.valueArrayStore(t.cur, args[1:], scratchArgs)

	slowCallee := c.getIntrinsic(t.cur, IntrinsicCallRef,
		types.NewFunc(types.Void, c.int64x2Ty, c.i8PtrTy, c.i8PtrTy))
	t.cur.NewCall(slowCallee, ref, scratchArgs, scratchRets)

	var slowRets []value.Value
	switch retCount {
	case 0:
	case 1:
		slowRets = []value.Value{c.valuePtrLoad(t.cur, retTy, scratchRets, 0)}
	default:
		slowRets = c.valueArrayLoad(t.cur, c.toIRTypes(ft.Results), scratchRets)
	}
	slowPred := t.cur
	t.cur.NewBr(endBB)

	t.cur = endBB
	for i := 0; i < retCount; i++ {
		phi := t.cur.NewPhi(
			ir.NewIncoming(fastRets[i], fastPred),
			ir.NewIncoming(slowRets[i], slowPred))
		t.push(phi)
	}
}

// compileReturnCallRef is the tail variant of call_ref.
func (t *funcTranslator) compileReturnCallRef(typeIdx uint32) {
	c := t.ctx
	ref := t.refNullCheck(ErrAccessNullFunc)

	notNullBB := t.newBlock("cr_not_null")
	isNullBB := t.newBlock("cr_is_null")

	ft := c.compositeTypes[typeIdx].Func
	fnTy := c.funcIRType(ft)
	retTy := fnTy.RetType

	argCount := len(ft.Params)
	retCount := len(ft.Results)
	args := t.popCallArgs(argCount)

	symCallee := c.getIntrinsic(t.cur, IntrinsicRefGetFuncSymbol,
		types.NewFunc(types.NewPointer(fnTy), c.int64x2Ty))
	fptr := t.cur.NewCall(symCallee, ref)
	notNull := c.likely(t.cur, t.cur.NewICmp(enum.IPredNE, fptr,
		constant.NewNull(types.NewPointer(fnTy))))
	t.cur.NewCondBr(notNull, notNullBB, isNullBB)

	t.cur = notNullBB
	fastRet := t.cur.NewCall(fptr, args...)
	if retCount == 0 {
		t.cur.NewRet(nil)
	} else {
		t.cur.NewRet(fastRet)
	}

	t.cur = isNullBB
	scratchArgs := c.newValueArray(t.cur, argCount)
	scratchRets := c.newValueArray(t.cur, retCount)
	c.valueArrayStore(t.cur, args[1:], scratchArgs)

	slowCallee := c.getIntrinsic(t.cur, IntrinsicCallRef,
		types.NewFunc(types.Void, c.int64x2Ty, c.i8PtrTy, c.i8PtrTy))
	t.cur.NewCall(slowCallee, ref, scratchArgs, scratchRets)

	switch retCount {
	case 0:
		t.cur.NewRet(nil)
	case 1:
		t.cur.NewRet(c.valuePtrLoad(t.cur, retTy, scratchRets, 0))
	default:
		aggregateRet(t.cur, retTy, c.valueArrayLoad(t.cur, c.toIRTypes(ft.Results), scratchRets))
	}
}
