package aot

import (
	"fmt"
	"sort"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/enum"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/wippyai/wasm-aot/errors"
	"github.com/wippyai/wasm-aot/wasm"
)

// phiIncoming is one (values, source block) pair collected from a branch
// targeting a frame's end block.
type phiIncoming struct {
	vals  []value.Value
	block *ir.Block
}

// control represents one structured block on the control stack.
type control struct {
	stackBase   int
	unreachable bool
	jumpBlock   *ir.Block // branch target: end block, or loop header
	nextBlock   *ir.Block // loop only: block to position at after the frame
	elseBlock   *ir.Block // if only: alternative entry
	args        []value.Value
	params      []wasm.ValueType
	results     []wasm.ValueType
	returnPHI   []phiIncoming
}

type localSlot struct {
	ty  types.Type
	ptr value.Value
}

// funcTranslator converts one validated instruction stream into IR. All of
// its working state is scoped to a single function's emission.
type funcTranslator struct {
	ctx  *compileContext
	f    *ir.Func
	fnTy *types.FuncType
	cur  *ir.Block

	execCtx value.Value
	locals  []localSlot
	stack   []value.Value

	controlStack []control

	trapBlocks map[ErrCode]*ir.Block
	trapOrder  []ErrCode

	localInstrCount value.Value
	localGas        value.Value
	interruptible   bool

	outerUnreachable bool
	blockID          int
}

func newFuncTranslator(ctx *compileContext, fn moduleFunc, locals []wasm.ValueType, interruptible, instrCounting, gasMeasuring bool) *funcTranslator {
	t := &funcTranslator{
		ctx:           ctx,
		f:             fn.Fn,
		fnTy:          fn.FnTy,
		trapBlocks:    make(map[ErrCode]*ir.Block),
		interruptible: interruptible,
	}

	t.cur = t.f.NewBlock("entry")
	t.execCtx = t.cur.NewLoad(ctx.execCtxTy, t.f.Params[0])

	if instrCounting {
		slot := t.cur.NewAlloca(ctx.int64Ty)
		t.cur.NewStore(constant.NewInt(ctx.int64Ty, 0), slot)
		t.localInstrCount = slot
	}
	if gasMeasuring {
		slot := t.cur.NewAlloca(ctx.int64Ty)
		t.cur.NewStore(constant.NewInt(ctx.int64Ty, 0), slot)
		t.localGas = slot
	}

	for _, p := range t.f.Params[1:] {
		ty := p.Type()
		slot := t.cur.NewAlloca(ty)
		t.cur.NewStore(p, slot)
		t.locals = append(t.locals, localSlot{ty: ty, ptr: slot})
	}
	for _, lt := range locals {
		ty := ctx.toIRType(lt)
		slot := t.cur.NewAlloca(ty)
		t.cur.NewStore(ctx.constZero(lt), slot)
		t.locals = append(t.locals, localSlot{ty: ty, ptr: slot})
	}

	return t
}

// newBlock creates a uniquely named block in the current function.
func (t *funcTranslator) newBlock(name string) *ir.Block {
	t.blockID++
	return t.f.NewBlock(fmt.Sprintf("%s.%d", name, t.blockID))
}

// getTrapBlock returns the shared trap block for the given error kind,
// creating it on first use.
func (t *funcTranslator) getTrapBlock(code ErrCode) *ir.Block {
	if bb, ok := t.trapBlocks[code]; ok {
		return bb
	}
	bb := t.newBlock("trap")
	t.trapBlocks[code] = bb
	t.trapOrder = append(t.trapOrder, code)
	return bb
}

// compile translates the function body. The caller guarantees the code is
// validated and the type matches the function's composite type.
func (t *funcTranslator) compile(body *wasm.FuncBody, results []wasm.ValueType) error {
	retBB := t.newBlock("ret")
	t.enterBlock(retBB, nil, nil, nil, nil, results, nil)

	instrs, err := wasm.DecodeInstructions(body.Code)
	if err != nil {
		return errors.Wrap(errors.PhaseCompile, errors.KindInvalidData, err, "decode function body")
	}
	if err := t.compileInstrs(instrs); err != nil {
		return err
	}
	if len(t.controlStack) != 0 {
		return errors.InvalidInput(errors.PhaseCompile, "unbalanced control stack")
	}
	t.compileReturn()

	t.emitTrapEpilogue()
	return nil
}

// emitTrapEpilogue materialises one block per encountered error kind: flush
// the counters into their shared cells, call the trap helper with the error
// code, terminate with unreachable.
func (t *funcTranslator) emitTrapEpilogue() {
	sort.Slice(t.trapOrder, func(i, j int) bool { return t.trapOrder[i] < t.trapOrder[j] })
	for _, code := range t.trapOrder {
		t.cur = t.trapBlocks[code]
		t.updateInstrCount()
		t.updateGasAtTrap()
		call := t.cur.NewCall(t.ctx.trapFn, constant.NewInt(t.ctx.int32Ty, int64(code)))
		call.FuncAttrs = append(call.FuncAttrs, enum.FuncAttrNoReturn)
		t.cur.NewUnreachable()
	}
}

// Stack operations. The operand stack mirrors the validator's; the
// assertions below are compile-time sanity checks, not input checks.

func (t *funcTranslator) push(v value.Value) {
	t.stack = append(t.stack, v)
}

func (t *funcTranslator) pop() value.Value {
	v := t.stack[len(t.stack)-1]
	t.stack = t.stack[:len(t.stack)-1]
	return v
}

func (t *funcTranslator) top() value.Value {
	return t.stack[len(t.stack)-1]
}

func (t *funcTranslator) setTop(v value.Value) {
	t.stack[len(t.stack)-1] = v
}

// Control-stack operations.

func (t *funcTranslator) enterBlock(jump, next, elseBB *ir.Block, args []value.Value, params, results []wasm.ValueType, returnPHI []phiIncoming) {
	for _, v := range args {
		t.push(v)
	}
	unreachable := t.isUnreachable()
	t.controlStack = append(t.controlStack, control{
		stackBase:   len(t.stack) - len(args),
		unreachable: unreachable,
		jumpBlock:   jump,
		nextBlock:   next,
		elseBlock:   elseBB,
		args:        args,
		params:      params,
		results:     results,
		returnPHI:   returnPHI,
	})
}

func (t *funcTranslator) leaveBlock() control {
	entry := t.controlStack[len(t.controlStack)-1]
	t.controlStack = t.controlStack[:len(t.controlStack)-1]

	next := entry.nextBlock
	if next == nil {
		next = entry.jumpBlock
	}
	if !entry.unreachable {
		if len(entry.results) > 0 {
			rets := make([]value.Value, len(entry.results))
			for i := len(rets) - 1; i >= 0; i-- {
				rets[i] = t.pop()
			}
			entry.returnPHI = append(entry.returnPHI, phiIncoming{vals: rets, block: t.cur})
		}
		t.cur.NewBr(next)
	} else {
		t.cur.NewUnreachable()
	}
	t.cur = next
	t.stack = t.stack[:entry.stackBase]
	return entry
}

func (t *funcTranslator) setUnreachable() {
	if len(t.controlStack) == 0 {
		t.outerUnreachable = true
	} else {
		t.controlStack[len(t.controlStack)-1].unreachable = true
	}
}

func (t *funcTranslator) isUnreachable() bool {
	if len(t.controlStack) == 0 {
		return t.outerUnreachable
	}
	return t.controlStack[len(t.controlStack)-1].unreachable
}

// buildPHI pushes the merged result values of a frame: a PHI per result
// type when several incomings exist, the values themselves for one, undef
// for none (reachable only under unreachability).
func (t *funcTranslator) buildPHI(results []wasm.ValueType, incomings []phiIncoming) {
	if len(results) == 0 {
		return
	}
	switch len(incomings) {
	case 0:
		for _, rt := range results {
			t.push(constant.NewUndef(t.ctx.toIRType(rt)))
		}
	case 1:
		for _, v := range incomings[0].vals {
			t.push(v)
		}
	default:
		for i := range results {
			incs := make([]*ir.Incoming, len(incomings))
			for j, in := range incomings {
				incs[j] = ir.NewIncoming(in.vals[i], in.block)
			}
			t.push(t.cur.NewPhi(incs...))
		}
	}
}

// branchJumpPHI routes the branch values for a branch to the index-th
// innermost frame: into the loop-header PHIs for loops, into the frame's
// return-PHI incomings otherwise. The values stay on the stack for the
// fall-through path.
func (t *funcTranslator) branchJumpPHI(index uint32) {
	entry := &t.controlStack[len(t.controlStack)-1-int(index)]
	if entry.nextBlock != nil { // loop: values feed the header PHIs
		args := make([]value.Value, len(entry.params))
		for i := len(args) - 1; i >= 0; i-- {
			args[i] = t.pop()
		}
		for i, v := range args {
			phi := entry.args[i].(*ir.InstPhi)
			phi.Incs = append(phi.Incs, ir.NewIncoming(v, t.cur))
			t.push(v)
		}
	} else if len(entry.results) > 0 {
		rets := make([]value.Value, len(entry.results))
		for i := len(rets) - 1; i >= 0; i-- {
			rets[i] = t.pop()
		}
		for _, v := range rets {
			t.push(v)
		}
		entry.returnPHI = append(entry.returnPHI, phiIncoming{vals: rets, block: t.cur})
	}
}

func (t *funcTranslator) getLabel(index uint32) *ir.Block {
	return t.controlStack[len(t.controlStack)-1-int(index)].jumpBlock
}

// compileReturn flushes the counters and terminates with the function's
// return shape: void, scalar, or packed aggregate.
func (t *funcTranslator) compileReturn() {
	t.updateInstrCount()
	t.updateGas()
	retTy := t.fnTy.RetType
	switch rt := retTy.(type) {
	case *types.VoidType:
		t.cur.NewRet(nil)
	case *types.StructType:
		vals := make([]value.Value, len(rt.Fields))
		for i := len(vals) - 1; i >= 0; i-- {
			vals[i] = t.pop()
		}
		aggregateRet(t.cur, retTy, vals)
	default:
		t.cur.NewRet(t.pop())
	}
}

// updateInstrCount flushes the local instruction counter into the shared
// cell with a monotonic atomic add and resets the local slot.
func (t *funcTranslator) updateInstrCount() {
	if t.localInstrCount == nil {
		return
	}
	c := t.ctx
	shared := c.getInstrCount(t.cur, t.execCtx)
	local := t.cur.NewLoad(c.int64Ty, t.localInstrCount)
	t.cur.NewAtomicRMW(enum.AtomicOpAdd, shared, local, enum.AtomicOrderingMonotonic)
	t.cur.NewStore(constant.NewInt(c.int64Ty, 0), t.localInstrCount)
}

// updateGas flushes the local gas accumulator into the shared cell with a
// weak-CAS loop; when the new total exceeds the limit, control transfers to
// the cost-limit trap block.
func (t *funcTranslator) updateGas() {
	if t.localGas == nil {
		return
	}
	c := t.ctx
	currBB := t.cur
	checkBB := t.newBlock("gas_check")
	okBB := t.newBlock("gas_ok")
	endBB := t.newBlock("gas_end")

	cost := t.cur.NewLoad(c.int64Ty, t.localGas)
	gasPtr := c.getGas(t.cur, t.execCtx)
	gasLimit := c.getGasLimit(t.cur, t.execCtx)
	gas := t.cur.NewLoad(c.int64Ty, gasPtr)
	gas.Atomic = true
	gas.Ordering = enum.AtomicOrderingMonotonic
	gas.Align = ir.Align(8)
	t.cur.NewBr(checkBB)
	t.cur = checkBB

	oldGas := t.cur.NewPhi(ir.NewIncoming(gas, currBB))
	newGas := t.cur.NewAdd(oldGas, cost)
	remain := c.likely(t.cur, t.cur.NewICmp(enum.IPredULE, newGas, gasLimit))
	t.cur.NewCondBr(remain, okBB, t.getTrapBlock(ErrCostLimitExceeded))
	t.cur = okBB

	xchg := t.cur.NewCmpXchg(gasPtr, oldGas, newGas,
		enum.AtomicOrderingMonotonic, enum.AtomicOrderingMonotonic)
	xchg.Weak = true
	rGas := t.cur.NewExtractValue(xchg, 0)
	succeeded := t.cur.NewExtractValue(xchg, 1)
	t.cur.NewCondBr(c.likely(t.cur, succeeded), endBB, checkBB)
	t.cur = endBB

	t.cur.NewStore(constant.NewInt(c.int64Ty, 0), t.localGas)
	oldGas.Incs = append(oldGas.Incs, ir.NewIncoming(rGas, okBB))
}

// updateGasAtTrap flushes the gas accumulator best-effort on the trap path:
// a plain atomic add, no limit check.
func (t *funcTranslator) updateGasAtTrap() {
	if t.localGas == nil {
		return
	}
	c := t.ctx
	shared := c.getGas(t.cur, t.execCtx)
	local := t.cur.NewLoad(c.int64Ty, t.localGas)
	t.cur.NewAtomicRMW(enum.AtomicOpAdd, shared, local, enum.AtomicOrderingMonotonic)
}

// checkStop polls the stop token: an atomic exchange with 0; a non-zero
// prior value traps with the interrupted error.
func (t *funcTranslator) checkStop() {
	if !t.interruptible {
		return
	}
	c := t.ctx
	notStopBB := t.newBlock("not_stop")
	token := t.cur.NewAtomicRMW(enum.AtomicOpXChg,
		c.getStopToken(t.cur, t.execCtx),
		constant.NewInt(c.int32Ty, 0),
		enum.AtomicOrderingMonotonic)
	notStop := c.likely(t.cur, t.cur.NewICmp(enum.IPredEQ, token, constant.NewInt(c.int32Ty, 0)))
	t.cur.NewCondBr(notStop, notStopBB, t.getTrapBlock(ErrInterrupted))
	t.cur = notStopBB
}

// accountInstr accrues the per-instruction cost into the local scratch
// counters: one tick, plus the cost-table entry indexed by the opcode.
func (t *funcTranslator) accountInstr(costIndex uint32) {
	c := t.ctx
	if t.localInstrCount != nil {
		v := t.cur.NewLoad(c.int64Ty, t.localInstrCount)
		t.cur.NewStore(t.cur.NewAdd(v, constant.NewInt(c.int64Ty, 1)), t.localInstrCount)
	}
	if t.localGas != nil {
		table := c.getCostTable(t.cur, t.execCtx)
		gep := t.cur.NewGetElementPtr(c.costTableTy, table,
			constant.NewInt(c.int64Ty, 0),
			constant.NewInt(c.int64Ty, int64(costIndex)))
		gep.InBounds = true
		cost := t.cur.NewLoad(c.int64Ty, gep)
		acc := t.cur.NewLoad(c.int64Ty, t.localGas)
		t.cur.NewStore(t.cur.NewAdd(acc, cost), t.localGas)
	}
}

// costIndex maps an instruction to its cost-table slot: the opcode byte for
// plain instructions, (prefix << 8) | (sub-opcode & 0xFF) for prefixed ones.
func costIndex(instr *wasm.Instruction) uint32 {
	switch imm := instr.Imm.(type) {
	case wasm.MiscImm:
		return uint32(instr.Opcode)<<8 | (imm.SubOpcode & 0xFF)
	case wasm.SIMDImm:
		return uint32(instr.Opcode)<<8 | (imm.SubOpcode & 0xFF)
	case wasm.AtomicImm:
		return uint32(instr.Opcode)<<8 | (imm.SubOpcode & 0xFF)
	case wasm.GCImm:
		return uint32(instr.Opcode)<<8 | (imm.SubOpcode & 0xFF)
	default:
		return uint32(instr.Opcode)
	}
}

func (t *funcTranslator) compileInstrs(instrs []wasm.Instruction) error {
	for i := range instrs {
		if err := t.compileInstr(&instrs[i]); err != nil {
			return err
		}
	}
	return nil
}

func (t *funcTranslator) compileInstr(instr *wasm.Instruction) error {
	c := t.ctx

	if !t.isUnreachable() {
		t.accountInstr(costIndex(instr))
	}

	// Block structure is tracked even under unreachability so that end and
	// else reintroduce reachable points with correct stack accounting.
	switch instr.Opcode {
	case wasm.OpBlock:
		imm := instr.Imm.(wasm.BlockImm)
		block := t.newBlock("block")
		endBlock := t.newBlock("block_end")
		t.cur.NewBr(block)
		t.cur = block

		params, results := c.resolveBlockType(imm.Type)
		args := t.popEntryArgs(params)
		t.enterBlock(endBlock, nil, nil, args, params, results, nil)
		t.checkStop()
		t.updateGas()
		return nil

	case wasm.OpLoop:
		imm := instr.Imm.(wasm.BlockImm)
		curr := t.cur
		loop := t.newBlock("loop")
		endLoop := t.newBlock("loop_end")
		t.cur.NewBr(loop)
		t.cur = loop

		params, results := c.resolveBlockType(imm.Type)
		args := make([]value.Value, len(params))
		if t.isUnreachable() {
			for i, p := range params {
				ty := c.toIRType(p)
				phi := t.cur.NewPhi(ir.NewIncoming(constant.NewUndef(ty), curr))
				args[i] = phi
			}
		} else {
			vals := make([]value.Value, len(params))
			for i := len(vals) - 1; i >= 0; i-- {
				vals[i] = t.pop()
			}
			for i, v := range vals {
				args[i] = t.cur.NewPhi(ir.NewIncoming(v, curr))
			}
		}
		t.enterBlock(loop, endLoop, nil, args, params, results, nil)
		t.checkStop()
		t.updateGas()
		return nil

	case wasm.OpIf:
		imm := instr.Imm.(wasm.BlockImm)
		thenBB := t.newBlock("then")
		elseBB := t.newBlock("else")
		endBB := t.newBlock("if_end")

		var cond value.Value
		if t.isUnreachable() {
			cond = constant.NewUndef(types.I1)
		} else {
			cond = t.cur.NewICmp(enum.IPredNE, t.pop(), constant.NewInt(c.int32Ty, 0))
		}
		t.cur.NewCondBr(cond, thenBB, elseBB)
		t.cur = thenBB

		params, results := c.resolveBlockType(imm.Type)
		args := t.popEntryArgs(params)
		t.enterBlock(endBB, nil, elseBB, args, params, results, nil)
		return nil

	case wasm.OpEnd:
		entry := t.leaveBlock()
		if entry.elseBlock != nil {
			// If without else: emit the implicit empty alternative.
			merged := t.cur
			t.cur = entry.elseBlock
			t.enterBlock(merged, nil, nil, entry.args, entry.params, entry.results, entry.returnPHI)
			entry = t.leaveBlock()
		}
		t.buildPHI(entry.results, entry.returnPHI)
		return nil

	case wasm.OpElse:
		entry := t.leaveBlock()
		t.cur = entry.elseBlock
		t.enterBlock(entry.jumpBlock, nil, nil, entry.args, entry.params, entry.results, entry.returnPHI)
		return nil
	}

	if t.isUnreachable() {
		return nil
	}

	switch instr.Opcode {
	case wasm.OpUnreachable:
		t.cur.NewBr(t.getTrapBlock(ErrUnreachable))
		t.setUnreachable()
		t.cur = t.newBlock("unreachable_end")

	case wasm.OpNop:

	case wasm.OpBr:
		imm := instr.Imm.(wasm.BranchImm)
		t.branchJumpPHI(imm.LabelIdx)
		t.cur.NewBr(t.getLabel(imm.LabelIdx))
		t.setUnreachable()
		t.cur = t.newBlock("br_end")

	case wasm.OpBrIf:
		imm := instr.Imm.(wasm.BranchImm)
		cond := t.cur.NewICmp(enum.IPredNE, t.pop(), constant.NewInt(c.int32Ty, 0))
		t.branchJumpPHI(imm.LabelIdx)
		next := t.newBlock("br_if_end")
		t.cur.NewCondBr(cond, t.getLabel(imm.LabelIdx), next)
		t.cur = next

	case wasm.OpBrTable:
		imm := instr.Imm.(wasm.BrTableImm)
		v := t.pop()
		t.branchJumpPHI(imm.Default)
		sw := t.cur.NewSwitch(v, t.getLabel(imm.Default))
		for i, label := range imm.Labels {
			t.branchJumpPHI(label)
			sw.Cases = append(sw.Cases, ir.NewCase(constant.NewInt(c.int32Ty, int64(i)), t.getLabel(label)))
		}
		t.setUnreachable()
		t.cur = t.newBlock("br_table_end")

	case wasm.OpBrOnNull:
		imm := instr.Imm.(wasm.BranchImm)
		ref := t.bitCast(t.pop(), c.int64x2Ty)
		payload := t.cur.NewExtractElement(ref, constant.NewInt(c.int64Ty, 1))
		cond := t.cur.NewICmp(enum.IPredEQ, payload, constant.NewInt(c.int64Ty, 0))
		t.branchJumpPHI(imm.LabelIdx)
		next := t.newBlock("br_on_null_end")
		t.cur.NewCondBr(cond, t.getLabel(imm.LabelIdx), next)
		t.cur = next
		t.push(ref)

	case wasm.OpBrOnNonNull:
		imm := instr.Imm.(wasm.BranchImm)
		ref := t.bitCast(t.top(), c.int64x2Ty)
		payload := t.cur.NewExtractElement(ref, constant.NewInt(c.int64Ty, 1))
		cond := t.cur.NewICmp(enum.IPredNE, payload, constant.NewInt(c.int64Ty, 0))
		t.branchJumpPHI(imm.LabelIdx)
		next := t.newBlock("br_on_non_null_end")
		t.cur.NewCondBr(cond, t.getLabel(imm.LabelIdx), next)
		t.cur = next
		t.pop()

	case wasm.OpReturn:
		t.compileReturn()
		t.setUnreachable()
		t.cur = t.newBlock("ret_end")

	case wasm.OpCall:
		imm := instr.Imm.(wasm.CallImm)
		t.updateInstrCount()
		t.updateGas()
		t.compileCall(imm.FuncIdx)

	case wasm.OpCallIndirect:
		imm := instr.Imm.(wasm.CallIndirectImm)
		t.updateInstrCount()
		t.updateGas()
		t.compileIndirectCall(imm.TableIdx, imm.TypeIdx)

	case wasm.OpReturnCall:
		imm := instr.Imm.(wasm.CallImm)
		t.updateInstrCount()
		t.updateGas()
		t.compileReturnCall(imm.FuncIdx)
		t.setUnreachable()
		t.cur = t.newBlock("ret_call_end")

	case wasm.OpReturnCallIndirect:
		imm := instr.Imm.(wasm.CallIndirectImm)
		t.updateInstrCount()
		t.updateGas()
		t.compileReturnIndirectCall(imm.TableIdx, imm.TypeIdx)
		t.setUnreachable()
		t.cur = t.newBlock("ret_call_indirect_end")

	case wasm.OpCallRef:
		imm := instr.Imm.(wasm.CallRefImm)
		t.updateInstrCount()
		t.updateGas()
		t.compileCallRef(imm.TypeIdx)

	case wasm.OpReturnCallRef:
		imm := instr.Imm.(wasm.CallRefImm)
		t.updateInstrCount()
		t.updateGas()
		t.compileReturnCallRef(imm.TypeIdx)
		t.setUnreachable()
		t.cur = t.newBlock("ret_call_ref_end")

	// Parametric instructions
	case wasm.OpDrop:
		t.pop()

	case wasm.OpSelect, wasm.OpSelectType:
		cond := t.cur.NewICmp(enum.IPredNE, t.pop(), constant.NewInt(c.int32Ty, 0))
		falseV := t.pop()
		trueV := t.pop()
		t.push(t.cur.NewSelect(cond, trueV, falseV))

	// Variable instructions
	case wasm.OpLocalGet:
		imm := instr.Imm.(wasm.LocalImm)
		l := t.locals[imm.LocalIdx]
		t.push(t.cur.NewLoad(l.ty, l.ptr))

	case wasm.OpLocalSet:
		imm := instr.Imm.(wasm.LocalImm)
		t.cur.NewStore(t.pop(), t.locals[imm.LocalIdx].ptr)

	case wasm.OpLocalTee:
		imm := instr.Imm.(wasm.LocalImm)
		t.cur.NewStore(t.top(), t.locals[imm.LocalIdx].ptr)

	case wasm.OpGlobalGet:
		imm := instr.Imm.(wasm.GlobalImm)
		ty, ptr := c.getGlobal(t.cur, t.execCtx, imm.GlobalIdx)
		t.push(t.cur.NewLoad(ty, ptr))

	case wasm.OpGlobalSet:
		imm := instr.Imm.(wasm.GlobalImm)
		v := t.pop()
		_, ptr := c.getGlobal(t.cur, t.execCtx, imm.GlobalIdx)
		t.cur.NewStore(v, ptr)

	// Table instructions
	case wasm.OpTableGet:
		imm := instr.Imm.(wasm.TableImm)
		idx := t.pop()
		callee := c.getIntrinsic(t.cur, IntrinsicTableGet,
			types.NewFunc(c.int64x2Ty, c.int32Ty, c.int32Ty))
		t.push(t.cur.NewCall(callee, constant.NewInt(c.int32Ty, int64(imm.TableIdx)), idx))

	case wasm.OpTableSet:
		imm := instr.Imm.(wasm.TableImm)
		ref := t.pop()
		idx := t.pop()
		callee := c.getIntrinsic(t.cur, IntrinsicTableSet,
			types.NewFunc(c.int64Ty, c.int32Ty, c.int32Ty, c.int64x2Ty))
		t.cur.NewCall(callee, constant.NewInt(c.int32Ty, int64(imm.TableIdx)), idx, ref)

	// Reference instructions
	case wasm.OpRefNull, wasm.OpRefIsNull, wasm.OpRefFunc, wasm.OpRefAsNonNull, wasm.OpRefEq:
		t.compileRefOp(instr)

	// Constants and numerics
	case wasm.OpI32Const:
		t.push(constant.NewInt(c.int32Ty, int64(instr.Imm.(wasm.I32Imm).Value)))
	case wasm.OpI64Const:
		t.push(constant.NewInt(c.int64Ty, instr.Imm.(wasm.I64Imm).Value))
	case wasm.OpF32Const:
		t.push(constant.NewFloat(c.floatTy, float64(instr.Imm.(wasm.F32Imm).Value)))
	case wasm.OpF64Const:
		t.push(constant.NewFloat(c.doubleTy, instr.Imm.(wasm.F64Imm).Value))

	// Memory instructions
	case wasm.OpI32Load, wasm.OpI64Load, wasm.OpF32Load, wasm.OpF64Load,
		wasm.OpI32Load8S, wasm.OpI32Load8U, wasm.OpI32Load16S, wasm.OpI32Load16U,
		wasm.OpI64Load8S, wasm.OpI64Load8U, wasm.OpI64Load16S, wasm.OpI64Load16U,
		wasm.OpI64Load32S, wasm.OpI64Load32U,
		wasm.OpI32Store, wasm.OpI64Store, wasm.OpF32Store, wasm.OpF64Store,
		wasm.OpI32Store8, wasm.OpI32Store16, wasm.OpI64Store8, wasm.OpI64Store16, wasm.OpI64Store32,
		wasm.OpMemorySize, wasm.OpMemoryGrow:
		t.compileMemoryOp(instr)

	case wasm.OpPrefixMisc:
		return t.compileMiscOp(instr.Imm.(wasm.MiscImm))

	case wasm.OpPrefixSIMD:
		return t.compileSIMDOp(instr.Imm.(wasm.SIMDImm))

	case wasm.OpPrefixAtomic:
		return t.compileAtomicOp(instr.Imm.(wasm.AtomicImm))

	case wasm.OpPrefixGC:
		return t.compileGCOp(instr.Imm.(wasm.GCImm))

	default:
		if isNumericOp(instr.Opcode) {
			t.compileNumericOp(instr.Opcode)
			return nil
		}
		return errors.New(errors.PhaseCompile, errors.KindUnsupported).
			Detail("opcode 0x%02x", instr.Opcode).
			Build()
	}

	return nil
}

// popEntryArgs pops a frame's entry parameters in stack order, producing
// undef values when the current frame is unreachable so stack accounting
// stays uniform.
func (t *funcTranslator) popEntryArgs(params []wasm.ValueType) []value.Value {
	args := make([]value.Value, len(params))
	if t.isUnreachable() {
		for i, p := range params {
			args[i] = constant.NewUndef(t.ctx.toIRType(p))
		}
		return args
	}
	for i := len(args) - 1; i >= 0; i-- {
		args[i] = t.pop()
	}
	return args
}

// bitCast casts v when its type differs from want; vector stack values are
// canonically <2 x i64> and get reshaped per operator.
func (t *funcTranslator) bitCast(v value.Value, want types.Type) value.Value {
	if v.Type().Equal(want) {
		return v
	}
	return t.cur.NewBitCast(v, want)
}
