package aot

import (
	"encoding/binary"

	"github.com/llir/llvm/ir"
	"github.com/llir/llvm/ir/constant"
	"github.com/llir/llvm/ir/types"
	"github.com/llir/llvm/ir/value"

	"github.com/wippyai/wasm-aot/wasm"
)

// valSize is the byte size of one boxed value slot in scratch arrays used
// for the slow call paths and GC intrinsics.
const valSize = 16

// toIRType maps a WebAssembly value type to its IR representation.
// V128 and references are both <2 x i64>: references pack an 8-byte type
// descriptor with an 8-byte payload.
func (c *compileContext) toIRType(vt wasm.ValueType) types.Type {
	switch vt.Kind {
	case wasm.ValI32:
		return c.int32Ty
	case wasm.ValI64:
		return c.int64Ty
	case wasm.ValF32:
		return c.floatTy
	case wasm.ValF64:
		return c.doubleTy
	default:
		return c.int64x2Ty
	}
}

func (c *compileContext) toIRTypes(vts []wasm.ValueType) []types.Type {
	out := make([]types.Type, len(vts))
	for i, vt := range vts {
		out[i] = c.toIRType(vt)
	}
	return out
}

// toIRArgTypes prepends the execution-context pointer to the parameter list.
func (c *compileContext) toIRArgTypes(vts []wasm.ValueType) []types.Type {
	out := make([]types.Type, 0, len(vts)+1)
	out = append(out, c.execCtxPtrTy)
	for _, vt := range vts {
		out = append(out, c.toIRType(vt))
	}
	return out
}

// toIRRetType maps a result list to the IR return type: void for none, the
// scalar type for one, an anonymous struct for multi-value.
func (c *compileContext) toIRRetType(vts []wasm.ValueType) types.Type {
	if len(vts) == 0 {
		return types.Void
	}
	if len(vts) == 1 {
		return c.toIRType(vts[0])
	}
	return types.NewStruct(c.toIRTypes(vts)...)
}

// funcIRType builds the IR function type of a WebAssembly function type.
func (c *compileContext) funcIRType(ft *wasm.FuncType) *types.FuncType {
	return types.NewFunc(c.toIRRetType(resultTypes(ft)), c.toIRArgTypes(paramTypes(ft))...)
}

func paramTypes(ft *wasm.FuncType) []wasm.ValueType  { return ft.Params }
func resultTypes(ft *wasm.FuncType) []wasm.ValueType { return ft.Results }

// constZero returns the zero value of a WebAssembly type; locals are
// initialised with it.
func (c *compileContext) constZero(vt wasm.ValueType) constant.Constant {
	switch vt.Kind {
	case wasm.ValI32:
		return constant.NewInt(c.int32Ty, 0)
	case wasm.ValI64:
		return constant.NewInt(c.int64Ty, 0)
	case wasm.ValF32:
		return constant.NewFloat(c.floatTy, 0)
	case wasm.ValF64:
		return constant.NewFloat(c.doubleTy, 0)
	default:
		return constant.NewZeroInitializer(c.int64x2Ty)
	}
}

// Reference descriptor layout (8 bytes, little endian):
//
//	byte 0   value-type code (0x63 ref null, 0x64 ref)
//	byte 1   external address space flag (0 internal, 1 external)
//	byte 2   reserved
//	byte 3   abstract heap type byte, 0 when byte 4..7 name a type index
//	byte 4-7 composite type index (LE)
//
// The descriptor occupies the first lane of a reference's <2 x i64>; the
// payload occupies the second.

// refDescriptor encodes the descriptor word for the given heap type. An
// abstract heap type is a negative s33; a non-negative value is a composite
// type index.
func refDescriptor(nullable bool, heapType int64) uint64 {
	var buf [8]byte
	if nullable {
		buf[0] = byte(wasm.ValRefNull)
	} else {
		buf[0] = byte(wasm.ValRef)
	}
	if heapType == wasm.HeapTypeExtern || heapType == wasm.HeapTypeNoExtern {
		buf[1] = 1
	}
	if heapType < 0 {
		buf[3] = wasm.HeapTypeByte(heapType)
	} else {
		binary.LittleEndian.PutUint32(buf[4:], uint32(heapType))
	}
	return binary.LittleEndian.Uint64(buf[:])
}

// constRef builds a <2 x i64> constant reference value from a descriptor
// word and payload.
func (c *compileContext) constRef(desc, payload uint64) constant.Constant {
	return constant.NewVector(c.int64x2Ty,
		constant.NewInt(c.int64Ty, int64(desc)),
		constant.NewInt(c.int64Ty, int64(payload)))
}

// unpackStruct explodes an aggregate call result into its elements.
func unpackStruct(b *ir.Block, v value.Value) []value.Value {
	st := v.Type().(*types.StructType)
	out := make([]value.Value, len(st.Fields))
	for i := range st.Fields {
		out[i] = b.NewExtractValue(v, uint64(i))
	}
	return out
}

// aggregateRet terminates the block with a multi-value return, packing the
// values into the function's struct return type.
func aggregateRet(b *ir.Block, retTy types.Type, vals []value.Value) {
	var agg value.Value = constant.NewUndef(retTy)
	for i, v := range vals {
		agg = b.NewInsertValue(agg, v, uint64(i))
	}
	b.NewRet(agg)
}
