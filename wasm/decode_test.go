package wasm

import (
	"bytes"
	"testing"
)

// section builds one section with the given id and payload.
func section(id byte, payload []byte) []byte {
	var buf bytes.Buffer
	buf.WriteByte(id)
	WriteLEB128u(&buf, uint32(len(payload)))
	buf.Write(payload)
	return buf.Bytes()
}

func moduleBytes(sections ...[]byte) []byte {
	out := []byte{0x00, 0x61, 0x73, 0x6D, 0x01, 0x00, 0x00, 0x00}
	for _, s := range sections {
		out = append(out, s...)
	}
	return out
}

func TestParseModuleHeader(t *testing.T) {
	m, err := ParseModule(moduleBytes())
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	if m.Validated {
		t.Error("freshly parsed modules must not claim validation")
	}

	if _, err := ParseModule([]byte{0x00, 0x61, 0x73, 0x6E, 0x01, 0x00, 0x00, 0x00}); err != ErrInvalidMagic {
		t.Errorf("bad magic: got %v", err)
	}
	if _, err := ParseModule([]byte{0x00, 0x61, 0x73, 0x6D, 0x02, 0x00, 0x00, 0x00}); err != ErrInvalidVersion {
		t.Errorf("bad version: got %v", err)
	}
}

func TestParseSimpleFunction(t *testing.T) {
	data := moduleBytes(
		section(SectionType, []byte{0x01, 0x60, 0x01, 0x7F, 0x01, 0x7F}),
		section(SectionFunction, []byte{0x01, 0x00}),
		section(SectionExport, append([]byte{0x01, 0x03}, append([]byte("run"), 0x00, 0x00)...)),
		section(SectionCode, []byte{0x01, 0x04, 0x00, 0x20, 0x00, 0x0B}),
	)
	m, err := ParseModule(data)
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}

	if len(m.Types) != 1 {
		t.Fatalf("types = %d, want 1", len(m.Types))
	}
	ft := m.FuncTypeAt(0)
	if ft == nil {
		t.Fatal("type 0 should be a function type")
	}
	if len(ft.Params) != 1 || ft.Params[0].Kind != ValI32 {
		t.Errorf("params = %+v, want [i32]", ft.Params)
	}
	if len(ft.Results) != 1 || ft.Results[0].Kind != ValI32 {
		t.Errorf("results = %+v, want [i32]", ft.Results)
	}

	if len(m.Funcs) != 1 || m.Funcs[0] != 0 {
		t.Errorf("funcs = %v", m.Funcs)
	}
	if len(m.Exports) != 1 || m.Exports[0].Name != "run" || m.Exports[0].Kind != KindFunc {
		t.Errorf("exports = %+v", m.Exports)
	}
	if len(m.Code) != 1 {
		t.Fatalf("code entries = %d", len(m.Code))
	}
	instrs, err := DecodeInstructions(m.Code[0].Code)
	if err != nil {
		t.Fatalf("DecodeInstructions: %v", err)
	}
	if len(instrs) != 2 || instrs[0].Opcode != OpLocalGet || instrs[1].Opcode != OpEnd {
		t.Errorf("body = %+v", instrs)
	}
}

func TestParseStructType(t *testing.T) {
	// struct { i8 mut }
	data := moduleBytes(
		section(SectionType, []byte{0x01, 0x5F, 0x01, 0x78, 0x01}),
	)
	m, err := ParseModule(data)
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	ct := m.CompositeType(0)
	if ct == nil || ct.Kind != CompKindStruct {
		t.Fatalf("type 0 = %+v, want struct", ct)
	}
	fields := ct.Struct.Fields
	if len(fields) != 1 || fields[0].Type.Packed != PackedI8 || !fields[0].Mutable {
		t.Errorf("fields = %+v", fields)
	}
}

func TestParseRecGroup(t *testing.T) {
	// rec group with two func types expands into two flat entries.
	data := moduleBytes(
		section(SectionType, []byte{
			0x01,       // one type entry
			0x4E, 0x02, // rec, two subtypes
			0x60, 0x00, 0x00, // func () -> ()
			0x60, 0x00, 0x01, 0x7F, // func () -> (i32)
		}),
	)
	m, err := ParseModule(data)
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	if len(m.Types) != 2 {
		t.Fatalf("flat types = %d, want 2", len(m.Types))
	}
	if m.FuncTypeAt(1) == nil || len(m.FuncTypeAt(1).Results) != 1 {
		t.Error("second rec member decoded wrong")
	}
}

func TestParseGlobalsAndMemory(t *testing.T) {
	data := moduleBytes(
		section(SectionMemory, []byte{0x01, 0x00, 0x01}),                             // one memory, min 1
		section(SectionGlobal, []byte{0x01, 0x7F, 0x01, 0x41, 0x2A, 0x0B}),           // mut i32 = 42
		section(SectionData, []byte{0x01, 0x00, 0x41, 0x00, 0x0B, 0x02, 0xAB, 0xCD}), // active, 2 bytes
	)
	m, err := ParseModule(data)
	if err != nil {
		t.Fatalf("ParseModule: %v", err)
	}
	if len(m.Memories) != 1 || m.Memories[0].Limits.Min != 1 {
		t.Errorf("memories = %+v", m.Memories)
	}
	if len(m.Globals) != 1 || !m.Globals[0].Type.Mutable {
		t.Errorf("globals = %+v", m.Globals)
	}
	if len(m.Globals[0].Init) == 0 || m.Globals[0].Init[0] != OpI32Const {
		t.Errorf("global init = %v", m.Globals[0].Init)
	}
	if len(m.Data) != 1 || len(m.Data[0].Init) != 2 {
		t.Errorf("data = %+v", m.Data)
	}
}

func TestAddTypeDeduplicates(t *testing.T) {
	m := &Module{}
	ft := FuncType{Params: []ValueType{NumType(ValI32)}}
	a := m.AddType(ft)
	b := m.AddType(ft)
	if a != b {
		t.Errorf("AddType should reuse equal types: %d vs %d", a, b)
	}
	c := m.AddType(FuncType{})
	if c == a {
		t.Error("distinct types should get distinct indices")
	}
}

func TestFlatLocals(t *testing.T) {
	body := FuncBody{Locals: []LocalEntry{
		{Count: 2, Type: NumType(ValI32)},
		{Count: 1, Type: NumType(ValF64)},
	}}
	flat := body.FlatLocals()
	if len(flat) != 3 {
		t.Fatalf("flat locals = %d, want 3", len(flat))
	}
	if flat[0].Kind != ValI32 || flat[2].Kind != ValF64 {
		t.Errorf("flat locals = %+v", flat)
	}
}
