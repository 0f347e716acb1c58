package wasm

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/wippyai/wasm-aot/wasm/internal/binary"
)

// Parsing errors returned by ParseModule.
var (
	ErrInvalidMagic   = errors.New("invalid wasm magic number")
	ErrInvalidVersion = errors.New("invalid wasm version")
)

// ParseModule parses a WebAssembly binary module. The result is structurally
// decoded but not validated.
func ParseModule(data []byte) (*Module, error) {
	r := binary.NewReader(bytes.NewReader(data))

	magic, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if magic != Magic {
		return nil, ErrInvalidMagic
	}

	version, err := r.ReadU32LE()
	if err != nil {
		return nil, r.WrapError("header", err)
	}
	if version != Version {
		return nil, ErrInvalidVersion
	}

	m := &Module{}
	for {
		id, err := r.ReadByte()
		if err != nil {
			break // EOF ends the section stream
		}
		size, err := r.ReadU32()
		if err != nil {
			return nil, r.WrapError("section size", err)
		}
		payload, err := r.ReadBytes(int(size))
		if err != nil {
			return nil, r.WrapError("section payload", err)
		}
		sr := binary.NewReader(bytes.NewReader(payload))

		switch id {
		case SectionCustom:
			// Custom sections carry no semantics for compilation.
		case SectionType:
			err = parseTypeSection(sr, m)
		case SectionImport:
			err = parseImportSection(sr, m)
		case SectionFunction:
			err = parseFunctionSection(sr, m)
		case SectionTable:
			err = parseTableSection(sr, m)
		case SectionMemory:
			err = parseMemorySection(sr, m)
		case SectionGlobal:
			err = parseGlobalSection(sr, m)
		case SectionExport:
			err = parseExportSection(sr, m)
		case SectionStart:
			err = parseStartSection(sr, m)
		case SectionElement:
			err = parseElementSection(sr, m)
		case SectionCode:
			err = parseCodeSection(sr, m)
		case SectionData:
			err = parseDataSection(sr, m)
		case SectionDataCount:
			err = parseDataCountSection(sr, m)
		default:
			err = fmt.Errorf("unknown section id %d", id)
		}
		if err != nil {
			return nil, err
		}
	}

	return m, nil
}

func parseTypeSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return r.WrapError("type section", err)
	}
	for i := uint32(0); i < count; i++ {
		form, err := r.ReadByte()
		if err != nil {
			return r.WrapError("type section", err)
		}
		switch form {
		case RecTypeByte:
			// Rec group: inline expansion into the flat index space.
			n, err := r.ReadU32()
			if err != nil {
				return r.WrapError("rec type", err)
			}
			for j := uint32(0); j < n; j++ {
				inner, err := r.ReadByte()
				if err != nil {
					return r.WrapError("rec type", err)
				}
				st, err := readSubType(r, inner)
				if err != nil {
					return err
				}
				m.Types = append(m.Types, st)
			}
		default:
			st, err := readSubType(r, form)
			if err != nil {
				return err
			}
			m.Types = append(m.Types, st)
		}
	}
	return nil
}

func readSubType(r *binary.Reader, form byte) (SubType, error) {
	st := SubType{Final: true}
	switch form {
	case SubTypeByte, SubFinalByte:
		st.Final = form == SubFinalByte
		n, err := r.ReadU32()
		if err != nil {
			return st, r.WrapError("sub type", err)
		}
		st.Parents = make([]uint32, n)
		for i := uint32(0); i < n; i++ {
			st.Parents[i], err = r.ReadU32()
			if err != nil {
				return st, r.WrapError("sub type", err)
			}
		}
		inner, err := r.ReadByte()
		if err != nil {
			return st, r.WrapError("sub type", err)
		}
		ct, err := readCompType(r, inner)
		if err != nil {
			return st, err
		}
		st.CompType = ct
		return st, nil
	default:
		ct, err := readCompType(r, form)
		if err != nil {
			return st, err
		}
		st.CompType = ct
		return st, nil
	}
}

func readCompType(r *binary.Reader, form byte) (CompType, error) {
	switch form {
	case FuncTypeByte:
		ft, err := readFuncType(r)
		if err != nil {
			return CompType{}, err
		}
		return CompType{Kind: CompKindFunc, Func: &ft}, nil
	case StructTypeByte:
		n, err := r.ReadU32()
		if err != nil {
			return CompType{}, r.WrapError("struct type", err)
		}
		fields := make([]FieldType, n)
		for i := uint32(0); i < n; i++ {
			fields[i], err = readFieldType(r)
			if err != nil {
				return CompType{}, err
			}
		}
		return CompType{Kind: CompKindStruct, Struct: &StructType{Fields: fields}}, nil
	case ArrayTypeByte:
		elem, err := readFieldType(r)
		if err != nil {
			return CompType{}, err
		}
		return CompType{Kind: CompKindArray, Array: &ArrayType{Element: elem}}, nil
	default:
		return CompType{}, fmt.Errorf("unknown composite type form 0x%02x", form)
	}
}

func readFuncType(r *binary.Reader) (FuncType, error) {
	var ft FuncType
	pn, err := r.ReadU32()
	if err != nil {
		return ft, r.WrapError("func type", err)
	}
	ft.Params = make([]ValueType, pn)
	for i := uint32(0); i < pn; i++ {
		ft.Params[i], err = readValueType(r)
		if err != nil {
			return ft, err
		}
	}
	rn, err := r.ReadU32()
	if err != nil {
		return ft, r.WrapError("func type", err)
	}
	ft.Results = make([]ValueType, rn)
	for i := uint32(0); i < rn; i++ {
		ft.Results[i], err = readValueType(r)
		if err != nil {
			return ft, err
		}
	}
	return ft, nil
}

func readValueType(r *binary.Reader) (ValueType, error) {
	b, err := r.ReadByte()
	if err != nil {
		return ValueType{}, r.WrapError("value type", err)
	}
	switch ValType(b) {
	case ValI32, ValI64, ValF32, ValF64, ValV128:
		return NumType(ValType(b)), nil
	case ValRefNull, ValRef:
		ht, err := r.ReadS33()
		if err != nil {
			return ValueType{}, r.WrapError("heap type", err)
		}
		return RefValueType(ValType(b) == ValRefNull, ht), nil
	default:
		// Shorthand reference types: funcref, externref, anyref, ...
		if b >= 0x6A && b <= 0x73 {
			ht := int64(b) - 0x80
			return RefValueType(true, ht), nil
		}
		return ValueType{}, fmt.Errorf("unknown value type 0x%02x", b)
	}
}

func readFieldType(r *binary.Reader) (FieldType, error) {
	var ft FieldType
	b, err := r.ReadByte()
	if err != nil {
		return ft, r.WrapError("field type", err)
	}
	switch b {
	case PackedI8, PackedI16:
		ft.Type = StorageType{Packed: b}
	default:
		// Re-decode as a value type; references carry a heap type.
		switch ValType(b) {
		case ValI32, ValI64, ValF32, ValF64, ValV128:
			ft.Type = StorageType{Val: NumType(ValType(b))}
		case ValRefNull, ValRef:
			ht, err := r.ReadS33()
			if err != nil {
				return ft, r.WrapError("field heap type", err)
			}
			ft.Type = StorageType{Val: RefValueType(ValType(b) == ValRefNull, ht)}
		default:
			if b >= 0x6A && b <= 0x73 {
				ft.Type = StorageType{Val: RefValueType(true, int64(b)-0x80)}
			} else {
				return ft, fmt.Errorf("unknown storage type 0x%02x", b)
			}
		}
	}
	mut, err := r.ReadByte()
	if err != nil {
		return ft, r.WrapError("field mutability", err)
	}
	ft.Mutable = mut == FieldMutable
	return ft, nil
}

func parseImportSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return r.WrapError("import section", err)
	}
	for i := uint32(0); i < count; i++ {
		mod, err := r.ReadName()
		if err != nil {
			return err
		}
		name, err := r.ReadName()
		if err != nil {
			return err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return r.WrapError("import kind", err)
		}
		imp := Import{Module: mod, Name: name, Desc: ImportDesc{Kind: kind}}
		switch kind {
		case KindFunc:
			imp.Desc.TypeIdx, err = r.ReadU32()
		case KindTable:
			var tt TableType
			tt, err = readTableType(r)
			imp.Desc.Table = &tt
		case KindMemory:
			var lim Limits
			lim, err = readLimits(r)
			imp.Desc.Memory = &MemoryType{Limits: lim}
		case KindGlobal:
			var gt GlobalType
			gt, err = readGlobalType(r)
			imp.Desc.Global = &gt
		default:
			err = fmt.Errorf("unknown import kind 0x%02x", kind)
		}
		if err != nil {
			return err
		}
		m.Imports = append(m.Imports, imp)
	}
	return nil
}

func parseFunctionSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return r.WrapError("function section", err)
	}
	m.Funcs = make([]uint32, count)
	for i := uint32(0); i < count; i++ {
		m.Funcs[i], err = r.ReadU32()
		if err != nil {
			return r.WrapError("function section", err)
		}
	}
	return nil
}

func readTableType(r *binary.Reader) (TableType, error) {
	var tt TableType
	elem, err := readValueType(r)
	if err != nil {
		return tt, err
	}
	tt.ElemType = elem
	tt.Limits, err = readLimits(r)
	return tt, err
}

func readLimits(r *binary.Reader) (Limits, error) {
	var lim Limits
	flags, err := r.ReadByte()
	if err != nil {
		return lim, r.WrapError("limits", err)
	}
	lim.Shared = flags&0x02 != 0
	min, err := r.ReadU64()
	if err != nil {
		return lim, r.WrapError("limits", err)
	}
	lim.Min = min
	if flags&0x01 != 0 {
		max, err := r.ReadU64()
		if err != nil {
			return lim, r.WrapError("limits", err)
		}
		lim.Max = &max
	}
	return lim, nil
}

func readGlobalType(r *binary.Reader) (GlobalType, error) {
	var gt GlobalType
	vt, err := readValueType(r)
	if err != nil {
		return gt, err
	}
	gt.ValType = vt
	mut, err := r.ReadByte()
	if err != nil {
		return gt, r.WrapError("global mutability", err)
	}
	gt.Mutable = mut == 0x01
	return gt, nil
}

func parseTableSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return r.WrapError("table section", err)
	}
	for i := uint32(0); i < count; i++ {
		tt, err := readTableType(r)
		if err != nil {
			return err
		}
		m.Tables = append(m.Tables, tt)
	}
	return nil
}

func parseMemorySection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return r.WrapError("memory section", err)
	}
	for i := uint32(0); i < count; i++ {
		lim, err := readLimits(r)
		if err != nil {
			return err
		}
		m.Memories = append(m.Memories, MemoryType{Limits: lim})
	}
	return nil
}

func parseGlobalSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return r.WrapError("global section", err)
	}
	for i := uint32(0); i < count; i++ {
		gt, err := readGlobalType(r)
		if err != nil {
			return err
		}
		init, err := readInitExpr(r)
		if err != nil {
			return err
		}
		m.Globals = append(m.Globals, Global{Type: gt, Init: init})
	}
	return nil
}

// readInitExpr reads raw constant-expression bytes up to and including the
// terminating end opcode.
func readInitExpr(r *binary.Reader) ([]byte, error) {
	var buf bytes.Buffer
	depth := 0
	for {
		b, err := r.ReadByte()
		if err != nil {
			return nil, r.WrapError("init expr", err)
		}
		buf.WriteByte(b)
		switch b {
		case OpBlock, OpLoop, OpIf:
			depth++
		case OpEnd:
			if depth == 0 {
				return buf.Bytes(), nil
			}
			depth--
		case OpI32Const:
			v, err := ReadLEB128s(r)
			if err != nil {
				return nil, err
			}
			WriteLEB128s(&buf, v)
		case OpI64Const, OpRefNull:
			v, err := ReadLEB128s64(r)
			if err != nil {
				return nil, err
			}
			WriteLEB128s64(&buf, v)
		case OpF32Const:
			v, err := ReadFloat32(r)
			if err != nil {
				return nil, err
			}
			WriteFloat32(&buf, v)
		case OpF64Const:
			v, err := ReadFloat64(r)
			if err != nil {
				return nil, err
			}
			WriteFloat64(&buf, v)
		case OpGlobalGet, OpRefFunc:
			v, err := ReadLEB128u(r)
			if err != nil {
				return nil, err
			}
			WriteLEB128u(&buf, v)
		}
	}
}

func parseExportSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return r.WrapError("export section", err)
	}
	for i := uint32(0); i < count; i++ {
		name, err := r.ReadName()
		if err != nil {
			return err
		}
		kind, err := r.ReadByte()
		if err != nil {
			return r.WrapError("export kind", err)
		}
		idx, err := r.ReadU32()
		if err != nil {
			return r.WrapError("export index", err)
		}
		m.Exports = append(m.Exports, Export{Name: name, Kind: kind, Idx: idx})
	}
	return nil
}

func parseStartSection(r *binary.Reader, m *Module) error {
	idx, err := r.ReadU32()
	if err != nil {
		return r.WrapError("start section", err)
	}
	m.Start = &idx
	return nil
}

func parseElementSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return r.WrapError("element section", err)
	}
	for i := uint32(0); i < count; i++ {
		flags, err := r.ReadU32()
		if err != nil {
			return r.WrapError("element flags", err)
		}
		elem := Element{Flags: flags}

		if flags&0x02 != 0 && flags&0x01 == 0 {
			elem.TableIdx, err = r.ReadU32()
			if err != nil {
				return err
			}
		}
		if flags&0x01 == 0 {
			elem.Offset, err = readInitExpr(r)
			if err != nil {
				return err
			}
		}
		if flags&0x04 == 0 {
			// elemkind + vec(funcidx)
			if flags&0x03 != 0 {
				if _, err := r.ReadByte(); err != nil {
					return r.WrapError("element kind", err)
				}
			}
			n, err := r.ReadU32()
			if err != nil {
				return err
			}
			elem.FuncIdxs = make([]uint32, n)
			for j := uint32(0); j < n; j++ {
				elem.FuncIdxs[j], err = r.ReadU32()
				if err != nil {
					return err
				}
			}
		} else {
			// reftype + vec(expr)
			if flags&0x03 != 0 {
				vt, err := readValueType(r)
				if err != nil {
					return err
				}
				elem.RefType = &RefType{Nullable: vt.Ref.Nullable, HeapType: vt.Ref.HeapType}
			}
			n, err := r.ReadU32()
			if err != nil {
				return err
			}
			elem.Exprs = make([][]byte, n)
			for j := uint32(0); j < n; j++ {
				elem.Exprs[j], err = readInitExpr(r)
				if err != nil {
					return err
				}
			}
		}
		m.Elements = append(m.Elements, elem)
	}
	return nil
}

func parseCodeSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return r.WrapError("code section", err)
	}
	for i := uint32(0); i < count; i++ {
		size, err := r.ReadU32()
		if err != nil {
			return r.WrapError("code entry size", err)
		}
		body, err := r.ReadBytes(int(size))
		if err != nil {
			return r.WrapError("code entry", err)
		}
		br := binary.NewReader(bytes.NewReader(body))
		ln, err := br.ReadU32()
		if err != nil {
			return br.WrapError("locals", err)
		}
		fb := FuncBody{Locals: make([]LocalEntry, ln)}
		for j := uint32(0); j < ln; j++ {
			cnt, err := br.ReadU32()
			if err != nil {
				return br.WrapError("locals", err)
			}
			vt, err := readValueType(br)
			if err != nil {
				return err
			}
			fb.Locals[j] = LocalEntry{Count: cnt, Type: vt}
		}
		fb.Code, err = br.ReadRemaining()
		if err != nil {
			return br.WrapError("code body", err)
		}
		m.Code = append(m.Code, fb)
	}
	return nil
}

func parseDataSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return r.WrapError("data section", err)
	}
	for i := uint32(0); i < count; i++ {
		flags, err := r.ReadU32()
		if err != nil {
			return r.WrapError("data flags", err)
		}
		seg := DataSegment{Flags: flags}
		if flags == 2 {
			seg.MemIdx, err = r.ReadU32()
			if err != nil {
				return err
			}
		}
		if flags != 1 {
			seg.Offset, err = readInitExpr(r)
			if err != nil {
				return err
			}
		}
		n, err := r.ReadU32()
		if err != nil {
			return err
		}
		seg.Init, err = r.ReadBytes(int(n))
		if err != nil {
			return err
		}
		m.Data = append(m.Data, seg)
	}
	return nil
}

func parseDataCountSection(r *binary.Reader, m *Module) error {
	count, err := r.ReadU32()
	if err != nil {
		return r.WrapError("data count section", err)
	}
	m.DataCount = &count
	return nil
}
