package wasm

import (
	"bytes"
	"math"
	"testing"
)

func TestLEB128uRoundTrip(t *testing.T) {
	values := []uint32{0, 1, 127, 128, 255, 624485, math.MaxUint32}
	for _, v := range values {
		var buf bytes.Buffer
		WriteLEB128u(&buf, v)
		got, err := ReadLEB128u(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("ReadLEB128u(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d: got %d", v, got)
		}
	}
}

func TestLEB128sRoundTrip(t *testing.T) {
	values := []int32{0, 1, -1, 63, -64, 64, -65, math.MaxInt32, math.MinInt32}
	for _, v := range values {
		var buf bytes.Buffer
		WriteLEB128s(&buf, v)
		got, err := ReadLEB128s(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("ReadLEB128s(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d: got %d", v, got)
		}
	}
}

func TestLEB128s64HeapTypes(t *testing.T) {
	// Abstract heap types are encoded as small negative s33 values.
	values := []int64{HeapTypeFunc, HeapTypeExtern, HeapTypeNone, HeapTypeI31, -64}
	for _, v := range values {
		var buf bytes.Buffer
		WriteLEB128s64(&buf, v)
		got, err := ReadLEB128s64(bytes.NewReader(buf.Bytes()))
		if err != nil {
			t.Fatalf("ReadLEB128s64(%d): %v", v, err)
		}
		if got != v {
			t.Errorf("round trip %d: got %d", v, got)
		}
	}
}

func TestLEB128uOverflow(t *testing.T) {
	data := []byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x01}
	if _, err := ReadLEB128u(bytes.NewReader(data)); err == nil {
		t.Error("expected overflow error")
	}
}

func TestFloatRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	WriteFloat32(&buf, 3.5)
	WriteFloat64(&buf, math.Copysign(0, -1))
	r := bytes.NewReader(buf.Bytes())
	f32v, err := ReadFloat32(r)
	if err != nil || f32v != 3.5 {
		t.Errorf("ReadFloat32: %v, %v", f32v, err)
	}
	f64v, err := ReadFloat64(r)
	if err != nil || math.Signbit(f64v) != true || f64v != 0 {
		t.Errorf("ReadFloat64: expected -0.0, got %v, %v", f64v, err)
	}
}
