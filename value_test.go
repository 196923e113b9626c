package gaffa

import "testing"

func TestValueRoundtrip(t *testing.T) {
	if !IsNil(Nil) {
		t.Fatal("Nil must report IsNil")
	}
	if IsNil(Xnil) || !IsXnil(Xnil) {
		t.Fatal("Xnil must be distinct from Nil")
	}
	if SIntValue(-7).AsSInt() != -7 {
		t.Fatal("sint roundtrip")
	}
	if FloatValue(3.5).AsFloat() != 3.5 {
		t.Fatal("float roundtrip")
	}
	if !BoolValue(true).AsBool() || BoolValue(false).AsBool() {
		t.Fatal("bool roundtrip")
	}
}

func TestValueEqualHeapByIdentity(t *testing.T) {
	alc := allocator{fn: DefaultAllocator}
	gc := newGC(alc, discardLogger())
	sp := newStringPool(gc, alc, 64)
	gc.bindStrings(sp)

	a := newTable(gc, sp, KindAny)
	b := newTable(gc, sp, KindAny)
	va := objectValue(KindTable, a)
	vb := objectValue(KindTable, b)
	if Equal(va, va) == false {
		t.Fatal("identical object must be Equal to itself")
	}
	if Equal(va, vb) {
		t.Fatal("distinct objects of the same kind must not be Equal")
	}
}
