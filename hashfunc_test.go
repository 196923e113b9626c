package gaffa

import "testing"

func TestKeyHashDeterministic(t *testing.T) {
	a := keyHash([]byte("hello"))
	b := keyHash([]byte("hello"))
	if a != b {
		t.Fatal("keyHash must be deterministic for identical input")
	}
	c := keyHash([]byte("hellp"))
	if a == c {
		t.Fatal("keyHash collided trivially on differing input (unlucky but check the function)")
	}
}

func TestValueHashDistinguishesKind(t *testing.T) {
	a := valueHash(SIntValue(0))
	b := valueHash(UIntValue(0))
	if a == b {
		t.Fatal("valueHash should fold Kind into the hash, not just bits")
	}
}
