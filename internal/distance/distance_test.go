package distance

import "testing"

func TestL2SqZero(t *testing.T) {
	v := []float32{1, 2, 3}
	if got := L2Sq(v, v); got != 0 {
		t.Fatalf("L2Sq(v, v) = %v, want 0", got)
	}
}

func TestL2SqKnown(t *testing.T) {
	a := []float32{0, 0}
	b := []float32{3, 4}
	if got := L2Sq(a, b); got != 25 {
		t.Fatalf("L2Sq(a, b) = %v, want 25", got)
	}
}

func TestL2SqPanicsOnLengthMismatch(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic on length mismatch")
		}
	}()
	L2Sq([]float32{1}, []float32{1, 2})
}

func TestL2SqGoAndGonumAgree(t *testing.T) {
	a := []float32{1, 2, 3, 4, 5}
	b := []float32{5, 4, 3, 2, 1}
	got := l2sqGo(a, b)
	want := l2sqGonum(a, b)
	if diff := got - want; diff > 1e-4 || diff < -1e-4 {
		t.Fatalf("l2sqGo=%v l2sqGonum=%v differ", got, want)
	}
}
