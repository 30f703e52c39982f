package symmetry

import "testing"

// c2v builds the C2v point group: A1, A2, B1, B2 with A1 totally
// symmetric, every irrep self-inverse, and the standard Klein-four
// multiplication table.
func c2v(t *testing.T) *Group {
	t.Helper()
	names := []string{"A1", "A2", "B1", "B2"}
	mul := [][]Irrep{
		{0, 1, 2, 3},
		{1, 0, 3, 2},
		{2, 3, 0, 1},
		{3, 2, 1, 0},
	}
	g, err := NewAbelian(names, mul, 0)
	if err != nil {
		t.Fatalf("NewAbelian: %v", err)
	}
	return g
}

func TestMulAndInverse(t *testing.T) {
	g := c2v(t)
	for i := 0; i < g.NumIrreps(); i++ {
		if g.Inverse(Irrep(i)) != Irrep(i) {
			t.Errorf("irrep %d: abelian real group irreps must be self-inverse", i)
		}
		if g.Mul(Irrep(i), g.TotallySymmetricIrrep()) != Irrep(i) {
			t.Errorf("irrep %d * totsym != irrep %d", i, i)
		}
	}
	if g.Mul(1, 2) != 3 { // A2 x B1 = B2
		t.Errorf("A2 x B1 = %s, want B2", g.IrrepName(g.Mul(1, 2)))
	}
}

func TestContainsTotSym(t *testing.T) {
	g := c2v(t)
	cases := []struct {
		irreps []Irrep
		want   bool
	}{
		{[]Irrep{0, 0}, true},
		{[]Irrep{1, 2}, false},
		{[]Irrep{1, 1}, true},
		{[]Irrep{1, 2, 3, 0}, true}, // A2*B1*B2*A1 = A1
		{[]Irrep{1, 1, 1, 1}, true},
		{[]Irrep{1, 1, 1, 0}, false},
	}
	for _, c := range cases {
		if got := g.ContainsTotSym(c.irreps...); got != c.want {
			t.Errorf("ContainsTotSym(%v) = %v, want %v", c.irreps, got, c.want)
		}
	}
}

func TestIrrepNameRoundTrip(t *testing.T) {
	g := c2v(t)
	for i := 0; i < g.NumIrreps(); i++ {
		name := g.IrrepName(Irrep(i))
		got, err := g.IrrepIndex(name)
		if err != nil {
			t.Fatalf("IrrepIndex(%q): %v", name, err)
		}
		if got != Irrep(i) {
			t.Errorf("round trip for %q: got %d, want %d", name, got, i)
		}
	}
	if _, err := g.IrrepIndex("nope"); err == nil {
		t.Error("IrrepIndex(\"nope\") should fail")
	}
}

func TestNewRejectsBadTable(t *testing.T) {
	names := []string{"A", "B"}
	mul := [][]Irrep{{0, 1}} // wrong row count
	if _, err := NewAbelian(names, mul, 0); err == nil {
		t.Error("expected error for malformed multiplication table")
	}
}
