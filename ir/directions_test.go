package ir

import "testing"

func TestDirections(t *testing.T) {
	d := NewDirections(AdaptOut, AdaptNone, AdaptIn)

	if d.Len() != 3 {
		t.Fatalf("Len = %d, want 3", d.Len())
	}
	if d.Return() != AdaptOut {
		t.Errorf("Return = %v, want adapt-out", d.Return())
	}
	if d.Arg(1) != AdaptIn {
		t.Errorf("Arg(1) = %v, want adapt-in", d.Arg(1))
	}
	if d.String() != "ONI" {
		t.Errorf("String = %q, want ONI", d.String())
	}
	if d.AllNone() {
		t.Error("AllNone should be false")
	}
}

func TestDirectionsAllNone(t *testing.T) {
	if !NewDirections(AdaptNone).AllNone() {
		t.Error("return-only none set should be all none")
	}
	if !NewDirections(AdaptNone, AdaptNone, AdaptNone).AllNone() {
		t.Error("NNN should be all none")
	}
	if !(Directions{}).AllNone() {
		t.Error("zero value should be all none")
	}
	if NewDirections(AdaptNone, AdaptReinterpret).AllNone() {
		t.Error("NR should not be all none")
	}
}

func TestDirectionsComparable(t *testing.T) {
	seen := map[Directions]int{}
	seen[NewDirections(AdaptOut, AdaptIn)]++
	seen[NewDirections(AdaptOut, AdaptIn)]++
	seen[NewDirections(AdaptOut, AdaptOut)]++

	if len(seen) != 2 {
		t.Fatalf("expected 2 distinct sets, got %d", len(seen))
	}
	if seen[NewDirections(AdaptOut, AdaptIn)] != 2 {
		t.Error("structurally equal sets should share a key")
	}
}

func TestAdaptationString(t *testing.T) {
	cases := map[Adaptation]string{
		AdaptNone:        "none",
		AdaptIn:          "adapt-in",
		AdaptOut:         "adapt-out",
		AdaptReinterpret: "reinterpret",
		Adaptation('x'):  "invalid",
	}
	for a, want := range cases {
		if got := a.String(); got != want {
			t.Errorf("%c.String() = %q, want %q", byte(a), got, want)
		}
	}
}

func TestIsVirtual(t *testing.T) {
	open := &Method{ID: "A.f", Modality: Open, Overridable: true}
	final := &Method{ID: "A.g", Modality: Final}
	abstract := &Method{ID: "I.h", Modality: Abstract}

	if !NewCall(Undefined, open).IsVirtual() {
		t.Error("unqualified call to open method should be virtual")
	}
	if NewCall(Undefined, final).IsVirtual() {
		t.Error("call to final method should not be virtual")
	}
	if !NewCall(Undefined, abstract).IsVirtual() {
		t.Error("call to abstract method should be virtual")
	}
	qualified := NewCall(Undefined, open)
	qualified.Super = "A"
	if qualified.IsVirtual() {
		t.Error("super-qualified call should not be virtual")
	}
}
