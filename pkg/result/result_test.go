package result

import (
	"slices"
	"testing"
)

func samples() []RoutingResult {
	return []RoutingResult{
		OK(),
		Failed("l1", "l2"),
		Failed("l2", "l3"),
		PadCollision("l4"),
		Collided("b", "a"),
		Collided("c", "d"),
		Merge(Failed("l9"), Collided("x", "y")),
	}
}

func TestMergeUnionsFailedLinks(t *testing.T) {
	a := Failed("l1", "l2")
	b := Failed("l2", "l3")
	got := Merge(a, b).FailedLinks()
	if want := []string{"l1", "l2", "l3"}; !slices.Equal(got, want) {
		t.Errorf("Merge().FailedLinks() = %v, want %v", got, want)
	}
}

func TestMergeCommutative(t *testing.T) {
	for i, a := range samples() {
		for j, b := range samples() {
			if ab, ba := Merge(a, b), Merge(b, a); !ab.Equal(ba) {
				t.Errorf("Merge(%d,%d) = %v, Merge(%d,%d) = %v", i, j, ab, j, i, ba)
			}
		}
	}
}

func TestMergeAssociative(t *testing.T) {
	s := samples()
	for i, a := range s {
		for j, b := range s {
			for k, c := range s {
				left := Merge(Merge(a, b), c)
				right := Merge(a, Merge(b, c))
				if !left.Equal(right) {
					t.Errorf("(%d+%d)+%d = %v, %d+(%d+%d) = %v", i, j, k, left, i, j, k, right)
				}
			}
		}
	}
}

func TestMergeIdentity(t *testing.T) {
	for i, a := range samples() {
		if got := Merge(a, OK()); !got.Equal(a) {
			t.Errorf("Merge(%d, OK) = %v, want %v", i, got, a)
		}
	}
}

func TestMergeCollisionPair(t *testing.T) {
	got := Merge(Collided("c", "d"), Collided("b", "a"))
	if got.Collision == nil || *got.Collision != (Pair{A: "a", B: "b"}) {
		t.Errorf("Collision = %v, want (a,b)", got.Collision)
	}
	if !got.HasColorCollision() {
		t.Error("HasColorCollision() = false, want true")
	}
}

func TestOnlyPadCollisions(t *testing.T) {
	tests := []struct {
		name string
		r    RoutingResult
		want bool
	}{
		{"clean", OK(), false},
		{"pad only", PadCollision("l1", "l2"), true},
		{"mixed", Merge(PadCollision("l1"), Failed("l2")), false},
		{"plain failure", Failed("l1"), false},
	}
	for _, tt := range tests {
		if got := tt.r.OnlyPadCollisions(); got != tt.want {
			t.Errorf("%s: OnlyPadCollisions() = %v, want %v", tt.name, got, tt.want)
		}
	}
}

func TestWorse(t *testing.T) {
	tests := []struct {
		name string
		a, b RoutingResult
		want bool
	}{
		{"problem vs clean", Failed("l1"), OK(), true},
		{"clean vs problem", OK(), Failed("l1"), false},
		{"more failures", Failed("l1", "l2"), Failed("l3"), true},
		{"collision vs clean", Collided("a", "b"), OK(), true},
		{"equal", Failed("l1"), Failed("l2"), false},
	}
	for _, tt := range tests {
		if got := tt.a.Worse(tt.b); got != tt.want {
			t.Errorf("%s: Worse() = %v, want %v", tt.name, got, tt.want)
		}
	}
}
