package geom

import "testing"

func TestSnapValue(t *testing.T) {
	tests := []struct {
		in, want float64
	}{
		{0, 0},
		{4, 0},
		{5, 10},
		{14.9, 10},
		{-4, 0},
		{-6, -10},
		{123, 120},
	}
	for _, tt := range tests {
		if got := SnapValue(tt.in); got != tt.want {
			t.Errorf("SnapValue(%v) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestHeading(t *testing.T) {
	tests := []struct {
		name string
		a, b Point
		want Direction
		ok   bool
	}{
		{"east", Pt(0, 0), Pt(30, 0), East, true},
		{"west", Pt(30, 0), Pt(0, 0), West, true},
		{"south", Pt(0, 0), Pt(0, 20), South, true},
		{"north", Pt(0, 20), Pt(0, 0), North, true},
		{"diagonal", Pt(0, 0), Pt(10, 10), North, false},
		{"same", Pt(5, 5), Pt(5, 5), North, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Heading(tt.a, tt.b)
			if ok != tt.ok || (ok && got != tt.want) {
				t.Errorf("Heading() = %v,%v, want %v,%v", got, ok, tt.want, tt.ok)
			}
		})
	}
}

func TestOnSegment(t *testing.T) {
	f, ok := OnSegment(Pt(25, 0), Pt(0, 0), Pt(100, 0))
	if !ok || f != 0.25 {
		t.Errorf("OnSegment() = %v,%v, want 0.25,true", f, ok)
	}
	if _, ok := OnSegment(Pt(25, 10), Pt(0, 0), Pt(100, 0)); ok {
		t.Error("OnSegment() accepted an off-segment point")
	}
	if _, ok := OnSegment(Pt(0, 0), Pt(0, 0), Pt(0, 0)); !ok {
		t.Error("OnSegment() rejected a point on a degenerate segment")
	}
}

func TestRectProjectRoundTrip(t *testing.T) {
	r := R(100, 50, 300, 150)
	points := []Point{
		Pt(200, 40),  // above top
		Pt(310, 100), // right of right
		Pt(150, 160), // below bottom
		Pt(90, 70),   // left of left
		Pt(120, 60),  // inside near top-left
		Pt(200, 100), // center
	}
	for _, p := range points {
		side, frac, off := r.Project(p)
		if got := r.Unproject(side, frac, off); !got.Eq(p) {
			t.Errorf("Unproject(Project(%v)) = %v via %v/%v/%v", p, got, side, frac, off)
		}
	}
}

func TestRectProjectSide(t *testing.T) {
	r := R(0, 0, 100, 100)
	side, frac, off := r.Project(Pt(50, -20))
	if side != Top || frac != 0.5 || off != 20 {
		t.Errorf("Project() = %v,%v,%v, want top,0.5,20", side, frac, off)
	}
	side, frac, off = r.Project(Pt(130, 25))
	if side != Right || frac != 0.25 || off != 30 {
		t.Errorf("Project() = %v,%v,%v, want right,0.25,30", side, frac, off)
	}
}

func TestRectSubtract(t *testing.T) {
	r := R(0, 0, 100, 100)
	parts := r.Subtract(R(25, 25, 75, 75))
	if len(parts) != 4 {
		t.Fatalf("Subtract() returned %d parts, want 4", len(parts))
	}
	var area float64
	for _, p := range parts {
		area += p.Width() * p.Height()
	}
	if area != 100*100-50*50 {
		t.Errorf("Subtract() area = %v, want %v", area, 100*100-50*50)
	}
	if got := r.Subtract(R(200, 200, 300, 300)); len(got) != 1 || got[0] != r {
		t.Errorf("Subtract() of disjoint rect = %v, want [%v]", got, r)
	}
}

func TestRectSnap(t *testing.T) {
	got := R(3, 12, 47, 58).Snap()
	want := R(0, 10, 50, 60)
	if got != want {
		t.Errorf("Snap() = %v, want %v", got, want)
	}
}

func TestRectDistance(t *testing.T) {
	r := R(0, 0, 10, 10)
	if d := r.Distance(Pt(5, 5)); d != 0 {
		t.Errorf("Distance(inside) = %v, want 0", d)
	}
	if d := r.Distance(Pt(20, 15)); d != 15 {
		t.Errorf("Distance(outside) = %v, want 15", d)
	}
}
