package geometry

import (
	"errors"
	"math"
	"testing"

	"go-soilwater/models"
)

func TestParseShape(t *testing.T) {
	tests := []struct {
		tag  string
		want models.Shape
		err  error
	}{
		{"cylinder", models.Cylinder, nil},
		{"conic", models.Cone, nil},
		{"cone", models.Cone, nil},
		{" Sphere ", models.Sphere, nil},
		{"pyramid", "", models.ErrInvalidShape},
		{"", "", models.ErrInvalidShape},
	}
	for _, tt := range tests {
		t.Run(tt.tag, func(t *testing.T) {
			got, err := ParseShape(tt.tag)
			if !errors.Is(err, tt.err) {
				t.Fatalf("ParseShape(%q) error = %v, want %v", tt.tag, err, tt.err)
			}
			if got != tt.want {
				t.Errorf("ParseShape(%q) = %q, want %q", tt.tag, got, tt.want)
			}
		})
	}
}

func TestVolume(t *testing.T) {
	tests := []struct {
		name string
		spec models.VolumeSpec
		want float64
		err  error
	}{
		{"cylinder", models.VolumeSpec{Shape: models.Cylinder, Radius: 2, Height: 3}, 12 * math.Pi, nil},
		{"cone", models.VolumeSpec{Shape: models.Cone, Radius: 2, Height: 3}, 4 * math.Pi, nil},
		{"sphere ignores height", models.VolumeSpec{Shape: models.Sphere, Radius: 3}, 36 * math.Pi, nil},
		{"zero radius", models.VolumeSpec{Shape: models.Cylinder, Radius: 0, Height: 3}, 0, models.ErrValidation},
		{"negative height", models.VolumeSpec{Shape: models.Cone, Radius: 1, Height: -1}, 0, models.ErrValidation},
		{"nan radius", models.VolumeSpec{Shape: models.Sphere, Radius: math.NaN()}, 0, models.ErrValidation},
		{"unknown shape", models.VolumeSpec{Shape: "pyramid", Radius: 1, Height: 1}, 0, models.ErrInvalidShape},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Volume(tt.spec)
			if !errors.Is(err, tt.err) {
				t.Fatalf("Volume() error = %v, want %v", err, tt.err)
			}
			if math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("Volume() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestConeIsThirdOfCylinder(t *testing.T) {
	for _, r := range []float64{0.5, 1, 7.25} {
		for _, h := range []float64{0.1, 2, 40} {
			cyl, err := Volume(models.VolumeSpec{Shape: models.Cylinder, Radius: r, Height: h})
			if err != nil {
				t.Fatal(err)
			}
			cone, err := Volume(models.VolumeSpec{Shape: models.Cone, Radius: r, Height: h})
			if err != nil {
				t.Fatal(err)
			}
			if math.Abs(cone-cyl/3) > 1e-12*cyl {
				t.Errorf("r=%v h=%v: cone = %v, want %v", r, h, cone, cyl/3)
			}
		}
	}
}

func axis(lo, hi float64, n int) []float64 {
	out := make([]float64, n)
	for i := range out {
		out[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}
	return out
}

func TestMaskBoundaryInclusive(t *testing.T) {
	grid := models.SpatialGrid{DistanceAxis: axis(-2, 2, 5), DepthAxis: axis(-2, 2, 5)}
	mask, err := Mask(grid, 2)
	if err != nil {
		t.Fatalf("Mask() error = %v", err)
	}
	// 整数网格上 d²+z² <= 4 的点：(0,±2) (±2,0) (±1,±1) (0,±1) (±1,0) (0,0)
	if got := mask.Count(); got != 13 {
		t.Errorf("Count() = %d, want 13", got)
	}
	for _, c := range [][2]int{{0, 2}, {2, 0}, {4, 2}, {2, 4}} {
		if !mask.Included[c[0]][c[1]] {
			t.Errorf("boundary cell %v excluded", c)
		}
	}
	if mask.Included[0][0] {
		t.Error("corner cell (-2, -2) included")
	}
}

func TestMaskOutsideRadius(t *testing.T) {
	grid := models.SpatialGrid{DistanceAxis: axis(10, 20, 4), DepthAxis: axis(10, 20, 4)}
	mask, err := Mask(grid, 5)
	if err != nil {
		t.Fatalf("Mask() error = %v", err)
	}
	if got := mask.Count(); got != 0 {
		t.Errorf("Count() = %d, want 0", got)
	}
	if _, err := Mask(grid, 0); !errors.Is(err, models.ErrValidation) {
		t.Errorf("Mask(radius 0) error = %v, want ErrValidation", err)
	}
}

func TestCellVolume(t *testing.T) {
	grid := models.SpatialGrid{DistanceAxis: axis(0, 4, 5), DepthAxis: axis(0, 1, 3)}
	got, err := CellVolume(grid, 10)
	if err != nil {
		t.Fatalf("CellVolume() error = %v", err)
	}
	if math.Abs(got-5) > 1e-12 {
		t.Errorf("CellVolume() = %v, want 5", got)
	}
	if _, err := CellVolume(models.SpatialGrid{DistanceAxis: []float64{0}, DepthAxis: []float64{0}}, 1); !errors.Is(err, models.ErrValidation) {
		t.Errorf("CellVolume(1x1) error = %v, want ErrValidation", err)
	}
}
