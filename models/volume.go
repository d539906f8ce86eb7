package models

// Shape 测量体形状
type Shape string

const (
	Cylinder Shape = "cylinder"
	Cone     Shape = "conic"
	Sphere   Shape = "sphere"
)

// VolumeSpec 测量体定义，Sphere 忽略 Height
type VolumeSpec struct {
	Shape  Shape   `json:"mode"`
	Radius float64 `json:"radius"`
	Height float64 `json:"height"`
}
