package dxf

import "math"

// Vec3 是三维点或方向。
type Vec3 struct {
	X, Y, Z float64
}

func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }
func (v Vec3) Scale(f float64) Vec3 { return Vec3{v.X * f, v.Y * f, v.Z * f} }
func (v Vec3) Dot(o Vec3) float64  { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }
func (v Vec3) Len() float64         { return math.Sqrt(v.Dot(v)) }

// Cross 返回 v × o。
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		X: v.Y*o.Z - v.Z*o.Y,
		Y: v.Z*o.X - v.X*o.Z,
		Z: v.X*o.Y - v.Y*o.X,
	}
}

// Normalize 返回单位向量；零向量原样返回。
func (v Vec3) Normalize() Vec3 {
	l := v.Len()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

func (v Vec3) IsZero() bool { return v.X == 0 && v.Y == 0 && v.Z == 0 }

// Matrix 是 3×4 仿射矩阵（行主序）：
//
//	| A B C Tx |
//	| D E F Ty |
//	| G H I Tz |
type Matrix struct {
	A, B, C, Tx float64
	D, E, F, Ty float64
	G, H, I, Tz float64
}

// Identity 返回单位矩阵。
func Identity() Matrix {
	return Matrix{A: 1, E: 1, I: 1}
}

// Translate 返回平移矩阵。
func Translate(v Vec3) Matrix {
	return Matrix{A: 1, Tx: v.X, E: 1, Ty: v.Y, I: 1, Tz: v.Z}
}

// Scale 返回三轴缩放矩阵。
func Scale(sx, sy, sz float64) Matrix {
	return Matrix{A: sx, E: sy, I: sz}
}

// RotateZ 返回绕 Z 轴的旋转矩阵（弧度，逆时针为正）。
func RotateZ(angle float64) Matrix {
	cos, sin := math.Cos(angle), math.Sin(angle)
	return Matrix{
		A: cos, B: -sin,
		D: sin, E: cos,
		I: 1,
	}
}

// Basis 以三个列向量构造线性变换。
func Basis(ux, uy, uz Vec3) Matrix {
	return Matrix{
		A: ux.X, B: uy.X, C: uz.X,
		D: ux.Y, E: uy.Y, F: uz.Y,
		G: ux.Z, H: uy.Z, I: uz.Z,
	}
}

// Multiply 返回 m * o（先应用 o，再应用 m）。
func (m Matrix) Multiply(o Matrix) Matrix {
	return Matrix{
		A:  m.A*o.A + m.B*o.D + m.C*o.G,
		B:  m.A*o.B + m.B*o.E + m.C*o.H,
		C:  m.A*o.C + m.B*o.F + m.C*o.I,
		Tx: m.A*o.Tx + m.B*o.Ty + m.C*o.Tz + m.Tx,
		D:  m.D*o.A + m.E*o.D + m.F*o.G,
		E:  m.D*o.B + m.E*o.E + m.F*o.H,
		F:  m.D*o.C + m.E*o.F + m.F*o.I,
		Ty: m.D*o.Tx + m.E*o.Ty + m.F*o.Tz + m.Ty,
		G:  m.G*o.A + m.H*o.D + m.I*o.G,
		H:  m.G*o.B + m.H*o.E + m.I*o.H,
		I:  m.G*o.C + m.H*o.F + m.I*o.I,
		Tz: m.G*o.Tx + m.H*o.Ty + m.I*o.Tz + m.Tz,
	}
}

// Apply 变换一个点。
func (m Matrix) Apply(p Vec3) Vec3 {
	return Vec3{
		X: m.A*p.X + m.B*p.Y + m.C*p.Z + m.Tx,
		Y: m.D*p.X + m.E*p.Y + m.F*p.Z + m.Ty,
		Z: m.G*p.X + m.H*p.Y + m.I*p.Z + m.Tz,
	}
}

// ApplyDir 变换一个方向（忽略平移）。
func (m Matrix) ApplyDir(v Vec3) Vec3 {
	return Vec3{
		X: m.A*v.X + m.B*v.Y + m.C*v.Z,
		Y: m.D*v.X + m.E*v.Y + m.F*v.Z,
		Z: m.G*v.X + m.H*v.Y + m.I*v.Z,
	}
}

func deg2rad(d float64) float64 { return d * math.Pi / 180 }
func rad2deg(r float64) float64 { return r * 180 / math.Pi }
