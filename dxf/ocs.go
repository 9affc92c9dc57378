package dxf

import "math"

// arbitraryAxisLimit 是任意轴算法的判定阈值（1/64）。
const arbitraryAxisLimit = 1.0 / 64.0

// DefaultExtrusion 是 WCS 的 Z 轴，实体未给出 210/220/230 时使用。
var DefaultExtrusion = Vec3{0, 0, 1}

// OCS 是由实体拉伸方向确定的对象坐标系。
type OCS struct {
	Ax, Ay, Az Vec3
}

// NewOCS 按 DXF 任意轴算法由拉伸方向构造 OCS；零向量视为 WCS。
func NewOCS(extrusion Vec3) OCS {
	n := extrusion.Normalize()
	if n.IsZero() {
		n = DefaultExtrusion
	}
	var ax Vec3
	if math.Abs(n.X) < arbitraryAxisLimit && math.Abs(n.Y) < arbitraryAxisLimit {
		ax = Vec3{0, 1, 0}.Cross(n)
	} else {
		ax = Vec3{0, 0, 1}.Cross(n)
	}
	ax = ax.Normalize()
	ay := n.Cross(ax).Normalize()
	return OCS{Ax: ax, Ay: ay, Az: n}
}

// IsWCS 表示该 OCS 与 WCS 重合。
func (o OCS) IsWCS() bool {
	return o.Ax == Vec3{1, 0, 0} && o.Ay == Vec3{0, 1, 0} && o.Az == Vec3{0, 0, 1}
}

// ToWCS 将 OCS 点映射到 WCS。
func (o OCS) ToWCS(p Vec3) Vec3 {
	if o.IsWCS() {
		return p
	}
	return o.Ax.Scale(p.X).Add(o.Ay.Scale(p.Y)).Add(o.Az.Scale(p.Z))
}

// FromWCS 将 WCS 点映射到 OCS。
func (o OCS) FromWCS(p Vec3) Vec3 {
	if o.IsWCS() {
		return p
	}
	return Vec3{p.Dot(o.Ax), p.Dot(o.Ay), p.Dot(o.Az)}
}

// ToWCSDir 与 ToWCS 相同；方向向量在线性变换下不受平移影响。
func (o OCS) ToWCSDir(v Vec3) Vec3 { return o.ToWCS(v) }

// FromWCSDir 与 FromWCS 相同。
func (o OCS) FromWCSDir(v Vec3) Vec3 { return o.FromWCS(v) }

// Matrix 返回 OCS→WCS 的矩阵形式。
func (o OCS) Matrix() Matrix { return Basis(o.Ax, o.Ay, o.Az) }
