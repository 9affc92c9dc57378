package dxf

import (
	"math"
	"strings"

	"github.com/ByLCY/dxfglyph/mtext"
)

// LineSpacing 是 AutoCAD 标准行距与字高之比。
const LineSpacing = 5.0 / 3.0

// Justify 表示片段的水平对齐方式。
type Justify int

const (
	JustifyLeft Justify = iota
	JustifyCenter
	JustifyRight
)

// MText 对应多行文字实体。插入点与方向向量位于 WCS。
type MText struct {
	base
	chunks       []string
	Raw          string
	Style        string
	Insert       Vec3
	Direction    Vec3
	HasDirection bool
	Height       float64
	RefWidth     float64
	LineFactor   float64
	Rotation     float64 // 度，仅在未给出方向向量时有效
	Attachment   int
	Extrusion    Vec3
}

// Fragment 是 MTEXT 拆分出的一行，插入点位于 MTEXT 的 OCS。
type Fragment struct {
	Content  string
	Line     int
	Insert   Vec3
	Height   float64
	Rotation float64
	Justify  Justify
}

func init() {
	register("MTEXT", func() Entity {
		return &MText{
			base:       base{TypeName: "MTEXT"},
			LineFactor: 1,
			Attachment: 1,
			Extrusion:  DefaultExtrusion,
		}
	})
}

func (m *MText) setTag(tag Tag) {
	if m.setBase(tag) || setVec(&m.Insert, tag, 10) || setVec(&m.Extrusion, tag, 210) {
		return
	}
	if setVec(&m.Direction, tag, 11) {
		m.HasDirection = true
		return
	}
	switch tag.Code {
	case 1:
		m.Raw = strings.Join(m.chunks, "") + tag.AsString()
	case 3:
		// 超长内容以 250 字符为单位放在 3 组，最后一段放在 1 组
		m.chunks = append(m.chunks, tag.AsString())
	case 7:
		m.Style = tag.AsString()
	case 40:
		m.Height = tag.AsFloat()
	case 41:
		m.RefWidth = tag.AsFloat()
	case 44:
		m.LineFactor = tag.AsFloat()
	case 50:
		m.Rotation = tag.AsFloat()
	case 71:
		m.Attachment = tag.AsInt()
	}
}

// OCS 返回实体的对象坐标系。
func (m *MText) OCS() OCS { return NewOCS(m.Extrusion) }

// PlainText 返回去除格式码后的全文。
func (m *MText) PlainText() string { return mtext.PlainText(m.Raw) }

// OCSRotation 返回文字基线在 OCS 中的旋转角（度）。
func (m *MText) OCSRotation() float64 {
	if !m.HasDirection || m.Direction.IsZero() {
		return m.Rotation
	}
	d := m.OCS().FromWCSDir(m.Direction)
	return rad2deg(math.Atan2(d.Y, d.X))
}

// Fragments 按段落拆分为逐行片段。
// 垂直方向按附着点（上/中/下）定位首行基线，水平附着列决定片段对齐方式；
// 不做按参考宽度的自动换行。空行占位但不产生片段。
func (m *MText) Fragments() []Fragment {
	lines := mtext.Lines(m.Raw)
	ocs := m.OCS()
	origin := ocs.FromWCS(m.Insert)
	rot := m.OCSRotation()
	rad := deg2rad(rot)
	sin, cos := math.Sin(rad), math.Cos(rad)

	factor := m.LineFactor
	if factor <= 0 {
		factor = 1
	}
	step := m.Height * LineSpacing * factor
	total := m.Height + float64(len(lines)-1)*step

	attachment := m.Attachment
	if attachment < 1 || attachment > 9 {
		attachment = 1
	}
	first := -m.Height
	switch (attachment - 1) / 3 {
	case 1:
		first += total / 2
	case 2:
		first += total
	}
	justify := Justify((attachment - 1) % 3)

	var out []Fragment
	for i, line := range lines {
		if strings.TrimSpace(line) == "" {
			continue
		}
		dy := first - float64(i)*step
		out = append(out, Fragment{
			Content:  line,
			Line:     i,
			Insert:   Vec3{origin.X - dy*sin, origin.Y + dy*cos, origin.Z},
			Height:   m.Height,
			Rotation: rot,
			Justify:  justify,
		})
	}
	return out
}

// Transform 返回经仿射变换 m 后的副本。
func (m *MText) Transform(mat Matrix) *MText {
	out := *m
	out.chunks = nil
	ocs := m.OCS()
	dir := m.Direction.Normalize()
	if !m.HasDirection || dir.IsZero() {
		rad := deg2rad(m.Rotation)
		dir = ocs.ToWCSDir(Vec3{math.Cos(rad), math.Sin(rad), 0})
	}
	up := ocs.Az.Cross(dir).Normalize()
	vx := mat.ApplyDir(dir)
	vy := mat.ApplyDir(up.Scale(m.Height))

	n := vx.Cross(vy).Normalize()
	if n.IsZero() {
		n = mat.ApplyDir(m.Extrusion).Normalize()
	}
	out.Insert = mat.Apply(m.Insert)
	out.Direction = vx.Normalize()
	out.HasDirection = true
	out.Extrusion = n
	out.Height = vy.Len()
	return &out
}
