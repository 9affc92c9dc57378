package dxf

import (
	"math"

	"github.com/ByLCY/dxfglyph/mtext"
)

// Text 对应单行 TEXT 实体，坐标位于自身 OCS。
type Text struct {
	base
	Raw         string
	Style       string
	Insert      Vec3
	Align       Vec3
	Height      float64
	Rotation    float64 // 度
	WidthFactor float64
	Oblique     float64 // 度
	HAlign      int
	VAlign      int
	Extrusion   Vec3
}

func init() {
	register("TEXT", func() Entity { return newText("TEXT") })
	register("ATTRIB", func() Entity { return newAttrib() })
}

func newText(typeName string) *Text {
	return &Text{
		base:        base{TypeName: typeName},
		WidthFactor: 1,
		Extrusion:   DefaultExtrusion,
	}
}

func (t *Text) setTag(tag Tag) {
	if t.setBase(tag) || setVec(&t.Insert, tag, 10) || setVec(&t.Align, tag, 11) || setVec(&t.Extrusion, tag, 210) {
		return
	}
	switch tag.Code {
	case 1:
		t.Raw = tag.AsString()
	case 7:
		t.Style = tag.AsString()
	case 40:
		t.Height = tag.AsFloat()
	case 41:
		t.WidthFactor = tag.AsFloat()
	case 50:
		t.Rotation = tag.AsFloat()
	case 51:
		t.Oblique = tag.AsFloat()
	case 72:
		t.HAlign = tag.AsInt()
	case 73:
		t.VAlign = tag.AsInt()
	}
}

// Content 返回解码控制码后的文字内容。
func (t *Text) Content() string { return mtext.DecodeText(t.Raw) }

// OCS 返回实体的对象坐标系。
func (t *Text) OCS() OCS { return NewOCS(t.Extrusion) }

// InsertWCS 返回插入点的世界坐标。
func (t *Text) InsertWCS() Vec3 { return t.OCS().ToWCS(t.Insert) }

// Transform 返回经仿射变换 m 后的副本：插入点、高度、旋转、宽度因子与拉伸方向同步更新。
func (t *Text) Transform(m Matrix) *Text {
	out := *t
	ocs := t.OCS()
	wf := t.WidthFactor
	if wf == 0 {
		wf = 1
	}
	rad := deg2rad(t.Rotation)
	ux := ocs.ToWCSDir(Vec3{math.Cos(rad), math.Sin(rad), 0})
	uy := ocs.ToWCSDir(Vec3{-math.Sin(rad), math.Cos(rad), 0})
	vx := m.ApplyDir(ux.Scale(t.Height * wf))
	vy := m.ApplyDir(uy.Scale(t.Height))

	n := vx.Cross(vy).Normalize()
	if n.IsZero() {
		n = m.ApplyDir(t.Extrusion).Normalize()
	}
	target := NewOCS(n)
	out.Extrusion = n
	out.Insert = target.FromWCS(m.Apply(ocs.ToWCS(t.Insert)))
	out.Align = target.FromWCS(m.Apply(ocs.ToWCS(t.Align)))
	local := target.FromWCSDir(vx)
	out.Rotation = rad2deg(math.Atan2(local.Y, local.X))
	out.Height = vy.Len()
	if out.Height > 0 {
		out.WidthFactor = vx.Len() / out.Height
	}
	return &out
}

// Attrib 是附着在 INSERT 上的属性文字，几何属性与 TEXT 相同。
type Attrib struct {
	Text
	Tag   string
	Flags int
}

func newAttrib() *Attrib {
	return &Attrib{Text: *newText("ATTRIB")}
}

func (a *Attrib) setTag(tag Tag) {
	switch tag.Code {
	case 2:
		a.Tag = tag.AsString()
	case 70:
		a.Flags = tag.AsInt()
	case 73:
		// ATTRIB 的 73 是字段长度
	case 74:
		a.VAlign = tag.AsInt()
	default:
		a.Text.setTag(tag)
	}
}

// Invisible 对应标志位 1（不可见属性）。
func (a *Attrib) Invisible() bool { return a.Flags&1 != 0 }

// AsText 将属性转为 TEXT，parent 不为空时先施加外层块变换。
func (a *Attrib) AsText(parent *Matrix) *Text {
	t := a.Text
	if parent != nil {
		return t.Transform(*parent)
	}
	return &t
}
