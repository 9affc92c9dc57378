package layout

// 该文件定义排版输入与结果，供布局计算、坐标合成与调试 JSON 共用。

import (
	"github.com/paulmach/orb"

	"github.com/ByLCY/dxfglyph/dxf"
)

// Align 表示一行文字相对插入点的水平对齐方式。
type Align int

const (
	AlignCenter Align = iota
	AlignLeft
	AlignRight
)

func (a Align) String() string {
	switch a {
	case AlignLeft:
		return "left"
	case AlignRight:
		return "right"
	default:
		return "center"
	}
}

// AlignFromJustify 将 MTEXT 附着点列转换为对齐方式。
func AlignFromJustify(j dxf.Justify) Align {
	switch j {
	case dxf.JustifyLeft:
		return AlignLeft
	case dxf.JustifyRight:
		return AlignRight
	default:
		return AlignCenter
	}
}

// TextRun 是一段待排版的单行文字，坐标位于 OCS。构造后不再修改。
type TextRun struct {
	Content     string   `json:"content"`
	Insert      dxf.Vec3 `json:"insert"`
	Height      float64  `json:"height"`
	Rotation    float64  `json:"rotation"` // 度
	WidthFactor float64  `json:"widthFactor"`
	Oblique     float64  `json:"oblique"` // 度
	Layer       string   `json:"layer"`
	OCS         dxf.OCS  `json:"-"`
	Font        string   `json:"font"`
	Align       Align    `json:"align"`

	// 追溯信息
	Entity string `json:"entity"`
	Handle string `json:"handle,omitempty"`
}

// Glyph 是一行中单个字符的排版结果。Polygons 位于 OCS 平面，高程为 TextRun.Insert.Z。
type Glyph struct {
	Char       rune          `json:"char"`
	Index      int           `json:"index"`
	Pen        float64       `json:"pen"`
	Advance    float64       `json:"advance"`
	Whitespace bool          `json:"whitespace,omitempty"`
	Polygons   []orb.Polygon `json:"polygons,omitempty"`
	Err        error         `json:"-"`
	Error      string        `json:"error,omitempty"`
}

// Line 是一个 TextRun 的排版结果。
type Line struct {
	Run    TextRun `json:"run"`
	Width  float64 `json:"width"`
	Start  float64 `json:"start"` // 首个字符的笔位置（局部 x）
	Glyphs []Glyph `json:"glyphs"`
}

// Failed 返回解析失败的字符。
func (l *Line) Failed() []Glyph {
	var out []Glyph
	for _, g := range l.Glyphs {
		if g.Err != nil {
			out = append(out, g)
		}
	}
	return out
}
