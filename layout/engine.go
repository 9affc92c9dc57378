package layout

import (
	"math"
	"unicode"

	"github.com/paulmach/orb"

	"github.com/ByLCY/dxfglyph/glyph"
)

// Engine 将 TextRun 排成逐字符的多边形。Engine 本身无状态，可并发使用。
type Engine struct {
	resolver GlyphResolver
	opts     Options
}

// NewEngine 创建排版引擎。
func NewEngine(resolver GlyphResolver, opts Options) *Engine {
	return &Engine{resolver: resolver, opts: opts.withDefaults()}
}

// Font 返回引擎使用的字体名称。
func (e *Engine) Font() string { return e.resolver.Font() }

type measured struct {
	char    rune
	outline *glyph.Outline
	err     error
	space   bool
	advance float64 // 未乘宽度因子
}

// Layout 计算一行文字的全部字形位置。
// 先按与放置相同的规则求总宽，再按对齐方式确定起始笔位置；
// 每个顶点依次施加宽度因子与倾斜、平移到笔位置、按 Rotation 旋转、平移到插入点。
func (e *Engine) Layout(run TextRun) *Line {
	wf := run.WidthFactor
	if wf == 0 {
		wf = 1
	}

	items := make([]measured, 0, len(run.Content))
	var total float64
	for _, r := range run.Content {
		m := e.measure(r, run.Height)
		items = append(items, m)
		total += m.advance * wf
	}

	var pen float64
	switch run.Align {
	case AlignCenter:
		pen = -total / 2
	case AlignRight:
		pen = -total
	}

	rad := run.Rotation * math.Pi / 180
	sin, cos := math.Sin(rad), math.Cos(rad)
	shear := math.Tan(run.Oblique * math.Pi / 180)
	place := func(p orb.Point, pen float64) orb.Point {
		x := p[0]*wf + p[1]*shear + pen
		y := p[1]
		return orb.Point{
			x*cos - y*sin + run.Insert.X,
			x*sin + y*cos + run.Insert.Y,
		}
	}

	line := &Line{Run: run, Width: total, Start: pen, Glyphs: make([]Glyph, 0, len(items))}
	for i, m := range items {
		g := Glyph{Char: m.char, Index: i, Pen: pen, Advance: m.advance * wf, Whitespace: m.space, Err: m.err}
		if m.err != nil {
			g.Error = m.err.Error()
		}
		if m.outline != nil && !m.space {
			g.Polygons = make([]orb.Polygon, 0, len(m.outline.Polygons))
			for _, poly := range m.outline.Polygons {
				out := make(orb.Polygon, 0, len(poly))
				for _, ring := range poly {
					r := make(orb.Ring, len(ring))
					for k, p := range ring {
						r[k] = place(p, pen)
					}
					out = append(out, r)
				}
				g.Polygons = append(g.Polygons, out)
			}
		}
		line.Glyphs = append(line.Glyphs, g)
		pen += g.Advance
	}
	return line
}

// measure 解析字符并确定其步进。
func (e *Engine) measure(r rune, height float64) measured {
	m := measured{char: r}
	if unicode.IsSpace(r) {
		m.space = true
		m.advance = height * e.opts.SpaceFactor
		return m
	}
	m.outline, m.err = e.resolver.Resolve(r, height)
	if m.err != nil {
		m.outline = nil
		m.advance = height * e.opts.FallbackFactor
		return m
	}
	width := m.outline.Advance
	if e.opts.Advance == AdvanceInk {
		width = m.outline.InkWidth()
	}
	if math.IsNaN(width) || width < 0 {
		width = height * e.opts.FallbackFactor
	}
	m.advance = width
	return m
}
