package canvasrenderer

import (
	"bytes"
	"fmt"
	"image/color"
	"math"
	"sync"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/pdf"

	"github.com/ByLCY/dxfglyph/fonts"
	"github.com/ByLCY/dxfglyph/renderer"
)

const (
	outlineWidth = 0.05 // mm
	captionSize  = 8.0  // pt
)

// Renderer 将要素绘制到单页 PDF，用于人工检查字形位置。
// 经度按中心纬度的余弦缩放，使预览的长宽比接近实地。
type Renderer struct {
	opts Options

	fontMu sync.Mutex
	face   *canvas.FontFace
}

var _ renderer.Renderer = (*Renderer)(nil)

// Options 配置预览页面，尺寸单位为 mm。
type Options struct {
	Width, Height float64
	Margin        float64
	Title         string
	Fill          color.RGBA
}

func (o Options) withDefaults() Options {
	if o.Width <= 0 || o.Height <= 0 {
		o.Width, o.Height = 297, 210 // A4 横向
	}
	if o.Margin <= 0 {
		o.Margin = 10
	}
	if o.Fill == (color.RGBA{}) {
		o.Fill = color.RGBA{R: 30, G: 30, B: 30, A: 255}
	}
	return o
}

// NewRenderer 创建预览渲染器。
func NewRenderer(opts Options) *Renderer {
	return &Renderer{opts: opts.withDefaults()}
}

// Render 将集合绘制为 PDF 字节切片。
func (r *Renderer) Render(fc *geojson.FeatureCollection) ([]byte, error) {
	if fc == nil || len(fc.Features) == 0 {
		return nil, fmt.Errorf("没有可预览的要素")
	}
	bound := fc.Features[0].Geometry.Bound()
	for _, f := range fc.Features[1:] {
		bound = bound.Union(f.Geometry.Bound())
	}
	view := newViewport(bound, r.opts)

	var buf bytes.Buffer
	writer := pdf.New(&buf, r.opts.Width, r.opts.Height, nil)
	writer.SetInfo(r.opts.Title, "字形预览", "dxf, geojson", "", "dxfglyph")

	c := canvas.New(r.opts.Width, r.opts.Height)
	ctx := canvas.NewContext(c)
	ctx.SetFillColor(r.opts.Fill)
	ctx.SetStrokeColor(color.RGBA{})
	for _, f := range fc.Features {
		if p := view.path(f.Geometry); p != nil {
			ctx.DrawPath(0, 0, p)
		}
	}

	ctx.SetFillColor(color.RGBA{})
	ctx.SetStrokeColor(color.RGBA{R: 200, G: 60, B: 60, A: 255})
	ctx.SetStrokeWidth(outlineWidth)
	ctx.DrawPath(view.x(bound.Min[0]), view.y(bound.Min[1]),
		canvas.Rectangle(view.x(bound.Max[0])-view.x(bound.Min[0]), view.y(bound.Max[1])-view.y(bound.Min[1])))

	face, err := r.captionFace()
	if err != nil {
		return nil, err
	}
	caption := fmt.Sprintf("%d 个要素  [%.6f, %.6f] – [%.6f, %.6f]",
		len(fc.Features), bound.Min[0], bound.Min[1], bound.Max[0], bound.Max[1])
	ctx.DrawText(r.opts.Margin, r.opts.Margin/2, canvas.NewTextLine(face, caption, canvas.Left))

	c.RenderTo(writer)
	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("写入 PDF 失败: %w", err)
	}
	return buf.Bytes(), nil
}

func (r *Renderer) captionFace() (*canvas.FontFace, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()
	if r.face != nil {
		return r.face, nil
	}
	data, err := fonts.Load(fonts.Fallback)
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily("dxfglyph-caption")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("加载预览字体失败: %w", err)
	}
	r.face = family.Face(captionSize, color.RGBA{R: 110, G: 110, B: 110, A: 255}, canvas.FontRegular, canvas.FontNormal)
	return r.face, nil
}

// viewport 将经纬度映射到页面坐标（mm，原点左下）。
type viewport struct {
	minX, minY float64
	kx, scale  float64
	offX, offY float64
}

func newViewport(b orb.Bound, opts Options) viewport {
	kx := math.Cos((b.Min[1] + b.Max[1]) / 2 * math.Pi / 180)
	if kx <= 0 {
		kx = 1
	}
	w := (b.Max[0] - b.Min[0]) * kx
	h := b.Max[1] - b.Min[1]
	availW := opts.Width - 2*opts.Margin
	availH := opts.Height - 2*opts.Margin
	scale := 1.0
	if w > 0 || h > 0 {
		scale = math.Min(availW/math.Max(w, 1e-12), availH/math.Max(h, 1e-12))
	}
	return viewport{
		minX:  b.Min[0],
		minY:  b.Min[1],
		kx:    kx,
		scale: scale,
		offX:  opts.Margin + (availW-w*scale)/2,
		offY:  opts.Margin + (availH-h*scale)/2,
	}
}

func (v viewport) x(lon float64) float64 { return v.offX + (lon-v.minX)*v.kx*v.scale }
func (v viewport) y(lat float64) float64 { return v.offY + (lat-v.minY)*v.scale }

func (v viewport) path(g orb.Geometry) *canvas.Path {
	var polys []orb.Polygon
	switch geom := g.(type) {
	case orb.Polygon:
		polys = []orb.Polygon{geom}
	case orb.MultiPolygon:
		polys = geom
	default:
		return nil
	}
	p := &canvas.Path{}
	for _, poly := range polys {
		for _, ring := range poly {
			if len(ring) < 3 {
				continue
			}
			p.MoveTo(v.x(ring[0][0]), v.y(ring[0][1]))
			for _, pt := range ring[1:] {
				p.LineTo(v.x(pt[0]), v.y(pt[1]))
			}
			p.Close()
		}
	}
	return p
}
