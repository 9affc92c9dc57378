package canvasrenderer

import (
	"bytes"
	"math"
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

func TestRenderProducesPDF(t *testing.T) {
	fc := geojson.NewFeatureCollection()
	fc.Append(geojson.NewFeature(orb.Polygon{{{9, 48}, {9.001, 48}, {9.001, 48.001}, {9, 48}}}))
	fc.Append(geojson.NewFeature(orb.MultiPolygon{
		{{{9.002, 48}, {9.003, 48}, {9.003, 48.001}, {9.002, 48}}},
		{{{9.004, 48}, {9.005, 48}, {9.005, 48.001}, {9.004, 48}}},
	}))

	data, err := NewRenderer(Options{Title: "test"}).Render(fc)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !bytes.HasPrefix(data, []byte("%PDF")) {
		t.Fatalf("输出不是 PDF")
	}
}

func TestRenderEmpty(t *testing.T) {
	if _, err := NewRenderer(Options{}).Render(geojson.NewFeatureCollection()); err == nil {
		t.Fatalf("空集合应返回错误")
	}
}

// TestViewportFitsPage 验证包围盒映射到页边距以内且保持居中。
func TestViewportFitsPage(t *testing.T) {
	opts := Options{}.withDefaults()
	b := orb.Bound{Min: orb.Point{0, 0}, Max: orb.Point{2, 1}}
	v := newViewport(b, opts)

	left, right := v.x(0), v.x(2)
	bottom, top := v.y(0), v.y(1)
	if left < opts.Margin-1e-9 || right > opts.Width-opts.Margin+1e-9 {
		t.Fatalf("水平方向越界: %g..%g", left, right)
	}
	if bottom < opts.Margin-1e-9 || top > opts.Height-opts.Margin+1e-9 {
		t.Fatalf("垂直方向越界: %g..%g", bottom, top)
	}
	if diff := math.Abs((left + right) - opts.Width); diff > 1e-9 {
		t.Fatalf("水平未居中: diff=%g", diff)
	}
	if diff := math.Abs((bottom + top) - opts.Height); diff > 1e-9 {
		t.Fatalf("垂直未居中: diff=%g", diff)
	}
}
