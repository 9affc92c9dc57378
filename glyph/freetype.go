package glyph

import (
	"fmt"
	"sync"

	"github.com/golang/freetype/truetype"
	"github.com/paulmach/orb"
	"github.com/tdewolff/canvas"
	"golang.org/x/image/font"
	"golang.org/x/image/math/fixed"
)

// freetypeSource 使用 golang/freetype 的 TrueType 解析器，仅支持 glyf 轮廓。
type freetypeSource struct {
	name      string
	tolerance float64
	font      *truetype.Font

	mu  sync.Mutex
	buf truetype.GlyphBuf
}

func newFreetypeSource(name string, data []byte, tolerance float64) (*freetypeSource, error) {
	f, err := truetype.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: freetype 无法解析字体 %s: %w", ErrFontLoad, name, err)
	}
	return &freetypeSource{name: name, tolerance: tolerance, font: f}, nil
}

func (s *freetypeSource) Name() string { return s.name }

func (s *freetypeSource) Outline(r rune, size float64) (*Outline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.font.Index(r)
	if idx == 0 {
		return nil, ErrGlyphMissing
	}
	upem := s.font.FUnitsPerEm()
	if err := s.buf.Load(s.font, fixed.I(int(upem)), idx, font.HintingNone); err != nil {
		return nil, err
	}

	scale := size / float64(upem)
	pt := func(p fixed.Point26_6) orb.Point {
		return orb.Point{float64(p.X) / 64 * scale, float64(p.Y) / 64 * scale}
	}

	path := &canvas.Path{}
	start := 0
	for _, end := range s.buf.Ends {
		contour(path, s.buf.Points[start:end], pt)
		start = end
	}
	return newOutline(pathRings(path, s.tolerance*size), float64(s.buf.AdvanceWidth)/64*scale), nil
}

// contour 解码一个 TrueType 轮廓：标志位最低位表示点在曲线上，
// 两个相邻的离线点之间隐含一个位于中点的在线点。
func contour(path *canvas.Path, ps []truetype.Point, pt func(fixed.Point26_6) orb.Point) {
	if len(ps) == 0 {
		return
	}
	point := func(p truetype.Point) fixed.Point26_6 { return fixed.Point26_6{X: p.X, Y: p.Y} }
	mid := func(a, b fixed.Point26_6) fixed.Point26_6 {
		return fixed.Point26_6{X: (a.X + b.X) / 2, Y: (a.Y + b.Y) / 2}
	}

	start := point(ps[0])
	var others []truetype.Point
	switch last := ps[len(ps)-1]; {
	case ps[0].Flags&1 != 0:
		others = ps[1:]
	case last.Flags&1 != 0:
		start = point(last)
		others = ps[:len(ps)-1]
	default:
		start = mid(start, point(last))
		others = ps
	}

	lineTo := func(q fixed.Point26_6) {
		p := pt(q)
		path.LineTo(p[0], p[1])
	}
	quadTo := func(c, q fixed.Point26_6) {
		cp, p := pt(c), pt(q)
		path.QuadTo(cp[0], cp[1], p[0], p[1])
	}

	s := pt(start)
	path.MoveTo(s[0], s[1])
	q0, on0 := start, true
	for _, p := range others {
		q, on := point(p), p.Flags&1 != 0
		switch {
		case on && on0:
			lineTo(q)
		case on:
			quadTo(q0, q)
		case !on0:
			quadTo(q0, mid(q0, q))
		}
		q0, on0 = q, on
	}
	if on0 {
		lineTo(start)
	} else {
		quadTo(q0, start)
	}
	path.Close()
}
