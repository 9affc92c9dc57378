package glyph

import (
	"sync"

	"github.com/paulmach/orb"
	"github.com/tdewolff/canvas"
	"golang.org/x/image/font"
	"golang.org/x/image/font/sfnt"
	"golang.org/x/image/math/fixed"
)

// sfntSource 直接读取 golang.org/x/image/font/sfnt 的轮廓段。
type sfntSource struct {
	name      string
	tolerance float64

	mu   sync.Mutex
	font *sfnt.Font
	buf  sfnt.Buffer
}

func newSFNTSource(name string, f *sfnt.Font, tolerance float64) *sfntSource {
	return &sfntSource{name: name, tolerance: tolerance, font: f}
}

func (s *sfntSource) Name() string { return s.name }

func (s *sfntSource) Outline(r rune, size float64) (*Outline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx, ok := hasGlyph(s.font, &s.buf, r)
	if !ok {
		return nil, ErrGlyphMissing
	}
	// 以 UnitsPerEm 作为 ppem 加载，得到的坐标即为字体单位
	upem := fixed.I(int(s.font.UnitsPerEm()))
	segs, err := s.font.LoadGlyph(&s.buf, idx, upem, nil)
	if err != nil {
		return nil, err
	}
	adv, err := s.font.GlyphAdvance(&s.buf, idx, upem, font.HintingNone)
	if err != nil {
		return nil, err
	}

	scale := size / float64(s.font.UnitsPerEm())
	pt := func(p fixed.Point26_6) orb.Point {
		// sfnt 的 y 轴向下
		return orb.Point{float64(p.X) / 64 * scale, -float64(p.Y) / 64 * scale}
	}

	path := &canvas.Path{}
	for _, seg := range segs {
		switch seg.Op {
		case sfnt.SegmentOpMoveTo:
			path.Close()
			p := pt(seg.Args[0])
			path.MoveTo(p[0], p[1])
		case sfnt.SegmentOpLineTo:
			p := pt(seg.Args[0])
			path.LineTo(p[0], p[1])
		case sfnt.SegmentOpQuadTo:
			c, p := pt(seg.Args[0]), pt(seg.Args[1])
			path.QuadTo(c[0], c[1], p[0], p[1])
		case sfnt.SegmentOpCubeTo:
			c1, c2, p := pt(seg.Args[0]), pt(seg.Args[1]), pt(seg.Args[2])
			path.CubeTo(c1[0], c1[1], c2[0], c2[1], p[0], p[1])
		}
	}
	path.Close()
	return newOutline(pathRings(path, s.tolerance*size), float64(adv)/64*scale), nil
}
