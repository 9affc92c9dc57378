package glyph

import (
	"fmt"
	"sync"

	"github.com/tdewolff/canvas"
	"golang.org/x/image/font/sfnt"
)

// mmPerPt 与 canvas 内部一致：字号以 pt 计，路径以 mm 计。
const mmPerPt = 25.4 / 72.0

// canvasSource 使用 tdewolff/canvas 生成字形路径。
type canvasSource struct {
	name      string
	tolerance float64
	family    *canvas.FontFamily

	mu    sync.Mutex
	cmap  *sfnt.Font
	buf   sfnt.Buffer
	faces map[float64]*canvas.FontFace
}

func newCanvasSource(name string, data []byte, cmap *sfnt.Font, tolerance float64) (*canvasSource, error) {
	family := canvas.NewFontFamily(name)
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, fmt.Errorf("%w: canvas 无法加载字体 %s: %w", ErrFontLoad, name, err)
	}
	return &canvasSource{
		name:      name,
		tolerance: tolerance,
		family:    family,
		cmap:      cmap,
		faces:     map[float64]*canvas.FontFace{},
	}, nil
}

func (s *canvasSource) Name() string { return s.name }

func (s *canvasSource) Outline(r rune, size float64) (*Outline, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := hasGlyph(s.cmap, &s.buf, r); !ok {
		return nil, ErrGlyphMissing
	}
	face, ok := s.faces[size]
	if !ok {
		// 以 pt 传入字号，使路径单位（mm）在数值上等于字高单位
		face = s.family.Face(size/mmPerPt, canvas.Black, canvas.FontRegular, canvas.FontNormal)
		s.faces[size] = face
	}
	path, advance, err := face.ToPath(string(r))
	if err != nil {
		return nil, err
	}
	return newOutline(pathRings(path, s.tolerance*size), advance), nil
}
