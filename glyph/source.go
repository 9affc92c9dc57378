package glyph

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"golang.org/x/image/font/sfnt"

	"github.com/ByLCY/dxfglyph/fonts"
)

var (
	// ErrFontLoad 表示字体数据无法解析，属于致命错误。
	ErrFontLoad = errors.New("字体加载失败")
	// ErrGlyphMissing 表示字体中没有该字符。
	ErrGlyphMissing = errors.New("字体缺少该字符")
	// ErrUnknownBackend 表示未知的字形后端名称。
	ErrUnknownBackend = errors.New("未知的字形后端")
)

// Source 提供单个字体的字形轮廓。Outline 返回的坐标以 size 为字高单位。
type Source interface {
	Name() string
	Outline(r rune, size float64) (*Outline, error)
}

// Backend 选择解析字体的库。
type Backend string

const (
	BackendCanvas   Backend = "canvas"
	BackendSFNT     Backend = "sfnt"
	BackendFreetype Backend = "freetype"
)

// Backends 列出所有支持的后端。
var Backends = []Backend{BackendCanvas, BackendSFNT, BackendFreetype}

// ParseBackend 将配置中的名称转换为 Backend，空串为 canvas。
func ParseBackend(name string) (Backend, error) {
	if name == "" {
		return BackendCanvas, nil
	}
	b := Backend(strings.ToLower(strings.TrimSpace(name)))
	for _, known := range Backends {
		if b == known {
			return b, nil
		}
	}
	return "", fmt.Errorf("%w: %s", ErrUnknownBackend, name)
}

// Open 加载字体并创建对应后端的 Source。tolerance 为相对字高的曲线展平容差。
// 字体文件不存在时记录警告并回退到内置字体；字体数据无法解析时返回 ErrFontLoad。
func Open(path string, backend Backend, tolerance float64, logger *slog.Logger) (Source, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	data, err := fonts.Load(path)
	if errors.Is(err, fonts.ErrNotFound) && path != fonts.Fallback {
		logger.Warn("字体不存在，使用内置字体", "font", path, "fallback", fonts.Fallback)
		path = fonts.Fallback
		data, err = fonts.Load(path)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrFontLoad, err)
	}

	parsed, err := sfnt.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%w: 解析字体 %s 失败: %w", ErrFontLoad, path, err)
	}
	name := familyName(parsed, path)

	switch backend {
	case BackendCanvas, "":
		return newCanvasSource(name, data, parsed, tolerance)
	case BackendSFNT:
		return newSFNTSource(name, parsed, tolerance), nil
	case BackendFreetype:
		return newFreetypeSource(name, data, tolerance)
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownBackend, backend)
	}
}

// familyName 读取字体族名，失败时使用文件名。
func familyName(f *sfnt.Font, path string) string {
	var buf sfnt.Buffer
	name, err := f.Name(&buf, sfnt.NameIDFamily)
	if err != nil || strings.TrimSpace(name) == "" {
		return fonts.BaseName(path)
	}
	return name
}

// hasGlyph 通过 cmap 判断字体是否包含 r。
func hasGlyph(f *sfnt.Font, buf *sfnt.Buffer, r rune) (sfnt.GlyphIndex, bool) {
	idx, err := f.GlyphIndex(buf, r)
	if err != nil || idx == 0 {
		return 0, false
	}
	return idx, true
}
