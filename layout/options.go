package layout

import (
	"fmt"
	"strings"

	"github.com/ByLCY/dxfglyph/glyph"
)

// GlyphResolver 负责把字符解析为字体局部坐标系中的轮廓。
type GlyphResolver interface {
	Font() string
	Resolve(r rune, size float64) (*glyph.Outline, error)
}

// AdvanceMode 决定非空白字符的步进宽度来源。
type AdvanceMode int

const (
	AdvanceFont AdvanceMode = iota // 字体的水平步进
	AdvanceInk                     // 墨迹包围盒宽度
)

func (m AdvanceMode) String() string {
	if m == AdvanceInk {
		return "ink"
	}
	return "font"
}

// ParseAdvanceMode 解析配置中的步进模式名称，空串为 font。
func ParseAdvanceMode(s string) (AdvanceMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "font":
		return AdvanceFont, nil
	case "ink":
		return AdvanceInk, nil
	default:
		return AdvanceFont, fmt.Errorf("未知的步进模式 %q（可选 font、ink）", s)
	}
}

// Default factors relative to the text height.
const (
	DefaultSpaceFactor    = 0.5
	DefaultFallbackFactor = 0.5
)

// Options 配置排版参数，零值字段使用默认值。
type Options struct {
	Advance        AdvanceMode
	SpaceFactor    float64 // 空白字符步进 = 字高 × SpaceFactor
	FallbackFactor float64 // 解析失败字符步进 = 字高 × FallbackFactor
}

func (o Options) withDefaults() Options {
	if o.SpaceFactor <= 0 {
		o.SpaceFactor = DefaultSpaceFactor
	}
	if o.FallbackFactor <= 0 {
		o.FallbackFactor = DefaultFallbackFactor
	}
	return o
}
