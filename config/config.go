// Package config 汇总命令行参数与可选的 YAML 配置文件。
// 优先级：命令行显式给出的参数 > 配置文件 > 默认值。
package config

import (
	"bytes"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/ByLCY/dxfglyph/compose"
	"github.com/ByLCY/dxfglyph/fonts"
	"github.com/ByLCY/dxfglyph/glyph"
	"github.com/ByLCY/dxfglyph/layout"
	"github.com/ByLCY/dxfglyph/walker"
)

// ErrInvalid 表示配置校验失败。
var ErrInvalid = errors.New("配置无效")

// DefaultTolerance 是相对字高的曲线展平容差。
const DefaultTolerance = 0.01

// Config 是一次转换的全部参数，YAML 键与命令行参数同名。
type Config struct {
	Input          string   `yaml:"input"`
	Output         string   `yaml:"output"`
	Font           string   `yaml:"font"`
	SourceCRS      string   `yaml:"source_crs"`
	ExcludeStrings []string `yaml:"exclude_strings"`

	Debug        string  `yaml:"debug"`   // 排版调试 JSON 路径
	Preview      string  `yaml:"preview"` // PDF 预览路径
	GlyphBackend string  `yaml:"glyph_backend"`
	Tolerance    float64 `yaml:"tolerance"`
	Advance      string  `yaml:"advance"`
	MaxDepth     int     `yaml:"max_depth"`
	Scale        float64 `yaml:"scale"`
	UseInsunits  bool    `yaml:"use_insunits"`
	Verbose      bool    `yaml:"verbose"`
}

// Default 返回默认配置。
func Default() Config {
	return Config{
		SourceCRS:      compose.TargetCRS,
		ExcludeStrings: append([]string(nil), walker.DefaultExclude...),
		GlyphBackend:   string(glyph.BackendCanvas),
		Tolerance:      DefaultTolerance,
		Advance:        layout.AdvanceFont.String(),
		MaxDepth:       walker.DefaultMaxDepth,
		Scale:          1,
	}
}

// Load 在默认值之上读取 YAML 文件，文件中未出现的键保持默认。
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("读取配置文件 %s 失败: %w", path, err)
	}
	if err := Parse(data, &cfg); err != nil {
		return cfg, fmt.Errorf("解析配置文件 %s 失败: %w", path, err)
	}
	return cfg, nil
}

// Parse 将 YAML 内容覆盖到 cfg 上，未知键视为错误。
func Parse(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate 检查必填项与取值范围。
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Input) == "" {
		errs = append(errs, errors.New("缺少 input"))
	}
	if strings.TrimSpace(c.Output) == "" {
		errs = append(errs, errors.New("缺少 output"))
	}
	if strings.TrimSpace(c.Font) == "" {
		errs = append(errs, errors.New("缺少 font"))
	}
	if strings.TrimSpace(c.SourceCRS) == "" {
		errs = append(errs, errors.New("缺少 source_crs"))
	}
	if _, err := glyph.ParseBackend(c.GlyphBackend); err != nil {
		errs = append(errs, err)
	}
	if _, err := layout.ParseAdvanceMode(c.Advance); err != nil {
		errs = append(errs, err)
	}
	if !(c.Tolerance > 0) {
		errs = append(errs, fmt.Errorf("tolerance 必须为正数，实际为 %g", c.Tolerance))
	}
	if !(c.Scale > 0) {
		errs = append(errs, fmt.Errorf("scale 必须为正数，实际为 %g", c.Scale))
	}
	if c.MaxDepth <= 0 {
		errs = append(errs, fmt.Errorf("max_depth 必须为正整数，实际为 %d", c.MaxDepth))
	}
	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

// stringList 是可重复、逗号分隔的字符串参数。首次出现时替换默认值。
type stringList struct {
	values *[]string
	set    bool
}

func (s *stringList) String() string {
	if s.values == nil {
		return ""
	}
	return strings.Join(*s.values, ",")
}

func (s *stringList) Set(v string) error {
	if !s.set {
		*s.values = nil
		s.set = true
	}
	*s.values = append(*s.values, strings.Split(v, ",")...)
	return nil
}

// BindFlags 在 fs 上注册与 Config 字段对应的参数，默认值取自 c。
func BindFlags(fs *flag.FlagSet, c *Config) {
	fs.StringVar(&c.Input, "input", c.Input, "输入 DXF 文件路径")
	fs.StringVar(&c.Output, "output", c.Output, "输出 GeoJSON 文件路径")
	fs.StringVar(&c.Font, "font", c.Font, "字体文件路径，或 "+strings.Join(fonts.Builtins(), "、"))
	fs.StringVar(&c.SourceCRS, "source_crs", c.SourceCRS, "图纸坐标系，例如 EPSG:32650")
	fs.Var(&stringList{values: &c.ExcludeStrings}, "exclude_strings", "跳过内容完全相同的文字，逗号分隔，可重复（默认 0,0.0）")
	fs.StringVar(&c.Debug, "debug", c.Debug, "排版调试 JSON 输出路径")
	fs.StringVar(&c.Preview, "preview", c.Preview, "PDF 预览输出路径")
	fs.StringVar(&c.GlyphBackend, "glyph_backend", c.GlyphBackend, "字形后端：canvas、sfnt、freetype")
	fs.Float64Var(&c.Tolerance, "tolerance", c.Tolerance, "曲线展平容差（相对字高）")
	fs.StringVar(&c.Advance, "advance", c.Advance, "字符步进：font（字体步进）或 ink（墨迹宽度）")
	fs.IntVar(&c.MaxDepth, "max_depth", c.MaxDepth, "块参照最大嵌套层数")
	fs.Float64Var(&c.Scale, "scale", c.Scale, "投影前乘到图纸坐标上的比例")
	fs.BoolVar(&c.UseInsunits, "use_insunits", c.UseInsunits, "按 $INSUNITS 将图纸单位换算为米")
	fs.BoolVar(&c.Verbose, "verbose", c.Verbose, "输出调试日志")
}

// Merge 返回以 base 为底、用 flags 中显式设置的参数覆盖后的配置。
// set 为 flag.FlagSet.Visit 得到的参数名集合。
func Merge(base, flags Config, set map[string]bool) Config {
	out := base
	for name := range set {
		switch name {
		case "input":
			out.Input = flags.Input
		case "output":
			out.Output = flags.Output
		case "font":
			out.Font = flags.Font
		case "source_crs":
			out.SourceCRS = flags.SourceCRS
		case "exclude_strings":
			out.ExcludeStrings = flags.ExcludeStrings
		case "debug":
			out.Debug = flags.Debug
		case "preview":
			out.Preview = flags.Preview
		case "glyph_backend":
			out.GlyphBackend = flags.GlyphBackend
		case "tolerance":
			out.Tolerance = flags.Tolerance
		case "advance":
			out.Advance = flags.Advance
		case "max_depth":
			out.MaxDepth = flags.MaxDepth
		case "scale":
			out.Scale = flags.Scale
		case "use_insunits":
			out.UseInsunits = flags.UseInsunits
		case "verbose":
			out.Verbose = flags.Verbose
		}
	}
	return out
}

// FromArgs 解析命令行参数；给出 -config 时先读取配置文件，再用显式参数覆盖。
func FromArgs(fs *flag.FlagSet, args []string) (Config, error) {
	flags := Default()
	BindFlags(fs, &flags)
	path := fs.String("config", "", "YAML 配置文件路径")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}

	base := Default()
	if *path != "" {
		var err error
		if base, err = Load(*path); err != nil {
			return Config{}, err
		}
	}
	set := map[string]bool{}
	fs.Visit(func(f *flag.Flag) { set[f.Name] = true })
	return Merge(base, flags, set), nil
}
