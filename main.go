package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/paulmach/orb/geojson"
	"github.com/pterm/pterm"

	"github.com/ByLCY/dxfglyph/compose"
	"github.com/ByLCY/dxfglyph/config"
	"github.com/ByLCY/dxfglyph/dxf"
	"github.com/ByLCY/dxfglyph/glyph"
	"github.com/ByLCY/dxfglyph/layout"
	"github.com/ByLCY/dxfglyph/renderer"
	canvasrenderer "github.com/ByLCY/dxfglyph/renderer/canvas"
	geojsonrenderer "github.com/ByLCY/dxfglyph/renderer/geojson"
	"github.com/ByLCY/dxfglyph/walker"
)

func main() {
	fs := flag.NewFlagSet("dxfglyph", flag.ExitOnError)
	cfg, err := config.FromArgs(fs, os.Args[1:])
	if err != nil {
		fatal(err)
	}
	if err := cfg.Validate(); err != nil {
		fs.Usage()
		fatal(err)
	}

	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
	walker.SetLogger(logger)

	res, err := run(cfg, logger)
	if err != nil {
		fatal(err)
	}
	printSummary(cfg, res)
}

func fatal(err error) {
	pterm.Error.Println(err)
	os.Exit(1)
}

// result 是一次转换的产物，供汇总输出使用。
type result struct {
	report *walker.Report
	font   string
	source string
	cache  glyph.CacheStats
	scale  float64
}

// run 串联读取、排版、投影与输出。打开图纸、加载字体、构建坐标系任一失败都不会写出文件。
func run(cfg config.Config, logger *slog.Logger) (*result, error) {
	doc, err := dxf.Open(cfg.Input)
	if err != nil {
		return nil, err
	}

	backend, err := glyph.ParseBackend(cfg.GlyphBackend)
	if err != nil {
		return nil, err
	}
	source, err := glyph.Open(cfg.Font, backend, cfg.Tolerance, logger)
	if err != nil {
		return nil, err
	}
	resolver := glyph.NewResolver(source, glyph.NewCache())

	mode, err := layout.ParseAdvanceMode(cfg.Advance)
	if err != nil {
		return nil, err
	}
	engine := layout.NewEngine(resolver, layout.Options{Advance: mode})

	scale := cfg.Scale
	if cfg.UseInsunits {
		unit := layout.Unit(doc.Units)
		if unit.Known() {
			scale *= unit.ToMeters()
		} else {
			logger.Warn("图纸未声明有效的 $INSUNITS，按米处理", "insunits", doc.Units)
		}
	}
	composer, err := compose.New(cfg.SourceCRS, compose.Options{Scale: scale})
	if err != nil {
		return nil, fmt.Errorf("初始化坐标转换失败: %w", err)
	}

	w := walker.New(doc, engine, composer, walker.Options{
		Exclude:  cfg.ExcludeStrings,
		MaxDepth: cfg.MaxDepth,
		Debug:    cfg.Debug != "",
	})
	report := w.Run(doc.ModelspaceEntities())
	fc := w.Features().Finalize()

	if err := render(geojsonrenderer.New(true), fc, cfg.Output); err != nil {
		return nil, fmt.Errorf("输出 GeoJSON 失败: %w", err)
	}
	if cfg.Debug != "" {
		if err := writeDebug(w.Lines(), cfg.Debug); err != nil {
			return nil, err
		}
	}
	if cfg.Preview != "" {
		if report.Empty() {
			logger.Warn("没有要素，跳过 PDF 预览", "preview", cfg.Preview)
		} else {
			preview := canvasrenderer.NewRenderer(canvasrenderer.Options{Title: filepath.Base(cfg.Input)})
			if err := render(preview, fc, cfg.Preview); err != nil {
				return nil, fmt.Errorf("输出 PDF 预览失败: %w", err)
			}
		}
	}

	return &result{
		report: report,
		font:   resolver.Font(),
		source: composer.Source(),
		cache:  resolver.Cache().Stats(),
		scale:  scale,
	}, nil
}

func render(r renderer.Renderer, fc *geojson.FeatureCollection, path string) error {
	if r == nil {
		return errors.New("renderer 不能为空")
	}
	data, err := r.Render(fc)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// writeFile 创建目录并写入文件，关闭失败同样视为写入失败。
func writeFile(path string, data []byte) (err error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("创建输出目录失败: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("无法创建文件 %s: %w", path, err)
	}
	defer func() {
		if cerr := f.Close(); cerr != nil && err == nil {
			err = fmt.Errorf("关闭文件 %s 失败: %w", path, cerr)
		}
	}()
	if _, err := f.Write(data); err != nil {
		return fmt.Errorf("写入文件 %s 失败: %w", path, err)
	}
	return nil
}

func writeDebug(lines []*layout.Line, debugPath string) error {
	if err := os.MkdirAll(filepath.Dir(debugPath), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	if err := layout.WriteDebugJSON(lines, debugPath); err != nil {
		return fmt.Errorf("输出调试 JSON 失败: %w", err)
	}
	return nil
}

func printSummary(cfg config.Config, res *result) {
	r := res.report
	pterm.Printf("字体: %s  坐标系: %s -> %s  比例: %g\n", res.font, res.source, compose.TargetCRS, res.scale)
	data := [][]string{
		{"项目", "数量"},
		{"实体", fmt.Sprint(r.Entities)},
		{"已处理文字", fmt.Sprint(r.Dispatched)},
		{"已展开块参照", fmt.Sprint(r.Exploded)},
		{"排除的字符串", fmt.Sprint(r.Excluded)},
		{"跳过的实体", fmt.Sprint(r.Skipped)},
		{"块展开失败", fmt.Sprint(r.ExplosionErrors)},
		{"字形解析失败", fmt.Sprint(r.GlyphFailures)},
		{"退化字符", fmt.Sprint(r.Degenerate)},
		{"丢弃的退化部件", fmt.Sprint(r.DroppedParts)},
		{"字形缓存命中/未命中", fmt.Sprintf("%d/%d", res.cache.Hits, res.cache.Misses)},
		{"输出要素", fmt.Sprint(r.Features)},
	}
	pterm.DefaultTable.WithHasHeader().WithData(data).Render()

	if r.Empty() {
		pterm.Warning.Printfln("没有转换任何文字，输出文件为空集合：%s", cfg.Output)
		return
	}
	pterm.Success.Printfln("已生成 GeoJSON：%s", cfg.Output)
}
