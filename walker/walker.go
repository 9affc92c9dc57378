// Package walker 按图纸顺序遍历模型空间实体，将 TEXT、MTEXT 与块参照中的文字
// 排版、投影后累积为逐字符要素。遍历单线程、深度优先，单个实体的失败不会中断整次运行。
package walker

import (
	"strings"

	"github.com/ByLCY/dxfglyph/compose"
	"github.com/ByLCY/dxfglyph/dxf"
	"github.com/ByLCY/dxfglyph/feature"
	"github.com/ByLCY/dxfglyph/layout"
)

// DefaultMaxDepth 是块参照嵌套的默认上限。
const DefaultMaxDepth = 16

// DefaultExclude 是默认跳过的文字内容。
var DefaultExclude = []string{"0", "0.0"}

// Exploder 展开一层块参照，*dxf.Document 满足该接口。
type Exploder interface {
	Explode(ins *dxf.Insert) ([]dxf.Entity, error)
}

// Options 配置遍历行为。
type Options struct {
	// Exclude 中的字符串与文字内容完全相等时跳过该实体（不做子串匹配）。
	Exclude []string
	// MaxDepth 限制块参照嵌套层数，0 使用 DefaultMaxDepth。
	MaxDepth int
	// Debug 为 true 时保留每行的排版结果，供调试 JSON 使用。
	Debug bool
}

// Walker 驱动一次遍历。非并发安全。
type Walker struct {
	blocks   Exploder
	engine   *layout.Engine
	composer *compose.Composer
	opts     Options
	exclude  map[string]struct{}

	features *feature.Collection
	lines    []*layout.Line
	report   *Report
}

// New 创建遍历器。blocks 可以为 nil，此时所有块参照都按块不存在处理。
func New(blocks Exploder, engine *layout.Engine, composer *compose.Composer, opts Options) *Walker {
	if opts.MaxDepth <= 0 {
		opts.MaxDepth = DefaultMaxDepth
	}
	exclude := make(map[string]struct{}, len(opts.Exclude))
	for _, s := range opts.Exclude {
		exclude[s] = struct{}{}
	}
	return &Walker{
		blocks:   blocks,
		engine:   engine,
		composer: composer,
		opts:     opts,
		exclude:  exclude,
		features: feature.NewCollection(),
	}
}

// Features 返回最近一次 Run 累积的要素。
func (w *Walker) Features() *feature.Collection { return w.features }

// Lines 返回排版结果，仅在 Options.Debug 为 true 时记录。
func (w *Walker) Lines() []*layout.Line { return w.lines }

// Run 按给定顺序访问实体；块参照深度优先展开，子实体全部处理完才继续下一个顶层实体。
func (w *Walker) Run(entities []dxf.Entity) *Report {
	w.features = feature.NewCollection()
	w.lines = nil
	w.report = &Report{States: map[State]int{}}
	for _, e := range entities {
		w.visit(e, 0, nil)
	}
	w.report.Features = w.features.Len()
	w.report.State = Done
	return w.report
}

// visit 处理单个 Pending 实体并返回其去向。chain 是从顶层到当前位置经过的块名（大写）。
func (w *Walker) visit(e dxf.Entity, depth int, chain []string) State {
	w.report.Entities++
	var state State
	switch v := e.(type) {
	case *dxf.Text:
		state = w.text(v)
	case *dxf.MText:
		state = w.mtext(v)
	case *dxf.Insert:
		state = w.insert(v, depth, chain)
	default:
		w.report.Skipped++
		Logger().Debug("跳过不支持的实体", "type", e.Type(), "handle", e.Handle())
		state = Skipped
	}
	w.report.States[state]++
	return state
}

func (w *Walker) excluded(content string) bool {
	_, ok := w.exclude[content]
	return ok
}

func (w *Walker) skipExcluded(e dxf.Entity, content string) State {
	w.report.Excluded++
	w.report.add(Issue{Kind: IssueExcluded, Entity: e.Type(), Handle: e.Handle(), Layer: e.Layer(), Text: content})
	Logger().Info("跳过排除的字符串", "text", content, "type", e.Type(), "handle", e.Handle())
	return Skipped
}

func (w *Walker) skipHeight(e dxf.Entity, content string, height float64) State {
	w.report.Skipped++
	w.report.add(Issue{Kind: IssueInvalidHeight, Entity: e.Type(), Handle: e.Handle(), Layer: e.Layer(), Text: content})
	Logger().Warn("文字高度无效，已跳过", "text", content, "height", height, "handle", e.Handle())
	return Skipped
}

func (w *Walker) text(t *dxf.Text) State {
	content := t.Content()
	if w.excluded(content) {
		return w.skipExcluded(t, content)
	}
	if !(t.Height > 0) {
		return w.skipHeight(t, content, t.Height)
	}
	w.report.Dispatched++
	ins := t.InsertWCS()
	w.emit(layout.TextRun{
		Content:     content,
		Insert:      t.Insert,
		Height:      t.Height,
		Rotation:    t.Rotation,
		WidthFactor: t.WidthFactor,
		Oblique:     t.Oblique,
		Layer:       t.Layer(),
		OCS:         t.OCS(),
		Font:        w.engine.Font(),
		Align:       layout.AlignCenter,
		Entity:      t.Type(),
		Handle:      t.Handle(),
	}, ins)
	return Dispatched
}

func (w *Walker) mtext(m *dxf.MText) State {
	plain := m.PlainText()
	if w.excluded(plain) {
		return w.skipExcluded(m, plain)
	}
	if !(m.Height > 0) {
		return w.skipHeight(m, plain, m.Height)
	}
	ocs := m.OCS()
	state := Skipped
	for _, f := range m.Fragments() {
		if w.excluded(f.Content) {
			w.skipExcluded(m, f.Content)
			continue
		}
		if state != Dispatched {
			w.report.Dispatched++
			state = Dispatched
		}
		// 片段插入点即其附着点，按附着列对齐与从片段左端起排等价
		w.emit(layout.TextRun{
			Content:     f.Content,
			Insert:      f.Insert,
			Height:      f.Height,
			Rotation:    f.Rotation,
			WidthFactor: 1,
			Layer:       m.Layer(),
			OCS:         ocs,
			Font:        w.engine.Font(),
			Align:       layout.AlignFromJustify(f.Justify),
			Entity:      m.Type(),
			Handle:      m.Handle(),
		}, ocs.ToWCS(f.Insert))
	}
	return state
}

func (w *Walker) insert(ins *dxf.Insert, depth int, chain []string) State {
	name := strings.ToUpper(ins.BlockName)
	var err error
	switch {
	case containsBlock(chain, name):
		err = ErrCyclicBlock
	case depth >= w.opts.MaxDepth:
		err = ErrDepthExceeded
	case w.blocks == nil:
		err = dxf.ErrBlockNotFound
	}
	var subs []dxf.Entity
	if err == nil {
		subs, err = w.blocks.Explode(ins)
	}
	if err != nil {
		xerr := &ExplosionError{Block: ins.BlockName, Layer: ins.Layer(), Depth: depth, Err: err}
		w.report.ExplosionErrors++
		w.report.add(Issue{Kind: IssueExplosion, Entity: ins.Type(), Handle: ins.Handle(), Layer: ins.Layer(), Err: xerr})
		Logger().Warn("无法展开块参照", "block", ins.BlockName, "layer", ins.Layer(), "depth", depth, "err", err)
		return Skipped
	}

	w.report.Exploded++
	Logger().Debug("展开块参照", "block", ins.BlockName, "entities", len(subs), "depth", depth)
	next := append(chain[:len(chain):len(chain)], name)
	for _, e := range subs {
		w.visit(e, depth+1, next)
	}
	return Exploded
}

func containsBlock(chain []string, name string) bool {
	for _, c := range chain {
		if c == name {
			return true
		}
	}
	return false
}

// emit 排版一行并逐字符投影。解析失败与退化的字符各自记录后跳过，其余字符照常输出。
func (w *Walker) emit(run layout.TextRun, insertWCS dxf.Vec3) {
	line := w.engine.Layout(run)
	if w.opts.Debug {
		w.lines = append(w.lines, line)
	}
	log := Logger()
	for _, g := range line.Glyphs {
		if g.Err != nil {
			w.report.GlyphFailures++
			w.report.add(Issue{Kind: IssueGlyph, Entity: run.Entity, Handle: run.Handle, Layer: run.Layer, Text: run.Content, Char: g.Char, Err: g.Err})
			log.Warn("字形解析失败，已跳过", "char", string(g.Char), "text", run.Content, "err", g.Err)
			continue
		}
		if g.Whitespace || len(g.Polygons) == 0 {
			continue
		}
		geom, dropped, err := w.composer.Character(g.Polygons, run.Insert.Z, run.OCS)
		if err != nil {
			w.report.Degenerate++
			w.report.add(Issue{Kind: IssueDegenerate, Entity: run.Entity, Handle: run.Handle, Layer: run.Layer, Text: run.Content, Char: g.Char, Err: err})
			log.Warn("字符多边形无效，已跳过", "char", string(g.Char), "text", run.Content, "err", err)
			continue
		}
		for _, derr := range dropped {
			w.report.DroppedParts++
			w.report.add(Issue{Kind: IssueDroppedPart, Entity: run.Entity, Handle: run.Handle, Layer: run.Layer, Text: run.Content, Char: g.Char, Err: derr})
			log.Warn("字符部分轮廓退化，已丢弃", "char", string(g.Char), "text", run.Content, "err", derr)
		}
		w.features.Accumulate(feature.Character{
			Geometry: geom,
			Text:     run.Content,
			Char:     g.Char,
			Layer:    run.Layer,
			Font:     run.Font,
			InsertX:  insertWCS.X,
			InsertY:  insertWCS.Y,
			Entity:   run.Entity,
			Handle:   run.Handle,
		})
	}
	log.Debug("已处理文字", "entity", run.Entity, "text", run.Content, "chars", len(line.Glyphs))
}
