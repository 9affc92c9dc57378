package walker

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/paulmach/orb"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ByLCY/dxfglyph/compose"
	"github.com/ByLCY/dxfglyph/dxf"
	"github.com/ByLCY/dxfglyph/glyph"
	"github.com/ByLCY/dxfglyph/layout"
)

// boxResolver 为每个字符返回宽 0.6×字高的矩形，步进 0.8×字高；
// '?' 解析失败，'d' 返回共线的退化轮廓，'j' 在矩形之外附带一个退化部件。
type boxResolver struct{}

func (boxResolver) Font() string { return "box" }

func (boxResolver) Resolve(r rune, size float64) (*glyph.Outline, error) {
	if r == '?' {
		return nil, &glyph.ResolutionError{Char: r, Font: "box", Size: size, Err: glyph.ErrGlyphMissing}
	}
	w := 0.6 * size
	ring := orb.Ring{{0, 0}, {w, 0}, {w, size}, {0, size}, {0, 0}}
	if r == 'd' {
		ring = orb.Ring{{0, 0}, {w / 2, 0}, {w, 0}, {0, 0}}
	}
	polys := []orb.Polygon{{ring}}
	if r == 'j' {
		polys = append(polys, orb.Polygon{{{0, 2 * size}, {w, 2 * size}, {0, 2 * size}}})
	}
	return &glyph.Outline{
		Rings:    []orb.Ring{ring},
		Polygons: polys,
		Advance:  0.8 * size,
		Bounds:   ring.Bound(),
	}, nil
}

func drawing(pairs ...any) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		fmt.Fprintf(&b, "%3d\n%v\n", pairs[i], pairs[i+1])
	}
	return b.String()
}

func section(name, body string) string {
	return drawing(0, "SECTION", 2, name) + body + drawing(0, "ENDSEC")
}

func block(name, body string) string {
	return drawing(0, "BLOCK", 8, "0", 2, name, 70, 0, 10, 0, 20, 0, 30, 0) + body + drawing(0, "ENDBLK", 8, "0")
}

func text(content string, x, y, h float64) string {
	return drawing(0, "TEXT", 5, "2F", 8, "ANNO", 10, x, 20, y, 30, 0, 40, h, 1, content)
}

func insert(name string, x, y float64) string {
	return drawing(0, "INSERT", 8, "BLK", 2, name, 10, x, 20, y, 30, 0)
}

// walk 解析 DXF 片段并运行一次遍历。
func walk(t *testing.T, blocks, entities string, opts Options) (*Walker, *Report) {
	t.Helper()
	src := section("BLOCKS", blocks) + section("ENTITIES", entities) + drawing(0, "EOF")
	doc, err := dxf.Read(strings.NewReader(src))
	require.NoError(t, err)

	composer, err := compose.New(compose.TargetCRS, compose.Options{})
	require.NoError(t, err)
	w := New(doc, layout.NewEngine(boxResolver{}, layout.Options{}), composer, opts)
	return w, w.Run(doc.ModelspaceEntities())
}

func bound(t *testing.T, g orb.Geometry) orb.Bound {
	t.Helper()
	require.NotNil(t, g)
	return g.Bound()
}

func TestRunCentersText(t *testing.T) {
	w, report := walk(t, "", text("AB", 100, 50, 10), Options{})

	assert.Equal(t, 2, report.Features)
	assert.Equal(t, 1, report.Dispatched)
	assert.False(t, report.Empty())

	items := w.Features().Items()
	require.Len(t, items, 2)
	b := bound(t, items[0].Geometry)
	assert.InDelta(t, 92, b.Min[0], 1e-9)
	assert.InDelta(t, 98, b.Max[0], 1e-9)
	assert.InDelta(t, 50, b.Min[1], 1e-9)
	assert.InDelta(t, 60, b.Max[1], 1e-9)
	assert.InDelta(t, 100, bound(t, items[1].Geometry).Min[0], 1e-9)

	first := items[0]
	assert.Equal(t, 'A', first.Char)
	assert.Equal(t, "AB", first.Text)
	assert.Equal(t, "ANNO", first.Layer)
	assert.Equal(t, "box", first.Font)
	assert.Equal(t, "TEXT", first.Entity)
	assert.Equal(t, "2F", first.Handle)
	assert.InDelta(t, 100, first.InsertX, 1e-9)
	assert.InDelta(t, 50, first.InsertY, 1e-9)

	poly, ok := first.Geometry.(orb.Polygon)
	require.True(t, ok)
	assert.Equal(t, orb.CCW, poly[0].Orientation())
}

func TestRunExcludesExactMatches(t *testing.T) {
	entities := text("0", 0, 0, 1) + text("0.0", 0, 0, 1) + text("10", 0, 0, 1) + text("00", 0, 0, 1)
	w, report := walk(t, "", entities, Options{Exclude: DefaultExclude})

	assert.Equal(t, 2, report.Excluded)
	assert.Equal(t, 2, report.Count(IssueExcluded))
	assert.Equal(t, 4, report.Features)
	for _, ch := range w.Features().Items() {
		assert.NotEqual(t, "0", ch.Text)
		assert.NotEqual(t, "0.0", ch.Text)
	}
}

func TestRunSingleZeroProducesNothing(t *testing.T) {
	_, report := walk(t, "", text("0", 5, 5, 2.5), Options{Exclude: DefaultExclude})
	assert.True(t, report.Empty())
	assert.Equal(t, 0, report.Features)
}

func TestRunExplodesInsert(t *testing.T) {
	w, report := walk(t, block("B", text("X", 0, 0, 1)), insert("B", 10, 20), Options{})

	assert.Equal(t, 1, report.Exploded)
	assert.Equal(t, 2, report.Entities)
	require.Equal(t, 1, report.Features)

	ch := w.Features().Items()[0]
	assert.Equal(t, "X", ch.Text)
	assert.Equal(t, "ANNO", ch.Layer)
	assert.InDelta(t, 10, ch.InsertX, 1e-9)
	assert.InDelta(t, 20, ch.InsertY, 1e-9)
	b := bound(t, ch.Geometry)
	assert.InDelta(t, 9.6, b.Min[0], 1e-9)
	assert.InDelta(t, 20, b.Min[1], 1e-9)
}

// assertSameGeometry 逐顶点比较两个字符的多边形。
func assertSameGeometry(t *testing.T, want, got orb.Geometry) {
	t.Helper()
	wp, ok := want.(orb.Polygon)
	require.True(t, ok)
	gp, ok := got.(orb.Polygon)
	require.True(t, ok)
	require.Len(t, gp, len(wp))
	for i := range wp {
		require.Len(t, gp[i], len(wp[i]))
		for j := range wp[i] {
			assert.InDelta(t, wp[i][j][0], gp[i][j][0], 1e-9)
			assert.InDelta(t, wp[i][j][1], gp[i][j][1], 1e-9)
		}
	}
}

func TestRunInsertMatchesEquivalentText(t *testing.T) {
	// 块内 (1,0) 处字高 1 的文字，经缩放 2、旋转 90° 放在 (10,20)，
	// 等价于 (10,22) 处字高 2、旋转 90° 的顶层文字
	ins := drawing(0, "INSERT", 8, "BLK", 2, "B", 10, 10, 20, 20, 30, 0, 41, 2, 42, 2, 43, 2, 50, 90)
	exploded, report := walk(t, block("B", text("XY", 1, 0, 1)), ins, Options{})
	require.Equal(t, 2, report.Features)

	direct := drawing(0, "TEXT", 5, "2F", 8, "ANNO", 10, 10, 20, 22, 30, 0, 40, 2, 50, 90, 1, "XY")
	plain, _ := walk(t, "", direct, Options{})
	require.Equal(t, 2, plain.Features().Len())

	for i, want := range plain.Features().Items() {
		got := exploded.Features().Items()[i]
		assert.Equal(t, want.Char, got.Char)
		assert.Equal(t, want.Text, got.Text)
		assert.Equal(t, want.Layer, got.Layer)
		assert.InDelta(t, want.InsertX, got.InsertX, 1e-9)
		assert.InDelta(t, want.InsertY, got.InsertY, 1e-9)
		assertSameGeometry(t, want.Geometry, got.Geometry)
	}
}

func TestRunMTextLines(t *testing.T) {
	mtext := drawing(0, "MTEXT", 5, "3C", 8, "NOTES", 10, 0, 20, 0, 30, 0, 40, 1, 71, 1, 1, `L1\PL2`)
	w, report := walk(t, "", mtext, Options{})

	require.Equal(t, 4, report.Features)
	items := w.Features().Items()
	assert.Equal(t, "L1", items[0].Text)
	assert.Equal(t, "L2", items[2].Text)
	assert.Equal(t, "MTEXT", items[0].Entity)

	// 左上附着：首行左对齐于插入点，第二行在下方
	first := bound(t, items[0].Geometry)
	second := bound(t, items[2].Geometry)
	assert.InDelta(t, 0, first.Min[0], 1e-9)
	assert.InDelta(t, 0, first.Max[1], 1e-9)
	assert.InDelta(t, 0, second.Min[0], 1e-9)
	assert.Less(t, second.Max[1], first.Min[1])
}

func TestRunMTextExcludesFragment(t *testing.T) {
	mtext := drawing(0, "MTEXT", 8, "0", 10, 0, 20, 0, 30, 0, 40, 1, 1, `0\PA`)
	w, report := walk(t, "", mtext, Options{Exclude: DefaultExclude})

	assert.Equal(t, 1, report.Excluded)
	require.Equal(t, 1, report.Features)
	assert.Equal(t, "A", w.Features().Items()[0].Text)
}

func TestRunCyclicBlock(t *testing.T) {
	_, report := walk(t, block("LOOP", insert("loop", 0, 0)+text("Z", 0, 0, 1)), insert("LOOP", 0, 0), Options{})

	assert.Equal(t, 1, report.ExplosionErrors)
	assert.Equal(t, 1, report.Features)
	issues := report.Issues
	require.Len(t, issues, 1)

	var xerr *ExplosionError
	require.True(t, errors.As(issues[0].Err, &xerr))
	assert.Equal(t, "loop", xerr.Block)
	assert.Equal(t, 1, xerr.Depth)
	assert.ErrorIs(t, issues[0].Err, ErrCyclicBlock)
}

func TestRunDepthExceeded(t *testing.T) {
	blocks := block("OUTER", insert("INNER", 0, 0)) + block("INNER", text("Y", 0, 0, 1))

	_, report := walk(t, blocks, insert("OUTER", 0, 0), Options{MaxDepth: 1})
	assert.Equal(t, 1, report.ExplosionErrors)
	assert.Equal(t, 0, report.Features)
	assert.ErrorIs(t, report.Issues[0].Err, ErrDepthExceeded)

	_, report = walk(t, blocks, insert("OUTER", 0, 0), Options{})
	assert.Equal(t, 0, report.ExplosionErrors)
	assert.Equal(t, 1, report.Features)
}

func TestRunMissingBlockContinues(t *testing.T) {
	_, report := walk(t, "", insert("NOPE", 0, 0)+text("K", 0, 0, 1), Options{})

	assert.Equal(t, 1, report.ExplosionErrors)
	assert.Equal(t, 1, report.Features)
	assert.ErrorIs(t, report.Issues[0].Err, dxf.ErrBlockNotFound)
}

func TestRunGlyphFailureKeepsAdvance(t *testing.T) {
	w, report := walk(t, "", text("A?B", 0, 0, 10), Options{})

	assert.Equal(t, 1, report.GlyphFailures)
	require.Equal(t, 2, report.Features)
	assert.Equal(t, '?', report.Issues[0].Char)
	assert.ErrorIs(t, report.Issues[0].Err, glyph.ErrGlyphMissing)

	// 总宽 8 + 5 + 8 = 21，B 的笔位置为 -10.5 + 13
	b := bound(t, w.Features().Items()[1].Geometry)
	assert.InDelta(t, 2.5, b.Min[0], 1e-9)
}

func TestRunDegenerateCharacter(t *testing.T) {
	_, report := walk(t, "", text("dA", 0, 0, 1), Options{})
	assert.Equal(t, 1, report.Degenerate)
	assert.Equal(t, 1, report.Features)
	assert.ErrorIs(t, report.Issues[0].Err, compose.ErrDegenerate)
}

func TestRunMinsertWithAttributes(t *testing.T) {
	entities := drawing(0, "INSERT", 8, "0", 66, 1, 2, "G", 10, 0, 20, 0, 30, 0, 70, 2, 44, 5) +
		drawing(0, "ATTRIB", 8, "ATT", 10, 3, 20, 4, 30, 0, 40, 1, 1, "P", 2, "ID", 70, 0) +
		drawing(0, "ATTRIB", 8, "ATT", 10, 3, 20, 4, 30, 0, 40, 1, 1, "H", 2, "NOTE", 70, 1) +
		drawing(0, "SEQEND", 8, "0")
	w, report := walk(t, block("G", text("g", 0, 0, 1)), entities, Options{})

	require.Equal(t, 3, report.Features)
	items := w.Features().Items()
	assert.InDelta(t, 0, items[0].InsertX, 1e-9)
	assert.InDelta(t, 5, items[1].InsertX, 1e-9)
	assert.Equal(t, "P", items[2].Text)
	assert.Equal(t, "ATT", items[2].Layer)
	assert.Equal(t, "ATTRIB", items[2].Entity)
}

func TestRunSkipsUnsupportedAndInvalid(t *testing.T) {
	entities := drawing(0, "LINE", 8, "0", 10, 0, 20, 0, 30, 0, 11, 1, 21, 1, 31, 0) + text("Q", 0, 0, 0)
	_, report := walk(t, "", entities, Options{})

	assert.Equal(t, 2, report.Skipped)
	assert.Equal(t, 1, report.Count(IssueInvalidHeight))
	assert.True(t, report.Empty())
}

func TestRunRecordsDebugLines(t *testing.T) {
	w, _ := walk(t, "", text("AB", 0, 0, 1)+text("C", 0, 0, 1), Options{Debug: true})
	require.Len(t, w.Lines(), 2)
	assert.Equal(t, "AB", w.Lines()[0].Run.Content)

	w, _ = walk(t, "", text("AB", 0, 0, 1), Options{})
	assert.Empty(t, w.Lines())
}

func TestRunReportsStates(t *testing.T) {
	entities := text("A", 0, 0, 1) +
		drawing(0, "MTEXT", 8, "0", 10, 0, 20, 0, 30, 0, 40, 1, 1, `B\PC`) +
		drawing(0, "MTEXT", 8, "0", 10, 0, 20, 0, 30, 0, 40, 1, 1, `0\P0.0`) +
		text("0", 0, 0, 1) +
		insert("B", 0, 0) +
		drawing(0, "LINE", 8, "0", 10, 0, 20, 0, 30, 0, 11, 1, 21, 1, 31, 0)
	_, report := walk(t, block("B", text("D", 0, 0, 1)), entities, Options{Exclude: DefaultExclude})

	assert.Equal(t, Done, report.State)
	// TEXT、MTEXT 与块内 TEXT
	assert.Equal(t, 3, report.States[Dispatched])
	assert.Equal(t, 3, report.Dispatched)
	assert.Equal(t, 1, report.States[Exploded])
	// 全部片段被排除的 MTEXT、排除的 TEXT 与 LINE
	assert.Equal(t, 3, report.States[Skipped])
	assert.Equal(t, 0, report.States[Pending])
	assert.Equal(t, 4, report.Features)
}

func TestRunRecordsDroppedParts(t *testing.T) {
	w, report := walk(t, "", text("jA", 0, 0, 1), Options{})

	require.Equal(t, 2, report.Features)
	assert.Equal(t, 0, report.Degenerate)
	assert.Equal(t, 1, report.DroppedParts)
	require.Equal(t, 1, report.Count(IssueDroppedPart))
	assert.Equal(t, 'j', report.Issues[0].Char)
	assert.ErrorIs(t, report.Issues[0].Err, compose.ErrDegenerate)

	_, ok := w.Features().Items()[0].Geometry.(orb.Polygon)
	assert.True(t, ok)
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "exploded", Exploded.String())
	assert.Equal(t, "State(9)", State(9).String())
	assert.Equal(t, "dropped-part", IssueDroppedPart.String())
}
