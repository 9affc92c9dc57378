package dxf

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// drawing 将 code/value 交替的参数拼成 ASCII DXF 文本。
func drawing(pairs ...any) string {
	var b strings.Builder
	for i := 0; i+1 < len(pairs); i += 2 {
		fmt.Fprintf(&b, "%3d\n%v\n", pairs[i], pairs[i+1])
	}
	return b.String()
}

func section(name string, body string) string {
	return drawing(0, "SECTION", 2, name) + body + drawing(0, "ENDSEC")
}

func eof() string { return drawing(0, "EOF") }

func textTags(layer, content string, x, y, h float64) string {
	return drawing(0, "TEXT", 5, "1A", 8, layer, 10, x, 20, y, 30, 0, 40, h, 1, content)
}

func TestReadModelspaceEntities(t *testing.T) {
	src := section("HEADER", drawing(9, "$ACADVER", 1, "AC1027", 9, "$INSUNITS", 70, 6)) +
		section("ENTITIES",
			textTags("A", "AB", 1, 2, 2.5)+
				drawing(0, "LINE", 8, "0", 10, 0, 20, 0, 11, 1, 21, 1)+
				drawing(0, "MTEXT", 8, "M", 10, 0, 20, 0, 40, 1, 3, "first\\P", 1, "second")+
				drawing(0, "TEXT", 8, "P", 67, 1, 10, 0, 20, 0, 40, 1, 1, "paper")) +
		eof()

	doc, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "AC1027", doc.Version)
	assert.Equal(t, 6, doc.Units)

	ents := doc.ModelspaceEntities()
	require.Len(t, ents, 3)

	text, ok := ents[0].(*Text)
	require.True(t, ok)
	assert.Equal(t, "AB", text.Content())
	assert.Equal(t, "A", text.Layer())
	assert.Equal(t, "1A", text.Handle())
	assert.Equal(t, Vec3{1, 2, 0}, text.Insert)
	assert.Equal(t, 2.5, text.Height)
	assert.Equal(t, 1.0, text.WidthFactor)

	assert.Equal(t, "LINE", ents[1].Type())
	_, ok = ents[1].(*Other)
	assert.True(t, ok)

	mt, ok := ents[2].(*MText)
	require.True(t, ok)
	assert.Equal(t, "first\\Psecond", mt.Raw)
	assert.Equal(t, "first\nsecond", mt.PlainText())
}

func TestReadRejectsInvalidInput(t *testing.T) {
	cases := map[string]string{
		"binary":  "AutoCAD Binary DXF\r\n\x1a\x00",
		"text":    "hello world\nthis is not a drawing\n",
		"empty":   "",
		"dangling": drawing(0, "SECTION") + "  2\n",
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Read(strings.NewReader(src))
			if !errors.Is(err, ErrInvalidStructure) {
				t.Fatalf("期望 ErrInvalidStructure，实际为 %v", err)
			}
		})
	}
}

func TestReadTruncatedSections(t *testing.T) {
	blocks := drawing(0, "SECTION", 2, "BLOCKS")
	cases := map[string]string{
		"block at end":       blocks + drawing(0, "BLOCK"),
		"bad code in block":  blocks + drawing(0, "BLOCK") + "xx\nyy\n",
		"block without end":  blocks + drawing(0, "BLOCK", 2, "B", 10, 0, 20, 0, 30, 0) + textTags("0", "A", 0, 0, 1),
		"endblk at end":      blocks + drawing(0, "BLOCK", 2, "B", 0, "ENDBLK", 8, "0"),
		"entities truncated": drawing(0, "SECTION", 2, "ENTITIES") + textTags("0", "A", 0, 0, 1),
	}
	for name, src := range cases {
		t.Run(name, func(t *testing.T) {
			done := make(chan error, 1)
			go func() {
				_, err := Read(strings.NewReader(src))
				done <- err
			}()
			select {
			case err := <-done:
				assert.ErrorIs(t, err, ErrInvalidStructure)
			case <-time.After(3 * time.Second):
				t.Fatal("Read 未在 3 秒内返回")
			}
		})
	}
}

func TestReadLegacyCodepage(t *testing.T) {
	src := section("HEADER", drawing(9, "$ACADVER", 1, "AC1015", 9, "$DWGCODEPAGE", 3, "ANSI_1252")) +
		section("ENTITIES", textTags("0", "caf\xe9", 0, 0, 1)) + eof()

	doc, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	require.Len(t, doc.ModelspaceEntities(), 1)
	assert.Equal(t, "café", doc.ModelspaceEntities()[0].(*Text).Content())
}

func TestReadKeepsUTF8InLegacyVersion(t *testing.T) {
	src := section("HEADER", drawing(9, "$ACADVER", 1, "AC1015", 9, "$DWGCODEPAGE", 3, "ANSI_936")) +
		section("ENTITIES", textTags("0", "测试", 0, 0, 1)) + eof()

	doc, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	assert.Equal(t, "测试", doc.ModelspaceEntities()[0].(*Text).Content())
}

func blockSection(name string, base Vec3, body string) string {
	return drawing(0, "BLOCK", 8, "0", 2, name, 70, 0, 10, base.X, 20, base.Y, 30, base.Z) +
		body + drawing(0, "ENDBLK", 8, "0")
}

func TestExplodeAppliesInsertTransform(t *testing.T) {
	src := section("BLOCKS", blockSection("B", Vec3{}, textTags("0", "X", 1, 0, 1))) +
		section("ENTITIES", drawing(0, "INSERT", 8, "L", 2, "b", 10, 10, 20, 20, 30, 0, 41, 2, 42, 2, 43, 2, 50, 90)) +
		eof()

	doc, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	ins := doc.ModelspaceEntities()[0].(*Insert)

	out, err := doc.Explode(ins)
	require.NoError(t, err)
	require.Len(t, out, 1)

	text := out[0].(*Text)
	assert.InDelta(t, 10, text.Insert.X, 1e-9)
	assert.InDelta(t, 22, text.Insert.Y, 1e-9)
	assert.InDelta(t, 90, text.Rotation, 1e-9)
	assert.InDelta(t, 2, text.Height, 1e-9)
	assert.InDelta(t, 1, text.WidthFactor, 1e-9)
	assert.InDelta(t, 1, text.Extrusion.Z, 1e-9)
}

func TestExplodeBasePointAndNested(t *testing.T) {
	src := section("BLOCKS",
		blockSection("INNER", Vec3{}, textTags("0", "I", 0, 0, 1))+
			blockSection("OUTER", Vec3{5, 5, 0}, drawing(0, "INSERT", 8, "0", 2, "INNER", 10, 6, 20, 5, 30, 0))) +
		section("ENTITIES", drawing(0, "INSERT", 8, "0", 2, "OUTER", 10, 100, 20, 0, 30, 0)) +
		eof()

	doc, err := Read(strings.NewReader(src))
	require.NoError(t, err)

	level1, err := doc.Explode(doc.ModelspaceEntities()[0].(*Insert))
	require.NoError(t, err)
	require.Len(t, level1, 1)
	inner := level1[0].(*Insert)
	// 块基点 (5,5) 对齐到插入点 (100,0)
	assert.InDelta(t, 101, inner.InsertWCS().X, 1e-9)
	assert.InDelta(t, 0, inner.InsertWCS().Y, 1e-9)

	level2, err := doc.Explode(inner)
	require.NoError(t, err)
	require.Len(t, level2, 1)
	text := level2[0].(*Text)
	assert.InDelta(t, 101, text.InsertWCS().X, 1e-9)
	assert.InDelta(t, 0, text.InsertWCS().Y, 1e-9)
}

func TestExplodeMinsertGrid(t *testing.T) {
	src := section("BLOCKS", blockSection("G", Vec3{}, textTags("0", "g", 0, 0, 1))) +
		section("ENTITIES", drawing(0, "INSERT", 8, "0", 2, "G", 10, 0, 20, 0, 30, 0,
			70, 2, 71, 3, 44, 10, 45, 4)) +
		eof()

	doc, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	out, err := doc.Explode(doc.ModelspaceEntities()[0].(*Insert))
	require.NoError(t, err)
	require.Len(t, out, 6)

	last := out[5].(*Text)
	assert.InDelta(t, 10, last.Insert.X, 1e-9)
	assert.InDelta(t, 8, last.Insert.Y, 1e-9)
}

func TestExplodeAttributes(t *testing.T) {
	src := section("BLOCKS", blockSection("A", Vec3{},
		drawing(0, "ATTDEF", 8, "0", 10, 0, 20, 0, 40, 1, 1, "default", 2, "TAG", 3, "prompt", 70, 0))) +
		section("ENTITIES",
			drawing(0, "INSERT", 8, "0", 66, 1, 2, "A", 10, 0, 20, 0, 30, 0)+
				drawing(0, "ATTRIB", 8, "ATT", 10, 3, 20, 4, 30, 0, 40, 1, 1, "P-101", 2, "ID", 70, 0)+
				drawing(0, "ATTRIB", 8, "ATT", 10, 3, 20, 4, 30, 0, 40, 1, 1, "hidden", 2, "NOTE", 70, 1)+
				drawing(0, "SEQEND", 8, "0")+
				textTags("0", "after", 0, 0, 1)) +
		eof()

	doc, err := Read(strings.NewReader(src))
	require.NoError(t, err)
	ents := doc.ModelspaceEntities()
	require.Len(t, ents, 2)
	ins := ents[0].(*Insert)
	require.Len(t, ins.Attribs, 2)
	assert.Equal(t, "ID", ins.Attribs[0].Tag)
	assert.True(t, ins.Attribs[1].Invisible())
	assert.Equal(t, "after", ents[1].(*Text).Content())

	out, err := doc.Explode(ins)
	require.NoError(t, err)
	require.Len(t, out, 2)
	assert.Equal(t, "ATTDEF", out[0].Type())
	attr := out[1].(*Text)
	assert.Equal(t, "P-101", attr.Content())
	assert.Equal(t, "ATT", attr.Layer())
	assert.Equal(t, Vec3{3, 4, 0}, attr.Insert)
}

func TestExplodeMissingBlock(t *testing.T) {
	doc, err := Read(strings.NewReader(section("ENTITIES", drawing(0, "INSERT", 8, "0", 2, "NOPE")) + eof()))
	require.NoError(t, err)
	_, err = doc.Explode(doc.ModelspaceEntities()[0].(*Insert))
	assert.ErrorIs(t, err, ErrBlockNotFound)
}

func TestOCSRoundTrip(t *testing.T) {
	for _, n := range []Vec3{{0, 0, 1}, {0, 0, -1}, {1, 1, 1}, {0.01, 0, 1}, {1, 0, 0}} {
		ocs := NewOCS(n)
		p := Vec3{1.5, -2.25, 3}
		back := ocs.FromWCS(ocs.ToWCS(p))
		if back.Sub(p).Len() > 1e-9 {
			t.Fatalf("拉伸方向 %v 往返失败: %v -> %v", n, p, back)
		}
	}

	flipped := NewOCS(Vec3{0, 0, -1})
	got := flipped.ToWCS(Vec3{1, 2, 3})
	if math.Abs(got.X+1) > 1e-12 || math.Abs(got.Y-2) > 1e-12 || math.Abs(got.Z+3) > 1e-12 {
		t.Fatalf("镜像 OCS 映射错误: %v", got)
	}
}

func TestMTextFragments(t *testing.T) {
	m := createEntity("MTEXT").(*MText)
	for _, tag := range []Tag{
		{10, "0"}, {20, "0"}, {40, "3"}, {71, "5"}, {1, "AB\\P\\PCD"},
	} {
		m.setTag(tag)
	}

	frags := m.Fragments()
	require.Len(t, frags, 2)
	step := 3 * LineSpacing
	total := 3 + 2*step
	assert.Equal(t, "AB", frags[0].Content)
	assert.Equal(t, JustifyCenter, frags[0].Justify)
	assert.InDelta(t, -3+total/2, frags[0].Insert.Y, 1e-9)
	assert.Equal(t, 2, frags[1].Line)
	assert.InDelta(t, -3+total/2-2*step, frags[1].Insert.Y, 1e-9)
}

func TestTransformMirroredText(t *testing.T) {
	text := newText("TEXT")
	text.Insert = Vec3{1, 0, 0}
	text.Height = 1

	out := text.Transform(Scale(-1, 1, 1))
	assert.InDelta(t, -1, out.Extrusion.Z, 1e-9)
	// 镜像后位于 OCS(0,0,-1) 中，插入点的世界坐标仍为 (-1,0,0)
	assert.InDelta(t, -1, out.InsertWCS().X, 1e-9)
	assert.InDelta(t, 1, out.Height, 1e-9)
}
