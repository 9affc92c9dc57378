package mtext

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

var (
	mtextLexer = lexer.MustSimple([]lexer.SimpleRule{
		{Name: "Break", Pattern: `\\[PX]|\r?\n`},
		{Name: "Space", Pattern: `\\~`},
		{Name: "Escaped", Pattern: `\\[\\{}]`},
		{Name: "Unicode", Pattern: `\\[Uu]\+[0-9A-Fa-f]{4}`},
		{Name: "Stack", Pattern: `\\S[^;]*;`},
		{Name: "Property", Pattern: `\\[ACcFfHhQTWp][^;]*;`},
		{Name: "Toggle", Pattern: `\\[LlOoKk]`},
		{Name: "Special", Pattern: `%%[cdpCDP%]`},
		{Name: "Caret", Pattern: `\^[A-Z@\[\\\]^_ ]`},
		{Name: "LBrace", Pattern: `{`},
		{Name: "RBrace", Pattern: `}`},
		{Name: "Text", Pattern: `[^\\{}%^\r\n]+`},
		{Name: "Other", Pattern: `[\\%^\r]`},
	})

	contentParser = participle.MustBuild[Content](
		participle.Lexer(mtextLexer),
	)
)

// Content 是 MTEXT 内容的语法树根节点。
type Content struct {
	Items []*Item `parser:"@@*"`
}

// Item 是内容中的单个片段：文本、控制码或花括号分组。
type Item struct {
	Group    *Group  `parser:"  @@"`
	Break    *string `parser:"| @Break"`
	Space    *string `parser:"| @Space"`
	Escaped  *string `parser:"| @Escaped"`
	Unicode  *string `parser:"| @Unicode"`
	Stack    *string `parser:"| @Stack"`
	Property *string `parser:"| @Property"`
	Toggle   *string `parser:"| @Toggle"`
	Special  *string `parser:"| @Special"`
	Caret    *string `parser:"| @Caret"`
	Text     *string `parser:"| @Text"`
	Other    *string `parser:"| @Other"`
}

// Group 对应 { ... } 形式的局部格式作用域。
type Group struct {
	Items []*Item `parser:"'{' @@* '}'"`
}

// Parse 将 MTEXT 原始内容解析为语法树。
func Parse(content string) (*Content, error) {
	c, err := contentParser.ParseString("", content)
	if err != nil {
		return nil, fmt.Errorf("解析 MTEXT 内容失败: %w", err)
	}
	return c, nil
}

// Lines 返回按段落拆分的纯文本行，格式控制码全部丢弃。
// 无法解析的内容退化为仅按 \P 拆分。
func Lines(content string) []string {
	c, err := Parse(content)
	if err != nil {
		return strings.Split(content, `\P`)
	}
	w := &lineWriter{}
	w.items(c.Items)
	return w.finish()
}

// PlainText 返回以换行符连接的纯文本。
func PlainText(content string) string {
	return strings.Join(Lines(content), "\n")
}

type lineWriter struct {
	lines []string
	cur   strings.Builder
}

func (w *lineWriter) finish() []string {
	lines := append(w.lines, w.cur.String())
	for i := range lines {
		lines[i] = Normalize(lines[i])
	}
	return lines
}

func (w *lineWriter) newLine() {
	w.lines = append(w.lines, w.cur.String())
	w.cur.Reset()
}

func (w *lineWriter) items(items []*Item) {
	for _, it := range items {
		w.item(it)
	}
}

func (w *lineWriter) item(it *Item) {
	switch {
	case it.Group != nil:
		w.items(it.Group.Items)
	case it.Break != nil:
		w.newLine()
	case it.Space != nil:
		w.cur.WriteByte(' ')
	case it.Escaped != nil:
		w.cur.WriteString((*it.Escaped)[1:])
	case it.Unicode != nil:
		w.cur.WriteString(decodeUnicode(*it.Unicode))
	case it.Stack != nil:
		w.cur.WriteString(stackText(*it.Stack))
	case it.Property != nil, it.Toggle != nil:
	case it.Special != nil:
		w.cur.WriteString(specialText((*it.Special)[2]))
	case it.Caret != nil:
		switch (*it.Caret)[1] {
		case 'J':
			w.newLine()
		case 'I':
			w.cur.WriteByte(' ')
		case 'M':
		default:
			w.cur.WriteString(*it.Caret)
		}
	case it.Text != nil:
		w.cur.WriteString(*it.Text)
	case it.Other != nil:
		if *it.Other != "\r" {
			w.cur.WriteString(*it.Other)
		}
	}
}

// decodeUnicode 处理 \U+XXXX 转义。
func decodeUnicode(raw string) string {
	v, err := strconv.ParseUint(raw[3:], 16, 32)
	if err != nil {
		return raw
	}
	return string(rune(v))
}

// stackText 将堆叠分数 \Sa^b; \Sa/b; \Sa#b; 展平为 a/b。
func stackText(raw string) string {
	body := strings.TrimSuffix(strings.TrimPrefix(raw, `\S`), ";")
	for _, sep := range []string{"^", "/", "#"} {
		if i := strings.Index(body, sep); i >= 0 {
			upper := strings.TrimSpace(body[:i])
			lower := strings.TrimSpace(body[i+1:])
			if upper == "" {
				return lower
			}
			if lower == "" {
				return upper
			}
			return upper + "/" + lower
		}
	}
	return body
}

func specialText(code byte) string {
	switch code {
	case 'c', 'C':
		return "⌀"
	case 'd', 'D':
		return "°"
	case 'p', 'P':
		return "±"
	default:
		return "%"
	}
}
