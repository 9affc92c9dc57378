package walker

import (
	"errors"
	"fmt"
)

var (
	// ErrDepthExceeded 表示块参照嵌套超过上限。
	ErrDepthExceeded = errors.New("块参照嵌套层数超过上限")
	// ErrCyclicBlock 表示块直接或间接引用了自身。
	ErrCyclicBlock = errors.New("块参照存在循环引用")
)

// State 是实体在遍历中的状态。
type State int

const (
	Pending State = iota
	Dispatched
	Exploded
	Skipped
	Done
)

func (s State) String() string {
	switch s {
	case Pending:
		return "pending"
	case Dispatched:
		return "dispatched"
	case Exploded:
		return "exploded"
	case Skipped:
		return "skipped"
	case Done:
		return "done"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ExplosionError 描述一次块参照展开失败，该 INSERT 不产生任何要素。
type ExplosionError struct {
	Block string
	Layer string
	Depth int
	Err   error
}

func (e *ExplosionError) Error() string {
	return fmt.Sprintf("展开块 %q（图层 %s，深度 %d）失败: %v", e.Block, e.Layer, e.Depth, e.Err)
}

func (e *ExplosionError) Unwrap() error { return e.Err }

// IssueKind 区分跳过的原因。
type IssueKind int

const (
	IssueExcluded IssueKind = iota
	IssueInvalidHeight
	IssueGlyph
	IssueDegenerate
	IssueExplosion
	IssueDroppedPart
)

func (k IssueKind) String() string {
	switch k {
	case IssueExcluded:
		return "excluded"
	case IssueInvalidHeight:
		return "invalid-height"
	case IssueGlyph:
		return "glyph"
	case IssueDegenerate:
		return "degenerate"
	case IssueExplosion:
		return "explosion"
	case IssueDroppedPart:
		return "dropped-part"
	default:
		return fmt.Sprintf("IssueKind(%d)", int(k))
	}
}

// Issue 记录一次被跳过的实体、字符串或字符。
type Issue struct {
	Kind   IssueKind
	Entity string
	Handle string
	Layer  string
	Text   string
	Char   rune
	Err    error
}

func (i Issue) String() string {
	s := fmt.Sprintf("[%s] %s", i.Kind, i.Entity)
	if i.Handle != "" {
		s += "#" + i.Handle
	}
	if i.Text != "" {
		s += fmt.Sprintf(" %q", i.Text)
	}
	if i.Char != 0 {
		s += fmt.Sprintf(" 字符 %q", i.Char)
	}
	if i.Err != nil {
		s += ": " + i.Err.Error()
	}
	return s
}

// Report 汇总一次遍历的计数与问题列表。
type Report struct {
	// State 在 Run 返回后为 Done。
	State State
	// States 按每个实体离开 Pending 时的状态计数。
	States map[State]int

	Entities        int // 访问过的实体数（含块内实体）
	Dispatched      int // 交给排版的 TEXT/MTEXT 实体数
	Skipped         int
	Excluded        int
	Exploded        int
	ExplosionErrors int
	GlyphFailures   int
	Degenerate      int
	DroppedParts    int // 字符中被丢弃的退化洞或部件
	Features        int
	Issues          []Issue
}

// Empty 表示没有生成任何要素，调用方应给出警告。
func (r *Report) Empty() bool { return r.Features == 0 }

// Count 返回指定类型的问题数。
func (r *Report) Count(kind IssueKind) int {
	n := 0
	for _, i := range r.Issues {
		if i.Kind == kind {
			n++
		}
	}
	return n
}

func (r *Report) add(i Issue) { r.Issues = append(r.Issues, i) }
