package dxf

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Tag 是一个 DXF 组码/值对。
type Tag struct {
	Code  int
	Value string
}

func (t Tag) AsString() string { return t.Value }

// AsFloat 解析浮点值，失败时返回 0。
func (t Tag) AsFloat() float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(t.Value), 64)
	if err != nil {
		return 0
	}
	return f
}

// AsInt 解析整数值，失败时返回 0。
func (t Tag) AsInt() int {
	v := strings.TrimSpace(t.Value)
	i, err := strconv.Atoi(v)
	if err != nil {
		// 部分导出程序会把整数写成 "1.0"
		return int(t.AsFloat())
	}
	return i
}

// Scanner 逐对读取 ASCII DXF 的组码与值，当前组存放在 LastTag。
type Scanner struct {
	src     *bufio.Scanner
	line    int
	err     error
	done    bool
	LastTag Tag
}

// NewScanner 创建读取 r 的扫描器。
func NewScanner(r io.Reader) *Scanner {
	src := bufio.NewScanner(r)
	src.Buffer(make([]byte, 64*1024), 16*1024*1024)
	return &Scanner{src: src}
}

// Next 读取下一对组码/值，流结束或出错时返回 false。
func (s *Scanner) Next() bool {
	if s.done {
		return false
	}
	if !s.next() {
		s.done = true
		return false
	}
	return true
}

func (s *Scanner) next() bool {
	codeLine, ok := s.readLine()
	if !ok {
		return false
	}
	for strings.TrimSpace(codeLine) == "" {
		// 容忍文件末尾或组之间的空行
		if codeLine, ok = s.readLine(); !ok {
			return false
		}
	}
	code, err := strconv.Atoi(strings.TrimSpace(codeLine))
	if err != nil {
		s.err = fmt.Errorf("%w: 第 %d 行组码无效 %q", ErrInvalidStructure, s.line, codeLine)
		return false
	}
	value, ok := s.readLine()
	if !ok {
		s.err = fmt.Errorf("%w: 第 %d 行组码 %d 缺少值", ErrInvalidStructure, s.line, code)
		return false
	}
	s.LastTag = Tag{Code: code, Value: value}
	return true
}

// Done 报告流是否已结束（读完或出错）。此后 LastTag 保持最后一个成功读取的组。
func (s *Scanner) Done() bool { return s.done }

// Err 返回扫描过程中遇到的第一个错误。
func (s *Scanner) Err() error {
	if s.err != nil {
		return s.err
	}
	return s.src.Err()
}

// Line 返回最近读取的行号（从 1 开始）。
func (s *Scanner) Line() int { return s.line }

func (s *Scanner) readLine() (string, bool) {
	if !s.src.Scan() {
		return "", false
	}
	s.line++
	return strings.TrimRight(s.src.Text(), "\r"), true
}

// isMarker 判断当前组是否为指定名称的 0 组。
func (s *Scanner) isMarker(names ...string) bool {
	if s.LastTag.Code != 0 {
		return false
	}
	for _, n := range names {
		if s.LastTag.Value == n {
			return true
		}
	}
	return false
}
