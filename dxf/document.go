package dxf

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
)

var (
	// ErrInvalidStructure 表示输入不是可识别的 ASCII DXF。
	ErrInvalidStructure = errors.New("DXF 结构无效")
	// ErrBlockNotFound 表示 INSERT 引用的块不存在。
	ErrBlockNotFound = errors.New("块定义不存在")
)

var binarySentinel = []byte("AutoCAD Binary DXF")

// Block 是 BLOCKS 段中的块定义。
type Block struct {
	Name     string
	Base     Vec3
	Entities []Entity
}

// Document 是读入内存的图纸。
type Document struct {
	Version  string
	Codepage string
	Units    int // $INSUNITS 原始值
	blocks   map[string]*Block
	entities []Entity
}

// Open 读取 path 指向的 DXF 文件。
func Open(path string) (*Document, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("无法打开 DXF 文件 %s: %w", path, err)
	}
	defer file.Close()

	doc, err := Read(file)
	if err != nil {
		return nil, fmt.Errorf("读取 DXF 文件 %s 失败: %w", path, err)
	}
	return doc, nil
}

// Read 从 r 解析 ASCII DXF。
func Read(r io.Reader) (*Document, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(data, binarySentinel) {
		return nil, fmt.Errorf("%w: 不支持二进制 DXF", ErrInvalidStructure)
	}
	version, codepage := sniffHeader(data)
	if data, err = decodeText(data, version, codepage); err != nil {
		return nil, err
	}

	doc := &Document{Version: version, Codepage: codepage, blocks: map[string]*Block{}}
	s := NewScanner(bytes.NewReader(data))
	if !s.Next() {
		if err := s.Err(); err != nil {
			return nil, err
		}
		return nil, fmt.Errorf("%w: 文件为空", ErrInvalidStructure)
	}
	if !s.isMarker("SECTION", "EOF") {
		return nil, fmt.Errorf("%w: 首个组应为 0/SECTION，实际为 %d/%q", ErrInvalidStructure, s.LastTag.Code, s.LastTag.Value)
	}

	for !s.isMarker("EOF") {
		if !s.isMarker("SECTION") {
			if !s.Next() {
				break
			}
			continue
		}
		if !s.Next() || s.LastTag.Code != 2 {
			return nil, fmt.Errorf("%w: 第 %d 行 SECTION 缺少名称", ErrInvalidStructure, s.Line())
		}
		name := s.LastTag.Value
		if s.Next() {
			switch name {
			case "HEADER":
				doc.readHeader(s)
			case "BLOCKS":
				doc.readBlocks(s)
			case "ENTITIES":
				doc.entities = append(doc.entities, readEntities(s, "ENDSEC")...)
			default:
				skipSection(s)
			}
		}
		if s.Done() && !s.isMarker("ENDSEC", "EOF") {
			if err := s.Err(); err != nil {
				return nil, err
			}
			return nil, fmt.Errorf("%w: %s 段在第 %d 行意外结束", ErrInvalidStructure, name, s.Line())
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return doc, nil
}

// ModelspaceEntities 按文件顺序返回模型空间实体。
func (d *Document) ModelspaceEntities() []Entity { return d.entities }

// Block 按名称查找块定义（不区分大小写）。
func (d *Document) Block(name string) (*Block, bool) {
	b, ok := d.blocks[strings.ToUpper(name)]
	return b, ok
}

// Explode 展开一层块参照：块内实体施加实例变换后返回，嵌套 INSERT 挂接外层变换，
// 可见的 ATTRIB 以 TEXT 形式追加在末尾。
func (d *Document) Explode(ins *Insert) ([]Entity, error) {
	blk, ok := d.Block(ins.BlockName)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrBlockNotFound, ins.BlockName)
	}
	var out []Entity
	for _, m := range ins.Matrices(blk.Base) {
		for _, e := range blk.Entities {
			switch v := e.(type) {
			case *Text:
				out = append(out, v.Transform(m))
			case *MText:
				out = append(out, v.Transform(m))
			case *Insert:
				out = append(out, v.withParent(m))
			default:
				// 其它实体原样返回，由调用方跳过
				out = append(out, e)
			}
		}
	}
	for _, a := range ins.Attribs {
		if a.Invisible() {
			continue
		}
		out = append(out, a.AsText(ins.parent))
	}
	return out, nil
}

func (d *Document) readHeader(s *Scanner) {
	var variable string
	for !s.isMarker("ENDSEC", "EOF") {
		tag := s.LastTag
		if tag.Code == 9 {
			variable = tag.Value
		} else if variable == "$INSUNITS" && tag.Code == 70 {
			d.Units = tag.AsInt()
		}
		if !s.Next() {
			return
		}
	}
}

func (d *Document) readBlocks(s *Scanner) {
	for !s.isMarker("ENDSEC", "EOF") {
		if !s.isMarker("BLOCK") {
			if !s.Next() {
				return
			}
			continue
		}
		blk := &Block{}
		for s.Next() && s.LastTag.Code != 0 {
			tag := s.LastTag
			if setVec(&blk.Base, tag, 10) {
				continue
			}
			if tag.Code == 2 {
				blk.Name = tag.Value
			}
		}
		if s.Done() {
			return
		}
		blk.Entities = readEntities(s, "ENDBLK")
		if blk.Name != "" {
			d.blocks[strings.ToUpper(blk.Name)] = blk
		}
		if s.Done() {
			return
		}
		if s.isMarker("ENDBLK") {
			// 消费 ENDBLK 自身的组
			for s.Next() && s.LastTag.Code != 0 {
			}
			if s.Done() {
				return
			}
		}
	}
}

// readEntities 读取实体直到遇到 stop（或段结束），返回时 LastTag 停在该 0 组上。
func readEntities(s *Scanner, stop string) []Entity {
	var out []Entity
	for !s.isMarker(stop, "ENDSEC", "EOF") {
		if s.LastTag.Code != 0 {
			if !s.Next() {
				return out
			}
			continue
		}
		ent := createEntity(s.LastTag.Value)
		more := readTags(s, ent)
		if ins, ok := ent.(*Insert); ok && ins.hasAttribs && more {
			more = readAttribs(s, ins)
		}
		if !ent.inPaperspace() {
			out = append(out, ent)
		}
		if !more {
			return out
		}
	}
	return out
}

// readTags 将下一个 0 组之前的所有组交给实体，流结束时返回 false。
func readTags(s *Scanner, ent Entity) bool {
	for s.Next() {
		if s.LastTag.Code == 0 {
			return true
		}
		ent.setTag(s.LastTag)
	}
	return false
}

// readAttribs 抓取 INSERT 之后的 ATTRIB 直到 SEQEND。
func readAttribs(s *Scanner, ins *Insert) bool {
	for s.isMarker("ATTRIB") {
		a := newAttrib()
		more := readTags(s, a)
		ins.Attribs = append(ins.Attribs, a)
		if !more {
			return false
		}
	}
	if s.isMarker("SEQEND") {
		return readTags(s, &Other{})
	}
	return true
}

func skipSection(s *Scanner) {
	for !s.isMarker("ENDSEC", "EOF") {
		if !s.Next() {
			return
		}
	}
}
