package dxf

// Entity 是模型空间实体的封闭变体：*Text、*MText、*Insert 或 *Other。
// setTag 未导出，包外无法扩展新的实现。
type Entity interface {
	Type() string
	Layer() string
	Handle() string
	setTag(tag Tag)
	inPaperspace() bool
}

// base 存放所有实体通用的属性。
type base struct {
	TypeName   string
	LayerName  string
	HandleID   string
	Paperspace bool
}

func (b *base) Type() string       { return b.TypeName }
func (b *base) Layer() string      { return b.LayerName }
func (b *base) Handle() string     { return b.HandleID }
func (b *base) inPaperspace() bool { return b.Paperspace }

// setBase 处理通用组码，返回是否已消费。
func (b *base) setBase(tag Tag) bool {
	switch tag.Code {
	case 5:
		b.HandleID = tag.AsString()
	case 8:
		b.LayerName = tag.AsString()
	case 67:
		b.Paperspace = tag.AsInt() == 1
	default:
		return false
	}
	return true
}

// Other 表示本程序不处理的实体类型，仅保留通用属性。
type Other struct {
	base
}

func (o *Other) setTag(tag Tag) { o.setBase(tag) }

type factory func() Entity

var registry = map[string]factory{}

// register 登记实体类型的构造函数。
func register(typeName string, f factory) {
	registry[typeName] = f
}

// createEntity 根据 0 组名称创建实体，未知类型返回 *Other。
func createEntity(typeName string) Entity {
	if f, ok := registry[typeName]; ok {
		return f()
	}
	return &Other{base: base{TypeName: typeName}}
}

// setVec 按 10/20/30 这类组码偏移写入向量分量。
func setVec(v *Vec3, tag Tag, xCode int) bool {
	switch tag.Code {
	case xCode:
		v.X = tag.AsFloat()
	case xCode + 10:
		v.Y = tag.AsFloat()
	case xCode + 20:
		v.Z = tag.AsFloat()
	default:
		return false
	}
	return true
}
