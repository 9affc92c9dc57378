package dxf

// Insert 是块参照。ColCount/RowCount 大于 1 时为 MINSERT 阵列。
type Insert struct {
	base
	BlockName  string
	Insert     Vec3
	Scale      Vec3
	Rotation   float64 // 度
	ColCount   int
	RowCount   int
	ColSpacing float64
	RowSpacing float64
	Extrusion  Vec3
	Attribs    []*Attrib

	hasAttribs bool
	// parent 是外层块参照累积的变换，顶层实体为空
	parent *Matrix
}

func init() {
	register("INSERT", func() Entity {
		return &Insert{
			base:      base{TypeName: "INSERT"},
			Scale:     Vec3{1, 1, 1}, // 默认缩放为 1
			ColCount:  1,
			RowCount:  1,
			Extrusion: DefaultExtrusion,
		}
	})
}

func (i *Insert) setTag(tag Tag) {
	if i.setBase(tag) || setVec(&i.Insert, tag, 10) || setVec(&i.Extrusion, tag, 210) {
		return
	}
	switch tag.Code {
	case 2:
		i.BlockName = tag.AsString()
	case 41:
		i.Scale.X = tag.AsFloat()
	case 42:
		i.Scale.Y = tag.AsFloat()
	case 43:
		i.Scale.Z = tag.AsFloat()
	case 44:
		i.ColSpacing = tag.AsFloat()
	case 45:
		i.RowSpacing = tag.AsFloat()
	case 50:
		i.Rotation = tag.AsFloat()
	case 66:
		i.hasAttribs = tag.AsInt() == 1
	case 70:
		i.ColCount = tag.AsInt()
	case 71:
		i.RowCount = tag.AsInt()
	}
}

// OCS 返回实体的对象坐标系。
func (i *Insert) OCS() OCS { return NewOCS(i.Extrusion) }

// InsertWCS 返回插入点的世界坐标（含外层块变换）。
func (i *Insert) InsertWCS() Vec3 {
	p := i.OCS().ToWCS(i.Insert)
	if i.parent != nil {
		p = i.parent.Apply(p)
	}
	return p
}

// Matrices 返回块坐标到世界坐标的变换，阵列的每个单元各一个。
func (i *Insert) Matrices(basePoint Vec3) []Matrix {
	cols, rows := max(i.ColCount, 1), max(i.RowCount, 1)
	outer := i.OCS().Matrix().
		Multiply(Translate(i.Insert)).
		Multiply(RotateZ(deg2rad(i.Rotation)))
	inner := Scale(i.Scale.X, i.Scale.Y, i.Scale.Z).Multiply(Translate(basePoint.Scale(-1)))

	out := make([]Matrix, 0, cols*rows)
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			cell := Translate(Vec3{float64(c) * i.ColSpacing, float64(r) * i.RowSpacing, 0})
			m := outer.Multiply(cell).Multiply(inner)
			if i.parent != nil {
				m = i.parent.Multiply(m)
			}
			out = append(out, m)
		}
	}
	return out
}

// withParent 返回挂接外层变换的副本。
func (i *Insert) withParent(m Matrix) *Insert {
	out := *i
	out.parent = &m
	return &out
}
