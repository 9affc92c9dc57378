// Package feature 收集逐字符要素并生成 GeoJSON FeatureCollection。
package feature

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Character 是一个字符的地理多边形及其追溯属性。
// Geometry 为 orb.Polygon 或 orb.MultiPolygon。
type Character struct {
	Geometry orb.Geometry
	Text     string
	Char     rune
	Layer    string
	Font     string
	InsertX  float64 // 插入点 WCS 坐标
	InsertY  float64
	Entity   string
	Handle   string
}

// Properties 返回输出到 GeoJSON 的属性。
func (c Character) Properties() geojson.Properties {
	props := geojson.Properties{
		"text":         c.Text,
		"char":         string(c.Char),
		"layer":        c.Layer,
		"font":         c.Font,
		"insert_x_wcs": c.InsertX,
		"insert_y_wcs": c.InsertY,
		"entity":       c.Entity,
	}
	if c.Handle != "" {
		props["handle"] = c.Handle
	}
	return props
}

// Collection 按到达顺序累积字符要素，追加之外没有其它副作用。
type Collection struct {
	items []Character
}

// NewCollection 创建空集合。
func NewCollection() *Collection { return &Collection{} }

// Accumulate 追加一个字符要素。
func (c *Collection) Accumulate(ch Character) {
	c.items = append(c.items, ch)
}

// Len 返回已累积的要素数。
func (c *Collection) Len() int { return len(c.items) }

// Items 返回已累积的要素。
func (c *Collection) Items() []Character { return c.items }

// Finalize 生成 FeatureCollection；空集合同样有效。
func (c *Collection) Finalize() *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()
	for _, ch := range c.items {
		f := geojson.NewFeature(ch.Geometry)
		f.Properties = ch.Properties()
		fc.Append(f)
	}
	return fc
}
