package geojsonrenderer

import (
	"encoding/json"
	"fmt"

	"github.com/paulmach/orb/geojson"

	"github.com/ByLCY/dxfglyph/renderer"
)

// Renderer 将要素集合序列化为 GeoJSON（RFC 7946）。
type Renderer struct {
	Indent bool
}

var _ renderer.Renderer = (*Renderer)(nil)

// New 创建 GeoJSON 渲染器。
func New(indent bool) *Renderer { return &Renderer{Indent: indent} }

// Render 输出 FeatureCollection；空集合同样合法。
func (r *Renderer) Render(fc *geojson.FeatureCollection) ([]byte, error) {
	if fc == nil {
		fc = geojson.NewFeatureCollection()
	}
	var (
		data []byte
		err  error
	)
	if r.Indent {
		data, err = json.MarshalIndent(fc, "", "  ")
	} else {
		data, err = json.Marshal(fc)
	}
	if err != nil {
		return nil, fmt.Errorf("序列化 GeoJSON 失败: %w", err)
	}
	return append(data, '\n'), nil
}
