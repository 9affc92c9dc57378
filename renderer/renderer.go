package renderer

import "github.com/paulmach/orb/geojson"

// Renderer 将要素集合输出为最终文件，例如 GeoJSON 或 PDF 预览。
// Render 返回生成的字节数据以及可能的错误。
type Renderer interface {
	Render(fc *geojson.FeatureCollection) ([]byte, error)
}
