package glyph

import (
	"math"
	"sort"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/planar"
	"github.com/tdewolff/canvas"
)

// Outline 是单个字符的矢量轮廓，位于字体局部坐标系：
// 原点在基线左端，y 轴向上，单位与字高相同。
type Outline struct {
	Rings    []orb.Ring    `json:"-"`
	Polygons []orb.Polygon `json:"polygons"`
	Advance  float64       `json:"advance"`
	Bounds   orb.Bound     `json:"bounds"`
}

// Empty 表示字形没有可绘制的轮廓（空格、控制字符）。
func (o *Outline) Empty() bool { return len(o.Rings) == 0 }

// InkWidth 返回墨迹包围盒宽度，空轮廓为 0。
func (o *Outline) InkWidth() float64 {
	if o.Empty() {
		return 0
	}
	return o.Bounds.Max[0] - o.Bounds.Min[0]
}

// newOutline 清理环并按嵌套关系归类为多边形。
func newOutline(rings []orb.Ring, advance float64) *Outline {
	out := &Outline{Advance: math.Max(advance, 0)}
	for _, r := range rings {
		if r = cleanRing(r); r != nil {
			out.Rings = append(out.Rings, r)
		}
	}
	if len(out.Rings) == 0 {
		return out
	}
	out.Bounds = out.Rings[0].Bound()
	for _, r := range out.Rings[1:] {
		out.Bounds = out.Bounds.Union(r.Bound())
	}
	out.Polygons = classify(out.Rings)
	return out
}

// cleanRing 去掉连续重复点并闭合，不足 3 个不同顶点或面积为零时返回 nil。
func cleanRing(r orb.Ring) orb.Ring {
	out := make(orb.Ring, 0, len(r)+1)
	for _, p := range r {
		if len(out) > 0 && out[len(out)-1] == p {
			continue
		}
		out = append(out, p)
	}
	for len(out) > 1 && out[len(out)-1] == out[0] {
		out = out[:len(out)-1]
	}
	if len(out) < 3 {
		return nil
	}
	out = append(out, out[0])
	if math.Abs(ringArea(out)) == 0 {
		return nil
	}
	return out
}

// ringArea 返回有向面积，逆时针为正。
func ringArea(r orb.Ring) float64 {
	var sum float64
	for i := 0; i+1 < len(r); i++ {
		sum += r[i][0]*r[i+1][1] - r[i+1][0]*r[i][1]
	}
	return sum / 2
}

// classify 按包含深度划分外环与内环：偶数深度为外环，奇数深度为洞，
// 洞归属于包含它的最内层外环。外环统一为逆时针，洞为顺时针。
func classify(rings []orb.Ring) []orb.Polygon {
	n := len(rings)
	depth := make([]int, n)
	parent := make([]int, n)
	for i := range rings {
		parent[i] = -1
		probe := rings[i][0]
		for j := range rings {
			if i == j || !rings[j].Bound().Contains(probe) || !planar.RingContains(rings[j], probe) {
				continue
			}
			depth[i]++
			if parent[i] < 0 || math.Abs(ringArea(rings[j])) < math.Abs(ringArea(rings[parent[i]])) {
				parent[i] = j
			}
		}
	}

	order := make([]int, n)
	for i := range order {
		order[i] = i
	}
	// 按面积从大到小，保证外环先于其洞出现
	sort.SliceStable(order, func(a, b int) bool {
		return math.Abs(ringArea(rings[order[a]])) > math.Abs(ringArea(rings[order[b]]))
	})

	index := map[int]int{}
	var polys []orb.Polygon
	for _, i := range order {
		if depth[i]%2 == 0 {
			index[i] = len(polys)
			polys = append(polys, orb.Polygon{orient(rings[i], orb.CCW)})
		}
	}
	for _, i := range order {
		if depth[i]%2 == 1 {
			k, ok := index[parent[i]]
			if !ok {
				continue
			}
			polys[k] = append(polys[k], orient(rings[i], orb.CW))
		}
	}
	return polys
}

// orient 返回指定方向的环副本。
func orient(r orb.Ring, want orb.Orientation) orb.Ring {
	out := append(orb.Ring(nil), r...)
	if out.Orientation() != want {
		out.Reverse()
	}
	return out
}

// pathRings 按容差展平 canvas 路径，每个子路径成为一个环。
func pathRings(path *canvas.Path, tolerance float64) []orb.Ring {
	if path == nil || path.Empty() {
		return nil
	}
	var rings []orb.Ring
	for _, sub := range path.Flatten(tolerance).Split() {
		coords := sub.Coords()
		ring := make(orb.Ring, 0, len(coords)+1)
		for _, c := range coords {
			ring = append(ring, orb.Point{c.X, c.Y})
		}
		rings = append(rings, ring)
	}
	return rings
}
