// Package compose 将 OCS 平面上的字形多边形变换到地理坐标，
// 并保证输出的每个环闭合、至少 3 个不同顶点、外环逆时针而洞顺时针。
package compose

import (
	"errors"
	"fmt"
	"math"

	"github.com/paulmach/orb"

	"github.com/ByLCY/dxfglyph/dxf"
	"github.com/ByLCY/dxfglyph/proj"
)

// TargetCRS 是输出坐标系。
const TargetCRS = "EPSG:4326"

var (
	// ErrNonFinite 表示变换结果出现 NaN 或无穷。
	ErrNonFinite = errors.New("坐标变换结果不是有限数")
	// ErrDegenerate 表示环去重后不足 3 个不同顶点。
	ErrDegenerate = errors.New("多边形退化")
)

// Options 配置坐标合成。
type Options struct {
	// Scale 在投影前乘到 WCS 坐标上，用于图纸单位换算；0 视为 1。
	Scale float64
}

// Composer 持有一次构建好的投影，可并发使用。
type Composer struct {
	source  string
	project proj.Func
	scale   float64
}

// New 构建从 source 到 WGS84 经纬度的合成器。坐标系无效时返回 *proj.CRSError。
func New(source string, opts Options) (*Composer, error) {
	fn, err := proj.Build(source, TargetCRS)
	if err != nil {
		return nil, err
	}
	scale := opts.Scale
	if scale == 0 {
		scale = 1
	}
	return &Composer{source: source, project: fn, scale: scale}, nil
}

// Source 返回源坐标系标识。
func (c *Composer) Source() string { return c.source }

// Point 将 OCS 平面点 (x, y, elevation) 变换为 (经度, 纬度)。
func (c *Composer) Point(p orb.Point, elevation float64, ocs dxf.OCS) (orb.Point, error) {
	w := ocs.ToWCS(dxf.Vec3{X: p[0], Y: p[1], Z: elevation})
	lon, lat := c.project(w.X*c.scale, w.Y*c.scale)
	if !finite(lon) || !finite(lat) {
		return orb.Point{}, fmt.Errorf("%w: (%g, %g)", ErrNonFinite, p[0], p[1])
	}
	return orb.Point{lon, lat}, nil
}

// Ring 变换单个环：去掉连续重复点并闭合，不足 3 个不同顶点或面积为零时返回 ErrDegenerate。
func (c *Composer) Ring(r orb.Ring, elevation float64, ocs dxf.OCS) (orb.Ring, error) {
	out := make(orb.Ring, 0, len(r)+1)
	for _, p := range r {
		q, err := c.Point(p, elevation, ocs)
		if err != nil {
			return nil, err
		}
		if len(out) > 0 && out[len(out)-1] == q {
			continue
		}
		out = append(out, q)
	}
	for len(out) > 1 && out[len(out)-1] == out[0] {
		out = out[:len(out)-1]
	}
	if distinct(out) < 3 {
		return nil, ErrDegenerate
	}
	out = append(out, out[0])
	if out.Orientation() == 0 {
		// 所有顶点共线
		return nil, ErrDegenerate
	}
	return out, nil
}

// Polygon 变换多边形。外环无效时整个多边形无效；任一环出现非有限坐标时返回 ErrNonFinite；
// 退化的洞被丢弃，原因记录在 dropped 中。
func (c *Composer) Polygon(poly orb.Polygon, elevation float64, ocs dxf.OCS) (out orb.Polygon, dropped []error, err error) {
	if len(poly) == 0 {
		return nil, nil, ErrDegenerate
	}
	outer, err := c.Ring(poly[0], elevation, ocs)
	if err != nil {
		return nil, nil, err
	}
	out = orb.Polygon{orient(outer, orb.CCW)}
	for i, hole := range poly[1:] {
		h, err := c.Ring(hole, elevation, ocs)
		if errors.Is(err, ErrNonFinite) {
			return nil, nil, err
		}
		if err != nil {
			dropped = append(dropped, fmt.Errorf("丢弃第 %d 个洞: %w", i+1, err))
			continue
		}
		out = append(out, orient(h, orb.CW))
	}
	return out, dropped, nil
}

// Character 变换一个字符的全部多边形：一个返回 orb.Polygon，多个返回 orb.MultiPolygon。
// 任一环出现非有限坐标时整个字符无效；退化的部件被丢弃并记录在 dropped 中，
// 全部部件都退化时返回最后一个错误。
func (c *Composer) Character(polys []orb.Polygon, elevation float64, ocs dxf.OCS) (orb.Geometry, []error, error) {
	var (
		out     orb.MultiPolygon
		dropped []error
	)
	err := ErrDegenerate
	for i, poly := range polys {
		p, holes, perr := c.Polygon(poly, elevation, ocs)
		if errors.Is(perr, ErrNonFinite) {
			return nil, nil, perr
		}
		dropped = append(dropped, holes...)
		if perr != nil {
			err = perr
			dropped = append(dropped, fmt.Errorf("丢弃第 %d 个部件: %w", i+1, perr))
			continue
		}
		out = append(out, p)
	}
	switch len(out) {
	case 0:
		return nil, nil, err
	case 1:
		return out[0], dropped, nil
	default:
		return out, dropped, nil
	}
}

func orient(r orb.Ring, want orb.Orientation) orb.Ring {
	if r.Orientation() != want {
		r.Reverse()
	}
	return r
}

func distinct(r orb.Ring) int {
	seen := make(map[orb.Point]struct{}, len(r))
	for _, p := range r {
		seen[p] = struct{}{}
	}
	return len(seen)
}

func finite(v float64) bool { return !math.IsNaN(v) && !math.IsInf(v, 0) }
