// Package proj 解析坐标参考系标识，并借助 wgs84 的 EPSG 库构建平面坐标到 WGS84 经纬度的变换。
package proj

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strconv"
	"strings"

	"github.com/wroge/wgs84"
)

var (
	// ErrInvalidCRS 表示无法识别的标识格式。
	ErrInvalidCRS = errors.New("无法识别的坐标系标识")
	// ErrUnsupportedCRS 表示格式正确但 EPSG 库中没有的代码。
	ErrUnsupportedCRS = errors.New("不支持的坐标系")
)

// CRSError 描述坐标系标识解析失败。
type CRSError struct {
	ID  string
	Err error
}

func (e *CRSError) Error() string {
	return fmt.Sprintf("坐标系 %q: %v", e.ID, e.Err)
}

func (e *CRSError) Unwrap() error { return e.Err }

// CRS 是解析后的 EPSG 坐标系。
type CRS struct {
	EPSG int
}

// Code 返回规范写法，例如 "EPSG:32632"。
func (c CRS) Code() string { return fmt.Sprintf("EPSG:%d", c.EPSG) }

// WGS84 是经纬度坐标系，坐标顺序为 (经度, 纬度)。
var WGS84 = CRS{EPSG: 4326}

// Func 将源坐标系中的点变换到目标坐标系。
type Func func(x, y float64) (float64, float64)

// Identity 原样返回坐标。
func Identity(x, y float64) (float64, float64) { return x, y }

var (
	epsgPatterns = []*regexp.Regexp{
		regexp.MustCompile(`^(?i)epsg:(\d+)$`),
		regexp.MustCompile(`^(?i)urn:ogc:def:crs:epsg:[0-9.]*:(\d+)$`),
		regexp.MustCompile(`^(?i)https?://www\.opengis\.net/def/crs/epsg/[0-9.]+/(\d+)$`),
	}
	crs84Aliases = []string{
		"OGC:CRS84",
		"CRS:84",
		"WGS84",
		"URN:OGC:DEF:CRS:OGC:1.3:CRS84",
		"HTTP://WWW.OPENGIS.NET/DEF/CRS/OGC/1.3/CRS84",
	}
)

// Parse 解析坐标系标识，例如 "EPSG:32632"、"urn:ogc:def:crs:EPSG::27700" 或 "OGC:CRS84"，
// 并确认 EPSG 库能够变换该坐标系。
func Parse(id string) (CRS, error) {
	crs, err := parseID(id)
	if err != nil {
		return CRS{}, err
	}
	if crs == WGS84 {
		return crs, nil
	}
	if _, err := wgs84.EPSG().SafeTransform(crs.EPSG, WGS84.EPSG); err != nil {
		return CRS{}, &CRSError{ID: id, Err: fmt.Errorf("%w: %w", ErrUnsupportedCRS, err)}
	}
	return crs, nil
}

func parseID(id string) (CRS, error) {
	trimmed := strings.TrimSpace(id)
	if slices.Contains(crs84Aliases, strings.ToUpper(trimmed)) {
		return WGS84, nil
	}
	for _, re := range epsgPatterns {
		m := re.FindStringSubmatch(trimmed)
		if m == nil {
			continue
		}
		code, err := strconv.Atoi(m[1])
		if err != nil {
			return CRS{}, &CRSError{ID: id, Err: ErrInvalidCRS}
		}
		return CRS{EPSG: code}, nil
	}
	return CRS{}, &CRSError{ID: id, Err: ErrInvalidCRS}
}

// Build 构建从 src 到 dst 的变换。两端相同时返回 Identity，高程固定为 0。
func Build(src, dst string) (Func, error) {
	from, err := Parse(src)
	if err != nil {
		return nil, err
	}
	to, err := Parse(dst)
	if err != nil {
		return nil, err
	}
	if from == to {
		return Identity, nil
	}
	transform, err := wgs84.EPSG().SafeTransform(from.EPSG, to.EPSG)
	if err != nil {
		return nil, &CRSError{ID: src, Err: fmt.Errorf("%w: %w", ErrUnsupportedCRS, err)}
	}
	return func(x, y float64) (float64, float64) {
		a, b, _ := transform(x, y, 0)
		return a, b
	}, nil
}
