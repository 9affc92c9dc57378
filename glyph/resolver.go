package glyph

import (
	"errors"
	"fmt"
	"math"
)

// ErrInvalidSize 表示字高不是正的有限数。
var ErrInvalidSize = errors.New("字高无效")

// ResolutionError 描述单个字符解析失败，调用方据此跳过该字符。
type ResolutionError struct {
	Char rune
	Font string
	Size float64
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("字符 %q（字体 %s，字高 %g）解析失败: %v", e.Char, e.Font, e.Size, e.Err)
}

func (e *ResolutionError) Unwrap() error { return e.Err }

// Resolver 将 (字符, 字高) 解析为轮廓，结果经 Cache 复用。
type Resolver struct {
	source Source
	cache  *Cache
}

// NewResolver 创建解析器，cache 为空时新建。
func NewResolver(source Source, cache *Cache) *Resolver {
	if cache == nil {
		cache = NewCache()
	}
	return &Resolver{source: source, cache: cache}
}

// Font 返回字体名称。
func (r *Resolver) Font() string { return r.source.Name() }

// Cache 返回解析器使用的缓存。
func (r *Resolver) Cache() *Cache { return r.cache }

// Resolve 返回字符 ch 在字高 size 下的轮廓。相同参数的重复调用返回同一对象；
// 失败同样缓存，返回 *ResolutionError。
func (r *Resolver) Resolve(ch rune, size float64) (*Outline, error) {
	font := r.source.Name()
	if math.IsNaN(size) || math.IsInf(size, 0) || size <= 0 {
		return nil, &ResolutionError{Char: ch, Font: font, Size: size, Err: ErrInvalidSize}
	}
	key := Key{Char: ch, Font: font, Size: size}
	if res, ok := r.cache.Get(key); ok {
		return res.Outline, res.Err
	}

	o, err := r.source.Outline(ch, size)
	if err != nil {
		o, err = nil, &ResolutionError{Char: ch, Font: font, Size: size, Err: err}
	} else if o == nil {
		o = newOutline(nil, 0)
	}
	res := r.cache.Put(key, Result{Outline: o, Err: err})
	return res.Outline, res.Err
}
