package fonts

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/goitalic"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
)

// BuiltinPrefix 标识内置字体，例如 "builtin:goregular"。
const BuiltinPrefix = "builtin:"

// Fallback 是字体文件缺失时使用的内置字体。
const Fallback = BuiltinPrefix + "goregular"

// ErrNotFound 表示字体文件或内置字体不存在。
var ErrNotFound = errors.New("字体不存在")

var builtin = map[string][]byte{
	"goregular": goregular.TTF,
	"gobold":    gobold.TTF,
	"goitalic":  goitalic.TTF,
	"gomono":    gomono.TTF,
}

// IsBuiltin 判断 path 是否指向内置字体。
func IsBuiltin(path string) bool {
	return strings.HasPrefix(path, BuiltinPrefix)
}

// Builtins 返回所有内置字体名称（已排序）。
func Builtins() []string {
	names := make([]string, 0, len(builtin))
	for name := range builtin {
		names = append(names, BuiltinPrefix+name)
	}
	sort.Strings(names)
	return names
}

// Load 返回字体的字节数据，path 可写为 "builtin:goregular" 或字体文件路径。
// 文件不存在时返回的错误包装 ErrNotFound。
func Load(path string) ([]byte, error) {
	if IsBuiltin(path) {
		name := strings.ToLower(strings.TrimPrefix(path, BuiltinPrefix))
		data, ok := builtin[name]
		if !ok {
			return nil, fmt.Errorf("%w: 内置字体 %s", ErrNotFound, name)
		}
		return data, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return nil, fmt.Errorf("读取字体文件 %s 失败: %w", path, err)
	}
	return data, nil
}

// BaseName 返回字体的简短名称，用于无法读取字体族名时的回退。
func BaseName(path string) string {
	if IsBuiltin(path) {
		return strings.TrimPrefix(path, BuiltinPrefix)
	}
	return strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
}
