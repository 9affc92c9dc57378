package mtext

import (
	"regexp"
	"strings"

	"golang.org/x/text/unicode/norm"
)

var (
	unicodePattern = regexp.MustCompile(`\\[Uu]\+[0-9A-Fa-f]{4}`)
	textSpecials   = strings.NewReplacer(
		"%%c", "⌀", "%%C", "⌀",
		"%%d", "°", "%%D", "°",
		"%%p", "±", "%%P", "±",
		"%%u", "", "%%U", "",
		"%%o", "", "%%O", "",
		"%%k", "", "%%K", "",
		"%%%", "%",
	)
)

// DecodeText 解码单行 TEXT 的控制码（%%d、%%u、\U+XXXX 等），
// TEXT 中的反斜杠除 \U+ 外均按字面处理。
func DecodeText(s string) string {
	s = unicodePattern.ReplaceAllStringFunc(s, decodeUnicode)
	return Normalize(textSpecials.Replace(s))
}

// Normalize 统一为 NFC，保证组合字符按单个字形处理。
func Normalize(s string) string {
	return norm.NFC.String(s)
}
