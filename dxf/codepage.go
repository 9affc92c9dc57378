package dxf

import (
	"bytes"
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/encoding/japanese"
	"golang.org/x/text/encoding/korean"
	"golang.org/x/text/encoding/simplifiedchinese"
	"golang.org/x/text/encoding/traditionalchinese"
)

// utf8Version 是默认使用 UTF-8 编码的首个 DXF 版本（AutoCAD 2007）。
const utf8Version = "AC1021"

var codepages = map[string]encoding.Encoding{
	"ANSI_874":  charmap.Windows874,
	"ANSI_1250": charmap.Windows1250,
	"ANSI_1251": charmap.Windows1251,
	"ANSI_1252": charmap.Windows1252,
	"ANSI_1253": charmap.Windows1253,
	"ANSI_1254": charmap.Windows1254,
	"ANSI_1255": charmap.Windows1255,
	"ANSI_1256": charmap.Windows1256,
	"ANSI_1257": charmap.Windows1257,
	"ANSI_1258": charmap.Windows1258,
	"ANSI_932":  japanese.ShiftJIS,
	"ANSI_936":  simplifiedchinese.GBK,
	"ANSI_949":  korean.EUCKR,
	"ANSI_950":  traditionalchinese.Big5,
}

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// sniffHeader 只扫描 HEADER 段，取出版本与代码页。
func sniffHeader(data []byte) (version, codepage string) {
	s := NewScanner(bytes.NewReader(data))
	var variable string
	for s.Next() {
		tag := s.LastTag
		if tag.Code == 0 && (tag.Value == "ENDSEC" || tag.Value == "EOF") {
			return
		}
		if tag.Code == 9 {
			variable = tag.Value
			continue
		}
		switch variable {
		case "$ACADVER":
			if tag.Code == 1 {
				version = strings.TrimSpace(tag.Value)
			}
		case "$DWGCODEPAGE":
			if tag.Code == 3 {
				codepage = strings.ToUpper(strings.TrimSpace(tag.Value))
			}
		}
	}
	return
}

// decodeText 将旧版本 DXF 的本地代码页内容转换为 UTF-8。
// 已经是合法 UTF-8 的内容保持不变。
func decodeText(data []byte, version, codepage string) ([]byte, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	if version >= utf8Version || utf8.Valid(data) {
		return data, nil
	}
	enc, ok := codepages[codepage]
	if !ok {
		enc = charmap.Windows1252
	}
	out, err := enc.NewDecoder().Bytes(data)
	if err != nil {
		return nil, fmt.Errorf("按代码页 %s 解码失败: %w", codepage, err)
	}
	return out, nil
}
