package util

import (
	"bytes"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// 控制台回显偶尔混入线路噪声或老设备的单字节代码页
var consoleCodePages = []encoding.Encoding{
	charmap.Windows1252,
	charmap.ISO8859_1,
	charmap.CodePage437,
}

// DecodeConsole 将串口字节宽松地解码为 UTF-8 字符串，从不返回错误。
// 合法 UTF-8 原样返回；仅含少量非法字节时用替换字符修补；
// 大量高位字节时按常见代码页解码。
func DecodeConsole(b []byte) string {
	if len(b) == 0 {
		return ""
	}
	if utf8.Valid(b) {
		return string(b)
	}
	if looksLikeNoise(b) {
		return strings.ToValidUTF8(string(b), string(utf8.RuneError))
	}
	for _, enc := range consoleCodePages {
		if s, ok := tryDecode(enc, b); ok {
			return s
		}
	}
	return strings.ToValidUTF8(string(b), string(utf8.RuneError))
}

// StripControl 去除除换行、回车、制表符以外的 C0 控制字符（含 NUL 与 BEL）
func StripControl(s string) string {
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\r' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, s)
}

// looksLikeNoise 高位字节占比很低时视为线路噪声
func looksLikeNoise(b []byte) bool {
	high := 0
	for _, c := range b {
		if c >= 0x80 {
			high++
		}
	}
	return high*20 < len(b)
}

func tryDecode(enc encoding.Encoding, b []byte) (string, bool) {
	reader := transform.NewReader(bytes.NewReader(b), enc.NewDecoder())
	decoded, err := io.ReadAll(reader)
	if err != nil {
		return "", false
	}
	if utf8.Valid(decoded) {
		return string(decoded), true
	}
	return "", false
}
