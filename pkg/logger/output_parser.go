package logger

import (
	"strings"

	"github.com/sirupsen/logrus"
)

// OutputLines 表示控制台回显的头部和尾部行
type OutputLines struct {
	HeadLines []string `json:"head_lines"`
	TailLines []string `json:"tail_lines"`
}

// ParseOutputLines 提取回显的首尾行（空白行不计入）
func ParseOutputLines(output string, maxLines int) OutputLines {
	if maxLines <= 0 {
		maxLines = 5
	}

	output = strings.ReplaceAll(output, "\r\n", "\n")
	output = strings.ReplaceAll(output, "\r", "\n")

	lines := make([]string, 0)
	for _, ln := range strings.Split(output, "\n") {
		if strings.TrimSpace(ln) == "" {
			continue
		}
		lines = append(lines, strings.TrimRight(ln, " \t"))
	}

	total := len(lines)
	if total == 0 {
		return OutputLines{}
	}

	headCount := min(maxLines, total)
	head := append([]string(nil), lines[:headCount]...)

	// 行数不超过上限时首尾相同，只保留头部
	if total <= maxLines {
		return OutputLines{HeadLines: head}
	}
	tail := append([]string(nil), lines[total-maxLines:]...)
	return OutputLines{HeadLines: head, TailLines: tail}
}

// FormatOutputLines 格式化输出行为字符串，用于日志记录
func FormatOutputLines(lines OutputLines) string {
	var parts []string
	if len(lines.HeadLines) > 0 {
		parts = append(parts, "head-lines: ["+strings.Join(lines.HeadLines, " ⟩ ")+"]")
	}
	if len(lines.TailLines) > 0 {
		parts = append(parts, "tail-lines: ["+strings.Join(lines.TailLines, " ⟩ ")+"]")
	}
	return strings.Join(parts, ", ")
}

// DebugCommandOutput 在 debug 级别记录命令回显的首尾行
func DebugCommandOutput(port, command, output string, maxLines int) {
	if GetLogger().Level < logrus.DebugLevel {
		return
	}
	lines := ParseOutputLines(output, maxLines)
	if len(lines.HeadLines) == 0 {
		return
	}
	WithField("port", port).Debugf("Console echo [%s]: %s", command, FormatOutputLines(lines))
}
