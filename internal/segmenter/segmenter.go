// Package segmenter 负责把抽取出的原始文本规范化并切分为带重叠的定长分块。
package segmenter

import (
	"fmt"
	"regexp"
	"strings"
)

// ConfigError 表示非法的分块窗口参数（size <= 0 或 overlap 不在 [0, size) 内）。
// 这些参数如果放过去会导致步进为零甚至为负，切分永远不会终止，所以必须快速失败。
type ConfigError struct {
	Size    int
	Overlap int
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("segmenter: invalid chunking config: size=%d, overlap=%d (require size > 0 and 0 <= overlap < size)", e.Size, e.Overlap)
}

var (
	whitespaceRe   = regexp.MustCompile(`\s+`)
	nonPrintableRe = regexp.MustCompile("[^\x20-\x7e]+")
)

// Normalize 将所有空白符序列压缩为单个空格，删除可打印 7 位 ASCII 之外的字符，
// 并去掉首尾空白。这是有损处理：非 ASCII 的财务符号和变音字符会被丢弃。
func Normalize(raw string) string {
	text := whitespaceRe.ReplaceAllString(raw, " ")
	text = nonPrintableRe.ReplaceAllString(text, "")
	return strings.TrimSpace(text)
}

// Segment 用固定窗口切分文本：窗口大小为 size，每步前进 size-overlap，
// 直到某个窗口触及文本末尾为止（最后一个分块可能不足 size）。
// 分块不感知词句边界，序号即位置。
func Segment(text string, size, overlap int) ([]string, error) {
	if size <= 0 || overlap < 0 || overlap >= size {
		return nil, &ConfigError{Size: size, Overlap: overlap}
	}

	runes := []rune(text)
	if len(runes) == 0 {
		return nil, nil
	}

	var chunks []string
	step := size - overlap
	for i := 0; i < len(runes); i += step {
		end := i + size
		if end > len(runes) {
			end = len(runes)
		}
		chunks = append(chunks, string(runes[i:end]))
		if end == len(runes) {
			break
		}
	}
	return chunks, nil
}
