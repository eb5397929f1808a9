package detect

import "strings"

// negativeMarkers 远端 shell/CLI 无法识别命令时的回显（小写匹配）
var negativeMarkers = []string{
	"not found",
	"is not recognized as an internal or external command",
	"unknown command",
	"invalid input detected",
	"syntax error, expecting",
}

// Validate 判断输出是否像真实的版本回显：去空白后非空，且不含"命令不存在"类提示。
// 各厂商版本格式差异太大，这里只做宽松判断。
func Validate(raw string) bool {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return false
	}
	lower := strings.ToLower(trimmed)
	for _, m := range negativeMarkers {
		if strings.Contains(lower, m) {
			return false
		}
	}
	return true
}
