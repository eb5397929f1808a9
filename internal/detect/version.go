package detect

import (
	"regexp"
	"strings"

	"github.com/sshcollectorpro/sysvers/internal/model"
)

// versionPatterns 从版本回显中提取稳定的版本号（按序匹配，取第一个捕获组）。
// 回显里的 uptime、序列号、内存等字段每次都会变，不能整段记录。
var versionPatterns = map[model.Family][]*regexp.Regexp{
	model.FamilyCisco: {
		regexp.MustCompile(`(?i)\bVersion\s+([^\s,]+)`),
	},
	model.FamilyJuniper: {
		regexp.MustCompile(`(?im)^\s*Junos:\s*(\S+)`),
		regexp.MustCompile(`(?i)JUNOS[^\[\n]*Release\s*\[([^\]]+)\]`),
	},
	model.FamilyUbiquiti: {
		regexp.MustCompile(`(?im)^\s*Version:\s*(\S+)`),
	},
	model.FamilyLinux: {
		regexp.MustCompile(`(?m)^PRETTY_NAME="?([^"\r\n]+)"?`),
	},
	model.FamilyMacOS: {
		regexp.MustCompile(`(?im)^\s*ProductVersion:\s*(\S+)`),
	},
	model.FamilyWindows: {
		regexp.MustCompile(`(?im)^\s*OS Version:\s*(\S+)`),
		regexp.MustCompile(`(?i)\[Version\s+([^\]]+)\]`),
	},
}

// ExtractVersion 返回输出中的版本号；没有可识别的模式时退回第一行非空文本
func ExtractVersion(family model.Family, output string) string {
	for _, re := range versionPatterns[family] {
		if m := re.FindStringSubmatch(output); len(m) > 1 {
			if v := strings.TrimSpace(m[1]); v != "" {
				return v
			}
		}
	}
	for _, line := range strings.Split(output, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
