package model

import (
	"errors"
	"fmt"
	"strings"
)

// Family 设备族（决定候选命令与传输策略）
type Family string

const (
	FamilyCisco    Family = "cisco"
	FamilyJuniper  Family = "juniper"
	FamilyUbiquiti Family = "ubiquiti"
	FamilyLinux    Family = "linux"
	FamilyWindows  Family = "windows"
	FamilyMacOS    Family = "macos"

	// FamilyAuto 不是设备族，表示请求自动探测
	FamilyAuto Family = "auto"
)

// ErrUnknownFamily 未知设备族
var ErrUnknownFamily = errors.New("unknown device family")

var families = []Family{
	FamilyCisco,
	FamilyJuniper,
	FamilyUbiquiti,
	FamilyLinux,
	FamilyWindows,
	FamilyMacOS,
}

// 兼容 netmiko 风格的平台名与常见别名
var familyAliases = map[string]Family{
	"cisco_ios":     FamilyCisco,
	"cisco_xe":      FamilyCisco,
	"cisco_nxos":    FamilyCisco,
	"ios":           FamilyCisco,
	"junos":         FamilyJuniper,
	"juniper_junos": FamilyJuniper,
	"darwin":        FamilyMacOS,
	"edgeos":        FamilyUbiquiti,
}

// Families 返回所有设备族（声明顺序）
func Families() []Family {
	out := make([]Family, len(families))
	copy(out, families)
	return out
}

// ParseFamily 解析设备族名称，大小写不敏感
func ParseFamily(name string) (Family, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if n == string(FamilyAuto) {
		return FamilyAuto, nil
	}
	for _, f := range families {
		if n == string(f) {
			return f, nil
		}
	}
	if f, ok := familyAliases[n]; ok {
		return f, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownFamily, name)
}

// ParseFamilies 解析有序设备族列表，拒绝 auto 与重复项
func ParseFamilies(names []string) ([]Family, error) {
	out := make([]Family, 0, len(names))
	seen := make(map[Family]bool, len(names))
	for _, name := range names {
		f, err := ParseFamily(name)
		if err != nil {
			return nil, err
		}
		if f == FamilyAuto {
			return nil, fmt.Errorf("%w: auto is not a device family", ErrUnknownFamily)
		}
		if seen[f] {
			continue
		}
		seen[f] = true
		out = append(out, f)
	}
	return out, nil
}

func (f Family) String() string { return string(f) }

// Valid 是否为真实设备族（auto 不算）
func (f Family) Valid() bool {
	for _, known := range families {
		if f == known {
			return true
		}
	}
	return false
}
