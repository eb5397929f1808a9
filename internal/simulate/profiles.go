package simulate

import (
	"fmt"
	"strings"

	"github.com/sshcollectorpro/sysvers/internal/model"
)

// profile 某个设备族的模拟行为：已知命令的回显，以及未知命令的报错方式
type profile struct {
	replies map[string]string
	reject  func(command string) (string, uint32)
}

func posixReject(command string) (string, uint32) {
	name := command
	if f := strings.Fields(command); len(f) > 0 {
		name = f[0]
	}
	return fmt.Sprintf("sh: 1: %s: not found\n", name), 127
}

// texinfoDir GNU info 在无终端时输出的目录页（退出码 0）
const texinfoDir = "File: dir,\tNode: Top\tThis is the top of the INFO tree\n\n" +
	"  This (the Directory node) gives a menu of major topics.\n\n* Menu:\n"

var profiles = map[model.Family]profile{
	model.FamilyCisco: {
		replies: map[string]string{
			"show version": "Cisco IOS XE Software, Version 17.03.04a\n" +
				"Cisco IOS Software [Amsterdam], Catalyst L3 Switch Software (CAT9K_IOSXE), Version 17.3.4a, RELEASE SOFTWARE (fc3)\n",
		},
		reject: func(string) (string, uint32) {
			return "                ^\n% Invalid input detected at '^' marker.\n", 1
		},
	},
	model.FamilyJuniper: {
		replies: map[string]string{
			"show version": "Hostname: mx-edge-1\nModel: mx204\nJunos: 21.2R3-S2.9\nJUNOS OS Kernel 64-bit  [20220623.8eb8a01_builder_stable_12_212]\n",
		},
		reject: func(command string) (string, uint32) {
			return fmt.Sprintf("                ^\nsyntax error, expecting <command>: %s\n", command), 1
		},
	},
	model.FamilyUbiquiti: {
		replies: map[string]string{
			"cat /etc/version": "EdgeRouter.ER-e50.v2.0.9-hotfix.7.5622731.230615.0857\n",
			"/opt/vyatta/bin/vyatta-op-cmd-wrapper show version": "Version:      v2.0.9-hotfix.7\nBuild ID:     5622731\nHW model:     EdgeRouter X 5-Port\n",
		},
		reject: posixReject,
	},
	model.FamilyLinux: {
		replies: map[string]string{
			"cat /etc/os-release | grep PRETTY_NAME": "PRETTY_NAME=\"Ubuntu 22.04.4 LTS\"\n",
			"lsb_release -ds":                        "Ubuntu 22.04.4 LTS\n",
			"info":                                   texinfoDir,
		},
		reject: posixReject,
	},
	model.FamilyMacOS: {
		replies: map[string]string{
			"sw_vers": "ProductName:\t\tmacOS\nProductVersion:\t\t14.4.1\nBuildVersion:\t\t23E224\n",
			"info":    texinfoDir,
		},
		reject: func(command string) (string, uint32) {
			name := strings.Fields(command + " x")[0]
			return fmt.Sprintf("zsh:1: command not found: %s\n", name), 127
		},
	},
	model.FamilyWindows: {
		replies: map[string]string{
			`systeminfo | findstr /B /C:"OS Name" /C:"OS Version"`: "OS Name:                   Microsoft Windows Server 2019 Standard\r\n" +
				"OS Version:                10.0.17763 N/A Build 17763\r\n",
			"ver": "\r\nMicrosoft Windows [Version 10.0.17763.5458]\r\n",
		},
		reject: func(command string) (string, uint32) {
			name := strings.Fields(command + " x")[0]
			return fmt.Sprintf("'%s' is not recognized as an internal or external command,\r\noperable program or batch file.\r\n", name), 1
		},
	},
}

// respond 计算设备对一条命令的回显与退出码；自定义回显优先，命令匹配忽略大小写
func respond(family model.Family, overrides map[string]string, command string) (string, uint32) {
	key := strings.ToLower(strings.TrimSpace(command))
	for cmd, out := range overrides {
		if strings.ToLower(strings.TrimSpace(cmd)) == key {
			return out, 0
		}
	}
	p, ok := profiles[family]
	if !ok {
		return posixReject(command)
	}
	for cmd, out := range p.replies {
		if strings.ToLower(cmd) == key {
			return out, 0
		}
	}
	return p.reject(command)
}
