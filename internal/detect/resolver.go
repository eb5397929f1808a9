package detect

import "github.com/sshcollectorpro/sysvers/internal/model"

func direct(cmd string) model.Candidate {
	return model.Candidate{Command: cmd, Strategy: model.StrategyDirect}
}

func shell(cmd string) model.Candidate {
	return model.Candidate{Command: cmd, Strategy: model.StrategyInteractive}
}

// commandTable 各设备族的候选命令（按尝试顺序）
// 同一设备族可能落到 CLI 提示符，也可能落到需要包装命令的系统 shell：
// Juniper 的 root 账号登录后是 FreeBSD shell，需要 cli -c；
// 部分 IOS-XE/FRR 设备落到 Linux shell，需要 /usr/bin/cli 或 vtysh；
// EdgeOS 的操作命令只能经 vyatta-op-cmd-wrapper 调用。
// 通用程序名（如 info）不能作为候选：macOS 与 Linux 上的同名程序会正常输出并以 0 退出。
var commandTable = map[model.Family][]model.Candidate{
	model.FamilyCisco: {
		direct("show version"),
		shell(`/usr/bin/cli "show version"`),
		shell(`vtysh -c "show version"`),
	},
	model.FamilyJuniper: {
		direct("show version"),
		shell(`cli -c "show version"`),
		shell("cli show version"),
	},
	model.FamilyUbiquiti: {
		direct("cat /etc/version"),
		shell("/opt/vyatta/bin/vyatta-op-cmd-wrapper show version"),
	},
	model.FamilyLinux: {
		direct("cat /etc/os-release | grep PRETTY_NAME"),
		direct("lsb_release -ds"),
	},
	model.FamilyWindows: {
		direct(`systeminfo | findstr /B /C:"OS Name" /C:"OS Version"`),
		direct("ver"),
	},
	model.FamilyMacOS: {
		direct("sw_vers"),
	},
}

// Resolver 设备族 -> 有序候选命令
type Resolver func(family model.Family) []model.Candidate

// Resolve 返回设备族的候选命令副本；未知设备族（含 auto）返回空
func Resolve(family model.Family) []model.Candidate {
	cands := commandTable[family]
	if len(cands) == 0 {
		return nil
	}
	out := make([]model.Candidate, len(cands))
	copy(out, cands)
	return out
}
