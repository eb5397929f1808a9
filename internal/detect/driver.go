package detect

import (
	"context"

	"github.com/sshcollectorpro/sysvers/internal/model"
)

// DetectForFamily 对已知设备族按序尝试候选命令，首个通过校验的输出即为结果。
// 认证失败立即返回；其余失败记为最近一次失败并继续下一条候选。
func (e *Engine) DetectForFamily(ctx context.Context, family model.Family, params model.ConnectionParams) model.Result {
	res := e.detectFamily(ctx, family, params)
	e.reporter.Finished(res)
	return res
}

func (e *Engine) detectFamily(ctx context.Context, family model.Family, params model.ConnectionParams) model.Result {
	cands := e.resolve(family)
	if len(cands) == 0 {
		return model.Result{
			Host:   params.Host,
			Family: family,
			Class:  model.TransportError,
			Detail: "unsupported family",
			Hint:   hintFor(family),
		}
	}

	e.reporter.FamilyStarted(params.Host, family)
	sess := newSession(e.transport, params)
	defer sess.close()

	var last *model.Result
	allRejected := true
	for _, c := range cands {
		if ctx.Err() != nil {
			return cancelled(ctx, params.Host, family)
		}

		r := sess.execute(ctx, c)
		r.Family = family
		e.reporter.CandidateDone(family, c, r)

		switch r.Class {
		case model.Success, model.AuthenticationFailure:
			return r
		case model.EmptyOrInvalid:
		default:
			allRejected = false
		}
		last = &r
	}

	if last == nil {
		return model.Result{Host: params.Host, Family: family, Class: model.EmptyOrInvalid, Detail: "no candidate produced output"}
	}
	res := *last
	if allRejected {
		res.Hint = hintFor(family)
	}
	return res
}

// hintFor 声明的设备族所有命令都不被识别时，给出可尝试的其他设备族
func hintFor(family model.Family) string {
	switch family {
	case model.FamilyCisco:
		return "If this is not a Cisco device, try --device-type juniper or --device-type auto"
	case model.FamilyJuniper:
		return "If this is not a Juniper device, try --device-type cisco or --device-type auto"
	default:
		return "Try --device-type auto to automatically detect the device type"
	}
}
