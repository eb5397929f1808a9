package detect

import (
	"context"
	"fmt"
	"strings"

	"github.com/sshcollectorpro/sysvers/internal/model"
)

// AutoDetect 设备族未知时按序整族尝试：
//
//	Trying(f) --Success--> Done
//	Trying(f) --AuthenticationFailure--> Failed(auth)，不再尝试剩余设备族
//	Trying(f) --其他失败--> Trying(next) / Failed(exhausted)
//
// 凭据对整台主机有效，认证失败后继续尝试只会白白消耗超时并可能触发设备锁定。
// families 为空时使用引擎配置的顺序；探测阶段的超时收紧到 ProbeTimeout。
func (e *Engine) AutoDetect(ctx context.Context, params model.ConnectionParams, families []model.Family) model.Result {
	if len(families) == 0 {
		families = e.opts.AutoOrder
	}
	probe := params.CapTimeouts(e.opts.ProbeTimeout)

	var last model.Result
	tried := make([]string, 0, len(families))
	for _, family := range families {
		if ctx.Err() != nil {
			last = cancelled(ctx, params.Host, model.FamilyAuto)
			break
		}

		r := e.detectFamily(ctx, family, probe)
		tried = append(tried, family.String())
		if r.OK() || r.Fatal() {
			e.reporter.Finished(r)
			return r
		}
		last = r
	}

	if len(tried) == 0 && last.Class == "" {
		last = model.Result{Host: params.Host, Class: model.EmptyOrInvalid, Detail: "no device family to try"}
	}
	last.Family = model.FamilyAuto
	last.Hint = ""
	if len(tried) > 0 {
		last.Detail = fmt.Sprintf("no device family matched (tried %s): %s", strings.Join(tried, ", "), last.Detail)
	}
	e.reporter.Finished(last)
	return last
}
