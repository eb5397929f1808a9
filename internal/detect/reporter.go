package detect

import (
	"github.com/sirupsen/logrus"

	"github.com/sshcollectorpro/sysvers/internal/model"
	"github.com/sshcollectorpro/sysvers/pkg/logger"
)

// Reporter 探测过程的结构化事件出口；引擎本身不做任何控制台输出
type Reporter interface {
	FamilyStarted(host string, family model.Family)
	CandidateDone(family model.Family, c model.Candidate, r model.Result)
	Finished(r model.Result)
}

// NopReporter 丢弃所有事件
type NopReporter struct{}

func (NopReporter) FamilyStarted(string, model.Family)                         {}
func (NopReporter) CandidateDone(model.Family, model.Candidate, model.Result) {}
func (NopReporter) Finished(model.Result)                                      {}

// LogReporter 将事件写入全局 logrus 日志
type LogReporter struct{}

func (LogReporter) FamilyStarted(host string, family model.Family) {
	logger.WithFields(logrus.Fields{
		"host":   host,
		"family": family,
	}).Info("Trying device family")
}

func (LogReporter) CandidateDone(family model.Family, c model.Candidate, r model.Result) {
	entry := logger.WithFields(logrus.Fields{
		"host":     r.Host,
		"family":   family,
		"command":  c.Command,
		"strategy": c.Strategy,
		"class":    r.Class,
	})
	switch r.Class {
	case model.Success:
		entry.Debug("Command succeeded")
	case model.AuthenticationFailure:
		entry.WithField("detail", r.Detail).Warn("Authentication failed")
	default:
		entry.WithField("detail", r.Detail).Debug("Command did not return a version")
	}
}

func (LogReporter) Finished(r model.Result) {
	fields := logrus.Fields{
		"host":   r.Host,
		"family": r.Family,
		"class":  r.Class,
	}
	if r.OK() {
		fields["command"] = r.Command
		logger.WithFields(fields).Info("Remote version detected")
		return
	}
	fields["detail"] = r.Detail
	if r.Hint != "" {
		fields["hint"] = r.Hint
	}
	logger.WithFields(fields).Error("Remote version detection failed")
}
