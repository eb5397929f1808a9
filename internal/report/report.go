package report

import (
	"encoding/json"
	"path"
	"sort"
	"time"

	"github.com/sshcollectorpro/sysvers/internal/detect"
	"github.com/sshcollectorpro/sysvers/internal/model"
)

// Summary 批量检查汇总
type Summary struct {
	Total     int            `json:"total"`
	Succeeded int            `json:"succeeded"`
	Failed    int            `json:"failed"`
	Drifted   int            `json:"drifted"`
	ByClass   map[string]int `json:"by_class"`
}

// HostEntry 单台主机的报告行
type HostEntry struct {
	Host            string               `json:"host"`
	Family          model.Family         `json:"family,omitempty"`
	Class           model.Classification `json:"class"`
	Version         string               `json:"version,omitempty"`
	Command         string               `json:"command,omitempty"`
	Detail          string               `json:"detail,omitempty"`
	Hint            string               `json:"hint,omitempty"`
	RecordedVersion string               `json:"recorded_version,omitempty"`
	Drift           bool                 `json:"drift"`
}

// Document 一次批量检查的报告
type Document struct {
	RunID       string      `json:"run_id"`
	GeneratedAt time.Time   `json:"generated_at"`
	Summary     Summary     `json:"summary"`
	Hosts       []HostEntry `json:"hosts"`
}

// Build 由批量结果生成报告，主机按名称排序
func Build(runID string, results map[string]model.Result, recorded map[string]string, at time.Time) Document {
	doc := Document{
		RunID:       runID,
		GeneratedAt: at.UTC(),
		Summary:     Summary{ByClass: map[string]int{}},
		Hosts:       make([]HostEntry, 0, len(results)),
	}

	hosts := make([]string, 0, len(results))
	for h := range results {
		hosts = append(hosts, h)
	}
	sort.Strings(hosts)

	for _, h := range hosts {
		r := results[h]
		entry := HostEntry{
			Host:            h,
			Family:          r.Family,
			Class:           r.Class,
			Version:         r.Version(),
			Command:         r.Command,
			Detail:          r.Detail,
			Hint:            r.Hint,
			RecordedVersion: recorded[h],
			Drift:           detect.Drift(r, recorded[h]),
		}
		doc.Hosts = append(doc.Hosts, entry)

		doc.Summary.Total++
		doc.Summary.ByClass[string(r.Class)]++
		if r.OK() {
			doc.Summary.Succeeded++
		} else {
			doc.Summary.Failed++
		}
		if entry.Drift {
			doc.Summary.Drifted++
		}
	}
	return doc
}

// JSON 序列化（缩进）
func (d Document) JSON() ([]byte, error) {
	return json.MarshalIndent(d, "", "  ")
}

// ObjectName 报告的存储名：日期/run_id.json
func (d Document) ObjectName() string {
	return path.Join(d.GeneratedAt.Format("20060102"), d.RunID+".json")
}
