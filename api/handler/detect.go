package handler

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/sshcollectorpro/sysvers/internal/detect"
	"github.com/sshcollectorpro/sysvers/internal/inventory"
	"github.com/sshcollectorpro/sysvers/internal/model"
	"github.com/sshcollectorpro/sysvers/internal/report"
	"github.com/sshcollectorpro/sysvers/pkg/logger"
)

// ParamsFunc 按主机生成默认连接参数（凭据、端口、超时）
type ParamsFunc func(host string) model.ConnectionParams

// DetectHandler 版本探测接口
type DetectHandler struct {
	engine *detect.Engine
	params ParamsFunc
	store  *inventory.Store
}

// NewDetectHandler store 可为 nil，此时不记录历史
func NewDetectHandler(engine *detect.Engine, params ParamsFunc, store *inventory.Store) *DetectHandler {
	return &DetectHandler{engine: engine, params: params, store: store}
}

// DetectRequest 单台主机探测请求
type DetectRequest struct {
	Host       string `json:"host" binding:"required"`
	Port       int    `json:"port"`
	Username   string `json:"username"`
	Password   string `json:"password"`
	DeviceType string `json:"device_type"`
}

// BatchDevice 批量请求中的设备
type BatchDevice struct {
	Host            string `json:"host" binding:"required"`
	Port            int    `json:"port"`
	DeviceType      string `json:"device_type"`
	RecordedVersion string `json:"recorded_version"`
}

// BatchRequest 批量探测请求
type BatchRequest struct {
	Devices  []BatchDevice `json:"devices" binding:"required,min=1,dive"`
	Username string        `json:"username"`
	Password string        `json:"password"`
}

// BatchResponse 批量探测响应
type BatchResponse struct {
	RunID   string                  `json:"run_id"`
	Results map[string]model.Result `json:"results"`
	Summary report.Summary          `json:"summary"`
}

// FamilyInfo 设备族及其候选命令
type FamilyInfo struct {
	Family     model.Family      `json:"family"`
	Candidates []model.Candidate `json:"candidates"`
}

// Health 健康检查
func (h *DetectHandler) Health(c *gin.Context) {
	c.JSON(http.StatusOK, SuccessResponse{
		Code:    "SUCCESS",
		Message: "ok",
		Data:    gin.H{"history": h.store != nil},
	})
}

// Families 列出设备族、候选命令与自动探测顺序
func (h *DetectHandler) Families(c *gin.Context) {
	families := model.Families()
	out := make([]FamilyInfo, 0, len(families))
	for _, f := range families {
		out = append(out, FamilyInfo{Family: f, Candidates: detect.Resolve(f)})
	}
	c.JSON(http.StatusOK, gin.H{
		"families":   out,
		"auto_order": h.engine.AutoOrder(),
	})
}

// Detect 探测单台主机；探测失败也以 200 返回分类结果
func (h *DetectHandler) Detect(c *gin.Context) {
	var req DetectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "INVALID_PARAMS", Message: err.Error()})
		return
	}
	family, err := parseDeviceType(req.DeviceType)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "INVALID_DEVICE_TYPE", Message: err.Error()})
		return
	}

	params := h.params(strings.TrimSpace(req.Host))
	applyCredentials(&params, req.Username, req.Password)
	if req.Port > 0 {
		params.Port = req.Port
	}

	c.JSON(http.StatusOK, h.engine.Detect(c.Request.Context(), family, params))
}

// Batch 批量探测，主机之间互不影响
func (h *DetectHandler) Batch(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{Code: "INVALID_PARAMS", Message: err.Error()})
		return
	}

	targets := make([]detect.Target, 0, len(req.Devices))
	recorded := make(map[string]string, len(req.Devices))
	for _, d := range req.Devices {
		family, err := parseDeviceType(d.DeviceType)
		if err != nil {
			c.JSON(http.StatusBadRequest, ErrorResponse{Code: "INVALID_DEVICE_TYPE", Message: d.Host + ": " + err.Error()})
			return
		}
		host := strings.TrimSpace(d.Host)
		targets = append(targets, detect.Target{Host: host, Port: d.Port, Family: family})
		if d.RecordedVersion != "" {
			recorded[host] = d.RecordedVersion
		}
	}

	base := h.params("")
	applyCredentials(&base, req.Username, req.Password)

	runID := uuid.NewString()
	results := h.engine.CheckBatch(c.Request.Context(), targets, base)
	if h.store != nil {
		if err := h.store.RecordResults(c.Request.Context(), runID, results, recorded); err != nil {
			logger.WithField("run_id", runID).Errorf("Failed to record batch results: %v", err)
		}
	}

	c.JSON(http.StatusOK, BatchResponse{
		RunID:   runID,
		Results: results,
		Summary: report.Build(runID, results, recorded, time.Now()).Summary,
	})
}

// ListDevices 本地清单
func (h *DetectHandler) ListDevices(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Code: "STORE_UNAVAILABLE", Message: "inventory store not configured"})
		return
	}
	devices, err := h.store.List(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "INTERNAL_ERROR", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"devices": devices})
}

// History 某台主机的检查历史
func (h *DetectHandler) History(c *gin.Context) {
	if h.store == nil {
		c.JSON(http.StatusServiceUnavailable, ErrorResponse{Code: "STORE_UNAVAILABLE", Message: "inventory store not configured"})
		return
	}
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "20"))
	records, err := h.store.History(c.Request.Context(), c.Param("name"), limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, ErrorResponse{Code: "INTERNAL_ERROR", Message: err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"records": records})
}

func parseDeviceType(name string) (model.Family, error) {
	if strings.TrimSpace(name) == "" {
		return model.FamilyAuto, nil
	}
	return model.ParseFamily(name)
}

func applyCredentials(p *model.ConnectionParams, username, password string) {
	if username != "" {
		p.Username = username
	}
	if password != "" {
		p.Password = password
	}
}
