// Package handlers holds the gin handlers of the quote API and its
// operational endpoints.
package handlers

import (
	"net/http"
	"runtime"
	"runtime/debug"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/jsamuelsen/quote-engine/internal/ports"
)

// BuildInfo identifies the running binary.
type BuildInfo struct {
	Version   string `json:"version"`
	Commit    string `json:"commit"`
	BuildTime string `json:"buildTime"`
	GoVersion string `json:"goVersion"`
}

// NewBuildInfo takes the values injected with ldflags. A missing commit or
// build time is filled from the VCS stamp the go tool embeds.
func NewBuildInfo(version, commit, buildTime string) BuildInfo {
	bi := BuildInfo{
		Version:   version,
		Commit:    commit,
		BuildTime: buildTime,
		GoVersion: runtime.Version(),
	}

	if info, ok := debug.ReadBuildInfo(); ok {
		for _, s := range info.Settings {
			switch {
			case s.Key == "vcs.revision" && bi.Commit == "":
				bi.Commit = s.Value
			case s.Key == "vcs.time" && bi.BuildTime == "":
				bi.BuildTime = s.Value
			}
		}
	}

	return bi
}

// HealthHandler serves the health endpoints under /-/.
type HealthHandler struct {
	registry  ports.HealthRegistry
	buildInfo BuildInfo
	metrics   http.Handler
}

func NewHealthHandler(registry ports.HealthRegistry, buildInfo BuildInfo) *HealthHandler {
	return &HealthHandler{
		registry:  registry,
		buildInfo: buildInfo,
		metrics:   promhttp.Handler(),
	}
}

// Liveness answers while the process runs and checks nothing.
func (h *HealthHandler) Liveness(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Readiness answers 503 when any registered check fails: the quote store
// and, when configured, the account directory.
func (h *HealthHandler) Readiness(c *gin.Context) {
	result := h.registry.CheckAll(c.Request.Context())

	code := http.StatusOK
	if result.Status != ports.HealthStatusHealthy {
		code = http.StatusServiceUnavailable
	}

	c.JSON(code, result)
}

func (h *HealthHandler) Build(c *gin.Context) {
	c.JSON(http.StatusOK, h.buildInfo)
}

// Register mounts /-/live, /-/ready, /-/build and /-/metrics. Liveness and
// readiness answer HEAD as well as GET.
func (h *HealthHandler) Register(r gin.IRouter) {
	internal := r.Group("/-")

	for path, handle := range map[string]gin.HandlerFunc{
		"/live":  h.Liveness,
		"/ready": h.Readiness,
	} {
		internal.GET(path, handle)
		internal.HEAD(path, handle)
	}

	internal.GET("/build", h.Build)
	internal.GET("/metrics", gin.WrapH(h.metrics))
}
