package pipeline

import (
	"context"
	"time"
)

// ServiceStatus reports the reachability of one upstream dependency.
type ServiceStatus struct {
	Status             string `json:"status"`
	RateLimitRemaining int    `json:"rate_limit_remaining,omitempty"`
	Error              string `json:"error,omitempty"`
}

// HealthReport is the aggregate health of the pipeline's upstreams.
type HealthReport struct {
	Status   string                   `json:"status"`
	Time     time.Time                `json:"time"`
	Services map[string]ServiceStatus `json:"services"`
}

// Health probes GitHub and the text service. Either one failing degrades the
// overall status without failing the probe itself.
func (o *Orchestrator) Health(ctx context.Context) HealthReport {
	report := HealthReport{
		Status:   "ok",
		Time:     time.Now().UTC(),
		Services: make(map[string]ServiceStatus),
	}

	remaining, err := o.collector.CheckRateLimit(ctx)
	if err != nil {
		report.Status = "degraded"
		report.Services["github"] = ServiceStatus{Status: "unreachable", Error: err.Error()}
	} else {
		report.Services["github"] = ServiceStatus{Status: "ok", RateLimitRemaining: remaining}
	}

	if err := o.generator.Ping(ctx); err != nil {
		report.Status = "degraded"
		report.Services["gemini"] = ServiceStatus{Status: "unreachable", Error: err.Error()}
	} else {
		report.Services["gemini"] = ServiceStatus{Status: "ok"}
	}

	return report
}
