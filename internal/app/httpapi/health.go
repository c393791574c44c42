package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/R3E-Network/jobhunter/internal/httputil"
)

const (
	statusUp   = "UP"
	statusDown = "DOWN"
)

type healthComponent struct {
	Status  string                 `json:"status"`
	Details map[string]interface{} `json:"details,omitempty"`
}

type healthReport struct {
	Status     string                     `json:"status"`
	Components map[string]healthComponent `json:"components"`
}

// health reports the database, cache and host. Any DOWN dependency turns
// the overall status DOWN and the response 503.
func (h *handler) health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	report := healthReport{Status: statusUp, Components: map[string]healthComponent{
		"db":    probe(ctx, h.app.Ping),
		"cache": probe(ctx, h.app.Cache.Ping),
		"host":  hostComponent(ctx),
	}}
	for _, c := range report.Components {
		if c.Status == statusDown {
			report.Status = statusDown
		}
	}

	status := http.StatusOK
	if report.Status == statusDown {
		status = http.StatusServiceUnavailable
	}
	httputil.WriteJSON(w, status, report)
}

func probe(ctx context.Context, ping func(context.Context) error) healthComponent {
	if ping == nil {
		return healthComponent{Status: statusUp}
	}
	if err := ping(ctx); err != nil {
		return healthComponent{Status: statusDown, Details: map[string]interface{}{"error": err.Error()}}
	}
	return healthComponent{Status: statusUp}
}

// hostComponent is informational; probe failures never mark it DOWN.
func hostComponent(ctx context.Context) healthComponent {
	details := map[string]interface{}{}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		details["memoryTotal"] = vm.Total
		details["memoryUsedPercent"] = vm.UsedPercent
	}
	if up, err := host.UptimeWithContext(ctx); err == nil {
		details["uptimeSeconds"] = up
	}
	return healthComponent{Status: statusUp, Details: details}
}
