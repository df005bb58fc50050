package daemon

import (
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"os/user"
	"strings"
)

// Setup applies process-level tweaks for router deployments. On OpenWrt the
// daemon lowers its OOM score so the kernel prefers reclaiming other
// processes before the rule service.
func Setup() error {
	if IsOpenWrt() {
		if err := SetOOMScoreAdj(-900); err != nil {
			slog.Warn("SetOOMScoreAdj", slog.Any("error", err))
		}
	}
	return nil
}

func SetOOMScoreAdj(score int) error {
	if err := os.WriteFile("/proc/self/oom_score_adj", []byte(fmt.Sprintf("%d", score)), 0644); err != nil {
		return fmt.Errorf("write oom_score_adj: %w", err)
	}
	return nil
}

func IsOpenWrt() bool {
	checkFiles := []string{
		"/etc/openwrt_release",
	}
	for _, f := range checkFiles {
		if _, err := os.Stat(f); err == nil {
			return true
		}
	}

	data, err := os.ReadFile("/etc/os-release")
	if err == nil && strings.Contains(string(data), "OpenWrt") {
		return true
	}

	if _, err := user.Lookup("uci"); err == nil {
		return true
	}

	if _, err := exec.LookPath("opkg"); err == nil {
		return true
	}

	return false
}
