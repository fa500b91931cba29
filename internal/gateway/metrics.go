package gateway

import (
	"bufio"
	"os"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// SystemMetrics is the process snapshot served on /api/metrics and pushed
// to WS clients.
type SystemMetrics struct {
	CPULoad1    float64 `json:"cpu_load_1"`
	CPULoad5    float64 `json:"cpu_load_5"`
	CPULoad15   float64 `json:"cpu_load_15"`
	CPUPercent  float64 `json:"cpu_percent"`
	CPUCores    int     `json:"cpu_cores"`
	MemUsedMB   float64 `json:"mem_used_mb"`
	MemTotalMB  float64 `json:"mem_total_mb"`
	MemPercent  float64 `json:"mem_percent"`
	HeapAllocMB float64 `json:"heap_alloc_mb"`
	SysMB       float64 `json:"sys_mb"`
	GCRuns      uint32  `json:"gc_runs"`
	Goroutines  int     `json:"goroutines"`
	UptimeSec   int64   `json:"uptime_sec"`
	FetchP50    float64 `json:"fetch_p50_ms"`
	FetchP95    float64 `json:"fetch_p95_ms"`
	FetchP99    float64 `json:"fetch_p99_ms"`
	WSClients   int     `json:"ws_clients"`
	ViewSeq     int64   `json:"view_seq"`
	TS          string  `json:"ts"`
}

type cpuSample struct {
	idle  uint64
	total uint64
}

var (
	cpuMu   sync.Mutex
	prevCPU cpuSample
)

func readCPUSample() cpuSample {
	f, err := os.Open("/proc/stat")
	if err != nil {
		return cpuSample{}
	}
	defer f.Close()
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		line := scanner.Text()
		if !strings.HasPrefix(line, "cpu ") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 5 {
			break
		}
		var total, idle uint64
		for i := 1; i < len(fields); i++ {
			v, _ := strconv.ParseUint(fields[i], 10, 64)
			total += v
			if i == 4 {
				idle = v
			}
		}
		return cpuSample{idle: idle, total: total}
	}
	return cpuSample{}
}

// cpuPercent returns busy CPU % since the previous call (0 on the first).
func cpuPercent() float64 {
	cur := readCPUSample()
	cpuMu.Lock()
	defer cpuMu.Unlock()
	pct := 0.0
	if prevCPU.total > 0 && cur.total > prevCPU.total {
		dTotal := float64(cur.total - prevCPU.total)
		dIdle := float64(cur.idle - prevCPU.idle)
		pct = (1.0 - dIdle/dTotal) * 100.0
	}
	prevCPU = cur
	return pct
}

func readLoadAvg(m *SystemMetrics) {
	b, err := os.ReadFile("/proc/loadavg")
	if err != nil {
		return
	}
	fields := strings.Fields(string(b))
	if len(fields) < 3 {
		return
	}
	m.CPULoad1, _ = strconv.ParseFloat(fields[0], 64)
	m.CPULoad5, _ = strconv.ParseFloat(fields[1], 64)
	m.CPULoad15, _ = strconv.ParseFloat(fields[2], 64)
}

func readMemInfo(m *SystemMetrics) {
	f, err := os.Open("/proc/meminfo")
	if err != nil {
		return
	}
	defer f.Close()

	var total, available uint64
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 2 {
			continue
		}
		switch fields[0] {
		case "MemTotal:":
			total, _ = strconv.ParseUint(fields[1], 10, 64)
		case "MemAvailable:":
			available, _ = strconv.ParseUint(fields[1], 10, 64)
		}
	}
	if total > 0 && available <= total {
		used := total - available
		m.MemTotalMB = float64(total) / 1024
		m.MemUsedMB = float64(used) / 1024
		m.MemPercent = float64(used) / float64(total) * 100
	}
}

// CollectMetrics gathers process and host resource usage. Host figures
// come from /proc and stay zero where it is unavailable.
func CollectMetrics(start time.Time) SystemMetrics {
	m := SystemMetrics{
		Goroutines: runtime.NumGoroutine(),
		UptimeSec:  int64(time.Since(start).Seconds()),
		TS:         time.Now().UTC().Format(time.RFC3339Nano),
		CPUCores:   runtime.NumCPU(),
		CPUPercent: cpuPercent(),
	}
	readLoadAvg(&m)
	readMemInfo(&m)

	var ms runtime.MemStats
	runtime.ReadMemStats(&ms)
	m.HeapAllocMB = float64(ms.HeapAlloc) / 1024 / 1024
	m.SysMB = float64(ms.Sys) / 1024 / 1024
	m.GCRuns = ms.NumGC

	return m
}
