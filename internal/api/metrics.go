package api

import (
	"fmt"
	"os"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/process"

	"github.com/annel0/soundsteps/internal/auth"
)

// ServerMetrics снимает метрики процесса для /api/stats.
type ServerMetrics struct {
	startTime time.Time
	proc      *process.Process
}

// NewServerMetrics создает сборщик метрик. Недоступность process-хендла
// не ошибка: снимок просто не будет содержать CPU процесса.
func NewServerMetrics() *ServerMetrics {
	proc, err := process.NewProcess(int32(os.Getpid()))
	if err != nil {
		proc = nil
	}
	return &ServerMetrics{
		startTime: time.Now(),
		proc:      proc,
	}
}

// Uptime возвращает время работы сервера в человекочитаемом виде.
func (sm *ServerMetrics) Uptime() string {
	uptime := time.Since(sm.startTime)

	days := int(uptime.Hours()) / 24
	hours := int(uptime.Hours()) % 24
	minutes := int(uptime.Minutes()) % 60
	seconds := int(uptime.Seconds()) % 60

	if days > 0 {
		return fmt.Sprintf("%dд %dч %dм %dс", days, hours, minutes, seconds)
	} else if hours > 0 {
		return fmt.Sprintf("%dч %dм %dс", hours, minutes, seconds)
	} else if minutes > 0 {
		return fmt.Sprintf("%dм %dс", minutes, seconds)
	}
	return fmt.Sprintf("%dс", seconds)
}

// Snapshot собирает блок "server" ответа /api/stats: аптайм, память и CPU
// процесса, системный CPU, горутины. CPU-метрики best-effort: на платформах
// без поддержки gopsutil поля просто отсутствуют.
func (sm *ServerMetrics) Snapshot() map[string]interface{} {
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	snap := map[string]interface{}{
		"uptime":      sm.Uptime(),
		"memory_mb":   fmt.Sprintf("%.2f", float64(m.Alloc)/1024/1024),
		"heap_sys_mb": fmt.Sprintf("%.2f", float64(m.HeapSys)/1024/1024),
		"goroutines":  runtime.NumGoroutine(),
		"num_gc":      m.NumGC,
		"server_time": time.Now().Unix(),
	}

	if cpuPercent, err := sm.processCPU(); err == nil {
		snap["cpu_percent"] = fmt.Sprintf("%.2f", cpuPercent)
	}
	if systemPercent, err := systemCPU(); err == nil {
		snap["system_cpu"] = fmt.Sprintf("%.2f", systemPercent)
	}

	return snap
}

func (sm *ServerMetrics) processCPU() (float64, error) {
	if sm.proc == nil {
		return 0, fmt.Errorf("process handle unavailable")
	}
	return sm.proc.CPUPercent()
}

func systemCPU() (float64, error) {
	percents, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		return 0, err
	}
	if len(percents) == 0 {
		return 0, fmt.Errorf("no cpu samples")
	}
	return percents[0], nil
}

// userStats возвращает статистику аккаунтов, если бекенд репозитория её
// поддерживает (MariaDB); файловый и memory-бекенды блок "users" не отдают.
func userStats(repo auth.UserRepository) (map[string]interface{}, bool) {
	statsRepo, ok := repo.(interface {
		GetUserStats() (map[string]interface{}, error)
	})
	if !ok {
		return nil, false
	}

	stats, err := statsRepo.GetUserStats()
	if err != nil {
		return nil, false
	}
	return stats, true
}
