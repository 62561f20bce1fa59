package server

import (
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/temadison/stockdash/internal/database"
)

// SystemHandlers handles system monitoring endpoints
type SystemHandlers struct {
	log         zerolog.Logger
	dataDir     string
	startupTime time.Time
	ledgerDB    *database.DB
	historyDB   *database.DB
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(log zerolog.Logger, dataDir string, ledgerDB, historyDB *database.DB) *SystemHandlers {
	return &SystemHandlers{
		log:         log.With().Str("component", "system_handlers").Logger(),
		dataDir:     dataDir,
		startupTime: time.Now(),
		ledgerDB:    ledgerDB,
		historyDB:   historyDB,
	}
}

// HealthResponse is the system health payload
type HealthResponse struct {
	Status       string             `json:"status"` // "healthy" or "degraded"
	UptimeHours  float64            `json:"uptime_hours"`
	CPUPercent   float64            `json:"cpu_percent"`
	RAMPercent   float64            `json:"ram_percent"`
	Databases    map[string]string  `json:"databases"` // name -> "ok" or error text
	DatabaseSize map[string]float64 `json:"database_size_mb"`
	Timestamp    string             `json:"timestamp"`
}

// HandleHealth handles GET /api/system/health
func (h *SystemHandlers) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:       "healthy",
		UptimeHours:  time.Since(h.startupTime).Hours(),
		Databases:    make(map[string]string),
		DatabaseSize: make(map[string]float64),
		Timestamp:    time.Now().UTC().Format(time.RFC3339),
	}

	for _, db := range []*database.DB{h.ledgerDB, h.historyDB} {
		if db == nil {
			continue
		}
		if err := db.Conn().Ping(); err != nil {
			response.Databases[db.Name()] = err.Error()
			response.Status = "degraded"
		} else {
			response.Databases[db.Name()] = "ok"
		}
		if info, err := os.Stat(filepath.Join(h.dataDir, db.Name()+".db")); err == nil {
			response.DatabaseSize[db.Name()] = float64(info.Size()) / 1024 / 1024
		}
	}

	response.CPUPercent, response.RAMPercent = h.getSystemStats()

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode health response")
	}
}

// getSystemStats reads CPU and RAM usage percentages.
// The short CPU sample keeps the health endpoint fast.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}
