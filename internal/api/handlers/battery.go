package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"battery-dispatch/internal/api/models"
	"battery-dispatch/internal/config"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// BatteryHandler serves the battery presets found in a directory of YAML files.
type BatteryHandler struct {
	batteryDir string
	logger     *zap.Logger
}

func NewBatteryHandler(dir string, logger *zap.Logger) *BatteryHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if abs, err := filepath.Abs(dir); err == nil {
		dir = abs
	}
	return &BatteryHandler{batteryDir: dir, logger: logger}
}

// Dir is the directory presets are read from.
func (h *BatteryHandler) Dir() string { return h.batteryDir }

// ListBatteries handles GET /api/v1/batteries
func (h *BatteryHandler) ListBatteries(c *gin.Context) {
	batteries := []models.BatteryInfo{}

	entries, err := os.ReadDir(h.batteryDir)
	if err != nil {
		// A missing preset directory is not an error; there are just no presets.
		h.logger.Warn("read battery directory", zap.String("dir", h.batteryDir), zap.Error(err))
		c.JSON(http.StatusOK, gin.H{"batteries": batteries})
		return
	}

	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".yaml") {
			continue
		}
		path := filepath.Join(h.batteryDir, entry.Name())
		b, err := config.LoadBatteryFile(path)
		if err != nil {
			h.logger.Warn("skipping battery file", zap.String("path", path), zap.Error(err))
			continue
		}

		// "small_home.yaml" -> "small_home"; the id is what battery_file refers to.
		id := strings.TrimSuffix(entry.Name(), ".yaml")
		name := b.Name
		if name == "" {
			name = id
		}
		batteries = append(batteries, models.BatteryInfo{
			ID:   id,
			Name: name,
			File: path,
			Specs: models.BatterySpecs{
				MinSOC:     b.MinSOC,
				MaxSOC:     b.MaxSOC,
				Efficiency: b.Efficiency,
				MaxEnergy:  b.MaxEnergy,
			},
		})
	}
	sort.Slice(batteries, func(i, j int) bool { return batteries[i].ID < batteries[j].ID })

	h.logger.Debug("listed batteries", zap.Int("count", len(batteries)))
	c.JSON(http.StatusOK, gin.H{"batteries": batteries})
}
