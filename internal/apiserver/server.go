// Package apiserver exposes the outcome of a programming run as a small
// read-only JSON API, grounded on the gin setup in
// guiperry-HASHER/cmd/driver/hasher-host/main.go (gin.SetMode,
// router.Use(gin.Recovery()), a versioned route group, and handlers that
// respond with gin.H).
package apiserver

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"ccd/pkg/ccd"
)

// Result summarizes the programming run that preceded the --serve call:
// how many bytes were written, whether the CRC-16 verify passed, how
// long the run took, and the run's terminal error, if any.
type Result struct {
	BytesWritten int
	Verified     bool
	Duration     time.Duration
	Err          error
}

// Serve starts a blocking HTTP server at addr exposing the result of the
// run that just completed. It never returns unless the server itself
// fails to start or stops.
func Serve(addr string, fw ccd.FirmwareInfo, info *ccd.TargetInfo, result *Result) error {
	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())

	v1 := router.Group("/api/v1")
	v1.GET("/health", handleHealth)
	v1.GET("/firmware", handleFirmware(fw))
	v1.GET("/target", handleTarget(info))
	v1.GET("/result", handleResult(result))

	return router.Run(addr)
}

func handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func handleFirmware(fw ccd.FirmwareInfo) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"chip":   fw.Chip,
			"fw_id":  fw.FwID,
			"fw_rev": fw.FwRev,
		})
	}
}

func handleTarget(info *ccd.TargetInfo) gin.HandlerFunc {
	return func(c *gin.Context) {
		if info == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "target info was not collected for this run"})
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"chip_id":      info.ChipID,
			"chip_version": info.ChipVersion,
			"flash_kib":    info.FlashKiB,
			"sram_kib":     info.SRAMKiB,
		})
	}
}

func handleResult(result *Result) gin.HandlerFunc {
	return func(c *gin.Context) {
		if result == nil {
			c.JSON(http.StatusNotFound, gin.H{"error": "no programming run was performed this session"})
			return
		}
		body := gin.H{
			"bytes_written": result.BytesWritten,
			"verified":      result.Verified,
			"duration_ms":   result.Duration.Milliseconds(),
		}
		if result.Err != nil {
			body["error"] = result.Err.Error()
		}
		c.JSON(http.StatusOK, body)
	}
}
