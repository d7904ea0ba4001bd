package handler

import (
	"runtime"

	"main/utils"

	"github.com/gin-gonic/gin"
)

// GetServerStats reports host and runtime health for operators.
func GetServerStats(c *gin.Context) {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	utils.Success(c, gin.H{
		"cpu_percent":    utils.GetCPUUsage(),
		"memory_percent": utils.GetMemoryUsage(),
		"goroutines":     runtime.NumGoroutine(),
		"heap_bytes":     mem.HeapAlloc,
	})
}
