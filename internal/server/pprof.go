package server

import (
	"log"

	"github.com/gin-contrib/pprof"
	"github.com/gin-gonic/gin"
)

// StartPprofServer serves the profiling endpoints on their own listener so
// they never ride on the public router. Reach it over SSH tunnel only.
func StartPprofServer(addr string) {
	profiling := gin.New()
	pprof.Register(profiling)

	go func() {
		log.Printf("hanapbahay pprof listening on %s", addr)
		if err := profiling.Run(addr); err != nil {
			log.Fatalf("hanapbahay pprof server failed: %v", err)
		}
	}()
}
