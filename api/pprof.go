package api

import (
	"net/http/pprof"
	"strings"

	"github.com/gin-gonic/gin"
)

// RegisterPprof mounts the runtime profiling endpoints under basePath.
// It is only wired when enabled through configuration; with security on
// the auth layer still guards these routes.
func RegisterPprof(router *gin.Engine, basePath string) {
	if basePath == "" {
		basePath = "/debug/pprof"
	}
	if !strings.HasPrefix(basePath, "/") {
		basePath = "/" + basePath
	}
	group := router.Group(basePath)
	group.GET("/", gin.WrapF(pprof.Index))
	group.GET("/cmdline", gin.WrapF(pprof.Cmdline))
	group.GET("/profile", gin.WrapF(pprof.Profile))
	group.GET("/symbol", gin.WrapF(pprof.Symbol))
	group.POST("/symbol", gin.WrapF(pprof.Symbol))
	group.GET("/trace", gin.WrapF(pprof.Trace))
	for _, name := range []string{"allocs", "block", "goroutine", "heap", "mutex", "threadcreate"} {
		group.GET("/"+name, gin.WrapH(pprof.Handler(name)))
	}
}
