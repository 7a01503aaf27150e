package mockproxy

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Handler 返回 POST /v1/responses 的 net/http 处理器。
func Handler(cfg Config) http.HandlerFunc {
	return newResponsesHandler(resolveConfig(cfg))
}

func RegisterGinRoutes(r gin.IRouter, cfg Config) error {
	if r == nil {
		return fmt.Errorf("router is nil")
	}
	basePath := normalizeBasePath(cfg.BasePath)
	r.POST(joinPath(basePath, "/responses"), gin.WrapF(Handler(cfg)))
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	return nil
}
