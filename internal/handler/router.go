package handler

import (
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"fileshare-service/pkg/middleware"
)

// NewRouter wires the HTTP surface. Every route behind the auth group
// maps 1:1 to a service operation.
func NewRouter(auth *AuthHandler, files *FileHandler, shares *ShareHandler, verifier middleware.TokenVerifier, frontendOrigin string) *gin.Engine {
	r := gin.Default()

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowOrigins = []string{frontendOrigin}
	corsCfg.AllowCredentials = true
	corsCfg.AllowHeaders = []string{"Origin", "Content-Length", "Content-Type", "Authorization"}
	r.Use(cors.New(corsCfg))

	api := r.Group("/api")
	{
		api.POST("/auth/register", auth.Register)
		api.POST("/auth/login", auth.Login)
		api.POST("/auth/refresh", auth.Refresh)

		authorized := api.Group("/")
		authorized.Use(middleware.Auth(verifier))
		{
			authorized.POST("/auth/logout", auth.Logout)

			// The file collection and single-file trees live on
			// separate prefixes: gin's router does not let a static
			// segment ("my-files") share a level with a parameter.
			authorized.POST("/files/upload", files.Upload)
			authorized.GET("/files/my-files", files.MyFiles)
			authorized.GET("/files/shared-with-me", files.SharedWithMe)
			authorized.GET("/file/:id", files.Get)
			authorized.GET("/file/:id/download", files.Download)
			authorized.GET("/file/:id/view", files.View)
			authorized.GET("/file/:id/url", files.URL)
			authorized.DELETE("/file/:id", files.Delete)

			authorized.POST("/shares/user", shares.ShareWithUsers)
			authorized.POST("/shares/link", shares.CreateOrUpdateLink)
			authorized.GET("/shares/link/:token", shares.ResolveLink)
			authorized.GET("/shares/file/:fileId", shares.ListForFile)
			authorized.GET("/shares/file/:fileId/audit", shares.AuditLog)
			authorized.DELETE("/share/:shareId", shares.Revoke)
			authorized.DELETE("/share/:shareId/user/:userId", shares.RemoveRecipient)
		}
	}

	return r
}
