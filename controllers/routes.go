package controllers

import "github.com/gin-gonic/gin"

// Routes collects the handlers mounted on the router.
type Routes struct {
	Groups    *GroupController
	Users     *UserController
	DB        Pinger
	WebSocket gin.HandlerFunc
	// Auth guards the REST endpoints when set.
	Auth gin.HandlerFunc
}

// Register mounts every route on router.
func (r Routes) Register(router *gin.Engine) {
	router.GET("/health", Health(r.DB))
	router.GET("/ws", r.WebSocket)

	api := router.Group("/")
	if r.Auth != nil {
		api.Use(r.Auth)
	}
	{
		// Group routes
		api.GET("/groups", r.Groups.GetAllGroups)
		api.POST("/groups", r.Groups.CreateGroup)
		api.DELETE("/groups", r.Groups.DeleteGroupByName)
		api.DELETE("/groups/:groupId", r.Groups.DeleteGroup)
		api.POST("/groups/:groupId/upload", r.Groups.UploadGroupDocument)
		api.GET("/groups/:groupId/files", r.Groups.GetGroupFiles)
		api.GET("/groups/:groupId/messages", r.Groups.GetGroupMessages)
		api.GET("/user/:userId/groups", r.Groups.GetUserGroups)

		// Member routes
		api.POST("/groups/:groupId/members", r.Groups.AddMembers)
		api.DELETE("/groups/:groupId/members/:userId", r.Groups.RemoveMember)

		// User routes
		api.POST("/users", r.Users.SyncUser)
	}
}
