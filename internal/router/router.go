package router

import (
	"unionvote/internal/config"
	"unionvote/internal/handlers"
	"unionvote/internal/middleware"
	"unionvote/internal/services"
	"unionvote/internal/storage"

	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, store storage.Storage, rooms *services.RoomService, cfg config.Config) {
	r.Use(middleware.LoadUser(store, cfg.JWTSecret))

	// Handlers
	authHandler := handlers.NewAuthHandler(store, cfg.JWTSecret)
	unionHandler := handlers.NewUnionHandler(store)
	channelHandler := handlers.NewChannelHandler(store)
	postHandler := handlers.NewPostHandler(store)
	commentHandler := handlers.NewCommentHandler(store)
	voteHandler := handlers.NewVoteHandler(store)
	sessionHandler := handlers.NewSessionHandler(store, rooms)
	candidateHandler := handlers.NewCandidateHandler(store)

	api := r.Group("/api")

	// Public routes
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	api.GET("/unions", unionHandler.List)                      // list unions
	api.GET("/unions/:id", unionHandler.Get)                   // fetch union
	api.GET("/unions/:id/members", unionHandler.Members)       // member list
	api.GET("/unions/:id/channels", channelHandler.List)       // list channels
	api.GET("/unions/:id/posts", postHandler.ListByUnion)      // "all" pseudo-channel feed
	api.GET("/unions/:id/candidates", candidateHandler.List)   // candidates
	api.GET("/channels/:id/posts", postHandler.ListByChannel)  // posts in channel
	api.GET("/posts/:id", postHandler.Get)                     // fetch post
	api.GET("/posts/:id/comments", commentHandler.List)        // flat comment list
	api.GET("/sessions/:id/participants", sessionHandler.Participants)
	api.GET("/candidates/:id/pledges", candidateHandler.ListPledges)

	// Protected routes
	authorized := api.Group("/")
	authorized.Use(middleware.AuthRequired())
	{
		authorized.GET("/auth/me", authHandler.Me)

		authorized.POST("/unions", unionHandler.Create)
		authorized.POST("/unions/:id/join", unionHandler.Join)
		authorized.DELETE("/unions/:id/leave", unionHandler.Leave)

		authorized.POST("/unions/:id/channels", channelHandler.Create)
		authorized.DELETE("/channels/:id", channelHandler.Delete)

		authorized.POST("/channels/:id/posts", postHandler.Create)
		authorized.PATCH("/posts/:id", postHandler.Update)
		authorized.DELETE("/posts/:id", postHandler.Delete)
		authorized.POST("/posts/:id/channels/:channelId", postHandler.Tag)
		authorized.DELETE("/posts/:id/channels/:channelId", postHandler.Untag)

		authorized.POST("/posts/:id/comments", commentHandler.Create)
		authorized.DELETE("/comments/:id", commentHandler.Delete)

		authorized.POST("/posts/:id/vote", voteHandler.VotePost)
		authorized.POST("/comments/:id/vote", voteHandler.VoteComment)
		authorized.DELETE("/votes/:id", voteHandler.Delete)

		authorized.POST("/channels/:id/session", sessionHandler.CreateOrJoin) // create-or-join active call
		authorized.GET("/channels/:id/session", sessionHandler.GetActive)
		authorized.DELETE("/channels/:id/session", sessionHandler.End) // creator only
		authorized.POST("/sessions/:id/join", sessionHandler.Join)
		authorized.DELETE("/sessions/:id/leave", sessionHandler.Leave)
		authorized.PATCH("/participants/:id", sessionHandler.UpdateFlags)

		authorized.POST("/unions/:id/candidates", candidateHandler.Create)
		authorized.POST("/candidates/:id/pledges", candidateHandler.CreatePledge)
		authorized.DELETE("/pledges/:id", candidateHandler.DeletePledge)
	}
}
