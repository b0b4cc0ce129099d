package routes

import (
	"forestfight/controllers"
	"forestfight/middleware"
	"forestfight/services/match"
	"forestfight/services/security"
	"forestfight/utils"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// SetupRoutes configures all API routes
func SetupRoutes(router *gin.Engine, db *gorm.DB, engine *match.Engine, sec *security.Service) {
	router.Use(utils.Logger())
	router.Use(utils.ErrorHandler())

	// Swagger route
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// API routes group
	api := router.Group("/")

	api.GET("/ping", controllers.Ping)

	api.GET("/users/:username", controllers.GetUserPublicInfo(db))

	api.POST("/register", controllers.Register(db, sec))

	api.POST("/login", controllers.Login(db, sec))

	// Room lifecycle. Membership changes go through the engine so they
	// serialize with the socket events touching the same room.
	api.POST("/create_room", controllers.CreateRoom(engine, sec))

	api.POST("/join_room_route", controllers.JoinRoom(engine, sec))

	api.POST("/remove_player_from_room", controllers.RemovePlayerFromRoom(engine, sec))

	api.POST("/get_group1", controllers.GetGroup1(engine, db, sec))

	api.POST("/get_group2", controllers.GetGroup2(engine, db, sec))

	// Character management
	api.POST("/get_characters", controllers.GetCharacters(db, sec))

	api.POST("/get_character", controllers.GetCharacter(db, sec))

	api.POST("/save_character", controllers.SaveCharacter(db, sec))

	api.POST("/delete_character", controllers.DeleteCharacter(db, sec))

	// Ability catalog
	api.POST("/get_abilities", controllers.GetAbilities(db, sec))

	api.POST("/get_ability_details", controllers.GetAbilityDetails(db, sec))

	authentication := api.Group("/auth")
	authentication.Use(middleware.AuthRequired)
	{
		authentication.DELETE("/logout", controllers.Logout)

		authentication.GET("/me", controllers.GetUserPrivateInfo(db))
	}
}
