package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/Dias221467/Chat_Server/internal/config"
	"github.com/Dias221467/Chat_Server/internal/database"
	"github.com/Dias221467/Chat_Server/internal/handlers"
	"github.com/Dias221467/Chat_Server/internal/realtime"
	"github.com/Dias221467/Chat_Server/internal/repository"
	"github.com/Dias221467/Chat_Server/internal/services"
	"github.com/Dias221467/Chat_Server/pkg/logger"
	"github.com/Dias221467/Chat_Server/pkg/middleware"
	"github.com/gorilla/mux"
	"github.com/redis/go-redis/v9"
	"github.com/rs/cors"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

func main() {
	logger.InitLogger()
	logger.Log.Info("Logger initialized")

	// Load configuration from .env file
	cfg := config.LoadConfig()

	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	// --- Repositories ---
	userRepo := repository.NewUserRepository(db.Database)
	friendRepo := repository.NewFriendRepository(db.Database)
	friendshipRepo := repository.NewFriendshipRepository(db.Database)
	roomRepo := repository.NewRoomRepository(db.Database)
	messageRepo := repository.NewMessageRepository(db.Database)
	txRunner := repository.NewMongoTxRunner(db.Client)

	// --- Realtime fabric ---
	registry := realtime.NewRegistry()
	dispatcher := realtime.NewDispatcher(registry, roomRepo)

	var unread realtime.UnreadTracker = realtime.NewMemoryUnreadTracker()
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
		})
		unread = realtime.NewRedisUnreadTracker(rdb)
		logger.Log.Info("Unread counters backed by Redis")
	}

	typing := realtime.NewTypingTracker(0, func(roomID primitive.ObjectID, users []string) {
		dispatcher.ToRoom(context.Background(), roomID, realtime.UserTyping{RoomID: roomID, Users: users})
	})

	// --- Services ---
	userService := services.NewUserService(userRepo, cfg.JWTSecret)
	friendService := services.NewFriendService(userRepo, friendRepo, friendshipRepo, roomRepo, messageRepo, txRunner, dispatcher)
	roomService := services.NewRoomService(roomRepo, userRepo, dispatcher)
	messageService := services.NewMessageService(messageRepo, roomRepo, userRepo, dispatcher, registry, unread)

	// --- Handlers ---
	userHandler := handlers.NewUserHandler(userService)
	friendHandler := handlers.NewFriendHandler(friendService)
	roomHandler := handlers.NewRoomHandler(roomService, messageService, unread)
	wsHandler := &handlers.WSHandler{
		JWTSecret:  cfg.JWTSecret,
		Registry:   registry,
		Dispatcher: dispatcher,
		Typing:     typing,
		Unread:     unread,
		Users:      userService,
		Rooms:      roomService,
		Messages:   messageService,
	}

	router := mux.NewRouter()

	// Public user routes
	router.HandleFunc("/users/register", userHandler.RegisterUserHandler).Methods("POST")
	router.HandleFunc("/users/login", userHandler.LoginUserHandler).Methods("POST")

	lastSeen := middleware.UpdateLastSeenMiddleware(func(r *http.Request, id primitive.ObjectID) {
		userService.TouchLastSeen(r.Context(), id)
	})

	// Protected user routes
	protectedUserRoutes := router.PathPrefix("/users").Subrouter()
	protectedUserRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret), lastSeen)
	protectedUserRoutes.HandleFunc("/{id}", userHandler.GetUserHandler).Methods("GET")

	// Friend routes
	protectedFriendRoutes := router.PathPrefix("/friends").Subrouter()
	protectedFriendRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret), lastSeen)
	protectedFriendRoutes.HandleFunc("/search", friendHandler.SearchUserHandler).Methods("POST")
	protectedFriendRoutes.HandleFunc("/request", friendHandler.SendFriendRequestHandler).Methods("POST")
	protectedFriendRoutes.HandleFunc("/requests", friendHandler.GetPendingRequestsHandler).Methods("GET")
	protectedFriendRoutes.HandleFunc("/requests/{id}/accept", friendHandler.AcceptFriendRequestHandler).Methods("POST")
	protectedFriendRoutes.HandleFunc("/requests/{id}/decline", friendHandler.DeclineFriendRequestHandler).Methods("POST")
	protectedFriendRoutes.HandleFunc("", friendHandler.GetFriendsHandler).Methods("GET")
	protectedFriendRoutes.HandleFunc("/{id}", friendHandler.RemoveFriendHandler).Methods("DELETE")

	// Room routes
	protectedRoomRoutes := router.PathPrefix("/rooms").Subrouter()
	protectedRoomRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret), lastSeen)
	protectedRoomRoutes.HandleFunc("", roomHandler.CreateRoomHandler).Methods("POST")
	protectedRoomRoutes.HandleFunc("", roomHandler.ListRoomsHandler).Methods("GET")
	protectedRoomRoutes.HandleFunc("/{id}/join", roomHandler.JoinRoomHandler).Methods("POST")
	protectedRoomRoutes.HandleFunc("/{id}/leave", roomHandler.LeaveRoomHandler).Methods("POST")
	protectedRoomRoutes.HandleFunc("/{id}/messages", roomHandler.RoomMessagesHandler).Methods("GET")

	// Unread counters
	protectedUnreadRoutes := router.PathPrefix("/unread").Subrouter()
	protectedUnreadRoutes.Use(middleware.AuthMiddleware(cfg.JWTSecret))
	protectedUnreadRoutes.HandleFunc("", roomHandler.UnreadCountsHandler).Methods("GET")

	// WebSocket gateway (token auth happens inside the handler)
	router.HandleFunc("/ws", wsHandler.ServeWS)

	// Apply middleware for logging
	router.Use(middleware.LoggingMiddleware)

	c := cors.New(cors.Options{
		AllowedOrigins:   []string{cfg.ClientURL},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		AllowCredentials: true,
	})

	handler := c.Handler(router)

	port := cfg.Port
	fmt.Printf("Server running on port %s\n", port)
	log.Fatal(http.ListenAndServe(":"+port, handler))
}
