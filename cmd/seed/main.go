// Seeds the database with the default public rooms (and, with -users, a
// couple of demo accounts). Safe to re-run: existing rooms are left alone.
package main

import (
	"context"
	"flag"
	"log"
	"time"

	"github.com/Dias221467/Chat_Server/internal/config"
	"github.com/Dias221467/Chat_Server/internal/database"
	"github.com/Dias221467/Chat_Server/internal/models"
	"github.com/Dias221467/Chat_Server/internal/repository"
	"github.com/Dias221467/Chat_Server/internal/services"
	"github.com/Dias221467/Chat_Server/pkg/logger"
)

var defaultRooms = []models.Room{
	{Name: "General", Description: "General discussion for all topics", RoomType: models.RoomPublic},
	{Name: "Random", Description: "Random conversations and fun topics", RoomType: models.RoomPublic},
	{Name: "Tech Talk", Description: "Discuss technology, programming, and development", RoomType: models.RoomPublic},
	{Name: "Help & Support", Description: "Get help and support from the community", RoomType: models.RoomPublic},
}

func main() {
	seedUsers := flag.Bool("users", false, "also create demo users")
	flag.Parse()

	logger.InitLogger()
	cfg := config.LoadConfig()

	db, err := database.ConnectDB(cfg)
	if err != nil {
		log.Fatalf("Database connection error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	roomRepo := repository.NewRoomRepository(db.Database)

	count, err := roomRepo.CountRooms(ctx)
	if err != nil {
		log.Fatalf("Failed to count rooms: %v", err)
	}
	if count > 0 {
		logger.Log.Infof("Rooms already seeded (%d present), skipping", count)
	} else {
		for i := range defaultRooms {
			room := defaultRooms[i]
			if _, err := roomRepo.CreateRoom(ctx, &room); err != nil {
				log.Fatalf("Failed to seed room %q: %v", room.Name, err)
			}
			logger.Log.Infof("Seeded room %q", room.Name)
		}
	}

	if *seedUsers {
		userRepo := repository.NewUserRepository(db.Database)
		userService := services.NewUserService(userRepo, cfg.JWTSecret)

		demo := []struct{ username, email, password string }{
			{"admin", "admin@chatapp.com", "admin123456"},
			{"demo_user", "demo@chatapp.com", "demo123456"},
		}
		for _, u := range demo {
			if _, err := userService.Register(ctx, u.username, u.email, u.password); err != nil {
				logger.Log.Warnf("Skipping demo user %s: %v", u.username, err)
				continue
			}
			logger.Log.Infof("Seeded user %s", u.username)
		}
	}
}
