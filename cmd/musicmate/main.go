// Command musicmate runs the MusicMate API server.
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/joho/godotenv"

	"github.com/musicmate-app/musicmate/internal/auth"
	"github.com/musicmate-app/musicmate/internal/chat"
	"github.com/musicmate-app/musicmate/internal/db"
	"github.com/musicmate-app/musicmate/internal/matching"
	"github.com/musicmate-app/musicmate/internal/playlists"
	"github.com/musicmate-app/musicmate/internal/spotify"
	profilesync "github.com/musicmate-app/musicmate/internal/sync"
	"github.com/musicmate-app/musicmate/internal/web"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	// Optional; real deployments set the environment directly.
	if err := godotenv.Load(); err == nil {
		log.Println("Loaded environment from .env")
	}

	databaseURL := os.Getenv("DATABASE_URL")
	if databaseURL == "" {
		return fmt.Errorf("please set the DATABASE_URL environment variable")
	}
	secretKey := os.Getenv("SECRET_KEY")
	if secretKey == "" {
		return fmt.Errorf("please set the SECRET_KEY environment variable")
	}

	ctx := context.Background()
	database, err := db.New(ctx, databaseURL)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer database.Close()

	if err := database.Migrate(ctx); err != nil {
		return fmt.Errorf("migrating database: %w", err)
	}

	linker := spotify.NewLinker(
		os.Getenv("SPOTIFY_ID"),
		os.Getenv("SPOTIFY_SECRET"),
		os.Getenv("SPOTIFY_REDIRECT_URI"),
	)
	if linker.MockMode() {
		log.Println("No Spotify credentials configured; using generated listening data")
	}

	users := database.Users()
	tokens := database.Tokens()
	profiles := database.Profiles()

	authSvc := auth.New(users, secretKey)
	syncSvc := profilesync.New(profiles, profilesync.NewSpotifyProvider(linker, tokens))
	playlistSvc := playlists.New(database.Playlists(), database.Recaps(), profiles, users)
	matchingSvc := matching.New(profiles, database.Swipes(), database.Matches(), users, playlistSvc)
	chatSvc := chat.New(database.Messages(), database.Matches())

	server := web.NewServer(web.ServerConfig{Addr: os.Getenv("ADDR")}, web.Deps{
		Auth:      authSvc,
		Sync:      syncSvc,
		Matching:  matchingSvc,
		Chat:      chatSvc,
		Playlists: playlistSvc,
		Users:     users,
		Tokens:    tokens,
		Profiles:  profiles,
		Linker:    linker,
	})

	return server.Run()
}
