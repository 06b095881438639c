package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"go.uber.org/zap"

	"github.com/Dharnipatel21/SmartCampus-AI/internal/models"
	"github.com/Dharnipatel21/SmartCampus-AI/internal/repository"
	"github.com/Dharnipatel21/SmartCampus-AI/internal/service"
	"github.com/Dharnipatel21/SmartCampus-AI/pkg/config"
	"github.com/Dharnipatel21/SmartCampus-AI/pkg/database"
	"github.com/Dharnipatel21/SmartCampus-AI/pkg/logger"
)

// issue_token mints an access token for a local account so the API can be exercised
// without the campus identity service.
func main() {
	email := flag.String("email", "", "look the account up by email")
	userID := flag.String("user", "", "user id (skips the database lookup)")
	role := flag.String("role", string(models.RoleStudent), "role when -user is given")
	name := flag.String("name", "", "display name when -user is given")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	if cfg.Env == config.EnvProduction {
		log.Fatal("refusing to mint tokens in production")
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	subject := service.TokenSubject{UserID: *userID, Role: models.UserRole(*role), FullName: *name}
	if *email != "" {
		subject, err = lookupSubject(cfg, *email)
		if err != nil {
			logr.Fatal("account lookup failed", zap.String("email", *email), zap.Error(err))
		}
	}
	if subject.FullName == "" {
		subject.FullName = subject.UserID
	}

	auth := service.NewAuthService(nil, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
	})
	token, expiresAt, err := auth.IssueToken(subject)
	if err != nil {
		logr.Fatal("failed to issue token", zap.Error(err))
	}

	fmt.Fprintf(os.Stderr, "role=%s user=%s expires=%s\n", subject.Role, subject.UserID, expiresAt.Format(time.RFC3339))
	fmt.Println(token)
}

func lookupSubject(cfg *config.Config, email string) (service.TokenSubject, error) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return service.TokenSubject{}, err
	}
	defer db.Close()

	user, err := repository.NewUserRepository(db).FindByEmail(ctx, email)
	if err != nil {
		return service.TokenSubject{}, err
	}
	if !user.Active {
		return service.TokenSubject{}, fmt.Errorf("account %s is inactive", user.Email)
	}
	return service.TokenSubject{UserID: user.ID, Role: user.Role, Email: user.Email, FullName: user.FullName}, nil
}
