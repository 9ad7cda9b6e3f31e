// Command admin manages accounts and roles from the command line.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"postboard/internal/cache"
	"postboard/internal/config"
	"postboard/internal/database"
	"postboard/internal/models"
	"postboard/internal/repository"
	"postboard/internal/service"
)

func usage() {
	fmt.Println("Usage:")
	fmt.Println("  admin create-user -email <email> -username <name> -first <name> -last <name> -password <pw> [-role user|admin]")
	fmt.Println("  admin promote <username>    - Promote user to admin")
	fmt.Println("  admin demote <username>     - Demote admin to user")
	fmt.Println("  admin list-admins           - List all admins")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	ctx := context.Background()
	db, err := database.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer func() { _ = database.Close(db) }()

	// Role changes must evict the server's cached copy of the user.
	cache.InitRedis(cfg.RedisURL)
	defer func() { _ = cache.Close() }()

	users := service.NewUserService(repository.NewStore(db))

	if err := run(ctx, users, os.Args[1], os.Args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, users *service.UserService, command string, args []string) error {
	switch command {
	case "create-user":
		fs := flag.NewFlagSet("create-user", flag.ExitOnError)
		email := fs.String("email", "", "email address")
		username := fs.String("username", "", "username")
		first := fs.String("first", "", "first name")
		last := fs.String("last", "", "last name")
		password := fs.String("password", "", "password")
		role := fs.String("role", string(models.RoleUser), "user or admin")
		_ = fs.Parse(args)

		user, err := users.CreateUser(ctx, service.CreateUserInput{
			Email:     *email,
			Username:  *username,
			FirstName: *first,
			LastName:  *last,
			Password:  *password,
			Role:      models.Role(*role),
		})
		if err != nil {
			return err
		}
		fmt.Printf("Created %s (ID: %d, role: %s)\n", user.Username, user.ID, user.Role)

	case "promote", "demote":
		if len(args) < 1 {
			usage()
			return fmt.Errorf("%s needs a username", command)
		}
		role := models.RoleAdmin
		if command == "demote" {
			role = models.RoleUser
		}
		user, err := users.SetRole(ctx, args[0], role)
		if err != nil {
			return err
		}
		fmt.Printf("%s (ID: %d) is now %s\n", user.Username, user.ID, user.Role)

	case "list-admins":
		admins, err := users.ListAdmins(ctx)
		if err != nil {
			return err
		}
		if len(admins) == 0 {
			fmt.Println("No admins found in the system")
			return nil
		}
		fmt.Printf("Admins (%d):\n", len(admins))
		for _, a := range admins {
			fmt.Printf("  - %s (ID: %d, Email: %s)\n", a.Username, a.ID, a.Email)
		}

	default:
		usage()
		return fmt.Errorf("unknown command: %s", command)
	}
	return nil
}
