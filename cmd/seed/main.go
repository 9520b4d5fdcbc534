// Command seed provisions a fresh database from a YAML fixture: an admin
// account, a starter project with its file tree, and the service catalog.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"remod3/internal/auth"
	"remod3/internal/config"
	"remod3/internal/domain"
	"remod3/internal/domain/models"
	"remod3/internal/pathtree"
	"remod3/internal/repository/postgres"
)

type seedFile struct {
	Admin struct {
		Username string `yaml:"username"`
		Password string `yaml:"password"`
		Email    string `yaml:"email"`
	} `yaml:"admin"`
	Project struct {
		Name        string `yaml:"name"`
		Description string `yaml:"description"`
		Nodes       []struct {
			Name       string `yaml:"name"`
			ParentPath string `yaml:"parent_path"`
			IsFolder   bool   `yaml:"is_folder"`
			Content    string `yaml:"content"`
			FileType   string `yaml:"file_type"`
		} `yaml:"nodes"`
	} `yaml:"project"`
	Services []struct {
		Name           string `yaml:"name"`
		Description    string `yaml:"description"`
		Price          string `yaml:"price"`
		EstimatedTime  string `yaml:"estimated_time"`
		PaymentMethods string `yaml:"payment_methods"`
		Frameworks     string `yaml:"frameworks"`
	} `yaml:"services"`
}

func main() {
	_ = godotenv.Load()

	seedPath := flag.String("f", "seed.yaml", "path to the seed fixture")
	flag.Parse()

	cfg := config.Load()
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))

	raw, err := os.ReadFile(*seedPath)
	if err != nil {
		log.Fatalf("Failed to read seed file: %v", err)
	}

	var seed seedFile
	if err := yaml.Unmarshal(raw, &seed); err != nil {
		log.Fatalf("Failed to parse seed file: %v", err)
	}

	ctx := context.Background()
	pool, err := postgres.CreateConnectionPool(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to create connection pool: %v", err)
	}
	defer pool.Close()

	tables := postgres.NewTableNames(cfg.TablePrefix)
	if err := postgres.EnsureSchema(ctx, pool, tables); err != nil {
		log.Fatalf("Failed to ensure schema: %v", err)
	}

	repoConfig := &postgres.RepositoryConfig{Pool: pool, Tables: tables, Logger: logger}
	userRepo := postgres.NewUserRepository(repoConfig)
	projectRepo := postgres.NewProjectRepository(repoConfig)
	nodeRepo := postgres.NewNodeRepository(repoConfig)
	serviceRepo := postgres.NewServiceRepository(repoConfig)

	// Admin account
	admin, err := userRepo.GetByUsername(ctx, seed.Admin.Username)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			log.Fatalf("Failed to look up admin: %v", err)
		}

		hash, err := auth.HashPassword(seed.Admin.Password)
		if err != nil {
			log.Fatalf("Failed to hash password: %v", err)
		}
		var email *string
		if seed.Admin.Email != "" {
			email = &seed.Admin.Email
		}
		admin = &models.User{
			ID:           uuid.New().String(),
			Username:     seed.Admin.Username,
			Email:        email,
			PasswordHash: hash,
			Role:         models.RoleAdmin,
			CreatedAt:    time.Now(),
		}
		if err := userRepo.Create(ctx, admin); err != nil {
			log.Fatalf("Failed to create admin: %v", err)
		}
		logger.Info("admin created", "username", admin.Username)
	} else {
		logger.Info("admin already present", "username", admin.Username)
	}

	// Starter project and its tree
	if seed.Project.Name != "" {
		project := &models.Project{
			ID:          uuid.New().String(),
			Name:        seed.Project.Name,
			Description: seed.Project.Description,
			CreatedBy:   admin.ID,
			CreatedAt:   time.Now(),
		}
		if err := projectRepo.Create(ctx, project); err != nil {
			log.Fatalf("Failed to create project: %v", err)
		}

		for _, n := range seed.Project.Nodes {
			now := time.Now()
			node := &models.Node{
				ID:         uuid.New().String(),
				ProjectID:  project.ID,
				Name:       n.Name,
				ParentPath: n.ParentPath,
				Path:       pathtree.Join(n.ParentPath, n.Name),
				IsFolder:   n.IsFolder,
				Content:    n.Content,
				FileType:   n.FileType,
				CreatedAt:  now,
				UpdatedAt:  now,
			}
			if err := nodeRepo.Create(ctx, node); err != nil {
				log.Fatalf("Failed to create node %q: %v", node.Path, err)
			}
		}
		logger.Info("project seeded", "name", project.Name, "nodes", len(seed.Project.Nodes))
	}

	// Service catalog
	for _, s := range seed.Services {
		now := time.Now()
		svc := &models.Service{
			ID:             uuid.New().String(),
			Name:           s.Name,
			Description:    s.Description,
			Price:          s.Price,
			EstimatedTime:  s.EstimatedTime,
			PaymentMethods: s.PaymentMethods,
			Frameworks:     s.Frameworks,
			CreatedAt:      now,
			UpdatedAt:      now,
		}
		if err := serviceRepo.Create(ctx, svc); err != nil {
			log.Fatalf("Failed to create service %q: %v", svc.Name, err)
		}
	}
	if len(seed.Services) > 0 {
		logger.Info("catalog seeded", "services", len(seed.Services))
	}
}
