package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"

	_ "github.com/mlucero/gastos/docs"
	"github.com/mlucero/gastos/internal/category"
	"github.com/mlucero/gastos/internal/config"
	"github.com/mlucero/gastos/internal/database"
	"github.com/mlucero/gastos/internal/entity"
	"github.com/mlucero/gastos/internal/expense"
	"github.com/mlucero/gastos/internal/income"
	"github.com/mlucero/gastos/internal/user"
	"github.com/mlucero/gastos/pkg/auth"
	"github.com/mlucero/gastos/pkg/logging"
	mw "github.com/mlucero/gastos/pkg/middleware"
)

// @title        Gastos API
// @version      1.0
// @description  Personal and shared finance tracker
// @BasePath     /api/v1
func main() {
	if err := godotenv.Load(); err != nil {
		slog.Info("no .env file found, using environment variables")
	}

	logging.Setup()
	cfg := config.Load()

	db, err := database.NewPostgresConnection(cfg.DatabaseURL)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := database.RunMigrations(db); err != nil {
		slog.Error("failed to run migrations", "error", err)
		os.Exit(1)
	}
	slog.Info("database ready")

	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.TokenTTL)

	// User feature
	userRepo := user.NewRepository(db)
	userService := user.NewService(userRepo, tokens)
	userHandler := user.NewHandler(userService)

	// Category feature
	categoryRepo := category.NewRepository(db)
	categoryService := category.NewService(categoryRepo)
	categoryHandler := category.NewHandler(categoryService)

	// Income feature
	incomeRepo := income.NewRepository(db)
	incomeService := income.NewService(incomeRepo, categoryService)
	incomeHandler := income.NewHandler(incomeService)

	// Entity feature (shared groups and splits)
	entityRepo := entity.NewRepository(db)
	entityService := entity.NewService(entityRepo, &userDirectory{users: userService})
	entityHandler := entity.NewHandler(entityService)

	// Expense feature (delegates shared splits to the entity service)
	expenseRepo := expense.NewRepository(db)
	expenseService := expense.NewService(expenseRepo, categoryService)
	expenseHandler := expense.NewHandler(expenseService, entityService)

	r := chi.NewRouter()

	r.Use(chimw.RequestID)
	r.Use(chimw.Recoverer)
	r.Use(mw.RequestLogger)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	})

	r.Get("/swagger/*", httpSwagger.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		// Register and login are the only unauthenticated routes
		r.Mount("/users", userHandler.Routes())

		r.Group(func(r chi.Router) {
			r.Use(mw.Auth(tokens))

			r.Get("/users/me", userHandler.Me)
			r.Mount("/categories", categoryHandler.Routes())
			r.Mount("/incomes", incomeHandler.Routes())
			r.Mount("/expenses", expenseHandler.Routes())
			r.Mount("/entities", entityHandler.Routes())
		})
	})

	slog.Info("server starting", "port", cfg.Port)
	if err := http.ListenAndServe(":"+cfg.Port, r); err != nil {
		slog.Error("server failed", "error", err)
		os.Exit(1)
	}
}

// userDirectory adapts the user service to the entity feature's lookup
// interface without the entity package importing user.
type userDirectory struct {
	users *user.Service
}

func (d *userDirectory) ByEmail(ctx context.Context, email string) (*entity.UserRef, error) {
	u, err := d.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	if u == nil {
		return nil, nil
	}
	return &entity.UserRef{ID: u.ID, Name: u.Name, Email: u.Email}, nil
}
