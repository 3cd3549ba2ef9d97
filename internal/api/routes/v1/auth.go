package v1

import (
	"sparkle-backend/internal/config"
	"sparkle-backend/internal/handlers"
	"sparkle-backend/internal/repo"

	"github.com/gofiber/fiber/v2"
)

func registerAuth(r fiber.Router, deps Deps) {
	userRepo := repo.NewUserRepository(config.DB)
	authHandler := handlers.NewAuthHandler(userRepo, deps.OTP, deps.Cfg.JWTSecret)

	r.Post("/auth/register", authHandler.Register)
	r.Post("/auth/login", authHandler.Login)
	r.Post("/auth/otp", authHandler.VerifyOTP)
}
