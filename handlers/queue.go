package handlers

import (
	"errors"

	"geo-duel-service/services"

	"github.com/gofiber/fiber/v2"
)

func SetupQueueRoutes(app *fiber.App, matchmaking *services.MatchmakingService) {
	app.Post("/queue/join", joinQueue(matchmaking))
	app.Post("/queue/leave", leaveQueue(matchmaking))
	app.Get("/queue/status/:player_id", queueStatus(matchmaking))
}

type joinQueueRequest struct {
	PlayerID         string `json:"player_id"`
	MapPreference    string `json:"map_preference,omitempty"`
	FormatPreference string `json:"format_preference,omitempty"`
}

func joinQueue(matchmaking *services.MatchmakingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req joinQueueRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}
		if req.PlayerID == "" {
			return c.Status(400).JSON(fiber.Map{"error": "player_id is required"})
		}

		if err := matchmaking.JoinQueue(req.PlayerID, req.MapPreference, req.FormatPreference); err != nil {
			if errors.Is(err, services.ErrPlayerNotFound) {
				return c.Status(404).JSON(fiber.Map{"error": "player not found"})
			}
			return c.Status(500).JSON(fiber.Map{"error": "failed to join queue"})
		}
		return c.JSON(fiber.Map{"status": "queued", "player_id": req.PlayerID})
	}
}

func leaveQueue(matchmaking *services.MatchmakingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req struct {
			PlayerID string `json:"player_id"`
		}
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}
		if err := matchmaking.LeaveQueue(req.PlayerID); err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "failed to leave queue"})
		}
		return c.JSON(fiber.Map{"status": "left", "player_id": req.PlayerID})
	}
}

func queueStatus(matchmaking *services.MatchmakingService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		playerID := c.Params("player_id")
		return c.JSON(fiber.Map{
			"player_id": playerID,
			"queued":    matchmaking.IsQueued(playerID),
		})
	}
}
