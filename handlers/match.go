package handlers

import (
	"errors"

	"geo-duel-service/services"
	"geo-duel-service/store"

	"github.com/gofiber/fiber/v2"
)

func SetupMatchRoutes(app *fiber.App, match *services.MatchService, st store.Store, hub *services.StreamHub) {
	app.Post("/matches/:match_id/rounds/:round_id/guess", submitGuess(match))
	app.Get("/matches/:id", getMatch(st))
	app.Get("/players/:id", getPlayer(st))
	app.Get("/players/:id/elo-history", getEloHistory(st))
	app.Get("/events/:player_id", hub.StreamEvents)
}

type guessRequest struct {
	PlayerID string  `json:"player_id"`
	Lat      float64 `json:"lat"`
	Lng      float64 `json:"lng"`
	LockIn   bool    `json:"lock_in"`
}

func submitGuess(match *services.MatchService) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req guessRequest
		if err := c.BodyParser(&req); err != nil {
			return c.Status(400).JSON(fiber.Map{"error": "invalid JSON", "details": err.Error()})
		}

		err := match.SubmitGuess(c.Params("match_id"), c.Params("round_id"), req.PlayerID, req.Lat, req.Lng, req.LockIn)
		switch {
		case err == nil:
			return c.JSON(fiber.Map{"status": "accepted"})
		case errors.Is(err, services.ErrAlreadyFinished), errors.Is(err, services.ErrMatchNotStarted):
			// Guesses racing the match lifecycle on either side — before
			// the delayed start or after completion — are not errors.
			return c.JSON(fiber.Map{"status": "ignored"})
		case errors.Is(err, services.ErrUnauthorized):
			return c.Status(403).JSON(fiber.Map{"error": "guess rejected"})
		case errors.Is(err, services.ErrMatchNotFound), errors.Is(err, services.ErrRoundNotFound):
			return c.Status(404).JSON(fiber.Map{"error": "match or round not found"})
		default:
			return c.Status(500).JSON(fiber.Map{"error": "failed to submit guess"})
		}
	}
}

func getMatch(st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		m, err := st.GetMatch(c.Params("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.Status(404).JSON(fiber.Map{"error": "match not found"})
			}
			return c.Status(500).JSON(fiber.Map{"error": "database error"})
		}
		rounds, err := st.ListRounds(m.ID)
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "database error"})
		}
		m.Rounds = rounds
		return c.JSON(m)
	}
}

func getPlayer(st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		p, err := st.GetPlayer(c.Params("id"))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return c.Status(404).JSON(fiber.Map{"error": "player not found"})
			}
			return c.Status(500).JSON(fiber.Map{"error": "database error"})
		}
		return c.JSON(p)
	}
}

func getEloHistory(st store.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		records, err := st.ListEloHistory(c.Params("id"))
		if err != nil {
			return c.Status(500).JSON(fiber.Map{"error": "database error"})
		}
		return c.JSON(fiber.Map{
			"player_id": c.Params("id"),
			"history":   records,
			"count":     len(records),
		})
	}
}
