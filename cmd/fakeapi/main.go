// fakeapi is a stand-in for the marketplace API so the web frontend
// can be developed and demoed without the real backend. It keeps
// everything in memory and accepts any credentials.
package main

import (
	"flag"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlogger "github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/sokowatt/sokowatt-web/internal/domain"
)

var (
	port    = flag.Int("port", 9000, "Port to listen on")
	verbose = flag.Bool("verbose", false, "Enable request logging")
)

type store struct {
	mu       sync.Mutex
	listings []domain.Listing
	txs      []domain.Transaction
}

func seed() *store {
	now := time.Now()
	return &store{
		listings: []domain.Listing{
			{ID: uuid.NewString(), Title: "Rooftop solar surplus", EnergyType: domain.EnergyTypeSolar, QuantityKWh: 120, PricePerKWh: 18.50, Location: "Nakuru", Status: domain.ListingStatusActive, CreatedAt: now.Add(-48 * time.Hour)},
			{ID: uuid.NewString(), Title: "Community wind co-op", EnergyType: domain.EnergyTypeWind, QuantityKWh: 400, PricePerKWh: 14.00, Location: "Ngong Hills", Status: domain.ListingStatusActive, CreatedAt: now.Add(-24 * time.Hour)},
			{ID: uuid.NewString(), Title: "Micro-hydro offtake", EnergyType: domain.EnergyTypeHydro, QuantityKWh: 250, PricePerKWh: 12.75, Location: "Kericho", Status: domain.ListingStatusActive, CreatedAt: now.Add(-6 * time.Hour)},
			{ID: uuid.NewString(), Title: "Biogas digester output", EnergyType: domain.EnergyTypeBiomass, QuantityKWh: 80, PricePerKWh: 16.25, Location: "Eldoret", Status: domain.ListingStatusActive, CreatedAt: now.Add(-2 * time.Hour)},
		},
	}
}

func main() {
	flag.Parse()

	logger, err := zap.NewDevelopment()
	if err != nil {
		log.Fatal("Failed to create logger:", err)
	}
	defer logger.Sync()

	db := seed()

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	if *verbose {
		app.Use(fiberlogger.New())
	}

	requireToken := func(c *fiber.Ctx) (string, bool) {
		auth := c.Get("Authorization")
		if !strings.HasPrefix(auth, "Bearer ") {
			c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Missing bearer token"})
			return "", false
		}
		return strings.TrimPrefix(auth, "Bearer "), true
	}

	app.Get("/listings/", func(c *fiber.Ctx) error {
		db.mu.Lock()
		defer db.mu.Unlock()

		out := make([]domain.Listing, 0, len(db.listings))
		status := c.Query("status")
		energyType := c.Query("energy_type")
		for _, l := range db.listings {
			if status != "" && string(l.Status) != status {
				continue
			}
			if energyType != "" && string(l.EnergyType) != energyType {
				continue
			}
			out = append(out, l)
		}
		if limit := c.QueryInt("limit"); limit > 0 && limit < len(out) {
			out = out[:limit]
		}
		return c.JSON(fiber.Map{"data": out})
	})

	app.Get("/listings/:id", func(c *fiber.Ctx) error {
		db.mu.Lock()
		defer db.mu.Unlock()
		for _, l := range db.listings {
			if l.ID == c.Params("id") {
				return c.JSON(fiber.Map{"data": l})
			}
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Listing not found"})
	})

	app.Post("/listings/", func(c *fiber.Ctx) error {
		if _, ok := requireToken(c); !ok {
			return nil
		}

		listing := domain.Listing{
			ID:        uuid.NewString(),
			Status:    domain.ListingStatusActive,
			CreatedAt: time.Now(),
		}
		if strings.HasPrefix(c.Get("Content-Type"), "multipart/form-data") {
			listing.Title = c.FormValue("title")
			listing.EnergyType = domain.EnergyType(c.FormValue("energyType"))
			listing.Location = c.FormValue("location")
			listing.Status = domain.ListingStatus(c.FormValue("status"))
			fmt.Sscanf(c.FormValue("quantity"), "%f", &listing.QuantityKWh)
			fmt.Sscanf(c.FormValue("price"), "%f", &listing.PricePerKWh)
			listing.ImageURL = "/static/placeholder.png"
		} else {
			var body struct {
				Title      string  `json:"title"`
				EnergyType string  `json:"energyType"`
				Quantity   float64 `json:"quantity"`
				Price      float64 `json:"price"`
				Location   string  `json:"location"`
				Status     string  `json:"status"`
			}
			if err := c.BodyParser(&body); err != nil {
				return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid body"})
			}
			listing.Title = body.Title
			listing.EnergyType = domain.EnergyType(body.EnergyType)
			listing.QuantityKWh = body.Quantity
			listing.PricePerKWh = body.Price
			listing.Location = body.Location
			listing.Status = domain.ListingStatus(body.Status)
		}
		if listing.Title == "" {
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": "Title is required"})
		}

		db.mu.Lock()
		db.listings = append(db.listings, listing)
		db.mu.Unlock()
		return c.Status(fiber.StatusCreated).JSON(listing)
	})

	app.Put("/listings/:id", func(c *fiber.Ctx) error {
		if _, ok := requireToken(c); !ok {
			return nil
		}
		var body struct {
			Title      string  `json:"title"`
			EnergyType string  `json:"energyType"`
			Quantity   float64 `json:"quantity"`
			Price      float64 `json:"price"`
			Location   string  `json:"location"`
			Status     string  `json:"status"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid body"})
		}

		db.mu.Lock()
		defer db.mu.Unlock()
		for i := range db.listings {
			if db.listings[i].ID == c.Params("id") {
				db.listings[i].Title = body.Title
				db.listings[i].EnergyType = domain.EnergyType(body.EnergyType)
				db.listings[i].QuantityKWh = body.Quantity
				db.listings[i].PricePerKWh = body.Price
				db.listings[i].Location = body.Location
				db.listings[i].Status = domain.ListingStatus(body.Status)
				return c.JSON(db.listings[i])
			}
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Listing not found"})
	})

	app.Delete("/listings/:id", func(c *fiber.Ctx) error {
		if _, ok := requireToken(c); !ok {
			return nil
		}
		db.mu.Lock()
		defer db.mu.Unlock()
		for i := range db.listings {
			if db.listings[i].ID == c.Params("id") {
				db.listings = append(db.listings[:i], db.listings[i+1:]...)
				return c.SendStatus(fiber.StatusNoContent)
			}
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Listing not found"})
	})

	app.Post("/transactions/", func(c *fiber.Ctx) error {
		if _, ok := requireToken(c); !ok {
			return nil
		}
		var body struct {
			ListingID string  `json:"listing_id"`
			KWh       float64 `json:"kwh"`
		}
		if err := c.BodyParser(&body); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"message": "Invalid body"})
		}

		db.mu.Lock()
		defer db.mu.Unlock()
		for i := range db.listings {
			if db.listings[i].ID != body.ListingID {
				continue
			}
			if body.KWh <= 0 || body.KWh > db.listings[i].QuantityKWh {
				return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{"message": "Requested amount exceeds available quantity"})
			}
			db.listings[i].QuantityKWh -= body.KWh
			tx := domain.Transaction{
				ID:        uuid.NewString(),
				ListingID: body.ListingID,
				KWh:       body.KWh,
				TotalCost: body.KWh * db.listings[i].PricePerKWh,
				CreatedAt: time.Now(),
			}
			db.txs = append(db.txs, tx)
			return c.Status(fiber.StatusCreated).JSON(tx)
		}
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"message": "Listing not found"})
	})

	transactions := func(c *fiber.Ctx) error {
		if _, ok := requireToken(c); !ok {
			return nil
		}
		db.mu.Lock()
		defer db.mu.Unlock()
		return c.JSON(db.txs)
	}
	summary := func(c *fiber.Ctx) error {
		if _, ok := requireToken(c); !ok {
			return nil
		}
		db.mu.Lock()
		defer db.mu.Unlock()
		var s domain.PurchaseSummary
		for _, tx := range db.txs {
			s.TotalKWh += tx.KWh
			s.TotalSpent += tx.TotalCost
			s.Count++
		}
		return c.JSON(s)
	}
	app.Get("/transactions/me", transactions)
	app.Get("/transactions/me/summary", summary)
	app.Get("/transactions/sales", transactions)
	app.Get("/transactions/sales/summary", summary)

	app.Get("/dashboard/metrics", func(c *fiber.Ctx) error {
		db.mu.Lock()
		defer db.mu.Unlock()
		var traded float64
		for _, tx := range db.txs {
			traded += tx.KWh
		}
		return c.JSON(domain.DashboardMetrics{
			TotalEnergyTradedKWh: 12450 + traded,
			ActiveListings:       len(db.listings),
			RegisteredUsers:      318,
			CO2SavedTonnes:       8.7,
			UpdatedAt:            time.Now(),
		})
	})

	app.Get("/dashboard/predictions", func(c *fiber.Ctx) error {
		return c.JSON([]domain.PerformancePrediction{
			{Period: "Next 24h", EnergyType: "Solar", PredictedKWh: 950, Confidence: 82},
			{Period: "Next 24h", EnergyType: "Wind", PredictedKWh: 1400, Confidence: 74},
			{Period: "Next 7d", EnergyType: "Hydro", PredictedKWh: 8200, Confidence: 90},
		})
	})

	login := func(c *fiber.Ctx) error {
		var body struct {
			Email string `json:"email"`
			Name  string `json:"name"`
			Role  string `json:"role"`
		}
		if err := c.BodyParser(&body); err != nil || body.Email == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"message": "Invalid credentials"})
		}
		name := body.Name
		if name == "" {
			name = strings.Split(body.Email, "@")[0]
		}
		role := domain.UserRoleConsumer
		if body.Role == string(domain.UserRoleSupplier) {
			role = domain.UserRoleSupplier
		}
		return c.JSON(fiber.Map{
			"access_token": "fake-" + uuid.NewString(),
			"user": domain.User{
				ID:    uuid.NewString(),
				Email: body.Email,
				Name:  name,
				Role:  role,
			},
		})
	}
	app.Post("/auth/login", login)
	app.Post("/auth/register", login)

	logger.Info("fakeapi listening", zap.Int("port", *port))
	if err := app.Listen(fmt.Sprintf(":%d", *port)); err != nil {
		logger.Fatal("fakeapi failed", zap.Error(err))
	}
}
