package httpapi

import (
	"errors"
	"strconv"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/metar-weather-bot/internal/store"
	"github.com/i474232898/metar-weather-bot/internal/weather"
)

var validate = validator.New()

// Service is the read side of the bot the API exposes.
type Service interface {
	Observation() (weather.Observation, error)
	AirQuality() *weather.AirQualityReading
	Image() ([]byte, error)
	Compose(aqiThreshold int) (string, error)
}

// NewApp returns a Fiber app with the JSON error handler, the given
// middleware and /health.
func NewApp(appName string, middleware ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               appName,
		DisableStartupMessage: true,
		ReadTimeout:           10 * time.Second,
		WriteTimeout:          10 * time.Second,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var e *fiber.Error
			if errors.As(err, &e) {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"error":   true,
				"message": err.Error(),
			})
		},
	})

	for _, m := range middleware {
		app.Use(m)
	}

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "ok",
			"service": appName,
		})
	})
	return app
}

// RegisterRoutes wires the HTTP handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, service Service) {
	v1 := app.Group("/api/v1")

	v1.Get("/observation", func(c *fiber.Ctx) error {
		obs, err := service.Observation()
		if err != nil {
			return storeError(err, "no observation has been fetched yet")
		}
		return c.JSON(obs)
	})

	v1.Get("/air-quality", func(c *fiber.Ctx) error {
		reading := service.AirQuality()
		if reading == nil {
			return fiber.NewError(fiber.StatusNotFound, "no PM2.5 reading available")
		}
		return c.JSON(reading)
	})

	v1.Get("/message", func(c *fiber.Ctx) error {
		var q messageQuery
		if err := q.bind(c); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}
		if err := validate.Struct(q); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, err.Error())
		}

		threshold := 0
		if q.AQIThreshold != nil {
			threshold = *q.AQIThreshold
		}
		text, err := service.Compose(threshold)
		if err != nil {
			return storeError(err, "no observation has been fetched yet")
		}
		return c.JSON(fiber.Map{
			"message": text,
			"length":  utf8.RuneCountInString(text),
		})
	})

	v1.Get("/image", func(c *fiber.Ctx) error {
		b, err := service.Image()
		if err != nil {
			return storeError(err, "no image has been fetched yet")
		}
		c.Set(fiber.HeaderContentType, "image/jpeg")
		return c.Send(b)
	})
}

func storeError(err error, notFound string) error {
	if errors.Is(err, store.ErrNotFound) {
		return fiber.NewError(fiber.StatusNotFound, notFound)
	}
	return fiber.NewError(fiber.StatusInternalServerError, "failed to read snapshot")
}

// messageQuery holds query parameters for the message preview endpoint.
type messageQuery struct {
	AQIThreshold *int `validate:"omitempty,gt=0"`
}

func (q *messageQuery) bind(c *fiber.Ctx) error {
	raw := c.Query("aqi_threshold")
	if raw == "" {
		return nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return errors.New("aqi_threshold must be an integer")
	}
	q.AQIThreshold = &n
	return nil
}
