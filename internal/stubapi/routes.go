// Package stubapi serves an OpenWeatherMap compatible fake of the /weather and
// /forecast endpoints. It produces deterministic synthetic data so the client
// can be exercised end to end without an API key or network access.
package stubapi

import (
	"hash/fnv"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
)

var validate = validator.New()

// Options configures the stub behaviour.
type Options struct {
	// APIKey is the only accepted appid. Empty accepts any non-empty key.
	APIKey string
	// Cities maps known city names (case-insensitive) to country codes.
	// An empty map treats every city as known.
	Cities map[string]string
	// RequestsPerMinute is the request budget before answering 429. 0 disables it.
	RequestsPerMinute int
	// Now overrides the clock used for timestamps and the rate window.
	Now func() time.Time
}

// Server holds stub state shared by the handlers.
type Server struct {
	opts   Options
	cities map[string]cityInfo

	mu          sync.Mutex
	windowStart time.Time
	used        int
	hits        map[string]int
}

type cityInfo struct {
	name    string
	country string
}

// New creates a stub server.
func New(opts Options) *Server {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	cities := make(map[string]cityInfo, len(opts.Cities))
	for name, country := range opts.Cities {
		cities[strings.ToLower(name)] = cityInfo{name: name, country: country}
	}
	return &Server{
		opts:   opts,
		cities: cities,
		hits:   make(map[string]int),
	}
}

// App returns a fiber application with the stub routes registered after
// the given middleware.
func (s *Server) App(middleware ...fiber.Handler) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "openweather-stub",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			if e, ok := err.(*fiber.Error); ok {
				code = e.Code
			}
			return c.Status(code).JSON(fiber.Map{
				"cod":     code,
				"message": err.Error(),
			})
		},
	})
	for _, h := range middleware {
		app.Use(h)
	}
	RegisterRoutes(app, s)
	return app
}

// Hits returns how many requests reached path ("/weather" or "/forecast").
func (s *Server) Hits(path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.hits[path]
}

// RegisterRoutes wires the stub handlers into the Fiber app.
func RegisterRoutes(app *fiber.App, s *Server) {
	v25 := app.Group("/data/2.5")

	v25.Get("/weather", func(c *fiber.Ctx) error {
		q, city, err := s.admit(c, "/weather")
		if err != nil {
			return err
		}
		return c.JSON(s.currentPayload(city, q.units()))
	})

	v25.Get("/forecast", func(c *fiber.Ctx) error {
		q, city, err := s.admit(c, "/forecast")
		if err != nil {
			return err
		}
		return c.JSON(s.forecastPayload(city, q.units()))
	})
}

// cityQuery holds the query parameters shared by both endpoints.
type cityQuery struct {
	Q     string `validate:"required"`
	AppID string `validate:"required"`
	Units string `validate:"omitempty,oneof=metric imperial standard"`
}

func (q cityQuery) units() string {
	if q.Units == "" {
		return "standard"
	}
	return q.Units
}

// admit counts the request and applies key, rate and city checks in the
// order the real service does.
func (s *Server) admit(c *fiber.Ctx, path string) (cityQuery, cityInfo, error) {
	s.mu.Lock()
	s.hits[path]++
	s.mu.Unlock()

	q := cityQuery{
		Q:     strings.TrimSpace(c.Query("q")),
		AppID: c.Query("appid"),
		Units: c.Query("units"),
	}

	if q.AppID == "" || (s.opts.APIKey != "" && q.AppID != s.opts.APIKey) {
		return q, cityInfo{}, fiber.NewError(fiber.StatusUnauthorized,
			"Invalid API key. Please see https://openweathermap.org/faq#error401 for more info.")
	}
	if err := validate.Struct(q); err != nil {
		return q, cityInfo{}, fiber.NewError(fiber.StatusBadRequest, "Nothing to geocode")
	}
	if !s.allow() {
		return q, cityInfo{}, fiber.NewError(fiber.StatusTooManyRequests,
			"Your account is temporary blocked due to exceeding of requests limitation of your subscription type.")
	}

	city, ok := s.lookup(q.Q)
	if !ok {
		return q, cityInfo{}, fiber.NewError(fiber.StatusNotFound, "city not found")
	}
	return q, city, nil
}

func (s *Server) allow() bool {
	if s.opts.RequestsPerMinute <= 0 {
		return true
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.opts.Now()
	if now.Sub(s.windowStart) >= time.Minute {
		s.windowStart = now
		s.used = 0
	}
	if s.used >= s.opts.RequestsPerMinute {
		return false
	}
	s.used++
	return true
}

func (s *Server) lookup(name string) (cityInfo, bool) {
	if len(s.cities) == 0 {
		return cityInfo{name: name, country: "ZZ"}, true
	}
	city, ok := s.cities[strings.ToLower(name)]
	return city, ok
}

var skies = []fiber.Map{
	{"id": 800, "main": "Clear", "description": "clear sky", "icon": "01d"},
	{"id": 802, "main": "Clouds", "description": "scattered clouds", "icon": "03d"},
	{"id": 500, "main": "Rain", "description": "light rain", "icon": "10d"},
	{"id": 300, "main": "Drizzle", "description": "light intensity drizzle", "icon": "09d"},
	{"id": 211, "main": "Thunderstorm", "description": "thunderstorm", "icon": "11d"},
	{"id": 600, "main": "Snow", "description": "light snow", "icon": "13d"},
	{"id": 701, "main": "Mist", "description": "mist", "icon": "50d"},
}

// skyFor picks a sky for seed n. Indexing stays unsigned so large seeds
// cannot wrap negative where int is 32 bits.
func skyFor(n uint32) fiber.Map {
	return skies[n%uint32(len(skies))]
}

// seed derives stable per-city numbers from the city name.
func seed(name string) uint32 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(strings.ToLower(name)))
	return h.Sum32()
}

// temperature converts a Celsius value into the requested unit system.
func temperature(celsius float64, units string) float64 {
	var v float64
	switch units {
	case "metric":
		v = celsius
	case "imperial":
		v = celsius*9/5 + 32
	default:
		v = celsius + 273.15
	}
	return math.Round(v*100) / 100
}

func speed(ms float64, units string) float64 {
	if units == "imperial" {
		return math.Round(ms*2.237*100) / 100
	}
	return ms
}

func (s *Server) currentPayload(city cityInfo, units string) fiber.Map {
	n := seed(city.name)
	now := s.opts.Now().UTC()
	base := float64(n%30) - 5
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)

	return fiber.Map{
		"weather": []fiber.Map{skyFor(n)},
		"main": fiber.Map{
			"temp":     temperature(base, units),
			"temp_min": temperature(base-3, units),
			"temp_max": temperature(base+4, units),
			"humidity": 40 + n%50,
			"pressure": 995 + n%30,
		},
		"visibility": 10000 - int(n%5)*1000,
		"wind":       fiber.Map{"speed": speed(float64(n%12)+0.5, units)},
		"dt":         now.Unix(),
		"sys": fiber.Map{
			"country": city.country,
			"sunrise": midnight.Add(6 * time.Hour).Unix(),
			"sunset":  midnight.Add(18 * time.Hour).Unix(),
		},
		"name": city.name,
		"cod":  200,
	}
}

func (s *Server) forecastPayload(city cityInfo, units string) fiber.Map {
	n := seed(city.name)
	base := float64(n%30) - 5
	start := s.opts.Now().UTC().Truncate(3 * time.Hour).Add(3 * time.Hour)

	const samples = 40
	list := make([]fiber.Map, 0, samples)
	for i := 0; i < samples; i++ {
		ts := start.Add(time.Duration(i) * 3 * time.Hour)
		swing := 4 * math.Sin(float64(ts.Hour()-9)*math.Pi/12)
		list = append(list, fiber.Map{
			"dt": ts.Unix(),
			"main": fiber.Map{
				"temp":     temperature(base+swing, units),
				"temp_min": temperature(base+swing-1, units),
				"temp_max": temperature(base+swing+1, units),
				"humidity": 40 + (n+uint32(i))%50,
			},
			"weather": []fiber.Map{skyFor(n + uint32(i/8))},
			"dt_txt":  ts.Format("2006-01-02 15:04:05"),
		})
	}

	return fiber.Map{
		"cod":  "200",
		"cnt":  samples,
		"list": list,
		"city": fiber.Map{"name": city.name, "country": city.country},
	}
}
