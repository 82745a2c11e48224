package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config is the process-wide env-derived configuration, accumulated
// with the teacher's missing-env-joined-into-one-error pattern rather
// than failing on the first missing variable.
type Config struct {
	HTTPAddr    string
	DBDSN       string
	FrontendURL string
	JWTIssuer   string
	JWTSecret   string
	JWTTTL      time.Duration

	MarketMakerUserID   string
	MatchInterval       time.Duration
	MarketMakerInterval time.Duration
	MockTicker          bool

	RateLimitRPS   float64
	RateLimitBurst int
}

func Load() (Config, error) {
	var c Config
	var missing []string

	c.HTTPAddr = os.Getenv("HTTP_ADDR")
	if c.HTTPAddr == "" {
		missing = append(missing, "HTTP_ADDR")
	}
	c.DBDSN = os.Getenv("DATABASE_URL")
	if c.DBDSN == "" {
		missing = append(missing, "DATABASE_URL")
	}
	c.FrontendURL = os.Getenv("FRONTEND_URL")
	if c.FrontendURL == "" {
		missing = append(missing, "FRONTEND_URL")
	}
	c.JWTIssuer = os.Getenv("JWT_ISSUER")
	if c.JWTIssuer == "" {
		missing = append(missing, "JWT_ISSUER")
	}
	c.JWTSecret = os.Getenv("JWT_SECRET")
	if c.JWTSecret == "" {
		missing = append(missing, "JWT_SECRET")
	}

	jwtTTL := os.Getenv("JWT_TTL")
	if jwtTTL == "" {
		c.JWTTTL = 30 * 24 * time.Hour
	} else {
		d, err := time.ParseDuration(jwtTTL)
		if err != nil {
			return c, errors.New("invalid JWT_TTL: " + err.Error())
		}
		c.JWTTTL = d
	}

	c.MarketMakerUserID = os.Getenv("MARKETMAKER_USER_ID")
	if c.MarketMakerUserID == "" {
		missing = append(missing, "MARKETMAKER_USER_ID")
	}

	matchInterval := strings.TrimSpace(os.Getenv("MATCH_INTERVAL"))
	if matchInterval == "" {
		c.MatchInterval = 10 * time.Second
	} else {
		d, err := time.ParseDuration(matchInterval)
		if err != nil {
			return c, errors.New("invalid MATCH_INTERVAL: " + err.Error())
		}
		c.MatchInterval = d
	}

	mmInterval := strings.TrimSpace(os.Getenv("MARKETMAKER_POST_INTERVAL"))
	if mmInterval == "" {
		c.MarketMakerInterval = 60 * time.Second
	} else {
		d, err := time.ParseDuration(mmInterval)
		if err != nil {
			return c, errors.New("invalid MARKETMAKER_POST_INTERVAL: " + err.Error())
		}
		c.MarketMakerInterval = d
	}

	mockTicker := os.Getenv("MOCK_TICKER")
	if mockTicker == "" {
		c.MockTicker = true
	} else {
		b, err := strconv.ParseBool(mockTicker)
		if err != nil {
			return c, errors.New("invalid MOCK_TICKER: " + err.Error())
		}
		c.MockTicker = b
	}

	rateLimitRPS := strings.TrimSpace(os.Getenv("RATE_LIMIT_RPS"))
	if rateLimitRPS == "" {
		c.RateLimitRPS = 10
	} else {
		f, err := strconv.ParseFloat(rateLimitRPS, 64)
		if err != nil {
			return c, errors.New("invalid RATE_LIMIT_RPS: " + err.Error())
		}
		c.RateLimitRPS = f
	}

	rateLimitBurst := strings.TrimSpace(os.Getenv("RATE_LIMIT_BURST"))
	if rateLimitBurst == "" {
		c.RateLimitBurst = 30
	} else {
		n, err := strconv.Atoi(rateLimitBurst)
		if err != nil {
			return c, errors.New("invalid RATE_LIMIT_BURST: " + err.Error())
		}
		c.RateLimitBurst = n
	}

	if len(missing) > 0 {
		return c, errors.New("missing required env: " + strings.Join(missing, ","))
	}
	return c, nil
}
