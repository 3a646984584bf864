package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
	"gopkg.in/yaml.v3"

	"StockSentinel/internal/model"
)

// Source kinds understood by collector.BuildAdapters.
const (
	SourceYahoo     = "yahoo"
	SourceRelay     = "relay"
	SourceBarAPI    = "barapi"
	SourceAlpaca    = "alpaca"
	SourceFinanceGo = "financego"
)

// Source configures one market data adapter. Order in the list is fallback order.
type Source struct {
	Name      string `yaml:"name"`
	Kind      string `yaml:"kind"`
	BaseURL   string `yaml:"base_url"`
	Prefix    string `yaml:"prefix"`  // relay only
	Encode    bool   `yaml:"encode"`  // relay only
	Wrapped   bool   `yaml:"wrapped"` // relay only
	APIKey    string `yaml:"api_key"`
	APISecret string `yaml:"api_secret"`
	Disabled  bool   `yaml:"disabled"`
}

// Context is a named symbol universe with its request defaults.
type Context struct {
	Symbols []string `yaml:"symbols"`
	Period  string   `yaml:"period"`
	TopN    int      `yaml:"top_n"`
}

// Scan configures one alert scan.
type Scan struct {
	Disabled      bool    `yaml:"disabled"`
	Cron          string  `yaml:"cron"`
	Context       string  `yaml:"context"`
	MinScore      float64 `yaml:"min_score"`
	TopN          int     `yaml:"top_n"`
	PortfolioOnly bool    `yaml:"portfolio_only"`
	MarketHours   bool    `yaml:"market_hours"`
}

// Config holds all application configuration.
type Config struct {
	Sources  []Source `yaml:"sources"`
	Analysis struct {
		Concurrency    int           `yaml:"concurrency"`
		AdapterTimeout time.Duration `yaml:"adapter_timeout"`
		SymbolTimeout  time.Duration `yaml:"symbol_timeout"`
		MinBars        int           `yaml:"min_bars"`
		AllowSynthetic *bool         `yaml:"allow_synthetic"`
		IncludeShapes  bool          `yaml:"include_shapes"`
		ConfirmBars    int           `yaml:"confirm_bars"`
		DefaultPeriod  string        `yaml:"default_period"`
		Fundamentals   *bool         `yaml:"fundamentals"`
	} `yaml:"analysis"`
	Contexts map[string]Context `yaml:"contexts"`
	Server   struct {
		Addr           string        `yaml:"addr"`
		RequestTimeout time.Duration `yaml:"request_timeout"`
		MaxBodySize    int           `yaml:"max_body_size"`
	} `yaml:"server"`
	Alerts struct {
		Market   Scan   `yaml:"market"`
		ETF      Scan   `yaml:"etf"`
		Timezone string `yaml:"timezone"`
	} `yaml:"alerts"`
	Telegram struct {
		BotToken string `yaml:"bot_token"`
		ChatID   string `yaml:"chat_id"`
	} `yaml:"telegram"`
	Pushover struct {
		AppToken string `yaml:"app_token"`
		UserKey  string `yaml:"user_key"`
	} `yaml:"pushover"`
	Portfolio struct {
		StateFile string `yaml:"state_file"`
		File      string `yaml:"file"` // optional list file, one symbol per line
	} `yaml:"portfolio"`
	Database struct {
		SQLitePath string `yaml:"sqlite_path"`
	} `yaml:"database"`
	Log struct {
		Level       string `yaml:"level"`
		Development bool   `yaml:"development"`
	} `yaml:"log"`
	Proxy string `yaml:"proxy"`
}

// envOverrides maps SENTINEL_* (or the bare names) onto the config.
type envOverrides struct {
	TelegramBotToken string  `envconfig:"TELEGRAM_BOT_TOKEN"`
	TelegramChatID   string  `envconfig:"TELEGRAM_CHAT_ID"`
	PushoverToken    string  `envconfig:"PUSHOVER_APP_TOKEN"`
	PushoverUser     string  `envconfig:"PUSHOVER_USER_KEY"`
	AlpacaKey        string  `envconfig:"ALPACA_API_KEY"`
	AlpacaSecret     string  `envconfig:"ALPACA_API_SECRET"`
	BarAPIURL        string  `envconfig:"BARAPI_BASE_URL"`
	BarAPIKey        string  `envconfig:"BARAPI_API_KEY"`
	Proxy            string  `envconfig:"HTTPS_PROXY"`
	SQLitePath       string  `envconfig:"SQLITE_PATH"`
	ServerAddr       string  `envconfig:"SERVER_ADDR"`
	Concurrency      int     `envconfig:"CONCURRENCY"`
	AllowSynthetic   *bool   `envconfig:"ALLOW_SYNTHETIC"`
	Fundamentals     *bool   `envconfig:"FUNDAMENTALS"`
	MarketCron       string  `envconfig:"CRON_MARKET"`
	ETFCron          string  `envconfig:"CRON_ETF"`
	MinScore         float64 `envconfig:"ALERT_MIN_SCORE"`
	LogLevel         string  `envconfig:"LOG_LEVEL"`
	PortfolioFile    string  `envconfig:"PORTFOLIO_FILE"`
}

// EnvPrefix namespaces environment overrides.
const EnvPrefix = "SENTINEL"

// Load reads config from a YAML file, loads .env if present, then applies
// environment variable overrides and defaults.
func Load(path string) (*Config, error) {
	cfg := &Config{}

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if len(data) > 0 {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	// .env is optional; real environment variables take precedence.
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	if len(cfg.Sources) == 0 {
		cfg.Sources = DefaultSources()
	}

	var env envOverrides
	if err := envconfig.Process(EnvPrefix, &env); err != nil {
		return nil, fmt.Errorf("env overrides: %w", err)
	}
	cfg.applyEnv(&env)
	cfg.applyDefaults()
	return cfg, nil
}

// Default returns a configuration with every default applied and no file
// or environment input.
func Default() *Config {
	cfg := &Config{}
	cfg.applyDefaults()
	return cfg
}

func (c *Config) applyEnv(env *envOverrides) {
	if env.TelegramBotToken != "" {
		c.Telegram.BotToken = env.TelegramBotToken
	}
	if env.TelegramChatID != "" {
		c.Telegram.ChatID = env.TelegramChatID
	}
	if env.PushoverToken != "" {
		c.Pushover.AppToken = env.PushoverToken
	}
	if env.PushoverUser != "" {
		c.Pushover.UserKey = env.PushoverUser
	}
	if env.Proxy != "" {
		c.Proxy = env.Proxy
	}
	if env.SQLitePath != "" {
		c.Database.SQLitePath = env.SQLitePath
	}
	if env.ServerAddr != "" {
		c.Server.Addr = env.ServerAddr
	}
	if env.Concurrency > 0 {
		c.Analysis.Concurrency = env.Concurrency
	}
	if env.AllowSynthetic != nil {
		c.Analysis.AllowSynthetic = env.AllowSynthetic
	}
	if env.Fundamentals != nil {
		c.Analysis.Fundamentals = env.Fundamentals
	}
	if env.MarketCron != "" {
		c.Alerts.Market.Cron = env.MarketCron
	}
	if env.ETFCron != "" {
		c.Alerts.ETF.Cron = env.ETFCron
	}
	if env.MinScore != 0 {
		c.Alerts.Market.MinScore = env.MinScore
		c.Alerts.ETF.MinScore = env.MinScore
	}
	if env.LogLevel != "" {
		c.Log.Level = env.LogLevel
	}
	if env.PortfolioFile != "" {
		c.Portfolio.File = env.PortfolioFile
	}

	// Credentials enable or fill the matching sources.
	if env.AlpacaKey != "" && env.AlpacaSecret != "" {
		c.upsertSource(Source{Name: SourceAlpaca, Kind: SourceAlpaca, APIKey: env.AlpacaKey, APISecret: env.AlpacaSecret})
	}
	if env.BarAPIURL != "" {
		c.upsertSource(Source{Name: SourceBarAPI, Kind: SourceBarAPI, BaseURL: env.BarAPIURL, APIKey: env.BarAPIKey})
	}
}

// upsertSource overwrites credentials of an existing source of the same kind
// or appends a new one.
func (c *Config) upsertSource(s Source) {
	for i := range c.Sources {
		if c.Sources[i].Kind == s.Kind {
			if s.BaseURL != "" {
				c.Sources[i].BaseURL = s.BaseURL
			}
			if s.APIKey != "" {
				c.Sources[i].APIKey = s.APIKey
			}
			if s.APISecret != "" {
				c.Sources[i].APISecret = s.APISecret
			}
			return
		}
	}
	c.Sources = append(c.Sources, s)
}

func (c *Config) applyDefaults() {
	if len(c.Sources) == 0 {
		c.Sources = DefaultSources()
	}
	for i := range c.Sources {
		if c.Sources[i].Name == "" {
			c.Sources[i].Name = c.Sources[i].Kind
		}
	}
	if c.Analysis.Concurrency <= 0 {
		c.Analysis.Concurrency = 5
	}
	if c.Analysis.AdapterTimeout <= 0 {
		c.Analysis.AdapterTimeout = 5 * time.Second
	}
	if c.Analysis.SymbolTimeout <= 0 {
		c.Analysis.SymbolTimeout = 45 * time.Second
	}
	if c.Analysis.MinBars <= 0 {
		c.Analysis.MinBars = 20
	}
	if c.Analysis.AllowSynthetic == nil {
		allow := true
		c.Analysis.AllowSynthetic = &allow
	}
	if c.Analysis.ConfirmBars <= 0 {
		c.Analysis.ConfirmBars = 3
	}
	if c.Analysis.DefaultPeriod == "" {
		c.Analysis.DefaultPeriod = string(model.Period1Y)
	}

	if c.Contexts == nil {
		c.Contexts = map[string]Context{}
	}
	for name, def := range DefaultContexts() {
		ctx, ok := c.Contexts[name]
		if !ok {
			c.Contexts[name] = def
			continue
		}
		if ctx.Period == "" {
			ctx.Period = def.Period
		}
		if ctx.TopN <= 0 {
			ctx.TopN = def.TopN
		}
		c.Contexts[name] = ctx
	}

	if c.Server.Addr == "" {
		c.Server.Addr = ":8080"
	}
	if c.Server.RequestTimeout <= 0 {
		c.Server.RequestTimeout = 2 * time.Minute
	}
	if c.Server.MaxBodySize <= 0 {
		c.Server.MaxBodySize = 1 << 20
	}

	if c.Alerts.Timezone == "" {
		c.Alerts.Timezone = "America/New_York"
	}
	defaultScan(&c.Alerts.Market, "market", "0 5 9-16 * * 1-5", true)
	defaultScan(&c.Alerts.ETF, "etf", "0 30 16 * * 1-5", false)

	if c.Portfolio.StateFile == "" {
		c.Portfolio.StateFile = "data/portfolio.json"
	}
	if c.Database.SQLitePath == "" {
		c.Database.SQLitePath = "data/stock_sentinel.db"
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
}

func defaultScan(s *Scan, context, cron string, marketHours bool) {
	if s.Context == "" {
		s.Context = context
	}
	if s.Cron == "" {
		s.Cron = cron
		s.MarketHours = marketHours
	}
	if s.MinScore == 0 {
		s.MinScore = 20
	}
	if s.TopN <= 0 {
		s.TopN = 10
	}
}

// DefaultSources is the adapter chain used when none is configured.
func DefaultSources() []Source {
	return []Source{
		{Name: "yahoo", Kind: SourceYahoo},
		{Name: "allorigins", Kind: SourceRelay, Prefix: "https://api.allorigins.win/get?url=", Encode: true, Wrapped: true},
		{Name: "corsproxy", Kind: SourceRelay, Prefix: "https://corsproxy.io/?"},
		{Name: "finance-go", Kind: SourceFinanceGo},
	}
}

// DefaultContexts are the built-in symbol universes.
func DefaultContexts() map[string]Context {
	return map[string]Context{
		"portfolio": {Period: "1y", TopN: 10},
		"watchlist": {Period: "6mo", TopN: 10},
		"market": {
			Symbols: []string{
				"AAPL", "MSFT", "NVDA", "AMZN", "GOOGL", "META", "TSLA", "AVGO", "JPM", "V",
				"UNH", "XOM", "MA", "COST", "HD", "PG", "JNJ", "NFLX", "AMD", "CRM",
			},
			Period: "1y",
			TopN:   10,
		},
		"etf": {
			Symbols: []string{"SPY", "QQQ", "IWM", "DIA", "VTI", "XLK", "XLF", "XLE", "XLV", "SMH"},
			Period:  "1y",
			TopN:    10,
		},
	}
}

// ContextRequest builds an AnalyzeRequest for a named context, applying the
// overrides when they are set.
func (c *Config) ContextRequest(name, period string, topN int) (model.AnalyzeRequest, error) {
	ctx, ok := c.Contexts[strings.ToLower(name)]
	if !ok {
		return model.AnalyzeRequest{}, fmt.Errorf("unknown context %q", name)
	}
	if period == "" {
		period = ctx.Period
	}
	p, err := model.ParsePeriod(period)
	if err != nil {
		return model.AnalyzeRequest{}, err
	}
	if topN <= 0 {
		topN = ctx.TopN
	}
	return model.AnalyzeRequest{Symbols: append([]string(nil), ctx.Symbols...), Period: p, TopN: topN}, nil
}

// SyntheticAllowed reports whether the synthetic fallback is enabled.
func (c *Config) SyntheticAllowed() bool {
	return c.Analysis.AllowSynthetic == nil || *c.Analysis.AllowSynthetic
}

// FundamentalsEnabled reports whether valuation figures are looked up.
func (c *Config) FundamentalsEnabled() bool {
	return c.Analysis.Fundamentals == nil || *c.Analysis.Fundamentals
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if len(c.Sources) == 0 {
		return fmt.Errorf("at least one source is required")
	}
	for _, s := range c.Sources {
		switch s.Kind {
		case SourceYahoo, SourceFinanceGo:
		case SourceRelay:
			if s.Prefix == "" {
				return fmt.Errorf("source %s: relay prefix is required", s.Name)
			}
		case SourceBarAPI:
			if s.BaseURL == "" {
				return fmt.Errorf("source %s: base_url is required", s.Name)
			}
		case SourceAlpaca:
			if s.APIKey == "" || s.APISecret == "" {
				return fmt.Errorf("source %s: api_key and api_secret are required", s.Name)
			}
		default:
			return fmt.Errorf("source %s: unknown kind %q", s.Name, s.Kind)
		}
	}
	if _, err := model.ParsePeriod(c.Analysis.DefaultPeriod); err != nil {
		return fmt.Errorf("analysis.default_period: %w", err)
	}
	for name, ctx := range c.Contexts {
		if _, err := model.ParsePeriod(ctx.Period); err != nil {
			return fmt.Errorf("contexts.%s.period: %w", name, err)
		}
	}
	for _, s := range []Scan{c.Alerts.Market, c.Alerts.ETF} {
		if s.Disabled {
			continue
		}
		if _, ok := c.Contexts[s.Context]; !ok {
			return fmt.Errorf("alerts: unknown context %q", s.Context)
		}
	}
	if _, err := time.LoadLocation(c.Alerts.Timezone); err != nil {
		return fmt.Errorf("alerts.timezone: %w", err)
	}
	return nil
}

// ValidateAlerts checks the settings required to run the alert daemon.
func (c *Config) ValidateAlerts() error {
	if c.Alerts.Market.Disabled && c.Alerts.ETF.Disabled {
		return fmt.Errorf("no alert scan is enabled")
	}
	hasTelegram := c.Telegram.BotToken != "" && c.Telegram.ChatID != ""
	hasPushover := c.Pushover.AppToken != "" && c.Pushover.UserKey != ""
	if !hasTelegram && !hasPushover {
		return fmt.Errorf("telegram or pushover credentials are required for alerts")
	}
	return nil
}
