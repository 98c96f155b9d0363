package main

import (
	"database/sql"
	"strings"
	"sync"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-logger/glog"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/driver/sqliteshim"

	"github.com/goliatone/go-reviews"
	"github.com/goliatone/go-reviews/internal/config"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	configErr  error

	loggerOnce sync.Once
	logger     *glog.BaseLogger
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

// rootLogger is built once from the [logging] section
func (c *commandContext) rootLogger() *glog.BaseLogger {
	c.loggerOnce.Do(func() {
		level, name := "info", "reviews"
		if c.config != nil {
			level, name = c.config.Logging.Level, c.config.Logging.Name
		}

		levelOpt := glog.WithLevel(glog.Info)
		switch level {
		case "trace":
			levelOpt = glog.WithLevel(glog.Trace)
		case "debug":
			levelOpt = glog.WithLevel(glog.Debug)
		case "warn":
			levelOpt = glog.WithLevel(glog.Warn)
		case "error":
			levelOpt = glog.WithLevel(glog.Error)
		}

		c.logger = glog.NewLogger(
			glog.WithLoggerTypePretty(),
			levelOpt,
			glog.WithName(name),
			glog.WithAddSource(false),
			glog.WithRichErrorHandler(errors.ToSlogAttributes),
		)
	})
	return c.logger
}

func (c *commandContext) getLogger(name string) reviews.Logger {
	return c.rootLogger().GetLogger(name)
}

// openDB opens the configured database and registers the bun models
func (c *commandContext) openDB() (*bun.DB, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}

	var db *bun.DB
	switch cfg.Database.Driver {
	case config.DriverPostgres:
		sqldb, err := sql.Open("pgx", cfg.Database.DSN)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "open postgres")
		}
		db = bun.NewDB(sqldb, pgdialect.New())
	default:
		sqldb, err := sql.Open(sqliteshim.ShimName, cfg.Database.DSN)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryInternal, "open sqlite")
		}
		// sqlite needs foreign keys switched on per connection for cascades
		sqldb.SetMaxOpenConns(1)
		if _, err := sqldb.Exec("PRAGMA foreign_keys = ON"); err != nil {
			sqldb.Close()
			return nil, errors.Wrap(err, errors.CategoryInternal, "enable sqlite foreign keys")
		}
		db = bun.NewDB(sqldb, sqlitedialect.New())
	}

	reviews.RegisterModels(db)
	return db, nil
}
