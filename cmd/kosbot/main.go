package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/urfave/cli/v2"

	"github.com/EgorLis/kosbot/internal/admission"
	"github.com/EgorLis/kosbot/internal/bot"
	"github.com/EgorLis/kosbot/internal/config"
	"github.com/EgorLis/kosbot/internal/discord"
	"github.com/EgorLis/kosbot/internal/events"
	"github.com/EgorLis/kosbot/internal/httpapi"
	"github.com/EgorLis/kosbot/internal/listing"
	"github.com/EgorLis/kosbot/internal/logger"
	"github.com/EgorLis/kosbot/internal/roster"
)

func main() {
	app := &cli.App{
		Name:  "kosbot",
		Usage: "Discord bot keeping the kill-on-sight list",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:    "config",
				Aliases: []string{"c"},
				Value:   "config.yaml",
				Usage:   "path to the YAML config (optional, env overrides it)",
				EnvVars: []string{config.EnvPrefix + "CONFIG"},
			},
		},
		Action: run,
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "connect to Discord and serve interactions",
				Action: run,
			},
			{
				Name:   "register",
				Usage:  "overwrite the application's slash commands",
				Action: register,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func loadConfig(c *cli.Context) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.New(cfg.LogLevel, os.Stdout), nil
}

func run(c *cli.Context) error {
	cfg, lg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	p, err := roster.OpenPersister(cfg.Snapshot.Driver, cfg.Snapshot.Path)
	if err != nil {
		return err
	}
	store, err := roster.Open(ctx, p,
		roster.WithCreateIfMissing(cfg.Snapshot.CreateIfMissing),
		roster.WithLogger(logger.Component(lg, "roster")),
	)
	if err != nil {
		_ = p.Close()
		return fmt.Errorf("load roster: %w", err)
	}
	defer func() {
		if err := store.Close(context.Background()); err != nil {
			lg.Error("close roster", "error", err)
		}
	}()

	session, err := discord.NewSession(cfg.Discord)
	if err != nil {
		return err
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics, err := admission.NewMetrics(reg)
	if err != nil {
		return err
	}

	pub := listing.NewPublisher(store, discord.NewMessenger(session, logger.Component(lg, "discord")), logger.Component(lg, "listing"))

	opts := []admission.Option{
		admission.WithLogger(logger.Component(lg, "admission")),
		admission.WithMetrics(metrics),
	}
	if cfg.NATS.URL != "" {
		n, err := events.Connect(cfg.NATS.URL, cfg.NATS.Subject, logger.Component(lg, "events"))
		if err != nil {
			return err
		}
		defer func() {
			if err := n.Close(); err != nil {
				lg.Warn("drain nats", "error", err)
			}
		}()
		opts = append(opts, admission.WithNotifier(n))
	}
	adm := admission.New(store, pub, opts...)

	b := bot.New(bot.Deps{
		Session:  session,
		Store:    store,
		Admitter: adm,
		Listing:  pub,
		OwnerID:  cfg.Discord.OwnerID,
		Limiter:  bot.NewUserRateLimiter(bot.PerMinute(cfg.Submissions.PerMinute), cfg.Submissions.Burst),
		Log:      logger.Component(lg, "bot"),
	})
	if err := b.Start(ctx); err != nil {
		return err
	}
	defer b.Stop()

	if cfg.HTTP.Addr != "" {
		go func() {
			if err := httpapi.Serve(ctx, cfg.HTTP.Addr, httpapi.SetupRoutes(reg), logger.Component(lg, "http")); err != nil {
				lg.Error("ops http stopped", "error", err)
			}
		}()
	}

	lg.Info("running, press Ctrl+C to stop",
		"players", len(store.Players()), "clans", len(store.Clans()), "list_channel", store.ListChannel())
	<-ctx.Done()
	lg.Info("shutting down")
	return nil
}

func register(c *cli.Context) error {
	cfg, lg, err := loadConfig(c)
	if err != nil {
		return err
	}
	if err := cfg.ValidateRegister(); err != nil {
		return err
	}

	session, err := discord.NewSession(cfg.Discord)
	if err != nil {
		return err
	}
	names, err := discord.RegisterCommands(session, cfg.Discord.ApplicationID, cfg.Discord.GuildID, bot.Commands())
	if err != nil {
		return err
	}
	if len(names) == 0 {
		return errors.New("register commands: discord returned no commands")
	}
	lg.Info("commands registered", "commands", names, "guild_id", cfg.Discord.GuildID)
	return nil
}
