package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/farraranalytics/MBB-Survivor-sub001/app"
	"github.com/farraranalytics/MBB-Survivor-sub001/app/clock"
	bracketservice "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/application"
	bracketfixtures "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/bracket/fixtures"
	engineservice "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/engine/application"
	engineadmin "github.com/farraranalytics/MBB-Survivor-sub001/app/modules/engine/infrastructure/admin"
	"github.com/farraranalytics/MBB-Survivor-sub001/config"
	"github.com/google/uuid"
	"github.com/urfave/cli/v2"
	"gopkg.in/yaml.v3"
)

func main() {
	cliApp := &cli.App{
		Name:  "survivor",
		Usage: "survivor pool engine",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "config", Value: "config.yaml", Usage: "path to the configuration file", EnvVars: []string{"SURVIVOR_CONFIG"}},
		},
		Commands: []*cli.Command{
			{
				Name:   "serve",
				Usage:  "run the queue workers, the event router and the admin API",
				Action: withApp(func(c *cli.Context, a *app.App) error { return a.Serve(c.Context) }),
			},
			{
				Name:  "finalize",
				Usage: "record a final result and run the pipeline",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "game", Required: true},
					&cli.StringFlag{Name: "winner", Required: true},
					&cli.IntFlag{Name: "team1-score"},
					&cli.IntFlag{Name: "team2-score"},
				},
				Action: withApp(finalize),
			},
			{
				Name:  "clock",
				Usage: "control the simulated clock",
				Subcommands: []*cli.Command{
					{
						Name:      "set",
						Usage:     "set the simulated instant (RFC3339 or natural language)",
						ArgsUsage: "<instant>",
						Action:    withApp(setClock),
					},
					{
						Name:  "clear",
						Usage: "return to real time",
						Action: withApp(func(c *cli.Context, a *app.App) error {
							if err := a.Engine.SetSimulatedClock(c.Context, nil); err != nil {
								return err
							}
							fmt.Println("clock: real time")
							return nil
						}),
					},
				},
			},
			{
				Name:      "rewind",
				Usage:     "undo results from a round on",
				ArgsUsage: "<round-id|round-code|all>",
				Action: withApp(func(c *cli.Context, a *app.App) error {
					if c.NArg() != 1 {
						return cli.Exit("rewind takes one scope", 2)
					}
					summary, err := a.Engine.RewindRound(c.Context, c.Args().First())
					if err != nil {
						return err
					}
					return printJSON(summary)
				}),
			},
			{
				Name:  "start",
				Usage: "activate every open pool",
				Action: withApp(func(c *cli.Context, a *app.App) error {
					n, err := a.Engine.StartTournament(c.Context)
					if err != nil {
						return err
					}
					fmt.Printf("activated %d pools\n", n)
					return nil
				}),
			},
			{
				Name:  "reconcile",
				Usage: "re-run the idempotent steps for the latest complete round",
				Action: withApp(func(c *cli.Context, a *app.App) error {
					res, err := a.Engine.Reconcile(c.Context)
					if err != nil {
						return err
					}
					return printJSON(res)
				}),
			},
			{
				Name:  "status",
				Usage: "print tournament and round status",
				Action: withApp(func(c *cli.Context, a *app.App) error {
					report, err := a.Engine.Status(c.Context)
					if err != nil {
						return err
					}
					return printJSON(report)
				}),
			},
			{
				Name:  "export",
				Usage: "write pool standings to a spreadsheet",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Value: "standings.xlsx"},
				},
				Action: withApp(func(c *cli.Context, a *app.App) error {
					f, err := os.Create(c.String("out"))
					if err != nil {
						return err
					}
					defer f.Close()
					if err := a.Engine.ExportStandings(c.Context, f); err != nil {
						return err
					}
					fmt.Printf("wrote %s\n", c.String("out"))
					return nil
				}),
			},
			{
				Name:      "load-bracket",
				Usage:     "load a bracket document",
				ArgsUsage: "<file.yaml>",
				Action: withApp(func(c *cli.Context, a *app.App) error {
					f, err := os.Open(c.Args().First())
					if err != nil {
						return err
					}
					defer f.Close()
					doc, err := bracketservice.DecodeBracketDocument(f)
					if err != nil {
						return err
					}
					summary, err := a.Engine.LoadBracket(c.Context, doc)
					if err != nil {
						return err
					}
					return printJSON(summary)
				}),
			},
			{
				Name:  "generate-bracket",
				Usage: "write a generated 64-team bracket document",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "out", Value: "bracket.yaml"},
					&cli.Int64Flag{Name: "seed"},
					&cli.StringFlag{Name: "start", Usage: "first round date, YYYY-MM-DD"},
				},
				Action: generateBracket,
			},
			{
				Name:  "token",
				Usage: "mint an admin API token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "subject", Value: "operator"},
					&cli.DurationFlag{Name: "ttl", Value: 12 * time.Hour},
				},
				Action: func(c *cli.Context) error {
					cfg, err := config.LoadConfig(c.String("config"))
					if err != nil {
						return err
					}
					token, err := engineadmin.NewHS256(cfg.Admin.JWTSecret).Issue(c.String("subject"), engineadmin.RoleAdmin, c.Duration("ttl"))
					if err != nil {
						return err
					}
					fmt.Println(token)
					return nil
				},
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// withApp loads configuration, builds the App and closes it after action.
func withApp(action func(c *cli.Context, a *app.App) error) cli.ActionFunc {
	return func(c *cli.Context) error {
		cfg, err := config.LoadConfig(c.String("config"))
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		ctx := c.Context
		if ctx == nil {
			ctx = context.Background()
		}
		a, err := app.New(ctx, cfg)
		if err != nil {
			return err
		}
		defer func() {
			if err := a.Close(); err != nil {
				log.Printf("close: %v", err)
			}
		}()
		return action(c, a)
	}
}

func finalize(c *cli.Context, a *app.App) error {
	gameID, err := uuid.Parse(c.String("game"))
	if err != nil {
		return fmt.Errorf("invalid --game: %w", err)
	}
	winnerID, err := uuid.Parse(c.String("winner"))
	if err != nil {
		return fmt.Errorf("invalid --winner: %w", err)
	}
	var scores *engineservice.Scores
	if c.IsSet("team1-score") || c.IsSet("team2-score") {
		if !c.IsSet("team1-score") || !c.IsSet("team2-score") {
			return cli.Exit("--team1-score and --team2-score go together", 2)
		}
		scores = &engineservice.Scores{Team1: c.Int("team1-score"), Team2: c.Int("team2-score")}
	}

	res, err := a.Engine.FinalizeGame(c.Context, gameID, winnerID, scores)
	if err != nil {
		return err
	}
	return printJSON(res)
}

func setClock(c *cli.Context, a *app.App) error {
	if c.NArg() == 0 {
		return cli.Exit("clock set takes an instant", 2)
	}
	input := c.Args().First()
	for _, more := range c.Args().Tail() {
		input += " " + more
	}
	at, err := clock.ParseInstant(input, time.Now())
	if err != nil {
		return err
	}
	if err := a.Engine.SetSimulatedClock(c.Context, &at); err != nil {
		return err
	}
	fmt.Printf("clock: %s\n", at.Format(time.RFC3339))
	return nil
}

func generateBracket(c *cli.Context) error {
	start := time.Date(time.Now().Year(), time.March, 19, 0, 0, 0, 0, time.UTC)
	if s := c.String("start"); s != "" {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			return fmt.Errorf("invalid --start: %w", err)
		}
		start = t
	}
	var gen *bracketfixtures.Generator
	if c.IsSet("seed") {
		gen = bracketfixtures.NewGenerator(c.Int64("seed"))
	} else {
		gen = bracketfixtures.NewGenerator()
	}
	b := gen.Tournament(start)
	doc := bracketservice.NewBracketDocument(b.Teams, b.Rounds, b.AllGames())

	f, err := os.Create(c.String("out"))
	if err != nil {
		return err
	}
	defer f.Close()
	enc := yaml.NewEncoder(f)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return err
	}
	if err := enc.Close(); err != nil {
		return err
	}
	fmt.Printf("wrote %s (seed %d)\n", c.String("out"), gen.Seed())
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
