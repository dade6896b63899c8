package main

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"text/tabwriter"
	"time"

	"github.com/google/uuid"
	"github.com/urfave/cli/v2"

	"github.com/skytecs/hermes/internal/config"
	"github.com/skytecs/hermes/internal/database"
	"github.com/skytecs/hermes/internal/ledger"
	ledgerStore "github.com/skytecs/hermes/internal/ledger/store"
	"github.com/skytecs/hermes/internal/listener"
	"github.com/skytecs/hermes/internal/shift"
	shiftStore "github.com/skytecs/hermes/internal/shift/store"
)

func newApp() *cli.App {
	var cfg *config.Config

	return &cli.App{
		Name:  "hermesctl",
		Usage: "operate a Hermes cashbox gateway",
		Before: func(*cli.Context) error {
			var err error
			cfg, err = config.Load()

			return err
		},
		Commands: []*cli.Command{
			{
				Name:  "migrate",
				Usage: "apply pending ledger schema migrations",
				Action: func(c *cli.Context) error {
					return withDB(cfg, func(db *sql.DB) error {
						version, err := database.Migrate(db)
						if err != nil {
							return err
						}

						fmt.Fprintf(c.App.Writer, "schema version %d\n", version)

						return nil
					})
				},
			},
			{
				Name:  "operations",
				Usage: "list ledger operations, newest first",
				Flags: []cli.Flag{
					&cli.BoolFlag{Name: "unconfirmed", Usage: "only operations the clinic has not acknowledged"},
					&cli.IntFlag{Name: "limit", Value: 50, Usage: "maximum number of rows"},
				},
				Action: func(c *cli.Context) error {
					return withDB(cfg, func(db *sql.DB) error {
						ops, err := ledgerStore.New(db).List(c.Context, ledger.ListFilter{
							UnconfirmedOnly: c.Bool("unconfirmed"),
							Limit:           c.Int("limit"),
						})
						if err != nil {
							return err
						}

						return printOperations(c, ops)
					})
				},
			},
			{
				Name:  "session",
				Usage: "inspect or repair the stored cashier session (stop the service first)",
				Subcommands: []*cli.Command{
					{
						Name:  "show",
						Usage: "print the stored cashier session",
						Action: func(c *cli.Context) error {
							return withSessions(cfg, func(st *shiftStore.Store) error {
								s, err := st.Get(c.Context)
								if errors.Is(err, shift.ErrSessionNotFound) {
									fmt.Fprintln(c.App.Writer, "no cashier session stored")
									return nil
								}

								if err != nil {
									return err
								}

								return printJSON(c, s)
							})
						},
					},
					{
						Name:  "clear",
						Usage: "delete the stored cashier session",
						Action: func(c *cli.Context) error {
							return withSessions(cfg, func(st *shiftStore.Store) error {
								return st.Delete(c.Context)
							})
						},
					},
					{
						Name:  "restore",
						Usage: "store a cashier session for a shift that is open on the device",
						Flags: []cli.Flag{
							&cli.IntFlag{Name: "cashier-id", Required: true},
							&cli.StringFlag{Name: "name", Required: true, Usage: "cashier name as printed on receipts"},
							&cli.StringFlag{Name: "vatin", Usage: "cashier VATIN"},
							&cli.TimestampFlag{Name: "start", Layout: time.RFC3339, Usage: "shift start, defaults to now"},
						},
						Action: func(c *cli.Context) error {
							start := time.Now()
							if t := c.Timestamp("start"); t != nil {
								start = *t
							}

							s := &shift.CashierSession{
								SessionID:    uuid.New(),
								CashierID:    c.Int("cashier-id"),
								CashierName:  c.String("name"),
								CashierVATIN: c.String("vatin"),
								SessionStart: start,
							}

							return withSessions(cfg, func(st *shiftStore.Store) error {
								if err := st.Save(c.Context, s); err != nil {
									return err
								}

								return printJSON(c, s)
							})
						},
					},
				},
			},
			{
				Name:  "token",
				Usage: "print a centrifugo connect token",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "secret", Usage: "defaults to CENTRIFUGO_SECRET"},
					&cli.StringFlag{Name: "user", Usage: "defaults to a random uuid"},
					&cli.Int64Flag{Name: "timestamp", Usage: "unix seconds, defaults to now"},
				},
				Action: func(c *cli.Context) error {
					secret := c.String("secret")
					if secret == "" {
						secret = cfg.Centrifugo.Secret
					}

					user := c.String("user")
					if user == "" {
						user = uuid.NewString()
					}

					ts := c.Int64("timestamp")
					if ts == 0 {
						ts = time.Now().Unix()
					}

					timestamp := strconv.FormatInt(ts, 10)

					fmt.Fprintf(c.App.Writer, "user:      %s\ntimestamp: %s\ntoken:     %s\n",
						user, timestamp, listener.Token(secret, user, timestamp))

					return nil
				},
			},
		},
	}
}

func withDB(cfg *config.Config, fn func(db *sql.DB) error) error {
	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return err
	}
	defer db.Close()

	return fn(db)
}

func withSessions(cfg *config.Config, fn func(st *shiftStore.Store) error) error {
	st, err := shiftStore.Open(cfg.Session.Dir)
	if err != nil {
		return err
	}
	defer st.Close()

	return fn(st)
}

func printOperations(c *cli.Context, ops []*ledger.Operation) error {
	w := tabwriter.NewWriter(c.App.Writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tOPERATION\tMETHOD\tRECEIVED\tCONFIRMED\tERROR")

	for _, op := range ops {
		confirmed := "-"
		if op.ConfirmedAt != nil {
			confirmed = op.ConfirmedAt.Local().Format(time.DateTime)
		}

		lastError := ""
		if op.LastError != nil {
			lastError = *op.LastError
		}

		fmt.Fprintf(w, "%d\t%d\t%s\t%s\t%s\t%s\n",
			op.ID, op.RemoteOperationID, op.Method, op.ReceivedAt.Local().Format(time.DateTime), confirmed, lastError)
	}

	return w.Flush()
}

func printJSON(c *cli.Context, v any) error {
	enc := json.NewEncoder(c.App.Writer)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}
