// boltcli connects to a Bolt server, runs one auto-commit statement, and
// prints its rows, please read @spec section 4.6.
package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/urfave/cli/v2"

	"github.com/oryx-bolt/go-bolt/bolt"
	"github.com/oryx-bolt/go-bolt/metrics"
	"github.com/oryx-bolt/go-bolt/pool"
	"github.com/oryx-bolt/go-bolt/session"
)

func cyan(s string) string {
	c := color.New(color.FgHiCyan)
	c.EnableColor()
	return c.SprintFunc()(s)
}

func green(s string) string {
	c := color.New(color.FgHiGreen)
	c.EnableColor()
	return c.SprintFunc()(s)
}

func red(s string) string {
	c := color.New(color.FgHiRed)
	c.EnableColor()
	return c.SprintFunc()(s)
}

func main() {
	app := cli.NewApp()
	app.Name = "boltcli"
	app.Usage = "run one Cypher statement against a Bolt server and print its rows"
	app.Flags = []cli.Flag{
		&cli.StringFlag{Name: "addr", Value: "127.0.0.1:7687", Usage: "host:port of the Bolt server"},
		&cli.StringFlag{Name: "user", Value: "neo4j", Usage: "basic auth username"},
		&cli.StringFlag{Name: "password", Value: "", Usage: "basic auth password"},
		&cli.StringFlag{Name: "db", Value: "", Usage: "database name (empty for the server default)"},
		&cli.StringFlag{Name: "statement", Required: true, Usage: "Cypher statement to run"},
		&cli.DurationFlag{Name: "timeout", Value: 30 * time.Second, Usage: "overall request timeout"},
	}
	app.Action = run

	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, red("boltcli ▶ "+err.Error()))
		os.Exit(1)
	}
}

func run(c *cli.Context) error {
	cl := session.NewClient(pool.Config{
		Address:   c.String("addr"),
		Auth:      pool.Basic(c.String("user"), c.String("password")),
		UserAgent: "boltcli/1.0",
		MaxSize:   4,
	})
	defer cl.Close()

	ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
	defer cancel()
	metrics.SamplePool(ctx, cl, 5*time.Second)

	var prepare *bolt.CommitPrepare
	if db := c.String("db"); db != "" {
		prepare = bolt.NewCommitPrepare().SetDb(db)
	}

	fmt.Println(cyan(fmt.Sprintf("boltcli ▶ %v", c.String("statement"))))
	res, err := cl.AutoCommit(ctx, session.NewQuery(c.String("statement")), prepare)
	if err != nil {
		return err
	}

	for _, row := range res.Rows {
		cols := make([]string, len(row.Fields()))
		for i, f := range row.Fields() {
			v, _ := row.Get(f)
			cols[i] = f + "=" + v.String()
		}
		fmt.Println(strings.Join(cols, "  "))
	}
	fmt.Println(green(fmt.Sprintf("boltcli ▶ %d row(s), bookmark %q", len(res.Rows), res.Bookmark)))
	return nil
}
