package main

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-errors/errors"
	"github.com/jessevdk/go-flags"
	log "github.com/sirupsen/logrus"
	"github.com/the-lightning-land/jammed/experiment"
	"github.com/the-lightning-land/jammed/jdb"
	"github.com/urfave/cli"
)

var (
	// Commit stores the current commit hash of this build. This should be set using -ldflags during compilation.
	commit string
	// Version stores the version string of this build. This should be set using -ldflags during compilation.
	version string
	// Stores the date of this build. This should be set using -ldflags during compilation.
	date string
)

// jamstatMain is the true entry point for jamstat. This is required since defers
// created in the top-level scope of a main method aren't executed if os.Exit() is called.
func jamstatMain() error {
	app := cli.NewApp()
	app.EnableBashCompletion = true
	app.Version = version

	cli.VersionPrinter = func(c *cli.Context) {
		fmt.Printf("version=%s commit=%s date=%s\n", version, commit, date)
	}

	app.Commands = []cli.Command{
		{
			Name:      "csv",
			ArgsUsage: "[results.json] [results.csv]",
			Usage:     "convert a results file to CSV",
			Action: func(c *cli.Context) error {
				if c.NArg() != 2 {
					return errors.Errorf("Expected a results file and an output path")
				}

				results, err := experiment.ReadResults(c.Args().Get(0))
				if err != nil {
					return err
				}

				return results.WriteCSV(c.Args().Get(1))
			},
		},
		{
			Name:      "summary",
			ArgsUsage: "[results.json]",
			Aliases:   []string{"s"},
			Usage:     "summarize the revenues of a results file",
			Flags: []cli.Flag{
				cli.StringFlag{
					Name:  "node",
					Usage: "only show the revenue of this node",
				},
			},
			Action: func(c *cli.Context) error {
				if c.NArg() != 1 {
					return errors.Errorf("Expected a results file")
				}

				results, err := experiment.ReadResults(c.Args().Get(0))
				if err != nil {
					return err
				}

				printSeries("honest", results.Honest, c.String("node"))
				printSeries("jamming", results.Jamming, c.String("node"))

				return nil
			},
		},
	}

	err := app.Run(os.Args)
	if err != nil {
		log.Fatal(err)
	}

	return nil
}

func printSeries(name string, cells []experiment.CellResult, node string) {
	fmt.Printf("%v:\n", name)

	for _, cell := range cells {
		fmt.Printf("  base %v, rate %v: sent %v, failed %v, reached %v\n",
			cell.UpfrontBaseCoeff, cell.UpfrontRateCoeff,
			cell.Stats.NumSent, cell.Stats.NumFailed, cell.Stats.NumReachedReceiver)

		if node != "" {
			fmt.Printf("    %v: %v\n", node, cell.Revenues[jdb.NodeID(node)])
			continue
		}

		for _, n := range sortedNodes(cell.Revenues) {
			fmt.Printf("    %v: %v\n", n, cell.Revenues[n])
		}
	}
}

func sortedNodes(revenues map[jdb.NodeID]float64) []jdb.NodeID {
	nodes := make([]jdb.NodeID, 0, len(revenues))
	for node := range revenues {
		nodes = append(nodes, node)
	}
	sort.Slice(nodes, func(i, j int) bool { return nodes[i] < nodes[j] })
	return nodes
}

func main() {
	// Call the "real" main in a nested manner so the defers will properly
	// be executed in the case of a graceful shutdown.
	if err := jamstatMain(); err != nil {
		if e, ok := err.(*flags.Error); ok && e.Type == flags.ErrHelp {
		} else {
			log.WithError(err).Println("Failed running jamstat.")
		}
		os.Exit(1)
	}
}
