// Package main is meetupctl, the operator CLI for meetupbot. It renders,
// parses and exports meetup issue bodies offline and mints robot keys.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

const (
	outputYAML = "yaml"
	outputJSON = "json"
)

type rootOptions struct {
	timezone string
	output   string
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:          "meetupctl",
		Short:        "Work with meetup issue bodies and robot keys",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if opts.output != outputYAML && opts.output != outputJSON {
				return fmt.Errorf("unknown output format %q: want yaml or json", opts.output)
			}
			if _, err := time.LoadLocation(opts.timezone); err != nil {
				return fmt.Errorf("invalid timezone %q: %w", opts.timezone, err)
			}
			return nil
		},
	}

	cmd.PersistentFlags().StringVar(&opts.timezone, "timezone", "UTC", "IANA timezone human dates and times are read in")
	cmd.PersistentFlags().StringVarP(&opts.output, "output", "o", outputYAML, "output format: yaml or json")

	cmd.AddCommand(
		newRenderCmd(opts),
		newParseCmd(opts),
		newICSCmd(opts),
		newPullRequestCmd(opts),
		newKeygenCmd(opts),
	)

	return cmd
}

func (o *rootOptions) location() *time.Location {
	loc, err := time.LoadLocation(o.timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// readInput reads the file named by args, or stdin when there is none or it is "-".
func readInput(cmd *cobra.Command, args []string) ([]byte, error) {
	if len(args) == 0 || args[0] == "-" {
		return io.ReadAll(cmd.InOrStdin())
	}
	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", args[0], err)
	}
	return data, nil
}

// encode writes v in the selected output format.
func (o *rootOptions) encode(w io.Writer, v any) error {
	if o.output == outputJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return err
	}
	return enc.Close()
}
