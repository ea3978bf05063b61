package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/meetupbot/meetupbot/internal/meetup"
	"github.com/meetupbot/meetupbot/internal/model"
)

// errInvalidMeetup is returned after the field errors have been printed.
var errInvalidMeetup = errors.New("invalid meetup")

type parseOutput struct {
	Shape  model.FormShape    `json:"shape" yaml:"shape"`
	Valid  bool               `json:"valid" yaml:"valid"`
	Meetup *model.Meetup      `json:"meetup,omitempty" yaml:"meetup,omitempty"`
	Fields meetup.FieldErrors `json:"fields,omitempty" yaml:"fields,omitempty"`
}

func newRenderCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "render [file]",
		Short: "Render a robot-shaped submission (JSON or YAML) as an issue body",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := readInput(cmd, args)
			if err != nil {
				return err
			}
			values, err := decodeValues(data)
			if err != nil {
				return err
			}

			form, err := meetup.ParseRobotForm(values)
			if err != nil {
				return reportInvalid(cmd, opts, model.FormShapeRobot, err)
			}
			m, err := meetup.RobotFormToMeetup(form)
			if err != nil {
				return reportInvalid(cmd, opts, model.FormShapeRobot, err)
			}

			_, err = fmt.Fprint(cmd.OutOrStdout(), meetup.RenderIssueBody(m))
			return err
		},
	}
}

func newParseCmd(opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse [file]",
		Short: "Parse an issue body into a meetup",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, shape, err := parseIssueInput(cmd, opts, args)
			if err != nil {
				return reportInvalid(cmd, opts, shape, err)
			}
			return opts.encode(cmd.OutOrStdout(), parseOutput{Shape: shape, Valid: true, Meetup: m})
		},
	}
}

func newICSCmd(opts *rootOptions) *cobra.Command {
	var (
		uid      string
		duration time.Duration
	)

	cmd := &cobra.Command{
		Use:   "ics [file]",
		Short: "Export an issue body as an iCalendar event",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			m, shape, err := parseIssueInput(cmd, opts, args)
			if err != nil {
				return reportInvalid(cmd, opts, shape, err)
			}
			if uid == "" {
				uid = fmt.Sprintf("%d@meetupbot", m.Date.Unix())
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), meetup.RenderCalendar(m, meetup.CalendarOptions{
				UID:      uid,
				Duration: duration,
			}))
			return err
		},
	}

	cmd.Flags().StringVar(&uid, "uid", "", "event UID (defaults to one derived from the start time)")
	cmd.Flags().DurationVar(&duration, "duration", meetup.DefaultMeetupDuration, "event length")
	return cmd
}

func newPullRequestCmd(opts *rootOptions) *cobra.Command {
	var issue int

	cmd := &cobra.Command{
		Use:   "pr [file]",
		Short: "Render the pull request description that closes a meetup issue",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if issue <= 0 {
				return errors.New("--issue must be a positive issue number")
			}
			m, shape, err := parseIssueInput(cmd, opts, args)
			if err != nil {
				return reportInvalid(cmd, opts, shape, err)
			}
			_, err = fmt.Fprint(cmd.OutOrStdout(), meetup.RenderPullRequestBody(m, issue))
			return err
		},
	}

	cmd.Flags().IntVar(&issue, "issue", 0, "issue number the pull request closes")
	return cmd
}

func parseIssueInput(cmd *cobra.Command, opts *rootOptions, args []string) (*model.Meetup, model.FormShape, error) {
	data, err := readInput(cmd, args)
	if err != nil {
		return nil, "", err
	}
	shape, m, err := meetup.ParseIssueBody(string(data), opts.location())
	return m, shape, err
}

// reportInvalid prints field errors in the output format and returns
// errInvalidMeetup. Other errors pass through.
func reportInvalid(cmd *cobra.Command, opts *rootOptions, shape model.FormShape, err error) error {
	fields, ok := meetup.AsFieldErrors(err)
	if !ok {
		return err
	}
	if encErr := opts.encode(cmd.OutOrStdout(), parseOutput{Shape: shape, Fields: fields}); encErr != nil {
		return encErr
	}
	return errInvalidMeetup
}

// decodeValues reads a flat object of field values. JSON is accepted as
// YAML. Scalars keep their source text so timestamps are not reinterpreted,
// and nulls count as absent.
func decodeValues(data []byte) (meetup.Values, error) {
	var doc yaml.Node
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode submission: %w", err)
	}
	if doc.Kind != yaml.DocumentNode || len(doc.Content) != 1 || doc.Content[0].Kind != yaml.MappingNode {
		return nil, errors.New("decode submission: want an object of field values")
	}

	root := doc.Content[0]
	values := make(meetup.Values, len(root.Content)/2)
	for i := 0; i+1 < len(root.Content); i += 2 {
		key, val := root.Content[i], root.Content[i+1]
		if val.Kind != yaml.ScalarNode {
			return nil, fmt.Errorf("decode submission: field %q must be a scalar", key.Value)
		}
		if val.Tag == "!!null" {
			continue
		}
		values[key.Value] = val.Value
	}
	return values, nil
}
