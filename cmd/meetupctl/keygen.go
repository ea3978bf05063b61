package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/meetupbot/meetupbot/internal/auth"
)

type keygenOutput struct {
	Key         string `json:"key" yaml:"key"`
	Prefix      string `json:"prefix" yaml:"prefix"`
	Env         string `json:"env" yaml:"env"`
	Hash        string `json:"hash" yaml:"hash"`
	ConfigEntry string `json:"config_entry" yaml:"config_entry"`
}

func newKeygenCmd(opts *rootOptions) *cobra.Command {
	var env string

	cmd := &cobra.Command{
		Use:   "keygen",
		Short: "Generate a robot API key and its ROBOT_API_KEYS entry",
		Long: "Generates a robot API key. The plaintext key is printed once; " +
			"only the config entry belongs in ROBOT_API_KEYS.",
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if env != auth.EnvLive && env != auth.EnvTest {
				return fmt.Errorf("unknown key environment %q: want live or test", env)
			}
			key, err := auth.GenerateKey(env)
			if err != nil {
				return err
			}
			return opts.encode(cmd.OutOrStdout(), keygenOutput{
				Key:         key.Plaintext,
				Prefix:      key.Prefix,
				Env:         env,
				Hash:        key.Hash,
				ConfigEntry: key.ConfigEntry(),
			})
		},
	}

	cmd.Flags().StringVar(&env, "env", auth.EnvLive, "key environment: live or test")
	return cmd
}
