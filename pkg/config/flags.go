package config

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
)

// Flag is the single source of truth for a CLI flag.
// Commands reference flags by registry key rather than hard-coding names,
// shorthands, defaults, and descriptions inline. This prevents flag drift
// when the same logical flag appears on multiple commands (e.g., --api-target
// on "novelist get" and "novelist generate").
type Flag struct {
	// Name is the long flag name (e.g. "api-target").
	Name string

	// Shorthand is the one-letter short flag (e.g. "t"). Empty for no shorthand.
	Shorthand string

	// ViperKey is the dotted config key this flag maps to (e.g. "client.api_target").
	ViperKey string

	// Description is the help text shown in --help output.
	Description string
}

// FlagSet is a mapping of flag names to Flag structs that hold their name,
// shorthand, viper key, etc.
type FlagSet map[string]Flag

// Flag registry keys.
// Use these constants when calling AddStringFlag and BindRegisteredFlags to
// avoid typos or drift from one command to another.
const (
	FlagAPITarget      = "api-target"
	FlagMode           = "mode"
	FlagRefreshTimeout = "refresh-timeout"
	FlagPartialEvent   = "partial-event"
)

// ClientFlags is the registry of flags shared by commands that talk to the API.
var ClientFlags = FlagSet{
	FlagAPITarget: {
		Name:        "api-target",
		Shorthand:   "t",
		ViperKey:    "client.api_target",
		Description: "Novelist API URL",
	},
	FlagMode: {
		Name:        "mode",
		ViperKey:    "client.mode",
		Description: "Server mode (development, production)",
	},
	FlagRefreshTimeout: {
		Name:        "refresh-timeout",
		ViperKey:    "auth.refresh_timeout",
		Description: "Upper bound for a token refresh call",
	},
	FlagPartialEvent: {
		Name:        "partial-event",
		ViperKey:    "generator.partial_event",
		Description: "Event name carrying incremental generation text",
	},
}

// AddStringFlag registers a string flag on cmd from the given FlagSet.
// The flag's name, shorthand, default, and description all come from the
// FlagSet entry so they cannot drift across commands.
func AddStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	addStringFlag(cmd.Flags(), fs, key, target)
}

// AddPersistentStringFlag is AddStringFlag for flags inherited by every
// subcommand of cmd.
func AddPersistentStringFlag(cmd *cobra.Command, fs FlagSet, key string, target *string) {
	addStringFlag(cmd.PersistentFlags(), fs, key, target)
}

func addStringFlag(flags *pflag.FlagSet, fs FlagSet, key string, target *string) {
	def, ok := fs[key]
	if !ok {
		return
	}
	flags.StringVarP(target, def.Name, def.Shorthand, defaultString(def.ViperKey), def.Description)
}

// BindRegisteredFlags binds already-registered flags to viper using definitions
// from the given FlagSet. Call this in PreRunE after InitViper to connect flags
// to the viper precedence chain (flag > env > config file > default).
func BindRegisteredFlags(v *viper.Viper, cmd *cobra.Command, fs FlagSet, registryKeys []string) {
	for _, registryKey := range registryKeys {
		def, ok := fs[registryKey]
		if !ok {
			continue
		}

		f := cmd.Flags().Lookup(def.Name)
		if f == nil {
			continue
		}

		_ = v.BindPFlag(def.ViperKey, f)
	}
}

// defaultString returns the default string value for a viper key from NewDefaultConfig.
func defaultString(viperKey string) string {
	v := viper.New()
	setViperDefaults(v)
	return v.GetString(viperKey)
}
