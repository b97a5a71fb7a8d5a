// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

// Package app holds the runtime setup shared by the command line tool and
// the function entry points: flags, configuration, logging, cloud
// configuration and metrics.
package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"runtime"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xmidt-org/arrange"
	"github.com/xmidt-org/sallust"
	"go.uber.org/zap"
)

var (
	GitCommit = "undefined"
	Version   = "undefined"
	BuildTime = "undefined"
)

// ErrVersionRequested is returned by Setup when --version was given. The
// caller is expected to print the version and exit.
var ErrVersionRequested = errors.New("version requested")

// SetupFlagSet adds the flags every binary understands.
func SetupFlagSet(fs *pflag.FlagSet) {
	fs.StringP("file", "f", "", "the configuration file to use.  Overrides the search path.")
	fs.String("env", ".env", "an optional dotenv file loaded into the environment before reading the configuration.")
	fs.BoolP("debug", "d", false, "enables debug logging.  Overrides configuration.")
	fs.BoolP("version", "v", false, "print version and exit")
}

// Setup parses args into fs, reads the configuration of the named
// application and builds its logger. Flags and ELK_ prefixed environment
// variables override the configuration file, which is optional unless
// given with --file.
func Setup(name string, fs *pflag.FlagSet, args []string) (*viper.Viper, *zap.Logger, error) {
	l := sallust.Default()

	SetupFlagSet(fs)
	if err := fs.Parse(args); err != nil {
		return nil, l, fmt.Errorf("failed to parse args: %w", err)
	}
	if printVersion, _ := fs.GetBool("version"); printVersion {
		return nil, l, ErrVersionRequested
	}

	if env, _ := fs.GetString("env"); len(env) > 0 {
		if err := godotenv.Load(env); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, l, fmt.Errorf("failed to load dotenv file: %w", err)
		}
	}

	v := viper.New()
	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(fs); err != nil {
		return nil, l, err
	}

	file, _ := fs.GetString("file")
	if err := readConfig(v, name, file); err != nil {
		return v, l, fmt.Errorf("failed to read config file: %w", err)
	}

	if debug, _ := fs.GetBool("debug"); debug {
		v.Set("logging.level", "DEBUG")
	}

	var c sallust.Config
	if err := v.UnmarshalKey("logging", &c, arrange.ComposeDecodeHooks(sallust.DecodeHook)); err != nil {
		return v, l, err
	}
	l, err := c.Build()
	return v, l, err
}

const envPrefix = "ELK"

func readConfig(v *viper.Viper, name, file string) error {
	if len(file) > 0 {
		v.SetConfigFile(file)
		return v.ReadInConfig()
	}

	v.SetConfigName(name)
	v.AddConfigPath(fmt.Sprintf("/etc/%s", name))
	v.AddConfigPath(fmt.Sprintf("$HOME/.%s", name))
	v.AddConfigPath(".")
	err := v.ReadInConfig()

	var notFound viper.ConfigFileNotFoundError
	if errors.As(err, &notFound) {
		return nil
	}
	return err
}

// PrintVersionInfo writes the build information of the named application.
func PrintVersionInfo(w io.Writer, name string) {
	fmt.Fprintf(w, "%s:\n", name)
	fmt.Fprintf(w, "  version: \t%s\n", Version)
	fmt.Fprintf(w, "  go version: \t%s\n", runtime.Version())
	fmt.Fprintf(w, "  built time: \t%s\n", BuildTime)
	fmt.Fprintf(w, "  git commit: \t%s\n", GitCommit)
	fmt.Fprintf(w, "  os/arch: \t%s/%s\n", runtime.GOOS, runtime.GOARCH)
}
