// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/apigateway"
	es "github.com/aws/aws-sdk-go-v2/service/elasticsearchservice"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/go-playground/validator/v10"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"
	"github.com/xmidt-org/elk/app"
	"github.com/xmidt-org/elk/artifact"
	"github.com/xmidt-org/elk/provision"
	"github.com/xmidt-org/elk/signer"
	"github.com/xmidt-org/elk/unit"
	"go.uber.org/zap"
)

// Actions
const (
	createAction = "create"
	updateAction = "update"
	deleteAction = "delete"
)

var errDeclined = errors.New("deletion was not confirmed")

func setupFlagSet(fs *pflag.FlagSet) {
	fs.StringP("action", "a", "", "the action to perform: create, update or delete.")
	fs.StringP("name", "n", provision.DefaultName, "the project name.  Every resource name is derived from it.")
	fs.StringP("profile", "p", app.DefaultProfile, "the shared aws configuration profile to use.")
	fs.String("cidr", "", "the IPv4 CIDR block allowed to reach the search domain.  Required to create.")
	fs.BoolP("yes", "y", false, "skip the delete confirmation.")
	fs.String("units", "functions", "the directory holding one sub directory per function unit.")
	fs.String("templates", "templates", "the directory holding the index template documents.")
}

// command is what the operator asked for.
type command struct {
	Action string `validate:"required,oneof=create update delete"`
	Name   string `validate:"required"`
	Yes    bool
}

func newCommand(v *viper.Viper) (command, error) {
	c := command{
		Action: strings.ToLower(v.GetString("action")),
		Name:   v.GetString("name"),
		Yes:    v.GetBool("yes"),
	}
	if err := validator.New().Struct(c); err != nil {
		return c, fmt.Errorf("invalid command line: %w", err)
	}
	return c, nil
}

// confirm asks the operator to confirm the deletion of the named project.
func confirm(in io.Reader, out io.Writer, name string) (bool, error) {
	fmt.Fprintf(out, "All resources of project %q will be deleted. Continue? [y/N] ", name)
	answer, err := bufio.NewReader(in).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return false, err
	}
	switch strings.ToLower(strings.TrimSpace(answer)) {
	case "y", "yes":
		return true, nil
	}
	return false, nil
}

// provideProject reads the project configuration along with its units and
// dashboard templates. The region falls back to the one of the cloud
// configuration.
func provideProject(v *viper.Viper, cfg aws.Config, logger *zap.Logger) (provision.Config, error) {
	var c provision.Config
	if err := v.Unmarshal(&c); err != nil {
		return c, err
	}
	if c.Region == "" {
		c.Region = cfg.Region
	}

	units, err := unit.Load(v.GetString("units"))
	if err != nil {
		return c, err
	}
	c.Units = units

	templates, err := provision.LoadTemplates(v.GetString("templates"))
	switch {
	case errors.Is(err, os.ErrNotExist):
		logger.Warn("no dashboard templates found", zap.String("dir", v.GetString("templates")))
	case err != nil:
		return c, err
	}
	c.Templates = templates
	c.Logger = logger
	return c, nil
}

// provideArtifacts returns the package uploader, or nil when no bucket is
// configured.
func provideArtifacts(c *artifact.Config, logger *zap.Logger) (provision.Uploader, error) {
	if c == nil || c.Bucket == "" {
		return nil, nil
	}
	client, err := artifact.NewClient(*c)
	if err != nil {
		return nil, err
	}
	u, err := artifact.New(*c, client, logger)
	if err != nil {
		return nil, err
	}
	return u, nil
}

func provideClients(cfg aws.Config, search *signer.Client, artifacts provision.Uploader) provision.Clients {
	return provision.Clients{
		Domains:   es.NewFromConfig(cfg),
		Identity:  iam.NewFromConfig(cfg),
		Functions: lambda.NewFromConfig(cfg),
		Schedules: eventbridge.NewFromConfig(cfg),
		Account:   sts.NewFromConfig(cfg),
		Gateway:   apigateway.NewFromConfig(cfg),
		Search:    search,
		Artifacts: artifacts,
	}
}

func provideProvisioner(c provision.Config, clients provision.Clients, m provision.Measures) (*provision.Provisioner, error) {
	return provision.New(c, clients, &m)
}
