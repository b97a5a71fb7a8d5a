// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package app

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/spf13/viper"
	"github.com/xmidt-org/elk/signer"
	"go.uber.org/zap"
)

var (
	ErrPartialCredentials = errors.New("static credentials need both an access key id and a secret access key")
	ErrNoRegion           = errors.New("no region is configured")
	ErrAWSConfig          = errors.New("failed loading the aws configuration")
)

// DefaultProfile is the shared configuration profile the SDK uses when
// none is named.
const DefaultProfile = "default"

// AWSConfig selects the credentials and region of the cloud clients. When
// no static keys are given the SDK default chain is used: environment,
// shared configuration profile, then the execution role.
type AWSConfig struct {
	// Profile is the shared configuration profile.
	// (Optional). Defaults to default.
	Profile string `mapstructure:"profile"`

	// (Optional). Defaults to the region of the profile or environment.
	Region string `mapstructure:"region"`

	// AccessKeyID and SecretAccessKey are static credentials.
	// (Optional).
	AccessKeyID     string `mapstructure:"accessKeyID"`
	SecretAccessKey string `mapstructure:"secretAccessKey"`

	// (Optional).
	SessionToken string `mapstructure:"sessionToken"`
}

func (c AWSConfig) options() ([]func(*config.LoadOptions) error, error) {
	var opts []func(*config.LoadOptions) error
	if c.Profile != "" && c.Profile != DefaultProfile {
		opts = append(opts, config.WithSharedConfigProfile(c.Profile))
	}
	if c.Region != "" {
		opts = append(opts, config.WithRegion(c.Region))
	}
	switch {
	case c.AccessKeyID != "" && c.SecretAccessKey != "":
		opts = append(opts, config.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(c.AccessKeyID, c.SecretAccessKey, c.SessionToken)))
	case c.AccessKeyID != "" || c.SecretAccessKey != "":
		return nil, ErrPartialCredentials
	}
	return opts, nil
}

// LoadAWS resolves the cloud configuration. A region is required.
func LoadAWS(ctx context.Context, c AWSConfig) (aws.Config, error) {
	opts, err := c.options()
	if err != nil {
		return aws.Config{}, err
	}
	cfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return aws.Config{}, fmt.Errorf("%w: %w", ErrAWSConfig, err)
	}
	if cfg.Region == "" {
		return aws.Config{}, ErrNoRegion
	}
	return cfg, nil
}

// ProvideAWS loads the cloud configuration from the aws key. The top level
// profile and region keys, which the command line flags are bound to, take
// precedence.
func ProvideAWS(v *viper.Viper) (aws.Config, error) {
	var c AWSConfig
	if err := v.UnmarshalKey("aws", &c); err != nil {
		return aws.Config{}, err
	}
	if profile := v.GetString("profile"); profile != "" {
		c.Profile = profile
	}
	if region := v.GetString("region"); region != "" {
		c.Region = region
	}
	return LoadAWS(context.Background(), c)
}

// ProvideSearch creates the signing client used to reach search domains.
// Region and service are derived from each domain endpoint.
func ProvideSearch(cfg aws.Config, logger *zap.Logger) (*signer.Client, error) {
	return signer.New(signer.Config{
		Credentials: cfg.Credentials,
		Logger:      logger,
	})
}
