// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package provision

import (
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/xmidt-org/elk/unit"
	"github.com/xmidt-org/elk/waiter"
	"go.uber.org/zap"
)

const (
	DefaultName          = "elk"
	DefaultVersion       = "2.3"
	DefaultInstanceType  = "t2.micro.elasticsearch"
	DefaultInstanceCount = 1
	DefaultVolumeType    = "gp2"
	DefaultVolumeSize    = 20
	DefaultIngestStage   = "prod"
)

// DomainConfig sizes the search domain.
type DomainConfig struct {
	// (Optional). Defaults to 2.3.
	Version string `mapstructure:"version"`

	// (Optional). Defaults to t2.micro.elasticsearch.
	InstanceType string `mapstructure:"instanceType"`

	// (Optional). Defaults to 1.
	InstanceCount int32 `mapstructure:"instanceCount" validate:"gte=0"`

	// (Optional). Defaults to gp2.
	VolumeType string `mapstructure:"volumeType"`

	// VolumeSize is the EBS volume size in GiB.
	// (Optional). Defaults to 20.
	VolumeSize int32 `mapstructure:"volumeSize" validate:"gte=0"`
}

// Config describes the project to provision.
type Config struct {
	// Name of the project. Every resource name is derived from it.
	Name string `mapstructure:"name" validate:"required"`

	// Region the resources live in.
	Region string `mapstructure:"region" validate:"required"`

	// CIDR is the IPv4 block allowed to reach the domain. The address may
	// carry host bits, e.g. the operator's own IP. It is only required to
	// create a project.
	CIDR string `mapstructure:"cidr" validate:"omitempty,sourcecidr"`

	Domain DomainConfig `mapstructure:"domain"`

	// IngestUnit names the on demand unit exposed through the deployment
	// ingest API.
	// (Optional). No ingest API is created when empty.
	IngestUnit string `mapstructure:"ingestUnit"`

	// (Optional). Defaults to prod.
	IngestStage string `mapstructure:"ingestStage"`

	// DomainPoll is how the domain is waited on after creation.
	// (Optional). Defaults to every 2m for at most 30m.
	DomainPoll waiter.Policy `mapstructure:"domainPoll"`

	// AccessPolicyRetry is how applying the access policy is retried.
	// (Optional). Defaults to 3 attempts 2s apart.
	AccessPolicyRetry waiter.Policy `mapstructure:"accessPolicyRetry"`

	// FunctionRetry is how function creation is retried while the new role
	// propagates.
	// (Optional). Defaults to 6 attempts 10s apart.
	FunctionRetry waiter.Policy `mapstructure:"functionRetry"`

	// Units are the functions of the project.
	Units []unit.Definition `mapstructure:"-"`

	// Templates are the dashboard index templates.
	Templates []Template `mapstructure:"-"`

	// (Optional). By default a no op logger will be used.
	Logger *zap.Logger `mapstructure:"-"`

	// Sleep is used by every wait.
	// (Optional). Defaults to a timer based sleep.
	Sleep waiter.Sleeper `mapstructure:"-"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	if err := v.RegisterValidation("sourcecidr", isSourceCIDR); err != nil {
		panic(err)
	}
	return v
}

// isSourceCIDR accepts any dotted quad with a 0-32 prefix. Host bits may be
// set.
func isSourceCIDR(fl validator.FieldLevel) bool {
	s := fl.Field().String()
	if strings.Contains(s, ":") {
		return false
	}
	ip, _, err := net.ParseCIDR(s)
	return err == nil && ip.To4() != nil
}

func validateConfig(config *Config) error {
	if config.Name == "" {
		config.Name = DefaultName
	}
	if config.Domain.Version == "" {
		config.Domain.Version = DefaultVersion
	}
	if config.Domain.InstanceType == "" {
		config.Domain.InstanceType = DefaultInstanceType
	}
	if config.Domain.InstanceCount == 0 {
		config.Domain.InstanceCount = DefaultInstanceCount
	}
	if config.Domain.VolumeType == "" {
		config.Domain.VolumeType = DefaultVolumeType
	}
	if config.Domain.VolumeSize == 0 {
		config.Domain.VolumeSize = DefaultVolumeSize
	}
	if config.IngestStage == "" {
		config.IngestStage = DefaultIngestStage
	}
	if config.DomainPoll.Interval <= 0 {
		config.DomainPoll = waiter.Policy{Interval: 2 * time.Minute, MaxElapsed: 30 * time.Minute}
	}
	if config.AccessPolicyRetry.MaxAttempts <= 0 {
		config.AccessPolicyRetry = waiter.Policy{Interval: 2 * time.Second, MaxAttempts: 3}
	}
	if config.FunctionRetry.MaxAttempts <= 0 {
		config.FunctionRetry = waiter.Policy{Interval: 10 * time.Second, MaxAttempts: 6}
	}

	if err := validate.Struct(config); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, err)
	}
	if config.IngestUnit != "" {
		if _, ok := findUnit(config.Units, config.IngestUnit); !ok {
			return fmt.Errorf(errWrappedFmt, ErrUnknownUnit, config.IngestUnit)
		}
	}
	return nil
}

func findUnit(units []unit.Definition, name string) (unit.Definition, bool) {
	for _, u := range units {
		if u.Name == name {
			return u, true
		}
	}
	return unit.Definition{}, false
}
