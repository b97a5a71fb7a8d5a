// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package provision

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/eventbridge"
	ebtypes "github.com/aws/aws-sdk-go-v2/service/eventbridge/types"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	ltypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/xmidt-org/elk/unit"
	"github.com/xmidt-org/elk/waiter"
	"go.uber.org/zap"
)

const (
	functionStep = "function"

	targetID            = "0"
	eventsPrincipal     = "events.amazonaws.com"
	eventsStatementID   = "events-invoke"
	invokeFunctionGrant = "lambda:InvokeFunction"
)

// packageCode zips the unit and, when an artifact store is configured,
// uploads the archive so the function is created from the bucket.
func (p *Provisioner) packageCode(ctx context.Context, u unit.Definition) (*ltypes.FunctionCode, error) {
	archive, err := u.Zip()
	if err != nil {
		return nil, err
	}
	if p.clients.Artifacts == nil {
		return &ltypes.FunctionCode{ZipFile: archive}, nil
	}
	loc, err := p.clients.Artifacts.Upload(ctx, FunctionName(p.config.Name, u.Name), archive)
	if err != nil {
		return nil, err
	}
	code := &ltypes.FunctionCode{S3Bucket: aws.String(loc.Bucket), S3Key: aws.String(loc.Key)}
	if loc.Version != "" {
		code.S3ObjectVersion = aws.String(loc.Version)
	}
	return code, nil
}

// createFunctions creates every unit's function and, for scheduled units,
// its rule and target. A function that already exists gets its code
// replaced instead. The function ARNs are returned by unit name.
func (p *Provisioner) createFunctions(ctx context.Context, endpoint, roleARN string) (map[string]string, error) {
	arns := make(map[string]string, len(p.config.Units))
	for _, u := range p.config.Units {
		name := FunctionName(p.config.Name, u.Name)
		logger := p.logger.With(zap.String("function", name))

		code, err := p.packageCode(ctx, u)
		if err != nil {
			return arns, err
		}

		input := &lambda.CreateFunctionInput{
			FunctionName: aws.String(name),
			Runtime:      ltypes.Runtime(u.Runtime),
			Role:         aws.String(roleARN),
			Handler:      aws.String(u.Handler),
			Code:         code,
			Description:  aws.String(u.Description),
		}
		if u.Timeout > 0 {
			input.Timeout = aws.Int32(u.Timeout)
		}
		if u.MemorySize > 0 {
			input.MemorySize = aws.Int32(u.MemorySize)
		}

		var (
			arn     string
			outcome = CreatedOutcome
		)
		err = p.newWaiter(functionStep, logger).Retry(ctx, p.config.FunctionRetry, func(ctx context.Context, attempt int) error {
			logger.Info("creating function", zap.Int("attempt", attempt))
			out, err := p.clients.Functions.CreateFunction(ctx, input)
			if isAlreadyExists(err) {
				return waiter.Stop(err)
			}
			if err != nil {
				return err
			}
			arn = aws.ToString(out.FunctionArn)
			return nil
		})
		if isAlreadyExists(err) {
			logger.Info("function already exists, updating its code")
			outcome = UpdatedOutcome
			arn, err = p.updateCode(ctx, name, code)
		}
		if err != nil {
			p.measures.Functions.With(prometheus.Labels{OutcomeLabel: FailureOutcome}).Inc()
			return arns, fmt.Errorf("creating function %s: %w", name, err)
		}
		p.measures.Functions.With(prometheus.Labels{OutcomeLabel: outcome}).Inc()
		arns[u.Name] = arn

		if !u.Scheduled() {
			continue
		}

		logger.Info("allowing the scheduler to invoke the function")
		_, err = p.clients.Functions.AddPermission(ctx, &lambda.AddPermissionInput{
			FunctionName: aws.String(arn),
			StatementId:  aws.String(eventsStatementID),
			Action:       aws.String(invokeFunctionGrant),
			Principal:    aws.String(eventsPrincipal),
		})
		if err != nil && !isAlreadyExists(err) {
			return arns, err
		}

		if err := p.schedule(ctx, u, arn, endpoint); err != nil {
			return arns, err
		}
	}
	return arns, nil
}

// schedule puts the unit's rule and points it at the function. Both calls
// are upserts.
func (p *Provisioner) schedule(ctx context.Context, u unit.Definition, arn, endpoint string) error {
	name := FunctionName(p.config.Name, u.Name)
	logger := p.logger.With(zap.String("rule", name), zap.String("schedule", u.Schedule))

	payload, err := u.InputJSON(endpoint, p.config.Region, p.config.Name)
	if err != nil {
		return err
	}

	logger.Info("putting schedule rule")
	_, err = p.clients.Schedules.PutRule(ctx, &eventbridge.PutRuleInput{
		Name:               aws.String(name),
		ScheduleExpression: aws.String(u.Schedule),
		State:              ebtypes.RuleStateEnabled,
		Description:        aws.String(fmt.Sprintf("runs function %s on schedule %s", name, u.Schedule)),
	})
	if err != nil {
		return err
	}

	logger.Info("pointing schedule rule at function")
	out, err := p.clients.Schedules.PutTargets(ctx, &eventbridge.PutTargetsInput{
		Rule: aws.String(name),
		Targets: []ebtypes.Target{
			{Id: aws.String(targetID), Arn: aws.String(arn), Input: aws.String(payload)},
		},
	})
	if err != nil {
		return err
	}
	if out.FailedEntryCount > 0 {
		var reason string
		if len(out.FailedEntries) > 0 {
			reason = aws.ToString(out.FailedEntries[0].ErrorMessage)
		}
		return fmt.Errorf("%w: %s: %s", errTargetsRejected, name, reason)
	}
	return nil
}

// updateFunctions replaces the code of every unit's function and re-puts
// the schedules.
func (p *Provisioner) updateFunctions(ctx context.Context, endpoint string) error {
	for _, u := range p.config.Units {
		name := FunctionName(p.config.Name, u.Name)
		logger := p.logger.With(zap.String("function", name))

		code, err := p.packageCode(ctx, u)
		if err != nil {
			return err
		}

		logger.Info("updating function code")
		arn, err := p.updateCode(ctx, name, code)
		if err != nil {
			p.measures.Functions.With(prometheus.Labels{OutcomeLabel: FailureOutcome}).Inc()
			return fmt.Errorf("updating function %s: %w", name, err)
		}
		p.measures.Functions.With(prometheus.Labels{OutcomeLabel: UpdatedOutcome}).Inc()

		if u.Scheduled() {
			if err := p.schedule(ctx, u, arn, endpoint); err != nil {
				return err
			}
		}
	}
	return nil
}

// updateCode replaces the code of the named function and returns its ARN.
func (p *Provisioner) updateCode(ctx context.Context, name string, code *ltypes.FunctionCode) (string, error) {
	out, err := p.clients.Functions.UpdateFunctionCode(ctx, &lambda.UpdateFunctionCodeInput{
		FunctionName:    aws.String(name),
		ZipFile:         code.ZipFile,
		S3Bucket:        code.S3Bucket,
		S3Key:           code.S3Key,
		S3ObjectVersion: code.S3ObjectVersion,
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.FunctionArn), nil
}

// deleteFunctions removes every unit's target, rule and function.
func (p *Provisioner) deleteFunctions(ctx context.Context, t *teardown) {
	for _, u := range p.config.Units {
		name := FunctionName(p.config.Name, u.Name)

		_, err := p.clients.Schedules.RemoveTargets(ctx, &eventbridge.RemoveTargetsInput{
			Rule: aws.String(name),
			Ids:  []string{targetID},
		})
		t.record("rule_target", name, err)

		_, err = p.clients.Schedules.DeleteRule(ctx, &eventbridge.DeleteRuleInput{Name: aws.String(name)})
		t.record("rule", name, err)

		_, err = p.clients.Functions.DeleteFunction(ctx, &lambda.DeleteFunctionInput{FunctionName: aws.String(name)})
		t.record("function", name, err)
	}
}
