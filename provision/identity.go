// SPDX-FileCopyrightText: 2021 Comcast Cable Communications Management, LLC
// SPDX-License-Identifier: Apache-2.0

package provision

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/iam"
	iamtypes "github.com/aws/aws-sdk-go-v2/service/iam/types"
	"go.uber.org/zap"
)

// ensureRole creates the function policy and role and attaches them.
// Existing ones are reused. The role ARN is returned.
func (p *Provisioner) ensureRole(ctx context.Context) (string, error) {
	var (
		policyName = PolicyName(p.config.Name)
		roleName   = RoleName(p.config.Name)
		logger     = p.logger.With(zap.String("role", roleName), zap.String("policy", policyName))
	)

	document, err := FunctionPolicy()
	if err != nil {
		return "", err
	}
	trust, err := TrustPolicy()
	if err != nil {
		return "", err
	}

	logger.Info("creating function policy")
	var policyARN string
	policy, err := p.clients.Identity.CreatePolicy(ctx, &iam.CreatePolicyInput{
		PolicyName:     aws.String(policyName),
		PolicyDocument: aws.String(document),
		Description: aws.String(fmt.Sprintf(
			"Policy created for search domain '%s' giving functions access to the metrics they process", p.config.Name)),
	})
	switch {
	case err == nil && policy.Policy != nil:
		policyARN = aws.ToString(policy.Policy.Arn)
	case err == nil:
		return "", fmt.Errorf(errWrappedFmt, errMissingArn, policyName)
	case isAlreadyExists(err):
		logger.Info("function policy already exists, reusing it")
		if policyARN, err = p.findPolicy(ctx, policyName); err != nil {
			return "", err
		}
	default:
		return "", err
	}

	logger.Info("creating function role")
	var roleARN string
	role, err := p.clients.Identity.CreateRole(ctx, &iam.CreateRoleInput{
		RoleName:                 aws.String(roleName),
		AssumeRolePolicyDocument: aws.String(trust),
	})
	switch {
	case err == nil && role.Role != nil:
		roleARN = aws.ToString(role.Role.Arn)
	case err == nil:
		return "", fmt.Errorf(errWrappedFmt, errMissingArn, roleName)
	case isAlreadyExists(err):
		logger.Info("function role already exists, reusing it")
		existing, err := p.clients.Identity.GetRole(ctx, &iam.GetRoleInput{RoleName: aws.String(roleName)})
		if err != nil {
			return "", err
		}
		if existing.Role == nil {
			return "", fmt.Errorf(errWrappedFmt, errMissingArn, roleName)
		}
		roleARN = aws.ToString(existing.Role.Arn)
	default:
		return "", err
	}

	logger.Info("attaching function policy to role")
	_, err = p.clients.Identity.AttachRolePolicy(ctx, &iam.AttachRolePolicyInput{
		RoleName:  aws.String(roleName),
		PolicyArn: aws.String(policyARN),
	})
	if err != nil {
		return "", err
	}
	return roleARN, nil
}

// findPolicy looks the customer managed policy up by name.
func (p *Provisioner) findPolicy(ctx context.Context, name string) (string, error) {
	pages := iam.NewListPoliciesPaginator(p.clients.Identity, &iam.ListPoliciesInput{
		Scope: iamtypes.PolicyScopeTypeLocal,
	})
	for pages.HasMorePages() {
		page, err := pages.NextPage(ctx)
		if err != nil {
			return "", err
		}
		for _, policy := range page.Policies {
			if aws.ToString(policy.PolicyName) == name {
				return aws.ToString(policy.Arn), nil
			}
		}
	}
	return "", fmt.Errorf("%w: policy %s", ErrNotFound, name)
}

// deleteIdentity removes the role and policy, recording every failure.
func (p *Provisioner) deleteIdentity(ctx context.Context, t *teardown) {
	var (
		policyName = PolicyName(p.config.Name)
		roleName   = RoleName(p.config.Name)
	)

	policyARN, err := p.findPolicy(ctx, policyName)
	if err != nil {
		t.record("policy", policyName, err)
	} else {
		t.record("role_policy_attachment", roleName, p.detach(ctx, roleName, policyARN))
	}

	_, err = p.clients.Identity.DeleteRole(ctx, &iam.DeleteRoleInput{RoleName: aws.String(roleName)})
	t.record("role", roleName, err)

	if policyARN != "" {
		_, err = p.clients.Identity.DeletePolicy(ctx, &iam.DeletePolicyInput{PolicyArn: aws.String(policyARN)})
		t.record("policy", policyName, err)
	}
}

func (p *Provisioner) detach(ctx context.Context, roleName, policyARN string) error {
	_, err := p.clients.Identity.DetachRolePolicy(ctx, &iam.DetachRolePolicyInput{
		RoleName:  aws.String(roleName),
		PolicyArn: aws.String(policyARN),
	})
	return err
}
