package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sts"
	"github.com/aws/aws-sdk-go-v2/service/sts/types"
)

// DefaultSessionDuration is the lifetime requested for assumed-role credentials.
const DefaultSessionDuration = 3600 // seconds

type stsAPI interface {
	AssumeRole(ctx context.Context, params *sts.AssumeRoleInput, optFns ...func(*sts.Options)) (*sts.AssumeRoleOutput, error)
}

// AssumeRoleProvider fetches bucket credentials by assuming roleArn. The
// session is tagged with the sync job so bucket policies can scope access.
type AssumeRoleProvider struct {
	client          stsAPI
	roleArn         string
	job             string
	durationSeconds int32
}

// NewAssumeRoleProvider returns a cached credentials provider for the role.
func NewAssumeRoleProvider(client *sts.Client, roleArn, job string) (aws.CredentialsProvider, error) {
	if roleArn == "" {
		return nil, errors.New("role ARN cannot be empty")
	}
	return aws.NewCredentialsCache(&AssumeRoleProvider{
		client:          client,
		roleArn:         roleArn,
		job:             job,
		durationSeconds: DefaultSessionDuration,
	}), nil
}

// Retrieve implements aws.CredentialsProvider.
func (p *AssumeRoleProvider) Retrieve(ctx context.Context) (aws.Credentials, error) {
	// Session name must be unique enough to trace in CloudTrail
	sessionName := fmt.Sprintf("%s-session-%d", p.job, time.Now().Unix())

	out, err := p.client.AssumeRole(ctx, &sts.AssumeRoleInput{
		RoleArn:         aws.String(p.roleArn),
		RoleSessionName: aws.String(sessionName),
		Tags: []types.Tag{
			{
				Key:   aws.String("sync_job"),
				Value: aws.String(p.job),
			},
		},
		DurationSeconds: aws.Int32(p.durationSeconds),
	})
	if err != nil {
		return aws.Credentials{}, fmt.Errorf("failed to assume role %s: %w", p.roleArn, err)
	}
	if out.Credentials == nil {
		return aws.Credentials{}, fmt.Errorf("assume role %s returned no credentials", p.roleArn)
	}

	return aws.Credentials{
		AccessKeyID:     aws.ToString(out.Credentials.AccessKeyId),
		SecretAccessKey: aws.ToString(out.Credentials.SecretAccessKey),
		SessionToken:    aws.ToString(out.Credentials.SessionToken),
		Source:          "AssumeRoleProvider",
		CanExpire:       true,
		Expires:         aws.ToTime(out.Credentials.Expiration),
	}, nil
}
