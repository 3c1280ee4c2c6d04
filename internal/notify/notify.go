// Package notify triggers the downstream step once new recordings land.
package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/lambda"
	"github.com/aws/aws-sdk-go-v2/service/lambda/types"
)

// Chainer is told how many recordings a run stored.
type Chainer interface {
	Trigger(ctx context.Context, uploaded int) error
}

type lambdaAPI interface {
	Invoke(ctx context.Context, params *lambda.InvokeInput, optFns ...func(*lambda.Options)) (*lambda.InvokeOutput, error)
}

// LambdaInvoker fires an asynchronous invocation of the next function.
type LambdaInvoker struct {
	client   lambdaAPI
	function string
}

// NewLambdaInvoker creates an invoker for the named function.
func NewLambdaInvoker(cfg aws.Config, function string) *LambdaInvoker {
	return &LambdaInvoker{client: lambda.NewFromConfig(cfg), function: function}
}

// Trigger invokes the function with an event invocation. The function
// reads the bucket itself, so no payload is sent.
func (l *LambdaInvoker) Trigger(ctx context.Context, uploaded int) error {
	if uploaded <= 0 {
		return nil
	}
	_, err := l.client.Invoke(ctx, &lambda.InvokeInput{
		FunctionName:   aws.String(l.function),
		InvocationType: types.InvocationTypeEvent,
		LogType:        types.LogTypeTail,
	})
	if err != nil {
		return fmt.Errorf("failed to invoke %s: %w", l.function, err)
	}
	return nil
}

// Nop is used when no downstream function is configured.
type Nop struct{}

func (Nop) Trigger(context.Context, int) error { return nil }
