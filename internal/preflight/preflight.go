// Package preflight checks that the queues named by proxy events exist
// before a template is deployed.
//
// Only literal queue names are checked. Names given as intrinsic references
// resolve at deploy time and are reported as skipped.
package preflight

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/aws/aws-sdk-go-v2/service/sqs/types"

	"github.com/lex00/wetwire-apigw-go/internal/event"
)

// SQSAPI is the subset of the SQS client used by the checker.
type SQSAPI interface {
	GetQueueUrl(
		ctx context.Context,
		params *sqs.GetQueueUrlInput,
		optFns ...func(*sqs.Options),
	) (*sqs.GetQueueUrlOutput, error)
}

// Status is the outcome of checking one queue.
type Status string

const (
	StatusFound   Status = "found"
	StatusMissing Status = "missing"
	StatusSkipped Status = "skipped"
	StatusError   Status = "error"
)

// QueueCheck is the result for one queue name.
type QueueCheck struct {
	Queue  string `json:"queue,omitempty"`
	Events []int  `json:"events"`
	Status Status `json:"status"`
	URL    string `json:"url,omitempty"`
	Error  string `json:"error,omitempty"`
}

// Report collects the checks of one run.
type Report struct {
	Checks []QueueCheck `json:"checks"`
}

// OK reports whether every literal queue was found.
func (r Report) OK() bool {
	for _, c := range r.Checks {
		if c.Status == StatusMissing || c.Status == StatusError {
			return false
		}
	}
	return true
}

// Checker resolves queue names against SQS.
type Checker struct {
	api SQSAPI
	// AccountID, when set, is passed as QueueOwnerAWSAccountId.
	AccountID string
}

// New returns a checker over api.
func New(api SQSAPI) *Checker {
	return &Checker{api: api}
}

// NewFromConfig returns a checker using the default AWS credential chain.
func NewFromConfig(ctx context.Context, optFns ...func(*awsconfig.LoadOptions) error) (*Checker, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, optFns...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}
	return New(sqs.NewFromConfig(cfg)), nil
}

// CheckQueues looks up every distinct literal queue name of the SQS events.
// Each name is looked up once; the check lists the indexes of the events
// using it. Lookup failures other than a missing queue are recorded on the
// check rather than returned. A cancelled context stops the run.
func (c *Checker) CheckQueues(ctx context.Context, events []event.ProxyEvent) (*Report, error) {
	if c == nil || c.api == nil {
		return nil, errors.New("preflight: checker has no SQS client")
	}

	byQueue := make(map[string][]int)
	var skipped []int
	for i, ev := range events {
		if ev.ServiceName != event.ServiceSQS {
			continue
		}
		name, ok := ev.HTTP.QueueName.(string)
		if !ok || strings.TrimSpace(name) == "" {
			skipped = append(skipped, i)
			continue
		}
		byQueue[name] = append(byQueue[name], i)
	}

	names := make([]string, 0, len(byQueue))
	for name := range byQueue {
		names = append(names, name)
	}
	sort.Strings(names)

	report := &Report{}
	for _, name := range names {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		report.Checks = append(report.Checks, c.check(ctx, name, byQueue[name]))
	}
	if len(skipped) > 0 {
		report.Checks = append(report.Checks, QueueCheck{Events: skipped, Status: StatusSkipped})
	}
	return report, nil
}

func (c *Checker) check(ctx context.Context, name string, events []int) QueueCheck {
	input := &sqs.GetQueueUrlInput{QueueName: aws.String(name)}
	if c.AccountID != "" {
		input.QueueOwnerAWSAccountId = aws.String(c.AccountID)
	}

	check := QueueCheck{Queue: name, Events: events}
	out, err := c.api.GetQueueUrl(ctx, input)
	if err != nil {
		var notFound *types.QueueDoesNotExist
		if errors.As(err, &notFound) {
			check.Status = StatusMissing
			return check
		}
		check.Status = StatusError
		check.Error = err.Error()
		return check
	}

	check.Status = StatusFound
	check.URL = aws.ToString(out.QueueUrl)
	return check
}
