// Package dispatch schedules fire-and-forget background work. Tasks are
// delivered as HTTP callbacks into the service; failures surface only in
// logs and audit records, never to the caller that queued the task.
package dispatch

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"

	cloudtasks "cloud.google.com/go/cloudtasks/apiv2"
	"cloud.google.com/go/cloudtasks/apiv2/cloudtaskspb"
	"github.com/googleapis/gax-go/v2"
)

type TaskDispatcher func(ctx context.Context, req *cloudtaskspb.CreateTaskRequest, opts ...gax.CallOption) error

func NewCloudTaskDispatcher(
	client *cloudtasks.Client,
) TaskDispatcher {
	return func(ctx context.Context, req *cloudtaskspb.CreateTaskRequest, opts ...gax.CallOption) error {
		_, err := client.CreateTask(ctx, req)
		return err
	}
}

// NewLocalDispatcher executes the task inline over plain HTTP. For dev
// and tests.
func NewLocalDispatcher() TaskDispatcher {
	return func(ctx context.Context, req *cloudtaskspb.CreateTaskRequest, opts ...gax.CallOption) error {
		httpreq := req.Task.GetHttpRequest()

		htreq, err := http.NewRequestWithContext(ctx, http.MethodPost, httpreq.GetUrl(), bytes.NewBuffer(httpreq.Body))
		if err != nil {
			return err
		}
		htreq.Header.Set("Content-Type", "application/json")
		_, err = http.DefaultClient.Do(htreq)

		return err
	}
}

// NewJSONTask builds an HTTP task posting a JSON payload to url.
func NewJSONTask(queuePath string, url string, payload any) (*cloudtaskspb.CreateTaskRequest, error) {
	content, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}

	return &cloudtaskspb.CreateTaskRequest{
		Parent: queuePath,
		Task: &cloudtaskspb.Task{
			MessageType: &cloudtaskspb.Task_HttpRequest{
				HttpRequest: &cloudtaskspb.HttpRequest{
					Url:        url,
					HttpMethod: cloudtaskspb.HttpMethod_POST,
					Headers: map[string]string{
						"Content-Type": "application/json",
					},
					Body: content,
				},
			},
		},
	}, nil
}
