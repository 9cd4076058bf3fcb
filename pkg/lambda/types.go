package lambda

import (
	"context"
	"encoding/base64"

	"github.com/aws/aws-lambda-go/events"
	"github.com/sirupsen/logrus"

	"item-manager/internal/dispatch"
)

// Handler is the API Gateway proxy handler signature accepted by the
// Lambda runtime
type Handler func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error)

// DispatcherProvider resolves the dispatcher serving an invocation
type DispatcherProvider func(ctx context.Context) (*dispatch.Dispatcher, error)

// NewHandler adapts a dispatcher to the API Gateway proxy integration.
// The returned handler never reports an error to the runtime: every
// outcome is a proxy response.
func NewHandler(d *dispatch.Dispatcher) Handler {
	return NewLazyHandler(func(context.Context) (*dispatch.Dispatcher, error) {
		return d, nil
	})
}

// NewLazyHandler is NewHandler for a dispatcher resolved on each invocation
func NewLazyHandler(provider DispatcherProvider) Handler {
	return func(ctx context.Context, req events.APIGatewayProxyRequest) (events.APIGatewayProxyResponse, error) {
		d, err := provider(ctx)
		if err != nil {
			logrus.WithError(err).Error("Failed to initialize dispatcher")
			return ToProxyResponse(dispatch.Response{
				StatusCode: 500,
				Body:       `{"message":"Service unavailable"}`,
			}), nil
		}

		return ToProxyResponse(d.Dispatch(ctx, ToEvent(req))), nil
	}
}

// ToEvent converts an API Gateway request into a dispatcher event
func ToEvent(req events.APIGatewayProxyRequest) dispatch.Event {
	body := req.Body
	if req.IsBase64Encoded {
		if decoded, err := base64.StdEncoding.DecodeString(body); err == nil {
			body = string(decoded)
		}
	}

	return dispatch.Event{
		Body:      body,
		RequestID: req.RequestContext.RequestID,
	}
}

// ToProxyResponse converts a dispatcher response into an API Gateway response
func ToProxyResponse(resp dispatch.Response) events.APIGatewayProxyResponse {
	return events.APIGatewayProxyResponse{
		StatusCode: resp.StatusCode,
		Headers:    map[string]string{"Content-Type": "application/json"},
		Body:       resp.Body,
	}
}
