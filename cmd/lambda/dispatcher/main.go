package main

import (
	awslambda "github.com/aws/aws-lambda-go/lambda"

	"item-manager/pkg/lambda"
)

func main() {
	// The container is built on the first invocation and reused while the
	// instance stays warm
	awslambda.Start(lambda.GetConnectionManager().Handler())
}
