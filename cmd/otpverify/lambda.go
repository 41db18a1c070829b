package main

import (
	"context"

	"github.com/aws/aws-lambda-go/events"
	"github.com/aws/aws-lambda-go/lambda"
	ginadapter "github.com/awslabs/aws-lambda-go-api-proxy/gin"
	"github.com/gin-gonic/gin"
	"github.com/xxxsen/common/logutil"

	"github.com/xxxsen/otpverify/internal/config"
	"github.com/xxxsen/otpverify/internal/handler"
	"github.com/xxxsen/otpverify/internal/middleware"
)

type lambdaHandler func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error)

func runLambda(cfg *config.Config) error {
	ctx := context.Background()
	a, err := newApp(ctx, cfg)
	if err != nil {
		return err
	}
	defer a.close()
	// the retention scheduler is not started: instances are frozen between invocations
	logutil.GetLogger(ctx).Info("lambda handler ready")
	lambda.Start(newLambdaHandler(a.deps, cfg.CORSAllowlist))
	return nil
}

func newLambdaHandler(deps handler.RouterDeps, corsAllowlist []string) lambdaHandler {
	engine := gin.New()
	engine.Use(gin.Recovery(), middleware.RequestID(), middleware.CORS(corsAllowlist))
	handler.RegisterRoutes(engine.Group("/api/v1"), deps)
	adapter := ginadapter.NewV2(engine)
	return func(ctx context.Context, req events.APIGatewayV2HTTPRequest) (events.APIGatewayV2HTTPResponse, error) {
		return adapter.ProxyWithContext(ctx, req)
	}
}
