package main

import (
	"net/http"
	"os"
	"time"

	"github.com/kyeom/newsdeck/app"
	"github.com/kyeom/newsdeck/config"
	"github.com/kyeom/newsdeck/lib"
	"github.com/kyeom/newsdeck/lib/retention"
	"github.com/kyeom/newsdeck/push"
	"github.com/kyeom/newsdeck/senders"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func NewLogger() (*zap.Logger, error) {
	switch os.Getenv("ENVIRONMENT") {
	default:
		return zap.NewDevelopment()

	case "production":
		logCfg := zap.NewProductionConfig()
		logCfg.EncoderConfig.EncodeTime = func(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
			t = t.UTC()
			zapcore.ISO8601TimeEncoder(t, enc)
		}
		return logCfg.Build()
	}
}

func main() {
	fx.New(
		fx.Provide(NewLogger),
		fx.Provide(config.NewConfig),

		fx.Provide(app.NewDatabase),
		fx.Provide(app.NewTransport),
		fx.Provide(push.NewProvider),
		fx.Provide(senders.NewSenderRegistry),
		fx.Provide(retention.NewWorker),
		fx.Provide(lib.NewService),
		fx.Provide(app.NewAPI),

		fx.Invoke(func(*retention.Worker) {}),
		fx.Invoke(func(*http.Server) {}),
	).Run()
}
