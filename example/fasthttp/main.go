package main

import (
	"fmt"

	astrolog "github.com/Contykpo/AstroLogger"
	"github.com/Contykpo/AstroLogger/compat"
	"github.com/valyala/fasthttp"
)

func main() {
	logger, err := astrolog.NewBuilder().
		Name("fasthttp").
		LogsDirectory("./fasthttp_logs").
		CrashesDirectory("./fasthttp_crashes").
		Template("%d %s-u [%g] %m").
		Build()
	if err != nil {
		panic(err)
	}
	defer logger.Close()

	adapter, err := compat.NewBuilder().WithLogger(logger).FastHTTP(
		compat.WithDefaultSeverity(astrolog.SeverityInfo),
	)
	if err != nil {
		panic(err)
	}

	server := &fasthttp.Server{
		Handler: func(ctx *fasthttp.RequestCtx) {
			logger.Info("request", string(ctx.Path()))
			fmt.Fprintf(ctx, "hello from astrolog\n")
		},
		Logger: adapter,
	}

	logger.Info("listening on :8080")
	if err := server.ListenAndServe(":8080"); err != nil {
		logger.Error("server stopped", err)
	}
}
