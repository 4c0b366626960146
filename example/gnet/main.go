package main

import (
	"fmt"

	astrolog "github.com/Contykpo/AstroLogger"
	"github.com/Contykpo/AstroLogger/compat"
	"github.com/panjf2000/gnet/v2"
)

// Example gnet event handler
type echoServer struct {
	gnet.BuiltinEventEngine
}

func (es *echoServer) OnTraffic(c gnet.Conn) gnet.Action {
	buf, _ := c.Next(-1)
	c.Write(buf)
	return gnet.None
}

func main() {
	logger, err := astrolog.NewBuilder().
		Name("gnet").
		LogsDirectory("./gnet_logs").
		CrashesDirectory("./gnet_crashes").
		MinSeverity("Debug").
		Build()
	if err != nil {
		panic(err)
	}
	defer logger.Close()

	adapter, err := compat.NewBuilder().WithLogger(logger).Gnet()
	if err != nil {
		panic(err)
	}

	err = gnet.Run(
		&echoServer{},
		"tcp://127.0.0.1:9000",
		gnet.WithLogger(adapter),
		gnet.WithMulticore(true),
	)
	if err != nil {
		fmt.Println("server stopped:", err)
	}
}
