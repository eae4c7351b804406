// Command nalixd runs a framed TCP connection hub: accepts connections,
// applies the idle-timeout reaper, and dispatches decoded packets to a
// simple echo handler.
package main

import (
	"context"
	"flag"
	"net"
	"os"
	"os/signal"
	"syscall"

	"github.com/golang/glog"

	"github.com/nalix-go/nalix/alloc"
	"github.com/nalix-go/nalix/config"
	"github.com/nalix-go/nalix/envelope"
	"github.com/nalix-go/nalix/hub"
	"github.com/nalix-go/nalix/packet"
	"github.com/nalix-go/nalix/wheel"
	"github.com/nalix-go/nalix/xnet"
)

func main() {
	addr := flag.String("listen", ":7070", "TCP address to listen on")
	confPath := flag.String("config", "", "path to an INI config file (optional, defaults applied otherwise)")
	flag.Parse()

	cfg := config.Default()
	if *confPath != "" {
		loaded, err := config.Load(*confPath)
		if err != nil {
			glog.Fatalf("nalixd: failed to load config: %v", err)
		}
		cfg = loaded
	}

	allocator := alloc.New(cfg.StackAllocLimit, cfg.HeapAllocLimit,
		alloc.WithSweepIntervals(cfg.CleanupIntervalMs, cfg.UnusedThresholdMs),
		alloc.WithTraceLogs(cfg.EnableTraceLogs),
	)
	defer allocator.Stop()

	codec := packet.NewCodec(allocator, cfg.PacketSizeLimit, cfg.CompressMinBytes)
	w := wheel.New(cfg.TickDurationMs, cfg.WheelSize, cfg.TcpIdleTimeoutMs, nil, wheel.WithTraceLogs(cfg.EnableTraceLogs))
	w.Activate()
	defer w.Deactivate()

	h := hub.New(cfg.HubConfig(), w)

	ln, err := net.Listen("tcp", *addr)
	if err != nil {
		glog.Fatalf("nalixd: listen on %s: %v", *addr, err)
	}
	glog.Infof("nalixd: listening on %s", ln.Addr())

	ctx, cancel := context.WithCancel(context.Background())
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		glog.Info("nalixd: shutting down")
		cancel()
		h.Dispose()
	}()

	listenerCfg := xnet.ListenerConfig{
		Codec:          codec,
		Hub:            h,
		Wheel:          w,
		SendQueueDepth: 64,
		Algorithm:      envelope.ChaCha20,
		Handle:         echoHandler(codec),
	}
	if err := xnet.Serve(ctx, ln, listenerCfg); err != nil {
		glog.Errorf("nalixd: serve error: %v", err)
	}
}

// echoHandler replies to every inbound packet with the same payload,
// bumping its packet number by one.
func echoHandler(codec *packet.Codec) xnet.Handler {
	return func(_ context.Context, conn *xnet.Conn, hc *hub.Connection, p *packet.Packet) error {
		reply, err := codec.NewChecksummed(p.OpCode(), p.Number()+1, p.Timestamp(), p.Type(), packet.Flags(0), p.Priority(), p.Payload())
		p.Release()
		if err != nil {
			return err
		}
		if err := conn.Send(reply); err != nil {
			glog.Warningf("nalixd: failed to echo to connection %d: %v", hc.ID(), err)
		}
		return nil
	}
}
