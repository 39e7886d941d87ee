/*
 * MIT License
 *
 * Copyright (c) 2024 Nicolas JUHEL
 *
 * Permission is hereby granted, free of charge, to any person obtaining a copy
 * of this software and associated documentation files (the "Software"), to deal
 * in the Software without restriction, including without limitation the rights
 * to use, copy, modify, merge, publish, distribute, sublicense, and/or sell
 * copies of the Software, and to permit persons to whom the Software is
 * furnished to do so, subject to the following conditions:
 *
 * The above copyright notice and this permission notice shall be included in all
 * copies or substantial portions of the Software.
 *
 * THE SOFTWARE IS PROVIDED "AS IS", WITHOUT WARRANTY OF ANY KIND, EXPRESS OR
 * IMPLIED, INCLUDING BUT NOT LIMITED TO THE WARRANTIES OF MERCHANTABILITY,
 * FITNESS FOR A PARTICULAR PURPOSE AND NONINFRINGEMENT. IN NO EVENT SHALL THE
 * AUTHORS OR COPYRIGHT HOLDERS BE LIABLE FOR ANY CLAIM, DAMAGES OR OTHER
 * LIABILITY, WHETHER IN AN ACTION OF CONTRACT, TORT OR OTHERWISE, ARISING FROM,
 * OUT OF OR IN CONNECTION WITH THE SOFTWARE OR THE USE OR OTHER DEALINGS IN THE
 * SOFTWARE.
 *
 *
 */

// Command flowd is the reference binary for the dataflow execution runtime:
// it wires the transport-module registry, a frozen service graph and the
// event dispatcher (optionally routing connection egress through the async
// loop) behind a small cobra CLI built on the module's cobra wrapper.
package main

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	libcrt "github.com/nabbar/flowd/certificates"
	libcbr "github.com/nabbar/flowd/cobra"
	libdsp "github.com/nabbar/flowd/dispatch"
	libdur "github.com/nabbar/flowd/duration"
	libegr "github.com/nabbar/flowd/egress"
	libgrf "github.com/nabbar/flowd/graph"
	liblog "github.com/nabbar/flowd/logger"
	loglvl "github.com/nabbar/flowd/logger/level"
	libreg "github.com/nabbar/flowd/registry"
	libsvl "github.com/nabbar/flowd/servlet"
	libtcp "github.com/nabbar/flowd/transport/tcp"
	libtls "github.com/nabbar/flowd/transport/tls"
	libver "github.com/nabbar/flowd/version"
	libvpr "github.com/nabbar/flowd/viper"
	spfcbr "github.com/spf13/cobra"
)

// Registry type codes for the reference binary's own module instances.
// These are local to cmd/flowd; the registry contract only requires
// the codes be unique within one Table.
const (
	codeTCP libreg.TypeCode = iota + 1
	codeTLS
)

// Injected at build time through -ldflags.
var (
	buildDate    = ""
	buildCommit  = ""
	buildRelease = "0.0.0"
)

var (
	flagListen    string
	flagTLSListen string
	flagTLSCert   string
	flagTLSKey    string
	flagMode      string
	flagWorkers   int
	flagIdleTTL   time.Duration
	flagAsync     bool
	flagConnTTL   time.Duration
	flagQueueCap  int
)

func main() {
	vrs := libver.NewVersion(
		libver.License_MIT,
		"flowd",
		"dataflow execution runtime reference service",
		buildDate,
		buildCommit,
		buildRelease,
		"",
		"flowd",
		struct{}{},
		0,
	)

	log := liblog.New(context.Background())
	log.SetLevel(loglvl.InfoLevel)

	app := libcbr.New()
	app.SetVersion(vrs)
	app.SetLogger(func() liblog.Logger { return log })
	app.SetViper(func() libvpr.Viper { return libvpr.New(context.Background(), func() liblog.Logger { return log }) })
	app.Init()

	app.AddFlagString(true, &flagListen, "listen", "l", ":8080", "tcp listen address for the primary transport instance")
	app.AddFlagString(true, &flagTLSListen, "tls-listen", "", "", "optional tls listen address; requires --tls-cert and --tls-key")
	app.AddFlagString(true, &flagTLSCert, "tls-cert", "", "", "PEM certificate file for --tls-listen")
	app.AddFlagString(true, &flagTLSKey, "tls-key", "", "", "PEM private key file for --tls-listen")
	app.AddFlagString(true, &flagMode, "mode", "m", "echo", "service graph to run: echo|sink")
	app.AddFlagInt(true, &flagWorkers, "workers", "w", libdsp.DefaultWorkers, "bounded worker pool size")
	app.AddFlagDuration(true, &flagIdleTTL, "idle-ttl", "", 0, "idle TTL handed to transport instances as argv (0 disables it)")
	app.AddFlagBool(true, &flagAsync, "async-egress", "", false, "defer every connection's output through the async egress loop")
	app.AddFlagDuration(true, &flagConnTTL, "egress-conn-ttl", "", time.Duration(libegr.DefaultConnTTL), "WAIT_CONN eviction TTL for the async egress loop")
	app.AddFlagInt(true, &flagQueueCap, "egress-queue", "", 0, "async egress loop message queue capacity (0 means the loop's default)")

	app.Cobra().RunE = func(_ *spfcbr.Command, _ []string) error {
		return run(log)
	}

	if err := app.Execute(); err != nil {
		log.Fatal("flowd exited with error", nil, err)
	}
}

// run builds the registry, service graph, dispatcher and (optionally) the
// async egress loop described by the parsed flags, starts them, and blocks
// until an interrupt or termination signal arrives.
func run(log liblog.Logger) error {
	svc, err := buildService(flagMode)
	if err != nil {
		return err
	}

	reg := libreg.NewTable()
	reg.SetLogger(func() liblog.Logger { return log })
	defer func() { _ = reg.Shutdown() }()

	argv := tcpArgv()
	if _, err = reg.Register(codeTCP, "flowd.tcp", libtcp.New("flowd.tcp"), 64, argv); err != nil {
		return err
	}

	if flagTLSListen != "" {
		tlsc, err := buildTLSConfig(flagTLSCert, flagTLSKey)
		if err != nil {
			return err
		}
		if _, err = reg.Register(codeTLS, "flowd.tls", libtls.New("flowd.tls", tlsc), 64, tlsArgv()); err != nil {
			return err
		}
	}

	var loop *libegr.Loop
	if flagAsync {
		loop = libegr.NewLoop(libegr.Config{
			ConnTTL:       libdur.ParseDuration(flagConnTTL),
			QueueCapacity: flagQueueCap,
		})
		loop.SetLogger(func() liblog.Logger { return log })
	}

	dsp, err := libdsp.New(reg, svc, servletsFor(flagMode), libdsp.Config{
		Workers: flagWorkers,
		Egress:  loop,
	})
	if err != nil {
		return err
	}
	dsp.SetLogger(func() liblog.Logger { return log })

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	defer stop()

	if loop != nil {
		if err = loop.Start(ctx); err != nil {
			return err
		}
	}
	if err = dsp.Start(ctx); err != nil {
		return err
	}

	log.Info("flowd listening", nil, flagListen)
	<-ctx.Done()

	shutdown, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	_ = dsp.Stop(shutdown)
	if loop != nil {
		_ = loop.Stop(shutdown)
	}
	return nil
}

// buildService compiles the frozen graph.Service for the named reference
// mode: "echo" is a single Echo node bound as both the entry and
// exit; "sink" pairs a Sink entry with a Null exit so a connection handler
// that never writes back still satisfies a Service's structural
// input/output requirement.
func buildService(mode string) (*libgrf.Service, error) {
	b := libgrf.NewServiceBuffer()

	switch mode {
	case "echo":
		n, err := b.AddNode(libsvl.NewEcho("flowd.servlet.echo"), nil)
		if err != nil {
			return nil, err
		}
		if err = b.SetInput(n, "in"); err != nil {
			return nil, err
		}
		if err = b.SetOutput(n, "out"); err != nil {
			return nil, err
		}
	case "sink":
		in, err := b.AddNode(libsvl.NewSink("flowd.servlet.sink"), nil)
		if err != nil {
			return nil, err
		}
		out, err := b.AddNode(libsvl.NewNull("flowd.servlet.null"), nil)
		if err != nil {
			return nil, err
		}
		if err = b.SetInput(in, "in"); err != nil {
			return nil, err
		}
		if err = b.SetOutput(out, "out"); err != nil {
			return nil, err
		}
	default:
		return nil, ErrorUnknownMode.Error()
	}

	return libgrf.Freeze(b)
}

// servletsFor returns the node-id -> Servlet binding matching buildService's
// wiring for the same mode.
func servletsFor(mode string) map[int]libsvl.Servlet {
	switch mode {
	case "sink":
		return map[int]libsvl.Servlet{
			0: libsvl.NewSink("flowd.servlet.sink"),
			1: libsvl.NewNull("flowd.servlet.null"),
		}
	default:
		return map[int]libsvl.Servlet{
			0: libsvl.NewEcho("flowd.servlet.echo"),
		}
	}
}

func tcpArgv() []string {
	argv := []string{flagListen}
	if flagIdleTTL > 0 {
		argv = append(argv, libdur.ParseDuration(flagIdleTTL).String())
	}
	return argv
}

func tlsArgv() []string {
	argv := []string{flagTLSListen}
	if flagIdleTTL > 0 {
		// argv[1] is the optional SNI server name, argv[2] the idle TTL.
		argv = append(argv, "", libdur.ParseDuration(flagIdleTTL).String())
	}
	return argv
}

func buildTLSConfig(certFile, keyFile string) (libcrt.TLSConfig, error) {
	if certFile == "" || keyFile == "" {
		return nil, ErrorInvalidArgument.Error()
	}
	tlsc := libcrt.New()
	if err := tlsc.AddCertificatePairFile(keyFile, certFile); err != nil {
		return nil, ErrorTLSConfig.Error(err)
	}
	return tlsc, nil
}
