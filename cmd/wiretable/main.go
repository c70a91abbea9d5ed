// Command wiretable prints the message attribute registry and can probe a
// running server for the frames it sends.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rs/zerolog"

	"github.com/ZentaChain/mirlink/pkg/config"
	"github.com/ZentaChain/mirlink/pkg/logging"
	"github.com/ZentaChain/mirlink/pkg/network"
	"github.com/ZentaChain/mirlink/pkg/protocol"
)

func main() {
	asJSON := flag.Bool("json", false, "Print the registry as JSON")
	code := flag.String("code", "", "Resolve a single code (decimal or 0x hex)")
	fingerprintOnly := flag.Bool("fingerprint", false, "Print only the registry fingerprint")
	probe := flag.String("probe", "", "Dial a server (host:port or multiaddr) and print received frames")
	duration := flag.Duration("duration", 10*time.Second, "How long to probe")
	flag.Parse()

	registry := protocol.Default()
	var err error

	switch {
	case *fingerprintOnly:
		fmt.Println(registry.Fingerprint().Hex())
	case *code != "":
		err = writeLookup(os.Stdout, registry, *code)
	case *probe != "":
		err = runProbe(*probe, *duration)
	case *asJSON:
		err = writeJSON(os.Stdout, registry)
	default:
		err = writeTable(os.Stdout, registry)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "wiretable: %v\n", err)
		os.Exit(1)
	}
}

func writeTable(w io.Writer, r *protocol.Registry) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "CODE\tNAME\tCLASS\tSIZE")
	for _, e := range r.Entries() {
		size := strconv.Itoa(e.Size)
		if e.Class == protocol.VariablePlain {
			size = "var"
		}
		fmt.Fprintf(tw, "0x%02x\t%s\t%s\t%s\n", uint8(e.Kind), e.Name, e.Class, size)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	_, err := fmt.Fprintf(w, "\nfingerprint %s\n", r.Fingerprint().Hex())
	return err
}

type jsonEntry struct {
	Code  uint8  `json:"code"`
	Name  string `json:"name"`
	Class string `json:"class"`
	Size  int    `json:"size"`
}

func writeJSON(w io.Writer, r *protocol.Registry) error {
	out := struct {
		Fingerprint string      `json:"fingerprint"`
		Entries     []jsonEntry `json:"entries"`
	}{Fingerprint: r.Fingerprint().Hex()}

	for _, e := range r.Entries() {
		out.Entries = append(out.Entries, jsonEntry{
			Code:  uint8(e.Kind),
			Name:  e.Name,
			Class: e.Class.String(),
			Size:  e.Size,
		})
	}

	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(out)
}

func writeLookup(w io.Writer, r *protocol.Registry, raw string) error {
	code, err := protocol.ParseCode(raw)
	if err != nil {
		return err
	}

	attr := r.Lookup(code)
	note := ""
	if !r.Registered(code) {
		note = " (unregistered, falls back)"
	}
	_, err = fmt.Fprintf(w, "0x%02x %s%s -> %s %s size=%d\n",
		code, protocol.Kind(code), note, attr.Name, attr.Class, attr.Size)
	return err
}

func runProbe(target string, d time.Duration) error {
	log := logging.Configure("wiretable", logging.Options{})

	_, addr, err := config.ResolveListen(target)
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	ctx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	dispatcher := network.NewDispatcher(log)
	for _, e := range protocol.Default().Entries() {
		if e.Kind == protocol.KindNone {
			continue
		}
		dispatcher.Handle(e.Kind, printFrame(log))
	}

	client, err := network.Dial(ctx, addr, nil, dispatcher, network.LinkOptions{Logger: log})
	if err != nil {
		return err
	}
	defer client.Close()

	log.Info().Str("addr", addr).Dur("duration", d).Msg("probing")
	if err := client.SendPayload(&protocol.Ping{Tick: uint32(time.Now().UnixMilli())}); err != nil {
		return err
	}

	if err := client.Run(ctx); err != nil && !errors.Is(err, context.DeadlineExceeded) && !errors.Is(err, context.Canceled) {
		return err
	}
	return nil
}

func printFrame(log zerolog.Logger) network.HandlerFunc {
	return func(_ *network.Link, m *protocol.Message) error {
		event := log.Info().Str("kind", m.Attr.Name).Int("body", len(m.Body))
		if p, err := m.Payload(); err == nil {
			event = event.Interface("payload", p)
		}
		event.Msg("frame")
		return nil
	}
}
