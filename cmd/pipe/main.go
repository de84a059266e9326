// Command pipe reads a stream of decoded Teletext packets (42-byte t42
// records) from stdin and applies one post-processing stage: squash,
// paginate, or render. Several invocations can be chained with shell pipes
// the way teletext/t42/cli.py's subcommands are, one stage per process.
package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/pflag"

	"github.com/doismellburning/teletext/teletext"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "pipe:", err)
		os.Exit(1)
	}
}

func run() error {
	squashN := pflag.Int("squash", 1, "number of consecutive packets to merge per group (squash stage)")
	pflag.Parse()

	args := pflag.Args()
	if len(args) == 0 {
		return fmt.Errorf("usage: pipe <squash|paginate|render> [--squash N]")
	}

	switch args[0] {
	case "squash":
		return cmdSquash(*squashN)
	case "paginate":
		return cmdPaginate()
	case "render":
		return cmdRender()
	default:
		return fmt.Errorf("unknown stage %q", args[0])
	}
}

func readPackets(r io.Reader) ([]teletext.Packet, error) {
	br := bufio.NewReader(r)
	var out []teletext.Packet

	for {
		var buf [teletext.PacketSize]byte
		_, err := io.ReadFull(br, buf[:])
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return nil, err
		}
		// A malformed packet still decodes to a RawPacket, which is kept so
		// later stages can count it.
		pkt, _ := teletext.NewPacketFromBytes(buf)
		out = append(out, pkt)
	}
}

func cmdSquash(n int) error {
	packets, err := readPackets(os.Stdin)
	if err != nil {
		return err
	}

	for _, group := range teletext.RowSquash(packets, n) {
		if _, err := os.Stdout.Write(group.Bytes[:]); err != nil {
			return err
		}
	}
	return nil
}

func cmdPaginate() error {
	packets, err := readPackets(os.Stdin)
	if err != nil {
		return err
	}

	pages := teletext.Paginate(packets)
	for _, p := range pages {
		fmt.Printf("magazine %d page %s.%s (%d rows)\n",
			p.Magazine, p.Header.PageStr(), p.Header.SubpageStr(), len(p.Rows))
	}
	return nil
}

func cmdRender() error {
	packets, err := readPackets(os.Stdin)
	if err != nil {
		return err
	}

	for _, p := range packets {
		fmt.Println(p.ToANSI(false))
	}
	return nil
}
