// ttyd is a minimal interactive demo of the line discipline: it puts the
// controlling terminal into raw mode and wires one console line over
// stdin/stdout through the driver. With -pty it also wires an in-memory PTY
// pair into the driver: the replica side as a fully cooked line, and the
// master side as a forwarding-only line (PTYMasterBackends) whose reads and
// writes move raw bytes with no cooking, mirroring how a real PTY master
// only ever sees what the replica's line discipline already produced or
// consumed. No outside process can attach to that pair, and the demo loop
// itself only reads and writes the console line.
//
// Try typing a line and watch VERASE/VKILL/VEOF/echo happen in the driver
// rather than in the OS tty layer. Press ^D on an empty line, or type
// "quit", to exit; ^C goes through the driver's ISIG handling and does not
// exit.
//
// Grounded on kylelemons-goat/goat.go's flag-parsed raw-mode demo: put the
// real terminal in raw mode with a deferred restore, then loop reading
// chunks and acting on them.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"golang.org/x/sys/unix"

	"github.com/tty-core/ttydrv/backend"
	"github.com/tty-core/ttydrv/driver"
	"github.com/tty-core/ttydrv/internal/logging"
)

var withPTY = flag.Bool("pty", false, "also wire an in-memory PTY pair (replica and master lines) into the driver")

func main() {
	flag.Parse()

	restore, err := rawMode(int(os.Stdin.Fd()))
	if err != nil {
		log.Fatalf("rawterm: %s", err)
	}
	defer restore()

	console := backend.NewConsole(os.Stdin, os.Stdout, nil)

	revived := make(chan driver.Reply, 1)
	cfg := &driver.Config{
		RingCapacity:    256,
		ConsoleBackends: []backend.Ops{console},
		Revive:          func(r driver.Reply) { revived <- r },
		Notify:          func(int32) {},
		Logger:          logging.Default(),
	}

	if *withPTY {
		master, replica := backend.NewPTYPair(nil, nil)
		cfg.PTYMasterBackends = append(cfg.PTYMasterBackends, master)
		cfg.PTYBackends = append(cfg.PTYBackends, replica)
	}

	d := driver.New(cfg)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	requests := make(chan driver.Envelope)
	go d.Run(ctx, requests)

	call := func(req driver.Request) driver.Reply {
		reply := make(chan driver.Reply, 1)
		requests <- driver.Envelope{Request: req, Reply: reply}
		r := <-reply
		if r.Status == driver.StatusSuspend {
			r = <-revived
		}
		return r
	}

	call(driver.Request{Op: driver.OpOpen, Minor: driver.ConsMinorBase, ProcNr: 1})
	fmt.Fprintln(os.Stdout, "ttyd: console opened, type a line and press enter; ^D to quit")

	buf := make([]byte, 128)
	for {
		reply := call(driver.Request{Op: driver.OpRead, Minor: driver.ConsMinorBase, ProcNr: 1, Count: len(buf)})
		if reply.Status < 0 {
			if reply.Status == driver.StatusInterrupted {
				continue
			}
			break
		}
		if reply.Status == 0 {
			break // EOF: ^D on an empty line
		}
		line := string(reply.Data)
		if line == "quit\r\n" || line == "quit\n" {
			fmt.Fprint(os.Stdout, "Goodbye!\r\n")
			break
		}
		out := append([]byte("echo: "), reply.Data...)
		call(driver.Request{
			Op: driver.OpWrite, Minor: driver.ConsMinorBase, ProcNr: 1,
			Count: len(out), Data: out,
		})
	}

	call(driver.Request{Op: driver.OpClose, Minor: driver.ConsMinorBase, ProcNr: 1})
}

// rawMode puts fd into raw mode (no echo, no canonical processing — the
// line discipline above does that work instead) and returns a restore
// function, mirroring kylelemons-goat/termios.TermSettings.Raw/Reset.
func rawMode(fd int) (restore func(), err error) {
	orig, err := unix.IoctlGetTermios(fd, unix.TCGETS)
	if err != nil {
		return nil, err
	}
	raw := *orig
	raw.Iflag &^= unix.IGNBRK | unix.BRKINT | unix.PARMRK | unix.ISTRIP |
		unix.INLCR | unix.IGNCR | unix.ICRNL | unix.IXON
	raw.Oflag &^= unix.OPOST
	raw.Lflag &^= unix.ECHO | unix.ECHONL | unix.ICANON | unix.ISIG | unix.IEXTEN
	raw.Cflag &^= unix.CSIZE | unix.PARENB
	raw.Cflag |= unix.CS8
	raw.Cc[unix.VMIN] = 1
	raw.Cc[unix.VTIME] = 0

	if err := unix.IoctlSetTermios(fd, unix.TCSETS, &raw); err != nil {
		return nil, err
	}
	return func() {
		unix.IoctlSetTermios(fd, unix.TCSETS, orig)
	}, nil
}
