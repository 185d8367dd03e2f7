// Binary db-backend is the replay engine's DAP server entrypoint (spec
// §6): args `[socket-path]`, flag `--stdio` selects the stdio transport.
// Exit code 0 when the peer closes the stream, non-zero when the transport
// cannot be set up or fails. A trace that fails to load is reported in the
// launch response and does not end the process.
package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/google/go-dap"
	"github.com/spf13/cobra"

	"github.com/codetracer/db-backend/internal/dapcodec"
	"github.com/codetracer/db-backend/internal/dapproto"
	"github.com/codetracer/db-backend/internal/handler"
	"github.com/codetracer/db-backend/internal/transport"
)

var (
	version  = "dev"
	useStdio bool
	repl     bool
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "db-backend [socket-path]",
	Short: "CodeTracer replay engine DAP server",
	Args:  cobra.MaximumNArgs(1),
	RunE:  run,
}

func init() {
	rootCmd.Flags().BoolVar(&useStdio, "stdio", false, "serve DAP messages on stdin/stdout instead of a socket")
	rootCmd.Flags().BoolVar(&repl, "repl", false, "open an interactive request REPL instead of serving a transport")
	rootCmd.Version = version
}

func run(cmd *cobra.Command, args []string) error {
	if repl {
		if len(args) != 1 {
			return fmt.Errorf("--repl requires a trace directory argument")
		}
		return runREPL(args[0])
	}

	pid := transport.CallerPID()
	runDir, err := transport.NewRunDir(pid)
	if err != nil {
		return fmt.Errorf("create run dir: %w", err)
	}

	var stream transport.Stream
	var socketPath string
	if useStdio {
		stream = transport.Stdio()
	} else {
		socketPath = transport.SocketPath("db-backend", pid)
		if len(args) == 1 {
			socketPath = args[0]
		}
		ln, err := transport.ListenUnix(socketPath)
		if err != nil {
			return fmt.Errorf("listen on %s: %w", socketPath, err)
		}
		defer ln.Close()
		defer transport.Remove(socketPath)

		s, err := transport.AcceptStream(ln)
		if err != nil {
			return fmt.Errorf("accept connection: %w", err)
		}
		stream = s
	}
	defer stream.Close()

	return serve(stream, runDir)
}

// serve drives the single-threaded dispatcher loop spec §5 describes: read
// one framed message, handle it to completion, write every response and
// event it produced, then return to read (spec §5 "Scheduling"). runDir
// persists every request's arguments and every emitted event, per spec
// §4.2a.
func serve(stream io.ReadWriter, runDir *transport.RunDir) error {
	h := handler.New()
	h.UseRunDir(runDir)
	codec := dapcodec.New()
	writer := dapcodec.NewWriter(stream)

	buf := make([]byte, 4096)
	for {
		n, err := stream.Read(buf)
		if n > 0 {
			payloads, ferr := codec.Feed(buf[:n])
			if ferr != nil {
				fmt.Fprintln(os.Stderr, "framing error:", ferr)
			}
			for _, payload := range payloads {
				env, derr := dapcodec.DecodeMessage(payload)
				if derr != nil {
					fmt.Fprintln(os.Stderr, "decode error:", derr)
					continue
				}
				responses, events := h.Handle(env)
				for _, r := range responses {
					if werr := writer.Write(r); werr != nil {
						return werr
					}
				}
				for _, e := range events {
					if werr := writer.Write(e); werr != nil {
						return werr
					}
				}
			}
		}
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
	}
}

// replCommands are the friendly words spec §6's --repl exposes, mapped to
// the DAP command each one drives through the same Handler the real
// transport uses; "break" takes one <path>:<line> argument and "search"
// takes the rest of the line as its query.
var replCommands = []string{
	"next", "back", "into", "out", "continue", "reverse-continue",
	"locals", "flow", "where", "break", "search", "quit",
}

// runREPL drives a Handler against traceDir from a chzyer/readline prompt,
// grounded on pkg/debugger/debugger.go's Run loop: a readline.Config with a
// PrefixCompleter built from the command list, strings.Fields to split the
// typed line, and a switch over the first word. Every command is relayed as
// a DAP request through the same Handler.Handle the real transport drives,
// so the REPL exercises exactly the dispatcher's behavior, not a shortcut
// around it.
func runREPL(traceDir string) error {
	completer := readline.NewPrefixCompleter()
	for _, c := range replCommands {
		completer.Children = append(completer.Children, readline.PcItem(c))
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          "db-backend> ",
		AutoComplete:    completer,
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return fmt.Errorf("init readline: %w", err)
	}
	defer rl.Close()

	h := handler.New()
	var seq int64

	send := func(command string, arguments any) {
		var raw json.RawMessage
		if arguments != nil {
			data, err := json.Marshal(arguments)
			if err != nil {
				fmt.Println("error:", err)
				return
			}
			raw = data
		}
		seq++
		env := dapcodec.Envelope{Seq: seq, Type: "request", Command: command, Arguments: raw}
		responses, events := h.Handle(env)
		for _, r := range responses {
			fmt.Printf("%+v\n", r)
		}
		for _, e := range events {
			fmt.Printf("%+v\n", e)
		}
	}

	send("initialize", nil)
	send("launch", dapproto.LaunchArguments{TraceDirectory: traceDir})
	send("configurationDone", nil)

	for {
		line, err := rl.Readline()
		if err != nil {
			return nil
		}
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		parts := strings.Fields(line)

		switch parts[0] {
		case "next":
			send("next", nil)
		case "back":
			send("stepBack", nil)
		case "into":
			send("stepIn", nil)
		case "out":
			send("stepOut", nil)
		case "continue":
			send("continue", nil)
		case "reverse-continue":
			send("reverseContinue", nil)
		case "locals":
			send("variables", nil)
		case "flow":
			send("ct/flow", nil)
		case "where":
			send("stackTrace", nil)
		case "break":
			pathLine := strings.SplitN(strings.Join(parts[1:], ""), ":", 2)
			if len(parts) != 2 || len(pathLine) != 2 {
				fmt.Println("usage: break <path>:<line>")
				continue
			}
			lineNum, err := strconv.Atoi(pathLine[1])
			if err != nil {
				fmt.Println("invalid line:", pathLine[1])
				continue
			}
			send("setBreakpoints", dap.SetBreakpointsArguments{
				Source:      dap.Source{Path: pathLine[0]},
				Breakpoints: []dap.SourceBreakpoint{{Line: lineNum}},
			})
		case "search":
			send("ct/search", dapproto.SearchArguments{Query: strings.TrimSpace(strings.TrimPrefix(line, "search"))})
		case "quit":
			return nil
		default:
			fmt.Printf("unknown command: %q (try: %s)\n", parts[0], strings.Join(replCommands, ", "))
		}
	}
}
