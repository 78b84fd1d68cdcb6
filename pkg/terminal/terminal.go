package terminal

import (
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"os/user"
	"path/filepath"
	"prowl/pkg/value"
	"prowl/service"
	"prowl/utils"
	"sort"
	"strings"
	"syscall"

	"github.com/derekparker/trie"
	"github.com/go-delve/liner"
)

const (
	prompt      = "(prowl) "
	prowlDir    = ".prowl"
	historyFile = ".prowl_history"
)

type Term struct {
	client      service.Client
	prompt      string
	line        *liner.State
	cmds        *Commands
	historyFile *os.File
	stdout      *transcriptWriter
}

func New(client service.Client) *Term {
	t := &Term{
		client: client,
		line:   liner.NewLiner(),
		prompt: prompt,
		stdout: newTranscriptWriter(utils.Stdout(), utils.ColorEnabled()),
		cmds:   NewCommands(client),
	}

	return t
}

func (t *Term) sigintGuard(ch <-chan os.Signal) {
	for range ch {
		fmt.Fprintf(t.stdout, "received SIGINT, type 'exit' to leave (the target keeps running)\n")
	}
}

// completer completes command names, then value kinds in the kind position
// of find and patch.
func (t *Term) completer() func(line string) []string {
	cmds := trie.New()
	for _, alias := range t.cmds.Aliases() {
		cmds.Add(alias, nil)
	}

	kinds := trie.New()
	var all []string
	for _, k := range value.Kinds {
		kinds.Add(string(k), nil)
		all = append(all, string(k))
	}

	return func(line string) []string {
		fields := strings.Fields(line)
		if len(fields) == 0 {
			return nil
		}
		if len(fields) == 1 && !strings.HasSuffix(line, " ") {
			names := cmds.PrefixSearch(line)
			sort.Strings(names)
			return names
		}

		cmd := t.cmds.Find(fields[0]).aliases[0]
		if cmd != "find" && cmd != "patch" {
			return nil
		}

		var prefix string
		switch {
		case len(fields) == 2 && strings.HasSuffix(line, " "):
		case len(fields) == 3 && !strings.HasSuffix(line, " "):
			prefix = fields[2]
		default:
			return nil
		}

		candidates := all
		if prefix != "" {
			candidates = kinds.PrefixSearch(prefix)
			sort.Strings(candidates)
		}

		head := strings.TrimSuffix(line, prefix)
		var out []string
		for _, k := range candidates {
			out = append(out, head+k)
		}
		return out
	}
}

func (t *Term) Run() error {
	defer t.Close()

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT)
	defer signal.Stop(ch)
	go t.sigintGuard(ch)

	t.line.SetCompleter(t.completer())

	if err := t.openHistory(); err != nil {
		fmt.Fprintf(os.Stderr, "Unable to open history file: %v. History will not be saved for this session.\n", err)
	}

	fmt.Fprintln(t.stdout, "Type 'help' for list of commands.")

	for {
		cmd, err := t.promptForInput()
		if err != nil {
			if err == io.EOF {
				fmt.Fprintln(t.stdout, "exit")
				return t.handleExit()
			}
			return errors.New("prompt for input failed")
		}
		t.stdout.Echo(t.prompt + cmd + "\n")

		if strings.TrimSpace(cmd) == "" {
			continue
		}

		if err = t.cmds.Call(cmd, t); err != nil {
			if _, ok := err.(ExitRequestError); ok {
				return t.handleExit()
			}

			t.stdout.Error(fmt.Errorf("Command failed: %w", err))
		}
	}
}

func (t *Term) openHistory() error {
	fullHistory := filepath.Join(getUserHomeDir(), prowlDir, historyFile)
	if err := os.MkdirAll(filepath.Dir(fullHistory), 0755); err != nil {
		return err
	}

	f, err := os.OpenFile(fullHistory, os.O_CREATE|os.O_RDWR, 0600)
	if err != nil {
		return err
	}
	t.historyFile = f

	_, err = t.line.ReadHistory(f)
	return err
}

func (t *Term) Close() {
	t.line.Close()
	if err := t.stdout.CloseTranscript(); err != nil {
		fmt.Fprintf(os.Stderr, "error closing transcript file: %v\n", err)
	}
}

func getUserHomeDir() string {
	userHomeDir := "."
	usr, err := user.Current()
	if err == nil {
		userHomeDir = usr.HomeDir
	}
	return userHomeDir
}

func (t *Term) promptForInput() (string, error) {
	l, err := t.line.Prompt(t.prompt)
	if err != nil {
		return "", err
	}

	l = strings.TrimSuffix(l, "\n")
	if l != "" {
		t.line.AppendHistory(l)
	}

	return l, nil
}

func (t *Term) handleExit() error {
	if t.historyFile != nil {
		if _, err := t.historyFile.Seek(0, io.SeekStart); err != nil {
			return err
		}
		if err := t.historyFile.Truncate(0); err != nil {
			return err
		}
		if _, err := t.line.WriteHistory(t.historyFile); err != nil {
			fmt.Println("readline history error:", err)
			return err
		}
		if err := t.historyFile.Close(); err != nil {
			fmt.Printf("error closing history file: %s\n", err)
			return err
		}
		t.historyFile = nil
	}

	return nil
}
