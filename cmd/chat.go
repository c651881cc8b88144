package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"mapchat/internal/config"
	"mapchat/internal/model"
	"mapchat/internal/service"
	"mapchat/internal/storage"
	"mapchat/pkg/logger"

	"github.com/spf13/cobra"
)

const chatHelp = `commands:
  /attach <slot> <path>   attach a text file (slots fill in order from 0)
  /detach <slot>          clear a slot and every slot after it
  /search on|off          toggle search mode (first message only)
  /state                  show the session
  /reset                  start over
  /quit                   leave
anything else is sent as a message`

func newChatCmd(configPath *string) *cobra.Command {
	return &cobra.Command{
		Use:   "chat",
		Short: "Talk to the backend from the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := setup(*configPath, "", useDiskMaps)
			if err != nil {
				return err
			}
			defer a.close()

			// keep the conversation on stdout readable
			logger.SetOutput(cmd.ErrOrStderr())

			repl := &chatREPL{session: a.session, out: cmd.OutOrStdout()}
			return repl.run(cmd.Context(), cmd.InOrStdin())
		},
	}
}

// useDiskMaps stores maps as files so the terminal can point at them.
func useDiskMaps(cfg *config.Config) {
	if cfg.Storage.Type == config.StorageMemory && cfg.Storage.DataDir != "" {
		cfg.Storage.Type = config.StorageDisk
	}
}

type chatREPL struct {
	session *service.ChatSession
	out     io.Writer
}

func (r *chatREPL) run(ctx context.Context, in io.Reader) error {
	fmt.Fprintln(r.out, chatHelp)

	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), 1<<20)
	for {
		fmt.Fprint(r.out, "> ")
		if !scanner.Scan() {
			return scanner.Err()
		}
		if quit := r.handle(ctx, scanner.Text()); quit {
			return nil
		}
	}
}

func (r *chatREPL) handle(ctx context.Context, line string) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 || !strings.HasPrefix(fields[0], "/") {
		events, _ := r.session.SendMessage(ctx, line)
		r.print(events)
		r.printMap()
		return false
	}

	switch fields[0] {
	case "/quit", "/exit":
		return true
	case "/attach":
		if len(fields) != 3 {
			fmt.Fprintln(r.out, "usage: /attach <slot> <path>")
			return false
		}
		r.attach(ctx, fields[1], fields[2])
	case "/detach":
		slot, err := parseSlot(fields)
		if err != nil {
			fmt.Fprintln(r.out, err)
			return false
		}
		if err := r.session.ClearSlot(slot); err != nil {
			fmt.Fprintln(r.out, "error:", err)
		}
	case "/search":
		if len(fields) != 2 || (fields[1] != "on" && fields[1] != "off") {
			fmt.Fprintln(r.out, "usage: /search on|off")
			return false
		}
		if !r.session.SetSearchMode(fields[1] == "on") {
			fmt.Fprintln(r.out, "search mode is locked after the first message")
		}
	case "/state":
		r.printState()
	case "/reset":
		r.session.Reset()
		fmt.Fprintln(r.out, "new session", r.session.ID())
	default:
		fmt.Fprintln(r.out, chatHelp)
	}
	return false
}

func (r *chatREPL) attach(ctx context.Context, slotArg, path string) {
	slot, err := strconv.Atoi(slotArg)
	if err != nil {
		fmt.Fprintln(r.out, "slot must be a number")
		return
	}

	f, err := os.Open(path)
	if err != nil {
		fmt.Fprintln(r.out, "error:", err)
		return
	}
	defer f.Close()

	name := path[strings.LastIndexAny(path, `/\`)+1:]
	attachment, err := r.session.AttachFile(ctx, slot, name, f)
	if err != nil {
		fmt.Fprintln(r.out, "error loading file:", err)
		return
	}
	fmt.Fprintf(r.out, "slot %d: %s loaded (%d bytes)\n", slot, attachment.Name, len(attachment.Content))
}

func (r *chatREPL) print(events []model.DisplayEvent) {
	for _, ev := range events {
		if ev.Formatted {
			fmt.Fprintln(r.out, "agent>")
			for _, line := range ev.Lines {
				fmt.Fprintln(r.out, "  "+line)
			}
			continue
		}
		fmt.Fprintln(r.out, "agent> "+ev.Text)
	}
}

func (r *chatREPL) printMap() {
	if surface := r.session.Map(); surface != nil {
		fmt.Fprintln(r.out, "map:", mapLocation(surface.Locator))
	}
}

func (r *chatREPL) printState() {
	snap := r.session.Snapshot()
	fmt.Fprintf(r.out, "session %s  phase=%s  search=%v\n", snap.SessionID, snap.Phase, snap.SearchMode)
	for _, slot := range snap.Slots {
		state := "empty"
		switch {
		case slot.Filled:
			state = fmt.Sprintf("%s (%d bytes)", slot.Name, slot.Bytes)
		case !slot.Enabled:
			state = "locked"
		}
		fmt.Fprintf(r.out, "  slot %d: %s\n", slot.Index, state)
	}
	if snap.Map != nil {
		fmt.Fprintln(r.out, "  map:", mapLocation(snap.Map.Locator))
	}
}

func mapLocation(locator string) string {
	if strings.HasPrefix(locator, storage.MemoryLocatorPrefix) {
		return locator + " (held in memory, set storage.type: disk to open it)"
	}
	return locator
}

func parseSlot(fields []string) (int, error) {
	if len(fields) != 2 {
		return 0, fmt.Errorf("usage: %s <slot>", fields[0])
	}
	slot, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("slot must be a number")
	}
	return slot, nil
}
