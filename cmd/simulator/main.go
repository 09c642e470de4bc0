// Command simulator replays a scripted conversation in one room with
// console endpoints standing in for WebSocket and HTTP clients.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"roomhub/contract"
	"roomhub/domain"
	"roomhub/domain/event"
	"roomhub/errors"
	"roomhub/infrastructure/endpoint"
	"roomhub/projection"
	"roomhub/runtime"
	"roomhub/runtime/workers"
	"strconv"
	"strings"
	"sync"

	"github.com/gookit/color"
	"github.com/mama165/sdk-go/logs"
	"github.com/olekukonko/tablewriter"
)

func main() {
	if err := run(os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "Fatal error: %v\n", err)
		os.Exit(1)
	}
}

// statsDiagnostics feeds the projection synchronously so the final table is complete.
type statsDiagnostics struct {
	stats *projection.RoomStats
}

func (d statsDiagnostics) Report(e event.DomainEvent) {
	_ = d.stats.Consume(context.Background(), e)
}

// syncWriter serializes the endpoints sharing the same output.
type syncWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (s *syncWriter) Write(p []byte) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.w.Write(p)
}

func run(out io.Writer) error {
	config, err := LoadConfig()
	if err != nil {
		return fmt.Errorf("config error: %w", err)
	}
	if !config.Colours {
		color.Disable()
	}
	log := logs.GetLoggerFromString(config.LogLevel)

	stats := projection.NewRoomStats()
	diagnostics := statsDiagnostics{stats: stats}
	dispatcher := workers.NewDispatcher(log)
	registry := runtime.NewRegistry(log, dispatcher, diagnostics)
	defer registry.Shutdown()

	out = &syncWriter{w: out}
	wsEndpoint := endpoint.NewConsoleEndpoint(out, "WebSocket", color.Style{color.FgCyan})
	httpEndpoint := endpoint.NewConsoleEndpoint(out, "HTTP", color.Style{color.FgMagenta})

	room := registry.GetOrCreate(domain.RoomID(config.Room))
	err = joinAll(room, []client{
		{"Alice", wsEndpoint},
		{"Bob", httpEndpoint},
		{"Charlie", wsEndpoint},
	}, runtime.WithSessionLogger(log), runtime.WithSessionDiagnostics(diagnostics))
	if err != nil {
		return err
	}
	dispatcher.Wait()

	header(out, "ACTIVE USERS")
	fmt.Fprintln(out, strings.Join(room.ActiveUsers(), ", "))

	header(out, "PUBLIC CHAT DEMO")
	room.PublishPublicMessage("Alice", "Hello, everyone!")
	room.PublishPublicMessage("Bob", "How's it going?")
	dispatcher.Wait()

	header(out, "PRIVATE CHAT DEMO")
	if err := room.PublishPrivateMessage("Charlie", "Alice", "Hey Alice, can you check line 42?"); err != nil {
		return err
	}
	dispatcher.Wait()

	header(out, "MESSAGE HISTORY")
	historyTable(out, room.History(config.HistorySize))

	header(out, "ROOM STATS")
	statsTable(out, stats)

	header(out, "DEMO COMPLETE")
	return nil
}

type client struct {
	name     string
	endpoint contract.Endpoint
}

// joinAll binds a session to every client and joins it, stopping at the first refusal.
func joinAll(room *runtime.Room, clients []client, opts ...runtime.SessionOption) error {
	for _, c := range clients {
		session, err := runtime.NewSession(c.name, c.endpoint, opts...)
		if err != nil {
			return err
		}
		if !room.Join(session) {
			return fmt.Errorf("%w: %q in %s", errors.ErrDuplicateMember, c.name, room.ID())
		}
	}
	return nil
}

func header(out io.Writer, title string) {
	fmt.Fprintln(out, color.New(color.BgBlack, color.FgGreen).Render(fmt.Sprintf("\n===== %s =====", title)))
}

func newTable(out io.Writer, headers ...string) *tablewriter.Table {
	table := tablewriter.NewWriter(out)
	table.SetHeader(headers)
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetCenterSeparator("")
	table.SetColumnSeparator("")
	table.SetRowSeparator("")
	table.SetHeaderLine(false)
	table.SetBorder(false)
	table.SetTablePadding("\t")
	return table
}

func historyTable(out io.Writer, history []domain.Message) {
	table := newTable(out, "#", "Time", "Kind", "From", "To", "Content")
	for i, msg := range history {
		table.Append([]string{
			strconv.Itoa(i + 1),
			msg.CreatedAt.Format("15:04:05.000"),
			string(msg.Kind),
			msg.From,
			msg.To,
			msg.Content,
		})
	}
	table.Render()
}

func statsTable(out io.Writer, stats *projection.RoomStats) {
	table := newTable(out, "Room", "Joins", "Rejected", "Leaves", "Public", "Private", "System", "Notified")
	for _, stat := range stats.Snapshot() {
		table.Append([]string{
			stat.Room.String(),
			strconv.Itoa(stat.Joins),
			strconv.Itoa(stat.Rejected),
			strconv.Itoa(stat.Leaves),
			strconv.Itoa(stat.Posted[domain.KindPublic]),
			strconv.Itoa(stat.Posted[domain.KindPrivate]),
			strconv.Itoa(stat.Posted[domain.KindSystem]),
			strconv.Itoa(stat.Notified),
		})
	}
	table.Render()
}
