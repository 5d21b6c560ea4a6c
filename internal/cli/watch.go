package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"
)

// envelope mirrors the websocket wire framing
type envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func newWatchCmd() *cobra.Command {
	var name string

	watchCmd := &cobra.Command{
		Use:   "watch <auction-id>",
		Short: "Join an auction room and stream its events",
		Long: `watch connects to the server's websocket endpoint, authenticates with the
saved identity token and prints every event the room emits. With --name it
also registers as a participant.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(args[0], name)
		},
	}

	watchCmd.Flags().StringVar(&name, "name", "", "Register with this display name after authenticating")

	return watchCmd
}

func runWatch(auctionID, name string) error {
	out := NewOutput(cfg.Output)

	conn, _, err := websocket.DefaultDialer.Dial(client.WebsocketURL(), nil)
	if err != nil {
		return fmt.Errorf("failed to connect: %w", err)
	}
	defer conn.Close()

	if err := writeEvent(conn, "auth", map[string]string{
		"token":     cfg.Token,
		"auctionId": auctionID,
	}); err != nil {
		return err
	}

	if name != "" {
		if err := writeEvent(conn, "register", map[string]string{
			"name":      name,
			"auctionId": auctionID,
		}); err != nil {
			return err
		}
	}

	// Close the socket on interrupt so the read loop unblocks
	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		_ = conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		_ = conn.Close()
	}()

	out.PrintMessage(fmt.Sprintf("watching auction %s (ctrl-c to stop)", auctionID))

	for {
		var env envelope
		if err := conn.ReadJSON(&env); err != nil {
			if websocket.IsCloseError(err, websocket.CloseNormalClosure) {
				return nil
			}
			return fmt.Errorf("connection closed: %w", err)
		}
		printEvent(out, env)

		// A fresh cookie replaces the saved identity
		if env.Event == "newCookie" {
			var payload struct {
				Token string `json:"token"`
			}
			if err := json.Unmarshal(env.Data, &payload); err == nil && payload.Token != "" {
				if err := cfg.SaveToken(payload.Token); err != nil {
					out.PrintError(fmt.Errorf("failed to save token: %w", err))
				}
			}
		}
	}
}

func writeEvent(conn *websocket.Conn, event string, data any) error {
	payload, err := json.Marshal(data)
	if err != nil {
		return err
	}
	if err := conn.WriteJSON(envelope{Event: event, Data: payload}); err != nil {
		return fmt.Errorf("failed to send %s: %w", event, err)
	}
	return nil
}

func printEvent(out *Output, env envelope) {
	if len(env.Data) == 0 {
		out.PrintMessage(env.Event)
		return
	}
	out.PrintMessage(fmt.Sprintf("%s %s", env.Event, string(env.Data)))
}
