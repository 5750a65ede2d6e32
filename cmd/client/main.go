package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"strings"

	"github.com/hafsabajwa/chatApp/internal/domain"
	"github.com/hafsabajwa/chatApp/internal/reconcile"
	"github.com/hafsabajwa/chatApp/pkg/logger"
	"github.com/hafsabajwa/chatApp/service"
)

var (
	addr     = flag.String("addr", "localhost:8080", "room server address")
	logLevel = flag.String("log-level", "warn", "log level")
)

func main() {
	flag.Parse()

	username := getUsername()

	baseLogger := logger.NewLogger(*logLevel, "")
	ctx := logger.NewContext(context.Background(), baseLogger)

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws"}
	room, err := service.NewRoomService(ctx, u.String(), username)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	if err := room.Join(ctx, render); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	interrupt := make(chan os.Signal, 1)
	signal.Notify(interrupt, os.Interrupt)
	go func() {
		<-interrupt
		room.Leave()
	}()

	fmt.Println("Connected. Type a message, or /edit <id> <text>, /delete <id>, /quit")
	readInput(room)

	room.Leave()
	<-room.Done()
	if err := room.Err(); err != nil {
		fmt.Fprintf(os.Stderr, "connection error: %v\n", err)
	}
}

func getUsername() string {
	scanner := bufio.NewScanner(os.Stdin)
	fmt.Print("Enter your username: ")
	scanner.Scan()
	return scanner.Text()
}

// render prints the whole room view on every change: crude but faithful to a
// snapshot-driven display.
func render(snap reconcile.Snapshot) {
	fmt.Println("\n--- room ---")
	for _, msg := range snap.Messages {
		switch {
		case msg.Kind == domain.KindNotification:
			fmt.Printf("  * %s\n", msg.Content)
		case msg.Deleted:
			fmt.Printf("  [%s] %s: (%s)\n", shortID(msg.ID), msg.Author, msg.Content)
		case msg.Edited:
			fmt.Printf("  [%s] %s: %s (edited)\n", shortID(msg.ID), msg.Author, msg.Content)
		default:
			fmt.Printf("  [%s] %s: %s\n", shortID(msg.ID), msg.Author, msg.Content)
		}
	}
	fmt.Printf("  active: %s\n> ", strings.Join(snap.Users, ", "))
}

func shortID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func readInput(room service.RoomService) {
	scanner := bufio.NewScanner(os.Stdin)
	for {
		select {
		case <-room.Done():
			return
		default:
		}

		if !scanner.Scan() {
			return
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		switch {
		case line == "/quit":
			return

		case strings.HasPrefix(line, "/edit "):
			parts := strings.SplitN(line, " ", 3)
			if len(parts) < 3 {
				fmt.Println("usage: /edit <id> <new text>")
				continue
			}
			if err := room.EditMessage(resolveID(room, strings.TrimSpace(parts[1])), parts[2]); err != nil {
				fmt.Printf("edit rejected: %v\n", err)
			}

		case strings.HasPrefix(line, "/delete "):
			parts := strings.SplitN(line, " ", 2)
			id := resolveID(room, strings.TrimSpace(parts[1]))
			fmt.Print("Delete this message? [y/N] ")
			confirmed := scanner.Scan() && strings.EqualFold(strings.TrimSpace(scanner.Text()), "y")
			if err := room.DeleteMessage(id, confirmed); err != nil {
				fmt.Printf("delete rejected: %v\n", err)
			}

		default:
			if _, err := room.SendChat(line); err != nil {
				fmt.Printf("send rejected: %v\n", err)
			}
		}
	}
}

// resolveID lets users type the 8-char prefix shown by render.
func resolveID(room service.RoomService, prefix string) string {
	for _, msg := range room.Snapshot().Messages {
		if strings.HasPrefix(msg.ID, prefix) {
			return msg.ID
		}
	}
	return prefix
}
