// Command chat is a small terminal client for the conversation API. It
// exercises the persistence façade: when the server is reachable everything
// goes over HTTP, otherwise (and after any remote failure) history is kept
// in the local fallback store so the session keeps working offline.
//
// Plain input lines are appended to the current conversation as user
// messages; lines starting with '/' are commands.
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog"

	"github.com/jmartel/go-convo-backend/internal/client"
	"github.com/jmartel/go-convo-backend/internal/config"
)

func main() {
	_ = godotenv.Load()
	cfg := config.MustLoad()

	server := flag.String("server", cfg.Client.ServerURL, "API root URL")
	dataDir := flag.String("data", cfg.Client.DataDir, "local fallback store directory")
	flag.Parse()

	cfg.Client.ServerURL = *server
	cfg.Client.DataDir = *dataDir

	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}).
		With().Timestamp().Logger()

	ctx := context.Background()
	f, err := client.NewFacade(ctx, cfg.Client, logger)
	if err != nil {
		fmt.Fprintln(os.Stderr, "chat:", err)
		os.Exit(1)
	}

	if f.Connected() {
		fmt.Println("connected to", cfg.Client.ServerURL)
	} else {
		fmt.Println("offline mode; history stored in", cfg.Client.DataDir)
	}
	fmt.Println(`type a message, or /help for commands`)

	sc := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !sc.Scan() {
			return
		}
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "/") {
			if !runCommand(ctx, f, line) {
				return
			}
			continue
		}
		appendLine(ctx, f, line)
	}
}

// runCommand dispatches a slash command. Returns false to exit the loop.
func runCommand(ctx context.Context, f *client.Facade, line string) bool {
	cmd, arg, _ := strings.Cut(line, " ")
	arg = strings.TrimSpace(arg)

	switch cmd {
	case "/quit", "/exit":
		return false

	case "/help":
		fmt.Println(`commands:
  /new [title]     create a conversation and switch to it
  /list            list conversations by last activity
  /switch <id>     set the current conversation
  /rename <title>  rename the current conversation
  /delete          delete the current conversation
  /search <text>   search titles and message content
  /history         show the current conversation's messages
  /recent [n]      show the last n messages (default 10)
  /stats           show global statistics
  /reconnect       re-probe the server
  /quit            exit`)

	case "/new":
		conv, ok := f.CreateConversation(ctx, arg)
		if !ok {
			fmt.Println("could not create conversation")
			break
		}
		f.SetCurrent(conv.ID)
		fmt.Printf("created #%d %q\n", conv.ID, conv.Title)

	case "/list":
		items, ok := f.ListConversations(ctx, 50, 0)
		if !ok {
			fmt.Println("could not list conversations")
			break
		}
		for _, c := range items {
			marker := " "
			if c.ID == f.Current() {
				marker = "*"
			}
			fmt.Printf("%s #%d %-30q %d msgs\n", marker, c.ID, c.Title, c.MessageCount)
		}
		if len(items) == 0 {
			fmt.Println("no conversations yet; /new to start one")
		}

	case "/switch":
		id, err := strconv.ParseInt(arg, 10, 64)
		if err != nil || id <= 0 {
			fmt.Println("usage: /switch <id>")
			break
		}
		if _, ok := f.GetConversation(ctx, id); !ok {
			fmt.Println("no such conversation")
			break
		}
		f.SetCurrent(id)
		fmt.Printf("switched to #%d\n", id)

	case "/rename":
		id := f.Current()
		if id == 0 {
			fmt.Println("no current conversation; /switch first")
			break
		}
		if arg == "" {
			fmt.Println("usage: /rename <title>")
			break
		}
		if !f.UpdateTitle(ctx, id, arg) {
			fmt.Println("rename failed")
			break
		}
		fmt.Printf("renamed #%d to %q\n", id, arg)

	case "/delete":
		id := f.Current()
		if id == 0 {
			fmt.Println("no current conversation; /switch first")
			break
		}
		if !f.DeleteConversation(ctx, id) {
			fmt.Println("delete failed")
			break
		}
		fmt.Printf("deleted #%d\n", id)

	case "/search":
		if arg == "" {
			fmt.Println("usage: /search <text>")
			break
		}
		items, ok := f.SearchConversations(ctx, arg, 20)
		if !ok {
			fmt.Println("search failed")
			break
		}
		for _, c := range items {
			fmt.Printf("  #%d %q %d msgs\n", c.ID, c.Title, c.MessageCount)
		}
		if len(items) == 0 {
			fmt.Println("no matches")
		}

	case "/history":
		id := f.Current()
		if id == 0 {
			fmt.Println("no current conversation; /switch first")
			break
		}
		msgs, ok := f.ListMessages(ctx, id, 100, 0)
		if !ok {
			fmt.Println("could not load history")
			break
		}
		for _, m := range msgs {
			fmt.Printf("[%s] %-5s %s\n", m.Timestamp.Local().Format(time.Kitchen), m.Type, m.Content)
		}

	case "/recent":
		id := f.Current()
		if id == 0 {
			fmt.Println("no current conversation; /switch first")
			break
		}
		n := 10
		if arg != "" {
			if v, err := strconv.Atoi(arg); err == nil && v > 0 {
				n = v
			}
		}
		msgs, ok := f.RecentMessages(ctx, id, n)
		if !ok {
			fmt.Println("could not load messages")
			break
		}
		for _, m := range msgs {
			fmt.Printf("[%s] %-5s %s\n", m.Timestamp.Local().Format(time.Kitchen), m.Type, m.Content)
		}

	case "/stats":
		st, ok := f.GlobalStats(ctx)
		if !ok {
			fmt.Println("could not load stats")
			break
		}
		fmt.Printf("conversations: %d  messages: %d (user %d / ai %d / error %d)  avg len: %.1f\n",
			st.TotalConversations, st.TotalMessages,
			st.UserMessages, st.AIMessages, st.ErrorMessages, st.AvgContentLength)

	case "/reconnect":
		if f.Reconnect(ctx) {
			fmt.Println("connected")
		} else {
			fmt.Println("still offline")
		}

	default:
		fmt.Println("unknown command; /help for the list")
	}
	return true
}

// appendLine stores a plain input line as a user message, creating a
// conversation first when none is current.
func appendLine(ctx context.Context, f *client.Facade, line string) {
	id := f.Current()
	if id == 0 {
		conv, ok := f.CreateConversation(ctx, "")
		if !ok {
			fmt.Println("could not create conversation")
			return
		}
		id = conv.ID
		f.SetCurrent(id)
		fmt.Printf("started #%d %q\n", conv.ID, conv.Title)
	}
	if _, ok := f.AppendMessage(ctx, id, line, "user"); !ok {
		fmt.Println("message not stored (too long, empty, or store unavailable)")
		return
	}
}
