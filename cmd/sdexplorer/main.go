// Package main provides the sdexplorer CLI: a terminal front end for the
// explorer transfer layer (selection, cut/copy/paste, drops, tags).
package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"sort"
	"strconv"
	"strings"
	"syscall"
	"text/tabwriter"
	"time"

	gotree "github.com/disiqueira/gotree/v3"
	"github.com/dustin/go-humanize"
	"github.com/spacedriveapp/spacedrive-sub003/internal/config"
	"github.com/spacedriveapp/spacedrive-sub003/internal/explorer"
	"github.com/spacedriveapp/spacedrive-sub003/internal/logging"
	"github.com/spacedriveapp/spacedrive-sub003/internal/metrics"
	"github.com/spacedriveapp/spacedrive-sub003/internal/notify"
	"github.com/spacedriveapp/spacedrive-sub003/pkg/client"
	"github.com/spacedriveapp/spacedrive-sub003/pkg/models"
	"github.com/spacedriveapp/spacedrive-sub003/pkg/pathcache"
	"golang.org/x/term"
)

func main() {
	configPath := flag.String("config", "", "Config file path (default: ~/.config/sdexplorer/config.yaml)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if err := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat}); err != nil {
		fmt.Fprintf(os.Stderr, "Error initializing logging: %v\n", err)
		os.Exit(1)
	}
	defer logging.Sync()

	cmd := args[0]
	cmdArgs := args[1:]

	switch cmd {
	case "login":
		cmdLogin(cfg, cmdArgs)
	case "logout":
		cmdLogout(cfg)
	case "locations":
		cmdLocations(cfg)
	case "tags":
		cmdTags(cfg)
	case "ls", "list":
		cmdList(cfg, cmdArgs)
	case "cp", "copy":
		cmdTransfer(cfg, explorer.ActionCopy, cmdArgs)
	case "mv", "move":
		cmdTransfer(cfg, explorer.ActionCut, cmdArgs)
	case "duplicate", "dup":
		cmdDuplicate(cfg, cmdArgs)
	case "tag":
		cmdTag(cfg, cmdArgs)
	case "watch":
		cmdWatch(cfg, cmdArgs)
	case "help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println(`sdexplorer - explorer transfer CLI

Usage: sdexplorer [flags] <command> [args]

Flags:
  -config <path>     Config file (default: ~/.config/sdexplorer/config.yaml)

Commands:
  login              Authenticate and save a token
  logout             Revoke and delete the saved token
  locations          List registered locations
  tags               List tags
  ls <dir> [-tree]   List a directory
  cp <src> <dst> <name...>   Copy items between directories
  mv <src> <dst> <name...>   Move items between directories
  duplicate <dir> <name...>  Duplicate items in place
  tag <tag> <dir> <name...>  Assign a tag (-remove to unassign)
  watch [dir]        Follow invalidation events (and refresh a listing)
  help               Show this help message

Directory arguments:
  /absolute/path           an unindexed directory
  <location>:<path>        a directory inside a location, by name or id
  tag:<id>                 a tag listing (ls and sources only)

Examples:
  sdexplorer login
  sdexplorer ls Data:/documents -tree
  sdexplorer cp Data:/documents /mnt/usb report.pdf notes.md
  sdexplorer mv /tmp/downloads Data:/inbox video.mp4
  sdexplorer tag favorites Data:/photos beach.jpg`)
}

// newSession builds a connected session with the saved token applied.
func newSession(cfg *config.Config) (*explorer.Session, *client.Client) {
	c := client.New(client.Config{
		BaseURL: cfg.ServerURL,
		Timeout: cfg.RequestTimeout,
	})
	if tf, err := client.LoadToken(); err == nil {
		if tf.IsExpired(0) {
			fmt.Fprintln(os.Stderr, "Saved token has expired; run `sdexplorer login`.")
		}
		c.SetAuthToken(tf.Token)
	}

	cache := pathcache.New(cfg.PathCacheTTL, cfg.PathCacheSize)
	resolver := explorer.NewResolver(c, cache, cfg.MaxConcurrentResolves)
	session := explorer.NewSession(c, explorer.NewIntentStore(), resolver, consoleNotifier{}, explorer.NewInvalidationHub())

	if err := session.RefreshLocations(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Error loading locations: %v\n", err)
		os.Exit(1)
	}
	return session, c
}

// consoleNotifier prints toasts to the terminal.
type consoleNotifier struct{}

func (consoleNotifier) Success(t notify.Toast) {
	if t.Body != "" {
		fmt.Printf("%s: %s\n", t.Title, t.Body)
		return
	}
	fmt.Println(t.Title)
}

func (consoleNotifier) Error(t notify.Toast) {
	if t.Body != "" {
		fmt.Fprintf(os.Stderr, "%s: %s\n", t.Title, t.Body)
		return
	}
	fmt.Fprintln(os.Stderr, t.Title)
}

// parseDir turns a directory argument into a parent context.
func parseDir(session *explorer.Session, arg string) (models.ParentContext, error) {
	if strings.HasPrefix(arg, "/") {
		return models.EphemeralContext(arg), nil
	}
	if rest, ok := strings.CutPrefix(arg, "tag:"); ok {
		id, err := strconv.ParseInt(rest, 10, 32)
		if err != nil {
			return models.ParentContext{}, fmt.Errorf("bad tag id %q", rest)
		}
		return models.TagContext(int32(id)), nil
	}
	name, rel, found := strings.Cut(arg, ":")
	if !found {
		rel = "/"
	}
	if id, err := strconv.ParseInt(name, 10, 32); err == nil {
		return models.LocationContext(int32(id), rel), nil
	}
	loc, ok := session.LocationByName(name)
	if !ok {
		return models.ParentContext{}, fmt.Errorf("unknown location %q", name)
	}
	return models.LocationContext(loc.ID, rel), nil
}

// selectByName navigates to a directory and selects the named items.
func selectByName(ctx context.Context, session *explorer.Session, dir models.ParentContext, names []string) error {
	if err := session.Navigate(ctx, dir); err != nil {
		return err
	}
	byName := make(map[string]models.ExplorerItem)
	for _, it := range session.Items() {
		byName[it.Name()] = it
	}
	for _, name := range names {
		it, ok := byName[name]
		if !ok {
			return fmt.Errorf("%q not found in %s", name, dir)
		}
		session.Selection().Add(it)
	}
	return nil
}

func cmdLogin(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	serverURL := fs.String("server", cfg.ServerURL, "Server URL")
	deviceName := fs.String("device", cfg.DeviceName, "Device name")
	fs.Parse(args)

	c := client.New(client.Config{BaseURL: *serverURL, Timeout: cfg.RequestTimeout})
	ctx := context.Background()

	reader := bufio.NewReader(os.Stdin)
	fmt.Print("Username: ")
	username, _ := reader.ReadString('\n')
	username = strings.TrimSpace(username)

	fmt.Print("Password: ")
	passwordBytes, err := term.ReadPassword(int(syscall.Stdin))
	fmt.Println()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error reading password: %v\n", err)
		os.Exit(1)
	}

	resp, err := c.Login(ctx, username, string(passwordBytes), *deviceName)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	tf := &client.TokenFile{
		Token:     resp.Token,
		ExpiresAt: resp.ExpiresAt,
		Server:    *serverURL,
		Username:  resp.User.Username,
	}
	if err := client.SaveToken(tf); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to save token: %v\n", err)
	}
	fmt.Printf("Login successful! Logged in as %s. Token saved to %s\n", resp.User.Username, client.TokenFilePath())
}

func cmdLogout(cfg *config.Config) {
	tf, err := client.LoadToken()
	if err != nil {
		fmt.Fprintln(os.Stderr, "No saved token found.")
		os.Exit(1)
	}

	c := client.New(client.Config{BaseURL: tf.Server, Timeout: cfg.RequestTimeout, AuthToken: tf.Token})
	if err := c.Logout(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "Warning: server logout failed: %v\n", err)
	}
	if err := client.DeleteToken(); err != nil {
		fmt.Fprintf(os.Stderr, "Error deleting token: %v\n", err)
		os.Exit(1)
	}
	fmt.Println("Logged out.")
}

func cmdLocations(cfg *config.Config) {
	_, c := newSession(cfg)
	locs, err := c.Locations(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	sort.Slice(locs, func(i, j int) bool { return locs[i].ID < locs[j].ID })

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tPATH")
	for _, l := range locs {
		fmt.Fprintf(w, "%d\t%s\t%s\n", l.ID, l.Name, l.Path)
	}
	w.Flush()
}

func cmdTags(cfg *config.Config) {
	_, c := newSession(cfg)
	tags, err := c.Tags(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "ID\tNAME\tCOLOR")
	for _, t := range tags {
		fmt.Fprintf(w, "%d\t%s\t%s\n", t.ID, t.Name, t.Color)
	}
	w.Flush()
}

func cmdList(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("ls", flag.ExitOnError)
	asTree := fs.Bool("tree", false, "Render as a tree")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "Usage: sdexplorer ls <dir> [-tree]")
		os.Exit(1)
	}

	session, _ := newSession(cfg)
	ctx := context.Background()
	dir, err := parseDir(session, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := session.Navigate(ctx, dir); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	items := session.Items()

	if *asTree {
		root := gotree.New(fs.Arg(0))
		for _, it := range items {
			label := it.Name()
			if it.IsDir() {
				label += "/"
			} else if it.Kind == models.KindPath {
				label += "  " + humanize.IBytes(uint64(it.FilePath.SizeInBytes))
			}
			root.Add(label)
		}
		fmt.Print(root.Print())
		return
	}

	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tKIND\tSIZE")
	for _, it := range items {
		size := ""
		if it.Kind == models.KindPath && !it.IsDir() {
			size = humanize.IBytes(uint64(it.FilePath.SizeInBytes))
		}
		fmt.Fprintf(w, "%s\t%s\t%s\n", it.Name(), it.Kind, size)
	}
	w.Flush()
	fmt.Printf("\n%d items\n", len(items))
}

func cmdTransfer(cfg *config.Config, action explorer.Action, args []string) {
	if len(args) < 3 {
		fmt.Fprintf(os.Stderr, "Usage: sdexplorer %s <src-dir> <dst-dir> <name...>\n", action)
		os.Exit(1)
	}

	session, _ := newSession(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	src, err := parseDir(session, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	dst, err := parseDir(session, args[1])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := selectByName(ctx, session, src, args[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if action == explorer.ActionCut {
		err = session.Cut()
	} else {
		err = session.Copy()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	if err := session.Navigate(ctx, dst); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := session.Paste(ctx); err != nil {
		os.Exit(1)
	}
}

func cmdDuplicate(cfg *config.Config, args []string) {
	if len(args) < 2 {
		fmt.Fprintln(os.Stderr, "Usage: sdexplorer duplicate <dir> <name...>")
		os.Exit(1)
	}

	session, _ := newSession(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Minute)
	defer cancel()

	dir, err := parseDir(session, args[0])
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := selectByName(ctx, session, dir, args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := session.Duplicate(ctx); err != nil {
		os.Exit(1)
	}
}

func cmdTag(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("tag", flag.ExitOnError)
	remove := fs.Bool("remove", false, "Unassign instead of assign")
	fs.Parse(args)

	if fs.NArg() < 3 {
		fmt.Fprintln(os.Stderr, "Usage: sdexplorer tag [-remove] <tag> <dir> <name...>")
		os.Exit(1)
	}

	session, c := newSession(cfg)
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	tagID, err := resolveTag(ctx, c, fs.Arg(0))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	dir, err := parseDir(session, fs.Arg(1))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := selectByName(ctx, session, dir, fs.Args()[2:]); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	if err := session.AssignTag(ctx, tagID, *remove); err != nil {
		os.Exit(1)
	}
}

// resolveTag accepts a tag id or a tag name.
func resolveTag(ctx context.Context, c *client.Client, arg string) (int32, error) {
	if id, err := strconv.ParseInt(arg, 10, 32); err == nil {
		return int32(id), nil
	}
	tags, err := c.Tags(ctx)
	if err != nil {
		return 0, err
	}
	for _, t := range tags {
		if strings.EqualFold(t.Name, arg) {
			return t.ID, nil
		}
	}
	return 0, fmt.Errorf("unknown tag %q", arg)
}

func cmdWatch(cfg *config.Config, args []string) {
	fs := flag.NewFlagSet("watch", flag.ExitOnError)
	metricsAddr := fs.String("metrics", cfg.MetricsAddr, "Prometheus metrics listen address (empty = off)")
	fs.Parse(args)

	if !cfg.WatchSSE {
		fmt.Fprintln(os.Stderr, "Event watching is disabled (watch_sse: false); enable it in the config to use this command.")
		os.Exit(1)
	}

	session, c := newSession(cfg)
	ctx := context.Background()

	if fs.NArg() > 0 {
		dir, err := parseDir(session, fs.Arg(0))
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if err := session.Navigate(ctx, dir); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
	}

	if *metricsAddr != "" {
		go func() {
			mux := http.NewServeMux()
			mux.Handle("/metrics", metrics.Handler())
			fmt.Printf("Metrics on http://%s/metrics\n", *metricsAddr)
			if err := http.ListenAndServe(*metricsAddr, mux); err != nil {
				fmt.Fprintf(os.Stderr, "Metrics server error: %v\n", err)
			}
		}()
	}

	sse := client.NewSSEClient(cfg.ServerURL)
	if tf, err := client.LoadToken(); err == nil {
		sse.SetAuthToken(tf.Token)
		// watch outlives a token lifetime; keep the session authenticated.
		c.StartTokenRefreshLoop(ctx, tf)
	}
	events, errs := sse.Subscribe(ctx)

	go func() {
		for err := range errs {
			fmt.Fprintf(os.Stderr, "Event stream error: %v\n", err)
		}
	}()

	hub := explorer.NewInvalidationHub()
	printed := hub.Subscribe()
	defer hub.Unsubscribe(printed)
	go func() {
		for ev := range printed {
			fmt.Printf("%s  %s  location=%d path=%s tag=%d\n",
				time.Unix(ev.Timestamp, 0).Format("15:04:05"), ev.Type, ev.LocationID, ev.Path, ev.TagID)
		}
	}()

	fmt.Println("Watching for invalidation events (Ctrl-C to stop)...")
	forward := hub.Subscribe()
	defer hub.Unsubscribe(forward)
	go session.WatchInvalidations(ctx, forward)

	for ev := range events {
		hub.Publish(ev)
	}
}
