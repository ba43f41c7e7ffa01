package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"

	"github.com/dmitrijs2005/echochat/internal/client/blob"
	"github.com/dmitrijs2005/echochat/internal/client/config"
	"github.com/dmitrijs2005/echochat/internal/client/models"
	"github.com/dmitrijs2005/echochat/internal/client/realtime"
	"github.com/dmitrijs2005/echochat/internal/client/remote"
	"github.com/dmitrijs2005/echochat/internal/client/services"
	"github.com/dmitrijs2005/echochat/internal/client/session"
	"github.com/dmitrijs2005/echochat/internal/client/state"
	"github.com/dmitrijs2005/echochat/internal/client/storage"
	"github.com/dmitrijs2005/echochat/internal/filex"
	"github.com/dmitrijs2005/echochat/internal/logging"

	_ "modernc.org/sqlite"
)

const appName = "echochat"

// App is the interactive chat client: one local mirror, one realtime
// connection, a handful of services and a REPL on top.
type App struct {
	config   *config.Config
	db       *sql.DB
	state    *state.Store
	sessions *session.FileStore
	stream   remote.Stream
	logger   logging.Logger

	messages      services.MessageService
	channels      services.ChannelService
	conversations services.ConversationService
	profiles      services.ProfileService
	housekeeping  services.HousekeepingService

	dispatcher *realtime.Dispatcher
	manager    *realtime.Manager

	reader *bufio.Reader

	mu          sync.Mutex
	typing      *realtime.TypingBroadcaster
	stopManager context.CancelFunc
	closeActive func()
	activePeer  string
	activeChan  string
}

// NewApp opens the local mirror, loads any persisted session and wires
// every service. Nothing touches the network yet; that happens on login.
func NewApp(c *config.Config) (*App, error) {
	ctx := context.Background()

	dir, err := filex.EnsureDataDir(appName)
	if err != nil {
		return nil, fmt.Errorf("failed to prepare data dir: %w", err)
	}

	db, repos, err := storage.InitDatabase(ctx, filepath.Join(dir, "echochat.db"))
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	sessions, err := session.NewFileStore(dir)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	logger := logging.NewSlogLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	})))

	st := state.NewStore()
	gateway := remote.NewGateway(c.APIEndpointURL, sessions)
	stream := remote.NewWSStream(c.StreamEndpointURL, sessions, logger)
	uploader := blob.NewS3Uploader(c)

	dispatcher := realtime.NewDispatcher(st, repos.Messages, gateway, stream, sessions, logger)
	presence := realtime.NewPresence(st, stream, logger)
	reconciler := realtime.NewReconciler(st, gateway, dispatcher, logger)
	manager := realtime.NewManager(stream, dispatcher, presence, reconciler, sessions, logger, c.ReconnectMaxInterval)

	return &App{
		config:   c,
		db:       db,
		state:    st,
		sessions: sessions,
		stream:   stream,
		logger:   logger,

		messages:      services.NewMessageService(st, repos.Messages, gateway, stream, sessions, uploader, logger, c.HistoryLimit),
		channels:      services.NewChannelService(st, repos.Messages, gateway, sessions, logger, c.HistoryLimit),
		conversations: services.NewConversationService(st, repos.Conversations, gateway, logger),
		profiles:      services.NewProfileService(st, repos.Profiles, gateway, sessions, logger),
		housekeeping:  services.NewHousekeepingService(st, repos.Messages, repos.Conversations, repos.Profiles, logger),

		dispatcher: dispatcher,
		manager:    manager,

		reader: bufio.NewReader(os.Stdin),
	}, nil
}

// Run resumes any persisted session, prunes old rows in the background
// and hands control to the REPL. It returns when the user exits.
func (a *App) Run(ctx context.Context) {
	defer func() { _ = a.db.Close() }()

	fmt.Println("Welcome to EchoChat (type 'help' for commands)")

	go a.housekeeping.Prune(ctx, a.config.RetentionDays)

	if sess, err := a.sessions.Current(); err == nil {
		fmt.Printf("Resuming session for %s\n", sess.UserID)
		// Conversations load first so the initial reconcile has the
		// snapshot to work from.
		a.loadInitial(ctx)
		a.startRealtime(ctx, sess.UserID)
	}

	scanner := bufio.NewScanner(os.Stdin)
	runREPL(ctx, a, a.status, scanner)

	a.stopRealtime()
}

func (a *App) isLoggedIn() bool {
	_, err := a.sessions.Current()
	return err == nil
}

// status builds the prompt suffix: who is logged in and where they are.
func (a *App) status() string {
	sess, err := a.sessions.Current()
	if err != nil {
		return ""
	}
	s := sess.UserID
	if u := a.state.CurrentUser(); u != nil && u.Name() != "" {
		s = u.Name()
	}
	a.mu.Lock()
	peer, channel := a.activePeer, a.activeChan
	a.mu.Unlock()
	if peer != "" {
		s += " @" + peer
	} else if channel != "" {
		s += " #" + channel
	}
	return "(" + s + ")"
}

// startRealtime spins the connection manager up for userID and registers
// a bell for inbound messages outside the open conversation.
func (a *App) startRealtime(ctx context.Context, userID string) {
	runCtx, cancel := context.WithCancel(ctx)

	cancelBell := a.dispatcher.Subscribe(func(msg models.Message) {
		a.mu.Lock()
		active := a.activePeer
		a.mu.Unlock()
		if msg.SenderID == active {
			fmt.Println(formatMessage(&msg))
			return
		}
		fmt.Printf("\n* new message from %s\n", msg.SenderID)
	})

	go func() {
		defer cancelBell()
		if err := a.manager.Run(runCtx); err != nil && runCtx.Err() == nil {
			a.logger.Warn(runCtx, "realtime stopped", "error", err)
		}
	}()

	a.mu.Lock()
	a.stopManager = cancel
	a.typing = realtime.NewTypingBroadcaster(a.stream, userID, a.logger)
	a.mu.Unlock()
}

// stopRealtime tears the connection and conversation watches down.
func (a *App) stopRealtime() {
	a.mu.Lock()
	stop := a.stopManager
	closeActive := a.closeActive
	a.stopManager = nil
	a.closeActive = nil
	a.typing = nil
	a.activePeer = ""
	a.activeChan = ""
	a.mu.Unlock()

	if closeActive != nil {
		closeActive()
	}
	if stop != nil {
		stop()
	}
	a.dispatcher.Teardown()
	_ = a.stream.Close()
}

// loadInitial fills state with the conversation snapshot and the current
// user's profile so the first prompt is already useful.
func (a *App) loadInitial(ctx context.Context) {
	if _, err := a.conversations.Load(ctx); err != nil {
		fmt.Printf("Could not load conversations: %s\n", err)
	}
	if _, err := a.profiles.Current(ctx); err != nil {
		a.logger.Warn(ctx, "failed to load profile", "error", err)
	}
}
