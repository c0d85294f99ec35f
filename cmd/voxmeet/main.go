package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/voxmeet/voxmeet/internal/api"
	"github.com/voxmeet/voxmeet/internal/app"
	"github.com/voxmeet/voxmeet/internal/auth"
	"github.com/voxmeet/voxmeet/internal/config"
	"github.com/voxmeet/voxmeet/internal/controller"
	"github.com/voxmeet/voxmeet/internal/protocol"
	"github.com/voxmeet/voxmeet/internal/statusapi"
)

const version = "0.3.0"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}

	ctx := context.Background()
	built, err := app.Build(ctx, cfg)
	if err != nil {
		log.Fatalf("startup error: %v", err)
	}
	defer func() {
		if err := built.Cleanup(); err != nil {
			log.Printf("cleanup: %v", err)
		}
	}()

	command := os.Args[1]
	args := os.Args[2:]
	if err := dispatch(ctx, built, command, args); err != nil {
		fmt.Fprintf(os.Stderr, "voxmeet: %v\n", err)
		os.Exit(1)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: voxmeet <command> [flags]

account:
  login       -email -password
  register    -name -email -password
  logout
  whoami

meetings (require login):
  create      -title [-description] [-languages en,it] [-expected N]
  list
  get         -id
  end         -id
  delete      -id
  summary     -id
  analytics   -id

session:
  join        -code [-participant] [-name] [-language] [-record out.wav]
  transcript  -id [-lang] [-local [-limit N]]`)
}

// protected lists the commands that require an authenticated identity.
// transcript is left open so -local works for unauthenticated
// participants; the backend rejects the remote fetch on its own.
var protected = map[string]bool{
	"whoami": true, "create": true, "list": true, "get": true,
	"end": true, "delete": true, "summary": true, "analytics": true,
}

func dispatch(ctx context.Context, built *app.BuildResult, command string, args []string) error {
	reqCtx, cancel := context.WithTimeout(ctx, built.Config.RequestTimeout)
	identity := built.Auth.Restore(reqCtx)
	cancel()

	switch command {
	case "login", "register":
		if identity != nil {
			return fmt.Errorf("already logged in as %s; run `voxmeet logout` first", identity.Email)
		}
	default:
		if protected[command] && identity == nil {
			return errors.New("not logged in; run `voxmeet login` first")
		}
	}

	switch command {
	case "login":
		return cmdLogin(ctx, built.Auth, args)
	case "register":
		return cmdRegister(ctx, built.Auth, args)
	case "logout":
		built.Auth.Logout()
		fmt.Println("logged out")
		return nil
	case "whoami":
		return printJSON(identity)
	case "create":
		return cmdCreate(ctx, built.API, args)
	case "list":
		meetings, err := built.API.ListMeetings(ctx)
		if err != nil {
			return err
		}
		return printJSON(meetings)
	case "get":
		return cmdByID(ctx, args, func(id string) (any, error) { return built.API.GetMeeting(ctx, id) })
	case "end":
		return cmdByID(ctx, args, func(id string) (any, error) { return built.API.EndMeeting(ctx, id) })
	case "delete":
		return cmdByID(ctx, args, func(id string) (any, error) {
			return nil, built.API.DeleteMeeting(ctx, id)
		})
	case "transcript":
		return cmdTranscript(ctx, built, args)
	case "summary":
		return cmdByID(ctx, args, func(id string) (any, error) { return built.API.MeetingSummary(ctx, id) })
	case "analytics":
		return cmdByID(ctx, args, func(id string) (any, error) { return built.API.MeetingAnalytics(ctx, id) })
	case "join":
		return cmdJoin(ctx, built, args)
	default:
		usage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func cmdLogin(ctx context.Context, manager *auth.Manager, args []string) error {
	fs := flag.NewFlagSet("login", flag.ExitOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)
	if strings.TrimSpace(*email) == "" || *password == "" {
		return errors.New("login requires -email and -password")
	}

	id, err := manager.Login(ctx, *email, *password)
	if err != nil {
		return err
	}
	fmt.Printf("logged in as %s (%s)\n", id.Email, id.Role)
	return nil
}

func cmdRegister(ctx context.Context, manager *auth.Manager, args []string) error {
	fs := flag.NewFlagSet("register", flag.ExitOnError)
	name := fs.String("name", "", "company name")
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "account password")
	_ = fs.Parse(args)
	if strings.TrimSpace(*name) == "" || strings.TrimSpace(*email) == "" || *password == "" {
		return errors.New("register requires -name, -email and -password")
	}

	id, err := manager.Register(ctx, *name, *email, *password)
	if err != nil {
		if errors.Is(err, auth.ErrAutoLogin) {
			fmt.Printf("account %s created; log in with `voxmeet login`\n", *email)
			return err
		}
		return err
	}
	fmt.Printf("registered and logged in as %s\n", id.Email)
	return nil
}

func cmdCreate(ctx context.Context, client *api.Client, args []string) error {
	fs := flag.NewFlagSet("create", flag.ExitOnError)
	title := fs.String("title", "", "meeting title")
	description := fs.String("description", "", "meeting description")
	languages := fs.String("languages", "", "allowed languages, comma separated")
	expected := fs.Int("expected", 0, "expected participant count")
	_ = fs.Parse(args)
	if strings.TrimSpace(*title) == "" {
		return errors.New("create requires -title")
	}

	req := api.CreateMeetingRequest{
		Title:                strings.TrimSpace(*title),
		Description:          strings.TrimSpace(*description),
		ExpectedParticipants: *expected,
	}
	for _, lang := range strings.Split(*languages, ",") {
		if l := strings.TrimSpace(lang); l != "" {
			req.AllowedLanguages = append(req.AllowedLanguages, l)
		}
	}

	meeting, err := client.CreateMeeting(ctx, req)
	if err != nil {
		return err
	}
	return printJSON(meeting)
}

func cmdByID(ctx context.Context, args []string, call func(id string) (any, error)) error {
	fs := flag.NewFlagSet("meeting", flag.ExitOnError)
	id := fs.String("id", "", "meeting id")
	_ = fs.Parse(args)
	if strings.TrimSpace(*id) == "" {
		return errors.New("-id is required")
	}
	out, err := call(strings.TrimSpace(*id))
	if err != nil {
		return err
	}
	if out == nil {
		fmt.Println("ok")
		return nil
	}
	return printJSON(out)
}

func cmdTranscript(ctx context.Context, built *app.BuildResult, args []string) error {
	fs := flag.NewFlagSet("transcript", flag.ExitOnError)
	id := fs.String("id", "", "meeting id")
	lang := fs.String("lang", "", "preferred language for the printed text")
	local := fs.Bool("local", false, "read from the local archive instead of the backend")
	limit := fs.Int("limit", 0, "with -local, most recent N lines (0 = all)")
	_ = fs.Parse(args)
	if strings.TrimSpace(*id) == "" {
		return errors.New("transcript requires -id")
	}
	meetingID := strings.TrimSpace(*id)

	if *local {
		records, err := built.Archive.RecentByMeeting(ctx, meetingID, *limit)
		if err != nil {
			return err
		}
		for _, rec := range records {
			fmt.Printf("[%s] %s: %s\n", rec.CreatedAt.Format("15:04:05"), rec.SpeakerName, translated(rec.Text, rec.Language, rec.Translations, *lang))
		}
		return nil
	}

	lines, err := built.API.MeetingTranscript(ctx, meetingID)
	if err != nil {
		return err
	}
	for _, line := range lines {
		fmt.Printf("[%s] %s: %s\n", line.Timestamp.Format("15:04:05"), line.SpeakerName, translated(line.Text, line.Language, line.Translations, *lang))
	}
	return nil
}

func translated(text, language string, translations map[string]string, want string) string {
	if want == "" || want == language {
		return text
	}
	if t, ok := translations[want]; ok && t != "" {
		return t
	}
	return text
}

func cmdJoin(ctx context.Context, built *app.BuildResult, args []string) error {
	fs := flag.NewFlagSet("join", flag.ExitOnError)
	code := fs.String("code", "", "meeting code")
	participant := fs.String("participant", "", "participant id from an invite link")
	name := fs.String("name", "", "display name override")
	language := fs.String("language", "", "preferred transcript language")
	record := fs.String("record", "", "write captured audio to this WAV file on exit")
	_ = fs.Parse(args)
	if strings.TrimSpace(*code) == "" {
		return errors.New("join requires -code")
	}

	session := controller.New(controller.Options{
		API:            built.API,
		Identity:       built.Auth,
		RTC:            built.RTC,
		Capture:        built.Capture,
		Archive:        built.Archive,
		Metrics:        built.Metrics,
		Code:           strings.TrimSpace(*code),
		ParticipantID:  strings.TrimSpace(*participant),
		Name:           strings.TrimSpace(*name),
		Language:       strings.TrimSpace(*language),
		WSBaseURL:      built.WSBaseURL,
		ReconnectDelay: built.Config.ReconnectDelay,
		SampleRate:     built.Config.SampleRate,
		ChunkMillis:    built.Config.ChunkMillis,
		RecordWAVPath:  strings.TrimSpace(*record),
		OnTranscript: func(e protocol.TranscriptEvent) {
			fmt.Printf("[%s] %s: %s\n", e.Timestamp.Format("15:04:05"), e.SpeakerName, e.TextIn(*language))
		},
	})

	if err := session.Start(ctx); err != nil {
		if errors.Is(err, controller.ErrLoginRequired) {
			return fmt.Errorf("%w (or pass -participant from an invite link)", err)
		}
		return err
	}

	meeting := session.Meeting()
	fmt.Printf("joined %q (code %s) as participant %s\n", meeting.Title, meeting.Code, session.Participant().ID)
	if session.ListenOnly() {
		fmt.Println("audio unavailable, listen-only")
	}

	var statusServer *http.Server
	if addr := built.Config.StatusAddr; addr != "" {
		statusServer = &http.Server{
			Addr:    addr,
			Handler: statusapi.New(version, session).Router(),
		}
		go func() {
			log.Printf("status listening on %s", addr)
			if err := statusServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				log.Printf("status listen error: %v", err)
			}
		}()
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh
	log.Printf("leaving meeting")

	leaveCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	session.Leave(leaveCtx)

	if statusServer != nil {
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 3*time.Second)
		defer cancelShutdown()
		_ = statusServer.Shutdown(shutdownCtx)
	}
	return nil
}

func printJSON(v any) error {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
