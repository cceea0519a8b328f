package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"runtime"
	"strings"
	"syscall"
	"time"

	log "github.com/go-pkgz/lgr"
	ntf "github.com/go-pkgz/notify"
	"github.com/go-pkgz/repeater"
	"github.com/go-pkgz/repeater/strategy"
	"github.com/umputun/go-flags"
	"gopkg.in/natefinch/lumberjack.v2"

	"github.com/umputun/cue/app/commands"
	"github.com/umputun/cue/app/crontab"
	"github.com/umputun/cue/app/daemon"
	"github.com/umputun/cue/app/notify"
	"github.com/umputun/cue/app/queue"
	"github.com/umputun/cue/app/resumer"
	"github.com/umputun/cue/app/store"
	"github.com/umputun/cue/app/web"
)

type options struct {
	Queue       string        `short:"q" long:"queue" env:"CUE_QUEUE" default:"default" description:"queue name"`
	Delay       time.Duration `long:"delay" env:"CUE_DELAY" default:"100ms" description:"initial poll delay"`
	Backoff     float64       `long:"backoff" env:"CUE_BACKOFF" default:"1.15" description:"poll delay backoff factor, >= 1"`
	MaxDelay    time.Duration `long:"max-delay" env:"CUE_MAX_DELAY" default:"60s" description:"max poll delay"`
	LockDir     string        `long:"lock-dir" env:"CUE_LOCK_DIR" default:"/tmp/cue" description:"lock files location"`
	StopTimeout time.Duration `long:"stop-timeout" env:"CUE_STOP_TIMEOUT" default:"30s" description:"how long stop waits for consumer to exit"`
	StackSize   int           `long:"stack-size" env:"CUE_STACK_SIZE" default:"10" description:"size of undo history"`
	Serializer  string        `long:"serializer" env:"CUE_SERIALIZER" choice:"json" choice:"gob" default:"json" description:"payload serializer"`
	CrontabFile string        `short:"f" long:"file" env:"CUE_FILE" description:"crontab or yaml (.yml, .yaml) file with periodic shell jobs"`
	Resume      string        `short:"r" long:"resume" env:"CUE_RESUME" description:"auto-resume location"`
	Dir         string        `long:"dir" env:"CUE_DIR" description:"working dir of enqueued shell command"`
	LogPrefix   bool          `long:"log-prefix" env:"CUE_LOG_PREFIX" description:"prefix shell command output with command"`
	Templates   bool          `long:"templates" env:"CUE_TEMPLATES" description:"expand date templates in shell commands"`
	TimeZone    string        `long:"tz" env:"CUE_TZ" default:"Local" description:"time zone of date templates"`
	Dbg         bool          `long:"dbg" env:"CUE_DEBUG" description:"debug mode"`

	Store struct {
		Type     string `long:"type" env:"TYPE" choice:"sqlite" choice:"postgres" choice:"redis" default:"sqlite" description:"queue backend"`
		SQLite   string `long:"sqlite" env:"SQLITE" default:"cue.db" description:"sqlite file"`
		Postgres string `long:"postgres" env:"POSTGRES" description:"postgres dsn"`
		Redis    string `long:"redis" env:"REDIS" default:"redis://localhost:6379/0" description:"redis url"`
	} `group:"store" namespace:"store" env-namespace:"CUE_STORE"`

	Repeater struct {
		Attempts int           `long:"attempts" env:"ATTEMPTS" default:"1" description:"how many time repeat failed command"`
		Duration time.Duration `long:"duration" env:"DURATION" default:"1s" description:"initial duration"`
		Factor   float64       `long:"factor" env:"FACTOR" default:"3" description:"backoff factor"`
		Jitter   bool          `long:"jitter" env:"JITTER" description:"jitter"`
	} `group:"repeater" namespace:"repeater" env-namespace:"CUE_REPEATER"`

	Notify struct {
		SMTPHost      string        `long:"smtp-host" env:"SMTP_HOST" description:"SMTP host"`
		SMTPPort      int           `long:"smtp-port" env:"SMTP_PORT" default:"25" description:"SMTP port"`
		SMTPUsername  string        `long:"smtp-username" env:"SMTP_USERNAME" description:"SMTP user name"`
		SMTPPassword  string        `long:"smtp-password" env:"SMTP_PASSWORD" description:"SMTP password"`
		SMTPTLS       bool          `long:"smtp-tls" env:"SMTP_TLS" description:"enable SMTP TLS"`
		SMTPTimeOut   time.Duration `long:"smtp-timeout" env:"SMTP_TIMEOUT" default:"10s" description:"SMTP TCP connection timeout"`
		FromEmail     string        `long:"from" env:"FROM" description:"SMTP from email"`
		ToEmails      []string      `long:"to" env:"TO" description:"SMTP to email(s)" env-delim:","`
		MaxLogLines   int           `long:"max-log" env:"MAX_LOG" default:"100" description:"max number of output lines in error"`
		HostName      string        `long:"host" env:"HOSTNAME" description:"host name running cue"`
		ErrorTemplate string        `long:"err-template" env:"ERR_TEMPLATE" description:"error notification template file"`
	} `group:"notify" namespace:"notify" env-namespace:"CUE_NOTIFY"`

	Web struct {
		Enabled      bool    `long:"enabled" env:"ENABLED" description:"enable status server"`
		Address      string  `long:"address" env:"ADDRESS" default:"127.0.0.1:8080" description:"status server listen address"`
		PasswordHash string  `long:"password-hash" env:"PASSWORD_HASH" description:"bcrypt hash of flush password"`
		FlushLimit   float64 `long:"flush-limit" env:"FLUSH_LIMIT" default:"1" description:"max flush requests per second"`
	} `group:"web" namespace:"web" env-namespace:"CUE_WEB"`

	Log struct {
		Enabled         bool   `long:"enabled" env:"ENABLED" description:"enable logging to file"`
		Filename        string `long:"filename" env:"FILENAME" default:"cue.log" description:"file to log to"`
		MaxSize         int    `long:"max-size" env:"MAX_SIZE" default:"1" description:"maximum size in megabytes before rotation"`
		MaxBackups      int    `long:"max-backups" env:"MAX_BACKUPS" default:"3" description:"maximum number of old log files to retain"`
		MaxAge          int    `long:"max-age" env:"MAX_AGE" default:"0" description:"maximum number of days to retain old log files"`
		EnabledCompress bool   `long:"enabled-compress" env:"ENABLED_COMPRESS" description:"compress rotated log files"`
	} `group:"log" namespace:"log" env-namespace:"CUE_LOG"`
}

var opts options

var revision = "unknown"

const usage = "start|stop|restart|status|flush|schema|enqueue [-- command...]"

// queueBackend is a store backend able to list pending records
type queueBackend interface {
	store.Backend
	web.Peeker
}

func main() {
	fmt.Printf("cue %s\n", revision)

	p := flags.NewParser(&opts, flags.Default)
	p.Usage = "[OPTIONS] " + usage
	args, err := p.Parse()
	if err != nil {
		os.Exit(2)
	}
	if len(args) == 0 {
		p.WriteHelp(os.Stderr)
		os.Exit(2)
	}
	setupLog(opts.Dbg, setupLogs())

	defer func() {
		if x := recover(); x != nil {
			log.Printf("[WARN] run time panic:\n%v", x)
			panic(x)
		}
	}()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	signals(cancel) // handle SIGQUIT and SIGTERM

	if err := run(ctx, args[0], args[1:]); err != nil {
		if errors.Is(err, errUnknownVerb) {
			log.Printf("[ERROR] %v, expected %s", err, usage)
			os.Exit(2)
		}
		log.Fatalf("[ERROR] %v", err)
	}
}

var errUnknownVerb = errors.New("unknown verb")

func run(ctx context.Context, verb string, args []string) error {
	if err := daemon.CheckQueueName(opts.Queue); err != nil {
		return err
	}
	switch verb {
	case "start":
		return start(ctx)
	case "stop":
		return stop(ctx)
	case "restart":
		if err := stop(ctx); err != nil {
			return err
		}
		return start(ctx)
	case "status":
		return status(ctx, os.Stdout)
	case "flush":
		return flush(ctx)
	case "enqueue":
		return enqueue(ctx, args)
	case "schema":
		return schema(os.Stdout)
	default:
		return fmt.Errorf("%q: %w", verb, errUnknownVerb)
	}
}

// start runs consumer until context canceled, with optional status server
func start(ctx context.Context) error {
	backend, closeFn, err := makeBackend(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	registry, err := makeRegistry()
	if err != nil {
		return err
	}

	journal := resumer.New(opts.Resume, opts.Resume != "")
	rptr := repeater.New(&strategy.Backoff{Repeats: opts.Repeater.Attempts, Duration: opts.Repeater.Duration,
		Factor: opts.Repeater.Factor, Jitter: opts.Repeater.Jitter})
	inv := queue.NewInvoker(backend, registry, opts.Queue,
		queue.WithStackSize(opts.StackSize), queue.WithRepeater(rptr), queue.WithJournal(journal))

	consumer := &daemon.Consumer{
		Params: daemon.Params{Queue: opts.Queue, LockDir: opts.LockDir, Delay: opts.Delay,
			Factor: opts.Backoff, MaxDelay: opts.MaxDelay},
		Invoker: inv,
		Journal: journal,
	}
	// don't assign nil *notify.Service to the interface
	if svc := makeNotifier(); svc != nil {
		consumer.Notifier = svc
	}

	if opts.Web.Enabled {
		srv, err := web.New(web.Config{Version: revision, PasswordHash: opts.Web.PasswordHash,
			FlushLimit: opts.Web.FlushLimit, Queue: inv, Stats: consumer, Peeker: backend, TypeIDs: registry.TypeIDs()})
		if err != nil {
			return fmt.Errorf("can't make status server: %w", err)
		}
		webCtx, webCancel := context.WithCancel(ctx)
		defer webCancel()
		go func() {
			if err := srv.Run(webCtx, opts.Web.Address); err != nil {
				log.Printf("[WARN] %v", err)
			}
		}()
	}

	return consumer.Run(ctx)
}

// stop sends SIGTERM to the consumer owning the lock and waits for the lock release
func stop(ctx context.Context) error {
	lock := daemon.NewLock(opts.LockDir, opts.Queue)
	if !lock.Held() {
		log.Printf("[INFO] consumer for %q not running", opts.Queue)
		return nil
	}
	pid, err := lock.PID()
	if err != nil {
		return err
	}
	proc, err := os.FindProcess(pid)
	if err != nil {
		return fmt.Errorf("can't find consumer process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return fmt.Errorf("can't stop consumer process %d: %w", pid, err)
	}
	log.Printf("[INFO] SIGTERM sent to consumer %d", pid)

	checks := max(int(opts.StopTimeout/(100*time.Millisecond)), 1)
	err = repeater.New(&strategy.FixedDelay{Repeats: checks, Delay: 100 * time.Millisecond}).
		Do(ctx, func() error {
			if lock.Held() {
				return fmt.Errorf("lock %s still held", lock.Path())
			}
			return nil
		})
	if err != nil {
		return fmt.Errorf("consumer %d not stopped: %w", pid, err)
	}
	log.Printf("[INFO] consumer %d stopped", pid)
	return nil
}

// status prints consumer state and queue length
func status(ctx context.Context, w io.Writer) error {
	lock := daemon.NewLock(opts.LockDir, opts.Queue)
	state := "stopped"
	if lock.Held() {
		state = "running"
		if pid, err := lock.PID(); err == nil {
			state = fmt.Sprintf("running, pid %d", pid)
		}
	}

	backend, closeFn, err := makeBackend(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	n, err := backend.Len(ctx, opts.Queue)
	if err != nil {
		return fmt.Errorf("can't get length of %s: %w", opts.Queue, err)
	}
	_, err = fmt.Fprintf(w, "queue %s: %s, %d pending\n", opts.Queue, state, n)
	return err
}

// flush drops pending messages and resume entries of the queue
func flush(ctx context.Context) error {
	backend, closeFn, err := makeBackend(ctx)
	if err != nil {
		return err
	}
	defer closeFn()
	if err := backend.Flush(ctx, opts.Queue); err != nil {
		return fmt.Errorf("can't flush %s: %w", opts.Queue, err)
	}
	log.Printf("[INFO] queue %s flushed", opts.Queue)

	// failed commands left in resume location would be put back on the next start
	if opts.Resume != "" {
		n, err := resumer.New(opts.Resume, true).Purge()
		if err != nil {
			return err
		}
		log.Printf("[INFO] %d resume entries removed from %s", n, opts.Resume)
	}
	return nil
}

// schema prints json schema of yaml jobs file
func schema(w io.Writer) error {
	data, err := crontab.Schema()
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(w, string(data))
	return err
}

// enqueue puts shell command made from args to the queue
func enqueue(ctx context.Context, args []string) error {
	command := strings.TrimSpace(strings.Join(args, " "))
	if command == "" {
		return errors.New("no command to enqueue")
	}
	backend, closeFn, err := makeBackend(ctx)
	if err != nil {
		return err
	}
	defer closeFn()

	runner := makeRunner()
	registry := queue.NewRegistry(makeSerializer())
	if err := registry.Discover(commands.Shell(runner)); err != nil {
		return err
	}
	inv := queue.NewInvoker(backend, registry, opts.Queue)
	if err := inv.Enqueue(ctx, runner.Command(command, opts.Dir)); err != nil {
		return err
	}
	log.Printf("[INFO] %q enqueued to %s", command, opts.Queue)
	return nil
}

func makeBackend(ctx context.Context) (queueBackend, func(), error) {
	switch opts.Store.Type {
	case "postgres":
		s, err := store.OpenPostgres(ctx, opts.Store.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return s, closer("postgres", s), nil
	case "redis":
		client, err := store.ConnectRedis(ctx, opts.Store.Redis, 5, time.Second)
		if err != nil {
			return nil, nil, err
		}
		return store.NewRedis(client), closer("redis", client), nil
	default:
		s, err := store.OpenSQLite(ctx, opts.Store.SQLite)
		if err != nil {
			return nil, nil, err
		}
		return s, closer("sqlite", s), nil
	}
}

func closer(name string, c io.Closer) func() {
	return func() {
		if err := c.Close(); err != nil {
			log.Printf("[WARN] can't close %s store, %v", name, err)
		}
	}
}

// makeRegistry discovers built-in shell command and periodic jobs of crontab file
func makeRegistry() (*queue.Registry, error) {
	runner := makeRunner()
	registry := queue.NewRegistry(makeSerializer())
	discovery := []func(*queue.Registry) error{commands.Shell(runner)}
	if opts.CrontabFile != "" {
		discovery = append(discovery, commands.Crontab(runner, crontab.NewParser(opts.CrontabFile)))
	}
	if err := registry.Discover(discovery...); err != nil {
		return nil, err
	}
	return registry, nil
}

func makeRunner() *commands.Runner {
	tz, err := time.LoadLocation(opts.TimeZone)
	if err != nil {
		log.Printf("[WARN] can't load time zone %q, local used, %v", opts.TimeZone, err)
		tz = time.Local
	}
	return &commands.Runner{LogPrefix: opts.LogPrefix, MaxLogLines: opts.Notify.MaxLogLines,
		Templates: opts.Templates, TimeZone: tz}
}

func makeSerializer() queue.Serializer {
	if opts.Serializer == "gob" {
		return queue.Gob{}
	}
	return queue.JSON{}
}

func makeNotifier() *notify.Service {
	if len(opts.Notify.ToEmails) == 0 {
		return nil
	}
	if opts.Notify.FromEmail == "" {
		opts.Notify.FromEmail = "cue@" + makeHostName()
	}
	return notify.NewService(
		notify.Params{ErrorTemplate: opts.Notify.ErrorTemplate, HostName: makeHostName()},
		notify.SendersParams{
			SMTPParams: ntf.SMTPParams{
				Host:        opts.Notify.SMTPHost,
				Port:        opts.Notify.SMTPPort,
				TLS:         opts.Notify.SMTPTLS,
				ContentType: "text/html",
				Username:    opts.Notify.SMTPUsername,
				Password:    opts.Notify.SMTPPassword,
				TimeOut:     opts.Notify.SMTPTimeOut,
			},
			FromEmail: opts.Notify.FromEmail,
			ToEmails:  opts.Notify.ToEmails,
		},
	)
}

func makeHostName() string {
	if opts.Notify.HostName != "" {
		return opts.Notify.HostName
	}
	host, err := os.Hostname()
	if err != nil {
		return "unknown"
	}
	return host
}

// setupLogs returns log destination, rotated file if enabled
func setupLogs() io.Writer {
	if !opts.Log.Enabled {
		return os.Stdout
	}
	return &lumberjack.Logger{
		Filename:   opts.Log.Filename,
		MaxSize:    opts.Log.MaxSize,
		MaxBackups: opts.Log.MaxBackups,
		MaxAge:     opts.Log.MaxAge,
		Compress:   opts.Log.EnabledCompress,
	}
}

func setupLog(dbg bool, out io.Writer) {
	if dbg {
		log.Setup(log.Debug, log.Msec, log.CallerFunc, log.CallerPkg, log.CallerFile, log.Out(out), log.Err(out))
		return
	}
	log.Setup(log.Msec, log.Out(out), log.Err(out))
}

func signals(cancel context.CancelFunc) {
	sigChan := make(chan os.Signal, 1)
	go func() {
		stacktrace := make([]byte, 8192)
		for sig := range sigChan {
			if sig == syscall.SIGQUIT { // catch SIGQUIT and print stack traces
				length := runtime.Stack(stacktrace, true)
				fmt.Println(string(stacktrace[:length]))
				continue
			}
			cancel() // terminate on SIGTERM and SIGINT
		}
	}()
	signal.Notify(sigChan, syscall.SIGQUIT, syscall.SIGTERM, syscall.SIGINT)
}
