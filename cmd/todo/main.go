package main

import (
	"bufio"
	"context"
	"ctchen222/Todo-Tracker/internal/api/models"
	"ctchen222/Todo-Tracker/internal/client"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"golang.org/x/term"
)

const usage = `usage: todo [flags] <command> [args]

commands:
  register <name> <email>   create an account (prompts for a password)
  login <email>             start a session (prompts for a password)
  logout                    end every session of the current user
  list                      show your todos
  add <title>               add a todo
  done <id>                 mark a todo completed
  undo <id>                 mark a todo not completed
  edit <id> <title>         rename a todo
  rm <id>                   delete a todo

flags:
`

func main() {
	os.Exit(run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr))
}

type cli struct {
	client *client.Client
	list   *client.TodoList
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("todo", flag.ContinueOnError)
	fs.SetOutput(stderr)
	apiURL := fs.String("api", envOr("TODO_API_URL", "http://localhost:8080/api"), "base URL of the todo API")
	sessionPath := fs.String("session", os.Getenv("TODO_SESSION_FILE"), "session file (default: user config dir)")
	timeout := fs.Duration("timeout", 10*time.Second, "timeout for each API request")
	fs.Usage = func() {
		fmt.Fprint(stderr, usage)
		fs.PrintDefaults()
	}
	if err := fs.Parse(args); err != nil {
		return 2
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return 2
	}

	var store *client.FileStore
	if *sessionPath != "" {
		store = client.NewFileStore(*sessionPath)
	} else {
		var err error
		if store, err = client.DefaultFileStore(); err != nil {
			fmt.Fprintln(stderr, "error:", err)
			return 1
		}
	}

	c := client.New(*apiURL, store, &http.Client{Timeout: *timeout})
	app := &cli{client: c, list: client.NewTodoList(c), stdin: stdin, stdout: stdout, stderr: stderr}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	err := app.dispatch(ctx, fs.Arg(0), fs.Args()[1:])
	switch {
	case err == nil:
		return 0
	case errors.Is(err, errUsage):
		fs.Usage()
		return 2
	case errors.Is(err, client.ErrSessionExpired), errors.Is(err, client.ErrNotLoggedIn):
		fmt.Fprintln(stderr, "Your session has ended, please log in again: todo login <email>")
		return 1
	default:
		fmt.Fprintln(stderr, "error:", err)
		return 1
	}
}

var errUsage = errors.New("usage")

func (a *cli) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "register":
		if len(args) != 2 {
			return errUsage
		}
		return a.register(ctx, args[0], args[1])
	case "login":
		if len(args) != 1 {
			return errUsage
		}
		return a.login(ctx, args[0])
	case "logout":
		if err := a.client.Logout(ctx); err != nil {
			return err
		}
		fmt.Fprintln(a.stdout, "Logged out")
		return nil
	case "list":
		if err := a.list.Refresh(ctx); err != nil {
			return err
		}
		a.print(a.list.Items())
		return nil
	case "add":
		if len(args) == 0 {
			return errUsage
		}
		todo, err := a.list.Add(ctx, strings.Join(args, " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(a.stdout, "Added #%d %s\n", todo.ID, todo.Title)
		return nil
	case "done", "undo":
		id, err := parseID(args, 1)
		if err != nil {
			return err
		}
		if err := a.list.Refresh(ctx); err != nil {
			return err
		}
		todo, err := a.list.SetCompleted(ctx, id, cmd == "done")
		if err != nil {
			return a.explain(id, err)
		}
		a.print([]models.Todo{*todo})
		return nil
	case "edit":
		if len(args) < 2 {
			return errUsage
		}
		id, err := parseID(args[:1], 1)
		if err != nil {
			return err
		}
		if err := a.list.Refresh(ctx); err != nil {
			return err
		}
		todo, err := a.list.Rename(ctx, id, strings.Join(args[1:], " "))
		if err != nil {
			return a.explain(id, err)
		}
		a.print([]models.Todo{*todo})
		return nil
	case "rm":
		id, err := parseID(args, 1)
		if err != nil {
			return err
		}
		if err := a.list.Refresh(ctx); err != nil {
			return err
		}
		if err := a.list.Remove(ctx, id); err != nil {
			return a.explain(id, err)
		}
		fmt.Fprintf(a.stdout, "Removed #%d\n", id)
		return nil
	default:
		return errUsage
	}
}

func (a *cli) register(ctx context.Context, name, email string) error {
	password, err := a.password("Password: ")
	if err != nil {
		return err
	}
	user, err := a.client.Register(ctx, models.RegisterRequest{Name: name, Email: email, Password: password})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Registered %s <%s>. Log in with: todo login %s\n", user.Name, user.Email, user.Email)
	return nil
}

func (a *cli) login(ctx context.Context, email string) error {
	password, err := a.password("Password: ")
	if err != nil {
		return err
	}
	user, err := a.client.Login(ctx, models.LoginRequest{Email: email, Password: password})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.stdout, "Logged in as %s\n", user.Name)
	return nil
}

// password reads without echo from a terminal, or a single line otherwise.
func (a *cli) password(prompt string) (string, error) {
	if f, ok := a.stdin.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		fmt.Fprint(a.stderr, prompt)
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.stderr)
		if err != nil {
			return "", fmt.Errorf("failed to read password: %w", err)
		}
		return string(b), nil
	}

	line, err := bufio.NewReader(a.stdin).ReadString('\n')
	if err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return strings.TrimRight(line, "\r\n"), nil
}

func (a *cli) print(todos []models.Todo) {
	if len(todos) == 0 {
		fmt.Fprintln(a.stdout, "Nothing to do.")
		return
	}
	w := tabwriter.NewWriter(a.stdout, 0, 4, 2, ' ', 0)
	for _, t := range todos {
		mark := " "
		if t.Completed {
			mark = "x"
		}
		fmt.Fprintf(w, "[%s]\t#%d\t%s\n", mark, t.ID, t.Title)
	}
	w.Flush()
}

func (a *cli) explain(id int64, err error) error {
	if errors.Is(err, client.ErrNotInList) {
		return fmt.Errorf("you have no todo #%d", id)
	}
	return err
}

func parseID(args []string, want int) (int64, error) {
	if len(args) != want {
		return 0, errUsage
	}
	id, err := strconv.ParseInt(strings.TrimPrefix(args[0], "#"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("invalid todo id %q", args[0])
	}
	return id, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
