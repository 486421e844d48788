package commands

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"flag"
	"fmt"
	"io"
	"net"
	"net/http"
	"os"
	"os/exec"
	"os/signal"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
)

var AuthoriseCmd = Authorise{
	command: command{},
}

type Authorise struct {
	command
}

func (cmd *Authorise) Name() string {
	return "authorise"
}

func (cmd *Authorise) Description() string {
	return "Authorises uhppoted-app-wordpress to access a Google Sheets worksheet"
}

func (cmd *Authorise) Usage() string {
	return "--credentials <file>"
}

func (cmd *Authorise) Help() {
	fmt.Println()
	fmt.Printf("  Usage: %s [--debug] [--config <file>] authorise [options]\n", APP)
	fmt.Println()
	fmt.Println("  Authorises uhppoted-app-wordpress to read and update a Google Sheets worksheet. The authorisation")
	fmt.Println("  token is cached in the tokens directory and refreshed automatically on subsequent runs. Not required")
	fmt.Println("  for service account credentials. The authorisation page redirects to a temporary HTTP server on")
	fmt.Println("  127.0.0.1, so the browser must run on the same machine.")
	fmt.Println()

	helpOptions(cmd.FlagSet())

	fmt.Println()
	fmt.Println("  Examples:")
	fmt.Println(`    uhppoted-app-wordpress authorise --credentials "credentials.json"`)
	fmt.Println()
}

func (cmd *Authorise) FlagSet() *flag.FlagSet {
	flagset := flag.NewFlagSet("authorise", flag.ExitOnError)

	flagset.StringVar(&cmd.workdir, "workdir", cmd.workdir, "Directory for working files (tokens, lockfile, etc)")
	flagset.StringVar(&cmd.credentials, "credentials", cmd.credentials, "Path for the Google 'credentials.json' file")
	flagset.StringVar(&cmd.tokens, "tokens", cmd.tokens, "Directory for the authorisation tokens. Defaults to <workdir>/.google")

	return flagset
}

func (cmd *Authorise) Execute(args ...any) error {
	options := args[0].(*Options)

	conf, err := loadConfig(options)
	if err != nil {
		return err
	}

	overlay(&conf.Workdir, cmd.workdir)
	overlay(&conf.Sheets.Credentials, cmd.credentials)

	if cmd.tokens == "" {
		cmd.tokens = filepath.Join(conf.Workdir, ".google")
	}

	// ... check parameters
	if strings.TrimSpace(conf.Sheets.Credentials) == "" {
		return fmt.Errorf("--credentials is a required option")
	}

	b, err := os.ReadFile(conf.Sheets.Credentials)
	if err != nil {
		return err
	}

	if kind(b) == "service_account" {
		infof("%v is a service account - no authorisation required", conf.Sheets.Credentials)
		return nil
	}

	config, err := google.ConfigFromJSON(b, SHEETS)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt)
	defer cancel()

	token, err := exchange(ctx, config, os.Stdout, browse)
	if err != nil {
		return fmt.Errorf("authorisation error (%w)", err)
	}

	file := tokenFile(conf.Sheets.Credentials, SHEETS, cmd.tokens)
	if err := saveToken(file, token); err != nil {
		return fmt.Errorf("unable to cache authorisation token (%w)", err)
	}

	infof("saved authorisation token to %v", file)

	return nil
}

// exchange runs the loopback variant of the OAuth2 installed application flow. The authorisation code is
// captured by a temporary HTTP server on 127.0.0.1 that is the redirect URL for the authorisation request.
func exchange(ctx context.Context, config *oauth2.Config, w io.Writer, browse func(string) error) (*oauth2.Token, error) {
	listener, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return nil, fmt.Errorf("unable to start local HTTP server (%w)", err)
	}

	state, err := nonce()
	if err != nil {
		listener.Close()
		return nil, err
	}

	config.RedirectURL = fmt.Sprintf("http://%v/", listener.Addr())

	authorised := make(chan string, 1)
	declined := make(chan error, 1)
	mux := http.NewServeMux()

	mux.HandleFunc("/", func(w http.ResponseWriter, rq *http.Request) {
		if rq.FormValue("state") != state {
			http.Error(w, "invalid state", http.StatusBadRequest)
			return
		}

		if reason := rq.FormValue("error"); reason != "" {
			http.Error(w, "authorisation declined", http.StatusForbidden)
			select {
			case declined <- fmt.Errorf("authorisation declined (%v)", reason):
			default:
			}
			return
		}

		code := rq.FormValue("code")
		if code == "" {
			http.Error(w, "missing authorisation code", http.StatusBadRequest)
			return
		}

		fmt.Fprintln(w, "uhppoted-app-wordpress is authorised. You can close this page.")

		select {
		case authorised <- code:
		default:
		}
	})

	srv := &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 2 * time.Second,
	}

	go func() {
		if err := srv.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			warnf("%v", err)
		}
	}()

	defer srv.Shutdown(context.Background())

	url := config.AuthCodeURL(state, oauth2.AccessTypeOffline)

	fmt.Fprintf(w, "Open the following link in your browser to authorise access to the worksheet:\n\n  %v\n\n", url)

	if browse != nil {
		if err := browse(url); err != nil {
			debugf("could not open the authorisation page in a browser (%v)", err)
		}
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()

	case err := <-declined:
		return nil, err

	case code := <-authorised:
		return config.Exchange(ctx, code)
	}
}

func browse(url string) error {
	command := "xdg-open"
	if runtime.GOOS == "darwin" {
		command = "open"
	}

	return exec.Command(command, url).Start()
}

func nonce() (string, error) {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}

	return hex.EncodeToString(b), nil
}
