// Package admin implements the maintenance commands behind cmd/admin:
// schema migration and account management without going through the API.
package admin

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/dmitrijs2005/microblog/internal/common"
	"github.com/dmitrijs2005/microblog/internal/cryptox"
	"github.com/dmitrijs2005/microblog/internal/flagx"
	"github.com/dmitrijs2005/microblog/internal/netx"
	"github.com/dmitrijs2005/microblog/internal/server"
	"github.com/dmitrijs2005/microblog/internal/server/config"
	"github.com/dmitrijs2005/microblog/internal/server/services"
	"golang.org/x/term"
)

// ErrUsage is returned when the command line cannot be understood.
// The usage text has already been printed.
var ErrUsage = errors.New("usage error")

// readPassword is a test seam for term.ReadPassword.
var readPassword = term.ReadPassword

// openBackend is a test seam for server.OpenBackend.
var openBackend = server.OpenBackend

const usage = `usage: admin <command> [flags] [-c config.json]

commands:
  migrate                        apply database migrations
  create-user -u NAME -e EMAIL   register a user; the password is read from the terminal
  set-password -u NAME           replace a user's password
  set-avatar -u NAME -f IMAGE    upload an avatar image to object storage
`

// MaxAvatarSize bounds the image accepted by set-avatar.
const MaxAvatarSize = 5 << 20

type Tool struct {
	backend *server.Backend
	out     io.Writer
	users   *services.UserService
	profile *services.ProfileService
}

// NewTool builds the command runner. storage may be nil, which disables
// set-avatar.
func NewTool(b *server.Backend, cfg *config.Config, out io.Writer, hasher cryptox.PasswordHasher, storage services.ObjectStorage) (*Tool, error) {
	creds, err := services.NewCredentials(hasher)
	if err != nil {
		return nil, err
	}
	return &Tool{
		backend: b,
		out:     out,
		users:   services.NewUserService(b.Store, b.Repos, creds, cfg),
		profile: services.NewProfileService(b.Store, b.Repos, creds, storage),
	}, nil
}

// Run parses args as "<command> [flags]", opens the configured store and
// executes the command.
func Run(ctx context.Context, args []string, out io.Writer) error {
	cmd, rest := flagx.SplitCommand(args)
	switch cmd {
	case "":
		fmt.Fprint(out, usage)
		return ErrUsage
	case "help":
		fmt.Fprint(out, usage)
		return nil
	}

	cfg := config.LoadWithoutFlags(rest)

	b, err := openBackend(ctx, cfg)
	if err != nil {
		return err
	}
	defer b.Close()

	var storage services.ObjectStorage
	if s3 := services.NewS3Storage(cfg); s3 != nil {
		storage = s3
	}

	tool, err := NewTool(b, cfg, out, cryptox.NewArgon2Hasher(cryptox.DefaultArgon2Params), storage)
	if err != nil {
		return err
	}
	return tool.Exec(ctx, cmd, rest)
}

func (t *Tool) Exec(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "migrate":
		return t.Migrate(ctx)
	case "create-user":
		return t.CreateUser(ctx, args)
	case "set-password":
		return t.SetPassword(ctx, args)
	case "set-avatar":
		return t.SetAvatar(ctx, args)
	default:
		fmt.Fprintf(t.out, "unknown command %q\n\n%s", cmd, usage)
		return ErrUsage
	}
}

func (t *Tool) Migrate(ctx context.Context) error {
	if err := t.backend.Migrate(ctx); err != nil {
		return err
	}
	fmt.Fprintln(t.out, "migrations applied")
	return nil
}

func (t *Tool) CreateUser(ctx context.Context, args []string) error {
	var username, email string

	fs := t.flagSet("create-user")
	fs.StringVar(&username, "u", "", "username")
	fs.StringVar(&email, "e", "", "email address")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-u", "-e"})); err != nil || username == "" || email == "" {
		fmt.Fprint(t.out, usage)
		return ErrUsage
	}

	password, err := t.promptPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := t.promptPassword("Repeat password: ")
	if err != nil {
		return err
	}

	user, err := t.users.Register(ctx, services.RegisterInput{
		Username:        username,
		Email:           email,
		Password:        password,
		PasswordConfirm: confirm,
	})
	if err != nil {
		return err
	}

	fmt.Fprintf(t.out, "created user %s (id %d)\n", user.Username, user.ID)
	return nil
}

func (t *Tool) SetPassword(ctx context.Context, args []string) error {
	var username string

	fs := t.flagSet("set-password")
	fs.StringVar(&username, "u", "", "username")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-u"})); err != nil || username == "" {
		fmt.Fprint(t.out, usage)
		return ErrUsage
	}

	password, err := t.promptPassword("New password: ")
	if err != nil {
		return err
	}

	if err := t.profile.ResetPassword(ctx, username, password); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("user %q: %w", username, err)
		}
		return err
	}

	fmt.Fprintf(t.out, "password updated for %s\n", username)
	return nil
}

func (t *Tool) SetAvatar(ctx context.Context, args []string) error {
	var username, path string

	fs := t.flagSet("set-avatar")
	fs.StringVar(&username, "u", "", "username")
	fs.StringVar(&path, "f", "", "image file")
	if err := fs.Parse(flagx.FilterArgs(args, []string{"-u", "-f"})); err != nil || username == "" || path == "" {
		fmt.Fprint(t.out, usage)
		return ErrUsage
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("error reading image: %w", err)
	}
	if len(data) > MaxAvatarSize {
		return fmt.Errorf("image is %d bytes, limit is %d", len(data), MaxAvatarSize)
	}
	contentType := http.DetectContentType(data)
	if !strings.HasPrefix(contentType, "image/") {
		return fmt.Errorf("%s is not an image (%s)", path, contentType)
	}

	user, err := t.profile.GetByUsername(ctx, username)
	if err != nil {
		return fmt.Errorf("user %q: %w", username, err)
	}

	key, url, err := t.profile.AvatarUploadURL(ctx, user.ID)
	if err != nil {
		return err
	}
	if err := netx.UploadToPresignedURL(ctx, url, contentType, data); err != nil {
		return fmt.Errorf("error uploading avatar: %w", err)
	}

	fmt.Fprintf(t.out, "avatar for %s stored as %s\n", username, key)
	return nil
}

func (t *Tool) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	return fs
}

// promptPassword reads a line from the terminal without echo.
func (t *Tool) promptPassword(prompt string) (string, error) {
	fmt.Fprint(t.out, prompt)
	pw, err := readPassword(int(os.Stdin.Fd()))
	fmt.Fprintln(t.out)
	if err != nil {
		return "", fmt.Errorf("error reading password: %w", err)
	}
	defer common.WipeByteArray(pw)
	return string(pw), nil
}
