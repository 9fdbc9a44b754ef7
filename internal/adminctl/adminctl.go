// Package adminctl implements the operator command line: hashing passwords,
// checking a password against a stored hash and creating admin accounts in
// the database named by the secret file.
package adminctl

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"

	"github.com/dmitrijs2005/studentvault/internal/common"
	"github.com/dmitrijs2005/studentvault/internal/cryptox"
	"github.com/dmitrijs2005/studentvault/internal/flagx"
	"github.com/dmitrijs2005/studentvault/internal/logging"
	"github.com/dmitrijs2005/studentvault/internal/server"
	"github.com/dmitrijs2005/studentvault/internal/server/config"
	"github.com/dmitrijs2005/studentvault/internal/server/services"
)

const usage = `usage: adminctl <command> [flags]

commands:
  hash   [-algorithm bcrypt|argon2id]   print the hash of a password
  check  -hash <encoded>                check a password against a hash
  create -name <name> -email <email>    add an admin to the configured database
`

var createFlags = []string{"-name", "-email", "-h", "-help"}

// loadConfig is a seam for tests.
var loadConfig = config.LoadConfig

// Run executes one command and returns the process exit code.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}

	p := newPrompter(stdin, stdout)

	var err error
	switch args[0] {
	case "hash":
		err = runHash(args[1:], p, stdout)
	case "check":
		err = runCheck(args[1:], p, stdout)
	case "create":
		err = runCreate(ctx, args[1:], p, stdout)
	case "help", "-h", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "unknown command %q\n%s", args[0], usage)
		return 2
	}

	if err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		fmt.Fprintf(stderr, "adminctl %s: %v\n", args[0], err)
		return 1
	}
	return 0
}

func runHash(args []string, p *prompter, out io.Writer) error {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	algorithm := fs.String("algorithm", string(cryptox.AlgorithmBcrypt), "bcrypt or argon2id")
	if err := fs.Parse(args); err != nil {
		return err
	}

	h, err := cryptox.NewPasswordHasher(cryptox.WithAlgorithm(cryptox.Algorithm(*algorithm)))
	if err != nil {
		return err
	}

	pw, err := p.newPassword()
	if err != nil {
		return err
	}

	encoded, err := h.Hash(pw)
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(out, encoded)
	return err
}

func runCheck(args []string, p *prompter, out io.Writer) error {
	fs := flag.NewFlagSet("check", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	encoded := fs.String("hash", "", "encoded password hash")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *encoded == "" {
		return fmt.Errorf("%w: -hash is required", common.ErrValidation)
	}

	pw, err := p.password("Enter password: ")
	if err != nil {
		return err
	}

	ok, err := cryptox.VerifyPassword(pw, *encoded)
	if err != nil {
		return err
	}
	if !ok {
		fmt.Fprintln(out, "mismatch")
		return errors.New("password does not match")
	}
	_, err = fmt.Fprintln(out, "match")
	return err
}

func runCreate(ctx context.Context, args []string, p *prompter, out io.Writer) error {
	fs := flag.NewFlagSet("create", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	name := fs.String("name", "", "admin display name")
	email := fs.String("email", "", "admin email")
	// the rest (-c, -d, -f, ...) is read by the config loader
	if err := fs.Parse(flagx.FilterArgs(args, createFlags)); err != nil {
		return err
	}
	if *name == "" || *email == "" {
		return fmt.Errorf("%w: -name and -email are required", common.ErrValidation)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	// never rotate the key from here
	cfg.ReuseSecrets = true

	l := logging.Nop()
	store, err := server.NewSecretStore(ctx, cfg, l)
	if err != nil {
		return err
	}
	db, m, err := server.OpenDatabase(ctx, store)
	if err != nil {
		return err
	}
	defer db.Close()

	h, err := cryptox.NewPasswordHasher(cfg.HasherOptions()...)
	if err != nil {
		return err
	}

	pw, err := p.newPassword()
	if err != nil {
		return err
	}

	svc, err := services.NewAuthService(db, m, h, nil, l)
	if err != nil {
		return err
	}
	admin, err := svc.CreateAdmin(ctx, *name, *email, pw)
	if err != nil {
		return err
	}

	_, err = fmt.Fprintf(out, "created admin %s <%s>\n", admin.ID, admin.Email)
	return err
}
