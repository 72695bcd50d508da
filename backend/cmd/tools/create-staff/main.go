package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"net/mail"
	"os"
	"strings"

	"github.com/ligaac/practica/shared/config"
	"github.com/ligaac/practica/shared/domain"
	"github.com/ligaac/practica/shared/storage"
	"github.com/ligaac/practica/shared/utils"
	"golang.org/x/crypto/bcrypt"
)

const generatedPasswordLength = 16

type staffCreator interface {
	CreateStaff(ctx context.Context, account storage.StaffAccount) (domain.UserId, error)
}

type options struct {
	configFolder string
	email        string
	firstName    string
	lastName     string
	password     string
	superuser    bool
	groups       string
}

func parseFlags(args []string) (options, error) {
	var opts options
	fs := flag.NewFlagSet("create-staff", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&opts.configFolder, "config_folder", "backend/config", "path to folder with configs")
	fs.StringVar(&opts.email, "email", "", "login email (required)")
	fs.StringVar(&opts.firstName, "first_name", "", "first name")
	fs.StringVar(&opts.lastName, "last_name", "", "last name")
	fs.StringVar(&opts.password, "password", "", "password; generated and printed when empty")
	fs.BoolVar(&opts.superuser, "superuser", false, "grant superuser rights")
	fs.StringVar(&opts.groups, "groups", "", "comma separated group names, e.g. a company's HR group")
	if err := fs.Parse(args); err != nil {
		return opts, err
	}

	if opts.email == "" {
		return opts, errors.New("-email is required")
	}
	if _, err := mail.ParseAddress(opts.email); err != nil {
		return opts, fmt.Errorf("invalid -email %q", opts.email)
	}
	return opts, nil
}

func splitGroups(s string) []string {
	var groups []string
	for _, g := range strings.Split(s, ",") {
		if g = strings.TrimSpace(g); g != "" {
			groups = append(groups, g)
		}
	}
	return groups
}

// run hashes the password and stores the account. A generated password is written to out.
func run(ctx context.Context, opts options, creator staffCreator, out io.Writer) error {
	password := opts.password
	generated := password == ""
	if generated {
		password = utils.GeneratePassword(generatedPasswordLength)
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}

	id, err := creator.CreateStaff(ctx, storage.StaffAccount{
		Email:     opts.email,
		FirstName: opts.firstName,
		LastName:  opts.lastName,
		PassHash:  string(hash),
		Superuser: opts.superuser,
		Groups:    splitGroups(opts.groups),
	})
	if err != nil {
		return err
	}

	role := "staff"
	if opts.superuser {
		role = "superuser"
	}
	fmt.Fprintf(out, "Created %s %s (id %d)\n", role, opts.email, id)
	if generated {
		fmt.Fprintf(out, "Password: %s\n", password)
	}
	return nil
}

func main() {
	log.SetFlags(log.Lshortfile)

	opts, err := parseFlags(os.Args[1:])
	if err != nil {
		log.Fatalf("usage: create-staff -email EMAIL [-first_name F] [-last_name L] [-password P] [-superuser] [-groups a,b]: %v", err)
	}

	if err := config.LoadDotEnv(".env"); err != nil {
		log.Fatal(err)
	}
	ctx := context.Background()
	cfg := config.MustLoad(opts.configFolder)
	store, err := storage.New(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer store.Close()

	if err := run(ctx, opts, store, os.Stdout); err != nil {
		log.Fatalf("Failed to create staff account: %v", err)
	}
}
