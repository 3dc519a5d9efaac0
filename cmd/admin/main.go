// admin provisions staff accounts. Staff cannot sign up through the API.
//
//	admin create-staff --email a@school.edu --name "A. Person" --role committee --password ...
//	admin list-staff
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/pflag"

	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/config"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/database"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/models"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/services"
	"github.com/ahmetcoskunkizilkaya/safevoice-backend/internal/store"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, out io.Writer) error {
	if len(args) == 0 {
		return errors.New("usage: admin <create-staff|list-staff> [flags]")
	}
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to load .env: %w", err)
	}
	cfg := config.Load()

	switch args[0] {
	case "create-staff":
		return createStaff(cfg, args[1:], out)
	case "list-staff":
		return listStaff(cfg, out)
	default:
		return fmt.Errorf("unknown command %q", args[0])
	}
}

func createStaff(cfg *config.Config, args []string, out io.Writer) error {
	var email, name, role, department, password string
	flagSet := pflag.NewFlagSet("create-staff", pflag.ContinueOnError)
	flagSet.StringVar(&email, "email", "", "login email")
	flagSet.StringVar(&name, "name", "", "display name")
	flagSet.StringVar(&role, "role", string(models.RoleActionTaker), "admin, action_taker, committee or developer")
	flagSet.StringVar(&department, "department", "", "department shown on the roster")
	flagSet.StringVar(&password, "password", "", "initial password (or ADMIN_STAFF_PASSWORD)")
	if err := flagSet.Parse(args); err != nil {
		return err
	}
	if password == "" {
		password = os.Getenv("ADMIN_STAFF_PASSWORD")
	}

	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	user, err := services.NewAuthService(st, cfg).CreateStaff(ctx, email, name, password, models.Role(role), department)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "created %s (%s) uid=%s\n", user.Email, user.Role, user.UID)
	return nil
}

func listStaff(cfg *config.Config, out io.Writer) error {
	st, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer st.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	users, err := st.ListStaff(ctx)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UID\tEMAIL\tNAME\tROLE\tDEPARTMENT")
	for _, u := range users {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\n", u.UID, u.Email, u.Name, u.Role, u.Department)
	}
	return tw.Flush()
}

func openStore(cfg *config.Config) (store.Store, error) {
	if cfg.UsesMemoryStore() {
		return nil, errors.New("admin needs a persistent store; unset STORE_DRIVER=memory")
	}
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	return store.NewGormStore(db), nil
}
