// Command rmctl is a terminal client for the travel backend. It keeps its
// session token in a local SQLite file and restores it on every start.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"flag"
	"fmt"
	"io"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Domenick1991/rmtravel/api"
	"github.com/Domenick1991/rmtravel/config"
	"github.com/Domenick1991/rmtravel/internal/cache"
	"github.com/Domenick1991/rmtravel/internal/domain"
	"github.com/Domenick1991/rmtravel/internal/logger"
	"github.com/Domenick1991/rmtravel/internal/repository"
	"github.com/Domenick1991/rmtravel/internal/security"
	"github.com/Domenick1991/rmtravel/internal/service/auth"
	"github.com/Domenick1991/rmtravel/internal/service/booking"
	"github.com/Domenick1991/rmtravel/internal/session"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

const usage = `usage: rmctl <command> [flags]

commands:
  register  -email -password -confirm [-first -last -phone]
  login     -email -password
  whoami
  profile   [-first -last -phone -nationality -passport]
  logout
  book      -type [-amount -currency -details -travel-date]
  bookings`

var errUsage = errors.New(usage)

func main() {
	cfgPath := os.Getenv("CONFIG_PATH")
	if cfgPath == "" {
		cfgPath = "config.yaml"
	}
	cfg, err := config.LoadConfig(cfgPath)
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	logCfg := cfg.Log
	logCfg.Level = "warn"
	zl, err := logger.New(logCfg)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer zl.Sync()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		zl.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	tokens, err := session.OpenSQLiteTokenStore(cfg.Client.TokenDB)
	if err != nil {
		zl.Fatal("open token store", zap.Error(err))
	}
	defer tokens.Close()

	authService := auth.NewAuthService(
		repository.NewUserRepository(pool),
		repository.NewSessionRepository(pool),
		security.BcryptHasher{Cost: cfg.Auth.BcryptCost},
		security.NewTokenIssuer([]byte(cfg.Auth.JWTSecret), cfg.Auth.Issuer, domain.SessionLifetime),
		cache.NewSessionCache(cfg.Auth.CacheTTL()),
		auth.WithLogger(zl),
	)

	a := &app{
		session:  session.New(authService, tokens, session.WithLogger(zl)),
		bookings: booking.NewBookingService(repository.NewBookingRepository(pool), booking.WithLogger(zl)),
		out:      os.Stdout,
	}

	if err := a.run(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

type app struct {
	session  *session.Context
	bookings booking.BookingUseCase
	out      io.Writer
}

func (a *app) run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	if err := a.session.Restore(ctx); err != nil {
		return err
	}

	cmd, rest := args[0], args[1:]
	switch cmd {
	case "register":
		return a.register(ctx, rest)
	case "login":
		return a.login(ctx, rest)
	case "whoami":
		return a.whoami()
	case "profile":
		return a.profile(ctx, rest)
	case "logout":
		a.session.Logout(ctx)
		fmt.Fprintln(a.out, api.MsgLoggedOut)
		return nil
	case "book":
		return a.book(ctx, rest)
	case "bookings":
		return a.listBookings(ctx)
	default:
		return errUsage
	}
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("register", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password")
	confirm := fs.String("confirm", "", "password again")
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	phone := fs.String("phone", "", "phone number")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *password != *confirm {
		return errors.New(api.MsgPasswordsMismatch)
	}

	input := auth.RegisterInput{Email: *email, Password: *password, FirstName: *first, LastName: *last}
	if *phone != "" {
		input.Phone = phone
	}
	return a.report(a.session.Register(ctx, input))
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	email := fs.String("email", "", "account email")
	password := fs.String("password", "", "password")
	if err := fs.Parse(args); err != nil {
		return err
	}
	return a.report(a.session.Login(ctx, *email, *password))
}

func (a *app) report(resp domain.AuthResponse) error {
	if !resp.Success {
		return errors.New(resp.Message)
	}
	fmt.Fprintln(a.out, resp.Message)
	return nil
}

func (a *app) whoami() error {
	user := a.session.User()
	if user == nil {
		return errors.New(api.MsgNotAuthenticated)
	}
	return a.print(user)
}

func (a *app) profile(ctx context.Context, args []string) error {
	if !a.session.IsAuthenticated() {
		return errors.New(api.MsgNotAuthenticated)
	}

	fs := flag.NewFlagSet("profile", flag.ContinueOnError)
	first := fs.String("first", "", "first name")
	last := fs.String("last", "", "last name")
	phone := fs.String("phone", "", "phone number")
	nationality := fs.String("nationality", "", "nationality")
	passport := fs.String("passport", "", "passport number")
	if err := fs.Parse(args); err != nil {
		return err
	}

	var upd domain.ProfileUpdate
	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "first":
			upd.FirstName = first
		case "last":
			upd.LastName = last
		case "phone":
			upd.Phone = phone
		case "nationality":
			upd.Nationality = nationality
		case "passport":
			upd.PassportNumber = passport
		}
	})

	if !a.session.UpdateProfile(ctx, upd) {
		return errors.New(api.MsgProfileUpdateFailed)
	}
	return a.print(a.session.User())
}

func (a *app) book(ctx context.Context, args []string) error {
	user := a.session.User()
	if user == nil {
		return errors.New(api.MsgNotAuthenticated)
	}

	fs := flag.NewFlagSet("book", flag.ContinueOnError)
	serviceType := fs.String("type", "", "service type, e.g. Flights")
	amount := fs.Float64("amount", 0, "total amount")
	currency := fs.String("currency", "", "ISO currency, defaults to NGN")
	details := fs.String("details", "", "service details as JSON")
	travel := fs.String("travel-date", "", "travel date YYYY-MM-DD")
	if err := fs.Parse(args); err != nil {
		return err
	}

	input := booking.CreateBookingInput{
		UserID:         user.ID,
		ServiceType:    *serviceType,
		ServiceDetails: json.RawMessage(*details),
		TotalAmount:    *amount,
		Currency:       *currency,
	}
	if *travel != "" {
		d, err := time.Parse(time.DateOnly, *travel)
		if err != nil {
			return fmt.Errorf("travel-date: %w", err)
		}
		input.TravelDate = &d
	}

	b, err := a.bookings.CreateBooking(ctx, input)
	if err != nil {
		return err
	}
	return a.print(b)
}

func (a *app) listBookings(ctx context.Context) error {
	user := a.session.User()
	if user == nil {
		return errors.New(api.MsgNotAuthenticated)
	}
	list, err := a.bookings.GetUserBookings(ctx, user.ID)
	if err != nil {
		return err
	}
	return a.print(list)
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
