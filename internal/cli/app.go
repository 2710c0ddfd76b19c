// Package cli is a terminal front end for the site: sign in, browse and
// post in the forum, buy from the store, and flip developer mode, all
// against either the real backend or the local mock data.
package cli

import (
	"bufio"
	"context"
	"fmt"
	"io"

	"github.com/heartofacheron/site/internal/api"
	"github.com/heartofacheron/site/internal/devmode"
	"github.com/heartofacheron/site/internal/forum"
	"github.com/heartofacheron/site/internal/logging"
	"github.com/heartofacheron/site/internal/mock"
	"github.com/heartofacheron/site/internal/models"
	"github.com/heartofacheron/site/internal/payment"
	"github.com/heartofacheron/site/internal/session"
)

// Services are the pieces the App is composed from.
type Services struct {
	Flag    *devmode.Flag
	Mock    *mock.Backend
	Client  *api.Client
	Session *session.Manager
	Creds   payment.Credentials
	Log     logging.Logger

	// PaymentOptions are passed to the payment controller.
	PaymentOptions []payment.Option
}

// App owns the page controllers and the terminal.
type App struct {
	svc   Services
	log   logging.Logger
	in    *bufio.Reader
	out   io.Writer
	forum *forum.Controller
	pay   *payment.Controller
	page  string
}

func NewApp(svc Services, in io.Reader, out io.Writer) *App {
	if svc.Log == nil {
		svc.Log = logging.Discard()
	}
	a := &App{
		svc:  svc,
		log:  svc.Log,
		in:   bufio.NewReader(in),
		out:  out,
		page: "index.html",
	}
	a.forum = forum.NewController(svc.Flag, svc.Mock.Forum, svc.Client, svc.Session,
		forum.RenderFunc(a.renderForum), forum.WithLogger(svc.Log))

	opts := append([]payment.Option{payment.WithLogger(svc.Log)}, svc.PaymentOptions...)
	a.pay = payment.NewController(svc.Flag, svc.Mock.Commerce,
		payment.NewAPIGateway(svc.Client, terminalConfirmer{app: a}), svc.Creds, opts...)

	svc.Session.OnChange(func(u *models.User) {
		if u != nil {
			fmt.Fprintf(a.out, "Signed in as %s\n", u.Label())
		}
	})
	return a
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

// renderForum prints progress and errors; lists are printed by the commands
// once a screen has loaded.
func (a *App) renderForum(s forum.Section) {
	switch s.Status {
	case forum.StatusLoading:
		a.printf("Loading %s...\n", s.View)
	case forum.StatusError:
		a.printf("%s\n", s.Message)
	}
}

func (a *App) status(ctx context.Context) string {
	s := "guest"
	if u := a.svc.Session.CurrentUser(); u != nil {
		s = u.Label()
	}
	if a.svc.Flag.IsEnabled(ctx) {
		s += " dev"
	}
	return s
}

// Run initializes the session and reads commands until EOF or exit.
func (a *App) Run(ctx context.Context) {
	a.printf("Heart of Acheron (type 'help' for commands)\n")
	a.svc.Session.Init(ctx)

	for {
		a.printf("hoa (%s)> ", a.status(ctx))
		line, err := a.in.ReadString('\n')
		if line == "" && err != nil {
			a.printf("\n")
			return
		}
		if !a.exec(ctx, line) {
			return
		}
	}
}
