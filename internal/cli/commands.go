package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/heartofacheron/site/internal/api"
	"github.com/heartofacheron/site/internal/forum"
	"github.com/heartofacheron/site/internal/models"
	"github.com/heartofacheron/site/internal/payment"
)

const helpText = `Commands:
  status                     show sign-in, developer mode and payment mode
  devmode [on|off]           toggle or set developer mode
  register | login | logout  manage your account
  me                         show your profile
  forum                      list categories
  topics <category>          list topics in a category
  topic <id>                 open a topic
  back                       go up one screen
  newtopic [category]        start a topic
  reply                      reply to the open topic
  edit <postId> | delete <postId>
  products                   list the store
  buy <product>              buy by id or title
  orders                     list orders
  contact                    send a message
  clearmock                  delete all mock data (developer mode)
  exit | quit`

// exec runs one command line and reports whether to keep going.
func (a *App) exec(ctx context.Context, line string) bool {
	parts := strings.Fields(line)
	if len(parts) == 0 {
		return true
	}
	cmd, args := parts[0], parts[1:]

	var err error
	switch cmd {
	case "help":
		a.printf("%s\n", helpText)
	case "status":
		a.showStatus(ctx)
	case "devmode":
		err = a.devMode(ctx, args)
	case "register":
		err = a.register(ctx)
	case "login":
		err = a.login(ctx)
	case "logout":
		a.logout(ctx)
	case "me":
		a.me()
	case "forum", "categories":
		a.page = "forum.html"
		err = a.showCategories(ctx)
	case "topics":
		err = a.showTopics(ctx, args)
	case "topic":
		err = a.showTopic(ctx, args)
	case "back":
		err = a.back(ctx)
	case "newtopic":
		err = a.newTopic(ctx, args)
	case "reply":
		err = a.reply(ctx)
	case "edit":
		err = a.editPost(ctx, args)
	case "delete":
		err = a.deletePost(ctx, args)
	case "products":
		a.products()
	case "buy":
		err = a.buy(ctx, args)
	case "orders":
		err = a.orders(ctx)
	case "contact":
		err = a.contact(ctx)
	case "clearmock":
		err = a.clearMock(ctx)
	case "exit", "quit":
		a.printf("Bye!\n")
		return false
	default:
		a.printf("Unknown command: %s\n", cmd)
	}
	if err != nil {
		a.printf("Error: %v\n", err)
	}
	return true
}

var errUsage = errors.New("missing argument, see 'help'")

func (a *App) showStatus(ctx context.Context) {
	user := "not signed in"
	if u := a.svc.Session.CurrentUser(); u != nil {
		user = fmt.Sprintf("%s <%s>", u.Label(), u.Email)
	}
	mode := "live"
	if a.pay.Simulated(ctx) {
		mode = "simulated"
	}
	a.printf("User: %s\nDeveloper mode: %t\nPayments: %s\nBackend: %s\n",
		user, a.svc.Flag.IsEnabled(ctx), mode, a.svc.Client.BaseURL())
}

func (a *App) devMode(ctx context.Context, args []string) error {
	var err error
	switch {
	case len(args) == 0:
		err = a.svc.Flag.Toggle(ctx)
	case args[0] == "on":
		err = a.svc.Flag.Set(ctx, true)
	case args[0] == "off":
		err = a.svc.Flag.Set(ctx, false)
	default:
		return errUsage
	}
	if err != nil {
		return err
	}
	if a.svc.Flag.Enabled() {
		a.printf("Developer mode enabled. Mock data is in use.\n")
	} else {
		a.printf("Developer mode disabled.\n")
	}
	return nil
}

func (a *App) register(ctx context.Context) error {
	email, err := prompt(a.in, a.out, "Email")
	if err != nil {
		return err
	}
	password, err := promptPassword(a.in, a.out)
	if err != nil {
		return err
	}
	character, err := prompt(a.in, a.out, "Character name")
	if err != nil {
		return err
	}
	steamID, err := prompt(a.in, a.out, "Steam ID (optional)")
	if err != nil {
		return err
	}

	u, err := a.svc.Session.Register(ctx, models.RegisterRequest{
		Email: email, Password: password, CharacterName: character, SteamID: steamID,
	})
	if err != nil {
		return err
	}
	a.printf("Account created for %s. You can log in now.\n", u.Email)
	return nil
}

func (a *App) login(ctx context.Context) error {
	email, err := prompt(a.in, a.out, "Email")
	if err != nil {
		return err
	}
	password, err := promptPassword(a.in, a.out)
	if err != nil {
		return err
	}
	remember := confirm(a.in, a.out, "Remember me")

	_, err = a.svc.Session.Login(ctx, email, password, remember)
	return err
}

func (a *App) logout(ctx context.Context) {
	if next := a.svc.Session.Logout(ctx, a.page); next != "" {
		a.page = next
	}
	a.printf("Signed out.\n")
}

func (a *App) me() {
	u := a.svc.Session.CurrentUser()
	if u == nil {
		a.printf("Not signed in.\n")
		return
	}
	a.printf("Email: %s\nCharacter: %s\n", u.Email, u.CharacterName)
	if u.SteamID != "" {
		a.printf("Steam ID: %s\n", u.SteamID)
	}
	if !u.CreatedAt.IsZero() {
		a.printf("Member since: %s\n", u.CreatedAt.Format("Jan 2, 2006"))
	}
}

func (a *App) showCategories(ctx context.Context) error {
	if err := a.forum.ShowCategories(ctx); err != nil {
		return nil // already rendered
	}
	for _, c := range a.forum.Categories() {
		a.printf("  %-14s %-22s %3d topics  %s\n", c.CategoryID, c.Name, c.TopicCount, c.Description)
	}
	return nil
}

func (a *App) printTopics() {
	topics := a.forum.Topics()
	if len(topics) == 0 {
		a.printf("No topics yet. Be the first to start a discussion!\n")
		return
	}
	for _, t := range topics {
		flags := ""
		if t.IsPinned() {
			flags += "[pinned]"
		}
		if t.IsLocked() {
			flags += "[locked]"
		}
		a.printf("  %-20s %s %s  by %s, %d replies, %d views\n",
			t.TopicID, flags, t.Title, t.Name(), t.RepliesCount, t.Views)
	}
}

func (a *App) showTopics(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	a.page = "forum.html"
	if err := a.forum.ShowTopics(ctx, args[0]); err != nil {
		return nil
	}
	a.printTopics()
	return nil
}

func (a *App) printTopic(ctx context.Context) {
	t := a.forum.Topic()
	if t == nil {
		return
	}
	a.printf("%s\n  by %s on %s, %d views\n\n%s\n", t.Title, t.Name(), t.CreatedAt.Format("Jan 2, 2006"), t.Views, t.Content)
	for _, p := range a.forum.Posts() {
		edited := ""
		if p.EditedAt != nil {
			edited = " (edited)"
		}
		a.printf("\n  [%s] %s, %s%s\n  %s\n", p.PostID, p.Name(), p.CreatedAt.Format("Jan 2, 2006"), edited, p.Content)
	}
	switch {
	case t.IsLocked():
		a.printf("\nThis topic is locked.\n")
	case !a.forum.ReplyVisible(ctx):
		a.printf("\nLog in to reply.\n")
	}
}

func (a *App) showTopic(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	a.page = "forum.html"
	category := ""
	for _, t := range a.forum.Topics() {
		if t.TopicID == args[0] {
			category = t.CategoryID
		}
	}
	if err := a.forum.ShowTopic(ctx, category, args[0]); err != nil {
		return nil
	}
	a.printTopic(ctx)
	return nil
}

func (a *App) back(ctx context.Context) error {
	if err := a.forum.Back(ctx); err != nil {
		return nil
	}
	switch a.forum.View() {
	case forum.ViewTopics:
		a.printTopics()
	default:
		for _, c := range a.forum.Categories() {
			a.printf("  %-14s %s\n", c.CategoryID, c.Name)
		}
	}
	return nil
}

func (a *App) newTopic(ctx context.Context, args []string) error {
	category := a.forum.CategoryID()
	if len(args) > 0 {
		category = args[0]
	}
	if !a.forum.CanPost(ctx) {
		return forum.ErrLoginRequired
	}
	title, err := prompt(a.in, a.out, "Title")
	if err != nil {
		return err
	}
	content, err := promptMultiline(a.in, a.out, "Content")
	if err != nil {
		return err
	}

	if _, err := a.forum.NewTopic(ctx, category, title, content); err != nil {
		return err
	}
	a.printTopic(ctx)
	return nil
}

func (a *App) reply(ctx context.Context) error {
	if a.forum.Topic() == nil {
		return forum.ErrNoTopic
	}
	if !a.forum.ReplyVisible(ctx) {
		if a.forum.Topic().IsLocked() {
			return forum.ErrTopicLocked
		}
		return forum.ErrLoginRequired
	}
	content, err := promptMultiline(a.in, a.out, "Reply")
	if err != nil {
		return err
	}
	if _, err := a.forum.Reply(ctx, content); err != nil {
		return err
	}
	a.printTopic(ctx)
	return nil
}

func (a *App) editPost(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	content, err := promptMultiline(a.in, a.out, "New content")
	if err != nil {
		return err
	}
	if err := a.forum.EditPost(ctx, args[0], content); err != nil {
		return err
	}
	a.printTopic(ctx)
	return nil
}

func (a *App) deletePost(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	if !confirm(a.in, a.out, "Delete post "+args[0]) {
		return nil
	}
	if err := a.forum.DeletePost(ctx, args[0]); err != nil {
		return err
	}
	a.printTopic(ctx)
	return nil
}

func (a *App) products() {
	for _, p := range payment.Catalog() {
		a.printf("  %-10s %-26s %s\n", p.ID, p.Title, p.Price)
	}
}

func (a *App) buy(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return errUsage
	}
	p, ok := payment.FindProduct(strings.Join(args, " "))
	if !ok {
		return fmt.Errorf("unknown product %q", strings.Join(args, " "))
	}
	a.page = "store.html"
	if err := a.pay.Open(p); err != nil {
		return err
	}
	defer a.pay.Close()

	a.printf("%s (%s)\n", p.Title, p.Price)
	if a.pay.Simulated(ctx) {
		a.printf("Test mode: no real payment will be taken.\n")
	}
	method, err := prompt(a.in, a.out, "Payment method [stripe|paypal|applepay|googlepay] (stripe)")
	if err != nil {
		return err
	}
	if method != "" {
		m, err := payment.ParseMethod(method)
		if err != nil {
			return err
		}
		if err := a.pay.Select(m); err != nil {
			return err
		}
	}

	info := payment.CustomerInfo{}
	if u := a.svc.Session.CurrentUser(); u != nil {
		info.Email, info.CharacterName, info.SteamID = u.Email, u.CharacterName, u.SteamID
	}
	for _, f := range []struct {
		label string
		dst   *string
	}{
		{"Name", &info.Name},
		{"Email", &info.Email},
		{"Phone (optional)", &info.Phone},
		{"Character name", &info.CharacterName},
		{"Steam ID (optional)", &info.SteamID},
	} {
		label := f.label
		if *f.dst != "" {
			label += " (" + *f.dst + ")"
		}
		v, err := prompt(a.in, a.out, label)
		if err != nil {
			return err
		}
		if v != "" {
			*f.dst = v
		}
	}

	a.printf("Processing...\n")
	receipt, err := a.pay.Pay(ctx, info)
	var verr *payment.ValidationError
	if errors.As(err, &verr) {
		fields := make([]string, 0, len(verr.Fields))
		for _, msg := range verr.Fields {
			fields = append(fields, msg)
		}
		sort.Strings(fields)
		for _, msg := range fields {
			a.printf("  %s\n", msg)
		}
		return nil
	}
	if err != nil {
		return fmt.Errorf("payment failed: %w", err)
	}
	a.printf("%s\n", receipt.Message)
	return nil
}

func (a *App) orders(ctx context.Context) error {
	var (
		orders []models.Order
		err    error
	)
	if a.svc.Flag.IsEnabled(ctx) {
		orders, err = a.svc.Mock.Commerce.Orders(ctx)
	} else {
		orders, err = a.svc.Client.Orders(ctx, a.svc.Session.Token(ctx))
	}
	if err != nil {
		return err
	}
	if len(orders) == 0 {
		a.printf("No orders yet.\n")
		return nil
	}
	for _, o := range orders {
		a.printf("  %-22s %-26s $%6.2f  %-10s %-10s %s\n",
			o.OrderID, o.ProductName, o.Price, o.PaymentProvider, o.Status, o.CreatedAt.Format("Jan 2, 2006"))
	}
	return nil
}

func (a *App) contact(ctx context.Context) error {
	var req models.ContactRequest
	for _, f := range []struct {
		label string
		dst   *string
	}{
		{"Name", &req.Name},
		{"Email", &req.Email},
		{"Subject (optional)", &req.Subject},
	} {
		v, err := prompt(a.in, a.out, f.label)
		if err != nil {
			return err
		}
		*f.dst = v
	}
	msg, err := promptMultiline(a.in, a.out, "Message")
	if err != nil {
		return err
	}
	req.Message = msg

	if err := a.svc.Client.Contact(ctx, req); err != nil {
		if errors.Is(err, api.ErrContactIncomplete) {
			return err
		}
		return fmt.Errorf("failed to send message, please try again later: %w", err)
	}
	a.printf("Thank you for your message! We'll get back to you soon.\n")
	return nil
}

func (a *App) clearMock(ctx context.Context) error {
	if !a.svc.Flag.IsEnabled(ctx) {
		return errors.New("developer mode is off")
	}
	if !confirm(a.in, a.out, "Delete all mock data") {
		return nil
	}
	if err := a.svc.Mock.Clear(ctx); err != nil {
		return err
	}
	a.printf("Mock data cleared.\n")
	return nil
}
