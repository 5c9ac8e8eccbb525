package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/citi94/order-coffee/internal/checkout"
	"github.com/citi94/order-coffee/internal/domain"
	"github.com/citi94/order-coffee/internal/menu"
)

type usageError string

func (e usageError) Error() string { return string(e) }

// optionFlags collects repeated -opt name=value flags.
type optionFlags map[string]string

func (o optionFlags) String() string {
	return domain.OptionsComment(o)
}

func (o optionFlags) Set(s string) error {
	name, value, ok := strings.Cut(s, "=")
	if !ok {
		return fmt.Errorf("option %q must be name=value", s)
	}
	o[name] = value
	return nil
}

func (k *kiosk) run(ctx context.Context, cmd string, args []string) error {
	out := os.Stdout
	switch cmd {
	case "menu":
		return k.menu(ctx, out)
	case "add":
		return k.add(ctx, out, args)
	case "remove":
		index, err := indexArg(args, 1)
		if err != nil {
			return err
		}
		if err := k.cart.RemoveItem(ctx, index); err != nil {
			return err
		}
		return k.show(out)
	case "update":
		index, err := indexArg(args, 2)
		if err != nil {
			return err
		}
		qty, err := strconv.Atoi(args[1])
		if err != nil {
			return usageError("quantity must be a number")
		}
		if err := k.cart.UpdateQuantity(ctx, index, qty); err != nil {
			return err
		}
		return k.show(out)
	case "clear":
		return k.cart.Clear(ctx)
	case "cart":
		return k.show(out)
	case "pickup-times":
		for _, slot := range checkout.PickupSlots(time.Now(), 12, 10*time.Minute) {
			fmt.Fprintln(out, slot)
		}
		return nil
	case "checkout":
		return k.checkout(ctx, out, args)
	case "resume":
		w, err := k.orchestrator.Resume(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintln(out, "Checking your payment...")
		return k.await(out, w)
	default:
		return usageError(fmt.Sprintf("unknown command %q", cmd))
	}
}

func indexArg(args []string, n int) (int, error) {
	if len(args) != n {
		return 0, usageError("wrong number of arguments")
	}
	index, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, usageError("index must be a number")
	}
	// Lines are shown numbered from 1.
	return index - 1, nil
}

func (k *kiosk) menu(ctx context.Context, out io.Writer) error {
	products, err := k.storefront.GetMenu(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for _, p := range products {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", p.ID, p.Name, p.Category, domain.FormatPence(p.Price))
	}
	return tw.Flush()
}

func (k *kiosk) add(ctx context.Context, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("add", flag.ContinueOnError)
	qty := fs.Int("qty", 1, "quantity")
	opts := optionFlags{}
	fs.Var(opts, "opt", "option as name=value, repeatable")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}
	if fs.NArg() != 1 {
		return usageError("add takes one product id")
	}

	products, err := k.storefront.GetMenu(ctx)
	if err != nil {
		return err
	}
	for _, p := range products {
		if p.ID != fs.Arg(0) {
			continue
		}
		item, err := menu.Customize(p, opts, *qty)
		if err != nil {
			return domain.NewValidationError("item", "please choose a quantity of at least 1")
		}
		if _, err := k.cart.AddItem(ctx, item); err != nil {
			return err
		}
		return k.show(out)
	}
	return domain.NewValidationError("id", fmt.Sprintf("%s is not on the menu", fs.Arg(0)))
}

func (k *kiosk) show(out io.Writer) error {
	snap := k.cart.Snapshot()
	if snap.IsEmpty() {
		fmt.Fprintln(out, "Your cart is empty.")
		return nil
	}
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	for i, item := range snap.Items {
		fmt.Fprintf(tw, "%d\t%s\tx%d\t%s\n", i+1, item.DisplayName, item.Quantity, domain.FormatPence(item.Subtotal()))
	}
	fmt.Fprintf(tw, "\tTotal (%d items)\t\t%s\n", snap.TotalItems, domain.FormatPence(snap.TotalAmount))
	return tw.Flush()
}

func (k *kiosk) checkout(ctx context.Context, out io.Writer, args []string) error {
	fs := flag.NewFlagSet("checkout", flag.ContinueOnError)
	var d checkout.Details
	fs.StringVar(&d.CustomerName, "name", "", "customer name")
	fs.StringVar(&d.CustomerEmail, "email", "", "email for the receipt")
	fs.StringVar(&d.PickupTime, "pickup", "", "pickup time as HH:MM")
	fs.StringVar(&d.Note, "note", "", "note for the barista")
	if err := fs.Parse(args); err != nil {
		return usageError(err.Error())
	}

	sub, err := k.orchestrator.Submit(ctx, d)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "Order #%s placed.\n", domain.DisplayNumber(sub.Receipt.OrderNumber, sub.Receipt.OrderID))

	if sub.RedirectURL != "" {
		fmt.Fprintf(out, "Complete your payment at:\n  %s\nthen run `kiosk resume`.\n", sub.RedirectURL)
		return nil
	}
	fmt.Fprintln(out, "Waiting for payment...")
	return k.await(out, sub.Watch)
}

// await reports how the watch ended. Interrupting the kiosk stops polling
// through the context the watch was started with.
func (k *kiosk) await(out io.Writer, w *checkout.Watch) error {
	outcome, err := w.Wait(context.Background())
	if err != nil {
		return err
	}
	fmt.Fprintln(out, checkout.OutcomeMessage(outcome))
	if outcome.State == domain.CheckoutStateConfirmed {
		if _, err := k.orchestrator.ConsumeConfirmation(context.Background()); err != nil && !errors.Is(err, checkout.ErrNoConfirmation) {
			k.logger.Warn().Err(err).Msg("failed to clear confirmation")
		}
	}
	if outcome.State == domain.CheckoutStateError {
		return outcome.Err
	}
	return nil
}
