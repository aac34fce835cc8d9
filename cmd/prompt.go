package cmd

import (
	"net/mail"
	"os"
	"sort"
	"strings"

	"github.com/cockroachdb/errors"
	"github.com/manifoldco/promptui"
	"golang.org/x/exp/maps"
	"golang.org/x/term"

	"cinema-ticket-cli/model"
)

// errAborted is returned when the user backs out of a prompt.
var errAborted = errors.New("aborted")

// stdinIsTerminal is swapped out by tests.
var stdinIsTerminal = func() bool {
	return term.IsTerminal(int(os.Stdin.Fd()))
}

// needTerminal fails fast when a prompt would block on piped input.
func needTerminal(hint string) error {
	if stdinIsTerminal() {
		return nil
	}
	return errors.Newf("no terminal available for an interactive prompt (%s)", hint)
}

func promptText(label, hint string, validate promptui.ValidateFunc) (string, error) {
	if err := needTerminal(hint); err != nil {
		return "", err
	}
	prompt := promptui.Prompt{
		Label:    label,
		Validate: validate,
	}
	value, err := prompt.Run()
	if err != nil {
		return "", errors.Mark(err, errAborted)
	}
	return strings.TrimSpace(value), nil
}

func promptPassword(label, hint string) (string, error) {
	if err := needTerminal(hint); err != nil {
		return "", err
	}
	prompt := promptui.Prompt{
		Label: label,
		Mask:  '*',
		Validate: func(input string) error {
			if input == "" {
				return errors.New("password is required")
			}
			return nil
		},
	}
	value, err := prompt.Run()
	if err != nil {
		return "", errors.Mark(err, errAborted)
	}
	return value, nil
}

func validEmail(input string) error {
	if _, err := mail.ParseAddress(strings.TrimSpace(input)); err != nil {
		return errors.New("invalid email")
	}
	return nil
}

func required(input string) error {
	if strings.TrimSpace(input) == "" {
		return errors.New("value is required")
	}
	return nil
}

// promptPaymentMethod offers the checkout methods by label.
func promptPaymentMethod() (string, error) {
	if err := needTerminal("use --method"); err != nil {
		return "", err
	}
	methodByLabel := make(map[string]string, len(model.PaymentMethods))
	for _, method := range model.PaymentMethods {
		methodByLabel[model.PaymentMethodLabel(method)] = method
	}
	labels := maps.Keys(methodByLabel)
	sort.Strings(labels)

	selectMethod := promptui.Select{
		Label: "Payment Method",
		Items: labels,
		Size:  len(labels),
	}
	_, label, err := selectMethod.Run()
	if err != nil {
		return "", errors.Mark(err, errAborted)
	}
	method, ok := methodByLabel[label]
	if !ok {
		return "", errors.Newf("invalid payment method %q", label)
	}
	return method, nil
}

// normalizePaymentMethod accepts an API value or a display label.
func normalizePaymentMethod(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	for _, method := range model.PaymentMethods {
		if strings.EqualFold(raw, method) || strings.EqualFold(raw, model.PaymentMethodLabel(method)) {
			return method, nil
		}
	}
	switch strings.ToLower(raw) {
	case "card", "cc":
		return model.PaymentCreditCard, nil
	case "ewallet", "wallet":
		return model.PaymentEWallet, nil
	}
	return "", errors.Newf("unknown payment method %q (use credit_card or e_wallet)", raw)
}

// confirm asks a yes/no question; anything but y aborts.
func confirm(label, hint string) error {
	if err := needTerminal(hint); err != nil {
		return err
	}
	prompt := promptui.Prompt{
		Label:     label,
		IsConfirm: true,
	}
	if _, err := prompt.Run(); err != nil {
		return errors.Mark(err, errAborted)
	}
	return nil
}
