package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	domain "garden-app/internal/domain/registration"
	"garden-app/internal/form"
	reguc "garden-app/internal/usecase/registration"
)

// errSubmitFailed — форма отправлена, но регистрация не состоялась.
// Текст ошибки уже показан пользователю.
var errSubmitFailed = errors.New("registration failed")

// redirectNavigator передаёт адрес перехода команде, которая ждёт таймер.
type redirectNavigator struct {
	urls chan string
}

func (n *redirectNavigator) Navigate(url string) {
	select {
	case n.urls <- url:
	default:
	}
}

func newRegisterCmd(a *app) *cobra.Command {
	var variantName, formPath string

	cmd := &cobra.Command{
		Use:   "register",
		Short: "Отправить форму регистрации из YAML-файла",
		Long: "Читает значения полей формы (id: значение) из YAML и выполняет одну отправку.\n" +
			"После успеха ждёт перенаправления и показывает профиль.",
		Example: "  garden register --form form.yaml\n  garden register --variant phone --form - < form.yaml",
		RunE: func(cmd *cobra.Command, args []string) error {
			if variantName == "" {
				variantName = a.cfg.Form.Variant
			}
			variant, err := domain.LookupVariant(variantName)
			if err != nil {
				return err
			}

			doc, err := readForm(cmd.InOrStdin(), formPath)
			if err != nil {
				return err
			}

			nav := &redirectNavigator{urls: make(chan string, 1)}
			submitter := reguc.NewSubmitter(a.client, a.store, a.log, reguc.Options{
				Variant:       variant,
				RedirectURL:   a.cfg.Form.RedirectURL,
				RedirectDelay: a.cfg.Form.RedirectDelay,
				Navigator:     nav,
			})
			defer submitter.CancelRedirect()

			var view form.View
			outcome, err := submitter.HandleSubmit(cmd.Context(), doc, &view)
			if err != nil {
				return err
			}
			printView(cmd, &view)

			if _, ok := outcome.(domain.Accepted); !ok {
				return errSubmitFailed
			}
			return awaitRedirect(cmd.Context(), cmd, a, nav)
		},
	}

	cmd.Flags().StringVar(&variantName, "variant", "",
		"Вариант формы: "+strings.Join(domain.VariantNames(), "|")+" (по умолчанию env FORM_VARIANT)")
	cmd.Flags().StringVarP(&formPath, "form", "f", "", "YAML-файл с полями формы, '-' для stdin")
	_ = cmd.MarkFlagRequired("form")
	return cmd
}

func readForm(stdin io.Reader, path string) (form.Values, error) {
	if path == "-" {
		return form.LoadYAML(stdin)
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open form file: %w", err)
	}
	defer f.Close()
	return form.LoadYAML(f)
}

// awaitRedirect ждёт срабатывания таймера перехода и показывает профиль.
func awaitRedirect(ctx context.Context, cmd *cobra.Command, a *app, nav *redirectNavigator) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case url := <-nav.urls:
		fmt.Fprintf(cmd.OutOrStdout(), "→ %s\n", url)
	}
	return showProfile(ctx, cmd, a)
}

func printView(cmd *cobra.Command, view *form.View) {
	if view.Error.Visible {
		fmt.Fprintln(cmd.ErrOrStderr(), view.Error.Text)
	}
	if view.Success.Visible {
		fmt.Fprintln(cmd.OutOrStdout(), view.Success.Text)
	}
}
