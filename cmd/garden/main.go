package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"garden-app/internal/apiclient"
	"garden-app/internal/config"
	"garden-app/internal/storage"
	"garden-app/internal/storage/backend"
	"garden-app/internal/usecase/session"
	"garden-app/pkg/logger"
)

// app — зависимости, общие для всех команд.
type app struct {
	cfg    *config.Config
	log    logger.Logger
	store  storage.Store
	client *apiclient.Client
}

func (a *app) sessions() session.Service {
	return session.NewService(a.client, a.store, a.log)
}

//	@title			Garden App form pages
//	@version		1.0
//	@description	JSON-представление страниц регистрации, входа и профиля.
//	@BasePath		/
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	var apiURL string

	root := &cobra.Command{
		Use:           "garden",
		Short:         "Клиент регистрации и входа в Garden App",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if apiURL != "" {
				cfg.API.BaseURL = apiURL
			}
			a.cfg = cfg
			a.log = logger.New(cfg.AppEnv, cfg.Log.Level)

			store, err := backend.Open(cmd.Context(), cfg, a.log)
			if err != nil {
				return err
			}
			a.store = store
			a.client = apiclient.New(cfg.API.BaseURL, nil, a.log)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.store == nil {
				return nil
			}
			return a.store.Close()
		},
	}
	root.PersistentFlags().StringVar(&apiURL, "api-url", "", "Базовый URL API (по умолчанию env API_BASE_URL)")

	root.AddCommand(
		newRegisterCmd(a),
		newLoginCmd(a),
		newProfileCmd(a),
		newLogoutCmd(a),
		newServeCmd(a),
	)

	return root
}
