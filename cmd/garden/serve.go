package main

import (
	"github.com/spf13/cobra"

	"garden-app/internal/server"
)

func newServeCmd(a *app) *cobra.Command {
	var host, port string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Запустить локальный сервер со страницами формы",
		RunE: func(cmd *cobra.Command, args []string) error {
			if host != "" {
				a.cfg.Server.Host = host
			}
			if port != "" {
				a.cfg.Server.Port = port
			}

			srv, err := server.NewServer(a.cfg, a.store, a.log)
			if err != nil {
				return err
			}
			return srv.Start()
		},
	}
	cmd.Flags().StringVar(&host, "host", "", "Адрес (по умолчанию env SERVER_HOST)")
	cmd.Flags().StringVar(&port, "port", "", "Порт (по умолчанию env SERVER_PORT)")
	return cmd
}
