package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"garden-app/internal/apiclient"
	domain "garden-app/internal/domain/registration"
	"garden-app/internal/usecase/session"
)

func newLoginCmd(a *app) *cobra.Command {
	var username, password string

	cmd := &cobra.Command{
		Use:   "login",
		Short: "Войти и сохранить access-токен",
		RunE: func(cmd *cobra.Command, args []string) error {
			login, _ := domain.StripMarker(strings.TrimSpace(username))

			switch o := a.sessions().Login(cmd.Context(), login, password).(type) {
			case domain.Accepted:
				fmt.Fprintln(cmd.OutOrStdout(), domain.MsgLoggedIn)
				return nil
			case domain.Rejected:
				return errors.New(o.Detail.Message(domain.MsgLoginFailed))
			default:
				return errors.New(domain.MsgConnectionFailed)
			}
		},
	}
	cmd.Flags().StringVarP(&username, "username", "u", "", "Username (префикс @ необязателен)")
	cmd.Flags().StringVarP(&password, "password", "p", "", "Пароль")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("password")
	return cmd
}

func newProfileCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Показать профиль по сохранённому токену",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showProfile(cmd.Context(), cmd, a)
		},
	}
}

func newLogoutCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Удалить сохранённые токен и пользователя",
		RunE: func(cmd *cobra.Command, args []string) error {
			return a.sessions().Logout(cmd.Context())
		},
	}
}

func showProfile(ctx context.Context, cmd *cobra.Command, a *app) error {
	sessions := a.sessions()

	_, info, err := sessions.Token(ctx)
	if errors.Is(err, session.ErrNoSession) {
		return errors.New("нет сохранённого токена, выполните garden login")
	}
	if err != nil {
		return err
	}
	if info != nil {
		line := "token: " + info.Algorithm
		if info.UserID != "" {
			line += ", user_id " + info.UserID
		}
		if info.ExpiresAt != nil {
			line += ", expires " + info.ExpiresAt.Format(time.RFC3339)
			if info.Expired(time.Now()) {
				line += " (истёк)"
			}
		}
		fmt.Fprintln(cmd.OutOrStdout(), line)
	}

	profile, err := sessions.Profile(ctx)
	if errors.Is(err, apiclient.ErrUnauthorized) {
		return fmt.Errorf("токен отклонён сервером: %w", err)
	}
	if err != nil {
		return err
	}

	var pretty any
	if err := json.Unmarshal(profile, &pretty); err != nil {
		return err
	}
	out, err := json.MarshalIndent(pretty, "", "  ")
	if err != nil {
		return err
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(out))
	return nil
}
