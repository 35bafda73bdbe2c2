package main

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gorilla/websocket"
	"github.com/spf13/cobra"

	"inspirewall/internal/auth"
	"inspirewall/internal/manifest"
	"inspirewall/internal/showcase"
	"inspirewall/pkg/models"
)

func newSubscribeCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "subscribe <email>",
		Short: "Subscribe an address through the API",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var resp map[string]any
			payload := map[string]string{"email": args[0]}
			if err := doJSON(cmd.Context(), app.Client, http.MethodPost, app.BaseURL+"/api/subscribe", adminAuth{}, payload, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
}

type emailsResponse struct {
	Success bool                 `json:"success"`
	Count   int                  `json:"count"`
	Emails  []models.EmailRecord `json:"emails"`
}

func newEmailsCmd(app *App) *cobra.Command {
	var csvOut string
	cmd := &cobra.Command{
		Use:   "emails",
		Short: "List the local email log (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := app.admin()
			if err != nil {
				return err
			}
			var resp emailsResponse
			if err := doJSON(cmd.Context(), app.Client, http.MethodGet, app.BaseURL+"/api/emails", creds, nil, &resp); err != nil {
				return err
			}
			if csvOut != "" {
				if err := writeEmailsCSV(csvOut, resp.Emails); err != nil {
					return fmt.Errorf("write csv: %w", err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "exported %d emails to %s\n", resp.Count, csvOut)
				return nil
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&csvOut, "csv", "", "write the log to this CSV file instead of printing it")
	return cmd
}

func newSubscriptionsCmd(app *App) *cobra.Command {
	var (
		email string
		limit int
	)
	cmd := &cobra.Command{
		Use:   "subscriptions",
		Short: "List recorded subscription attempts (admin)",
		RunE: func(cmd *cobra.Command, args []string) error {
			creds, err := app.admin()
			if err != nil {
				return err
			}
			u, err := url.Parse(app.BaseURL + "/api/admin/subscriptions")
			if err != nil {
				return err
			}
			q := u.Query()
			q.Set("limit", strconv.Itoa(limit))
			if email != "" {
				q.Set("email", email)
			}
			u.RawQuery = q.Encode()

			var resp map[string]any
			if err := doJSON(cmd.Context(), app.Client, http.MethodGet, u.String(), creds, nil, &resp); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), resp)
		},
	}
	cmd.Flags().StringVar(&email, "email", "", "only attempts for this address")
	cmd.Flags().IntVar(&limit, "limit", 50, "max rows")
	return cmd
}

func newTokenCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "token",
		Short: "Exchange the admin secret for a bearer token and save it",
		RunE: func(cmd *cobra.Command, args []string) error {
			if app.Secret == "" {
				return errors.New("--secret is required")
			}
			var resp struct {
				Token     string `json:"token"`
				ExpiresAt string `json:"expires_at"`
			}
			payload := map[string]string{"secret": app.Secret}
			if err := doJSON(cmd.Context(), app.Client, http.MethodPost, app.BaseURL+"/api/admin/token", adminAuth{}, payload, &resp); err != nil {
				return err
			}
			if err := saveToken(app.TokenPath, resp.Token); err != nil {
				return fmt.Errorf("save token: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "token saved to %s (expires %s)\n", app.TokenPath, resp.ExpiresAt)
			return nil
		},
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "hash <secret>",
		Short: "Print a bcrypt hash for ADMIN_SECRET_HASH",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			hash, err := auth.HashSecret(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), hash)
			return nil
		},
	})
	return cmd
}

func newLogoutCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "logout",
		Short: "Forget the saved admin token",
		RunE: func(cmd *cobra.Command, args []string) error {
			return clearToken(app.TokenPath)
		},
	}
}

func newWatchCmd(app *App) *cobra.Command {
	var tcpAddr string
	cmd := &cobra.Command{
		Use:   "watch",
		Short: "Stream showcase events (WebSocket, or the TCP sync port with --tcp)",
		RunE: func(cmd *cobra.Command, args []string) error {
			if tcpAddr != "" {
				return watchTCP(cmd, tcpAddr)
			}
			endpoint, err := websocketURL(app.BaseURL, "/ws")
			if err != nil {
				return fmt.Errorf("ws url: %w", err)
			}
			conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
			if err != nil {
				return err
			}
			defer conn.Close()
			log.Printf("[watch] connected to %s", endpoint)

			go func() {
				sig := make(chan os.Signal, 1)
				signal.Notify(sig, os.Interrupt)
				<-sig
				_ = conn.WriteControl(websocket.CloseMessage,
					websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
				conn.Close()
			}()

			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					if websocket.IsCloseError(err, websocket.CloseNormalClosure) || errors.Is(err, net.ErrClosed) {
						return nil
					}
					return err
				}
				fmt.Fprint(cmd.OutOrStdout(), string(msg))
			}
		},
	}
	cmd.Flags().StringVar(&tcpAddr, "tcp", "", "TCP sync address, e.g. 127.0.0.1:7070")
	return cmd
}

func watchTCP(cmd *cobra.Command, addr string) error {
	conn, err := net.Dial("tcp", addr)
	if err != nil {
		return fmt.Errorf("dial %s: %w", addr, err)
	}
	defer conn.Close()

	log.Printf("[watch] connected to %s", addr)
	sc := bufio.NewScanner(conn)
	sc.Buffer(make([]byte, 64*1024), 1<<20)
	for sc.Scan() {
		fmt.Fprintln(cmd.OutOrStdout(), sc.Text())
	}
	return sc.Err()
}

func newSendCmd(app *App) *cobra.Command {
	var in showcase.Input
	cmd := &cobra.Command{
		Use:   "send <type>",
		Short: "Send one page input to the showcase (pointer.enter, dblclick, key, ...)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.Type = args[0]
			endpoint, err := websocketURL(app.BaseURL, "/ws")
			if err != nil {
				return fmt.Errorf("ws url: %w", err)
			}
			conn, _, err := websocket.DefaultDialer.Dial(endpoint, nil)
			if err != nil {
				return err
			}
			defer conn.Close()

			// skip the welcome message
			_ = conn.SetReadDeadline(time.Now().Add(5 * time.Second))
			if _, _, err := conn.ReadMessage(); err != nil {
				return fmt.Errorf("read welcome: %w", err)
			}

			b, err := json.Marshal(in)
			if err != nil {
				return err
			}
			if err := conn.WriteMessage(websocket.TextMessage, b); err != nil {
				return err
			}

			// an error reply arrives quickly when the input is rejected
			_ = conn.SetReadDeadline(time.Now().Add(300 * time.Millisecond))
			for {
				_, msg, err := conn.ReadMessage()
				if err != nil {
					break
				}
				var ev struct {
					Type  string `json:"type"`
					Error string `json:"error"`
				}
				if json.Unmarshal(msg, &ev) == nil && ev.Type == "error" {
					return fmt.Errorf("showcase rejected input: %s", ev.Error)
				}
			}
			_ = conn.WriteControl(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), time.Now().Add(time.Second))
			fmt.Fprintln(cmd.OutOrStdout(), "sent", in.Type)
			return nil
		},
	}
	cmd.Flags().IntVar(&in.Slot, "slot", 0, "slot index")
	cmd.Flags().StringVar(&in.Key, "key", "", "key name for key events, e.g. Escape")
	cmd.Flags().StringVar(&in.Overlay, "overlay", "", "lightbox or spotlight, for backdrop and close")
	return cmd
}

func newManifestCmd(app *App) *cobra.Command {
	var root string
	cmd := &cobra.Command{
		Use:   "manifest",
		Short: "Show, regenerate, or prepare the wallpaper manifest",
	}
	cmd.PersistentFlags().StringVar(&root, "root", ".", "site directory")

	cmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the manifest the API is serving",
		RunE: func(cmd *cobra.Command, args []string) error {
			var items []models.Wallpaper
			if err := doJSON(cmd.Context(), app.Client, http.MethodGet, app.BaseURL+"/wallpapers.json", adminAuth{}, nil, &items); err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), items)
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "generate",
		Short: "Rebuild wallpapers.json from the images directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			res, err := manifest.NewGenerator(root, nil).Generate(cmd.Context())
			if err != nil {
				return err
			}
			if len(res.Entries) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No images found in", res.ImagesDir)
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Generated %d entries in %s\n", len(res.Entries), res.Output)
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "copy-images",
		Short: "Copy assets/Images into images/",
		RunE: func(cmd *cobra.Command, args []string) error {
			dst := filepath.Join(root, "images")
			n, err := manifest.CopyImages(filepath.Join(root, "assets", "Images"), dst, nil)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Copied %d files to %s\n", n, dst)
			return nil
		},
	})
	return cmd
}
