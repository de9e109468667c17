package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spiritrise/yogacamp/internal/registrations"
)

type checkResult struct {
	Registered   bool   `json:"registered"`
	Name         string `json:"name"`
	RegisteredAt string `json:"registered_at"`
	Error        string `json:"error"`
}

func checkCmd(a *app) *cobra.Command {
	var (
		req      registrations.CheckRequest
		endpoint string
	)
	cmd := &cobra.Command{
		Use:   "check",
		Short: "Ask the registration API whether a contact is already registered",
		RunE: func(cmd *cobra.Command, args []string) error {
			if endpoint == "" {
				endpoint = checkURL(a.cfg.Delivery.EndpointURL)
			}
			res, err := runCheck(cmd.Context(), http.DefaultClient, endpoint, req)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if !res.Registered {
				fmt.Fprintln(out, "Not registered")
				return nil
			}
			fmt.Fprintf(out, "%s is registered (since %s)\n", res.Name, res.RegisteredAt)
			return nil
		},
	}
	cmd.Flags().StringVar(&req.Email, "email", "", "Email address to look up")
	cmd.Flags().StringVar(&req.Phone, "phone", "", "Phone number to look up")
	cmd.Flags().StringVar(&endpoint, "endpoint", "", "check-registration URL (defaults to REGISTER_ENDPOINT_URL's host)")
	return cmd
}

// checkURL swaps the path of the register endpoint for the lookup route.
func checkURL(registerURL string) string {
	u, err := url.Parse(registerURL)
	if err != nil || u.Host == "" {
		return strings.TrimSuffix(registerURL, "/api/register") + "/api/check-registration"
	}
	u.Path = "/api/check-registration"
	u.RawQuery = ""
	return u.String()
}

func runCheck(ctx context.Context, hc *http.Client, endpoint string, req registrations.CheckRequest) (*checkResult, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")
	resp, err := hc.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("check registration: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	if err != nil {
		return nil, err
	}
	var res checkResult
	if err := json.Unmarshal(raw, &res); err != nil {
		return nil, fmt.Errorf("check registration: unexpected response %s", resp.Status)
	}
	if resp.StatusCode != http.StatusOK {
		if res.Error == "" {
			res.Error = resp.Status
		}
		return nil, fmt.Errorf("check registration: %s", res.Error)
	}
	return &res, nil
}
